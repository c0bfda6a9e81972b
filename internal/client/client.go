// Package client is the in-process handle to a running orchestrator. The
// front end holds exactly one Client, speaks the framed protocol through it,
// and closes it to tear the whole process tree down.
package client

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/acask/medals/internal/pipe"
	"github.com/acask/medals/internal/protocol"
	"github.com/acask/medals/internal/steam"
)

// Client owns the orchestrator child process and its pipe pair. Methods are
// safe for concurrent use; the wire is strictly one request, one response.
type Client struct {
	mu        sync.Mutex
	child     *pipe.Child
	timeout   time.Duration
	logger    *slog.Logger
	closeOnce sync.Once
	closeErr  error
}

// Start spawns exe as the orchestrator process and returns the handle to
// it. A non-empty configPath is passed through so the whole process tree
// reads the same file.
func Start(exe, configPath string, timeout time.Duration, logger *slog.Logger) (*Client, error) {
	args := []string{"--orchestrator"}
	if configPath != "" {
		args = append(args, "--config", configPath)
	}
	child, err := pipe.Spawn(exe, args...)
	if err != nil {
		return nil, fmt.Errorf("start orchestrator: %w", err)
	}
	logger.Info("orchestrator started", "exe", exe)
	return &Client{child: child, timeout: timeout, logger: logger}, nil
}

// call performs one command/response round trip.
func call[T any](c *Client, cmd protocol.Command) (T, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero T
	if err := protocol.WriteCommand(c.child.TX, c.timeout, cmd); err != nil {
		return zero, fmt.Errorf("send %s: %w", cmd.Kind, err)
	}
	resp, err := protocol.ReadResponse[T](c.child.RX, c.timeout)
	if err != nil {
		return zero, fmt.Errorf("receive %s response: %w", cmd.Kind, err)
	}
	return resp.Result()
}

// OwnedApps lists the apps the current user owns.
func (c *Client) OwnedApps() ([]steam.OwnedApp, error) {
	return call[[]steam.OwnedApp](c, protocol.GetOwnedAppList())
}

// Status checks that the orchestrator is alive and responsive.
func (c *Client) Status() (bool, error) {
	return call[bool](c, protocol.Status())
}

// Launch starts a worker process for the given app.
func (c *Client) Launch(appID uint32) (bool, error) {
	return call[bool](c, protocol.LaunchApp(appID))
}

// Stop shuts the app's worker down and waits for it to exit.
func (c *Client) Stop(appID uint32) (bool, error) {
	return call[bool](c, protocol.StopApp(appID))
}

// StopAll shuts every running worker down.
func (c *Client) StopAll() (bool, error) {
	return call[bool](c, protocol.StopApps())
}

// Achievements lists the app's achievements with their current state.
func (c *Client) Achievements(appID uint32) ([]steam.Achievement, error) {
	return call[[]steam.Achievement](c, protocol.GetAchievements(appID))
}

// Stats lists the app's stats with their current values.
func (c *Client) Stats(appID uint32) ([]steam.Stat, error) {
	return call[[]steam.Stat](c, protocol.GetStats(appID))
}

// SetAchievement unlocks or relocks one achievement.
func (c *Client) SetAchievement(appID uint32, unlocked bool, achievementID string) (bool, error) {
	return call[bool](c, protocol.SetAchievement(appID, unlocked, achievementID))
}

// SetIntStat writes an integer stat and returns the value actually stored.
func (c *Client) SetIntStat(appID uint32, statID string, value int32) (int32, error) {
	return call[int32](c, protocol.SetIntStat(appID, statID, value))
}

// SetFloatStat writes a float stat and returns the value actually stored.
func (c *Client) SetFloatStat(appID uint32, statID string, value float32) (float32, error) {
	return call[float32](c, protocol.SetFloatStat(appID, statID, value))
}

// ResetStats resets the app's stats, optionally including achievements.
func (c *Client) ResetStats(appID uint32, includeAchievements bool) (bool, error) {
	return call[bool](c, protocol.ResetStats(appID, includeAchievements))
}

// Close sends Shutdown, waits for the orchestrator to exit and closes the
// pipes. Safe to call more than once; only the first call does the work.
func (c *Client) Close() error {
	c.closeOnce.Do(func() {
		_, err := call[bool](c, protocol.Shutdown())
		if err != nil {
			c.logger.Warn("shutdown exchange failed", "error", err.Error())
		}
		if err := c.child.Proc.Wait(); err != nil {
			c.logger.Warn("orchestrator exit", "error", err.Error())
		}
		c.closeErr = c.child.Close()
	})
	return c.closeErr
}
