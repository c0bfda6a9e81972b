// Package app wires the parsed command line to one of the three process
// roles: the user-facing client, the orchestrator hub or a per-app worker.
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/acask/medals/internal/applist"
	"github.com/acask/medals/internal/cli"
	"github.com/acask/medals/internal/client"
	"github.com/acask/medals/internal/config"
	"github.com/acask/medals/internal/logging"
	"github.com/acask/medals/internal/orchestrator"
	"github.com/acask/medals/internal/pipe"
	"github.com/acask/medals/internal/protocol"
	"github.com/acask/medals/internal/steam"
	"github.com/acask/medals/internal/version"
	"github.com/acask/medals/internal/worker"
)

type Runner struct {
	Stdout io.Writer
	Stderr io.Writer
	Logger *slog.Logger
}

func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	r := Runner{Stdout: stdout, Stderr: stderr}
	return r.Execute(ctx, args)
}

func (r Runner) Execute(ctx context.Context, args []string) int {
	parsed, err := cli.Parse(args)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n\n", err)
		fmt.Fprint(r.Stderr, cli.HelpText("medals"))
		return 2
	}

	if parsed.ShowHelp {
		fmt.Fprint(r.Stdout, cli.HelpText("medals"))
		return 0
	}

	if parsed.Role == cli.RoleClient && parsed.Command == cli.CommandVersion {
		fmt.Fprintln(r.Stdout, version.String())
		return 0
	}

	cfgLoaded, err := config.Load(parsed.ConfigPath)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	cfg := cfgLoaded.Config

	logRuntime, err := logging.New(roleName(parsed.Role), cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: setup logging: %v\n", err)
		return 1
	}
	defer func() { _ = logRuntime.Close() }()

	logger := r.Logger
	if logger == nil {
		logger = logRuntime.Logger
	}

	switch parsed.Role {
	case cli.RoleOrchestrator:
		return r.runOrchestrator(parsed, cfg, logger)
	case cli.RoleWorker:
		return r.runWorker(parsed, cfg, logger)
	default:
		return r.runClient(parsed, cfg, logger)
	}
}

func roleName(role cli.Role) string {
	switch role {
	case cli.RoleOrchestrator:
		return "orchestrator"
	case cli.RoleWorker:
		return "worker"
	default:
		return "client"
	}
}

func (r Runner) runOrchestrator(parsed cli.Parsed, cfg config.Config, logger *slog.Logger) int {
	endpoints, err := pipe.Inherited(parsed.TXFD, parsed.RXFD)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 2
	}
	defer endpoints.Close()

	exe, err := os.Executable()
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: resolve executable: %v\n", err)
		return 1
	}

	spawn := func(appID uint32) (*pipe.Child, error) {
		args := []string{fmt.Sprintf("--app=%d", appID)}
		if parsed.ConfigPath != "" {
			args = append(args, "--config", parsed.ConfigPath)
		}
		return pipe.Spawn(exe, args...)
	}

	lister := applist.New(cfg.AppListURL, cfg.CacheDir, logger)
	o := orchestrator.New(spawn, steam.OpenSession, lister, cfg.Timeout(), logger)

	logger.Info("orchestrator ready")
	return o.Run(endpoints.RX, endpoints.TX)
}

func (r Runner) runWorker(parsed cli.Parsed, cfg config.Config, logger *slog.Logger) int {
	endpoints, err := pipe.Inherited(parsed.TXFD, parsed.RXFD)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 2
	}
	defer endpoints.Close()

	connect := func(appID uint32) (steam.AppClient, error) {
		schemaPath, err := cfg.SchemaFile(appID)
		if err != nil {
			return nil, err
		}
		return steam.Connect(schemaPath, cfg.Language)(appID)
	}

	w := worker.New(parsed.AppID, endpoints.RX, endpoints.TX, connect, cfg.Timeout(), logger)
	return w.Run()
}

func (r Runner) runClient(parsed cli.Parsed, cfg config.Config, logger *slog.Logger) int {
	exe, err := os.Executable()
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: resolve executable: %v\n", err)
		return 1
	}

	c, err := client.Start(exe, parsed.ConfigPath, cfg.Timeout(), logger)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	defer func() {
		if err := c.Close(); err != nil {
			logger.Warn("close backend", "error", err.Error())
		}
	}()

	if err := r.runCommand(c, parsed); err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		logger.Error("command failed", "command", string(parsed.Command), "error", err.Error())
		return 1
	}
	return 0
}

func (r Runner) runCommand(c *client.Client, parsed cli.Parsed) error {
	switch parsed.Command {
	case cli.CommandApps:
		return r.commandApps(c)
	case cli.CommandStatus:
		if _, err := c.Status(); err != nil {
			return err
		}
		fmt.Fprintln(r.Stdout, "ok")
		return nil
	case cli.CommandAchievements:
		return r.commandAchievements(c, parsed.TargetApp)
	case cli.CommandStats:
		return r.commandStats(c, parsed.TargetApp)
	case cli.CommandUnlock, cli.CommandLock:
		return r.commandSetAchievement(c, parsed)
	case cli.CommandSetStat:
		return r.commandSetStat(c, parsed)
	case cli.CommandResetStats:
		return r.commandResetStats(c, parsed)
	default:
		return fmt.Errorf("unsupported command %q", parsed.Command)
	}
}

func (r Runner) commandApps(c *client.Client) error {
	apps, err := c.OwnedApps()
	if err != nil {
		return err
	}
	if len(apps) == 0 {
		fmt.Fprintln(r.Stdout, "no owned apps found")
		return nil
	}

	for _, app := range apps {
		line := fmt.Sprintf("%d | %s | type=%s | developer=%s", app.AppID, app.Name, app.Type, app.Developer)
		if app.MetacriticScore != nil {
			line += fmt.Sprintf(" | metacritic=%d", *app.MetacriticScore)
		}
		fmt.Fprintln(r.Stdout, line)
	}
	return nil
}

// withApp launches a worker for the app, runs fn and stops the worker
// again. Stop failures are reported only when fn itself succeeded.
func withApp(c *client.Client, appID uint32, fn func() error) error {
	if _, err := c.Launch(appID); err != nil {
		return fmt.Errorf("launch app %d: %w", appID, err)
	}
	fnErr := fn()
	if _, err := c.Stop(appID); err != nil && fnErr == nil {
		return fmt.Errorf("stop app %d: %w", appID, err)
	}
	return fnErr
}

func (r Runner) commandAchievements(c *client.Client, appID uint32) error {
	return withApp(c, appID, func() error {
		achievements, err := c.Achievements(appID)
		if err != nil {
			return err
		}
		if len(achievements) == 0 {
			fmt.Fprintln(r.Stdout, "no achievements")
			return nil
		}

		for _, a := range achievements {
			mark := " "
			if a.Achieved {
				mark = "*"
			}
			line := fmt.Sprintf("%s %s | %s", mark, a.ID, a.Name)
			if a.GlobalPercent != nil {
				line += fmt.Sprintf(" | global=%.1f%%", *a.GlobalPercent)
			}
			if a.UnlockTime != nil {
				line += fmt.Sprintf(" | unlocked=%s", a.UnlockTime.Format(time.RFC3339))
			}
			fmt.Fprintln(r.Stdout, line)
		}
		return nil
	})
}

func (r Runner) commandStats(c *client.Client, appID uint32) error {
	return withApp(c, appID, func() error {
		stats, err := c.Stats(appID)
		if err != nil {
			return err
		}
		if len(stats) == 0 {
			fmt.Fprintln(r.Stdout, "no stats")
			return nil
		}

		for _, s := range stats {
			var line string
			switch s.Kind {
			case steam.StatInt:
				line = fmt.Sprintf("%s | int | value=%d", s.ID, s.IntValue)
			case steam.StatFloat:
				line = fmt.Sprintf("%s | float | value=%g", s.ID, s.FloatValue)
			}
			if s.IncrementOnly {
				line += " | increment-only"
			}
			if s.Protected() {
				line += " | protected"
			}
			fmt.Fprintln(r.Stdout, line)
		}
		return nil
	})
}

func (r Runner) commandSetAchievement(c *client.Client, parsed cli.Parsed) error {
	return withApp(c, parsed.TargetApp, func() error {
		if _, err := c.SetAchievement(parsed.TargetApp, parsed.Unlock, parsed.AchievementID); err != nil {
			return err
		}
		if parsed.Unlock {
			fmt.Fprintf(r.Stdout, "unlocked %s\n", parsed.AchievementID)
		} else {
			fmt.Fprintf(r.Stdout, "locked %s\n", parsed.AchievementID)
		}
		return nil
	})
}

func (r Runner) commandSetStat(c *client.Client, parsed cli.Parsed) error {
	return withApp(c, parsed.TargetApp, func() error {
		if parsed.StatIsFloat {
			stored, err := c.SetFloatStat(parsed.TargetApp, parsed.StatID, parsed.FloatValue)
			if err != nil {
				return err
			}
			fmt.Fprintf(r.Stdout, "%s = %g\n", parsed.StatID, stored)
			return nil
		}

		stored, err := c.SetIntStat(parsed.TargetApp, parsed.StatID, parsed.IntValue)
		if err != nil {
			return err
		}
		fmt.Fprintf(r.Stdout, "%s = %d\n", parsed.StatID, stored)
		if stored != parsed.IntValue {
			fmt.Fprintf(r.Stderr, "warning: requested %d, stored %d\n", parsed.IntValue, stored)
		}
		return nil
	})
}

func (r Runner) commandResetStats(c *client.Client, parsed cli.Parsed) error {
	return withApp(c, parsed.TargetApp, func() error {
		ok, err := c.ResetStats(parsed.TargetApp, parsed.IncludeAchievements)
		if err != nil {
			return err
		}
		if !ok {
			return protocol.ErrUnknown
		}
		if parsed.IncludeAchievements {
			fmt.Fprintln(r.Stdout, "stats and achievements reset")
		} else {
			fmt.Fprintln(r.Stdout, "stats reset")
		}
		return nil
	})
}
