// Package orchestrator runs the hub process between the user-facing client
// and the per-app worker processes. It owns the native session used for the
// owned-app catalog, spawns one worker per launched app, and relays worker
// responses back to the client without decoding them.
package orchestrator

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/acask/medals/internal/pipe"
	"github.com/acask/medals/internal/protocol"
	"github.com/acask/medals/internal/steam"
)

// Spawner launches the worker process that will serve appID.
type Spawner func(appID uint32) (*pipe.Child, error)

// Catalog resolves the owned-app list through a native session.
type Catalog interface {
	OwnedApps(session steam.Session) ([]steam.OwnedApp, error)
}

// Orchestrator serves client commands over one pipe pair. The children map
// is the single source of truth for which apps are running.
type Orchestrator struct {
	spawn    Spawner
	dial     steam.SessionFunc
	catalog  Catalog
	timeout  time.Duration
	logger   *slog.Logger
	session  steam.Session
	children map[uint32]*pipe.Child
}

// New builds an orchestrator. The session is not dialed here; it is
// established lazily by the first non-Shutdown command and re-attempted on
// every later command until one succeeds.
func New(spawn Spawner, dial steam.SessionFunc, catalog Catalog, timeout time.Duration, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{
		spawn:    spawn,
		dial:     dial,
		catalog:  catalog,
		timeout:  timeout,
		logger:   logger,
		children: make(map[uint32]*pipe.Child),
	}
}

// Run serves commands from rx until Shutdown arrives or the pipe closes.
// The return value is the process exit code.
func (o *Orchestrator) Run(rx io.Reader, tx io.Writer) int {
	for {
		cmd, err := protocol.ReadCommand(rx, o.timeout)
		if err != nil {
			// A closed pipe means the client is gone; tear down and exit
			// cleanly, the same way a worker does.
			o.logger.Error("read command failed", "error", err.Error())
			o.stopAll()
			o.closeSession()
			return 0
		}

		o.logger.Debug("command received", "kind", string(cmd.Kind))

		if cmd.Kind == protocol.KindShutdown {
			o.stopAll()
			o.closeSession()
			reply(o, tx, protocol.Success(true))
			return 0
		}

		o.serve(tx, cmd)
	}
}

func (o *Orchestrator) serve(tx io.Writer, cmd protocol.Command) {
	// Only Shutdown is served without a session. Everything else attempts
	// the connection first and reports SteamConnectionFailed while the
	// native client stays unreachable.
	session, err := o.ensureSession()
	if err != nil {
		o.logger.Error("session unavailable", "kind", string(cmd.Kind), "error", err.Error())
		reply(o, tx, protocol.Failure[bool](protocol.ErrSteamConnectionFailed))
		return
	}

	switch cmd.Kind {
	case protocol.KindStatus:
		reply(o, tx, protocol.Success(true))

	case protocol.KindGetOwnedAppList:
		apps, err := o.catalog.OwnedApps(session)
		if err != nil {
			o.logger.Error("owned app list failed", "error", err.Error())
			reply(o, tx, protocol.Failure[bool](protocol.ErrAppListRetrievalFailed))
			return
		}
		reply(o, tx, protocol.Success(apps))

	case protocol.KindLaunchApp:
		reply(o, tx, o.launch(cmd.AppID))

	case protocol.KindStopApp:
		o.relay(tx, o.stop(cmd.AppID))

	case protocol.KindStopApps:
		o.stopAll()
		reply(o, tx, protocol.Success(true))

	default:
		if cmd.TargetsApp() {
			o.relay(tx, o.forward(cmd))
			return
		}
		o.logger.Warn("command not servable", "kind", string(cmd.Kind))
		reply(o, tx, protocol.Failure[bool](protocol.ErrUnknown))
	}
}

// launch spawns a worker for appID. Launching an app that is already running
// is refused without touching the existing worker.
func (o *Orchestrator) launch(appID uint32) protocol.Response[bool] {
	if _, running := o.children[appID]; running {
		o.logger.Warn("app already running", "app_id", appID)
		return protocol.Failure[bool](protocol.ErrUnknown)
	}

	child, err := o.spawn(appID)
	if err != nil {
		o.logger.Error("spawn worker failed", "app_id", appID, "error", err.Error())
		return protocol.Failure[bool](protocol.ErrUnknown)
	}

	o.children[appID] = child
	o.logger.Info("worker launched", "app_id", appID)
	return protocol.Success(true)
}

// stop tells the app's worker to shut down, waits for the process to exit
// and removes it from the running set. The worker's own shutdown
// acknowledgment is relayed to the client verbatim.
func (o *Orchestrator) stop(appID uint32) protocol.RawFrame {
	child, running := o.children[appID]
	if !running {
		o.logger.Warn("app not running", "app_id", appID)
		return protocol.EncodeResponse(protocol.Failure[bool](protocol.ErrUnknown))
	}

	frame := o.exchange(appID, child, protocol.Shutdown())
	if _, alive := o.children[appID]; alive {
		delete(o.children, appID)
		if err := child.Proc.Wait(); err != nil {
			o.logger.Warn("worker exit", "app_id", appID, "error", err.Error())
		}
		if err := child.Close(); err != nil {
			o.logger.Warn("close worker pipes", "app_id", appID, "error", err.Error())
		}
		o.logger.Info("worker stopped", "app_id", appID)
	}
	return frame
}

// stopAll shuts every worker down. Individual acknowledgments are consumed
// here rather than relayed.
func (o *Orchestrator) stopAll() {
	for appID := range o.children {
		o.stop(appID)
	}
}

// forward routes an app-targeted command to the worker serving its app id.
// The worker's response bytes pass through untouched.
func (o *Orchestrator) forward(cmd protocol.Command) protocol.RawFrame {
	child, running := o.children[cmd.AppID]
	if !running {
		o.logger.Warn("no worker for app", "app_id", cmd.AppID, "kind", string(cmd.Kind))
		return protocol.EncodeResponse(protocol.Failure[bool](protocol.ErrAppMismatch))
	}
	return o.exchange(cmd.AppID, child, cmd)
}

// exchange performs one command/response round trip with a worker. Any
// transport failure becomes a SocketCommunicationFailed envelope so the
// client always receives exactly one response per command. The failed
// channel is retired on the spot: a late frame could still arrive on it,
// and reading that frame as the reply to a later command would break the
// request/response correspondence.
func (o *Orchestrator) exchange(appID uint32, child *pipe.Child, cmd protocol.Command) protocol.RawFrame {
	if err := protocol.WriteCommand(child.TX, o.timeout, cmd); err != nil {
		o.logger.Error("forward command failed", "kind", string(cmd.Kind), "error", err.Error())
		o.retire(appID, child)
		return protocol.EncodeResponse(protocol.Failure[bool](protocol.ErrSocketCommunicationFailed))
	}
	frame, err := protocol.ReadRawFrame(child.RX, o.timeout)
	if err != nil {
		o.logger.Error("read worker response failed", "kind", string(cmd.Kind), "error", err.Error())
		o.retire(appID, child)
		return protocol.EncodeResponse(protocol.Failure[bool](protocol.ErrSocketCommunicationFailed))
	}
	return frame
}

// retire discards a worker whose channel can no longer be trusted.
func (o *Orchestrator) retire(appID uint32, child *pipe.Child) {
	delete(o.children, appID)
	if err := child.Proc.Kill(); err != nil {
		o.logger.Warn("kill worker", "app_id", appID, "error", err.Error())
	}
	if err := child.Proc.Wait(); err != nil {
		o.logger.Warn("worker exit", "app_id", appID, "error", err.Error())
	}
	if err := child.Close(); err != nil {
		o.logger.Warn("close worker pipes", "app_id", appID, "error", err.Error())
	}
	o.logger.Info("worker retired", "app_id", appID)
}

// ensureSession dials the native session on first use. A failed dial is not
// cached; the next command that needs the session tries again.
func (o *Orchestrator) ensureSession() (steam.Session, error) {
	if o.session != nil {
		return o.session, nil
	}
	session, err := o.dial()
	if err != nil {
		return nil, fmt.Errorf("dial session: %w", err)
	}
	o.session = session
	o.logger.Info("session established")
	return session, nil
}

func (o *Orchestrator) closeSession() {
	if o.session != nil {
		o.session.Close()
		o.session = nil
	}
}

func (o *Orchestrator) relay(tx io.Writer, frame protocol.RawFrame) {
	if _, err := frame.WriteTo(tx); err != nil {
		o.logger.Error("relay response failed", "error", err.Error())
	}
}

func reply[T any](o *Orchestrator, tx io.Writer, resp protocol.Response[T]) {
	if err := protocol.WriteResponse(tx, o.timeout, resp); err != nil {
		o.logger.Error("write response failed", "error", err.Error())
	}
}
