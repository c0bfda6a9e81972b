// Package worker runs the per-application serving loop. One worker process
// exists per launched app; it connects to the native client once at startup
// and never retries, so a failed connection poisons every subsequent app
// command until the worker is told to shut down.
package worker

import (
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/acask/medals/internal/protocol"
	"github.com/acask/medals/internal/steam"
)

// Worker serves commands for a single application id over one pipe pair.
type Worker struct {
	appID   uint32
	rx      io.Reader
	tx      io.Writer
	connect steam.ConnectFunc
	timeout time.Duration
	logger  *slog.Logger
}

// New builds a worker for appID reading commands from rx and writing
// responses to tx.
func New(appID uint32, rx io.Reader, tx io.Writer, connect steam.ConnectFunc, timeout time.Duration, logger *slog.Logger) *Worker {
	return &Worker{
		appID:   appID,
		rx:      rx,
		tx:      tx,
		connect: connect,
		timeout: timeout,
		logger:  logger,
	}
}

// Run connects once and serves commands until Shutdown arrives or the
// command pipe closes. The return value is the process exit code.
func (w *Worker) Run() int {
	client, connErr := w.connect(w.appID)
	if connErr != nil {
		w.logger.Error("app connection failed", "app_id", w.appID, "error", connErr.Error())
	} else {
		defer client.Disconnect()
		w.logger.Info("worker connected", "app_id", w.appID)
	}

	for {
		cmd, err := protocol.ReadCommand(w.rx, w.timeout)
		if err != nil {
			// A closed pipe means the orchestrator is gone; there is
			// nobody left to serve.
			if !errors.Is(err, io.EOF) {
				w.logger.Error("read command failed", "app_id", w.appID, "error", err.Error())
			}
			return 0
		}

		w.logger.Debug("command received", "app_id", w.appID, "kind", string(cmd.Kind))

		if cmd.Kind == protocol.KindShutdown {
			// Shutdown is acknowledged even when the connection never came
			// up, otherwise the orchestrator would wait forever on a worker
			// that can only answer with connection errors.
			reply(w, protocol.Success(true))
			return 0
		}

		if connErr != nil {
			w.replyError(protocol.ErrSteamConnectionFailed)
			continue
		}

		if cmd.TargetsApp() && cmd.AppID != w.appID {
			w.logger.Warn("command targets wrong app",
				"app_id", w.appID, "target", cmd.AppID, "kind", string(cmd.Kind))
			w.replyError(protocol.ErrAppMismatch)
			continue
		}

		w.serve(client, cmd)
	}
}

// serve dispatches one non-shutdown command against the connected client.
func (w *Worker) serve(client steam.AppClient, cmd protocol.Command) {
	switch cmd.Kind {
	case protocol.KindStatus:
		reply(w, protocol.Success(true))

	case protocol.KindGetAchievements:
		achievements, err := client.Achievements()
		if err != nil {
			w.fail("get achievements", err)
			return
		}
		reply(w, protocol.Success(achievements))

	case protocol.KindGetStats:
		stats, err := client.Stats()
		if err != nil {
			w.fail("get stats", err)
			return
		}
		reply(w, protocol.Success(stats))

	case protocol.KindSetAchievement:
		if err := client.SetAchievement(cmd.AchievementID, cmd.Unlocked); err != nil {
			w.fail("set achievement", err)
			return
		}
		reply(w, protocol.Success(true))

	case protocol.KindSetIntStat:
		stored, err := client.SetIntStat(cmd.StatID, cmd.IntValue)
		if err != nil {
			w.fail("set int stat", err)
			return
		}
		reply(w, protocol.Success(stored))

	case protocol.KindSetFloatStat:
		stored, err := client.SetFloatStat(cmd.StatID, cmd.FloatValue)
		if err != nil {
			w.fail("set float stat", err)
			return
		}
		reply(w, protocol.Success(stored))

	case protocol.KindResetStats:
		ok, err := client.ResetStats(cmd.IncludeAchievements)
		if err != nil {
			w.fail("reset stats", err)
			return
		}
		reply(w, protocol.Success(ok))

	default:
		// GetOwnedAppList, LaunchApp and friends belong to the
		// orchestrator; a worker receiving one is a routing bug.
		w.logger.Warn("command not servable by worker",
			"app_id", w.appID, "kind", string(cmd.Kind))
		w.replyError(protocol.ErrUnknown)
	}
}

func (w *Worker) fail(op string, err error) {
	w.logger.Error(op+" failed", "app_id", w.appID, "error", err.Error())
	w.replyError(protocol.KindOf(err))
}

func reply[T any](w *Worker, resp protocol.Response[T]) {
	if err := protocol.WriteResponse(w.tx, w.timeout, resp); err != nil {
		w.logger.Error("write response failed", "app_id", w.appID, "error", err.Error())
	}
}

func (w *Worker) replyError(kind protocol.ErrorKind) {
	if err := protocol.WriteResponse(w.tx, w.timeout, protocol.Failure[bool](kind)); err != nil {
		w.logger.Error("write response failed", "app_id", w.appID, "error", err.Error())
	}
}
