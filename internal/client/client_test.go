package client

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/acask/medals/internal/pipe"
	"github.com/acask/medals/internal/protocol"
	"github.com/acask/medals/internal/steam"
)

type fakeProc struct{ waited bool }

func (p *fakeProc) Wait() error { p.waited = true; return nil }
func (p *fakeProc) Kill() error { return nil }

// scriptedClient wires a Client to an in-process goroutine playing the
// orchestrator's part.
func scriptedClient(t *testing.T) (*Client, *fakeProc) {
	t.Helper()

	cmdR, cmdW := io.Pipe()
	respR, respW := io.Pipe()

	go func() {
		defer respW.Close()
		for {
			cmd, err := protocol.ReadCommand(cmdR, 0)
			if err != nil {
				return
			}
			switch cmd.Kind {
			case protocol.KindShutdown:
				_ = protocol.WriteResponse(respW, 0, protocol.Success(true))
				return
			case protocol.KindStatus, protocol.KindLaunchApp:
				_ = protocol.WriteResponse(respW, 0, protocol.Success(true))
			case protocol.KindGetOwnedAppList:
				_ = protocol.WriteResponse(respW, 0, protocol.Success([]steam.OwnedApp{
					{AppID: 440, Name: "Team Fortress 2", Type: steam.AppTypeApp},
				}))
			case protocol.KindSetIntStat:
				// Echo the requested value back as stored.
				_ = protocol.WriteResponse(respW, 0, protocol.Success(cmd.IntValue))
			case protocol.KindGetStats:
				_ = protocol.WriteResponse(respW, 0, protocol.Failure[bool](protocol.ErrAppMismatch))
			default:
				_ = protocol.WriteResponse(respW, 0, protocol.Failure[bool](protocol.ErrUnknown))
			}
		}
	}()

	proc := &fakeProc{}
	child := &pipe.Child{Proc: proc, TX: cmdW, RX: respR}
	return &Client{child: child, timeout: 0, logger: slog.New(slog.NewTextHandler(io.Discard, nil))}, proc
}

func TestClientRoundTrips(t *testing.T) {
	c, _ := scriptedClient(t)
	defer c.Close()

	ok, err := c.Status()
	require.NoError(t, err)
	require.True(t, ok)

	apps, err := c.OwnedApps()
	require.NoError(t, err)
	require.Len(t, apps, 1)
	require.Equal(t, uint32(440), apps[0].AppID)

	launched, err := c.Launch(440)
	require.NoError(t, err)
	require.True(t, launched)

	stored, err := c.SetIntStat(440, "kills", 77)
	require.NoError(t, err)
	require.Equal(t, int32(77), stored)
}

func TestClientSurfacesWireErrors(t *testing.T) {
	c, _ := scriptedClient(t)
	defer c.Close()

	_, err := c.Stats(480)
	require.ErrorIs(t, err, protocol.ErrAppMismatch)
}

func TestClientCloseIsIdempotent(t *testing.T) {
	c, proc := scriptedClient(t)

	require.NoError(t, c.Close())
	require.True(t, proc.waited)
	require.NoError(t, c.Close(), "second close is a no-op")

	_, err := c.Status()
	require.Error(t, err, "closed client cannot call")
}
