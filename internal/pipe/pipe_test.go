package pipe

import (
	"io"
	"os"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSpawnRoundTrip(t *testing.T) {
	t.Setenv("PIPE_TEST_HELPER", "1")

	child, err := Spawn(os.Args[0], "-test.run=TestHelperEchoProcess", "--")
	require.NoError(t, err)

	_, err = child.TX.Write([]byte("ping"))
	require.NoError(t, err)

	reply := make([]byte, 4)
	_, err = io.ReadFull(child.RX, reply)
	require.NoError(t, err)
	require.Equal(t, "PING", string(reply))

	require.NoError(t, child.Proc.Wait())
	require.NoError(t, child.Close())
}

func TestSpawnFailureReturnsNoChild(t *testing.T) {
	child, err := Spawn("/nonexistent/medals-test-binary")
	require.Error(t, err)
	require.Nil(t, child)
}

// TestHelperEchoProcess is not a real test: Spawn re-executes the test
// binary with this test selected, and it plays the child side of the pipe
// pair by upper-casing whatever arrives.
func TestHelperEchoProcess(t *testing.T) {
	if os.Getenv("PIPE_TEST_HELPER") != "1" {
		t.Skip("helper process only")
	}

	txFD, rxFD := -1, -1
	for _, arg := range os.Args {
		if v, ok := strings.CutPrefix(arg, "--tx="); ok {
			txFD, _ = strconv.Atoi(v)
		}
		if v, ok := strings.CutPrefix(arg, "--rx="); ok {
			rxFD, _ = strconv.Atoi(v)
		}
	}

	endpoints, err := Inherited(txFD, rxFD)
	require.NoError(t, err)
	defer endpoints.Close()

	buf := make([]byte, 4)
	_, err = io.ReadFull(endpoints.RX, buf)
	require.NoError(t, err)

	_, err = endpoints.TX.Write([]byte(strings.ToUpper(string(buf))))
	require.NoError(t, err)
}

func TestInheritedRejectsHalfConfiguration(t *testing.T) {
	_, err := Inherited(3, -1)
	require.ErrorIs(t, err, ErrHalfConfigured)

	_, err = Inherited(-1, 4)
	require.ErrorIs(t, err, ErrHalfConfigured)

	_, err = Inherited(-1, -1)
	require.Error(t, err)
}

func TestInheritedRejectsStandardStreams(t *testing.T) {
	_, err := Inherited(1, 4)
	require.Error(t, err)
	require.Contains(t, err.Error(), "standard streams")
}
