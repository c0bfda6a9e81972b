package protocol

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCommandRoundTrip(t *testing.T) {
	commands := []Command{
		GetOwnedAppList(),
		StopApps(),
		Shutdown(),
		Status(),
		LaunchApp(0),
		LaunchApp(440),
		StopApp(math.MaxUint32),
		GetAchievements(206690),
		GetStats(480),
		SetAchievement(440, true, "ACH_WIN_ONE_GAME"),
		SetAchievement(440, false, ""),
		SetIntStat(440, "total_kills", 0),
		SetIntStat(440, "total_kills", -1),
		SetIntStat(440, "total_kills", math.MaxInt32),
		SetIntStat(440, "total_kills", math.MinInt32),
		SetFloatStat(440, "accuracy", 0),
		SetFloatStat(440, "accuracy", -1.5),
		SetFloatStat(440, "accuracy", 1024.25),
		ResetStats(440, true),
		ResetStats(440, false),
	}

	for _, cmd := range commands {
		encoded, err := json.Marshal(cmd)
		require.NoError(t, err)

		var decoded Command
		require.NoError(t, json.Unmarshal(encoded, &decoded))
		require.Equal(t, cmd, decoded, "round trip of %s", cmd.Kind)
	}
}

func TestCommandWireFormat(t *testing.T) {
	encoded, err := json.Marshal(Shutdown())
	require.NoError(t, err)
	require.JSONEq(t, `"Shutdown"`, string(encoded))

	encoded, err = json.Marshal(LaunchApp(440))
	require.NoError(t, err)
	require.JSONEq(t, `{"LaunchApp":440}`, string(encoded))

	encoded, err = json.Marshal(SetAchievement(440, true, "ACH_WIN_ONE_GAME"))
	require.NoError(t, err)
	require.JSONEq(t, `{"SetAchievement":[440,true,"ACH_WIN_ONE_GAME"]}`, string(encoded))

	encoded, err = json.Marshal(SetIntStat(440, "kills", -1))
	require.NoError(t, err)
	require.JSONEq(t, `{"SetIntStat":[440,"kills",-1]}`, string(encoded))

	encoded, err = json.Marshal(SetFloatStat(440, "accuracy", 1.5))
	require.NoError(t, err)
	require.JSONEq(t, `{"SetFloatStat":[440,"accuracy",1.5]}`, string(encoded))

	encoded, err = json.Marshal(ResetStats(440, true))
	require.NoError(t, err)
	require.JSONEq(t, `{"ResetStats":[440,true]}`, string(encoded))
}

func TestCommandUnmarshalRejectsUnknownVariant(t *testing.T) {
	var cmd Command
	require.Error(t, json.Unmarshal([]byte(`"Reboot"`), &cmd))
	require.Error(t, json.Unmarshal([]byte(`{"Reboot":1}`), &cmd))
	require.Error(t, json.Unmarshal([]byte(`{"LaunchApp":1,"StopApp":2}`), &cmd))
	require.Error(t, json.Unmarshal([]byte(`{"SetIntStat":[440,"kills"]}`), &cmd))
}

func TestCommandTargetsApp(t *testing.T) {
	require.True(t, GetStats(440).TargetsApp())
	require.True(t, SetAchievement(440, true, "A").TargetsApp())
	require.True(t, ResetStats(440, false).TargetsApp())
	require.False(t, LaunchApp(440).TargetsApp())
	require.False(t, Shutdown().TargetsApp())
	require.False(t, Status().TargetsApp())
}

func TestResponseRoundTrip(t *testing.T) {
	encoded, err := json.Marshal(Success(true))
	require.NoError(t, err)
	require.JSONEq(t, `{"Success":true}`, string(encoded))

	var ok Response[bool]
	require.NoError(t, json.Unmarshal(encoded, &ok))
	value, err := ok.Result()
	require.NoError(t, err)
	require.True(t, value)

	encoded, err = json.Marshal(Failure[bool](ErrAppMismatch))
	require.NoError(t, err)
	require.JSONEq(t, `{"Error":"AppMismatchError"}`, string(encoded))

	var failed Response[bool]
	require.NoError(t, json.Unmarshal(encoded, &failed))
	_, err = failed.Result()
	require.ErrorIs(t, err, ErrAppMismatch)
}

func TestResponseUnmarshalRejectsUnknownKind(t *testing.T) {
	var resp Response[bool]
	require.Error(t, json.Unmarshal([]byte(`{"Error":"DiskFull"}`), &resp))
	require.Error(t, json.Unmarshal([]byte(`{"Neither":true}`), &resp))
}

func TestKindOf(t *testing.T) {
	require.Equal(t, ErrAppMismatch, KindOf(ErrAppMismatch))
	require.Equal(t, ErrUnknown, KindOf(json.Unmarshal([]byte("{"), &struct{}{})))
}
