package cli

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseDefaultsToHelp(t *testing.T) {
	parsed, err := Parse(nil)
	require.NoError(t, err)
	require.True(t, parsed.ShowHelp)
	require.Equal(t, CommandHelp, parsed.Command)
	require.Equal(t, RoleClient, parsed.Role)
	require.Equal(t, -1, parsed.TXFD)
	require.Equal(t, -1, parsed.RXFD)
}

func TestParseOrchestratorRole(t *testing.T) {
	parsed, err := Parse([]string{"--orchestrator", "--tx=3", "--rx=4"})
	require.NoError(t, err)
	require.Equal(t, RoleOrchestrator, parsed.Role)
	require.Equal(t, 3, parsed.TXFD)
	require.Equal(t, 4, parsed.RXFD)
	require.False(t, parsed.ShowHelp)
}

func TestParseWorkerRole(t *testing.T) {
	parsed, err := Parse([]string{"--app=440", "--tx=3", "--rx=4", "--config", "/tmp/medals.toml"})
	require.NoError(t, err)
	require.Equal(t, RoleWorker, parsed.Role)
	require.Equal(t, uint32(440), parsed.AppID)
	require.Equal(t, "/tmp/medals.toml", parsed.ConfigPath)
}

func TestParseCommandWithConfig(t *testing.T) {
	parsed, err := Parse([]string{"--config", "/tmp/medals.toml", "apps"})
	require.NoError(t, err)
	require.Equal(t, CommandApps, parsed.Command)
	require.Equal(t, "/tmp/medals.toml", parsed.ConfigPath)
	require.False(t, parsed.ShowHelp)
}

func TestParseArgMatrix(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr string
		check   func(t *testing.T, parsed Parsed)
	}{
		{
			name: "help short flag",
			args: []string{"-h"},
			check: func(t *testing.T, parsed Parsed) {
				require.True(t, parsed.ShowHelp)
				require.Equal(t, CommandHelp, parsed.Command)
			},
		},
		{
			name: "version flag",
			args: []string{"--version"},
			check: func(t *testing.T, parsed Parsed) {
				require.False(t, parsed.ShowHelp)
				require.Equal(t, CommandVersion, parsed.Command)
			},
		},
		{
			name: "achievements command",
			args: []string{"achievements", "440"},
			check: func(t *testing.T, parsed Parsed) {
				require.Equal(t, CommandAchievements, parsed.Command)
				require.Equal(t, uint32(440), parsed.TargetApp)
			},
		},
		{
			name: "unlock command",
			args: []string{"unlock", "440", "ACH_WIN"},
			check: func(t *testing.T, parsed Parsed) {
				require.Equal(t, CommandUnlock, parsed.Command)
				require.Equal(t, uint32(440), parsed.TargetApp)
				require.Equal(t, "ACH_WIN", parsed.AchievementID)
				require.True(t, parsed.Unlock)
			},
		},
		{
			name: "lock command",
			args: []string{"lock", "440", "ACH_WIN"},
			check: func(t *testing.T, parsed Parsed) {
				require.False(t, parsed.Unlock)
			},
		},
		{
			name: "set integer stat",
			args: []string{"set-stat", "440", "kills", "128"},
			check: func(t *testing.T, parsed Parsed) {
				require.Equal(t, CommandSetStat, parsed.Command)
				require.Equal(t, "kills", parsed.StatID)
				require.False(t, parsed.StatIsFloat)
				require.Equal(t, int32(128), parsed.IntValue)
			},
		},
		{
			name: "set float stat",
			args: []string{"set-stat", "440", "accuracy", "0.75"},
			check: func(t *testing.T, parsed Parsed) {
				require.True(t, parsed.StatIsFloat)
				require.InDelta(t, 0.75, float64(parsed.FloatValue), 1e-6)
			},
		},
		{
			name: "reset-stats with achievements",
			args: []string{"reset-stats", "440", "--achievements"},
			check: func(t *testing.T, parsed Parsed) {
				require.Equal(t, CommandResetStats, parsed.Command)
				require.True(t, parsed.IncludeAchievements)
			},
		},
		{
			name:    "achievements flag on wrong command",
			args:    []string{"stats", "440", "--achievements"},
			wantErr: "reset-stats only",
		},
		{
			name:    "missing config path",
			args:    []string{"--config"},
			wantErr: "requires a path",
		},
		{
			name:    "unknown flag",
			args:    []string{"--bogus"},
			wantErr: "unknown flag",
		},
		{
			name:    "unknown command",
			args:    []string{"bogus"},
			wantErr: "unknown command",
		},
		{
			name:    "missing positional",
			args:    []string{"achievements"},
			wantErr: "takes 1 argument(s)",
		},
		{
			name:    "extra positional",
			args:    []string{"apps", "440"},
			wantErr: "takes 0 argument(s)",
		},
		{
			name:    "bad app id",
			args:    []string{"stats", "nope"},
			wantErr: "not a valid app id",
		},
		{
			name:    "bad stat value",
			args:    []string{"set-stat", "440", "kills", "lots"},
			wantErr: "neither an integer nor a float",
		},
		{
			name:    "role flags reject commands",
			args:    []string{"--orchestrator", "apps"},
			wantErr: "role flags take no command",
		},
		{
			name:    "fd flags require a role",
			args:    []string{"--tx=3", "apps"},
			wantErr: "--tx/--rx apply",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			parsed, err := Parse(tc.args)
			if tc.wantErr != "" {
				require.Error(t, err)
				require.Contains(t, err.Error(), tc.wantErr)
				return
			}

			require.NoError(t, err)
			tc.check(t, parsed)
		})
	}
}

func TestHelpTextIncludesCoreCommands(t *testing.T) {
	text := HelpText("medals")
	require.Contains(t, text, "apps")
	require.Contains(t, text, "achievements APP")
	require.Contains(t, text, "unlock APP ACHIEVEMENT")
	require.Contains(t, text, "set-stat APP STAT VALUE")
	require.Contains(t, text, "--config PATH")
}
