// Package cli parses the command line. One binary serves three roles: the
// user-facing client (the default), the orchestrator (--orchestrator) and a
// per-app worker (--app). The hidden --tx/--rx flags carry the inherited pipe
// descriptor numbers for the two child roles.
package cli

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

type Role int

const (
	RoleClient Role = iota
	RoleOrchestrator
	RoleWorker
)

type Command string

const (
	CommandApps         Command = "apps"
	CommandStatus       Command = "status"
	CommandAchievements Command = "achievements"
	CommandStats        Command = "stats"
	CommandUnlock       Command = "unlock"
	CommandLock         Command = "lock"
	CommandSetStat      Command = "set-stat"
	CommandResetStats   Command = "reset-stats"
	CommandVersion      Command = "version"
	CommandHelp         Command = "help"
)

// positionals maps each command to the arguments it consumes after the
// command word.
var positionals = map[Command]int{
	CommandApps:         0,
	CommandStatus:       0,
	CommandAchievements: 1, // app id
	CommandStats:        1, // app id
	CommandUnlock:       2, // app id, achievement id
	CommandLock:         2, // app id, achievement id
	CommandSetStat:      3, // app id, stat id, value
	CommandResetStats:   1, // app id
	CommandVersion:      0,
	CommandHelp:         0,
}

type Parsed struct {
	Role       Role
	AppID      uint32 // worker role: the app this process serves
	TXFD       int    // inherited write descriptor, -1 when absent
	RXFD       int    // inherited read descriptor, -1 when absent
	ConfigPath string

	Command   Command
	ShowHelp  bool
	TargetApp uint32

	AchievementID string
	Unlock        bool

	StatID      string
	StatIsFloat bool
	IntValue    int32
	FloatValue  float32

	IncludeAchievements bool
}

func Parse(args []string) (Parsed, error) {
	parsed := Parsed{
		Command:  CommandHelp,
		ShowHelp: true,
		TXFD:     -1,
		RXFD:     -1,
	}

	var (
		haveCommand bool
		rest        []string
	)

	for i := 0; i < len(args); i++ {
		arg := args[i]

		switch {
		case arg == "-h" || arg == "--help":
			parsed.ShowHelp = true
			parsed.Command = CommandHelp
		case arg == "--version":
			parsed.ShowHelp = false
			parsed.Command = CommandVersion
		case arg == "--orchestrator":
			parsed.Role = RoleOrchestrator
		case strings.HasPrefix(arg, "--app="):
			appID, err := parseUint32(strings.TrimPrefix(arg, "--app="))
			if err != nil {
				return Parsed{}, fmt.Errorf("--app: %w", err)
			}
			parsed.Role = RoleWorker
			parsed.AppID = appID
		case strings.HasPrefix(arg, "--tx="):
			fd, err := strconv.Atoi(strings.TrimPrefix(arg, "--tx="))
			if err != nil {
				return Parsed{}, fmt.Errorf("--tx: %w", err)
			}
			parsed.TXFD = fd
		case strings.HasPrefix(arg, "--rx="):
			fd, err := strconv.Atoi(strings.TrimPrefix(arg, "--rx="))
			if err != nil {
				return Parsed{}, fmt.Errorf("--rx: %w", err)
			}
			parsed.RXFD = fd
		case arg == "--achievements":
			parsed.IncludeAchievements = true
		case arg == "--config":
			i++
			if i >= len(args) {
				return Parsed{}, errors.New("--config requires a path")
			}
			parsed.ConfigPath = args[i]
		case strings.HasPrefix(arg, "-"):
			return Parsed{}, fmt.Errorf("unknown flag: %s", arg)
		case !haveCommand:
			cmd := Command(arg)
			if _, ok := positionals[cmd]; !ok {
				return Parsed{}, fmt.Errorf("unknown command: %s", arg)
			}
			parsed.Command = cmd
			parsed.ShowHelp = cmd == CommandHelp
			haveCommand = true
		default:
			rest = append(rest, arg)
		}
	}

	if parsed.Role != RoleClient {
		if haveCommand {
			return Parsed{}, errors.New("role flags take no command")
		}
		if parsed.IncludeAchievements {
			return Parsed{}, errors.New("--achievements applies to reset-stats only")
		}
		parsed.ShowHelp = false
		return parsed, nil
	}

	if parsed.TXFD != -1 || parsed.RXFD != -1 {
		return Parsed{}, errors.New("--tx/--rx apply to --orchestrator and --app roles only")
	}

	if !haveCommand {
		return parsed, nil
	}
	if want := positionals[parsed.Command]; len(rest) != want {
		return Parsed{}, fmt.Errorf("command %q takes %d argument(s), got %d", parsed.Command, want, len(rest))
	}
	if parsed.IncludeAchievements && parsed.Command != CommandResetStats {
		return Parsed{}, errors.New("--achievements applies to reset-stats only")
	}

	return fillCommandArgs(parsed, rest)
}

func fillCommandArgs(parsed Parsed, rest []string) (Parsed, error) {
	switch parsed.Command {
	case CommandAchievements, CommandStats, CommandResetStats:
		appID, err := parseUint32(rest[0])
		if err != nil {
			return Parsed{}, fmt.Errorf("app id: %w", err)
		}
		parsed.TargetApp = appID

	case CommandUnlock, CommandLock:
		appID, err := parseUint32(rest[0])
		if err != nil {
			return Parsed{}, fmt.Errorf("app id: %w", err)
		}
		parsed.TargetApp = appID
		parsed.AchievementID = rest[1]
		parsed.Unlock = parsed.Command == CommandUnlock

	case CommandSetStat:
		appID, err := parseUint32(rest[0])
		if err != nil {
			return Parsed{}, fmt.Errorf("app id: %w", err)
		}
		parsed.TargetApp = appID
		parsed.StatID = rest[1]
		if err := parseStatValue(&parsed, rest[2]); err != nil {
			return Parsed{}, err
		}
	}
	return parsed, nil
}

// parseStatValue decides between the integer and float stat forms: a value
// that parses as an int32 is an integer write, anything else must parse as
// a float.
func parseStatValue(parsed *Parsed, raw string) error {
	if v, err := strconv.ParseInt(raw, 10, 32); err == nil {
		parsed.IntValue = int32(v)
		return nil
	}
	v, err := strconv.ParseFloat(raw, 32)
	if err != nil {
		return fmt.Errorf("stat value %q is neither an integer nor a float", raw)
	}
	parsed.StatIsFloat = true
	parsed.FloatValue = float32(v)
	return nil
}

func parseUint32(raw string) (uint32, error) {
	v, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("%q is not a valid app id", raw)
	}
	return uint32(v), nil
}

func HelpText(binaryName string) string {
	return fmt.Sprintf(`Usage:
  %[1]s [--config PATH] <command> [arguments]

Commands:
  apps                              List owned apps
  status                            Check that the backend responds
  achievements APP                  List the app's achievements
  stats APP                         List the app's stats
  unlock APP ACHIEVEMENT            Unlock one achievement
  lock APP ACHIEVEMENT              Relock one achievement
  set-stat APP STAT VALUE           Write a stat value
  reset-stats APP [--achievements]  Reset stats, optionally achievements too
  version                           Print version information
  help                              Show this help

Flags:
  --config PATH    Config file path (default: $XDG_CONFIG_HOME/medals/config.toml)
  --achievements   With reset-stats, also relock all achievements
  -h, --help       Show help
  --version        Show version
`, binaryName)
}
