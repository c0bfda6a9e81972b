// Package protocol defines the framed command/response wire format shared by
// every pipe pair in the system: the client↔orchestrator channel and each
// orchestrator↔worker channel speak the same encoding in both directions.
package protocol

import (
	"encoding/json"
	"fmt"
)

// CommandKind names one requestable operation.
type CommandKind string

const (
	KindGetOwnedAppList CommandKind = "GetOwnedAppList"
	KindLaunchApp       CommandKind = "LaunchApp"
	KindStopApp         CommandKind = "StopApp"
	KindStopApps        CommandKind = "StopApps"
	KindShutdown        CommandKind = "Shutdown"
	KindStatus          CommandKind = "Status"
	KindGetAchievements CommandKind = "GetAchievements"
	KindGetStats        CommandKind = "GetStats"
	KindSetAchievement  CommandKind = "SetAchievement"
	KindSetIntStat      CommandKind = "SetIntStat"
	KindSetFloatStat    CommandKind = "SetFloatStat"
	KindResetStats      CommandKind = "ResetStats"
)

// Command is one immutable request value. Only the fields relevant to Kind
// are populated; use the constructors below.
//
// The JSON layout is externally tagged to stay byte-compatible with the
// original wire: unit variants are bare strings ("Shutdown"), variants with
// one payload are single-key objects ({"LaunchApp":440}), and multi-payload
// variants carry a tuple ({"SetAchievement":[440,true,"ACH_WIN"]}).
type Command struct {
	Kind                CommandKind
	AppID               uint32
	Unlocked            bool
	AchievementID       string
	StatID              string
	IntValue            int32
	FloatValue          float32
	IncludeAchievements bool
}

func GetOwnedAppList() Command { return Command{Kind: KindGetOwnedAppList} }
func StopApps() Command        { return Command{Kind: KindStopApps} }
func Shutdown() Command        { return Command{Kind: KindShutdown} }
func Status() Command          { return Command{Kind: KindStatus} }

func LaunchApp(appID uint32) Command { return Command{Kind: KindLaunchApp, AppID: appID} }
func StopApp(appID uint32) Command   { return Command{Kind: KindStopApp, AppID: appID} }

func GetAchievements(appID uint32) Command {
	return Command{Kind: KindGetAchievements, AppID: appID}
}

func GetStats(appID uint32) Command { return Command{Kind: KindGetStats, AppID: appID} }

func SetAchievement(appID uint32, unlocked bool, achievementID string) Command {
	return Command{Kind: KindSetAchievement, AppID: appID, Unlocked: unlocked, AchievementID: achievementID}
}

func SetIntStat(appID uint32, statID string, value int32) Command {
	return Command{Kind: KindSetIntStat, AppID: appID, StatID: statID, IntValue: value}
}

func SetFloatStat(appID uint32, statID string, value float32) Command {
	return Command{Kind: KindSetFloatStat, AppID: appID, StatID: statID, FloatValue: value}
}

func ResetStats(appID uint32, includeAchievements bool) Command {
	return Command{Kind: KindResetStats, AppID: appID, IncludeAchievements: includeAchievements}
}

// TargetsApp reports whether the command carries an application id that must
// match the worker serving it.
func (c Command) TargetsApp() bool {
	switch c.Kind {
	case KindGetAchievements, KindGetStats, KindSetAchievement,
		KindSetIntStat, KindSetFloatStat, KindResetStats:
		return true
	}
	return false
}

func (c Command) MarshalJSON() ([]byte, error) {
	switch c.Kind {
	case KindGetOwnedAppList, KindStopApps, KindShutdown, KindStatus:
		return json.Marshal(string(c.Kind))
	case KindLaunchApp, KindStopApp, KindGetAchievements, KindGetStats:
		return json.Marshal(map[string]uint32{string(c.Kind): c.AppID})
	case KindSetAchievement:
		return json.Marshal(map[string][]any{
			string(c.Kind): {c.AppID, c.Unlocked, c.AchievementID},
		})
	case KindSetIntStat:
		return json.Marshal(map[string][]any{
			string(c.Kind): {c.AppID, c.StatID, c.IntValue},
		})
	case KindSetFloatStat:
		return json.Marshal(map[string][]any{
			string(c.Kind): {c.AppID, c.StatID, c.FloatValue},
		})
	case KindResetStats:
		return json.Marshal(map[string][]any{
			string(c.Kind): {c.AppID, c.IncludeAchievements},
		})
	default:
		return nil, fmt.Errorf("marshal command: unknown kind %q", c.Kind)
	}
}

func (c *Command) UnmarshalJSON(data []byte) error {
	var unit string
	if err := json.Unmarshal(data, &unit); err == nil {
		switch CommandKind(unit) {
		case KindGetOwnedAppList, KindStopApps, KindShutdown, KindStatus:
			*c = Command{Kind: CommandKind(unit)}
			return nil
		}
		return fmt.Errorf("unmarshal command: unknown variant %q", unit)
	}

	var tagged map[string]json.RawMessage
	if err := json.Unmarshal(data, &tagged); err != nil {
		return fmt.Errorf("unmarshal command: %w", err)
	}
	if len(tagged) != 1 {
		return fmt.Errorf("unmarshal command: expected one variant, got %d", len(tagged))
	}

	for name, payload := range tagged {
		kind := CommandKind(name)
		switch kind {
		case KindLaunchApp, KindStopApp, KindGetAchievements, KindGetStats:
			var appID uint32
			if err := json.Unmarshal(payload, &appID); err != nil {
				return fmt.Errorf("unmarshal %s: %w", name, err)
			}
			*c = Command{Kind: kind, AppID: appID}
		case KindSetAchievement:
			var tuple struct {
				AppID    uint32
				Unlocked bool
				ID       string
			}
			if err := unmarshalTuple(payload, &tuple.AppID, &tuple.Unlocked, &tuple.ID); err != nil {
				return fmt.Errorf("unmarshal %s: %w", name, err)
			}
			*c = Command{Kind: kind, AppID: tuple.AppID, Unlocked: tuple.Unlocked, AchievementID: tuple.ID}
		case KindSetIntStat:
			var (
				appID  uint32
				statID string
				value  int32
			)
			if err := unmarshalTuple(payload, &appID, &statID, &value); err != nil {
				return fmt.Errorf("unmarshal %s: %w", name, err)
			}
			*c = Command{Kind: kind, AppID: appID, StatID: statID, IntValue: value}
		case KindSetFloatStat:
			var (
				appID  uint32
				statID string
				value  float32
			)
			if err := unmarshalTuple(payload, &appID, &statID, &value); err != nil {
				return fmt.Errorf("unmarshal %s: %w", name, err)
			}
			*c = Command{Kind: kind, AppID: appID, StatID: statID, FloatValue: value}
		case KindResetStats:
			var (
				appID       uint32
				withAchieve bool
			)
			if err := unmarshalTuple(payload, &appID, &withAchieve); err != nil {
				return fmt.Errorf("unmarshal %s: %w", name, err)
			}
			*c = Command{Kind: kind, AppID: appID, IncludeAchievements: withAchieve}
		default:
			return fmt.Errorf("unmarshal command: unknown variant %q", name)
		}
	}
	return nil
}

// unmarshalTuple decodes a fixed-length JSON array into the given targets.
func unmarshalTuple(data []byte, targets ...any) error {
	var elements []json.RawMessage
	if err := json.Unmarshal(data, &elements); err != nil {
		return err
	}
	if len(elements) != len(targets) {
		return fmt.Errorf("expected %d tuple elements, got %d", len(targets), len(elements))
	}
	for i, element := range elements {
		if err := json.Unmarshal(element, targets[i]); err != nil {
			return fmt.Errorf("tuple element %d: %w", i, err)
		}
	}
	return nil
}
