package steam

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/acask/medals/internal/keyvalue"
)

// Schema stat type discriminants used by UserGameStatsSchema files.
const (
	schemaStatInt          = 1
	schemaStatFloat        = 2
	schemaStatAvgRate      = 3
	schemaStatAchievements = 4
)

// AchievementDef is one achievement declared by an app's stats schema.
type AchievementDef struct {
	ID          string
	Name        string
	Description string
	Permission  int32
	Hidden      bool
	IconNormal  string
	IconLocked  string
}

// StatDef is one stat declared by an app's stats schema. The numeric bounds
// use the fields matching Kind.
type StatDef struct {
	ID            string
	DisplayName   string
	Kind          StatKind
	Permission    int32
	IncrementOnly bool
	DefaultInt    int32
	MinInt        int32
	MaxInt        int32
	DefaultFloat  float32
	MinFloat      float32
	MaxFloat      float32
}

// Definitions is the decoded schema for one app.
type Definitions struct {
	AppID        uint32
	Achievements []AchievementDef
	Stats        []StatDef
}

// StatByID finds a stat definition by its API name.
func (d Definitions) StatByID(id string) (StatDef, bool) {
	for _, def := range d.Stats {
		if def.ID == id {
			return def, true
		}
	}
	return StatDef{}, false
}

// LoadDefinitions decodes UserGameStatsSchema_<appid>.bin into achievement
// and stat definitions, resolving display text in the given language with an
// english fallback.
func LoadDefinitions(path string, appID uint32, language string) (Definitions, error) {
	root, err := keyvalue.DecodeFile(path)
	if err != nil {
		return Definitions{}, fmt.Errorf("decode stats schema: %w", err)
	}
	return definitionsFromTree(root, appID, language)
}

func definitionsFromTree(root *keyvalue.Node, appID uint32, language string) (Definitions, error) {
	game := root.Get(strconv.FormatUint(uint64(appID), 10))
	if !game.Valid {
		return Definitions{}, fmt.Errorf("schema does not describe app %d", appID)
	}

	defs := Definitions{AppID: appID}
	stats := game.Get("stats")
	for _, key := range sortedChildKeys(stats) {
		stat := stats.Get(key)
		switch stat.Get("type").AsInt32(0) {
		case schemaStatInt:
			defs.Stats = append(defs.Stats, StatDef{
				ID:            stat.Get("name").AsString(key),
				DisplayName:   resolveText(stat.Get("display").Get("name"), language),
				Kind:          StatInt,
				Permission:    stat.Get("permission").AsInt32(0),
				IncrementOnly: stat.Get("incrementonly").AsBool(false),
				DefaultInt:    stat.Get("default").AsInt32(0),
				MinInt:        stat.Get("min").AsInt32(0),
				MaxInt:        stat.Get("max").AsInt32(0),
			})
		case schemaStatFloat, schemaStatAvgRate:
			defs.Stats = append(defs.Stats, StatDef{
				ID:            stat.Get("name").AsString(key),
				DisplayName:   resolveText(stat.Get("display").Get("name"), language),
				Kind:          StatFloat,
				Permission:    stat.Get("permission").AsInt32(0),
				IncrementOnly: stat.Get("incrementonly").AsBool(false),
				DefaultFloat:  stat.Get("default").AsFloat32(0),
				MinFloat:      stat.Get("min").AsFloat32(0),
				MaxFloat:      stat.Get("max").AsFloat32(0),
			})
		case schemaStatAchievements:
			bits := stat.Get("bits")
			for _, bitKey := range sortedChildKeys(bits) {
				bit := bits.Get(bitKey)
				display := bit.Get("display")
				defs.Achievements = append(defs.Achievements, AchievementDef{
					ID:          bit.Get("name").AsString(bitKey),
					Name:        resolveText(display.Get("name"), language),
					Description: resolveText(display.Get("desc"), language),
					Permission:  bit.Get("permission").AsInt32(0),
					Hidden:      display.Get("hidden").AsBool(false),
					IconNormal:  display.Get("icon").AsString(""),
					IconLocked:  display.Get("icon_gray").AsString(""),
				})
			}
		}
	}

	return defs, nil
}

// resolveText reads display text that is either a plain string or a
// per-language container, falling back to english and then to any value.
func resolveText(node *keyvalue.Node, language string) string {
	if len(node.Children) == 0 {
		return node.AsString("")
	}
	if text := node.Get(language).AsString(""); text != "" {
		return text
	}
	return node.Get("english").AsString("")
}

// sortedChildKeys orders schema entries by their numeric index when the keys
// are numbers, keeping file order stable across map iteration.
func sortedChildKeys(node *keyvalue.Node) []string {
	keys := make([]string, 0, len(node.Children))
	for key := range node.Children {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, aErr := strconv.Atoi(keys[i])
		b, bErr := strconv.Atoi(keys[j])
		if aErr == nil && bErr == nil {
			return a < b
		}
		return keys[i] < keys[j]
	})
	return keys
}
