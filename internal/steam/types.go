// Package steam models the native Steam client surface this system talks
// to: owned-app records, achievement and stat state, and the thin interfaces
// behind which the FFI bindings (out of scope here) live.
package steam

import (
	"encoding/json"
	"fmt"
	"time"
)

// AppType classifies an owned-app record.
type AppType string

const (
	AppTypeApp  AppType = "App"
	AppTypeMod  AppType = "Mod"
	AppTypeDemo AppType = "Demo"
	AppTypeJunk AppType = "Junk"
)

// ParseAppType maps a catalog type attribute to an AppType.
func ParseAppType(s string) (AppType, error) {
	switch s {
	case "", "app":
		return AppTypeApp, nil
	case "mod":
		return AppTypeMod, nil
	case "demo":
		return AppTypeDemo, nil
	case "junk":
		return AppTypeJunk, nil
	}
	return "", fmt.Errorf("unknown app type %q", s)
}

// OwnedApp is one title the current user owns.
type OwnedApp struct {
	AppID           uint32  `json:"app_id"`
	Name            string  `json:"app_name"`
	ImageURL        *string `json:"image_url"`
	Type            AppType `json:"app_type"`
	Developer       string  `json:"developer"`
	MetacriticScore *uint8  `json:"metacritic_score"`
}

// Achievement is the live state of one achievement for one app.
type Achievement struct {
	ID            string     `json:"id"`
	Achieved      bool       `json:"is_achieved"`
	Name          string     `json:"name"`
	GlobalPercent *float32   `json:"global_achieved_percent"`
	Permission    int32      `json:"permission"`
	Description   string     `json:"description"`
	IconLocked    string     `json:"icon_locked"`
	IconNormal    string     `json:"icon_normal"`
	UnlockTime    *time.Time `json:"unlock_time"`
}

// StatKind discriminates integer and floating-point stats.
type StatKind int

const (
	StatInt StatKind = iota
	StatFloat
)

// Stat is the live state of one stat for one app. Only the value fields
// matching Kind are meaningful.
type Stat struct {
	Kind          StatKind
	ID            string
	AppID         uint32
	DisplayName   string
	IncrementOnly bool
	Permission    int32
	IntValue      int32
	IntOriginal   int32
	FloatValue    float32
	FloatOriginal float32
}

// statProtectedBit marks stats the native client refuses user writes to.
const statProtectedBit = 1 << 1

// Protected reports whether writes to this stat must be refused locally.
func (s Stat) Protected() bool { return s.Permission&statProtectedBit != 0 }

// Modified reports whether the value changed since it was read.
func (s Stat) Modified() bool {
	if s.Kind == StatInt {
		return s.IntValue != s.IntOriginal
	}
	return s.FloatValue != s.FloatOriginal
}

type intStatJSON struct {
	ID            string `json:"id"`
	AppID         uint32 `json:"app_id"`
	DisplayName   string `json:"display_name"`
	IncrementOnly bool   `json:"is_increment_only"`
	Permission    int32  `json:"permission"`
	OriginalValue int32  `json:"original_value"`
	IntValue      int32  `json:"int_value"`
}

type floatStatJSON struct {
	ID            string  `json:"id"`
	AppID         uint32  `json:"app_id"`
	DisplayName   string  `json:"display_name"`
	IncrementOnly bool    `json:"is_increment_only"`
	Permission    int32   `json:"permission"`
	OriginalValue float32 `json:"original_value"`
	FloatValue    float32 `json:"float_value"`
}

// MarshalJSON emits the externally tagged {"Integer":{...}} / {"Float":{...}}
// layout the rest of the wire protocol uses for tagged unions.
func (s Stat) MarshalJSON() ([]byte, error) {
	switch s.Kind {
	case StatInt:
		return json.Marshal(map[string]intStatJSON{"Integer": {
			ID:            s.ID,
			AppID:         s.AppID,
			DisplayName:   s.DisplayName,
			IncrementOnly: s.IncrementOnly,
			Permission:    s.Permission,
			OriginalValue: s.IntOriginal,
			IntValue:      s.IntValue,
		}})
	case StatFloat:
		return json.Marshal(map[string]floatStatJSON{"Float": {
			ID:            s.ID,
			AppID:         s.AppID,
			DisplayName:   s.DisplayName,
			IncrementOnly: s.IncrementOnly,
			Permission:    s.Permission,
			OriginalValue: s.FloatOriginal,
			FloatValue:    s.FloatValue,
		}})
	}
	return nil, fmt.Errorf("marshal stat: unknown kind %d", s.Kind)
}

func (s *Stat) UnmarshalJSON(data []byte) error {
	var tagged map[string]json.RawMessage
	if err := json.Unmarshal(data, &tagged); err != nil {
		return fmt.Errorf("unmarshal stat: %w", err)
	}
	if payload, ok := tagged["Integer"]; ok {
		var v intStatJSON
		if err := json.Unmarshal(payload, &v); err != nil {
			return fmt.Errorf("unmarshal integer stat: %w", err)
		}
		*s = Stat{
			Kind:          StatInt,
			ID:            v.ID,
			AppID:         v.AppID,
			DisplayName:   v.DisplayName,
			IncrementOnly: v.IncrementOnly,
			Permission:    v.Permission,
			IntValue:      v.IntValue,
			IntOriginal:   v.OriginalValue,
		}
		return nil
	}
	if payload, ok := tagged["Float"]; ok {
		var v floatStatJSON
		if err := json.Unmarshal(payload, &v); err != nil {
			return fmt.Errorf("unmarshal float stat: %w", err)
		}
		*s = Stat{
			Kind:          StatFloat,
			ID:            v.ID,
			AppID:         v.AppID,
			DisplayName:   v.DisplayName,
			IncrementOnly: v.IncrementOnly,
			Permission:    v.Permission,
			FloatValue:    v.FloatValue,
			FloatOriginal: v.OriginalValue,
		}
		return nil
	}
	return fmt.Errorf("unmarshal stat: unknown variant")
}
