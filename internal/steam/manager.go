package steam

import (
	"fmt"
)

// AppManager implements AppClient for one application by combining the
// app's decoded stats schema with the native UserStats interface.
type AppManager struct {
	appID uint32
	defs  Definitions
	stats UserStats
}

// NewAppManager wires a manager from already-loaded parts.
func NewAppManager(appID uint32, defs Definitions, stats UserStats) *AppManager {
	return &AppManager{appID: appID, defs: defs, stats: stats}
}

// Connect loads the app's schema and dials the native stats interface.
// This is the ConnectFunc a worker process runs once at startup.
func Connect(schemaPath, language string) ConnectFunc {
	return func(appID uint32) (AppClient, error) {
		defs, err := LoadDefinitions(schemaPath, appID, language)
		if err != nil {
			return nil, fmt.Errorf("load schema for app %d: %w", appID, err)
		}
		stats, err := OpenUserStats(appID)
		if err != nil {
			return nil, fmt.Errorf("open user stats for app %d: %w", appID, err)
		}
		return NewAppManager(appID, defs, stats), nil
	}
}

func (m *AppManager) Achievements() ([]Achievement, error) {
	records := make([]Achievement, 0, len(m.defs.Achievements))
	for _, def := range m.defs.Achievements {
		achieved, unlockTime, err := m.stats.AchievementState(def.ID)
		if err != nil {
			return nil, fmt.Errorf("read achievement %q: %w", def.ID, err)
		}

		var percent *float32
		if p, err := m.stats.GlobalAchievedPercent(def.ID); err == nil {
			percent = &p
		}

		records = append(records, Achievement{
			ID:            def.ID,
			Achieved:      achieved,
			Name:          def.Name,
			GlobalPercent: percent,
			Permission:    def.Permission,
			Description:   def.Description,
			IconLocked:    def.IconLocked,
			IconNormal:    def.IconNormal,
			UnlockTime:    unlockTime,
		})
	}
	return records, nil
}

func (m *AppManager) Stats() ([]Stat, error) {
	records := make([]Stat, 0, len(m.defs.Stats))
	for _, def := range m.defs.Stats {
		record := Stat{
			Kind:          def.Kind,
			ID:            def.ID,
			AppID:         m.appID,
			DisplayName:   def.DisplayName,
			IncrementOnly: def.IncrementOnly,
			Permission:    def.Permission,
		}

		switch def.Kind {
		case StatInt:
			value, err := m.stats.StatInt32(def.ID)
			if err != nil {
				return nil, fmt.Errorf("read stat %q: %w", def.ID, err)
			}
			record.IntValue = value
			record.IntOriginal = value
		case StatFloat:
			value, err := m.stats.StatFloat32(def.ID)
			if err != nil {
				return nil, fmt.Errorf("read stat %q: %w", def.ID, err)
			}
			record.FloatValue = value
			record.FloatOriginal = value
		}

		records = append(records, record)
	}
	return records, nil
}

func (m *AppManager) SetAchievement(id string, unlocked bool) error {
	if err := m.stats.SetAchievement(id, unlocked); err != nil {
		return fmt.Errorf("set achievement %q: %w", id, err)
	}
	if err := m.stats.StoreStats(); err != nil {
		return fmt.Errorf("store stats: %w", err)
	}
	return nil
}

func (m *AppManager) SetIntStat(id string, value int32) (int32, error) {
	if err := m.guardWrite(id); err != nil {
		return 0, err
	}
	if err := m.stats.SetStatInt32(id, value); err != nil {
		return 0, fmt.Errorf("set stat %q: %w", id, err)
	}
	if err := m.stats.StoreStats(); err != nil {
		return 0, fmt.Errorf("store stats: %w", err)
	}
	// Re-read: the native client may have clamped the write.
	stored, err := m.stats.StatInt32(id)
	if err != nil {
		return 0, fmt.Errorf("read back stat %q: %w", id, err)
	}
	return stored, nil
}

func (m *AppManager) SetFloatStat(id string, value float32) (float32, error) {
	if err := m.guardWrite(id); err != nil {
		return 0, err
	}
	if err := m.stats.SetStatFloat32(id, value); err != nil {
		return 0, fmt.Errorf("set stat %q: %w", id, err)
	}
	if err := m.stats.StoreStats(); err != nil {
		return 0, fmt.Errorf("store stats: %w", err)
	}
	stored, err := m.stats.StatFloat32(id)
	if err != nil {
		return 0, fmt.Errorf("read back stat %q: %w", id, err)
	}
	return stored, nil
}

func (m *AppManager) ResetStats(includeAchievements bool) (bool, error) {
	ok, err := m.stats.ResetAllStats(includeAchievements)
	if err != nil {
		return false, fmt.Errorf("reset stats: %w", err)
	}
	return ok, nil
}

func (m *AppManager) Disconnect() {
	m.stats.Release()
}

// guardWrite refuses writes the schema marks protected before any native
// call happens.
func (m *AppManager) guardWrite(id string) error {
	def, ok := m.defs.StatByID(id)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownStat, id)
	}
	if def.Permission&statProtectedBit != 0 {
		return fmt.Errorf("%w: %q", ErrProtectedStat, id)
	}
	return nil
}
