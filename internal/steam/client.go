package steam

import (
	"errors"
	"time"
)

// ErrProtectedStat is returned for writes to a stat whose permission bits
// forbid user modification. The native client is never called in that case.
var ErrProtectedStat = errors.New("stat is protected")

// ErrUnknownStat is returned for writes to a stat id absent from the schema.
var ErrUnknownStat = errors.New("unknown stat id")

// ErrBindingsUnavailable is what the placeholder dialers return when the
// native client bindings are not linked into this build.
var ErrBindingsUnavailable = errors.New("steam client bindings unavailable")

// AppClient is the per-application surface a worker process serves from.
// One AppClient is scoped to exactly one application id.
type AppClient interface {
	Achievements() ([]Achievement, error)
	Stats() ([]Stat, error)
	SetAchievement(id string, unlocked bool) error
	// SetIntStat and SetFloatStat return the value actually stored; the
	// native API may clamp.
	SetIntStat(id string, value int32) (int32, error)
	SetFloatStat(id string, value float32) (float32, error)
	ResetStats(includeAchievements bool) (bool, error)
	Disconnect()
}

// ConnectFunc establishes the app-scoped connection a worker holds.
type ConnectFunc func(appID uint32) (AppClient, error)

// Session is the catalog/session surface only the orchestrator holds.
type Session interface {
	IsSubscribed(appID uint32) (bool, error)
	AppData(appID uint32, key string) (string, error)
	CurrentLanguage() string
	Close()
}

// SessionFunc establishes the orchestrator's session.
type SessionFunc func() (Session, error)

// App-data keys understood by the native catalog interface.
const (
	AppDataName            = "name"
	AppDataLogo            = "logo"
	AppDataDeveloper       = "developer"
	AppDataMetacriticScore = "metacritic/score"
)

// AppDataSmallCapsule is the language-qualified capsule image key.
func AppDataSmallCapsule(language string) string {
	return "small_capsule/" + language
}

// UserStats is the thin native per-app stats interface the FFI binding
// implements. AppManager builds the AppClient behavior on top of it.
type UserStats interface {
	AchievementState(id string) (achieved bool, unlockTime *time.Time, err error)
	GlobalAchievedPercent(id string) (float32, error)
	StatInt32(id string) (int32, error)
	StatFloat32(id string) (float32, error)
	SetStatInt32(id string, value int32) error
	SetStatFloat32(id string, value float32) error
	SetAchievement(id string, unlocked bool) error
	StoreStats() error
	ResetAllStats(includeAchievements bool) (bool, error)
	Release()
}

// OpenUserStatsFunc dials the native stats interface for one app.
type OpenUserStatsFunc func(appID uint32) (UserStats, error)

// OpenUserStats and OpenSession are replaced by the platform binding at
// init. The defaults fail every connection attempt, which the worker and
// orchestrator loops already translate to SteamConnectionFailed.
var (
	OpenUserStats OpenUserStatsFunc = func(uint32) (UserStats, error) {
		return nil, ErrBindingsUnavailable
	}
	OpenSession SessionFunc = func() (Session, error) {
		return nil, ErrBindingsUnavailable
	}
)
