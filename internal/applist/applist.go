// Package applist resolves the list of apps the current user owns: a
// remote catalog of candidate game ids, cached on disk, cross-checked
// against the native client's ownership and metadata interfaces.
package applist

import (
	"encoding/xml"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/acask/medals/internal/steam"
)

// cacheTTL is how long the cached catalog stays authoritative before a
// refresh is attempted.
const cacheTTL = 7 * 24 * time.Hour

// Lister downloads and caches the game catalog and resolves owned apps
// through a native-client session.
type Lister struct {
	url       string
	cachePath string
	client    *retryablehttp.Client
	logger    *slog.Logger
	now       func() time.Time
}

// New builds a Lister writing its cache under cacheDir.
func New(url, cacheDir string, logger *slog.Logger) *Lister {
	client := retryablehttp.NewClient()
	client.RetryMax = 2
	client.Logger = nil

	return &Lister{
		url:       url,
		cachePath: filepath.Join(cacheDir, "games.xml"),
		client:    client,
		logger:    logger,
		now:       time.Now,
	}
}

type xmlGame struct {
	AppID string `xml:",chardata"`
	Type  string `xml:"type,attr"`
}

type xmlGames struct {
	Games []xmlGame `xml:"game"`
}

// OwnedApps returns the catalog filtered down to apps the session reports
// as owned, with display metadata resolved per app.
func (l *Lister) OwnedApps(session steam.Session) ([]steam.OwnedApp, error) {
	games, err := l.catalog()
	if err != nil {
		return nil, err
	}

	language := session.CurrentLanguage()
	apps := make([]steam.OwnedApp, 0, len(games.Games))
	for _, game := range games.Games {
		appID64, err := strconv.ParseUint(game.AppID, 10, 32)
		if err != nil {
			continue
		}
		appID := uint32(appID64)

		owned, err := session.IsSubscribed(appID)
		if err != nil {
			l.logger.Warn("subscription check failed", "app_id", appID, "error", err.Error())
			continue
		}
		if !owned {
			continue
		}

		app, err := l.resolveApp(session, appID, game.Type, language)
		if err != nil {
			return nil, err
		}
		apps = append(apps, app)
	}
	return apps, nil
}

func (l *Lister) resolveApp(session steam.Session, appID uint32, typeAttr, language string) (steam.OwnedApp, error) {
	name, err := session.AppData(appID, steam.AppDataName)
	if err != nil {
		return steam.OwnedApp{}, fmt.Errorf("resolve name for app %d: %w", appID, err)
	}

	appType, err := steam.ParseAppType(typeAttr)
	if err != nil {
		return steam.OwnedApp{}, fmt.Errorf("app %d: %w", appID, err)
	}

	developer, err := session.AppData(appID, steam.AppDataDeveloper)
	if err != nil {
		developer = "Unknown"
	}

	var metacritic *uint8
	if raw, err := session.AppData(appID, steam.AppDataMetacriticScore); err == nil {
		if score, err := strconv.ParseUint(raw, 10, 8); err == nil {
			v := uint8(score)
			metacritic = &v
		}
	}

	return steam.OwnedApp{
		AppID:           appID,
		Name:            name,
		ImageURL:        l.imageURL(session, appID, language),
		Type:            appType,
		Developer:       developer,
		MetacriticScore: metacritic,
	}, nil
}

// imageURL prefers the language-specific capsule, then the english capsule,
// then the community logo. Nil means no art was found.
func (l *Lister) imageURL(session steam.Session, appID uint32, language string) *string {
	capsule := func(lang string) string {
		name, err := session.AppData(appID, steam.AppDataSmallCapsule(lang))
		if err != nil {
			return ""
		}
		return name
	}

	if name := capsule(language); name != "" {
		url := fmt.Sprintf("https://shared.cloudflare.steamstatic.com/store_item_assets/steam/apps/%d/%s", appID, name)
		return &url
	}
	if language != "english" {
		if name := capsule("english"); name != "" {
			url := fmt.Sprintf("https://shared.cloudflare.steamstatic.com/store_item_assets/steam/apps/%d/%s", appID, name)
			return &url
		}
	}
	if logo, err := session.AppData(appID, steam.AppDataLogo); err == nil && logo != "" {
		url := fmt.Sprintf("https://cdn.steamstatic.com/steamcommunity/public/images/apps/%d/%s.jpg", appID, logo)
		return &url
	}
	return nil
}

// catalog returns the parsed game list, refreshing the disk cache when it
// is missing or older than the TTL.
func (l *Lister) catalog() (xmlGames, error) {
	if fresh, games, err := l.cached(); err == nil && fresh {
		return games, nil
	}

	body, err := l.download()
	if err != nil {
		return xmlGames{}, err
	}

	games, err := parseCatalog(body)
	if err != nil {
		return xmlGames{}, err
	}

	if err := os.MkdirAll(filepath.Dir(l.cachePath), 0o700); err == nil {
		if err := os.WriteFile(l.cachePath, body, 0o600); err != nil {
			l.logger.Warn("write catalog cache failed", "path", l.cachePath, "error", err.Error())
		}
	}
	return games, nil
}

func (l *Lister) cached() (bool, xmlGames, error) {
	info, err := os.Stat(l.cachePath)
	if err != nil {
		return false, xmlGames{}, err
	}
	if l.now().Sub(info.ModTime()) > cacheTTL {
		return false, xmlGames{}, nil
	}

	body, err := os.ReadFile(l.cachePath)
	if err != nil {
		return false, xmlGames{}, err
	}
	games, err := parseCatalog(body)
	if err != nil {
		return false, xmlGames{}, err
	}
	return true, games, nil
}

func (l *Lister) download() ([]byte, error) {
	l.logger.Info("downloading app catalog", "url", l.url)

	resp, err := l.client.Get(l.url)
	if err != nil {
		return nil, fmt.Errorf("download catalog: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download catalog: unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read catalog body: %w", err)
	}
	return body, nil
}

func parseCatalog(body []byte) (xmlGames, error) {
	var games xmlGames
	if err := xml.Unmarshal(body, &games); err != nil {
		return xmlGames{}, fmt.Errorf("parse catalog: %w", err)
	}
	return games, nil
}
