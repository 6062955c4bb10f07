// File: internal/profile/profile.go
package profile

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"github.com/mitchellh/go-homedir"
	"go.uber.org/zap"
	"gopkg.in/ini.v1"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Profile is one user profile of an installed browser.
type Profile struct {
	Browser     string `json:"browser"`       // chrome, chromium, edge, brave, firefox
	Family      string `json:"family"`        // chromium or firefox
	Name        string `json:"name"`          // display name
	Dir         string `json:"dir"`           // profile directory name
	UserDataDir string `json:"user_data_dir"` // the browser's user-data root
}

const (
	FamilyChromium = "chromium"
	FamilyFirefox  = "firefox"
)

// dataRoot locates one browser installation's user-data directory.
type dataRoot struct {
	browser string
	family  string
	path    string
}

// rootsFor lists the well-known user-data locations for each supported
// browser on the given OS. Paths that do not exist are filtered later.
func rootsFor(goos, home string) []dataRoot {
	join := filepath.Join
	switch goos {
	case "darwin":
		appSupport := join(home, "Library", "Application Support")
		return []dataRoot{
			{"chrome", FamilyChromium, join(appSupport, "Google", "Chrome")},
			{"chromium", FamilyChromium, join(appSupport, "Chromium")},
			{"edge", FamilyChromium, join(appSupport, "Microsoft Edge")},
			{"brave", FamilyChromium, join(appSupport, "BraveSoftware", "Brave-Browser")},
			{"firefox", FamilyFirefox, join(appSupport, "Firefox")},
		}
	case "windows":
		localAppData := os.Getenv("LOCALAPPDATA")
		if localAppData == "" {
			localAppData = join(home, "AppData", "Local")
		}
		roamingAppData := os.Getenv("APPDATA")
		if roamingAppData == "" {
			roamingAppData = join(home, "AppData", "Roaming")
		}
		return []dataRoot{
			{"chrome", FamilyChromium, join(localAppData, "Google", "Chrome", "User Data")},
			{"chromium", FamilyChromium, join(localAppData, "Chromium", "User Data")},
			{"edge", FamilyChromium, join(localAppData, "Microsoft", "Edge", "User Data")},
			{"brave", FamilyChromium, join(localAppData, "BraveSoftware", "Brave-Browser", "User Data")},
			{"firefox", FamilyFirefox, join(roamingAppData, "Mozilla", "Firefox")},
		}
	default: // linux and friends
		cfg := join(home, ".config")
		return []dataRoot{
			{"chrome", FamilyChromium, join(cfg, "google-chrome")},
			{"chromium", FamilyChromium, join(cfg, "chromium")},
			{"edge", FamilyChromium, join(cfg, "microsoft-edge")},
			{"brave", FamilyChromium, join(cfg, "BraveSoftware", "Brave-Browser")},
			{"firefox", FamilyFirefox, join(home, ".mozilla", "firefox")},
		}
	}
}

// chromiumPreferences is the slice of a Chromium Preferences file we read.
type chromiumPreferences struct {
	Profile struct {
		Name string `json:"name"`
	} `json:"profile"`
}

// chromiumProfiles reads every profile directory under a Chromium user-data
// root. A directory counts as a profile when it contains a Preferences file.
func chromiumProfiles(browser, root string) []Profile {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil
	}

	var profiles []Profile
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		dir := entry.Name()
		prefsPath := filepath.Join(root, dir, "Preferences")
		raw, err := os.ReadFile(prefsPath)
		if err != nil {
			continue
		}

		var prefs chromiumPreferences
		if err := json.Unmarshal(raw, &prefs); err != nil {
			continue
		}
		name := prefs.Profile.Name
		if name == "" {
			name = dir
		}
		profiles = append(profiles, Profile{
			Browser:     browser,
			Family:      FamilyChromium,
			Name:        name,
			Dir:         dir,
			UserDataDir: root,
		})
	}

	sort.Slice(profiles, func(i, j int) bool { return profiles[i].Dir < profiles[j].Dir })
	return profiles
}

// firefoxProfiles parses profiles.ini under a Firefox root.
func firefoxProfiles(root string) []Profile {
	f, err := ini.Load(filepath.Join(root, "profiles.ini"))
	if err != nil {
		return nil
	}

	var profiles []Profile
	for _, section := range f.Sections() {
		// Profile sections are named Profile0, Profile1, ... alongside
		// [General] and [Install*] sections we do not care about.
		if !strings.HasPrefix(section.Name(), "Profile") {
			continue
		}
		name := section.Key("Name").String()
		path := section.Key("Path").String()
		if path == "" {
			continue
		}
		dir := path
		if section.Key("IsRelative").MustInt(0) == 1 {
			dir = filepath.Join(root, filepath.FromSlash(path))
		}
		if name == "" {
			name = filepath.Base(path)
		}
		profiles = append(profiles, Profile{
			Browser:     "firefox",
			Family:      FamilyFirefox,
			Name:        name,
			Dir:         filepath.Base(path),
			UserDataDir: dir,
		})
	}
	return profiles
}

// discoverAt walks the data roots under home for the given OS.
func discoverAt(goos, home string, logger *zap.Logger) []Profile {
	var all []Profile
	for _, root := range rootsFor(goos, home) {
		if _, err := os.Stat(root.path); err != nil {
			continue
		}
		var found []Profile
		switch root.family {
		case FamilyChromium:
			found = chromiumProfiles(root.browser, root.path)
		case FamilyFirefox:
			found = firefoxProfiles(root.path)
		}
		if len(found) > 0 {
			logger.Debug("found browser profiles",
				zap.String("browser", root.browser),
				zap.Int("count", len(found)),
			)
			all = append(all, found...)
		}
	}
	return all
}

// Discover enumerates the profiles of every supported browser installed for
// the current user. Missing browsers are skipped silently.
func Discover(logger *zap.Logger) ([]Profile, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	home, err := homedir.Dir()
	if err != nil {
		return nil, fmt.Errorf("cannot resolve home directory: %w", err)
	}
	return discoverAt(runtime.GOOS, home, logger.Named("profile")), nil
}

// Match picks the profile a user asked for by name: exact match first, then
// case-insensitive substring, then the browser's Default profile.
func Match(profiles []Profile, name string) (Profile, bool) {
	for _, p := range profiles {
		if p.Name == name || p.Dir == name {
			return p, true
		}
	}
	if name != "" {
		needle := strings.ToLower(name)
		for _, p := range profiles {
			if strings.Contains(strings.ToLower(p.Name), needle) {
				return p, true
			}
		}
	}
	for _, p := range profiles {
		if p.Dir == "Default" {
			return p, true
		}
	}
	return Profile{}, false
}
