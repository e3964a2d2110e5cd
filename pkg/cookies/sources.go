// Package cookies detects credential sources and converts them into
// playwright cookie records. A source is either a Cookie-Editor JSON export
// dropped into the cookies directory or a USER_COOKIE_<n> environment
// variable; each detected source backs exactly one browser instance.
package cookies

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/playwright-community/playwright-go"

	"github.com/camofleet/camofleet/pkg/logging"
)

// SourceType discriminates where a cookie source came from.
type SourceType string

const (
	// SourceFile is a JSON export file in the cookies directory.
	SourceFile SourceType = "file"

	// SourceEnv is a USER_COOKIE_<n> environment variable.
	SourceEnv SourceType = "env"
)

// envCookiePrefix is the naming scheme for environment cookie sources,
// numbered contiguously from 1.
const envCookiePrefix = "USER_COOKIE_"

// Source identifies one credential source. Identifier is a file path for
// file sources and an environment variable name for env sources.
type Source struct {
	Type        SourceType
	Identifier  string
	DisplayName string
}

// Manager detects cookie sources and loads their contents.
type Manager struct {
	dir string
	log *logging.Logger
}

// NewManager creates a manager scanning the given cookies directory.
func NewManager(dir string, log *logging.Logger) *Manager {
	return &Manager{dir: dir, log: log}
}

// DetectAllSources enumerates every available cookie source: JSON files in
// the cookies directory sorted by name, followed by USER_COOKIE_1..n
// environment variables. An empty result means there is nothing to launch.
func (m *Manager) DetectAllSources() []Source {
	sources := m.detectFileSources()
	sources = append(sources, m.detectEnvSources()...)
	return sources
}

func (m *Manager) detectFileSources() []Source {
	entries, err := os.ReadDir(m.dir)
	if err != nil {
		if !os.IsNotExist(err) && m.log != nil {
			m.log.Warnf("Failed to read cookies directory %s: %v", m.dir, err)
		}
		return nil
	}

	var sources []Source
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		sources = append(sources, Source{
			Type:        SourceFile,
			Identifier:  filepath.Join(m.dir, entry.Name()),
			DisplayName: entry.Name(),
		})
	}

	sort.Slice(sources, func(i, j int) bool {
		return sources[i].DisplayName < sources[j].DisplayName
	})
	return sources
}

func (m *Manager) detectEnvSources() []Source {
	var sources []Source
	// Numbering is contiguous from 1; the first gap ends the scan.
	for i := 1; ; i++ {
		name := fmt.Sprintf("%s%d", envCookiePrefix, i)
		if strings.TrimSpace(os.Getenv(name)) == "" {
			break
		}
		sources = append(sources, Source{
			Type:        SourceEnv,
			Identifier:  name,
			DisplayName: name,
		})
	}
	return sources
}

// Load reads and converts the source's cookies. defaultDomain scopes cookies
// from sources that carry no domain information of their own (env key=value
// strings). File contents and env values that start with '[' are parsed as
// Cookie-Editor JSON; anything else is treated as a key=value cookie string.
func (s Source) Load(defaultDomain string, log *logging.Logger) ([]playwright.OptionalCookie, error) {
	var raw string

	switch s.Type {
	case SourceFile:
		data, err := os.ReadFile(s.Identifier)
		if err != nil {
			return nil, fmt.Errorf("failed to read cookie file %s: %w", s.Identifier, err)
		}
		raw = string(data)
	case SourceEnv:
		raw = os.Getenv(s.Identifier)
	default:
		return nil, fmt.Errorf("unknown cookie source type %q", s.Type)
	}

	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, fmt.Errorf("cookie source %s is empty", s.DisplayName)
	}

	if strings.HasPrefix(raw, "[") {
		var records []EditorCookie
		if err := json.Unmarshal([]byte(raw), &records); err != nil {
			return nil, fmt.Errorf("failed to parse cookie JSON from %s: %w", s.DisplayName, err)
		}
		return ConvertEditorCookies(records, log), nil
	}

	return ParseCookieString(raw, defaultDomain, log), nil
}
