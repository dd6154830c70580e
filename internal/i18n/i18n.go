// internal/i18n/i18n.go
package i18n

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"sync"

	"github.com/goccy/go-json"
)

//go:embed locales/*.json
var localeFS embed.FS

// DefaultLanguage is used for missing keys and unsupported languages.
const DefaultLanguage = "fi"

var fallbackLanguages = []string{"fi", "sv", "en"}

// Catalog holds one flat key/message map per language.
type Catalog struct {
	mu       sync.RWMutex
	messages map[string]map[string]string
}

var (
	catalog  *Catalog
	initOnce sync.Once
	initErr  error
)

// Initialize loads the embedded locales once.
func Initialize() error {
	initOnce.Do(func() {
		c := &Catalog{messages: make(map[string]map[string]string)}
		if initErr = c.Load(localeFS, "locales"); initErr == nil {
			catalog = c
		}
	})
	return initErr
}

// Load reads every <lang>.json in dir.
func (c *Catalog) Load(fsys fs.FS, dir string) error {
	files, err := fs.Glob(fsys, path.Join(dir, "*.json"))
	if err != nil {
		return fmt.Errorf("failed to list locales: %w", err)
	}
	if len(files) == 0 {
		return fmt.Errorf("no locale files in %s", dir)
	}

	for _, file := range files {
		data, err := fs.ReadFile(fsys, file)
		if err != nil {
			return fmt.Errorf("failed to read locale file %s: %w", file, err)
		}
		var messages map[string]string
		if err := json.Unmarshal(data, &messages); err != nil {
			return fmt.Errorf("failed to parse locale file %s: %w", file, err)
		}

		lang := strings.TrimSuffix(path.Base(file), ".json")
		c.mu.Lock()
		c.messages[lang] = messages
		c.mu.Unlock()
	}
	return nil
}

// T returns the message for key in lang, then in DefaultLanguage, then the
// key itself. args are applied with fmt.Sprintf.
func (c *Catalog) T(lang, key string, args ...interface{}) string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	text, ok := c.messages[lang][key]
	if !ok {
		text, ok = c.messages[DefaultLanguage][key]
	}
	if !ok {
		return key
	}
	if len(args) > 0 {
		return fmt.Sprintf(text, args...)
	}
	return text
}

func (c *Catalog) languages() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	langs := make([]string, 0, len(c.messages))
	for lang := range c.messages {
		langs = append(langs, lang)
	}
	sort.Strings(langs)
	return langs
}

func T(lang, key string, args ...interface{}) string {
	if catalog == nil {
		return key
	}
	return catalog.T(lang, key, args...)
}

// IsSupported reports whether lang has a locale. Before Initialize the
// built-in fi/sv/en set is assumed.
func IsSupported(lang string) bool {
	for _, supported := range SupportedLanguages() {
		if supported == lang {
			return true
		}
	}
	return false
}

func SupportedLanguages() []string {
	if catalog == nil {
		return fallbackLanguages
	}
	return catalog.languages()
}
