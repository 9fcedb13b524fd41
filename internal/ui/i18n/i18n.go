// Package i18n provides localized string lookup and language selection for the
// shrine pages.
package i18n

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/Its-donkey/shrine-live/internal/ui/model"
)

// Supported language codes.
const (
	English = "en"
	Tamil   = "ta"
)

const (
	compactText   = "tamil-text text-sm leading-relaxed"
	compactButton = "tamil-button text-xs px-2 py-1"
	compactTitle  = "tamil-heading text-sm font-semibold leading-tight"
)

//go:embed locales/*.json
var embedded embed.FS

// Catalog holds one string table per supported language.
type Catalog struct {
	tables   map[string]map[string]string
	codes    []string
	matcher  language.Matcher
	fallback string
	// preferred answers Match when nothing in the request is supported.
	preferred string
}

// Default returns the catalog built from the embedded tables.
func Default() *Catalog {
	c, err := Load("")
	if err != nil {
		panic(fmt.Sprintf("i18n: embedded locales: %v", err))
	}
	return c
}

// Load builds a catalog from the embedded tables, then overlays any
// <lang>.json files found in dir. An empty dir skips the overlay.
func Load(dir string) (*Catalog, error) {
	tables := map[string]map[string]string{}
	if err := readTables(embedded, "locales", tables); err != nil {
		return nil, err
	}
	if strings.TrimSpace(dir) != "" {
		if err := readTables(os.DirFS(dir), ".", tables); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}
	if _, ok := tables[English]; !ok {
		return nil, errors.New("i18n: missing English table")
	}

	codes := make([]string, 0, len(tables))
	for code := range tables {
		codes = append(codes, code)
	}
	sort.Slice(codes, func(i, j int) bool {
		if codes[i] == English {
			return true
		}
		if codes[j] == English {
			return false
		}
		return codes[i] < codes[j]
	})
	tags := make([]language.Tag, 0, len(codes))
	for _, code := range codes {
		tags = append(tags, language.Make(code))
	}

	return &Catalog{
		tables:    tables,
		codes:     codes,
		matcher:   language.NewMatcher(tags),
		fallback:  English,
		preferred: English,
	}, nil
}

// SetDefault makes lang the language served when a request names nothing
// supported. Missing keys still fall back to English.
func (c *Catalog) SetDefault(lang string) error {
	lang = strings.ToLower(strings.TrimSpace(lang))
	if lang == "" {
		return nil
	}
	if !c.Supported(lang) {
		return fmt.Errorf("i18n: default language %q has no table", lang)
	}
	c.preferred = lang
	return nil
}

// DefaultLanguage reports the language Match falls back to.
func (c *Catalog) DefaultLanguage() string {
	return c.preferred
}

func readTables(fsys fs.FS, dir string, into map[string]map[string]string) error {
	matches, err := fs.Glob(fsys, filepath.ToSlash(filepath.Join(dir, "*.json")))
	if err != nil {
		return err
	}
	for _, name := range matches {
		data, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("read %s: %w", name, err)
		}
		var table map[string]string
		if err := json.Unmarshal(data, &table); err != nil {
			return fmt.Errorf("decode %s: %w", name, err)
		}
		code := strings.TrimSuffix(filepath.Base(name), ".json")
		existing := into[code]
		if existing == nil {
			existing = make(map[string]string, len(table))
			into[code] = existing
		}
		for k, v := range table {
			existing[k] = v
		}
	}
	return nil
}

// Languages lists supported codes, English first.
func (c *Catalog) Languages() []string {
	return append([]string(nil), c.codes...)
}

// Supported reports whether code has a table.
func (c *Catalog) Supported(code string) bool {
	_, ok := c.tables[code]
	return ok
}

// Options returns picker entries labelled in their own language.
func (c *Catalog) Options() []model.LanguageOption {
	out := make([]model.LanguageOption, 0, len(c.codes))
	for _, code := range c.codes {
		label := c.tables[code]["language.name"]
		if label == "" {
			label = code
		}
		out = append(out, model.LanguageOption{Label: label, Value: code})
	}
	return out
}

// Match picks a supported language. An explicit choice (query or cookie)
// wins; otherwise the Accept-Language header is matched.
func (c *Catalog) Match(acceptLanguage, explicit string) string {
	if explicit = strings.ToLower(strings.TrimSpace(explicit)); c.Supported(explicit) {
		return explicit
	}
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return c.preferred
	}
	_, index, confidence := c.matcher.Match(tags...)
	if confidence == language.No || index < 0 || index >= len(c.codes) {
		return c.preferred
	}
	return c.codes[index]
}

// Localizer returns lookups for lang. Unsupported codes get the default
// language and missing keys fall back to English.
func (c *Catalog) Localizer(lang string) *Localizer {
	if !c.Supported(lang) {
		lang = c.preferred
	}
	return &Localizer{
		lang:     lang,
		table:    c.tables[lang],
		fallback: c.tables[c.fallback],
		printer:  message.NewPrinter(language.Make(lang)),
	}
}

// Localizer resolves keys for a single language.
type Localizer struct {
	lang     string
	table    map[string]string
	fallback map[string]string
	printer  *message.Printer
}

// T returns the localized string for key, the English string when the
// language lacks it, or the key itself.
func (l *Localizer) T(key string) string {
	if l == nil {
		return key
	}
	if v, ok := l.table[key]; ok && v != "" {
		return v
	}
	if v, ok := l.fallback[key]; ok && v != "" {
		return v
	}
	return key
}

// Lang returns the language code in use.
func (l *Localizer) Lang() string {
	if l == nil {
		return English
	}
	return l.lang
}

// Compact reports whether the language needs the denser typography rules.
func (l *Localizer) Compact() bool {
	return l.Lang() == Tamil
}

// Number formats n with the language's digit grouping.
func (l *Localizer) Number(n int) string {
	if l == nil || l.printer == nil {
		return fmt.Sprintf("%d", n)
	}
	return l.printer.Sprintf("%d", n)
}

// TextClass appends the compact body-text classes when needed.
func (l *Localizer) TextClass(base string) string {
	return l.withCompact(base, compactText)
}

// TitleClass appends the compact heading classes when needed.
func (l *Localizer) TitleClass(base string) string {
	return l.withCompact(base, compactTitle)
}

// ButtonClass appends the compact button classes when needed.
func (l *Localizer) ButtonClass(base string) string {
	return l.withCompact(base, compactButton)
}

func (l *Localizer) withCompact(base, extra string) string {
	base = strings.TrimSpace(base)
	if !l.Compact() {
		return base
	}
	if base == "" {
		return extra
	}
	return base + " " + extra
}
