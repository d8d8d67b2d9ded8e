package i18n

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/text/language"

	"github.com/Passbob/dopamine-travel-front/internal/itinerary"
)

// catalog is one locale file: flat message keys to printf-style text.
type catalog map[string]string

// Bundle serves the ko/en message catalogs of the site.
type Bundle struct {
	catalogs map[string]catalog
	fallback string
	langs    []string
	matcher  language.Matcher
}

// Load reads <dir>/<lang>.json for every language in langs. The fallback catalog must
// exist; a missing catalog for another language falls back key by key.
func Load(dir, fallback string, langs []string) (*Bundle, error) {
	if len(langs) == 0 {
		langs = []string{"ko", "en"}
	}
	b := &Bundle{catalogs: make(map[string]catalog, len(langs)), fallback: fallback}

	// the matcher answers with its first tag when nothing matches
	tags := []language.Tag{language.Make(fallback)}
	for _, lang := range langs {
		if lang != fallback {
			tags = append(tags, language.Make(lang))
		}
		b.langs = append(b.langs, lang)

		c, err := readCatalog(filepath.Join(dir, lang+".json"))
		switch {
		case err == nil:
			b.catalogs[lang] = c
		case os.IsNotExist(err) && lang != fallback:
		default:
			return nil, fmt.Errorf("i18n: locale %s: %w", lang, err)
		}
	}
	if _, ok := b.catalogs[fallback]; !ok {
		return nil, fmt.Errorf("i18n: fallback locale %s not in %v", fallback, langs)
	}
	sort.Strings(b.langs)
	b.matcher = language.NewMatcher(tags)
	return b, nil
}

func readCatalog(path string) (catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c catalog
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	return c, nil
}

// Supported lists the configured languages in sorted order.
func (b *Bundle) Supported() []string { return append([]string(nil), b.langs...) }

// Fallback is the language used when a request expresses no usable preference.
func (b *Bundle) Fallback() string { return b.fallback }

// IsSupported reports whether lang is one of the configured languages.
func (b *Bundle) IsSupported(lang string) bool {
	i := sort.SearchStrings(b.langs, lang)
	return i < len(b.langs) && b.langs[i] == lang
}

// T looks key up in lang, then in the fallback catalog. Unknown keys render as themselves.
func (b *Bundle) T(lang, key string) string {
	if v, ok := b.catalogs[lang][key]; ok {
		return v
	}
	if v, ok := b.catalogs[b.fallback][key]; ok {
		return v
	}
	return key
}

// Tf formats the message of key with args.
func (b *Bundle) Tf(lang, key string, args ...any) string {
	return fmt.Sprintf(b.T(lang, key), args...)
}

// Resolve picks the supported language that best matches an Accept-Language header.
func (b *Bundle) Resolve(acceptLanguage string) string {
	tag, _ := language.MatchStrings(b.matcher, acceptLanguage)
	base, _ := tag.Base()
	if lang := base.String(); b.IsSupported(lang) {
		return lang
	}
	return b.fallback
}

// Place is the part of the selection chain a page is about.
type Place struct {
	Province string
	City     string
}

// name is the most specific known part of the place.
func (p Place) name() string {
	if p.City != "" {
		return p.City
	}
	return p.Province
}

// In renders a "<page>.<field>.in" message about p. Messages with two verbs take the
// province and the city; messages with one take the most specific name.
func (b *Bundle) In(lang, key string, p Place) string {
	msg := b.T(lang, key+".in")
	switch strings.Count(msg, "%s") {
	case 0:
		return msg
	case 1:
		return fmt.Sprintf(msg, p.name())
	default:
		return fmt.Sprintf(msg, p.Province, p.City)
	}
}

// ExportLabels returns the fixed phrases of the result heading and the text export.
func (b *Bundle) ExportLabels(lang string) itinerary.Labels {
	return itinerary.Labels{
		Course:     b.T(lang, "result.course"),
		Theme:      b.T(lang, "result.theme"),
		Constraint: b.T(lang, "result.constraint"),
	}
}
