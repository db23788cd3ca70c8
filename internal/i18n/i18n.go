// Package i18n translates user-facing messages. Catalogs are YAML files
// embedded from locales/, one per language, grouped by message kind.
package i18n

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultLocale answers requests in no supported language.
	DefaultLocale = "en"
	// AcceptLanguageHeader carries the caller's language preference.
	AcceptLanguageHeader = "Accept-Language"
)

//go:embed locales/*.yaml
var embedded embed.FS

// Translator looks up messages by key and locale. It is read-only once built.
type Translator struct {
	messages map[string]map[string]string
	locales  []string
	matcher  language.Matcher
}

// NewTranslator returns a translator over the embedded catalogs.
func NewTranslator() *Translator {
	t, err := LoadTranslator(embedded, "locales")
	if err != nil {
		panic(fmt.Sprintf("i18n: embedded catalogs: %v", err))
	}
	return t
}

var defaultTranslator = sync.OnceValue(NewTranslator)

// GetTranslator returns the process-wide translator.
func GetTranslator() *Translator {
	return defaultTranslator()
}

// LoadTranslator reads every <locale>.yaml under dir. A catalog maps a group
// (error, violation, success) to its messages; keys become "group.name".
// The DefaultLocale catalog is required.
func LoadTranslator(fsys fs.FS, dir string) (*Translator, error) {
	files, err := fs.Glob(fsys, path.Join(dir, "*.yaml"))
	if err != nil {
		return nil, err
	}

	t := &Translator{messages: make(map[string]map[string]string, len(files))}
	for _, file := range files {
		locale := strings.TrimSuffix(path.Base(file), ".yaml")
		if _, err := language.Parse(locale); err != nil {
			return nil, fmt.Errorf("%s: %w", file, err)
		}

		data, err := fs.ReadFile(fsys, file)
		if err != nil {
			return nil, err
		}
		var groups map[string]map[string]string
		if err := yaml.Unmarshal(data, &groups); err != nil {
			return nil, fmt.Errorf("%s: %w", file, err)
		}

		flat := make(map[string]string)
		for group, msgs := range groups {
			for name, msg := range msgs {
				flat[group+"."+name] = msg
			}
		}
		t.messages[locale] = flat
	}

	if _, ok := t.messages[DefaultLocale]; !ok {
		return nil, fmt.Errorf("no %s catalog in %s", DefaultLocale, dir)
	}

	// The matcher falls back to its first tag.
	t.locales = []string{DefaultLocale}
	for locale := range t.messages {
		if locale != DefaultLocale {
			t.locales = append(t.locales, locale)
		}
	}
	tags := make([]language.Tag, len(t.locales))
	for i, locale := range t.locales {
		tags[i] = language.MustParse(locale)
	}
	t.matcher = language.NewMatcher(tags)
	return t, nil
}

// Translate returns the message for key in locale, then in DefaultLocale,
// then the key itself.
func (t *Translator) Translate(key, locale string) string {
	if msg, ok := t.messages[locale][key]; ok {
		return msg
	}
	if msg, ok := t.messages[DefaultLocale][key]; ok {
		return msg
	}
	return key
}

// TranslateViolation returns the message for a violation code, or the code
// when there is none.
func (t *Translator) TranslateViolation(code, locale string) string {
	key := ViolationKeyPrefix + code
	if msg := t.Translate(key, locale); msg != key {
		return msg
	}
	return code
}

// Negotiate picks the supported locale that best fits an Accept-Language
// value, honouring q-weights.
func (t *Translator) Negotiate(acceptLanguage string) string {
	if acceptLanguage == "" {
		return DefaultLocale
	}
	_, idx := language.MatchStrings(t.matcher, acceptLanguage)
	return t.locales[idx]
}

// GetLocale negotiates the locale of the request.
func GetLocale(c *gin.Context) string {
	return GetTranslator().Negotiate(c.GetHeader(AcceptLanguageHeader))
}
