// Package i18n translates notices and error messages.
//
// The language of a session is decided once, when the session starts:
//  1. an explicit ?lang= query parameter
//  2. the Accept-Language header
//  3. DefaultLanguage
//
// Usage:
//
//	l := i18n.NewLocalizer("hi")
//	msg := l.T("recommend.selectCrop")
package i18n

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// SupportedLanguages lists the language codes that have a translation file.
var SupportedLanguages = []string{"en", "hi"}

// DefaultLanguage is used when nothing better is known.
const DefaultLanguage = "en"

// translations maps lang -> flat key -> text. Written once by Load, read-only
// afterwards.
var (
	translations map[string]map[string]string
	loadOnce     sync.Once
	loadErr      error
)

// Load reads <lang>.json for every supported language from localesFS.
// Only the first call does any work; later calls return the first result.
func Load(localesFS fs.FS, logger *zap.Logger) error {
	loadOnce.Do(func() {
		loaded := make(map[string]map[string]string)

		for _, lang := range SupportedLanguages {
			fileName := lang + ".json"

			data, err := fs.ReadFile(localesFS, fileName)
			if err != nil {
				loadErr = fmt.Errorf("failed to read translation file %s: %w", fileName, err)
				return
			}

			var nested map[string]any
			if err := json.Unmarshal(data, &nested); err != nil {
				loadErr = fmt.Errorf("failed to parse translation file %s: %w", fileName, err)
				return
			}

			flat := make(map[string]string)
			flattenMap("", nested, flat)
			loaded[lang] = flat

			logger.Debug("translations loaded", zap.String("lang", lang), zap.Int("keys", len(flat)))
		}

		translations = loaded
	})

	return loadErr
}

// Localizer translates keys for one language.
type Localizer struct {
	lang string
}

// NewLocalizer returns a Localizer for lang, or for DefaultLanguage when lang
// is not supported.
func NewLocalizer(lang string) *Localizer {
	if !IsSupported(lang) {
		lang = DefaultLanguage
	}
	return &Localizer{lang: lang}
}

// Lang returns the effective language code.
func (l *Localizer) Lang() string {
	return l.lang
}

// T returns the text for key, falling back to English and then to the key
// itself.
func (l *Localizer) T(key string) string {
	if msg, ok := translations[l.lang][key]; ok {
		return msg
	}
	if msg, ok := translations[DefaultLanguage][key]; ok {
		return msg
	}
	return key
}

// TWithParams translates key and substitutes {{name}} placeholders.
//
//	l.TWithParams("recommend.result", map[string]string{"crop": "Rice"})
func (l *Localizer) TWithParams(key string, params map[string]string) string {
	msg := l.T(key)
	for k, v := range params {
		msg = strings.ReplaceAll(msg, "{{"+k+"}}", v)
	}
	return msg
}

// DetectLanguage picks the first supported language in an Accept-Language
// header such as "hi-IN,hi;q=0.9,en;q=0.8".
func DetectLanguage(acceptLanguage string) string {
	if acceptLanguage == "" {
		return DefaultLanguage
	}

	for _, part := range strings.Split(acceptLanguage, ",") {
		tag, _, _ := strings.Cut(part, ";")
		base, _, _ := strings.Cut(strings.TrimSpace(tag), "-")
		base = strings.ToLower(base)

		if IsSupported(base) {
			return base
		}
	}

	return DefaultLanguage
}

// IsSupported reports whether lang has a translation file.
func IsSupported(lang string) bool {
	for _, l := range SupportedLanguages {
		if l == lang {
			return true
		}
	}
	return false
}

// flattenMap turns {"auth": {"loggedIn": "..."}} into {"auth.loggedIn": "..."}.
func flattenMap(prefix string, src map[string]any, dst map[string]string) {
	for k, v := range src {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}

		switch val := v.(type) {
		case string:
			dst[key] = val
		case map[string]any:
			flattenMap(key, val, dst)
		}
	}
}
