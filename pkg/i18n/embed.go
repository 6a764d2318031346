package i18n

import (
	"embed"
	"io/fs"
)

// EmbeddedLocales holds the translation files under locales/.
//
//go:embed locales/*.json
var EmbeddedLocales embed.FS

// LocalesFS returns the embedded translations rooted at locales/, ready for
// Load.
func LocalesFS() fs.FS {
	sub, err := fs.Sub(EmbeddedLocales, "locales")
	if err != nil {
		panic(err)
	}
	return sub
}
