// Package i18n localizes xckit's own user-facing messages.
//
// It wraps the gotext library behind T() and N() helpers. Translations are
// embedded in the binary and selected at startup from the usual gettext
// environment variables.
//
// Usage:
//
//	i18n.Init("")  // auto-detect from LANGUAGE/LC_ALL/LC_MESSAGES/LANG
//	fmt.Println(i18n.T("Translation complete!"))
package i18n

import (
	"embed"
	"os"
	"strings"

	"github.com/leonelquinteros/gotext"
)

// locales embeds the translation files.
// Directory structure: locales/{lang}/LC_MESSAGES/xckit.po
//
//go:embed all:locales
var locales embed.FS

// domain is the gettext domain name for xckit.
const domain = "xckit"

var locale *gotext.Locale

// Init initializes message localization. If lang is empty, it auto-detects
// from LANGUAGE, LC_ALL, LC_MESSAGES, and LANG in that order, matching GNU
// gettext behavior. Call once at program startup.
func Init(lang string) {
	if lang == "" {
		lang = detectLanguage()
	}

	locale = gotext.NewLocaleFSWithPath(lang, locales, "locales")
	locale.AddDomain(domain)
	locale.SetDomain(domain)
}

// T translates a message. Without a translation the original string is
// returned unchanged (standard gettext passthrough behavior).
func T(msgid string) string {
	if locale == nil {
		return msgid
	}
	return locale.Get(msgid)
}

// N translates a message with plural forms, selecting the form for n.
func N(singular, plural string, n int) string {
	if locale == nil {
		if n == 1 {
			return singular
		}
		return plural
	}
	return locale.GetN(singular, plural, n)
}

// detectLanguage reads the user's preferred language from the environment,
// following GNU gettext conventions.
func detectLanguage() string {
	for _, env := range []string{"LANGUAGE", "LC_ALL", "LC_MESSAGES", "LANG"} {
		val := os.Getenv(env)
		if val == "" {
			continue
		}
		// LANGUAGE can be a colon-separated list; take the first entry.
		if env == "LANGUAGE" {
			val, _, _ = strings.Cut(val, ":")
		}
		// Strip encoding suffix (ru_RU.UTF-8 -> ru_RU).
		val, _, _ = strings.Cut(val, ".")
		// "C" and "POSIX" mean no translation.
		if val == "" || val == "C" || val == "POSIX" {
			continue
		}
		return val
	}
	return "en"
}
