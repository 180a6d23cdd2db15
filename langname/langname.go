// Package langname resolves locale identifiers (en, fr-CA, pt_BR) to
// human-readable language names for prompts and CLI output.
//
// A small curated registry covers the locales most app catalogs ship;
// everything else falls back to BCP-47 parsing and CLDR display names.
package langname

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// Info holds the display names of one locale.
type Info struct {
	// Native is the language's name in itself (Deutsch, 日本語).
	Native string
	// English is the language's name in English (German, Japanese).
	English string
}

// registry lists curated names for common catalog locales. Resolve falls
// back to CLDR data for anything not listed here.
var registry = map[string]Info{
	"ar":      {"العربية", "Arabic"},
	"ca":      {"Català", "Catalan"},
	"cs":      {"Čeština", "Czech"},
	"da":      {"Dansk", "Danish"},
	"de":      {"Deutsch", "German"},
	"el":      {"Ελληνικά", "Greek"},
	"en":      {"English", "English"},
	"en-AU":   {"English (Australia)", "English (Australia)"},
	"en-GB":   {"English (UK)", "English (UK)"},
	"es":      {"Español", "Spanish"},
	"es-419":  {"Español (Latinoamérica)", "Spanish (Latin America)"},
	"fi":      {"Suomi", "Finnish"},
	"fr":      {"Français", "French"},
	"fr-CA":   {"Français (Canada)", "French (Canada)"},
	"he":      {"עברית", "Hebrew"},
	"hi":      {"हिन्दी", "Hindi"},
	"hr":      {"Hrvatski", "Croatian"},
	"hu":      {"Magyar", "Hungarian"},
	"id":      {"Bahasa Indonesia", "Indonesian"},
	"it":      {"Italiano", "Italian"},
	"ja":      {"日本語", "Japanese"},
	"ko":      {"한국어", "Korean"},
	"ms":      {"Bahasa Melayu", "Malay"},
	"nb":      {"Norsk bokmål", "Norwegian Bokmål"},
	"nl":      {"Nederlands", "Dutch"},
	"pl":      {"Polski", "Polish"},
	"pt-BR":   {"Português (Brasil)", "Portuguese (Brazil)"},
	"pt-PT":   {"Português (Portugal)", "Portuguese (Portugal)"},
	"ro":      {"Română", "Romanian"},
	"ru":      {"Русский", "Russian"},
	"sk":      {"Slovenčina", "Slovak"},
	"sv":      {"Svenska", "Swedish"},
	"th":      {"ไทย", "Thai"},
	"tr":      {"Türkçe", "Turkish"},
	"uk":      {"Українська", "Ukrainian"},
	"vi":      {"Tiếng Việt", "Vietnamese"},
	"zh-Hans": {"简体中文", "Chinese (Simplified)"},
	"zh-Hant": {"繁體中文", "Chinese (Traditional)"},
}

// canonicalize normalizes separators and case: pt_br -> pt-BR, zh-hans -> zh-Hans.
func canonicalize(code string) string {
	normalized := strings.ReplaceAll(strings.TrimSpace(code), "_", "-")
	if normalized == "" {
		return ""
	}
	parts := strings.Split(normalized, "-")
	parts[0] = strings.ToLower(parts[0])
	for i := 1; i < len(parts); i++ {
		switch len(parts[i]) {
		case 2:
			parts[i] = strings.ToUpper(parts[i])
		case 4:
			p := strings.ToLower(parts[i])
			parts[i] = strings.ToUpper(p[:1]) + p[1:]
		}
	}
	return strings.Join(parts, "-")
}

// Resolve returns display names for a locale code. Lookup order: registry
// exact, registry canonicalized, registry base language, CLDR via x/text,
// and finally the code itself.
func Resolve(code string) Info {
	if info, ok := registry[code]; ok {
		return info
	}
	normalized := canonicalize(code)
	if info, ok := registry[normalized]; ok {
		return info
	}
	if base, _, found := strings.Cut(normalized, "-"); found {
		if info, ok := registry[base]; ok {
			return info
		}
	}

	if tag, err := language.Parse(normalized); err == nil {
		native := display.Self.Name(tag)
		english := display.English.Languages().Name(tag)
		if native != "" || english != "" {
			if native == "" {
				native = english
			}
			if english == "" {
				english = native
			}
			return Info{Native: native, English: english}
		}
	}

	return Info{Native: code, English: code}
}

// English returns the English display name of a locale code.
func English(code string) string {
	return Resolve(code).English
}

// Native returns the native display name of a locale code.
func Native(code string) string {
	return Resolve(code).Native
}
