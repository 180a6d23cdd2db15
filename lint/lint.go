// Package lint rejects obviously broken machine translations before they are
// written into a catalog: dropped format specifiers, lost placeholders, and
// whitespace drift that would corrupt the rendered string at runtime.
package lint

import (
	"regexp"
	"sort"
	"strings"
)

// formatSpecifier matches printf-style specifiers as they appear in catalog
// strings: %@, %d, %lld, %f, %s, %x, %u, and positional forms like %1$@.
// A literal %% is consumed first so it never counts as a specifier.
var formatSpecifier = regexp.MustCompile(`%%|%(\d+\$)?[0-9.*#+\- ]*(ll|l|h|hh|z|q)?[@dioxXufFeEgGcspan]`)

// placeholder matches {name}-style template placeholders.
var placeholder = regexp.MustCompile(`\{[^{}]*\}`)

// Lint reports whether a translation is acceptable for the given source
// string. The language parameters are accepted for symmetry with the
// provider call and for future language-aware rules; the current rules are
// language independent.
func Lint(source, sourceLanguage, translation, targetLanguage string) bool {
	// Empty iff empty.
	if (source == "") != (translation == "") {
		return false
	}
	if source == "" {
		return true
	}

	// Format specifiers must survive as a multiset. Positional prefixes are
	// stripped first: a translation is free to reorder %1$@ and %2$d, but it
	// must keep one %@ and one %d.
	if !sameMultiset(specifiers(source), specifiers(translation)) {
		return false
	}

	// {placeholder} braces must survive in count.
	if len(placeholder.FindAllString(source, -1)) != len(placeholder.FindAllString(translation, -1)) {
		return false
	}

	// Leading/trailing newline parity.
	if strings.HasPrefix(source, "\n") != strings.HasPrefix(translation, "\n") {
		return false
	}
	if strings.HasSuffix(source, "\n") != strings.HasSuffix(translation, "\n") {
		return false
	}

	return true
}

// specifiers extracts the format specifiers of s with positional prefixes
// removed, so %1$@ and %@ compare equal.
func specifiers(s string) []string {
	var out []string
	for _, m := range formatSpecifier.FindAllStringSubmatch(s, -1) {
		if m[0] == "%%" {
			continue
		}
		spec := m[0]
		if m[1] != "" {
			spec = "%" + strings.TrimPrefix(spec, "%"+m[1])
		}
		out = append(out, spec)
	}
	return out
}

func sameMultiset(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	sort.Strings(a)
	sort.Strings(b)
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
