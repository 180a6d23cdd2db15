package i18n

import "testing"

func TestT_PassthroughWithoutInit(t *testing.T) {
	locale = nil
	if got := T("Translation complete!"); got != "Translation complete!" {
		t.Errorf("T() = %q, want passthrough", got)
	}
	if got := N("one file", "many files", 1); got != "one file" {
		t.Errorf("N(1) = %q", got)
	}
	if got := N("one file", "many files", 3); got != "many files" {
		t.Errorf("N(3) = %q", got)
	}
}

func TestInit_Russian(t *testing.T) {
	Init("ru")
	defer func() { locale = nil }()

	if got := T("Translation complete!"); got != "Перевод завершён!" {
		t.Errorf("T() = %q", got)
	}
	// Untranslated messages pass through.
	if got := T("no such message"); got != "no such message" {
		t.Errorf("T(unknown) = %q", got)
	}
}

func TestInit_UnknownLanguagePassesThrough(t *testing.T) {
	Init("zz")
	defer func() { locale = nil }()

	if got := T("Translation complete!"); got != "Translation complete!" {
		t.Errorf("T() = %q, want passthrough", got)
	}
}

func TestDetectLanguage(t *testing.T) {
	for _, env := range []string{"LANGUAGE", "LC_ALL", "LC_MESSAGES", "LANG"} {
		t.Setenv(env, "")
	}

	t.Setenv("LANG", "de_DE.UTF-8")
	if got := detectLanguage(); got != "de_DE" {
		t.Errorf("detectLanguage() = %q, want de_DE", got)
	}

	// LANGUAGE wins over LANG and is a colon-separated list.
	t.Setenv("LANGUAGE", "fr:de")
	if got := detectLanguage(); got != "fr" {
		t.Errorf("detectLanguage() = %q, want fr", got)
	}

	// C/POSIX are skipped.
	t.Setenv("LANGUAGE", "")
	t.Setenv("LANG", "C")
	if got := detectLanguage(); got != "en" {
		t.Errorf("detectLanguage() = %q, want en", got)
	}
}
