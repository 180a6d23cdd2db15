package translate

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/minios-linux/xckit/jsonspec"
)

func writeSpecTree(t *testing.T, dir string, spec string, sources map[string]string) string {
	t.Helper()
	for rel, content := range sources {
		path := filepath.Join(dir, rel)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
	specPath := filepath.Join(dir, "spec.json")
	if err := os.WriteFile(specPath, []byte(spec), 0644); err != nil {
		t.Fatal(err)
	}
	return specPath
}

const fanOutSpec = `{
  "sourceLocale": { "localeId": "en" },
  "locales": [ { "localeId": "fr" }, { "localeId": "de" } ],
  "files": [ { "fileUrl": "{locale}/app.txt" } ]
}`

func TestTranslateSpecification_FanOut(t *testing.T) {
	dir := t.TempDir()
	specPath := writeSpecTree(t, dir, fanOutSpec, map[string]string{
		"en/app.txt": "X",
	})

	prov := &stubProvider{fn: func(req Request) (string, error) {
		return "X-" + req.TargetLanguage, nil
	}}

	count, err := TranslateSpecification(context.Background(), specPath, Options{Provider: prov})
	if err != nil {
		t.Fatalf("TranslateSpecification() error: %v", err)
	}
	if count != 0 {
		t.Errorf("count = %d, want 0", count)
	}

	// Outputs are created with auto-created directories.
	for lang, want := range map[string]string{"fr": "X-fr", "de": "X-de"} {
		data, err := os.ReadFile(filepath.Join(dir, lang, "app.txt"))
		if err != nil {
			t.Fatalf("%s output: %v", lang, err)
		}
		if string(data) != want {
			t.Errorf("%s output = %q, want %q", lang, data, want)
		}
	}
}

func TestTranslateSpecification_MissingSourceAborts(t *testing.T) {
	dir := t.TempDir()
	specPath := writeSpecTree(t, dir, fanOutSpec, nil)

	prov := &stubProvider{}
	_, err := TranslateSpecification(context.Background(), specPath, Options{Provider: prov})
	if !errors.Is(err, jsonspec.ErrFileNotFound) {
		t.Fatalf("err = %v, want ErrFileNotFound", err)
	}
	if prov.callCount() != 0 {
		t.Errorf("provider was called %d times before pre-flight failure", prov.callCount())
	}
}

func TestTranslateSpecification_SkipTranslationCopiesVerbatim(t *testing.T) {
	dir := t.TempDir()
	specPath := writeSpecTree(t, dir, `{
  "sourceLocale": { "localeId": "en" },
  "locales": [ { "localeId": "fr" } ],
  "files": [ { "fileUrl": "{locale}/legal.txt", "skipTranslation": true } ]
}`, map[string]string{
		"en/legal.txt": "Terms apply.",
	})

	prov := &stubProvider{}
	if _, err := TranslateSpecification(context.Background(), specPath, Options{Provider: prov}); err != nil {
		t.Fatalf("TranslateSpecification() error: %v", err)
	}
	if prov.callCount() != 0 {
		t.Errorf("provider called %d times for a skip-translation file", prov.callCount())
	}

	data, err := os.ReadFile(filepath.Join(dir, "fr", "legal.txt"))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "Terms apply." {
		t.Errorf("output = %q, want verbatim copy", data)
	}
}

func TestTranslateSpecification_ExistingOutputSkippedWithoutOverwrite(t *testing.T) {
	dir := t.TempDir()
	specPath := writeSpecTree(t, dir, `{
  "sourceLocale": { "localeId": "en" },
  "locales": [ { "localeId": "fr" } ],
  "files": [ { "fileUrl": "{locale}/app.txt" } ]
}`, map[string]string{
		"en/app.txt": "X",
		"fr/app.txt": "manual translation",
	})

	prov := &stubProvider{fn: func(req Request) (string, error) { return "machine", nil }}

	if _, err := TranslateSpecification(context.Background(), specPath, Options{Provider: prov}); err != nil {
		t.Fatalf("TranslateSpecification() error: %v", err)
	}
	data, _ := os.ReadFile(filepath.Join(dir, "fr", "app.txt"))
	if string(data) != "manual translation" {
		t.Errorf("existing output was replaced: %q", data)
	}

	// With overwrite the file is replaced.
	if _, err := TranslateSpecification(context.Background(), specPath, Options{Provider: prov, Overwrite: true}); err != nil {
		t.Fatalf("TranslateSpecification() error: %v", err)
	}
	data, _ = os.ReadFile(filepath.Join(dir, "fr", "app.txt"))
	if string(data) != "machine" {
		t.Errorf("output after overwrite = %q", data)
	}
}

func TestTranslateSpecification_FolderNameAndFilters(t *testing.T) {
	dir := t.TempDir()
	specPath := writeSpecTree(t, dir, `{
  "sourceLocale": { "localeId": "en" },
  "locales": [ { "localeId": "zh-Hans", "folderName": "zh" }, { "localeId": "fr" } ],
  "files": [
    { "fileUrl": "{locale}/app.txt" },
    { "fileUrl": "{locale}/other.txt" }
  ]
}`, map[string]string{
		"en/app.txt":   "X",
		"en/other.txt": "Y",
	})

	prov := &stubProvider{fn: func(req Request) (string, error) { return "T", nil }}

	_, err := TranslateSpecification(context.Background(), specPath, Options{
		Provider:        prov,
		TargetLanguages: []string{"zh-Hans"},
		OnlyFiles:       []string{"app.txt"},
	})
	if err != nil {
		t.Fatalf("TranslateSpecification() error: %v", err)
	}

	// Only zh-Hans/app.txt was produced, under the custom folder name.
	if _, err := os.Stat(filepath.Join(dir, "zh", "app.txt")); err != nil {
		t.Errorf("zh/app.txt missing: %v", err)
	}
	for _, rel := range []string{"fr/app.txt", "zh/other.txt", "fr/other.txt"} {
		if _, err := os.Stat(filepath.Join(dir, rel)); err == nil {
			t.Errorf("%s should not exist", rel)
		}
	}
}
