package jsonspec

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const sampleSpec = `{
  "sourceLocale": { "localeId": "en" },
  "comment": "Marketing copy",
  "locales": [
    { "localeId": "fr" },
    { "localeId": "zh-Hans", "folderName": "zh" }
  ],
  "files": [
    { "fileUrl": "{locale}/app.txt", "comment": "Landing page" },
    { "fileUrl": "{locale}/legal.txt", "skipTranslation": true }
  ]
}`

func writeSpec(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "spec.json")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestParseFile(t *testing.T) {
	dir := t.TempDir()
	path := writeSpec(t, dir, sampleSpec)

	spec, err := ParseFile(path)
	if err != nil {
		t.Fatalf("ParseFile() error: %v", err)
	}

	if spec.SourceLocale.LocaleID != "en" {
		t.Errorf("SourceLocale = %+v", spec.SourceLocale)
	}
	if len(spec.Locales) != 2 || len(spec.Files) != 2 {
		t.Fatalf("got %d locales, %d files", len(spec.Locales), len(spec.Files))
	}
	if spec.Comment != "Marketing copy" {
		t.Errorf("Comment = %q", spec.Comment)
	}
	if !spec.Files[1].SkipTranslation {
		t.Error("legal.txt should have skipTranslation")
	}
}

func TestParseFile_RejectsUnknownFields(t *testing.T) {
	dir := t.TempDir()
	path := writeSpec(t, dir, `{
  "sourceLocale": { "localeId": "en" },
  "locales": [],
  "files": [],
  "outputs": []
}`)
	if _, err := ParseFile(path); err == nil {
		t.Fatal("ParseFile() succeeded on unknown field, want error")
	}
}

func TestParseFile_LocaleValidation(t *testing.T) {
	dir := t.TempDir()

	path := writeSpec(t, dir, `{"sourceLocale": {}, "locales": [], "files": []}`)
	if _, err := ParseFile(path); !errors.Is(err, ErrFailedToParseLocale) {
		t.Errorf("missing source localeId: err = %v, want ErrFailedToParseLocale", err)
	}

	path = writeSpec(t, dir, `{
  "sourceLocale": { "localeId": "en" },
  "locales": [ { "folderName": "x" } ],
  "files": []
}`)
	if _, err := ParseFile(path); !errors.Is(err, ErrFailedToParseLocale) {
		t.Errorf("missing target localeId: err = %v, want ErrFailedToParseLocale", err)
	}
}

func TestFolderDefault(t *testing.T) {
	if got := (FileLocale{LocaleID: "fr"}).Folder(); got != "fr" {
		t.Errorf("Folder() = %q, want fr", got)
	}
	if got := (FileLocale{LocaleID: "zh-Hans", FolderName: "zh"}).Folder(); got != "zh" {
		t.Errorf("Folder() = %q, want zh", got)
	}
}

func TestResolvePath(t *testing.T) {
	dir := t.TempDir()
	path := writeSpec(t, dir, sampleSpec)
	spec, err := ParseFile(path)
	if err != nil {
		t.Fatalf("ParseFile() error: %v", err)
	}

	got := spec.ResolvePath(spec.Files[0], spec.Locales[1])
	want := filepath.Join(dir, "zh", "app.txt")
	if got != want {
		t.Errorf("ResolvePath() = %q, want %q", got, want)
	}

	if got := spec.SourcePath(spec.Files[0]); got != filepath.Join(dir, "en", "app.txt") {
		t.Errorf("SourcePath() = %q", got)
	}
}

func TestCheckSourceFiles(t *testing.T) {
	dir := t.TempDir()
	path := writeSpec(t, dir, sampleSpec)
	spec, err := ParseFile(path)
	if err != nil {
		t.Fatalf("ParseFile() error: %v", err)
	}

	err = spec.CheckSourceFiles()
	if !errors.Is(err, ErrFileNotFound) {
		t.Fatalf("err = %v, want ErrFileNotFound", err)
	}
	if !strings.Contains(err.Error(), filepath.Join("en", "app.txt")) {
		t.Errorf("error does not name the missing file: %v", err)
	}

	// Create the sources; the check passes.
	for _, name := range []string{"app.txt", "legal.txt"} {
		if err := os.MkdirAll(filepath.Join(dir, "en"), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(filepath.Join(dir, "en", name), []byte("X"), 0644); err != nil {
			t.Fatal(err)
		}
	}
	if err := spec.CheckSourceFiles(); err != nil {
		t.Errorf("CheckSourceFiles() after creating sources: %v", err)
	}
}
