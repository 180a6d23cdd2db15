package finder

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"testing"
)

func TestDetectType(t *testing.T) {
	tests := []struct {
		path    string
		want    FileType
		wantErr bool
	}{
		{"app.xcstrings", StringCatalog, false},
		{"APP.XCSTRINGS", StringCatalog, false},
		{"spec.json", JSONSpecification, false},
		{"some/dir", StringCatalog, false}, // no extension
		{".", StringCatalog, false},        // current directory
		{"readme.md", "", true},
		{"strings.txt", "", true},
	}
	for _, tc := range tests {
		t.Run(tc.path, func(t *testing.T) {
			got, err := DetectType(tc.path)
			if tc.wantErr {
				if !errors.Is(err, ErrUnhandledFileType) {
					t.Fatalf("err = %v, want ErrUnhandledFileType", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("DetectType() error: %v", err)
			}
			if got != tc.want {
				t.Errorf("DetectType(%s) = %v, want %v", tc.path, got, tc.want)
			}
		})
	}
}

func TestFind_RegularFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "app.xcstrings")
	mustWrite(t, path, "{}")

	got, err := Find(path, StringCatalog)
	if err != nil {
		t.Fatalf("Find() error: %v", err)
	}
	if !reflect.DeepEqual(got, []string{path}) {
		t.Errorf("Find() = %v", got)
	}

	// A file of the wrong type yields nothing.
	got, err = Find(path, JSONSpecification)
	if err != nil {
		t.Fatalf("Find() error: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("Find(wrong type) = %v, want empty", got)
	}
}

func TestFind_Directory(t *testing.T) {
	dir := t.TempDir()
	mustWrite(t, filepath.Join(dir, "a.xcstrings"), "{}")
	mustWrite(t, filepath.Join(dir, "notes.txt"), "x")
	sub := filepath.Join(dir, "sub")
	if err := os.MkdirAll(sub, 0755); err != nil {
		t.Fatal(err)
	}
	mustWrite(t, filepath.Join(sub, "b.xcstrings"), "{}")

	// Hidden entries are skipped, including whole hidden directories.
	hidden := filepath.Join(dir, ".git")
	if err := os.MkdirAll(hidden, 0755); err != nil {
		t.Fatal(err)
	}
	mustWrite(t, filepath.Join(hidden, "c.xcstrings"), "{}")
	mustWrite(t, filepath.Join(dir, ".hidden.xcstrings"), "{}")

	got, err := Find(dir, StringCatalog)
	if err != nil {
		t.Fatalf("Find() error: %v", err)
	}
	sort.Strings(got)
	want := []string{filepath.Join(dir, "a.xcstrings"), filepath.Join(sub, "b.xcstrings")}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Find() = %v, want %v", got, want)
	}
}

func TestFind_Missing(t *testing.T) {
	got, err := Find(filepath.Join(t.TempDir(), "nope"), StringCatalog)
	if err != nil {
		t.Fatalf("Find() error: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("Find(missing) = %v, want empty", got)
	}
}

func mustWrite(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}
