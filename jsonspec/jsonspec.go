// Package jsonspec implements the JSON fan-out specification: a declarative
// file that maps whole source files onto a tree of target-locale folders.
//
// The expected file format is:
//
//	{
//	    "sourceLocale": { "localeId": "en" },
//	    "comment": "Marketing copy for the website",
//	    "locales": [
//	        { "localeId": "fr" },
//	        { "localeId": "zh-Hans", "folderName": "zh" }
//	    ],
//	    "files": [
//	        { "fileUrl": "{locale}/app.txt" },
//	        { "fileUrl": "{locale}/legal.txt", "skipTranslation": true }
//	    ]
//	}
//
// File URLs are resolved relative to the specification's directory with the
// literal substring {locale} replaced by the locale's folder name. Fields
// outside this schema are rejected.
package jsonspec

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Extension is the file extension of fan-out specifications (without dot).
const Extension = "json"

// localePlaceholder is the substring of fileUrl replaced per target locale.
const localePlaceholder = "{locale}"

// ErrFileNotFound is returned by the pre-flight check when a resolved source
// file is missing.
var ErrFileNotFound = errors.New("file not found")

// ErrFailedToParseLocale is returned when a locale entry is malformed.
var ErrFailedToParseLocale = errors.New("failed to parse locale")

// FileLocale names one locale and the folder its files live in.
type FileLocale struct {
	LocaleID   string `json:"localeId"`
	FolderName string `json:"folderName,omitempty"`
}

// Folder returns the folder name, defaulting to the locale id.
func (l FileLocale) Folder() string {
	if l.FolderName != "" {
		return l.FolderName
	}
	return l.LocaleID
}

// FileSpec describes one templated file of the specification.
type FileSpec struct {
	FileURL         string `json:"fileUrl"`
	Comment         string `json:"comment,omitempty"`
	SkipTranslation bool   `json:"skipTranslation,omitempty"`
}

// Specification is a parsed fan-out specification.
type Specification struct {
	SourceLocale FileLocale   `json:"sourceLocale"`
	Comment      string       `json:"comment,omitempty"`
	Locales      []FileLocale `json:"locales"`
	Files        []FileSpec   `json:"files"`

	// dir is the directory of the specification file; file URLs resolve
	// relative to it.
	dir string
}

// ParseFile reads, parses, and validates a specification file.
func ParseFile(path string) (*Specification, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	var spec Specification
	if err := dec.Decode(&spec); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	if err := spec.validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	spec.dir = filepath.Dir(path)
	return &spec, nil
}

func (s *Specification) validate() error {
	if s.SourceLocale.LocaleID == "" {
		return fmt.Errorf("%w: sourceLocale has no localeId", ErrFailedToParseLocale)
	}
	for i, l := range s.Locales {
		if l.LocaleID == "" {
			return fmt.Errorf("%w: locale #%d has no localeId", ErrFailedToParseLocale, i+1)
		}
	}
	for i, f := range s.Files {
		if f.FileURL == "" {
			return fmt.Errorf("file #%d has no fileUrl", i+1)
		}
	}
	return nil
}

// ResolvePath resolves a file's path for one locale: {locale} is replaced by
// the locale's folder name and the result is joined to the spec directory.
func (s *Specification) ResolvePath(f FileSpec, locale FileLocale) string {
	rel := strings.ReplaceAll(f.FileURL, localePlaceholder, locale.Folder())
	return filepath.Join(s.dir, rel)
}

// SourcePath resolves a file's path in the source locale.
func (s *Specification) SourcePath(f FileSpec) string {
	return s.ResolvePath(f, s.SourceLocale)
}

// CheckSourceFiles verifies that every source-resolved file exists. The
// whole run aborts before any translation when one is missing.
func (s *Specification) CheckSourceFiles() error {
	for _, f := range s.Files {
		path := s.SourcePath(f)
		if _, err := os.Stat(path); err != nil {
			return fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
	}
	return nil
}
