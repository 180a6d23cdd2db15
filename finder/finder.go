// Package finder enumerates translatable files at a path: Xcode string
// catalogs (.xcstrings) and JSON fan-out specifications (.json).
package finder

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/minios-linux/xckit/jsonspec"
	"github.com/minios-linux/xckit/xcstrings"
)

// FileType identifies what kind of translatable file a path holds.
type FileType string

const (
	// StringCatalog is an Xcode .xcstrings string catalog.
	StringCatalog FileType = "stringCatalog"
	// JSONSpecification is a JSON file describing whole-file fan-out.
	JSONSpecification FileType = "jsonSpecification"
)

// ErrUnhandledFileType is returned when a path's extension matches no known
// translatable file type.
var ErrUnhandledFileType = errors.New("unhandled file type")

// ErrCouldNotSearchDirectory wraps filesystem errors hit while walking a
// directory tree.
var ErrCouldNotSearchDirectory = errors.New("could not search directory")

// extension returns the file extension (with dot) for a type.
func (t FileType) extension() string {
	switch t {
	case JSONSpecification:
		return "." + jsonspec.Extension
	default:
		return "." + xcstrings.Extension
	}
}

// DetectType infers the file type of a path from its extension. A path with
// no extension (a directory, typically, including "." and "..") defaults to a
// string catalog.
func DetectType(path string) (FileType, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case "." + xcstrings.Extension, "", ".":
		return StringCatalog, nil
	case "." + jsonspec.Extension:
		return JSONSpecification, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnhandledFileType, path)
	}
}

// Find enumerates the translatable files of the given type at path.
//
// A regular file is returned as-is when its extension matches. A directory
// is walked depth-first, skipping hidden entries, and every matching
// descendant is collected. A missing path or a search with no matches yields
// an empty result, not an error — the caller decides whether to warn.
func Find(path string, typ FileType) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %s: %v", ErrCouldNotSearchDirectory, path, err)
	}

	ext := typ.extension()

	if !info.IsDir() {
		fileExt := strings.ToLower(filepath.Ext(path))
		if fileExt == ext || (fileExt == "" && typ == StringCatalog) {
			return []string{path}, nil
		}
		return nil, nil
	}

	var found []string
	err = filepath.WalkDir(path, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		name := d.Name()
		if p != path && strings.HasPrefix(name, ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if strings.ToLower(filepath.Ext(name)) == ext {
			found = append(found, p)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCouldNotSearchDirectory, path, err)
	}
	return found, nil
}
