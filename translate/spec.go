package translate

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/minios-linux/xckit/jsonspec"
)

// TranslateSpecification runs the JSON fan-out driver on one specification
// file: every (file × target locale) pair is resolved by {locale}
// substitution and the whole file contents are translated (or copied
// verbatim for skip-translation files) into the locale's folder tree.
//
// All source files are checked before any translation begins; a missing one
// aborts the run. The driver is serial; a single whole-file call per output
// dwarfs any scheduling gain. The returned count is always 0 — per-string
// counting is not meaningful in this mode.
func TranslateSpecification(ctx context.Context, path string, opts Options) (int, error) {
	spec, err := jsonspec.ParseFile(path)
	if err != nil {
		return 0, err
	}
	if err := spec.CheckSourceFiles(); err != nil {
		return 0, err
	}

	only := make(map[string]bool, len(opts.OnlyFiles))
	for _, name := range opts.OnlyFiles {
		only[name] = true
	}

	filter := make(map[string]bool, len(opts.TargetLanguages))
	for _, lang := range opts.TargetLanguages {
		filter[lang] = true
	}

	for _, file := range spec.Files {
		if len(only) > 0 && !only[filepath.Base(file.FileURL)] {
			continue
		}

		srcPath := spec.SourcePath(file)
		data, err := os.ReadFile(srcPath)
		if err != nil {
			return 0, fmt.Errorf("%w: %s", jsonspec.ErrFileNotFound, srcPath)
		}
		content := string(data)

		for _, locale := range spec.Locales {
			if err := ctx.Err(); err != nil {
				return 0, err
			}
			if len(filter) > 0 && !filter[locale.LocaleID] {
				continue
			}

			outPath := spec.ResolvePath(file, locale)
			if _, err := os.Stat(outPath); err == nil && !opts.Overwrite {
				opts.log("%s: exists, skipping (use --overwrite to replace)", outPath)
				continue
			}

			output := content
			if !file.SkipTranslation {
				output, err = translateFileContents(ctx, content, spec, file, locale, opts)
				if err != nil {
					if ctx.Err() != nil {
						return 0, ctx.Err()
					}
					opts.logError("%s [%s]: %v", filepath.Base(file.FileURL), locale.LocaleID, err)
					continue
				}
			}

			if err := os.MkdirAll(filepath.Dir(outPath), 0755); err != nil {
				opts.logError("failed to save translation: %s: %v", outPath, err)
				continue
			}
			if err := os.WriteFile(outPath, []byte(output), 0644); err != nil {
				opts.logError("failed to save translation: %s: %v", outPath, err)
				continue
			}
			opts.log("wrote %s", outPath)
		}
	}

	return 0, nil
}

// translateFileContents sends one whole file through the provider, retrying
// once like the per-string path.
func translateFileContents(ctx context.Context, content string, spec *jsonspec.Specification, file jsonspec.FileSpec, locale jsonspec.FileLocale, opts Options) (string, error) {
	req := Request{
		Text:           content,
		SourceLanguage: spec.SourceLocale.LocaleID,
		TargetLanguage: locale.LocaleID,
		Comment:        joinComments(spec.Comment, file.Comment),
	}

	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		out, err := opts.Provider.Translate(ctx, req)
		if err != nil {
			lastErr = err
			continue
		}
		if out == "" {
			lastErr = ErrNoTranslationReturned
			continue
		}
		return out, nil
	}
	return "", lastErr
}

func joinComments(comments ...string) string {
	var parts []string
	for _, c := range comments {
		if c != "" {
			parts = append(parts, c)
		}
	}
	return strings.Join(parts, "; ")
}
