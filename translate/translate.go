// Package translate implements AI-powered bulk translation of Xcode string
// catalogs and JSON fan-out specifications, plus re-evaluation of catalog
// entries marked needs-review.
//
// The engine dispatches one provider call per untranslated string through a
// bounded worker pool. Results are linted, applied to the in-memory catalog
// under a per-catalog mutex, and persisted after every successful mutation,
// so the file on disk is a valid checkpoint at all times.
package translate

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/minios-linux/xckit/lint"
	"github.com/minios-linux/xckit/xcstrings"
)

// MassTranslationThreshold is the entry count above which the translator
// asks for confirmation before spending provider calls.
const MassTranslationThreshold = 200

// ErrCanceled is returned when the user declines the mass-translation
// confirmation. The caller exits cleanly without treating it as a failure.
var ErrCanceled = errors.New("translation canceled")

// ErrTranslationFailedLinting marks a provider response that dropped format
// specifiers, placeholders, or whitespace. It is retryable like a transport
// error.
var ErrTranslationFailedLinting = errors.New("translation failed linting")

// Options controls translation and review behavior.
type Options struct {
	// Provider is the translation service.
	Provider Provider
	// TargetLanguages overrides the catalog's target languages (translate)
	// or filters the reviewed languages (review). Empty means every language
	// already present in the file.
	TargetLanguages []string
	// MaxConcurrent bounds in-flight provider calls (default 10).
	MaxConcurrent int
	// Overwrite writes results to the input path instead of a .loc sibling.
	Overwrite bool
	// SetNeedsReviewAfterTranslating marks fresh translations for review.
	SetNeedsReviewAfterTranslating bool
	// SkipConfirmation suppresses the mass-translation prompt.
	SkipConfirmation bool
	// Confirm asks the user before a mass translation; returning false
	// cancels the run. Nil proceeds without asking.
	Confirm func(entries int) bool
	// OnlyFiles filters the JSON-spec driver to these basenames.
	OnlyFiles []string
	// Verbose enables detailed logging, including lint rejections.
	Verbose bool
	// OnLog emits log messages during translation.
	OnLog func(format string, args ...any)
	// OnError emits error messages during translation.
	OnError func(format string, args ...any)
	// OnProgress is called after each completed entry.
	OnProgress func(lang string, done, total int)
}

func (o *Options) log(format string, args ...any) {
	if o.OnLog != nil {
		o.OnLog(format, args...)
	}
}

func (o *Options) logError(format string, args ...any) {
	if o.OnError != nil {
		o.OnError(format, args...)
	} else if o.OnLog != nil {
		o.OnLog(format, args...)
	}
}

func (o *Options) effectiveMaxConcurrent() int {
	if o.MaxConcurrent > 0 {
		return o.MaxConcurrent
	}
	return DefaultMaxConcurrent
}

// TargetPath returns where a translated catalog is written: the input path
// when overwriting, else a .loc sibling (f.xcstrings -> f.loc.xcstrings).
func TargetPath(path string, overwrite bool) string {
	if overwrite {
		return path
	}
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + ".loc" + ext
}

// ---------------------------------------------------------------------------
// Catalog translation
// ---------------------------------------------------------------------------

// catalogTask is one (key, target language) entry the pool works on. The
// comment and stored value are captured at collection time, so the task body
// reads the shared catalog only under the mutation lock.
type catalogTask struct {
	str     *xcstrings.LocalizableString
	comment string
	value   string
}

// PendingEntries loads a catalog and reports how many entries a translate
// run would process. Used by dry runs.
func PendingEntries(path string, targetLanguages []string) (int, error) {
	cat, err := xcstrings.Load(path, targetLanguages)
	if err != nil {
		return 0, err
	}
	return len(collectCatalogTasks(cat)), nil
}

// collectCatalogTasks gathers every localizable string that still needs a
// translation: target language differs from the source and the state is not
// translated (new, needs_review, and stale all qualify).
func collectCatalogTasks(cat *xcstrings.Catalog) []catalogTask {
	var tasks []catalogTask
	for _, key := range cat.Keys() {
		for _, lang := range cat.TargetLanguages() {
			if lang == cat.SourceLanguage {
				continue
			}
			s := cat.String(key, lang)
			if s.State() != xcstrings.StateTranslated {
				tasks = append(tasks, catalogTask{str: s, comment: cat.Comment(key)})
			}
		}
	}
	return tasks
}

// TranslateCatalog translates every pending entry of one catalog file and
// returns the count of newly translated entries.
//
// Per-entry provider or lint failures are retried once, then logged and
// skipped; they never abort the file. The catalog is persisted to the
// target path after every successful mutation.
func TranslateCatalog(ctx context.Context, path string, opts Options) (int, error) {
	cat, err := xcstrings.Load(path, opts.TargetLanguages)
	if err != nil {
		return 0, err
	}

	// Mass-translation confirmation happens before any provider call.
	size := len(cat.Keys()) * len(cat.TargetLanguages())
	if size > MassTranslationThreshold && !opts.SkipConfirmation && opts.Confirm != nil {
		if !opts.Confirm(size) {
			return 0, ErrCanceled
		}
	}

	tasks := collectCatalogTasks(cat)
	if len(tasks) == 0 {
		return 0, nil
	}

	dst := TargetPath(path, opts.Overwrite)
	total := len(tasks)

	var mu sync.Mutex // guards cat and the persist that follows a mutation
	var translated int64
	var done int64

	err = runPool(ctx, tasks, opts.effectiveMaxConcurrent(), func(ctx context.Context, task catalogTask) error {
		s := task.str

		value, err := translateEntry(ctx, s, task.comment, opts)
		if err != nil {
			if ctx.Err() != nil {
				return nil // cancelled, not a per-entry failure
			}
			opts.logError("%s [%s]: %v", shorten(s.Key), s.TargetLanguage, err)
			return nil // skip this entry, keep the rest of the file going
		}

		mu.Lock()
		defer mu.Unlock()

		if ctx.Err() != nil {
			return nil // do not persist partial state after cancellation
		}

		if err := s.SetTranslation(value); err != nil {
			opts.logError("%s [%s]: %v", shorten(s.Key), s.TargetLanguage, err)
			return nil
		}
		if opts.SetNeedsReviewAfterTranslating {
			if err := s.SetNeedsReview(); err != nil {
				opts.logError("%s [%s]: %v", shorten(s.Key), s.TargetLanguage, err)
				return nil
			}
		}
		atomic.AddInt64(&translated, 1)

		if err := cat.WriteFile(dst); err != nil {
			// The in-memory catalog is ahead of the disk snapshot; a later
			// persist catches it up.
			opts.logError("failed to save translation to %s: %v", dst, err)
		}

		if opts.OnProgress != nil {
			opts.OnProgress(s.TargetLanguage, int(atomic.AddInt64(&done, 1)), total)
		}
		return nil
	})

	return int(atomic.LoadInt64(&translated)), err
}

// translateEntry calls the provider for one entry, linting the result.
// A provider error, empty response, or lint failure is retried once.
func translateEntry(ctx context.Context, s *xcstrings.LocalizableString, comment string, opts Options) (string, error) {
	req := Request{
		Text:           s.SourceValue,
		SourceLanguage: s.SourceLanguage,
		TargetLanguage: s.TargetLanguage,
		Comment:        comment,
	}

	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		value, err := opts.Provider.Translate(ctx, req)
		if err != nil {
			lastErr = err
			continue
		}
		if value == "" {
			lastErr = ErrNoTranslationReturned
			continue
		}
		if !lint.Lint(req.Text, req.SourceLanguage, value, req.TargetLanguage) {
			if opts.Verbose {
				opts.log("lint rejected %q -> %q", shorten(req.Text), shorten(value))
			}
			lastErr = fmt.Errorf("%w: %q", ErrTranslationFailedLinting, shorten(value))
			continue
		}
		return value, nil
	}
	return "", lastErr
}

// ---------------------------------------------------------------------------
// Catalog review
// ---------------------------------------------------------------------------

// EvaluateCatalog re-evaluates entries of one catalog marked needs-review
// and flips approved entries back to translated. It returns the count of
// entries processed, approved or not.
//
// The provider must implement QualityEvaluator; otherwise the run fails
// before any work. The catalog is persisted after every completed task
// regardless of verdict.
func EvaluateCatalog(ctx context.Context, path string, opts Options) (int, error) {
	evaluator, ok := opts.Provider.(QualityEvaluator)
	if !ok {
		return 0, ErrEvaluationNotSupported
	}

	// Languages act as a filter here, not an override: entries outside the
	// filter keep their translations and their needs-review state.
	cat, err := xcstrings.Load(path, nil)
	if err != nil {
		return 0, err
	}

	filter := make(map[string]bool, len(opts.TargetLanguages))
	for _, lang := range opts.TargetLanguages {
		filter[lang] = true
	}

	var tasks []catalogTask
	for _, key := range cat.Keys() {
		for _, lang := range cat.TargetLanguages() {
			if len(filter) > 0 && !filter[lang] {
				continue
			}
			s := cat.String(key, lang)
			if s.State() == xcstrings.StateNeedsReview && s.TranslatedValue() != "" {
				tasks = append(tasks, catalogTask{
					str:     s,
					comment: cat.Comment(key),
					value:   s.TranslatedValue(),
				})
			}
		}
	}
	if len(tasks) == 0 {
		return 0, nil
	}

	dst := TargetPath(path, opts.Overwrite)
	total := len(tasks)

	var mu sync.Mutex
	var processed int64

	err = runPool(ctx, tasks, opts.effectiveMaxConcurrent(), func(ctx context.Context, task catalogTask) error {
		s := task.str

		eval, err := evaluateEntry(ctx, evaluator, s, task.value, task.comment)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			opts.logError("%s [%s]: %v", shorten(s.Key), s.TargetLanguage, err)
			return nil
		}

		mu.Lock()
		defer mu.Unlock()

		if ctx.Err() != nil {
			return nil
		}

		switch eval.Quality {
		case QualityGood:
			if err := s.SetTranslated(); err != nil {
				opts.logError("%s [%s]: %v", shorten(s.Key), s.TargetLanguage, err)
				return nil
			}
		case QualityPoor:
			// State stays needs_review; the verdict is only logged.
			opts.log("%s [%s]: kept needs-review: %s", shorten(s.Key), s.TargetLanguage, eval.Explanation)
		}

		n := atomic.AddInt64(&processed, 1)

		if err := cat.WriteFile(dst); err != nil {
			opts.logError("failed to save catalog to %s: %v", dst, err)
		}

		if opts.OnProgress != nil {
			opts.OnProgress(s.TargetLanguage, int(n), total)
		}
		return nil
	})

	return int(atomic.LoadInt64(&processed)), err
}

// evaluateEntry calls the evaluator for one entry, retrying once on
// transport failure.
func evaluateEntry(ctx context.Context, evaluator QualityEvaluator, s *xcstrings.LocalizableString, value, comment string) (Evaluation, error) {
	req := EvaluationRequest{
		Source:      s.SourceValue,
		Translation: value,
		Language:    s.TargetLanguage,
		Comment:     comment,
	}

	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		if err := ctx.Err(); err != nil {
			return Evaluation{}, err
		}
		eval, err := evaluator.EvaluateQuality(ctx, req)
		if err == nil {
			return eval, nil
		}
		lastErr = err
	}
	return Evaluation{}, lastErr
}

// shorten trims long strings for one-line log output.
func shorten(s string) string {
	s = strings.ReplaceAll(s, "\n", `\n`)
	if len(s) > 60 {
		return s[:60] + "…"
	}
	return s
}
