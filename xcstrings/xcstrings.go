// Package xcstrings implements reading and writing of Xcode string catalog
// (.xcstrings) files.
//
// The expected file format is:
//
//	{
//	    "sourceLanguage": "en",
//	    "strings": {
//	        "Hello": {
//	            "comment": "Greeting shown on launch",
//	            "localizations": {
//	                "fr": { "stringUnit": { "state": "translated", "value": "Bonjour" } }
//	            }
//	        }
//	    },
//	    "version": "1.0"
//	}
//
// Keys are the source strings (or developer-assigned identifiers). The
// parser keeps the original key order and any fields it does not understand,
// so a load/write cycle reproduces the document.
package xcstrings

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// Extension is the file extension of string catalogs (without dot).
const Extension = "xcstrings"

// Translation states of a single localized string.
const (
	StateNew         = "new"
	StateTranslated  = "translated"
	StateNeedsReview = "needs_review"
	StateStale       = "stale"
)

// Catalog is a parsed string catalog.
type Catalog struct {
	// SourceLanguage is the language of the untranslated master strings.
	SourceLanguage string
	// targetLanguages are the languages this catalog is translated into,
	// derived from the file contents or replaced by an override at load time.
	targetLanguages []string

	doc     *object // full document, order and unknown fields preserved
	strings *object // the "strings" object inside doc
}

// ParseFile reads and parses a string catalog file.
func ParseFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return c, nil
}

// Load reads a catalog and optionally replaces its target-language set.
// With a non-empty override, localizations for languages outside the
// override are discarded and languages missing from the file start out
// untranslated.
func Load(path string, targetLanguages []string) (*Catalog, error) {
	c, err := ParseFile(path)
	if err != nil {
		return nil, err
	}
	if len(targetLanguages) > 0 {
		c.SetTargetLanguages(targetLanguages)
	}
	return c, nil
}

// Parse parses string catalog data.
func Parse(data []byte) (*Catalog, error) {
	doc, err := decodeDocument(data)
	if err != nil {
		return nil, err
	}

	strs, err := doc.objectAt("strings")
	if err != nil {
		return nil, err
	}

	c := &Catalog{
		SourceLanguage: doc.stringAt("sourceLanguage"),
		doc:            doc,
		strings:        strs,
	}
	c.targetLanguages = c.languagesFromContents()
	return c, nil
}

// languagesFromContents collects every language that appears in a
// localizations block, except the source language, sorted for stable output.
func (c *Catalog) languagesFromContents() []string {
	seen := make(map[string]bool)
	var langs []string
	for _, key := range c.strings.keys {
		group := c.groupObject(key)
		if group == nil {
			continue
		}
		locs, ok := group.get("localizations")
		if !ok || locs.kind != kindObject {
			continue
		}
		for _, lang := range locs.obj.keys {
			if lang == c.SourceLanguage || seen[lang] {
				continue
			}
			seen[lang] = true
			langs = append(langs, lang)
		}
	}
	sort.Strings(langs)
	return langs
}

// TargetLanguages returns the languages this catalog is translated into.
func (c *Catalog) TargetLanguages() []string {
	out := make([]string, len(c.targetLanguages))
	copy(out, c.targetLanguages)
	return out
}

// SetTargetLanguages replaces the target-language set. Localizations for
// dropped languages are removed from every group; added languages need no
// document change, they simply report state "new" until translated.
func (c *Catalog) SetTargetLanguages(langs []string) {
	keep := make(map[string]bool, len(langs)+1)
	for _, l := range langs {
		keep[l] = true
	}
	keep[c.SourceLanguage] = true

	for _, key := range c.strings.keys {
		group := c.groupObject(key)
		if group == nil {
			continue
		}
		locs, ok := group.get("localizations")
		if !ok || locs.kind != kindObject {
			continue
		}
		var drop []string
		for _, lang := range locs.obj.keys {
			if !keep[lang] {
				drop = append(drop, lang)
			}
		}
		for _, lang := range drop {
			locs.obj.delete(lang)
		}
	}

	c.targetLanguages = make([]string, len(langs))
	copy(c.targetLanguages, langs)
	sort.Strings(c.targetLanguages)
}

// Keys returns the group keys in their original file order.
func (c *Catalog) Keys() []string {
	out := make([]string, len(c.strings.keys))
	copy(out, c.strings.keys)
	return out
}

// groupObject returns the object for a key, or nil when the key is unknown
// or malformed.
func (c *Catalog) groupObject(key string) *object {
	n, ok := c.strings.get(key)
	if !ok || n.kind != kindObject {
		return nil
	}
	return n.obj
}

// Comment returns the translator comment of a group, or "".
func (c *Catalog) Comment(key string) string {
	group := c.groupObject(key)
	if group == nil {
		return ""
	}
	return group.stringAt("comment")
}

// SourceValue returns the text of a key in the source language. When the
// group carries an explicit source-language localization its value wins,
// otherwise the key itself is the source text.
func (c *Catalog) SourceValue(key string) string {
	if v := c.unitValue(key, c.SourceLanguage); v != "" {
		return v
	}
	return key
}

// LocalizableStringsCount is the number of localizable strings across all
// groups: one per group per language (targets plus source).
func (c *Catalog) LocalizableStringsCount() int {
	return len(c.strings.keys) * (len(c.targetLanguages) + 1)
}

// ---------------------------------------------------------------------------
// Per-string view and state machine
// ---------------------------------------------------------------------------

// LocalizableString is one (key, target language) pair of the catalog. It is
// a live view: state changes write through to the catalog document.
type LocalizableString struct {
	Key            string
	SourceValue    string
	SourceLanguage string
	TargetLanguage string

	cat *Catalog
}

// Strings returns one LocalizableString per language of a group: the source
// language first, then every target language.
func (c *Catalog) Strings(key string) []*LocalizableString {
	langs := append([]string{c.SourceLanguage}, c.targetLanguages...)
	out := make([]*LocalizableString, 0, len(langs))
	for _, lang := range langs {
		out = append(out, c.String(key, lang))
	}
	return out
}

// String returns the localizable string of a group for one language.
func (c *Catalog) String(key, lang string) *LocalizableString {
	return &LocalizableString{
		Key:            key,
		SourceValue:    c.SourceValue(key),
		SourceLanguage: c.SourceLanguage,
		TargetLanguage: lang,
		cat:            c,
	}
}

// State returns the translation state. The source-language row is always
// translated; a target language with no localization entry is new.
func (s *LocalizableString) State() string {
	if s.TargetLanguage == s.cat.SourceLanguage {
		return StateTranslated
	}
	state := s.cat.unitState(s.Key, s.TargetLanguage)
	if state == "" {
		return StateNew
	}
	return state
}

// TranslatedValue returns the stored translation, or "" when untranslated.
// The source-language row reports the source value.
func (s *LocalizableString) TranslatedValue() string {
	if s.TargetLanguage == s.cat.SourceLanguage {
		return s.SourceValue
	}
	return s.cat.unitValue(s.Key, s.TargetLanguage)
}

// SetTranslation stores a translation and moves the string to translated.
func (s *LocalizableString) SetTranslation(value string) error {
	unit, err := s.cat.ensureUnit(s.Key, s.TargetLanguage)
	if err != nil {
		return err
	}
	unit.set("state", stringNode(StateTranslated))
	unit.set("value", stringNode(value))
	return nil
}

// SetNeedsReview marks a translated string as needing review.
func (s *LocalizableString) SetNeedsReview() error {
	unit, err := s.cat.ensureUnit(s.Key, s.TargetLanguage)
	if err != nil {
		return err
	}
	unit.set("state", stringNode(StateNeedsReview))
	return nil
}

// SetTranslated marks a needs-review string as translated again (the
// reviewer approved the stored value).
func (s *LocalizableString) SetTranslated() error {
	unit, err := s.cat.ensureUnit(s.Key, s.TargetLanguage)
	if err != nil {
		return err
	}
	unit.set("state", stringNode(StateTranslated))
	return nil
}

// unitObject returns the stringUnit object for (key, lang), or nil.
func (c *Catalog) unitObject(key, lang string) *object {
	group := c.groupObject(key)
	if group == nil {
		return nil
	}
	locs, ok := group.get("localizations")
	if !ok || locs.kind != kindObject {
		return nil
	}
	loc, ok := locs.obj.get(lang)
	if !ok || loc.kind != kindObject {
		return nil
	}
	unit, ok := loc.obj.get("stringUnit")
	if !ok || unit.kind != kindObject {
		return nil
	}
	return unit.obj
}

func (c *Catalog) unitState(key, lang string) string {
	if unit := c.unitObject(key, lang); unit != nil {
		return unit.stringAt("state")
	}
	return ""
}

func (c *Catalog) unitValue(key, lang string) string {
	if unit := c.unitObject(key, lang); unit != nil {
		return unit.stringAt("value")
	}
	return ""
}

// ensureUnit returns the stringUnit object for (key, lang), creating the
// localizations/lang/stringUnit path as needed. Sibling fields (variations,
// substitutions, anything unknown) are left untouched.
func (c *Catalog) ensureUnit(key, lang string) (*object, error) {
	group := c.groupObject(key)
	if group == nil {
		return nil, fmt.Errorf("unknown catalog key %q", key)
	}
	locs, err := group.objectAt("localizations")
	if err != nil {
		return nil, fmt.Errorf("key %q: %w", key, err)
	}
	loc, err := locs.objectAt(lang)
	if err != nil {
		return nil, fmt.Errorf("key %q, language %s: %w", key, lang, err)
	}
	unit, err := loc.objectAt("stringUnit")
	if err != nil {
		return nil, fmt.Errorf("key %q, language %s: %w", key, lang, err)
	}
	return unit, nil
}

// ---------------------------------------------------------------------------
// Writing
// ---------------------------------------------------------------------------

// Marshal serializes the catalog, preserving key order and unknown fields.
func (c *Catalog) Marshal() []byte {
	return encodeDocument(c.doc)
}

// WriteFile atomically rewrites the catalog at path: the document is written
// to a temporary file in the same directory and renamed over the target, so
// a crash mid-write leaves the previous snapshot intact.
func (c *Catalog) WriteFile(path string) error {
	data := c.Marshal()

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("writing %s: %w", tmpPath, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing %s: %w", tmpPath, err)
	}
	if err := os.Chmod(tmpPath, 0644); err != nil {
		os.Remove(tmpPath)
		return err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("replacing %s: %w", path, err)
	}
	return nil
}
