// Package corpus loads the medical term training corpus and indexes it for
// lookups by term, description and category.
package corpus

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
)

// ErrNotFound is returned by Load when none of the candidate paths exist.
var ErrNotFound = errors.New("training data file not found in any expected location")

// TrainingExample is one question/answer pair of the corpus.
type TrainingExample struct {
	TextInput  string `json:"text_input"`
	TextOutput string `json:"text_output"`
}

var (
	defineTerm     = regexp.MustCompile(`(?i)Define the medical term: (.+)`)
	matchTerm      = regexp.MustCompile(`(?i)What medical term matches this description: (.+)`)
	categoryOfTerm = regexp.MustCompile(`(?i)What category is the medical term '(.+)' in\?`)
)

// Index maps lowercased keys extracted from the corpus prompts to answers.
// It is never mutated after NewIndex returns.
type Index struct {
	terms       map[string]string
	definitions map[string]string
	categories  map[string]string
}

// NewIndex builds an index over examples. Examples whose input matches none
// of the known prompt shapes are skipped.
func NewIndex(examples []TrainingExample) *Index {
	idx := &Index{
		terms:       make(map[string]string),
		definitions: make(map[string]string),
		categories:  make(map[string]string),
	}

	for _, ex := range examples {
		if ex.TextInput == "" || ex.TextOutput == "" {
			continue
		}
		if m := defineTerm.FindStringSubmatch(ex.TextInput); m != nil {
			idx.terms[strings.ToLower(m[1])] = ex.TextOutput
		}
		if m := matchTerm.FindStringSubmatch(ex.TextInput); m != nil {
			idx.definitions[strings.ToLower(m[1])] = ex.TextOutput
		}
		if m := categoryOfTerm.FindStringSubmatch(ex.TextInput); m != nil {
			idx.categories[strings.ToLower(m[1])] = ex.TextOutput
		}
	}

	return idx
}

// Definition returns the definition recorded for term.
func (i *Index) Definition(term string) (string, bool) {
	v, ok := i.terms[strings.ToLower(term)]
	return v, ok
}

// Term returns the term whose description matches.
func (i *Index) Term(description string) (string, bool) {
	v, ok := i.definitions[strings.ToLower(description)]
	return v, ok
}

// Category returns the category recorded for term.
func (i *Index) Category(term string) (string, bool) {
	v, ok := i.categories[strings.ToLower(term)]
	return v, ok
}

// Stats reports the index sizes.
type Stats struct {
	Examples    int    `json:"examples"`
	Terms       int    `json:"terms"`
	Definitions int    `json:"definitions"`
	Categories  int    `json:"categories"`
	Source      string `json:"source,omitempty"`
}

// Corpus is a loaded set of training examples with its index.
type Corpus struct {
	examples []TrainingExample
	index    *Index
	source   string
}

// New wraps examples in a Corpus.
func New(examples []TrainingExample) *Corpus {
	return &Corpus{
		examples: examples,
		index:    NewIndex(examples),
	}
}

// Empty returns a usable corpus with no examples.
func Empty() *Corpus {
	return New([]TrainingExample{})
}

// Load reads the first existing file among paths. On failure it returns the
// error together with an empty corpus, so callers may keep going.
func Load(paths ...string) (*Corpus, error) {
	for _, path := range paths {
		if path == "" {
			continue
		}
		raw, err := os.ReadFile(path)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return Empty(), fmt.Errorf("failed to read training data %s: %w", path, err)
		}

		var examples []TrainingExample
		if err := json.Unmarshal(raw, &examples); err != nil {
			return Empty(), fmt.Errorf("failed to parse training data %s: %w", path, err)
		}
		if examples == nil {
			examples = []TrainingExample{}
		}

		c := New(examples)
		c.source = path
		return c, nil
	}

	return Empty(), ErrNotFound
}

// Examples returns the raw examples. The slice must not be modified.
func (c *Corpus) Examples() []TrainingExample {
	return c.examples
}

// Index returns the term index.
func (c *Corpus) Index() *Index {
	return c.index
}

// Len returns the number of examples.
func (c *Corpus) Len() int {
	return len(c.examples)
}

// Source returns the file the corpus was read from, if any.
func (c *Corpus) Source() string {
	return c.source
}

func (c *Corpus) Stats() Stats {
	return Stats{
		Examples:    len(c.examples),
		Terms:       len(c.index.terms),
		Definitions: len(c.index.definitions),
		Categories:  len(c.index.categories),
		Source:      c.source,
	}
}
