package corpus

import (
	"fmt"
	"strings"
)

// MedicineInfo describes a medicine resolved from a brand keyword or the corpus.
// Name and GenericName are only set for brand matches.
type MedicineInfo struct {
	Name        string
	GenericName string
	Type        string
	Definition  string
	Source      string
}

// Lookup sources
const (
	SourceBrand      = "medicine_database"
	SourceIndex      = "training_data"
	SourceCorpusScan = "training_data_search"
)

type brand struct {
	keyword string
	name    string
	generic string
	class   string
}

// brands maps OCR-friendly keywords of local brands to the active ingredient,
// checked in order as substrings of the lowercased candidate name.
var brands = []brand{
	{"fexo", "Fexofenadine", "Fexofenadine HCl", "antihistamine"},
	{"docopa", "Levodopa", "Levodopa + Carbidopa", "antiparkinson"},
	{"trilock", "Clopidogrel", "Clopidogrel Bisulfate", "antiplatelet"},
	{"napa", "Paracetamol", "Acetaminophen", "analgesic"},
	{"ace", "Paracetamol", "Acetaminophen", "analgesic"},
	{"sergel", "Sertraline", "Sertraline HCl", "antidepressant"},
}

var medicineMarkers = []string{"drug", "medicine", "tablet", "treatment"}

// IdentifyMedicine resolves a medicine name through the brand table, the term
// index and finally a scan of the raw examples. It returns nil when nothing
// matches.
func (c *Corpus) IdentifyMedicine(name string) *MedicineInfo {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil
	}
	lower := strings.ToLower(name)

	for _, b := range brands {
		if strings.Contains(lower, b.keyword) {
			return &MedicineInfo{
				Name:        b.name,
				GenericName: b.generic,
				Type:        b.class,
				Definition:  fmt.Sprintf("%s is a %s medication. Generic name: %s", b.name, b.class, b.generic),
				Source:      SourceBrand,
			}
		}
	}

	for _, term := range searchTerms(name) {
		if def, ok := c.index.terms[term]; ok {
			return &MedicineInfo{Definition: def, Source: SourceIndex}
		}
		if out, ok := c.scan(term); ok {
			return &MedicineInfo{Definition: out, Source: SourceCorpusScan}
		}
	}

	return nil
}

// searchTerms lists the lowercased full name, the name without spaces, the
// first word and then every word, without repeats.
func searchTerms(name string) []string {
	words := strings.Fields(strings.ToLower(name))
	candidates := append([]string{strings.Join(words, " "), strings.Join(words, "")}, words...)

	seen := make(map[string]bool, len(candidates))
	terms := make([]string, 0, len(candidates))
	for _, t := range candidates {
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		terms = append(terms, t)
	}
	return terms
}

func (c *Corpus) scan(term string) (string, bool) {
	for _, ex := range c.examples {
		if ex.TextInput == "" || ex.TextOutput == "" {
			continue
		}
		input := strings.ToLower(ex.TextInput)
		output := strings.ToLower(ex.TextOutput)
		if !strings.Contains(input, term) && !strings.Contains(output, term) {
			continue
		}
		for _, marker := range medicineMarkers {
			if strings.Contains(output, marker) {
				return ex.TextOutput, true
			}
		}
	}
	return "", false
}

// Lookup is the result of a term query against the index.
type Lookup struct {
	Term       string `json:"term"`
	Definition string `json:"definition,omitempty"`
	Category   string `json:"category,omitempty"`
}

// LookupTerm returns the definition and category recorded for term.
func (c *Corpus) LookupTerm(term string) (Lookup, bool) {
	term = strings.TrimSpace(term)
	res := Lookup{Term: term}
	def, hasDef := c.index.Definition(term)
	cat, hasCat := c.index.Category(term)
	res.Definition = def
	res.Category = cat
	return res, hasDef || hasCat
}
