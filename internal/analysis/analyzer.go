// Package analysis turns OCR text of a prescription into structured
// medication, patient and test information and renders the Bengali report.
package analysis

import (
	"github.com/medilens/medilens-api/internal/corpus"
	"github.com/rs/zerolog"
)

// MedicalInfo is everything extracted from one prescription.
type MedicalInfo struct {
	Patient     Patient      `json:"patient"`
	Medications []Medication `json:"medications"`
	Tests       []Test       `json:"tests"`
	Hospital    Hospital     `json:"hospital"`
	FollowUp    string       `json:"follow_up,omitempty"`
}

// Analyzer runs the extraction pipeline against a fixed corpus. It holds no
// mutable state and is safe for concurrent use.
type Analyzer struct {
	corpus *corpus.Corpus
	rules  []Rule
	logger zerolog.Logger
}

type Option func(*Analyzer)

func WithLogger(logger zerolog.Logger) Option {
	return func(a *Analyzer) {
		a.logger = logger
	}
}

// WithRules replaces the special-case rules tried before generic extraction.
func WithRules(rules ...Rule) Option {
	return func(a *Analyzer) {
		a.rules = rules
	}
}

// NewAnalyzer creates an analyzer. A nil corpus behaves as an empty one.
func NewAnalyzer(c *corpus.Corpus, opts ...Option) *Analyzer {
	if c == nil {
		c = corpus.Empty()
	}
	a := &Analyzer{
		corpus: c,
		rules:  LegacyRules(),
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *Analyzer) Corpus() *corpus.Corpus {
	return a.corpus
}

// ExtractMedicalInfo extracts patient, medication, test and hospital details
// from already corrected text.
func (a *Analyzer) ExtractMedicalInfo(text string) MedicalInfo {
	return MedicalInfo{
		Patient:     ExtractPatientInfo(text),
		Medications: a.ExtractMedications(text),
		Tests:       ExtractTests(text),
		Hospital:    ExtractHospitalInfo(text),
		FollowUp:    ExtractFollowUp(text),
	}
}

// ExtractMedications resolves every pattern and line candidate and drops
// duplicates, keeping first-seen order. An empty result is replaced by a
// single record saying no medication could be identified.
func (a *Analyzer) ExtractMedications(text string) []Medication {
	candidates := ExtractMedicinePatterns(text)
	regexCount := len(candidates)
	candidates = append(candidates, LineCandidates(text)...)

	var resolved []Medication
	for _, c := range candidates {
		if m := a.ProcessMedicineCandidate(c, text); m != nil {
			resolved = append(resolved, *m)
		}
	}
	meds := dedupeMedications(resolved)

	a.logger.Debug().
		Int("pattern_candidates", regexCount).
		Int("line_candidates", len(candidates)-regexCount).
		Int("resolved", len(resolved)).
		Int("medications", len(meds)).
		Msg("Extracted medications")

	if len(meds) == 0 {
		return []Medication{unidentifiedMedication()}
	}
	return meds
}

// GenerateMedicalAnalysis corrects raw OCR text and builds the report. It
// never fails; anything it cannot resolve is rendered as a placeholder.
func (a *Analyzer) GenerateMedicalAnalysis(ocrText string) Report {
	return NewReport(a.ExtractMedicalInfo(CorrectOCRText(ocrText)))
}
