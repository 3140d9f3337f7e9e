package analysis

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

type correction struct {
	pattern     *regexp.Regexp
	replacement string
}

// ocrCorrections lists common OCR misreads of prescription vocabulary.
// No replacement is itself a key, so applying the table twice is a no-op.
var ocrCorrections = buildCorrections([][2]string{
	{"rng", "mg"},
	{"rnl", "ml"},
	{"n19", "mg"},
	{"tahlet", "tablet"},
	{"tahlets", "tablets"},
	{"capsul", "capsule"},
	{"capsuls", "capsules"},
	{"syrap", "syrup"},
	{"moming", "morning"},
	{"evemng", "evening"},
	{"nigth", "night"},
	{"daly", "daily"},
	{"tim", "time"},
	{"tims", "times"},
	{"befre", "before"},
	{"afer", "after"},
	{"dosag", "dosage"},
	{"instrction", "instruction"},
	{"medicin", "medicine"},
	{"prescriptin", "prescription"},
	{"paracetamal", "paracetamol"},
	{"amoxicilin", "amoxicillin"},
	{"ibuprofn", "ibuprofen"},
	{"asprin", "aspirin"},
	{"omeprazol", "omeprazole"},
	{"loratadin", "loratadine"},
	{"cetirizin", "cetirizine"},
	{"prednisolon", "prednisolone"},
	{"levothyroxin", "levothyroxine"},
	{"hydrochlorothiazid", "hydrochlorothiazide"},
})

var whitespaceRun = regexp.MustCompile(`\s+`)

func buildCorrections(pairs [][2]string) []correction {
	out := make([]correction, 0, len(pairs))
	for _, p := range pairs {
		out = append(out, correction{
			pattern:     regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(p[0]) + `\b`),
			replacement: p[1],
		})
	}
	return out
}

// CorrectOCRText normalizes raw OCR output: NFC composition, the misread
// table applied as whole-word case-insensitive substitutions, and whitespace
// folding. A whitespace run containing a line break becomes a single "\n",
// any other run a single space.
func CorrectOCRText(raw string) string {
	if raw == "" {
		return ""
	}

	text := norm.NFC.String(raw)
	for _, c := range ocrCorrections {
		text = c.pattern.ReplaceAllLiteralString(text, c.replacement)
	}

	text = whitespaceRun.ReplaceAllStringFunc(text, func(run string) string {
		if strings.Contains(run, "\n") {
			return "\n"
		}
		return " "
	})

	return strings.TrimSpace(text)
}
