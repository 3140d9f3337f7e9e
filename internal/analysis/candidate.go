package analysis

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// Candidate sources
const (
	SourceRegex = "regex"
	SourceLine  = "line"
)

const contextRadius = 50

// Candidate is a span of OCR text that may describe one medicine.
type Candidate struct {
	FullMatch string
	Groups    []string
	// Index is the byte offset of FullMatch in the scanned text.
	Index   int
	Context string
	Pattern string
	Source  string
}

type medicinePattern struct {
	name string
	re   *regexp.Regexp
}

// medicinePatterns are tried in order and may overlap; duplicates are
// removed after resolution.
var medicinePatterns = []medicinePattern{
	{"name-dose-form", regexp.MustCompile(`(?i)([A-Za-z]+(?:[ \t]+[A-Za-z]+)*)\s+(\d+(?:\.\d+)?)\s*(mg|ug|mcg|ml|g)\s*(tab|tablet|cap|capsule|syrup|injection)`)},
	{"wn-dose-tab", regexp.MustCompile(`(?i)WN\s+(\d+)\s*(ug|mg|mcg)\s*Tab`)},
	{"brand-dose", regexp.MustCompile(`(?i)([A-Z][a-z]+(?:[A-Z][a-z]+)*)\s+(\d+(?:\.\d+)?)\s*(mg|ug|mcg)`)},
	{"dose-name-form", regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*(mg|ug|mcg|ml|g)\s+([A-Za-z]+(?:[ \t]+[A-Za-z]+)*)\s*(tab|tablet|cap|capsule)`)},
	{"name-tab", regexp.MustCompile(`(?i)([A-Za-z]{3,}(?:[ \t]+[A-Za-z]+)*)\s+Tab`)},
	{"bengali-tab", regexp.MustCompile(`(?i)(চা|পূ|ডা)\s*Tab`)},
	{"tab-number", regexp.MustCompile(`(?i)Tab[.\s]*(\d{2,3})`)},
	{"form-quantity", regexp.MustCompile(`(?i)(tab|tablet|cap|capsule)[.\s]*(\d+)`)},
}

// ExtractMedicinePatterns returns one candidate per match of every medicine
// pattern, each with a window of up to 50 characters on both sides.
func ExtractMedicinePatterns(text string) []Candidate {
	var candidates []Candidate
	for _, p := range medicinePatterns {
		for _, loc := range p.re.FindAllStringSubmatchIndex(text, -1) {
			groups := make([]string, 0, len(loc)/2-1)
			for g := 2; g < len(loc); g += 2 {
				if loc[g] < 0 {
					groups = append(groups, "")
					continue
				}
				groups = append(groups, text[loc[g]:loc[g+1]])
			}
			candidates = append(candidates, Candidate{
				FullMatch: text[loc[0]:loc[1]],
				Groups:    groups,
				Index:     loc[0],
				Context:   window(text, loc[0], loc[1], contextRadius),
				Pattern:   p.name,
				Source:    SourceRegex,
			})
		}
	}
	return candidates
}

// Segment is a line-like piece of the text.
type Segment struct {
	Text   string
	Offset int
}

var (
	lineBreaks = regexp.MustCompile(`[\n\r]+`)

	// Fallback split points for text that arrived as a single line.
	segmentSplitters = []*regexp.Regexp{
		regexp.MustCompile(`\b[A-Z][a-z]+\s+\d+\s*(?:mg|ug|mcg)`),
		regexp.MustCompile(`(?i)\btab\b`),
		regexp.MustCompile(`(?i)\bcap\b`),
		regexp.MustCompile(`\d+\s*(?:mg|ug|mcg)`),
	}

	dosageKeyword = regexp.MustCompile(`(?i)tab|tablet|cap|capsule|mg|ml|ug|mcg|syrup|injection`)
)

const minSegmentLength = 10

// SegmentText splits text at line breaks. Single-line text is additionally
// cut before medicine indicators; a split is kept only when it produces more
// pieces than have been collected so far.
func SegmentText(text string) []Segment {
	segments := splitAt(text, lineBreaks.FindAllStringIndex(text, -1), true)
	if len(segments) != 1 {
		return segments
	}

	for _, re := range segmentSplitters {
		var starts [][]int
		for _, loc := range re.FindAllStringIndex(text, -1) {
			starts = append(starts, []int{loc[0], loc[0]})
		}

		var pieces []Segment
		for _, s := range splitAt(text, starts, false) {
			if utf8.RuneCountInString(strings.TrimSpace(s.Text)) > minSegmentLength {
				pieces = append(pieces, s)
			}
		}
		if len(pieces) > len(segments) {
			segments = append(segments, pieces...)
		}
	}

	return segments
}

// splitAt cuts text around the given [start, end) separators. A separator at
// offset zero yields no leading empty piece unless keepEmpty is set.
func splitAt(text string, seps [][]int, keepEmpty bool) []Segment {
	var out []Segment
	prev := 0
	for _, sep := range seps {
		if sep[0] == 0 && sep[1] == 0 {
			continue
		}
		if keepEmpty || sep[0] > prev {
			out = append(out, Segment{Text: text[prev:sep[0]], Offset: prev})
		}
		prev = sep[1]
	}
	return append(out, Segment{Text: text[prev:], Offset: prev})
}

// LineCandidates turns every segment that mentions a dosage or form keyword
// into a candidate.
func LineCandidates(text string) []Candidate {
	var candidates []Candidate
	for _, seg := range SegmentText(text) {
		if !dosageKeyword.MatchString(seg.Text) {
			continue
		}
		trimmed := strings.TrimSpace(seg.Text)
		offset := seg.Offset + strings.Index(seg.Text, trimmed)
		candidates = append(candidates, Candidate{
			FullMatch: trimmed,
			Groups:    []string{trimmed},
			Index:     offset,
			Pattern:   "line",
			Source:    SourceLine,
		})
	}
	return candidates
}

// window returns text[start:end] widened by up to radius runes on each side.
func window(text string, start, end, radius int) string {
	lo := start
	for i := 0; i < radius && lo > 0; i++ {
		_, size := utf8.DecodeLastRuneInString(text[:lo])
		lo -= size
	}
	hi := end
	for i := 0; i < radius && hi < len(text); i++ {
		_, size := utf8.DecodeRuneInString(text[hi:])
		hi += size
	}
	return text[lo:hi]
}

// after returns up to n runes following end, cut at the first line break
// when sameLine is set.
func after(text string, end, n int, sameLine bool) string {
	if end >= len(text) {
		return ""
	}
	rest := text[end:]
	if sameLine {
		if i := strings.IndexAny(rest, "\n\r"); i >= 0 {
			rest = rest[:i]
		}
	}
	hi := 0
	for i := 0; i < n && hi < len(rest); i++ {
		_, size := utf8.DecodeRuneInString(rest[hi:])
		hi += size
	}
	return rest[:hi]
}
