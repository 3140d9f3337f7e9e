package analysis

import (
	"regexp"
	"strconv"
	"strings"
)

var namePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)([A-Za-z]+)\s+\d+\s*(?:mg|ug|mcg)`),
	regexp.MustCompile(`(?i)([A-Za-z]{3,})\s+(?:tab|tablet|cap|capsule)`),
	regexp.MustCompile(`([A-Z][a-z]+(?:[A-Z][a-z]*)*)`),
	regexp.MustCompile(`([A-Za-z]{3,})`),
}

var strengthPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*(mg|ug|mcg|ml|g)`),
	regexp.MustCompile(`([0-9০-৯]+)\s*(মিলিগ্রাম|মাইক্রোগ্রাম|মিলিলিটার)`),
}

var durationPattern = regexp.MustCompile(`(?i)([0-9০-৯]+)\s*(?:দিন|লদিন|লদিলন|days?|din)`)

type frequency struct {
	re     *regexp.Regexp
	dosage string
	timing string
}

var weekly = frequency{regexp.MustCompile(`(?i)\bQW\b`), "প্রতি সপ্তাহে ১ বার", "সাপ্তাহিক"}

var frequencies = []frequency{
	weekly,
	{regexp.MustCompile(`(?i)\b(?:BD|BID)\b`), "দিনে ২ বার", "দৈনিক"},
	{regexp.MustCompile(`(?i)\b(?:TDS|TID)\b`), "দিনে ৩ বার", "দৈনিক"},
	{regexp.MustCompile(`\bQID\b`), "দিনে ৪ বার", "দৈনিক"},
	{regexp.MustCompile(`\b(?:OD|QD)\b`), "দিনে ১ বার", "দৈনিক"},
	{regexp.MustCompile(`\bHS\b`), "দিনে ১ বার", "রাতে ঘুমানোর আগে"},
}

// schedule matches the "morning+noon+night" dose notation, e.g. 1+0+1.
var schedule = regexp.MustCompile(`\b([0-3])\s*\+\s*([0-3])\s*\+\s*([0-3])\b`)

var schedulePeriods = []string{"সকাল", "দুপুর", "রাত"}

var mealTiming = []frequency{
	{re: regexp.MustCompile(`\bAC\b`), timing: "খাবারের আগে"},
	{re: regexp.MustCompile(`\bPC\b`), timing: "খাবারের পরে"},
}

// ProcessMedicineCandidate resolves one candidate against fullText, the text
// the candidate was extracted from. It returns nil when neither a name nor a
// strength could be found.
func (a *Analyzer) ProcessMedicineCandidate(c Candidate, fullText string) *Medication {
	text := c.FullMatch
	context := c.Context
	if context == "" {
		context = text
	}

	for _, rule := range a.rules {
		if rule.Match(text, context) {
			m := rule.Resolve(text, context, fullText)
			m.Rule = rule.Name
			return &m
		}
	}

	m := &Medication{}
	if name := extractName(text); name != "" {
		m.Name = name
		if info := a.corpus.IdentifyMedicine(name); info != nil {
			m.GenericName = name
			if info.Name != "" {
				m.Name = info.Name
				m.GenericName = info.GenericName
			}
			m.Purpose = info.Definition
		}
	}

	m.Strength = extractStrength(context, text)

	end := c.Index + len(text)
	if end > len(fullText) {
		end = len(fullText)
	}
	m.Duration = firstDuration(
		text,
		after(fullText, end, 100, false),
		windowAround(fullText, c.Index, end, 100),
	)

	// Frequency comes from the candidate, then the rest of its line, then a
	// weekly marker anywhere in the context window. A meal marker found
	// earlier is kept alongside the fallback's timing.
	m.Dosage, m.Timing = resolveFrequency(text)
	if m.Dosage == "" {
		dosage, timing := resolveFrequency(after(fullText, end, contextRadius, true))
		if dosage != "" {
			m.Dosage, m.Timing = dosage, joinTiming(timing, m.Timing)
		} else if m.Timing == "" {
			m.Timing = timing
		}
	}
	if m.Dosage == "" && weekly.re.MatchString(context) {
		m.Dosage, m.Timing = weekly.dosage, joinTiming(weekly.timing, m.Timing)
	}

	if m.Name == "" && m.Strength == "" {
		return nil
	}
	return m
}

func extractName(text string) string {
	for _, re := range namePatterns {
		m := re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		name := strings.TrimSpace(m[1])
		if len(name) > 2 && strings.ToLower(name) != "tab" {
			return name
		}
	}
	return ""
}

func extractStrength(context, text string) string {
	for _, re := range strengthPatterns {
		m := re.FindStringSubmatch(context)
		if m == nil {
			m = re.FindStringSubmatch(text)
		}
		if m != nil {
			return formatQuantity(m[1], banglaUnit(m[2]))
		}
	}
	return ""
}

func firstDuration(sources ...string) string {
	for _, s := range sources {
		if m := durationPattern.FindStringSubmatch(s); m != nil {
			return formatQuantity(m[1], UnitDay)
		}
	}
	return ""
}

// resolveFrequency reads dosing frequency and timing from abbreviation
// tokens or a dose schedule such as 1+0+1.
func resolveFrequency(s string) (dosage, timing string) {
	if s == "" {
		return "", ""
	}

	if m := schedule.FindStringSubmatch(s); m != nil {
		total := 0
		var periods []string
		for i, n := range m[1:] {
			count := int(n[0] - '0')
			if count > 0 {
				total += count
				periods = append(periods, schedulePeriods[i])
			}
		}
		if total > 0 {
			dosage = "দিনে " + ToBanglaDigits(strconv.Itoa(total)) + " বার (" + ToBanglaDigits(m[0]) + ")"
			timing = strings.Join(periods, "-")
		}
	}

	if dosage == "" {
		for _, f := range frequencies {
			if f.re.MatchString(s) {
				dosage, timing = f.dosage, f.timing
				break
			}
		}
	}

	for _, meal := range mealTiming {
		if meal.re.MatchString(s) {
			if timing == "" {
				timing = meal.timing
			} else {
				timing += ", " + meal.timing
			}
			break
		}
	}

	return dosage, timing
}

// joinTiming appends extra to base unless base already carries it.
func joinTiming(base, extra string) string {
	switch {
	case extra == "" || strings.Contains(base, extra):
		return base
	case base == "":
		return extra
	}
	return base + ", " + extra
}

func windowAround(text string, start, end, radius int) string {
	if start < 0 || start > end || end > len(text) {
		return ""
	}
	return window(text, start, end, radius)
}
