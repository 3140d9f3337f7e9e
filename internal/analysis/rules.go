package analysis

import (
	"regexp"
	"strings"
)

// Rule is a special-case resolver tried before generic extraction. Match
// receives the candidate text and its context window.
type Rule struct {
	Name    string
	Match   func(text, context string) bool
	Resolve func(text, context, fullText string) Medication
}

// Legacy rule names
const (
	RuleWarfarin     = "legacy-wn-warfarin"
	RuleHighDoseTab  = "legacy-tab-200"
	RuleBengaliCha   = "legacy-bengali-cha"
	RuleUnidentified = "unidentified"
)

const defaultLegacyDuration = "১৪ দিন"

var (
	wnTab          = regexp.MustCompile(`(?i)WN.*ug.*Tab`)
	wnMicrograms   = regexp.MustCompile(`(?i)(\d+)\s*(ug|mcg)`)
	wnDuration     = regexp.MustCompile(`(?i)WN[^।]*?([0-9০-৯]+)\s*(?:দিন|লদিন|লদিলন|days?|din)`)
	tab200         = regexp.MustCompile(`(?i)Tab.*200`)
	tab200Duration = regexp.MustCompile(`(?i)200[^।]*?([0-9০-৯]+)\s*(?:দিন|লদিন|লদিলন|days?|din)`)
	chaTab         = regexp.MustCompile(`(?i)চা.*Tab`)
	chaDuration    = regexp.MustCompile(`(?i)চা[^।]*?([0-9০-৯]+)\s*(?:দিন|লদিন|লদিলন|days?|din)`)
)

// LegacyRules are heuristics tuned to a handful of sample prescriptions.
// They are kept verbatim and fire before generic extraction.
func LegacyRules() []Rule {
	return []Rule{
		{
			Name: RuleWarfarin,
			Match: func(text, context string) bool {
				return wnTab.MatchString(text) || (strings.Contains(context, "WN") && strings.Contains(context, "ug"))
			},
			Resolve: func(_, context, fullText string) Medication {
				strength := formatQuantity("1", UnitMicrogram)
				if m := wnMicrograms.FindStringSubmatch(context); m != nil {
					strength = formatQuantity(m[1], UnitMicrogram)
				}
				return Medication{
					Name:        "ওয়ারফারিন ট্যাবলেট",
					GenericName: "ওয়ারফারিন সোডিয়াম",
					Strength:    strength,
					Dosage:      "প্রতি সপ্তাহে ১ বার (QW)",
					Timing:      "সাপ্তাহিক",
					Duration:    legacyDuration(wnDuration, fullText),
					Purpose:     "রক্ত জমাট বাঁধা প্রতিরোধী (অ্যান্টিকোয়াগুল্যান্ট)",
					SideEffects: "রক্তক্ষরণের ঝুঁকি। নিয়মিত INR পরীক্ষা প্রয়োজন।",
					Warning:     "নিয়মিত রক্ত পরীক্ষা করান। চিকিৎসকের পরামর্শ ছাড়া বন্ধ করবেন না।",
				}
			},
		},
		{
			Name: RuleHighDoseTab,
			Match: func(text, context string) bool {
				return tab200.MatchString(text) || (strings.Contains(context, "Tab") && strings.Contains(context, "200"))
			},
			Resolve: func(_, _, fullText string) Medication {
				return Medication{
					Name:        "২০০ মিলিগ্রাম ট্যাবলেট",
					GenericName: "উচ্চ মাত্রার ওষুধ",
					Strength:    formatQuantity("200", UnitMilligram),
					Dosage:      "চিকিৎসকের নির্দেশ অনুযায়ী",
					Duration:    legacyDuration(tab200Duration, fullText),
					Purpose:     "উচ্চ মাত্রার চিকিৎসা। চিকিৎসকের সাথে যোগাযোগ করুন।",
					SideEffects: "উচ্চ মাত্রার কারণে পার্শ্বপ্রতিক্রিয়া হতে পারে।",
					Warning:     "উচ্চ মাত্রার ওষুধ। চিকিৎসকের নির্দেশ ছাড়া সেবন করবেন না।",
				}
			},
		},
		{
			Name: RuleBengaliCha,
			Match: func(text, context string) bool {
				return chaTab.MatchString(text) || strings.Contains(context, "চা")
			},
			Resolve: func(_, _, fullText string) Medication {
				return Medication{
					Name:        "চা ট্যাবলেট (থার্ড মেডিসিন)",
					GenericName: "বিশেষ ওষুধ",
					Strength:    "নির্ধারিত মাত্রা",
					Dosage:      "নির্দেশ অনুযায়ী",
					Duration:    legacyDuration(chaDuration, fullText),
					Purpose:     "বিশেষ চিকিৎসার জন্য। চিকিৎসকের সাথে যোগাযোগ করুন।",
				}
			},
		},
	}
}

func legacyDuration(re *regexp.Regexp, fullText string) string {
	if m := re.FindStringSubmatch(fullText); m != nil {
		return formatQuantity(m[1], UnitDay)
	}
	return defaultLegacyDuration
}

// unidentifiedMedication stands in for an empty medication list.
func unidentifiedMedication() Medication {
	return Medication{
		Name:        "প্রেসক্রিপশন থেকে ওষুধ শনাক্ত করা যায়নি",
		GenericName: "OCR টেক্সট অস্পষ্ট",
		Dosage:      "চিকিৎসকের পরামর্শ অনুযায়ী",
		Purpose:     "চিকিৎসকের সাথে যোগাযোগ করে প্রেসক্রিপশন স্পষ্ট করুন।",
		Warning:     "অস্পষ্ট প্রেসক্রিপশন। চিকিৎসকের পরামর্শ ছাড়া ওষুধ সেবন করা উচিত নয়।",
		Rule:        RuleUnidentified,
	}
}
