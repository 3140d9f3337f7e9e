package analysis

import "regexp"

// Test is an investigation ordered on the prescription.
type Test struct {
	Name        string `json:"name"`
	BanglaName  string `json:"bangla_name"`
	Description string `json:"description"`
	Reason      string `json:"reason,omitempty"`
	Preparation string `json:"preparation,omitempty"`
}

type testEntry struct {
	re   *regexp.Regexp
	test Test
}

var testCatalog = []testEntry{
	{regexp.MustCompile(`(?i)CXR`), Test{
		Name:        "CXR PA",
		BanglaName:  "ছাতি এক্স-রে (পি.এ)",
		Description: "একটি ধরণের এক্স-রে যা ছাতির পিছন থেকে সামনের দিকে তোলা হয়।",
	}},
	{regexp.MustCompile(`\bCBC\b`), Test{
		Name:        "CBC",
		BanglaName:  "সম্পূর্ণ রক্ত গণনা",
		Description: "রক্তের লোহিত কণিকা, শ্বেত কণিকা ও অণুচক্রিকার পরিমাণ মাপার পরীক্ষা।",
	}},
	{regexp.MustCompile(`\b(?:ECG|EKG)\b`), Test{
		Name:        "ECG",
		BanglaName:  "ইসিজি",
		Description: "হৃদস্পন্দনের বৈদ্যুতিক সংকেত রেকর্ড করার পরীক্ষা।",
	}},
	{regexp.MustCompile(`\bRBS\b`), Test{
		Name:        "RBS",
		BanglaName:  "রক্তের শর্করা (র‍্যান্ডম)",
		Description: "যেকোনো সময়ে রক্তে গ্লুকোজের মাত্রা মাপার পরীক্ষা।",
	}},
	{regexp.MustCompile(`\bFBS\b`), Test{
		Name:        "FBS",
		BanglaName:  "খালি পেটে রক্তের শর্করা",
		Description: "রাতভর না খেয়ে থাকার পর রক্তে গ্লুকোজের মাত্রা মাপার পরীক্ষা।",
		Preparation: "পরীক্ষার আগে ৮-১০ ঘণ্টা কিছু খাবেন না।",
	}},
	{regexp.MustCompile(`(?i)\bS\.?\s*Creatinine\b`), Test{
		Name:        "S. Creatinine",
		BanglaName:  "সিরাম ক্রিয়েটিনিন",
		Description: "কিডনির কার্যক্ষমতা বোঝার জন্য রক্তে ক্রিয়েটিনিনের মাত্রা মাপার পরীক্ষা।",
	}},
	{regexp.MustCompile(`(?i)\bUrine\s*R/?E\b`), Test{
		Name:        "Urine R/E",
		BanglaName:  "প্রস্রাবের রুটিন পরীক্ষা",
		Description: "প্রস্রাবে সংক্রমণ, প্রোটিন বা শর্করা আছে কিনা দেখার পরীক্ষা।",
	}},
}

// ExtractTests returns the catalogued investigations mentioned in text.
func ExtractTests(text string) []Test {
	var tests []Test
	for _, e := range testCatalog {
		if e.re.MatchString(text) {
			tests = append(tests, e.test)
		}
	}
	return tests
}
