package analysis

import "strings"

var banglaDigits = strings.NewReplacer(
	"0", "০", "1", "১", "2", "২", "3", "৩", "4", "৪",
	"5", "৫", "6", "৬", "7", "৭", "8", "৮", "9", "৯",
)

var asciiDigits = strings.NewReplacer(
	"০", "0", "১", "1", "২", "2", "৩", "3", "৪", "4",
	"৫", "5", "৬", "6", "৭", "7", "৮", "8", "৯", "9",
)

// ToBanglaDigits rewrites ASCII digits as Bengali digits.
func ToBanglaDigits(s string) string {
	return banglaDigits.Replace(s)
}

// ToASCIIDigits rewrites Bengali digits as ASCII digits.
func ToASCIIDigits(s string) string {
	return asciiDigits.Replace(s)
}

// Bengali unit names
const (
	UnitMilligram  = "মিলিগ্রাম"
	UnitMicrogram  = "মাইক্রোগ্রাম"
	UnitMilliliter = "মিলিলিটার"
	UnitGram       = "গ্রাম"
	UnitDay        = "দিন"
	UnitYear       = "বছর"
)

func banglaUnit(unit string) string {
	switch strings.ToLower(unit) {
	case "ug", "mcg", UnitMicrogram:
		return UnitMicrogram
	case "mg", UnitMilligram:
		return UnitMilligram
	case "ml", UnitMilliliter:
		return UnitMilliliter
	case "g", UnitGram:
		return UnitGram
	}
	return UnitMilligram
}

// formatQuantity renders "<n> <unit>" with Bengali digits.
func formatQuantity(n, unit string) string {
	return ToBanglaDigits(ToASCIIDigits(n)) + " " + unit
}
