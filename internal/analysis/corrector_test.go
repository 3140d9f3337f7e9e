package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCorrectOCRText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "empty", in: "", want: ""},
		{name: "misreads", in: "Paracetamal 500 rng tahlet daly", want: "paracetamol 500 mg tablet daily"},
		{name: "whole words only", in: "timing tim", want: "timing time"},
		{name: "horizontal whitespace", in: "  Napa   500mg \t Tab  ", want: "Napa 500mg Tab"},
		{name: "line breaks kept once", in: "Napa 500 mg\n\n\n  Tab BD\r\nFexo", want: "Napa 500 mg\nTab BD\nFexo"},
		{name: "bengali untouched", in: "১৪ দিন  পর", want: "১৪ দিন পর"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CorrectOCRText(tt.in))
		})
	}
}

func TestCorrectOCRTextIdempotent(t *testing.T) {
	inputs := []string{
		"",
		"   ",
		"Rx: Paracetamal 500 rng tahlet, 1+0+1 daly after food",
		"WN 1 ug Tab ... 14din\n\nNapa 500 rng Tab BD 5 days",
		"tim tims TIM Tims capsul capsuls",
		"Name: Karim   Age: 45\t\tDate: 01/01/2024",
		"ঢাকা মেডিকেল কলেজ\n\n চা Tab ২ বার",
	}

	for _, in := range inputs {
		once := CorrectOCRText(in)
		assert.Equal(t, once, CorrectOCRText(once), "input %q", in)
	}
}
