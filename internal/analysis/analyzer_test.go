package analysis

import (
	"testing"

	"github.com/medilens/medilens-api/internal/corpus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAnalyzer() *Analyzer {
	return NewAnalyzer(corpus.New([]corpus.TrainingExample{
		{TextInput: "Define the medical term: Metformin", TextOutput: "An oral drug used for type 2 diabetes (Category: Medicine)"},
	}))
}

func TestExtractMedicationsWarfarinShorthand(t *testing.T) {
	a := newTestAnalyzer()

	meds := a.ExtractMedications(CorrectOCRText("WN 1 ug Tab ... 14din"))

	require.Len(t, meds, 1)
	m := meds[0]
	assert.Equal(t, RuleWarfarin, m.Rule)
	assert.Contains(t, m.Name, "ফারিন")
	assert.Equal(t, "১ মাইক্রোগ্রাম", m.Strength)
	assert.Equal(t, "১৪ দিন", m.Duration)
	assert.Equal(t, "সাপ্তাহিক", m.Timing)
}

func TestExtractMedicationsGeneric(t *testing.T) {
	a := newTestAnalyzer()

	meds := a.ExtractMedications(CorrectOCRText("Napa 500 mg Tab BD 5 days"))

	require.Len(t, meds, 1)
	m := meds[0]
	assert.Empty(t, m.Rule)
	assert.Equal(t, "Paracetamol", m.Name)
	assert.Equal(t, "Acetaminophen", m.GenericName)
	assert.Equal(t, "৫০০ মিলিগ্রাম", m.Strength)
	assert.Equal(t, "দিনে ২ বার", m.Dosage)
	assert.Equal(t, "দৈনিক", m.Timing)
	assert.Equal(t, "৫ দিন", m.Duration)
	assert.Contains(t, m.Purpose, "analgesic")
}

func TestExtractMedicationsDeduplicatesByName(t *testing.T) {
	a := newTestAnalyzer()

	meds := a.ExtractMedications("Napa 500 mg Tab BD\nNapa 665 mg Tab TDS")

	require.Len(t, meds, 1)
	assert.Equal(t, "Paracetamol", meds[0].Name)
	assert.Equal(t, "৫০০ মিলিগ্রাম", meds[0].Strength)
}

func TestExtractMedicationsCorpusPurpose(t *testing.T) {
	a := newTestAnalyzer()

	meds := a.ExtractMedications("Metformin 500 mg Tab 1+0+1 PC")

	require.Len(t, meds, 1)
	m := meds[0]
	assert.Equal(t, "Metformin", m.Name)
	assert.Equal(t, "Metformin", m.GenericName)
	assert.Contains(t, m.Purpose, "type 2 diabetes")
	assert.Equal(t, "দিনে ২ বার (১+০+১)", m.Dosage)
	assert.Equal(t, "সকাল-রাত, খাবারের পরে", m.Timing)
}

func TestExtractMedicationsEmpty(t *testing.T) {
	a := NewAnalyzer(nil)

	meds := a.ExtractMedications("")

	require.Len(t, meds, 1)
	assert.Equal(t, RuleUnidentified, meds[0].Rule)
	assert.Empty(t, meds[0].Strength)
}

func TestProcessMedicineCandidate(t *testing.T) {
	a := newTestAnalyzer()

	tests := []struct {
		name      string
		candidate Candidate
		fullText  string
		wantNil   bool
		wantRule  string
		check     func(t *testing.T, m *Medication)
	}{
		{
			name:      "nothing useful",
			candidate: Candidate{FullMatch: "Tab BD 5 days"},
			fullText:  "Tab BD 5 days",
			wantNil:   true,
		},
		{
			name:      "high dose tablet",
			candidate: Candidate{FullMatch: "Tab 200", Context: "Tab 200 x 7 days"},
			fullText:  "Tab 200 x 7 days",
			wantRule:  RuleHighDoseTab,
			check: func(t *testing.T, m *Medication) {
				assert.Equal(t, "২০০ মিলিগ্রাম", m.Strength)
				assert.Equal(t, "৭ দিন", m.Duration)
				assert.Empty(t, m.Timing)
			},
		},
		{
			name:      "bengali token",
			candidate: Candidate{FullMatch: "চা Tab", Context: "চা Tab ১০ দিন"},
			fullText:  "চা Tab ১০ দিন",
			wantRule:  RuleBengaliCha,
			check: func(t *testing.T, m *Medication) {
				assert.Equal(t, "১০ দিন", m.Duration)
			},
		},
		{
			name:      "warfarin default duration",
			candidate: Candidate{FullMatch: "WN 2 ug Tab", Context: "WN 2 ug Tab QW"},
			fullText:  "WN 2 ug Tab QW",
			wantRule:  RuleWarfarin,
			check: func(t *testing.T, m *Medication) {
				assert.Equal(t, "২ মাইক্রোগ্রাম", m.Strength)
				assert.Equal(t, "১৪ দিন", m.Duration)
			},
		},
		{
			name:      "strength without name",
			candidate: Candidate{FullMatch: "10 ml"},
			fullText:  "10 ml",
			check: func(t *testing.T, m *Medication) {
				assert.Empty(t, m.Name)
				assert.Equal(t, "১০ মিলিলিটার", m.Strength)
			},
		},
		{
			name:      "meal marker kept with line frequency",
			candidate: Candidate{FullMatch: "Zolpa 10 mg AC", Index: 0},
			fullText:  "Zolpa 10 mg AC BD",
			check: func(t *testing.T, m *Medication) {
				assert.Equal(t, "দিনে ২ বার", m.Dosage)
				assert.Equal(t, "দৈনিক, খাবারের আগে", m.Timing)
			},
		},
		{
			name:      "meal marker on both candidate and line",
			candidate: Candidate{FullMatch: "Zolpa 10 mg PC", Index: 0},
			fullText:  "Zolpa 10 mg PC TDS PC",
			check: func(t *testing.T, m *Medication) {
				assert.Equal(t, "দিনে ৩ বার", m.Dosage)
				assert.Equal(t, "দৈনিক, খাবারের পরে", m.Timing)
			},
		},
		{
			name:      "weekly marker in context window",
			candidate: Candidate{FullMatch: "Zolpa 10 mg Tab", Context: "QW\nZolpa 10 mg Tab", Index: 3},
			fullText:  "QW\nZolpa 10 mg Tab",
			check: func(t *testing.T, m *Medication) {
				assert.Equal(t, "প্রতি সপ্তাহে ১ বার", m.Dosage)
				assert.Equal(t, "সাপ্তাহিক", m.Timing)
			},
		},
		{
			name:      "line frequency wins over weekly context",
			candidate: Candidate{FullMatch: "Zolpa 10 mg Tab", Context: "QW\nZolpa 10 mg Tab BD", Index: 3},
			fullText:  "QW\nZolpa 10 mg Tab BD",
			check: func(t *testing.T, m *Medication) {
				assert.Equal(t, "দিনে ২ বার", m.Dosage)
			},
		},
		{
			name:      "unknown name keeps generic empty",
			candidate: Candidate{FullMatch: "Zolpa 10 mg Tab", Index: 0},
			fullText:  "Zolpa 10 mg Tab OD",
			check: func(t *testing.T, m *Medication) {
				assert.Equal(t, "Zolpa", m.Name)
				assert.Empty(t, m.GenericName)
				assert.Equal(t, "দিনে ১ বার", m.Dosage)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := a.ProcessMedicineCandidate(tt.candidate, tt.fullText)
			if tt.wantNil {
				assert.Nil(t, m)
				return
			}
			require.NotNil(t, m)
			assert.Equal(t, tt.wantRule, m.Rule)
			if tt.check != nil {
				tt.check(t, m)
			}
		})
	}
}

func TestWithRules(t *testing.T) {
	a := NewAnalyzer(nil, WithRules())

	m := a.ProcessMedicineCandidate(Candidate{FullMatch: "WN 1 ug Tab"}, "WN 1 ug Tab")

	require.NotNil(t, m)
	assert.Empty(t, m.Rule)
	assert.Equal(t, "১ মাইক্রোগ্রাম", m.Strength)
}

func TestDedupeMedications(t *testing.T) {
	meds := []Medication{
		{Name: "A", Strength: "x"},
		{Name: "B", Strength: "x"},
		{Name: "C"},
		{Name: "D"},
		{Name: "A", Strength: "y"},
	}

	got := dedupeMedications(meds)

	assert.Equal(t, []Medication{{Name: "A", Strength: "x"}, {Name: "C"}, {Name: "D"}}, got)
}

func TestExtractMedicalInfo(t *testing.T) {
	a := newTestAnalyzer()

	info := a.ExtractMedicalInfo("Name: Karim Age: 45 Date: 01/01/2024")

	assert.Equal(t, Patient{Name: "Karim", Age: "45 বছর", Date: "01/01/2024"}, info.Patient)
	assert.Empty(t, info.Tests)
	assert.Equal(t, Hospital{}, info.Hospital)
	require.Len(t, info.Medications, 1)
	assert.Equal(t, RuleUnidentified, info.Medications[0].Rule)
}
