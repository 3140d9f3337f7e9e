package analysis

// Medication is one resolved prescription line. An empty field is unresolved;
// display placeholders are substituted only when a Report is encoded.
type Medication struct {
	Name        string `json:"name,omitempty"`
	GenericName string `json:"generic_name,omitempty"`
	Strength    string `json:"strength,omitempty"`
	Dosage      string `json:"dosage,omitempty"`
	Timing      string `json:"timing,omitempty"`
	Duration    string `json:"duration,omitempty"`
	Purpose     string `json:"purpose,omitempty"`
	SideEffects string `json:"side_effects,omitempty"`
	Warning     string `json:"warning,omitempty"`
	// Rule names the special-case rule that produced the record, if any.
	Rule string `json:"rule,omitempty"`
}

// duplicates reports whether m repeats an earlier medication: same name, or
// same resolved strength.
func (m Medication) duplicates(other Medication) bool {
	if m.Name == other.Name {
		return true
	}
	return m.Strength != "" && m.Strength == other.Strength
}

// dedupeMedications keeps the first occurrence of every medication.
func dedupeMedications(meds []Medication) []Medication {
	out := make([]Medication, 0, len(meds))
next:
	for _, m := range meds {
		for _, seen := range out {
			if m.duplicates(seen) {
				continue next
			}
		}
		out = append(out, m)
	}
	return out
}
