package analysis

import (
	"regexp"
	"strings"
)

// Patient holds the demographic fields printed on a prescription.
type Patient struct {
	Name   string `json:"name,omitempty"`
	Age    string `json:"age,omitempty"`
	Date   string `json:"date,omitempty"`
	ID     string `json:"id,omitempty"`
	Gender string `json:"gender,omitempty"`
	Doctor string `json:"doctor,omitempty"`
}

type Hospital struct {
	Name    string `json:"name,omitempty"`
	Address string `json:"address,omitempty"`
}

var (
	patientName   = regexp.MustCompile(`(?i)Name\s*:\s*([A-Za-z\s]+)`)
	patientAge    = regexp.MustCompile(`(?i)Age\s*:\s*(\d+)`)
	patientAgeY   = regexp.MustCompile(`(?i)\b(\d{1,3})\s*(?:Y|Yrs?|Years?)\b`)
	patientDate   = regexp.MustCompile(`(?i)Date\s*:\s*([0-9/\-.]+)`)
	patientID     = regexp.MustCompile(`(?i)ID:\s*(\d+)`)
	patientGender = regexp.MustCompile(`(?i)\b(?:Sex|Gender)\s*:\s*(Male|Female|M|F)\b`)
	doctorName    = regexp.MustCompile(`\bDr\.?\s+([A-Z][A-Za-z.]*(?:[ \t]+[A-Z][A-Za-z.]*)*)`)
)

// labelWords are field labels the name pattern may run into.
var labelWords = map[string]bool{
	"age": true, "date": true, "sex": true, "gender": true, "id": true,
	"dr": true, "mobile": true, "phone": true, "address": true, "reg": true,
}

// ExtractPatientInfo reads the labelled patient fields from text.
func ExtractPatientInfo(text string) Patient {
	var p Patient

	if m := patientName.FindStringSubmatch(text); m != nil {
		p.Name = trimLabels(m[1])
	}
	if m := patientAge.FindStringSubmatch(text); m != nil {
		p.Age = m[1] + " " + UnitYear
	} else if m := patientAgeY.FindStringSubmatch(text); m != nil {
		p.Age = m[1] + " " + UnitYear
	}
	if m := patientDate.FindStringSubmatch(text); m != nil {
		p.Date = strings.TrimRight(m[1], ".-")
	}
	if m := patientID.FindStringSubmatch(text); m != nil {
		p.ID = m[1]
	}
	if m := patientGender.FindStringSubmatch(text); m != nil {
		switch strings.ToUpper(m[1][:1]) {
		case "M":
			p.Gender = "পুরুষ"
		case "F":
			p.Gender = "মহিলা"
		}
	}
	if m := doctorName.FindStringSubmatch(text); m != nil {
		p.Doctor = "Dr. " + strings.TrimSpace(m[1])
	}

	return p
}

// trimLabels drops trailing label words swallowed by the name pattern, so
// "Karim Age" becomes "Karim".
func trimLabels(name string) string {
	words := strings.Fields(name)
	for len(words) > 0 && labelWords[strings.ToLower(words[len(words)-1])] {
		words = words[:len(words)-1]
	}
	return strings.Join(words, " ")
}

// ExtractHospitalInfo recognises Dhaka Medical College Hospital.
func ExtractHospitalInfo(text string) Hospital {
	if strings.Contains(text, "ঢাকা মেডিকেল") || strings.Contains(text, "Medical College") {
		return Hospital{
			Name:    "ঢাকা মেডিকেল কলেজ হাসপাতাল",
			Address: "সচিবালয় রোড, শাহবাগ, ঢাকা-১০০০",
		}
	}
	return Hospital{}
}

var followUpPattern = regexp.MustCompile(`(?i)(?:follow[\s-]*up|F/U|review)\D{0,12}?([0-9০-৯]+)\s*(days?|weeks?|months?|দিন|সপ্তাহ|মাস)`)

// ExtractFollowUp reads a "follow up after N days" style instruction.
func ExtractFollowUp(text string) string {
	m := followUpPattern.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	unit := UnitDay
	switch u := strings.ToLower(m[2]); {
	case strings.HasPrefix(u, "week"), u == "সপ্তাহ":
		unit = "সপ্তাহ"
	case strings.HasPrefix(u, "month"), u == "মাস":
		unit = "মাস"
	}
	return formatQuantity(m[1], unit) + " পর"
}
