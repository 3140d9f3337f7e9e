package analysis

import (
	"bytes"
	"encoding/json"
)

// Display text for unresolved fields
const (
	Placeholder        = "তথ্য পাওয়া যায়নি"
	PlaceholderContact = "তথ্য পাওয়া যায়নি। চিকিৎসকের সাথে যোগাযোগ করুন।"
	PlaceholderWarning = "চিকিৎসকের পরামর্শ ছাড়া ওষুধ সেবন করা উচিত নয়।"
)

// Report is the patient-facing analysis of one prescription. Fields keep
// their resolved values; MarshalJSON renders the Bengali-keyed document with
// placeholders for anything unresolved.
type Report struct {
	Patient     Patient
	Hospital    Hospital
	Medications []Medication
	Tests       []Test
	FollowUp    string
}

// NewReport assembles a report from extracted information.
func NewReport(info MedicalInfo) Report {
	return Report{
		Patient:     info.Patient,
		Hospital:    info.Hospital,
		Medications: info.Medications,
		Tests:       info.Tests,
		FollowUp:    info.FollowUp,
	}
}

// field is one key of an ordered JSON object. encoding/json rejects struct
// tags made of Bengali combining marks, so objects are built by hand.
type field struct {
	Key   string
	Value any
}

type object []field

func (o object) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range o {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(f.Key)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		value, err := json.Marshal(f.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func or(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

func (r Report) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.document())
}

func (r Report) document() object {
	return object{
		{"রোগীর_তথ্য", r.patientSection()},
		{"রোগ_নির্ণয়", diagnosisSection()},
		{"ওষুধের_তালিকা", r.medicationSection()},
		{"পরীক্ষা_নিরীক্ষা", r.testSection()},
		{"চিকিৎসা_পরামর্শ", r.adviceSection()},
		{"জরুরি_তথ্য", []object{{
			{"তথ্য", "অস্পষ্ট প্রেসক্রিপশন"},
			{"কারণ", "ওষুধের নাম, ডোজ, এবং সেবন পদ্ধতি স্পষ্ট নয়।"},
			{"করণীয", "অবিলম্বে চিকিৎসকের সাথে যোগাযোগ করুন।"},
		}}},
		{"চিকিৎসা_পরিভাষা", r.glossarySection()},
	}
}

func (r Report) patientSection() object {
	return object{
		{"শিরোনাম", "রোগীর বিবরণ"},
		{"নাম", or(r.Patient.Name, Placeholder)},
		{"বয়স", or(r.Patient.Age, Placeholder)},
		{"লিঙ্গ", or(r.Patient.Gender, Placeholder)},
		{"তারিখ", or(r.Patient.Date, Placeholder)},
		{"ডাক্তারের_নাম", or(r.Patient.Doctor, Placeholder)},
		{"হাসপাতাল", or(r.Hospital.Name, Placeholder)},
	}
}

func diagnosisSection() object {
	return object{
		{"শিরোনাম", "রোগ নির্ণয় ও লক্ষণ"},
		{"প্রধান_রোগ", []object{{
			{"রোগের_নাম", Placeholder},
			{"বাংলা_নাম", "প্রেসক্রিপশনে রোগের নাম উল্লেখ নেই। চিকিৎসকের সাথে যোগাযোগ করুন।"},
			{"ব্যাখ্যা", "প্রেসক্রিপশন অস্পষ্ট হওয়ায় রোগ নির্ণয় করা সম্ভব হয়নি।"},
			{"গুরুত্ব", "কম গুরুত্ব"},
		}}},
		{"লক্ষণসমূহ", []object{{
			{"লক্ষণ", Placeholder},
			{"বিবরণ", "প্রেসক্রিপশনে কোন লক্ষণ উল্লেখ করা হয়নি।"},
		}}},
	}
}

func (r Report) medicationSection() []object {
	meds := r.Medications
	if len(meds) == 0 {
		meds = []Medication{unidentifiedMedication()}
	}
	out := make([]object, 0, len(meds))
	for _, m := range meds {
		out = append(out, object{
			{"ওষুধের_নাম", or(m.Name, Placeholder)},
			{"জেনেরিক_নাম", or(m.GenericName, Placeholder)},
			{"শক্তি", or(m.Strength, Placeholder)},
			{"সেবনবিধি", or(m.Dosage, Placeholder)},
			{"সময়", or(m.Timing, Placeholder)},
			{"কতদিন", or(m.Duration, Placeholder)},
			{"কাজ", or(m.Purpose, PlaceholderContact)},
			{"পার্শ্বপ্রতিক্রিয়া", or(m.SideEffects, PlaceholderContact)},
			{"সতর্কতা", or(m.Warning, PlaceholderWarning)},
		})
	}
	return out
}

func (r Report) testSection() []object {
	tests := r.Tests
	if len(tests) == 0 {
		tests = []Test{{}}
	}
	out := make([]object, 0, len(tests))
	for _, t := range tests {
		out = append(out, object{
			{"পরীক্ষার_নাম", or(t.Name, Placeholder)},
			{"বাংলা_নাম", or(t.BanglaName, Placeholder)},
			{"কেন_করতে_হবে", or(t.Reason, PlaceholderContact)},
			{"প্রস্তুতি", or(t.Preparation, PlaceholderContact)},
			{"খরচ", Placeholder},
		})
	}
	return out
}

func (r Report) adviceSection() object {
	return object{
		{"জীবনযাত্রা", []string{Placeholder}},
		{"খাদ্যাভ্যাস", []string{Placeholder}},
		{"সতর্কতা", []string{"প্রেসক্রিপশন অস্পষ্ট। চিকিৎসকের সাথে যোগাযোগ করে স্পষ্টীকরণ নিন।"}},
		{"ফলোআপ", or(r.FollowUp, Placeholder)},
	}
}

func (r Report) glossarySection() []object {
	tests := r.Tests
	if len(tests) == 0 {
		tests = []Test{{}}
	}
	out := make([]object, 0, len(tests))
	for _, t := range tests {
		out = append(out, object{
			{"ইংরেজি_শব্দ", or(t.Name, Placeholder)},
			{"বাংলা_অর্থ", or(t.BanglaName, Placeholder)},
			{"ব্যাখ্যা", or(t.Description, Placeholder)},
		})
	}
	return out
}
