package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Analysis is a saved prescription analysis owned by one user.
type Analysis struct {
	Base
	UserID          string          `json:"user_id" db:"user_id"`
	TextHash        string          `json:"text_hash" db:"text_hash"`
	EncryptedText   []byte          `json:"-" db:"encrypted_text"`
	CorrectedText   string          `json:"corrected_text,omitempty" db:"-"`
	Report          json.RawMessage `json:"report" db:"report"`
	Medicines       pq.StringArray  `json:"medicines" db:"medicines"`
	MedicationCount int             `json:"medication_count" db:"medication_count"`
	PatientName     string          `json:"patient_name,omitempty" db:"patient_name"`
	DoctorName      string          `json:"doctor_name,omitempty" db:"doctor_name"`
	SentToChat      bool            `json:"sent_to_chat" db:"sent_to_chat"`
}

// AnalysisFilters narrows a history listing.
type AnalysisFilters struct {
	Pagination
	SentToChat *bool     `form:"sent_to_chat"`
	StartDate  time.Time `form:"start_date" time_format:"2006-01-02"`
	EndDate    time.Time `form:"end_date" time_format:"2006-01-02"`
}

// Analysis event types
const (
	EventAnalysisCreated    = "ANALYSIS_CREATED"
	EventAnalysisSentToChat = "ANALYSIS_SENT_TO_CHAT"
	EventAnalysisDeleted    = "ANALYSIS_DELETED"
)

// AnalysisEvent is the outbox payload published for analysis changes.
type AnalysisEvent struct {
	AnalysisID      uuid.UUID `json:"analysis_id"`
	UserID          string    `json:"user_id"`
	Medicines       []string  `json:"medicines,omitempty"`
	MedicationCount int       `json:"medication_count"`
	OccurredAt      time.Time `json:"occurred_at"`
}
