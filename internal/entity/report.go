package entity

import (
	"time"

	"github.com/joseph-ayodele/health-reports/constants"
)

// HistoryPoint is one prior reading of a measurement.
type HistoryPoint struct {
	Date  string `json:"date"`
	Value string `json:"value"`
}

// Measurement is a single named value from a health report. Value is always a
// display string; composite provider values are serialized before they get here.
type Measurement struct {
	Name        string                      `json:"name"`
	Value       string                      `json:"value"`
	Unit        string                      `json:"unit"`
	Category    string                      `json:"category,omitempty"`
	Range       string                      `json:"range"`
	Status      constants.MeasurementStatus `json:"status"`
	Description string                      `json:"description,omitempty"`
	History     []HistoryPoint              `json:"history,omitempty"`
}

// PatientInfo is sparse; every field is optional.
type PatientInfo struct {
	Name           string `json:"name,omitempty"`
	PatientID      string `json:"patientId,omitempty"`
	Gender         string `json:"gender,omitempty"`
	DateOfBirth    string `json:"dateOfBirth,omitempty"`
	Age            string `json:"age,omitempty"`
	CollectionDate string `json:"collectionDate,omitempty"`
	Facility       string `json:"facility,omitempty"`
	Physician      string `json:"physician,omitempty"`
}

func (p *PatientInfo) IsZero() bool {
	return p == nil || *p == PatientInfo{}
}

// Report is the output of one successful pipeline run.
type Report struct {
	ID               string        `json:"id"`
	Title            string        `json:"title"`
	Date             time.Time     `json:"date"`
	Type             string        `json:"type"`
	Status           string        `json:"status"`
	Metrics          []Measurement `json:"metrics"`
	Recommendations  []string      `json:"recommendations"`
	RawText          string        `json:"rawText,omitempty"`
	Summary          string        `json:"summary"`
	DetailedAnalysis string        `json:"detailedAnalysis"`
	Categories       []string      `json:"categories"`
	PatientInfo      *PatientInfo  `json:"patientInfo,omitempty"`
	ModelUsed        string        `json:"modelUsed"`
	OCRProvider      string        `json:"ocrProvider"`
}
