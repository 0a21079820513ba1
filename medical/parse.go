package medical

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kbukum/medpipe/validation"
)

// SchemaError lists why a candidate record does not match the schema.
type SchemaError struct {
	Problems []validation.FieldError
}

func (e *SchemaError) Error() string {
	parts := make([]string, len(e.Problems))
	for i, p := range e.Problems {
		parts[i] = p.Field + ": " + p.Message
	}
	return "medical: schema mismatch: " + strings.Join(parts, "; ")
}

// candidateInfo distinguishes missing required keys from zero values.
type candidateInfo struct {
	PatientInfo           *PatientInfo `json:"patient_info"`
	Symptoms              *[]Symptom   `json:"symptoms"`
	ReasonForConsultation *string      `json:"reason_for_consultation"`
	AdditionalNotes       *string      `json:"additional_notes"`
}

// ParseMedicalInfo decodes data and validates it against the MedicalInfo
// schema. It returns either a valid record or a *SchemaError.
func ParseMedicalInfo(data []byte) (*MedicalInfo, error) {
	var c candidateInfo
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, &SchemaError{Problems: []validation.FieldError{{
			Field: "body", Message: fmt.Sprintf("is not a valid record: %v", err),
		}}}
	}

	v := validation.New().
		Custom(c.Symptoms != nil, "symptoms", "is required").
		Custom(c.ReasonForConsultation != nil, "reason_for_consultation", "is required")

	info := &MedicalInfo{Symptoms: []Symptom{}, AdditionalNotes: c.AdditionalNotes}
	if c.PatientInfo != nil {
		info.PatientInfo = *c.PatientInfo
	}
	if c.Symptoms != nil && *c.Symptoms != nil {
		info.Symptoms = *c.Symptoms
	}
	if c.ReasonForConsultation != nil {
		info.ReasonForConsultation = *c.ReasonForConsultation
	}

	if v.Struct(info).HasErrors() {
		return nil, &SchemaError{Problems: v.Errors()}
	}
	return info, nil
}
