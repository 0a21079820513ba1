package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/kbukum/medpipe/medical"
	"github.com/kbukum/medpipe/transcription"
	"github.com/kbukum/medpipe/validation"
)

// Limits are the request bounds enforced before any stage runs.
type Limits struct {
	MinTextLength       int
	MaxTextLength       int
	DefaultMaxDuration  int
	MaxDurationCeiling  int
	DefaultMaxDiagnoses int
	MaxDiagnosesCeiling int
}

// ApplyDefaults fills unset bounds with the stage defaults.
func (l *Limits) ApplyDefaults() {
	if l.MinTextLength <= 0 {
		l.MinTextLength = 10
	}
	if l.MaxTextLength <= 0 {
		l.MaxTextLength = 20000
	}
	if l.DefaultMaxDuration <= 0 {
		l.DefaultMaxDuration = 300
	}
	if l.MaxDurationCeiling <= 0 {
		l.MaxDurationCeiling = 1800
	}
	if l.DefaultMaxDiagnoses <= 0 {
		l.DefaultMaxDiagnoses = 3
	}
	if l.MaxDiagnosesCeiling <= 0 {
		l.MaxDiagnosesCeiling = 5
	}
}

// TranscribeRequest is the body of POST /transcribe.
type TranscribeRequest struct {
	AudioURL string `json:"audio_url"`
	Language string `json:"language,omitempty"`
	// MaxDuration is in seconds; nil means the configured default.
	MaxDuration *int `json:"max_duration,omitempty"`
}

type transcribeInput struct {
	audioURL    string
	language    string
	maxDuration int
}

func (r *TranscribeRequest) validate(l Limits) (transcribeInput, error) {
	in := transcribeInput{
		audioURL:    strings.TrimSpace(r.AudioURL),
		language:    transcription.NormalizeLanguage(r.Language),
		maxDuration: l.DefaultMaxDuration,
	}
	if r.MaxDuration != nil {
		in.maxDuration = *r.MaxDuration
	}

	v := validation.New().
		HTTPURL("audio_url", in.audioURL).
		OneOf("language", in.language, transcription.Languages()).
		Range("max_duration", in.maxDuration, 1, l.MaxDurationCeiling)
	if err := v.Validate(); err != nil {
		return in, err
	}
	return in, nil
}

// ExtractRequest is the body of POST /extract.
type ExtractRequest struct {
	Text string `json:"text"`
}

func (r *ExtractRequest) validate(l Limits) error {
	if err := validation.New().Text("text", r.Text, l.MinTextLength, l.MaxTextLength).Validate(); err != nil {
		return err
	}
	return nil
}

// DiagnoseRequest is the body of POST /diagnose. MedicalInfo is decoded
// separately so schema problems are reported per field.
type DiagnoseRequest struct {
	MedicalInfo         json.RawMessage `json:"medical_info"`
	IncludeDifferential *bool           `json:"include_differential,omitempty"`
	MaxDiagnoses        *int            `json:"max_diagnoses,omitempty"`
}

type diagnoseInput struct {
	info                *medical.MedicalInfo
	includeDifferential bool
	maxDiagnoses        int
}

func (r *DiagnoseRequest) validate(l Limits) (diagnoseInput, error) {
	in := diagnoseInput{includeDifferential: true, maxDiagnoses: l.DefaultMaxDiagnoses}
	if r.IncludeDifferential != nil {
		in.includeDifferential = *r.IncludeDifferential
	}
	if r.MaxDiagnoses != nil {
		in.maxDiagnoses = *r.MaxDiagnoses
	}

	v := validation.New()
	raw := bytes.TrimSpace(r.MedicalInfo)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		v.AddError("medical_info", "is required")
	} else {
		info, err := medical.ParseMedicalInfo(raw)
		var schemaErr *medical.SchemaError
		switch {
		case errors.As(err, &schemaErr):
			for _, p := range schemaErr.Problems {
				v.AddError(medicalField(p.Field), p.Message)
			}
		case err != nil:
			v.AddError("medical_info", err.Error())
		case !info.HasClinicalSignal():
			v.AddError("medical_info", "must include symptoms or a reason for consultation")
		default:
			in.info = info
		}
	}
	v.Range("max_diagnoses", in.maxDiagnoses, 1, l.MaxDiagnosesCeiling)

	if err := v.Validate(); err != nil {
		return in, err
	}
	return in, nil
}

func medicalField(field string) string {
	if field == "" || field == "body" {
		return "medical_info"
	}
	return fmt.Sprintf("medical_info.%s", field)
}
