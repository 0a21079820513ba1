package api

import (
	"strings"
	"unicode/utf8"

	"github.com/kbukum/medpipe/diagnosis"
	"github.com/kbukum/medpipe/envelope"
	"github.com/kbukum/medpipe/medical"
	"github.com/kbukum/medpipe/transcription"
)

// Stage metadata keys.
const (
	MetaInputURL            = "input_url"
	MetaTranscriptionLength = "transcription_length"
	MetaTextLength          = "text_length"
	MetaSymptomsFound       = "symptoms_found"
	MetaDiagnosesGenerated  = "diagnoses_generated"
	MetaTreatmentItems      = "treatment_recommendations"
	MetaEvidenceCitations   = "evidence_citations"
	MetaPrimaryConfidence   = "primary_diagnosis_confidence"
	MetaICD10Code           = "icd_10_code"
	MetaICD10Flagged        = "icd_10_flagged"
	MetaICD10FlaggedCodes   = "icd_10_flagged_codes"
	MetaUpstreamAnomalies   = "upstream_anomalies"
)

func transcribeMetadata(b *envelope.Builder, in transcribeInput, res *transcription.Result) {
	b.With(MetaInputURL, in.audioURL).
		With(MetaTranscriptionLength, utf8.RuneCountInString(res.Transcription))
}

func extractMetadata(b *envelope.Builder, text string, info *medical.MedicalInfo) {
	b.With(MetaTextLength, utf8.RuneCountInString(text)).
		With(MetaSymptomsFound, len(info.Symptoms))
}

func diagnoseMetadata(b *envelope.Builder, out *diagnosis.Outcome) {
	r := out.Result
	b.With(MetaDiagnosesGenerated, 1+len(r.DifferentialDiagnoses)).
		With(MetaTreatmentItems, len(r.TreatmentPlan)).
		With(MetaEvidenceCitations, len(r.EvidenceCitations)).
		With(MetaPrimaryConfidence, r.PrimaryDiagnosis.ConfidenceScore).
		With(MetaICD10Code, r.PrimaryDiagnosis.ICD10Code.Code).
		With(MetaICD10Flagged, len(out.FlaggedCodes)).
		With(MetaUpstreamAnomalies, len(out.Anomalies))
	if len(out.FlaggedCodes) > 0 {
		b.With(MetaICD10FlaggedCodes, strings.Join(out.FlaggedCodes, ","))
	}
}
