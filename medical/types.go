package medical

import "strings"

// PatientInfo identifies the patient. Every field is optional.
type PatientInfo struct {
	Name                 *string `json:"name"`
	Age                  *int    `json:"age" validate:"omitempty,gte=0,lte=150"`
	IdentificationNumber *string `json:"identification_number"`
	Gender               *string `json:"gender"`
}

// Symptom is one complaint as described in the consultation.
type Symptom struct {
	Symptom  string  `json:"symptom" validate:"notblank,max=500"`
	Duration *string `json:"duration"`
	// Severity is usually mild, moderate or severe, but is kept verbatim.
	Severity *string `json:"severity"`
	Location *string `json:"location"`
}

// MedicalInfo is the structured record of a consultation. Symptoms keep the
// order in which they were extracted.
type MedicalInfo struct {
	PatientInfo           PatientInfo `json:"patient_info"`
	Symptoms              []Symptom   `json:"symptoms" validate:"max=50,dive"`
	ReasonForConsultation string      `json:"reason_for_consultation" validate:"max=2000"`
	AdditionalNotes       *string     `json:"additional_notes"`
}

// HasClinicalSignal reports whether there is anything to diagnose from.
func (m *MedicalInfo) HasClinicalSignal() bool {
	return len(m.Symptoms) > 0 || strings.TrimSpace(m.ReasonForConsultation) != ""
}

// ICD10Code is an ICD-10 classification as reported by the model.
type ICD10Code struct {
	Code        string `json:"code"`
	Description string `json:"description"`
	Category    string `json:"category"`
}

// Diagnosis is one candidate condition.
type Diagnosis struct {
	DiagnosisName      string    `json:"diagnosis_name"`
	ICD10Code          ICD10Code `json:"icd_10_code"`
	ConfidenceScore    float64   `json:"confidence_score"`
	Reasoning          string    `json:"reasoning"`
	SupportingSymptoms []string  `json:"supporting_symptoms"`
}

// Priority ranks a treatment recommendation.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Category groups treatment recommendations.
type Category string

const (
	CategoryClinical   Category = "clinical"
	CategoryMedication Category = "medication"
	CategoryLifestyle  Category = "lifestyle"
	CategoryProcedure  Category = "procedure"
	CategoryMonitoring Category = "monitoring"
	CategoryReferral   Category = "referral"
	CategoryEducation  Category = "education"
	CategoryRedFlags   Category = "red_flags"
	CategoryFollowUp   Category = "follow_up"
)

var knownCategories = map[Category]bool{
	CategoryClinical: true, CategoryMedication: true, CategoryLifestyle: true,
	CategoryProcedure: true, CategoryMonitoring: true, CategoryReferral: true,
	CategoryEducation: true, CategoryRedFlags: true, CategoryFollowUp: true,
}

// ParsePriority maps free text to a Priority. Unknown values are medium.
func ParsePriority(s string) (Priority, bool) {
	switch p := Priority(strings.ToLower(strings.TrimSpace(s))); p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return p, true
	}
	return PriorityMedium, false
}

// ParseCategory maps free text to a Category. Unknown values are clinical.
func ParseCategory(s string) (Category, bool) {
	c := Category(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), " ", "_"))
	if knownCategories[c] {
		return c, true
	}
	return CategoryClinical, false
}

// TreatmentPlanItem is one step of the treatment plan.
type TreatmentPlanItem struct {
	Category       Category `json:"category"`
	Priority       Priority `json:"priority"`
	Recommendation string   `json:"recommendation"`
	Duration       *string  `json:"duration"`
	Notes          *string  `json:"notes"`
}

// DiagnosisResult is the diagnosis stage output.
type DiagnosisResult struct {
	PrimaryDiagnosis      Diagnosis           `json:"primary_diagnosis"`
	DifferentialDiagnoses []Diagnosis         `json:"differential_diagnoses"`
	TreatmentPlan         []TreatmentPlanItem `json:"treatment_plan"`
	EvidenceCitations     []string            `json:"evidence_citations"`
}
