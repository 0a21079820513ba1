package diagnosis

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/kbukum/medpipe/medical"
)

const generatorSystemPrompt = "You are an experienced physician with expertise in ICD-10 coding. " +
	"Analyze medical information and provide accurate diagnoses with proper ICD-10 codes. " +
	"Always respond with valid JSON only."

const treatmentSystemPrompt = "You are a medical AI that provides evidence-based clinical pathways in JSON format. " +
	"Always respond with valid JSON structure only. Never include explanations outside the JSON."

const diagnosisSchema = `{
    "diagnoses": [
        {
            "diagnosis_name": "Primary diagnosis name",
            "icd_10_code": {
                "code": "ICD-10 code (e.g., G43.1)",
                "description": "Full ICD-10 description",
                "category": "ICD-10 category (e.g., Diseases of the nervous system)"
            },
            "confidence_score": 0.85,
            "reasoning": "Clinical reasoning explaining why this diagnosis fits the symptoms",
            "supporting_symptoms": ["symptom1", "symptom2"]
        }
    ]
}`

const pathwaySchema = `{
    "clinical_pathway": [
        {
            "recommendation": "Specific clinical recommendation with dosage/details",
            "priority": "high/medium/low",
            "category": "clinical/medication/lifestyle/monitoring/referral/follow_up",
            "duration": "timeframe or null",
            "notes": "evidence source and additional context"
        }
    ]
}`

func orUnknown(s *string) string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return "Unknown"
	}
	return *s
}

func diagnosisPrompt(info *medical.MedicalInfo, maxDiagnoses int) string {
	var b strings.Builder
	p := info.PatientInfo
	age := "Unknown"
	if p.Age != nil {
		age = strconv.Itoa(*p.Age)
	}

	fmt.Fprintf(&b, "Based on the following medical information, provide %d most likely diagnoses with proper ICD-10 codes.\n\n", maxDiagnoses)
	fmt.Fprintf(&b, "Patient: %s, Age: %s, Gender: %s\n\n", orUnknown(p.Name), age, orUnknown(p.Gender))
	fmt.Fprintf(&b, "Reason for consultation: %s\n\nSymptoms:\n", info.ReasonForConsultation)
	for _, s := range info.Symptoms {
		b.WriteString("- " + s.Symptom)
		if s.Duration != nil && *s.Duration != "" {
			fmt.Fprintf(&b, " (duration: %s)", *s.Duration)
		}
		if s.Severity != nil && *s.Severity != "" {
			fmt.Fprintf(&b, " (severity: %s)", *s.Severity)
		}
		if s.Location != nil && *s.Location != "" {
			fmt.Fprintf(&b, " (location: %s)", *s.Location)
		}
		b.WriteByte('\n')
	}
	if info.AdditionalNotes != nil && *info.AdditionalNotes != "" {
		fmt.Fprintf(&b, "\nAdditional notes: %s\n", *info.AdditionalNotes)
	}
	b.WriteString("\nProvide a JSON response with exactly this structure:\n\n")
	b.WriteString(diagnosisSchema)
	b.WriteString("\n\nOrder diagnoses by likelihood (most probable first). Include proper ICD-10 codes and clinical reasoning.\n")
	b.WriteString("Respond ONLY with valid JSON:")
	return b.String()
}

func treatmentPrompt(d medical.Diagnosis, patient medical.PatientInfo) string {
	profile := "age unknown"
	if patient.Age != nil {
		profile = fmt.Sprintf("%d years old", *patient.Age)
	}
	if patient.Gender != nil && *patient.Gender != "" {
		profile += ", " + *patient.Gender
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Act as a clinical research assistant and develop a comprehensive care pathway for primary diagnosis: %s (ICD-10: %s).\n\n",
		strings.ToUpper(d.DiagnosisName), d.ICD10Code.Code)
	fmt.Fprintf(&b, "Patient profile: %s\n\n", profile)
	b.WriteString("Based on recent research and current clinical practice guidelines from US, Canada, and Europe " +
		"(prioritize recent sources: AHA/ACC, NICE, ESC, USPSTF, CDC, CADTH).\n\n")
	b.WriteString("Return ONLY this JSON structure:\n\n")
	b.WriteString(pathwaySchema)
	b.WriteString("\n\nInclude: initial assessment, treatment approach, monitoring requirements, key contraindications, and follow-up. " +
		"Cite guidelines in notes field.\n\nJSON only - no additional text:")
	return b.String()
}
