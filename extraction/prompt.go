package extraction

import (
	"fmt"
	"strings"

	"github.com/kbukum/medpipe/medical"
)

const systemPrompt = "You are a medical assistant specialized in extracting structured information from medical texts. " +
	"Respond ONLY with valid JSON following exactly the provided schema."

const schema = `{
    "patient_info": {
        "name": "patient name or null",
        "age": age_number or null,
        "identification_number": "ID or null",
        "gender": "gender or null"
    },
    "symptoms": [
        {
            "symptom": "symptom description",
            "duration": "duration or null",
            "severity": "mild/moderate/severe or null",
            "location": "location or null"
        }
    ],
    "reason_for_consultation": "main reason for consultation",
    "additional_notes": "additional notes or null"
}`

func extractionPrompt(text string) string {
	return "Extract medical information from the following text and return a JSON with exactly this structure:\n\n" +
		schema + "\n\nMedical text:\n" + text +
		"\n\nRespond ONLY with valid JSON, no additional explanations:"
}

func repairPrompt(err *medical.SchemaError) string {
	var b strings.Builder
	b.WriteString("Your previous answer does not match the required structure:\n")
	for _, p := range err.Problems {
		fmt.Fprintf(&b, "- %s: %s\n", p.Field, p.Message)
	}
	b.WriteString("\nReturn the corrected JSON with exactly this structure and nothing else:\n\n")
	b.WriteString(schema)
	return b.String()
}
