package diagnosis

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/kbukum/medpipe/medical"
	"github.com/kbukum/medpipe/validation"
)

// defaultConfidence stands in for a missing confidence_score.
const defaultConfidence = 0.5

// Anomaly records a recoverable defect corrected in model output.
type Anomaly struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

type anomalies []Anomaly

func (a *anomalies) add(field, format string, args ...any) {
	*a = append(*a, Anomaly{Field: field, Reason: fmt.Sprintf(format, args...)})
}

// score accepts a JSON number or a numeric string.
type score struct {
	value *float64
	raw   string
}

func (s *score) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if string(data) == "null" {
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err == nil {
		s.value = &f
		return nil
	}
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	s.raw = str
	if f, err := strconv.ParseFloat(strings.TrimSpace(strings.TrimSuffix(str, "%")), 64); err == nil {
		if strings.HasSuffix(str, "%") {
			f /= 100
		}
		s.value = &f
	}
	return nil
}

type candidateDiagnosis struct {
	DiagnosisName      string            `json:"diagnosis_name"`
	ICD10Code          medical.ICD10Code `json:"icd_10_code"`
	ConfidenceScore    score             `json:"confidence_score"`
	Reasoning          string            `json:"reasoning"`
	SupportingSymptoms []string          `json:"supporting_symptoms"`
}

type candidateDiagnoses struct {
	Diagnoses []candidateDiagnosis `json:"diagnoses"`
}

type candidatePathwayItem struct {
	Recommendation string  `json:"recommendation"`
	Priority       string  `json:"priority"`
	Category       string  `json:"category"`
	Duration       *string `json:"duration"`
	Notes          *string `json:"notes"`
}

type candidatePathway struct {
	ClinicalPathway []candidatePathwayItem `json:"clinical_pathway"`
}

// normalizeDiagnosis clamps and cleans one candidate. Index i names the entry
// in anomaly fields.
func normalizeDiagnosis(c candidateDiagnosis, i int, an *anomalies) medical.Diagnosis {
	field := fmt.Sprintf("diagnoses[%d]", i)

	conf := defaultConfidence
	switch v := c.ConfidenceScore.value; {
	case v == nil && c.ConfidenceScore.raw != "":
		an.add(field+".confidence_score", "unparsable value %q replaced with %.1f", c.ConfidenceScore.raw, defaultConfidence)
	case v == nil:
		an.add(field+".confidence_score", "missing, defaulted to %.1f", defaultConfidence)
	case math.IsNaN(*v):
		an.add(field+".confidence_score", "not a number, defaulted to %.1f", defaultConfidence)
	default:
		conf = *v
		if conf < 0 || conf > 1 {
			an.add(field+".confidence_score", "%.3g outside [0,1], clamped", conf)
			conf = math.Min(1, math.Max(0, conf))
		}
	}

	return medical.Diagnosis{
		DiagnosisName: strings.TrimSpace(c.DiagnosisName),
		ICD10Code: medical.ICD10Code{
			Code:        medical.NormalizeICD10(c.ICD10Code.Code),
			Description: strings.TrimSpace(c.ICD10Code.Description),
			Category:    strings.TrimSpace(c.ICD10Code.Category),
		},
		ConfidenceScore:    conf,
		Reasoning:          strings.TrimSpace(c.Reasoning),
		SupportingSymptoms: dedupe(c.SupportingSymptoms),
	}
}

// dedupe trims values and drops blanks and repeats, keeping first occurrences.
func dedupe(values []string) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]bool, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		key := strings.ToLower(v)
		if v == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, v)
	}
	return out
}

// capDifferential keeps the limit highest-confidence entries in their
// original order.
func capDifferential(ds []medical.Diagnosis, limit int) []medical.Diagnosis {
	if limit <= 0 {
		return []medical.Diagnosis{}
	}
	if len(ds) <= limit {
		return ds
	}
	idx := make([]int, len(ds))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return ds[idx[a]].ConfidenceScore > ds[idx[b]].ConfidenceScore
	})
	keep := idx[:limit]
	sort.Ints(keep)

	out := make([]medical.Diagnosis, 0, limit)
	for _, i := range keep {
		out = append(out, ds[i])
	}
	return out
}

func normalizePathwayItem(c candidatePathwayItem, i int, an *anomalies) (medical.TreatmentPlanItem, bool) {
	field := fmt.Sprintf("clinical_pathway[%d]", i)
	rec := strings.TrimSpace(c.Recommendation)
	if rec == "" {
		an.add(field+".recommendation", "empty recommendation dropped")
		return medical.TreatmentPlanItem{}, false
	}

	priority, ok := medical.ParsePriority(c.Priority)
	if !ok {
		an.add(field+".priority", "unknown priority %q, using %s", c.Priority, priority)
	}
	category, ok := medical.ParseCategory(c.Category)
	if !ok && strings.TrimSpace(c.Category) != "" {
		an.add(field+".category", "unknown category %q, using %s", c.Category, category)
	}

	notes := optional(c.Notes)
	if notes == nil {
		n := defaultNotes
		notes = &n
	}
	return medical.TreatmentPlanItem{
		Category:       category,
		Priority:       priority,
		Recommendation: rec,
		Duration:       optional(c.Duration),
		Notes:          notes,
	}, true
}

const defaultNotes = "Based on clinical guidelines"

// fallbackPlan stands in for a pathway the model did not return as JSON.
func fallbackPlan() []medical.TreatmentPlanItem {
	notes := "Full protocol extracted. See citations for evidence."
	return []medical.TreatmentPlanItem{{
		Category:       medical.CategoryClinical,
		Priority:       medical.PriorityHigh,
		Recommendation: "Clinical pathway available - see evidence sources for detailed protocol",
		Notes:          &notes,
	}}
}

// optional returns nil for blank or literal "null" strings.
func optional(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" || strings.EqualFold(v, "null") {
		return nil
	}
	return &v
}

// filterCitations keeps unique http(s) URLs in order.
func filterCitations(raw []string, an *anomalies) []string {
	out := make([]string, 0, len(raw))
	seen := make(map[string]bool, len(raw))
	for i, c := range raw {
		c = strings.TrimSpace(c)
		if err := validation.CheckHTTPURL(c); err != nil {
			an.add(fmt.Sprintf("citations[%d]", i), "dropped: %v", err)
			continue
		}
		if seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	return out
}
