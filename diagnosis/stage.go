// Package diagnosis turns a structured consultation into ranked diagnoses
// and a treatment plan with evidence citations.
//
// Two chat-completion capabilities are involved: a generator that proposes
// ICD-10 coded diagnoses and an optional recommender that builds the
// clinical pathway for the primary diagnosis. Model output is normalized
// rather than rejected where the defect is advisory: confidence scores are
// clamped, malformed ICD-10 codes are kept and flagged, and unparsable
// pathways fall back to a single pointer to the citations.
package diagnosis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	apperrors "github.com/kbukum/medpipe/errors"
	"github.com/kbukum/medpipe/llm"
	"github.com/kbukum/medpipe/logger"
	"github.com/kbukum/medpipe/medical"
	"github.com/kbukum/medpipe/observability"
	"github.com/kbukum/medpipe/util"
)

// Config bounds the diagnosis stage.
type Config struct {
	DefaultMaxDiagnoses int             `yaml:"default_max_diagnoses" mapstructure:"default_max_diagnoses"`
	MaxDiagnosesCeiling int             `yaml:"max_diagnoses_ceiling" mapstructure:"max_diagnoses_ceiling"`
	Timeout             time.Duration   `yaml:"timeout" mapstructure:"timeout"`
	Temperature         float64         `yaml:"temperature" mapstructure:"temperature"`
	MaxTokens           int             `yaml:"max_tokens" mapstructure:"max_tokens"`
	Treatment           TreatmentConfig `yaml:"treatment" mapstructure:"treatment"`
}

// TreatmentConfig bounds the treatment recommender call.
type TreatmentConfig struct {
	// Enabled defaults to true. When false the plan and citations are empty.
	Enabled     *bool         `yaml:"enabled" mapstructure:"enabled"`
	Timeout     time.Duration `yaml:"timeout" mapstructure:"timeout"`
	Temperature float64       `yaml:"temperature" mapstructure:"temperature"`
	MaxTokens   int           `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// ApplyDefaults fills unset fields.
func (c *Config) ApplyDefaults() {
	if c.DefaultMaxDiagnoses <= 0 {
		c.DefaultMaxDiagnoses = 3
	}
	if c.MaxDiagnosesCeiling <= 0 {
		c.MaxDiagnosesCeiling = 5
	}
	if c.Timeout <= 0 {
		c.Timeout = 45 * time.Second
	}
	if c.Temperature == 0 {
		c.Temperature = 0.2
	}
	if c.MaxTokens <= 0 {
		c.MaxTokens = 2000
	}
	if c.Treatment.Enabled == nil {
		c.Treatment.Enabled = util.Ptr(true)
	}
	if c.Treatment.Timeout <= 0 {
		c.Treatment.Timeout = 45 * time.Second
	}
	if c.Treatment.MaxTokens <= 0 {
		c.Treatment.MaxTokens = 4000
	}
}

// Validate checks the configuration after defaults.
func (c *Config) Validate() error {
	if c.DefaultMaxDiagnoses > c.MaxDiagnosesCeiling {
		return fmt.Errorf("diagnosis: default_max_diagnoses %d exceeds ceiling %d",
			c.DefaultMaxDiagnoses, c.MaxDiagnosesCeiling)
	}
	return nil
}

// Outcome is a diagnosis result plus what was corrected on the way.
type Outcome struct {
	Result *medical.DiagnosisResult
	// Anomalies lists clamped, defaulted or dropped upstream values.
	Anomalies []Anomaly
	// FlaggedCodes lists returned ICD-10 codes that fail the expected pattern.
	FlaggedCodes []string
}

// Stage generates diagnoses. It is stateless and safe for concurrent use.
type Stage struct {
	generator   llm.Completer
	recommender llm.Completer
	cfg         Config
	log         *logger.Logger
}

// NewStage creates a diagnosis stage. recommender may be nil, which
// disables treatment planning.
func NewStage(cfg Config, generator, recommender llm.Completer, log *logger.Logger) (*Stage, error) {
	if generator == nil {
		return nil, errors.New("diagnosis: generator is required")
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if !*cfg.Treatment.Enabled {
		recommender = nil
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Stage{generator: generator, recommender: recommender, cfg: cfg, log: log.WithComponent("diagnosis")}, nil
}

// Generate produces the diagnosis for info. The primary diagnosis is the
// generator's first entry; at most maxDiagnoses-1 differentials follow.
func (s *Stage) Generate(ctx context.Context, info *medical.MedicalInfo, includeDifferential bool, maxDiagnoses int) (*Outcome, error) {
	if info == nil || !info.HasClinicalSignal() {
		return nil, apperrors.InvalidField("medical_info", "must include symptoms or a reason for consultation")
	}
	if maxDiagnoses < 1 || maxDiagnoses > s.cfg.MaxDiagnosesCeiling {
		return nil, apperrors.InvalidField("max_diagnoses",
			fmt.Sprintf("must be between 1 and %d", s.cfg.MaxDiagnosesCeiling))
	}

	log := s.log.WithContext(ctx)
	var an anomalies

	diagnoses, err := s.diagnose(ctx, info, maxDiagnoses, &an)
	if err != nil {
		return nil, err
	}

	primary := diagnoses[0]
	differential := []medical.Diagnosis{}
	if includeDifferential {
		differential = capDifferential(diagnoses[1:], maxDiagnoses-1)
	}

	var flagged []string
	for _, d := range append([]medical.Diagnosis{primary}, differential...) {
		if !medical.ValidICD10(d.ICD10Code.Code) {
			flagged = append(flagged, d.ICD10Code.Code)
		}
	}
	if len(flagged) > 0 {
		log.Warn("ICD-10 codes do not match the expected pattern", logger.Fields("codes", flagged))
	}

	plan, citations, err := s.recommend(ctx, primary, info.PatientInfo, &an)
	if err != nil {
		return nil, err
	}

	if len(an) > 0 {
		log.Warn("corrected upstream output", logger.Fields(
			logger.FieldErrorCode, apperrors.ErrCodeMalformedUpstream,
			"anomalies", len(an),
		))
		recordAnomalies(ctx, an)
	}
	log.Info("diagnosis complete", logger.Fields(
		"diagnoses", 1+len(differential),
		"treatment_items", len(plan),
		"citations", len(citations),
	))

	return &Outcome{
		Result: &medical.DiagnosisResult{
			PrimaryDiagnosis:      primary,
			DifferentialDiagnoses: differential,
			TreatmentPlan:         plan,
			EvidenceCitations:     citations,
		},
		Anomalies:    an,
		FlaggedCodes: flagged,
	}, nil
}

func (s *Stage) diagnose(ctx context.Context, info *medical.MedicalInfo, maxDiagnoses int, an *anomalies) ([]medical.Diagnosis, error) {
	callCtx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	resp, err := s.generator.Execute(callCtx, llm.CompletionRequest{
		SystemPrompt: generatorSystemPrompt,
		Messages:     []llm.Message{{Role: llm.RoleUser, Content: diagnosisPrompt(info, maxDiagnoses)}},
		Temperature:  s.cfg.Temperature,
		MaxTokens:    s.cfg.MaxTokens,
		JSONMode:     true,
	})
	if err != nil {
		if errors.Is(ctx.Err(), context.Canceled) {
			return nil, ctx.Err()
		}
		s.log.WithContext(ctx).Error("diagnosis call failed", logger.Fields(logger.FieldError, err.Error()))
		return nil, apperrors.Generation("The diagnosis could not be generated.", err)
	}

	var candidates candidateDiagnoses
	if err := llm.DecodeJSON(resp.Content, &candidates); err != nil {
		return nil, apperrors.Generation("The diagnosis service returned an unreadable answer.",
			apperrors.MalformedUpstream("diagnoses", err.Error()))
	}

	out := make([]medical.Diagnosis, 0, len(candidates.Diagnoses))
	for i, c := range candidates.Diagnoses {
		d := normalizeDiagnosis(c, i, an)
		if d.DiagnosisName == "" {
			an.add(fmt.Sprintf("diagnoses[%d].diagnosis_name", i), "unnamed diagnosis dropped")
			continue
		}
		out = append(out, d)
	}
	if len(out) == 0 {
		return nil, apperrors.Generation("No diagnoses could be generated from the provided medical information.", nil)
	}
	return out, nil
}

func (s *Stage) recommend(ctx context.Context, primary medical.Diagnosis, patient medical.PatientInfo, an *anomalies) ([]medical.TreatmentPlanItem, []string, error) {
	if s.recommender == nil {
		return []medical.TreatmentPlanItem{}, []string{}, nil
	}

	callCtx, cancel := context.WithTimeout(ctx, s.cfg.Treatment.Timeout)
	defer cancel()

	resp, err := s.recommender.Execute(callCtx, llm.CompletionRequest{
		SystemPrompt: treatmentSystemPrompt,
		Messages:     []llm.Message{{Role: llm.RoleUser, Content: treatmentPrompt(primary, patient)}},
		Temperature:  s.cfg.Treatment.Temperature,
		MaxTokens:    s.cfg.Treatment.MaxTokens,
	})
	if err != nil {
		if errors.Is(ctx.Err(), context.Canceled) {
			return nil, nil, ctx.Err()
		}
		s.log.WithContext(ctx).Error("treatment call failed", logger.Fields(logger.FieldError, err.Error()))
		return nil, nil, apperrors.Generation("The treatment plan could not be generated.", err)
	}

	citations := filterCitations(resp.Citations, an)

	var pathway candidatePathway
	if err := llm.DecodeJSON(resp.Content, &pathway); err != nil {
		an.add("clinical_pathway", "unparsable pathway replaced with fallback")
		return fallbackPlan(), citations, nil
	}

	plan := make([]medical.TreatmentPlanItem, 0, len(pathway.ClinicalPathway))
	for i, c := range pathway.ClinicalPathway {
		if item, ok := normalizePathwayItem(c, i, an); ok {
			plan = append(plan, item)
		}
	}
	return plan, citations, nil
}

func recordAnomalies(ctx context.Context, an anomalies) {
	op := observability.OperationFromContext(ctx)
	if op == nil {
		return
	}
	byField := make(map[string]int)
	for _, a := range an {
		byField[fieldKind(a.Field)]++
	}
	for field, n := range byField {
		op.RecordAnomaly(ctx, field, n)
	}
}

// fieldKind drops indexes so "diagnoses[2].confidence_score" counts as
// "confidence_score".
func fieldKind(field string) string {
	if i := strings.LastIndexByte(field, '.'); i >= 0 {
		return field[i+1:]
	}
	if i := strings.IndexByte(field, '['); i >= 0 {
		return field[:i]
	}
	return field
}
