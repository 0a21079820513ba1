package api

import (
	"github.com/gin-gonic/gin"

	"github.com/kbukum/medpipe/version"
)

// Entry point paths. Each has legacy aliases kept for existing callers.
const (
	PathTranscribe = "/transcribe"
	PathExtract    = "/extract"
	PathDiagnose   = "/diagnose"
)

var aliases = map[string][]string{
	PathTranscribe: {"/audio-link", "/transcribe-audio"},
	PathExtract:    {"/extract-medical-info"},
	PathDiagnose:   {"/generate-diagnosis"},
}

// Register mounts the entry points, their aliases and the index on engine.
// extra runs before each entry point, after ErrorHandler.
func Register(engine *gin.Engine, h *Handler, extra ...gin.HandlerFunc) {
	engine.NoRoute(NotFound)
	engine.NoMethod(MethodNotAllowed)
	engine.GET("/", Index)

	g := engine.Group("/", extra...)
	for path, handle := range map[string]gin.HandlerFunc{
		PathTranscribe: h.Transcribe,
		PathExtract:    h.Extract,
		PathDiagnose:   h.Diagnose,
	} {
		g.POST(path, handle)
		for _, alias := range aliases[path] {
			g.POST(alias, handle)
		}
	}
}

// Index describes the service and how the stages chain together.
func Index(c *gin.Context) {
	status, resp := Render(builderFrom(c), gin.H{
		"message":     "Medical AI Processing API",
		"version":     version.Get().Short(),
		"description": "Audio transcription, medical information extraction, and diagnosis generation API",
		"endpoints": gin.H{
			"/health":      "GET - API health status",
			PathTranscribe: "POST - Transcribe audio from a URL",
			PathExtract:    "POST - Extract structured medical information from text",
			PathDiagnose:   "POST - Generate diagnoses and a treatment plan from medical information",
		},
		"pipeline": gin.H{
			"step_1": "Audio Transcription - Convert audio to text",
			"step_2": "Medical Extraction - Extract structured medical data",
			"step_3": "Diagnosis Generation - Generate diagnosis and treatment recommendations",
		},
		"usage": gin.H{
			"audio_transcription": gin.H{
				"endpoint": PathTranscribe,
				"method":   "POST",
				"body":     gin.H{"audio_url": "https://example.com/audio.wav", "language": "english", "max_duration": 300},
			},
			"medical_extraction": gin.H{
				"endpoint": PathExtract,
				"method":   "POST",
				"body":     gin.H{"text": "Patient presents with chest pain..."},
			},
			"diagnosis_generation": gin.H{
				"endpoint": PathDiagnose,
				"method":   "POST",
				"body": gin.H{
					"medical_info": gin.H{
						"patient_info":            gin.H{"name": "John Doe", "age": 45, "gender": "male"},
						"symptoms":                []gin.H{{"symptom": "crushing chest pain", "duration": "2 hours", "severity": "severe"}},
						"reason_for_consultation": "chest pain evaluation",
					},
					"include_differential": true,
					"max_diagnoses":        3,
				},
			},
		},
	}, nil)
	c.JSON(status, resp)
}
