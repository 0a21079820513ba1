package transcription

import "github.com/kbukum/medpipe/provider"

// Request is the input to a speech-to-text capability.
type Request struct {
	// Audio is the raw audio file content.
	Audio []byte
	// FileName is sent to the backend so it can sniff the container format.
	FileName string
	// ContentType is the audio MIME type.
	ContentType string
	// Language is an ISO-639-1 hint. Empty lets the backend detect.
	Language string
}

// Response is what a capability reports about a transcribed file.
type Response struct {
	// Text is the full transcription.
	Text string
	// Duration is the audio length in seconds, nil when not reported.
	Duration *float64
	// Language is the detected language, empty when not reported.
	Language string
	// Model names the backend model that produced the text.
	Model string
}

// Capability is the speech-to-text boundary of the transcription stage.
type Capability = provider.RequestResponse[Request, Response]

// Result is the transcription stage output.
type Result struct {
	Transcription    string  `json:"transcription"`
	DurationSeconds  float64 `json:"duration_seconds"`
	LanguageDetected string  `json:"language_detected"`
	ModelUsed        string  `json:"model_used"`
}
