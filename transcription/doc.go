// Package transcription turns a remote audio file into text.
//
// A Stage downloads the audio through a retriever.Fetcher, hands the bytes to
// a speech-to-text Capability and enforces the caller's duration ceiling on
// what the capability reports.
//
// # Backends
//
//   - transcription/whisper: OpenAI-compatible /audio/transcriptions
//
// # Usage
//
//	cap, _ := whisper.New(whisper.Config{APIKey: key})
//	stage, _ := transcription.NewStage(cfg, fetcher, cap, log)
//	res, err := stage.Transcribe(ctx, "https://x/a.wav", "english", 300)
package transcription
