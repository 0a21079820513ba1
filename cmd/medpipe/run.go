package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/kbukum/medpipe/api"
	"github.com/kbukum/medpipe/app"
	"github.com/kbukum/medpipe/bootstrap"
	"github.com/kbukum/medpipe/envelope"
)

// errReported marks a failure whose envelope was already printed.
var errReported = errors.New("request failed")

var (
	transcribeURL         string
	transcribeLanguage    string
	transcribeMaxDuration int

	extractText string
	extractFile string

	diagnoseFile           string
	diagnoseNoDifferential bool
	diagnoseMaxDiagnoses   int
)

var transcribeCmd = &cobra.Command{
	Use:   "transcribe",
	Short: "Download and transcribe an audio recording",
	Example: `  medpipe transcribe --url https://example.com/consult.wav
  medpipe transcribe --url https://example.com/consulta.mp3 --language spanish --max-duration 600`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		req := api.TranscribeRequest{AudioURL: transcribeURL, Language: transcribeLanguage}
		if cmd.Flags().Changed("max-duration") {
			req.MaxDuration = &transcribeMaxDuration
		}
		return runOnce(cmd, func(ctx context.Context, h *api.Handler, b *envelope.Builder) (any, error) {
			return h.RunTranscribe(ctx, req, b)
		})
	},
}

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Extract structured medical information from text",
	Example: `  medpipe extract --text "Patient reports chest pain for two hours..."
  medpipe extract --file transcript.txt
  medpipe transcribe --url ... | jq -r .result.transcription | medpipe extract --file -`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		text := extractText
		if extractFile != "" {
			raw, err := readInput(cmd, extractFile)
			if err != nil {
				return err
			}
			text = string(raw)
		}
		req := api.ExtractRequest{Text: text}
		return runOnce(cmd, func(ctx context.Context, h *api.Handler, b *envelope.Builder) (any, error) {
			return h.RunExtract(ctx, req, b)
		})
	},
}

var diagnoseCmd = &cobra.Command{
	Use:   "diagnose",
	Short: "Generate diagnoses and a treatment plan from medical information",
	Long: `Reads medical information as JSON, the result of "medpipe extract", and
prints the diagnosis envelope.`,
	Example: `  medpipe diagnose --file medical_info.json
  medpipe extract --file transcript.txt | jq .result | medpipe diagnose --file - --max-diagnoses 5`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		raw, err := readInput(cmd, diagnoseFile)
		if err != nil {
			return err
		}
		includeDifferential := !diagnoseNoDifferential
		req := api.DiagnoseRequest{MedicalInfo: json.RawMessage(raw), IncludeDifferential: &includeDifferential}
		if cmd.Flags().Changed("max-diagnoses") {
			req.MaxDiagnoses = &diagnoseMaxDiagnoses
		}
		return runOnce(cmd, func(ctx context.Context, h *api.Handler, b *envelope.Builder) (any, error) {
			return h.RunDiagnose(ctx, req, b)
		})
	},
}

func init() {
	transcribeCmd.Flags().StringVarP(&transcribeURL, "url", "u", "", "Audio file URL (http or https)")
	transcribeCmd.Flags().StringVarP(&transcribeLanguage, "language", "l", "english", "Spoken language")
	transcribeCmd.Flags().IntVar(&transcribeMaxDuration, "max-duration", 0, "Maximum audio duration in seconds")
	_ = transcribeCmd.MarkFlagRequired("url")

	extractCmd.Flags().StringVarP(&extractText, "text", "t", "", "Text to extract from")
	extractCmd.Flags().StringVarP(&extractFile, "file", "f", "", "File holding the text, - for stdin")
	extractCmd.MarkFlagsMutuallyExclusive("text", "file")
	extractCmd.MarkFlagsOneRequired("text", "file")

	diagnoseCmd.Flags().StringVarP(&diagnoseFile, "file", "f", "", "JSON file holding medical_info, - for stdin")
	diagnoseCmd.Flags().BoolVar(&diagnoseNoDifferential, "no-differential", false, "Omit differential diagnoses")
	diagnoseCmd.Flags().IntVar(&diagnoseMaxDiagnoses, "max-diagnoses", 0, "Maximum number of diagnoses")
	_ = diagnoseCmd.MarkFlagRequired("file")
}

// runOnce wires the pipeline with the bootstrap lifecycle, runs one stage and
// prints its envelope. Logs go to stderr so stdout carries only JSON.
func runOnce(cmd *cobra.Command, run func(ctx context.Context, h *api.Handler, b *envelope.Builder) (any, error)) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	cfg.Logging.Output = "stderr"
	if !verbose && cfg.Logging.Level == "" {
		cfg.Logging.Level = "warn"
	}

	a, err := bootstrap.NewApp(cfg, bootstrap.WithoutSummary())
	if err != nil {
		return err
	}
	p, err := app.Setup(cmd.Context(), a)
	if err != nil {
		return err
	}

	var failed bool
	err = a.RunTask(cmd.Context(), func(ctx context.Context) error {
		b := envelope.Start(uuid.NewString())
		result, runErr := run(ctx, p.Handler, b)
		_, resp := api.Render(b, result, runErr)
		failed = !resp.Success

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(resp)
	})
	if err != nil {
		return err
	}
	if failed {
		return errReported
	}
	return nil
}

func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return raw, nil
}
