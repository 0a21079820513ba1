package api

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/medpipe/diagnosis"
	"github.com/kbukum/medpipe/envelope"
	apperrors "github.com/kbukum/medpipe/errors"
	"github.com/kbukum/medpipe/logger"
	"github.com/kbukum/medpipe/medical"
	"github.com/kbukum/medpipe/observability"
	"github.com/kbukum/medpipe/transcription"
)

// Operation names used for spans and metrics.
const (
	OpTranscribe = "transcribe"
	OpExtract    = "extract"
	OpDiagnose   = "diagnose"
)

// Transcriber is the transcription stage.
type Transcriber interface {
	Transcribe(ctx context.Context, audioURL, language string, maxDuration float64) (*transcription.Result, error)
}

// Extractor is the extraction stage.
type Extractor interface {
	Extract(ctx context.Context, text string) (*medical.MedicalInfo, error)
}

// Diagnoser is the diagnosis stage.
type Diagnoser interface {
	Generate(ctx context.Context, info *medical.MedicalInfo, includeDifferential bool, maxDiagnoses int) (*diagnosis.Outcome, error)
}

// Stages are the stage implementations behind the entry points.
type Stages struct {
	Transcriber Transcriber
	Extractor   Extractor
	Diagnoser   Diagnoser
}

// Option configures a Handler.
type Option func(*Handler)

// WithMetrics records per-operation metrics under serviceName.
func WithMetrics(serviceName string, m *observability.Metrics) Option {
	return func(h *Handler) {
		h.serviceName = serviceName
		h.metrics = m
	}
}

// Handler serves the three entry points. It holds no per-request state.
type Handler struct {
	stages      Stages
	limits      Limits
	serviceName string
	metrics     *observability.Metrics
	log         *logger.Logger
}

// NewHandler creates the entry point handler.
func NewHandler(stages Stages, limits Limits, log *logger.Logger, opts ...Option) (*Handler, error) {
	if stages.Transcriber == nil || stages.Extractor == nil || stages.Diagnoser == nil {
		return nil, errors.New("api: all three stages are required")
	}
	limits.ApplyDefaults()
	if log == nil {
		log = logger.Nop()
	}
	h := &Handler{stages: stages, limits: limits, serviceName: "medpipe", log: log.WithComponent("api")}
	for _, opt := range opts {
		opt(h)
	}
	return h, nil
}

// Transcribe handles POST /transcribe.
func (h *Handler) Transcribe(c *gin.Context) {
	var req TranscribeRequest
	h.serve(c, &req, func(ctx context.Context, b *envelope.Builder) (any, error) {
		return h.RunTranscribe(ctx, req, b)
	})
}

// Extract handles POST /extract.
func (h *Handler) Extract(c *gin.Context) {
	var req ExtractRequest
	h.serve(c, &req, func(ctx context.Context, b *envelope.Builder) (any, error) {
		return h.RunExtract(ctx, req, b)
	})
}

// Diagnose handles POST /diagnose.
func (h *Handler) Diagnose(c *gin.Context) {
	var req DiagnoseRequest
	h.serve(c, &req, func(ctx context.Context, b *envelope.Builder) (any, error) {
		return h.RunDiagnose(ctx, req, b)
	})
}

func (h *Handler) serve(c *gin.Context, req any, run func(ctx context.Context, b *envelope.Builder) (any, error)) {
	if err := decodeJSON(c, req); err != nil {
		_ = c.Error(err)
		return
	}
	b := builderFrom(c)
	result, err := run(c.Request.Context(), b)
	if err != nil {
		_ = c.Error(err)
		return
	}
	status, resp := Render(b, result, nil)
	c.JSON(status, resp)
}

// RunTranscribe validates req, runs the transcription stage and adds the
// transcription metadata to b.
func (h *Handler) RunTranscribe(ctx context.Context, req TranscribeRequest, b *envelope.Builder) (res *transcription.Result, err error) {
	ctx, end := h.begin(ctx, OpTranscribe, b.RequestID())
	defer func() { end(err) }()

	in, err := req.validate(h.limits)
	if err != nil {
		return nil, err
	}
	res, err = h.stages.Transcriber.Transcribe(ctx, in.audioURL, in.language, float64(in.maxDuration))
	if err != nil {
		return nil, err
	}
	transcribeMetadata(b, in, res)
	return res, nil
}

// RunExtract validates req, runs the extraction stage and adds the
// extraction metadata to b.
func (h *Handler) RunExtract(ctx context.Context, req ExtractRequest, b *envelope.Builder) (info *medical.MedicalInfo, err error) {
	ctx, end := h.begin(ctx, OpExtract, b.RequestID())
	defer func() { end(err) }()

	if err = req.validate(h.limits); err != nil {
		return nil, err
	}
	info, err = h.stages.Extractor.Extract(ctx, req.Text)
	if err != nil {
		return nil, err
	}
	extractMetadata(b, req.Text, info)
	return info, nil
}

// RunDiagnose validates req, runs the diagnosis stage and adds the
// diagnosis metadata to b.
func (h *Handler) RunDiagnose(ctx context.Context, req DiagnoseRequest, b *envelope.Builder) (result *medical.DiagnosisResult, err error) {
	ctx, end := h.begin(ctx, OpDiagnose, b.RequestID())
	defer func() { end(err) }()

	in, err := req.validate(h.limits)
	if err != nil {
		return nil, err
	}
	out, err := h.stages.Diagnoser.Generate(ctx, in.info, in.includeDifferential, in.maxDiagnoses)
	if err != nil {
		return nil, err
	}
	if out == nil || out.Result == nil {
		return nil, apperrors.Generation("The diagnosis service returned no result.", nil)
	}
	diagnoseMetadata(b, out)
	return out.Result, nil
}

// begin opens the operation span; the returned func closes it with the
// outcome of the call.
func (h *Handler) begin(ctx context.Context, op, requestID string) (context.Context, func(error)) {
	ctx, operation := observability.StartOperation(ctx, h.serviceName, op, requestID, "api."+op, h.metrics)
	return ctx, func(err error) {
		switch {
		case err == nil:
			operation.End(ctx, observability.StatusSuccess, "", nil)
		case errors.Is(err, context.Canceled):
			operation.End(ctx, observability.StatusCanceled, "", err)
		default:
			operation.End(ctx, observability.StatusError, string(apperrors.Resolve(err).Code), err)
		}
	}
}
