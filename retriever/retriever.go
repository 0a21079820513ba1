// Package retriever fetches remote resources into memory under a byte
// ceiling and a wall-clock timeout.
package retriever

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"path"
	"time"

	apperrors "github.com/kbukum/medpipe/errors"
	"github.com/kbukum/medpipe/httpclient"
	"github.com/kbukum/medpipe/logger"
	"github.com/kbukum/medpipe/validation"
)

// DefaultUserAgent identifies downloads to remote hosts.
const DefaultUserAgent = "Mozilla/5.0 (compatible; AudioProcessor/1.0)"

// Resource is a fetched remote file.
type Resource struct {
	URL         string
	FileName    string
	ContentType string
	Data        []byte
}

// Size returns the number of bytes retrieved.
func (r *Resource) Size() int64 { return int64(len(r.Data)) }

// Fetcher retrieves a remote resource.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string, timeout time.Duration, maxBytes int64) (*Resource, error)
}

// Config configures the HTTP retriever.
type Config struct {
	// Timeout caps every download; per-call timeouts may only be shorter.
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`
	// MaxFileSize is a human-readable byte ceiling, e.g. "50MB".
	MaxFileSize string `yaml:"max_file_size" mapstructure:"max_file_size"`
	UserAgent   string `yaml:"user_agent" mapstructure:"user_agent"`
}

// ApplyDefaults fills unset fields.
func (c *Config) ApplyDefaults() {
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	if c.MaxFileSize == "" {
		c.MaxFileSize = "50MB"
	}
	if c.UserAgent == "" {
		c.UserAgent = DefaultUserAgent
	}
}

// Retriever is the HTTP Fetcher. It never retries.
type Retriever struct {
	http *httpclient.Adapter
	log  *logger.Logger
}

// New creates a Retriever.
func New(cfg Config, log *logger.Logger, opts ...httpclient.Option) (*Retriever, error) {
	cfg.ApplyDefaults()
	if log == nil {
		log = logger.Nop()
	}
	a, err := httpclient.New(httpclient.Config{
		Name:      "retriever",
		Timeout:   cfg.Timeout,
		UserAgent: cfg.UserAgent,
	}, opts...)
	if err != nil {
		return nil, err
	}
	return &Retriever{http: a, log: log.WithComponent("retriever")}, nil
}

// Fetch downloads rawURL. The URL is checked before any network activity,
// and the body is read incrementally so no more than maxBytes plus one read
// chunk is ever buffered.
func (r *Retriever) Fetch(ctx context.Context, rawURL string, timeout time.Duration, maxBytes int64) (*Resource, error) {
	if err := validation.CheckHTTPURL(rawURL); err != nil {
		return nil, apperrors.InvalidField("url", err.Error())
	}
	if maxBytes <= 0 {
		return nil, apperrors.Validation("max_bytes must be positive")
	}

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	start := time.Now()
	log := r.log.WithContext(ctx)
	resp, err := r.http.Do(ctx, httpclient.Request{
		Method:   http.MethodGet,
		Path:     rawURL,
		MaxBytes: maxBytes,
	})
	if err != nil {
		mapped := mapError(err, timeout, maxBytes)
		log.Warn("download failed", logger.Fields(
			logger.FieldURL, rawURL,
			logger.FieldError, err.Error(),
			logger.FieldDuration, time.Since(start).Milliseconds(),
		))
		return nil, mapped
	}

	log.Info("download complete", logger.Fields(
		logger.FieldURL, rawURL,
		logger.FieldBytes, len(resp.Body),
		logger.FieldDuration, time.Since(start).Milliseconds(),
	))

	return &Resource{
		URL:         rawURL,
		FileName:    fileName(rawURL),
		ContentType: resp.ContentType(),
		Data:        resp.Body,
	}, nil
}

// mapError translates transport failures into the retrieval taxonomy.
// Caller cancellation is returned as the bare context error.
func mapError(err error, timeout time.Duration, maxBytes int64) error {
	herr, ok := httpclient.AsError(err)
	if !ok {
		return apperrors.Upstream(0).WithCause(err)
	}
	switch herr.Code {
	case httpclient.ErrCodeCanceled:
		return context.Canceled
	case httpclient.ErrCodeTimeout:
		return apperrors.DownloadTimeout(timeout.Seconds()).WithCause(err)
	case httpclient.ErrCodeTooLarge:
		return apperrors.PayloadTooLarge(maxBytes).WithCause(err)
	case httpclient.ErrCodeValidation:
		if herr.StatusCode == 0 {
			return apperrors.InvalidField("url", herr.Message).WithCause(err)
		}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return apperrors.DownloadTimeout(timeout.Seconds()).WithCause(err)
	}
	return apperrors.Upstream(herr.StatusCode).WithCause(err)
}

// fileName returns the last path segment of rawURL, or "download".
func fileName(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "download"
	}
	base := path.Base(u.Path)
	if base == "." || base == "/" || base == "" {
		return "download"
	}
	return base
}
