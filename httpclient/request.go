package httpclient

import "net/http"

// Request is one outbound call.
type Request struct {
	// Method defaults to GET.
	Method string
	// Path is joined to the adapter's BaseURL unless it is an absolute URL.
	Path string
	// Headers override the adapter defaults.
	Headers map[string]string
	Query   map[string]string
	// Body may be nil, an io.Reader, []byte, string, *MultipartBody, or any
	// value, which is sent as JSON.
	Body any
	// Auth replaces the adapter's credential for this call.
	Auth *AuthConfig
	// MaxBytes replaces the adapter's MaxResponseBytes for this call.
	MaxBytes int64
}

// Response is a fully buffered reply.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// IsSuccess reports a 2xx status.
func (r *Response) IsSuccess() bool { return r.StatusCode/100 == 2 }

// ContentType is the Content-Type header of the reply.
func (r *Response) ContentType() string { return r.Header.Get("Content-Type") }
