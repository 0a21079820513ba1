package logger

// Field keys shared by every package so entries can be queried uniformly.
const (
	FieldService    = "service"
	FieldComponent  = "component"
	FieldRequestID  = "request_id"
	FieldOperation  = "operation"
	FieldStage      = "stage"
	FieldCapability = "capability"
	FieldAttempt    = "attempt"
	FieldStatus     = "status"
	FieldError      = "error"
	FieldErrorCode  = "error_code"
	FieldDuration   = "duration_ms"
	FieldBytes      = "bytes"
	FieldURL        = "url"
)

// Fields pairs up alternating keys and values. Non-string keys and a
// trailing key without a value are dropped.
//
//	log.Info("fetched", logger.Fields(logger.FieldURL, u, logger.FieldBytes, n))
func Fields(kvs ...any) map[string]any {
	m := make(map[string]any, len(kvs)/2)
	for i := 1; i < len(kvs); i += 2 {
		if k, ok := kvs[i-1].(string); ok {
			m[k] = kvs[i]
		}
	}
	return m
}
