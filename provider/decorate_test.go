package provider

import (
	"context"
	"errors"
	"fmt"
	"testing"

	apperrors "github.com/kbukum/medpipe/errors"
	"github.com/kbukum/medpipe/resilience"
)

func TestErrorCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"canceled", context.Canceled, "Canceled"},
		{"deadline wrapped", fmt.Errorf("call: %w", context.DeadlineExceeded), "Timeout"},
		{"circuit open", fmt.Errorf("call: %w", resilience.ErrCircuitOpen), "CircuitOpen"},
		{"app error", apperrors.Upstream(502), string(apperrors.ErrCodeUpstream)},
		{"untyped", errors.New("boom"), string(apperrors.ErrCodeInternal)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := errorCode(tt.err); got != tt.want {
				t.Errorf("errorCode = %q, want %q", got, tt.want)
			}
		})
	}
}
