package errors

import (
	"errors"
	"testing"
)

func TestSentinelErrors(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantMsg string
	}{
		{"ErrAlreadyRunning", ErrAlreadyRunning, "botwire: already running"},
		{"ErrNotRunning", ErrNotRunning, "botwire: not running"},
		{"ErrNoSubscriber", ErrNoSubscriber, "botwire: no event subscriber"},
		{"ErrHandlerRequired", ErrHandlerRequired, "botwire: action handler is required"},
		{"ErrLoggerRequired", ErrLoggerRequired, "botwire: logger is required"},
		{"ErrConverterRequired", ErrConverterRequired, "botwire: standard event converter is required"},
		{"ErrPublisherRequired", ErrPublisherRequired, "botwire: publisher is required"},
		{"ErrTopicRequired", ErrTopicRequired, "botwire: topic is required"},
		{"ErrAddressRequired", ErrAddressRequired, "botwire: transport address is required"},
		{"ErrSubscriptionClosed", ErrSubscriptionClosed, "botwire: subscription closed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.wantMsg {
				t.Errorf("Error() = %q, want %q", got, tt.wantMsg)
			}
		})
	}
}

func TestConfigValidationError(t *testing.T) {
	inner := errors.New("heartbeat interval must be positive")
	err := ConfigValidationError{Err: inner}

	want := "botwire: invalid configuration: heartbeat interval must be positive"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}

	if unwrapped := err.Unwrap(); unwrapped != inner {
		t.Errorf("Unwrap() = %v, want %v", unwrapped, inner)
	}
}

func TestNewConfigValidationError(t *testing.T) {
	t.Run("nil error returns nil", func(t *testing.T) {
		if err := NewConfigValidationError(nil); err != nil {
			t.Errorf("NewConfigValidationError(nil) = %v, want nil", err)
		}
	})

	t.Run("errors.Is matches the wrapped error", func(t *testing.T) {
		inner := errors.New("bad bind address")
		err := NewConfigValidationError(inner)

		var cfgErr ConfigValidationError
		if !errors.As(err, &cfgErr) {
			t.Fatalf("expected ConfigValidationError, got %T", err)
		}
		if !errors.Is(err, inner) {
			t.Error("errors.Is should match wrapped error")
		}
	})
}
