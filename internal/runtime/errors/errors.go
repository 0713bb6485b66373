package errors

import sterrors "errors"

var (
	ErrAlreadyRunning     = sterrors.New("botwire: already running")
	ErrNotRunning         = sterrors.New("botwire: not running")
	ErrNoSubscriber       = sterrors.New("botwire: no event subscriber")
	ErrHandlerRequired    = sterrors.New("botwire: action handler is required")
	ErrLoggerRequired     = sterrors.New("botwire: logger is required")
	ErrConverterRequired  = sterrors.New("botwire: standard event converter is required")
	ErrPublisherRequired  = sterrors.New("botwire: publisher is required")
	ErrTopicRequired      = sterrors.New("botwire: topic is required")
	ErrAddressRequired    = sterrors.New("botwire: transport address is required")
	ErrSubscriptionClosed = sterrors.New("botwire: subscription closed")
	ErrWebhookRejected    = sterrors.New("botwire: webhook endpoint rejected the event")
)

// ConfigValidationError wraps the detail of a rejected configuration so
// callers can branch on the error kind without parsing messages.
type ConfigValidationError struct {
	Err error
}

func (e ConfigValidationError) Error() string {
	return "botwire: invalid configuration: " + e.Err.Error()
}

func (e ConfigValidationError) Unwrap() error {
	return e.Err
}

// NewConfigValidationError wraps err in a ConfigValidationError. A nil err
// returns nil.
func NewConfigValidationError(err error) error {
	if err == nil {
		return nil
	}
	return ConfigValidationError{Err: err}
}
