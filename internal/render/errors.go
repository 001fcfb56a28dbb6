package render

import "errors"

// Error kinds surfaced by the client. Match them with errors.Is.
var (
	ErrConnectivity      = errors.New("render: connectivity failure")
	ErrService           = errors.New("render: service error")
	ErrMalformedResponse = errors.New("render: malformed response")
	ErrExhaustedRetries  = errors.New("render: submission retries exhausted")
	ErrTimedOut          = errors.New("render: job timed out")
	ErrValidation        = errors.New("render: invalid request")
	ErrCancelled         = errors.New("render: cancelled")
)

// Error is the terminal failure handed to callers. Message is safe to show
// to an end user; Kind is one of the sentinel errors above.
type Error struct {
	Kind    error
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Kind != nil {
		return e.Kind.Error()
	}
	return "render: unknown error"
}

func (e *Error) Unwrap() []error {
	errs := make([]error, 0, 2)
	for _, err := range []error{e.Kind, e.Cause} {
		if err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}

func newError(kind error, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// Message extracts the user-facing text from err.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var rerr *Error
	if errors.As(err, &rerr) {
		return rerr.Error()
	}
	return err.Error()
}
