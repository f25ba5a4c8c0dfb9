package gateway

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrInvalidMethod is returned for an empty or malformed procedure name
	ErrInvalidMethod = errors.New("invalid procedure name")

	// ErrTransport matches any network level failure, including context cancellation
	ErrTransport = errors.New("gateway transport failed")

	// ErrUnexpectedStatus matches a *StatusError
	ErrUnexpectedStatus = errors.New("gateway returned non-2xx status")

	// ErrMalformedResponse is returned when the body is not a JSON object
	ErrMalformedResponse = errors.New("malformed gateway response")

	// ErrResponseKeyMissing is returned when a parsed response lacks the procedure's unwrap key
	ErrResponseKeyMissing = errors.New("response key missing")
)

// TransportError wraps the error returned by the HTTP layer.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", ErrTransport, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

func (e *TransportError) Is(target error) bool { return target == ErrTransport }

// StatusError carries a non-2xx HTTP response.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: %d %s", ErrUnexpectedStatus, e.StatusCode, e.Body)
}

func (e *StatusError) Is(target error) bool { return target == ErrUnexpectedStatus }

// RemoteError is the router level error object the gateway sends in place of a procedure response,
// e.g. {"error_response":{"code":"19","zh_desc":"...","en_desc":"Invalid access_token"}}.
type RemoteError struct {
	Code   string `json:"code"`
	ZhDesc string `json:"zh_desc"`
	EnDesc string `json:"en_desc"`
}

func (e *RemoteError) Error() string {
	desc := e.EnDesc
	if desc == "" {
		desc = e.ZhDesc
	}
	return fmt.Sprintf("gateway error %s: %s", e.Code, desc)
}

func (e *RemoteError) Is(target error) bool { return target == ErrResponseKeyMissing }

// remoteErrorKey is the top-level key the router uses for RemoteError
const remoteErrorKey = "error_response"

// isContainable reports whether a failure may be swallowed in permissive mode.
// Envelope construction errors are caller mistakes and always surface.
func isContainable(err error) bool {
	return errors.Is(err, ErrTransport) ||
		errors.Is(err, ErrUnexpectedStatus) ||
		errors.Is(err, ErrMalformedResponse) ||
		errors.Is(err, ErrResponseKeyMissing)
}
