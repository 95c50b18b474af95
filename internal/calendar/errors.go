package calendar

import "errors"

var (
	// ErrGatewayUnavailable covers authentication, network and timeout failures.
	ErrGatewayUnavailable = errors.New("calendar service unavailable")

	// ErrUnexpectedResponse is returned when the remote calendar sends event
	// data that cannot be interpreted.
	ErrUnexpectedResponse = errors.New("unexpected response from calendar service")
)

// isUnexpected reports whether err came from interpreting remote data
// rather than from reaching the service.
func isUnexpected(err error) bool {
	return errors.Is(err, ErrUnexpectedResponse)
}
