package transport

import "github.com/chris-alexander-pop/openwire-client/pkg/errors"

// Error codes for transport operations.
const (
	CodeTimeout            = "TRANSPORT_TIMEOUT"
	CodeClosed             = "TRANSPORT_CLOSED"
	CodeNotConnected       = "TRANSPORT_NOT_CONNECTED"
	CodeNegotiationTimeout = "TRANSPORT_NEGOTIATION_TIMEOUT"
	CodeInactivity         = "TRANSPORT_INACTIVITY"
	CodeInterrupted        = "TRANSPORT_INTERRUPTED"
	CodeBrokerError        = "TRANSPORT_BROKER_ERROR"
)

// ErrTimeout creates an error for a request that outlived its deadline.
func ErrTimeout(what string) *errors.AppError {
	return errors.Newf(CodeTimeout, "timed out waiting for %s", what)
}

// ErrClosed creates an error for operations on a closed transport.
func ErrClosed(err error) *errors.AppError {
	return errors.New(CodeClosed, "transport already closed", err)
}

// ErrNotConnected creates an error for sends while disconnected.
func ErrNotConnected(err error) *errors.AppError {
	return errors.New(CodeNotConnected, "transport not connected", err)
}

// ErrNegotiationTimeout creates an error for a peer that never sent its
// wire format.
func ErrNegotiationTimeout() *errors.AppError {
	return errors.Newf(CodeNegotiationTimeout, "wire format negotiation timeout: peer did not send its wire format")
}

// ErrInactivity creates an error for a peer that stopped sending frames.
func ErrInactivity(err error) *errors.AppError {
	return errors.New(CodeInactivity, "no frames received within the inactivity window", err)
}

// ErrBroker wraps a broker-reported exception for a request caller.
func ErrBroker(cause error) *errors.AppError {
	return errors.New(CodeBrokerError, "broker reported an error", cause)
}
