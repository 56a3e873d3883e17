package client

import "github.com/chris-alexander-pop/openwire-client/pkg/errors"

// Error codes for client operations.
const (
	CodeClosed                = "CLIENT_CLOSED"
	CodeIllegalState          = "CLIENT_ILLEGAL_STATE"
	CodeSendTimeout           = "CLIENT_SEND_TIMEOUT"
	CodeBrokerError           = "CLIENT_BROKER_ERROR"
	CodeTransactionRolledBack = "CLIENT_TRANSACTION_ROLLED_BACK"
)

// ErrClosed creates an error for use of a closed connection, session,
// producer or consumer.
func ErrClosed(what string) *errors.AppError {
	return errors.Newf(CodeClosed, "%s is closed", what)
}

// ErrIllegalState creates an error for an operation invalid in the current
// state.
func ErrIllegalState(msg string) *errors.AppError {
	return errors.Newf(CodeIllegalState, "%s", msg)
}

// ErrSendTimeout creates an error for a send that outlived sendTimeout.
func ErrSendTimeout(err error) *errors.AppError {
	return errors.New(CodeSendTimeout, "send timed out", err)
}
