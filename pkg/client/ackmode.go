package client

// AckMode fixes a session's acknowledgement strategy at creation time.
type AckMode int

const (
	// AutoAcknowledge acks each message as soon as its listener returns or
	// the receive call hands it to the application.
	AutoAcknowledge AckMode = iota

	// ClientAcknowledge defers acks until the application calls
	// Session.Acknowledge, which acks every delivered message of the
	// session.
	ClientAcknowledge

	// DupsOkAcknowledge batches acks, trading lazier acknowledgement for
	// possible redelivery after a failure.
	DupsOkAcknowledge

	// IndividualAcknowledge acks exactly one message at a time.
	IndividualAcknowledge

	// SessionTransacted stages acks inside the session's transaction; they
	// are sent at commit and rewound at rollback.
	SessionTransacted
)

func (m AckMode) String() string {
	switch m {
	case AutoAcknowledge:
		return "AUTO_ACKNOWLEDGE"
	case ClientAcknowledge:
		return "CLIENT_ACKNOWLEDGE"
	case DupsOkAcknowledge:
		return "DUPS_OK_ACKNOWLEDGE"
	case IndividualAcknowledge:
		return "INDIVIDUAL_ACKNOWLEDGE"
	case SessionTransacted:
		return "SESSION_TRANSACTED"
	}
	return "UNKNOWN"
}

// IsTransacted reports whether the mode stages acks in a transaction.
func (m AckMode) IsTransacted() bool { return m == SessionTransacted }
