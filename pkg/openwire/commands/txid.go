package commands

import (
	"encoding/hex"
	"strconv"
)

// TransactionId is either a LocalTransactionId or an XATransactionId.
type TransactionId interface {
	DataStructure
	IsXATransaction() bool
	TransactionKey() string
}

// LocalTransactionId identifies a client-local transaction.
type LocalTransactionId struct {
	Value        int64
	ConnectionId string
}

func (t *LocalTransactionId) DataStructureType() byte { return TypeLocalTransactionID }

func (t *LocalTransactionId) IsXATransaction() bool { return false }

func (t *LocalTransactionId) TransactionKey() string { return t.String() }

func (t *LocalTransactionId) String() string {
	return "TX:" + t.ConnectionId + ":" + strconv.FormatInt(t.Value, 10)
}

// XATransactionId carries a distributed transaction branch identifier.
type XATransactionId struct {
	FormatId            int32
	GlobalTransactionId []byte
	BranchQualifier     []byte
}

func (t *XATransactionId) DataStructureType() byte { return TypeXATransactionID }

func (t *XATransactionId) IsXATransaction() bool { return true }

func (t *XATransactionId) TransactionKey() string { return t.String() }

func (t *XATransactionId) String() string {
	return "XID:" + strconv.FormatInt(int64(t.FormatId), 10) + ":" +
		hex.EncodeToString(t.GlobalTransactionId) + ":" +
		hex.EncodeToString(t.BranchQualifier)
}
