package commands

// ConnectionInfo announces a new connection to the broker. It must be the
// first command after wire-format negotiation.
type ConnectionInfo struct {
	BaseCommand
	ConnectionId          *ConnectionId
	ClientId              string
	Password              string
	UserName              string
	BrokerPath            []*BrokerId
	BrokerMasterConnector bool
	Manageable            bool
	ClientMaster          bool
	FaultTolerant         bool
	FailoverReconnect     bool
}

func (c *ConnectionInfo) DataStructureType() byte { return TypeConnectionInfo }

// SessionInfo announces a session within an established connection.
type SessionInfo struct {
	BaseCommand
	SessionId *SessionId
}

func (s *SessionInfo) DataStructureType() byte { return TypeSessionInfo }

// ConsumerInfo subscribes a consumer to a destination. PrefetchSize bounds
// the number of dispatches the broker may have outstanding to this consumer.
type ConsumerInfo struct {
	BaseCommand
	ConsumerId                 *ConsumerId
	Browser                    bool
	Destination                Destination
	PrefetchSize               int32
	MaximumPendingMessageLimit int32
	DispatchAsync              bool
	Selector                   string
	SubscriptionName           string
	NoLocal                    bool
	Exclusive                  bool
	Retroactive                bool
	Priority                   byte
	BrokerPath                 []*BrokerId
	AdditionalPredicate        DataStructure
	NetworkSubscription        bool
	OptimizedAcknowledge       bool
	NoRangeAcks                bool
	NetworkConsumerPath        []*ConsumerId
}

func (c *ConsumerInfo) DataStructureType() byte { return TypeConsumerInfo }

// IsDurable reports whether this consumer is a durable topic subscription.
func (c *ConsumerInfo) IsDurable() bool { return c.SubscriptionName != "" }

// ProducerInfo announces a producer. A zero WindowSize disables producer
// flow-control windows.
type ProducerInfo struct {
	BaseCommand
	ProducerId    *ProducerId
	Destination   Destination
	BrokerPath    []*BrokerId
	DispatchAsync bool
	WindowSize    int32
}

func (p *ProducerInfo) DataStructureType() byte { return TypeProducerInfo }

// Transaction phases carried by TransactionInfo.Type.
const (
	TransactionBegin          byte = 0
	TransactionPrepare        byte = 1
	TransactionCommitOnePhase byte = 2
	TransactionCommitTwoPhase byte = 3
	TransactionRollback       byte = 4
	TransactionRecover        byte = 5
	TransactionForget         byte = 6
	TransactionEnd            byte = 7
)

// XA vote results returned from prepare.
const (
	XAOk       int32 = 0
	XAReadOnly int32 = 3
)

// TransactionInfo drives every transaction phase against the broker.
type TransactionInfo struct {
	BaseCommand
	ConnectionId  *ConnectionId
	TransactionId TransactionId
	Type          byte
}

func (t *TransactionInfo) DataStructureType() byte { return TypeTransactionInfo }

// DestinationInfo operation types.
const (
	DestinationAdd    byte = 0
	DestinationRemove byte = 1
)

// DestinationInfo creates or removes a destination broker-side. Timeout
// bounds how long the broker may defer removal while the destination is in
// use.
type DestinationInfo struct {
	BaseCommand
	ConnectionId  *ConnectionId
	Destination   Destination
	OperationType byte
	Timeout       int64
	BrokerPath    []*BrokerId
}

func (d *DestinationInfo) DataStructureType() byte { return TypeDestinationInfo }

// RemoveSubscriptionInfo deletes a durable subscription.
type RemoveSubscriptionInfo struct {
	BaseCommand
	ConnectionId     *ConnectionId
	SubscriptionName string
	ClientId         string
}

func (r *RemoveSubscriptionInfo) DataStructureType() byte { return TypeRemoveSubscriptionInfo }

// RemoveInfo retires the object named by ObjectId (a connection, session,
// producer, consumer or transaction id). LastDeliveredSequenceId lets the
// broker requeue anything dispatched past that point.
type RemoveInfo struct {
	BaseCommand
	ObjectId                DataStructure
	LastDeliveredSequenceId int64
}

func (r *RemoveInfo) DataStructureType() byte { return TypeRemoveInfo }
