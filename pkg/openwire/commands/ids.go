package commands

import "strconv"

// ConnectionId identifies one client connection to a broker. Its value is
// globally unique (generated from host, pid, timestamp and a counter).
type ConnectionId struct {
	Value string
}

func (c *ConnectionId) DataStructureType() byte { return TypeConnectionID }

func (c *ConnectionId) String() string { return c.Value }

// SessionId identifies a session within a connection.
type SessionId struct {
	ConnectionId string
	Value        int64
}

func (s *SessionId) DataStructureType() byte { return TypeSessionID }

func (s *SessionId) String() string {
	return s.ConnectionId + ":" + strconv.FormatInt(s.Value, 10)
}

// ProducerId identifies a producer within a session.
type ProducerId struct {
	ConnectionId string
	SessionId    int64
	Value        int64
}

func (p *ProducerId) DataStructureType() byte { return TypeProducerID }

func (p *ProducerId) String() string {
	return p.ConnectionId + ":" + strconv.FormatInt(p.SessionId, 10) + ":" + strconv.FormatInt(p.Value, 10)
}

// ParentSessionId returns the id of the session owning this producer.
func (p *ProducerId) ParentSessionId() SessionId {
	return SessionId{ConnectionId: p.ConnectionId, Value: p.SessionId}
}

// ConsumerId identifies a consumer within a session.
type ConsumerId struct {
	ConnectionId string
	SessionId    int64
	Value        int64
}

func (c *ConsumerId) DataStructureType() byte { return TypeConsumerID }

func (c *ConsumerId) String() string {
	return c.ConnectionId + ":" + strconv.FormatInt(c.SessionId, 10) + ":" + strconv.FormatInt(c.Value, 10)
}

// ParentSessionId returns the id of the session owning this consumer.
func (c *ConsumerId) ParentSessionId() SessionId {
	return SessionId{ConnectionId: c.ConnectionId, Value: c.SessionId}
}

// BrokerId identifies a broker in a network of brokers.
type BrokerId struct {
	Value string
}

func (b *BrokerId) DataStructureType() byte { return TypeBrokerID }

func (b *BrokerId) String() string { return b.Value }

// MessageId identifies a message by its producer and the producer's send
// sequence. BrokerSequenceId is assigned broker-side and is zero until the
// broker has seen the message.
type MessageId struct {
	ProducerId         *ProducerId
	ProducerSequenceId int64
	BrokerSequenceId   int64
}

func (m *MessageId) DataStructureType() byte { return TypeMessageID }

func (m *MessageId) String() string {
	if m.ProducerId == nil {
		return ":" + strconv.FormatInt(m.ProducerSequenceId, 10)
	}
	return m.ProducerId.String() + ":" + strconv.FormatInt(m.ProducerSequenceId, 10)
}

// Equal reports value equality of two message ids. Broker sequence ids are
// ignored; the producer sequence is the identity.
func (m *MessageId) Equal(other *MessageId) bool {
	if m == nil || other == nil {
		return m == other
	}
	if m.ProducerSequenceId != other.ProducerSequenceId {
		return false
	}
	if m.ProducerId == nil || other.ProducerId == nil {
		return m.ProducerId == other.ProducerId
	}
	return *m.ProducerId == *other.ProducerId
}
