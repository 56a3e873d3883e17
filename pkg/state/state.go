// Package state maintains the client-side shadow of everything the broker
// knows about one connection: sessions, producers, consumers, open
// transactions and explicitly created destinations. After a transport
// reconnect the tracker replays this state so the new broker socket picks
// up exactly where the old one left off.
package state

import (
	"github.com/chris-alexander-pop/openwire-client/pkg/openwire/commands"
)

// ConnectionState shadows one connection and owns its child state. Siblings
// keep their creation order: replay must preserve the relative order the
// commands were issued in, and bare map iteration would scramble it.
type ConnectionState struct {
	Info         *commands.ConnectionInfo
	Sessions     map[string]*SessionState
	Transactions map[string]*TransactionState
	Destinations map[string]*commands.DestinationInfo
	Shutdown     bool

	sessionOrder     []string
	transactionOrder []string
	destinationOrder []string
}

func newConnectionState(info *commands.ConnectionInfo) *ConnectionState {
	return &ConnectionState{
		Info:         info,
		Sessions:     make(map[string]*SessionState),
		Transactions: make(map[string]*TransactionState),
		Destinations: make(map[string]*commands.DestinationInfo),
	}
}

func (c *ConnectionState) addSession(key string, session *SessionState) {
	if _, exists := c.Sessions[key]; !exists {
		c.sessionOrder = append(c.sessionOrder, key)
	}
	c.Sessions[key] = session
}

func (c *ConnectionState) removeSession(key string) {
	if _, exists := c.Sessions[key]; exists {
		delete(c.Sessions, key)
		c.sessionOrder = removeKey(c.sessionOrder, key)
	}
}

func (c *ConnectionState) orderedSessions() []*SessionState {
	out := make([]*SessionState, 0, len(c.sessionOrder))
	for _, key := range c.sessionOrder {
		out = append(out, c.Sessions[key])
	}
	return out
}

func (c *ConnectionState) addTransaction(key string, tx *TransactionState) {
	if _, exists := c.Transactions[key]; !exists {
		c.transactionOrder = append(c.transactionOrder, key)
	}
	c.Transactions[key] = tx
}

func (c *ConnectionState) removeTransaction(key string) {
	if _, exists := c.Transactions[key]; exists {
		delete(c.Transactions, key)
		c.transactionOrder = removeKey(c.transactionOrder, key)
	}
}

func (c *ConnectionState) orderedTransactions() []*TransactionState {
	out := make([]*TransactionState, 0, len(c.transactionOrder))
	for _, key := range c.transactionOrder {
		out = append(out, c.Transactions[key])
	}
	return out
}

func (c *ConnectionState) addDestination(key string, info *commands.DestinationInfo) {
	if _, exists := c.Destinations[key]; !exists {
		c.destinationOrder = append(c.destinationOrder, key)
	}
	c.Destinations[key] = info
}

func (c *ConnectionState) removeDestination(key string) {
	if _, exists := c.Destinations[key]; exists {
		delete(c.Destinations, key)
		c.destinationOrder = removeKey(c.destinationOrder, key)
	}
}

func (c *ConnectionState) orderedDestinations() []*commands.DestinationInfo {
	out := make([]*commands.DestinationInfo, 0, len(c.destinationOrder))
	for _, key := range c.destinationOrder {
		out = append(out, c.Destinations[key])
	}
	return out
}

// SessionState shadows one session.
type SessionState struct {
	Info      *commands.SessionInfo
	Producers map[string]*ProducerState
	Consumers map[string]*ConsumerState

	producerOrder []string
	consumerOrder []string
}

func newSessionState(info *commands.SessionInfo) *SessionState {
	return &SessionState{
		Info:      info,
		Producers: make(map[string]*ProducerState),
		Consumers: make(map[string]*ConsumerState),
	}
}

func (s *SessionState) addProducer(key string, producer *ProducerState) {
	if _, exists := s.Producers[key]; !exists {
		s.producerOrder = append(s.producerOrder, key)
	}
	s.Producers[key] = producer
}

func (s *SessionState) removeProducer(key string) {
	if _, exists := s.Producers[key]; exists {
		delete(s.Producers, key)
		s.producerOrder = removeKey(s.producerOrder, key)
	}
}

func (s *SessionState) orderedProducers() []*ProducerState {
	out := make([]*ProducerState, 0, len(s.producerOrder))
	for _, key := range s.producerOrder {
		out = append(out, s.Producers[key])
	}
	return out
}

func (s *SessionState) addConsumer(key string, consumer *ConsumerState) {
	if _, exists := s.Consumers[key]; !exists {
		s.consumerOrder = append(s.consumerOrder, key)
	}
	s.Consumers[key] = consumer
}

func (s *SessionState) removeConsumer(key string) {
	if _, exists := s.Consumers[key]; exists {
		delete(s.Consumers, key)
		s.consumerOrder = removeKey(s.consumerOrder, key)
	}
}

func (s *SessionState) orderedConsumers() []*ConsumerState {
	out := make([]*ConsumerState, 0, len(s.consumerOrder))
	for _, key := range s.consumerOrder {
		out = append(out, s.Consumers[key])
	}
	return out
}

func removeKey(keys []string, key string) []string {
	for i, k := range keys {
		if k == key {
			return append(keys[:i], keys[i+1:]...)
		}
	}
	return keys
}

// ProducerState shadows one producer plus its optional send audit.
type ProducerState struct {
	Info  *commands.ProducerInfo
	audit *sendAudit
}

// ConsumerState shadows one consumer.
type ConsumerState struct {
	Info *commands.ConsumerInfo
}

// TransactionState shadows one open transaction: its id and the ordered
// commands executed under it, replayed after a BEGIN on recovery.
type TransactionState struct {
	Id       commands.TransactionId
	Commands []commands.Command
	Prepared bool
}

// sendAudit is a bounded ring of recently sent message ids. Entries whose
// send the broker has acknowledged are skipped during replay; the ring
// evicts oldest-first when full.
type sendAudit struct {
	entries []auditEntry
	next    int
	filled  bool
}

type auditEntry struct {
	id    *commands.MessageId
	acked bool
}

func newSendAudit(depth int) *sendAudit {
	if depth <= 0 {
		depth = 1
	}
	return &sendAudit{entries: make([]auditEntry, depth)}
}

func (a *sendAudit) record(id *commands.MessageId) {
	a.entries[a.next] = auditEntry{id: id}
	a.next++
	if a.next == len(a.entries) {
		a.next = 0
		a.filled = true
	}
}

// ackAll marks every audited send as broker-acknowledged; a ProducerAck
// advances the whole window for its producer.
func (a *sendAudit) ackAll() {
	for i := range a.entries {
		if a.entries[i].id != nil {
			a.entries[i].acked = true
		}
	}
}

func (a *sendAudit) isAcked(id *commands.MessageId) bool {
	for i := range a.entries {
		if a.entries[i].acked && a.entries[i].id.Equal(id) {
			return true
		}
	}
	return false
}
