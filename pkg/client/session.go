package client

import (
	"sync"
	"sync/atomic"

	"github.com/chris-alexander-pop/openwire-client/pkg/logger"
	"github.com/chris-alexander-pop/openwire-client/pkg/openwire/commands"
)

// sessionState is the session lifecycle: stop preserves consumer queues,
// start resumes them, close is terminal.
type sessionState int32

const (
	sessionStopped sessionState = iota
	sessionOpen
	sessionClosing
	sessionClosed
)

// Session owns producers, consumers and the transaction context. One
// session serializes its message listeners: no two listeners of the same
// session run concurrently.
type Session struct {
	conn    *Connection
	info    *commands.SessionInfo
	ackMode AckMode

	producerSeq atomic.Int64
	consumerSeq atomic.Int64

	mu        sync.Mutex
	state     sessionState
	producers map[string]*MessageProducer
	consumers map[string]*MessageConsumer

	// dispatchMu serializes listener invocation across the session's
	// consumers.
	dispatchMu sync.Mutex

	tx *TransactionContext
}

func newSession(conn *Connection, info *commands.SessionInfo, mode AckMode) *Session {
	s := &Session{
		conn:      conn,
		info:      info,
		ackMode:   mode,
		state:     sessionStopped,
		producers: make(map[string]*MessageProducer),
		consumers: make(map[string]*MessageConsumer),
	}
	s.tx = newTransactionContext(s)
	if mode.IsTransacted() {
		// A transacted session always has an open transaction.
		if err := s.tx.beginLocal(); err != nil {
			logger.L().Warn("failed to open initial transaction", "error", err)
		}
	}
	return s
}

// AckMode returns the session's fixed acknowledgement mode.
func (s *Session) AckMode() AckMode { return s.ackMode }

// SessionId returns the canonical session id string.
func (s *Session) SessionId() string { return s.info.SessionId.String() }

// Transaction exposes the session's transaction context for XA use.
func (s *Session) Transaction() *TransactionContext { return s.tx }

// CreateProducer creates a producer. A nil destination makes an anonymous
// producer whose destination is chosen per send.
func (s *Session) CreateProducer(destination commands.Destination) (*MessageProducer, error) {
	if s.isClosed() {
		return nil, ErrClosed("session")
	}
	producerId := &commands.ProducerId{
		ConnectionId: s.info.SessionId.ConnectionId,
		SessionId:    s.info.SessionId.Value,
		Value:        s.producerSeq.Add(1),
	}
	info := &commands.ProducerInfo{
		ProducerId:    producerId,
		Destination:   destination,
		DispatchAsync: s.conn.cfg.DispatchAsync,
		WindowSize:    s.conn.cfg.ProducerWindowSize,
	}
	if _, err := s.conn.syncRequest(info); err != nil {
		return nil, err
	}
	producer := newMessageProducer(s, info)
	s.mu.Lock()
	s.producers[producerId.String()] = producer
	s.mu.Unlock()
	return producer, nil
}

// ConsumerOption configures a consumer at creation.
type ConsumerOption func(*commands.ConsumerInfo)

// WithSelector sets the broker-side message selector.
func WithSelector(selector string) ConsumerOption {
	return func(info *commands.ConsumerInfo) { info.Selector = selector }
}

// WithPrefetch overrides the connection's default prefetch size.
func WithPrefetch(prefetch int32) ConsumerOption {
	return func(info *commands.ConsumerInfo) { info.PrefetchSize = prefetch }
}

// WithNoLocal suppresses delivery of this connection's own publications.
func WithNoLocal() ConsumerOption {
	return func(info *commands.ConsumerInfo) { info.NoLocal = true }
}

// WithDurableSubscription names a durable topic subscription.
func WithDurableSubscription(name string) ConsumerOption {
	return func(info *commands.ConsumerInfo) { info.SubscriptionName = name }
}

// WithExclusive requests exclusive consumption of a queue.
func WithExclusive() ConsumerOption {
	return func(info *commands.ConsumerInfo) { info.Exclusive = true }
}

// WithRetroactive asks for messages published before subscription.
func WithRetroactive() ConsumerOption {
	return func(info *commands.ConsumerInfo) { info.Retroactive = true }
}

// WithBrowser makes the consumer a queue browser: it sees messages without
// consuming them.
func WithBrowser() ConsumerOption {
	return func(info *commands.ConsumerInfo) { info.Browser = true }
}

// WithOptimizedAcknowledge batches standard acks at half the prefetch
// window instead of acking every message.
func WithOptimizedAcknowledge() ConsumerOption {
	return func(info *commands.ConsumerInfo) { info.OptimizedAcknowledge = true }
}

// WithConsumerPriority biases broker dispatch toward this consumer.
func WithConsumerPriority(priority byte) ConsumerOption {
	return func(info *commands.ConsumerInfo) { info.Priority = priority }
}

// CreateConsumer subscribes a consumer to a destination.
func (s *Session) CreateConsumer(destination commands.Destination, opts ...ConsumerOption) (*MessageConsumer, error) {
	if s.isClosed() {
		return nil, ErrClosed("session")
	}
	consumerId := &commands.ConsumerId{
		ConnectionId: s.info.SessionId.ConnectionId,
		SessionId:    s.info.SessionId.Value,
		Value:        s.consumerSeq.Add(1),
	}
	info := &commands.ConsumerInfo{
		ConsumerId:    consumerId,
		Destination:   destination,
		PrefetchSize:  s.conn.cfg.PrefetchSize,
		DispatchAsync: s.conn.cfg.DispatchAsync,
	}
	for _, opt := range opts {
		opt(info)
	}
	consumer := newMessageConsumer(s, info)
	s.mu.Lock()
	s.consumers[consumerId.String()] = consumer
	started := s.state == sessionOpen
	s.mu.Unlock()

	if _, err := s.conn.syncRequest(info); err != nil {
		s.mu.Lock()
		delete(s.consumers, consumerId.String())
		s.mu.Unlock()
		return nil, err
	}
	if started {
		consumer.start()
	}
	return consumer, nil
}

// Acknowledge acks every delivered message of the session; the
// CLIENT_ACKNOWLEDGE contract is that acknowledging any message
// acknowledges them all.
func (s *Session) Acknowledge() error {
	if s.ackMode != ClientAcknowledge && s.ackMode != IndividualAcknowledge {
		return ErrIllegalState("Acknowledge requires CLIENT_ACKNOWLEDGE or INDIVIDUAL_ACKNOWLEDGE")
	}
	for _, consumer := range s.snapshotConsumers() {
		if err := consumer.acknowledgeDelivered(); err != nil {
			return err
		}
	}
	return nil
}

// Commit commits the session's transaction. Only valid on transacted
// sessions.
func (s *Session) Commit() error {
	if !s.ackMode.IsTransacted() {
		return ErrIllegalState("Commit requires SESSION_TRANSACTED")
	}
	return s.tx.CommitLocal()
}

// Rollback rolls back the session's transaction, rewinding delivered
// messages for redelivery.
func (s *Session) Rollback() error {
	if !s.ackMode.IsTransacted() {
		return ErrIllegalState("Rollback requires SESSION_TRANSACTED")
	}
	return s.tx.RollbackLocal()
}

// Recover redelivers every unacknowledged message of a non-transacted
// session with its redelivered flag set.
func (s *Session) Recover() error {
	if s.ackMode.IsTransacted() {
		return ErrIllegalState("Recover is not valid on a transacted session")
	}
	for _, consumer := range s.snapshotConsumers() {
		consumer.rollbackDelivered(false)
	}
	return nil
}

// Close rolls back any open transaction, closes consumers and producers
// and removes the session broker-side. Close waits for a running listener
// to return but cancels queued invocations.
func (s *Session) Close() error {
	s.conn.removeSession(s.info.SessionId.Value)
	return s.closeInternal(false)
}

func (s *Session) closeInternal(connectionClosing bool) error {
	s.mu.Lock()
	if s.state == sessionClosed || s.state == sessionClosing {
		s.mu.Unlock()
		return nil
	}
	s.state = sessionClosing
	consumers := snapshotConsumerMap(s.consumers)
	producers := snapshotProducerMap(s.producers)
	s.consumers = make(map[string]*MessageConsumer)
	s.producers = make(map[string]*MessageProducer)
	s.mu.Unlock()

	if s.ackMode.IsTransacted() && s.tx.InLocalTransaction() {
		if err := s.tx.RollbackLocal(); err != nil {
			logger.L().Debug("rollback on session close failed", "error", err)
		}
	}

	var lastDelivered int64
	for _, consumer := range consumers {
		lastDelivered = max64(lastDelivered, consumer.lastDeliveredSequence())
		if err := consumer.closeInternal(connectionClosing); err != nil {
			logger.L().Debug("consumer close failed", "error", err)
		}
	}
	for _, producer := range producers {
		if err := producer.closeInternal(connectionClosing); err != nil {
			logger.L().Debug("producer close failed", "error", err)
		}
	}

	if !connectionClosing {
		remove := &commands.RemoveInfo{
			ObjectId:                s.info.SessionId,
			LastDeliveredSequenceId: lastDelivered,
		}
		if _, err := s.conn.syncRequest(remove); err != nil {
			logger.L().Debug("session removal failed", "error", err)
		}
	}

	s.mu.Lock()
	s.state = sessionClosed
	s.mu.Unlock()
	return nil
}

func (s *Session) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == sessionClosed || s.state == sessionClosing
}

func (s *Session) start() {
	s.mu.Lock()
	if s.state != sessionStopped {
		s.mu.Unlock()
		return
	}
	s.state = sessionOpen
	consumers := snapshotConsumerMap(s.consumers)
	s.mu.Unlock()
	for _, consumer := range consumers {
		consumer.start()
	}
}

func (s *Session) stop() {
	s.mu.Lock()
	if s.state != sessionOpen {
		s.mu.Unlock()
		return
	}
	s.state = sessionStopped
	consumers := snapshotConsumerMap(s.consumers)
	s.mu.Unlock()
	for _, consumer := range consumers {
		consumer.stop()
	}
}

func (s *Session) transportInterrupted() {
	for _, consumer := range s.snapshotConsumers() {
		consumer.transportInterrupted()
	}
}

func (s *Session) transportResumed() {
	// Broker state was replayed; consumers resume with empty windows and
	// the broker redelivers whatever was unacknowledged.
	for _, consumer := range s.snapshotConsumers() {
		consumer.transportResumed()
	}
}

func (s *Session) findConsumer(id *commands.ConsumerId) *MessageConsumer {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.consumers[id.String()]
}

func (s *Session) findProducer(id *commands.ProducerId) *MessageProducer {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.producers[id.String()]
}

func (s *Session) removeConsumer(id *commands.ConsumerId) {
	s.mu.Lock()
	delete(s.consumers, id.String())
	s.mu.Unlock()
}

func (s *Session) removeProducer(id *commands.ProducerId) {
	s.mu.Lock()
	delete(s.producers, id.String())
	s.mu.Unlock()
}

func (s *Session) snapshotConsumers() []*MessageConsumer {
	s.mu.Lock()
	defer s.mu.Unlock()
	return snapshotConsumerMap(s.consumers)
}

func snapshotConsumerMap(m map[string]*MessageConsumer) []*MessageConsumer {
	out := make([]*MessageConsumer, 0, len(m))
	for _, consumer := range m {
		out = append(out, consumer)
	}
	return out
}

func snapshotProducerMap(m map[string]*MessageProducer) []*MessageProducer {
	out := make([]*MessageProducer, 0, len(m))
	for _, producer := range m {
		out = append(out, producer)
	}
	return out
}

func max64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}
