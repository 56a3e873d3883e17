package state

import (
	"context"
	"sync"

	"github.com/chris-alexander-pop/openwire-client/pkg/logger"
	"github.com/chris-alexander-pop/openwire-client/pkg/openwire/commands"
)

// defaultAuditDepth bounds the per-producer send audit ring. It is a
// client-side constant and is not negotiated with the broker; a mismatch
// with the broker's own audit depth can only produce extra (permitted)
// duplicates on recovery, never loss.
const defaultAuditDepth = 2048

// Sender is the slice of the transport interface replay needs.
type Sender interface {
	Oneway(ctx context.Context, cmd commands.Command) error
}

// Options configure what the tracker records beyond the connection tree.
type Options struct {
	// TrackMessages caches recent sends so unacknowledged messages can be
	// replayed after a reconnect.
	TrackMessages bool

	// MaxCacheSize bounds the tracked-message cache in bytes.
	MaxCacheSize int64

	// AuditDepth bounds the per-producer send audit ring.
	AuditDepth int
}

// Tracker shadows broker-visible connection state. Track observes every
// outgoing command; Restore replays the recorded state through a fresh
// transport in the order the broker requires.
type Tracker struct {
	opts Options

	mu              sync.Mutex
	connections     map[string]*ConnectionState
	connectionOrder []string
	interrupted     bool
	messageCache    []commands.MessageVariant
	cachedBytes     int64
}

func NewTracker(opts Options) *Tracker {
	if opts.AuditDepth <= 0 {
		opts.AuditDepth = defaultAuditDepth
	}
	return &Tracker{
		opts:        opts,
		connections: make(map[string]*ConnectionState),
	}
}

// Track records the state effect of one outgoing command. Commands with no
// state effect pass through untouched.
func (t *Tracker) Track(cmd commands.Command) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.interrupted {
		return
	}

	switch c := cmd.(type) {
	case *commands.ConnectionInfo:
		t.addConnection(c)
	case *commands.SessionInfo:
		if conn := t.connections[c.SessionId.ConnectionId]; conn != nil {
			conn.addSession(c.SessionId.String(), newSessionState(c))
		}
	case *commands.ProducerInfo:
		parentSessionId := c.ProducerId.ParentSessionId()
		if session := t.session(c.ProducerId.ConnectionId, parentSessionId.String()); session != nil {
			session.addProducer(c.ProducerId.String(), &ProducerState{Info: c})
		}
	case *commands.ConsumerInfo:
		parentSessionId := c.ConsumerId.ParentSessionId()
		if session := t.session(c.ConsumerId.ConnectionId, parentSessionId.String()); session != nil {
			session.addConsumer(c.ConsumerId.String(), &ConsumerState{Info: c})
		}
	case *commands.DestinationInfo:
		t.trackDestination(c)
	case *commands.TransactionInfo:
		t.trackTransaction(c)
	case *commands.MessageAck:
		t.trackAck(c)
	case *commands.RemoveSubscriptionInfo:
		// No local state: durable subscriptions live broker-side.
	case *commands.RemoveInfo:
		t.trackRemove(c)
	case *commands.ShutdownInfo:
		for _, conn := range t.connections {
			conn.Shutdown = true
		}
	case commands.MessageVariant:
		t.trackMessage(c)
	}
}

// OnProducerAck records a broker send acknowledgement: the producer's whole
// audited window is treated as accepted and its cached messages dropped.
func (t *Tracker) OnProducerAck(ack *commands.ProducerAck) {
	if ack == nil || ack.ProducerId == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if producer := t.producer(ack.ProducerId); producer != nil && producer.audit != nil {
		producer.audit.ackAll()
	}
	if t.opts.TrackMessages {
		kept := t.messageCache[:0]
		var keptBytes int64
		for _, cached := range t.messageCache {
			msg := cached.GetMessage()
			if msg.ProducerId != nil && *msg.ProducerId == *ack.ProducerId {
				continue
			}
			kept = append(kept, cached)
			keptBytes += messageSize(msg)
		}
		t.messageCache = kept
		t.cachedBytes = keptBytes
	}
}

// TransportInterrupted freezes the tracker: no further mutations are
// recorded until the transport resumes.
func (t *Tracker) TransportInterrupted() {
	t.mu.Lock()
	t.interrupted = true
	t.mu.Unlock()
}

// Restore replays the recorded state through sender in broker order:
// connection, then each session with consumers last, then open
// transactions, then tracked destinations, then unacknowledged sends.
// Replayed commands never request responses; completion is signalled by the
// commands that follow. On success the tracker resumes recording.
func (t *Tracker) Restore(ctx context.Context, sender Sender) error {
	t.mu.Lock()
	program := t.replayProgram()
	t.mu.Unlock()

	for _, cmd := range program {
		cmd.SetResponseRequired(false)
		cmd.SetCommandId(0)
		if err := sender.Oneway(ctx, cmd); err != nil {
			return err
		}
	}
	logger.L().Info("connection state restored", "commands", len(program))

	t.mu.Lock()
	t.interrupted = false
	t.mu.Unlock()
	return nil
}

// replayProgram walks every level in creation order so the replay keeps
// the original relative order of the commands it repeats.
func (t *Tracker) replayProgram() []commands.Command {
	var program []commands.Command
	for _, key := range t.connectionOrder {
		conn := t.connections[key]
		if conn.Shutdown {
			continue
		}
		program = append(program, conn.Info)
		for _, session := range conn.orderedSessions() {
			program = append(program, session.Info)
			for _, producer := range session.orderedProducers() {
				program = append(program, producer.Info)
			}
			// Consumers last so the broker does not dispatch into a
			// partially rebuilt session.
			for _, consumer := range session.orderedConsumers() {
				program = append(program, consumer.Info)
			}
		}
		for _, tx := range conn.orderedTransactions() {
			begin := &commands.TransactionInfo{
				ConnectionId:  conn.Info.ConnectionId,
				TransactionId: tx.Id,
				Type:          commands.TransactionBegin,
			}
			program = append(program, begin)
			program = append(program, tx.Commands...)
		}
		for _, destination := range conn.orderedDestinations() {
			program = append(program, destination)
		}
	}
	if t.opts.TrackMessages {
		for _, cached := range t.messageCache {
			if t.sendAcked(cached.GetMessage()) {
				continue
			}
			program = append(program, cached)
		}
	}
	return program
}

func (t *Tracker) sendAcked(msg *commands.Message) bool {
	if msg.ProducerId == nil || msg.MessageId == nil {
		return false
	}
	producer := t.producer(msg.ProducerId)
	return producer != nil && producer.audit != nil && producer.audit.isAcked(msg.MessageId)
}

// Snapshot returns a copy of the current connection states, keyed by
// connection id. Tests and diagnostics only.
func (t *Tracker) Snapshot() map[string]ConnectionState {
	t.mu.Lock()
	defer t.mu.Unlock()
	snapshot := make(map[string]ConnectionState, len(t.connections))
	for id, conn := range t.connections {
		snapshot[id] = *conn
	}
	return snapshot
}

func (t *Tracker) addConnection(info *commands.ConnectionInfo) {
	key := info.ConnectionId.Value
	if _, exists := t.connections[key]; !exists {
		t.connectionOrder = append(t.connectionOrder, key)
	}
	t.connections[key] = newConnectionState(info)
}

func (t *Tracker) removeConnection(key string) {
	if _, exists := t.connections[key]; exists {
		delete(t.connections, key)
		t.connectionOrder = removeKey(t.connectionOrder, key)
	}
}

func (t *Tracker) session(connectionId, sessionKey string) *SessionState {
	conn := t.connections[connectionId]
	if conn == nil {
		return nil
	}
	return conn.Sessions[sessionKey]
}

func (t *Tracker) producer(id *commands.ProducerId) *ProducerState {
	parentSessionId := id.ParentSessionId()
	session := t.session(id.ConnectionId, parentSessionId.String())
	if session == nil {
		return nil
	}
	return session.Producers[id.String()]
}

func (t *Tracker) transaction(id commands.TransactionId) (*ConnectionState, *TransactionState) {
	for _, conn := range t.connections {
		if tx, ok := conn.Transactions[id.TransactionKey()]; ok {
			return conn, tx
		}
	}
	return nil, nil
}

func (t *Tracker) trackDestination(info *commands.DestinationInfo) {
	if info.ConnectionId == nil || info.Destination == nil {
		return
	}
	conn := t.connections[info.ConnectionId.Value]
	if conn == nil {
		return
	}
	key := info.Destination.PhysicalName()
	switch info.OperationType {
	case commands.DestinationAdd:
		conn.addDestination(key, info)
	case commands.DestinationRemove:
		conn.removeDestination(key)
	}
}

func (t *Tracker) trackTransaction(info *commands.TransactionInfo) {
	if info.TransactionId == nil || info.ConnectionId == nil {
		return
	}
	conn := t.connections[info.ConnectionId.Value]
	if conn == nil {
		return
	}
	key := info.TransactionId.TransactionKey()
	switch info.Type {
	case commands.TransactionBegin:
		conn.addTransaction(key, &TransactionState{Id: info.TransactionId})
	case commands.TransactionPrepare:
		if tx := conn.Transactions[key]; tx != nil {
			tx.Prepared = true
		}
	case commands.TransactionCommitOnePhase, commands.TransactionCommitTwoPhase,
		commands.TransactionRollback, commands.TransactionForget:
		conn.removeTransaction(key)
	}
}

func (t *Tracker) trackAck(ack *commands.MessageAck) {
	if ack.TransactionId == nil {
		return
	}
	if _, tx := t.transaction(ack.TransactionId); tx != nil {
		tx.Commands = append(tx.Commands, ack)
	}
}

func (t *Tracker) trackMessage(variant commands.MessageVariant) {
	msg := variant.GetMessage()
	if msg.TransactionId != nil {
		if _, tx := t.transaction(msg.TransactionId); tx != nil {
			tx.Commands = append(tx.Commands, variant)
		}
		return
	}
	if msg.ProducerId != nil {
		if producer := t.producer(msg.ProducerId); producer != nil {
			if producer.audit == nil {
				producer.audit = newSendAudit(t.opts.AuditDepth)
			}
			producer.audit.record(msg.MessageId)
		}
	}
	if t.opts.TrackMessages {
		t.messageCache = append(t.messageCache, variant)
		t.cachedBytes += messageSize(msg)
		for t.opts.MaxCacheSize > 0 && t.cachedBytes > t.opts.MaxCacheSize && len(t.messageCache) > 0 {
			evicted := t.messageCache[0]
			t.messageCache = t.messageCache[1:]
			t.cachedBytes -= messageSize(evicted.GetMessage())
		}
	}
}

func (t *Tracker) trackRemove(remove *commands.RemoveInfo) {
	switch id := remove.ObjectId.(type) {
	case *commands.ConnectionId:
		t.removeConnection(id.Value)
	case *commands.SessionId:
		if conn := t.connections[id.ConnectionId]; conn != nil {
			// Removing a parent removes all children with it.
			conn.removeSession(id.String())
		}
	case *commands.ProducerId:
		parentSessionId := id.ParentSessionId()
		if session := t.session(id.ConnectionId, parentSessionId.String()); session != nil {
			session.removeProducer(id.String())
		}
	case *commands.ConsumerId:
		parentSessionId := id.ParentSessionId()
		if session := t.session(id.ConnectionId, parentSessionId.String()); session != nil {
			session.removeConsumer(id.String())
		}
	}
}

func messageSize(msg *commands.Message) int64 {
	return int64(len(msg.Content) + len(msg.MarshalledProperties) + 64)
}
