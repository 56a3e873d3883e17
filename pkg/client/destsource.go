package client

import (
	"sort"
	"sync"

	"github.com/chris-alexander-pop/openwire-client/pkg/openwire/commands"
)

// Advisory topics carrying destination lifecycle events.
const (
	advisoryQueue     = "ActiveMQ.Advisory.Queue"
	advisoryTopic     = "ActiveMQ.Advisory.Topic"
	advisoryTempQueue = "ActiveMQ.Advisory.TempQueue"
	advisoryTempTopic = "ActiveMQ.Advisory.TempTopic"
)

// DestinationEvent reports one destination appearing or disappearing at
// the broker.
type DestinationEvent struct {
	Destination commands.Destination
	Removed     bool
}

// DestinationListener observes destination lifecycle events.
type DestinationListener func(event DestinationEvent)

// DestinationSource mirrors the broker's live destination sets by
// subscribing to the destination advisory topics.
type DestinationSource struct {
	conn    *Connection
	session *Session

	mu        sync.Mutex
	queues    map[string]commands.Destination
	topics    map[string]commands.Destination
	temps     map[string]commands.Destination
	listener  DestinationListener
	consumers []*MessageConsumer
	started   bool
}

// NewDestinationSource builds a destination source on its own session.
// Call Start to begin mirroring.
func NewDestinationSource(conn *Connection) *DestinationSource {
	return &DestinationSource{
		conn:   conn,
		queues: make(map[string]commands.Destination),
		topics: make(map[string]commands.Destination),
		temps:  make(map[string]commands.Destination),
	}
}

// SetListener installs the event callback; events fire after the internal
// sets are updated.
func (d *DestinationSource) SetListener(l DestinationListener) {
	d.mu.Lock()
	d.listener = l
	d.mu.Unlock()
}

// Start subscribes to the advisory topics.
func (d *DestinationSource) Start() error {
	d.mu.Lock()
	if d.started {
		d.mu.Unlock()
		return nil
	}
	d.started = true
	d.mu.Unlock()

	session, err := d.conn.CreateSession(AutoAcknowledge)
	if err != nil {
		return err
	}
	d.session = session

	for _, topic := range []string{advisoryQueue, advisoryTopic, advisoryTempQueue, advisoryTempTopic} {
		consumer, err := session.CreateConsumer(commands.NewTopic(topic))
		if err != nil {
			d.Stop() //nolint:errcheck // partial subscription teardown
			return err
		}
		consumer.SetMessageListener(d.onAdvisory)
		d.mu.Lock()
		d.consumers = append(d.consumers, consumer)
		d.mu.Unlock()
	}
	return nil
}

// Stop unsubscribes and stops mirroring.
func (d *DestinationSource) Stop() error {
	d.mu.Lock()
	d.started = false
	d.consumers = nil
	session := d.session
	d.session = nil
	d.mu.Unlock()
	if session != nil {
		return session.Close()
	}
	return nil
}

// onAdvisory folds one advisory message into the destination sets. The
// interesting payload is the DestinationInfo riding in the message's data
// structure slot.
func (d *DestinationSource) onAdvisory(msg commands.MessageVariant) {
	info, ok := msg.GetMessage().DataStructure.(*commands.DestinationInfo)
	if !ok || info.Destination == nil {
		return
	}
	destination := info.Destination
	removed := info.OperationType == commands.DestinationRemove

	d.mu.Lock()
	set := d.setFor(destination)
	if removed {
		delete(set, destination.PhysicalName())
	} else {
		set[destination.PhysicalName()] = destination
	}
	listener := d.listener
	d.mu.Unlock()

	if listener != nil {
		listener(DestinationEvent{Destination: destination, Removed: removed})
	}
}

func (d *DestinationSource) setFor(destination commands.Destination) map[string]commands.Destination {
	switch {
	case destination.IsTemporary():
		return d.temps
	case destination.IsQueue():
		return d.queues
	default:
		return d.topics
	}
}

// Queues returns the known queue names, sorted.
func (d *DestinationSource) Queues() []string { return d.names(&d.queues) }

// Topics returns the known topic names, sorted.
func (d *DestinationSource) Topics() []string { return d.names(&d.topics) }

// TemporaryDestinations returns the known temporary destination names,
// sorted.
func (d *DestinationSource) TemporaryDestinations() []string { return d.names(&d.temps) }

func (d *DestinationSource) names(set *map[string]commands.Destination) []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]string, 0, len(*set))
	for name := range *set {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
