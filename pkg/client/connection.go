// Package client implements the user-facing OpenWire client: connections,
// sessions with the five acknowledgement modes, producers with window-based
// flow control, consumers with prefetch accounting and redelivery, and
// local/XA transactions. It drives the transport pipeline from
// pkg/transport and leaves reconnection to the failover transport.
package client

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/chris-alexander-pop/openwire-client/pkg/config"
	"github.com/chris-alexander-pop/openwire-client/pkg/logger"
	"github.com/chris-alexander-pop/openwire-client/pkg/openwire"
	"github.com/chris-alexander-pop/openwire-client/pkg/openwire/commands"
	"github.com/chris-alexander-pop/openwire-client/pkg/transport"
	_ "github.com/chris-alexander-pop/openwire-client/pkg/transport/adapters/tcp" // register tcp:// and ssl://
	"github.com/chris-alexander-pop/openwire-client/pkg/transport/failover"
)

// ExceptionListener receives asynchronous connection failures: transport
// faults that failover could not recover and broker-pushed errors.
type ExceptionListener func(err error)

// Connection is one client connection to a broker (or a failover pool of
// brokers). It owns its sessions and routes inbound dispatches to them.
type Connection struct {
	cfg  Config
	uri  *transport.URI
	pipe *failover.Transport

	connectionId *commands.ConnectionId
	info         *commands.ConnectionInfo

	sessionSeq  atomic.Int64
	tempDestSeq atomic.Int64
	txSeq       atomic.Int64

	mu       sync.Mutex
	sessions map[int64]*Session

	started   atomic.Bool
	closed    atomic.Bool
	closeOnce sync.Once

	exceptionMu       sync.Mutex
	exceptionListener ExceptionListener

	brokerInfoMu sync.Mutex
	brokerInfo   *commands.BrokerInfo
}

// Connect opens a connection to the broker URI using environment defaults
// for everything the URI does not override.
func Connect(rawURI string) (*Connection, error) {
	cfg, err := DefaultConfig()
	if err != nil {
		return nil, err
	}
	return ConnectWithConfig(rawURI, cfg)
}

// ConnectWithConfig opens a connection with explicit connection options.
// URI query options still take precedence over cfg.
func ConnectWithConfig(rawURI string, cfg Config) (*Connection, error) {
	uri, err := transport.ParseURI(rawURI)
	if err != nil {
		return nil, err
	}
	if _, err := transport.ApplyURIOptions(&cfg, uri); err != nil {
		return nil, err
	}
	if err := config.Validate(&cfg); err != nil {
		return nil, err
	}
	if cfg.ClientID == "" {
		cfg.ClientID = generateClientId()
	}

	var wfOpts openwire.Options
	if err := config.Load(&wfOpts); err != nil {
		return nil, err
	}

	pool := uri
	if uri.Scheme != "failover" {
		// A single broker URI still runs under the failover transport so
		// the whole stack has one shape; reconnection is simply disabled.
		pool = &transport.URI{
			Raw:     uri.Raw,
			Scheme:  "failover",
			Members: []*transport.URI{uri},
			Options: map[string]string{
				"randomize":                   "false",
				"maxReconnectAttempts":        "0",
				"startupMaxReconnectAttempts": "1",
			},
		}
	}

	pipe, err := failover.New(pool, wfOpts)
	if err != nil {
		return nil, err
	}

	c := &Connection{
		cfg:          cfg,
		uri:          uri,
		pipe:         pipe,
		connectionId: &commands.ConnectionId{Value: generateConnectionId()},
		sessions:     make(map[int64]*Session),
	}
	pipe.SetListener(c)

	if err := pipe.Start(); err != nil {
		return nil, err
	}

	c.info = &commands.ConnectionInfo{
		ConnectionId:      c.connectionId,
		ClientId:          cfg.ClientID,
		UserName:          cfg.UserName,
		Password:          cfg.Password,
		Manageable:        true,
		FaultTolerant:     uri.Scheme == "failover",
		FailoverReconnect: uri.Scheme == "failover",
	}
	if _, err := c.syncRequest(c.info); err != nil {
		pipe.Stop() //nolint:errcheck // connect failed
		return nil, err
	}
	logger.L().Info("broker connection established",
		"uri", rawURI, "connection_id", c.connectionId.Value, "client_id", cfg.ClientID)
	return c, nil
}

// ConnectionId returns the canonical connection id string.
func (c *Connection) ConnectionId() string { return c.connectionId.Value }

// Config returns the effective connection options.
func (c *Connection) Config() Config { return c.cfg }

// Transport exposes the failover transport, mainly for Narrow.
func (c *Connection) Transport() transport.Transport { return c.pipe }

// SetExceptionListener installs the asynchronous failure callback.
func (c *Connection) SetExceptionListener(l ExceptionListener) {
	c.exceptionMu.Lock()
	c.exceptionListener = l
	c.exceptionMu.Unlock()
}

// Start enables inbound message delivery. Sends work before Start; this
// gates consumption only.
func (c *Connection) Start() error {
	if c.closed.Load() {
		return ErrClosed("connection")
	}
	if c.started.Swap(true) {
		return nil
	}
	c.mu.Lock()
	sessions := snapshotSessions(c.sessions)
	c.mu.Unlock()
	for _, session := range sessions {
		session.start()
	}
	return nil
}

// Stop pauses inbound delivery, preserving every consumer's queue.
func (c *Connection) Stop() error {
	if c.closed.Load() {
		return ErrClosed("connection")
	}
	if !c.started.Swap(false) {
		return nil
	}
	c.mu.Lock()
	sessions := snapshotSessions(c.sessions)
	c.mu.Unlock()
	for _, session := range sessions {
		session.stop()
	}
	return nil
}

// IsStarted reports whether delivery is enabled.
func (c *Connection) IsStarted() bool { return c.started.Load() && !c.closed.Load() }

// CreateSession creates a session with the given acknowledgement mode.
func (c *Connection) CreateSession(mode AckMode) (*Session, error) {
	if c.closed.Load() {
		return nil, ErrClosed("connection")
	}
	sessionId := &commands.SessionId{
		ConnectionId: c.connectionId.Value,
		Value:        c.sessionSeq.Add(1),
	}
	info := &commands.SessionInfo{SessionId: sessionId}
	if _, err := c.syncRequest(info); err != nil {
		return nil, err
	}
	session := newSession(c, info, mode)
	c.mu.Lock()
	c.sessions[sessionId.Value] = session
	c.mu.Unlock()
	if c.started.Load() {
		session.start()
	}
	return session, nil
}

// CreateTemporaryQueue creates a connection-scoped queue at the broker.
func (c *Connection) CreateTemporaryQueue() (*commands.TempQueue, error) {
	queue := commands.NewTempQueue(c.connectionId.Value, c.tempDestSeq.Add(1))
	if err := c.createDestination(queue); err != nil {
		return nil, err
	}
	return queue, nil
}

// CreateTemporaryTopic creates a connection-scoped topic at the broker.
func (c *Connection) CreateTemporaryTopic() (*commands.TempTopic, error) {
	topic := commands.NewTempTopic(c.connectionId.Value, c.tempDestSeq.Add(1))
	if err := c.createDestination(topic); err != nil {
		return nil, err
	}
	return topic, nil
}

func (c *Connection) createDestination(destination commands.Destination) error {
	info := &commands.DestinationInfo{
		ConnectionId:  c.connectionId,
		Destination:   destination,
		OperationType: commands.DestinationAdd,
	}
	_, err := c.syncRequest(info)
	return err
}

// DeleteDestination removes a destination created by this connection.
func (c *Connection) DeleteDestination(destination commands.Destination) error {
	info := &commands.DestinationInfo{
		ConnectionId:  c.connectionId,
		Destination:   destination,
		OperationType: commands.DestinationRemove,
	}
	_, err := c.syncRequest(info)
	return err
}

// UnsubscribeDurable deletes a durable topic subscription by name.
func (c *Connection) UnsubscribeDurable(subscriptionName string) error {
	info := &commands.RemoveSubscriptionInfo{
		ConnectionId:     c.connectionId,
		SubscriptionName: subscriptionName,
		ClientId:         c.cfg.ClientID,
	}
	_, err := c.syncRequest(info)
	return err
}

// BrokerInfo returns the broker's self-description once it has arrived.
func (c *Connection) BrokerInfo() *commands.BrokerInfo {
	c.brokerInfoMu.Lock()
	defer c.brokerInfoMu.Unlock()
	return c.brokerInfo
}

// Close tears the connection down: sessions first, then the broker-side
// removal, then the transport.
func (c *Connection) Close() error {
	var closeErr error
	c.closeOnce.Do(func() {
		c.closed.Store(true)
		c.mu.Lock()
		sessions := snapshotSessions(c.sessions)
		c.sessions = make(map[int64]*Session)
		c.mu.Unlock()
		for _, session := range sessions {
			if err := session.closeInternal(true); err != nil {
				closeErr = err
			}
		}

		remove := &commands.RemoveInfo{ObjectId: c.connectionId}
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if _, err := c.pipe.Request(ctx, remove, c.cfg.RequestTimeout); err != nil {
			logger.L().Debug("connection removal failed during close", "error", err)
		}
		c.pipe.Oneway(ctx, &commands.ShutdownInfo{}) //nolint:errcheck // best effort goodbye
		c.pipe.Stop()                                //nolint:errcheck // transport teardown
		logger.L().Info("broker connection closed", "connection_id", c.connectionId.Value)
	})
	return closeErr
}

// syncRequest sends a lifecycle command and waits for the broker response.
func (c *Connection) syncRequest(cmd commands.Command) (commands.Command, error) {
	ctx := context.Background()
	return c.pipe.Request(ctx, cmd, c.cfg.RequestTimeout)
}

// asyncSend sends a command without waiting.
func (c *Connection) asyncSend(ctx context.Context, cmd commands.Command) error {
	return c.pipe.Oneway(ctx, cmd)
}

func (c *Connection) removeSession(id int64) {
	c.mu.Lock()
	delete(c.sessions, id)
	c.mu.Unlock()
}

// OnCommand routes inbound broker commands.
func (c *Connection) OnCommand(cmd commands.Command) {
	switch command := cmd.(type) {
	case *commands.MessageDispatch:
		c.routeDispatch(command)
	case *commands.ProducerAck:
		c.routeProducerAck(command)
	case *commands.ConnectionControl:
		c.onConnectionControl(command)
	case *commands.ConsumerControl:
		c.routeConsumerControl(command)
	case *commands.ConnectionError:
		c.notifyException(command.Exception)
	case *commands.BrokerInfo:
		c.brokerInfoMu.Lock()
		c.brokerInfo = command
		c.brokerInfoMu.Unlock()
	case *commands.ShutdownInfo:
		c.notifyException(ErrClosed("broker connection"))
	case *commands.WireFormatInfo, *commands.KeepAliveInfo:
		// Handled below us in the chain.
	}
}

// OnException receives unrecoverable transport failures.
func (c *Connection) OnException(err error) {
	logger.L().Error("connection failed", "connection_id", c.connectionId.Value, "error", err)
	c.notifyException(err)
}

// OnTransportInterrupted tells sessions to suspend ack and redelivery
// bookkeeping while failover reconnects.
func (c *Connection) OnTransportInterrupted() {
	c.mu.Lock()
	sessions := snapshotSessions(c.sessions)
	c.mu.Unlock()
	for _, session := range sessions {
		session.transportInterrupted()
	}
}

// OnTransportResumed tells sessions the replayed broker state is live
// again.
func (c *Connection) OnTransportResumed() {
	c.mu.Lock()
	sessions := snapshotSessions(c.sessions)
	c.mu.Unlock()
	for _, session := range sessions {
		session.transportResumed()
	}
}

func (c *Connection) routeDispatch(dispatch *commands.MessageDispatch) {
	if dispatch.ConsumerId == nil {
		return
	}
	if consumer := c.findConsumer(dispatch.ConsumerId); consumer != nil {
		consumer.dispatch(dispatch)
		return
	}
	logger.L().Debug("dropping dispatch for unknown consumer", "consumer_id", dispatch.ConsumerId.String())
}

func (c *Connection) routeProducerAck(ack *commands.ProducerAck) {
	if ack.ProducerId == nil {
		return
	}
	c.mu.Lock()
	sessions := snapshotSessions(c.sessions)
	c.mu.Unlock()
	for _, session := range sessions {
		if producer := session.findProducer(ack.ProducerId); producer != nil {
			producer.onProducerAck(ack.Size)
			return
		}
	}
}

func (c *Connection) routeConsumerControl(control *commands.ConsumerControl) {
	if control.ConsumerId == nil {
		return
	}
	if consumer := c.findConsumer(control.ConsumerId); consumer != nil {
		consumer.onConsumerControl(control)
	}
}

func (c *Connection) findConsumer(id *commands.ConsumerId) *MessageConsumer {
	c.mu.Lock()
	session := c.sessions[id.SessionId]
	c.mu.Unlock()
	if session == nil {
		return nil
	}
	return session.findConsumer(id)
}

// onConnectionControl reacts to broker steering: suspend/resume delivery
// and broker-requested close. URI updates are handled by the failover
// transport below.
func (c *Connection) onConnectionControl(control *commands.ConnectionControl) {
	switch {
	case control.Close || control.Exit:
		logger.L().Info("broker requested connection close")
		go c.Close() //nolint:errcheck // broker-driven teardown
	case control.Suspend:
		c.Stop() //nolint:errcheck // returns nil unless closed
	case control.Resume:
		c.Start() //nolint:errcheck // returns nil unless closed
	}
}

func (c *Connection) notifyException(err error) {
	c.exceptionMu.Lock()
	listener := c.exceptionListener
	c.exceptionMu.Unlock()
	if listener != nil && err != nil {
		listener(err)
	}
}

func snapshotSessions(sessions map[int64]*Session) []*Session {
	out := make([]*Session, 0, len(sessions))
	for _, session := range sessions {
		out = append(out, session)
	}
	return out
}
