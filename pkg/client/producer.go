package client

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/chris-alexander-pop/openwire-client/pkg/errors"
	"github.com/chris-alexander-pop/openwire-client/pkg/openwire/commands"
	"github.com/chris-alexander-pop/openwire-client/pkg/transport"
)

// defaultMessagePriority is the JMS default.
const defaultMessagePriority byte = 4

// SendOption adjusts one send.
type SendOption func(*sendOptions)

type sendOptions struct {
	priority      *byte
	timeToLive    time.Duration
	nonPersistent bool
	correlationId string
	replyTo       commands.Destination
	messageType   string
}

// WithMessagePriority sets the message priority (0-9).
func WithMessagePriority(priority byte) SendOption {
	return func(o *sendOptions) { o.priority = &priority }
}

// WithTimeToLive expires the message after the given duration.
func WithTimeToLive(ttl time.Duration) SendOption {
	return func(o *sendOptions) { o.timeToLive = ttl }
}

// WithNonPersistent sends the message without broker persistence.
func WithNonPersistent() SendOption {
	return func(o *sendOptions) { o.nonPersistent = true }
}

// WithCorrelationId sets the application correlation id.
func WithCorrelationId(id string) SendOption {
	return func(o *sendOptions) { o.correlationId = id }
}

// WithReplyTo names the destination for replies.
func WithReplyTo(destination commands.Destination) SendOption {
	return func(o *sendOptions) { o.replyTo = destination }
}

// WithMessageType sets the application message type name.
func WithMessageType(messageType string) SendOption {
	return func(o *sendOptions) { o.messageType = messageType }
}

// MessageProducer sends messages to one destination, or to a destination
// chosen per send when created anonymous.
type MessageProducer struct {
	session *Session
	info    *commands.ProducerInfo

	messageSeq atomic.Int64
	closed     atomic.Bool

	// Producer flow-control window: windowUsed counts in-flight bytes;
	// ProducerAck frees them.
	windowMu   sync.Mutex
	windowUsed int64
	windowWake chan struct{}
}

func newMessageProducer(session *Session, info *commands.ProducerInfo) *MessageProducer {
	return &MessageProducer{
		session:    session,
		info:       info,
		windowWake: make(chan struct{}),
	}
}

// ProducerId returns the canonical producer id string.
func (p *MessageProducer) ProducerId() string { return p.info.ProducerId.String() }

// Send delivers a message to the producer's default destination.
func (p *MessageProducer) Send(ctx context.Context, msg commands.MessageVariant, opts ...SendOption) error {
	return p.SendTo(ctx, p.info.Destination, msg, opts...)
}

// SendText is shorthand for sending one text message.
func (p *MessageProducer) SendText(ctx context.Context, text string, opts ...SendOption) error {
	return p.Send(ctx, commands.NewTextMessage(text), opts...)
}

// SendTo delivers a message to an explicit destination.
func (p *MessageProducer) SendTo(ctx context.Context, destination commands.Destination, msg commands.MessageVariant, opts ...SendOption) error {
	if p.closed.Load() {
		return ErrClosed("producer")
	}
	if destination == nil {
		return ErrIllegalState("anonymous producer requires an explicit destination")
	}
	options := sendOptions{}
	for _, opt := range opts {
		opt(&options)
	}

	m := msg.GetMessage()
	m.ProducerId = p.info.ProducerId
	m.Destination = destination
	m.MessageId = &commands.MessageId{
		ProducerId:         p.info.ProducerId,
		ProducerSequenceId: p.messageSeq.Add(1),
	}
	m.Timestamp = time.Now().UnixMilli()
	m.Persistent = !options.nonPersistent
	m.CorrelationId = options.correlationId
	m.ReplyTo = options.replyTo
	m.Type = options.messageType
	if options.priority != nil {
		if *options.priority > 9 {
			return errors.Newf(errors.CodeInvalidArgument, "message priority %d out of range 0-9", *options.priority)
		}
		m.Priority = *options.priority
	} else {
		m.Priority = defaultMessagePriority
	}
	if options.timeToLive > 0 {
		m.Expiration = m.Timestamp + options.timeToLive.Milliseconds()
	}

	cfg := p.session.conn.cfg
	if cfg.UseCompression && !m.Compressed && len(m.Content) > 0 {
		if err := m.SetBodyBytes(m.Content, true); err != nil {
			return err
		}
	}

	inTransaction := p.session.ackMode.IsTransacted()
	if inTransaction {
		if err := p.session.tx.ensureLocal(); err != nil {
			return err
		}
		m.TransactionId = p.session.tx.CurrentId()
	}

	size := int64(len(m.Content) + len(m.MarshalledProperties))
	if err := p.reserveWindow(ctx, size); err != nil {
		return err
	}

	syncSend := cfg.AlwaysSyncSend || (m.Persistent && !cfg.UseAsyncSend && !inTransaction)
	if !syncSend {
		if err := p.session.conn.asyncSend(ctx, msg); err != nil {
			p.releaseWindow(size)
			return err
		}
		return nil
	}

	_, err := p.session.conn.pipe.Request(ctx, msg, cfg.SendTimeout)
	if err != nil {
		p.releaseWindow(size)
		if errors.HasCode(err, transport.CodeTimeout) {
			return ErrSendTimeout(err)
		}
		return err
	}
	// A synchronous response settles the send; no ProducerAck will follow.
	p.releaseWindow(size)
	return nil
}

// reserveWindow blocks until the producer window has room for the message.
// Windowing is off when the producer was created with WindowSize zero.
func (p *MessageProducer) reserveWindow(ctx context.Context, size int64) error {
	window := int64(p.info.WindowSize)
	if window <= 0 {
		return nil
	}
	for {
		p.windowMu.Lock()
		if p.windowUsed+size <= window || p.windowUsed == 0 {
			p.windowUsed += size
			p.windowMu.Unlock()
			return nil
		}
		wake := p.windowWake
		p.windowMu.Unlock()
		select {
		case <-wake:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (p *MessageProducer) releaseWindow(size int64) {
	window := int64(p.info.WindowSize)
	if window <= 0 {
		return
	}
	p.windowMu.Lock()
	p.windowUsed -= size
	if p.windowUsed < 0 {
		p.windowUsed = 0
	}
	close(p.windowWake)
	p.windowWake = make(chan struct{})
	p.windowMu.Unlock()
}

// onProducerAck frees window bytes the broker has accepted.
func (p *MessageProducer) onProducerAck(size int32) {
	p.releaseWindow(int64(size))
}

// Close retires the producer broker-side.
func (p *MessageProducer) Close() error {
	p.session.removeProducer(p.info.ProducerId)
	return p.closeInternal(false)
}

func (p *MessageProducer) closeInternal(connectionClosing bool) error {
	if p.closed.Swap(true) {
		return nil
	}
	if connectionClosing {
		return nil
	}
	remove := &commands.RemoveInfo{ObjectId: p.info.ProducerId}
	_, err := p.session.conn.syncRequest(remove)
	return err
}
