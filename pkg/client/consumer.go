package client

import (
	"context"
	"sync"
	"time"

	"github.com/chris-alexander-pop/openwire-client/pkg/logger"
	"github.com/chris-alexander-pop/openwire-client/pkg/openwire/commands"
)

// MessageListener consumes messages delivered asynchronously. Exactly one
// goroutine at a time invokes the listener of a given consumer, and
// listeners of one session never run concurrently.
type MessageListener func(msg commands.MessageVariant)

// MessageConsumer receives messages from one destination. Synchronous
// consumption uses Receive; asynchronous consumption installs a listener
// with SetMessageListener. The two styles must not be mixed.
type MessageConsumer struct {
	session    *Session
	info       *commands.ConsumerInfo
	redelivery RedeliveryPolicy

	mu                sync.Mutex
	pending           *dispatchQueue
	delivered         []*commands.MessageDispatch
	deliveredCounter  int32
	prefetchExtension int32
	lastDelivered     int64
	listener          MessageListener
	started           bool
	closed            bool
	interrupted       bool
	wake              chan struct{}
	dispatcherDone    chan struct{}

	// listenerBusy is held while a listener invocation runs; close waits
	// on it.
	listenerBusy sync.WaitGroup
}

func newMessageConsumer(session *Session, info *commands.ConsumerInfo) *MessageConsumer {
	return &MessageConsumer{
		session:    session,
		info:       info,
		redelivery: session.conn.cfg.Redelivery,
		pending:    newDispatchQueue(int(info.PrefetchSize)),
		wake:       make(chan struct{}),
	}
}

// ConsumerId returns the canonical consumer id string.
func (c *MessageConsumer) ConsumerId() string { return c.info.ConsumerId.String() }

// PrefetchSize returns the consumer's negotiated prefetch.
func (c *MessageConsumer) PrefetchSize() int32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.info.PrefetchSize
}

// PendingCount returns the number of dispatches waiting locally.
func (c *MessageConsumer) PendingCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pending.Len()
}

// DeliveredCount returns the number of delivered-but-unacknowledged
// messages.
func (c *MessageConsumer) DeliveredCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.delivered)
}

// SetMessageListener installs the asynchronous listener and starts the
// dispatch task if the session is running.
func (c *MessageConsumer) SetMessageListener(l MessageListener) {
	c.mu.Lock()
	c.listener = l
	startDispatcher := l != nil && c.dispatcherDone == nil
	if startDispatcher {
		c.dispatcherDone = make(chan struct{})
	}
	c.mu.Unlock()
	if startDispatcher {
		go c.dispatchTask()
	}
}

// dispatch enqueues one inbound broker dispatch. Called from the
// connection's routing, never concurrently with itself.
func (c *MessageConsumer) dispatch(md *commands.MessageDispatch) {
	c.mu.Lock()
	if c.closed || c.interrupted {
		// Dispatches racing a transport interruption are stale; the broker
		// redelivers them after replay.
		c.mu.Unlock()
		return
	}
	c.pending.PushBack(md)
	c.signalLocked()
	c.mu.Unlock()
}

// Receive blocks for the next message. A zero timeout waits forever; a
// negative timeout polls. Zero-prefetch consumers pull on demand.
func (c *MessageConsumer) Receive(timeout time.Duration) (commands.MessageVariant, error) {
	if c.isZeroPrefetch() {
		pull := &commands.MessagePull{
			ConsumerId:  c.info.ConsumerId,
			Destination: c.info.Destination,
			Timeout:     timeout.Milliseconds(),
		}
		if err := c.session.conn.asyncSend(context.Background(), pull); err != nil {
			return nil, err
		}
	}
	md, err := c.dequeue(timeout)
	if err != nil || md == nil {
		return nil, err
	}
	if err := c.afterDelivery(md); err != nil {
		return nil, err
	}
	return md.Message, nil
}

// ReceiveNoWait returns the next message only if one is already pending.
func (c *MessageConsumer) ReceiveNoWait() (commands.MessageVariant, error) {
	return c.Receive(-1)
}

func (c *MessageConsumer) isZeroPrefetch() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.info.PrefetchSize == 0
}

// dequeue pops the next pending dispatch, waiting while the consumer is
// started and the queue is empty.
func (c *MessageConsumer) dequeue(timeout time.Duration) (*commands.MessageDispatch, error) {
	var deadlineCh <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		deadlineCh = timer.C
	}
	for {
		c.mu.Lock()
		if c.closed {
			c.mu.Unlock()
			return nil, ErrClosed("consumer")
		}
		if c.started {
			if md, ok := c.pending.PopFront(); ok {
				c.mu.Unlock()
				if md.Message != nil && md.Message.GetMessage().IsExpired(time.Now().UnixMilli()) {
					c.ackExpired(md)
					continue
				}
				return md, nil
			}
		}
		wake := c.wake
		c.mu.Unlock()

		if timeout < 0 {
			return nil, nil
		}
		select {
		case <-wake:
		case <-deadlineCh:
			return nil, nil
		}
	}
}

// dispatchTask drains the queue and invokes the listener one message at a
// time, serialized with the session's other listeners.
func (c *MessageConsumer) dispatchTask() {
	defer func() {
		c.mu.Lock()
		done := c.dispatcherDone
		c.dispatcherDone = nil
		c.mu.Unlock()
		if done != nil {
			close(done)
		}
	}()
	for {
		c.mu.Lock()
		if c.closed {
			c.mu.Unlock()
			return
		}
		var md *commands.MessageDispatch
		listener := c.listener
		if c.started && listener != nil {
			md, _ = c.pending.PopFront()
		}
		wake := c.wake
		if md == nil {
			c.mu.Unlock()
			<-wake
			continue
		}
		c.listenerBusy.Add(1)
		c.mu.Unlock()

		c.invokeListener(listener, md)
		c.listenerBusy.Done()
	}
}

func (c *MessageConsumer) invokeListener(listener MessageListener, md *commands.MessageDispatch) {
	if md.Message != nil && md.Message.GetMessage().IsExpired(time.Now().UnixMilli()) {
		c.ackExpired(md)
		return
	}
	c.session.dispatchMu.Lock()
	defer c.session.dispatchMu.Unlock()
	listener(md.Message)
	if err := c.afterDelivery(md); err != nil {
		logger.L().Warn("acknowledgement failed after listener", "consumer_id", c.ConsumerId(), "error", err)
	}
}

// afterDelivery applies the session's ack strategy once a message has been
// handed to the application.
func (c *MessageConsumer) afterDelivery(md *commands.MessageDispatch) error {
	c.mu.Lock()
	if md.Message != nil {
		if id := md.Message.GetMessage().MessageId; id != nil {
			c.lastDelivered = id.BrokerSequenceId
		}
	}
	mode := c.session.ackMode
	switch mode {
	case AutoAcknowledge:
		if c.info.OptimizedAcknowledge {
			c.delivered = append(c.delivered, md)
			c.deliveredCounter++
			if c.deliveredCounter >= c.optimizedBatchLocked() {
				return c.flushBatchLocked(commands.AckStandard, nil)
			}
			c.mu.Unlock()
			return nil
		}
		c.mu.Unlock()
		return c.sendAck(commands.AckStandard, md, md, 1, nil)
	case ClientAcknowledge, IndividualAcknowledge:
		c.delivered = append(c.delivered, md)
		c.mu.Unlock()
		return nil
	case DupsOkAcknowledge:
		c.delivered = append(c.delivered, md)
		c.deliveredCounter++
		if c.deliveredCounter >= c.optimizedBatchLocked() {
			return c.flushBatchLocked(commands.AckStandard, nil)
		}
		c.mu.Unlock()
		return nil
	case SessionTransacted:
		c.delivered = append(c.delivered, md)
		c.mu.Unlock()
		c.session.tx.registerConsumer(c)
		return nil
	}
	c.mu.Unlock()
	return nil
}

// optimizedBatchLocked is the delivered count that triggers a batch ack:
// half the prefetch window, floor one.
func (c *MessageConsumer) optimizedBatchLocked() int32 {
	batch := c.info.PrefetchSize / 2
	if batch < 1 {
		batch = 1
	}
	return batch
}

// flushBatchLocked acks the whole delivered list as one range. Callers
// hold c.mu; the lock is released before sending.
func (c *MessageConsumer) flushBatchLocked(ackType byte, txid commands.TransactionId) error {
	if len(c.delivered) == 0 {
		c.mu.Unlock()
		return nil
	}
	first := c.delivered[0]
	last := c.delivered[len(c.delivered)-1]
	count := int32(len(c.delivered))
	c.delivered = nil
	c.deliveredCounter = 0
	c.prefetchExtension = 0
	c.mu.Unlock()
	return c.sendAck(ackType, first, last, count, txid)
}

// AcknowledgeMessage acks one specific message (INDIVIDUAL_ACKNOWLEDGE).
func (c *MessageConsumer) AcknowledgeMessage(msg commands.MessageVariant) error {
	if c.session.ackMode != IndividualAcknowledge {
		return ErrIllegalState("AcknowledgeMessage requires INDIVIDUAL_ACKNOWLEDGE")
	}
	id := msg.GetMessage().MessageId
	c.mu.Lock()
	for i, md := range c.delivered {
		if md.Message != nil && md.Message.GetMessage().MessageId.Equal(id) {
			c.delivered = append(c.delivered[:i], c.delivered[i+1:]...)
			c.mu.Unlock()
			return c.sendAck(commands.AckIndividual, md, md, 1, nil)
		}
	}
	c.mu.Unlock()
	return ErrIllegalState("message is not awaiting acknowledgement")
}

// acknowledgeDelivered acks the whole delivered list (Session.Acknowledge in
// CLIENT_ACKNOWLEDGE and INDIVIDUAL_ACKNOWLEDGE sessions).
func (c *MessageConsumer) acknowledgeDelivered() error {
	c.mu.Lock()
	return c.flushBatchLocked(commands.AckStandard, nil)
}

// stageTransactedAcks sends the delivered list as one transacted ack; part
// of the session transaction's before-commit work.
func (c *MessageConsumer) stageTransactedAcks(txid commands.TransactionId) error {
	c.mu.Lock()
	return c.flushBatchLocked(commands.AckStandard, txid)
}

// rollbackDelivered rewinds delivered messages onto the pending queue with
// incremented redelivery counters. Messages past the redelivery budget are
// poisoned to the dead-letter queue instead.
func (c *MessageConsumer) rollbackDelivered(fromTransaction bool) {
	c.mu.Lock()
	delivered := c.delivered
	c.delivered = nil
	c.deliveredCounter = 0
	c.mu.Unlock()
	if len(delivered) == 0 {
		return
	}

	var requeue []*commands.MessageDispatch
	for _, md := range delivered {
		md.RedeliveryCounter++
		if md.Message != nil {
			md.Message.GetMessage().RedeliveryCounter++
		}
		if c.redelivery.Exhausted(md.RedeliveryCounter) {
			logger.L().Warn("redelivery exhausted; poisoning message",
				"consumer_id", c.ConsumerId(), "redeliveries", md.RedeliveryCounter)
			if err := c.sendAck(commands.AckPoison, md, md, 1, nil); err != nil {
				logger.L().Debug("poison ack failed", "error", err)
			}
			continue
		}
		requeue = append(requeue, md)
	}
	if len(requeue) == 0 {
		return
	}

	delay := c.redelivery.DelayFor(requeue[0].RedeliveryCounter)
	if fromTransaction && delay > 0 {
		time.AfterFunc(delay, func() { c.requeueFront(requeue) })
		return
	}
	c.requeueFront(requeue)
}

func (c *MessageConsumer) requeueFront(mds []*commands.MessageDispatch) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	for i := len(mds) - 1; i >= 0; i-- {
		c.pending.PushFront(mds[i])
	}
	c.signalLocked()
	c.mu.Unlock()
}

func (c *MessageConsumer) ackExpired(md *commands.MessageDispatch) {
	// A delivered ack advances the broker's window without consuming, so
	// the local prefetch extension grows by one.
	c.mu.Lock()
	c.prefetchExtension++
	c.mu.Unlock()
	if err := c.sendAck(commands.AckDelivered, md, md, 1, nil); err != nil {
		logger.L().Debug("expired-message ack failed", "error", err)
	}
}

// PrefetchExtension returns the current broker-window extension granted by
// delivered-type acks.
func (c *MessageConsumer) PrefetchExtension() int32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.prefetchExtension
}

func (c *MessageConsumer) sendAck(ackType byte, first, last *commands.MessageDispatch, count int32, txid commands.TransactionId) error {
	ack := &commands.MessageAck{
		Destination:   c.info.Destination,
		ConsumerId:    c.info.ConsumerId,
		AckType:       ackType,
		MessageCount:  count,
		TransactionId: txid,
	}
	if first.Message != nil {
		ack.FirstMessageId = first.Message.GetMessage().MessageId
	}
	if last.Message != nil {
		ack.LastMessageId = last.Message.GetMessage().MessageId
	}
	return c.session.conn.asyncSend(context.Background(), ack)
}

// onConsumerControl applies broker-side consumer adjustments.
func (c *MessageConsumer) onConsumerControl(control *commands.ConsumerControl) {
	switch {
	case control.Close:
		go c.Close() //nolint:errcheck // broker-driven teardown
	case control.Stop:
		c.stop()
	case control.Start:
		c.start()
	case control.Flush:
		c.mu.Lock()
		c.pending.Clear()
		c.mu.Unlock()
	default:
		if control.Prefetch >= 0 {
			c.mu.Lock()
			c.info.PrefetchSize = control.Prefetch
			c.mu.Unlock()
		}
	}
}

func (c *MessageConsumer) start() {
	c.mu.Lock()
	c.started = true
	c.signalLocked()
	c.mu.Unlock()
}

func (c *MessageConsumer) stop() {
	c.mu.Lock()
	c.started = false
	c.signalLocked()
	c.mu.Unlock()
}

// transportInterrupted clears local delivery state; after replay the
// broker redelivers everything unacknowledged.
func (c *MessageConsumer) transportInterrupted() {
	c.mu.Lock()
	c.interrupted = true
	c.pending.Clear()
	c.delivered = nil
	c.deliveredCounter = 0
	c.prefetchExtension = 0
	c.signalLocked()
	c.mu.Unlock()
}

// transportResumed reopens the consumer for fresh dispatches once the
// replayed broker state is live.
func (c *MessageConsumer) transportResumed() {
	c.mu.Lock()
	c.interrupted = false
	c.mu.Unlock()
}

func (c *MessageConsumer) lastDeliveredSequence() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastDelivered
}

// Close unsubscribes the consumer. Queued listener invocations are
// cancelled; a running one is waited for.
func (c *MessageConsumer) Close() error {
	c.session.removeConsumer(c.info.ConsumerId)
	return c.closeInternal(false)
}

func (c *MessageConsumer) closeInternal(connectionClosing bool) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	// DUPS_OK still owes the broker a batch ack for the delivered tail.
	if c.session.ackMode == DupsOkAcknowledge && len(c.delivered) > 0 {
		c.flushBatchLocked(commands.AckStandard, nil) //nolint:errcheck // best effort on close
		c.mu.Lock()
	}
	c.closed = true
	c.started = false
	c.signalLocked()
	lastDelivered := c.lastDelivered
	c.mu.Unlock()

	c.listenerBusy.Wait()

	if !connectionClosing {
		remove := &commands.RemoveInfo{
			ObjectId:                c.info.ConsumerId,
			LastDeliveredSequenceId: lastDelivered,
		}
		if _, err := c.session.conn.syncRequest(remove); err != nil {
			return err
		}
	}
	return nil
}

// signalLocked wakes every waiter; callers hold c.mu.
func (c *MessageConsumer) signalLocked() {
	close(c.wake)
	c.wake = make(chan struct{})
}
