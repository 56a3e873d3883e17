package client

import (
	"context"
	"sync"

	"github.com/chris-alexander-pop/openwire-client/pkg/errors"
	"github.com/chris-alexander-pop/openwire-client/pkg/logger"
	"github.com/chris-alexander-pop/openwire-client/pkg/openwire/commands"
)

// Synchronization hooks callbacks into the transaction lifecycle; they are
// registered with AddSynchronization. Consumer acks are not staged through a
// Synchronization but by the context itself in beforePhase, and producers
// register none. Nil funcs are skipped.
type Synchronization struct {
	BeforeEnd     func() error
	BeforeCommit  func() error
	AfterCommit   func()
	AfterRollback func()
}

// TransactionContext manages one session's transaction: local transactions
// for SESSION_TRANSACTED sessions, or externally driven XA branches. The
// context may switch between local and XA only while no transaction is
// active.
type TransactionContext struct {
	session *Session

	mu        sync.Mutex
	txid      commands.TransactionId
	xa        bool
	syncs     []*Synchronization
	consumers map[*MessageConsumer]struct{}
}

func newTransactionContext(session *Session) *TransactionContext {
	return &TransactionContext{
		session:   session,
		consumers: make(map[*MessageConsumer]struct{}),
	}
}

// CurrentId returns the active transaction id, or nil.
func (t *TransactionContext) CurrentId() commands.TransactionId {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.txid
}

// InLocalTransaction reports whether a local transaction is open.
func (t *TransactionContext) InLocalTransaction() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.txid != nil && !t.xa
}

// AddSynchronization registers lifecycle callbacks on the active
// transaction.
func (t *TransactionContext) AddSynchronization(sync *Synchronization) {
	t.mu.Lock()
	t.syncs = append(t.syncs, sync)
	t.mu.Unlock()
}

func (t *TransactionContext) registerConsumer(c *MessageConsumer) {
	t.mu.Lock()
	t.consumers[c] = struct{}{}
	t.mu.Unlock()
}

// ensureLocal opens a local transaction if none is active; used by sends
// on a transacted session.
func (t *TransactionContext) ensureLocal() error {
	t.mu.Lock()
	active := t.txid != nil
	xa := t.xa
	t.mu.Unlock()
	if active {
		if xa {
			return nil
		}
		return nil
	}
	return t.beginLocal()
}

// beginLocal allocates a fresh LocalTransactionId and announces it.
func (t *TransactionContext) beginLocal() error {
	t.mu.Lock()
	if t.txid != nil {
		t.mu.Unlock()
		return ErrIllegalState("transaction already in progress")
	}
	conn := t.session.conn
	txid := &commands.LocalTransactionId{
		ConnectionId: conn.connectionId.Value,
		Value:        conn.txSeq.Add(1),
	}
	t.txid = txid
	t.xa = false
	t.mu.Unlock()

	info := &commands.TransactionInfo{
		ConnectionId:  conn.connectionId,
		TransactionId: txid,
		Type:          commands.TransactionBegin,
	}
	return conn.asyncSend(context.Background(), info)
}

// CommitLocal runs the before callbacks, stages consumer acks, commits one
// phase at the broker, then runs the after callbacks. A transacted session
// immediately opens the next transaction.
func (t *TransactionContext) CommitLocal() error {
	t.mu.Lock()
	txid := t.txid
	xa := t.xa
	t.mu.Unlock()
	if txid == nil {
		return ErrIllegalState("no active transaction to commit")
	}
	if xa {
		return ErrIllegalState("cannot locally commit an XA transaction")
	}

	if err := t.beforePhase(txid); err != nil {
		// A failing before-commit callback aborts into rollback.
		t.RollbackLocal() //nolint:errcheck // rollback after failed prepare
		return errors.New(CodeTransactionRolledBack, "before-commit synchronization failed", err)
	}

	info := &commands.TransactionInfo{
		ConnectionId:  t.session.conn.connectionId,
		TransactionId: txid,
		Type:          commands.TransactionCommitOnePhase,
	}
	_, err := t.session.conn.syncRequest(info)
	if err != nil {
		t.finish(false)
		t.restartIfTransacted()
		return errors.New(CodeTransactionRolledBack, "commit failed", err)
	}
	t.finish(true)
	t.restartIfTransacted()
	return nil
}

// RollbackLocal rolls the transaction back, rewinding every consumer's
// delivered messages for redelivery.
func (t *TransactionContext) RollbackLocal() error {
	t.mu.Lock()
	txid := t.txid
	xa := t.xa
	consumers := t.snapshotConsumersLocked()
	t.mu.Unlock()
	if txid == nil {
		return ErrIllegalState("no active transaction to roll back")
	}
	if xa {
		return ErrIllegalState("cannot locally roll back an XA transaction")
	}

	t.runBeforeEnd()
	for _, consumer := range consumers {
		consumer.rollbackDelivered(true)
	}

	info := &commands.TransactionInfo{
		ConnectionId:  t.session.conn.connectionId,
		TransactionId: txid,
		Type:          commands.TransactionRollback,
	}
	_, err := t.session.conn.syncRequest(info)
	t.finish(false)
	t.restartIfTransacted()
	return err
}

// beforePhase runs before-end and before-commit callbacks and stages every
// registered consumer's acks under the transaction.
func (t *TransactionContext) beforePhase(txid commands.TransactionId) error {
	t.runBeforeEnd()
	t.mu.Lock()
	syncs := append([]*Synchronization(nil), t.syncs...)
	consumers := t.snapshotConsumersLocked()
	t.mu.Unlock()
	for _, s := range syncs {
		if s.BeforeCommit != nil {
			if err := s.BeforeCommit(); err != nil {
				return err
			}
		}
	}
	for _, consumer := range consumers {
		if err := consumer.stageTransactedAcks(txid); err != nil {
			return err
		}
	}
	return nil
}

func (t *TransactionContext) runBeforeEnd() {
	t.mu.Lock()
	syncs := append([]*Synchronization(nil), t.syncs...)
	t.mu.Unlock()
	for _, s := range syncs {
		if s.BeforeEnd != nil {
			if err := s.BeforeEnd(); err != nil {
				logger.L().Warn("before-end synchronization failed", "error", err)
			}
		}
	}
}

// finish clears the transaction and runs the after callbacks: atomically,
// either every after-commit runs or every after-rollback does.
func (t *TransactionContext) finish(committed bool) {
	t.mu.Lock()
	syncs := t.syncs
	t.syncs = nil
	t.consumers = make(map[*MessageConsumer]struct{})
	t.txid = nil
	t.mu.Unlock()
	for _, s := range syncs {
		if committed {
			if s.AfterCommit != nil {
				s.AfterCommit()
			}
		} else if s.AfterRollback != nil {
			s.AfterRollback()
		}
	}
}

func (t *TransactionContext) restartIfTransacted() {
	if t.session.ackMode.IsTransacted() && !t.session.isClosed() {
		if err := t.beginLocal(); err != nil {
			logger.L().Warn("failed to open next transaction", "error", err)
		}
	}
}

func (t *TransactionContext) snapshotConsumersLocked() []*MessageConsumer {
	out := make([]*MessageConsumer, 0, len(t.consumers))
	for consumer := range t.consumers {
		out = append(out, consumer)
	}
	return out
}

// XA support. The transaction manager drives these; the session must not
// also be running local transactions.

// XAStart associates the session with an XA branch.
func (t *TransactionContext) XAStart(xid *commands.XATransactionId) error {
	t.mu.Lock()
	if t.txid != nil {
		t.mu.Unlock()
		return ErrIllegalState("transaction context is already active")
	}
	t.txid = xid
	t.xa = true
	t.mu.Unlock()

	info := &commands.TransactionInfo{
		ConnectionId:  t.session.conn.connectionId,
		TransactionId: xid,
		Type:          commands.TransactionBegin,
	}
	return t.session.conn.asyncSend(context.Background(), info)
}

// XAEnd disassociates the session from its XA branch, staging consumer
// acks first.
func (t *TransactionContext) XAEnd(xid *commands.XATransactionId) error {
	if err := t.requireXA(xid); err != nil {
		return err
	}
	if err := t.beforePhase(xid); err != nil {
		return err
	}
	info := &commands.TransactionInfo{
		ConnectionId:  t.session.conn.connectionId,
		TransactionId: xid,
		Type:          commands.TransactionEnd,
	}
	_, err := t.session.conn.syncRequest(info)
	return err
}

// XAPrepare votes on the branch: XAOk or XAReadOnly. A read-only vote
// completes the transaction immediately.
func (t *TransactionContext) XAPrepare(xid *commands.XATransactionId) (int32, error) {
	if err := t.requireXA(xid); err != nil {
		return 0, err
	}
	info := &commands.TransactionInfo{
		ConnectionId:  t.session.conn.connectionId,
		TransactionId: xid,
		Type:          commands.TransactionPrepare,
	}
	response, err := t.session.conn.syncRequest(info)
	if err != nil {
		return 0, err
	}
	if integer, ok := response.(*commands.IntegerResponse); ok {
		if integer.Result == commands.XAReadOnly {
			t.finish(true)
		}
		return integer.Result, nil
	}
	return commands.XAOk, nil
}

// XACommit commits the branch, one or two phase.
func (t *TransactionContext) XACommit(xid *commands.XATransactionId, onePhase bool) error {
	phase := commands.TransactionCommitTwoPhase
	if onePhase {
		phase = commands.TransactionCommitOnePhase
	}
	info := &commands.TransactionInfo{
		ConnectionId:  t.session.conn.connectionId,
		TransactionId: xid,
		Type:          phase,
	}
	_, err := t.session.conn.syncRequest(info)
	if err != nil {
		t.finish(false)
		return err
	}
	t.finish(true)
	return nil
}

// XARollback rolls the branch back.
func (t *TransactionContext) XARollback(xid *commands.XATransactionId) error {
	t.mu.Lock()
	consumers := t.snapshotConsumersLocked()
	t.mu.Unlock()
	for _, consumer := range consumers {
		consumer.rollbackDelivered(true)
	}
	info := &commands.TransactionInfo{
		ConnectionId:  t.session.conn.connectionId,
		TransactionId: xid,
		Type:          commands.TransactionRollback,
	}
	_, err := t.session.conn.syncRequest(info)
	t.finish(false)
	return err
}

// XAForget tells the broker to forget a heuristically completed branch.
func (t *TransactionContext) XAForget(xid *commands.XATransactionId) error {
	info := &commands.TransactionInfo{
		ConnectionId:  t.session.conn.connectionId,
		TransactionId: xid,
		Type:          commands.TransactionForget,
	}
	_, err := t.session.conn.syncRequest(info)
	return err
}

// XARecover lists the broker's in-doubt XA branches.
func (t *TransactionContext) XARecover() ([]*commands.XATransactionId, error) {
	info := &commands.TransactionInfo{
		ConnectionId: t.session.conn.connectionId,
		Type:         commands.TransactionRecover,
	}
	response, err := t.session.conn.syncRequest(info)
	if err != nil {
		return nil, err
	}
	array, ok := response.(*commands.DataArrayResponse)
	if !ok {
		return nil, nil
	}
	var xids []*commands.XATransactionId
	for _, data := range array.Data {
		if xid, isXid := data.(*commands.XATransactionId); isXid {
			xids = append(xids, xid)
		}
	}
	return xids, nil
}

func (t *TransactionContext) requireXA(xid *commands.XATransactionId) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.txid == nil || !t.xa {
		return ErrIllegalState("no active XA transaction")
	}
	if t.txid.TransactionKey() != xid.TransactionKey() {
		return ErrIllegalState("xid does not match the active transaction")
	}
	return nil
}
