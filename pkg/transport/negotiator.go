package transport

import (
	"context"
	"sync"
	"time"

	"github.com/chris-alexander-pop/openwire-client/pkg/logger"
	"github.com/chris-alexander-pop/openwire-client/pkg/openwire"
	"github.com/chris-alexander-pop/openwire-client/pkg/openwire/commands"
)

// negotiationTimeout bounds how long senders wait for the peer's
// WireFormatInfo before failing.
const negotiationTimeout = 15 * time.Second

// Negotiator performs the wire format handshake. On Start it sends our
// preferred WireFormatInfo; until the peer's arrives and the codec has been
// renegotiated, every other outbound command blocks on the ready latch.
type Negotiator struct {
	BaseFilter
	wf *openwire.WireFormat

	timeout time.Duration

	startOnce sync.Once
	ready     chan struct{}
	readyOnce sync.Once
}

func NewNegotiator(next Transport, wf *openwire.WireFormat) *Negotiator {
	n := &Negotiator{
		BaseFilter: NewBaseFilter(next, KindNegotiator),
		wf:         wf,
		timeout:    negotiationTimeout,
		ready:      make(chan struct{}),
	}
	n.BindSelf(n)
	next.SetListener(n)
	return n
}

func (n *Negotiator) Start() error {
	if err := n.BaseFilter.Start(); err != nil {
		return err
	}
	var startErr error
	n.startOnce.Do(func() {
		info, err := n.wf.PreferredWireFormatInfo()
		if err != nil {
			startErr = err
			return
		}
		startErr = n.Next().Oneway(context.Background(), info)
	})
	return startErr
}

func (n *Negotiator) Oneway(ctx context.Context, cmd commands.Command) error {
	if _, isInfo := cmd.(*commands.WireFormatInfo); !isInfo {
		if err := n.awaitReady(ctx); err != nil {
			return err
		}
	}
	return n.Next().Oneway(ctx, cmd)
}

func (n *Negotiator) Request(ctx context.Context, cmd commands.Command, timeout time.Duration) (commands.Command, error) {
	if err := n.awaitReady(ctx); err != nil {
		return nil, err
	}
	return n.Next().Request(ctx, cmd, timeout)
}

func (n *Negotiator) awaitReady(ctx context.Context) error {
	timer := time.NewTimer(n.timeout)
	defer timer.Stop()
	select {
	case <-n.ready:
		return nil
	case <-timer.C:
		return ErrNegotiationTimeout()
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (n *Negotiator) markReady() {
	n.readyOnce.Do(func() { close(n.ready) })
}

// OnCommand applies the peer's WireFormatInfo to the codec and releases
// blocked senders. The info frame is still passed upward so interested
// listeners can observe it.
func (n *Negotiator) OnCommand(cmd commands.Command) {
	if info, isInfo := cmd.(*commands.WireFormatInfo); isInfo {
		if err := n.wf.Renegotiate(info); err != nil {
			n.markReady()
			n.BaseFilter.OnException(err)
			return
		}
		logger.L().Debug("wire format negotiated",
			"version", n.wf.Version(),
			"max_inactivity", n.wf.MaxInactivityDuration())
		n.markReady()
	}
	n.BaseFilter.OnCommand(cmd)
}

// OnException releases blocked senders so they observe the failure instead
// of the negotiation timeout.
func (n *Negotiator) OnException(err error) {
	n.markReady()
	n.BaseFilter.OnException(err)
}

func (n *Negotiator) Stop() error {
	n.markReady()
	return n.BaseFilter.Stop()
}
