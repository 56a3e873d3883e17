package transport

import (
	"context"
	"sync"
	"time"

	"github.com/chris-alexander-pop/openwire-client/pkg/openwire/commands"
)

// BaseFilter supplies the pass-through behavior shared by every pipeline
// filter: delegate the Transport methods to the next element and forward
// inbound events to the installed listener. Concrete filters embed it, set
// themselves as the next element's listener, and override the hooks they
// care about.
type BaseFilter struct {
	next Transport
	kind string
	self Transport

	mu       sync.RWMutex
	listener Listener
}

func NewBaseFilter(next Transport, kind string) BaseFilter {
	return BaseFilter{next: next, kind: kind}
}

// BindSelf records the embedding filter so Narrow can return it instead of
// the embedded BaseFilter. Called once from each filter's constructor.
func (f *BaseFilter) BindSelf(self Transport) { f.self = self }

// Next returns the downstream element.
func (f *BaseFilter) Next() Transport { return f.next }

func (f *BaseFilter) Start() error { return f.next.Start() }

func (f *BaseFilter) Stop() error { return f.next.Stop() }

func (f *BaseFilter) Oneway(ctx context.Context, cmd commands.Command) error {
	return f.next.Oneway(ctx, cmd)
}

func (f *BaseFilter) Request(ctx context.Context, cmd commands.Command, timeout time.Duration) (commands.Command, error) {
	return f.next.Request(ctx, cmd, timeout)
}

func (f *BaseFilter) SetListener(l Listener) {
	f.mu.Lock()
	f.listener = l
	f.mu.Unlock()
}

// Listener returns the installed upstream listener, or nil.
func (f *BaseFilter) Listener() Listener {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.listener
}

func (f *BaseFilter) Kind() string { return f.kind }

func (f *BaseFilter) Narrow(kind string) Transport {
	if f.kind == kind && f.self != nil {
		return f.self
	}
	return f.next.Narrow(kind)
}

// OnCommand forwards an inbound command upstream.
func (f *BaseFilter) OnCommand(cmd commands.Command) {
	if l := f.Listener(); l != nil {
		l.OnCommand(cmd)
	}
}

// OnException forwards a transport failure upstream.
func (f *BaseFilter) OnException(err error) {
	if l := f.Listener(); l != nil {
		l.OnException(err)
	}
}

// OnTransportInterrupted forwards an interruption notification upstream.
func (f *BaseFilter) OnTransportInterrupted() {
	if l := f.Listener(); l != nil {
		l.OnTransportInterrupted()
	}
}

// OnTransportResumed forwards a resumption notification upstream.
func (f *BaseFilter) OnTransportResumed() {
	if l := f.Listener(); l != nil {
		l.OnTransportResumed()
	}
}
