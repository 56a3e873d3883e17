// Package mock provides the in-memory transport behind mock:// URIs. It
// stands in for a broker in tests: it records every command written,
// answers requests with empty responses, and completes the wire format
// handshake, with hooks for fault injection.
package mock

import (
	"context"
	"sync"
	"time"

	"github.com/chris-alexander-pop/openwire-client/pkg/errors"
	"github.com/chris-alexander-pop/openwire-client/pkg/openwire"
	"github.com/chris-alexander-pop/openwire-client/pkg/openwire/commands"
	"github.com/chris-alexander-pop/openwire-client/pkg/transport"
)

func init() {
	transport.RegisterScheme("mock", func(uri *transport.URI, wf *openwire.WireFormat) (transport.Transport, error) {
		return New(uri, wf)
	})
}

// Config carries the fault-injection options recognized on mock:// URIs.
type Config struct {
	// FailOnSendMessage makes the next message send fail and kills the
	// transport, as if the socket broke mid-write.
	FailOnSendMessage bool `opt:"failOnSendMessage"`

	// FailOnStart refuses to start, as if the broker were unreachable.
	FailOnStart bool `opt:"failOnStart"`

	// NoAutoRespond disables the automatic empty Response to commands sent
	// with responseRequired; tests then feed responses with Inject.
	NoAutoRespond bool `opt:"noAutoRespond"`

	// NoNegotiate suppresses the automatic peer WireFormatInfo on start.
	NoNegotiate bool `opt:"noNegotiate"`
}

var (
	registryMu sync.Mutex
	registry   = make(map[string]*Transport)
)

// Lookup returns the most recently created mock transport for an address
// (host:port), letting tests reach instances created inside a failover
// pool.
func Lookup(address string) *Transport {
	registryMu.Lock()
	defer registryMu.Unlock()
	return registry[address]
}

// Transport is a scriptable in-memory peer.
type Transport struct {
	uri *transport.URI
	wf  *openwire.WireFormat
	cfg Config

	mu       sync.Mutex
	written  []commands.Command
	listener transport.Listener
	started  bool
	stopped  bool
	failed   error
}

func New(uri *transport.URI, wf *openwire.WireFormat) (*Transport, error) {
	cfg := Config{}
	if _, err := transport.ApplyURIOptions(&cfg, uri); err != nil {
		return nil, err
	}
	t := &Transport{uri: uri, wf: wf, cfg: cfg}
	registryMu.Lock()
	registry[uri.Address()] = t
	registryMu.Unlock()
	return t, nil
}

func (t *Transport) Kind() string { return transport.KindMock }

func (t *Transport) Narrow(kind string) transport.Transport {
	if kind == transport.KindMock {
		return t
	}
	return nil
}

func (t *Transport) SetListener(l transport.Listener) {
	t.mu.Lock()
	t.listener = l
	t.mu.Unlock()
}

func (t *Transport) getListener() transport.Listener {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.listener
}

func (t *Transport) Start() error {
	if t.cfg.FailOnStart {
		return transport.ErrNotConnected(errors.Newf(errors.CodeInternal, "mock broker %s refuses connections", t.uri.Address()))
	}
	t.mu.Lock()
	t.started = true
	t.mu.Unlock()

	if !t.cfg.NoNegotiate {
		// Emulate the peer's half of the handshake.
		go func() {
			info, err := t.wf.PreferredWireFormatInfo()
			if err != nil {
				return
			}
			if l := t.getListener(); l != nil {
				l.OnCommand(info)
			}
		}()
	}
	return nil
}

func (t *Transport) Stop() error {
	t.mu.Lock()
	t.stopped = true
	t.mu.Unlock()
	return nil
}

func (t *Transport) Oneway(ctx context.Context, cmd commands.Command) error {
	t.mu.Lock()
	if t.stopped {
		t.mu.Unlock()
		return transport.ErrClosed(nil)
	}
	if t.failed != nil {
		err := t.failed
		t.mu.Unlock()
		return err
	}
	if _, isMessage := cmd.(commands.MessageVariant); isMessage && t.cfg.FailOnSendMessage {
		err := transport.ErrNotConnected(errors.Newf(errors.CodeInternal, "mock broker %s dropped the connection", t.uri.Address()))
		t.failed = err
		t.mu.Unlock()
		go t.Fail(err)
		return err
	}
	t.written = append(t.written, cmd)
	t.mu.Unlock()

	if cmd.IsResponseRequired() && !t.cfg.NoAutoRespond {
		go t.respond(cmd)
	}
	return nil
}

func (t *Transport) respond(cmd commands.Command) {
	response := &commands.Response{CorrelationId: cmd.GetCommandId()}
	if l := t.getListener(); l != nil {
		l.OnCommand(response)
	}
}

func (t *Transport) Request(ctx context.Context, cmd commands.Command, timeout time.Duration) (commands.Command, error) {
	return nil, errors.Newf(errors.CodeIllegalState, "raw mock transport does not correlate requests")
}

// Inject delivers a command as if the broker had sent it.
func (t *Transport) Inject(cmd commands.Command) {
	if l := t.getListener(); l != nil {
		l.OnCommand(cmd)
	}
}

// Fail reports a transport failure to the listener, as if the socket died.
func (t *Transport) Fail(err error) {
	t.mu.Lock()
	if t.failed == nil {
		t.failed = err
	}
	t.mu.Unlock()
	if l := t.getListener(); l != nil {
		l.OnException(err)
	}
}

// Written returns a snapshot of every command sent through this transport.
func (t *Transport) Written() []commands.Command {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]commands.Command(nil), t.written...)
}

// WrittenOfType filters Written by data structure type.
func (t *Transport) WrittenOfType(tag byte) []commands.Command {
	var matching []commands.Command
	for _, cmd := range t.Written() {
		if cmd.DataStructureType() == tag {
			matching = append(matching, cmd)
		}
	}
	return matching
}
