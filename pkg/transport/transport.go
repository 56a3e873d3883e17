// Package transport provides the OpenWire transport pipeline: a chain of
// composable filters between the connection and the raw socket, each
// presenting the same Transport interface.
//
// The standard outbound chain is
//
//	connection → failover transport (state tracker) → logging filter →
//	response correlator → inactivity monitor → wire-format negotiator →
//	I/O transport
//
// Inbound commands flow the reverse direction through each filter's
// Listener. Concrete I/O transports live under adapters/ and register their
// URI scheme with RegisterScheme, the way database/sql drivers register
// themselves.
package transport

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/chris-alexander-pop/openwire-client/pkg/config"
	"github.com/chris-alexander-pop/openwire-client/pkg/errors"
	"github.com/chris-alexander-pop/openwire-client/pkg/openwire"
	"github.com/chris-alexander-pop/openwire-client/pkg/openwire/commands"
)

// Filter kind names for Narrow.
const (
	KindTCP        = "tcp"
	KindMock       = "mock"
	KindNegotiator = "negotiator"
	KindInactivity = "inactivity"
	KindCorrelator = "correlator"
	KindLogging    = "logging"
	KindFailover   = "failover"
	KindTracker    = "tracker"
)

// Transport is one element of the pipeline. All methods are safe for
// concurrent use.
type Transport interface {
	// Start begins I/O. The listener must be set before Start.
	Start() error

	// Stop halts I/O and releases resources. Stopping an already stopped
	// transport is a no-op.
	Stop() error

	// Oneway sends a command without waiting for a response.
	Oneway(ctx context.Context, cmd commands.Command) error

	// Request sends a command and waits for the matching response. A zero
	// timeout waits until the context is done or the transport fails.
	Request(ctx context.Context, cmd commands.Command, timeout time.Duration) (commands.Command, error)

	// SetListener installs the upstream listener for inbound commands and
	// transport events.
	SetListener(l Listener)

	// Narrow returns the first element of the chain (including this one)
	// with the given kind, or nil.
	Narrow(kind string) Transport

	// Kind names this pipeline element.
	Kind() string
}

// Listener receives inbound commands and transport lifecycle events.
type Listener interface {
	OnCommand(cmd commands.Command)
	OnException(err error)
	OnTransportInterrupted()
	OnTransportResumed()
}

// ListenerFuncs adapts plain functions to Listener; nil funcs are no-ops.
type ListenerFuncs struct {
	Command     func(cmd commands.Command)
	Exception   func(err error)
	Interrupted func()
	Resumed     func()
}

func (l *ListenerFuncs) OnCommand(cmd commands.Command) {
	if l.Command != nil {
		l.Command(cmd)
	}
}

func (l *ListenerFuncs) OnException(err error) {
	if l.Exception != nil {
		l.Exception(err)
	}
}

func (l *ListenerFuncs) OnTransportInterrupted() {
	if l.Interrupted != nil {
		l.Interrupted()
	}
}

func (l *ListenerFuncs) OnTransportResumed() {
	if l.Resumed != nil {
		l.Resumed()
	}
}

// Factory creates the I/O transport for one broker URI. The wire format is
// owned by the caller so the negotiator above can renegotiate it.
type Factory func(uri *URI, wf *openwire.WireFormat) (Transport, error)

var (
	schemesMu sync.RWMutex
	schemes   = make(map[string]Factory)
)

// RegisterScheme installs a transport factory for a URI scheme. Adapters
// call this from their init.
func RegisterScheme(scheme string, factory Factory) {
	schemesMu.Lock()
	defer schemesMu.Unlock()
	schemes[scheme] = factory
}

// Schemes lists the registered scheme names, sorted.
func Schemes() []string {
	schemesMu.RLock()
	defer schemesMu.RUnlock()
	names := make([]string, 0, len(schemes))
	for name := range schemes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func factoryFor(scheme string) (Factory, error) {
	schemesMu.RLock()
	defer schemesMu.RUnlock()
	factory, ok := schemes[scheme]
	if !ok {
		return nil, errors.Newf(errors.CodeInvalidArgument, "no transport registered for scheme %q", scheme)
	}
	return factory, nil
}

// Open builds the standard filter chain for one broker URI: I/O transport,
// wire-format negotiator, inactivity monitor, response correlator, logging
// filter. The returned transport is the top of the chain, ready for
// SetListener and Start.
func Open(uri *URI, wfOpts openwire.Options) (Transport, error) {
	factory, err := factoryFor(uri.Scheme)
	if err != nil {
		return nil, err
	}
	if _, err := ApplyURIOptions(&wfOpts, uri); err != nil {
		return nil, err
	}
	wf := openwire.NewWireFormat(wfOpts)
	io, err := factory(uri, wf)
	if err != nil {
		return nil, err
	}
	var chain Transport = NewNegotiator(io, wf)
	chain = NewInactivityMonitor(chain, wf)
	chain = NewResponseCorrelator(chain)
	chain = NewInstrumented(chain)
	return chain, nil
}

// ApplyURIOptions overlays the URI's query options onto cfg, returning the
// options that did not match any field.
func ApplyURIOptions(cfg any, uri *URI) (map[string]string, error) {
	if len(uri.Options) == 0 {
		return nil, nil
	}
	return config.ApplyOptions(cfg, uri.Options)
}
