// Package failover provides transparent reconnection across a pool of
// broker URIs. The failover transport owns one connected filter chain at a
// time; when it faults, the transport interrupts its listener, walks the
// URI pool under the reconnect policy, and on success replays the tracked
// connection state before releasing queued and blocked senders.
package failover

import (
	"context"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/chris-alexander-pop/openwire-client/pkg/errors"
	"github.com/chris-alexander-pop/openwire-client/pkg/logger"
	"github.com/chris-alexander-pop/openwire-client/pkg/openwire"
	"github.com/chris-alexander-pop/openwire-client/pkg/openwire/commands"
	"github.com/chris-alexander-pop/openwire-client/pkg/resilience"
	"github.com/chris-alexander-pop/openwire-client/pkg/state"
	"github.com/chris-alexander-pop/openwire-client/pkg/transport"
)

// State is the failover transport lifecycle.
type State int32

const (
	Disconnected State = iota
	Connecting
	Connected
	Reconnecting
	Shutdown
)

func (s State) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	case Reconnecting:
		return "reconnecting"
	case Shutdown:
		return "shutdown"
	}
	return "unknown"
}

// Config is the reconnect policy. URI options apply with or without the
// transport. prefix.
type Config struct {
	InitialReconnectDelay       time.Duration `env:"FAILOVER_INITIAL_RECONNECT_DELAY" env-default:"10ms" opt:"initialReconnectDelay"`
	MaxReconnectDelay           time.Duration `env:"FAILOVER_MAX_RECONNECT_DELAY" env-default:"30s" opt:"maxReconnectDelay"`
	UseExponentialBackOff       bool          `env:"FAILOVER_EXPONENTIAL_BACKOFF" env-default:"true" opt:"useExponentialBackOff"`
	BackOffMultiplier           float64       `env:"FAILOVER_BACKOFF_MULTIPLIER" env-default:"2.0" opt:"backOffMultiplier" validate:"gt=1"`
	MaxReconnectAttempts        int           `env:"FAILOVER_MAX_RECONNECT_ATTEMPTS" env-default:"-1" opt:"maxReconnectAttempts"`
	StartupMaxReconnectAttempts int           `env:"FAILOVER_STARTUP_MAX_RECONNECT_ATTEMPTS" env-default:"-1" opt:"startupMaxReconnectAttempts"`
	ReconnectSupported          bool          `env:"FAILOVER_RECONNECT_SUPPORTED" env-default:"true" opt:"reconnectSupported"`
	UpdateURIsSupported         bool          `env:"FAILOVER_UPDATE_URIS_SUPPORTED" env-default:"true" opt:"updateURIsSupported"`
	Randomize                   bool          `env:"FAILOVER_RANDOMIZE" env-default:"true" opt:"randomize"`
	Backup                      bool          `env:"FAILOVER_BACKUP" env-default:"false" opt:"backup"`
	BackupPoolSize              int           `env:"FAILOVER_BACKUP_POOL_SIZE" env-default:"1" opt:"backupPoolSize" validate:"min=1"`
	TrackMessages               bool          `env:"FAILOVER_TRACK_MESSAGES" env-default:"false" opt:"trackMessages"`
	MaxCacheSize                int64         `env:"FAILOVER_MAX_CACHE_SIZE" env-default:"131072" opt:"maxCacheSize"`
	Timeout                     time.Duration `env:"FAILOVER_TIMEOUT" env-default:"-1ms" opt:"timeout"`
}

// DefaultConfig returns the standard reconnect policy.
func DefaultConfig() Config {
	return Config{
		InitialReconnectDelay:       10 * time.Millisecond,
		MaxReconnectDelay:           30 * time.Second,
		UseExponentialBackOff:       true,
		BackOffMultiplier:           2.0,
		MaxReconnectAttempts:        -1,
		StartupMaxReconnectAttempts: -1,
		ReconnectSupported:          true,
		UpdateURIsSupported:         true,
		Randomize:                   true,
		BackupPoolSize:              1,
		MaxCacheSize:                128 * 1024,
		Timeout:                     -1,
	}
}

type queuedCommand struct {
	cmd commands.Command
}

type backupEntry struct {
	uri   *transport.URI
	chain transport.Transport
}

// Transport is the failover pipeline element.
type Transport struct {
	cfg    Config
	wfOpts openwire.Options

	tracker *state.Tracker

	mu           sync.Mutex
	state        State
	uris         []*transport.URI
	connected    transport.Transport
	connectedURI *transport.URI
	pending      []queuedCommand
	pendingBytes int64
	backups      []backupEntry
	listener     transport.Listener
	connectedCh  chan struct{}
	firstConnect bool
	lastError    error

	reconnectCh chan struct{}
	shutdownCh  chan struct{}
	tasksDone   sync.WaitGroup
}

// New builds a failover transport from a failover:// composite URI. The
// member URIs keep their own options; the composite options configure the
// reconnect policy and the wire format defaults of every member.
func New(uri *transport.URI, wfOpts openwire.Options) (*Transport, error) {
	if !uri.IsComposite() {
		return nil, errors.Newf(errors.CodeInvalidArgument, "failover URI %q has no member URIs", uri.Raw)
	}
	cfg := DefaultConfig()
	if _, err := transport.ApplyURIOptions(&cfg, normalized(uri)); err != nil {
		return nil, err
	}
	if _, err := transport.ApplyURIOptions(&wfOpts, uri); err != nil {
		return nil, err
	}

	t := &Transport{
		cfg:    cfg,
		wfOpts: wfOpts,
		tracker: state.NewTracker(state.Options{
			TrackMessages: cfg.TrackMessages,
			MaxCacheSize:  cfg.MaxCacheSize,
		}),
		state:        Disconnected,
		uris:         append([]*transport.URI(nil), uri.Members...),
		connectedCh:  make(chan struct{}),
		firstConnect: true,
		reconnectCh:  make(chan struct{}, 1),
		shutdownCh:   make(chan struct{}),
	}
	if cfg.Randomize {
		rand.Shuffle(len(t.uris), func(i, j int) { t.uris[i], t.uris[j] = t.uris[j], t.uris[i] })
	}
	return t, nil
}

// normalized strips the transport. prefix so both spellings of the pool
// options apply.
func normalized(uri *transport.URI) *transport.URI {
	if len(uri.Options) == 0 {
		return uri
	}
	options := make(map[string]string, len(uri.Options))
	for key, value := range uri.Options {
		options[strings.TrimPrefix(key, "transport.")] = value
	}
	return &transport.URI{Raw: uri.Raw, Scheme: uri.Scheme, Options: options}
}

// Tracker exposes the connection state tracker so the client layer can
// inspect it.
func (t *Transport) Tracker() *state.Tracker { return t.tracker }

// State returns the current lifecycle state.
func (t *Transport) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

func (t *Transport) Kind() string { return transport.KindFailover }

func (t *Transport) Narrow(kind string) transport.Transport {
	if kind == transport.KindFailover {
		return t
	}
	t.mu.Lock()
	connected := t.connected
	t.mu.Unlock()
	if connected == nil {
		return nil
	}
	return connected.Narrow(kind)
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

// Start connects to the first reachable URI, honoring
// startupMaxReconnectAttempts, then hands faults to the background
// reconnect task.
func (t *Transport) Start() error {
	t.mu.Lock()
	if t.state == Shutdown {
		t.mu.Unlock()
		return transport.ErrClosed(nil)
	}
	t.state = Connecting
	t.mu.Unlock()

	if err := t.connectLoop(t.cfg.StartupMaxReconnectAttempts, true); err != nil {
		t.mu.Lock()
		t.state = Disconnected
		t.mu.Unlock()
		return err
	}

	t.tasksDone.Add(1)
	go t.reconnectTask()
	return nil
}

// Stop shuts the transport down, aborting any in-flight reconnect attempt.
func (t *Transport) Stop() error {
	t.mu.Lock()
	if t.state == Shutdown {
		t.mu.Unlock()
		return nil
	}
	t.state = Shutdown
	connected := t.connected
	t.connected = nil
	backups := t.backups
	t.backups = nil
	t.mu.Unlock()

	close(t.shutdownCh)
	if connected != nil {
		connected.Stop() //nolint:errcheck // already shutting down
	}
	for _, backup := range backups {
		backup.chain.Stop() //nolint:errcheck // already shutting down
	}
	t.tasksDone.Wait()
	return nil
}

func (t *Transport) Oneway(ctx context.Context, cmd commands.Command) error {
	for {
		t.mu.Lock()
		switch t.state {
		case Shutdown:
			t.mu.Unlock()
			return transport.ErrClosed(nil)
		case Connected:
			connected := t.connected
			t.tracker.Track(cmd)
			t.mu.Unlock()
			err := connected.Oneway(ctx, cmd)
			if err == nil {
				return nil
			}
			if transportFatal(err) {
				t.handleFailure(connected, err)
				continue
			}
			return err
		default:
			if !cmd.IsResponseRequired() {
				err := t.enqueueLocked(cmd)
				t.mu.Unlock()
				return err
			}
			ch := t.connectedCh
			t.mu.Unlock()
			if err := t.awaitConnected(ctx, ch); err != nil {
				return err
			}
		}
	}
}

func (t *Transport) Request(ctx context.Context, cmd commands.Command, timeout time.Duration) (commands.Command, error) {
	for {
		t.mu.Lock()
		switch t.state {
		case Shutdown:
			t.mu.Unlock()
			return nil, transport.ErrClosed(nil)
		case Connected:
			connected := t.connected
			t.tracker.Track(cmd)
			t.mu.Unlock()
			response, err := connected.Request(ctx, cmd, timeout)
			if err != nil && transportFatal(err) {
				t.handleFailure(connected, err)
				continue
			}
			return response, err
		default:
			ch := t.connectedCh
			t.mu.Unlock()
			if err := t.awaitConnected(ctx, ch); err != nil {
				return nil, err
			}
		}
	}
}

// enqueueLocked parks a command for delivery after reconnect, bounded by
// the configured cache size. Callers hold t.mu.
func (t *Transport) enqueueLocked(cmd commands.Command) error {
	size := commandSize(cmd)
	if t.cfg.MaxCacheSize > 0 && t.pendingBytes+size > t.cfg.MaxCacheSize {
		return errors.Newf(transport.CodeNotConnected, "pending command queue is full (%d bytes)", t.pendingBytes)
	}
	t.pending = append(t.pending, queuedCommand{cmd: cmd})
	t.pendingBytes += size
	return nil
}

// awaitConnected blocks until the transport reconnects, bounded by the
// configured timeout.
func (t *Transport) awaitConnected(ctx context.Context, ch chan struct{}) error {
	var timeoutCh <-chan time.Time
	if t.cfg.Timeout > 0 {
		timer := time.NewTimer(t.cfg.Timeout)
		defer timer.Stop()
		timeoutCh = timer.C
	}
	select {
	case <-ch:
		return nil
	case <-t.shutdownCh:
		return transport.ErrClosed(nil)
	case <-timeoutCh:
		return transport.ErrTimeout("reconnect")
	case <-ctx.Done():
		return ctx.Err()
	}
}

// handleFailure reacts to a fault on the connected chain: interrupt
// upstream, tear the chain down, and kick the reconnect task.
func (t *Transport) handleFailure(failed transport.Transport, cause error) {
	t.mu.Lock()
	if t.state == Shutdown || t.connected != failed {
		// Someone else already handled this fault.
		t.mu.Unlock()
		return
	}
	t.state = Reconnecting
	t.connected = nil
	t.connectedURI = nil
	t.lastError = cause
	t.connectedCh = make(chan struct{})
	listener := t.listener
	t.mu.Unlock()

	logger.L().Warn("transport interrupted; reconnecting", "error", cause)
	t.tracker.TransportInterrupted()
	if listener != nil {
		listener.OnTransportInterrupted()
	}
	go failed.Stop() //nolint:errcheck // draining a dead chain

	if !t.cfg.ReconnectSupported {
		t.surfaceFailure(cause)
		return
	}
	select {
	case t.reconnectCh <- struct{}{}:
	default:
	}
}

// reconnectTask serves reconnect requests for the life of the transport.
func (t *Transport) reconnectTask() {
	defer t.tasksDone.Done()
	for {
		select {
		case <-t.shutdownCh:
			return
		case <-t.reconnectCh:
		}
		if err := t.connectLoop(t.cfg.MaxReconnectAttempts, false); err != nil {
			if t.State() == Shutdown {
				return
			}
			t.surfaceFailure(err)
		}
	}
}

// connectLoop walks the URI pool until a connection succeeds or the
// attempt budget is exhausted: negative means unlimited, zero means no
// reconnect. The initial Start always gets at least one attempt. A warm
// backup is promoted without delay.
func (t *Transport) connectLoop(maxAttempts int, atLeastOne bool) error {
	if chain, uri := t.takeBackup(); chain != nil {
		if err := t.afterConnect(chain, uri); err == nil {
			return nil
		}
		chain.Stop() //nolint:errcheck // failed promotion
	}

	if maxAttempts == 0 && atLeastOne {
		maxAttempts = 1
	}
	if maxAttempts == 0 {
		return errors.Newf(transport.CodeNotConnected, "reconnect disabled (maxReconnectAttempts=0)")
	}

	backoff := resilience.Backoff{
		Initial:    t.cfg.InitialReconnectDelay,
		Max:        t.cfg.MaxReconnectDelay,
		Multiplier: 1,
	}
	if t.cfg.UseExponentialBackOff {
		backoff.Multiplier = t.cfg.BackOffMultiplier
	}

	var lastErr error
	for attempt := 0; maxAttempts < 0 || attempt < maxAttempts; attempt++ {
		select {
		case <-t.shutdownCh:
			return transport.ErrClosed(nil)
		default:
		}

		uri := t.nextURI(attempt)
		chain, err := t.openChain(uri)
		if err == nil {
			if err = t.afterConnect(chain, uri); err == nil {
				return nil
			}
			chain.Stop() //nolint:errcheck // failed handshake
		}
		lastErr = err
		logger.L().Debug("broker connect failed", "uri", uri.Raw, "attempt", attempt+1, "error", err)

		if maxAttempts >= 0 && attempt+1 >= maxAttempts {
			break
		}
		timer := time.NewTimer(backoff.Next())
		select {
		case <-t.shutdownCh:
			timer.Stop()
			return transport.ErrClosed(nil)
		case <-timer.C:
		}
	}
	if lastErr == nil {
		lastErr = errors.Newf(transport.CodeNotConnected, "no broker URI reachable")
	}
	return lastErr
}

func (t *Transport) nextURI(attempt int) *transport.URI {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.uris[attempt%len(t.uris)]
}

func (t *Transport) openChain(uri *transport.URI) (transport.Transport, error) {
	chain, err := transport.Open(uri, t.wfOpts)
	if err != nil {
		return nil, err
	}
	chain.SetListener(&chainListener{parent: t, chain: chain})
	if err := chain.Start(); err != nil {
		chain.Stop() //nolint:errcheck // never started cleanly
		return nil, err
	}
	return chain, nil
}

// afterConnect installs the fresh chain, replays the tracked state, then
// flushes the queued tail in order before unblocking senders.
func (t *Transport) afterConnect(chain transport.Transport, uri *transport.URI) error {
	replay := !t.isFirstConnect()
	if replay {
		if err := t.tracker.Restore(context.Background(), chain); err != nil {
			return err
		}
	}

	t.mu.Lock()
	pending := t.pending
	t.pending = nil
	t.pendingBytes = 0
	t.mu.Unlock()
	for i, queued := range pending {
		if err := chain.Oneway(context.Background(), queued.cmd); err != nil {
			// Put the unflushed tail back so the next attempt retries it.
			t.mu.Lock()
			t.pending = append(append([]queuedCommand(nil), pending[i:]...), t.pending...)
			t.pendingBytes = 0
			for _, q := range t.pending {
				t.pendingBytes += commandSize(q.cmd)
			}
			t.mu.Unlock()
			return err
		}
	}

	t.mu.Lock()
	if t.state == Shutdown {
		t.mu.Unlock()
		return transport.ErrClosed(nil)
	}
	t.connected = chain
	t.connectedURI = uri
	t.state = Connected
	t.firstConnect = false
	close(t.connectedCh)
	listener := t.listener
	t.mu.Unlock()

	logger.L().Info("connected to broker", "uri", uri.Raw, "replayed", replay)
	if replay && listener != nil {
		listener.OnTransportResumed()
	}
	t.maintainBackups()
	return nil
}

func (t *Transport) isFirstConnect() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.firstConnect
}

func (t *Transport) surfaceFailure(err error) {
	t.mu.Lock()
	if t.state != Shutdown {
		t.state = Disconnected
	}
	listener := t.listener
	t.mu.Unlock()
	if listener != nil {
		listener.OnException(err)
	}
}

// maintainBackups keeps warm spare connections to URIs other than the
// connected one.
func (t *Transport) maintainBackups() {
	if !t.cfg.Backup {
		return
	}
	t.mu.Lock()
	currentURI := t.connectedURI
	have := len(t.backups)
	want := t.cfg.BackupPoolSize
	candidates := make([]*transport.URI, 0, len(t.uris))
	for _, uri := range t.uris {
		if currentURI != nil && uri.Raw == currentURI.Raw {
			continue
		}
		inUse := false
		for _, backup := range t.backups {
			if backup.uri.Raw == uri.Raw {
				inUse = true
				break
			}
		}
		if !inUse {
			candidates = append(candidates, uri)
		}
	}
	t.mu.Unlock()

	for _, uri := range candidates {
		if have >= want {
			return
		}
		chain, err := transport.Open(uri, t.wfOpts)
		if err != nil {
			continue
		}
		entry := backupEntry{uri: uri, chain: chain}
		chain.SetListener(&backupListener{parent: t, uri: uri})
		if err := chain.Start(); err != nil {
			chain.Stop() //nolint:errcheck // never started cleanly
			continue
		}
		t.mu.Lock()
		if t.state != Connected {
			t.mu.Unlock()
			chain.Stop() //nolint:errcheck // raced with a fault
			return
		}
		t.backups = append(t.backups, entry)
		have = len(t.backups)
		t.mu.Unlock()
		logger.L().Debug("backup broker connection established", "uri", uri.Raw)
	}
}

// takeBackup pops the warmest backup for promotion.
func (t *Transport) takeBackup() (transport.Transport, *transport.URI) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.backups) == 0 {
		return nil, nil
	}
	entry := t.backups[0]
	t.backups = t.backups[1:]
	entry.chain.SetListener(&chainListener{parent: t, chain: entry.chain})
	return entry.chain, entry.uri
}

func (t *Transport) dropBackup(uri *transport.URI) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i, backup := range t.backups {
		if backup.uri.Raw == uri.Raw {
			t.backups = append(t.backups[:i], t.backups[i+1:]...)
			go backup.chain.Stop() //nolint:errcheck // dead backup
			return
		}
	}
}

// updateURIs merges broker-advertised URIs into the pool.
func (t *Transport) updateURIs(connectedBrokers string) {
	if !t.cfg.UpdateURIsSupported || connectedBrokers == "" {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, raw := range strings.Split(connectedBrokers, ",") {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		parsed, err := transport.ParseURI(raw)
		if err != nil {
			logger.L().Debug("ignoring invalid broker-advertised URI", "uri", raw, "error", err)
			continue
		}
		known := false
		for _, existing := range t.uris {
			if existing.Raw == parsed.Raw {
				known = true
				break
			}
		}
		if !known {
			t.uris = append(t.uris, parsed)
			logger.L().Info("added broker-advertised URI to pool", "uri", parsed.Raw)
		}
	}
}

// onCommand handles inbound commands from the connected chain.
func (t *Transport) onCommand(cmd commands.Command) {
	switch c := cmd.(type) {
	case *commands.ProducerAck:
		t.tracker.OnProducerAck(c)
	case *commands.ConnectionControl:
		t.updateURIs(c.ConnectedBrokers)
	}
	if listener := t.getListener(); listener != nil {
		listener.OnCommand(cmd)
	}
}

// chainListener feeds the connected chain's events back into the failover
// transport.
type chainListener struct {
	parent *Transport
	chain  transport.Transport
}

func (l *chainListener) OnCommand(cmd commands.Command) { l.parent.onCommand(cmd) }

func (l *chainListener) OnException(err error) { l.parent.handleFailure(l.chain, err) }

func (l *chainListener) OnTransportInterrupted() {}

func (l *chainListener) OnTransportResumed() {}

// backupListener discards a warm spare that dies while idle.
type backupListener struct {
	parent *Transport
	uri    *transport.URI
}

func (l *backupListener) OnCommand(cmd commands.Command) {}

func (l *backupListener) OnException(err error) { l.parent.dropBackup(l.uri) }

func (l *backupListener) OnTransportInterrupted() {}

func (l *backupListener) OnTransportResumed() {}

// transportFatal reports whether a send error should trigger failover
// rather than be returned to the caller.
func transportFatal(err error) bool {
	switch errors.Code(err) {
	case transport.CodeNotConnected, transport.CodeInactivity:
		return true
	}
	return openwire.IsFramingError(err)
}

func commandSize(cmd commands.Command) int64 {
	if variant, ok := cmd.(commands.MessageVariant); ok {
		msg := variant.GetMessage()
		return int64(len(msg.Content)+len(msg.MarshalledProperties)) + 64
	}
	return 64
}
