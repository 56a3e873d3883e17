// Package tcp provides the raw socket transport for tcp:// and ssl://
// broker URIs. It frames commands with the OpenWire codec and runs one
// reader goroutine per connection.
package tcp

import (
	"bufio"
	"context"
	"crypto/tls"
	"net"
	"sync"
	"time"

	"github.com/chris-alexander-pop/openwire-client/pkg/errors"
	"github.com/chris-alexander-pop/openwire-client/pkg/logger"
	"github.com/chris-alexander-pop/openwire-client/pkg/openwire"
	"github.com/chris-alexander-pop/openwire-client/pkg/openwire/commands"
	"github.com/chris-alexander-pop/openwire-client/pkg/transport"
	"golang.org/x/sync/errgroup"
)

const defaultConnectTimeout = 30 * time.Second

func init() {
	transport.RegisterScheme("tcp", func(uri *transport.URI, wf *openwire.WireFormat) (transport.Transport, error) {
		return dial(uri, wf, false)
	})
	transport.RegisterScheme("ssl", func(uri *transport.URI, wf *openwire.WireFormat) (transport.Transport, error) {
		return dial(uri, wf, true)
	})
}

// Config carries the socket options honored on tcp:// URIs.
type Config struct {
	ConnectTimeout time.Duration `env:"TCP_CONNECT_TIMEOUT" env-default:"30s" opt:"transport.connectTimeout"`
	NoDelay        bool          `env:"TCP_NO_DELAY" env-default:"true" opt:"transport.tcpNoDelay"`
}

// Transport is the bottom of the filter chain: a connected socket plus the
// wire-format codec.
type Transport struct {
	uri  *transport.URI
	wf   *openwire.WireFormat
	conn net.Conn

	writeMu sync.Mutex
	writer  *bufio.Writer

	listenerMu sync.RWMutex
	listener   transport.Listener

	startOnce sync.Once
	stopOnce  sync.Once
	closed    chan struct{}
	reader    *errgroup.Group
}

func dial(uri *transport.URI, wf *openwire.WireFormat, useTLS bool) (*Transport, error) {
	cfg := Config{ConnectTimeout: defaultConnectTimeout, NoDelay: true}
	if _, err := transport.ApplyURIOptions(&cfg, uri); err != nil {
		return nil, err
	}

	dialer := &net.Dialer{Timeout: cfg.ConnectTimeout}
	var conn net.Conn
	var err error
	if useTLS {
		conn, err = tls.DialWithDialer(dialer, "tcp", uri.Address(), nil)
	} else {
		conn, err = dialer.Dial("tcp", uri.Address())
	}
	if err != nil {
		return nil, errors.New(transport.CodeNotConnected, "failed to connect to "+uri.Address(), err)
	}
	if tcpConn, ok := conn.(*net.TCPConn); ok {
		tcpConn.SetNoDelay(cfg.NoDelay) //nolint:errcheck // best effort socket tuning
	}

	return &Transport{
		uri:    uri,
		wf:     wf,
		conn:   conn,
		writer: bufio.NewWriter(conn),
		closed: make(chan struct{}),
	}, nil
}

func (t *Transport) Kind() string { return transport.KindTCP }

func (t *Transport) Narrow(kind string) transport.Transport {
	if kind == transport.KindTCP {
		return t
	}
	return nil
}

func (t *Transport) SetListener(l transport.Listener) {
	t.listenerMu.Lock()
	t.listener = l
	t.listenerMu.Unlock()
}

func (t *Transport) getListener() transport.Listener {
	t.listenerMu.RLock()
	defer t.listenerMu.RUnlock()
	return t.listener
}

func (t *Transport) Start() error {
	t.startOnce.Do(func() {
		t.reader, _ = errgroup.WithContext(context.Background())
		t.reader.Go(t.readLoop)
	})
	return nil
}

func (t *Transport) Stop() error {
	t.stopOnce.Do(func() {
		close(t.closed)
		t.conn.Close() //nolint:errcheck // unblocks the reader
		if t.reader != nil {
			t.reader.Wait() //nolint:errcheck // read loop never returns an error
		}
	})
	return nil
}

func (t *Transport) Oneway(ctx context.Context, cmd commands.Command) error {
	select {
	case <-t.closed:
		return transport.ErrClosed(nil)
	default:
	}

	t.writeMu.Lock()
	defer t.writeMu.Unlock()

	if deadline, ok := ctx.Deadline(); ok {
		t.conn.SetWriteDeadline(deadline) //nolint:errcheck // checked on write
		defer t.conn.SetWriteDeadline(time.Time{})
	}
	if err := t.wf.Marshal(cmd, t.writer); err != nil {
		return err
	}
	if err := t.writer.Flush(); err != nil {
		return errors.New(transport.CodeNotConnected, "write to "+t.uri.Address()+" failed", err)
	}
	return nil
}

// Request at the socket level is unsupported; the response correlator above
// provides request/response semantics.
func (t *Transport) Request(ctx context.Context, cmd commands.Command, timeout time.Duration) (commands.Command, error) {
	return nil, errors.Newf(errors.CodeIllegalState, "raw tcp transport does not correlate requests")
}

func (t *Transport) readLoop() error {
	reader := bufio.NewReader(t.conn)
	for {
		cmd, err := t.wf.Unmarshal(reader)
		if err != nil {
			select {
			case <-t.closed:
				// Orderly shutdown; the read error is the closed socket.
				return nil
			default:
			}
			logger.L().Debug("transport read failed", "peer", t.uri.Address(), "error", err)
			if l := t.getListener(); l != nil {
				l.OnException(err)
			}
			return nil
		}
		if cmd == nil {
			continue
		}
		command, isCommand := cmd.(commands.Command)
		if !isCommand {
			if l := t.getListener(); l != nil {
				l.OnException(openwire.ErrUnknownType(cmd.DataStructureType()))
			}
			return nil
		}
		if l := t.getListener(); l != nil {
			l.OnCommand(command)
		}
	}
}
