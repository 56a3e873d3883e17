package transport

import (
	"context"
	"testing"
	"time"

	"github.com/chris-alexander-pop/openwire-client/pkg/errors"
	"github.com/chris-alexander-pop/openwire-client/pkg/openwire"
	"github.com/chris-alexander-pop/openwire-client/pkg/openwire/commands"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNegotiatorSendsPreferredInfoOnStart(t *testing.T) {
	stub := &stubTransport{}
	wf := openwire.NewWireFormat(openwire.DefaultOptions())
	negotiator := NewNegotiator(stub, wf)

	require.NoError(t, negotiator.Start())
	info, ok := stub.lastWritten().(*commands.WireFormatInfo)
	require.True(t, ok, "first frame must be our WireFormatInfo")
	assert.True(t, info.Valid())
	assert.Equal(t, openwire.CurrentVersion, info.Version)
}

func TestNegotiatorBlocksSendsUntilPeerInfo(t *testing.T) {
	stub := &stubTransport{}
	wf := openwire.NewWireFormat(openwire.DefaultOptions())
	negotiator := NewNegotiator(stub, wf)
	negotiator.timeout = 100 * time.Millisecond
	require.NoError(t, negotiator.Start())

	sent := make(chan error, 1)
	go func() {
		sent <- negotiator.Oneway(context.Background(), &commands.SessionInfo{
			SessionId: &commands.SessionId{ConnectionId: "ID:x", Value: 1},
		})
	}()

	select {
	case err := <-sent:
		t.Fatalf("send completed before negotiation: %v", err)
	case <-time.After(20 * time.Millisecond):
	}

	// Peer info arrives; the blocked sender proceeds and the codec picks
	// up the negotiated settings.
	peer, err := openwire.NewWireFormat(openwire.DefaultOptions()).PreferredWireFormatInfo()
	require.NoError(t, err)
	stub.deliver(peer)

	require.NoError(t, <-sent)
	assert.Equal(t, openwire.CurrentVersion, wf.Version())
}

func TestNegotiatorTimesOut(t *testing.T) {
	stub := &stubTransport{}
	wf := openwire.NewWireFormat(openwire.DefaultOptions())
	negotiator := NewNegotiator(stub, wf)
	negotiator.timeout = 30 * time.Millisecond
	require.NoError(t, negotiator.Start())

	err := negotiator.Oneway(context.Background(), &commands.KeepAliveInfo{})
	require.Error(t, err)
	assert.Equal(t, CodeNegotiationTimeout, errors.Code(err))
}

func TestNegotiatorRejectsBadMagic(t *testing.T) {
	stub := &stubTransport{}
	wf := openwire.NewWireFormat(openwire.DefaultOptions())
	negotiator := NewNegotiator(stub, wf)

	failures := make(chan error, 1)
	negotiator.SetListener(&ListenerFuncs{Exception: func(err error) { failures <- err }})
	require.NoError(t, negotiator.Start())

	bad := commands.NewWireFormatInfo(openwire.CurrentVersion)
	bad.Magic = []byte("BadMagic")
	stub.deliver(bad)

	err := <-failures
	assert.Equal(t, openwire.CodeBadMagic, errors.Code(err))
}

func TestInactivityMonitorDetectsDeadPeer(t *testing.T) {
	stub := &stubTransport{}
	opts := openwire.DefaultOptions()
	opts.MaxInactivityDuration = 150 * time.Millisecond
	opts.MaxInactivityDurationInitialDelay = 30 * time.Millisecond
	wf := openwire.NewWireFormat(opts)

	monitor := NewInactivityMonitor(stub, wf)
	failures := make(chan error, 1)
	monitor.SetListener(&ListenerFuncs{Exception: func(err error) { failures <- err }})

	require.NoError(t, monitor.Start())
	defer monitor.Stop() //nolint:errcheck

	select {
	case err := <-failures:
		assert.Equal(t, CodeInactivity, errors.Code(err))
	case <-time.After(2 * time.Second):
		t.Fatal("inactivity was never detected")
	}
}

func TestInactivityMonitorSendsKeepAlives(t *testing.T) {
	stub := &stubTransport{}
	opts := openwire.DefaultOptions()
	opts.MaxInactivityDuration = 80 * time.Millisecond
	opts.MaxInactivityDurationInitialDelay = time.Minute // never declare dead here
	wf := openwire.NewWireFormat(opts)

	monitor := NewInactivityMonitor(stub, wf)
	monitor.SetListener(&ListenerFuncs{})
	require.NoError(t, monitor.Start())
	defer monitor.Stop() //nolint:errcheck

	require.Eventually(t, func() bool {
		_, ok := stub.lastWritten().(*commands.KeepAliveInfo)
		return ok
	}, 2*time.Second, 5*time.Millisecond, "writer task should heartbeat an idle connection")
}

func TestInactivityMonitorStaysQuietWhilePeerTalks(t *testing.T) {
	stub := &stubTransport{}
	opts := openwire.DefaultOptions()
	opts.MaxInactivityDuration = 120 * time.Millisecond
	opts.MaxInactivityDurationInitialDelay = 10 * time.Millisecond
	wf := openwire.NewWireFormat(opts)

	monitor := NewInactivityMonitor(stub, wf)
	failures := make(chan error, 1)
	received := make(chan commands.Command, 16)
	monitor.SetListener(&ListenerFuncs{
		Exception: func(err error) { failures <- err },
		Command:   func(cmd commands.Command) { received <- cmd },
	})
	require.NoError(t, monitor.Start())
	defer monitor.Stop() //nolint:errcheck

	// A chatty peer: heartbeats keep the read clock fresh and are not
	// passed upward.
	deadline := time.Now().Add(350 * time.Millisecond)
	for time.Now().Before(deadline) {
		stub.deliver(&commands.KeepAliveInfo{})
		time.Sleep(25 * time.Millisecond)
	}
	select {
	case err := <-failures:
		t.Fatalf("peer was alive but monitor reported %v", err)
	default:
	}
	assert.Empty(t, received, "keep-alives are consumed by the monitor")
}
