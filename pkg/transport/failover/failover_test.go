package failover_test

import (
	"context"
	"testing"
	"time"

	"github.com/chris-alexander-pop/openwire-client/pkg/openwire"
	"github.com/chris-alexander-pop/openwire-client/pkg/openwire/commands"
	"github.com/chris-alexander-pop/openwire-client/pkg/transport"
	"github.com/chris-alexander-pop/openwire-client/pkg/transport/adapters/mock"
	"github.com/chris-alexander-pop/openwire-client/pkg/transport/failover"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testListener struct {
	commands    chan commands.Command
	exceptions  chan error
	interrupted chan struct{}
	resumed     chan struct{}
}

func newTestListener() *testListener {
	return &testListener{
		commands:    make(chan commands.Command, 64),
		exceptions:  make(chan error, 8),
		interrupted: make(chan struct{}, 8),
		resumed:     make(chan struct{}, 8),
	}
}

func (l *testListener) OnCommand(cmd commands.Command) { l.commands <- cmd }
func (l *testListener) OnException(err error)          { l.exceptions <- err }
func (l *testListener) OnTransportInterrupted()        { l.interrupted <- struct{}{} }
func (l *testListener) OnTransportResumed()            { l.resumed <- struct{}{} }

func startFailover(t *testing.T, raw string) (*failover.Transport, *testListener) {
	t.Helper()
	uri, err := transport.ParseURI(raw)
	require.NoError(t, err)
	ft, err := failover.New(uri, openwire.DefaultOptions())
	require.NoError(t, err)
	listener := newTestListener()
	ft.SetListener(listener)
	require.NoError(t, ft.Start())
	t.Cleanup(func() { ft.Stop() }) //nolint:errcheck
	return ft, listener
}

func TestFailoverConnectsAndSends(t *testing.T) {
	ft, _ := startFailover(t, "failover://(mock://pool-a:61616)?randomize=false")
	assert.Equal(t, failover.Connected, ft.State())

	info := &commands.SessionInfo{SessionId: &commands.SessionId{ConnectionId: "ID:c", Value: 1}}
	require.NoError(t, ft.Oneway(context.Background(), info))

	broker := mock.Lookup("pool-a:61616")
	require.NotNil(t, broker)
	assert.Len(t, broker.WrittenOfType(commands.TypeSessionInfo), 1)
}

func TestFailoverReplaysStateBeforeApplicationCommands(t *testing.T) {
	ft, listener := startFailover(t,
		"failover://(mock://flaky:61616?failOnSendMessage=true,mock://stable:61616)?randomize=false&initialReconnectDelay=1")

	connectionId := &commands.ConnectionId{Value: "ID:fo-1"}
	sessionId := &commands.SessionId{ConnectionId: connectionId.Value, Value: 1}
	consumerId := &commands.ConsumerId{ConnectionId: connectionId.Value, SessionId: 1, Value: 1}

	ctx := context.Background()
	require.NoError(t, ft.Oneway(ctx, &commands.ConnectionInfo{ConnectionId: connectionId}))
	require.NoError(t, ft.Oneway(ctx, &commands.SessionInfo{SessionId: sessionId}))
	require.NoError(t, ft.Oneway(ctx, &commands.ConsumerInfo{
		ConsumerId:  consumerId,
		Destination: commands.NewTopic("T"),
	}))

	// The flaky broker drops the connection on the first message send; the
	// send lands in the pending queue and follows the replay to the
	// stable broker.
	msg := commands.NewTextMessage("after failover")
	msg.ProducerId = &commands.ProducerId{ConnectionId: connectionId.Value, SessionId: 1, Value: 1}
	msg.MessageId = &commands.MessageId{ProducerId: msg.ProducerId, ProducerSequenceId: 1}
	require.NoError(t, ft.Oneway(ctx, msg))

	select {
	case <-listener.interrupted:
	case <-time.After(2 * time.Second):
		t.Fatal("transport interruption was never signalled")
	}
	select {
	case <-listener.resumed:
	case <-time.After(2 * time.Second):
		t.Fatal("transport never resumed")
	}

	stable := mock.Lookup("stable:61616")
	require.NotNil(t, stable)
	require.Eventually(t, func() bool {
		return len(stable.WrittenOfType(commands.TypeTextMessage)) == 1
	}, 2*time.Second, 5*time.Millisecond)

	// Everything the tracker knew replays, in order, before the queued
	// message; the handshake frame is transport plumbing and ignored.
	var sequence []byte
	for _, cmd := range stable.Written() {
		if cmd.DataStructureType() == commands.TypeWireFormatInfo {
			continue
		}
		sequence = append(sequence, cmd.DataStructureType())
	}
	assert.Equal(t, []byte{
		commands.TypeConnectionInfo,
		commands.TypeSessionInfo,
		commands.TypeConsumerInfo,
		commands.TypeTextMessage,
	}, sequence)
	assert.Equal(t, failover.Connected, ft.State())
}

func TestFailoverStartExhaustsStartupAttempts(t *testing.T) {
	uri, err := transport.ParseURI(
		"failover://(mock://dead:61616?failOnStart=true)?randomize=false&startupMaxReconnectAttempts=2&initialReconnectDelay=1")
	require.NoError(t, err)
	ft, err := failover.New(uri, openwire.DefaultOptions())
	require.NoError(t, err)
	ft.SetListener(newTestListener())

	err = ft.Start()
	require.Error(t, err, "startup must surface the last connect error")
	assert.Equal(t, failover.Disconnected, ft.State())
}

func TestFailoverRequestBlocksWhileDisconnectedUntilTimeout(t *testing.T) {
	ft, listener := startFailover(t,
		"failover://(mock://solo:61616)?randomize=false&maxReconnectAttempts=0&initialReconnectDelay=1&timeout=50")

	mock.Lookup("solo:61616").Fail(transport.ErrNotConnected(nil))
	select {
	case <-listener.interrupted:
	case <-time.After(time.Second):
		t.Fatal("no interruption after mock failure")
	}

	start := time.Now()
	_, err := ft.Request(context.Background(), &commands.KeepAliveInfo{}, time.Second)
	require.Error(t, err)
	assert.GreaterOrEqual(t, time.Since(start), 40*time.Millisecond, "request waits out the failover timeout")
}
