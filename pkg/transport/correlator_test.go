package transport

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/chris-alexander-pop/openwire-client/pkg/errors"
	"github.com/chris-alexander-pop/openwire-client/pkg/openwire/commands"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubTransport is a minimal bottom element recording oneway traffic.
type stubTransport struct {
	mu       sync.Mutex
	written  []commands.Command
	listener Listener
	failWith error
}

func (s *stubTransport) Start() error { return nil }
func (s *stubTransport) Stop() error  { return nil }
func (s *stubTransport) Kind() string { return "stub" }

func (s *stubTransport) Narrow(kind string) Transport {
	if kind == "stub" {
		return s
	}
	return nil
}

func (s *stubTransport) SetListener(l Listener) {
	s.mu.Lock()
	s.listener = l
	s.mu.Unlock()
}

func (s *stubTransport) Oneway(ctx context.Context, cmd commands.Command) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWith != nil {
		return s.failWith
	}
	s.written = append(s.written, cmd)
	return nil
}

func (s *stubTransport) Request(ctx context.Context, cmd commands.Command, timeout time.Duration) (commands.Command, error) {
	return nil, errors.Newf(errors.CodeIllegalState, "stub does not correlate")
}

func (s *stubTransport) deliver(cmd commands.Command) {
	s.mu.Lock()
	l := s.listener
	s.mu.Unlock()
	l.OnCommand(cmd)
}

func (s *stubTransport) lastWritten() commands.Command {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.written) == 0 {
		return nil
	}
	return s.written[len(s.written)-1]
}

func TestConcurrentRequestsCorrelateOutOfOrder(t *testing.T) {
	stub := &stubTransport{}
	correlator := NewResponseCorrelator(stub)

	type result struct {
		id       int32
		response commands.Command
		err      error
	}
	results := make(chan result, 2)

	request := func() {
		cmd := &commands.ConnectionInfo{ConnectionId: &commands.ConnectionId{Value: "ID:c-1"}}
		go func() {
			// The correlator assigns the id inside Request; watch the stub
			// to learn which id this call got.
			response, err := correlator.Request(context.Background(), cmd, 5*time.Second)
			var id int32
			if response != nil {
				id = response.(*commands.Response).CorrelationId
			}
			results <- result{id: id, response: response, err: err}
		}()
	}
	request()
	require.Eventually(t, func() bool { return stub.lastWritten() != nil }, time.Second, time.Millisecond)
	firstId := stub.lastWritten().GetCommandId()
	request()
	require.Eventually(t, func() bool { return stub.lastWritten().GetCommandId() != firstId }, time.Second, time.Millisecond)
	secondId := stub.lastWritten().GetCommandId()

	assert.Equal(t, int32(1), firstId)
	assert.Equal(t, int32(2), secondId)

	// Deliver the responses in reverse order.
	stub.deliver(&commands.Response{CorrelationId: secondId})
	stub.deliver(&commands.Response{CorrelationId: firstId})

	seen := map[int32]bool{}
	for i := 0; i < 2; i++ {
		r := <-results
		require.NoError(t, r.err)
		seen[r.id] = true
	}
	assert.True(t, seen[firstId], "first request resolved with its own response")
	assert.True(t, seen[secondId], "second request resolved with its own response")
}

func TestRequestTimeoutDiscardsLateResponse(t *testing.T) {
	stub := &stubTransport{}
	correlator := NewResponseCorrelator(stub)

	_, err := correlator.Request(context.Background(), &commands.KeepAliveInfo{}, 20*time.Millisecond)
	require.Error(t, err)
	assert.Equal(t, CodeTimeout, errors.Code(err))

	// The late response must be swallowed, not passed upward.
	var passedUp []commands.Command
	correlator.SetListener(&ListenerFuncs{Command: func(cmd commands.Command) {
		passedUp = append(passedUp, cmd)
	}})
	stub.deliver(&commands.Response{CorrelationId: stub.lastWritten().GetCommandId()})
	assert.Empty(t, passedUp)
}

func TestExceptionResponseSurfacesBrokerError(t *testing.T) {
	stub := &stubTransport{}
	correlator := NewResponseCorrelator(stub)

	done := make(chan error, 1)
	go func() {
		_, err := correlator.Request(context.Background(), &commands.KeepAliveInfo{}, time.Second)
		done <- err
	}()
	require.Eventually(t, func() bool { return stub.lastWritten() != nil }, time.Second, time.Millisecond)
	stub.deliver(&commands.ExceptionResponse{
		CorrelationId: stub.lastWritten().GetCommandId(),
		Exception:     &commands.BrokerError{ExceptionClass: "java.lang.SecurityException", Message: "denied"},
	})
	err := <-done
	require.Error(t, err)
	assert.Equal(t, CodeBrokerError, errors.Code(err))
	assert.Contains(t, err.Error(), "SecurityException")
}

func TestExceptionFailsOutstandingRequests(t *testing.T) {
	stub := &stubTransport{}
	correlator := NewResponseCorrelator(stub)

	done := make(chan error, 1)
	go func() {
		_, err := correlator.Request(context.Background(), &commands.KeepAliveInfo{}, time.Minute)
		done <- err
	}()
	require.Eventually(t, func() bool { return stub.lastWritten() != nil }, time.Second, time.Millisecond)

	boom := errors.Newf(CodeNotConnected, "socket reset")
	stub.mu.Lock()
	listener := stub.listener
	stub.mu.Unlock()
	listener.OnException(boom)

	err := <-done
	require.Error(t, err)
	assert.Equal(t, CodeNotConnected, errors.Code(err))

	// New requests fail fast until the failover layer resets the latch.
	_, err = correlator.Request(context.Background(), &commands.KeepAliveInfo{}, time.Second)
	require.Error(t, err)

	correlator.ResetAfterResume()
	go func() {
		_, err := correlator.Request(context.Background(), &commands.KeepAliveInfo{}, 50*time.Millisecond)
		done <- err
	}()
	err = <-done
	assert.Equal(t, CodeTimeout, errors.Code(err), "after reset requests run again (and here time out)")
}

func TestNonResponseCommandsPassUpward(t *testing.T) {
	stub := &stubTransport{}
	correlator := NewResponseCorrelator(stub)

	received := make(chan commands.Command, 1)
	correlator.SetListener(&ListenerFuncs{Command: func(cmd commands.Command) { received <- cmd }})

	dispatch := &commands.MessageDispatch{}
	stub.deliver(dispatch)
	assert.Equal(t, commands.Command(dispatch), <-received)
}

func TestOnewayAssignsCommandIds(t *testing.T) {
	stub := &stubTransport{}
	correlator := NewResponseCorrelator(stub)

	require.NoError(t, correlator.Oneway(context.Background(), &commands.KeepAliveInfo{}))
	require.NoError(t, correlator.Oneway(context.Background(), &commands.KeepAliveInfo{}))
	stub.mu.Lock()
	defer stub.mu.Unlock()
	require.Len(t, stub.written, 2)
	assert.Equal(t, int32(1), stub.written[0].GetCommandId())
	assert.Equal(t, int32(2), stub.written[1].GetCommandId())
}
