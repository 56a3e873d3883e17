package transport

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/chris-alexander-pop/openwire-client/pkg/openwire/commands"
)

// ResponseCorrelator pairs responses to requests by command id. Request
// assigns a fresh command id, registers a single-slot promise, sends the
// command downstream and parks the caller until the matching Response
// arrives, the timeout fires, or the transport fails.
type ResponseCorrelator struct {
	BaseFilter

	nextCommandId atomic.Int32

	mu      sync.Mutex
	pending map[int32]chan commands.Command
	failed  error
}

func NewResponseCorrelator(next Transport) *ResponseCorrelator {
	c := &ResponseCorrelator{
		BaseFilter: NewBaseFilter(next, KindCorrelator),
		pending:    make(map[int32]chan commands.Command),
	}
	c.BindSelf(c)
	next.SetListener(c)
	return c
}

// NextCommandId hands out the connection-scoped command id sequence. Oneway
// commands that want an id (message sends) use it too so response ids never
// collide.
func (c *ResponseCorrelator) NextCommandId() int32 {
	return c.nextCommandId.Add(1)
}

func (c *ResponseCorrelator) Oneway(ctx context.Context, cmd commands.Command) error {
	if cmd.GetCommandId() == 0 {
		cmd.SetCommandId(c.NextCommandId())
	}
	return c.Next().Oneway(ctx, cmd)
}

func (c *ResponseCorrelator) Request(ctx context.Context, cmd commands.Command, timeout time.Duration) (commands.Command, error) {
	id := c.NextCommandId()
	cmd.SetCommandId(id)
	cmd.SetResponseRequired(true)

	promise := make(chan commands.Command, 1)
	c.mu.Lock()
	if c.failed != nil {
		err := c.failed
		c.mu.Unlock()
		return nil, err
	}
	c.pending[id] = promise
	c.mu.Unlock()

	if err := c.Next().Oneway(ctx, cmd); err != nil {
		c.remove(id)
		return nil, err
	}

	var timeoutCh <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		timeoutCh = timer.C
	}

	select {
	case response, ok := <-promise:
		if !ok {
			c.mu.Lock()
			err := c.failed
			c.mu.Unlock()
			if err == nil {
				err = ErrClosed(nil)
			}
			return nil, err
		}
		if exception, isException := response.(*commands.ExceptionResponse); isException {
			return response, ErrBroker(exception.Exception)
		}
		return response, nil
	case <-timeoutCh:
		// The broker's late response, if any, is discarded silently.
		c.remove(id)
		return nil, ErrTimeout("response to command")
	case <-ctx.Done():
		c.remove(id)
		return nil, ctx.Err()
	}
}

func (c *ResponseCorrelator) remove(id int32) {
	c.mu.Lock()
	delete(c.pending, id)
	c.mu.Unlock()
}

// OnCommand resolves promises for responses and passes everything else
// upward untouched.
func (c *ResponseCorrelator) OnCommand(cmd commands.Command) {
	correlationId, ok := responseCorrelation(cmd)
	if !ok {
		c.BaseFilter.OnCommand(cmd)
		return
	}
	c.mu.Lock()
	promise, found := c.pending[correlationId]
	if found {
		delete(c.pending, correlationId)
	}
	c.mu.Unlock()
	if !found {
		// A response for a request that timed out or was cancelled.
		return
	}
	promise <- cmd
}

// OnException completes every outstanding promise with the failure before
// passing it upward.
func (c *ResponseCorrelator) OnException(err error) {
	c.failAll(err)
	c.BaseFilter.OnException(err)
}

func (c *ResponseCorrelator) Stop() error {
	c.failAll(ErrClosed(nil))
	return c.BaseFilter.Stop()
}

func (c *ResponseCorrelator) failAll(err error) {
	c.mu.Lock()
	if c.failed == nil {
		c.failed = err
	}
	pending := c.pending
	c.pending = make(map[int32]chan commands.Command)
	c.mu.Unlock()
	for _, promise := range pending {
		close(promise)
	}
}

// ResetAfterResume clears the failure latch so a failover transport can
// reuse the correlator after a successful reconnect.
func (c *ResponseCorrelator) ResetAfterResume() {
	c.mu.Lock()
	c.failed = nil
	c.mu.Unlock()
}

func responseCorrelation(cmd commands.Command) (int32, bool) {
	switch response := cmd.(type) {
	case *commands.Response:
		return response.CorrelationId, true
	case *commands.ExceptionResponse:
		return response.CorrelationId, true
	case *commands.DataResponse:
		return response.CorrelationId, true
	case *commands.DataArrayResponse:
		return response.CorrelationId, true
	case *commands.IntegerResponse:
		return response.CorrelationId, true
	}
	return 0, false
}
