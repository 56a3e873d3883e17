package transport

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/chris-alexander-pop/openwire-client/pkg/logger"
	"github.com/chris-alexander-pop/openwire-client/pkg/openwire"
	"github.com/chris-alexander-pop/openwire-client/pkg/openwire/commands"
	"golang.org/x/sync/errgroup"
)

// InactivityMonitor keeps the connection alive and detects dead peers. A
// writer task sends a KeepAliveInfo whenever nothing has been written for
// half the negotiated inactivity window; a reader task declares the
// transport dead when no frame at all has arrived for the full window. An
// initial grace period suppresses the dead check while the connection
// warms up.
type InactivityMonitor struct {
	BaseFilter
	wf *openwire.WireFormat

	lastRead  atomic.Int64 // unix nanos
	lastWrite atomic.Int64

	startOnce sync.Once
	stopOnce  sync.Once
	cancel    context.CancelFunc
	tasks     *errgroup.Group
}

func NewInactivityMonitor(next Transport, wf *openwire.WireFormat) *InactivityMonitor {
	m := &InactivityMonitor{
		BaseFilter: NewBaseFilter(next, KindInactivity),
		wf:         wf,
	}
	m.BindSelf(m)
	next.SetListener(m)
	return m
}

func (m *InactivityMonitor) Start() error {
	if err := m.BaseFilter.Start(); err != nil {
		return err
	}
	m.startOnce.Do(func() {
		now := time.Now().UnixNano()
		m.lastRead.Store(now)
		m.lastWrite.Store(now)

		ctx, cancel := context.WithCancel(context.Background())
		m.cancel = cancel
		m.tasks, ctx = errgroup.WithContext(ctx)
		m.tasks.Go(func() error { return m.writeChecker(ctx) })
		m.tasks.Go(func() error { return m.readChecker(ctx) })
	})
	return nil
}

func (m *InactivityMonitor) Stop() error {
	m.stopOnce.Do(func() {
		if m.cancel != nil {
			m.cancel()
			m.tasks.Wait() //nolint:errcheck // checker tasks only return ctx.Err
		}
	})
	return m.BaseFilter.Stop()
}

func (m *InactivityMonitor) Oneway(ctx context.Context, cmd commands.Command) error {
	err := m.BaseFilter.Oneway(ctx, cmd)
	if err == nil {
		m.lastWrite.Store(time.Now().UnixNano())
	}
	return err
}

func (m *InactivityMonitor) OnCommand(cmd commands.Command) {
	m.lastRead.Store(time.Now().UnixNano())
	if _, isKeepAlive := cmd.(*commands.KeepAliveInfo); isKeepAlive {
		// Heartbeats only refresh the read clock.
		return
	}
	m.BaseFilter.OnCommand(cmd)
}

// writeChecker sends a heartbeat whenever the write side has been idle for
// half the inactivity window.
func (m *InactivityMonitor) writeChecker(ctx context.Context) error {
	for {
		window := m.wf.MaxInactivityDuration()
		if window <= 0 {
			// Monitoring disabled (or not yet negotiated); check back later.
			if err := sleepCtx(ctx, time.Second); err != nil {
				return err
			}
			continue
		}
		interval := window / 2
		idle := time.Since(time.Unix(0, m.lastWrite.Load()))
		if idle >= interval {
			if err := m.Oneway(ctx, &commands.KeepAliveInfo{}); err != nil {
				logger.L().Debug("keep-alive write failed", "error", err)
			}
			idle = 0
		}
		if err := sleepCtx(ctx, interval-idle); err != nil {
			return err
		}
	}
}

// readChecker declares the peer dead when no frame has arrived for the
// full inactivity window, after the initial grace period.
func (m *InactivityMonitor) readChecker(ctx context.Context) error {
	if delay := m.wf.MaxInactivityInitialDelay(); delay > 0 {
		if err := sleepCtx(ctx, delay); err != nil {
			return err
		}
	}
	for {
		window := m.wf.MaxInactivityDuration()
		if window <= 0 {
			if err := sleepCtx(ctx, time.Second); err != nil {
				return err
			}
			continue
		}
		idle := time.Since(time.Unix(0, m.lastRead.Load()))
		if idle >= window {
			logger.L().Warn("no frames received within inactivity window; marking transport dead",
				"window", window, "idle", idle)
			m.BaseFilter.OnException(ErrInactivity(nil))
			return nil
		}
		if err := sleepCtx(ctx, window-idle); err != nil {
			return err
		}
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d < time.Millisecond {
		d = time.Millisecond
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
