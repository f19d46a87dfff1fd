package authkit

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// closeGrace bounds how long Close waits for the worker to finish draining
// before it cancels the delivery context out from under a stalled sink.
const closeGrace = 2 * time.Second

// auditDispatcher decouples flow latency from sink latency: events are
// queued on a buffered channel and delivered by a single worker goroutine.
type auditDispatcher struct {
	cfg       AuditConfig
	sink      AuditSink
	ch        chan AuditEvent
	done      chan struct{}
	wg        sync.WaitGroup
	dropped   atomic.Uint64
	closed    atomic.Bool
	closeOnce sync.Once

	// deliverCtx is handed to every sink.Emit call; Close cancels it when
	// the drain overruns closeGrace.
	deliverCtx    context.Context
	cancelDeliver context.CancelFunc
}

func newAuditDispatcher(cfg AuditConfig, sink AuditSink) *auditDispatcher {
	if !cfg.Enabled {
		return nil
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 1
	}
	if sink == nil {
		sink = NoOpSink{}
	}

	d := &auditDispatcher{
		cfg:  cfg,
		sink: sink,
		ch:   make(chan AuditEvent, cfg.BufferSize),
		done: make(chan struct{}),
	}
	d.deliverCtx, d.cancelDeliver = context.WithCancel(context.Background())

	d.wg.Add(1)
	go d.run()

	return d
}

func (d *auditDispatcher) run() {
	defer d.wg.Done()

	for {
		select {
		case event := <-d.ch:
			d.sink.Emit(d.deliverCtx, event)
		case <-d.done:
			// drain whatever is queued, then exit
			for {
				select {
				case event := <-d.ch:
					d.sink.Emit(d.deliverCtx, event)
				default:
					return
				}
			}
		}
	}
}

func (d *auditDispatcher) Emit(ctx context.Context, event AuditEvent) {
	if d == nil || d.closed.Load() {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}

	if d.cfg.DropIfFull {
		select {
		case d.ch <- event:
		case <-d.done:
		default:
			d.dropped.Add(1)
		}
		return
	}

	select {
	case d.ch <- event:
	case <-ctx.Done():
	case <-d.done:
	}
}

// Close stops accepting events and waits for the queue to drain. A sink that
// stops honoring its context within closeGrace forfeits the remaining queue:
// the delivery context is canceled and Close returns once the worker exits.
func (d *auditDispatcher) Close() {
	if d == nil {
		return
	}
	d.closeOnce.Do(func() {
		d.closed.Store(true)
		close(d.done)

		finished := make(chan struct{})
		go func() {
			d.wg.Wait()
			close(finished)
		}()

		select {
		case <-finished:
		case <-time.After(closeGrace):
			d.cancelDeliver()
			<-finished
		}
		d.cancelDeliver()
	})
}

func (d *auditDispatcher) Dropped() uint64 {
	if d == nil {
		return 0
	}
	return d.dropped.Load()
}
