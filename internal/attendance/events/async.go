package events

import (
	"context"
	"log/slog"
	"time"
)

const flushTimeout = 5 * time.Second

// AsyncPublisher decouples request paths from broker latency. Emit enqueues
// without blocking; Run forwards queued events to the next publisher.
// Events are dropped with a warning when the queue is full.
type AsyncPublisher struct {
	next   Publisher
	inbox  chan Event
	logger *slog.Logger
}

func NewAsyncPublisher(next Publisher, buffer int, logger *slog.Logger) *AsyncPublisher {
	if buffer <= 0 {
		buffer = 256
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &AsyncPublisher{next: next, inbox: make(chan Event, buffer), logger: logger}
}

func (p *AsyncPublisher) Emit(ctx context.Context, event Event) error {
	select {
	case p.inbox <- event:
	default:
		p.logger.WarnContext(ctx, "attendance event dropped, queue full",
			"event_type", event.Type,
			"record_id", event.RecordID,
		)
	}
	return nil
}

// Run forwards events until ctx is cancelled, then drains what is already queued.
func (p *AsyncPublisher) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			p.drain()
			return nil
		case event := <-p.inbox:
			p.forward(ctx, event)
		}
	}
}

func (p *AsyncPublisher) drain() {
	ctx, cancel := context.WithTimeout(context.Background(), flushTimeout)
	defer cancel()
	for {
		select {
		case event := <-p.inbox:
			p.forward(ctx, event)
		default:
			return
		}
	}
}

func (p *AsyncPublisher) forward(ctx context.Context, event Event) {
	if err := p.next.Emit(ctx, event); err != nil {
		p.logger.ErrorContext(ctx, "failed to publish attendance event",
			"event_type", event.Type,
			"record_id", event.RecordID,
			"error", err,
		)
	}
}
