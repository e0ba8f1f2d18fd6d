package outbox

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Sink receives drained batches. A failing sink is logged and skipped; the
// batch is not retried.
type Sink interface {
	Deliver(ctx context.Context, b Batch) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, b Batch) error

func (f SinkFunc) Deliver(ctx context.Context, b Batch) error { return f(ctx, b) }

const flushTimeout = 5 * time.Second

// Run delivers batches to sinks until ctx is done, then flushes what is left.
func (o *Outbox) Run(ctx context.Context, log *zap.SugaredLogger, batchSize int, sinks ...Sink) {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	for {
		select {
		case <-ctx.Done():
			flushCtx, cancel := context.WithTimeout(context.Background(), flushTimeout)
			o.deliverAll(flushCtx, log, batchSize, sinks)
			cancel()
			return
		case <-o.Ready():
			o.deliverAll(ctx, log, batchSize, sinks)
		}
	}
}

func (o *Outbox) deliverAll(ctx context.Context, log *zap.SugaredLogger, batchSize int, sinks []Sink) {
	for {
		b := o.Drain(batchSize)
		if b.Empty() {
			return
		}
		for _, s := range sinks {
			if err := s.Deliver(ctx, b); err != nil {
				log.Warnw("outbox_deliver_failed",
					"orders", len(b.Orders),
					"fills", len(b.Fills),
					"err", err)
			}
		}
	}
}
