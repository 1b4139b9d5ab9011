package audit

import (
	"context"
	"time"

	"go.uber.org/zap"
)

const finalFlushTimeout = 5 * time.Second

// Writer queues events in memory and flushes them to a Store in batches from
// a single background goroutine (see Run).
type Writer struct {
	store      Store
	queue      chan Event
	batchSize  int
	flushEvery time.Duration
	done       chan struct{}
}

func NewWriter(store Store, batchSize int, flushEvery time.Duration) *Writer {
	if batchSize <= 0 {
		batchSize = 1
	}
	return &Writer{
		store:      store,
		queue:      make(chan Event, batchSize*4),
		batchSize:  batchSize,
		flushEvery: flushEvery,
		done:       make(chan struct{}),
	}
}

// Record enqueues ev, dropping it when the queue is full.
func (w *Writer) Record(ev Event) {
	select {
	case w.queue <- ev:
	default:
		zap.L().Warn("audit.queue_full",
			zap.String("room", ev.Room),
			zap.String("kind", string(ev.Kind)),
		)
	}
}

// Done is closed once Run has returned and the last batch was flushed.
func (w *Writer) Done() <-chan struct{} { return w.done }

// Run drains the queue until ctx is cancelled, then flushes what is left.
func (w *Writer) Run(ctx context.Context) {
	defer close(w.done)

	tk := time.NewTicker(w.flushEvery)
	defer tk.Stop()

	batch := make([]Event, 0, w.batchSize)
	for {
		select {
		case <-ctx.Done():
		drain:
			for {
				select {
				case ev := <-w.queue:
					batch = append(batch, ev)
				default:
					break drain
				}
			}
			flushCtx, cancel := context.WithTimeout(context.Background(), finalFlushTimeout)
			w.flush(flushCtx, batch)
			cancel()
			return

		case ev := <-w.queue:
			batch = append(batch, ev)
			if len(batch) >= w.batchSize {
				w.flush(ctx, batch)
				batch = batch[:0]
			}

		case <-tk.C:
			w.flush(ctx, batch)
			batch = batch[:0]
		}
	}
}

func (w *Writer) flush(ctx context.Context, batch []Event) {
	if len(batch) == 0 {
		return
	}
	if err := w.store.InsertBatch(ctx, batch); err != nil {
		zap.L().Error("audit.flush", zap.Int("events", len(batch)), zap.Error(err))
	}
}
