package events

import (
	"context"
	"log/slog"
	"sync"
)

// Publisher delivers events to a store, synchronously by default or through
// a buffered channel when WithAsyncBuffer is set. Close drains the buffer
// before returning, so no terminal transition is silently dropped on
// shutdown.
type Publisher struct {
	store  Store
	logger *slog.Logger

	inbox chan Event
	wg    sync.WaitGroup

	closeOnce sync.Once
}

// PublisherOption configures a Publisher.
type PublisherOption func(*publisherConfig)

type publisherConfig struct {
	buffer int
	logger *slog.Logger
}

// WithAsyncBuffer switches the publisher to asynchronous delivery with the
// given channel capacity.
func WithAsyncBuffer(n int) PublisherOption {
	return func(c *publisherConfig) {
		if n > 0 {
			c.buffer = n
		}
	}
}

// WithLogger sets the logger used for delivery failures.
func WithLogger(logger *slog.Logger) PublisherOption {
	return func(c *publisherConfig) {
		if logger != nil {
			c.logger = logger
		}
	}
}

func NewPublisher(store Store, opts ...PublisherOption) *Publisher {
	cfg := &publisherConfig{logger: slog.Default()}
	for _, opt := range opts {
		opt(cfg)
	}

	p := &Publisher{store: store, logger: cfg.logger}
	if cfg.buffer > 0 {
		p.inbox = make(chan Event, cfg.buffer)
		p.wg.Add(1)
		go p.drain()
	}
	return p
}

// Emit delivers an event. In async mode a full buffer falls back to
// synchronous delivery rather than dropping the event.
func (p *Publisher) Emit(ctx context.Context, event Event) error {
	if p.inbox == nil {
		return p.store.Append(ctx, event)
	}
	select {
	case p.inbox <- event:
		return nil
	default:
		return p.store.Append(ctx, event)
	}
}

func (p *Publisher) drain() {
	defer p.wg.Done()
	for event := range p.inbox {
		if err := p.store.Append(context.Background(), event); err != nil {
			p.logger.Error("completion event delivery failed",
				"process_id", event.ProcessID.String(),
				"error", err)
		}
	}
}

// Close stops the async worker after the buffer is drained. Safe to call
// multiple times.
func (p *Publisher) Close() {
	p.closeOnce.Do(func() {
		if p.inbox != nil {
			close(p.inbox)
			p.wg.Wait()
		}
	})
}
