// Package eventfeed implements the consumer-side decoration pipeline: it
// subscribes to a stream of event envelopes, decodes the payload of every
// Move event through an injected module resolver, and re-emits the envelopes
// with their rendered structured value attached. Envelopes whose payload
// cannot be decoded are never dropped silently; they are handed to a
// configurable failure handler and forwarded undecorated.
package eventfeed

import (
	"context"
	"errors"
	"sync"

	"github.com/gabapcia/movewatch/internal/moveevent"
	"github.com/gabapcia/movewatch/internal/moveschema"
	"github.com/gabapcia/movewatch/internal/pkg/resilience/retry"
	"github.com/gabapcia/movewatch/internal/pkg/types"
	"github.com/gabapcia/movewatch/internal/pkg/x/chflow"
)

// ErrServiceAlreadyStarted is returned when Start is called on a running
// service.
var ErrServiceAlreadyStarted = errors.New("service already started")

const (
	defaultWorkerCount            = 4
	decoratedChannelBufferSize    = 10
	dispatchableChannelBufferSize = 10
)

// Service runs the decoration pipeline.
type Service interface {
	// Start subscribes to the event source and returns the stream of
	// decorated envelopes. The returned channel is closed when the source
	// stream ends, the context is canceled, or Close is called.
	Start(ctx context.Context) (<-chan moveevent.Envelope, error)

	// Close stops the pipeline and releases its resources.
	Close()
}

type service struct {
	mu        sync.Mutex
	isStarted bool
	closeFunc func()

	source   EventSource
	resolver moveschema.ModuleResolver

	format          moveschema.Format
	workers         int
	retry           retry.Retry
	dedupeByDigest  bool
	onDecodeFailure decodeFailureHandler
}

var _ Service = (*service)(nil)

func (s *service) Start(ctx context.Context) (<-chan moveevent.Envelope, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isStarted {
		return nil, ErrServiceAlreadyStarted
	}

	ctx, cancel := context.WithCancel(ctx)

	sourceCh, err := s.source.Subscribe(ctx)
	if err != nil {
		cancel()
		return nil, err
	}

	var (
		workCh      = make(chan moveevent.Envelope, dispatchableChannelBufferSize)
		decoratedCh = make(chan moveevent.Envelope, decoratedChannelBufferSize)
	)

	s.startDispatcher(ctx, sourceCh, workCh)
	s.startWorkers(ctx, workCh, decoratedCh)

	s.closeFunc = cancel
	s.isStarted = true
	return decoratedCh, nil
}

// startDispatcher launches the single goroutine that reads the source
// stream, applies the optional transaction-digest deduplication, and fans
// envelopes out to the workers. It owns workCh and closes it when the
// source ends.
func (s *service) startDispatcher(ctx context.Context, sourceCh <-chan moveevent.Envelope, workCh chan<- moveevent.Envelope) {
	go func() {
		defer close(workCh)

		seen := types.NewSet[types.TransactionDigest]()
		for {
			envelope, ok := chflow.Receive(ctx, sourceCh)
			if !ok {
				return
			}

			if s.dedupeByDigest && envelope.TxDigest != nil {
				if seen.Contains(*envelope.TxDigest) {
					continue
				}
				seen.Add(*envelope.TxDigest)
			}

			if !chflow.Send(ctx, workCh, envelope) {
				return
			}
		}
	}()
}

// startWorkers launches the decode worker pool. The decorated channel is
// closed once every worker has drained.
func (s *service) startWorkers(ctx context.Context, workCh <-chan moveevent.Envelope, decoratedCh chan<- moveevent.Envelope) {
	var wg sync.WaitGroup

	wg.Add(s.workers)
	for range s.workers {
		go func() {
			defer wg.Done()

			for {
				envelope, ok := chflow.Receive(ctx, workCh)
				if !ok {
					return
				}

				if !chflow.Send(ctx, decoratedCh, s.decorate(ctx, envelope)) {
					return
				}
			}
		}()
	}

	go func() {
		wg.Wait()
		close(decoratedCh)
	}()
}

func (s *service) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closeFunc != nil {
		s.closeFunc()
	}
	s.isStarted = false
	s.closeFunc = nil
}

type config struct {
	format          moveschema.Format
	workers         int
	retry           retry.Retry
	dedupeByDigest  bool
	onDecodeFailure decodeFailureHandler
}

// Option customizes the pipeline.
type Option func(*config)

// WithFormat selects the layout resolution mode used for decoding.
func WithFormat(format moveschema.Format) Option {
	return func(c *config) {
		c.format = format
	}
}

// WithWorkerCount sets how many envelopes are decoded concurrently.
// Default: 4.
func WithWorkerCount(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.workers = n
		}
	}
}

// WithRetry enables retries of transient resolver failures. Definite
// failures — a module the registry does not contain, or a payload that does
// not match its layout — are never retried.
func WithRetry(r retry.Retry) Option {
	return func(c *config) {
		c.retry = r
	}
}

// WithTxDeduplication drops envelopes whose transaction digest was already
// seen in this run. Only enable it for sources that deliver at most one
// envelope per transaction; redelivery after reconnects is its target.
func WithTxDeduplication() Option {
	return func(c *config) {
		c.dedupeByDigest = true
	}
}

// WithDecodeFailureHandler replaces the default handler (which logs the
// failure) for envelopes whose Move payload cannot be decoded.
func WithDecodeFailureHandler(f func(ctx context.Context, failure DecodeFailure)) Option {
	return func(c *config) {
		c.onDecodeFailure = f
	}
}

// New builds the decoration pipeline over the given envelope source and
// module resolver.
func New(source EventSource, resolver moveschema.ModuleResolver, opts ...Option) *service {
	cfg := config{
		workers:         defaultWorkerCount,
		onDecodeFailure: defaultOnDecodeFailure,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	return &service{
		source:          source,
		resolver:        resolver,
		format:          cfg.format,
		workers:         cfg.workers,
		retry:           cfg.retry,
		dedupeByDigest:  cfg.dedupeByDigest,
		onDecodeFailure: cfg.onDecodeFailure,
	}
}
