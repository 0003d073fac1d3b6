package eventfeed

import (
	"bufio"
	"context"
	"fmt"
	"io"

	"github.com/gabapcia/movewatch/internal/moveevent"
	"github.com/gabapcia/movewatch/internal/pkg/logger"
	"github.com/gabapcia/movewatch/internal/pkg/x/chflow"
)

// EventSource is the capability the pipeline consumes envelopes from. The
// source owns the returned channel and must close it when the stream ends or
// the context is canceled.
type EventSource interface {
	Subscribe(ctx context.Context) (<-chan moveevent.Envelope, error)
}

const readerSourceChannelBufferSize = 10

// readerSource streams envelopes from a reader carrying one JSON envelope
// per line. Blank lines are skipped; a malformed line ends the stream.
type readerSource struct {
	r io.Reader
}

var _ EventSource = (*readerSource)(nil)

func (s *readerSource) Subscribe(ctx context.Context) (<-chan moveevent.Envelope, error) {
	out := make(chan moveevent.Envelope, readerSourceChannelBufferSize)

	go func() {
		defer close(out)

		scanner := bufio.NewScanner(s.r)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

		for scanner.Scan() {
			line := scanner.Bytes()
			if len(line) == 0 {
				continue
			}

			var envelope moveevent.Envelope
			if err := envelope.UnmarshalJSON(line); err != nil {
				logger.Error(ctx, "malformed event envelope, stopping stream", "error", err)
				return
			}

			if !chflow.Send(ctx, out, envelope) {
				return
			}
		}

		if err := scanner.Err(); err != nil {
			logger.Error(ctx, "event stream read failure", "error", err)
		}
	}()

	return out, nil
}

// NewReaderSource adapts a line-delimited JSON stream of envelopes into an
// EventSource.
func NewReaderSource(r io.Reader) *readerSource {
	return &readerSource{r: r}
}

// sliceSource replays a fixed list of envelopes. Useful for tools and tests.
type sliceSource struct {
	envelopes []moveevent.Envelope
}

var _ EventSource = (*sliceSource)(nil)

func (s *sliceSource) Subscribe(ctx context.Context) (<-chan moveevent.Envelope, error) {
	out := make(chan moveevent.Envelope, readerSourceChannelBufferSize)

	go func() {
		defer close(out)

		for _, envelope := range s.envelopes {
			if !chflow.Send(ctx, out, envelope) {
				return
			}
		}
	}()

	return out, nil
}

// NewSliceSource builds an EventSource that emits the given envelopes in
// order and then closes.
func NewSliceSource(envelopes ...moveevent.Envelope) *sliceSource {
	return &sliceSource{envelopes: envelopes}
}

// eventSourceFunc adapts a plain function into an EventSource.
type eventSourceFunc func(ctx context.Context) (<-chan moveevent.Envelope, error)

var _ EventSource = (eventSourceFunc)(nil)

func (f eventSourceFunc) Subscribe(ctx context.Context) (<-chan moveevent.Envelope, error) {
	if f == nil {
		return nil, fmt.Errorf("nil event source")
	}
	return f(ctx)
}
