// Package stdio runs the line-oriented JSON request/response loop both
// daemons share.
//
// One request per input line, one JSON response line per request, fully
// processed and flushed before the next line is read. Diagnostics go to
// the logger (stderr); a fatal outcome stops the loop with an error.
package stdio

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/google/uuid"

	"github.com/kzero/skillpoints/internal/app"
	"github.com/kzero/skillpoints/pkg/logger"
	"github.com/kzero/skillpoints/pkg/metrics"
)

// maxLineBytes bounds a single request line.
const maxLineBytes = 1 << 20

// Handler processes one request line into an outcome.
type Handler func(ctx context.Context, line []byte) app.Outcome

// Loop reads requests from in and writes responses to out, strictly in
// arrival order.
type Loop struct {
	in     io.Reader
	out    io.Writer
	handle Handler
	log    logger.Logger
}

// Option applies a configuration option to the Loop.
type Option func(*Loop)

// WithLogger sets a custom logger for the loop.
func WithLogger(log logger.Logger) Option {
	return func(l *Loop) {
		if log != nil {
			l.log = log
		}
	}
}

// New constructs a Loop around a handler.
func New(in io.Reader, out io.Writer, handle Handler, opts ...Option) *Loop {
	l := &Loop{in: in, out: out, handle: handle}
	for _, opt := range opts {
		opt(l)
	}
	if l.log == nil {
		l.log = logger.Get().Named("stdio")
	}
	return l
}

// Run processes requests until EOF or a fatal outcome. The returned
// error is nil on clean EOF.
func (l *Loop) Run(ctx context.Context) error {
	scanner := bufio.NewScanner(l.in)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	w := bufio.NewWriter(l.out)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		reqLog := l.log.With(logger.String("request_id", uuid.NewString()))
		outcome := l.handle(ctx, line)
		if outcome.IsFatal() {
			reqLog.Error(ctx, "request failed", logger.Error(outcome.Err))
			return outcome.Err
		}

		// Diagnostics for request N precede response N.
		for _, d := range outcome.Diagnostics {
			reqLog.Warn(ctx, d.Message, d.Fields...)
			metrics.RecordWarning()
		}

		if outcome.Response != nil {
			payload, err := json.Marshal(outcome.Response)
			if err != nil {
				return fmt.Errorf("marshal response: %w", err)
			}
			if _, err := w.Write(payload); err != nil {
				return fmt.Errorf("write response: %w", err)
			}
			if err := w.WriteByte('\n'); err != nil {
				return fmt.Errorf("write response: %w", err)
			}
			if err := w.Flush(); err != nil {
				return fmt.Errorf("flush response: %w", err)
			}
		}
		metrics.RecordRequest()
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read input: %w", err)
	}
	return nil
}
