// Package ingest turns raw datagrams into persisted log lines.
//
// A Pipeline sits behind one or more inputs: inputs Insert messages into a bounded queue and
// a fixed set of workers drive each one through Parse, the rate limiter, Format and the sink.
// Any rejection drops the record and emits a diagnostic; nothing below the pipeline can stop it.
package ingest

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/akave-ai/udplog/internal/infrastructure/inputs"
	"github.com/akave-ai/udplog/internal/metrics"
)

const (
	DefaultServiceName = "LoggingService"
	DefaultQueueSize   = 1024

	// maxLoggedPayload caps the raw payload echoed into diagnostics.
	maxLoggedPayload = 512
)

// Limiter decides per client admission. *ratelimit.Limiter satisfies it.
type Limiter interface {
	Admit(client string, now time.Time) bool
	Len() int
}

// Sink persists one formatted line. *storage.FileSink satisfies it.
type Sink interface {
	Append(line string) error
}

// Options tune a Pipeline. Zero values take defaults.
type Options struct {
	ServiceName string
	Workers     int
	QueueSize   int

	Metrics  *metrics.Metrics
	NewRelic *newrelic.Application

	// OnWrite is called with every line after it has been appended.
	OnWrite func(line string)

	// Now is the clock used for rate limiting and timestamps.
	Now func() time.Time
}

// Stats is a point-in-time copy of the pipeline counters.
type Stats struct {
	Received       int64            `json:"received"`
	Written        int64            `json:"written"`
	Dropped        map[string]int64 `json:"dropped"`
	Discarded      int64            `json:"discarded_on_shutdown"`
	ReceiveErrors  int64            `json:"receive_errors"`
	QueueDepth     int              `json:"queue_depth"`
	TrackedClients int              `json:"tracked_clients"`
}

// Pipeline implements inputs.InputBuffer.
type Pipeline struct {
	limiter Limiter
	sink    Sink
	logger  zerolog.Logger
	opts    Options
	queue   chan inputs.Message

	received  atomic.Int64
	written   atomic.Int64
	discarded atomic.Int64
	recvErrs  atomic.Int64

	dropMu  sync.Mutex
	dropped map[string]int64
}

var (
	_ inputs.InputBuffer   = (*Pipeline)(nil)
	_ inputs.ErrorReporter = (*Pipeline)(nil)
)

// NewPipeline wires a limiter and a sink. Diagnostics go to logger.
func NewPipeline(limiter Limiter, sink Sink, logger zerolog.Logger, opts Options) *Pipeline {
	if opts.ServiceName == "" {
		opts.ServiceName = DefaultServiceName
	}
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = DefaultQueueSize
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Pipeline{
		limiter: limiter,
		sink:    sink,
		logger:  logger.With().Str("component", "ingest").Logger(),
		opts:    opts,
		queue:   make(chan inputs.Message, opts.QueueSize),
		dropped: make(map[string]int64),
	}
}

// Insert queues msg for a worker. It never blocks: when the queue is full the message is
// dropped so the receiving socket keeps draining.
func (p *Pipeline) Insert(msg inputs.Message) {
	p.received.Add(1)
	p.opts.Metrics.Received(msg.Input)
	select {
	case p.queue <- msg:
		p.opts.Metrics.SetQueueDepth(len(p.queue))
	default:
		p.drop(msg, msg.ClientIP(), ErrQueueFull)
	}
}

// ReportError counts a socket error from an input. The input has already logged it.
func (p *Pipeline) ReportError(input string, err error) {
	p.recvErrs.Add(1)
	p.opts.Metrics.ReceiveError()
}

// Run processes queued messages with the configured number of workers until ctx is done.
// A worker always finishes the message it holds; messages still queued afterwards are discarded.
func (p *Pipeline) Run(ctx context.Context) error {
	p.logger.Info().Int("workers", p.opts.Workers).Int("queue_size", p.opts.QueueSize).Msg("pipeline started")

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < p.opts.Workers; i++ {
		g.Go(func() error {
			p.work(gctx)
			return nil
		})
	}
	err := g.Wait()

	if n := p.discardQueued(); n > 0 {
		p.logger.Warn().Int("count", n).Msg("discarded queued datagrams on shutdown")
	}
	p.logger.Info().Msg("pipeline stopped")
	return err
}

func (p *Pipeline) work(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		select {
		case <-ctx.Done():
			return
		case msg := <-p.queue:
			p.opts.Metrics.SetQueueDepth(len(p.queue))
			_ = p.Process(msg)
		}
	}
}

func (p *Pipeline) discardQueued() int {
	n := 0
	for {
		select {
		case <-p.queue:
			n++
		default:
			p.discarded.Add(int64(n))
			p.opts.Metrics.SetQueueDepth(0)
			return n
		}
	}
}

// Process drives one message through parse, rate limit, format and append.
// A truncated message is rejected before parsing.
// The returned error is the rejection reason; it has already been logged.
func (p *Pipeline) Process(msg inputs.Message) error {
	start := time.Now()
	client := msg.ClientIP()

	txn := p.opts.NewRelic.StartTransaction("udplog/ingest")
	defer txn.End()
	txn.AddAttribute("client", client)

	line, err := p.process(msg, client)
	if err != nil {
		txn.AddAttribute("drop_reason", Reason(err))
		p.drop(msg, client, err)
	} else {
		p.written.Add(1)
		p.opts.Metrics.Written()
		p.logger.Debug().Str("client", client).Str("line", line).Msg("logged")
		if p.opts.OnWrite != nil {
			p.opts.OnWrite(line)
		}
	}
	p.opts.Metrics.ObserveProcess(time.Since(start).Seconds())
	return err
}

func (p *Pipeline) process(msg inputs.Message, client string) (string, error) {
	if msg.Truncated {
		return "", fmt.Errorf("%w: more than %d bytes", ErrTooLarge, len(msg.Payload))
	}
	if len(msg.Payload) == 0 {
		return "", ErrEmptyMessage
	}
	rec, err := Parse(msg.Payload)
	if err != nil {
		return "", err
	}

	now := p.opts.Now()
	admitted := p.limiter.Admit(client, now)
	p.opts.Metrics.SetTrackedClients(p.limiter.Len())
	if !admitted {
		return "", fmt.Errorf("%w for %s", ErrRateLimited, client)
	}

	line := Format(string(rec.Level), client, rec.Message, rec.RequestID, p.opts.ServiceName, now)
	if err := p.sink.Append(line); err != nil {
		return "", fmt.Errorf("%w: %w", ErrWrite, err)
	}
	return line, nil
}

func (p *Pipeline) drop(msg inputs.Message, client string, err error) {
	reason := Reason(err)
	p.dropMu.Lock()
	p.dropped[reason]++
	p.dropMu.Unlock()
	p.opts.Metrics.Dropped(reason)

	var ev *zerolog.Event
	switch reason {
	case "write_error":
		ev = p.logger.Error()
	default:
		ev = p.logger.Warn()
	}
	ev = ev.Str("client", client).Str("reason", reason).Err(err)
	switch reason {
	case "rate_limited", "write_error":
	default:
		ev = ev.Str("payload", preview(msg.Payload))
	}
	ev.Msg("dropped record")
}

// Stats returns a copy of the counters.
func (p *Pipeline) Stats() Stats {
	p.dropMu.Lock()
	dropped := make(map[string]int64, len(p.dropped))
	for k, v := range p.dropped {
		dropped[k] = v
	}
	p.dropMu.Unlock()
	return Stats{
		Received:       p.received.Load(),
		Written:        p.written.Load(),
		Dropped:        dropped,
		Discarded:      p.discarded.Load(),
		ReceiveErrors:  p.recvErrs.Load(),
		QueueDepth:     len(p.queue),
		TrackedClients: p.limiter.Len(),
	}
}

func preview(b []byte) string {
	if len(b) > maxLoggedPayload {
		return string(b[:maxLoggedPayload]) + "..."
	}
	return string(b)
}
