package replay

import (
	"context"
	"io"
	"math"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/tinytelemetry/packetstream/internal/client"
	"github.com/tinytelemetry/packetstream/internal/clock"
	"github.com/tinytelemetry/packetstream/internal/metrics"
	"github.com/tinytelemetry/packetstream/internal/model"
)

// RecordSource yields records in file order and io.EOF after the last one.
type RecordSource interface {
	Next() (model.Record, error)
}

// Sender delivers one record to the ingestion service.
type Sender interface {
	Send(ctx context.Context, rec model.Record) (client.SendResult, error)
}

// Options holds tunables for an Emitter.
type Options struct {
	// Speed divides every pacing delay. Zero or negative means 1.0 (real time).
	Speed float64
	// ContinueOnTransportError logs transport failures and keeps going
	// instead of aborting the run.
	ContinueOnTransportError bool
	Logger                   log.FieldLogger
	Metrics                  *metrics.SenderMetrics
}

// Summary aggregates replay statistics.
type Summary struct {
	Read            int           `json:"read"`
	Sent            int           `json:"sent"`
	Failed          int           `json:"failed"`
	TransportErrors int           `json:"transport_errors"`
	Span            time.Duration `json:"span"`          // timestamp range covered, unscaled by Speed
	WallDuration    time.Duration `json:"wall_duration"` // clock time spent replaying
}

// Emitter replays records at the pace implied by their timestamps.
type Emitter struct {
	source RecordSource
	sender Sender
	clock  clock.Clock
	opts   Options
}

// New creates an Emitter.
func New(src RecordSource, sender Sender, clk clock.Clock, opts ...Options) *Emitter {
	var o Options
	if len(opts) > 0 {
		o = opts[0]
	}
	if o.Speed <= 0 {
		o.Speed = 1
	}
	if o.Logger == nil {
		o.Logger = log.StandardLogger()
	}
	if clk == nil {
		clk = clock.NewRealClock()
	}
	return &Emitter{
		source: src,
		sender: sender,
		clock:  clk,
		opts:   o,
	}
}

// Run replays every record once. The first record is sent immediately; each
// later record waits for the gap between its timestamp and the previous one.
// A non-200 response is logged and skipped. A malformed row, a transport
// failure (unless ContinueOnTransportError is set) or ctx cancellation ends the
// run and returns the partial summary with the error.
func (e *Emitter) Run(ctx context.Context) (*Summary, error) {
	summary := &Summary{}
	start := e.clock.Now()
	defer func() {
		summary.WallDuration = e.clock.Since(start)
	}()

	var (
		first     = true
		reference float64
		initial   float64
	)

	for {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		rec, err := e.source.Next()
		if errors.Is(err, io.EOF) {
			return summary, nil
		}
		if err != nil {
			return summary, errors.Wrap(err, "replay: read record")
		}
		summary.Read++

		ts, err := rec.Timestamp()
		if err != nil {
			return summary, errors.Wrapf(err, "replay: record at line %d", rec.Line)
		}

		if first {
			first = false
			initial = ts
		} else if delta := ts - reference; delta > 0 {
			wait := e.delay(delta)
			if e.opts.Metrics != nil {
				e.opts.Metrics.RecordDelay(wait)
			}
			if err := clock.Sleep(ctx, e.clock, wait); err != nil {
				return summary, err
			}
		}
		reference = ts
		if ts > initial {
			summary.Span = seconds(ts - initial)
		}

		if err := e.send(ctx, rec, summary); err != nil {
			return summary, err
		}
	}
}

func (e *Emitter) send(ctx context.Context, rec model.Record, summary *Summary) error {
	res, err := e.sender.Send(ctx, rec)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		summary.TransportErrors++
		e.record(metrics.OutcomeTransport)
		if !e.opts.ContinueOnTransportError {
			return errors.Wrapf(err, "replay: send record at line %d", rec.Line)
		}
		e.opts.Logger.WithError(err).WithFields(log.Fields{
			"line":   rec.Line,
			"record": rec.Map(),
		}).Warn("Failed to send package")
		return nil
	}

	if !res.OK() {
		summary.Failed++
		e.record(metrics.OutcomeRejected)
		e.opts.Logger.WithFields(log.Fields{
			"line":       rec.Line,
			"status":     res.Status,
			"request_id": res.RequestID,
			"record":     rec.Map(),
		}).Warn("Failed to send package")
		return nil
	}

	summary.Sent++
	e.record(metrics.OutcomeSent)
	return nil
}

func (e *Emitter) record(outcome string) {
	if e.opts.Metrics != nil {
		e.opts.Metrics.RecordSend(outcome)
	}
}

// delay converts a timestamp gap into a wait at the configured speed.
func (e *Emitter) delay(gap float64) time.Duration {
	return seconds(gap / e.opts.Speed)
}

func seconds(s float64) time.Duration {
	d := s * float64(time.Second)
	if d >= math.MaxInt64 {
		return time.Duration(math.MaxInt64)
	}
	return time.Duration(d)
}
