package collector

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	errs "graphharvest/pkg/errors"
	"graphharvest/pkg/graph"
	"graphharvest/pkg/logger"
	"graphharvest/pkg/retry"
)

// DefaultTimeField is the record field compared against a window
const DefaultTimeField = "created_time"

// Window is an inclusive [Since, Until] time range in UTC
type Window struct {
	Since time.Time
	Until time.Time
}

// NewWindow normalizes both bounds to UTC
func NewWindow(since, until time.Time) Window {
	return Window{Since: since.UTC(), Until: until.UTC()}
}

// Contains reports whether t lies within the window, bounds included
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Since) && !t.After(w.Until)
}

// Request describes one connection collection for a single origin id
type Request struct {
	ID     string
	Edge   string
	Fields string
	Params url.Values

	// Limit caps the number of records; zero or less means no cap
	Limit int

	// Window enables the backward time walk. Nil collects by count only.
	Window *Window

	// TimeField defaults to DefaultTimeField
	TimeField string
}

// StopReason tells why a collection ended
type StopReason string

const (
	StopEmpty     StopReason = "empty"
	StopLimit     StopReason = "limit"
	StopWindow    StopReason = "window"
	StopExhausted StopReason = "exhausted"
	StopFailed    StopReason = "failed"
)

// Outcome is the result of collecting one origin id. Records keep page
// order. On StopFailed, Records holds whatever was gathered before the
// failure and Err describes it.
type Outcome struct {
	OriginID string
	Records  []graph.Record
	Pages    int
	Reason   StopReason
	Status   retry.Status
	Err      error
}

// Failed reports whether the collection ended on an error
func (o *Outcome) Failed() bool {
	return o.Reason == StopFailed
}

// Collector drives paginated fetches for one id at a time
type Collector struct {
	transport Transport
	governor  *retry.Governor
	pages     PageObserver
	logger    logger.Logger
}

// Option configures a Collector
type Option func(*Collector)

// WithPageObserver attaches per-page accounting
func WithPageObserver(o PageObserver) Option {
	return func(c *Collector) { c.pages = o }
}

// New creates a collector issuing every call through gov
func New(t Transport, gov *retry.Governor, log logger.Logger, opts ...Option) *Collector {
	if log == nil {
		log = logger.GetLogger()
	}
	c := &Collector{
		transport: t,
		governor:  gov,
		logger:    log,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Object fetches a single object. A successful fetch yields one record and
// StopExhausted; any governed failure yields StopFailed and no records.
func (c *Collector) Object(ctx context.Context, id, fields string) *Outcome {
	out := &Outcome{OriginID: id}

	res := retry.Call(ctx, c.governor, "object", func(ctx context.Context) (graph.Record, error) {
		return c.transport.FetchObject(ctx, id, fields)
	})
	if !res.OK() {
		return c.fail(out, res.Status, res.Err)
	}

	out.Pages = 1
	if res.Value == nil {
		out.Reason = StopEmpty
		return out
	}
	out.Records = []graph.Record{res.Value}
	out.Reason = StopExhausted
	return out
}

// Connection collects the edge of req.ID page by page until the limit is
// reached, the window boundary is crossed, the cursor runs out or a call
// fails.
func (c *Collector) Connection(ctx context.Context, req Request) *Outcome {
	if req.TimeField == "" {
		req.TimeField = DefaultTimeField
	}
	log := c.logger.WithFields(map[string]interface{}{
		"origin_id": req.ID,
		"edge":      req.Edge,
	})
	out := &Outcome{OriginID: req.ID}

	first := retry.Call(ctx, c.governor, req.Edge+"_first_page", func(ctx context.Context) (*graph.Connection, error) {
		return c.transport.FetchConnection(ctx, req.ID, req.Edge, req.Fields, req.Params)
	})
	if !first.OK() {
		return c.fail(out, first.Status, first.Err)
	}

	conn := first.Value
	out.Pages = 1
	if conn == nil || len(conn.Data) == 0 {
		log.Info("No records returned for id")
		out.Reason = StopEmpty
		return out
	}
	c.appendPage(out, req.Edge, conn)

	for {
		if reason, stop, err := c.decide(req, out, conn); stop {
			out.Reason = reason
			if err != nil {
				out.Status = retry.StatusFatal
				out.Err = err
				log.WithError(err).Warn("Stopping collection on malformed record")
			}
			break
		}

		current := conn
		next := retry.Call(ctx, c.governor, req.Edge+"_next_page", func(ctx context.Context) (*graph.Connection, error) {
			return c.transport.FetchNextPage(ctx, current)
		})
		if !next.OK() {
			if errors.Is(next.Err, graph.ErrNoNextPage) {
				out.Reason = StopExhausted
				break
			}
			log.WithError(next.Err).WarnWithFields("Next page failed, keeping partial results", map[string]interface{}{
				"collected": len(out.Records),
				"status":    next.Status.String(),
			})
			out.Reason = StopFailed
			out.Status = next.Status
			out.Err = next.Err
			break
		}

		conn = next.Value
		out.Pages++
		if conn == nil || len(conn.Data) == 0 {
			log.DebugWithFields("Next page has no data", map[string]interface{}{
				"pages": out.Pages,
			})
			out.Reason = StopExhausted
			break
		}
		c.appendPage(out, req.Edge, conn)
	}

	log.DebugWithFields("Collection finished", map[string]interface{}{
		"reason":    string(out.Reason),
		"pages":     out.Pages,
		"collected": len(out.Records),
	})
	return out
}

// decide evaluates the stop conditions in order: count cap, window
// boundary, missing next cursor.
func (c *Collector) decide(req Request, out *Outcome, conn *graph.Connection) (StopReason, bool, error) {
	if req.Limit > 0 && len(out.Records) >= req.Limit {
		out.Records = out.Records[:req.Limit]
		return StopLimit, true, nil
	}

	if req.Window != nil {
		last := out.Records[len(out.Records)-1]
		ts, ok := last.Time(req.TimeField)
		if !ok {
			return StopFailed, true, &errs.Error{
				Type:    errs.ErrorTypeParsing,
				Message: fmt.Sprintf("record has no parseable %s", req.TimeField),
			}
		}
		if !ts.After(req.Window.Since) {
			return StopWindow, true, nil
		}
	}

	if !conn.HasNext() {
		return StopExhausted, true, nil
	}
	return "", false, nil
}

func (c *Collector) appendPage(out *Outcome, edge string, conn *graph.Connection) {
	out.Records = append(out.Records, conn.Data...)
	if c.pages != nil {
		c.pages.ObservePage(edge, len(conn.Data))
	}
	logger.LogCollectProgress(c.logger, out.OriginID, out.Pages, len(out.Records))
}

func (c *Collector) fail(out *Outcome, status retry.Status, err error) *Outcome {
	out.Reason = StopFailed
	out.Status = status
	out.Err = err
	c.logger.WithError(err).WarnWithFields("No data collected for id", map[string]interface{}{
		"origin_id": out.OriginID,
		"status":    status.String(),
	})
	return out
}
