package harvest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"graphharvest/pkg/collector"
	"graphharvest/pkg/config"
	"graphharvest/pkg/enrich"
	"graphharvest/pkg/graph"
	"graphharvest/pkg/logger"
	"graphharvest/pkg/normalize"
	"graphharvest/pkg/retry"
	"graphharvest/pkg/rows"
)

// Operation names used in logs and metrics
const (
	OpProfilesInfo  = "profiles_info"
	OpPosts         = "posts"
	OpProfilesPosts = "profiles_posts"
	OpPostsComments = "posts_comments"
)

// ErrInvalidWindow is returned when until precedes since
var ErrInvalidWindow = errors.New("until must not be before since")

// Observer receives per-operation accounting
type Observer interface {
	ObserveRows(operation string, n int)
	ObserveStop(operation string, reason string)
}

// Failure describes one id whose collection ended on an error. Rows
// gathered before the failure are still part of the result.
type Failure struct {
	ID     string
	Reason collector.StopReason
	Status retry.Status
	Err    error
}

func (f Failure) Error() string {
	return fmt.Sprintf("%s: %s (%s): %v", f.ID, f.Reason, f.Status, f.Err)
}

// Result is the outcome of a multi-id operation
type Result struct {
	Rows     []*rows.Row
	Failures []Failure
}

// PostOptions selects the optional parts of a post collection
type PostOptions struct {
	// Insights requests the insights field (needs a page admin token)
	Insights bool

	// Comments adds comments_reactions, fetching every comment per post
	Comments bool

	// Info adds profile_ columns for the author of each post
	Info bool
}

// Service runs the collection operations one id at a time
type Service struct {
	collector  *collector.Collector
	fields     config.FieldsConfig
	collection config.CollectionConfig
	linkBase   string
	observer   Observer
	logger     logger.Logger
}

// Option configures a Service
type Option func(*Service)

// WithObserver attaches row and stop accounting
func WithObserver(o Observer) Option {
	return func(s *Service) { s.observer = o }
}

// WithLogger sets the logger
func WithLogger(l logger.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// NewService creates a Service collecting through c
func NewService(c *collector.Collector, cfg *config.Config, opts ...Option) *Service {
	s := &Service{
		collector:  c,
		fields:     cfg.Fields,
		collection: cfg.Collection,
		linkBase:   cfg.Graph.PostLinkBase,
		logger:     logger.GetLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// DefaultUntil is the configured upper bound used when a caller gives none
func (s *Service) DefaultUntil() string {
	return s.collection.DefaultUntil
}

// ProfilesInfo fetches profile info for each id
func (s *Service) ProfilesInfo(ctx context.Context, ids []string) (*Result, error) {
	logger.LogComponentStart(s.logger, OpProfilesInfo, map[string]interface{}{"ids": len(ids)})
	res := &Result{}
	fields := s.fields.ProfileFieldSpec()

	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		out := s.collector.Object(ctx, id, fields)
		s.record(OpProfilesInfo, res, out)
		for _, rec := range out.Records {
			res.Rows = append(res.Rows, normalize.Profile(rec, id))
		}
	}

	s.finish(OpProfilesInfo, res)
	return res, nil
}

// Posts fetches each post by id and applies the selected enrichment
func (s *Service) Posts(ctx context.Context, ids []string, opts PostOptions) (*Result, error) {
	logger.LogComponentStart(s.logger, OpPosts, map[string]interface{}{
		"ids":      len(ids),
		"insights": opts.Insights,
		"comments": opts.Comments,
		"info":     opts.Info,
	})
	res := &Result{}
	fields := s.postFields(opts)

	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		out := s.collector.Object(ctx, id, fields)
		s.record(OpPosts, res, out)
		res.Rows = append(res.Rows, normalize.Posts(out.Records, id, s.linkBase)...)
	}

	// Posts fetched by id carry their own id as origin_id, so profile info
	// is joined on the author instead.
	if err := s.enrich(ctx, res, opts, normalize.ColFromID); err != nil {
		return res, err
	}

	s.finish(OpPosts, res)
	return res, nil
}

// ProfilesPosts walks the posts edge of each profile backward in time until
// since is crossed or n posts are collected. Only posts created within
// [since, until] are returned. n <= 0 uses the configured maximum.
func (s *Service) ProfilesPosts(ctx context.Context, ids []string, since, until time.Time, n int, opts PostOptions) (*Result, error) {
	window := collector.NewWindow(since, until)
	if window.Until.Before(window.Since) {
		return nil, ErrInvalidWindow
	}
	if n <= 0 {
		n = s.collection.MaxItems
	}

	logger.LogComponentStart(s.logger, OpProfilesPosts, map[string]interface{}{
		"ids":      len(ids),
		"since":    window.Since,
		"until":    window.Until,
		"n":        n,
		"insights": opts.Insights,
		"comments": opts.Comments,
		"info":     opts.Info,
	})

	res := &Result{}
	fields := s.postFields(opts)
	firstPage := n
	if s.collection.FirstPageLimit > 0 && s.collection.FirstPageLimit < firstPage {
		firstPage = s.collection.FirstPageLimit
	}

	var interrupted error
	for _, id := range ids {
		if interrupted = ctx.Err(); interrupted != nil {
			break
		}
		out := s.collector.Connection(ctx, collector.Request{
			ID:     id,
			Edge:   graph.EdgePosts,
			Fields: fields,
			Params: graph.WindowParams(window.Since, window.Until, firstPage),
			Limit:  n,
			Window: &window,
		})
		s.record(OpProfilesPosts, res, out)
		res.Rows = append(res.Rows, normalize.Posts(out.Records, id, s.linkBase)...)
	}

	// Only the last page is known to cross since; drop everything outside
	// the window, bounds included.
	collected := len(res.Rows)
	res.Rows = rows.Filter(res.Rows, func(r *rows.Row) bool {
		v, _ := r.Get(normalize.ColCreatedTime)
		ts, ok := v.(time.Time)
		return ok && window.Contains(ts)
	})
	if dropped := collected - len(res.Rows); dropped > 0 {
		s.logger.DebugWithFields("Dropped posts outside time range", map[string]interface{}{
			"dropped": dropped,
			"kept":    len(res.Rows),
		})
	}
	if interrupted != nil {
		return res, interrupted
	}

	if err := s.enrich(ctx, res, opts, normalize.ColOriginID); err != nil {
		return res, err
	}

	s.finish(OpProfilesPosts, res)
	return res, nil
}

// PostsComments collects up to n comments under each post. n <= 0 uses the
// configured maximum.
func (s *Service) PostsComments(ctx context.Context, ids []string, n int) (*Result, error) {
	if n <= 0 {
		n = s.collection.MaxItems
	}
	logger.LogComponentStart(s.logger, OpPostsComments, map[string]interface{}{
		"ids": len(ids),
		"n":   n,
	})

	res := &Result{}
	fields := s.fields.CommentFieldSpec()

	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		out := s.collector.Connection(ctx, collector.Request{
			ID:     id,
			Edge:   graph.EdgeComments,
			Fields: fields,
			Limit:  n,
		})
		s.record(OpPostsComments, res, out)
		res.Rows = append(res.Rows, normalize.Comments(out.Records, id)...)
	}

	s.finish(OpPostsComments, res)
	return res, nil
}

func (s *Service) postFields(opts PostOptions) string {
	fields := s.fields
	fields.IncludeInsights = fields.IncludeInsights || opts.Insights
	return fields.PostFieldSpec()
}

// enrich applies the selected joins. Failures of the nested collections are
// appended to res.
func (s *Service) enrich(ctx context.Context, res *Result, opts PostOptions, profileKey string) error {
	if opts.Info {
		joined, err := enrich.Profiles(ctx, res.Rows, profileKey, &profileSource{s: s, parent: res}, s.logger)
		if err != nil {
			return err
		}
		res.Rows = joined
	}
	if opts.Comments {
		joined, err := enrich.CommentReactions(ctx, res.Rows, &commentSource{s: s, parent: res}, s.collection.MaxItems, s.logger)
		if err != nil {
			return err
		}
		res.Rows = joined
	}
	return nil
}

func (s *Service) record(operation string, res *Result, out *collector.Outcome) {
	if s.observer != nil {
		s.observer.ObserveStop(operation, string(out.Reason))
	}
	if !out.Failed() {
		return
	}
	res.Failures = append(res.Failures, Failure{
		ID:     out.OriginID,
		Reason: out.Reason,
		Status: out.Status,
		Err:    out.Err,
	})
}

func (s *Service) finish(operation string, res *Result) {
	if s.observer != nil {
		s.observer.ObserveRows(operation, len(res.Rows))
	}
	s.logger.InfoWithFields("Collection completed", map[string]interface{}{
		"operation": operation,
		"rows":      len(res.Rows),
		"failures":  len(res.Failures),
	})
	logger.LogComponentStop(s.logger, operation, "completed")
}

// profileSource feeds enrich.Profiles from the service itself
type profileSource struct {
	s      *Service
	parent *Result
}

func (p *profileSource) ProfilesInfo(ctx context.Context, ids []string) ([]*rows.Row, error) {
	res, err := p.s.ProfilesInfo(ctx, ids)
	if res == nil {
		return nil, err
	}
	p.parent.Failures = append(p.parent.Failures, res.Failures...)
	return res.Rows, err
}

// commentSource feeds enrich.CommentReactions from the service itself
type commentSource struct {
	s      *Service
	parent *Result
}

func (c *commentSource) PostsComments(ctx context.Context, ids []string, n int) ([]*rows.Row, error) {
	res, err := c.s.PostsComments(ctx, ids, n)
	if res == nil {
		return nil, err
	}
	c.parent.Failures = append(c.parent.Failures, res.Failures...)
	return res.Rows, err
}
