package gallery

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Page is one page of fetched items
type Page[T any] struct {
	Hits      []T
	TotalHits int
}

// Fetcher retrieves one page of results for a query. Pages are 1-based.
type Fetcher[T any] interface {
	Fetch(ctx context.Context, query string, page int) (Page[T], error)
}

// Recorder is told about every completed fetch
type Recorder interface {
	Record(ctx context.Context, req Request, hits, totalHits int, elapsed time.Duration, fetchErr error) error
}

// Request identifies a single fetch for a (query, page) pair
type Request struct {
	ID         string
	Query      string
	Page       int
	Generation uint64
	IssuedAt   time.Time
}

func newRequest(query string, page int, generation uint64) Request {
	return Request{
		ID:         uuid.New().String(),
		Query:      query,
		Page:       page,
		Generation: generation,
		IssuedAt:   time.Now(),
	}
}

// Result is the outcome of running a Request
type Result[T any] struct {
	Request Request
	Page    Page[T]
	Err     error
	Elapsed time.Duration
}

// Controller owns a Session and drives the fetcher.
//
// SubmitQuery, LoadMore and Resolve mutate the session and must be called
// from a single goroutine (the UI event loop). Fetch touches no session
// state and is meant to run elsewhere.
type Controller[T any] struct {
	session  Session[T]
	fetcher  Fetcher[T]
	notifier Notifier
	recorder Recorder
	logger   *slog.Logger
	timeout  time.Duration
}

// Option configures a Controller
type Option func(*options)

type options struct {
	recorder Recorder
	logger   *slog.Logger
	timeout  time.Duration
}

// WithRecorder reports completed fetches to r
func WithRecorder(r Recorder) Option {
	return func(o *options) { o.recorder = r }
}

// WithLogger sets the controller's logger
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithTimeout bounds each fetch. Zero means no bound.
func WithTimeout(d time.Duration) Option {
	return func(o *options) { o.timeout = d }
}

// NewController creates a controller with an empty session
func NewController[T any](fetcher Fetcher[T], notifier Notifier, opts ...Option) *Controller[T] {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if notifier == nil {
		notifier = NotifierFunc(func(Notice) {})
	}

	return &Controller[T]{
		session:  NewSession[T](),
		fetcher:  fetcher,
		notifier: notifier,
		recorder: o.recorder,
		logger:   o.logger,
		timeout:  o.timeout,
	}
}

// Session returns a snapshot of the current session
func (c *Controller[T]) Session() Session[T] {
	return c.session
}

// SubmitQuery handles a search bar submission. It returns the request to
// run when the submission started a new fetch sequence.
func (c *Controller[T]) SubmitQuery(raw string) (Request, bool) {
	next, notices := c.session.Submit(raw)
	return c.apply(next, notices)
}

// LoadMore asks for the next page. It returns the request to run when the
// page advanced.
func (c *Controller[T]) LoadMore() (Request, bool) {
	next, notices := c.session.LoadMore()
	return c.apply(next, notices)
}

// apply installs the next session and issues a fetch only when the watched
// (query, page) pair changed.
func (c *Controller[T]) apply(next Session[T], notices []Notice) (Request, bool) {
	prev := c.session
	c.session = next
	c.emit(notices)

	if prev.Query == next.Query && prev.Page == next.Page {
		return Request{}, false
	}
	return c.fetchCurrentPage(), true
}

func (c *Controller[T]) fetchCurrentPage() Request {
	var req Request
	c.session, req = c.session.Begin()
	c.logger.Debug("fetch issued",
		"request_id", req.ID,
		"query", req.Query,
		"page", req.Page,
		"generation", req.Generation)
	return req
}

// Fetch runs req against the fetcher. It blocks until the fetcher returns.
func (c *Controller[T]) Fetch(ctx context.Context, req Request) Result[T] {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	start := time.Now()
	page, err := c.fetcher.Fetch(ctx, req.Query, req.Page)
	res := Result[T]{Request: req, Page: page, Err: err, Elapsed: time.Since(start)}

	if c.recorder != nil {
		if rerr := c.recorder.Record(context.WithoutCancel(ctx), req, len(page.Hits), page.TotalHits, res.Elapsed, err); rerr != nil {
			c.logger.Warn("failed to record fetch", "request_id", req.ID, "error", rerr)
		}
	}
	return res
}

// Resolve merges a finished fetch into the session. It reports false when
// the result belonged to a query that has since been replaced.
func (c *Controller[T]) Resolve(res Result[T]) bool {
	req := res.Request
	if !c.session.Accepts(req) {
		c.logger.Debug("stale result dropped",
			"request_id", req.ID,
			"query", req.Query,
			"current_query", c.session.Query)
		return false
	}

	var notices []Notice
	if res.Err != nil {
		c.logger.Error("fetch failed", "request_id", req.ID, "query", req.Query, "page", req.Page, "error", res.Err)
		c.session, notices = c.session.Fail(req, res.Err)
	} else {
		c.logger.Debug("fetch resolved",
			"request_id", req.ID,
			"hits", len(res.Page.Hits),
			"total_hits", res.Page.TotalHits,
			"elapsed", res.Elapsed)
		c.session, notices = c.session.Succeed(req, res.Page)
	}
	c.emit(notices)
	return true
}

func (c *Controller[T]) emit(notices []Notice) {
	for _, n := range notices {
		c.notifier.Notify(n)
	}
}
