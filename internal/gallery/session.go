package gallery

import (
	"fmt"
	"slices"
	"strings"
)

// Status is the transient fetch state of a session
type Status int

const (
	StatusIdle Status = iota
	StatusLoading
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusError:
		return "error"
	default:
		return "idle"
	}
}

// Session is the complete state of one search session. It is a value: every
// transition returns a new Session and leaves the receiver untouched.
//
// T is the item type produced by the fetcher. Session never looks inside it.
type Session[T any] struct {
	Query          string
	Page           int
	Results        []T
	TotalAvailable int
	Status         Status
	Exhausted      bool

	// Generation increments on every accepted query and stamps each
	// request so results for a replaced query can be recognised.
	Generation uint64
}

// NewSession returns the empty "no search yet" session
func NewSession[T any]() Session[T] {
	return Session[T]{Page: 1}
}

// Normalize trims surrounding whitespace and lower-cases a raw query
func Normalize(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

// Submit applies a raw query from the search bar.
// Empty and repeated queries leave the session unchanged and yield one notice.
func (s Session[T]) Submit(raw string) (Session[T], []Notice) {
	query := Normalize(raw)
	if query == "" {
		return s, []Notice{{Level: LevelError, Text: MsgEmptyQuery}}
	}
	if query == strings.ToLower(s.Query) {
		return s, []Notice{{Level: LevelError, Text: MsgSameQuery}}
	}

	next := s
	next.Query = query
	next.Page = 1
	next.Results = nil
	next.Exhausted = false
	next.Generation++
	return next, nil
}

// LoadMore advances to the next page unless the result set is exhausted
func (s Session[T]) LoadMore() (Session[T], []Notice) {
	if s.Exhausted {
		return s, []Notice{{Level: LevelInfo, Text: MsgEndOfResults}}
	}
	next := s
	next.Page++
	return next, nil
}

// Begin marks the session as loading and describes the fetch to perform
func (s Session[T]) Begin() (Session[T], Request) {
	next := s
	next.Status = StatusLoading
	return next, newRequest(s.Query, s.Page, s.Generation)
}

// Accepts reports whether a result for req may still be merged. Results
// issued for an earlier query are never accepted.
func (s Session[T]) Accepts(req Request) bool {
	return req.Generation == s.Generation
}

// Succeed merges a fetched page. Page 1 replaces the results, any later page
// appends to them.
func (s Session[T]) Succeed(req Request, page Page[T]) (Session[T], []Notice) {
	next := s
	if req.Page == 1 {
		next.Results = slices.Clone(page.Hits)
	} else {
		next.Results = slices.Concat(s.Results, page.Hits)
	}
	next.TotalAvailable = page.TotalHits
	// Counted from the results held before the merge plus the incoming hits.
	next.Exhausted = len(s.Results)+len(page.Hits) >= page.TotalHits
	next.Status = StatusIdle

	if len(page.Hits) == 0 {
		return next, []Notice{{Level: LevelInfo, Text: MsgNoResults}}
	}
	return next, nil
}

// Fail records a failed fetch. Results and page stay as they were.
func (s Session[T]) Fail(req Request, err error) (Session[T], []Notice) {
	next := s
	next.Status = StatusError
	return next, []Notice{{Level: LevelError, Text: fmt.Sprintf(msgFetchFailed, err)}}
}

// CanLoadMore reports whether the "load more" affordance should be offered
func (s Session[T]) CanLoadMore() bool {
	return s.Status == StatusIdle && len(s.Results) > 0 && !s.Exhausted
}
