package alarm

import (
	"strconv"
	"strings"
)

// StatusAll disables status filtering
const StatusAll Status = "all"

// Pagination defaults for the dashboard feed
const (
	DefaultPage  = 1
	DefaultLimit = 50
	MinLimit     = 1
	MaxLimit     = 200
)

// ListQuery is the closed, already-resolved filter for the alarm feed
type ListQuery struct {
	Status Status // a concrete status or StatusAll
	Type   Type   // empty means any type
	Page   int
	Limit  int
}

// Offset returns the number of rows to skip.
func (q ListQuery) Offset() int {
	return (q.Page - 1) * q.Limit
}

// Normalize fills defaults on a query built in code. A zero Limit means unset.
func (q ListQuery) Normalize() ListQuery {
	if q.Status != StatusAll && !q.Status.Valid() {
		q.Status = StatusActive
	}
	if !q.Type.Valid() {
		q.Type = ""
	}
	if q.Page < 1 {
		q.Page = DefaultPage
	}
	if q.Limit == 0 {
		q.Limit = DefaultLimit
	}
	q.Limit = ClampLimit(q.Limit)
	return q
}

// AllStatuses reports whether the query spans every status.
func (q ListQuery) AllStatuses() bool {
	return q.Status == StatusAll
}

// NewListQuery resolves raw dashboard parameters into a ListQuery.
func NewListQuery(status, typ, page, limit string) ListQuery {
	return ListQuery{
		Status: ResolveStatus(status),
		Type:   ResolveType(typ),
		Page:   ResolvePage(page),
		Limit:  ResolveLimit(limit),
	}
}

// ResolveStatus maps a raw status filter to a known one.
// Empty and unrecognized values resolve to active.
func ResolveStatus(raw string) Status {
	s := Status(strings.ToLower(strings.TrimSpace(raw)))
	if s == StatusAll || s.Valid() {
		return s
	}
	return StatusActive
}

// ResolveType maps a raw type filter to a known type, or empty for no filter.
func ResolveType(raw string) Type {
	t := Type(strings.ToLower(strings.TrimSpace(raw)))
	if t.Valid() {
		return t
	}
	return ""
}

// ResolvePage returns a page number of at least 1.
func ResolvePage(raw string) int {
	p, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || p < 1 {
		return DefaultPage
	}
	return p
}

// ResolveLimit returns the page size clamped to [MinLimit, MaxLimit].
// Missing or unparsable values resolve to DefaultLimit.
func ResolveLimit(raw string) int {
	l, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return DefaultLimit
	}
	return ClampLimit(l)
}

// ClampLimit clamps l to [MinLimit, MaxLimit].
func ClampLimit(l int) int {
	if l < MinLimit {
		return MinLimit
	}
	if l > MaxLimit {
		return MaxLimit
	}
	return l
}
