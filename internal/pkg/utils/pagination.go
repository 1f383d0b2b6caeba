package utils

import (
	"net/http"

	"github.com/nicuwatch/nicudash/internal/domain/alarm"
)

// ParseListQuery reads the feed filter from the query string, applying defaults and clamps
func ParseListQuery(r *http.Request) alarm.ListQuery {
	q := r.URL.Query()
	return alarm.NewListQuery(q.Get("status"), q.Get("type"), q.Get("page"), q.Get("limit"))
}

// ListMeta is the meta block of a paginated feed response
type ListMeta struct {
	Total    int64 `json:"total"`
	Limit    int   `json:"limit"`
	Offset   int   `json:"offset"`
	Critical int   `json:"critical"`
	Warning  int   `json:"warning"`
	Advisory int   `json:"advisory"`
}

// NewListMeta builds the feed meta from a query result
func NewListMeta(res *alarm.ListResult) ListMeta {
	return ListMeta{
		Total:    res.Total,
		Limit:    res.Limit,
		Offset:   res.Offset,
		Critical: res.Counts.Critical,
		Warning:  res.Counts.Warning,
		Advisory: res.Counts.Advisory,
	}
}
