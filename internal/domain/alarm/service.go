package alarm

import (
	"context"
	"fmt"
	"time"

	"github.com/nicuwatch/nicudash/internal/pkg/validator"
)

// ActionRequest is the caregiver batch-action input
type ActionRequest struct {
	Action          Action  `json:"action" validate:"required,oneof=acknowledge silence resolve"`
	AlarmIDs        []int64 `json:"alarmIds" validate:"required,min=1,dive,gt=0"`
	SilenceDuration *int    `json:"silenceDuration,omitempty"`

	// Malformed holds fields the transport could not decode. Each replaces the
	// regular violation for its field so one response carries every problem.
	Malformed []validator.ValidationError `json:"-"`
}

// SilenceSeconds returns the requested duration or def when none was given.
func (r ActionRequest) SilenceSeconds(def int) int {
	if r.SilenceDuration == nil {
		return def
	}
	return *r.SilenceDuration
}

// SilencePolicy bounds caregiver silence durations in seconds
type SilencePolicy struct {
	Default int
	Min     int
	Max     int
}

// DefaultSilencePolicy returns the 120s default within [30, 600].
func DefaultSilencePolicy() SilencePolicy {
	return SilencePolicy{Default: DefaultSilenceSeconds, Min: MinSilenceSeconds, Max: MaxSilenceSeconds}
}

// Tag renders the bounds as a validator tag.
func (p SilencePolicy) Tag() string {
	return fmt.Sprintf("gte=%d,lte=%d", p.Min, p.Max)
}

// QueryService serves the dashboard alarm feed
type QueryService interface {
	// List returns a filtered, paginated, severity-sorted page with per-severity counts
	List(ctx context.Context, actor *Actor, q ListQuery) (*ListResult, error)
}

// ActionProcessor executes lifecycle transitions
type ActionProcessor interface {
	// Apply validates and executes a caregiver batch action atomically
	Apply(ctx context.Context, actor *Actor, req ActionRequest) (*ActionResult, error)

	// ExpireSilences returns silenced alarms whose silence elapsed to active
	ExpireSilences(ctx context.Context, now time.Time) (int, error)

	// ResolvePatientAlarms resolves every open alarm of a discharged patient
	ResolvePatientAlarms(ctx context.Context, actor *Actor, patientID int64) (*ActionResult, error)
}
