package alarm

import (
	"context"
	"time"
)

// Repository defines the store contract the alarm engine requires
type Repository interface {
	// List returns one page of the feed in severity/recency order and the total matching rows
	List(ctx context.Context, q ListQuery) ([]*FeedItem, int64, error)

	// CountByType returns grouped counts per type for the status filter
	CountByType(ctx context.Context, status Status) (map[Type]int, error)

	// ApplyAtomically executes a batch inside one transaction and returns the updated alarms
	ApplyAtomically(ctx context.Context, batch *Batch) ([]*Alarm, error)

	// ListExpiredSilences returns ids of silenced alarms whose silence ended at or before now
	ListExpiredSilences(ctx context.Context, now time.Time) ([]int64, error)

	// ListOpenIDsByPatient returns ids of a patient's alarms that are not resolved
	ListOpenIDsByPatient(ctx context.Context, patientID int64) ([]int64, error)
}

// EventPublisher announces committed batches to interested consumers
type EventPublisher interface {
	Publish(ctx context.Context, event ActionEvent) error
}
