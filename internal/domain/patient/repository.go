package patient

import (
	"context"

	"github.com/nicuwatch/nicudash/internal/domain/alarm"
)

// Repository defines the patient persistence the alarm engine needs
type Repository interface {
	// GetAlarmLimits returns the stored limits, or a not-found error
	GetAlarmLimits(ctx context.Context, patientID int64) (AlarmLimits, error)

	// UpdateAlarmLimits stores limits and writes the audit entry in one transaction
	UpdateAlarmLimits(ctx context.Context, patientID int64, limits AlarmLimits, audit alarm.AuditEntry) error
}
