package patient

import (
	"context"

	"github.com/nicuwatch/nicudash/internal/domain/alarm"
)

// Service defines alarm-limit management for a patient
type Service interface {
	// GetAlarmLimits returns a patient's alarm limits
	GetAlarmLimits(ctx context.Context, actor *alarm.Actor, patientID int64) (AlarmLimits, error)

	// UpdateAlarmLimits validates and stores a patient's alarm limits
	UpdateAlarmLimits(ctx context.Context, actor *alarm.Actor, patientID int64, limits AlarmLimits) error
}
