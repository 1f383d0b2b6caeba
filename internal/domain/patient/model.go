package patient

import "time"

// Patient is the minimal patient record the alarm engine reads
type Patient struct {
	ID          int64       `json:"id"`
	Name        string      `json:"name"`
	BedID       *int64      `json:"bedId,omitempty"`
	AlarmLimits AlarmLimits `json:"alarmLimits"`
	UpdatedAt   time.Time   `json:"updatedAt"`
}

// AlarmLimits maps a monitored parameter to its [low, high] thresholds
type AlarmLimits map[string][]float64

// Resource is the audit resource name for patient rows
const Resource = "patient"

// AuditActionUpdateLimits is recorded when a caregiver changes alarm limits
const AuditActionUpdateLimits = "update_alarm_limits"
