package dto

import (
	"encoding/json"

	"github.com/nicuwatch/nicudash/internal/domain/patient"
)

// AlarmLimitsDTO is a patient's per-parameter [low, high] thresholds
type AlarmLimitsDTO struct {
	PatientID   int64               `json:"patientId"`
	AlarmLimits patient.AlarmLimits `json:"alarmLimits"`
}

// UpdateAlarmLimitsRequest replaces the full set of limits.
// Each parameter maps to a [low, high] pair; values stay raw so every pair is checked independently.
type UpdateAlarmLimitsRequest struct {
	AlarmLimits map[string]json.RawMessage `json:"alarmLimits" swaggertype:"object"`
}
