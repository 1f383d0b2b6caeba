package client

import "time"

// Alarm statuses and types accepted by the API
const (
	StatusActive       = "active"
	StatusAcknowledged = "acknowledged"
	StatusSilenced     = "silenced"
	StatusResolved     = "resolved"
	StatusAll          = "all"

	TypeCritical = "critical"
	TypeWarning  = "warning"
	TypeAdvisory = "advisory"
)

// FeedItem is one row of the alarm feed
type FeedItem struct {
	ID             int64     `json:"id" yaml:"id"`
	PatientID      int64     `json:"patientId" yaml:"patientId"`
	BedLabel       string    `json:"bedLabel" yaml:"bedLabel"`
	PatientName    string    `json:"patientName" yaml:"patientName"`
	Type           string    `json:"type" yaml:"type"`
	Parameter      string    `json:"parameter" yaml:"parameter"`
	Value          float64   `json:"value" yaml:"value"`
	Threshold      float64   `json:"threshold" yaml:"threshold"`
	Message        string    `json:"message" yaml:"message"`
	Status         string    `json:"status" yaml:"status"`
	TriggeredAt    time.Time `json:"triggeredAt" yaml:"triggeredAt"`
	AcknowledgedBy string    `json:"acknowledgedBy,omitempty" yaml:"acknowledgedBy,omitempty"`
}

// FeedMeta carries pagination and per-type counts for the status filter
type FeedMeta struct {
	Total    int64 `json:"total" yaml:"total"`
	Limit    int   `json:"limit" yaml:"limit"`
	Offset   int   `json:"offset" yaml:"offset"`
	Critical int   `json:"critical" yaml:"critical"`
	Warning  int   `json:"warning" yaml:"warning"`
	Advisory int   `json:"advisory" yaml:"advisory"`
}

// Feed is one page of the alarm feed
type Feed struct {
	Items []FeedItem `json:"items" yaml:"items"`
	Meta  FeedMeta   `json:"meta" yaml:"meta"`
}

// Alarm is the full alarm row returned by actions
type Alarm struct {
	ID            int64      `json:"id" yaml:"id"`
	PatientID     int64      `json:"patientId" yaml:"patientId"`
	Type          string     `json:"type" yaml:"type"`
	Parameter     string     `json:"parameter" yaml:"parameter"`
	Value         float64    `json:"value" yaml:"value"`
	Threshold     float64    `json:"threshold" yaml:"threshold"`
	Message       string     `json:"message" yaml:"message"`
	Status        string     `json:"status" yaml:"status"`
	TriggeredAt   time.Time  `json:"triggeredAt" yaml:"triggeredAt"`
	ResolvedAt    *time.Time `json:"resolvedAt,omitempty" yaml:"resolvedAt,omitempty"`
	SilencedUntil *time.Time `json:"silencedUntil,omitempty" yaml:"silencedUntil,omitempty"`
	CreatedAt     time.Time  `json:"createdAt" yaml:"createdAt"`
}

// ActionRequest is a batch lifecycle action
type ActionRequest struct {
	Action          string  `json:"action"`
	AlarmIDs        []int64 `json:"alarmIds"`
	SilenceDuration *int    `json:"silenceDuration,omitempty"`
}

// ActionResult is the outcome of a batch action
type ActionResult struct {
	Message   string  `json:"message" yaml:"message"`
	Processed int     `json:"processed" yaml:"processed"`
	Alarms    []Alarm `json:"alarms" yaml:"alarms"`
}

// AlarmLimits maps a parameter to its [low, high] thresholds
type AlarmLimits map[string][]float64

// PatientAlarmLimits is a patient's stored limits
type PatientAlarmLimits struct {
	PatientID   int64       `json:"patientId" yaml:"patientId"`
	AlarmLimits AlarmLimits `json:"alarmLimits" yaml:"alarmLimits"`
}

// HealthResponse is returned by the health endpoints
type HealthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database,omitempty"`
	Events   string `json:"events,omitempty"`
}
