package alarm

import (
	"fmt"
	"time"
)

// Alarm represents one raised clinical condition for one patient
type Alarm struct {
	ID            int64      `json:"id"`
	PatientID     int64      `json:"patientId"`
	Type          Type       `json:"type"`
	Parameter     string     `json:"parameter"`
	Value         float64    `json:"value"`
	Threshold     float64    `json:"threshold"`
	Message       string     `json:"message"`
	Status        Status     `json:"status"`
	TriggeredAt   time.Time  `json:"triggeredAt"`
	ResolvedAt    *time.Time `json:"resolvedAt,omitempty"`
	SilencedUntil *time.Time `json:"silencedUntil,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
}

// FeedItem is the dashboard projection of an alarm
type FeedItem struct {
	ID             int64
	PatientID      int64
	PatientName    string
	BedLabel       string
	Type           Type
	Parameter      string
	Value          float64
	Threshold      float64
	Message        string
	Status         Status
	TriggeredAt    time.Time
	AcknowledgedBy string
}

// Acknowledgment is written once per (alarm, action) event and never updated
type Acknowledgment struct {
	ID        int64     `json:"id"`
	AlarmID   int64     `json:"alarmId"`
	UserID    int64     `json:"userId"`
	Action    string    `json:"action"`
	CreatedAt time.Time `json:"createdAt"`
}

// AuditEntry is an append-only compliance record
type AuditEntry struct {
	ID         int64                  `json:"id"`
	UserID     int64                  `json:"userId"`
	Action     string                 `json:"action"`
	Resource   string                 `json:"resource"`
	ResourceID int64                  `json:"resourceId"`
	Details    map[string]interface{} `json:"details,omitempty"`
	CreatedAt  time.Time              `json:"createdAt"`
}

// Resource is the audit resource name for alarm rows
const Resource = "alarm"

// Actor identifies the authenticated caller performing a read or an action.
type Actor struct {
	UserID int64
	Name   string
	Role   string
}

// SystemActor is used for transitions the service performs on its own behalf.
var SystemActor = Actor{UserID: 0, Name: "system", Role: "system"}

// IsSystem reports whether the actor is the internal system actor.
func (a Actor) IsSystem() bool {
	return a.UserID == 0 && a.Role == SystemActor.Role
}

// SeverityCounts holds grouped counts per alarm type
type SeverityCounts struct {
	Critical int `json:"critical"`
	Warning  int `json:"warning"`
	Advisory int `json:"advisory"`
}

// ListResult is the outcome of a feed query
type ListResult struct {
	Items  []*FeedItem
	Total  int64
	Limit  int
	Offset int
	Counts SeverityCounts
}

// ActionResult is the outcome of a batch action
type ActionResult struct {
	Action    Action
	Alarms    []*Alarm
	Processed int
	Missing   []int64
}

// Message renders the caregiver-facing summary sentence.
func (r *ActionResult) Message() string {
	return fmt.Sprintf("Successfully %s %d alarm(s)", r.Action.PastTense(), r.Processed)
}

// ActionEvent is published after a batch commits
type ActionEvent struct {
	Action    string    `json:"action"`
	AlarmIDs  []int64   `json:"alarmIds"`
	UserID    int64     `json:"userId"`
	Processed int       `json:"processed"`
	At        time.Time `json:"at"`
}
