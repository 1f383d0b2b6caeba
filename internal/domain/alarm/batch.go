package alarm

import "time"

// Batch is a unit of work handed to the store in a single ApplyAtomically call.
//
// The store updates every alarm in AlarmIDs whose current status is listed in
// From (and, when SilencedBefore is set, whose silenced_until is at or before it),
// then for each updated row inserts one acknowledgment (when Acknowledge is set)
// and one audit entry. Either everything commits or nothing does.
type Batch struct {
	AlarmIDs       []int64
	From           []Status
	Update         StatusUpdate
	SilencedBefore *time.Time

	Actor       Actor
	Acknowledge *Action
	Audit       AuditTemplate
	At          time.Time
}

// AuditTemplate is expanded into one AuditEntry per updated alarm
type AuditTemplate struct {
	Action  string
	Details map[string]interface{}
}

// Entry builds the audit entry for one alarm.
func (t AuditTemplate) Entry(userID, alarmID int64, at time.Time) AuditEntry {
	return AuditEntry{
		UserID:     userID,
		Action:     t.Action,
		Resource:   Resource,
		ResourceID: alarmID,
		Details:    t.Details,
		CreatedAt:  at,
	}
}

// NewActionBatch builds the unit of work for a caregiver action.
func NewActionBatch(actor Actor, action Action, ids []int64, silenceSeconds int, now time.Time) *Batch {
	details := map[string]interface{}{
		"status":    string(action.Target()),
		"batchSize": len(ids),
	}
	if action == ActionSilence {
		details["silenceDuration"] = silenceSeconds
	}
	ack := action
	return &Batch{
		AlarmIDs:    ids,
		From:        SourcesFor(action.Target()),
		Update:      action.Effect(now, silenceSeconds),
		Actor:       actor,
		Acknowledge: &ack,
		Audit:       AuditTemplate{Action: string(action), Details: details},
		At:          now,
	}
}

// Audit actions recorded for transitions the service performs itself
const (
	AuditActionUnsilence = "unsilence"
	ReasonSilenceExpired = "silence_expired"
	ReasonDischarge      = "discharge"
)

// NewExpiryBatch returns silenced alarms whose silence ended at or before now to active.
// The silenced_until guard keeps a concurrently re-silenced alarm silenced.
func NewExpiryBatch(ids []int64, now time.Time) *Batch {
	return &Batch{
		AlarmIDs:       ids,
		From:           []Status{StatusSilenced},
		Update:         StatusUpdate{Status: StatusActive},
		SilencedBefore: &now,
		Actor:          SystemActor,
		Audit: AuditTemplate{
			Action:  AuditActionUnsilence,
			Details: map[string]interface{}{"status": string(StatusActive), "reason": ReasonSilenceExpired},
		},
		At: now,
	}
}

// NewDischargeBatch resolves every listed alarm of a discharged patient.
func NewDischargeBatch(actor Actor, patientID int64, ids []int64, now time.Time) *Batch {
	b := NewActionBatch(actor, ActionResolve, ids, 0, now)
	b.Audit.Details["reason"] = ReasonDischarge
	b.Audit.Details["patientId"] = patientID
	return b
}

// UniqueIDs returns ids with duplicates removed, preserving first occurrence.
func UniqueIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// MissingIDs returns the requested ids that are absent from updated.
func MissingIDs(requested []int64, updated []*Alarm) []int64 {
	got := make(map[int64]struct{}, len(updated))
	for _, a := range updated {
		got[a.ID] = struct{}{}
	}
	var missing []int64
	for _, id := range requested {
		if _, ok := got[id]; !ok {
			missing = append(missing, id)
		}
	}
	return missing
}
