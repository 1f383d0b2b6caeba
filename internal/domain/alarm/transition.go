package alarm

import "time"

// Type is the alarm severity
type Type string

// Alarm types
const (
	TypeCritical Type = "critical"
	TypeWarning  Type = "warning"
	TypeAdvisory Type = "advisory"
)

// Types lists every severity in rank order.
var Types = []Type{TypeCritical, TypeWarning, TypeAdvisory}

// Rank returns the triage rank; lower surfaces first.
func (t Type) Rank() int {
	switch t {
	case TypeCritical:
		return 0
	case TypeWarning:
		return 1
	default:
		return 2
	}
}

// Valid reports whether t is a known severity.
func (t Type) Valid() bool {
	return t == TypeCritical || t == TypeWarning || t == TypeAdvisory
}

// Status is the lifecycle state of an alarm
type Status string

// Alarm statuses
const (
	StatusActive       Status = "active"
	StatusAcknowledged Status = "acknowledged"
	StatusSilenced     Status = "silenced"
	StatusResolved     Status = "resolved"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusActive, StatusAcknowledged, StatusSilenced, StatusResolved:
		return true
	}
	return false
}

// Terminal reports whether no further transitions are accepted.
func (s Status) Terminal() bool {
	return s == StatusResolved
}

// Action is a caregiver batch action
type Action string

// Caregiver actions
const (
	ActionAcknowledge Action = "acknowledge"
	ActionSilence     Action = "silence"
	ActionResolve     Action = "resolve"
)

// Valid reports whether a is a known caregiver action.
func (a Action) Valid() bool {
	return a == ActionAcknowledge || a == ActionSilence || a == ActionResolve
}

// Target returns the status the action moves an alarm to.
func (a Action) Target() Status {
	switch a {
	case ActionAcknowledge:
		return StatusAcknowledged
	case ActionSilence:
		return StatusSilenced
	case ActionResolve:
		return StatusResolved
	}
	return ""
}

// PastTense returns the verb used in caregiver messages.
func (a Action) PastTense() string {
	switch a {
	case ActionAcknowledge:
		return "acknowledged"
	case ActionSilence:
		return "silenced"
	case ActionResolve:
		return "resolved"
	}
	return string(a)
}

// Silence duration bounds in seconds
const (
	DefaultSilenceSeconds = 120
	MinSilenceSeconds     = 30
	MaxSilenceSeconds     = 600
)

// transitions holds the caregiver-driven edges of the lifecycle.
var transitions = map[Status][]Status{
	StatusActive:       {StatusAcknowledged, StatusSilenced, StatusResolved},
	StatusAcknowledged: {StatusSilenced, StatusResolved},
	StatusSilenced:     {StatusAcknowledged, StatusResolved},
}

// CanTransition reports whether a caregiver may move an alarm from one status to another.
// Re-applying the current non-terminal status is accepted as a no-op re-write.
func CanTransition(from, to Status) bool {
	if from.Terminal() {
		return false
	}
	if from == to {
		return true
	}
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// SourcesFor returns every status from which an alarm may move to target, in a stable order.
func SourcesFor(target Status) []Status {
	var out []Status
	for _, from := range []Status{StatusActive, StatusAcknowledged, StatusSilenced, StatusResolved} {
		if CanTransition(from, target) {
			out = append(out, from)
		}
	}
	return out
}

// StatusUpdate is the column-level effect of a transition.
// SilencedUntil and ResolvedAt are written as given; nil clears the column.
type StatusUpdate struct {
	Status        Status
	SilencedUntil *time.Time
	ResolvedAt    *time.Time
}

// Effect computes the field effects of applying the action at now.
func (a Action) Effect(now time.Time, silenceSeconds int) StatusUpdate {
	u := StatusUpdate{Status: a.Target()}
	switch a {
	case ActionSilence:
		until := now.Add(time.Duration(silenceSeconds) * time.Second)
		u.SilencedUntil = &until
	case ActionResolve:
		at := now
		u.ResolvedAt = &at
	}
	return u
}
