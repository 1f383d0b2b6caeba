package alarm

import (
	"reflect"
	"testing"
	"time"
)

func TestResolveStatus(t *testing.T) {
	tests := []struct {
		raw  string
		want Status
	}{
		{"", StatusActive},
		{"active", StatusActive},
		{"acknowledged", StatusAcknowledged},
		{"silenced", StatusSilenced},
		{"resolved", StatusResolved},
		{"all", StatusAll},
		{"ALL", StatusAll},
		{"bogus", StatusActive},
	}
	for _, tt := range tests {
		if got := ResolveStatus(tt.raw); got != tt.want {
			t.Errorf("ResolveStatus(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}

func TestResolveType(t *testing.T) {
	tests := []struct {
		raw  string
		want Type
	}{
		{"", ""},
		{"critical", TypeCritical},
		{"warning", TypeWarning},
		{"advisory", TypeAdvisory},
		{"emergency", ""},
	}
	for _, tt := range tests {
		if got := ResolveType(tt.raw); got != tt.want {
			t.Errorf("ResolveType(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}

func TestResolvePageAndLimit(t *testing.T) {
	pages := map[string]int{"": 1, "0": 1, "-3": 1, "x": 1, "1": 1, "7": 7}
	for raw, want := range pages {
		if got := ResolvePage(raw); got != want {
			t.Errorf("ResolvePage(%q) = %d, want %d", raw, got, want)
		}
	}

	limits := map[string]int{"": 50, "abc": 50, "0": 1, "-5": 1, "1": 1, "25": 25, "200": 200, "500": 200}
	for raw, want := range limits {
		if got := ResolveLimit(raw); got != want {
			t.Errorf("ResolveLimit(%q) = %d, want %d", raw, got, want)
		}
	}
}

func TestListQuery_Offset(t *testing.T) {
	tests := []struct {
		page, limit, want int
	}{
		{1, 50, 0},
		{2, 50, 50},
		{3, 20, 40},
		{10, 200, 1800},
	}
	for _, tt := range tests {
		q := ListQuery{Page: tt.page, Limit: tt.limit}
		if got := q.Offset(); got != tt.want {
			t.Errorf("Offset(page=%d, limit=%d) = %d, want %d", tt.page, tt.limit, got, tt.want)
		}
	}

	q := NewListQuery("nope", "warning", "2", "500")
	if q.Status != StatusActive || q.Type != TypeWarning || q.Limit != 200 || q.Offset() != 200 {
		t.Errorf("NewListQuery() = %+v", q)
	}
}

func TestUniqueAndMissingIDs(t *testing.T) {
	ids := UniqueIDs([]int64{3, 1, 3, 2, 1})
	if !reflect.DeepEqual(ids, []int64{3, 1, 2}) {
		t.Errorf("UniqueIDs() = %v", ids)
	}

	missing := MissingIDs([]int64{1, 2, 999}, []*Alarm{{ID: 1}, {ID: 2}})
	if !reflect.DeepEqual(missing, []int64{999}) {
		t.Errorf("MissingIDs() = %v", missing)
	}
}

func TestNewActionBatch(t *testing.T) {
	now := time.Now().UTC()
	actor := Actor{UserID: 7, Name: "Nurse Joy", Role: "nurse"}

	b := NewActionBatch(actor, ActionSilence, []int64{1, 2}, 60, now)
	if b.Acknowledge == nil || *b.Acknowledge != ActionSilence {
		t.Fatalf("Acknowledge = %v", b.Acknowledge)
	}
	if b.Update.SilencedUntil == nil || !b.Update.SilencedUntil.Equal(now.Add(time.Minute)) {
		t.Errorf("SilencedUntil = %v", b.Update.SilencedUntil)
	}
	if b.Audit.Details["silenceDuration"] != 60 {
		t.Errorf("audit details = %v", b.Audit.Details)
	}
	entry := b.Audit.Entry(actor.UserID, 2, now)
	if entry.Resource != Resource || entry.ResourceID != 2 || entry.Action != "silence" {
		t.Errorf("audit entry = %+v", entry)
	}
}
