package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/nicuwatch/nicudash/internal/domain/alarm"
	apperrors "github.com/nicuwatch/nicudash/internal/pkg/errors"
	"github.com/nicuwatch/nicudash/internal/pkg/logger"
	"github.com/nicuwatch/nicudash/internal/pkg/validator"
	"github.com/nicuwatch/nicudash/internal/testutil"
)

var processorNow = testutil.BaseTime.Add(time.Hour)

func newTestProcessor(repo alarm.Repository, events alarm.EventPublisher) *AlarmActionProcessor {
	p := NewAlarmActionProcessor(repo, events, validator.New(), logger.Nop(), alarm.DefaultSilencePolicy()).(*AlarmActionProcessor)
	p.now = func() time.Time { return processorNow }
	return p
}

func TestAlarmActionProcessor_Apply(t *testing.T) {
	tests := []struct {
		name          string
		req           alarm.ActionRequest
		wantProcessed int
		wantMissing   []int64
		wantStatus    alarm.Status
		wantMessage   string
	}{
		{
			name:          "acknowledge three active alarms",
			req:           alarm.ActionRequest{Action: alarm.ActionAcknowledge, AlarmIDs: []int64{1, 2, 3}},
			wantProcessed: 3,
			wantStatus:    alarm.StatusAcknowledged,
			wantMessage:   "acknowledged 3 alarm(s)",
		},
		{
			name:          "unknown id is skipped",
			req:           alarm.ActionRequest{Action: alarm.ActionAcknowledge, AlarmIDs: []int64{1, 2, 999}},
			wantProcessed: 2,
			wantMissing:   []int64{999},
			wantStatus:    alarm.StatusAcknowledged,
			wantMessage:   "acknowledged 2 alarm(s)",
		},
		{
			name:          "resolved alarm is not updatable",
			req:           alarm.ActionRequest{Action: alarm.ActionResolve, AlarmIDs: []int64{4, 6}},
			wantProcessed: 1,
			wantMissing:   []int64{6},
			wantStatus:    alarm.StatusResolved,
			wantMessage:   "resolved 1 alarm(s)",
		},
		{
			name:          "duplicate ids collapse",
			req:           alarm.ActionRequest{Action: alarm.ActionSilence, AlarmIDs: []int64{2, 2, 2}},
			wantProcessed: 1,
			wantStatus:    alarm.StatusSilenced,
			wantMessage:   "silenced 1 alarm(s)",
		},
		{
			name:          "silenced alarm can be acknowledged",
			req:           alarm.ActionRequest{Action: alarm.ActionAcknowledge, AlarmIDs: []int64{5}},
			wantProcessed: 1,
			wantStatus:    alarm.StatusAcknowledged,
			wantMessage:   "acknowledged 1 alarm(s)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := testutil.NewSeededAlarmRepository()
			events := testutil.NewMockEventPublisher()
			p := newTestProcessor(repo, events)
			actor := testutil.Nurse

			res, err := p.Apply(context.Background(), &actor, tt.req)
			if err != nil {
				t.Fatalf("Apply() error = %v", err)
			}

			if res.Processed != tt.wantProcessed {
				t.Errorf("Processed = %d, want %d", res.Processed, tt.wantProcessed)
			}
			if len(res.Missing) != len(tt.wantMissing) {
				t.Errorf("Missing = %v, want %v", res.Missing, tt.wantMissing)
			}
			if !strings.Contains(res.Message(), tt.wantMessage) {
				t.Errorf("Message() = %q, want it to contain %q", res.Message(), tt.wantMessage)
			}
			for _, a := range res.Alarms {
				if a.Status != tt.wantStatus {
					t.Errorf("alarm %d status = %s, want %s", a.ID, a.Status, tt.wantStatus)
				}
				stored, _ := repo.Get(a.ID)
				if stored.Status != tt.wantStatus {
					t.Errorf("stored alarm %d status = %s", a.ID, stored.Status)
				}
			}

			if len(repo.Acknowledgments) != tt.wantProcessed {
				t.Errorf("acknowledgments = %d, want %d", len(repo.Acknowledgments), tt.wantProcessed)
			}
			if len(repo.AuditLog) != tt.wantProcessed {
				t.Errorf("audit entries = %d, want %d", len(repo.AuditLog), tt.wantProcessed)
			}
			for _, e := range repo.AuditLog {
				if e.UserID != actor.UserID || e.Resource != alarm.Resource || e.Action != string(tt.req.Action) {
					t.Errorf("unexpected audit entry %+v", e)
				}
			}
			if repo.ApplyCalls != 1 {
				t.Errorf("ApplyAtomically called %d times, want 1", repo.ApplyCalls)
			}
			if got := len(events.Published()); got != 1 {
				t.Errorf("published %d events, want 1", got)
			}
		})
	}
}

func TestAlarmActionProcessor_Apply_SilenceDuration(t *testing.T) {
	tests := []struct {
		name     string
		duration *int
		want     time.Duration
	}{
		{name: "default duration", duration: nil, want: 120 * time.Second},
		{name: "lower bound", duration: testutil.IntPtr(30), want: 30 * time.Second},
		{name: "upper bound", duration: testutil.IntPtr(600), want: 600 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := testutil.NewSeededAlarmRepository()
			p := newTestProcessor(repo, nil)
			actor := testutil.Nurse

			res, err := p.Apply(context.Background(), &actor, alarm.ActionRequest{
				Action:          alarm.ActionSilence,
				AlarmIDs:        []int64{1},
				SilenceDuration: tt.duration,
			})
			if err != nil {
				t.Fatalf("Apply() error = %v", err)
			}
			got := res.Alarms[0].SilencedUntil
			if got == nil || !got.Equal(processorNow.Add(tt.want)) {
				t.Errorf("SilencedUntil = %v, want %v", got, processorNow.Add(tt.want))
			}
			if res.Alarms[0].ResolvedAt != nil {
				t.Error("ResolvedAt set on silenced alarm")
			}
		})
	}
}

func TestAlarmActionProcessor_Apply_Validation(t *testing.T) {
	tests := []struct {
		name       string
		req        alarm.ActionRequest
		wantFields []string
	}{
		{
			name:       "empty alarm ids",
			req:        alarm.ActionRequest{Action: alarm.ActionResolve, AlarmIDs: []int64{}},
			wantFields: []string{"alarmIds"},
		},
		{
			name:       "missing alarm ids",
			req:        alarm.ActionRequest{Action: alarm.ActionResolve},
			wantFields: []string{"alarmIds"},
		},
		{
			name:       "non-positive id",
			req:        alarm.ActionRequest{Action: alarm.ActionAcknowledge, AlarmIDs: []int64{1, -2}},
			wantFields: []string{"alarmIds"},
		},
		{
			name:       "unknown action",
			req:        alarm.ActionRequest{Action: "escalate", AlarmIDs: []int64{1}},
			wantFields: []string{"action"},
		},
		{
			name:       "silence too short",
			req:        alarm.ActionRequest{Action: alarm.ActionSilence, AlarmIDs: []int64{1}, SilenceDuration: testutil.IntPtr(29)},
			wantFields: []string{"silenceDuration"},
		},
		{
			name:       "silence too long",
			req:        alarm.ActionRequest{Action: alarm.ActionSilence, AlarmIDs: []int64{1}, SilenceDuration: testutil.IntPtr(601)},
			wantFields: []string{"silenceDuration"},
		},
		{
			name:       "every violation is reported",
			req:        alarm.ActionRequest{Action: alarm.ActionSilence, AlarmIDs: []int64{}, SilenceDuration: testutil.IntPtr(5)},
			wantFields: []string{"alarmIds", "silenceDuration"},
		},
		{
			name: "undecodable field replaces its own violation",
			req: alarm.ActionRequest{
				Action:   "bogus",
				AlarmIDs: []int64{0},
				Malformed: []validator.ValidationError{
					{Field: "alarmIds", Tag: "type", Message: "alarmIds has the wrong type: expected int64, got string"},
				},
			},
			wantFields: []string{"action", "alarmIds"},
		},
		{
			name: "undecodable silence duration is still reported",
			req: alarm.ActionRequest{
				Action:   alarm.ActionSilence,
				AlarmIDs: []int64{1},
				Malformed: []validator.ValidationError{
					{Field: "silenceDuration", Tag: "type", Message: "silenceDuration has the wrong type: expected int, got string"},
				},
			},
			wantFields: []string{"silenceDuration"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := testutil.NewSeededAlarmRepository()
			p := newTestProcessor(repo, nil)
			actor := testutil.Nurse

			_, err := p.Apply(context.Background(), &actor, tt.req)
			if !apperrors.Is(err, apperrors.ErrCodeValidation) {
				t.Fatalf("Apply() error = %v, want VALIDATION_ERROR", err)
			}

			details, ok := apperrors.As(err).Details.([]validator.ValidationError)
			if !ok {
				t.Fatalf("details type = %T", apperrors.As(err).Details)
			}
			if len(details) != len(tt.wantFields) {
				t.Fatalf("details = %+v, want fields %v", details, tt.wantFields)
			}
			for i, f := range tt.wantFields {
				if details[i].Field != f {
					t.Errorf("detail %d field = %q, want %q", i, details[i].Field, f)
				}
			}

			if repo.ApplyCalls != 0 {
				t.Error("store was touched for an invalid batch")
			}
		})
	}
}

func TestAlarmActionProcessor_Apply_Idempotent(t *testing.T) {
	repo := testutil.NewSeededAlarmRepository()
	p := newTestProcessor(repo, nil)
	actor := testutil.Nurse
	req := alarm.ActionRequest{Action: alarm.ActionAcknowledge, AlarmIDs: []int64{1, 2}}

	for i := 0; i < 2; i++ {
		res, err := p.Apply(context.Background(), &actor, req)
		if err != nil {
			t.Fatalf("attempt %d: Apply() error = %v", i+1, err)
		}
		if res.Processed != 2 {
			t.Errorf("attempt %d: Processed = %d, want 2", i+1, res.Processed)
		}
	}
}

func TestAlarmActionProcessor_Apply_StoreFailure(t *testing.T) {
	repo := testutil.NewSeededAlarmRepository()
	repo.ApplyError = apperrors.DatabaseError("Failed to update alarms", errors.New("database is locked"))
	events := testutil.NewMockEventPublisher()
	p := newTestProcessor(repo, events)
	actor := testutil.Nurse

	_, err := p.Apply(context.Background(), &actor, alarm.ActionRequest{Action: alarm.ActionResolve, AlarmIDs: []int64{1, 2}})
	if !apperrors.Is(err, apperrors.ErrCodeDatabase) {
		t.Fatalf("Apply() error = %v, want DATABASE_ERROR", err)
	}
	if repo.ApplyCalls != 1 {
		t.Errorf("ApplyAtomically called %d times, want exactly 1 (no retry)", repo.ApplyCalls)
	}
	for _, id := range []int64{1, 2} {
		if a, _ := repo.Get(id); a.Status != alarm.StatusActive {
			t.Errorf("alarm %d status = %s after failed batch", id, a.Status)
		}
	}
	if len(events.Published()) != 0 {
		t.Error("event published for a failed batch")
	}
}

func TestAlarmActionProcessor_Apply_PublishFailureIgnored(t *testing.T) {
	repo := testutil.NewSeededAlarmRepository()
	events := testutil.NewMockEventPublisher()
	events.PublishError = errors.New("redis: connection refused")
	p := newTestProcessor(repo, events)
	actor := testutil.Nurse

	res, err := p.Apply(context.Background(), &actor, alarm.ActionRequest{Action: alarm.ActionAcknowledge, AlarmIDs: []int64{1}})
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if res.Processed != 1 {
		t.Errorf("Processed = %d, want 1", res.Processed)
	}
}

func TestAlarmActionProcessor_Apply_Unauthenticated(t *testing.T) {
	repo := testutil.NewSeededAlarmRepository()
	p := newTestProcessor(repo, nil)

	_, err := p.Apply(context.Background(), nil, alarm.ActionRequest{Action: alarm.ActionAcknowledge, AlarmIDs: []int64{1}})
	if !apperrors.Is(err, apperrors.ErrCodeAuthentication) {
		t.Errorf("Apply() error = %v, want AUTHENTICATION_ERROR", err)
	}
}

func TestAlarmActionProcessor_ExpireSilences(t *testing.T) {
	repo := testutil.NewSeededAlarmRepository()
	events := testutil.NewMockEventPublisher()
	p := newTestProcessor(repo, events)

	// silence 5 ends at t+7m
	n, err := p.ExpireSilences(context.Background(), testutil.BaseTime.Add(6*time.Minute))
	if err != nil || n != 0 {
		t.Fatalf("ExpireSilences() before expiry = %d, %v", n, err)
	}

	n, err = p.ExpireSilences(context.Background(), testutil.BaseTime.Add(7*time.Minute))
	if err != nil {
		t.Fatalf("ExpireSilences() error = %v", err)
	}
	if n != 1 {
		t.Errorf("expired = %d, want 1", n)
	}

	a, _ := repo.Get(5)
	if a.Status != alarm.StatusActive || a.SilencedUntil != nil {
		t.Errorf("alarm 5 = %s until %v, want active with no silence", a.Status, a.SilencedUntil)
	}
	if len(repo.Acknowledgments) != 0 {
		t.Error("expiry must not record acknowledgments")
	}
	if len(repo.AuditLog) != 1 || repo.AuditLog[0].UserID != 0 || repo.AuditLog[0].Action != alarm.AuditActionUnsilence {
		t.Errorf("audit log = %+v", repo.AuditLog)
	}
	if ev := events.Published(); len(ev) != 1 || ev[0].Action != alarm.AuditActionUnsilence {
		t.Errorf("events = %+v", ev)
	}
}

func TestAlarmActionProcessor_ExpireSilences_ResilencedNotReverted(t *testing.T) {
	repo := testutil.NewSeededAlarmRepository()
	ctx := context.Background()
	sweepAt := testutil.BaseTime.Add(7 * time.Minute)

	ids, _ := repo.ListExpiredSilences(ctx, sweepAt)

	// a caregiver re-silences alarm 5 between the sweep's read and its write
	later := sweepAt.Add(5 * time.Minute)
	repo.Alarms[5].SilencedUntil = &later

	updated, err := repo.ApplyAtomically(ctx, alarm.NewExpiryBatch(ids, sweepAt))
	if err != nil {
		t.Fatalf("ApplyAtomically() error = %v", err)
	}
	if len(updated) != 0 {
		t.Errorf("re-silenced alarm was reverted: %+v", updated)
	}
	if a, _ := repo.Get(5); a.Status != alarm.StatusSilenced {
		t.Errorf("alarm 5 status = %s, want silenced", a.Status)
	}
}

func TestAlarmActionProcessor_ResolvePatientAlarms(t *testing.T) {
	repo := testutil.NewSeededAlarmRepository()
	p := newTestProcessor(repo, nil)
	actor := testutil.Physician

	res, err := p.ResolvePatientAlarms(context.Background(), &actor, 2)
	if err != nil {
		t.Fatalf("ResolvePatientAlarms() error = %v", err)
	}
	if res.Processed != 3 {
		t.Errorf("Processed = %d, want 3", res.Processed)
	}
	for _, id := range []int64{3, 4, 5} {
		a, _ := repo.Get(id)
		if a.Status != alarm.StatusResolved || a.ResolvedAt == nil || a.SilencedUntil != nil {
			t.Errorf("alarm %d = %+v", id, a)
		}
	}
	for _, e := range repo.AuditLog {
		if e.Details["reason"] != alarm.ReasonDischarge {
			t.Errorf("audit details = %v", e.Details)
		}
	}

	res, err = p.ResolvePatientAlarms(context.Background(), &actor, 2)
	if err != nil || res.Processed != 0 {
		t.Errorf("second discharge = %+v, %v", res, err)
	}

	_, err = p.ResolvePatientAlarms(context.Background(), &actor, 404)
	if !apperrors.Is(err, apperrors.ErrCodeNotFound) {
		t.Errorf("unknown patient error = %v, want NOT_FOUND", err)
	}
}
