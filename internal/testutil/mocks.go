package testutil

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/nicuwatch/nicudash/internal/domain/alarm"
	"github.com/nicuwatch/nicudash/internal/domain/patient"
	"github.com/nicuwatch/nicudash/internal/pkg/errors"
)

// MockAlarmRepository is an in-memory implementation of alarm.Repository
type MockAlarmRepository struct {
	mu sync.Mutex

	Alarms          map[int64]*alarm.Alarm
	Patients        map[int64]string
	Beds            map[int64]string // patient id to bed label
	Users           map[int64]string
	Acknowledgments []alarm.Acknowledgment
	AuditLog        []alarm.AuditEntry

	NextID      int64
	ListError   error
	CountError  error
	ApplyError  error
	ApplyCalls  int
	LastBatch   *alarm.Batch
	nextAckID   int64
	nextAuditID int64
}

func NewMockAlarmRepository() *MockAlarmRepository {
	return &MockAlarmRepository{
		Alarms:   make(map[int64]*alarm.Alarm),
		Patients: make(map[int64]string),
		Beds:     make(map[int64]string),
		Users:    make(map[int64]string),
		NextID:   1,
	}
}

// AddPatient registers a patient with an optional bed label
func (m *MockAlarmRepository) AddPatient(id int64, name, bed string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Patients[id] = name
	if bed != "" {
		m.Beds[id] = bed
	}
}

// AddAlarm stores a copy of a and returns its id
func (m *MockAlarmRepository) AddAlarm(a alarm.Alarm) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a.ID == 0 {
		a.ID = m.NextID
	}
	if a.ID >= m.NextID {
		m.NextID = a.ID + 1
	}
	if a.Status == "" {
		a.Status = alarm.StatusActive
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = a.TriggeredAt
	}
	m.Alarms[a.ID] = &a
	return a.ID
}

// Get returns a copy of the stored alarm
func (m *MockAlarmRepository) Get(id int64) (alarm.Alarm, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.Alarms[id]
	if !ok {
		return alarm.Alarm{}, false
	}
	return *a, true
}

func (m *MockAlarmRepository) matches(a *alarm.Alarm, status alarm.Status, typ alarm.Type) bool {
	if status != alarm.StatusAll && a.Status != status {
		return false
	}
	return typ == "" || a.Type == typ
}

func (m *MockAlarmRepository) List(ctx context.Context, q alarm.ListQuery) ([]*alarm.FeedItem, int64, error) {
	if m.ListError != nil {
		return nil, 0, m.ListError
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	var rows []*alarm.Alarm
	for _, a := range m.Alarms {
		if m.matches(a, q.Status, q.Type) {
			rows = append(rows, a)
		}
	}
	sort.Slice(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.Type.Rank() != b.Type.Rank() {
			return a.Type.Rank() < b.Type.Rank()
		}
		if !a.TriggeredAt.Equal(b.TriggeredAt) {
			return a.TriggeredAt.After(b.TriggeredAt)
		}
		return a.ID > b.ID
	})

	total := int64(len(rows))
	start := q.Offset()
	if start > len(rows) {
		start = len(rows)
	}
	end := start + q.Limit
	if end > len(rows) {
		end = len(rows)
	}

	items := make([]*alarm.FeedItem, 0, end-start)
	for _, a := range rows[start:end] {
		bed, ok := m.Beds[a.PatientID]
		if !ok {
			bed = "--"
		}
		items = append(items, &alarm.FeedItem{
			ID:             a.ID,
			PatientID:      a.PatientID,
			PatientName:    m.Patients[a.PatientID],
			BedLabel:       bed,
			Type:           a.Type,
			Parameter:      a.Parameter,
			Value:          a.Value,
			Threshold:      a.Threshold,
			Message:        a.Message,
			Status:         a.Status,
			TriggeredAt:    a.TriggeredAt,
			AcknowledgedBy: m.latestAcknowledger(a.ID),
		})
	}
	return items, total, nil
}

func (m *MockAlarmRepository) latestAcknowledger(alarmID int64) string {
	var latest *alarm.Acknowledgment
	for i := range m.Acknowledgments {
		k := &m.Acknowledgments[i]
		if k.AlarmID != alarmID {
			continue
		}
		if latest == nil || k.CreatedAt.After(latest.CreatedAt) ||
			(k.CreatedAt.Equal(latest.CreatedAt) && k.ID > latest.ID) {
			latest = k
		}
	}
	if latest == nil {
		return ""
	}
	return m.Users[latest.UserID]
}

func (m *MockAlarmRepository) CountByType(ctx context.Context, status alarm.Status) (map[alarm.Type]int, error) {
	if m.CountError != nil {
		return nil, m.CountError
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	counts := make(map[alarm.Type]int)
	for _, a := range m.Alarms {
		if m.matches(a, status, "") {
			counts[a.Type]++
		}
	}
	return counts, nil
}

// ApplyAtomically applies the batch under one lock. An injected ApplyError leaves every alarm untouched.
func (m *MockAlarmRepository) ApplyAtomically(ctx context.Context, batch *alarm.Batch) ([]*alarm.Alarm, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ApplyCalls++
	m.LastBatch = batch

	if m.ApplyError != nil {
		return nil, m.ApplyError
	}

	from := make(map[alarm.Status]bool, len(batch.From))
	for _, s := range batch.From {
		from[s] = true
	}

	var updated []*alarm.Alarm
	for _, id := range batch.AlarmIDs {
		a, ok := m.Alarms[id]
		if !ok || !from[a.Status] {
			continue
		}
		if batch.SilencedBefore != nil && (a.SilencedUntil == nil || a.SilencedUntil.After(*batch.SilencedBefore)) {
			continue
		}
		a.Status = batch.Update.Status
		a.SilencedUntil = copyTime(batch.Update.SilencedUntil)
		a.ResolvedAt = copyTime(batch.Update.ResolvedAt)
		cp := *a
		updated = append(updated, &cp)
	}
	sort.Slice(updated, func(i, j int) bool { return updated[i].ID < updated[j].ID })

	for _, a := range updated {
		if batch.Acknowledge != nil {
			m.nextAckID++
			m.Acknowledgments = append(m.Acknowledgments, alarm.Acknowledgment{
				ID:        m.nextAckID,
				AlarmID:   a.ID,
				UserID:    batch.Actor.UserID,
				Action:    string(*batch.Acknowledge),
				CreatedAt: batch.At,
			})
		}
		m.nextAuditID++
		entry := batch.Audit.Entry(batch.Actor.UserID, a.ID, batch.At)
		entry.ID = m.nextAuditID
		m.AuditLog = append(m.AuditLog, entry)
	}

	if updated == nil {
		updated = []*alarm.Alarm{}
	}
	return updated, nil
}

func (m *MockAlarmRepository) ListExpiredSilences(ctx context.Context, now time.Time) ([]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var ids []int64
	for _, a := range m.Alarms {
		if a.Status == alarm.StatusSilenced && a.SilencedUntil != nil && !a.SilencedUntil.After(now) {
			ids = append(ids, a.ID)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (m *MockAlarmRepository) ListOpenIDsByPatient(ctx context.Context, patientID int64) ([]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.Patients[patientID]; !ok {
		return nil, errors.NotFound("Patient")
	}
	var ids []int64
	for _, a := range m.Alarms {
		if a.PatientID == patientID && a.Status != alarm.StatusResolved {
			ids = append(ids, a.ID)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}

// MockPatientRepository is an in-memory implementation of patient.Repository
type MockPatientRepository struct {
	mu          sync.Mutex
	Limits      map[int64]patient.AlarmLimits
	AuditLog    []alarm.AuditEntry
	UpdateError error
}

func NewMockPatientRepository() *MockPatientRepository {
	return &MockPatientRepository{Limits: make(map[int64]patient.AlarmLimits)}
}

func (m *MockPatientRepository) GetAlarmLimits(ctx context.Context, patientID int64) (patient.AlarmLimits, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	limits, ok := m.Limits[patientID]
	if !ok {
		return nil, errors.NotFound("Patient")
	}
	return limits, nil
}

func (m *MockPatientRepository) UpdateAlarmLimits(ctx context.Context, patientID int64, limits patient.AlarmLimits, audit alarm.AuditEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.UpdateError != nil {
		return m.UpdateError
	}
	if _, ok := m.Limits[patientID]; !ok {
		return errors.NotFound("Patient")
	}
	m.Limits[patientID] = limits
	m.AuditLog = append(m.AuditLog, audit)
	return nil
}

// MockEventPublisher records published events
type MockEventPublisher struct {
	mu           sync.Mutex
	Events       []alarm.ActionEvent
	PublishError error
}

func NewMockEventPublisher() *MockEventPublisher {
	return &MockEventPublisher{}
}

func (m *MockEventPublisher) Publish(ctx context.Context, event alarm.ActionEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.PublishError != nil {
		return m.PublishError
	}
	m.Events = append(m.Events, event)
	return nil
}

// Published returns a copy of the recorded events
func (m *MockEventPublisher) Published() []alarm.ActionEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]alarm.ActionEvent(nil), m.Events...)
}
