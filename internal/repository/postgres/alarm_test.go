package postgres

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/nicuwatch/nicudash/internal/domain/alarm"
	apperrors "github.com/nicuwatch/nicudash/internal/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var alarmRowColumns = []string{
	"id", "patient_id", "type", "parameter", "value", "threshold", "message", "status",
	"triggered_at", "resolved_at", "silenced_until", "created_at",
}

func setupMockAlarmDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock, alarm.Repository) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	return db, mock, NewAlarmRepository(db, DriverSQLite)
}

func TestAlarmRepository_List(t *testing.T) {
	db, mock, repo := setupMockAlarmDB(t)
	defer db.Close()

	q := alarm.ListQuery{Status: alarm.StatusActive, Type: alarm.TypeCritical, Page: 2, Limit: 10}

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM alarms a WHERE a.status = \? AND a.type = \?`).
		WithArgs("active", "critical").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(12))

	rows := sqlmock.NewRows([]string{
		"id", "patient_id", "name", "label", "type", "parameter", "value", "threshold",
		"message", "status", "triggered_at", "acknowledged_by",
	}).
		AddRow(11, 3, "Baby Lee", "B-04", "critical", "spo2", 82.0, 88.0, "SpO2 low", "active", "2026-03-01T08:00:00.000000Z", "Nurse Joy").
		AddRow(12, 4, "Baby Kim", nil, "critical", "hr", 210.0, 200.0, "HR high", "active", "2026-03-01T07:00:00.000000Z", nil)

	mock.ExpectQuery(`ORDER BY CASE a.type WHEN 'critical' THEN 0 WHEN 'warning' THEN 1 ELSE 2 END`).
		WithArgs("active", "critical", 10, 10).
		WillReturnRows(rows)

	items, total, err := repo.List(context.Background(), q)
	require.NoError(t, err)
	assert.Equal(t, int64(12), total)
	require.Len(t, items, 2)

	assert.Equal(t, "B-04", items[0].BedLabel)
	assert.Equal(t, "Nurse Joy", items[0].AcknowledgedBy)
	assert.Equal(t, "--", items[1].BedLabel)
	assert.Empty(t, items[1].AcknowledgedBy)
	assert.Equal(t, time.Date(2026, 3, 1, 7, 0, 0, 0, time.UTC), items[1].TriggeredAt)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAlarmRepository_List_AllStatuses(t *testing.T) {
	db, mock, repo := setupMockAlarmDB(t)
	defer db.Close()

	q := alarm.ListQuery{Status: alarm.StatusAll, Page: 1, Limit: 50}

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM alarms a$`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery(`LIMIT \? OFFSET \?`).
		WithArgs(50, 0).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	items, total, err := repo.List(context.Background(), q)
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, items)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAlarmRepository_CountByType(t *testing.T) {
	db, mock, repo := setupMockAlarmDB(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT type, COUNT\(\*\) FROM alarms WHERE status = \? GROUP BY type`).
		WithArgs("acknowledged").
		WillReturnRows(sqlmock.NewRows([]string{"type", "count"}).
			AddRow("critical", 4).
			AddRow("advisory", 1))

	counts, err := repo.CountByType(context.Background(), alarm.StatusAcknowledged)
	require.NoError(t, err)
	assert.Equal(t, 4, counts[alarm.TypeCritical])
	assert.Equal(t, 0, counts[alarm.TypeWarning])
	assert.Equal(t, 1, counts[alarm.TypeAdvisory])

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAlarmRepository_ApplyAtomically(t *testing.T) {
	db, mock, repo := setupMockAlarmDB(t)
	defer db.Close()

	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	actor := alarm.Actor{UserID: 7, Name: "Nurse Joy", Role: "nurse"}
	batch := alarm.NewActionBatch(actor, alarm.ActionAcknowledge, []int64{1, 2, 999}, 0, now)

	mock.ExpectBegin()
	mock.ExpectQuery(`UPDATE alarms SET status = \?, silenced_until = \?, resolved_at = \?\s+WHERE id IN \(\?, \?, \?\) AND status IN \(\?, \?, \?\) RETURNING`).
		WithArgs("acknowledged", nil, nil, int64(1), int64(2), int64(999), "active", "acknowledged", "silenced").
		WillReturnRows(sqlmock.NewRows(alarmRowColumns).
			AddRow(2, 5, "warning", "hr", 190.0, 180.0, "HR high", "acknowledged", "2026-03-01T08:00:00.000000Z", nil, nil, "2026-03-01T08:00:00.000000Z").
			AddRow(1, 5, "critical", "spo2", 80.0, 88.0, "SpO2 low", "acknowledged", "2026-03-01T08:10:00.000000Z", nil, nil, "2026-03-01T08:10:00.000000Z"))
	mock.ExpectExec(`INSERT INTO alarm_acknowledgments \(alarm_id, user_id, action, created_at\) VALUES \(\?, \?, \?, \?\), \(\?, \?, \?, \?\)`).
		WithArgs(int64(1), int64(7), "acknowledge", sqlmock.AnyArg(), int64(2), int64(7), "acknowledge", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(`INSERT INTO audit_logs`).
		WithArgs(
			int64(7), "acknowledge", "alarm", int64(1), sqlmock.AnyArg(), sqlmock.AnyArg(),
			int64(7), "acknowledge", "alarm", int64(2), sqlmock.AnyArg(), sqlmock.AnyArg(),
		).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	updated, err := repo.ApplyAtomically(context.Background(), batch)
	require.NoError(t, err)
	require.Len(t, updated, 2)
	assert.Equal(t, int64(1), updated[0].ID)
	assert.Equal(t, int64(2), updated[1].ID)
	assert.Equal(t, alarm.StatusAcknowledged, updated[0].Status)
	assert.Nil(t, updated[0].SilencedUntil)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAlarmRepository_ApplyAtomically_RollsBackOnAuditFailure(t *testing.T) {
	db, mock, repo := setupMockAlarmDB(t)
	defer db.Close()

	now := time.Now().UTC()
	batch := alarm.NewActionBatch(alarm.Actor{UserID: 3, Role: "physician"}, alarm.ActionResolve, []int64{4}, 0, now)

	mock.ExpectBegin()
	mock.ExpectQuery(`UPDATE alarms SET`).
		WillReturnRows(sqlmock.NewRows(alarmRowColumns).
			AddRow(4, 1, "advisory", "temp", 37.9, 37.5, "Temp high", "resolved", "2026-03-01T08:00:00.000000Z", "2026-03-01T09:00:00.000000Z", nil, "2026-03-01T08:00:00.000000Z"))
	mock.ExpectExec(`INSERT INTO alarm_acknowledgments`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO audit_logs`).
		WillReturnError(errors.New("disk I/O error"))
	mock.ExpectRollback()

	updated, err := repo.ApplyAtomically(context.Background(), batch)
	require.Error(t, err)
	assert.Nil(t, updated)
	assert.True(t, apperrors.Is(err, apperrors.ErrCodeDatabase))

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAlarmRepository_ApplyAtomically_NothingUpdatable(t *testing.T) {
	db, mock, repo := setupMockAlarmDB(t)
	defer db.Close()

	batch := alarm.NewActionBatch(alarm.Actor{UserID: 3}, alarm.ActionSilence, []int64{999}, 120, time.Now())

	mock.ExpectBegin()
	mock.ExpectQuery(`UPDATE alarms SET`).
		WillReturnRows(sqlmock.NewRows(alarmRowColumns))
	mock.ExpectCommit()

	updated, err := repo.ApplyAtomically(context.Background(), batch)
	require.NoError(t, err)
	assert.Empty(t, updated)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAlarmRepository_ApplyAtomically_SilenceExpiryGuard(t *testing.T) {
	db, mock, repo := setupMockAlarmDB(t)
	defer db.Close()

	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	batch := &alarm.Batch{
		AlarmIDs:       []int64{8},
		From:           []alarm.Status{alarm.StatusSilenced},
		Update:         alarm.StatusUpdate{Status: alarm.StatusActive},
		SilencedBefore: &now,
		Actor:          alarm.SystemActor,
		Audit:          alarm.AuditTemplate{Action: "unsilence"},
		At:             now,
	}

	mock.ExpectBegin()
	mock.ExpectQuery(`AND silenced_until IS NOT NULL AND silenced_until <= \? RETURNING`).
		WithArgs("active", nil, nil, int64(8), "silenced", "2026-03-01T09:00:00.000000Z").
		WillReturnRows(sqlmock.NewRows(alarmRowColumns).
			AddRow(8, 2, "warning", "rr", 70.0, 60.0, "RR high", "active", "2026-03-01T08:00:00.000000Z", nil, nil, "2026-03-01T08:00:00.000000Z"))
	mock.ExpectExec(`INSERT INTO audit_logs`).
		WithArgs(int64(0), "unsilence", "alarm", int64(8), "{}", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	updated, err := repo.ApplyAtomically(context.Background(), batch)
	require.NoError(t, err)
	require.Len(t, updated, 1)
	assert.Equal(t, alarm.StatusActive, updated[0].Status)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAlarmRepository_ListOpenIDsByPatient(t *testing.T) {
	db, mock, repo := setupMockAlarmDB(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT 1 FROM patients WHERE id = \?`).
		WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))
	mock.ExpectQuery(`SELECT id FROM alarms WHERE patient_id = \? AND status <> \?`).
		WithArgs(int64(5), "resolved").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(3).AddRow(9))

	ids, err := repo.ListOpenIDsByPatient(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, []int64{3, 9}, ids)

	mock.ExpectQuery(`SELECT 1 FROM patients WHERE id = \?`).
		WithArgs(int64(404)).
		WillReturnError(sql.ErrNoRows)

	_, err = repo.ListOpenIDsByPatient(context.Background(), 404)
	assert.True(t, apperrors.Is(err, apperrors.ErrCodeNotFound))

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAlarmRepository_ListExpiredSilences(t *testing.T) {
	db, mock, repo := setupMockAlarmDB(t)
	defer db.Close()

	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`SELECT id FROM alarms\s+WHERE status = \? AND silenced_until IS NOT NULL AND silenced_until <= \?`).
		WithArgs("silenced", "2026-03-01T09:00:00.000000Z").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(8))

	ids, err := repo.ListExpiredSilences(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, []int64{8}, ids)

	require.NoError(t, mock.ExpectationsWereMet())
}
