package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/nicuwatch/nicudash/internal/domain/alarm"
	"github.com/nicuwatch/nicudash/internal/pkg/errors"
)

const noBedLabel = "--"

const alarmColumns = `id, patient_id, type, parameter, value, threshold, message, status,
	triggered_at, resolved_at, silenced_until, created_at`

type AlarmRepository struct {
	db     *sql.DB
	driver string
}

func NewAlarmRepository(db *sql.DB, driver string) alarm.Repository {
	return &AlarmRepository{db: db, driver: driver}
}

func (r *AlarmRepository) List(ctx context.Context, q alarm.ListQuery) ([]*alarm.FeedItem, int64, error) {
	where, args := feedFilter(q)

	var total int64
	countQuery := "SELECT COUNT(*) FROM alarms a" + where
	if err := r.db.QueryRowContext(ctx, rebind(r.driver, countQuery), args...).Scan(&total); err != nil {
		return nil, 0, errors.DatabaseError("Failed to count alarms", err)
	}

	query := `
		SELECT a.id, a.patient_id, p.name, b.label, a.type, a.parameter, a.value, a.threshold,
			a.message, a.status, a.triggered_at,
			(SELECT u.name FROM alarm_acknowledgments k
				JOIN users u ON u.id = k.user_id
				WHERE k.alarm_id = a.id
				ORDER BY k.created_at DESC, k.id DESC
				LIMIT 1) AS acknowledged_by
		FROM alarms a
		JOIN patients p ON p.id = a.patient_id
		LEFT JOIN beds b ON b.id = p.bed_id` + where + `
		ORDER BY CASE a.type WHEN 'critical' THEN 0 WHEN 'warning' THEN 1 ELSE 2 END,
			a.triggered_at DESC, a.id DESC
		LIMIT ? OFFSET ?`

	rows, err := r.db.QueryContext(ctx, rebind(r.driver, query), append(args, q.Limit, q.Offset())...)
	if err != nil {
		return nil, 0, errors.DatabaseError("Failed to list alarms", err)
	}
	defer rows.Close()

	items := make([]*alarm.FeedItem, 0, q.Limit)
	for rows.Next() {
		var it alarm.FeedItem
		var bed, ackBy sql.NullString
		var triggeredAt string
		if err := rows.Scan(
			&it.ID, &it.PatientID, &it.PatientName, &bed, &it.Type, &it.Parameter, &it.Value, &it.Threshold,
			&it.Message, &it.Status, &triggeredAt, &ackBy,
		); err != nil {
			return nil, 0, errors.DatabaseError("Failed to scan alarm", err)
		}
		it.BedLabel = noBedLabel
		if bed.Valid && bed.String != "" {
			it.BedLabel = bed.String
		}
		it.AcknowledgedBy = ackBy.String
		it.TriggeredAt = parseTime(triggeredAt)
		items = append(items, &it)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, errors.DatabaseError("Failed to list alarms", err)
	}

	return items, total, nil
}

func feedFilter(q alarm.ListQuery) (string, []interface{}) {
	var conds []string
	var args []interface{}
	if !q.AllStatuses() {
		conds = append(conds, "a.status = ?")
		args = append(args, string(q.Status))
	}
	if q.Type != "" {
		conds = append(conds, "a.type = ?")
		args = append(args, string(q.Type))
	}
	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func (r *AlarmRepository) CountByType(ctx context.Context, status alarm.Status) (map[alarm.Type]int, error) {
	query := "SELECT type, COUNT(*) FROM alarms"
	var args []interface{}
	if status != alarm.StatusAll {
		query += " WHERE status = ?"
		args = append(args, string(status))
	}
	query += " GROUP BY type"

	rows, err := r.db.QueryContext(ctx, rebind(r.driver, query), args...)
	if err != nil {
		return nil, errors.DatabaseError("Failed to count alarms by type", err)
	}
	defer rows.Close()

	counts := make(map[alarm.Type]int, len(alarm.Types))
	for rows.Next() {
		var t alarm.Type
		var n int
		if err := rows.Scan(&t, &n); err != nil {
			return nil, errors.DatabaseError("Failed to scan alarm count", err)
		}
		counts[t] = n
	}
	if err := rows.Err(); err != nil {
		return nil, errors.DatabaseError("Failed to count alarms by type", err)
	}
	return counts, nil
}

// ApplyAtomically runs the status update and its satellite inserts in one transaction.
func (r *AlarmRepository) ApplyAtomically(ctx context.Context, batch *alarm.Batch) ([]*alarm.Alarm, error) {
	if len(batch.AlarmIDs) == 0 || len(batch.From) == 0 {
		return []*alarm.Alarm{}, nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, errors.DatabaseError("Failed to begin alarm transaction", err)
	}
	defer tx.Rollback()

	updated, err := r.updateStatus(ctx, tx, batch)
	if err != nil {
		return nil, err
	}
	if len(updated) == 0 {
		if err := tx.Commit(); err != nil {
			return nil, errors.DatabaseError("Failed to commit alarm transaction", err)
		}
		return updated, nil
	}

	if batch.Acknowledge != nil {
		if err := r.insertAcknowledgments(ctx, tx, batch, updated); err != nil {
			return nil, err
		}
	}
	if err := r.insertAuditEntries(ctx, tx, batch, updated); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, errors.DatabaseError("Failed to commit alarm transaction", err)
	}
	return updated, nil
}

func (r *AlarmRepository) updateStatus(ctx context.Context, tx *sql.Tx, batch *alarm.Batch) ([]*alarm.Alarm, error) {
	query := fmt.Sprintf(`
		UPDATE alarms SET status = ?, silenced_until = ?, resolved_at = ?
		WHERE id IN (%s) AND status IN (%s)`,
		placeholders(len(batch.AlarmIDs)), placeholders(len(batch.From)))

	args := make([]interface{}, 0, 4+len(batch.AlarmIDs)+len(batch.From))
	args = append(args, string(batch.Update.Status), nullTime(batch.Update.SilencedUntil), nullTime(batch.Update.ResolvedAt))
	for _, id := range batch.AlarmIDs {
		args = append(args, id)
	}
	for _, s := range batch.From {
		args = append(args, string(s))
	}
	if batch.SilencedBefore != nil {
		query += " AND silenced_until IS NOT NULL AND silenced_until <= ?"
		args = append(args, formatTime(*batch.SilencedBefore))
	}
	query += " RETURNING " + alarmColumns

	rows, err := tx.QueryContext(ctx, rebind(r.driver, query), args...)
	if err != nil {
		return nil, errors.DatabaseError("Failed to update alarms", err)
	}
	defer rows.Close()

	updated := make([]*alarm.Alarm, 0, len(batch.AlarmIDs))
	for rows.Next() {
		a, err := scanAlarm(rows)
		if err != nil {
			return nil, errors.DatabaseError("Failed to scan updated alarm", err)
		}
		updated = append(updated, a)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.DatabaseError("Failed to update alarms", err)
	}

	sort.Slice(updated, func(i, j int) bool { return updated[i].ID < updated[j].ID })
	return updated, nil
}

func (r *AlarmRepository) insertAcknowledgments(ctx context.Context, tx *sql.Tx, batch *alarm.Batch, updated []*alarm.Alarm) error {
	values := make([]string, 0, len(updated))
	args := make([]interface{}, 0, 4*len(updated))
	at := formatTime(batch.At)
	for _, a := range updated {
		values = append(values, "(?, ?, ?, ?)")
		args = append(args, a.ID, batch.Actor.UserID, string(*batch.Acknowledge), at)
	}

	query := "INSERT INTO alarm_acknowledgments (alarm_id, user_id, action, created_at) VALUES " +
		strings.Join(values, ", ")
	if _, err := tx.ExecContext(ctx, rebind(r.driver, query), args...); err != nil {
		return errors.DatabaseError("Failed to record acknowledgments", err)
	}
	return nil
}

func (r *AlarmRepository) insertAuditEntries(ctx context.Context, tx *sql.Tx, batch *alarm.Batch, updated []*alarm.Alarm) error {
	values := make([]string, 0, len(updated))
	args := make([]interface{}, 0, 6*len(updated))
	for _, a := range updated {
		entry := batch.Audit.Entry(batch.Actor.UserID, a.ID, batch.At)
		details, err := marshalDetails(entry.Details)
		if err != nil {
			return errors.Internal("Failed to encode audit details", err)
		}
		values = append(values, "(?, ?, ?, ?, ?, ?)")
		args = append(args, entry.UserID, entry.Action, entry.Resource, entry.ResourceID, details, formatTime(entry.CreatedAt))
	}

	query := "INSERT INTO audit_logs (user_id, action, resource, resource_id, details, created_at) VALUES " +
		strings.Join(values, ", ")
	if _, err := tx.ExecContext(ctx, rebind(r.driver, query), args...); err != nil {
		return errors.DatabaseError("Failed to write audit log", err)
	}
	return nil
}

func (r *AlarmRepository) ListExpiredSilences(ctx context.Context, now time.Time) ([]int64, error) {
	query := `
		SELECT id FROM alarms
		WHERE status = ? AND silenced_until IS NOT NULL AND silenced_until <= ?
		ORDER BY id`
	return r.queryIDs(ctx, query, string(alarm.StatusSilenced), formatTime(now))
}

func (r *AlarmRepository) ListOpenIDsByPatient(ctx context.Context, patientID int64) ([]int64, error) {
	var exists int
	err := r.db.QueryRowContext(ctx, rebind(r.driver, "SELECT 1 FROM patients WHERE id = ?"), patientID).Scan(&exists)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("Patient")
	}
	if err != nil {
		return nil, errors.DatabaseError("Failed to get patient", err)
	}

	query := "SELECT id FROM alarms WHERE patient_id = ? AND status <> ? ORDER BY id"
	return r.queryIDs(ctx, query, patientID, string(alarm.StatusResolved))
}

func (r *AlarmRepository) queryIDs(ctx context.Context, query string, args ...interface{}) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx, rebind(r.driver, query), args...)
	if err != nil {
		return nil, errors.DatabaseError("Failed to list alarm ids", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, errors.DatabaseError("Failed to scan alarm id", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.DatabaseError("Failed to list alarm ids", err)
	}
	return ids, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanAlarm(row rowScanner) (*alarm.Alarm, error) {
	var a alarm.Alarm
	var triggeredAt, createdAt string
	var resolvedAt, silencedUntil sql.NullString
	if err := row.Scan(
		&a.ID, &a.PatientID, &a.Type, &a.Parameter, &a.Value, &a.Threshold, &a.Message, &a.Status,
		&triggeredAt, &resolvedAt, &silencedUntil, &createdAt,
	); err != nil {
		return nil, err
	}
	a.TriggeredAt = parseTime(triggeredAt)
	a.CreatedAt = parseTime(createdAt)
	a.ResolvedAt = parseNullTime(resolvedAt)
	a.SilencedUntil = parseNullTime(silencedUntil)
	return &a, nil
}

func marshalDetails(details map[string]interface{}) (string, error) {
	if len(details) == 0 {
		return "{}", nil
	}
	b, err := json.Marshal(details)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
