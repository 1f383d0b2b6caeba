package postgres

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/nicuwatch/nicudash/internal/domain/alarm"
	"github.com/nicuwatch/nicudash/internal/domain/patient"
	"github.com/nicuwatch/nicudash/internal/pkg/errors"
)

type PatientRepository struct {
	db     *sql.DB
	driver string
}

func NewPatientRepository(db *sql.DB, driver string) patient.Repository {
	return &PatientRepository{db: db, driver: driver}
}

func (r *PatientRepository) GetAlarmLimits(ctx context.Context, patientID int64) (patient.AlarmLimits, error) {
	var raw sql.NullString
	err := r.db.QueryRowContext(ctx, rebind(r.driver, "SELECT alarm_limits FROM patients WHERE id = ?"), patientID).Scan(&raw)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("Patient")
	}
	if err != nil {
		return nil, errors.DatabaseError("Failed to get alarm limits", err)
	}

	limits := patient.AlarmLimits{}
	if raw.Valid && raw.String != "" {
		if err := json.Unmarshal([]byte(raw.String), &limits); err != nil {
			return nil, errors.Internal("Stored alarm limits are corrupt", err)
		}
	}
	return limits, nil
}

func (r *PatientRepository) UpdateAlarmLimits(ctx context.Context, patientID int64, limits patient.AlarmLimits, audit alarm.AuditEntry) error {
	encoded, err := json.Marshal(limits)
	if err != nil {
		return errors.Internal("Failed to encode alarm limits", err)
	}
	details, err := marshalDetails(audit.Details)
	if err != nil {
		return errors.Internal("Failed to encode audit details", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.DatabaseError("Failed to begin transaction", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		rebind(r.driver, "UPDATE patients SET alarm_limits = ?, updated_at = ? WHERE id = ?"),
		string(encoded), formatTime(audit.CreatedAt), patientID,
	)
	if err != nil {
		return errors.DatabaseError("Failed to update alarm limits", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return errors.DatabaseError("Failed to check affected rows", err)
	}
	if rows == 0 {
		return errors.NotFound("Patient")
	}

	if _, err := tx.ExecContext(ctx,
		rebind(r.driver, "INSERT INTO audit_logs (user_id, action, resource, resource_id, details, created_at) VALUES (?, ?, ?, ?, ?, ?)"),
		audit.UserID, audit.Action, audit.Resource, audit.ResourceID, details, formatTime(audit.CreatedAt),
	); err != nil {
		return errors.DatabaseError("Failed to write audit log", err)
	}

	if err := tx.Commit(); err != nil {
		return errors.DatabaseError("Failed to commit alarm limits", err)
	}
	return nil
}
