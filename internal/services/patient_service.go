package services

import (
	"context"
	"sort"
	"time"

	"github.com/nicuwatch/nicudash/internal/domain/alarm"
	"github.com/nicuwatch/nicudash/internal/domain/patient"
	"github.com/nicuwatch/nicudash/internal/pkg/errors"
	"github.com/nicuwatch/nicudash/internal/pkg/logger"
)

// PatientService implements patient.Service
type PatientService struct {
	repo   patient.Repository
	logger *logger.Logger
}

// NewPatientService creates a new patient service
func NewPatientService(repo patient.Repository, log *logger.Logger) patient.Service {
	return &PatientService{
		repo:   repo,
		logger: log,
	}
}

// GetAlarmLimits returns a patient's alarm limits
func (s *PatientService) GetAlarmLimits(ctx context.Context, actor *alarm.Actor, patientID int64) (patient.AlarmLimits, error) {
	if actor == nil {
		return nil, errors.Unauthenticated("Authentication required")
	}
	return s.repo.GetAlarmLimits(ctx, patientID)
}

// UpdateAlarmLimits rejects any tuple outside its plausible envelope, then stores the limits with an audit entry
func (s *PatientService) UpdateAlarmLimits(ctx context.Context, actor *alarm.Actor, patientID int64, limits patient.AlarmLimits) error {
	if actor == nil {
		return errors.Unauthenticated("Authentication required")
	}
	if violations := patient.ValidateAlarmLimits(limits); len(violations) > 0 {
		return errors.ValidationError("Invalid alarm limits", violations)
	}

	params := make([]string, 0, len(limits))
	for p := range limits {
		params = append(params, p)
	}
	sort.Strings(params)

	audit := alarm.AuditEntry{
		UserID:     actor.UserID,
		Action:     patient.AuditActionUpdateLimits,
		Resource:   patient.Resource,
		ResourceID: patientID,
		Details:    map[string]interface{}{"parameters": params},
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.repo.UpdateAlarmLimits(ctx, patientID, limits, audit); err != nil {
		s.logger.With("patient_id", patientID).ErrorWithErr(err, "Failed to update alarm limits")
		return err
	}

	s.logger.WithFields(map[string]interface{}{
		"patient_id": patientID,
		"user_id":    actor.UserID,
	}).Info("Alarm limits updated")
	return nil
}
