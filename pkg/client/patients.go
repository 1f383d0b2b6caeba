package client

import (
	"context"
	"fmt"
	"net/http"
)

// PatientService handles patient alarm-limit calls
type PatientService struct {
	client *Client
}

// GetAlarmLimits returns a patient's alarm limits
func (s *PatientService) GetAlarmLimits(ctx context.Context, patientID int64) (*PatientAlarmLimits, error) {
	var limits PatientAlarmLimits
	path := fmt.Sprintf("/api/v1/patients/%d/alarm-limits", patientID)
	if _, err := s.client.doRequest(ctx, http.MethodGet, path, nil, &limits, nil); err != nil {
		return nil, err
	}
	return &limits, nil
}

// UpdateAlarmLimits replaces a patient's alarm limits
func (s *PatientService) UpdateAlarmLimits(ctx context.Context, patientID int64, limits AlarmLimits) (*PatientAlarmLimits, error) {
	var updated PatientAlarmLimits
	path := fmt.Sprintf("/api/v1/patients/%d/alarm-limits", patientID)
	body := map[string]AlarmLimits{"alarmLimits": limits}
	if _, err := s.client.doRequest(ctx, http.MethodPut, path, body, &updated, nil); err != nil {
		return nil, err
	}
	return &updated, nil
}
