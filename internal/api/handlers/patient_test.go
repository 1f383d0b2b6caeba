package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/nicuwatch/nicudash/internal/domain/patient"
	"github.com/nicuwatch/nicudash/internal/pkg/logger"
	"github.com/nicuwatch/nicudash/internal/services"
	"github.com/nicuwatch/nicudash/internal/testutil"
)

func newPatientHandler() (*PatientHandler, *testutil.MockPatientRepository) {
	repo := testutil.NewMockPatientRepository()
	repo.Limits[1] = patient.AlarmLimits{"hr": {100, 180}}
	log := logger.Nop()
	return NewPatientHandler(services.NewPatientService(repo, log), log), repo
}

func TestPatientHandler_GetAlarmLimits(t *testing.T) {
	handler, _ := newPatientHandler()

	req := withPatientID(withActor(httptest.NewRequest(http.MethodGet, "/api/v1/patients/1/alarm-limits", nil), testutil.Nurse), "1")
	rr := httptest.NewRecorder()
	handler.GetAlarmLimits(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rr.Code, rr.Body.String())
	}
	if got := string(decodeEnvelope(t, rr).Data); got != `{"patientId":1,"alarmLimits":{"hr":[100,180]}}` {
		t.Errorf("data = %s", got)
	}

	req = withPatientID(withActor(httptest.NewRequest(http.MethodGet, "/api/v1/patients/9/alarm-limits", nil), testutil.Nurse), "9")
	rr = httptest.NewRecorder()
	handler.GetAlarmLimits(rr, req)
	if rr.Code != http.StatusNotFound {
		t.Errorf("unknown patient status = %d, want 404", rr.Code)
	}
}

func TestPatientHandler_UpdateAlarmLimits(t *testing.T) {
	tests := []struct {
		name           string
		patientID      string
		body           string
		expectedStatus int
		expectedFields []string
	}{
		{
			name:           "valid limits",
			patientID:      "1",
			body:           `{"alarmLimits":{"hr":[90,190],"spo2":[88,100]}}`,
			expectedStatus: http.StatusOK,
		},
		{
			name:           "every violation is reported",
			patientID:      "1",
			body:           `{"alarmLimits":{"hr":[-5,190],"spo2":[95,90],"glucose":[1,2]}}`,
			expectedStatus: http.StatusBadRequest,
			expectedFields: []string{"glucose", "hr.0", "spo2"},
		},
		{
			name:           "missing limits",
			patientID:      "1",
			body:           `{}`,
			expectedStatus: http.StatusBadRequest,
			expectedFields: []string{"alarmLimits"},
		},
		{
			name:           "non numeric threshold",
			patientID:      "1",
			body:           `{"alarmLimits":{"hr":["low",190]}}`,
			expectedStatus: http.StatusBadRequest,
			expectedFields: []string{"hr"},
		},
		{
			name:           "mistyped pairs reported with range violations",
			patientID:      "1",
			body:           `{"alarmLimits":{"hr":["low",190],"spo2":[95,90],"rr":"fast","temp":[36,38]}}`,
			expectedStatus: http.StatusBadRequest,
			expectedFields: []string{"hr", "rr", "spo2"},
		},
		{
			name:           "limits not an object",
			patientID:      "1",
			body:           `{"alarmLimits":"none"}`,
			expectedStatus: http.StatusBadRequest,
			expectedFields: []string{"alarmLimits"},
		},
		{
			name:           "unknown patient",
			patientID:      "9",
			body:           `{"alarmLimits":{"hr":[90,190]}}`,
			expectedStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler, repo := newPatientHandler()
			req := httptest.NewRequest(http.MethodPut, "/api/v1/patients/"+tt.patientID+"/alarm-limits", strings.NewReader(tt.body))
			req = withPatientID(withActor(req, testutil.Physician), tt.patientID)
			rr := httptest.NewRecorder()

			handler.UpdateAlarmLimits(rr, req)

			if rr.Code != tt.expectedStatus {
				t.Fatalf("status = %d, want %d: %s", rr.Code, tt.expectedStatus, rr.Body.String())
			}
			env := decodeEnvelope(t, rr)

			if tt.expectedStatus == http.StatusOK {
				var data struct {
					AlarmLimits patient.AlarmLimits `json:"alarmLimits"`
				}
				json.Unmarshal(env.Data, &data)
				if len(data.AlarmLimits) != 2 || len(repo.AuditLog) != 1 {
					t.Errorf("limits = %v, audit = %d", data.AlarmLimits, len(repo.AuditLog))
				}
				return
			}

			if len(tt.expectedFields) == 0 {
				return
			}
			var fields []string
			for _, d := range env.Error.Details {
				fields = append(fields, d.Field)
			}
			if strings.Join(fields, ",") != strings.Join(tt.expectedFields, ",") {
				t.Errorf("fields = %v, want %v", fields, tt.expectedFields)
			}
			if repo.Limits[1]["hr"][0] != 100 {
				t.Error("rejected update was persisted")
			}
		})
	}
}
