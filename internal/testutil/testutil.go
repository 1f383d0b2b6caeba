package testutil

import (
	"time"

	"github.com/nicuwatch/nicudash/internal/domain/alarm"
)

// BaseTime anchors fixture timestamps
var BaseTime = time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

// Nurse is a caregiver actor allowed to act on alarms
var Nurse = alarm.Actor{UserID: 7, Name: "Nurse Joy", Role: "nurse"}

// Physician is a second caregiver actor
var Physician = alarm.Actor{UserID: 3, Name: "Dr. Okafor", Role: "physician"}

// NewSeededAlarmRepository returns a repository with two patients and a mixed alarm feed.
//
//	1 critical active   t+10m  patient 1 (bed B-01)
//	2 warning  active   t+20m  patient 1
//	3 critical active   t+30m  patient 2 (no bed)
//	4 advisory active   t+40m  patient 2
//	5 warning  silenced t+5m   patient 2, silenced until t+7m
//	6 critical resolved t+1m   patient 1
func NewSeededAlarmRepository() *MockAlarmRepository {
	repo := NewMockAlarmRepository()
	repo.AddPatient(1, "Baby Lee", "B-01")
	repo.AddPatient(2, "Baby Kim", "")
	repo.Users[Nurse.UserID] = Nurse.Name
	repo.Users[Physician.UserID] = Physician.Name

	at := func(m int) time.Time { return BaseTime.Add(time.Duration(m) * time.Minute) }
	silencedUntil := at(7)
	resolvedAt := at(2)

	repo.AddAlarm(alarm.Alarm{ID: 1, PatientID: 1, Type: alarm.TypeCritical, Parameter: "spo2", Value: 82, Threshold: 88, Message: "SpO2 low", TriggeredAt: at(10)})
	repo.AddAlarm(alarm.Alarm{ID: 2, PatientID: 1, Type: alarm.TypeWarning, Parameter: "hr", Value: 185, Threshold: 180, Message: "HR high", TriggeredAt: at(20)})
	repo.AddAlarm(alarm.Alarm{ID: 3, PatientID: 2, Type: alarm.TypeCritical, Parameter: "hr", Value: 70, Threshold: 90, Message: "HR low", TriggeredAt: at(30)})
	repo.AddAlarm(alarm.Alarm{ID: 4, PatientID: 2, Type: alarm.TypeAdvisory, Parameter: "temp", Value: 37.8, Threshold: 37.5, Message: "Temp high", TriggeredAt: at(40)})
	repo.AddAlarm(alarm.Alarm{ID: 5, PatientID: 2, Type: alarm.TypeWarning, Parameter: "rr", Value: 72, Threshold: 60, Message: "RR high", Status: alarm.StatusSilenced, SilencedUntil: &silencedUntil, TriggeredAt: at(5)})
	repo.AddAlarm(alarm.Alarm{ID: 6, PatientID: 1, Type: alarm.TypeCritical, Parameter: "spo2", Value: 80, Threshold: 88, Message: "SpO2 low", Status: alarm.StatusResolved, ResolvedAt: &resolvedAt, TriggeredAt: at(1)})

	return repo
}

// IntPtr returns a pointer to v
func IntPtr(v int) *int {
	return &v
}
