package dto

import (
	"time"

	"github.com/nicuwatch/nicudash/internal/domain/alarm"
)

// AlarmFeedItemDTO is one row of the live alarm feed.
// AcknowledgedBy is omitted when nobody has acknowledged the alarm.
type AlarmFeedItemDTO struct {
	ID             int64     `json:"id"`
	PatientID      int64     `json:"patientId"`
	BedLabel       string    `json:"bedLabel"`
	PatientName    string    `json:"patientName"`
	Type           string    `json:"type"`
	Parameter      string    `json:"parameter"`
	Value          float64   `json:"value"`
	Threshold      float64   `json:"threshold"`
	Message        string    `json:"message"`
	Status         string    `json:"status"`
	TriggeredAt    time.Time `json:"triggeredAt"`
	AcknowledgedBy string    `json:"acknowledgedBy,omitempty"`
}

// FeedItemsToDTO converts feed items, never returning nil
func FeedItemsToDTO(items []*alarm.FeedItem) []AlarmFeedItemDTO {
	out := make([]AlarmFeedItemDTO, len(items))
	for i, it := range items {
		out[i] = AlarmFeedItemDTO{
			ID:             it.ID,
			PatientID:      it.PatientID,
			BedLabel:       it.BedLabel,
			PatientName:    it.PatientName,
			Type:           string(it.Type),
			Parameter:      it.Parameter,
			Value:          it.Value,
			Threshold:      it.Threshold,
			Message:        it.Message,
			Status:         string(it.Status),
			TriggeredAt:    it.TriggeredAt,
			AcknowledgedBy: it.AcknowledgedBy,
		}
	}
	return out
}

// ActionMeta is the meta block of an action response
type ActionMeta struct {
	Processed int `json:"processed"`
}

// AlarmsOrEmpty keeps the data field a JSON array
func AlarmsOrEmpty(alarms []*alarm.Alarm) []*alarm.Alarm {
	if alarms == nil {
		return []*alarm.Alarm{}
	}
	return alarms
}
