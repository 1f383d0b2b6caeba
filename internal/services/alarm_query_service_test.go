package services

import (
	"context"
	"errors"
	"testing"

	"github.com/nicuwatch/nicudash/internal/domain/alarm"
	apperrors "github.com/nicuwatch/nicudash/internal/pkg/errors"
	"github.com/nicuwatch/nicudash/internal/pkg/logger"
	"github.com/nicuwatch/nicudash/internal/testutil"
)

func TestAlarmQueryService_List(t *testing.T) {
	repo := testutil.NewSeededAlarmRepository()
	service := NewAlarmQueryService(repo, logger.Nop())
	actor := testutil.Nurse

	tests := []struct {
		name         string
		query        alarm.ListQuery
		wantIDs      []int64
		wantTotal    int64
		wantCritical int
		wantWarning  int
		wantAdvisory int
	}{
		{
			name:         "default active feed in severity then recency order",
			query:        alarm.NewListQuery("", "", "", ""),
			wantIDs:      []int64{3, 1, 2, 4},
			wantTotal:    4,
			wantCritical: 2,
			wantWarning:  1,
			wantAdvisory: 1,
		},
		{
			name:         "unknown status falls back to active",
			query:        alarm.NewListQuery("paused", "", "", ""),
			wantIDs:      []int64{3, 1, 2, 4},
			wantTotal:    4,
			wantCritical: 2,
			wantWarning:  1,
			wantAdvisory: 1,
		},
		{
			name:         "type filter does not narrow the counts",
			query:        alarm.NewListQuery("active", "critical", "", ""),
			wantIDs:      []int64{3, 1},
			wantTotal:    2,
			wantCritical: 2,
			wantWarning:  1,
			wantAdvisory: 1,
		},
		{
			name:         "all statuses",
			query:        alarm.NewListQuery("all", "", "", ""),
			wantIDs:      []int64{3, 1, 6, 2, 5, 4},
			wantTotal:    6,
			wantCritical: 3,
			wantWarning:  2,
			wantAdvisory: 1,
		},
		{
			name:        "silenced only reports zero counts for absent types",
			query:       alarm.NewListQuery("silenced", "", "", ""),
			wantIDs:     []int64{5},
			wantTotal:   1,
			wantWarning: 1,
		},
		{
			name:         "second page",
			query:        alarm.NewListQuery("active", "", "2", "3"),
			wantIDs:      []int64{4},
			wantTotal:    4,
			wantCritical: 2,
			wantWarning:  1,
			wantAdvisory: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := service.List(context.Background(), &actor, tt.query)
			if err != nil {
				t.Fatalf("List() error = %v", err)
			}

			if res.Total != tt.wantTotal {
				t.Errorf("Total = %d, want %d", res.Total, tt.wantTotal)
			}
			if len(res.Items) != len(tt.wantIDs) {
				t.Fatalf("got %d items, want %d", len(res.Items), len(tt.wantIDs))
			}
			for i, id := range tt.wantIDs {
				if res.Items[i].ID != id {
					t.Errorf("item %d id = %d, want %d", i, res.Items[i].ID, id)
				}
			}
			if res.Counts.Critical != tt.wantCritical || res.Counts.Warning != tt.wantWarning || res.Counts.Advisory != tt.wantAdvisory {
				t.Errorf("Counts = %+v", res.Counts)
			}
		})
	}
}

func TestAlarmQueryService_List_StatusAndOrdering(t *testing.T) {
	repo := testutil.NewSeededAlarmRepository()
	service := NewAlarmQueryService(repo, logger.Nop())
	actor := testutil.Nurse

	res, err := service.List(context.Background(), &actor, alarm.NewListQuery("active", "", "", ""))
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}

	for i, it := range res.Items {
		if it.Status != alarm.StatusActive {
			t.Errorf("item %d has status %s", it.ID, it.Status)
		}
		if i == 0 {
			continue
		}
		prev := res.Items[i-1]
		if prev.Type.Rank() > it.Type.Rank() {
			t.Errorf("item %d (%s) sorted before higher severity %d (%s)", prev.ID, prev.Type, it.ID, it.Type)
		}
		if prev.Type == it.Type && prev.TriggeredAt.Before(it.TriggeredAt) {
			t.Errorf("item %d older than following item %d in the same band", prev.ID, it.ID)
		}
	}

	if res.Items[0].BedLabel != "--" {
		t.Errorf("patient without bed rendered %q", res.Items[0].BedLabel)
	}
	if res.Items[1].BedLabel != "B-01" {
		t.Errorf("bed label = %q, want B-01", res.Items[1].BedLabel)
	}
}

func TestAlarmQueryService_List_PaginationMeta(t *testing.T) {
	repo := testutil.NewSeededAlarmRepository()
	service := NewAlarmQueryService(repo, logger.Nop())
	actor := testutil.Nurse

	res, err := service.List(context.Background(), &actor, alarm.NewListQuery("", "", "3", "500"))
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if res.Limit != 200 {
		t.Errorf("Limit = %d, want 200", res.Limit)
	}
	if res.Offset != 400 {
		t.Errorf("Offset = %d, want 400", res.Offset)
	}
	if len(res.Items) != 0 || res.Items == nil {
		t.Errorf("Items = %v, want empty non-nil slice", res.Items)
	}
}

func TestAlarmQueryService_List_Errors(t *testing.T) {
	repo := testutil.NewSeededAlarmRepository()
	service := NewAlarmQueryService(repo, logger.Nop())

	_, err := service.List(context.Background(), nil, alarm.NewListQuery("", "", "", ""))
	if !apperrors.Is(err, apperrors.ErrCodeAuthentication) {
		t.Errorf("List() without actor error = %v, want AUTHENTICATION_ERROR", err)
	}

	repo.CountError = apperrors.DatabaseError("Failed to count alarms by type", errors.New("connection reset"))
	actor := testutil.Nurse
	_, err = service.List(context.Background(), &actor, alarm.NewListQuery("", "", "", ""))
	if !apperrors.Is(err, apperrors.ErrCodeDatabase) {
		t.Errorf("List() store failure error = %v, want DATABASE_ERROR", err)
	}
}
