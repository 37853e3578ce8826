package rollcall

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zfogg/dormdesk/pkg/api"
)

func intPtr(v int) *int { return &v }

func statusPtr(s api.AttendanceStatus) *api.AttendanceStatus { return &s }

func TestStudentKey(t *testing.T) {
	tests := []struct {
		name    string
		student api.Student
		want    int
	}{
		{"numeric id", api.Student{ID: intPtr(42), StudentNo: "7"}, 42},
		{"zero id", api.Student{ID: intPtr(0)}, 0},
		{"textual number", api.Student{StudentNo: " 2023015 "}, 2023015},
		{"unparseable", api.Student{StudentNo: "A-17"}, UnresolvedKey},
		{"nothing", api.Student{Name: "Kim"}, UnresolvedKey},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StudentKey(tt.student))
		})
	}
}

func TestDedupeKeepsHigherID(t *testing.T) {
	records := []api.RollcallRecord{
		{ID: 9, StudentID: 42, Present: true},
		{ID: 5, StudentID: 42, Present: false},
		{ID: 3, StudentID: 7},
	}

	got := Dedupe(records)

	require.Len(t, got, 2)
	assert.Equal(t, 9, got[42].ID)
	assert.Equal(t, 3, got[7].ID)
}

func TestDedupePrefersUpdatedAt(t *testing.T) {
	early := time.Date(2025, 1, 15, 8, 0, 0, 0, time.UTC)
	late := early.Add(time.Hour)

	got := Dedupe([]api.RollcallRecord{
		{ID: 9, StudentID: 42, UpdatedAt: &early},
		{ID: 5, StudentID: 42, UpdatedAt: &late},
	})
	assert.Equal(t, 5, got[42].ID)

	// one side without a timestamp falls back to the id
	got = Dedupe([]api.RollcallRecord{
		{ID: 5, StudentID: 42, UpdatedAt: &late},
		{ID: 9, StudentID: 42},
	})
	assert.Equal(t, 9, got[42].ID)

	// equal timestamps fall back to the id
	got = Dedupe([]api.RollcallRecord{
		{ID: 9, StudentID: 42, UpdatedAt: &early},
		{ID: 5, StudentID: 42, UpdatedAt: &early},
	})
	assert.Equal(t, 9, got[42].ID)
}

func TestDeriveStatus(t *testing.T) {
	tests := []struct {
		name   string
		record api.RollcallRecord
		want   api.AttendanceStatus
	}{
		{"legacy present", api.RollcallRecord{Present: true}, api.StatusPresent},
		{"legacy absent", api.RollcallRecord{Present: false}, api.StatusAbsent},
		{"explicit leave while present", api.RollcallRecord{Present: true, Status: statusPtr(api.StatusLeave)}, api.StatusLeave},
		{"explicit leave while absent", api.RollcallRecord{Present: false, Status: statusPtr(api.StatusLeave)}, api.StatusLeave},
		{"explicit absent overrides flag", api.RollcallRecord{Present: true, Status: statusPtr(api.StatusAbsent)}, api.StatusAbsent},
		{"garbage status falls back", api.RollcallRecord{Present: true, Status: statusPtr("LATE")}, api.StatusPresent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DeriveStatus(tt.record))
		})
	}
}

func TestPresentFlag(t *testing.T) {
	assert.True(t, PresentFlag(api.StatusPresent))
	assert.False(t, PresentFlag(api.StatusLeave))
	assert.False(t, PresentFlag(api.StatusAbsent))
}
