// Package rollcall reconciles a student roster with the day's sparse
// attendance records and writes staff edits back as upserts.
package rollcall

import (
	"strconv"
	"strings"

	"github.com/zfogg/dormdesk/pkg/api"
)

// UnresolvedKey is the key of a student with neither a numeric id nor a
// parseable student number. Several such students collide on it.
const UnresolvedKey = -1

// StudentKey resolves the identity used to join a student with records
func StudentKey(s api.Student) int {
	if s.ID != nil {
		return *s.ID
	}
	if n, err := strconv.Atoi(strings.TrimSpace(s.StudentNo)); err == nil {
		return n
	}
	return UnresolvedKey
}

// Dedupe keeps one record per student. When both duplicates carry an
// update time the later one wins, otherwise the larger id does.
func Dedupe(records []api.RollcallRecord) map[int]api.RollcallRecord {
	out := make(map[int]api.RollcallRecord, len(records))
	for _, r := range records {
		cur, ok := out[r.StudentID]
		if !ok || newer(r, cur) {
			out[r.StudentID] = r
		}
	}
	return out
}

func newer(a, b api.RollcallRecord) bool {
	if a.UpdatedAt != nil && b.UpdatedAt != nil && !a.UpdatedAt.Equal(*b.UpdatedAt) {
		return a.UpdatedAt.After(*b.UpdatedAt)
	}
	return a.ID > b.ID
}

// DeriveStatus returns the explicit status, else PRESENT or ABSENT from the
// legacy flag. Legacy records can therefore never read as LEAVE.
func DeriveStatus(r api.RollcallRecord) api.AttendanceStatus {
	if r.Status != nil && r.Status.Valid() {
		return *r.Status
	}
	if r.Present {
		return api.StatusPresent
	}
	return api.StatusAbsent
}

// PresentFlag is the legacy flag written alongside a status
func PresentFlag(s api.AttendanceStatus) bool {
	return s == api.StatusPresent
}
