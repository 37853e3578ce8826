package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/zfogg/dormdesk/pkg/logger"
)

// ListRollcalls retrieves the raw records for a date. The result may hold
// several records for the same student.
func (a *API) ListRollcalls(ctx context.Context, query RollcallQuery) ([]RollcallRecord, error) {
	logger.Debug("Fetching rollcalls", "date", query.Date, "room_id", query.RoomID)

	q := url.Values{}
	q.Set("date", query.Date)
	if query.RoomID != nil {
		q.Set("roomId", strconv.Itoa(*query.RoomID))
	}

	var records []RollcallRecord
	if err := a.call(ctx, http.MethodGet, "/rollcalls", q, nil, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// UpsertRollcall creates or overwrites a student's record for a date
func (a *API) UpsertRollcall(ctx context.Context, in RollcallUpsert) (*RollcallRecord, error) {
	if err := a.check(in); err != nil {
		return nil, err
	}
	logger.Debug("Upserting rollcall", "student_id", in.StudentID, "date", in.Date, "status", in.Status)

	var record RollcallRecord
	if err := a.call(ctx, http.MethodPost, "/rollcalls", nil, in, &record); err != nil {
		return nil, err
	}
	return &record, nil
}
