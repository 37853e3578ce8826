package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/zfogg/dormdesk/pkg/logger"
)

// ListRooms retrieves rooms
func (a *API) ListRooms(ctx context.Context, page Page) ([]Room, error) {
	logger.Debug("Fetching rooms", "page", page.Page)

	var rooms []Room
	if err := a.call(ctx, http.MethodGet, "/rooms", page.values(), nil, &rooms); err != nil {
		return nil, err
	}
	return rooms, nil
}

// ListStudents retrieves the roster, optionally filtered to one room
func (a *API) ListStudents(ctx context.Context, roomID *int) ([]Student, error) {
	logger.Debug("Fetching students", "room_id", roomID)

	q := Page{}.values()
	if roomID != nil {
		q.Set("roomId", strconv.Itoa(*roomID))
	}

	var students []Student
	if err := a.call(ctx, http.MethodGet, "/students", q, nil, &students); err != nil {
		return nil, err
	}
	return students, nil
}
