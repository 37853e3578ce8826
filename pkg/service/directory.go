package service

import (
	"context"
	"fmt"

	"github.com/zfogg/dormdesk/pkg/api"
	"github.com/zfogg/dormdesk/pkg/formatter"
	"github.com/zfogg/dormdesk/pkg/output"
)

// DirectoryService lists rooms and the students living in them
type DirectoryService struct {
	api *api.API
}

// NewDirectoryService creates a new directory service
func NewDirectoryService(a *api.API) *DirectoryService {
	return &DirectoryService{api: a}
}

// ListRooms prints a page of rooms
func (s *DirectoryService) ListRooms(ctx context.Context, page, limit int) error {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 50
	}

	rooms, err := s.api.ListRooms(ctx, api.Page{Page: page, Limit: limit})
	if err != nil {
		return fmt.Errorf("failed to fetch rooms: %w", err)
	}

	headers := []string{"ID", "NAME", "FLOOR", "CAPACITY"}
	rows := make([][]string, len(rooms))
	for i, r := range rooms {
		rows[i] = []string{itoa(r.ID), r.Name, itoa(r.Floor), itoa(r.Capacity)}
	}
	return output.PrintList(fmt.Sprintf("%d room%s", len(rooms), pluralize(len(rooms))), rooms, headers, rows)
}

// ListStudents prints the roster, optionally for one room
func (s *DirectoryService) ListStudents(ctx context.Context, roomID *int) error {
	students, err := s.api.ListStudents(ctx, roomID)
	if err != nil {
		return fmt.Errorf("failed to fetch students: %w", err)
	}

	headers := []string{"ID", "STUDENT NO", "NAME", "ROOM", "PHONE"}
	rows := make([][]string, len(students))
	for i, st := range students {
		rows[i] = []string{formatter.OptionalInt(st.ID), st.StudentNo, st.Name, formatter.OptionalInt(st.RoomID), st.Phone}
	}
	return output.PrintList(fmt.Sprintf("%d student%s", len(students), pluralize(len(students))), students, headers, rows)
}
