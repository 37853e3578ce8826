package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/zfogg/dormdesk/pkg/api"
	"github.com/zfogg/dormdesk/pkg/formatter"
	"github.com/zfogg/dormdesk/pkg/output"
	"github.com/zfogg/dormdesk/pkg/prompter"
)

// OvernightService reviews overnight stay requests
type OvernightService struct {
	api *api.API
}

// NewOvernightService creates a new overnight stay service
func NewOvernightService(a *api.API) *OvernightService {
	return &OvernightService{api: a}
}

// List prints overnight stay requests, filtered by status when one is given
func (s *OvernightService) List(ctx context.Context, status string) error {
	stays, err := s.api.ListOvernightStays(ctx, strings.ToUpper(status))
	if err != nil {
		return fmt.Errorf("failed to fetch overnight stays: %w", err)
	}

	headers := []string{"ID", "STUDENT", "FROM", "TO", "STATUS", "REASON"}
	rows := make([][]string, len(stays))
	for i, st := range stays {
		rows[i] = []string{itoa(st.ID), itoa(st.StudentID), st.From, st.To, st.Status, truncate(st.Reason, 40)}
	}
	return output.PrintList("Overnight stays", stays, headers, rows)
}

// Approve approves a request
func (s *OvernightService) Approve(ctx context.Context, stayID int) error {
	stay, err := s.api.ApproveOvernightStay(ctx, stayID)
	if err != nil {
		return actionError("approve", "overnight stay", stayID, err)
	}
	formatter.PrintSuccess("✓ Overnight stay %d approved (%s to %s)", stay.ID, stay.From, stay.To)
	return nil
}

// Reject turns a request down. The reason is optional; it is asked for
// when running interactively without one.
func (s *OvernightService) Reject(ctx context.Context, stayID int, reason string) error {
	if reason == "" && prompter.IsInteractive() {
		var err error
		if reason, err = prompter.PromptString("Reason (optional):"); err != nil {
			return err
		}
	}

	stay, err := s.api.RejectOvernightStay(ctx, stayID, reason)
	if err != nil {
		return actionError("reject", "overnight stay", stayID, err)
	}
	formatter.PrintSuccess("✓ Overnight stay %d rejected", stay.ID)
	return nil
}
