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

// InquiryService answers student inquiries
type InquiryService struct {
	api *api.API
}

// NewInquiryService creates a new inquiry service
func NewInquiryService(a *api.API) *InquiryService {
	return &InquiryService{api: a}
}

// List prints inquiries, filtered by status when one is given
func (s *InquiryService) List(ctx context.Context, status string) error {
	inquiries, err := s.api.ListInquiries(ctx, strings.ToUpper(status))
	if err != nil {
		return fmt.Errorf("failed to fetch inquiries: %w", err)
	}

	headers := []string{"ID", "STUDENT", "STATUS", "SUBJECT", "ASKED"}
	rows := make([][]string, len(inquiries))
	for i, q := range inquiries {
		asked := q.CreatedAt
		rows[i] = []string{itoa(q.ID), itoa(q.StudentID), q.Status, truncate(q.Subject, 50), formatter.Time(&asked)}
	}
	return output.PrintList("Inquiries", inquiries, headers, rows)
}

// Answer replies to an inquiry, prompting for the text when answer is empty
func (s *InquiryService) Answer(ctx context.Context, inquiryID int, answer string) error {
	if strings.TrimSpace(answer) == "" && prompter.IsInteractive() {
		var err error
		answer, err = prompter.PromptMultilineString("Answer (empty line to finish):", 50)
		if err != nil {
			return err
		}
	}

	inquiry, err := s.api.AnswerInquiry(ctx, inquiryID, api.InquiryAnswer{Answer: answer})
	if err != nil {
		return actionError("answer", "inquiry", inquiryID, err)
	}
	formatter.PrintSuccess("✓ Inquiry %d answered", inquiry.ID)
	return nil
}
