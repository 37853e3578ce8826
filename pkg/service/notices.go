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

// NoticeService provides the notice board commands
type NoticeService struct {
	api *api.API
}

// NewNoticeService creates a new notice service
func NewNoticeService(a *api.API) *NoticeService {
	return &NoticeService{api: a}
}

// List prints a page of notices, pinned first as the server orders them
func (s *NoticeService) List(ctx context.Context, page, limit int) error {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	notices, err := s.api.ListNotices(ctx, api.Page{Page: page, Limit: limit})
	if err != nil {
		return fmt.Errorf("failed to fetch notices: %w", err)
	}

	headers := []string{"ID", "", "TITLE", "AUTHOR", "POSTED"}
	rows := make([][]string, len(notices))
	for i, n := range notices {
		pin := ""
		if n.Pinned {
			pin = "📌"
		}
		posted := n.CreatedAt
		rows[i] = []string{itoa(n.ID), pin, truncate(n.Title, 60), n.Author, formatter.Time(&posted)}
	}
	return output.PrintList("Notices", notices, headers, rows)
}

// Post publishes a notice, prompting for whatever was not given
func (s *NoticeService) Post(ctx context.Context, in api.NoticeInput) error {
	var err error
	if strings.TrimSpace(in.Title) == "" && prompter.IsInteractive() {
		if in.Title, err = prompter.PromptString("Title:"); err != nil {
			return err
		}
	}
	if strings.TrimSpace(in.Body) == "" && prompter.IsInteractive() {
		if in.Body, err = prompter.PromptMultilineString("Body (empty line to finish):", 50); err != nil {
			return err
		}
	}

	notice, err := s.api.PostNotice(ctx, in)
	if err != nil {
		return fmt.Errorf("failed to post notice: %w", err)
	}

	formatter.PrintSuccess("✓ Notice posted")
	formatter.PrintKeyValue(map[string]interface{}{
		"ID":     notice.ID,
		"Title":  notice.Title,
		"Pinned": notice.Pinned,
	})
	return nil
}
