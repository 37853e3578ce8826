package api

import (
	"context"
	"net/http"

	"github.com/zfogg/dormdesk/pkg/logger"
)

// ListNotices retrieves notices, newest first
func (a *API) ListNotices(ctx context.Context, page Page) ([]Notice, error) {
	logger.Debug("Fetching notices", "page", page.Page)

	var notices []Notice
	if err := a.call(ctx, http.MethodGet, "/notices", page.values(), nil, &notices); err != nil {
		return nil, err
	}
	return notices, nil
}

// PostNotice publishes a notice
func (a *API) PostNotice(ctx context.Context, in NoticeInput) (*Notice, error) {
	if err := a.check(in); err != nil {
		return nil, err
	}
	logger.Debug("Posting notice", "title", in.Title)

	var notice Notice
	if err := a.call(ctx, http.MethodPost, "/notices", nil, in, &notice); err != nil {
		return nil, err
	}
	return &notice, nil
}
