package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/zfogg/dormdesk/pkg/logger"
)

// ListInquiries retrieves inquiries, optionally filtered by status
func (a *API) ListInquiries(ctx context.Context, status string) ([]Inquiry, error) {
	logger.Debug("Fetching inquiries", "status", status)

	q := url.Values{}
	if status != "" {
		q.Set("status", status)
	}

	var inquiries []Inquiry
	if err := a.call(ctx, http.MethodGet, "/inquiries", q, nil, &inquiries); err != nil {
		return nil, err
	}
	return inquiries, nil
}

// AnswerInquiry posts staff's answer to an inquiry
func (a *API) AnswerInquiry(ctx context.Context, inquiryID int, in InquiryAnswer) (*Inquiry, error) {
	if err := a.check(in); err != nil {
		return nil, err
	}
	logger.Debug("Answering inquiry", "inquiry_id", inquiryID)

	var inquiry Inquiry
	if err := a.call(ctx, http.MethodPost, fmt.Sprintf("/inquiries/%d/answer", inquiryID), nil, in, &inquiry); err != nil {
		return nil, err
	}
	return &inquiry, nil
}
