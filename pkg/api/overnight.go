package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/zfogg/dormdesk/pkg/logger"
)

// ListOvernightStays retrieves overnight-stay requests, optionally by status
func (a *API) ListOvernightStays(ctx context.Context, status string) ([]OvernightStay, error) {
	logger.Debug("Fetching overnight stays", "status", status)

	q := url.Values{}
	if status != "" {
		q.Set("status", status)
	}

	var stays []OvernightStay
	if err := a.call(ctx, http.MethodGet, "/overnight-stays", q, nil, &stays); err != nil {
		return nil, err
	}
	return stays, nil
}

// ApproveOvernightStay approves a pending request
func (a *API) ApproveOvernightStay(ctx context.Context, stayID int) (*OvernightStay, error) {
	return a.decideOvernightStay(ctx, stayID, "approve", OvernightDecision{})
}

// RejectOvernightStay rejects a pending request with an optional reason
func (a *API) RejectOvernightStay(ctx context.Context, stayID int, reason string) (*OvernightStay, error) {
	return a.decideOvernightStay(ctx, stayID, "reject", OvernightDecision{Reason: reason})
}

func (a *API) decideOvernightStay(ctx context.Context, stayID int, action string, in OvernightDecision) (*OvernightStay, error) {
	if err := a.check(in); err != nil {
		return nil, err
	}
	logger.Debug("Deciding overnight stay", "stay_id", stayID, "action", action)

	var stay OvernightStay
	path := fmt.Sprintf("/overnight-stays/%d/%s", stayID, action)
	if err := a.call(ctx, http.MethodPost, path, nil, in, &stay); err != nil {
		return nil, err
	}
	return &stay, nil
}
