package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/zfogg/dormdesk/pkg/logger"
)

// ListParcels retrieves parcels. pending limits the list to parcels not yet
// picked up.
func (a *API) ListParcels(ctx context.Context, pending bool) ([]Parcel, error) {
	logger.Debug("Fetching parcels", "pending", pending)

	q := url.Values{}
	if pending {
		q.Set("pending", "true")
	}

	var parcels []Parcel
	if err := a.call(ctx, http.MethodGet, "/parcels", q, nil, &parcels); err != nil {
		return nil, err
	}
	return parcels, nil
}

// MarkParcelPickedUp records that the student collected the parcel
func (a *API) MarkParcelPickedUp(ctx context.Context, parcelID int) (*Parcel, error) {
	logger.Debug("Marking parcel picked up", "parcel_id", parcelID)

	var parcel Parcel
	if err := a.call(ctx, http.MethodPost, fmt.Sprintf("/parcels/%d/pickup", parcelID), nil, nil, &parcel); err != nil {
		return nil, err
	}
	return &parcel, nil
}
