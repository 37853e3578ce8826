package service

import (
	"context"
	"fmt"

	"github.com/zfogg/dormdesk/pkg/api"
	"github.com/zfogg/dormdesk/pkg/formatter"
	"github.com/zfogg/dormdesk/pkg/output"
)

// ParcelService tracks parcels waiting at the front desk
type ParcelService struct {
	api *api.API
}

// NewParcelService creates a new parcel service
func NewParcelService(a *api.API) *ParcelService {
	return &ParcelService{api: a}
}

// List prints parcels, only those not yet collected when pending is set
func (s *ParcelService) List(ctx context.Context, pending bool) error {
	parcels, err := s.api.ListParcels(ctx, pending)
	if err != nil {
		return fmt.Errorf("failed to fetch parcels: %w", err)
	}

	headers := []string{"ID", "STUDENT", "CARRIER", "TRACKING", "ARRIVED", "PICKED UP"}
	rows := make([][]string, len(parcels))
	for i, p := range parcels {
		arrived := p.ArrivedAt
		rows[i] = []string{itoa(p.ID), itoa(p.StudentID), p.Carrier, p.TrackingNo, formatter.Time(&arrived), formatter.Time(p.PickedUpAt)}
	}
	return output.PrintList(fmt.Sprintf("%d parcel%s", len(parcels), pluralize(len(parcels))), parcels, headers, rows)
}

// PickUp records that a parcel was collected
func (s *ParcelService) PickUp(ctx context.Context, parcelID int) error {
	parcel, err := s.api.MarkParcelPickedUp(ctx, parcelID)
	if err != nil {
		return actionError("pick up", "parcel", parcelID, err)
	}
	formatter.PrintSuccess("✓ Parcel %d picked up at %s", parcel.ID, formatter.Time(parcel.PickedUpAt))
	return nil
}
