package service

import (
	"context"
	"fmt"
	"os"

	"github.com/zfogg/dormdesk/pkg/api"
	"github.com/zfogg/dormdesk/pkg/billphoto"
	dderrors "github.com/zfogg/dormdesk/pkg/errors"
	"github.com/zfogg/dormdesk/pkg/formatter"
	"github.com/zfogg/dormdesk/pkg/logger"
)

// BillService uploads photographed utility bills
type BillService struct {
	api  *api.API
	opts billphoto.Options
}

// NewBillService creates a new bill service
func NewBillService(a *api.API, opts billphoto.Options) *BillService {
	return &BillService{api: a, opts: opts}
}

// Upload shrinks the photo at path, stores it through a presigned URL and
// registers it against the room and month
func (s *BillService) Upload(ctx context.Context, roomID int, month, path string) error {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return dderrors.FileNotFoundError(path)
		}
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	photo, err := billphoto.Prepare(f, s.opts)
	if err != nil {
		return dderrors.ImageFormatError(path, err)
	}
	logger.Debug("Prepared bill photo", "path", path, "width", photo.Width, "height", photo.Height, "bytes", len(photo.Data))

	upload, err := s.api.PresignBill(ctx, api.BillPresignRequest{
		RoomID:      roomID,
		Month:       month,
		ContentType: photo.ContentType(),
	})
	if err != nil {
		return fmt.Errorf("failed to get upload URL: %w", err)
	}

	formatter.PrintInfo("Uploading %d KB...", (len(photo.Data)+1023)/1024)
	if err := s.api.UploadObject(ctx, upload, photo.Reader()); err != nil {
		return fmt.Errorf("failed to upload bill photo: %w", err)
	}

	bill, err := s.api.RegisterBill(ctx, api.BillInput{RoomID: roomID, Month: month, ObjectKey: upload.ObjectKey})
	if err != nil {
		return fmt.Errorf("failed to register bill: %w", err)
	}

	formatter.PrintSuccess("✓ Bill uploaded")
	formatter.PrintKeyValue(map[string]interface{}{
		"ID":     bill.ID,
		"Room":   bill.RoomID,
		"Month":  bill.Month,
		"Object": bill.ObjectKey,
	})
	return nil
}
