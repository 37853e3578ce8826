package api

import (
	"context"
	"io"
	"net/http"

	"github.com/zfogg/dormdesk/pkg/client"
	"github.com/zfogg/dormdesk/pkg/logger"
)

// PresignBill asks the server for a one-off upload URL for a bill photo
func (a *API) PresignBill(ctx context.Context, in BillPresignRequest) (*BillUpload, error) {
	if err := a.check(in); err != nil {
		return nil, err
	}
	logger.Debug("Requesting bill upload URL", "room_id", in.RoomID, "month", in.Month)

	var upload BillUpload
	if err := a.call(ctx, http.MethodPost, "/bills/presign", nil, in, &upload); err != nil {
		return nil, err
	}
	return &upload, nil
}

// UploadObject PUTs the photo to object storage. The presigned URL is
// absolute and authorizes itself, so a rejection there says nothing about
// the dormitory session.
func (a *API) UploadObject(ctx context.Context, upload *BillUpload, body io.Reader) error {
	logger.Debug("Uploading bill photo", "object_key", upload.ObjectKey)

	_, err := a.c.Do(ctx, upload.UploadURL, client.RequestOptions{
		Method:           http.MethodPut,
		Headers:          map[string]string{"Content-Type": upload.ContentType},
		Body:             body,
		SkipAuthHandling: true,
		SkipSessionTouch: true,
	})
	return err
}

// RegisterBill records an uploaded photo against a room and month
func (a *API) RegisterBill(ctx context.Context, in BillInput) (*Bill, error) {
	if err := a.check(in); err != nil {
		return nil, err
	}
	logger.Debug("Registering bill", "room_id", in.RoomID, "object_key", in.ObjectKey)

	var bill Bill
	if err := a.call(ctx, http.MethodPost, "/bills", nil, in, &bill); err != nil {
		return nil, err
	}
	return &bill, nil
}
