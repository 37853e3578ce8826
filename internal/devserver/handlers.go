package devserver

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/zfogg/dormdesk/pkg/api"
	"github.com/zfogg/dormdesk/pkg/auth"
	"go.uber.org/zap"
)

const uploadTTL = 15 * time.Minute

// handleLogin plays the authorization server: the staff member is taken to
// be signed in already, so a code is issued straight away
func (s *Server) handleLogin(c *gin.Context) {
	redirect := c.Query("redirect")
	if redirect == "" {
		redirect = auth.DefaultRedirect
	}
	callback := c.Query("callback")
	if callback != "" && !loopbackCallback(callback) {
		abortError(c, http.StatusBadRequest, "invalid_callback", "callback must be an http address on this machine")
		return
	}

	state := auth.EncodeState(redirect)
	code := s.sessions.issueCode(redirect)
	if callback == "" {
		c.String(http.StatusOK, "Signed in.\n\nFinish in your terminal with:\n  dormdesk auth callback --code %s --state %s\n", code, state)
		return
	}

	target, _ := url.Parse(callback)
	q := target.Query()
	q.Set("code", code)
	q.Set("state", state)
	target.RawQuery = q.Encode()
	c.Redirect(http.StatusFound, target.String())
}

func (s *Server) handleCallback(c *gin.Context) {
	g, err := s.sessions.redeem(c.Query("code"))
	if err != nil {
		abortError(c, http.StatusBadRequest, "invalid_code", err.Error())
		return
	}
	token, err := s.sessions.issue("staff")
	if err != nil {
		s.log.Error("Failed to sign session", zap.Error(err))
		abortError(c, http.StatusInternalServerError, "internal", "could not create session")
		return
	}

	s.metrics.LoginsTotal.Inc()
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(SessionCookie, token, int(s.cfg.SessionTTL.Seconds()), "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{"redirect": g.redirect})
}

func (s *Server) handleLogout(c *gin.Context) {
	if cookie, err := c.Cookie(SessionCookie); err == nil {
		s.sessions.revoke(cookie)
	}
	c.SetCookie(SessionCookie, "", -1, "/", "", false, true)
	c.Status(http.StatusNoContent)
}

func (s *Server) handleListRooms(c *gin.Context) {
	c.JSON(http.StatusOK, s.store.Rooms(atoiDefault(c.Query("page"), 1), atoiDefault(c.Query("limit"), 50)))
}

func (s *Server) handleListStudents(c *gin.Context) {
	roomID, ok := optionalID(c, "roomId")
	if !ok {
		return
	}
	c.JSON(http.StatusOK, s.store.Students(roomID))
}

func (s *Server) handleListRollcalls(c *gin.Context) {
	date := c.Query("date")
	if _, err := time.Parse("2006-01-02", date); err != nil {
		abortError(c, http.StatusBadRequest, "invalid_date", "date must be YYYY-MM-DD")
		return
	}
	roomID, ok := optionalID(c, "roomId")
	if !ok {
		return
	}
	c.JSON(http.StatusOK, s.store.Rollcalls(date, roomID))
}

func (s *Server) handleUpsertRollcall(c *gin.Context) {
	var in api.RollcallUpsert
	if !s.bind(c, &in) {
		return
	}
	rec := s.store.UpsertRollcall(in)
	s.metrics.RollcallUpserts.Inc()
	c.JSON(http.StatusOK, rec)
}

func (s *Server) handleListNotices(c *gin.Context) {
	c.JSON(http.StatusOK, s.store.Notices(atoiDefault(c.Query("page"), 1), atoiDefault(c.Query("limit"), 20)))
}

func (s *Server) handlePostNotice(c *gin.Context) {
	var in api.NoticeInput
	if !s.bind(c, &in) {
		return
	}
	c.JSON(http.StatusCreated, s.store.AddNotice(in, c.GetString("staff")))
}

func (s *Server) handleListParcels(c *gin.Context) {
	c.JSON(http.StatusOK, s.store.Parcels(c.Query("pending") == "true"))
}

func (s *Server) handlePickUpParcel(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	p, err := s.store.PickUpParcel(id)
	if err != nil {
		storeError(c, "parcel", err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (s *Server) handleListInquiries(c *gin.Context) {
	c.JSON(http.StatusOK, s.store.Inquiries(c.Query("status")))
}

func (s *Server) handleAnswerInquiry(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var in api.InquiryAnswer
	if !s.bind(c, &in) {
		return
	}
	q, err := s.store.AnswerInquiry(id, in.Answer)
	if err != nil {
		storeError(c, "inquiry", err)
		return
	}
	c.JSON(http.StatusOK, q)
}

func (s *Server) handleListOvernightStays(c *gin.Context) {
	c.JSON(http.StatusOK, s.store.OvernightStays(c.Query("status")))
}

func (s *Server) handleDecideOvernightStay(approve bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c)
		if !ok {
			return
		}
		var in api.OvernightDecision
		if c.Request.ContentLength > 0 && !s.bind(c, &in) {
			return
		}
		st, err := s.store.DecideOvernightStay(id, approve, in.Reason)
		if err != nil {
			storeError(c, "overnight stay", err)
			return
		}
		c.JSON(http.StatusOK, st)
	}
}

func (s *Server) handlePresignBill(c *gin.Context) {
	var in api.BillPresignRequest
	if !s.bind(c, &in) {
		return
	}
	if !s.store.RoomExists(in.RoomID) {
		abortError(c, http.StatusNotFound, "not_found", fmt.Sprintf("room %d not found", in.RoomID))
		return
	}

	ext := "jpg"
	if in.ContentType == "image/png" {
		ext = "png"
	}
	key := fmt.Sprintf("bills/%d/%s-%s.%s", in.RoomID, in.Month, uuid.NewString()[:8], ext)
	token, expires, err := s.sessions.signUpload(key, in.ContentType, uploadTTL)
	if err != nil {
		s.log.Error("Failed to sign upload", zap.Error(err))
		abortError(c, http.StatusInternalServerError, "internal", "could not sign upload")
		return
	}

	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}
	c.JSON(http.StatusOK, api.BillUpload{
		UploadURL:   fmt.Sprintf("%s://%s/uploads/%s?token=%s", scheme, c.Request.Host, key, url.QueryEscape(token)),
		ObjectKey:   key,
		ContentType: in.ContentType,
		ExpiresAt:   expires,
	})
}

func (s *Server) handleUpload(c *gin.Context) {
	key := strings.TrimPrefix(c.Param("key"), "/")
	contentType := c.GetHeader("Content-Type")
	if err := s.sessions.checkUpload(c.Query("token"), key, contentType); err != nil {
		s.log.Debug("Rejected upload", zap.String("key", key), zap.Error(err))
		abortError(c, http.StatusForbidden, "signature_invalid", "upload URL is invalid or expired")
		return
	}

	data, err := io.ReadAll(io.LimitReader(c.Request.Body, 20<<20))
	if err != nil {
		abortError(c, http.StatusBadRequest, "read_failed", err.Error())
		return
	}
	s.store.PutObject(key, contentType, data)
	s.metrics.UploadedBytes.Add(float64(len(data)))
	c.Status(http.StatusOK)
}

func (s *Server) handleRegisterBill(c *gin.Context) {
	var in api.BillInput
	if !s.bind(c, &in) {
		return
	}
	b, err := s.store.AddBill(in)
	if err != nil {
		abortError(c, http.StatusBadRequest, "object_missing", "upload the photo before registering it")
		return
	}
	c.JSON(http.StatusCreated, b)
}

// bind decodes the JSON body and validates it with the same rules the
// client checks before sending
func (s *Server) bind(c *gin.Context, v interface{}) bool {
	if err := c.ShouldBindJSON(v); err != nil {
		abortError(c, http.StatusBadRequest, "invalid_body", err.Error())
		return false
	}
	if err := s.validate.Struct(v); err != nil {
		abortError(c, http.StatusUnprocessableEntity, "validation_failed", err.Error())
		return false
	}
	return true
}

func pathID(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		abortError(c, http.StatusBadRequest, "invalid_id", "id must be a number")
		return 0, false
	}
	return id, true
}

func optionalID(c *gin.Context, name string) (*int, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	id, err := strconv.Atoi(raw)
	if err != nil {
		abortError(c, http.StatusBadRequest, "invalid_"+name, name+" must be a number")
		return nil, false
	}
	return &id, true
}

func storeError(c *gin.Context, what string, err error) {
	switch {
	case errors.Is(err, errNotFound):
		abortError(c, http.StatusNotFound, "not_found", what+" not found")
	case errors.Is(err, errConflict):
		abortError(c, http.StatusConflict, "conflict", what+" was already handled")
	default:
		abortError(c, http.StatusInternalServerError, "internal", err.Error())
	}
}
