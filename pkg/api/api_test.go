package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zfogg/dormdesk/pkg/client"
)

type recordingObserver struct {
	authorized   atomic.Int32
	unauthorized atomic.Int32
}

func (o *recordingObserver) OnAuthorized()   { o.authorized.Add(1) }
func (o *recordingObserver) OnUnauthorized() { o.unauthorized.Add(1) }

func newTestAPI(t *testing.T, handler http.HandlerFunc) (*API, *recordingObserver) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := client.New(client.Options{BaseURL: srv.URL, Timeout: 5 * time.Second})
	require.NoError(t, err)
	obs := &recordingObserver{}
	c.SetObserver(obs)
	return New(c), obs
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func intPtr(v int) *int { return &v }

func TestProbeSkipsSessionBookkeeping(t *testing.T) {
	var query string
	a, obs := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		query = r.URL.RawQuery
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
	})

	err := a.Probe(context.Background())

	assert.True(t, client.IsUnauthorized(err))
	assert.Equal(t, "limit=1&page=1", query)
	assert.EqualValues(t, 0, obs.unauthorized.Load(), "the probe must not invalidate the session itself")
	assert.EqualValues(t, 0, obs.authorized.Load())
}

func TestProbeSuccess(t *testing.T) {
	a, obs := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, []Room{{ID: 1, Name: "101"}})
	})

	require.NoError(t, a.Probe(context.Background()))
	assert.EqualValues(t, 0, obs.authorized.Load())
}

func TestListRollcallsQuery(t *testing.T) {
	a, obs := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rollcalls", r.URL.Path)
		assert.Equal(t, "2025-01-15", r.URL.Query().Get("date"))
		assert.Equal(t, "3", r.URL.Query().Get("roomId"))
		writeJSON(w, http.StatusOK, []map[string]interface{}{
			{"id": 5, "studentId": 42, "date": "2025-01-15", "present": true},
			{"id": 9, "studentId": 42, "date": "2025-01-15", "present": false, "status": "LEAVE"},
		})
	})

	records, err := a.ListRollcalls(context.Background(), RollcallQuery{Date: "2025-01-15", RoomID: intPtr(3)})
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Nil(t, records[0].Status)
	require.NotNil(t, records[1].Status)
	assert.Equal(t, StatusLeave, *records[1].Status)
	assert.EqualValues(t, 1, obs.authorized.Load())
}

func TestUpsertRollcallSendsJSON(t *testing.T) {
	a, _ := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var in RollcallUpsert
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		status := in.Status
		writeJSON(w, http.StatusOK, RollcallRecord{ID: 10, StudentID: in.StudentID, Date: in.Date, Present: in.Present, Status: &status})
	})

	record, err := a.UpsertRollcall(context.Background(), RollcallUpsert{
		StudentID: 42, Date: "2025-01-15", Present: true, Status: StatusPresent, CleaningStatus: CleaningPass,
	})
	require.NoError(t, err)
	assert.Equal(t, 42, record.StudentID)
	assert.True(t, record.Present)
}

func TestUpsertRollcallValidation(t *testing.T) {
	var calls atomic.Int32
	a, _ := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	})

	cases := map[string]RollcallUpsert{
		"unresolved student": {StudentID: -1, Date: "2025-01-15"},
		"bad date":           {StudentID: 1, Date: "15/01/2025"},
		"unknown status":     {StudentID: 1, Date: "2025-01-15", Status: "LATE"},
		"unknown cleaning":   {StudentID: 1, Date: "2025-01-15", CleaningStatus: "DIRTY"},
		"note too long":      {StudentID: 1, Date: "2025-01-15", Note: strings.Repeat("x", 501)},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := a.UpsertRollcall(context.Background(), in)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			var fields validator.ValidationErrors
			assert.ErrorAs(t, err, &fields)
		})
	}
	assert.EqualValues(t, 0, calls.Load())
}

func TestServerErrorCarriesBody(t *testing.T) {
	a, _ := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusConflict, map[string]string{"code": "conflict", "message": "already picked up"})
	})

	_, err := a.MarkParcelPickedUp(context.Background(), 7)

	var apiErr *client.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusConflict, apiErr.StatusCode)
	assert.Equal(t, "already picked up", apiErr.Message)
}

func TestOvernightDecisionPaths(t *testing.T) {
	var paths []string
	a, _ := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		writeJSON(w, http.StatusOK, OvernightStay{ID: 3, Status: "APPROVED"})
	})

	_, err := a.ApproveOvernightStay(context.Background(), 3)
	require.NoError(t, err)
	_, err = a.RejectOvernightStay(context.Background(), 4, "no guardian consent")
	require.NoError(t, err)

	assert.Equal(t, []string{"/overnight-stays/3/approve", "/overnight-stays/4/reject"}, paths)
}

func TestBillUploadFlow(t *testing.T) {
	var storage *httptest.Server
	storage = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "image/jpeg", r.Header.Get("Content-Type"))
		data, _ := io.ReadAll(r.Body)
		assert.Equal(t, "jpeg-bytes", string(data))
		w.WriteHeader(http.StatusOK)
	}))
	defer storage.Close()

	a, obs := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/bills/presign":
			writeJSON(w, http.StatusOK, BillUpload{
				UploadURL:   storage.URL + "/bucket/bills/101-2025-01.jpg?sig=abc",
				ObjectKey:   "bills/101-2025-01.jpg",
				ContentType: "image/jpeg",
			})
		case "/bills":
			writeJSON(w, http.StatusCreated, Bill{ID: 1, RoomID: 101, Month: "2025-01", ObjectKey: "bills/101-2025-01.jpg"})
		default:
			http.NotFound(w, r)
		}
	})

	ctx := context.Background()
	upload, err := a.PresignBill(ctx, BillPresignRequest{RoomID: 101, Month: "2025-01", ContentType: "image/jpeg"})
	require.NoError(t, err)
	require.NoError(t, a.UploadObject(ctx, upload, strings.NewReader("jpeg-bytes")))
	bill, err := a.RegisterBill(ctx, BillInput{RoomID: 101, Month: "2025-01", ObjectKey: upload.ObjectKey})
	require.NoError(t, err)

	assert.Equal(t, "bills/101-2025-01.jpg", bill.ObjectKey)
	assert.EqualValues(t, 2, obs.authorized.Load(), "the storage upload does not count as a session touch")
}

func TestLogoutIgnoresSessionHandling(t *testing.T) {
	a, obs := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/logout", r.URL.Path)
		w.WriteHeader(http.StatusUnauthorized)
	})

	err := a.Logout(context.Background())
	assert.Error(t, err)
	assert.EqualValues(t, 0, obs.unauthorized.Load())
}

func TestExchangeCode(t *testing.T) {
	a, _ := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/callback", r.URL.Path)
		assert.Equal(t, "abc", r.URL.Query().Get("code"))
		assert.Equal(t, "st", r.URL.Query().Get("state"))
		http.SetCookie(w, &http.Cookie{Name: "dormdesk_session", Value: "jwt", Path: "/"})
		w.WriteHeader(http.StatusNoContent)
	})

	require.NoError(t, a.ExchangeCode(context.Background(), "abc", "st"))
}
