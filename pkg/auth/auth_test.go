package auth

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoginURL(t *testing.T) {
	raw := LoginURL("http://api.dorm.test/", "/rollcall/show", "http://127.0.0.1:5555/auth/callback")

	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "/auth/login", u.Path)
	assert.Equal(t, "/rollcall/show", u.Query().Get("redirect"))
	assert.Equal(t, "http://127.0.0.1:5555/auth/callback", u.Query().Get("callback"))

	assert.NotContains(t, LoginURL("http://api.dorm.test", "/home", ""), "callback=")
}

func TestStateRoundTrip(t *testing.T) {
	assert.Equal(t, "/parcels/list", DecodeState(EncodeState("/parcels/list")))
}

func TestDecodeStateDefaults(t *testing.T) {
	cases := map[string]string{
		"empty":         "",
		"not base64":    "%%%",
		"not json":      "bm90IGpzb24",
		"no redirect":   EncodeState(""),
		"absolute url":  EncodeState("https://evil.example/phish"),
		"protocol less": EncodeState("//evil.example"),
	}
	for name, state := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, DefaultRedirect, DecodeState(state))
		})
	}
}

func TestParseCallbackURL(t *testing.T) {
	cb, err := ParseCallbackURL(" http://127.0.0.1:1/auth/callback?code=abc&state=xyz ")
	require.NoError(t, err)
	assert.Equal(t, Callback{Code: "abc", State: "xyz"}, cb)

	_, err = ParseCallbackURL("http://127.0.0.1:1/auth/callback?state=xyz")
	assert.Error(t, err)
}

func TestReceiver(t *testing.T) {
	r, err := NewReceiver("127.0.0.1:0")
	require.NoError(t, err)
	defer r.Close()

	go func() {
		resp, err := http.Get(r.URL() + "?code=c0de&state=" + EncodeState("/home"))
		if err == nil {
			resp.Body.Close()
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	cb, err := r.Wait(ctx)
	require.NoError(t, err)
	assert.Equal(t, "c0de", cb.Code)
	assert.Equal(t, "/home", DecodeState(cb.State))
}

func TestReceiverRejectsMissingCode(t *testing.T) {
	r, err := NewReceiver("127.0.0.1:0")
	require.NoError(t, err)
	defer r.Close()

	resp, err := http.Get(r.URL())
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = r.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestReceiverOnlyServesCallbackRoute(t *testing.T) {
	r, err := NewReceiver("127.0.0.1:0")
	require.NoError(t, err)
	defer r.Close()

	base := strings.TrimSuffix(r.URL(), CallbackPath)
	resp, err := http.Get(base + "/favicon.ico")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, err = http.Post(r.URL()+"?code=c0de", "text/plain", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.NotEqual(t, http.StatusOK, resp.StatusCode)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = r.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
