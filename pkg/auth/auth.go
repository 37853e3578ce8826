// Package auth implements the redirect-based login handshake: building the
// login URL, carrying the return target through the state parameter, and
// receiving the authorization callback on a loopback listener.
package auth

import (
	"context"
	"encoding/base64"
	"errors"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	json "github.com/json-iterator/go"
	"github.com/zfogg/dormdesk/pkg/logger"
)

// DefaultRedirect is where a login lands when the state carries no target
const DefaultRedirect = "/home"

// CallbackPath is the route the authorization server sends the browser to
const CallbackPath = "/auth/callback"

type statePayload struct {
	Redirect string `json:"redirect"`
	Nonce    string `json:"nonce,omitempty"`
}

// LoginURL builds the login address. callback, when set, is the loopback
// receiver the browser should return to.
func LoginURL(base, target, callback string) string {
	q := url.Values{}
	q.Set("redirect", target)
	if callback != "" {
		q.Set("callback", callback)
	}
	return strings.TrimRight(base, "/") + "/auth/login?" + q.Encode()
}

// EncodeState embeds a redirect target in an opaque state value
func EncodeState(redirect string) string {
	data, _ := json.Marshal(statePayload{Redirect: redirect, Nonce: uuid.NewString()})
	return base64.RawURLEncoding.EncodeToString(data)
}

// DecodeState extracts the redirect target, falling back to DefaultRedirect.
// Only same-site paths are accepted as targets.
func DecodeState(state string) string {
	data, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(state, "="))
	if err != nil {
		return DefaultRedirect
	}
	var p statePayload
	if err := json.Unmarshal(data, &p); err != nil {
		return DefaultRedirect
	}
	if !strings.HasPrefix(p.Redirect, "/") || strings.HasPrefix(p.Redirect, "//") {
		return DefaultRedirect
	}
	return p.Redirect
}

// Callback is what the authorization server hands back
type Callback struct {
	Code  string
	State string
}

// ParseCallbackURL reads code and state from a pasted callback address
func ParseCallbackURL(raw string) (Callback, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return Callback{}, err
	}
	cb := Callback{Code: u.Query().Get("code"), State: u.Query().Get("state")}
	if cb.Code == "" {
		return Callback{}, errors.New("callback url has no code parameter")
	}
	return cb, nil
}

// Receiver listens on loopback for a single authorization callback
type Receiver struct {
	listener net.Listener
	server   *http.Server
	results  chan Callback
}

// NewReceiver starts a receiver on addr, e.g. "127.0.0.1:0"
func NewReceiver(addr string) (*Receiver, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}

	// Route listings from debug mode would land in the user's terminal
	if gin.Mode() == gin.DebugMode {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())

	r := &Receiver{listener: ln, results: make(chan Callback, 1)}
	engine.GET(CallbackPath, r.handle)
	r.server = &http.Server{Handler: engine, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := r.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("Login callback receiver stopped", "error", err)
		}
	}()
	return r, nil
}

func (r *Receiver) handle(c *gin.Context) {
	cb := Callback{Code: c.Query("code"), State: c.Query("state")}
	if cb.Code == "" {
		c.String(http.StatusBadRequest, "missing code\n")
		return
	}
	select {
	case r.results <- cb:
	default:
	}
	c.String(http.StatusOK, "dormdesk: sign-in received, you can close this window.\n")
}

// URL is the callback address to give the authorization server
func (r *Receiver) URL() string {
	return "http://" + r.listener.Addr().String() + CallbackPath
}

// Wait blocks until the callback arrives or ctx is done
func (r *Receiver) Wait(ctx context.Context) (Callback, error) {
	select {
	case cb := <-r.results:
		return cb, nil
	case <-ctx.Done():
		return Callback{}, ctx.Err()
	}
}

// Close stops the listener
func (r *Receiver) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	return r.server.Shutdown(ctx)
}
