package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/zfogg/dormdesk/pkg/client"
	"github.com/zfogg/dormdesk/pkg/logger"
)

// ExchangeCode trades an authorization code for a session cookie
func (a *API) ExchangeCode(ctx context.Context, code, state string) error {
	logger.Debug("Exchanging authorization code")

	q := url.Values{}
	q.Set("code", code)
	q.Set("state", state)
	_, err := a.c.Do(ctx, "/auth/callback", client.RequestOptions{
		Method:           http.MethodGet,
		Query:            q,
		SkipAuthHandling: true,
		SkipSessionTouch: true,
	})
	return err
}

// Logout invalidates the server session
func (a *API) Logout(ctx context.Context) error {
	logger.Debug("Logging out on server")

	_, err := a.c.Do(ctx, "/auth/logout", client.RequestOptions{
		Method:           http.MethodPost,
		SkipAuthHandling: true,
		SkipSessionTouch: true,
	})
	return err
}
