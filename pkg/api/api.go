// Package api wraps the dormitory REST endpoints on top of the shared
// request client.
package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/zfogg/dormdesk/pkg/client"
	"github.com/zfogg/dormdesk/pkg/logger"
)

// Requester is the shared request function
type Requester interface {
	Do(ctx context.Context, path string, opts client.RequestOptions) (*client.Payload, error)
}

// API exposes typed endpoint wrappers
type API struct {
	c        Requester
	validate *validator.Validate
}

// New creates an API over a requester
func New(c Requester) *API {
	return &API{c: c, validate: validator.New(validator.WithRequiredStructEnabled())}
}

// ValidationError wraps a payload rejected before it was sent
type ValidationError struct {
	Err error
}

func (e *ValidationError) Error() string {
	return "invalid request: " + e.Err.Error()
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

func (a *API) check(v interface{}) error {
	if err := a.validate.Struct(v); err != nil {
		return &ValidationError{Err: err}
	}
	return nil
}

func (a *API) call(ctx context.Context, method, path string, query url.Values, body, out interface{}) error {
	payload, err := a.c.Do(ctx, path, client.RequestOptions{
		Method: method,
		Query:  query,
		Body:   body,
	})
	if err != nil {
		return err
	}
	if payload == nil || out == nil {
		return nil
	}
	if err := payload.Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

func (p Page) values() url.Values {
	q := url.Values{}
	if p.Page > 0 {
		q.Set("page", strconv.Itoa(p.Page))
	}
	if p.Limit > 0 {
		q.Set("limit", strconv.Itoa(p.Limit))
	}
	return q
}

// Probe asks the server whether the session cookie is still honoured. It
// fetches one room and opts out of both 401 handling and session
// bookkeeping, so a failure here never triggers the expiry notice.
func (a *API) Probe(ctx context.Context) error {
	logger.Debug("Probing session")
	_, err := a.c.Do(ctx, "/rooms", client.RequestOptions{
		Method:           http.MethodGet,
		Query:            Page{Page: 1, Limit: 1}.values(),
		SkipAuthHandling: true,
		SkipSessionTouch: true,
	})
	return err
}
