package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"github.com/zfogg/dormdesk/pkg/logger"
)

const userAgent = "dormdesk/0.3.0"

// Observer receives session bookkeeping from every request made through a
// Client. The session manager implements it.
type Observer interface {
	// OnAuthorized is called after a successful response.
	OnAuthorized()
	// OnUnauthorized is called once per 401 response.
	OnUnauthorized()
}

// Notifier shows the session-expired notice and sends the user to login.
type Notifier interface {
	SessionExpired(ctx context.Context)
}

// Options configures a Client
type Options struct {
	BaseURL string
	Timeout time.Duration
	// CookiePath persists the cookie jar between runs. Empty keeps cookies
	// in memory only.
	CookiePath string
}

// RequestOptions are the per-call options of Do
type RequestOptions struct {
	Method  string
	Query   url.Values
	Headers map[string]string
	// Body is sent as JSON unless it is url.Values, []byte, io.Reader or
	// *Multipart, in which case no content type is forced.
	Body interface{}
	// SkipAuthHandling suppresses session invalidation and the expiry
	// notice on 401.
	SkipAuthHandling bool
	// SkipSessionTouch suppresses the verification refresh on success.
	SkipSessionTouch bool
}

// Client is the single path every backend call goes through
type Client struct {
	http    *resty.Client
	baseURL string
	jar     *Jar

	mu       sync.RWMutex
	observer Observer
	notifier Notifier
	route    func() string
}

// New creates a client for the configured backend
func New(opts Options) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(opts.BaseURL, "/"))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid api base url %q", opts.BaseURL)
	}

	jar, err := NewJar(base, opts.CookiePath)
	if err != nil {
		return nil, err
	}

	c := &Client{
		http:    resty.New(),
		baseURL: base.String(),
		jar:     jar,
	}

	if opts.Timeout > 0 {
		c.http.SetTimeout(opts.Timeout)
	}
	c.http.SetCookieJar(jar)
	c.http.SetHeader("User-Agent", userAgent)
	c.http.SetHeader("Accept", "application/json, text/plain, */*")

	c.http.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
		if req.Header.Get("X-Request-ID") == "" {
			req.Header.Set("X-Request-ID", uuid.NewString())
		}
		logger.Debug("HTTP Request", "method", req.Method, "url", req.URL, "request_id", req.Header.Get("X-Request-ID"))
		return nil
	})

	c.http.OnAfterResponse(func(_ *resty.Client, resp *resty.Response) error {
		logger.Debug("HTTP Response", "status", resp.StatusCode(), "duration", resp.Time())
		if err := c.jar.Save(); err != nil {
			logger.Warn("Failed to persist cookies", "error", err)
		}
		return nil
	})

	return c, nil
}

// BaseURL returns the configured backend address
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Jar returns the cookie jar shared by all requests
func (c *Client) Jar() *Jar {
	return c.jar
}

// SetObserver registers the session bookkeeping target
func (c *Client) SetObserver(o Observer) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.observer = o
}

// SetNotifier registers the session-expired notice
func (c *Client) SetNotifier(n Notifier) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.notifier = n
}

// SetRoute registers a function reporting the route the user is on
func (c *Client) SetRoute(fn func() string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.route = fn
}

// Resolve turns a path into a request URL. Absolute URLs pass through.
func (c *Client) Resolve(path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	if path == "" {
		return c.baseURL
	}
	return c.baseURL + "/" + strings.TrimLeft(path, "/")
}

// Do performs a request and decodes the response. A nil payload with a nil
// error means the response had no body.
func (c *Client) Do(ctx context.Context, path string, opts RequestOptions) (*Payload, error) {
	method := opts.Method
	if method == "" {
		method = http.MethodGet
	}
	target := c.Resolve(path)

	req := c.http.R().SetContext(ctx)
	for k, v := range opts.Headers {
		req.SetHeader(k, v)
	}
	if len(opts.Query) > 0 {
		req.SetQueryParamsFromValues(opts.Query)
	}
	if err := applyBody(req, opts.Body); err != nil {
		return nil, err
	}

	resp, err := req.Execute(method, target)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, target, err)
	}

	c.mu.RLock()
	observer, notifier, route := c.observer, c.notifier, c.route
	c.mu.RUnlock()

	if !resp.IsSuccess() {
		apiErr := ParseError(resp)

		if resp.StatusCode() == http.StatusUnauthorized && !opts.SkipAuthHandling {
			if observer != nil {
				observer.OnUnauthorized()
			}
			current := ""
			if route != nil {
				current = route()
			}
			if notifier != nil && !IsAuthRoute(current) {
				notifier.SessionExpired(ctx)
			}
		}

		logger.Debug("Request failed", "method", method, "url", target, "status", apiErr.StatusCode)
		return nil, apiErr
	}

	if observer != nil && !opts.SkipSessionTouch {
		observer.OnAuthorized()
	}

	return decodePayload(resp.StatusCode(), resp.Header().Get("Content-Type"), resp.Body()), nil
}

// DoJSON performs a request and decodes a JSON response into out. Empty
// responses leave out untouched.
func (c *Client) DoJSON(ctx context.Context, path string, opts RequestOptions, out interface{}) error {
	payload, err := c.Do(ctx, path, opts)
	if err != nil {
		return err
	}
	if payload == nil || out == nil {
		return nil
	}
	return payload.Decode(out)
}

// IsAuthRoute reports whether a route belongs to the authentication flow
func IsAuthRoute(route string) bool {
	route = "/" + strings.Trim(route, "/")
	return route == "/auth" || strings.HasPrefix(route, "/auth/") ||
		route == "/login" || strings.HasPrefix(route, "/login/")
}
