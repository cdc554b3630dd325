// ABOUTME: CRM API client construction and functional options
// ABOUTME: Wires bearer auth, timeouts and debug logging beneath the JSON transport
package api

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
)

// DefaultBasePath is where the CRM routes are mounted on the web app.
const DefaultBasePath = "/api/user/crm"

// Client exposes one method per CRM REST operation.
type Client struct {
	t        *Transport
	basePath string

	httpClient *http.Client
	timeout    *time.Duration
	apiKey     string
	logger     zerolog.Logger
	debug      bool
	userAgent  string
}

// Option configures a Client during construction in New.
type Option func(*Client) error

// WithAPIKey sends key as a bearer token on every request.
func WithAPIKey(key string) Option {
	return func(c *Client) error {
		c.apiKey = strings.TrimSpace(key)
		return nil
	}
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) error {
		if hc == nil {
			return fmt.Errorf("http client must not be nil")
		}
		c.httpClient = hc
		return nil
	}
}

// WithTimeout bounds every request. Zero leaves requests bounded only by their
// context. A client passed to WithHTTPClient is copied, never modified.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) error {
		if d < 0 {
			return fmt.Errorf("timeout must be >= 0")
		}
		c.timeout = &d
		return nil
	}
}

func WithLogger(l zerolog.Logger) Option {
	return func(c *Client) error {
		c.logger = l
		return nil
	}
}

// WithDebug logs every response at debug level.
func WithDebug(enabled bool) Option {
	return func(c *Client) error {
		c.debug = enabled
		return nil
	}
}

func WithBasePath(p string) Option {
	return func(c *Client) error {
		c.basePath = "/" + strings.Trim(p, "/")
		return nil
	}
}

func WithUserAgent(ua string) Option {
	return func(c *Client) error {
		c.userAgent = ua
		return nil
	}
}

// New builds a Client for the web app at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid base url %q", baseURL)
	}

	c := &Client{
		basePath:   DefaultBasePath,
		httpClient: &http.Client{},
		logger:     zerolog.Nop(),
		userAgent:  "crmview",
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}

	cp := *c.httpClient
	hc := &cp
	if c.timeout != nil {
		hc.Timeout = *c.timeout
	}
	if c.apiKey != "" {
		base := hc.Transport
		if base == nil {
			base = http.DefaultTransport
		}
		hc = &http.Client{
			Timeout:       hc.Timeout,
			CheckRedirect: hc.CheckRedirect,
			Jar:           hc.Jar,
			Transport: &oauth2.Transport{
				Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: c.apiKey, TokenType: "Bearer"}),
				Base:   base,
			},
		}
	}

	c.t = newTransport(strings.TrimRight(baseURL, "/"), hc, c.logger.With().Str("component", "api").Logger(), c.debug, c.userAgent)
	return c, nil
}

// Transport exposes the underlying JSON transport.
func (c *Client) Transport() *Transport {
	return c.t
}

// BasePath is the mount point every resource path is built from.
func (c *Client) BasePath() string {
	return c.basePath
}

func (c *Client) path(parts ...string) string {
	return c.basePath + "/" + strings.Join(parts, "/")
}
