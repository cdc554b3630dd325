// ABOUTME: JSON transport over resty for the CRM REST API
// ABOUTME: One attempt per call, uniform HTTPError on non-2xx, request ids on every call
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"
)

const requestIDHeader = "X-Request-ID"

// Transport performs JSON requests relative to a base URL.
type Transport struct {
	rc     *resty.Client
	logger zerolog.Logger
	debug  bool
}

func newTransport(baseURL string, httpClient *http.Client, logger zerolog.Logger, debug bool, userAgent string) *Transport {
	rc := resty.NewWithClient(httpClient).
		SetBaseURL(baseURL).
		SetHeader("Accept", "application/json").
		SetRetryCount(0)
	if userAgent != "" {
		rc.SetHeader("User-Agent", userAgent)
	}

	t := &Transport{rc: rc, logger: logger, debug: debug}

	rc.OnBeforeRequest(func(_ *resty.Client, r *resty.Request) error {
		if r.Header.Get(requestIDHeader) == "" {
			r.SetHeader(requestIDHeader, ulid.Make().String())
		}
		return nil
	})
	rc.OnAfterResponse(func(_ *resty.Client, resp *resty.Response) error {
		if t.debug {
			t.logger.Debug().
				Str("method", resp.Request.Method).
				Str("url", resp.Request.URL).
				Str("request_id", resp.Request.Header.Get(requestIDHeader)).
				Int("status", resp.StatusCode()).
				Dur("duration", resp.Time()).
				Msg("crm response")
		}
		return nil
	})
	rc.OnError(func(r *resty.Request, err error) {
		t.logger.Warn().Err(err).
			Str("method", r.Method).
			Str("url", r.URL).
			Str("request_id", r.Header.Get(requestIDHeader)).
			Msg("crm request failed")
	})

	return t
}

func (t *Transport) GetJSON(ctx context.Context, path, action string, out any) error {
	return t.do(ctx, http.MethodGet, path, action, nil, out)
}

func (t *Transport) PostJSON(ctx context.Context, path, action string, body, out any) error {
	return t.do(ctx, http.MethodPost, path, action, body, out)
}

func (t *Transport) PatchJSON(ctx context.Context, path, action string, body, out any) error {
	return t.do(ctx, http.MethodPatch, path, action, body, out)
}

func (t *Transport) DeleteJSON(ctx context.Context, path, action string, out any) error {
	return t.do(ctx, http.MethodDelete, path, action, nil, out)
}

func (t *Transport) do(ctx context.Context, method, path, action string, body, out any) error {
	req := t.rc.R().SetContext(ctx)
	if body != nil {
		req.SetHeader("Content-Type", "application/json").SetBody(body)
	}

	start := time.Now()
	resp, err := req.Execute(method, path)
	if err != nil {
		return &HTTPError{Action: action, Err: err}
	}
	if !resp.IsSuccess() {
		t.logger.Debug().
			Str("action", action).
			Int("status", resp.StatusCode()).
			Dur("elapsed", time.Since(start)).
			Msg("crm request rejected")
		return &HTTPError{Action: action, StatusCode: resp.StatusCode(), Body: string(resp.Body())}
	}

	raw := resp.Body()
	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &HTTPError{
			Action:     action,
			StatusCode: resp.StatusCode(),
			Err:        fmt.Errorf("decode response: %w", err),
		}
	}
	return nil
}
