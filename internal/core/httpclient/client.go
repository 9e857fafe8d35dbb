// Package httpclient configures outbound HTTP and calls the session API of a
// running geomap server.
package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/mohammed-shakir/geomap-sync/internal/core/router"
)

// NewOutbound creates a new outbound http client
func NewOutbound() *http.Client {
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           (&net.Dialer{Timeout: 5 * time.Second, KeepAlive: 30 * time.Second}).DialContext,
		MaxIdleConns:          16,
		MaxIdleConnsPerHost:   4,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   5 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
	return &http.Client{
		Transport: transport,
		Timeout:   30 * time.Second,
	}
}

// StatusError is a non-2xx answer from the server.
type StatusError struct {
	Code int
	Msg  string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("server answered %d: %s", e.Code, e.Msg)
}

type Session struct {
	base string
	hc   *http.Client
}

// NewSession addresses the server at base; hc nil uses NewOutbound.
func NewSession(base string, hc *http.Client) *Session {
	if hc == nil {
		hc = NewOutbound()
	}
	return &Session{base: strings.TrimRight(base, "/"), hc: hc}
}

func (s *Session) Viewport(ctx context.Context) (router.ViewportState, error) {
	var st router.ViewportState
	err := s.do(ctx, http.MethodGet, "/viewport", nil, &st)
	return st, err
}

func (s *Session) SetViewport(ctx context.Context, u router.ViewportUpdate) (router.ViewportState, error) {
	var st router.ViewportState
	err := s.do(ctx, http.MethodPut, "/viewport", u, &st)
	return st, err
}

func (s *Session) Gesture(ctx context.Context, g router.Gesture) (router.ViewportState, error) {
	var st router.ViewportState
	err := s.do(ctx, http.MethodPost, "/viewport/gesture", g, &st)
	return st, err
}

func (s *Session) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, s.base+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	res, err := s.hc.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode/100 != 2 {
		var e struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(io.LimitReader(res.Body, 1<<16)).Decode(&e)
		return &StatusError{Code: res.StatusCode, Msg: e.Error}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
