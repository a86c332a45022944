package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Kind tags a Result so callers must branch on the outcome instead of
// inspecting the payload for an error marker.
type Kind int

const (
	// KindOK is a 2xx response.
	KindOK Kind = iota
	// KindAuth is an HTTP 401. The session sink has already been told
	// to log out by the time the caller sees this.
	KindAuth
	// KindServer is any other non-2xx response carrying the
	// server-defined error body.
	KindServer
)

// Result bundles the response outcome with the raw body. Transport
// failures never produce a Result; they surface as *NetworkError.
type Result struct {
	Kind   Kind
	Status int
	Body   []byte
}

// OK reports whether the request succeeded at the HTTP level.
func (r Result) OK() bool { return r.Kind == KindOK }

// Decode unmarshals the body into v.
func (r Result) Decode(v any) error {
	if len(r.Body) == 0 {
		return fmt.Errorf("decode response: empty body")
	}
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// NetworkError means no server response was received at all.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string { return "network error: " + e.Err.Error() }

func (e *NetworkError) Unwrap() error { return e.Err }

// SessionSink receives the centralized logout signal on HTTP 401.
type SessionSink interface {
	Logout()
}

// Gateway issues REST requests with auth-token injection, fixed
// locale/IP headers and a uniform result contract.
type Gateway struct {
	baseURL string
	lang    string
	ip      string
	http    *http.Client
	sink    SessionSink
	log     *zap.Logger
}

// New constructs a Gateway. The caller IP is resolved once here; a
// resolver failure leaves the header empty and is only logged.
func New(baseURL, lang, ipResolverURL string, timeout time.Duration, sink SessionSink, log *zap.Logger) *Gateway {
	g := &Gateway{
		baseURL: strings.TrimRight(baseURL, "/"),
		lang:    lang,
		http:    &http.Client{Timeout: timeout},
		sink:    sink,
		log:     log,
	}
	g.ip = resolveIP(g.http, ipResolverURL, log)
	return g
}

func resolveIP(c *http.Client, resolverURL string, log *zap.Logger) string {
	if resolverURL == "" {
		return ""
	}

	resp, err := c.Get(resolverURL)
	if err != nil {
		log.Warn("ip resolution failed", zap.Error(err))
		return ""
	}
	defer resp.Body.Close()

	var payload struct {
		IP string `json:"ip"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		log.Warn("ip resolution decode failed", zap.Error(err))
		return ""
	}
	return payload.IP
}

// Get issues a GET with params encoded into the query string.
func (g *Gateway) Get(ctx context.Context, path string, params map[string]string, token string) (Result, error) {
	target := g.baseURL + path
	if len(params) > 0 {
		values := url.Values{}
		for k, v := range params {
			values.Set(k, v)
		}
		target += "?" + values.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return Result{}, fmt.Errorf("create request: %w", err)
	}
	return g.do(req, token, "application/json")
}

// Post issues a POST with a JSON body.
func (g *Gateway) Post(ctx context.Context, path string, payload any, token string) (Result, error) {
	return g.sendJSON(ctx, http.MethodPost, path, payload, token)
}

// Put issues a PUT with a JSON body.
func (g *Gateway) Put(ctx context.Context, path string, payload any, token string) (Result, error) {
	return g.sendJSON(ctx, http.MethodPut, path, payload, token)
}

// Patch issues a PATCH with a JSON body.
func (g *Gateway) Patch(ctx context.Context, path string, payload any, token string) (Result, error) {
	return g.sendJSON(ctx, http.MethodPatch, path, payload, token)
}

// Delete issues a DELETE without a body.
func (g *Gateway) Delete(ctx context.Context, path string, token string) (Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, g.baseURL+path, nil)
	if err != nil {
		return Result{}, fmt.Errorf("create request: %w", err)
	}
	return g.do(req, token, "application/json")
}

// PostMultipart issues a POST with a multipart form body. The payload
// is passed through as form fields, not JSON-serialized.
func (g *Gateway) PostMultipart(ctx context.Context, path string, fields map[string]string, token string) (Result, error) {
	return g.sendMultipart(ctx, http.MethodPost, path, fields, token)
}

// PutMultipart issues a PUT with a multipart form body.
func (g *Gateway) PutMultipart(ctx context.Context, path string, fields map[string]string, token string) (Result, error) {
	return g.sendMultipart(ctx, http.MethodPut, path, fields, token)
}

func (g *Gateway) sendJSON(ctx context.Context, method, path string, payload any, token string) (Result, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return Result{}, fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, g.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return Result{}, fmt.Errorf("create request: %w", err)
	}
	return g.do(req, token, "application/json")
}

func (g *Gateway) sendMultipart(ctx context.Context, method, path string, fields map[string]string, token string) (Result, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := writer.WriteField(k, v); err != nil {
			return Result{}, fmt.Errorf("write form field %s: %w", k, err)
		}
	}
	if err := writer.Close(); err != nil {
		return Result{}, fmt.Errorf("close form writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, g.baseURL+path, &buf)
	if err != nil {
		return Result{}, fmt.Errorf("create request: %w", err)
	}
	return g.do(req, token, writer.FormDataContentType())
}

func (g *Gateway) do(req *http.Request, token, contentType string) (Result, error) {
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("lang", g.lang)
	req.Header.Set("ipAddress", g.ip)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := g.http.Do(req)
	if err != nil {
		return Result{}, &NetworkError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{}, &NetworkError{Err: err}
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return Result{Kind: KindOK, Status: resp.StatusCode, Body: body}, nil
	}

	if resp.StatusCode == http.StatusUnauthorized {
		g.log.Warn("unauthorized response, clearing session",
			zap.String("path", req.URL.Path))
		if g.sink != nil {
			g.sink.Logout()
		}
		return Result{Kind: KindAuth, Status: resp.StatusCode, Body: body}, nil
	}

	return Result{Kind: KindServer, Status: resp.StatusCode, Body: body}, nil
}
