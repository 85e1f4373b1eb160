// Package api is the HTTP client facade renderers reach through api:request.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/cristianoliveira/deskbridge/internal/errors"
	"github.com/cristianoliveira/deskbridge/internal/ipc"
	"github.com/cristianoliveira/deskbridge/internal/logging"
	"github.com/cristianoliveira/deskbridge/internal/version"
)

// Defaults used when the configuration leaves them out.
const (
	DefaultBaseURL = "https://jsonplaceholder.typicode.com"
	DefaultTimeout = 10 * time.Second
)

const authHeader = "Authorization"

var methods = map[string]bool{
	http.MethodGet:    true,
	http.MethodPost:   true,
	http.MethodPut:    true,
	http.MethodDelete: true,
	http.MethodPatch:  true,
}

// RequestConfig is the payload of api:request.
type RequestConfig struct {
	URL     string            `json:"url"`
	Method  string            `json:"method,omitempty"`
	Data    json.RawMessage   `json:"data,omitempty"`
	Headers map[string]string `json:"headers,omitempty"`
	// Timeout in milliseconds; zero uses the client default.
	Timeout int            `json:"timeout,omitempty"`
	Params  map[string]any `json:"params,omitempty"`
}

// FailureData accompanies unsuccessful envelopes.
type FailureData struct {
	StatusCode    int    `json:"statusCode"`
	OriginalError string `json:"originalError"`
}

// Config is the client configuration snapshot.
type Config struct {
	BaseURL string            `json:"baseURL"`
	Timeout int64             `json:"timeout"`
	Headers map[string]string `json:"headers"`
}

// Client wraps net/http with a base URL, default headers and envelope results.
type Client struct {
	http *http.Client
	log  logging.Logger

	mu      sync.RWMutex
	baseURL string
	timeout time.Duration
	headers map[string]string
}

// New returns a client. Empty baseURL or non-positive timeout select the
// defaults.
func New(baseURL string, timeout time.Duration, log logging.Logger) *Client {
	if log == nil {
		log = logging.Discard()
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		http:    &http.Client{},
		log:     log.With("component", "api"),
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: timeout,
		headers: map[string]string{
			"Content-Type": "application/json",
			"User-Agent":   "deskbridge/" + version.Version,
		},
	}
}

// SetBaseURL changes the base URL for relative request URLs.
func (c *Client) SetBaseURL(base string) {
	c.mu.Lock()
	c.baseURL = strings.TrimRight(base, "/")
	c.mu.Unlock()
	c.log.Info("api base url updated", "baseURL", base)
}

// SetTimeout changes the default request timeout.
func (c *Client) SetTimeout(d time.Duration) {
	c.mu.Lock()
	c.timeout = d
	c.mu.Unlock()
	c.log.Info("api timeout updated", "timeout", d.String())
}

// SetDefaultHeaders merges headers into the defaults.
func (c *Client) SetDefaultHeaders(headers map[string]string) {
	c.mu.Lock()
	for k, v := range headers {
		c.headers[k] = v
	}
	c.mu.Unlock()
	c.log.Info("api default headers updated", "headers", headers)
}

// SetAuthToken sends token as a bearer Authorization header.
func (c *Client) SetAuthToken(token string) {
	c.mu.Lock()
	c.headers[authHeader] = "Bearer " + token
	c.mu.Unlock()
	c.log.Info("api auth token set")
}

// RemoveAuthToken drops the Authorization header.
func (c *Client) RemoveAuthToken() {
	c.mu.Lock()
	delete(c.headers, authHeader)
	c.mu.Unlock()
	c.log.Info("api auth token removed")
}

// Config returns the current configuration.
func (c *Client) Config() Config {
	c.mu.RLock()
	defer c.mu.RUnlock()
	headers := make(map[string]string, len(c.headers))
	for k, v := range c.headers {
		headers[k] = v
	}
	return Config{BaseURL: c.baseURL, Timeout: c.timeout.Milliseconds(), Headers: headers}
}

// Request performs rc and wraps the outcome in an envelope.
func (c *Client) Request(ctx context.Context, rc RequestConfig) ipc.Envelope {
	req, cancel, err := c.build(ctx, rc)
	if err != nil {
		return ipc.FailData(errors.Validation("api:request", "invalid request: %v", err),
			FailureData{OriginalError: err.Error()})
	}
	defer cancel()
	return c.do(req)
}

func (c *Client) Get(ctx context.Context, path string, params map[string]any) ipc.Envelope {
	return c.Request(ctx, RequestConfig{URL: path, Method: http.MethodGet, Params: params})
}

func (c *Client) Post(ctx context.Context, path string, data any) ipc.Envelope {
	return c.withBody(ctx, http.MethodPost, path, data)
}

func (c *Client) Put(ctx context.Context, path string, data any) ipc.Envelope {
	return c.withBody(ctx, http.MethodPut, path, data)
}

func (c *Client) Patch(ctx context.Context, path string, data any) ipc.Envelope {
	return c.withBody(ctx, http.MethodPatch, path, data)
}

func (c *Client) Delete(ctx context.Context, path string) ipc.Envelope {
	return c.Request(ctx, RequestConfig{URL: path, Method: http.MethodDelete})
}

func (c *Client) withBody(ctx context.Context, method, path string, data any) ipc.Envelope {
	raw, err := json.Marshal(data)
	if err != nil {
		return ipc.Fail(errors.Validation("api:request", "invalid request: %v", err))
	}
	return c.Request(ctx, RequestConfig{URL: path, Method: method, Data: raw})
}

// Batch runs every request concurrently and returns their envelopes in
// request order.
func (c *Client) Batch(ctx context.Context, list []RequestConfig) ipc.Envelope {
	results := make([]ipc.Envelope, len(list))
	var wg sync.WaitGroup
	for i, rc := range list {
		wg.Add(1)
		go func(i int, rc RequestConfig) {
			defer wg.Done()
			results[i] = c.Request(ctx, rc)
		}(i, rc)
	}
	wg.Wait()

	ok := 0
	for _, r := range results {
		if r.Success {
			ok++
		}
	}
	if ok < len(list) {
		c.log.Warn("batch partially failed", "succeeded", ok, "total", len(list))
	}
	return ipc.OKMessage(results, fmt.Sprintf("batch completed: %d/%d succeeded", ok, len(list)))
}

// TestConnection probes the base URL.
func (c *Client) TestConnection(ctx context.Context) ipc.Envelope {
	if env := c.Get(ctx, "/users/1", nil); !env.Success {
		env := ipc.Failf("network connection failed")
		env.Data = json.RawMessage("false")
		return env
	}
	return ipc.OKMessage(true, "network connection ok")
}

// Download streams the body of url into w. progress, when not nil,
// receives whole percentages as they advance; it is only called when the
// server announces the content length.
func (c *Client) Download(ctx context.Context, rawURL string, w io.Writer, progress func(pct int)) (int64, error) {
	req, cancel, err := c.build(ctx, RequestConfig{URL: rawURL, Method: http.MethodGet})
	if err != nil {
		return 0, errors.Validation("api:download", "invalid request: %v", err)
	}
	defer cancel()
	req.Header.Del("Content-Type")

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, errors.HostIO("api:download", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusBadRequest {
		return 0, errors.HostIO("api:download", fmt.Errorf("server error (%d): %s", resp.StatusCode, http.StatusText(resp.StatusCode)))
	}

	var dst io.Writer = w
	if progress != nil && resp.ContentLength > 0 {
		dst = &progressWriter{w: w, total: resp.ContentLength, fn: progress, last: -1}
	}
	n, err := io.Copy(dst, resp.Body)
	if err != nil {
		return n, errors.HostIO("api:download", err)
	}
	c.log.Info("download completed", "url", req.URL.String(), "bytes", n)
	return n, nil
}

// Upload posts r as a multipart form file field named "file".
func (c *Client) Upload(ctx context.Context, path, filename string, r io.Reader) ipc.Envelope {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", filename)
	if err == nil {
		_, err = io.Copy(part, r)
	}
	if err == nil {
		err = mw.Close()
	}
	if err != nil {
		return ipc.Fail(errors.Validation("api:upload", "invalid request: %v", err))
	}

	req, cancel, err := c.build(ctx, RequestConfig{URL: path, Method: http.MethodPost})
	if err != nil {
		return ipc.Fail(errors.Validation("api:upload", "invalid request: %v", err))
	}
	defer cancel()
	req.Body = io.NopCloser(&body)
	req.ContentLength = int64(body.Len())
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return c.do(req)
}

func (c *Client) build(ctx context.Context, rc RequestConfig) (*http.Request, context.CancelFunc, error) {
	method := strings.ToUpper(rc.Method)
	if method == "" {
		method = http.MethodGet
	}
	if !methods[method] {
		return nil, nil, fmt.Errorf("unsupported method %s", rc.Method)
	}
	if strings.TrimSpace(rc.URL) == "" {
		return nil, nil, fmt.Errorf("url is required")
	}

	c.mu.RLock()
	base, timeout := c.baseURL, c.timeout
	headers := make(map[string]string, len(c.headers))
	for k, v := range c.headers {
		headers[k] = v
	}
	c.mu.RUnlock()

	target := rc.URL
	if !strings.HasPrefix(target, "http://") && !strings.HasPrefix(target, "https://") {
		target = base + "/" + strings.TrimLeft(target, "/")
	}
	u, err := url.Parse(target)
	if err != nil {
		return nil, nil, err
	}
	if len(rc.Params) > 0 {
		q := u.Query()
		keys := make([]string, 0, len(rc.Params))
		for k := range rc.Params {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			q.Set(k, fmt.Sprint(rc.Params[k]))
		}
		u.RawQuery = q.Encode()
	}

	if rc.Timeout > 0 {
		timeout = time.Duration(rc.Timeout) * time.Millisecond
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)

	var body io.Reader
	if len(rc.Data) > 0 && method != http.MethodGet {
		body = bytes.NewReader(rc.Data)
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		cancel()
		return nil, nil, err
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	for k, v := range rc.Headers {
		req.Header.Set(k, v)
	}
	return req, cancel, nil
}

func (c *Client) do(req *http.Request) ipc.Envelope {
	start := time.Now()
	c.log.Debug("api request", "method", req.Method, "url", req.URL.String())

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Error("api request failed", "method", req.Method, "url", req.URL.String(),
			"error", err.Error(), "duration", time.Since(start).String())
		return ipc.FailData(errors.HostIO("api:request", fmt.Errorf("network error: unable to reach server")),
			FailureData{OriginalError: err.Error()})
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return ipc.FailData(errors.HostIO("api:request", fmt.Errorf("network error: unable to reach server")),
			FailureData{StatusCode: resp.StatusCode, OriginalError: err.Error()})
	}
	c.log.Debug("api response", "method", req.Method, "url", req.URL.String(), "status", resp.StatusCode,
		"duration", time.Since(start).String(), "bytes", len(raw))

	if resp.StatusCode >= http.StatusBadRequest {
		return ipc.FailData(
			errors.HostIO("api:request", fmt.Errorf("server error (%d): %s", resp.StatusCode, http.StatusText(resp.StatusCode))),
			FailureData{
				StatusCode:    resp.StatusCode,
				OriginalError: fmt.Sprintf("request failed with status code %d", resp.StatusCode),
			})
	}
	return ipc.OKMessage(responseData(raw), fmt.Sprintf("request ok (%d)", resp.StatusCode))
}

// responseData keeps JSON bodies as JSON and turns anything else into a
// JSON string.
func responseData(raw []byte) any {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if json.Valid(raw) {
		return json.RawMessage(raw)
	}
	return string(raw)
}

type progressWriter struct {
	w       io.Writer
	total   int64
	written int64
	last    int
	fn      func(int)
}

func (p *progressWriter) Write(b []byte) (int, error) {
	n, err := p.w.Write(b)
	p.written += int64(n)
	pct := int(p.written * 100 / p.total)
	if pct != p.last {
		p.last = pct
		p.fn(pct)
	}
	return n, err
}
