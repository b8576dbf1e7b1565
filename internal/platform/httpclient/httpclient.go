// Package httpclient es el cliente JSON de los adapters hacia servicios externos
// (proveedor de identidad). Reintenta 5xx y errores de red con backoff.
package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"
)

const (
	DefaultTimeout = 10 * time.Second

	maxBody        = 1 << 20
	defaultBackoff = 100 * time.Millisecond
)

type Config struct {
	BaseURL string
	Timeout time.Duration

	// Reintentos extra ante 5xx / error de red. 0 => sin reintento.
	Retries uint64
	Backoff time.Duration
}

type Client struct {
	http    *http.Client
	baseURL string
	retries uint64
	backoff time.Duration
}

func New(cfg Config) (*Client, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	backoff := cfg.Backoff
	if backoff <= 0 {
		backoff = defaultBackoff
	}

	c := &Client{
		http:    &http.Client{Timeout: timeout},
		retries: cfg.Retries,
		backoff: backoff,
	}

	base := strings.TrimSpace(cfg.BaseURL)
	if base == "" {
		return c, nil
	}
	if _, err := url.ParseRequestURI(base); err != nil {
		return nil, fmt.Errorf("invalid base url: %w", err)
	}
	c.baseURL = strings.TrimRight(base, "/")
	return c, nil
}

func (c *Client) BaseURL() string {
	if c == nil {
		return ""
	}
	return c.baseURL
}

// HTTPError representa una respuesta no-2xx.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("http error: status=%d", e.StatusCode)
	}
	return fmt.Sprintf("http error: status=%d body=%s", e.StatusCode, e.Body)
}

func (e *HTTPError) Retryable() bool {
	return e.StatusCode >= 500 || e.StatusCode == http.StatusTooManyRequests
}

// DoJSON envía in (si no es nil) como JSON y decodifica la respuesta en out.
// path es relativo a BaseURL. Respuestas 4xx no se reintentan.
func (c *Client) DoJSON(ctx context.Context, method, path string, headers map[string]string, in, out any) error {
	if c == nil || c.http == nil {
		return errors.New("httpclient: nil client")
	}
	if c.baseURL == "" {
		return errors.New("httpclient: base url not set")
	}

	var payload []byte
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("httpclient: marshal json: %w", err)
		}
		payload = b
	}

	target := c.baseURL + "/" + strings.TrimLeft(strings.TrimSpace(path), "/")
	b := retry.WithMaxRetries(c.retries, retry.NewExponential(c.backoff))

	var raw []byte
	err := retry.Do(ctx, b, func(ctx context.Context) error {
		var err error
		raw, err = c.once(ctx, method, target, headers, payload)
		var herr *HTTPError
		switch {
		case err == nil:
			return nil
		case errors.As(err, &herr) && !herr.Retryable():
			return err
		case ctx.Err() != nil:
			return err
		default:
			return retry.RetryableError(err)
		}
	})
	if err != nil {
		return err
	}

	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("httpclient: unmarshal json: %w", err)
	}
	return nil
}

func (c *Client) once(ctx context.Context, method, target string, headers map[string]string, payload []byte) ([]byte, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("httpclient: new request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		if strings.TrimSpace(k) != "" {
			req.Header.Set(k, v)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("httpclient: do request: %w", err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &HTTPError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
	}
	return raw, nil
}
