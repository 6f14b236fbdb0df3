package market

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

	"github.com/dalio-ai/dalio/backend/internal/config"
)

// ErrUpstream wraps every non-2xx answer from a data provider.
var ErrUpstream = errors.New("market data provider error")

// Client talks to the brapi REST API.
type Client struct {
	http    *http.Client
	baseURL string
	token   string
}

// NewClient creates a brapi client. A nil httpClient gets one with the configured timeout.
func NewClient(cfg config.MarketConfig, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	return &Client{
		http:    httpClient,
		baseURL: strings.TrimRight(cfg.BrapiBaseURL, "/"),
		token:   cfg.BrapiToken,
	}
}

// tickerPath escapes each ticker and joins them the way brapi expects.
func tickerPath(tickers []string) string {
	escaped := make([]string, 0, len(tickers))
	for _, t := range tickers {
		t = strings.ToUpper(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		escaped = append(escaped, url.PathEscape(t))
	}
	return strings.Join(escaped, ",")
}

// getRaw performs a GET against the provider and returns the body untouched.
func (c *Client) getRaw(ctx context.Context, path string, query url.Values) ([]byte, error) {
	if query == nil {
		query = url.Values{}
	}
	if c.token != "" {
		query.Set("token", c.token)
	}

	addr := c.baseURL + path
	if encoded := query.Encode(); encoded != "" {
		addr += "?" + encoded
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, addr, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", path, err)
	}
	defer resp.Body.Close()

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, resp.Body); err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: GET %s: %s", ErrUpstream, path, resp.Status)
	}
	return buf.Bytes(), nil
}

// getJSON is getRaw followed by a generic decode, for jsonpath extraction.
func (c *Client) getJSON(ctx context.Context, path string, query url.Values, data any) error {
	body, err := c.getRaw(ctx, path, query)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, data); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}
