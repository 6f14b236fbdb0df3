package market

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/dalio-ai/dalio/backend/internal/model/market"
)

// sgsCodes maps each bundled series to its Banco Central SGS code.
var sgsCodes = map[market.Series]int{
	market.SeriesIGPM: 189,
	market.SeriesIPCA: 433,
}

// SGSClient downloads series from the Banco Central open data API.
type SGSClient struct {
	http    *http.Client
	baseURL string
}

// NewSGSClient creates an SGS client rooted at baseURL.
func NewSGSClient(baseURL string, httpClient *http.Client) *SGSClient {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &SGSClient{http: httpClient, baseURL: strings.TrimRight(baseURL, "/")}
}

// Fetch returns the raw SGS JSON for a series.
func (c *SGSClient) Fetch(ctx context.Context, series market.Series) ([]byte, error) {
	code, ok := sgsCodes[series]
	if !ok {
		return nil, fmt.Errorf("no SGS code for series %s", series)
	}

	addr := fmt.Sprintf("%s/dados/serie/bcdata.sgs.%d/dados?formato=json", c.baseURL, code)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, addr, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("GET sgs %d: %w", code, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: GET sgs %d: %s", ErrUpstream, code, resp.Status)
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, resp.Body); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Refresh downloads every series, validates it, writes it under dir and
// swaps it into store. store may be nil when only the files are wanted.
func (c *SGSClient) Refresh(ctx context.Context, dir string, store *SeriesStore) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	for series, name := range seriesFiles {
		raw, err := c.Fetch(ctx, series)
		if err != nil {
			return err
		}
		points, err := DecodeSGS(raw)
		if err != nil {
			return fmt.Errorf("refresh %s: %w", series, err)
		}
		if err := os.WriteFile(filepath.Join(dir, name), raw, 0o644); err != nil {
			return err
		}
		if store != nil {
			store.Replace(series, points)
		}
		log.Printf("[market] refreshed %s: %d months", series, len(points))
	}
	return nil
}
