package pricing

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"time"

	"github.com/PaesslerAG/jsonpath"
	"github.com/shopspring/decimal"
	"github.com/trogers1052/papertrade/internal/models"
)

// AlphaVantage fetches daily closes from the Alpha Vantage TIME_SERIES_DAILY endpoint
type AlphaVantage struct {
	apiKey  string
	baseURL string
	days    int
	client  *http.Client
}

var _ Source = (*AlphaVantage)(nil)

// NewAlphaVantage creates a source keeping the most recent days closes
func NewAlphaVantage(apiKey, baseURL string, days int) *AlphaVantage {
	if days < 1 {
		days = 5
	}
	return &AlphaVantage{
		apiKey:  apiKey,
		baseURL: baseURL,
		days:    days,
		client:  &http.Client{},
	}
}

// Fetch implements Source
func (c *AlphaVantage) Fetch(ctx context.Context, ticker string) ([]models.PricePoint, error) {
	params := url.Values{
		"function":   {"TIME_SERIES_DAILY"},
		"symbol":     {ticker},
		"apikey":     {c.apiKey},
		"outputsize": {"compact"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", ticker, err)
	}
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return nil, fmt.Errorf("failed to read response for %s: %w", ticker, err)
	}
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status %d for %s", resp.StatusCode, ticker)
	}

	var data interface{}
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, fmt.Errorf("failed to parse response for %s: %w", ticker, err)
	}

	// Unknown symbols come back as an error message rather than an HTTP error
	if _, err := jsonpath.Get(`$["Error Message"]`, data); err == nil {
		return nil, nil
	}
	for _, key := range []string{"Note", "Information"} {
		if note, err := jsonpath.Get(`$["`+key+`"]`, data); err == nil {
			return nil, fmt.Errorf("API limit: %v", note)
		}
	}

	raw, err := jsonpath.Get(`$["Time Series (Daily)"]`, data)
	if err != nil {
		return nil, fmt.Errorf("no daily series in response for %s", ticker)
	}
	series, ok := raw.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("unexpected daily series shape for %s", ticker)
	}

	points := make([]models.PricePoint, 0, len(series))
	for ds, rawDay := range series {
		day, err := time.Parse("2006-01-02", ds)
		if err != nil {
			continue
		}
		fields, ok := rawDay.(map[string]interface{})
		if !ok {
			continue
		}
		cs, _ := fields["4. close"].(string)
		closePrice, err := decimal.NewFromString(cs)
		if err != nil {
			continue
		}
		points = append(points, models.PricePoint{Timestamp: day, Close: closePrice})
	}

	sort.Slice(points, func(i, j int) bool { return points[i].Timestamp.Before(points[j].Timestamp) })
	if len(points) > c.days {
		points = points[len(points)-c.days:]
	}
	return points, nil
}
