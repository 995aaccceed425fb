package analysisapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Riesling1623/honeydash/internal/entity"
)

const (
	analysisPath       = "/api/analysis"
	availableDatesPath = "/api/available-dates"
)

// Config holds analysis API client configuration
type Config struct {
	BaseURL  string
	Username string
	Password string
	// Timeout bounds each request. Zero leaves requests unbounded.
	Timeout time.Duration
}

// Client fetches analysis datasets from the honeypot analysis API.
// It performs no retries and keeps no cache.
type Client struct {
	baseURL    string
	username   string
	password   string
	httpClient *http.Client
}

// NewClient creates a new analysis API client
func NewClient(cfg Config) *Client {
	return &Client{
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		username: cfg.Username,
		password: cfg.Password,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// DateRange is a validated query range in compact YYYYMMDD form
type DateRange struct {
	Start string
	End   string
}

// ValidateDateRange checks that both dates are present, well formed and in
// order, and returns them normalized to digits only. Dates may be given as
// YYYY-MM-DD or YYYYMMDD.
func ValidateDateRange(startDate, endDate string) (DateRange, error) {
	if strings.TrimSpace(startDate) == "" || strings.TrimSpace(endDate) == "" {
		return DateRange{}, &ValidationError{Message: "Please select both start and end dates"}
	}

	start := NormalizeDate(startDate)
	end := NormalizeDate(endDate)

	startDay, err := time.Parse("20060102", start)
	if err != nil {
		return DateRange{}, &ValidationError{Message: fmt.Sprintf("Invalid start date: %s", startDate)}
	}
	endDay, err := time.Parse("20060102", end)
	if err != nil {
		return DateRange{}, &ValidationError{Message: fmt.Sprintf("Invalid end date: %s", endDate)}
	}

	if startDay.After(endDay) {
		return DateRange{}, &ValidationError{Message: "Start date cannot be after end date"}
	}

	return DateRange{Start: start, End: end}, nil
}

// NormalizeDate strips every non-digit character from a date string
func NormalizeDate(date string) string {
	var b strings.Builder
	for _, r := range date {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// FetchAnalysis loads the dataset for a date range.
//
// The range is validated first and nothing is sent if it is invalid
// (*ValidationError). A non-2xx response yields *TransportError and the body
// is not decoded. A 2xx body carrying an error field yields *ApplicationError.
func (c *Client) FetchAnalysis(ctx context.Context, startDate, endDate string) (*entity.Dataset, error) {
	dr, err := ValidateDateRange(startDate, endDate)
	if err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("start_date", dr.Start)
	params.Set("end_date", dr.End)

	var ds entity.Dataset
	if err := c.getJSON(ctx, analysisPath+"?"+params.Encode(), &ds); err != nil {
		return nil, err
	}
	if ds.Error != "" {
		return nil, &ApplicationError{Message: ds.Error}
	}
	if ds.Sessions == nil {
		ds.Sessions = []entity.Session{}
	}

	return &ds, nil
}

// AvailableDates lists the YYYYMMDD dates the server has reports for
func (c *Client) AvailableDates(ctx context.Context) ([]string, error) {
	var resp struct {
		Dates []string `json:"dates"`
		Error string   `json:"error"`
	}
	if err := c.getJSON(ctx, availableDatesPath, &resp); err != nil {
		return nil, err
	}
	if resp.Error != "" {
		return nil, &ApplicationError{Message: resp.Error}
	}
	return resp.Dates, nil
}

func (c *Client) getJSON(ctx context.Context, pathAndQuery string, v interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+pathAndQuery, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.password != "" {
		req.SetBasicAuth(c.username, c.password)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to reach analysis API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, resp.Body)
		return &TransportError{StatusCode: resp.StatusCode}
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
