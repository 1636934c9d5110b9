package geo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"

	"shiftdesk/pkg/config"
	"shiftdesk/pkg/metrics"
)

var (
	// ErrNoResult is returned when the geocoder knows no place for the query.
	ErrNoResult = errors.New("no geocoding result")
	// ErrMissingAPIKey is returned when no OpenCage key is configured.
	ErrMissingAPIKey = errors.New("geocoding api key is not configured")
)

// Geocoder resolves a free-text place to coordinates.
type Geocoder interface {
	Geocode(ctx context.Context, query string) (Point, error)
}

// UpstreamError is a non-200 answer from the geocoding API.
type UpstreamError struct {
	StatusCode int
}

func (e *UpstreamError) Error() string {
	return "geocoder returned status " + strconv.Itoa(e.StatusCode)
}

// Temporary reports whether retrying later may succeed.
func (e *UpstreamError) Temporary() bool {
	return e.StatusCode >= 500 || e.StatusCode == http.StatusTooManyRequests
}

// OpenCage calls the OpenCage forward geocoding API.
type OpenCage struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

func NewOpenCage(cfg config.GeoConfig, logger *zap.Logger) *OpenCage {
	return &OpenCage{
		apiKey:  cfg.APIKey,
		baseURL: cfg.BaseURL,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		logger: logger,
	}
}

type openCageResponse struct {
	Status struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"status"`
	Results []struct {
		Geometry Point `json:"geometry"`
	} `json:"results"`
}

func (c *OpenCage) Geocode(ctx context.Context, query string) (Point, error) {
	if c.apiKey == "" {
		return Point{}, ErrMissingAPIKey
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("key", c.apiKey)
	params.Set("language", "en")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return Point{}, err
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.RecordUpstreamCall("opencage", "error", time.Since(start))
		return Point{}, fmt.Errorf("geocode request failed: %w", err)
	}
	defer resp.Body.Close()
	metrics.RecordUpstreamCall("opencage", strconv.Itoa(resp.StatusCode), time.Since(start))

	if resp.StatusCode != http.StatusOK {
		return Point{}, &UpstreamError{StatusCode: resp.StatusCode}
	}

	var body openCageResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return Point{}, fmt.Errorf("failed to decode geocode response: %w", err)
	}
	if body.Status.Code != http.StatusOK || len(body.Results) == 0 {
		c.logger.Warn("Geocoder found no result",
			zap.String("query", query),
			zap.Int("status_code", body.Status.Code),
		)
		return Point{}, ErrNoResult
	}

	return body.Results[0].Geometry, nil
}
