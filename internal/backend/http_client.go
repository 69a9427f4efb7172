package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"shipdash/internal/telemetry"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/tidwall/gjson"
)

type httpClient struct {
	cfg        Config
	httpClient *http.Client

	cache      map[string]*cacheEntry
	cacheMutex sync.Mutex
}

type cacheEntry struct {
	Value      any
	Expiration time.Time
}

// NewHTTPClient creates a JSON-over-HTTP backend client.
func NewHTTPClient(cfg Config) Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.RecordsTTL == 0 {
		cfg.RecordsTTL = 10 * time.Minute
	}
	return &httpClient{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		cache: make(map[string]*cacheEntry),
	}
}

func (c *httpClient) getFromCache(key string) (any, bool) {
	c.cacheMutex.Lock()
	defer c.cacheMutex.Unlock()

	entry, ok := c.cache[key]
	if !ok {
		log.Debug().Str("key", key).Msg("Cache miss")
		return nil, false
	}
	if time.Now().After(entry.Expiration) {
		delete(c.cache, key)
		log.Debug().Str("key", key).Msg("Cache entry expired")
		return nil, false
	}
	log.Debug().Str("key", key).Msg("Cache hit")
	return entry.Value, true
}

func (c *httpClient) addToCache(key string, value any, ttl time.Duration) {
	c.cacheMutex.Lock()
	defer c.cacheMutex.Unlock()

	c.cache[key] = &cacheEntry{Value: value, Expiration: time.Now().Add(ttl)}
	log.Debug().Str("key", key).Dur("ttl", ttl).Msg("Added to cache")
}

// do sends one request and returns the response with its body fully read.
func (c *httpClient) do(ctx context.Context, method, endpoint string, payload any) (int, []byte, error) {
	var body io.Reader
	if payload != nil {
		buf, err := json.Marshal(payload)
		if err != nil {
			return 0, nil, fmt.Errorf("failed to encode %s request: %w", endpoint, err)
		}
		body = bytes.NewReader(buf)
	}

	resp, requestID, err := c.send(ctx, method, endpoint, body)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to read %s response (request %s): %w", endpoint, requestID, err)
	}
	return resp.StatusCode, data, nil
}

func (c *httpClient) send(ctx context.Context, method, endpoint string, body io.Reader) (*http.Response, string, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+endpoint, body)
	if err != nil {
		return nil, "", err
	}

	requestID := uuid.NewString()
	req.Header.Set("X-Request-ID", requestID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	log.Debug().Str("method", method).Str("endpoint", endpoint).Str("requestId", requestID).Msg("Backend request")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	elapsed := time.Since(start)
	if err != nil {
		telemetry.ObserveBackend(endpoint, "transport_error", elapsed)
		return nil, requestID, fmt.Errorf("backend %s %s failed (request %s): %w", method, endpoint, requestID, err)
	}
	telemetry.ObserveBackend(endpoint, http.StatusText(resp.StatusCode), elapsed)
	log.Debug().Str("endpoint", endpoint).Int("status", resp.StatusCode).Dur("elapsed", elapsed).Msg("Backend response")
	return resp, requestID, nil
}

func statusError(endpoint string, status int) error {
	switch status {
	case http.StatusBadRequest:
		return fmt.Errorf("backend rejected %s request (400)", endpoint)
	case http.StatusNotFound:
		return fmt.Errorf("backend endpoint %s not found (404). Please check backend.url", endpoint)
	default:
		return fmt.Errorf("backend returned status %d for %s", status, endpoint)
	}
}

func (c *httpClient) AllRecords(ctx context.Context) ([]Record, error) {
	const cacheKey = "records:all"
	if val, ok := c.getFromCache(cacheKey); ok {
		return val.([]Record), nil
	}

	status, data, err := c.do(ctx, http.MethodGet, "/api/data", nil)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, statusError("/api/data", status)
	}

	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("failed to decode records response: %w", err)
	}

	c.addToCache(cacheKey, records, c.cfg.RecordsTTL)
	return records, nil
}

func (c *httpClient) Filter(ctx context.Context, filters Filters) (*FilterResponse, error) {
	status, data, err := c.do(ctx, http.MethodPost, "/api/filter", filters)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, statusError("/api/filter", status)
	}

	var result FilterResponse
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("failed to decode filter response: %w", err)
	}
	result.normalize()
	return &result, nil
}

// normalize replaces missing collections with empty ones so downstream code never sees nil.
func (r *FilterResponse) normalize() {
	if r.FilteredRecords == nil {
		r.FilteredRecords = []Record{}
	}
	if r.Aggregates.MonthlyLabels == nil {
		r.Aggregates.MonthlyLabels = []string{}
	}
	if r.Aggregates.AvgDelays == nil {
		r.Aggregates.AvgDelays = []float64{}
	}
	if r.CountryRisk.Countries == nil {
		r.CountryRisk.Countries = []string{}
	}
	if r.CountryRisk.RiskPercentages == nil {
		r.CountryRisk.RiskPercentages = []float64{}
	}
	if r.InterArrivalTimes == nil {
		r.InterArrivalTimes = []float64{}
	}
}

func (c *httpClient) Simulate(ctx context.Context, req SimulationRequest) (*SimulationResponse, error) {
	if req.InterArrivalTimes == nil {
		req.InterArrivalTimes = []float64{}
	}

	status, data, err := c.do(ctx, http.MethodPost, "/api/simulate", req)
	if err != nil {
		return nil, err
	}

	// The backend reports fitting failures as {"error": "..."} with a 4xx status.
	// That is a result for the user, not a transport failure.
	if msg := gjson.GetBytes(data, "error"); msg.Exists() && msg.String() != "" {
		log.Info().Str("error", msg.String()).Int("status", status).Msg("Backend reported simulation error")
		return &SimulationResponse{Error: msg.String()}, nil
	}
	if status != http.StatusOK {
		return nil, statusError("/api/simulate", status)
	}

	var result SimulationResponse
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("failed to decode simulation response: %w", err)
	}
	return &result, nil
}

func (c *httpClient) ExportCSV(ctx context.Context, filters Filters, w io.Writer) (int64, error) {
	buf, err := json.Marshal(filters)
	if err != nil {
		return 0, fmt.Errorf("failed to encode export request: %w", err)
	}

	resp, requestID, err := c.send(ctx, http.MethodPost, "/download/data.csv", bytes.NewReader(buf))
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, statusError("/download/data.csv", resp.StatusCode)
	}

	n, err := io.Copy(w, resp.Body)
	if err != nil {
		return n, fmt.Errorf("failed to stream export (request %s): %w", requestID, err)
	}
	log.Info().Int64("bytes", n).Str("requestId", requestID).Msg("Exported filtered records")
	return n, nil
}
