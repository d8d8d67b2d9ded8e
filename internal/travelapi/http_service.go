package travelapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/Passbob/dopamine-travel-front/internal/observability"
)

const (
	endpointProvinces   = "/api/prototype/provinces"
	endpointCities      = "/api/prototype/cities"
	endpointThemes      = "/api/prototype/themes"
	endpointConstraints = "/api/prototype/constraints"
	endpointCourse      = "/api/prototype/travel-course"
	endpointTotalVisits = "/api/total-visits"

	codeSuccess = "SUCCESS"
	breakerName = "travel-backend"
)

// HTTPClient matches the subset of http.Client used by HTTPService.
type HTTPClient interface {
	Do(*http.Request) (*http.Response, error)
}

// HTTPService implements Service against the REST endpoints of the travel backend.
type HTTPService struct {
	base    *url.URL
	client  HTTPClient
	breaker *gobreaker.CircuitBreaker[json.RawMessage]
}

// NewHTTPService constructs a Service that talks to the travel backend at baseURL.
// Calls are guarded by a circuit breaker that opens after sustained transport or 5xx failures.
func NewHTTPService(baseURL string, client HTTPClient) (*HTTPService, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, errors.New("travelapi: base URL is required")
	}
	parsed, err := url.Parse(strings.TrimRight(strings.TrimSpace(baseURL), "/"))
	if err != nil {
		return nil, fmt.Errorf("travelapi: parse base URL: %w", err)
	}
	if client == nil {
		client = &http.Client{Timeout: 8 * time.Second}
	}

	observability.CircuitBreakerState.WithLabelValues(breakerName).Set(0)
	breaker := gobreaker.NewCircuitBreaker[json.RawMessage](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 5 {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= 0.6
		},
		IsSuccessful: isBreakerSuccess,
		OnStateChange: func(name string, from, to gobreaker.State) {
			observability.CircuitBreakerState.WithLabelValues(name).Set(stateValue(to))
			observability.CircuitBreakerTransitions.WithLabelValues(name, from.String(), to.String()).Inc()
		},
	})

	return &HTTPService{
		base:    parsed,
		client:  client,
		breaker: breaker,
	}, nil
}

// Provinces fetches every province.
func (s *HTTPService) Provinces(ctx context.Context) ([]Province, error) {
	data, err := s.call(ctx, http.MethodGet, endpointProvinces, nil)
	if err != nil {
		return nil, err
	}
	return decodeList[Province](endpointProvinces, data)
}

// Cities fetches the cities of a province.
func (s *HTTPService) Cities(ctx context.Context, provinceNo No) ([]City, error) {
	if provinceNo == 0 {
		return nil, fmt.Errorf("%w: provinceNo", ErrMissingParam)
	}
	q := url.Values{}
	q.Set("provinceNo", provinceNo.String())
	data, err := s.call(ctx, http.MethodGet, endpointCities, q)
	if err != nil {
		return nil, err
	}
	cities, err := decodeList[City](endpointCities, data)
	if err != nil {
		return nil, err
	}
	for i := range cities {
		if cities[i].ProvinceNo == 0 {
			cities[i].ProvinceNo = provinceNo
		}
	}
	return cities, nil
}

// Themes fetches every theme.
func (s *HTTPService) Themes(ctx context.Context) ([]Theme, error) {
	data, err := s.call(ctx, http.MethodGet, endpointThemes, nil)
	if err != nil {
		return nil, err
	}
	return decodeList[Theme](endpointThemes, data)
}

// Constraints fetches every travel constraint.
func (s *HTTPService) Constraints(ctx context.Context) ([]Constraint, error) {
	data, err := s.call(ctx, http.MethodGet, endpointConstraints, nil)
	if err != nil {
		return nil, err
	}
	return decodeList[Constraint](endpointConstraints, data)
}

// TravelCourse requests itinerary generation for a complete selection chain.
func (s *HTTPService) TravelCourse(ctx context.Context, query CourseQuery) (CourseSlots, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}
	q := url.Values{}
	q.Set("provinceNo", query.ProvinceNo.String())
	q.Set("cityNo", query.CityNo.String())
	q.Set("theme", query.ThemeNo.String())
	q.Set("constraint", query.ConstraintNo.String())

	data, err := s.call(ctx, http.MethodPost, endpointCourse, q)
	if err != nil {
		return nil, err
	}
	slots := CourseSlots{}
	if isNull(data) {
		return slots, nil
	}
	if err := json.Unmarshal(data, &slots); err != nil {
		return nil, fmt.Errorf("travelapi: decode %s: %w", endpointCourse, err)
	}
	return slots, nil
}

// TotalVisits fetches the aggregate visit counter.
func (s *HTTPService) TotalVisits(ctx context.Context) (int64, error) {
	data, err := s.call(ctx, http.MethodGet, endpointTotalVisits, nil)
	if err != nil {
		return 0, err
	}
	var total No
	if err := json.Unmarshal(data, &total); err != nil {
		return 0, fmt.Errorf("travelapi: decode %s: %w", endpointTotalVisits, err)
	}
	return int64(total), nil
}

type envelope struct {
	Code    string          `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (s *HTTPService) call(ctx context.Context, method, endpoint string, query url.Values) (json.RawMessage, error) {
	start := time.Now()
	data, err := s.breaker.Execute(func() (json.RawMessage, error) {
		return s.roundTrip(ctx, method, endpoint, query)
	})
	observability.BackendLatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())

	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		observability.BackendRequests.WithLabelValues(endpoint, "rejected").Inc()
		return nil, fmt.Errorf("%w: %s: %v", ErrUnavailable, endpoint, err)
	case err != nil:
		observability.BackendRequests.WithLabelValues(endpoint, "error").Inc()
		return nil, err
	}
	observability.BackendRequests.WithLabelValues(endpoint, "success").Inc()
	return data, nil
}

func (s *HTTPService) roundTrip(ctx context.Context, method, endpoint string, query url.Values) (json.RawMessage, error) {
	target := s.base.JoinPath(endpoint)
	if len(query) > 0 {
		target.RawQuery = query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, target.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("travelapi: build %s request: %w", endpoint, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("travelapi: %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{Endpoint: endpoint, StatusCode: resp.StatusCode, Body: drainError(resp.Body)}
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("travelapi: decode %s envelope: %w", endpoint, err)
	}
	if !strings.EqualFold(strings.TrimSpace(env.Code), codeSuccess) {
		return nil, &EnvelopeError{Endpoint: endpoint, Code: env.Code, Message: strings.TrimSpace(env.Message)}
	}
	return env.Data, nil
}

func decodeList[T any](endpoint string, data json.RawMessage) ([]T, error) {
	if isNull(data) {
		return []T{}, nil
	}
	var out []T
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("travelapi: decode %s: %w", endpoint, err)
	}
	return out, nil
}

func isNull(data json.RawMessage) bool {
	trimmed := strings.TrimSpace(string(data))
	return trimmed == "" || trimmed == "null"
}

// isBreakerSuccess keeps healthy-but-negative answers and caller cancellations from tripping the breaker.
func isBreakerSuccess(err error) bool {
	if err == nil {
		return true
	}
	var envErr *EnvelopeError
	if errors.As(err, &envErr) {
		return true
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode < 500
	}
	return errors.Is(err, context.Canceled)
}

func stateValue(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}

func drainError(r io.Reader) string {
	if r == nil {
		return ""
	}
	b, _ := io.ReadAll(io.LimitReader(r, 256))
	return strings.TrimSpace(string(b))
}
