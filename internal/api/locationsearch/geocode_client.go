package locationsearch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/FACorreiaa/go-moto-shop-finder/app/observability/metrics"
	"github.com/FACorreiaa/go-moto-shop-finder/internal/types"
)

// ErrRemoteService marks a non-success status or undecodable payload from
// either external service. Terminal for the invocation; never retried.
var ErrRemoteService = errors.New("remote service error")

var _ GeocodeClient = (*NominatimClient)(nil)

// GeocodeClient resolves a (city, country) pair to its best coordinate
// candidate. A (nil, nil) return means the service answered with zero
// candidates.
type GeocodeClient interface {
	Geocode(ctx context.Context, city, country string) (*types.GeocodedLocation, error)
}

type NominatimClient struct {
	logger     *slog.Logger
	httpClient *http.Client
	baseURL    string
	userAgent  string
}

func NewNominatimClient(baseURL, userAgent string, httpClient *http.Client, logger *slog.Logger) *NominatimClient {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &NominatimClient{
		logger:     logger,
		httpClient: httpClient,
		baseURL:    baseURL,
		userAgent:  userAgent,
	}
}

func (c *NominatimClient) Geocode(ctx context.Context, city, country string) (*types.GeocodedLocation, error) {
	params := url.Values{}
	params.Set("city", city)
	params.Set("country", country)
	params.Set("format", "json")
	params.Set("limit", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("building nominatim request: %w", err)
	}
	// Nominatim's usage policy requires an identifying User-Agent.
	req.Header.Set("User-Agent", c.userAgent)

	metrics.Get().GeocodeRequestsTotal.Add(ctx, 1)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: nominatim request: %s", ErrRemoteService, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: nominatim status %d", ErrRemoteService, resp.StatusCode)
	}

	var candidates []types.GeocodedLocation
	if err := json.NewDecoder(resp.Body).Decode(&candidates); err != nil {
		return nil, fmt.Errorf("%w: decoding nominatim response: %s", ErrRemoteService, err)
	}
	if len(candidates) == 0 {
		c.logger.DebugContext(ctx, "Nominatim returned no candidates",
			slog.String("city", city),
			slog.String("country", country),
		)
		return nil, nil
	}
	return &candidates[0], nil
}
