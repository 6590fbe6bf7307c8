package locationsearch

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"

	"github.com/FACorreiaa/go-moto-shop-finder/app/observability/metrics"
	"github.com/FACorreiaa/go-moto-shop-finder/internal/types"
)

// Tag predicates for repair-related POIs. Elements match when either the
// shop tag hits a repair category or the name hits a motorcycle keyword,
// both case-insensitive.
const (
	shopCategoryPattern = "motorcycle|car_repair|garage|bicycle"
	nameKeywordPattern  = "motorcycle|moto|motorbike|motorrad|mc"
)

var _ POIClient = (*OverpassClient)(nil)

// POIClient queries nearby repair-related points of interest around a center.
type POIClient interface {
	NearbyRepairShops(ctx context.Context, center orb.Point, radiusM, limit int) ([]types.PointOfInterest, error)
}

type OverpassClient struct {
	logger     *slog.Logger
	httpClient *http.Client
	baseURL    string
	userAgent  string
}

func NewOverpassClient(baseURL, userAgent string, httpClient *http.Client, logger *slog.Logger) *OverpassClient {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &OverpassClient{
		logger:     logger,
		httpClient: httpClient,
		baseURL:    baseURL,
		userAgent:  userAgent,
	}
}

// overpassElement is the raw wire shape. Way/relation geometries carry their
// centroid under "center" instead of top-level lat/lon.
type overpassElement struct {
	ID     int64    `json:"id"`
	Type   string   `json:"type"`
	Lat    *float64 `json:"lat"`
	Lon    *float64 `json:"lon"`
	Center *struct {
		Lat float64 `json:"lat"`
		Lon float64 `json:"lon"`
	} `json:"center"`
	Tags map[string]string `json:"tags"`
}

type overpassResponse struct {
	Elements []overpassElement `json:"elements"`
}

func (c *OverpassClient) NearbyRepairShops(ctx context.Context, center orb.Point, radiusM, limit int) ([]types.PointOfInterest, error) {
	query := buildQuery(center, radiusM, limit)

	form := url.Values{}
	form.Set("data", query)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("building overpass request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	metrics.Get().OverpassRequestsTotal.Add(ctx, 1)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: overpass request: %s", ErrRemoteService, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: overpass status %d", ErrRemoteService, resp.StatusCode)
	}

	var decoded overpassResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("%w: decoding overpass response: %s", ErrRemoteService, err)
	}

	// Truncate client-side regardless of how many elements the server sent.
	elements := decoded.Elements
	if len(elements) > limit {
		elements = elements[:limit]
	}

	pois := make([]types.PointOfInterest, 0, len(elements))
	for _, element := range elements {
		pois = append(pois, normalizeElement(element, center))
	}

	c.logger.DebugContext(ctx, "Overpass query completed",
		slog.Int("elements", len(decoded.Elements)),
		slog.Int("returned", len(pois)),
	)
	return pois, nil
}

// buildQuery renders the Overpass QL request: nodes, ways and relations
// within radiusM of the center whose shop tag or name matches the repair
// predicates, centroids included, capped server-side at limit.
func buildQuery(center orb.Point, radiusM, limit int) string {
	lat := center.Lat()
	lon := center.Lon()

	var b strings.Builder
	b.WriteString("[out:json][timeout:25];\n(\n")
	for _, kind := range []string{"node", "way", "relation"} {
		fmt.Fprintf(&b, "  %s(around:%d,%f,%f)[shop~\"%s\",i];\n", kind, radiusM, lat, lon, shopCategoryPattern)
	}
	for _, kind := range []string{"node", "way", "relation"} {
		fmt.Fprintf(&b, "  %s(around:%d,%f,%f)[name~\"%s\",i];\n", kind, radiusM, lat, lon, nameKeywordPattern)
	}
	fmt.Fprintf(&b, ");\nout center %d;", limit)
	return b.String()
}

// normalizeElement folds direct or centroid coordinates into one lat/lon pair
// and computes the distance from the search center when a coordinate exists.
func normalizeElement(element overpassElement, center orb.Point) types.PointOfInterest {
	poi := types.PointOfInterest{
		ID:   element.ID,
		Kind: element.Type,
		Tags: element.Tags,
	}
	if poi.Tags == nil {
		poi.Tags = map[string]string{}
	}

	switch {
	case element.Lat != nil && element.Lon != nil:
		poi.Lat = element.Lat
		poi.Lon = element.Lon
	case element.Center != nil:
		poi.Lat = &element.Center.Lat
		poi.Lon = &element.Center.Lon
	}

	if poi.Lat != nil && poi.Lon != nil {
		distance := geo.Distance(center, orb.Point{*poi.Lon, *poi.Lat})
		poi.DistanceM = &distance
	}
	return poi
}
