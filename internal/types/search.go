package types

// GeocodedLocation is the first Nominatim candidate for a (city, country)
// query. Nominatim reports coordinates as strings.
type GeocodedLocation struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name,omitempty"`
}

// PointOfInterest is a normalized Overpass element. Way and relation results
// only carry a centroid, which is folded into Lat/Lon; both stay nil when the
// element reports no usable coordinate at all.
type PointOfInterest struct {
	ID        int64             `json:"id"`
	Kind      string            `json:"type"`
	Lat       *float64          `json:"lat,omitempty"`
	Lon       *float64          `json:"lon,omitempty"`
	DistanceM *float64          `json:"distance_m,omitempty"`
	Tags      map[string]string `json:"tags"`
}

// SearchOutcome is the terminal result of one search chain invocation. It is
// always returned, never thrown: a failed chain carries a non-empty Error and
// an empty POI list.
type SearchOutcome struct {
	Country string            `json:"country"`
	City    string            `json:"city"`
	Lat     *float64          `json:"lat,omitempty"`
	Lon     *float64          `json:"lon,omitempty"`
	Count   int               `json:"count"`
	POIs    []PointOfInterest `json:"pois"`
	Error   string            `json:"error,omitempty"`
}
