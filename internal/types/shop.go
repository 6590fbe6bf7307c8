package types

// Shop is one row of the catalog CSV. Latitude/Longitude are pointers so a
// missing or unparseable coordinate is distinguishable from a real 0.0.
type Shop struct {
	Country      string   `json:"country"`
	CityName     string   `json:"city_name"`
	Name         string   `json:"name"`
	Address      string   `json:"address"`
	Rating       string   `json:"rating"`
	ReviewsCount int      `json:"reviews_count"`
	Phone        string   `json:"phone"`
	Website      string   `json:"website"`
	BusinessType string   `json:"business_type"`
	Hours        string   `json:"hours"`
	Latitude     *float64 `json:"latitude,omitempty"`
	Longitude    *float64 `json:"longitude,omitempty"`
	PlaceID      string   `json:"place_id"`
	ScrapedAt    string   `json:"scraped_at"`
}

// CountryStats aggregates a single country's catalog footprint.
type CountryStats struct {
	Cities int `json:"cities"`
	Shops  int `json:"shops"`
}

// ShopListResponse is the envelope for every shop listing endpoint.
type ShopListResponse struct {
	Results []Shop `json:"results"`
	Count   int    `json:"count"`
}
