package types

// CityEntry is one (country, city) pair from the registry CSV.
type CityEntry struct {
	Country string `json:"country"`
	City    string `json:"city"`
}
