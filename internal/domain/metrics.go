package domain

// FetchStats is a point-in-time view of fetch counters for one source,
// served on the JSON metrics snapshot endpoint.
type FetchStats struct {
	Total     int64   `json:"total"`
	Errors    int64   `json:"errors"`
	ErrorRate float64 `json:"errorRate"`
}
