// Package httpapi serves the stockintel REST API over the analytics
// queries, in the JSON shapes the pkg/stockintel client decodes.
package httpapi

import "stockintel/pkg/stockintel"

// API identity reported at "/".
const (
	APITitle   = "Stock Intelligence API"
	APIVersion = "1.0.0"
)

// Query defaults.
const (
	DefaultDays  = 30
	DefaultLimit = 5
)

// Response envelopes shared with the client.
type (
	Health            = stockintel.Health
	CompaniesResponse = stockintel.CompaniesResponse
	SeriesResponse    = stockintel.SeriesResponse
	GainersResponse   = stockintel.GainersResponse
	LosersResponse    = stockintel.LosersResponse
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Detail string `json:"detail"`
}
