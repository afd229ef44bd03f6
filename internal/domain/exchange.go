package domain

import "time"

// ExchangeRate is the THB-per-USDT rate used for currency dual-denomination.
// Quoted is the raw feed price; Effective is what conversions actually use:
// the quoted price minus the spread, unless the operator has overridden it.
type ExchangeRate struct {
	Quoted     float64   `json:"quoted"`
	Effective  float64   `json:"effective"`
	Overridden bool      `json:"overridden"`
	UpdatedAt  time.Time `json:"updated_at"`
}
