package model

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	// RouteFBX01 is the China/East Asia to North America West Coast lane.
	RouteFBX01 = "FBX01"
	// RouteFBX11 is the China/East Asia to North Europe lane.
	RouteFBX11 = "FBX11"

	// Currency is the quoting currency of all FBX readings.
	Currency = "USD"
	// Unit is the container unit all FBX readings are quoted per.
	Unit = "per 40ft container"

	InterpretationLAPremium        = "LA Premium"
	InterpretationRotterdamPremium = "Rotterdam Premium"
)

var dec100 = decimal.NewFromInt(100)

// RateReading is a single extracted index value for one route.
type RateReading struct {
	RouteCode string          `json:"routeCode"`
	Rate      decimal.Decimal `json:"rate"`
	Currency  string          `json:"currency"`
	Unit      string          `json:"unit"`
}

// NewRateReading builds a reading with the fixed currency and unit.
func NewRateReading(routeCode string, rate decimal.Decimal) RateReading {
	return RateReading{
		RouteCode: routeCode,
		Rate:      rate,
		Currency:  Currency,
		Unit:      Unit,
	}
}

// DifferentialResult is the signed spread between the two lanes.
type DifferentialResult struct {
	Amount         decimal.Decimal `json:"amount"`
	Percentage     decimal.Decimal `json:"percentage"`
	Interpretation string          `json:"interpretation"`
}

// NewDifferential computes FBX01 minus FBX11 with 2-decimal rounding.
// A zero spread counts as an LA premium.
func NewDifferential(fbx01, fbx11 decimal.Decimal) DifferentialResult {
	amount := fbx01.Sub(fbx11).Round(2)

	interpretation := InterpretationRotterdamPremium
	if amount.Sign() >= 0 {
		interpretation = InterpretationLAPremium
	}

	return DifferentialResult{
		Amount:         amount,
		Percentage:     amount.Div(fbx11).Mul(dec100).Round(2),
		Interpretation: interpretation,
	}
}

// Snapshot is the result of one aggregation run. Routes holds whatever
// readings succeeded; Differential is present only when both did.
type Snapshot struct {
	Timestamp    time.Time              `json:"timestamp"`
	Date         string                 `json:"date"`
	Routes       map[string]RateReading `json:"routes"`
	Differential *DifferentialResult    `json:"differential,omitempty"`
}

// NewSnapshot builds an empty snapshot stamped at the given instant.
func NewSnapshot(now time.Time) Snapshot {
	now = now.UTC()
	return Snapshot{
		Timestamp: now,
		Date:      now.Format("2006-01-02"),
		Routes:    make(map[string]RateReading),
	}
}

// HistoryEntry is the condensed per-run record kept in the rolling log.
// Absent readings are null so the dashboard can render gaps.
type HistoryEntry struct {
	Date         string           `json:"date"`
	Timestamp    time.Time        `json:"timestamp"`
	FBX01        *decimal.Decimal `json:"fbx01"`
	FBX11        *decimal.Decimal `json:"fbx11"`
	Differential *decimal.Decimal `json:"differential"`
}

// HistoryEntry derives the log record for this snapshot.
func (s Snapshot) HistoryEntry() HistoryEntry {
	entry := HistoryEntry{
		Date:      s.Date,
		Timestamp: s.Timestamp,
	}
	if reading, ok := s.Routes[RouteFBX01]; ok {
		rate := reading.Rate
		entry.FBX01 = &rate
	}
	if reading, ok := s.Routes[RouteFBX11]; ok {
		rate := reading.Rate
		entry.FBX11 = &rate
	}
	if s.Differential != nil {
		amount := s.Differential.Amount
		entry.Differential = &amount
	}
	return entry
}
