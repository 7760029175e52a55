package domain

import "time"

// Bar represents a single OHLCV bar for an instrument at a given interval.
// Sequences of bars are always ordered by strictly increasing timestamps;
// gaps are tolerated.
type Bar struct {
	Symbol    string    `json:"symbol"`
	Interval  string    `json:"interval"`
	Timestamp time.Time `json:"timestamp"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	Volume    float64   `json:"volume"`
}

// Quote represents the latest traded price for an instrument.
type Quote struct {
	Symbol          string  `json:"symbol"`
	Price           float64 `json:"price"`
	LastUpdatedUnix int64   `json:"last_updated_unix"`
}

// SupportedIntervals defines the bar intervals we store.
var SupportedIntervals = []string{"5minute", "15minute", "30minute", "60minute", "day"}

// IntervalDuration maps a bar interval to its wall-clock length.
var IntervalDuration = map[string]time.Duration{
	"5minute":  5 * time.Minute,
	"15minute": 15 * time.Minute,
	"30minute": 30 * time.Minute,
	"60minute": 60 * time.Minute,
	"day":      24 * time.Hour,
}
