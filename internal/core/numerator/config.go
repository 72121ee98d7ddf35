// Package numerator defines the counter capability behind folio sequence
// numbers. Implementations live in the infrastructure layer.
package numerator

import "time"

// ResetPeriod controls when a counter starts over.
type ResetPeriod string

const (
	ResetNever ResetPeriod = "never"
	ResetYear  ResetPeriod = "year"
)

// Config names a counter.
type Config struct {
	// Key is the counter name (a folio prefix).
	Key string

	ResetPeriod ResetPeriod
}

// DefaultConfig returns a counter that never resets.
func DefaultConfig(key string) Config {
	return Config{Key: key, ResetPeriod: ResetNever}
}

// StorageKey is the row key of the counter for the period containing at.
func (c Config) StorageKey(at time.Time) string {
	if c.ResetPeriod == ResetYear {
		return c.Key + "/" + at.Format("2006")
	}
	return c.Key
}
