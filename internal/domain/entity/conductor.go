package entity

import (
	"time"
)

// DefaultBusCapacity is the seat capacity assumed when a conductor record
// carries none.
const DefaultBusCapacity = 27

// Conductor is read-only reference data joined onto ticket aggregates.
// The engine never mutates it.
type Conductor struct {
	ID                string    `json:"id"`
	Name              string    `json:"name"`
	BusNumber         string    `json:"busNumber"`
	Capacity          int       `json:"capacity"`
	CurrentPassengers int       `json:"currentPassengers"`
	IsOnline          bool      `json:"isOnline"`
	LastSeen          time.Time `json:"lastSeen"`
}

// EffectiveCapacity returns the configured capacity, falling back to the
// default when unset.
func (c Conductor) EffectiveCapacity() int {
	if c.Capacity <= 0 {
		return DefaultBusCapacity
	}
	return c.Capacity
}

// Utilization returns current load as a percentage of capacity, capped at 100.
func (c Conductor) Utilization() float64 {
	pct := float64(c.CurrentPassengers) / float64(c.EffectiveCapacity()) * 100
	if pct > 100 {
		return 100
	}
	if pct < 0 {
		return 0
	}
	return pct
}
