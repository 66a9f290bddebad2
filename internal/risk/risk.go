// Package risk classifies conjunction events by miss distance.
package risk

import "github.com/recepsuluker/OrbitGuardAI/internal/orbit"

// Level is a qualitative severity bucket for a close approach.
type Level string

const (
	Critical Level = "CRITICAL" // < 0.5 km
	High     Level = "HIGH"     // < 1.0 km
	Medium   Level = "MEDIUM"   // < 2.5 km
	Low      Level = "LOW"
)

// Classify maps a miss distance in km to a severity level.
func Classify(distanceKm float64) Level {
	switch {
	case distanceKm < 0.5:
		return Critical
	case distanceKm < 1.0:
		return High
	case distanceKm < 2.5:
		return Medium
	default:
		return Low
	}
}

// Event pairs a conjunction with its severity classification.
type Event struct {
	orbit.Conjunction
	Level Level `json:"risk_level"`
}

// ClassifyAll wraps each conjunction with its risk level.
func ClassifyAll(conjs []orbit.Conjunction) []Event {
	if len(conjs) == 0 {
		return nil
	}
	events := make([]Event, len(conjs))
	for i, c := range conjs {
		events[i] = Event{Conjunction: c, Level: Classify(c.DistanceKm)}
	}
	return events
}
