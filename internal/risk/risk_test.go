package risk

import (
	"testing"

	"github.com/recepsuluker/OrbitGuardAI/internal/orbit"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		distanceKm float64
		want       Level
	}{
		{0.0, Critical},
		{0.499, Critical},
		{0.5, High},
		{0.999, High},
		{1.0, Medium},
		{2.499, Medium},
		{2.5, Low},
		{9.9, Low},
	}

	for _, tt := range tests {
		if got := Classify(tt.distanceKm); got != tt.want {
			t.Errorf("Classify(%v) = %v, want %v", tt.distanceKm, got, tt.want)
		}
	}
}

func TestClassifyAll(t *testing.T) {
	conjs := []orbit.Conjunction{
		{NORADID1: 1, NORADID2: 2, DistanceKm: 0.2},
		{NORADID1: 3, NORADID2: 4, DistanceKm: 5.0},
	}

	events := ClassifyAll(conjs)
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}
	if events[0].Level != Critical {
		t.Errorf("event 0 level = %v, want CRITICAL", events[0].Level)
	}
	if events[1].Level != Low {
		t.Errorf("event 1 level = %v, want LOW", events[1].Level)
	}

	if got := ClassifyAll(nil); got != nil {
		t.Errorf("ClassifyAll(nil) = %v, want nil", got)
	}
}
