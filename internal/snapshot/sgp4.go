// Package snapshot derives single-instant state vectors from TLE element
// sets. It is the supplier side of the analysis contract: the orbit kernels
// consume the []orbit.Satellite built here and never touch propagation
// themselves.
package snapshot

import (
	"fmt"
	"math"
	"strings"
	"time"

	satellite "github.com/joshuaferrara/go-satellite"

	"github.com/recepsuluker/OrbitGuardAI/internal/orbit"
)

// SGP4 library choice: github.com/joshuaferrara/go-satellite
//
// Pure Go (no CGO), battle-tested, explicit TEME output in km and km/s.
// TEME is an Earth-centered inertial frame, which is exactly what the orbit
// kernels assume, so no frame transformation is needed.
//
// Note: Propagate() takes Satellite by value so SGP4 error codes are not
// visible to the caller. We detect propagation failures by checking output
// for NaN/Inf and unreasonable position magnitudes.

// propagator wraps the go-satellite SGP4 model for a single satellite.
type propagator struct {
	sat     satellite.Satellite
	noradID int
}

// newPropagator initializes the SGP4 model from TLE lines.
//
// Pre-validates TLE format before passing to the library, because
// go-satellite calls log.Fatal on malformed input (which would kill the
// process).
func newPropagator(line1, line2 string, noradID int) (*propagator, error) {
	if err := validateTLELines(line1, line2); err != nil {
		return nil, fmt.Errorf("invalid TLE for NORAD %d: %w", noradID, err)
	}

	sat := satellite.TLEToSat(line1, line2, satellite.GravityWGS84)
	if sat.Error != 0 {
		return nil, fmt.Errorf("sgp4 init failed for NORAD %d: code=%d %s", noradID, sat.Error, sat.ErrorStr)
	}
	return &propagator{sat: sat, noradID: noradID}, nil
}

// validateTLELines performs basic format validation on TLE lines.
func validateTLELines(line1, line2 string) error {
	line1 = strings.TrimSpace(line1)
	line2 = strings.TrimSpace(line2)

	if len(line1) != 69 {
		return fmt.Errorf("line1 length %d, expected 69", len(line1))
	}
	if len(line2) != 69 {
		return fmt.Errorf("line2 length %d, expected 69", len(line2))
	}
	if line1[0] != '1' {
		return fmt.Errorf("line1 must start with '1', got '%c'", line1[0])
	}
	if line2[0] != '2' {
		return fmt.Errorf("line2 must start with '2', got '%c'", line2[0])
	}
	return nil
}

// stateAt computes the satellite state vector at time t (UTC).
func (p *propagator) stateAt(t time.Time) (orbit.Satellite, error) {
	t = t.UTC()
	pos, vel := satellite.Propagate(p.sat, t.Year(), int(t.Month()), t.Day(), t.Hour(), t.Minute(), t.Second())

	if math.IsNaN(pos.X) || math.IsNaN(pos.Y) || math.IsNaN(pos.Z) ||
		math.IsInf(pos.X, 0) || math.IsInf(pos.Y, 0) || math.IsInf(pos.Z, 0) {
		return orbit.Satellite{}, fmt.Errorf("sgp4 propagation failed for NORAD %d: output is NaN/Inf", p.noradID)
	}

	// Position magnitude should be between ~6200 km (decayed LEO) and
	// ~50000 km (beyond GEO) for anything in the catalog.
	mag := math.Sqrt(pos.X*pos.X + pos.Y*pos.Y + pos.Z*pos.Z)
	if mag < 6200.0 || mag > 50000.0 {
		return orbit.Satellite{}, fmt.Errorf("sgp4 propagation failed for NORAD %d: unreasonable position magnitude %.1f km", p.noradID, mag)
	}

	return orbit.Satellite{
		NORADID:  p.noradID,
		Position: orbit.Vec3{pos.X, pos.Y, pos.Z},
		Velocity: orbit.Vec3{vel.X, vel.Y, vel.Z},
	}, nil
}
