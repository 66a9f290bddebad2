// Package orbit implements the conjunction-analysis core: the Satellite state
// vector entity and the three all-pairs search kernels (pairwise distance
// matrix, threshold conjunction search, closest-approach search).
//
// Kernels are pure functions over an ordered satellite slice. They hold no
// state between calls and never mutate their input; the only error in the
// whole package is the shape check performed at Satellite construction.
package orbit

import (
	"errors"
	"fmt"
	"math"
)

// EarthRadiusKm is the mean Earth radius used for altitude calculations.
const EarthRadiusKm = 6371.0

// ErrInvalidStateVector is returned when a position or velocity slice does
// not have exactly 3 components.
var ErrInvalidStateVector = errors.New("position and velocity must have 3 components")

// Vec3 is a 3-component vector in an Earth-centered inertial frame.
// Position components are kilometres, velocity components km/s.
type Vec3 [3]float64

// Sub returns v - other.
func (v Vec3) Sub(other Vec3) Vec3 {
	return Vec3{v[0] - other[0], v[1] - other[1], v[2] - other[2]}
}

// Norm returns the Euclidean norm of the vector.
func (v Vec3) Norm() float64 {
	return math.Sqrt(v[0]*v[0] + v[1]*v[1] + v[2]*v[2])
}

// Satellite is an immutable snapshot of one tracked object's state vector at
// a single instant. The fixed-size Vec3 arrays make the 3-component shape
// invariant part of the type, so a malformed satellite cannot be represented.
type Satellite struct {
	NORADID  int
	Position Vec3 // km, ECI
	Velocity Vec3 // km/s, ECI
}

// NewSatellite builds a Satellite from caller-supplied slices, validating the
// 3-component shape. This is the boundary for callers that hold variable
// length data (parsed JSON, database rows); code that already has Vec3 values
// can construct Satellite directly.
func NewSatellite(noradID int, position, velocity []float64) (Satellite, error) {
	if len(position) != 3 || len(velocity) != 3 {
		return Satellite{}, fmt.Errorf("satellite %d: %w", noradID, ErrInvalidStateVector)
	}
	return Satellite{
		NORADID:  noradID,
		Position: Vec3{position[0], position[1], position[2]},
		Velocity: Vec3{velocity[0], velocity[1], velocity[2]},
	}, nil
}

// DistanceTo returns the straight-line distance to another satellite in km.
func (s Satellite) DistanceTo(other Satellite) float64 {
	return s.Position.Sub(other.Position).Norm()
}

// RelativeVelocity returns the magnitude of the velocity difference in km/s.
func (s Satellite) RelativeVelocity(other Satellite) float64 {
	return s.Velocity.Sub(other.Velocity).Norm()
}

// Altitude returns the height above the mean Earth surface in km.
func (s Satellite) Altitude() float64 {
	return s.Position.Norm() - EarthRadiusKm
}

// Speed returns the orbital speed in km/s.
func (s Satellite) Speed() float64 {
	return s.Velocity.Norm()
}

func (s Satellite) String() string {
	return fmt.Sprintf("Satellite(norad_id=%d, alt=%.1fkm, speed=%.2fkm/s)",
		s.NORADID, s.Altitude(), s.Speed())
}

// Conjunction is a single close-approach result between two satellites.
// NORADID1 belongs to the satellite at the lower scan position in the input
// list, not the numerically smaller id.
type Conjunction struct {
	NORADID1            int     `json:"norad_id_1"`
	NORADID2            int     `json:"norad_id_2"`
	DistanceKm          float64 `json:"distance_km"`
	RelativeVelocityKmS float64 `json:"relative_velocity_km_s"`
}

func (c Conjunction) String() string {
	return fmt.Sprintf("Conjunction(%d <-> %d, dist=%.2fkm, rel_vel=%.2fkm/s)",
		c.NORADID1, c.NORADID2, c.DistanceKm, c.RelativeVelocityKmS)
}

// ClosestApproach is the nearest neighbour of one satellite in a scanned list.
type ClosestApproach struct {
	NORADID        int     `json:"norad_id"`
	ClosestNORADID int     `json:"closest_norad_id"`
	DistanceKm     float64 `json:"distance_km"`
}
