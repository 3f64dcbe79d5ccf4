// Package kinematics models a simulated aircraft flying a circular
// path around a center point, grounded on original_source's Aircraft
// class (aircraft_simulator.py).
package kinematics

import (
	"math"
	"math/rand"
)

// Kind tags a simulated aircraft as civilian or military, used only
// for view classification (§9 "Polymorphic aircraft kind").
type Kind string

const (
	KindCivilian Kind = "civilian"
	KindMilitary Kind = "military"
)

// Aircraft is a simulated aircraft on a circular flight path. Icao,
// Callsign, Kind, RadiusNM, AltitudeFt, SpeedKn and Clockwise are
// immutable after construction; Angle changes on Update, and the
// simulator updates the emit timestamps, Odd and MessagesSent.
type Aircraft struct {
	Icao     uint32
	Callsign string
	Kind     Kind

	RadiusNM   float64
	AltitudeFt int32
	SpeedKn    float64
	Clockwise  bool

	Angle          float64 // radians, [0, 2pi)
	angularVelocity float64 // rad/s, signed by direction

	CenterLat float64
	CenterLon float64

	// LastIdentSec, LastPositionSec, LastVelocitySec track the last
	// time (simulator seconds elapsed) each message class was emitted,
	// and Odd toggles the CPR frame parity on each position emission.
	LastIdentSec    float64
	LastPositionSec float64
	LastVelocitySec float64
	Odd             bool

	// MessagesSent counts the Mode-S messages the simulator has
	// generated for this aircraft, surfaced as "messages" in the view
	// snapshot (§6) the same way a received aircraft's frame count is.
	MessagesSent uint64
}

// New builds an aircraft with randomly drawn flight parameters per §4.5.
func New(icao uint32, callsign string, kind Kind, centerLat, centerLon float64, rng *rand.Rand) *Aircraft {
	radius := 5 + rng.Float64()*(50-5)
	altitude := int32(100+rng.Intn(301)) * 100 // 10,000-40,000 ft in 100ft steps
	speed := 150 + rng.Float64()*(550-150)
	clockwise := rng.Intn(2) == 0
	angle := rng.Float64() * 2 * math.Pi

	a := &Aircraft{
		Icao:       icao,
		Callsign:   callsign,
		Kind:       kind,
		RadiusNM:   radius,
		AltitudeFt: altitude,
		SpeedKn:    speed,
		Clockwise:  clockwise,
		Angle:      angle,
		CenterLat:  centerLat,
		CenterLon:  centerLon,
	}
	a.angularVelocity = angularVelocity(speed, radius, clockwise)
	return a
}

// angularVelocity computes omega = +/- speed/(3600*r) rad/s, sign
// flipped for counter-clockwise motion (§3).
func angularVelocity(speedKn, radiusNM float64, clockwise bool) float64 {
	w := speedKn / (3600 * radiusNM)
	if !clockwise {
		w = -w
	}
	return w
}

// Update advances the aircraft's angle by dt seconds.
func (a *Aircraft) Update(dt float64) {
	a.Angle = math.Mod(a.Angle+a.angularVelocity*dt, 2*math.Pi)
	if a.Angle < 0 {
		a.Angle += 2 * math.Pi
	}
}

// Position returns the aircraft's current (lat, lon) from the
// parametric circle formula (§3); the longitude correction uses
// cosine of the center latitude (a small-fleet approximation, valid
// for radius << 60 degrees).
func (a *Aircraft) Position() (lat, lon float64) {
	rDeg := a.RadiusNM / 60.0
	lat = a.CenterLat + rDeg*math.Sin(a.Angle)
	lon = a.CenterLon + rDeg*math.Cos(a.Angle)/math.Cos(a.CenterLat*math.Pi/180)
	return lat, lon
}

// Heading returns the compass heading (degrees, [0,360)) derived from
// the analytic tangent of the current motion (§4.5); it is kept
// consistent with the velocity encoder so decoders reconstruct a
// track matching the direction of travel.
func (a *Aircraft) Heading() float64 {
	var vNorth, vEast float64
	if a.Clockwise {
		vNorth = math.Cos(a.Angle)
		vEast = -math.Sin(a.Angle)
	} else {
		vNorth = -math.Cos(a.Angle)
		vEast = math.Sin(a.Angle)
	}
	h := math.Atan2(vEast, vNorth) * 180 / math.Pi
	if h < 0 {
		h += 360
	}
	return h
}
