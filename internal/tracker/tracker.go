// Package tracker holds the live aircraft picture: the simulated fleet
// position (§4.5) on one side, and the received-frame state built up
// from decoded Mode-S messages (§4.7) on the other. View (§6) merges
// both sides into one snapshot.
package tracker

import (
	"sync"
	"time"

	"github.com/patrickmn/go-cache"

	"atctrace/internal/bus"
	"atctrace/internal/cpr"
	"atctrace/internal/kinematics"
	"atctrace/internal/modes"
)

// DefaultStaleTimeout is how long a received aircraft is kept without
// a refreshing message before it is evicted and an AircraftLost event
// fires (§4.7).
const DefaultStaleTimeout = 60 * time.Second

// cprFragment is one half (even or odd) of a CPR position pair, along
// with when it arrived; global decode needs both halves within a few
// seconds of each other (§3 CPR).
type cprFragment struct {
	frame cpr.Frame
	at    time.Time
}

// ReceivedAircraft is the state built up from decoded inbound frames
// for one ICAO address.
type ReceivedAircraft struct {
	Icao uint32

	Callsign    string
	HasCallsign bool

	Lat, Lon    float64
	HasPosition bool

	AltitudeFt  int32
	HasAltitude bool

	SpeedKn, HeadingDeg float64
	VerticalRateFpm     int32
	HasVelocity         bool
	HasVerticalRate     bool

	FirstSeen time.Time
	LastSeen  time.Time
	Messages  uint64

	even, odd *cprFragment
}

// Tracker is the service's shared mutable state: the simulated fleet
// and the received-aircraft cache. The fleet slice and the cache change
// only through its exported methods, each of which takes the single
// mutex; Fleet returns the shared *Aircraft pointers, and callers such
// as the simulator driver update fields on them without that mutex.
type Tracker struct {
	mu    sync.Mutex
	fleet []*kinematics.Aircraft

	received *cache.Cache
	timeout  time.Duration

	messageCount uint64

	bus *bus.Bus
}

// New builds a Tracker. eventBus may be nil, in which case lifecycle
// events are simply not published.
func New(staleTimeout time.Duration, eventBus *bus.Bus) *Tracker {
	if staleTimeout <= 0 {
		staleTimeout = DefaultStaleTimeout
	}
	t := &Tracker{
		received: cache.New(staleTimeout, staleTimeout/2),
		timeout:  staleTimeout,
		bus:      eventBus,
	}
	t.received.OnEvicted(func(key string, value interface{}) {
		ra, ok := value.(*ReceivedAircraft)
		if !ok || t.bus == nil {
			return
		}
		t.bus.Publish(bus.Event{
			Kind:     bus.AircraftLost,
			Icao:     ra.Icao,
			Callsign: ra.Callsign,
			At:       time.Now(),
		})
	})
	return t
}

// AddSimulated registers a simulated aircraft with the fleet.
func (t *Tracker) AddSimulated(a *kinematics.Aircraft) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.fleet = append(t.fleet, a)
}

// Fleet returns a snapshot copy of the simulated fleet slice.
func (t *Tracker) Fleet() []*kinematics.Aircraft {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]*kinematics.Aircraft, len(t.fleet))
	copy(out, t.fleet)
	return out
}

// TickSimulated advances every simulated aircraft by dt seconds.
func (t *Tracker) TickSimulated(dt float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, a := range t.fleet {
		a.Update(dt)
	}
}

// MessageCount returns the running count of inbound frames ingested.
func (t *Tracker) MessageCount() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.messageCount
}

func icaoKey(icao uint32) string {
	const hexdigits = "0123456789ABCDEF"
	b := [6]byte{}
	for i := 5; i >= 0; i-- {
		b[i] = hexdigits[icao&0xF]
		icao >>= 4
	}
	return string(b[:])
}

// IngestFrame folds one decoded Mode-S frame into the received-aircraft
// state, refreshing the entry's TTL and publishing an AircraftSeen
// event the first time an ICAO is observed.
func (t *Tracker) IngestFrame(f *modes.Frame) {
	if f == nil {
		return
	}
	if err := f.Decode(); err != nil {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.messageCount++

	key := icaoKey(f.Icao())
	now := time.Now()

	var ra *ReceivedAircraft
	firstSighting := false
	if cached, found := t.received.Get(key); found {
		ra = cached.(*ReceivedAircraft)
	} else {
		ra = &ReceivedAircraft{Icao: f.Icao(), FirstSeen: now}
		firstSighting = true
	}
	ra.LastSeen = now
	ra.Messages++

	switch f.Kind() {
	case modes.KindIdent:
		ra.Callsign = f.Callsign()
		ra.HasCallsign = true
	case modes.KindPosition:
		t.foldPosition(ra, f, now)
	case modes.KindVelocity:
		speed, heading, vr, hasVR := f.Velocity()
		ra.SpeedKn = speed
		ra.HeadingDeg = heading
		ra.HasVelocity = true
		if hasVR {
			ra.VerticalRateFpm = vr
			ra.HasVerticalRate = true
		}
	}

	t.received.Set(key, ra, cache.DefaultExpiration)

	if firstSighting && t.bus != nil {
		t.bus.Publish(bus.Event{Kind: bus.AircraftSeen, Icao: ra.Icao, Callsign: ra.Callsign, At: now})
	}
}

// foldPosition stores the frame's CPR fragment and, once both an even
// and an odd fragment are on hand within a few seconds of each other,
// performs the global CPR decode (§3 CPR, "Global decode").
func (t *Tracker) foldPosition(ra *ReceivedAircraft, f *modes.Frame, now time.Time) {
	if altFt, ok := f.Altitude(); ok {
		ra.AltitudeFt = altFt
		ra.HasAltitude = true
	}

	latCPR, lonCPR := f.CPR()
	odd := f.Odd()
	frag := &cprFragment{frame: cpr.Frame{LatCPR: latCPR, LonCPR: lonCPR, Odd: odd}, at: now}
	if odd {
		ra.odd = frag
	} else {
		ra.even = frag
	}

	if ra.even == nil || ra.odd == nil {
		return
	}
	if ra.even.at.Sub(ra.odd.at).Abs() > 10*time.Second {
		return
	}

	lat, lon, ok := cpr.GlobalDecode(ra.even.frame, ra.odd.frame, odd)
	if !ok {
		return
	}
	ra.Lat, ra.Lon = lat, lon
	ra.HasPosition = true
}

// Snapshot returns the current set of received aircraft states, sorted
// by ICAO key for stable JSON/GeoJSON output.
func (t *Tracker) Snapshot() []*ReceivedAircraft {
	t.mu.Lock()
	defer t.mu.Unlock()

	items := t.received.Items()
	out := make([]*ReceivedAircraft, 0, len(items))
	for _, item := range items {
		if ra, ok := item.Object.(*ReceivedAircraft); ok {
			out = append(out, ra)
		}
	}
	sortByIcao(out)
	return out
}

func sortByIcao(aircraft []*ReceivedAircraft) {
	for i := 1; i < len(aircraft); i++ {
		for j := i; j > 0 && aircraft[j-1].Icao > aircraft[j].Icao; j-- {
			aircraft[j-1], aircraft[j] = aircraft[j], aircraft[j-1]
		}
	}
}
