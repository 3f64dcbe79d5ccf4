// Package view serves the HTTP surface over a Tracker: a JSON
// snapshot, a GeoJSON feature collection, a streaming websocket feed,
// and Prometheus metrics (§6). Serialization uses json-iterator/go
// in place of encoding/json, and positions are rendered with
// paulmach/orb + kpawlik/geojson, following this corpus's mapping
// stack rather than hand-rolled coordinate structs.
package view

import (
	"context"
	"net/http"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/kpawlik/geojson"
	"github.com/paulmach/orb"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"atctrace/internal/kinematics"
	"atctrace/internal/metrics"
	"atctrace/internal/tracker"
)

var jsonAPI = jsoniter.ConfigCompatibleWithStandardLibrary

// aircraftEntry is the wire shape for one aircraft in the §6 JSON
// snapshot contract, field for field.
type aircraftEntry struct {
	Hex      string  `json:"hex"`
	Flight   string  `json:"flight,omitempty"`
	Lat      float64 `json:"lat,omitempty"`
	Lon      float64 `json:"lon,omitempty"`
	Altitude int32   `json:"altitude,omitempty"`
	Track    float64 `json:"track,omitempty"`
	Speed    float64 `json:"speed,omitempty"`
	Type     string  `json:"type"`
	Messages uint64  `json:"messages"`
	Seen     int64   `json:"seen"`
	Source   string  `json:"source"`

	hasPosition bool
}

// snapshot is the §6 envelope: `now`, the running message counter, and
// the merged simulated + received aircraft list.
type snapshot struct {
	Now      float64         `json:"now"`
	Messages uint64          `json:"messages"`
	Aircraft []aircraftEntry `json:"aircraft"`
}

func buildSnapshot(trk *tracker.Tracker, now time.Time) snapshot {
	fleet := trk.Fleet()
	received := trk.Snapshot()

	out := make([]aircraftEntry, 0, len(fleet)+len(received))
	for _, a := range fleet {
		out = append(out, simulatedEntry(a))
	}
	for _, ra := range received {
		out = append(out, receivedEntry(ra, now))
	}

	return snapshot{
		Now:      float64(now.UnixNano()) / 1e9,
		Messages: trk.MessageCount(),
		Aircraft: out,
	}
}

func simulatedEntry(a *kinematics.Aircraft) aircraftEntry {
	lat, lon := a.Position()
	return aircraftEntry{
		Hex:      iCAOString(a.Icao),
		Flight:   strings.TrimRight(a.Callsign, " "),
		Lat:      lat,
		Lon:      lon,
		Altitude: a.AltitudeFt,
		Track:    a.Heading(),
		Speed:    a.SpeedKn,
		Type:     string(a.Kind),
		Messages: a.MessagesSent,
		Seen:     0,
		Source:   "simulated",

		hasPosition: true,
	}
}

func receivedEntry(ra *tracker.ReceivedAircraft, now time.Time) aircraftEntry {
	e := aircraftEntry{
		Hex:      iCAOString(ra.Icao),
		Type:     "unknown",
		Messages: ra.Messages,
		Seen:     int64(now.Sub(ra.LastSeen).Seconds()),
		Source:   "adsb",
	}
	if ra.HasCallsign {
		e.Flight = ra.Callsign
	}
	if ra.HasPosition {
		e.Lat, e.Lon = ra.Lat, ra.Lon
		e.hasPosition = true
	}
	if ra.HasAltitude {
		e.Altitude = ra.AltitudeFt
	}
	if ra.HasVelocity {
		e.Track = ra.HeadingDeg
		e.Speed = ra.SpeedKn
	}
	return e
}

func iCAOString(icao uint32) string {
	const hexdigits = "0123456789abcdef"
	b := [6]byte{}
	v := icao
	for i := 5; i >= 0; i-- {
		b[i] = hexdigits[v&0xF]
		v >>= 4
	}
	return string(b[:])
}

// Server is the HTTP view over a Tracker.
type Server struct {
	trk *tracker.Tracker
	mux *http.ServeMux
}

func New(trk *tracker.Tracker) *Server {
	s := &Server{trk: trk, mux: http.NewServeMux()}
	s.routes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.mux.HandleFunc("/data/aircraft.json", s.handleAircraftJSON)
	s.mux.HandleFunc("/data/aircraft.geojson", s.handleAircraftGeoJSON)
	s.mux.HandleFunc("/data/aircraft.ws", s.handleAircraftWS)
	s.mux.Handle("/metrics", promhttp.Handler())
	s.mux.HandleFunc("/", s.handleIndex)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte("<!doctype html><title>atctrace</title><p>see /data/aircraft.json, /data/aircraft.geojson, /data/aircraft.ws, /metrics</p>"))
}

func (s *Server) handleAircraftJSON(w http.ResponseWriter, r *http.Request) {
	snap := buildSnapshot(s.trk, time.Now())
	received := 0
	for _, e := range snap.Aircraft {
		if e.Source == "adsb" {
			received++
		}
	}
	metrics.KnownAircraft.Set(float64(received))

	w.Header().Set("Content-Type", "application/json")
	if err := jsonAPI.NewEncoder(w).Encode(snap); err != nil {
		log.Error().Err(err).Msg("view: failed to encode aircraft.json")
	}
}

func (s *Server) handleAircraftGeoJSON(w http.ResponseWriter, r *http.Request) {
	snap := buildSnapshot(s.trk, time.Now())

	features := make([]*geojson.Feature, 0, len(snap.Aircraft))
	for _, e := range snap.Aircraft {
		if !e.hasPosition {
			continue
		}
		point := orb.Point{e.Lon, e.Lat}
		geom := geojson.NewPoint(geojson.Coordinate{point.Lon(), point.Lat()})
		props := map[string]interface{}{
			"hex":      e.Hex,
			"flight":   e.Flight,
			"altitude": e.Altitude,
			"speed":    e.Speed,
			"track":    e.Track,
			"type":     e.Type,
			"source":   e.Source,
		}
		features = append(features, geojson.NewFeature(geom, props, e.Hex))
	}
	fc := geojson.NewFeatureCollection(features)

	w.Header().Set("Content-Type", "application/geo+json")
	if err := jsonAPI.NewEncoder(w).Encode(fc); err != nil {
		log.Error().Err(err).Msg("view: failed to encode aircraft.geojson")
	}
}

const wsPushInterval = 1 * time.Second

func (s *Server) handleAircraftWS(w http.ResponseWriter, r *http.Request) {
	c, err := websocket.Accept(w, r, nil)
	if err != nil {
		log.Debug().Err(err).Msg("view: websocket accept failed")
		return
	}
	defer c.CloseNow()

	ctx := r.Context()
	ticker := time.NewTicker(wsPushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			_ = c.Close(websocket.StatusNormalClosure, "")
			return
		case <-ticker.C:
			snap := buildSnapshot(s.trk, time.Now())
			writeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			err := wsjson.Write(writeCtx, c, snap)
			cancel()
			if err != nil {
				log.Debug().Err(err).Msg("view: websocket write failed, closing")
				return
			}
		}
	}
}
