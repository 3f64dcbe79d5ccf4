// Package simulator drives a fleet of simulated aircraft (§4.5) and
// streams their Mode-S messages to a dump1090-style raw input port in
// Beast binary format (or AVR, via WithWireFormat), grounded on original_source's AircraftSimulator
// run loop (aircraft_simulator.py) but reworked into a retry-budget
// reconnect loop instead of the original's recursive send_message.
package simulator

import (
	"context"
	"fmt"
	"math/rand"
	"net"
	"time"

	"github.com/rs/zerolog/log"

	"atctrace/internal/beast"
	"atctrace/internal/kinematics"
	"atctrace/internal/metrics"
	"atctrace/internal/modes"
	"atctrace/internal/tracker"
)

const (
	tickInterval     = 100 * time.Millisecond
	identInterval    = 10 * time.Second
	positionInterval = 500 * time.Millisecond
	velocityInterval = 2 * time.Second
	reportInterval   = 5 * time.Second

	initialBackoff  = 2 * time.Second
	maxBackoff      = 30 * time.Second
	maxDialAttempts = 5
	dialTimeout     = 5 * time.Second
)

// WireFormat selects how the Driver serializes outbound frames.
type WireFormat int

const (
	WireBeast WireFormat = iota
	WireAVR
)

// Driver advances a Tracker's simulated fleet and pushes the fleet's
// generated messages over an outbound TCP connection.
type Driver struct {
	addr   string
	trk    *tracker.Tracker
	format WireFormat

	conn net.Conn
	enc  *beast.Encoder

	dialAttempts int
	nextDialAt   time.Time

	elapsed      float64
	messageCount uint64
}

// NewDriver builds a Driver targeting the given dump1090-style raw
// input address (host:port), emitting Beast-framed messages.
func NewDriver(addr string, trk *tracker.Tracker) *Driver {
	return &Driver{addr: addr, trk: trk, enc: beast.NewEncoder(), format: WireBeast}
}

// WithWireFormat switches the Driver's outbound framing.
func (d *Driver) WithWireFormat(f WireFormat) *Driver {
	d.format = f
	return d
}

// SeedFleet populates the tracker with n randomly parameterised
// aircraft orbiting (centerLat, centerLon).
func SeedFleet(trk *tracker.Tracker, n int, centerLat, centerLon float64, rng *rand.Rand) {
	airlines := []string{"AAL", "DAL", "UAL", "SWA", "JBU", "ASA", "SKW", "FFT", "NKS", "BAW",
		"DLH", "AFR", "KLM", "ACA", "UAE", "QTR", "SIA", "CPA", "JAL", "ANA"}
	for i := 0; i < n; i++ {
		icao := uint32(rng.Intn(0x1000000))
		var callsign string
		if rng.Float64() < 0.8 {
			callsign = fmt.Sprintf("%s%04d", airlines[rng.Intn(len(airlines))], 1+rng.Intn(9999))
		} else {
			letters := "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
			callsign = fmt.Sprintf("N%03d%c%c", 1+rng.Intn(999), letters[rng.Intn(26)], letters[rng.Intn(26)])
		}
		kind := kinematics.KindCivilian
		if rng.Float64() < 0.05 {
			kind = kinematics.KindMilitary
		}
		a := kinematics.New(icao, callsign, kind, centerLat, centerLon, rng)
		trk.AddSimulated(a)
	}
}

// Run drives the fleet at 10Hz until ctx is cancelled. Aircraft state
// advances on every tick regardless of connection state (§4.6 "while
// disconnected, still advance aircraft state"); the outbound
// connection is dialed and redialed opportunistically between ticks
// so a slow or absent listener never stalls the tick loop itself. A
// run of maxDialAttempts consecutive failed dials surfaces the last
// error to the caller.
func (d *Driver) Run(ctx context.Context) error {
	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	last := time.Now()
	reportAt := last.Add(reportInterval)
	reportStart := last

	defer func() {
		if d.conn != nil {
			_ = d.conn.Close()
			d.conn = nil
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			dt := now.Sub(last).Seconds()
			last = now
			d.elapsed += dt

			d.trk.TickSimulated(dt)

			if d.conn == nil {
				if err := d.maybeDial(now); err != nil {
					return err
				}
			}

			if d.conn != nil {
				if err := d.emitDue(d.trk.Fleet(), now); err != nil {
					log.Warn().Err(err).Msg("simulator: connection lost, reconnecting")
					_ = d.conn.Close()
					d.conn = nil
					d.dialAttempts = 0
					d.nextDialAt = time.Time{}
				}
			}

			if now.After(reportAt) {
				rate := float64(d.messageCount) / time.Since(reportStart).Seconds()
				log.Info().Uint64("messages", d.messageCount).Float64("msg_per_sec", rate).Msg("simulator: throughput")
				reportAt = now.Add(reportInterval)
			}
		}
	}
}

// maybeDial attempts to (re)connect once the backoff window from the
// previous failed attempt has elapsed (initial 2s, doubling, up to
// maxDialAttempts per §4.6). The dial call itself may block up to
// dialTimeout — an allowed suspension point per §5 — but the wait
// between attempts never blocks the tick loop.
func (d *Driver) maybeDial(now time.Time) error {
	if now.Before(d.nextDialAt) {
		return nil
	}

	conn, err := net.DialTimeout("tcp", d.addr, dialTimeout)
	if err == nil {
		d.conn = conn
		d.dialAttempts = 0
		log.Info().Str("addr", d.addr).Msg("simulator: connected")
		return nil
	}

	d.dialAttempts++
	if d.dialAttempts >= maxDialAttempts {
		return fmt.Errorf("simulator: giving up after %d connect attempts: %w", d.dialAttempts, err)
	}

	backoff := initialBackoff << uint(d.dialAttempts-1)
	if backoff > maxBackoff {
		backoff = maxBackoff
	}
	d.nextDialAt = now.Add(backoff)
	log.Warn().Err(err).Dur("retry_in", backoff).Int("attempt", d.dialAttempts).Msg("simulator: dial failed")
	return nil
}

func (d *Driver) emitDue(fleet []*kinematics.Aircraft, now time.Time) error {
	for _, a := range fleet {
		if d.elapsed-a.LastIdentSec > identInterval.Seconds() {
			if err := d.send(modes.EncodeIdent(a.Icao, a.Callsign, 0), now); err != nil {
				return err
			}
			a.LastIdentSec = d.elapsed
			a.MessagesSent++
			metrics.SimulatedMessagesTotal.WithLabelValues("ident").Inc()
		}
		if d.elapsed-a.LastPositionSec > positionInterval.Seconds() {
			lat, lon := a.Position()
			a.Odd = !a.Odd
			if err := d.send(modes.EncodePosition(a.Icao, lat, lon, a.AltitudeFt, a.Odd, 11), now); err != nil {
				return err
			}
			a.LastPositionSec = d.elapsed
			a.MessagesSent++
			metrics.SimulatedMessagesTotal.WithLabelValues("position").Inc()
		}
		if d.elapsed-a.LastVelocitySec > velocityInterval.Seconds() {
			if err := d.send(modes.EncodeVelocity(a.Icao, a.SpeedKn, a.Heading(), 0), now); err != nil {
				return err
			}
			a.LastVelocitySec = d.elapsed
			a.MessagesSent++
			metrics.SimulatedMessagesTotal.WithLabelValues("velocity").Inc()
		}
	}
	return nil
}

func (d *Driver) send(hexFrame string, now time.Time) error {
	var wire []byte
	if d.format == WireAVR {
		wire = beast.AVREncode(hexFrame)
	} else {
		encoded, err := d.enc.Encode(hexFrame, now)
		if err != nil {
			return err
		}
		wire = encoded
	}
	if _, err := d.conn.Write(wire); err != nil {
		return err
	}
	d.messageCount++
	return nil
}
