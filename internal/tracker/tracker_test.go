package tracker

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"atctrace/internal/bus"
	"atctrace/internal/kinematics"
	"atctrace/internal/modes"
)

func mustFrame(t *testing.T, hexStr string) *modes.Frame {
	t.Helper()
	f, err := modes.NewFrame(hexStr)
	require.NoError(t, err)
	return f
}

func TestIngestFrameIdentPublishesSeenOnce(t *testing.T) {
	b := bus.New()
	events := b.Subscribe(4)
	tr := New(time.Minute, b)

	ident := modes.EncodeIdent(0x4840D6, "KLM1023", 0)
	tr.IngestFrame(mustFrame(t, ident))
	tr.IngestFrame(mustFrame(t, ident))

	snap := tr.Snapshot()
	require.Len(t, snap, 1)
	require.Equal(t, "KLM1023", snap[0].Callsign)
	require.EqualValues(t, 2, snap[0].Messages)

	select {
	case e := <-events:
		require.Equal(t, bus.AircraftSeen, e.Kind)
		require.Equal(t, uint32(0x4840D6), e.Icao)
	default:
		t.Fatal("expected an AircraftSeen event")
	}

	select {
	case e := <-events:
		t.Fatalf("expected only one AircraftSeen event, got second: %+v", e)
	default:
	}
}

func TestIngestFramePositionRequiresBothParities(t *testing.T) {
	tr := New(time.Minute, nil)

	const icao = 0x4840D6
	lat, lon := 52.2572, 3.91937

	even := modes.EncodePosition(icao, lat, lon, 38000, false, 11)
	tr.IngestFrame(mustFrame(t, even))

	snap := tr.Snapshot()
	require.Len(t, snap, 1)
	require.False(t, snap[0].HasPosition, "position needs both even and odd fragments")

	odd := modes.EncodePosition(icao, lat, lon, 38000, true, 11)
	tr.IngestFrame(mustFrame(t, odd))

	snap = tr.Snapshot()
	require.Len(t, snap, 1)
	require.True(t, snap[0].HasPosition)
	require.InDelta(t, lat, snap[0].Lat, 0.01)
	require.InDelta(t, lon, snap[0].Lon, 0.01)
	require.True(t, snap[0].HasAltitude)
	require.EqualValues(t, 38000, snap[0].AltitudeFt)
}

func TestIngestFrameVelocity(t *testing.T) {
	tr := New(time.Minute, nil)
	msg := modes.EncodeVelocity(0x4840D6, 250, 90, 500)
	tr.IngestFrame(mustFrame(t, msg))

	snap := tr.Snapshot()
	require.Len(t, snap, 1)
	require.True(t, snap[0].HasVelocity)
	require.InDelta(t, 250, snap[0].SpeedKn, 1)
	require.InDelta(t, 90, snap[0].HeadingDeg, 1)
	require.True(t, snap[0].HasVerticalRate)
	require.InDelta(t, 500, snap[0].VerticalRateFpm, 64)
}

func TestSnapshotSortedByIcao(t *testing.T) {
	tr := New(time.Minute, nil)
	tr.IngestFrame(mustFrame(t, modes.EncodeIdent(0x0002, "BBBB", 0)))
	tr.IngestFrame(mustFrame(t, modes.EncodeIdent(0x0001, "AAAA", 0)))

	snap := tr.Snapshot()
	require.Len(t, snap, 2)
	require.Equal(t, uint32(0x0001), snap[0].Icao)
	require.Equal(t, uint32(0x0002), snap[1].Icao)
}

func TestFleetTickAdvancesPosition(t *testing.T) {
	tr := New(time.Minute, nil)
	rng := rand.New(rand.NewSource(7))
	a := kinematics.New(0x1, "SIM1", kinematics.KindCivilian, 33.75, -84.38, rng)
	tr.AddSimulated(a)

	lat0, lon0 := a.Position()
	tr.TickSimulated(10)
	lat1, lon1 := a.Position()

	require.Len(t, tr.Fleet(), 1)
	require.False(t, lat0 == lat1 && lon0 == lon1)
}
