package modes

import (
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestDecodeKLM1023(t *testing.T) {
	f, err := NewFrame("8D4840D6202CC371C32CE0576098")
	require.NoError(t, err)
	require.NoError(t, f.Decode())

	require.Equal(t, byte(17), f.DownLinkType())
	require.Equal(t, KindIdent, f.Kind())
	require.Equal(t, uint32(0x4840D6), f.Icao())
	require.Equal(t, "KLM1023", f.Callsign())
}

func TestIdentRoundTripProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		icao := uint32(rapid.Uint32Range(0, 1<<24-1).Draw(t, "icao"))
		csLen := rapid.IntRange(1, 8).Draw(t, "len")
		cs := make([]byte, csLen)
		for i := range cs {
			cs[i] = byte(rapid.SampledFrom([]rune("ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789 ")).Draw(t, "c"))
		}
		callsign := string(cs)

		hexFrame := EncodeIdent(icao, callsign, 0)
		f, err := NewFrame(hexFrame)
		require.NoError(t, err)
		require.NoError(t, f.Decode())

		require.Equal(t, icao, f.Icao())

		want := (callsign + "        ")[:8]
		want = trimPadding(want)
		require.Equal(t, want, f.Callsign())
	})
}

func trimPadding(s string) string {
	for len(s) > 0 && s[len(s)-1] == ' ' {
		s = s[:len(s)-1]
	}
	return s
}

func TestVelocityRoundTripProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		icao := uint32(rapid.Uint32Range(0, 1<<24-1).Draw(t, "icao"))
		speed := rapid.Float64Range(0, 1022).Draw(t, "speed")
		heading := rapid.Float64Range(0, 359.9).Draw(t, "heading")

		hexFrame := EncodeVelocity(icao, speed, heading, 0)
		f, err := NewFrame(hexFrame)
		require.NoError(t, err)
		require.NoError(t, f.Decode())

		gotSpeed, gotHeading, _, _ := f.Velocity()
		require.InDelta(t, speed, gotSpeed, 1.0)

		diff := headingDiff(heading, gotHeading)
		require.LessOrEqual(t, diff, 1.0)
	})
}

func headingDiff(a, b float64) float64 {
	d := a - b
	for d > 180 {
		d -= 360
	}
	for d < -180 {
		d += 360
	}
	if d < 0 {
		d = -d
	}
	return d
}

func TestAltitudeRoundTripProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		steps := rapid.IntRange(0, (50175+1000)/25).Draw(t, "steps")
		altFt := int32(steps*25 - 1000)

		hexFrame := EncodePosition(0x4840D6, 10, 10, altFt, false, 11)
		f, err := NewFrame(hexFrame)
		require.NoError(t, err)
		require.NoError(t, f.Decode())

		gotAlt, ok := f.Altitude()
		require.True(t, ok)
		require.Equal(t, altFt, gotAlt)
	})
}

func TestVelocityExampleScenario(t *testing.T) {
	hexFrame := EncodeVelocity(0x485020, 159, 182.88, -832)
	f, err := NewFrame(hexFrame)
	require.NoError(t, err)
	require.NoError(t, f.Decode())

	speed, heading, vr, hasVR := f.Velocity()
	require.InDelta(t, 159, speed, 1)
	require.InDelta(t, 183, heading, 1)
	require.True(t, hasVR)
	require.InDelta(t, -832, vr, 64)
}
