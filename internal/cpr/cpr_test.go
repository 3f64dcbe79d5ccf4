package cpr

import (
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestNLBounds(t *testing.T) {
	require.Equal(t, 59, NL(0))
	require.Equal(t, 1, NL(87))
	require.Equal(t, 1, NL(-89))
}

func TestNLMonotonic(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		a := rapid.Float64Range(0, 89).Draw(t, "a")
		b := rapid.Float64Range(0, 89).Draw(t, "b")
		if a > b {
			a, b = b, a
		}
		require.GreaterOrEqual(t, NL(a), NL(b))
	})
}

func TestGlobalDecodeRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		lat := rapid.Float64Range(-86.9, 86.9).Draw(t, "lat")
		lon := rapid.Float64Range(-179.9, 179.9).Draw(t, "lon")

		even := Encode(lat, lon, false)
		odd := Encode(lat, lon, true)

		gotLat, gotLon, ok := GlobalDecode(even, odd, true)
		require.True(t, ok)
		require.InDelta(t, lat, gotLat, 5e-4)
		require.InDelta(t, lon, gotLon, 5e-4)
	})
}

func TestPositionExampleScenario(t *testing.T) {
	lat, lon := 52.2572, 3.91937
	even := Encode(lat, lon, false)
	odd := Encode(lat, lon, true)

	gotLat, gotLon, ok := GlobalDecode(even, odd, true)
	require.True(t, ok)
	require.InDelta(t, lat, gotLat, 5e-4)
	require.InDelta(t, lon, gotLon, 5e-4)
}
