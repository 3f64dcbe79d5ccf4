// Package cpr implements Compact Position Reporting: per-axis encoding
// of a geographic position into 17-bit even/odd frames, and the global
// decode of a position from one even and one odd frame.
package cpr

import "math"

const (
	nz     = 15
	cprMax = 131072.0 // 2^17
)

// Frame is one encoded CPR fragment for a single axis pair (lat, lon),
// tagged with its parity.
type Frame struct {
	LatCPR uint32
	LonCPR uint32
	Odd    bool
}

func modInt(a, b int) int {
	r := a % b
	if r < 0 {
		r += b
	}
	return r
}

// dlatForParity returns 360/(4*NZ - F).
func dlatForParity(odd bool) float64 {
	if odd {
		return 360.0 / float64(4*nz-1)
	}
	return 360.0 / float64(4*nz)
}

// Encode produces the 17-bit lat/lon CPR fields for one axis pair at
// the given parity.
func Encode(lat, lon float64, odd bool) Frame {
	dlat := dlatForParity(odd)
	yz := lat / dlat
	latCPR := uint32(int64(math.Floor((yz-math.Floor(yz))*cprMax))) & 0x1FFFF

	nl := NL(lat)
	f := 0
	if odd {
		f = 1
	}
	n := nl - f
	if n < 1 {
		n = 1
	}
	dlon := 360.0 / float64(n)
	xz := lon / dlon
	lonCPR := uint32(int64(math.Floor((xz-math.Floor(xz))*cprMax))) & 0x1FFFF

	return Frame{LatCPR: latCPR, LonCPR: lonCPR, Odd: odd}
}

// GlobalDecode recovers (lat, lon) from one even and one odd frame.
// newerIsOdd selects which frame's timestamp is more recent, per the
// "choose lat from whichever parity is newer" rule; ok is false when
// the pair is inconsistent (NL mismatch) and the caller should keep
// waiting for a fresher pair.
func GlobalDecode(even, odd Frame, newerIsOdd bool) (lat, lon float64, ok bool) {
	lat0 := float64(even.LatCPR)
	lat1 := float64(odd.LatCPR)

	airDlat0 := 360.0 / 60.0
	airDlat1 := 360.0 / 59.0

	j := int(math.Floor((59*lat0-60*lat1)/cprMax + 0.5))

	rlat0 := airDlat0 * (float64(modInt(j, 60)) + lat0/cprMax)
	rlat1 := airDlat1 * (float64(modInt(j, 59)) + lat1/cprMax)

	if rlat0 >= 270 {
		rlat0 -= 360
	}
	if rlat1 >= 270 {
		rlat1 -= 360
	}

	if rlat0 < -90 || rlat0 > 90 || rlat1 < -90 || rlat1 > 90 {
		return 0, 0, false
	}

	if NL(rlat0) != NL(rlat1) {
		return 0, 0, false
	}

	var rlat float64
	var f int
	if newerIsOdd {
		rlat = rlat1
		f = 1
	} else {
		rlat = rlat0
		f = 0
	}

	nl := NL(rlat)
	ni := nl - f
	if ni < 1 {
		ni = 1
	}
	dlonF := 360.0 / float64(ni)

	lon0 := float64(even.LonCPR)
	lon1 := float64(odd.LonCPR)
	m := int(math.Floor((lon0*float64(nl-1)-lon1*float64(nl))/cprMax + 0.5))

	var lonCPR float64
	if f == 1 {
		lonCPR = lon1
	} else {
		lonCPR = lon0
	}
	rlon := dlonF * (float64(modInt(m, ni)) + lonCPR/cprMax)
	rlon -= math.Floor((rlon+180)/360) * 360

	return rlat, rlon, true
}

// nlTable is the precomputed latitude-band table: nlTable[i].maxAbsLat
// is the upper (exclusive) bound of |lat| degrees for which NL equals
// nlTable[i].nl. Grounded on the 59-entry table used by dump1090-style
// decoders (see other_examples' saviobatista-go1090 CPR file).
var nlTable = [...]struct {
	maxAbsLat float64
	nl        int
}{
	{10.47047130, 59}, {14.82817437, 58}, {18.18626357, 57}, {21.02939493, 56},
	{23.54504487, 55}, {25.82924707, 54}, {27.93898710, 53}, {29.91135686, 52},
	{31.77209708, 51}, {33.53993436, 50}, {35.22899598, 49}, {36.85025108, 48},
	{38.41241892, 47}, {39.92256684, 46}, {41.38651832, 45}, {42.80914012, 44},
	{44.19454951, 43}, {45.54626723, 42}, {46.86733252, 41}, {48.16039128, 40},
	{49.42776439, 39}, {50.67150166, 38}, {51.89342469, 37}, {53.09516153, 36},
	{54.27817472, 35}, {55.44378444, 34}, {56.59318756, 33}, {57.72747354, 32},
	{58.84763776, 31}, {59.95459277, 30}, {61.04917774, 29}, {62.13216659, 28},
	{63.20427479, 27}, {64.26616523, 26}, {65.31845310, 25}, {66.36171008, 24},
	{67.39646774, 23}, {68.42322022, 22}, {69.44242631, 21}, {70.45451075, 20},
	{71.45986473, 19}, {72.45884545, 18}, {73.45177442, 17}, {74.43893416, 16},
	{75.42056257, 15}, {76.39684391, 14}, {77.36789461, 13}, {78.33374083, 12},
	{79.29428225, 11}, {80.24923213, 10}, {81.19801349, 9}, {82.13956981, 8},
	{83.07199445, 7}, {83.99173563, 6}, {84.89166191, 5}, {85.75541621, 4},
	{86.53536998, 3}, {87.00000000, 2},
}

// NL returns the number of longitude zones for a given latitude (§4.2).
func NL(lat float64) int {
	absLat := math.Abs(lat)
	if absLat >= 87.0 {
		return 1
	}
	for _, e := range nlTable {
		if absLat < e.maxAbsLat {
			return e.nl
		}
	}
	return 1
}
