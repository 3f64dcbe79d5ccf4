package beast

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var (
	beastModeAc     = []byte{0x1A, 0x31, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00}
	beastModeSShort = []byte{0x1a, 0x32, 0x22, 0x1b, 0x54, 0xf0, 0x81, 0x2b, 0x26, 0x5d, 0x7c, 0x49, 0xf8, 0x28, 0xe9, 0x43}
	beastModeSLong  = []byte{0x1a, 0x33, 0x22, 0x1b, 0x54, 0xac, 0xc2, 0xe9, 0x28, 0x8d, 0x7c, 0x49, 0xf8, 0x58, 0x41, 0xd2, 0x6c, 0xca, 0x39, 0x33, 0xe4, 0x1e, 0xcf}

	// DF17 TC2 (identification), a real captured Mode-S long frame with
	// a valid CRC, used for the content-decoding assertions below.
	beastDF17 = []byte{0x1A, 0x33, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x8C, 0x49, 0xF0, 0x88, 0x12, 0xCB, 0x2C, 0xF7, 0x18, 0x61, 0x86, 0x01, 0xFD, 0x07}
)

func TestNewFrameModeAC(t *testing.T) {
	f, err := NewFrame(beastModeAc, false)
	require.NoError(t, err)
	require.Equal(t, byte(0x31), f.MsgType())
}

func TestNewFrameModeSShort(t *testing.T) {
	f, err := NewFrame(beastModeSShort, false)
	require.NoError(t, err)

	require.True(t, bytes.Equal(beastModeSShort, f.Raw()))
	require.Equal(t, byte(0x32), f.MsgType())
	require.Len(t, f.mlatTimestamp, 6)
	require.Equal(t, byte(38), f.signalLevel)
	require.Len(t, f.Body(), 7)
}

func TestNewFrameModeSLong(t *testing.T) {
	f, err := NewFrame(beastModeSLong, false)
	require.NoError(t, err)

	require.True(t, bytes.Equal(beastModeSLong, f.Raw()))
	require.Equal(t, byte(0x33), f.MsgType())
	require.Len(t, f.mlatTimestamp, 6)
	require.Equal(t, byte(40), f.signalLevel)
	require.Len(t, f.Body(), 14)
}

func TestNewFrameRejectsShortInput(t *testing.T) {
	for n := 0; n < 10; n++ {
		raw := make([]byte, n)
		_, err := NewFrame(raw, false)
		require.Error(t, err)
	}
}

func TestSignalRssi(t *testing.T) {
	tests := []struct {
		name string
		args []byte
		want string
	}{
		{name: "AC", args: beastModeAc, want: "-Inf"},
		{name: "Short", args: beastModeSShort, want: "15.8"},
		{name: "Long", args: beastModeSLong, want: "16.0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := NewFrame(tt.args, false)
			require.NoError(t, err)
			got := fmt.Sprintf("%0.1f", f.SignalRssi())
			require.Equal(t, tt.want, got)
		})
	}
}

func TestNewFrameAndDecodeDF17(t *testing.T) {
	f, err := NewFrame(beastDF17, false)
	require.NoError(t, err)
	require.NoError(t, f.Decode())

	require.Equal(t, "49F088", f.IcaoStr())
	require.Equal(t, "49F088", f.AvrFrame().IcaoStr())
}

func TestReleaseWithPoolAllocator(t *testing.T) {
	UsePoolAllocator = true
	defer func() { UsePoolAllocator = false }()

	f, err := NewFrame(beastDF17, false)
	require.NoError(t, err)
	require.NoError(t, f.Decode())
	Release(f)
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	enc := NewEncoder()
	hexFrame := "8D4840D6202CC371C32CE0576098"
	wire, err := enc.Encode(hexFrame, time.Unix(0, 0))
	require.NoError(t, err)
	require.Equal(t, byte(0x1A), wire[0])
	require.Equal(t, byte(TypeModeSLong), wire[1])

	sp := NewStreamParser()
	sp.Feed(wire)
	got, ok := sp.Next()
	require.True(t, ok)
	require.Equal(t, hexFrame, got)
}

func TestBeastEscapeEndToEnd(t *testing.T) {
	// Construct a 14-byte payload containing 0x1A at offset 4.
	payload := make([]byte, 14)
	payload[4] = 0x1A
	hexFrame := hex.EncodeToString(payload)

	enc := NewEncoder()
	wire, err := enc.Encode(hexFrame, time.Now())
	require.NoError(t, err)

	// The 0x1A byte must appear doubled somewhere after the header.
	require.True(t, bytes.Contains(wire[2:], []byte{0x1A, 0x1A}))

	sp := NewStreamParser()
	sp.Feed(wire)
	got, ok := sp.Next()
	require.True(t, ok)
	require.Equal(t, strings.ToUpper(hexFrame), got)
}

func TestAVRStreamInterleavedWithBeast(t *testing.T) {
	sp := NewStreamParser()
	avrFrame := "8D4840D6202CC371C32CE0576098"
	sp.Feed(AVREncode(avrFrame))

	enc := NewEncoder()
	wire, err := enc.Encode("8D4840D6202CC371C32CE0576098", time.Now())
	require.NoError(t, err)
	sp.Feed(wire)

	first, ok := sp.Next()
	require.True(t, ok)
	require.Equal(t, avrFrame, first)

	second, ok := sp.Next()
	require.True(t, ok)
	require.Equal(t, avrFrame, second)
}
