package beast

import (
	"encoding/hex"
	"fmt"
	"time"
)

// Encoder produces outbound Beast-framed messages from 28- or
// 14-hex-char Mode-S frames (§4.4).
type Encoder struct {
	signal byte
}

// NewEncoder builds an Encoder using a fixed signal byte within the
// [150, 250] range the spec allows.
func NewEncoder() *Encoder {
	return &Encoder{signal: 200}
}

// Encode wraps hexFrame (14 or 28 hex chars) in Beast binary framing,
// with 0x1A byte-stuffing applied to everything after the leading ESC.
func (e *Encoder) Encode(hexFrame string, t time.Time) ([]byte, error) {
	payload, err := hex.DecodeString(hexFrame)
	if err != nil {
		return nil, fmt.Errorf("beast: bad hex payload: %w", err)
	}

	var msgType byte
	switch len(payload) {
	case 7:
		msgType = TypeModeSShort
	case 14:
		msgType = TypeModeSLong
	default:
		return nil, fmt.Errorf("beast: cannot encode %d-byte payload", len(payload))
	}

	ts := beastTimestamp(t)

	body := make([]byte, 0, 7+len(payload))
	body = append(body, ts[:]...)
	body = append(body, e.signal)
	body = append(body, payload...)

	out := make([]byte, 0, 2+2*len(body))
	out = append(out, 0x1A, msgType)
	for _, b := range body {
		if b == 0x1A {
			out = append(out, 0x1A, 0x1A)
		} else {
			out = append(out, b)
		}
	}
	return out, nil
}

// beastTimestamp derives the 48-bit, big-endian MLAT counter from wall
// clock time: (microseconds * 12) mod 2^48.
func beastTimestamp(t time.Time) [6]byte {
	micros := uint64(t.UnixMicro())
	ticks := (micros * 12) & 0xFFFFFFFFFFFF
	var ts [6]byte
	ts[0] = byte(ticks >> 40)
	ts[1] = byte(ticks >> 32)
	ts[2] = byte(ticks >> 24)
	ts[3] = byte(ticks >> 16)
	ts[4] = byte(ticks >> 8)
	ts[5] = byte(ticks)
	return ts
}

// AVREncode frames a hex Mode-S message as an ASCII AVR line.
func AVREncode(hexFrame string) []byte {
	return []byte("*" + hexFrame + ";\n")
}
