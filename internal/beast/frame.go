// Package beast implements the Beast binary wire format: inbound
// frame parsing, outbound encoding with 0x1A byte-stuffing, and the
// interleaved AVR/Beast stream reader used by the receiver (§4.4).
//
// The inbound Frame type mirrors the shape of the teacher's own
// lib/tracker/beast package (plane-watch): a lazily-decoded struct
// with an optional pool allocator for the hot path.
package beast

import (
	"fmt"
	"math"
	"sync"

	"atctrace/internal/modes"
)

// UsePoolAllocator, when true, makes NewFrame recycle Frame values via
// an internal sync.Pool instead of allocating. Call Release to return
// a Frame once you are done with it.
var UsePoolAllocator bool

var framePool = sync.Pool{New: func() interface{} { return &Frame{} }}

// Frame is one de-escaped Beast message: ESC, type, 6-byte MLAT
// timestamp, signal byte, and a type-length-dependent body.
type Frame struct {
	msgType       byte
	raw           []byte
	mlatTimestamp []byte
	signalLevel   byte
	body          []byte
	hasDecoded    bool

	avr       *modes.Frame
	shortICAO string
}

const (
	TypeModeAC     = 0x31
	TypeModeSShort = 0x32
	TypeModeSLong  = 0x33
)

func bodyLenForType(msgType byte) (int, error) {
	switch msgType {
	case TypeModeAC:
		return 2, nil
	case TypeModeSShort:
		return 7, nil
	case TypeModeSLong:
		return 14, nil
	default:
		return 0, fmt.Errorf("beast: unknown message type 0x%02X", msgType)
	}
}

// NewFrame parses one already-extracted, already-unescaped Beast
// message. log, when true, is reserved for verbose per-frame tracing
// by callers that want it; it does not affect parsing.
func NewFrame(rawBytes []byte, log bool) (*Frame, error) {
	if len(rawBytes) < 2 {
		return nil, fmt.Errorf("beast: frame too short (%d bytes)", len(rawBytes))
	}
	if rawBytes[0] != 0x1A {
		return nil, fmt.Errorf("beast: frame does not start with ESC")
	}
	bodyLen, err := bodyLenForType(rawBytes[1])
	if err != nil {
		return nil, err
	}
	total := 2 + 6 + 1 + bodyLen
	if len(rawBytes) < total {
		return nil, fmt.Errorf("beast: frame too short, want %d bytes got %d", total, len(rawBytes))
	}

	var f *Frame
	if UsePoolAllocator {
		f = framePool.Get().(*Frame)
		*f = Frame{}
	} else {
		f = &Frame{}
	}

	f.raw = append([]byte(nil), rawBytes[:total]...)
	f.msgType = rawBytes[1]
	f.mlatTimestamp = append([]byte(nil), rawBytes[2:8]...)
	f.signalLevel = rawBytes[8]
	f.body = append([]byte(nil), rawBytes[9:9+bodyLen]...)
	return f, nil
}

// Release returns a Frame to the pool if UsePoolAllocator is set.
func Release(f *Frame) {
	if f == nil || !UsePoolAllocator {
		return
	}
	framePool.Put(f)
}

// Decode extracts what this system's scope supports: for 14-byte
// (long) bodies, a full modes.Frame (DF17 only - everything else is
// this system's non-goal, per §1); for 7-byte (short) bodies, just the
// ICAO address, since short frames carry no ADS-B payload we decode.
// Decode never fails at this layer: a frame this system cannot use is
// simply left without ICAO/payload, matching the "malformed inbound
// frame: drop silently" policy (§7) rather than surfacing an error for
// every DF we don't implement.
func (f *Frame) Decode() error {
	if f == nil || f.hasDecoded {
		return nil
	}
	f.hasDecoded = true

	switch len(f.body) {
	case 14:
		if mf, err := modes.NewFrameFromBytes(f.body); err == nil {
			_ = mf.Decode()
			f.avr = mf
		}
	case 7:
		f.shortICAO = fmt.Sprintf("%02X%02X%02X", f.body[1], f.body[2], f.body[3])
	}
	return nil
}

// IcaoStr returns the best-effort ICAO hex string this frame carries.
func (f *Frame) IcaoStr() string {
	if f == nil {
		return "000000"
	}
	if f.avr != nil {
		return f.avr.IcaoStr()
	}
	if f.shortICAO != "" {
		return f.shortICAO
	}
	return "000000"
}

// AvrFrame returns the decoded Mode-S frame, or nil when this Beast
// message's body wasn't a 14-byte long frame this system decodes.
func (f *Frame) AvrFrame() *modes.Frame {
	if f == nil {
		return nil
	}
	return f.avr
}

// SignalRssi converts the raw signal byte to a dB figure.
func (f *Frame) SignalRssi() float64 {
	return 10 * math.Log10(float64(f.signalLevel))
}

// MsgType returns the Beast message type byte.
func (f *Frame) MsgType() byte { return f.msgType }

// Raw returns the full de-escaped frame as received.
func (f *Frame) Raw() []byte { return f.raw }

// Body returns the type-length-dependent payload (2, 7, or 14 bytes).
func (f *Frame) Body() []byte { return f.body }
