package beast

import (
	"bytes"
	"encoding/hex"
	"strings"
)

// StreamParser advances through an inbound byte stream that may
// interleave AVR and Beast-0x33 framing on the same connection (§4.4),
// yielding complete 28-hex-char Mode-S frames.
type StreamParser struct {
	buf    []byte
	maxBuf int
}

// NewStreamParser returns a parser with the spec's suggested 10 KiB
// bound on its internal buffer.
func NewStreamParser() *StreamParser {
	return &StreamParser{maxBuf: 10 * 1024}
}

// Feed appends newly-read bytes to the internal buffer, truncating
// from the front (keeping the tail) if it would exceed the bound.
func (s *StreamParser) Feed(data []byte) {
	s.buf = append(s.buf, data...)
	if len(s.buf) > s.maxBuf {
		s.buf = s.buf[len(s.buf)-s.maxBuf:]
	}
}

// Next extracts the next complete 28-hex-char frame from the buffer,
// if one is available; ok is false when more data is needed.
func (s *StreamParser) Next() (frame string, ok bool) {
	for len(s.buf) > 0 {
		switch s.buf[0] {
		case '*':
			semi := bytes.IndexByte(s.buf[1:], ';')
			if semi < 0 {
				return "", false
			}
			hexPart := string(s.buf[1 : 1+semi])
			s.buf = s.buf[1+semi+1:]
			if len(hexPart) == 28 {
				return strings.ToUpper(hexPart), true
			}
			continue

		case 0x1A:
			if len(s.buf) < 2 {
				return "", false
			}
			msgType := s.buf[1]
			if msgType != TypeModeSLong {
				s.buf = s.buf[1:]
				continue
			}
			consumed, payload, have := extractEscaped(s.buf[2:], 21)
			if !have {
				return "", false
			}
			s.buf = s.buf[2+consumed:]
			modeSFrame := payload[7:21]
			return strings.ToUpper(hex.EncodeToString(modeSFrame)), true

		default:
			s.buf = s.buf[1:]
		}
	}
	return "", false
}

// extractEscaped reads de-escaped bytes from data (doubled 0x1A
// collapses to one) until wantLen bytes are collected. It returns the
// number of raw bytes consumed from data, the de-escaped payload, and
// whether enough data was available.
func extractEscaped(data []byte, wantLen int) (consumed int, payload []byte, ok bool) {
	out := make([]byte, 0, wantLen)
	i := 0
	for i < len(data) && len(out) < wantLen {
		b := data[i]
		if b == 0x1A {
			if i+1 >= len(data) {
				return 0, nil, false
			}
			out = append(out, 0x1A)
			i += 2
		} else {
			out = append(out, b)
			i++
		}
	}
	if len(out) < wantLen {
		return 0, nil, false
	}
	return i, out, true
}
