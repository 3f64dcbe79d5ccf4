package modes

// charset maps the 6-bit callsign character index used in DF17 TC1-4
// ident messages to its ASCII character. Index 0 is padding/unknown.
const charset = "#ABCDEFGHIJKLMNOPQRSTUVWXYZ##### ###############0123456789######"

var charsetIndex [256]byte

func init() {
	for i := range charsetIndex {
		charsetIndex[i] = 0
	}
	for i := 0; i < len(charset); i++ {
		c := charset[i]
		if c != '#' {
			charsetIndex[c] = byte(i)
		}
	}
}

func encodeChar(c byte) byte {
	return charsetIndex[c]
}

func decodeChar(idx byte) byte {
	if int(idx) >= len(charset) {
		return '#'
	}
	return charset[idx]
}
