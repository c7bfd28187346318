package lexer

import "unicode/utf16"

// stripBOM detects a UTF-8 or UTF-16 byte-order mark and returns UTF-8
// bytes with the BOM removed, transcoding UTF-16 input first.
func stripBOM(src []byte) []byte {
	switch {
	case len(src) >= 3 && src[0] == 0xEF && src[1] == 0xBB && src[2] == 0xBF:
		return src[3:]
	case len(src) >= 2 && src[0] == 0xFE && src[1] == 0xFF:
		return utf16ToUTF8(src[2:], true)
	case len(src) >= 2 && src[0] == 0xFF && src[1] == 0xFE:
		return utf16ToUTF8(src[2:], false)
	default:
		return src
	}
}

func utf16ToUTF8(b []byte, bigEndian bool) []byte {
	n := len(b) / 2
	units := make([]uint16, n)
	for i := 0; i < n; i++ {
		hi, lo := b[2*i], b[2*i+1]
		if bigEndian {
			units[i] = uint16(hi)<<8 | uint16(lo)
		} else {
			units[i] = uint16(lo)<<8 | uint16(hi)
		}
	}
	runes := utf16.Decode(units)
	return []byte(string(runes))
}
