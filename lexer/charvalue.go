package lexer

import (
	"fmt"
	"strconv"
	"strings"
)

// CharValue reduces a character-literal token (as produced by Lex, quotes
// included, optionally prefixed with L/u/U/u8) to its integer value per C
// rules: single- or multi-byte char constants combine big-endian into an
// int; u/U/L select UTF-16, UTF-32, or platform-wide code points; u8 is
// restricted to ASCII.
func CharValue(lexeme string) (int64, error) {
	prefix, body, err := splitCharLiteral(lexeme)
	if err != nil {
		return 0, err
	}
	runes, err := decodeCharBody(body)
	if err != nil {
		return 0, err
	}
	if len(runes) == 0 {
		return 0, fmt.Errorf("empty character constant")
	}
	switch prefix {
	case "u8":
		var v int64
		for _, r := range runes {
			if r > 127 {
				return 0, fmt.Errorf("u8 character constant must be ASCII")
			}
			v = v<<8 | int64(r)
		}
		return v, nil
	case "u", "U", "L":
		if len(runes) != 1 {
			// A single non-ASCII character arrives as its UTF-8 bytes.
			if cps := []rune(body); len(cps) == 1 {
				return int64(cps[0]), nil
			}
			return 0, fmt.Errorf("%s character constant must have exactly one character", prefix)
		}
		return int64(runes[0]), nil
	default:
		var v int64
		for _, r := range runes {
			v = v<<8 | int64(byte(r))
		}
		return v, nil
	}
}

func splitCharLiteral(lexeme string) (prefix, body string, err error) {
	for _, p := range []string{"u8", "u", "U", "L"} {
		if strings.HasPrefix(lexeme, p+"'") {
			prefix = p
			lexeme = lexeme[len(p):]
			break
		}
	}
	if len(lexeme) < 2 || lexeme[0] != '\'' || lexeme[len(lexeme)-1] != '\'' {
		return "", "", fmt.Errorf("not a character literal: %q", lexeme)
	}
	return prefix, lexeme[1 : len(lexeme)-1], nil
}

func decodeCharBody(body string) ([]rune, error) {
	var out []rune
	i := 0
	for i < len(body) {
		if body[i] != '\\' {
			out = append(out, rune(body[i]))
			i++
			continue
		}
		i++
		if i >= len(body) {
			return nil, fmt.Errorf("malformed escape sequence")
		}
		switch body[i] {
		case 'a':
			out = append(out, 0x07)
			i++
		case 'b':
			out = append(out, 0x08)
			i++
		case 'f':
			out = append(out, 0x0C)
			i++
		case 'n':
			out = append(out, 0x0A)
			i++
		case 'r':
			out = append(out, 0x0D)
			i++
		case 't':
			out = append(out, 0x09)
			i++
		case 'v':
			out = append(out, 0x0B)
			i++
		case 'e', 'E':
			out = append(out, 0x1B)
			i++
		case '\\', '\'', '"', '?':
			out = append(out, rune(body[i]))
			i++
		case 'x':
			i++
			start := i
			for i < len(body) && isHex(body[i]) {
				i++
			}
			if i == start {
				return nil, fmt.Errorf("malformed \\x escape")
			}
			v, err := strconv.ParseInt(body[start:i], 16, 64)
			if err != nil {
				return nil, err
			}
			out = append(out, rune(v))
		case 'u', 'U':
			n := 4
			if body[i] == 'U' {
				n = 8
			}
			i++
			if i+n > len(body) {
				return nil, fmt.Errorf("malformed universal character name")
			}
			v, err := strconv.ParseInt(body[i:i+n], 16, 64)
			if err != nil {
				return nil, err
			}
			i += n
			out = append(out, rune(v))
		default:
			if body[i] >= '0' && body[i] <= '7' {
				start := i
				for i < len(body) && i < start+3 && body[i] >= '0' && body[i] <= '7' {
					i++
				}
				v, err := strconv.ParseInt(body[start:i], 8, 64)
				if err != nil {
					return nil, err
				}
				out = append(out, rune(v))
			} else {
				return nil, fmt.Errorf("malformed escape sequence \\%c", body[i])
			}
		}
	}
	return out, nil
}

func isHex(b byte) bool {
	return (b >= '0' && b <= '9') || (b >= 'a' && b <= 'f') || (b >= 'A' && b <= 'F')
}
