// Package hexbytes converts between byte payloads and the space-separated hex
// notation used on the command line, e.g. "48 45 4C 4C 4F".
package hexbytes

import (
	"encoding/hex"
	"strings"

	"github.com/markmark999/xtool/pkg/toolerr"
)

// ParseByte parses a single token of exactly two hex digits
func ParseByte(token string) (byte, error) {
	if len(token) != 2 {
		return 0, toolerr.Newf(toolerr.InvalidHexByte, "%q must be exactly two hex digits", token)
	}
	var b [1]byte
	if _, err := hex.Decode(b[:], []byte(token)); err != nil {
		return 0, toolerr.New(toolerr.InvalidHexByte, "\""+token+"\"", err)
	}
	return b[0], nil
}

// Parse decodes a list of arguments into bytes. Each argument may itself hold several
// whitespace-separated tokens, so both `--send 01 FF` and `--send "01 FF"` work. The
// error for a bad token names the token and its 1-based position in the payload.
func Parse(args []string) ([]byte, error) {
	var out []byte
	pos := 0
	for _, arg := range args {
		for _, token := range strings.Fields(arg) {
			pos++
			b, err := ParseByte(token)
			if err != nil {
				return nil, toolerr.Newf(toolerr.InvalidHexByte, "token %d %q is not a hex byte (00-FF)", pos, token)
			}
			out = append(out, b)
		}
	}
	return out, nil
}

const digits = "0123456789ABCDEF"

// Format renders bytes as uppercase two-digit hex separated by single spaces
func Format(b []byte) string {
	if len(b) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.Grow(len(b)*3 - 1)
	for i, c := range b {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteByte(digits[c>>4])
		sb.WriteByte(digits[c&0x0f])
	}
	return sb.String()
}
