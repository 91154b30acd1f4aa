package hexbytes

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/markmark999/xtool/pkg/toolerr"
)

func TestParse(t *testing.T) {
	cases := []struct {
		args []string
		want []byte
	}{
		{[]string{"48", "45", "4C", "4C", "4F"}, []byte("HELLO")},
		{[]string{"01 ff 0a"}, []byte{0x01, 0xff, 0x0a}},
		{[]string{"00", " FF\t7f "}, []byte{0x00, 0xff, 0x7f}},
		{nil, nil},
	}
	for _, c := range cases {
		got, err := Parse(c.args)
		if err != nil {
			t.Errorf("Parse(%q) returned error: %v", c.args, err)
			continue
		}
		if !bytes.Equal(got, c.want) {
			t.Errorf("Parse(%q) = %v, want %v", c.args, got, c.want)
		}
	}
}

func TestParseInvalid(t *testing.T) {
	cases := []struct {
		args  []string
		token string
	}{
		{[]string{"0"}, `token 1 "0"`},
		{[]string{"01", "100"}, `token 2 "100"`},
		{[]string{"01 GG"}, `token 2 "GG"`},
		{[]string{"0x"}, `token 1 "0x"`},
		{[]string{"+F"}, `token 1 "+F"`},
		{[]string{"AA", "BB", "-1"}, `token 3 "-1"`},
	}
	for _, c := range cases {
		_, err := Parse(c.args)
		if !errors.Is(err, toolerr.InvalidHexByte) {
			t.Errorf("Parse(%q) error = %v, want InvalidHexByte", c.args, err)
			continue
		}
		if !strings.Contains(err.Error(), c.token) {
			t.Errorf("Parse(%q) error %q does not identify %s", c.args, err, c.token)
		}
	}
}

func TestRoundTrip(t *testing.T) {
	all := make([]byte, 256)
	for i := range all {
		all[i] = byte(i)
	}
	for _, payload := range [][]byte{all, {0x48}, {0x00, 0x00}, []byte("xtool")} {
		rendered := Format(payload)
		parsed, err := Parse([]string{rendered})
		if err != nil {
			t.Fatalf("Parse(Format(%v)) returned error: %v", payload, err)
		}
		if !bytes.Equal(parsed, payload) {
			t.Errorf("round trip of %v produced %v", payload, parsed)
		}
		if again := Format(parsed); again != rendered {
			t.Errorf("Format is not stable: %q then %q", rendered, again)
		}
	}
}

func TestFormat(t *testing.T) {
	if got := Format([]byte{0x48, 0x45, 0x4c, 0x4c, 0x4f}); got != "48 45 4C 4C 4F" {
		t.Errorf("Format = %q", got)
	}
	if got := Format(nil); got != "" {
		t.Errorf("Format(nil) = %q, want empty", got)
	}
}
