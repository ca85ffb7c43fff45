package winapi

import (
	"encoding/binary"
	"fmt"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

// AnsiEncoding decodes EvtVarTypeAnsiString values. Windows renders them in the
// active code page; Windows-1252 is the default on western installs.
var AnsiEncoding encoding.Encoding = charmap.Windows1252

var utf16le = unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)

// UTF16BytesToString decodes UTF-16LE bytes, stopping at the first NUL code unit.
// Unpaired surrogates are replaced with U+FFFD.
func UTF16BytesToString(b []byte) string {
	end := len(b) &^ 1
	for i := 0; i+1 < len(b); i += 2 {
		if b[i] == 0 && b[i+1] == 0 {
			end = i
			break
		}
	}
	out, err := utf16le.NewDecoder().Bytes(b[:end])
	if err != nil {
		// the decoder substitutes invalid sequences rather than failing
		return ""
	}
	return string(out)
}

func UTF16ToString(s []uint16) string {
	b := make([]byte, 2*len(s))
	for i, c := range s {
		binary.LittleEndian.PutUint16(b[2*i:], c)
	}
	return UTF16BytesToString(b)
}

// UTF16CString decodes the NUL-terminated UTF-16LE string at the start of b.
// The terminator must lie within b; the returned size includes it.
func UTF16CString(b []byte) (string, int, error) {
	for i := 0; i+1 < len(b); i += 2 {
		if b[i] == 0 && b[i+1] == 0 {
			return UTF16BytesToString(b[:i]), i + 2, nil
		}
	}
	return "", 0, fmt.Errorf("unterminated UTF-16 string in %d bytes", len(b))
}

// AnsiCString decodes the NUL-terminated narrow string at the start of b.
func AnsiCString(b []byte) (string, int, error) {
	for i, c := range b {
		if c == 0 {
			out, err := AnsiEncoding.NewDecoder().Bytes(b[:i])
			if err != nil {
				return "", 0, fmt.Errorf("decoding ANSI string: %w", err)
			}
			return string(out), i + 1, nil
		}
	}
	return "", 0, fmt.Errorf("unterminated ANSI string in %d bytes", len(b))
}

// UTF16FromString encodes s as NUL-terminated UTF-16 code units.
func UTF16FromString(s string) ([]uint16, error) {
	for i := 0; i < len(s); i++ {
		if s[i] == 0 {
			return nil, fmt.Errorf("string %q contains a NUL byte", s)
		}
	}
	encoded, err := utf16le.NewEncoder().Bytes([]byte(s))
	if err != nil {
		return nil, err
	}
	out := make([]uint16, len(encoded)/2+1)
	for i := range out[:len(out)-1] {
		out[i] = binary.LittleEndian.Uint16(encoded[2*i:])
	}
	return out, nil
}
