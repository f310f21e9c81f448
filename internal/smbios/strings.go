package smbios

import (
	"bytes"
	"unicode/utf8"

	"github.com/pkg/errors"
	"golang.org/x/text/encoding/charmap"
)

// ReadString returns the index-th (1-based) NUL-terminated string of the
// string pool starting at buf[poolStart]. Index 0 means "no string" and
// yields "" with a nil error.
//
// Running into the pool terminator, or the end of buf, before reaching index
// is malformed data and returns ErrStringIndex.
func ReadString(buf []byte, poolStart, index int) (string, error) {
	if index == 0 {
		return "", nil
	}
	if index < 0 || poolStart < 0 || poolStart >= len(buf) {
		return "", errors.Wrapf(ErrStringIndex, "string %d at pool offset %#x, buffer length %d", index, poolStart, len(buf))
	}

	p := poolStart
	for n := 1; ; n++ {
		if p >= len(buf) {
			return "", errors.Wrapf(ErrStringIndex, "string %d: pool at %#x runs past end of buffer", index, poolStart)
		}

		end := bytes.IndexByte(buf[p:], 0)
		switch {
		case end < 0:
			return "", errors.Wrapf(ErrStringIndex, "string %d: unterminated string at %#x", index, p)
		case end == 0:
			// An empty string is the pool terminator.
			return "", errors.Wrapf(ErrStringIndex, "string %d: pool at %#x holds only %d strings", index, poolStart, n-1)
		}

		if n == index {
			return decodeString(buf[p : p+end]), nil
		}
		p += end + 1
	}
}

// decodeString converts firmware string bytes to a Go string. Valid UTF-8
// (which includes plain ASCII) is kept as is, anything else is read as
// Latin-1.
func decodeString(b []byte) string {
	if utf8.Valid(b) {
		return string(b)
	}

	s, err := charmap.ISO8859_1.NewDecoder().Bytes(b)
	if err != nil {
		return string(bytes.ToValidUTF8(b, []byte("?")))
	}
	return string(s)
}

// poolEnd returns the offset just past the double-NUL terminator of the
// string pool starting at off, and false when the pool is not terminated
// within buf.
func poolEnd(buf []byte, off int) (int, bool) {
	for p := off; p+1 < len(buf); p++ {
		if buf[p] == 0 && buf[p+1] == 0 {
			return p + 2, true
		}
	}
	return len(buf), false
}
