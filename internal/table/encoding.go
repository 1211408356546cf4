package table

import (
	"bytes"
	"unicode/utf8"
)

// utf8BOM is prepended by Excel and other Windows tools when saving CSV.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// cleanEncoding strips a leading UTF-8 BOM and replaces every invalid byte
// with U+FFFD so the CSV reader never sees broken sequences.
func cleanEncoding(data []byte) []byte {
	data = bytes.TrimPrefix(data, utf8BOM)
	if utf8.Valid(data) {
		return data
	}

	var buf bytes.Buffer
	buf.Grow(len(data) + 16)
	for len(data) > 0 {
		r, size := utf8.DecodeRune(data)
		if r == utf8.RuneError && size == 1 {
			buf.WriteRune(utf8.RuneError)
		} else {
			buf.Write(data[:size])
		}
		data = data[size:]
	}
	return buf.Bytes()
}
