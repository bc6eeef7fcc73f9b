// Package simpleubjson is a codec for the Universal Binary JSON wire
// format. It speaks the two incompatible revisions of the format,
// Draft-8 and Draft-9, selected per call; the drafts share architecture
// but differ in every marker byte and in container framing.
//
// The package is built around a flat pull tokenizer (Scanner), a
// value-tree marshaller on top of it (Decoder), an Encoder that picks
// the narrowest legal marker for every leaf, and a pretty printer
// (PPrint) that reformats a marker stream without materializing values.
// The codec owns no long-lived state: each call builds its codec, drives
// it to completion or error, and drops it.
package simpleubjson

import (
	"bytes"
	"io"
)

// Marshal encodes v in the given draft and returns the wire bytes.
func Marshal(v interface{}, spec Spec) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, v, spec); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Encode writes the wire form of v to w.
func Encode(w io.Writer, v interface{}, spec Spec) error {
	e, err := NewEncoder(w, spec)
	if err != nil {
		return err
	}
	return e.Encode(v)
}

// Unmarshal decodes one value of the given draft from data. Trailing
// bytes after the first complete value are ignored.
func Unmarshal(data []byte, spec Spec) (interface{}, error) {
	return Decode(bytes.NewReader(data), spec)
}

// Decode reads one value of the given draft from r. It returns io.EOF
// when the source is empty. Use NewDecoder directly to surface noop
// markers or to read several concatenated values.
func Decode(r io.Reader, spec Spec) (interface{}, error) {
	d, err := NewDecoder(r, spec)
	if err != nil {
		return nil, err
	}
	return d.Decode()
}
