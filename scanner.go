// Copyright 2010 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package simpleubjson

// UBJSON marker scanner. The scanner is a flat pull tokenizer: each call
// to Next reads exactly one marker byte plus its payload and returns one
// token. Container markers come out as bare open tokens and close markers
// as bare close tokens; nesting is never tracked here. The consumers
// (the marshaller and the pretty printer) recover nesting by counting
// sized-container children and matching streamed opens to closes, which
// keeps the scanner free of call-stack-sized state.

import (
	"encoding/binary"
	"io"
	"math"
	"unicode/utf8"

	"github.com/golang/glog"
)

// A Token is one step of the marker stream.
//
// Scalar markers carry their decoded payload in Value: int64 for every
// integer width, float32 for 'd', float64 for 'D', bool, Huge, or string.
// Length-prefixed scalars also carry the payload byte count in Length.
// Container opens carry the declared item count in Length, or -1 for the
// streamed form. Close tokens, noop and null carry nothing.
type Token struct {
	Tag    byte
	Length int // -1 when the marker declares no length
	Value  interface{}
}

// A Scanner reads a marker stream from a byte source. It keeps no state
// between tokens beyond the byte offset, so its peak memory is one
// token's payload.
type Scanner struct {
	table *specTable
	r     reader
}

// NewScanner returns a scanner over r speaking the given draft.
func NewScanner(r io.Reader, spec Spec) (*Scanner, error) {
	table, err := tableFor(spec)
	if err != nil {
		return nil, err
	}
	return &Scanner{table: table, r: reader{src: r}}, nil
}

// Offset returns the number of bytes consumed so far.
func (s *Scanner) Offset() int64 {
	return s.r.offset
}

// Next returns the next token. It returns io.EOF when the source ends
// cleanly at a token boundary, and EndOfStreamError when it ends inside
// one.
func (s *Scanner) Next() (Token, error) {
	c, err := s.r.readByte()
	if err != nil {
		return Token{}, err
	}
	m := s.table.markers[c]
	if m == nil {
		return Token{}, &MarkerError{Marker: c, Offset: s.r.offset - 1, msg: "unknown marker"}
	}
	tok, err := s.token(c, m)
	if err != nil {
		return Token{}, err
	}
	glog.V(2).Infof("ubjson: %s token %q length=%d value=%v", s.table.spec, string(tok.Tag), tok.Length, tok.Value)
	return tok, nil
}

func (s *Scanner) token(c byte, m *markerInfo) (Token, error) {
	switch m.kind {
	case kindNoop, kindNull, kindClose:
		return Token{Tag: c, Length: -1}, nil

	case kindTrue:
		return Token{Tag: c, Length: -1, Value: true}, nil

	case kindFalse:
		return Token{Tag: c, Length: -1, Value: false}, nil

	case kindNumeric:
		b, err := s.r.readFull(m.width)
		if err != nil {
			return Token{}, err
		}
		return Token{Tag: c, Length: -1, Value: m.num(b)}, nil

	case kindChar:
		b, err := s.r.readFull(1)
		if err != nil {
			return Token{}, err
		}
		return Token{Tag: c, Length: -1, Value: string(rune(b[0]))}, nil

	case kindString, kindHuge:
		n, err := s.readLength(m)
		if err != nil {
			return Token{}, err
		}
		b, err := s.r.readFull(n)
		if err != nil {
			return Token{}, err
		}
		if m.kind == kindString {
			if !utf8.Valid(b) {
				return Token{}, &DecodeError{Offset: s.r.offset, msg: "invalid UTF-8 in string"}
			}
			return Token{Tag: c, Length: n, Value: string(b)}, nil
		}
		if !isDecimal(b) {
			return Token{}, &DecodeError{Offset: s.r.offset, msg: "malformed huge number " + string(b)}
		}
		return Token{Tag: c, Length: n, Value: Huge(b)}, nil

	case kindArray, kindObject:
		return s.container(c, m)
	}
	panic("unreachable")
}

// container reads a container header. Draft-8 carries a fixed-width
// length whose one-byte 0xFF value means streamed. Draft-9 containers
// carry no length at all: a count after '[' would be indistinguishable
// from the first int8 element, so the draft runs every container to its
// close marker.
func (s *Scanner) container(c byte, m *markerInfo) (Token, error) {
	if m.lenWidth == 0 {
		return Token{Tag: c, Length: -1}, nil
	}
	n, err := s.readFixedLength(m.lenWidth)
	if err != nil {
		return Token{}, err
	}
	if m.lenWidth == 1 && n == 0xFF {
		return Token{Tag: c, Length: -1}, nil
	}
	return Token{Tag: c, Length: n}, nil
}

func (s *Scanner) readLength(m *markerInfo) (int, error) {
	if m.lenWidth > 0 {
		return s.readFixedLength(m.lenWidth)
	}
	c, err := s.r.readByte()
	if err != nil {
		if err == io.EOF {
			return 0, &EndOfStreamError{Offset: s.r.offset}
		}
		return 0, err
	}
	lm := s.table.markers[c]
	if lm == nil || !lm.integer {
		return 0, &MarkerError{Marker: c, Offset: s.r.offset - 1, msg: "expected integer length marker, got"}
	}
	return s.readIntegerLength(lm)
}

func (s *Scanner) readFixedLength(width int) (int, error) {
	b, err := s.r.readFull(width)
	if err != nil {
		return 0, err
	}
	if width == 1 {
		return int(b[0]), nil
	}
	return s.checkLength(int64(binary.BigEndian.Uint32(b)))
}

func (s *Scanner) readIntegerLength(lm *markerInfo) (int, error) {
	b, err := s.r.readFull(lm.width)
	if err != nil {
		return 0, err
	}
	return s.checkLength(lm.num(b).(int64))
}

func (s *Scanner) checkLength(n int64) (int, error) {
	if n < 0 {
		return 0, &DecodeError{Offset: s.r.offset, msg: "negative length prefix"}
	}
	if n > math.MaxInt32 {
		return 0, &DecodeError{Offset: s.r.offset, msg: "length prefix out of range"}
	}
	return int(n), nil
}
