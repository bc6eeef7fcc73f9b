// Copyright 2010 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Represents UBJSON data using native Go types: booleans, integers,
// floats, strings, slices, and ordered objects.

package simpleubjson

import (
	"io"

	"github.com/golang/glog"
)

// A Decoder reads marker tokens from a scanner and rebuilds the nested
// value they spell.
//
// The value mapping is:
//
//	null                 -> nil
//	true, false          -> bool
//	integers, any width  -> int64
//	float, double        -> float32, float64
//	char                 -> string of one rune (Draft-9)
//	string               -> string
//	huge                 -> Huge
//	array                -> []interface{}
//	object               -> Object, key order preserved
//	noop                 -> dropped, or NoOp under AllowNoOp(true)
type Decoder struct {
	scan      *Scanner
	table     *specTable
	allowNoOp bool
	maxDepth  int
}

// NewDecoder returns a decoder reading the given draft from r.
func NewDecoder(r io.Reader, spec Spec) (*Decoder, error) {
	scan, err := NewScanner(r, spec)
	if err != nil {
		return nil, err
	}
	return &Decoder{scan: scan, table: scan.table, maxDepth: maxDepth}, nil
}

// maxDepth bounds container nesting for both the decoder and the
// encoder.
const maxDepth = 200

// AllowNoOp toggles whether noop markers surface as the NoOp sentinel.
// By default they are discarded. Inside sized containers noop markers
// are always discarded, because the declared count admits no padding
// entries; inside objects they are always discarded too.
func (d *Decoder) AllowNoOp(b bool) {
	d.allowNoOp = b
}

// MaxDepth sets the maximum allowed container nesting. The default is
// 200.
func (d *Decoder) MaxDepth(n int) {
	d.maxDepth = n
}

// Decode reads one complete value from the stream. It returns io.EOF
// when no value remains, so successive calls walk a concatenated stream.
func (d *Decoder) Decode() (interface{}, error) {
	tok, err := d.next(d.allowNoOp)
	if err != nil {
		return nil, err
	}
	return d.value(tok, 0)
}

// next returns the next token, discarding noop tokens unless the caller
// wants them surfaced.
func (d *Decoder) next(surfaceNoOp bool) (Token, error) {
	for {
		tok, err := d.scan.Next()
		if err != nil {
			return Token{}, err
		}
		if d.table.markers[tok.Tag].kind == kindNoop && !surfaceNoOp {
			continue
		}
		return tok, nil
	}
}

func (d *Decoder) value(tok Token, depth int) (interface{}, error) {
	m := d.table.markers[tok.Tag]
	if (m.kind == kindArray || m.kind == kindObject) && depth >= d.maxDepth {
		return nil, &DecodeError{Offset: d.scan.Offset(), msg: "container nesting exceeds maximum depth"}
	}
	switch m.kind {
	case kindNoop:
		return NoOp, nil
	case kindNull, kindTrue, kindFalse, kindNumeric, kindChar, kindString, kindHuge:
		return tok.Value, nil
	case kindArray:
		return d.array(tok, depth)
	case kindObject:
		return d.object(tok, depth)
	case kindClose:
		return nil, &MarkerError{Marker: tok.Tag, Offset: d.scan.Offset(), msg: "unexpected close marker"}
	}
	panic("unreachable")
}

// array consumes the children of an array whose open token has been
// read already.
func (d *Decoder) array(open Token, depth int) ([]interface{}, error) {
	if open.Length >= 0 {
		out := make([]interface{}, 0, sizeHint(open.Length))
		for i := 0; i < open.Length; i++ {
			tok, err := d.child(depth)
			if err != nil {
				return nil, err
			}
			v, err := d.value(tok, depth+1)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil
	}

	out := []interface{}{}
	for {
		tok, err := d.next(d.allowNoOp)
		if err != nil {
			return nil, eosErr(err, d.scan.Offset())
		}
		if d.table.markers[tok.Tag].kind == kindClose {
			if tok.Tag != d.table.arrayClose {
				return nil, &MarkerError{Marker: tok.Tag, Offset: d.scan.Offset(), msg: "mismatched close marker"}
			}
			return out, nil
		}
		v, err := d.value(tok, depth+1)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
}

// object consumes the members of an object whose open token has been
// read already. The declared length of a sized object counts key/value
// pairs.
func (d *Decoder) object(open Token, depth int) (Object, error) {
	if open.Length >= 0 {
		out := make(Object, 0, sizeHint(open.Length))
		for i := 0; i < open.Length; i++ {
			member, _, err := d.member(depth, false)
			if err != nil {
				return nil, err
			}
			out = append(out, member)
		}
		return out, nil
	}

	out := Object{}
	for {
		member, done, err := d.member(depth, true)
		if err != nil {
			return nil, err
		}
		if done {
			return out, nil
		}
		out = append(out, member)
	}
}

// member reads one key/value pair. When streamed is set, a matching
// close marker in key position ends the object.
func (d *Decoder) member(depth int, streamed bool) (Member, bool, error) {
	key, err := d.next(false)
	if err != nil {
		return Member{}, false, eosErr(err, d.scan.Offset())
	}
	km := d.table.markers[key.Tag]
	if streamed && km.kind == kindClose {
		if key.Tag != d.table.objectClose {
			return Member{}, false, &MarkerError{Marker: key.Tag, Offset: d.scan.Offset(), msg: "mismatched close marker"}
		}
		return Member{}, true, nil
	}
	if km.kind != kindString && km.kind != kindChar {
		glog.V(3).Infof("ubjson: object key marker %q is not a string", string(key.Tag))
		return Member{}, false, &MarkerError{Marker: key.Tag, Offset: d.scan.Offset(), msg: "object key must be a string, got"}
	}

	tok, err := d.child(depth)
	if err != nil {
		return Member{}, false, err
	}
	v, err := d.value(tok, depth+1)
	if err != nil {
		return Member{}, false, err
	}
	return Member{Key: key.Value.(string), Value: v}, false, nil
}

// child reads a token that must be a value inside a sized container or
// an object member: the stream may not end and no close marker may
// appear.
func (d *Decoder) child(depth int) (Token, error) {
	tok, err := d.next(false)
	if err != nil {
		return Token{}, eosErr(err, d.scan.Offset())
	}
	if d.table.markers[tok.Tag].kind == kindClose {
		return Token{}, &MarkerError{Marker: tok.Tag, Offset: d.scan.Offset(), msg: "unexpected close marker"}
	}
	return tok, nil
}

// eosErr maps a clean io.EOF inside an open container to the mid-token
// error it really is.
func eosErr(err error, offset int64) error {
	if err == io.EOF {
		return &EndOfStreamError{Offset: offset}
	}
	return err
}

// sizeHint caps preallocation from a declared count: the count is
// attacker-controlled until the children actually arrive.
func sizeHint(n int) int {
	const limit = 1 << 10
	if n > limit {
		return limit
	}
	return n
}
