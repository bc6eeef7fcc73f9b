package simpleubjson

// Marker tables for the two supported drafts. The drafts share nothing
// but architecture: every marker byte identity differs, so each draft
// gets its own immutable table and the codec components take a table by
// value at call entry. No global state beyond the two tables themselves.

import (
	"encoding/binary"
	"math"
)

// Spec selects a UBJSON draft. The two drafts are wire-incompatible;
// every call into the codec names the one it speaks.
type Spec int

const (
	Draft8 Spec = 8
	Draft9 Spec = 9
)

func (s Spec) String() string {
	switch s {
	case Draft8:
		return "draft-8"
	case Draft9:
		return "draft-9"
	default:
		return "draft-?"
	}
}

type markerKind int

const (
	kindNoop markerKind = iota
	kindNull
	kindTrue
	kindFalse
	kindNumeric // fixed-width big-endian payload
	kindChar    // single-byte code point
	kindString  // length-prefixed UTF-8 text
	kindHuge    // length-prefixed decimal text
	kindArray
	kindObject
	kindClose
)

var kindNames = map[markerKind]string{
	kindNoop:    "noop",
	kindNull:    "null",
	kindTrue:    "true",
	kindFalse:   "false",
	kindNumeric: "numeric",
	kindChar:    "char",
	kindString:  "string",
	kindHuge:    "huge",
	kindArray:   "array",
	kindObject:  "object",
	kindClose:   "close",
}

func (k markerKind) String() string { return kindNames[k] }

// markerInfo is one reverse-table entry: everything the scanner needs to
// take a marker byte to a complete token.
type markerInfo struct {
	kind  markerKind
	width int                       // payload bytes for kindNumeric and kindChar
	num   func([]byte) interface{}  // payload decoder for kindNumeric

	// Length framing for kindString, kindHuge, kindArray and kindObject.
	// Draft-8 carries a fixed-width unsigned length prefix (lenWidth 1 or
	// 4); lenWidth 0 means the Draft-9 form, a length spelled as a whole
	// integer-marker token.
	lenWidth int

	// integer marks the numeric markers that may spell a length.
	integer bool
}

// specTable is the reverse table of one draft plus the framing facts the
// encoder and marshaller need from the forward direction.
type specTable struct {
	spec        Spec
	markers     [256]*markerInfo
	arrayClose  byte
	objectClose byte
}

func decodeInt8(b []byte) interface{} { return int64(int8(b[0])) }

func decodeUint8(b []byte) interface{} { return int64(b[0]) }

func decodeInt16(b []byte) interface{} {
	return int64(int16(binary.BigEndian.Uint16(b)))
}

func decodeInt32(b []byte) interface{} {
	return int64(int32(binary.BigEndian.Uint32(b)))
}

func decodeInt64(b []byte) interface{} {
	return int64(binary.BigEndian.Uint64(b))
}

func decodeFloat32(b []byte) interface{} {
	return math.Float32frombits(binary.BigEndian.Uint32(b))
}

func decodeFloat64(b []byte) interface{} {
	return math.Float64frombits(binary.BigEndian.Uint64(b))
}

var draft8Table = makeTable(Draft8, 'E', 'E', map[byte]*markerInfo{
	'N': {kind: kindNoop},
	'Z': {kind: kindNull},
	'T': {kind: kindTrue},
	'F': {kind: kindFalse},
	'B': {kind: kindNumeric, width: 1, num: decodeUint8, integer: true},
	'i': {kind: kindNumeric, width: 2, num: decodeInt16, integer: true},
	'I': {kind: kindNumeric, width: 4, num: decodeInt32, integer: true},
	'L': {kind: kindNumeric, width: 8, num: decodeInt64, integer: true},
	'd': {kind: kindNumeric, width: 4, num: decodeFloat32},
	'D': {kind: kindNumeric, width: 8, num: decodeFloat64},
	's': {kind: kindString, lenWidth: 1},
	'S': {kind: kindString, lenWidth: 4},
	'h': {kind: kindHuge, lenWidth: 1},
	'H': {kind: kindHuge, lenWidth: 4},
	'a': {kind: kindArray, lenWidth: 1},
	'A': {kind: kindArray, lenWidth: 4},
	'o': {kind: kindObject, lenWidth: 1},
	'O': {kind: kindObject, lenWidth: 4},
	'E': {kind: kindClose},
})

var draft9Table = makeTable(Draft9, ']', '}', map[byte]*markerInfo{
	'N': {kind: kindNoop},
	'Z': {kind: kindNull},
	'T': {kind: kindTrue},
	'F': {kind: kindFalse},
	'i': {kind: kindNumeric, width: 1, num: decodeInt8, integer: true},
	'U': {kind: kindNumeric, width: 1, num: decodeUint8, integer: true},
	'I': {kind: kindNumeric, width: 2, num: decodeInt16, integer: true},
	'l': {kind: kindNumeric, width: 4, num: decodeInt32, integer: true},
	'L': {kind: kindNumeric, width: 8, num: decodeInt64, integer: true},
	'd': {kind: kindNumeric, width: 4, num: decodeFloat32},
	'D': {kind: kindNumeric, width: 8, num: decodeFloat64},
	'C': {kind: kindChar, width: 1},
	'S': {kind: kindString},
	'H': {kind: kindHuge},
	'[': {kind: kindArray},
	'{': {kind: kindObject},
	']': {kind: kindClose},
	'}': {kind: kindClose},
})

func makeTable(spec Spec, arrayClose, objectClose byte, markers map[byte]*markerInfo) *specTable {
	t := &specTable{spec: spec, arrayClose: arrayClose, objectClose: objectClose}
	for c, m := range markers {
		t.markers[c] = m
	}
	return t
}

func tableFor(spec Spec) (*specTable, error) {
	switch spec {
	case Draft8:
		return draft8Table, nil
	case Draft9:
		return draft9Table, nil
	default:
		return nil, &DraftError{Spec: spec}
	}
}
