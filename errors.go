package simpleubjson

import (
	"strconv"
)

// An EndOfStreamError reports that the byte source was exhausted in the
// middle of a token. A clean end of input at a token boundary is reported
// as io.EOF instead.
type EndOfStreamError struct {
	Offset int64 // number of bytes consumed before the source ran dry
}

func (e *EndOfStreamError) Error() string {
	return "ubjson: unexpected end of stream at offset " + strconv.FormatInt(e.Offset, 10)
}

// A MarkerError reports an unknown marker byte, or a marker that is not
// legal in its context: a non-integer marker where a length was expected,
// a non-string marker for an object key, a close marker inside a sized
// container.
type MarkerError struct {
	Marker byte
	Offset int64
	msg    string
}

func (e *MarkerError) Error() string {
	return "ubjson: " + e.msg + " " + strconv.Quote(string(e.Marker)) +
		" at offset " + strconv.FormatInt(e.Offset, 10)
}

// A DecodeError reports a malformed payload: invalid UTF-8 in a string,
// non-decimal bytes in a huge number, a negative length prefix.
type DecodeError struct {
	Offset int64
	msg    string
}

func (e *DecodeError) Error() string {
	return "ubjson: " + e.msg + " at offset " + strconv.FormatInt(e.Offset, 10)
}

// An EncodeError reports a value that has no wire representation, such as
// a non-string object key or a container nested beyond the encoder's
// depth limit.
type EncodeError struct {
	msg string
}

func (e *EncodeError) Error() string {
	return "ubjson: " + e.msg
}

// A DraftError reports a request for an unknown draft.
type DraftError struct {
	Spec Spec
}

func (e *DraftError) Error() string {
	return "ubjson: unknown draft " + strconv.Itoa(int(e.Spec))
}
