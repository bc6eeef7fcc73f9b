package simpleubjson

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"math/big"
	"reflect"
	"sort"
	"strconv"
	"unicode/utf8"

	"github.com/golang/glog"
)

// An Encoder writes values in UBJSON wire form. Every leaf takes the
// narrowest legal marker for its value. Draft-8 containers take the
// sized form when the length is known from the value itself and the
// streamed form for pull-only producers; Draft-9 containers always take
// the streamed form, ended by their close marker.
//
// The value mapping is:
//
//	nil                    -> null
//	bool                   -> true, false
//	signed/unsigned ints   -> narrowest integer marker; uint64 beyond
//	                          int64 range -> huge
//	float32, float64       -> float, or double when the value does not
//	                          survive a round trip through float32;
//	                          non-finite values -> null
//	Huge, *big.Int         -> huge
//	string, []byte         -> string (Draft-9 promotes a one-byte string
//	                          to char)
//	slices, arrays         -> array
//	Object, map[string]T   -> object, map keys sorted
//	<-chan T               -> streamed array
//	<-chan Member          -> streamed object
type Encoder struct {
	w             io.Writer
	table         *specTable
	bytesAsString bool
	maxDepth      int
	scratch       [9]byte
}

// NewEncoder returns an encoder writing the given draft to w.
func NewEncoder(w io.Writer, spec Spec) (*Encoder, error) {
	table, err := tableFor(spec)
	if err != nil {
		return nil, err
	}
	return &Encoder{w: w, table: table, bytesAsString: true, maxDepth: maxDepth}, nil
}

// BytesAsString toggles whether []byte values travel through the string
// path with UTF-8 assumed, which is the legacy behavior and the default.
// Draft-9 defines no byte-string marker; with this off, encoding []byte
// under Draft-9 is an EncodeError instead.
func (e *Encoder) BytesAsString(b bool) {
	e.bytesAsString = b
}

// MaxDepth sets the maximum allowed container nesting. The default is
// 200. The limit is what stops a self-referential container.
func (e *Encoder) MaxDepth(n int) {
	e.maxDepth = n
}

// Encode writes one value to the underlying writer. Errors from the
// writer propagate unchanged; the caller owns truncation of whatever was
// already written.
func (e *Encoder) Encode(v interface{}) error {
	return e.encode(v, 0)
}

func (e *Encoder) encode(v interface{}, depth int) error {
	switch v := v.(type) {
	case nil:
		return e.writeByte('Z')
	case bool:
		if v {
			return e.writeByte('T')
		}
		return e.writeByte('F')
	case int:
		return e.encodeInt(int64(v))
	case int8:
		return e.encodeInt(int64(v))
	case int16:
		return e.encodeInt(int64(v))
	case int32:
		return e.encodeInt(int64(v))
	case int64:
		return e.encodeInt(v)
	case uint:
		return e.encodeUint(uint64(v))
	case uint8:
		return e.encodeInt(int64(v))
	case uint16:
		return e.encodeInt(int64(v))
	case uint32:
		return e.encodeInt(int64(v))
	case uint64:
		return e.encodeUint(v)
	case float32:
		return e.encodeFloat32(v)
	case float64:
		return e.encodeFloat64(v)
	case string:
		return e.encodeString(v)
	case []byte:
		if e.table.spec == Draft9 && !e.bytesAsString {
			return &EncodeError{msg: "draft-9 defines no byte-string marker"}
		}
		return e.encodeString(string(v))
	case Huge:
		if !isDecimal([]byte(v)) {
			return &EncodeError{msg: "malformed huge number " + strconv.Quote(string(v))}
		}
		return e.encodeHuge(string(v))
	case *big.Int:
		if v == nil {
			return e.writeByte('Z')
		}
		return e.encodeHuge(v.String())
	case noopValue:
		return &EncodeError{msg: "noop has no wire representation"}
	case []interface{}:
		return e.encodeArray(v, depth)
	case Object:
		return e.encodeObject(v, depth)
	case map[string]interface{}:
		return e.encodeObject(sortedMembers(v), depth)
	default:
		return e.encodeReflect(reflect.ValueOf(v), depth)
	}
}

// encodeReflect covers the host value shapes a type switch cannot name:
// arbitrary slices, maps with string keys, and channels acting as lazy
// producers.
func (e *Encoder) encodeReflect(rv reflect.Value, depth int) error {
	switch rv.Kind() {
	case reflect.Ptr, reflect.Interface:
		if rv.IsNil() {
			return e.writeByte('Z')
		}
		return e.encode(rv.Elem().Interface(), depth)

	case reflect.Bool:
		return e.encode(rv.Bool(), depth)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return e.encodeInt(rv.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return e.encodeUint(rv.Uint())
	case reflect.Float32:
		return e.encodeFloat32(float32(rv.Float()))
	case reflect.Float64:
		return e.encodeFloat64(rv.Float())
	case reflect.String:
		return e.encodeString(rv.String())

	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.Type().Elem().Kind() == reflect.Uint8 {
			return e.encode(rv.Bytes(), depth)
		}
		items := make([]interface{}, rv.Len())
		for i := range items {
			items[i] = rv.Index(i).Interface()
		}
		return e.encodeArray(items, depth)

	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return &EncodeError{msg: "object key must be a string, not " + rv.Type().Key().String()}
		}
		members := make(Object, 0, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			members = append(members, Member{Key: iter.Key().String(), Value: iter.Value().Interface()})
		}
		sort.Slice(members, func(i, j int) bool { return members[i].Key < members[j].Key })
		return e.encodeObject(members, depth)

	case reflect.Chan:
		if rv.Type().ChanDir() == reflect.SendDir {
			return &EncodeError{msg: "cannot encode send-only channel"}
		}
		if rv.IsNil() {
			return e.writeByte('Z')
		}
		if rv.Type().Elem() == memberType {
			return e.encodeStreamedObject(rv, depth)
		}
		return e.encodeStreamedArray(rv, depth)
	}
	return &EncodeError{msg: fmt.Sprintf("no wire representation for %s value", rv.Type())}
}

var memberType = reflect.TypeOf(Member{})

func (e *Encoder) encodeInt(n int64) error {
	if e.table.spec == Draft8 {
		// The draft-8 byte marker decodes unsigned, so the encoder only
		// claims the range where signed and unsigned agree.
		switch {
		case 0 <= n && n <= 0x7F:
			e.scratch[0] = 'B'
			e.scratch[1] = byte(n)
			return e.write(e.scratch[:2])
		case math.MinInt16 <= n && n <= math.MaxInt16:
			e.scratch[0] = 'i'
			binary.BigEndian.PutUint16(e.scratch[1:], uint16(n))
			return e.write(e.scratch[:3])
		case math.MinInt32 <= n && n <= math.MaxInt32:
			e.scratch[0] = 'I'
			binary.BigEndian.PutUint32(e.scratch[1:], uint32(n))
			return e.write(e.scratch[:5])
		default:
			e.scratch[0] = 'L'
			binary.BigEndian.PutUint64(e.scratch[1:], uint64(n))
			return e.write(e.scratch[:9])
		}
	}
	switch {
	case math.MinInt8 <= n && n <= math.MaxInt8:
		e.scratch[0] = 'i'
		e.scratch[1] = byte(n)
		return e.write(e.scratch[:2])
	case 0 <= n && n <= math.MaxUint8:
		e.scratch[0] = 'U'
		e.scratch[1] = byte(n)
		return e.write(e.scratch[:2])
	case math.MinInt16 <= n && n <= math.MaxInt16:
		e.scratch[0] = 'I'
		binary.BigEndian.PutUint16(e.scratch[1:], uint16(n))
		return e.write(e.scratch[:3])
	case math.MinInt32 <= n && n <= math.MaxInt32:
		e.scratch[0] = 'l'
		binary.BigEndian.PutUint32(e.scratch[1:], uint32(n))
		return e.write(e.scratch[:5])
	default:
		e.scratch[0] = 'L'
		binary.BigEndian.PutUint64(e.scratch[1:], uint64(n))
		return e.write(e.scratch[:9])
	}
}

func (e *Encoder) encodeUint(n uint64) error {
	if n > math.MaxInt64 {
		return e.encodeHuge(strconv.FormatUint(n, 10))
	}
	return e.encodeInt(int64(n))
}

func (e *Encoder) encodeFloat32(f float32) error {
	if math.IsNaN(float64(f)) || math.IsInf(float64(f), 0) {
		return e.writeByte('Z')
	}
	e.scratch[0] = 'd'
	binary.BigEndian.PutUint32(e.scratch[1:], math.Float32bits(f))
	return e.write(e.scratch[:5])
}

func (e *Encoder) encodeFloat64(f float64) error {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return e.writeByte('Z')
	}
	// A value that survives the round trip through single precision is
	// spelled as a float; everything else needs a double.
	if float64(float32(f)) == f {
		return e.encodeFloat32(float32(f))
	}
	e.scratch[0] = 'D'
	binary.BigEndian.PutUint64(e.scratch[1:], math.Float64bits(f))
	return e.write(e.scratch[:9])
}

func (e *Encoder) encodeString(s string) error {
	if e.table.spec == Draft8 {
		return e.encodeShortLong('s', 'S', s)
	}
	if len(s) == 1 && s[0] < utf8.RuneSelf {
		e.scratch[0] = 'C'
		e.scratch[1] = s[0]
		return e.write(e.scratch[:2])
	}
	if err := e.writeByte('S'); err != nil {
		return err
	}
	if err := e.encodeInt(int64(len(s))); err != nil {
		return err
	}
	return e.write([]byte(s))
}

func (e *Encoder) encodeHuge(s string) error {
	if e.table.spec == Draft8 {
		return e.encodeShortLong('h', 'H', s)
	}
	if err := e.writeByte('H'); err != nil {
		return err
	}
	if err := e.encodeInt(int64(len(s))); err != nil {
		return err
	}
	return e.write([]byte(s))
}

// encodeShortLong writes a draft-8 length-prefixed payload: the short
// marker with a one-byte length below 255, the long marker with a
// four-byte length otherwise.
func (e *Encoder) encodeShortLong(short, long byte, s string) error {
	if len(s) < 0xFF {
		e.scratch[0] = short
		e.scratch[1] = byte(len(s))
		if err := e.write(e.scratch[:2]); err != nil {
			return err
		}
	} else {
		e.scratch[0] = long
		binary.BigEndian.PutUint32(e.scratch[1:], uint32(len(s)))
		if err := e.write(e.scratch[:5]); err != nil {
			return err
		}
	}
	return e.write([]byte(s))
}

func (e *Encoder) encodeArray(items []interface{}, depth int) error {
	if depth >= e.maxDepth {
		return &EncodeError{msg: "container nesting exceeds maximum depth"}
	}
	glog.V(2).Infof("ubjson: %s array of %d items", e.table.spec, len(items))
	if e.table.spec == Draft8 {
		if err := e.writeSizedHeader('a', 'A', len(items)); err != nil {
			return err
		}
	} else {
		if err := e.writeByte('['); err != nil {
			return err
		}
	}
	for _, item := range items {
		if err := e.encode(item, depth+1); err != nil {
			return err
		}
	}
	if e.table.spec == Draft9 {
		return e.writeByte(']')
	}
	return nil
}

func (e *Encoder) encodeObject(members Object, depth int) error {
	if depth >= e.maxDepth {
		return &EncodeError{msg: "container nesting exceeds maximum depth"}
	}
	glog.V(2).Infof("ubjson: %s object of %d members", e.table.spec, len(members))
	if e.table.spec == Draft8 {
		if err := e.writeSizedHeader('o', 'O', len(members)); err != nil {
			return err
		}
	} else {
		if err := e.writeByte('{'); err != nil {
			return err
		}
	}
	for _, m := range members {
		if err := e.encodeString(m.Key); err != nil {
			return err
		}
		if err := e.encode(m.Value, depth+1); err != nil {
			return err
		}
	}
	if e.table.spec == Draft9 {
		return e.writeByte('}')
	}
	return nil
}

// encodeStreamedArray drains a channel into the streamed wire form:
// draft-8 spells it with the 0xFF length byte and a trailing E, draft-9
// with the bare bracket pair.
func (e *Encoder) encodeStreamedArray(ch reflect.Value, depth int) error {
	if depth >= e.maxDepth {
		return &EncodeError{msg: "container nesting exceeds maximum depth"}
	}
	if e.table.spec == Draft8 {
		e.scratch[0] = 'a'
		e.scratch[1] = 0xFF
		if err := e.write(e.scratch[:2]); err != nil {
			return err
		}
	} else {
		if err := e.writeByte('['); err != nil {
			return err
		}
	}
	for {
		item, ok := ch.Recv()
		if !ok {
			break
		}
		if err := e.encode(item.Interface(), depth+1); err != nil {
			return err
		}
	}
	return e.writeByte(e.table.arrayClose)
}

func (e *Encoder) encodeStreamedObject(ch reflect.Value, depth int) error {
	if depth >= e.maxDepth {
		return &EncodeError{msg: "container nesting exceeds maximum depth"}
	}
	if e.table.spec == Draft8 {
		e.scratch[0] = 'o'
		e.scratch[1] = 0xFF
		if err := e.write(e.scratch[:2]); err != nil {
			return err
		}
	} else {
		if err := e.writeByte('{'); err != nil {
			return err
		}
	}
	for {
		item, ok := ch.Recv()
		if !ok {
			break
		}
		m := item.Interface().(Member)
		if err := e.encodeString(m.Key); err != nil {
			return err
		}
		if err := e.encode(m.Value, depth+1); err != nil {
			return err
		}
	}
	return e.writeByte(e.table.objectClose)
}

// writeSizedHeader writes a draft-8 container header: the short marker
// with a one-byte count below 255 (255 itself is the streamed sentinel),
// the long marker with a four-byte count otherwise.
func (e *Encoder) writeSizedHeader(short, long byte, n int) error {
	if n < 0xFF {
		e.scratch[0] = short
		e.scratch[1] = byte(n)
		return e.write(e.scratch[:2])
	}
	e.scratch[0] = long
	binary.BigEndian.PutUint32(e.scratch[1:], uint32(n))
	return e.write(e.scratch[:5])
}

func (e *Encoder) writeByte(c byte) error {
	e.scratch[0] = c
	return e.write(e.scratch[:1])
}

func (e *Encoder) write(b []byte) error {
	_, err := e.w.Write(b)
	return err
}

func sortedMembers(m map[string]interface{}) Object {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	members := make(Object, 0, len(m))
	for _, k := range keys {
		members = append(members, Member{Key: k, Value: m[k]})
	}
	return members
}
