package simpleubjson

import (
	"bytes"
	"errors"
	"io"
	"math"
	"reflect"
	"strings"
	"testing"
)

func TestDecodeDraft8(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want interface{}
	}{
		{"null", "Z", nil},
		{"true", "T", true},
		{"false", "F", false},
		{"byte", "B\x2a", int64(42)},
		{"byte is unsigned", "B\xd6", int64(214)},
		{"int16", "i\x30\x39", int64(12345)},
		{"int16 negative", "i\xa0\xff", int64(-24321)},
		{"int32", "I\x00\x01\x88\x94", int64(100500)},
		{"int32 negative", "I\xff\xfe\x77\x6c", int64(-100500)},
		{"int64 max", "L\x7f\xff\xff\xff\xff\xff\xff\xff", int64(math.MaxInt64)},
		{"int64 min", "L\x80\x00\x00\x00\x00\x00\x00\x00", int64(math.MinInt64)},
		{"float", "d\x40\x48\xf5\xc3", float32(3.14)},
		{"double", "D\x71\x8e\xde\x0b\x49\x13\x5b\x25", 100500e234},
		{"huge short", "h\x043.14", Huge("3.14")},
		{"huge long", "H\x00\x00\x00\x043.14", Huge("3.14")},
		{"string short", "s\x03foo", "foo"},
		{"string long", "S\x00\x00\x00\x03foo", "foo"},
		{"string empty", "s\x00", ""},
		{"string utf8", "s\x0c\xd0\xbf\xd1\x80\xd0\xb8\xd0\xb2\xd0\xb5\xd1\x82", "привет"},
		{"sized array", "a\x03B\x01B\x02B\x03", []interface{}{int64(1), int64(2), int64(3)}},
		{"empty array", "a\x00", []interface{}{}},
		{"long array", "A\x00\x00\x00\x02B\x01B\x02", []interface{}{int64(1), int64(2)}},
		{"streamed array", "a\xffB\x00B\x01B\x02B\x03B\x04E", []interface{}{int64(0), int64(1), int64(2), int64(3), int64(4)}},
		{"streamed array empty", "a\xffE", []interface{}{}},
		{"sized object", "o\x01s\x03fooB\x2a", Object{{"foo", int64(42)}}},
		{"empty object", "o\x00", Object{}},
		{"long object", "O\x00\x00\x00\x01s\x01aB\x05", Object{{"a", int64(5)}}},
		{"streamed object", "o\xffs\x03fooB\x2aE", Object{{"foo", int64(42)}}},
		{"streamed object empty", "o\xffE", Object{}},
		{"head noops are skipped", "NNNNNNNNNNNNNZ", nil},
		{"trailing data is ignored", "Zfoobarbaz", nil},
		{"noop not counted in sized array", "a\x02B\x01NB\x02", []interface{}{int64(1), int64(2)}},
		{"noop skipped in sized object", "o\x01Ns\x03fooNB\x2a", Object{{"foo", int64(42)}}},
		{"nested containers", "a\x02a\x01B\x01o\x01s\x01kB\x02",
			[]interface{}{[]interface{}{int64(1)}, Object{{"k", int64(2)}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Unmarshal([]byte(tt.in), Draft8)
			if err != nil {
				t.Fatalf("Unmarshal(%q): %v", tt.in, err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Unmarshal(%q) = %#v, want %#v", tt.in, got, tt.want)
			}
		})
	}
}

func TestDecodeDraft9(t *testing.T) {
	pi51 := "314159265358979323846264338327950288419716939937510"
	tests := []struct {
		name string
		in   string
		want interface{}
	}{
		{"null", "Z", nil},
		{"true", "T", true},
		{"false", "F", false},
		{"int8", "i\x2a", int64(42)},
		{"int8 negative", "i\xd6", int64(-42)},
		{"uint8", "U\xd6", int64(214)},
		{"int16", "I\x30\x39", int64(12345)},
		{"int32", "l\x00\x01\x88\x94", int64(100500)},
		{"int32 negative", "l\xff\xfe\x77\x6c", int64(-100500)},
		{"int64 max", "L\x7f\xff\xff\xff\xff\xff\xff\xff", int64(math.MaxInt64)},
		{"int64 min", "L\x80\x00\x00\x00\x00\x00\x00\x00", int64(math.MinInt64)},
		{"float", "d\x40\x48\xf5\xc3", float32(3.14)},
		{"double", "D\x71\x8e\xde\x0b\x49\x13\x5b\x25", 100500e234},
		{"huge", "Hi\x33" + pi51, Huge(pi51)},
		{"huge negative float", "Hi\x35-3.14159265358979323846264338327950288419716939937510",
			Huge("-3.14159265358979323846264338327950288419716939937510")},
		{"huge exponent", "Hi\x052e+10", Huge("2e+10")},
		{"char", "C\x42", "B"},
		{"string", "Si\x03foo", "foo"},
		{"string utf8", "Si\x0c\xd0\xbf\xd1\x80\xd0\xb8\xd0\xb2\xd0\xb5\xd1\x82", "привет"},
		{"string uint8 length", "SU\x80" + strings.Repeat("f", 128), strings.Repeat("f", 128)},
		{"array", "[i\x01i\x02i\x03]", []interface{}{int64(1), int64(2), int64(3)}},
		{"empty array", "[]", []interface{}{}},
		{"object", "{Si\x03fooSi\x03barSi\x03barSi\x03baz}", Object{{"foo", "bar"}, {"bar", "baz"}}},
		{"empty object", "{}", Object{}},
		{"object with char key", "{CUSi\x06UBJSON}", Object{{"U", "UBJSON"}}},
		{"head noops are skipped", "NNNNNNNNNNNNNZ", nil},
		{"noops inside array", "[Ni\x01NNNi\x02NNNNNNNNNNNNNi\x03]", []interface{}{int64(1), int64(2), int64(3)}},
		{"noops inside object", "{NSi\x03fooNi\x2aN}", Object{{"foo", int64(42)}}},
		{"nested containers", "[[i\x2a]{Si\x03fooi\x2a}]",
			[]interface{}{[]interface{}{int64(42)}, Object{{"foo", int64(42)}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Unmarshal([]byte(tt.in), Draft9)
			if err != nil {
				t.Fatalf("Unmarshal(%q): %v", tt.in, err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Unmarshal(%q) = %#v, want %#v", tt.in, got, tt.want)
			}
		})
	}
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name string
		spec Spec
		in   string
		want interface{} // target for errors.As
	}{
		{"unknown marker", Draft8, "%", &MarkerError{}},
		{"unknown marker multibyte", Draft9, "Я", &MarkerError{}},
		{"truncated payload", Draft8, "B", &EndOfStreamError{}},
		{"truncated sized array", Draft8, "a\x02B\x01", &EndOfStreamError{}},
		{"unterminated streamed array", Draft8, "a\xffB\x01", &EndOfStreamError{}},
		{"close inside sized array", Draft8, "a\x02B\x01E", &MarkerError{}},
		{"non-string object key", Draft8, "o\x01B\x01B\x02", &MarkerError{}},
		{"invalid utf8 string", Draft8, "s\x02\xff\xff", &DecodeError{}},
		{"malformed huge", Draft8, "h\x03foo", &DecodeError{}},
		{"huge with space", Draft9, "Hi\x33314159 65358979323846264338327950288419716939937510", &DecodeError{}},
		{"huge non-numeric", Draft9, "Hi\x09foobarbaz", &DecodeError{}},
		{"early array end", Draft9, "[", &EndOfStreamError{}},
		{"early object end", Draft9, "{", &EndOfStreamError{}},
		{"non-string key in truncated object", Draft9, "{i\x01", &MarkerError{}},
		{"close in value position", Draft9, "{Si\x03foo}", &MarkerError{}},
		{"non-string object key", Draft9, "{i\x03Si\x03foo}", &MarkerError{}},
		{"mismatched close", Draft9, "[i\x01}", &MarkerError{}},
		{"top-level close", Draft8, "E", &MarkerError{}},
		{"top-level close", Draft9, "]", &MarkerError{}},
		{"non-integer length marker", Draft9, "ST", &MarkerError{}},
		{"negative length prefix", Draft9, "Si\xfdfoo", &DecodeError{}},
		{"truncated length marker", Draft9, "S", &EndOfStreamError{}},
	}
	for _, tt := range tests {
		t.Run(tt.spec.String()+" "+tt.name, func(t *testing.T) {
			_, err := Unmarshal([]byte(tt.in), tt.spec)
			if err == nil {
				t.Fatalf("Unmarshal(%q) succeeded, want error", tt.in)
			}
			target := reflect.New(reflect.TypeOf(tt.want)).Interface()
			if !errors.As(err, target) {
				t.Errorf("Unmarshal(%q) = %v (%T), want %T", tt.in, err, err, tt.want)
			}
		})
	}
}

func TestDecodeEmptyInput(t *testing.T) {
	for _, spec := range []Spec{Draft8, Draft9} {
		if _, err := Unmarshal(nil, spec); err != io.EOF {
			t.Errorf("%s: Unmarshal(empty) = %v, want io.EOF", spec, err)
		}
	}
	// A stream of nothing but padding has no value either.
	if _, err := Unmarshal([]byte("NNNN"), Draft9); err != io.EOF {
		t.Errorf("Unmarshal(noops) = %v, want io.EOF", err)
	}
}

func TestDecodeAllowNoOp(t *testing.T) {
	tests := []struct {
		name string
		spec Spec
		in   string
		want interface{}
	}{
		{"top level", Draft9, "N", NoOp},
		{"streamed array", Draft9, "[i\x00Ni\x01Ni\x02Ni\x03Ni\x04]",
			[]interface{}{int64(0), NoOp, int64(1), NoOp, int64(2), NoOp, int64(3), NoOp, int64(4)}},
		{"draft-8 streamed array", Draft8, "a\xffB\x01NB\x02E",
			[]interface{}{int64(1), NoOp, int64(2)}},
		// Sized containers admit no padding entries: the count is exact.
		{"sized array still skips", Draft8, "a\x02B\x01NB\x02", []interface{}{int64(1), int64(2)}},
		{"object still skips", Draft9, "{NSi\x03fooNi\x2aN}", Object{{"foo", int64(42)}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := NewDecoder(bytes.NewReader([]byte(tt.in)), tt.spec)
			if err != nil {
				t.Fatal(err)
			}
			d.AllowNoOp(true)
			got, err := d.Decode()
			if err != nil {
				t.Fatalf("Decode(%q): %v", tt.in, err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Decode(%q) = %#v, want %#v", tt.in, got, tt.want)
			}
		})
	}
}

func TestDecodeMaxDepth(t *testing.T) {
	in := strings.Repeat("[", 250) + strings.Repeat("]", 250)
	d, err := NewDecoder(strings.NewReader(in), Draft9)
	if err != nil {
		t.Fatal(err)
	}
	_, err = d.Decode()
	var de *DecodeError
	if !errors.As(err, &de) {
		t.Fatalf("Decode(250 levels) = %v, want DecodeError", err)
	}

	d, err = NewDecoder(strings.NewReader(in), Draft9)
	if err != nil {
		t.Fatal(err)
	}
	d.MaxDepth(300)
	if _, err := d.Decode(); err != nil {
		t.Fatalf("Decode(250 levels, MaxDepth 300): %v", err)
	}
}

func TestDecodeConcatenatedStream(t *testing.T) {
	d, err := NewDecoder(strings.NewReader("i\x01i\x02"), Draft9)
	if err != nil {
		t.Fatal(err)
	}
	for i, want := range []int64{1, 2} {
		got, err := d.Decode()
		if err != nil {
			t.Fatalf("Decode #%d: %v", i, err)
		}
		if got != interface{}(want) {
			t.Errorf("Decode #%d = %v, want %v", i, got, want)
		}
	}
	if _, err := d.Decode(); err != io.EOF {
		t.Errorf("Decode past end = %v, want io.EOF", err)
	}
}
