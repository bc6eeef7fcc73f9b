package simpleubjson

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/golang/glog"
)

// PPrint reformats a UBJSON byte stream into the bracketed textual view,
// four spaces of indent per nesting level:
//
//	[o] [2]
//	    [s] [2] [id]
//	    [I] [1234567890]
//	    [s] [4] [name]
//	    [s] [3] [bob]
//
// Sized containers dedent when their declared count is consumed; streamed
// containers dedent at their close marker, which prints at the outer
// level. The output is a deterministic function of the input bytes. Noop
// markers print as [N] when allowNoOp is set and are elided otherwise.
func PPrint(w io.Writer, r io.Reader, spec Spec, allowNoOp bool) error {
	scan, err := NewScanner(r, spec)
	if err != nil {
		return err
	}
	p := printer{w: w, table: scan.table}
	for {
		tok, err := scan.Next()
		if err == io.EOF {
			if len(p.stack) > 0 {
				return &EndOfStreamError{Offset: scan.Offset()}
			}
			return nil
		}
		if err != nil {
			return err
		}
		if scan.table.markers[tok.Tag].kind == kindNoop && !allowNoOp {
			continue
		}
		glog.V(2).Infof("ubjson: %s pprint token %q at depth %d", spec, string(tok.Tag), len(p.stack))
		if err := p.token(tok); err != nil {
			return err
		}
	}
}

// PPrintValue encodes the value and pretty-prints the result. The
// encoder never emits noop markers, so there is nothing to elide.
func PPrintValue(w io.Writer, v interface{}, spec Spec) error {
	var buf bytes.Buffer
	if err := Encode(&buf, v, spec); err != nil {
		return err
	}
	return PPrint(w, &buf, spec, true)
}

// A printer frame tracks one open container: how many child tokens a
// sized container still owes, or -1 for a streamed one.
type frame struct {
	open      byte
	remaining int
}

type printer struct {
	w     io.Writer
	table *specTable
	stack []frame
}

func (p *printer) token(tok Token) error {
	m := p.table.markers[tok.Tag]
	switch m.kind {
	case kindNoop:
		// Padding: printed, but never counted against a declared size.
		return p.line("[%c]", tok.Tag)

	case kindNull:
		if err := p.line("[%c]", tok.Tag); err != nil {
			return err
		}
		p.completed()
		return nil

	case kindTrue, kindFalse:
		if err := p.line("[%c]", tok.Tag); err != nil {
			return err
		}
		p.completed()
		return nil

	case kindNumeric, kindChar:
		if err := p.line("[%c] [%v]", tok.Tag, tok.Value); err != nil {
			return err
		}
		p.completed()
		return nil

	case kindString, kindHuge:
		if err := p.line("[%c] [%d] [%v]", tok.Tag, tok.Length, tok.Value); err != nil {
			return err
		}
		p.completed()
		return nil

	case kindArray, kindObject:
		return p.open(tok, m.kind)

	case kindClose:
		if len(p.stack) == 0 || p.stack[len(p.stack)-1].remaining >= 0 {
			return &MarkerError{Marker: tok.Tag, msg: "unexpected close marker"}
		}
		top := p.stack[len(p.stack)-1]
		want := p.table.objectClose
		if p.table.markers[top.open].kind == kindArray {
			want = p.table.arrayClose
		}
		if tok.Tag != want {
			return &MarkerError{Marker: tok.Tag, msg: "mismatched close marker"}
		}
		p.stack = p.stack[:len(p.stack)-1]
		if err := p.line("[%c]", tok.Tag); err != nil {
			return err
		}
		p.completed()
		return nil
	}
	panic("unreachable")
}

func (p *printer) open(tok Token, kind markerKind) error {
	if tok.Length < 0 {
		if err := p.line("[%c]", tok.Tag); err != nil {
			return err
		}
		p.stack = append(p.stack, frame{open: tok.Tag, remaining: -1})
		return nil
	}
	if err := p.line("[%c] [%d]", tok.Tag, tok.Length); err != nil {
		return err
	}
	remaining := tok.Length
	if kind == kindObject {
		// A sized object declares pairs; keys and values each arrive as
		// their own token.
		remaining *= 2
	}
	if remaining == 0 {
		p.completed()
		return nil
	}
	p.stack = append(p.stack, frame{open: tok.Tag, remaining: remaining})
	return nil
}

// completed accounts one finished value to the enclosing sized
// containers, popping every one whose count just ran out.
func (p *printer) completed() {
	for len(p.stack) > 0 {
		top := &p.stack[len(p.stack)-1]
		if top.remaining < 0 {
			return
		}
		top.remaining--
		if top.remaining > 0 {
			return
		}
		p.stack = p.stack[:len(p.stack)-1]
	}
}

func (p *printer) line(format string, args ...interface{}) error {
	if _, err := io.WriteString(p.w, strings.Repeat("    ", len(p.stack))); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(p.w, format, args...); err != nil {
		return err
	}
	_, err := io.WriteString(p.w, "\n")
	return err
}
