package bencode

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"
)

// Nesting limit for lists and dictionaries.
const maxDepth = 512

// longest valid int64 literal is 20 chars ("-9223372036854775808")
const maxIntLen = 20

// Decoder is the forward-only streaming decoder. It never backtracks, so it can
// read from unbounded sources. Decode stops right after one complete value;
// whatever follows in the stream is left unread.
type Decoder struct {
	r      *bufio.Reader
	offset int64
	depth  int
}

func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{r: bufio.NewReader(r)}
}

func (d *Decoder) Decode() (Value, error) {
	d.depth = 0
	return d.value()
}

func (d *Decoder) errorf(format string, args ...any) error {
	return &DecodeError{Offset: d.offset, Msg: fmt.Sprintf(format, args...)}
}

func (d *Decoder) eof(err error) error {
	if errors.Is(err, io.EOF) {
		return d.errorf("unexpected end of input")
	}
	return err
}

func (d *Decoder) readByte() (byte, error) {
	c, err := d.r.ReadByte()
	if err != nil {
		return 0, d.eof(err)
	}
	d.offset++
	return c, nil
}

func (d *Decoder) peekByte() (byte, error) {
	b, err := d.r.Peek(1)
	if err != nil {
		return 0, d.eof(err)
	}
	return b[0], nil
}

func (d *Decoder) value() (Value, error) {
	c, err := d.peekByte()
	if err != nil {
		return nil, err
	}
	switch {
	case c == 'i':
		d.readByte()
		n, err := d.integer('e', true)
		if err != nil {
			return nil, err
		}
		return Int(n), nil
	case isDigit(c):
		return d.bytes()
	case c == 'l':
		d.readByte()
		if d.depth++; d.depth > maxDepth {
			return nil, d.errorf("nesting too deep")
		}
		list := List{}
		for {
			c, err := d.peekByte()
			if err != nil {
				return nil, err
			}
			if c == 'e' {
				d.readByte()
				d.depth--
				return list, nil
			}
			item, err := d.value()
			if err != nil {
				return nil, err
			}
			list = append(list, item)
		}
	case c == 'd':
		d.readByte()
		if d.depth++; d.depth > maxDepth {
			return nil, d.errorf("nesting too deep")
		}
		dict := Dict{}
		for {
			c, err := d.peekByte()
			if err != nil {
				return nil, err
			}
			if c == 'e' {
				d.readByte()
				d.depth--
				return dict, nil
			}
			if !isDigit(c) {
				return nil, d.errorf("dictionary key is not a byte string")
			}
			keyOffset := d.offset
			key, err := d.bytes()
			if err != nil {
				return nil, err
			}
			if _, ok := dict[string(key)]; ok {
				return nil, &DecodeError{Offset: keyOffset, Msg: fmt.Sprintf("duplicate dictionary key %q", key)}
			}
			item, err := d.value()
			if err != nil {
				return nil, err
			}
			dict[string(key)] = item
		}
	default:
		return nil, d.errorf("unexpected token %q", c)
	}
}

func (d *Decoder) integer(term byte, signed bool) (int64, error) {
	start := d.offset
	digits := make([]byte, 0, maxIntLen)
	for {
		c, err := d.readByte()
		if err != nil {
			return 0, err
		}
		if c == term {
			break
		}
		if len(digits) == maxIntLen {
			return 0, &DecodeError{Offset: start, Msg: "integer too long"}
		}
		digits = append(digits, c)
	}
	return parseInt(digits, signed, start)
}

func (d *Decoder) bytes() (Bytes, error) {
	n, err := d.integer(':', false)
	if err != nil {
		return nil, err
	}
	start := d.offset
	data, err := io.ReadAll(io.LimitReader(d.r, n))
	d.offset += int64(len(data))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) < n {
		return nil, &DecodeError{Offset: start, Msg: fmt.Sprintf("byte string length %d exceeds input", n)}
	}
	return Bytes(data), nil
}

// DecodePrefix is the random-access decoder. It decodes the first value in data
// and reports how many bytes it consumed.
func DecodePrefix(data []byte) (Value, int, error) {
	p := &indexed{data: data}
	v, err := p.value()
	if err != nil {
		return nil, p.pos, err
	}
	return v, p.pos, nil
}

// DecodeIndexed decodes exactly one value; trailing bytes are an error.
func DecodeIndexed(data []byte) (Value, error) {
	v, n, err := DecodePrefix(data)
	if err != nil {
		return nil, err
	}
	if n != len(data) {
		return nil, &DecodeError{Offset: int64(n), Msg: fmt.Sprintf("%d bytes of trailing data", len(data)-n)}
	}
	return v, nil
}

// Decode tries the streaming decoder first and falls back to the indexed one.
func Decode(data []byte) (Value, error) {
	v, err := NewDecoder(bytes.NewReader(data)).Decode()
	if err == nil {
		return v, nil
	}
	return DecodeIndexed(data)
}

type indexed struct {
	data  []byte
	pos   int
	depth int
}

func (p *indexed) errorf(format string, args ...any) error {
	return &DecodeError{Offset: int64(p.pos), Msg: fmt.Sprintf(format, args...)}
}

func (p *indexed) peek() (byte, error) {
	if p.pos >= len(p.data) {
		return 0, p.errorf("unexpected end of input")
	}
	return p.data[p.pos], nil
}

func (p *indexed) value() (Value, error) {
	c, err := p.peek()
	if err != nil {
		return nil, err
	}
	switch {
	case c == 'i':
		p.pos++
		n, err := p.integer('e', true)
		if err != nil {
			return nil, err
		}
		return Int(n), nil
	case isDigit(c):
		return p.bytes()
	case c == 'l':
		p.pos++
		if p.depth++; p.depth > maxDepth {
			return nil, p.errorf("nesting too deep")
		}
		list := List{}
		for {
			c, err := p.peek()
			if err != nil {
				return nil, err
			}
			if c == 'e' {
				p.pos++
				p.depth--
				return list, nil
			}
			item, err := p.value()
			if err != nil {
				return nil, err
			}
			list = append(list, item)
		}
	case c == 'd':
		p.pos++
		if p.depth++; p.depth > maxDepth {
			return nil, p.errorf("nesting too deep")
		}
		dict := Dict{}
		for {
			c, err := p.peek()
			if err != nil {
				return nil, err
			}
			if c == 'e' {
				p.pos++
				p.depth--
				return dict, nil
			}
			if !isDigit(c) {
				return nil, p.errorf("dictionary key is not a byte string")
			}
			keyOffset := p.pos
			key, err := p.bytes()
			if err != nil {
				return nil, err
			}
			if _, ok := dict[string(key)]; ok {
				return nil, &DecodeError{Offset: int64(keyOffset), Msg: fmt.Sprintf("duplicate dictionary key %q", key)}
			}
			item, err := p.value()
			if err != nil {
				return nil, err
			}
			dict[string(key)] = item
		}
	default:
		return nil, p.errorf("unexpected token %q", c)
	}
}

func (p *indexed) integer(term byte, signed bool) (int64, error) {
	start := p.pos
	end := bytes.IndexByte(p.data[start:], term)
	if end == -1 {
		if len(p.data)-start > maxIntLen {
			return 0, &DecodeError{Offset: int64(start), Msg: "integer too long"}
		}
		p.pos = len(p.data)
		return 0, p.errorf("unexpected end of input")
	}
	if end > maxIntLen {
		return 0, &DecodeError{Offset: int64(start), Msg: "integer too long"}
	}
	p.pos = start + end + 1
	return parseInt(p.data[start:start+end], signed, int64(start))
}

func (p *indexed) bytes() (Bytes, error) {
	n, err := p.integer(':', false)
	if err != nil {
		return nil, err
	}
	if n > int64(len(p.data)-p.pos) {
		return nil, p.errorf("byte string length %d exceeds input", n)
	}
	data := make([]byte, n)
	copy(data, p.data[p.pos:])
	p.pos += int(n)
	return Bytes(data), nil
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func parseInt(digits []byte, signed bool, offset int64) (int64, error) {
	s := digits
	if signed && len(s) > 0 && s[0] == '-' {
		s = s[1:]
	}
	if len(s) == 0 {
		return 0, &DecodeError{Offset: offset, Msg: fmt.Sprintf("invalid integer %q", digits)}
	}
	for _, c := range s {
		if !isDigit(c) {
			if signed {
				return 0, &DecodeError{Offset: offset, Msg: fmt.Sprintf("invalid integer %q", digits)}
			}
			return 0, &DecodeError{Offset: offset, Msg: fmt.Sprintf("invalid byte string length %q", digits)}
		}
	}
	n, err := strconv.ParseInt(string(digits), 10, 64)
	if err != nil {
		return 0, &DecodeError{Offset: offset, Msg: fmt.Sprintf("integer %q out of range", digits)}
	}
	return n, nil
}
