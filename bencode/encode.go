package bencode

import (
	"bytes"
	"fmt"
	"slices"
	"strconv"
)

// Encode returns the canonical encoding of v. It panics if the tree contains
// a nil Value.
func Encode(v Value) []byte {
	buf := &bytes.Buffer{}
	encodeTo(buf, v)
	return buf.Bytes()
}

func encodeTo(buf *bytes.Buffer, v Value) {
	switch v := v.(type) {
	case Int:
		buf.WriteByte('i')
		buf.WriteString(strconv.FormatInt(int64(v), 10))
		buf.WriteByte('e')
	case Bytes:
		writeBytes(buf, v)
	case List:
		buf.WriteByte('l')
		for _, item := range v {
			encodeTo(buf, item)
		}
		buf.WriteByte('e')
	case Dict:
		keys := make([]string, 0, len(v))
		for key := range v {
			keys = append(keys, key)
		}
		// Go string comparison is bytewise
		slices.Sort(keys)
		buf.WriteByte('d')
		for _, key := range keys {
			writeBytes(buf, []byte(key))
			encodeTo(buf, v[key])
		}
		buf.WriteByte('e')
	default:
		panic(fmt.Sprintf("bencode: cannot encode %T", v))
	}
}

func writeBytes(buf *bytes.Buffer, b []byte) {
	buf.WriteString(strconv.Itoa(len(b)))
	buf.WriteByte(':')
	buf.Write(b)
}
