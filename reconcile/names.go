package reconcile

import (
	"fmt"
	"slices"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
)

// Full-width or look-alike substitutes for characters that are illegal in
// file names on common local filesystems.
var DefaultCharMap = map[string]string{
	"?":  "？",
	"*":  "٭",
	"<":  "《",
	">":  "》",
	":":  "：",
	"\"": "'",
	"/":  "／",
	"\\": "／",
	"|":  "￨",
}

func newReplacer(charMap map[string]string) *strings.Replacer {
	keys := make([]string, 0, len(charMap))
	for k := range charMap {
		if k != "" {
			keys = append(keys, k)
		}
	}
	slices.Sort(keys)
	oldnew := make([]string, 0, len(keys)*2)
	for _, k := range keys {
		oldnew = append(oldnew, k, charMap[k])
	}
	return strings.NewReplacer(oldnew...)
}

// DecodeName turns a raw name declared by a torrent into a local file name.
// Valid UTF-8 is used as is, otherwise the legacy encoding is tried. A name
// that neither decodes cleanly is reported as not ok and must not be matched.
func (e *Engine) DecodeName(raw []byte) (string, bool) {
	var name string
	if utf8.Valid(raw) {
		name = string(raw)
	} else if s, ok := decodeLegacy(e.legacy, raw); ok {
		name = s
	} else {
		return "", false
	}
	return e.replacer.Replace(name), true
}

// LegacyEncoding looks up an encoding by its WHATWG name or label (eg. "gbk",
// "big5", "shift_jis"). "none" disables the fallback and yields nil.
func LegacyEncoding(name string) (encoding.Encoding, error) {
	if name == "none" {
		return nil, nil
	}
	enc, err := htmlindex.Get(name)
	if err != nil {
		return nil, fmt.Errorf("unknown legacy encoding %q: %w", name, err)
	}
	return enc, nil
}

func decodeLegacy(enc encoding.Encoding, raw []byte) (string, bool) {
	if enc == nil {
		return "", false
	}
	out, err := enc.NewDecoder().Bytes(raw)
	if err != nil || !utf8.Valid(out) || strings.ContainsRune(string(out), utf8.RuneError) {
		return "", false
	}
	return string(out), true
}

// torrentPath returns "name/seg1/seg2/..." with every component decoded.
func (e *Engine) torrentPath(name string, segments [][]byte) (string, bool) {
	parts := make([]string, 0, len(segments)+1)
	parts = append(parts, name)
	for _, segment := range segments {
		s, ok := e.DecodeName(segment)
		if !ok || !validComponent(s) {
			return "", false
		}
		parts = append(parts, s)
	}
	return strings.Join(parts, "/"), true
}

func validComponent(name string) bool {
	return name != "" && name != "." && name != ".." && !strings.Contains(name, "/")
}
