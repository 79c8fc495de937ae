// Package bencode implements the torrent metadata encoding.
//
// A decoded document is a tree of Value. The set of variants is closed:
// Int, Bytes, List and Dict are the only types that implement Value.
package bencode

import (
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
)

type Value interface {
	bencodeValue()
}

type Int int64

type Bytes []byte

type List []Value

// Dict keys hold the raw key bytes. Keys are emitted in sorted byte order when encoded.
type Dict map[string]Value

func (Int) bencodeValue()   {}
func (Bytes) bencodeValue() {}
func (List) bencodeValue()  {}
func (Dict) bencodeValue()  {}

var (
	ErrNotDict = errors.New("bencode: torrent is not a dictionary")
	ErrNoInfo  = errors.New("bencode: torrent has no info dictionary")
)

// DecodeError reports malformed input. Offset is the position in the input where
// the problem was detected.
type DecodeError struct {
	Offset int64
	Msg    string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("bencode: %s at offset %d", e.Msg, e.Offset)
}

func (d Dict) Int(key string) (int64, bool) {
	v, ok := d[key].(Int)
	return int64(v), ok
}

func (d Dict) Bytes(key string) ([]byte, bool) {
	v, ok := d[key].(Bytes)
	return []byte(v), ok
}

func (d Dict) List(key string) (List, bool) {
	v, ok := d[key].(List)
	return v, ok
}

func (d Dict) Dict(key string) (Dict, bool) {
	v, ok := d[key].(Dict)
	return v, ok
}

// HashInfo returns the v1 info hash (lowercase hex SHA-1) of an info dictionary.
func HashInfo(info Value) string {
	sum := sha1.Sum(Encode(info))
	return hex.EncodeToString(sum[:])
}

// InfoHash extracts the "info" dictionary of a decoded torrent and hashes it.
func InfoHash(torrent Value) (string, error) {
	d, ok := torrent.(Dict)
	if !ok {
		return "", ErrNotDict
	}
	info, ok := d.Dict("info")
	if !ok {
		return "", ErrNoInfo
	}
	return HashInfo(info), nil
}
