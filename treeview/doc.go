package treeview

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
)

// Entry is a single key/value pair in a Doc.
type Entry struct {
	Key   string
	Value any
}

// Doc is a JSON object that remembers the order its keys appeared in the
// source document. Standard map decoding loses that order, which would make
// renders jitter between passes.
type Doc []Entry

// Arr is a JSON array.
type Arr []any

// Keys returns the document's keys in order.
func (d Doc) Keys() []string {
	keys := make([]string, len(d))
	for i, e := range d {
		keys[i] = e.Key
	}
	return keys
}

// Get returns the value stored under key and whether the key is present.
func (d Doc) Get(key string) (any, bool) {
	for _, e := range d {
		if e.Key == key {
			return e.Value, true
		}
	}
	return nil, false
}

// Parse decodes a JSON document into Doc/Arr/string/json.Number/bool/nil
// values. Object key order is preserved and numbers keep their source text.
func Parse(data []byte) (any, error) {
	return Decode(bytes.NewReader(data))
}

// Decode reads a single JSON value from r. Trailing non-whitespace input is
// an error.
func Decode(r io.Reader) (any, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	v, err := decodeValue(dec)
	if err != nil {
		return nil, fmt.Errorf("decode json: %w", err)
	}

	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("decode json: trailing data after value")
	}
	return v, nil
}

func decodeValue(dec *json.Decoder) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}

	delim, ok := tok.(json.Delim)
	if !ok {
		// string, json.Number, bool, or nil.
		return tok, nil
	}

	switch delim {
	case '{':
		doc := Doc{}
		for dec.More() {
			keyTok, err := dec.Token()
			if err != nil {
				return nil, err
			}
			key, ok := keyTok.(string)
			if !ok {
				return nil, fmt.Errorf("object key %v is not a string", keyTok)
			}
			val, err := decodeValue(dec)
			if err != nil {
				return nil, err
			}
			doc = doc.set(key, val)
		}
		// Consume the closing '}'.
		if _, err := dec.Token(); err != nil {
			return nil, err
		}
		return doc, nil

	case '[':
		arr := Arr{}
		for dec.More() {
			val, err := decodeValue(dec)
			if err != nil {
				return nil, err
			}
			arr = append(arr, val)
		}
		// Consume the closing ']'.
		if _, err := dec.Token(); err != nil {
			return nil, err
		}
		return arr, nil

	default:
		return nil, fmt.Errorf("unexpected delimiter %q", delim.String())
	}
}

// set stores val under key. A duplicate key keeps its original position and
// has its value replaced.
func (d Doc) set(key string, val any) Doc {
	for i, e := range d {
		if e.Key == key {
			d[i].Value = val
			return d
		}
	}
	return append(d, Entry{Key: key, Value: val})
}
