package transcript

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"
)

// Attempt records one failed decode of an input document.
type Attempt struct {
	Encoding string
	Err      error
}

// DecodeError is returned when every encoding in the ordered list failed.
// It unwraps to the cause of the last attempt.
type DecodeError struct {
	Attempts []Attempt
}

func (e *DecodeError) Error() string {
	if len(e.Attempts) == 0 {
		return "decode: no encodings attempted"
	}
	last := e.Attempts[len(e.Attempts)-1]
	return fmt.Sprintf("decode: %d encodings failed, last %s: %v", len(e.Attempts), last.Encoding, last.Err)
}

func (e *DecodeError) Unwrap() error {
	if len(e.Attempts) == 0 {
		return nil
	}
	return e.Attempts[len(e.Attempts)-1].Err
}

// Decoded is a successfully decoded JSON document.
type Decoded struct {
	Encoding string
	Data     []byte
}

type encoding struct {
	name   string
	decode func([]byte) ([]byte, error)
}

var errInvalidUTF8 = errors.New("invalid utf-8")

// Tried in order; the first one yielding valid JSON wins.
var encodings = []encoding{
	{name: "utf-8-sig", decode: func(b []byte) ([]byte, error) {
		if !utf8.Valid(b) {
			return nil, errInvalidUTF8
		}
		return unicode.UTF8BOM.NewDecoder().Bytes(b)
	}},
	{name: "utf-8", decode: func(b []byte) ([]byte, error) {
		if !utf8.Valid(b) {
			return nil, errInvalidUTF8
		}
		return b, nil
	}},
	{name: "utf-16", decode: func(b []byte) ([]byte, error) {
		if len(b)%2 != 0 {
			return nil, errors.New("odd byte count for utf-16")
		}
		return unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewDecoder().Bytes(b)
	}},
}

// DecodeJSON converts raw bytes to UTF-8 JSON text.
func DecodeJSON(raw []byte) (Decoded, error) {
	derr := &DecodeError{}
	for _, enc := range encodings {
		out, err := enc.decode(raw)
		if err == nil && !json.Valid(out) {
			err = errors.New("not valid json")
		}
		if err != nil {
			derr.Attempts = append(derr.Attempts, Attempt{Encoding: enc.name, Err: err})
			continue
		}
		return Decoded{Encoding: enc.name, Data: out}, nil
	}
	return Decoded{}, derr
}

// ReadJSON reads path, detects its encoding and unmarshals it into v.
func ReadJSON(path string, v any) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	doc, err := DecodeJSON(raw)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	if err := json.Unmarshal(doc.Data, v); err != nil {
		return fmt.Errorf("%s decode: %w", path, err)
	}
	return nil
}
