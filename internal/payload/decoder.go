// Package payload turns raw MQTT payload bytes into a parsed JSON value
// and its indented rendering.
package payload

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"unicode/utf8"
)

var (
	// ErrInvalidUTF8 is returned when the payload is not valid UTF-8 text.
	ErrInvalidUTF8 = errors.New("payload: not valid UTF-8")

	// ErrInvalidJSON is returned when the payload text is not a single JSON value.
	ErrInvalidJSON = errors.New("payload: not valid JSON")
)

// indent is the per-level indentation of Decoded.Pretty.
const indent = "  "

// Decoded is a successfully parsed payload.
type Decoded struct {
	// Text is the payload as received, decoded as UTF-8.
	Text string
	// Value is the generic JSON value: map[string]any, []any, string,
	// json.Number, bool or nil.
	Value any
	// Pretty is Value rendered with two-space indentation.
	Pretty string
}

// Decode validates raw as UTF-8, parses it as exactly one JSON value and
// renders it indented. Numbers keep their original spelling.
func Decode(raw []byte) (*Decoded, error) {
	if !utf8.Valid(raw) {
		return nil, fmt.Errorf("%w: % x", ErrInvalidUTF8, preview(raw))
	}
	text := string(raw)

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var value any
	if err := dec.Decode(&value); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidJSON, err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: unexpected data after top-level value", ErrInvalidJSON)
	}

	pretty, err := json.MarshalIndent(value, "", indent)
	if err != nil {
		return nil, fmt.Errorf("rendering payload: %w", err)
	}

	return &Decoded{
		Text:   text,
		Value:  value,
		Pretty: string(pretty),
	}, nil
}

// maxPreview bounds how many bytes of a binary payload end up in an error.
const maxPreview = 64

func preview(raw []byte) []byte {
	if len(raw) > maxPreview {
		return raw[:maxPreview]
	}
	return raw
}
