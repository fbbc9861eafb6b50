package payload

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestDecode_Object(t *testing.T) {
	decoded, err := Decode([]byte(`{"temp": 21.5, "unit": "C"}`))
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}

	if decoded.Text != `{"temp": 21.5, "unit": "C"}` {
		t.Errorf("Text = %q", decoded.Text)
	}

	obj, ok := decoded.Value.(map[string]any)
	if !ok {
		t.Fatalf("Value type = %T, want map[string]any", decoded.Value)
	}
	if obj["temp"] != json.Number("21.5") {
		t.Errorf("temp = %#v, want json.Number(\"21.5\")", obj["temp"])
	}
	if obj["unit"] != "C" {
		t.Errorf("unit = %#v, want \"C\"", obj["unit"])
	}

	want := "{\n  \"temp\": 21.5,\n  \"unit\": \"C\"\n}"
	if decoded.Pretty != want {
		t.Errorf("Pretty = %q, want %q", decoded.Pretty, want)
	}
}

func TestDecode_ValueKinds(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		pretty string
	}{
		{name: "array", input: `[1,2]`, pretty: "[\n  1,\n  2\n]"},
		{name: "string", input: `"hello"`, pretty: `"hello"`},
		{name: "number", input: `42`, pretty: `42`},
		{name: "large integer keeps precision", input: `12345678901234567890`, pretty: `12345678901234567890`},
		{name: "bool", input: `true`, pretty: `true`},
		{name: "null", input: `null`, pretty: `null`},
		{name: "surrounding whitespace", input: " {\"a\":1}\n", pretty: "{\n  \"a\": 1\n}"},
		{name: "unicode text", input: `{"city":"Málaga"}`, pretty: "{\n  \"city\": \"Málaga\"\n}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decoded, err := Decode([]byte(tt.input))
			if err != nil {
				t.Fatalf("Decode(%q) error = %v", tt.input, err)
			}
			if decoded.Pretty != tt.pretty {
				t.Errorf("Pretty = %q, want %q", decoded.Pretty, tt.pretty)
			}
		})
	}
}

func TestDecode_InvalidJSON(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "truncated object", input: `{not valid json`},
		{name: "empty", input: ``},
		{name: "whitespace only", input: "  \n"},
		{name: "trailing garbage", input: `{"a":1} x`},
		{name: "two values", input: `{"a":1}{"b":2}`},
		{name: "plain text", input: `hello world`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.input))
			if !errors.Is(err, ErrInvalidJSON) {
				t.Errorf("Decode(%q) error = %v, want ErrInvalidJSON", tt.input, err)
			}
		})
	}
}

func TestDecode_InvalidUTF8(t *testing.T) {
	_, err := Decode([]byte{0xff, 0xfe, 0x00})
	if !errors.Is(err, ErrInvalidUTF8) {
		t.Fatalf("Decode() error = %v, want ErrInvalidUTF8", err)
	}
	if !strings.Contains(err.Error(), "ff fe 00") {
		t.Errorf("error %q does not show the offending bytes", err)
	}
}

func TestDecode_Idempotent(t *testing.T) {
	raw := []byte(`{"temp": 21.5, "unit": "C"}`)

	first, err := Decode(raw)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	second, err := Decode(raw)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}

	if first.Pretty != second.Pretty {
		t.Errorf("Pretty differs between calls: %q vs %q", first.Pretty, second.Pretty)
	}
}

func TestPreview_Truncates(t *testing.T) {
	raw := make([]byte, maxPreview*2)
	if got := len(preview(raw)); got != maxPreview {
		t.Errorf("len(preview) = %d, want %d", got, maxPreview)
	}
}
