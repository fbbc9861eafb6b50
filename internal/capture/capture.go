// Package capture reads and writes raw message capture files.
//
// Each line holds one message:
//
//	timestamp | topic | hex_payload
//
// with the timestamp in TimeLayout (local time).
package capture

import (
	"bufio"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

// TimeLayout is the timestamp format of a capture line.
const TimeLayout = "01.02.2006 15:04:05"

const separator = " | "

// ErrMalformedLine is returned for a line that does not hold three fields
// or whose timestamp or payload cannot be decoded.
var ErrMalformedLine = errors.New("capture: malformed line")

// Record is one captured message.
type Record struct {
	Time    time.Time
	Topic   string
	Payload []byte
}

// Format renders r as a capture line without the trailing newline.
func Format(r Record) string {
	return r.Time.Format(TimeLayout) + separator + r.Topic + separator + hex.EncodeToString(r.Payload)
}

// Parse decodes a single capture line.
func Parse(line string) (Record, error) {
	parts := strings.Split(line, separator)
	if len(parts) != 3 {
		return Record{}, fmt.Errorf("%w: expected \"timestamp | topic | hex_data\"", ErrMalformedLine)
	}

	ts, err := time.ParseInLocation(TimeLayout, parts[0], time.Local)
	if err != nil {
		return Record{}, fmt.Errorf("%w: timestamp: %w", ErrMalformedLine, err)
	}

	data, err := hex.DecodeString(parts[2])
	if err != nil {
		return Record{}, fmt.Errorf("%w: payload: %w", ErrMalformedLine, err)
	}

	return Record{Time: ts, Topic: parts[1], Payload: data}, nil
}

// Writer appends records to a capture file. Safe for concurrent use.
type Writer struct {
	mu   sync.Mutex
	file *os.File
}

// OpenWriter opens (creating if needed) the capture file at path for appending.
func OpenWriter(path string) (*Writer, error) {
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("opening capture file: %w", err)
	}
	return &Writer{file: file}, nil
}

// Write appends one record.
func (w *Writer) Write(r Record) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if _, err := w.file.WriteString(Format(r) + "\n"); err != nil {
		return fmt.Errorf("writing capture record: %w", err)
	}
	return nil
}

// Close closes the underlying file.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.file.Close()
}

// Reader iterates over the records of a capture stream.
type Reader struct {
	scanner *bufio.Scanner
	line    int
}

// NewReader returns a Reader over r.
func NewReader(r io.Reader) *Reader {
	scanner := bufio.NewScanner(r)
	// Hex doubles the payload size; allow payloads up to 512 KiB.
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	return &Reader{scanner: scanner}
}

// Next returns the next record and its line number. Blank lines are
// skipped. A malformed line returns an error wrapping ErrMalformedLine;
// reading can continue after it. io.EOF marks the end of the stream.
func (r *Reader) Next() (Record, int, error) {
	for r.scanner.Scan() {
		r.line++
		// An empty payload leaves the line ending in the separator's
		// trailing space, so only the line terminator is trimmed.
		line := strings.TrimRight(r.scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}

		rec, err := Parse(line)
		if err != nil {
			return Record{}, r.line, fmt.Errorf("line %d: %w", r.line, err)
		}
		return rec, r.line, nil
	}

	if err := r.scanner.Err(); err != nil {
		return Record{}, r.line, fmt.Errorf("reading capture: %w", err)
	}
	return Record{}, r.line, io.EOF
}
