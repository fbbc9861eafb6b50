// Command replay runs a capture file through the subscriber's message
// handler offline, producing the same log output as live delivery.
//
//	replay raw_messages.txt
package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"mqttjsonsub/internal/capture"
	"mqttjsonsub/internal/config"
	"mqttjsonsub/internal/logging"
	"mqttjsonsub/internal/subscriber"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: replay <raw_messages.txt>")
		os.Exit(2)
	}

	if err := config.LoadDotEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	log := logging.New(config.LoggingFromEnv(), "replay")

	file, err := os.Open(os.Args[1])
	if err != nil {
		log.Error("opening capture file failed", "error", err)
		os.Exit(1)
	}
	defer file.Close()

	stats, err := replay(file, subscriber.New("", nil, log), log)
	log.Info("replay finished", "handled", stats.handled, "skipped", stats.skipped)
	if err != nil {
		log.Error("reading capture file failed", "error", err)
		os.Exit(1)
	}
}

type replayStats struct {
	handled int
	skipped int
}

// replay hands every record in r to session. Malformed lines are logged
// and skipped; only a read error stops the replay.
func replay(r io.Reader, session *subscriber.Session, log *logging.Logger) (replayStats, error) {
	var stats replayStats
	reader := capture.NewReader(r)

	for {
		rec, line, err := reader.Next()
		switch {
		case errors.Is(err, io.EOF):
			return stats, nil
		case errors.Is(err, capture.ErrMalformedLine):
			log.Warn("skipping line", "line", line, "error", err)
			stats.skipped++
			continue
		case err != nil:
			return stats, err
		}

		log.Debug("replaying", "line", line, "captured_at", rec.Time)
		session.HandleMessage(rec.Topic, rec.Payload)
		stats.handled++
	}
}
