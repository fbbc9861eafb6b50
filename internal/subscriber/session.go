// Package subscriber holds the application side of the broker session:
// what happens on connect, on connection loss and for every message.
package subscriber

import (
	"context"
	"errors"
	"fmt"

	"mqttjsonsub/internal/logging"
	"mqttjsonsub/internal/mqtt"
	"mqttjsonsub/internal/payload"
)

// Subscriber issues subscribe requests. *mqtt.Client implements it.
type Subscriber interface {
	Subscribe(topic string, handler mqtt.MessageHandler) error
}

// Store receives every successfully parsed payload.
type Store interface {
	Save(ctx context.Context, topic string, value any) error
}

// NopStore discards everything. It is the only Store for now.
type NopStore struct{}

// Save does nothing.
func (NopStore) Save(context.Context, string, any) error { return nil }

// Session reacts to connection events for a single topic.
//
// HandleMessage keeps no state between calls. It is safe to call
// concurrently, although paho serializes deliveries for one client.
type Session struct {
	topic      string
	subscriber Subscriber
	store      Store
	log        *logging.Logger
}

// Option configures a Session.
type Option func(*Session)

// WithStore sets the Store that receives parsed payloads.
func WithStore(store Store) Option {
	return func(s *Session) {
		s.store = store
	}
}

// New creates a Session for topic. sub may be nil when the session only
// handles messages (for example during an offline replay).
func New(topic string, sub Subscriber, log *logging.Logger, opts ...Option) *Session {
	s := &Session{
		topic:      topic,
		subscriber: sub,
		store:      NopStore{},
		log:        log,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// HandleConnect handles a connection result code. Code 0 subscribes to the
// session topic exactly once; any other code is only logged. Neither path
// retries or stops the process.
func (s *Session) HandleConnect(code byte) {
	if code != 0 {
		s.log.Error("connection to broker failed",
			"code", code,
			"reason", mqtt.ConnackReason(code),
		)
		return
	}

	s.log.Info("connected to broker")

	if s.subscriber == nil {
		return
	}
	if err := s.subscriber.Subscribe(s.topic, s.HandleMessage); err != nil {
		s.log.Error("subscribe failed", "topic", s.topic, "error", err)
		return
	}
	s.log.Info("subscribed", "topic", s.topic)
}

// HandleConnectionLost logs a dropped connection. paho reconnects on its own.
func (s *Session) HandleConnectionLost(err error) {
	s.log.Warn("connection lost", "error", err)
}

// HandleMessage decodes and logs one message. It never panics and never
// returns an error: failures are logged and the next message is handled
// normally.
func (s *Session) HandleMessage(topic string, raw []byte) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("error processing message", "topic", topic, "error", fmt.Sprint(r))
		}
	}()

	s.log.Info("message received", "topic", topic, "bytes", len(raw))

	decoded, err := payload.Decode(raw)
	switch {
	case errors.Is(err, payload.ErrInvalidUTF8):
		s.log.Error("payload is not valid UTF-8", "topic", topic, "error", err)
		return
	case errors.Is(err, payload.ErrInvalidJSON):
		s.log.Error("payload is not valid JSON", "topic", topic, "payload", string(raw), "error", err)
		return
	case err != nil:
		s.log.Error("error processing message", "topic", topic, "error", err)
		return
	}

	s.log.Info("payload", "topic", topic, "raw", decoded.Text)
	s.log.Info("parsed payload", "topic", topic, "json", decoded.Pretty)

	if err := s.store.Save(context.Background(), topic, decoded.Value); err != nil {
		s.log.Error("storing payload failed", "topic", topic, "error", err)
	}
}
