package mqtt

import (
	"errors"
	"fmt"

	"github.com/eclipse/paho.mqtt.golang/packets"
)

// Domain-specific errors for MQTT operations.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrNotConnected is returned when attempting operations on a disconnected client.
	ErrNotConnected = errors.New("mqtt: client not connected")

	// ErrConnectionFailed is returned when the initial connection attempt fails
	// at the network or transport level.
	ErrConnectionFailed = errors.New("mqtt: connection failed")

	// ErrConnectionRefused is returned when the broker answered the CONNECT
	// with a non-zero CONNACK code.
	ErrConnectionRefused = errors.New("mqtt: connection refused by broker")

	// ErrSubscribeFailed is returned when a subscribe operation fails.
	ErrSubscribeFailed = errors.New("mqtt: subscribe failed")

	// ErrInvalidTopic is returned when an empty topic is provided.
	ErrInvalidTopic = errors.New("mqtt: topic cannot be empty")
)

// RefusedError carries the CONNACK return code of a refused connection.
type RefusedError struct {
	Code byte
}

func (e *RefusedError) Error() string {
	return fmt.Sprintf("%v: code %d (%s)", ErrConnectionRefused, e.Code, ConnackReason(e.Code))
}

func (e *RefusedError) Unwrap() error {
	return ErrConnectionRefused
}

// ConnackReason describes a CONNACK return code.
func ConnackReason(code byte) string {
	if reason, ok := packets.ConnackReturnCodes[code]; ok {
		return reason
	}
	return "unknown return code"
}

// isBrokerRefusal reports whether code is one of the MQTT 3.1.1 refusal
// codes (1..5) sent by a broker, as opposed to paho's local network and
// protocol pseudo-codes.
func isBrokerRefusal(code byte) bool {
	return code >= packets.ErrRefusedBadProtocolVersion && code <= packets.ErrRefusedNotAuthorised
}

// connectError classifies the outcome of the initial connect attempt.
func connectError(code byte, err error) error {
	if isBrokerRefusal(code) {
		return &RefusedError{Code: code}
	}
	if err != nil {
		return fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}
	if code != packets.Accepted {
		return fmt.Errorf("%w: %s", ErrConnectionFailed, ConnackReason(code))
	}
	return nil
}
