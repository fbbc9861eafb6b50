// Package mqtt wraps paho.mqtt.golang with the connect, subscribe and
// event-callback surface the subscriber needs.
//
// Keepalive, socket I/O and reconnection are handled inside paho. With the
// default ordering option paho delivers messages for one client one at a
// time, so MessageHandlers never run concurrently with each other.
package mqtt

import (
	"context"
	"fmt"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"mqttjsonsub/internal/config"
)

// Logger is the subset of logging.Logger used for handler panics.
type Logger interface {
	Error(msg string, args ...any)
}

// MessageHandler is called once per inbound message.
type MessageHandler func(topic string, payload []byte)

// Handlers are the connection event callbacks. Either may be nil.
type Handlers struct {
	// OnConnect runs after every successful (re)connection with code 0.
	// Connect passes broker refusal codes back to its caller instead.
	OnConnect func(code byte)

	// OnConnectionLost runs when an established connection drops.
	OnConnectionLost func(err error)
}

// Client is a single broker session.
type Client struct {
	client  pahomqtt.Client
	options *pahomqtt.ClientOptions
	cfg     config.MQTTConfig
	logger  Logger
}

// New prepares a client for the configured broker without connecting.
// The event handlers are registered before any network activity so the
// first on-connect callback cannot be missed.
func New(cfg config.MQTTConfig, h Handlers, logger Logger) *Client {
	opts := buildClientOptions(cfg)

	c := &Client{
		cfg:     cfg,
		options: opts,
		logger:  logger,
	}

	opts.SetOnConnectHandler(func(_ pahomqtt.Client) {
		if h.OnConnect != nil {
			h.OnConnect(0)
		}
	})

	opts.SetConnectionLostHandler(func(_ pahomqtt.Client, err error) {
		if h.OnConnectionLost != nil {
			h.OnConnectionLost(err)
		}
	})

	c.client = pahomqtt.NewClient(opts)
	return c
}

// Connect performs the initial connection and waits for the broker's
// answer.
//
// A broker refusal returns a *RefusedError (matching ErrConnectionRefused)
// carrying the CONNACK code. Any other failure matches ErrConnectionFailed.
func (c *Client) Connect() error {
	token := c.client.Connect()
	if !token.WaitTimeout(defaultConnectTimeout) {
		return fmt.Errorf("%w: timeout after %v", ErrConnectionFailed, defaultConnectTimeout)
	}

	var code byte
	if ct, ok := token.(*pahomqtt.ConnectToken); ok {
		code = ct.ReturnCode()
	}
	return connectError(code, token.Error())
}

// Subscribe subscribes to topic at the default QoS and routes each message
// to handler. A panicking handler is recovered and logged.
func (c *Client) Subscribe(topic string, handler MessageHandler) error {
	if topic == "" {
		return ErrInvalidTopic
	}
	if handler == nil {
		return fmt.Errorf("%w: handler cannot be nil", ErrSubscribeFailed)
	}
	if !c.client.IsConnectionOpen() {
		return ErrNotConnected
	}

	token := c.client.Subscribe(topic, defaultQoS, c.wrapHandler(handler))
	if !token.WaitTimeout(defaultSubscribeTimeout) {
		return fmt.Errorf("%w: timeout after %v", ErrSubscribeFailed, defaultSubscribeTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("%w: %w", ErrSubscribeFailed, err)
	}
	return nil
}

// IsConnected reports whether the connection is currently up.
func (c *Client) IsConnected() bool {
	return c.client != nil && c.client.IsConnectionOpen()
}

// HealthCheck returns nil while the connection is up.
func (c *Client) HealthCheck(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("mqtt health check: %w", ctx.Err())
	default:
	}

	if !c.IsConnected() {
		return ErrNotConnected
	}
	return nil
}

// Close disconnects, giving in-flight work a short quiesce period.
func (c *Client) Close() error {
	if c.client == nil {
		return nil
	}
	c.client.Disconnect(defaultDisconnectQuiesce)
	return nil
}

func (c *Client) wrapHandler(handler MessageHandler) pahomqtt.MessageHandler {
	return func(_ pahomqtt.Client, msg pahomqtt.Message) {
		defer func() {
			if r := recover(); r != nil && c.logger != nil {
				c.logger.Error("MQTT handler panic recovered",
					"topic", msg.Topic(),
					"panic", r,
				)
			}
		}()

		handler(msg.Topic(), msg.Payload())
	}
}
