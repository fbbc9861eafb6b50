package mqtt

import (
	"fmt"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"mqttjsonsub/internal/config"
)

// Connection constants.
const (
	// defaultKeepAlive is the keepalive interval negotiated with the broker.
	defaultKeepAlive = 60 * time.Second

	// defaultConnectTimeout bounds the wait for the initial CONNACK.
	defaultConnectTimeout = 30 * time.Second

	// defaultSubscribeTimeout bounds the wait for a SUBACK.
	defaultSubscribeTimeout = 10 * time.Second

	// defaultDisconnectQuiesce is the time to wait for pending work on disconnect.
	defaultDisconnectQuiesce = 250 // milliseconds

	// defaultQoS is paho's (and the protocol's) default subscription level.
	defaultQoS = 0

	clientIDPrefix = "mqtt-json-subscriber-"
)

// buildClientOptions creates paho options from the broker config.
//
// QoS, clean session, auto-reconnect and message ordering are left at the
// paho defaults.
func buildClientOptions(cfg config.MQTTConfig) *pahomqtt.ClientOptions {
	opts := pahomqtt.NewClientOptions()
	opts.AddBroker(cfg.BrokerURL())

	clientID := cfg.ClientID
	if clientID == "" {
		clientID = clientIDPrefix + fmt.Sprint(time.Now().Unix())
	}
	opts.SetClientID(clientID)

	opts.SetKeepAlive(defaultKeepAlive)
	opts.SetConnectTimeout(defaultConnectTimeout)

	return opts
}
