// Command mqttjsonsub subscribes to one MQTT topic and logs every message
// after parsing it as JSON.
//
// Configuration comes from the environment (MQTT_BROKER, MQTT_PORT,
// MQTT_TOPIC), optionally seeded from a .env file or a YAML file named by
// CONFIG_FILE. It runs until SIGINT or SIGTERM.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"mqttjsonsub/internal/config"
	"mqttjsonsub/internal/logging"
	"mqttjsonsub/internal/mqtt"
	"mqttjsonsub/internal/subscriber"
)

// version is set at build time: go build -ldflags "-X main.version=1.0.0"
var version = "dev"

// fatalDelay keeps a fatal diagnostic visible in the log viewer before the
// supervisor recycles the container.
const fatalDelay = 60 * time.Second

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	log := logging.Default()
	err := run(ctx, log)
	cancel()

	if err != nil {
		fatal(log, err)
	}
}

// run loads configuration, connects and blocks until ctx is cancelled.
// A returned error is fatal.
func run(ctx context.Context, log *logging.Logger) error {
	if err := config.LoadDotEnv(); err != nil {
		return fmt.Errorf("loading .env: %w", err)
	}

	cfg, err := config.Load(os.Getenv(config.EnvConfigFile))
	if err != nil {
		log.Error("missing or invalid environment variables",
			"hint", "define MQTT_BROKER, MQTT_PORT and MQTT_TOPIC",
		)
		return fmt.Errorf("loading config: %w", err)
	}

	log = logging.New(cfg.Logging, version)

	var session *subscriber.Session
	client := mqtt.New(cfg.MQTT, mqtt.Handlers{
		OnConnect:        func(code byte) { session.HandleConnect(code) },
		OnConnectionLost: func(err error) { session.HandleConnectionLost(err) },
	}, log)
	session = subscriber.New(cfg.MQTT.Topic, client, log)

	log.Info("connecting to broker", "broker", cfg.MQTT.Address())

	err = client.Connect()
	var refused *mqtt.RefusedError
	switch {
	case errors.As(err, &refused):
		// A refusal is reported like the on-connect callback would: logged,
		// without exiting or retrying.
		session.HandleConnect(refused.Code)
	case err != nil:
		log.Error("could not connect to broker",
			"broker", cfg.MQTT.Address(),
			"hint", "check the broker address and the environment variables",
		)
		return fmt.Errorf("connecting to %s: %w", cfg.MQTT.Address(), err)
	}
	defer func() {
		log.Info("disconnecting from broker")
		if closeErr := client.Close(); closeErr != nil {
			log.Error("error closing MQTT", "error", closeErr)
		}
	}()

	log.Info("waiting for messages", "topic", cfg.MQTT.Topic)
	<-ctx.Done()
	log.Info("shutting down")
	return nil
}

// fatal logs err, waits fatalDelay and exits with status 1.
func fatal(log *logging.Logger, err error) {
	log.Error("fatal error", "error", err, "exit_in", fatalDelay)
	time.Sleep(fatalDelay)
	os.Exit(1)
}
