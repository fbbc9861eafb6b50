// Command capture records every raw message on the configured topic to a
// capture file (CAPTURE_FILE, default raw_messages.txt) for later replay.
//
// It reads the same configuration as the subscriber.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"mqttjsonsub/internal/capture"
	"mqttjsonsub/internal/config"
	"mqttjsonsub/internal/logging"
	"mqttjsonsub/internal/mqtt"
)

const (
	envCaptureFile     = "CAPTURE_FILE"
	defaultCaptureFile = "raw_messages.txt"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	log := logging.Default()

	if err := config.LoadDotEnv(); err != nil {
		log.Error("loading .env failed", "error", err)
		os.Exit(1)
	}
	cfg, err := config.Load(os.Getenv(config.EnvConfigFile))
	if err != nil {
		log.Error("loading config failed", "error", err)
		os.Exit(1)
	}
	log = logging.New(cfg.Logging, "capture").With("component", "capture")

	path := os.Getenv(envCaptureFile)
	if path == "" {
		path = defaultCaptureFile
	}
	w, err := capture.OpenWriter(path)
	if err != nil {
		log.Error("opening capture file failed", "path", path, "error", err)
		os.Exit(1)
	}
	defer w.Close()

	record := func(topic string, payload []byte) {
		if err := w.Write(capture.Record{Time: time.Now(), Topic: topic, Payload: payload}); err != nil {
			log.Error("saving message failed", "topic", topic, "error", err)
			return
		}
		log.Info("saved message", "topic", topic, "bytes", len(payload))
	}

	var client *mqtt.Client
	client = mqtt.New(cfg.MQTT, mqtt.Handlers{
		OnConnect: func(byte) {
			if err := client.Subscribe(cfg.MQTT.Topic, record); err != nil {
				log.Error("subscribe failed", "topic", cfg.MQTT.Topic, "error", err)
				return
			}
			log.Info("capturing", "topic", cfg.MQTT.Topic, "file", path)
		},
		OnConnectionLost: func(err error) {
			log.Warn("connection lost", "error", err)
		},
	}, log)

	if err := client.Connect(); err != nil {
		log.Error("could not connect to broker", "broker", cfg.MQTT.Address(), "error", err)
		os.Exit(1)
	}
	defer client.Close()

	<-ctx.Done()
	log.Info("stopping capture")
}
