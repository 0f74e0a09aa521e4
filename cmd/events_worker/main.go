package main

import (
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-user-directory/config"
	"github.com/oksasatya/go-user-directory/pkg/events"
	"github.com/oksasatya/go-user-directory/pkg/helpers"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	logger := helpers.NewLogger(cfg.AppName+"-events", cfg.Env, cfg.LogLevel)

	if !cfg.EventsEnabled {
		logger.Info("EVENTS_ENABLED=false; events worker disabled")
		return
	}
	if cfg.RabbitMQURL == "" || cfg.RabbitMQUserEventQueue == "" {
		log.Fatal("RabbitMQ not configured")
	}

	conn, err := amqp.Dial(cfg.RabbitMQURL)
	if err != nil {
		log.Fatalf("amqp dial: %v", err)
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		log.Fatalf("amqp channel: %v", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(16, 0, false); err != nil {
		log.Fatalf("qos: %v", err)
	}
	if err := helpers.DeclareQueue(ch, cfg.RabbitMQUserEventQueue); err != nil {
		log.Fatalf("queue declare: %v", err)
	}

	msgs, err := ch.Consume(cfg.RabbitMQUserEventQueue, "", false, false, false, false, nil)
	if err != nil {
		log.Fatalf("consume: %v", err)
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	done := make(chan struct{})

	go func() {
		for msg := range msgs {
			handle(logger, msg)
		}
		close(done)
	}()

	logger.WithField("queue", cfg.RabbitMQUserEventQueue).Info("events worker listening")
	if err := waitForExit(logger, stop, done, func() { _ = ch.Close() }, 2*time.Second); err != nil {
		helpers.LogError(logger, "events worker stopped", err, logrus.Fields{"queue": cfg.RabbitMQUserEventQueue})
		_ = ch.Close()
		_ = conn.Close()
		os.Exit(1)
	}
}

// errDeliveriesClosed means the broker side went away while no shutdown was requested.
var errDeliveriesClosed = errors.New("delivery channel closed by broker")

// waitForExit blocks until a signal arrives or the consumer loop ends on its own.
// On a signal it calls stopConsuming and gives the loop drain to finish.
func waitForExit(logger *logrus.Logger, stop <-chan os.Signal, done <-chan struct{}, stopConsuming func(), drain time.Duration) error {
	select {
	case <-done:
		return errDeliveriesClosed
	case <-stop:
	}
	logger.Info("shutting down...")
	stopConsuming()
	select {
	case <-done:
	case <-time.After(drain):
	}
	return nil
}

// handle logs one user event. Malformed payloads are dropped, never requeued.
func handle(logger *logrus.Logger, msg amqp.Delivery) {
	ev, err := events.Decode(msg.Body)
	if err != nil {
		helpers.LogError(logger, "bad user event", err, logrus.Fields{"message_type": msg.Type})
		_ = msg.Nack(false, false)
		return
	}
	logger.WithFields(logrus.Fields{
		"event":       ev.Type,
		"user_id":     ev.UserID,
		"email":       ev.Email,
		"occurred_at": ev.OccurredAt,
	}).Info("user event")
	_ = msg.Ack(false)
}
