package queue

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
)

const auditLogFile = "entregas.log"

// StartConsumer connects to the broker, declares both delivery queues
// and appends every event to logs/entregas.log as a single human-readable
// line. It runs a reconnect loop with exponential backoff and never
// returns under normal operation; processing errors are logged and the
// offending message rejected so the server keeps running.
func StartConsumer(url string, log *logrus.Logger) {
	backoff := time.Second
	for {
		conn, err := amqp.Dial(url)
		if err != nil {
			log.WithError(err).Warnf("audit consumer: dial failed; retrying in %s", backoff)
			time.Sleep(backoff)
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		if err := consumeLoop(conn, log); err != nil {
			log.WithError(err).Warn("audit consumer: loop ended; reconnecting")
			time.Sleep(2 * time.Second)
		}
	}
}

func consumeLoop(conn *amqp.Connection, log *logrus.Logger) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		log.WithError(err).Warn("audit consumer: set QoS failed")
	}

	for _, name := range []string{RegisteredQueue, PickedUpQueue} {
		if _, err := ch.QueueDeclare(name, true, false, false, false, nil); err != nil {
			return fmt.Errorf("queue declare %s: %w", name, err)
		}
	}

	registered, err := ch.Consume(RegisteredQueue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume %s: %w", RegisteredQueue, err)
	}
	pickedUp, err := ch.Consume(PickedUpQueue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume %s: %w", PickedUpQueue, err)
	}

	for {
		select {
		case d, ok := <-registered:
			if !ok {
				return errors.New("registered channel closed")
			}
			ackOrReject(d, handleRegistered(d.Body), log)
		case d, ok := <-pickedUp:
			if !ok {
				return errors.New("pickedup channel closed")
			}
			ackOrReject(d, handlePickedUp(d.Body), log)
		}
	}
}

func ackOrReject(d amqp.Delivery, err error, log *logrus.Logger) {
	if err != nil {
		log.WithError(err).Warn("audit consumer: handle message failed")
		// Reject without requeue to avoid tight redelivery loops.
		_ = d.Nack(false, false)
		return
	}
	_ = d.Ack(false)
}

func handleRegistered(body []byte) error {
	var ev DeliveryRegisteredEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	line := fmt.Sprintf("[%s] Delivery registered | id=%s | code=%s | resident=%q | building=%q\n",
		ev.ReceivedAt, ev.DeliveryID, ev.Code, ev.ResidentName, ev.BuildingName)
	return appendAuditLine(line)
}

func handlePickedUp(body []byte) error {
	var ev DeliveryPickedUpEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	line := fmt.Sprintf("[%s] Delivery picked up | id=%s | code=%s | resident=%q | building=%q | by=%q\n",
		ev.PickedUpAt, ev.DeliveryID, ev.Code, ev.ResidentName, ev.BuildingName, ev.PickedUpBy)
	return appendAuditLine(line)
}

func appendAuditLine(line string) error {
	if err := os.MkdirAll("logs", 0o755); err != nil {
		return fmt.Errorf("mkdir logs: %w", err)
	}
	f, err := os.OpenFile(filepath.Join("logs", auditLogFile), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open audit log: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(line); err != nil {
		return fmt.Errorf("write audit log: %w", err)
	}
	return nil
}
