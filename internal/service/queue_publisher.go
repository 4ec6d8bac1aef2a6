// This file provides the RabbitMQ implementation of NotificationPublisher.
// Errors are logged and returned to allow callers to ignore failures
// without interrupting the main request flow: by the time anything is
// published here, the booking has already committed.
package service

import (
	"context"
	"encoding/json"
	"log"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/iliyamo/bus-seat-reservation/internal/queue"
)

// AMQPPublisher publishes notification jobs to the booking.notify queue.
// It dials per publish, which keeps it robust against broker restarts at
// the cost of connection setup on a path that is already asynchronous
// from the client's point of view.
type AMQPPublisher struct{}

// PublishBookingNotify publishes a BookingNotifyEvent to the
// booking.notify queue.  The function attempts to be robust and to never
// panic; any error is logged and returned so the caller can choose to
// ignore it.  Messages are marked as persistent.
func (AMQPPublisher) PublishBookingNotify(ctx context.Context, event queue.BookingNotifyEvent) error {
	conn, err := amqp.Dial(queue.BrokerURL())
	if err != nil {
		log.Printf("rabbitmq: dial failed: %v", err)
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		log.Printf("rabbitmq: channel open failed: %v", err)
		return err
	}
	defer func() { _ = ch.Close() }()

	// Ensure the queue exists (idempotent). Durable so messages survive broker restarts.
	if _, err := ch.QueueDeclare(
		queue.NotifyQueueName, // name
		true,                  // durable
		false,                 // autoDelete
		false,                 // exclusive
		false,                 // noWait
		nil,                   // args
	); err != nil {
		log.Printf("rabbitmq: queue declare failed: %v", err)
		return err
	}

	body, err := json.Marshal(event)
	if err != nil {
		log.Printf("rabbitmq: marshal event failed: %v", err)
		return err
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent, // store on disk
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}

	if err := ch.PublishWithContext(ctx,
		"",                    // default exchange
		queue.NotifyQueueName, // routing key = queue name
		false,                 // mandatory
		false,                 // immediate
		pub,
	); err != nil {
		log.Printf("rabbitmq: publish failed: %v", err)
		return err
	}

	return nil
}
