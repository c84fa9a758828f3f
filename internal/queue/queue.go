package queue

import (
	amqp "github.com/rabbitmq/amqp091-go"
)

// Declare creates the durable mail queue if it does not exist yet.
func Declare(ch *amqp.Channel, name string) (amqp.Queue, error) {
	return ch.QueueDeclare(
		name,
		true,  // durable
		false, // keep the queue when no consumer is attached
		false, // shared between api and worker
		false,
		nil,
	)
}
