// Package rabbitmq publishes audio work items to a durable RabbitMQ queue as
// an alternative to the audio_generation_queue table.
package rabbitmq
