package rabbitmq

import (
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

type Client struct {
	conn    *amqp.Connection
	Channel *amqp.Channel
}

func New(url string) (*Client, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("rabbitmq dial: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("rabbitmq channel: %w", err)
	}

	return &Client{
		conn:    conn,
		Channel: ch,
	}, nil
}

// DeclareQueue создаёт durable-очередь: уведомления переживают рестарт брокера.
func (c *Client) DeclareQueue(name string) error {
	_, err := c.Channel.QueueDeclare(
		name,
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("rabbitmq queue declare: %w", err)
	}

	return nil
}

func (c *Client) Close() error {
	if err := c.Channel.Close(); err != nil {
		return err
	}
	return c.conn.Close()
}
