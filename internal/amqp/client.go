// Package amqp publishes admin events to RabbitMQ. Downstream consumers are
// the notification layer (out of scope here) and the reconciler worker, which
// uses employee-removed events to verify cascades left no orphans behind.
package amqp

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/rabbitmq/amqp091-go"
)

const publishTimeout = 5 * time.Second

// Routing keys double as queue names on the direct exchange.
const (
	RouteStatusChanged   = "expense_status_changed"
	RouteEmployeeRemoved = "employee_removed"
)

type Client struct {
	conn         *amqp091.Connection
	channel      *amqp091.Channel
	exchangeName string
}

func NewClient(url, exchangeName string) (*Client, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial AMQP: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	client := &Client{
		conn:         conn,
		channel:      channel,
		exchangeName: exchangeName,
	}

	if err := client.setup(); err != nil {
		client.Close()
		return nil, fmt.Errorf("setup exchange and queues: %w", err)
	}

	return client, nil
}

func (c *Client) setup() error {
	err := c.channel.ExchangeDeclare(
		c.exchangeName, // name
		"direct",       // type
		true,           // durable
		false,          // auto-deleted
		false,          // internal
		false,          // no-wait
		nil,            // arguments
	)
	if err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}

	for _, route := range []string{RouteStatusChanged, RouteEmployeeRemoved} {
		if _, err := c.channel.QueueDeclare(route, true, false, false, false, nil); err != nil {
			return fmt.Errorf("declare queue %s: %w", route, err)
		}
		if err := c.channel.QueueBind(route, route, c.exchangeName, false, nil); err != nil {
			return fmt.Errorf("bind queue %s: %w", route, err)
		}
	}

	return nil
}

// PublishStatusChanged publishes an approval decision event.
func (c *Client) PublishStatusChanged(ctx context.Context, expenseID int64, status string) error {
	msg := NewStatusChangedMessage(expenseID, status)
	if err := c.publish(ctx, RouteStatusChanged, msg); err != nil {
		return err
	}

	slog.InfoContext(ctx, "Published status changed event",
		"event_id", msg.EventID,
		"expense_id", expenseID,
		"status", status)
	return nil
}

// PublishEmployeeRemoved publishes a cascade-deletion event. partial marks
// cascades that removed the employee but left expenses behind; the reconciler
// treats those with priority.
func (c *Client) PublishEmployeeRemoved(ctx context.Context, employeeID, expensesDeleted int64, partial bool) error {
	msg := NewEmployeeRemovedMessage(employeeID, expensesDeleted, partial)
	if err := c.publish(ctx, RouteEmployeeRemoved, msg); err != nil {
		return err
	}

	slog.InfoContext(ctx, "Published employee removed event",
		"event_id", msg.EventID,
		"employee_id", employeeID,
		"expenses_deleted", expensesDeleted,
		"partial", partial)
	return nil
}

type jsonMessage interface {
	ToJSON() ([]byte, error)
}

func (c *Client) publish(ctx context.Context, route string, msg jsonMessage) error {
	body, err := msg.ToJSON()
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	err = c.channel.PublishWithContext(
		ctx,
		c.exchangeName, // exchange
		route,          // routing key
		false,          // mandatory
		false,          // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("publish message: %w", err)
	}
	return nil
}

// ConsumeEmployeeRemoved delivers employee-removed events to handler until ctx
// is cancelled. Handler errors requeue the delivery; malformed payloads are
// dropped.
func (c *Client) ConsumeEmployeeRemoved(ctx context.Context, handler func(*EmployeeRemovedMessage) error) error {
	msgs, err := c.channel.Consume(
		RouteEmployeeRemoved, // queue
		"",                   // consumer
		false,                // auto-ack (we want manual ack)
		false,                // exclusive
		false,                // no-local
		false,                // no-wait
		nil,                  // args
	)
	if err != nil {
		return fmt.Errorf("start consuming: %w", err)
	}

	slog.InfoContext(ctx, "Started consuming employee removed events", "queue", RouteEmployeeRemoved)

	for {
		select {
		case <-ctx.Done():
			slog.InfoContext(ctx, "Stopping event consumption", "reason", ctx.Err())
			return ctx.Err()
		case delivery, ok := <-msgs:
			if !ok {
				return fmt.Errorf("message channel closed")
			}

			msg, err := EmployeeRemovedMessageFromJSON(delivery.Body)
			if err != nil {
				slog.ErrorContext(ctx, "Failed to unmarshal event", "error", err)
				delivery.Nack(false, false) // reject and don't requeue
				continue
			}

			if err := handler(msg); err != nil {
				slog.ErrorContext(ctx, "Failed to handle event",
					"error", err,
					"event_id", msg.EventID,
					"employee_id", msg.EmployeeID)
				delivery.Nack(false, true) // reject and requeue
				continue
			}

			delivery.Ack(false)
		}
	}
}

func (c *Client) Close() error {
	if c.channel != nil {
		c.channel.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}
