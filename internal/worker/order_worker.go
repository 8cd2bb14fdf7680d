package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"

	"github.com/nexly/go-shop-api/internal/mailer"
	"github.com/nexly/go-shop-api/internal/model"
	"github.com/nexly/go-shop-api/internal/repository"
)

const (
	orderQueueName = "orders"
	dlxExchange    = "orders.dlx"
	dlqQueueName   = "orders.dlq"
	idempotencyTTL = 24 * time.Hour
)

// OrderWorker consumes order events and sends confirmation emails.
// Redis keys guard against double sends when a message is redelivered.
type OrderWorker struct {
	channel     *amqp.Channel
	orderRepo   repository.OrderRepository
	userRepo    repository.UserRepository
	mail        mailer.Mailer
	redisClient *redis.Client
	log         *slog.Logger
	done        chan struct{}
}

func NewOrderWorker(
	ch *amqp.Channel,
	orderRepo repository.OrderRepository,
	userRepo repository.UserRepository,
	mail mailer.Mailer,
	redisClient *redis.Client,
	log *slog.Logger,
) *OrderWorker {
	return &OrderWorker{
		channel:     ch,
		orderRepo:   orderRepo,
		userRepo:    userRepo,
		mail:        mail,
		redisClient: redisClient,
		log:         log,
		done:        make(chan struct{}),
	}
}

// SetupRabbitMQ declares exchanges, queues, and bindings (DLX/DLQ).
func SetupRabbitMQ(ch *amqp.Channel) error {
	if err := ch.ExchangeDeclare(dlxExchange, "direct", true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare DLX: %w", err)
	}
	if _, err := ch.QueueDeclare(dlqQueueName, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare DLQ: %w", err)
	}
	if err := ch.QueueBind(dlqQueueName, orderQueueName, dlxExchange, false, nil); err != nil {
		return fmt.Errorf("bind DLQ: %w", err)
	}
	if _, err := ch.QueueDeclare(orderQueueName, true, false, false, false, amqp.Table{
		"x-dead-letter-exchange":    dlxExchange,
		"x-dead-letter-routing-key": orderQueueName,
	}); err != nil {
		return fmt.Errorf("declare order queue: %w", err)
	}
	if err := ch.Qos(1, 0, false); err != nil {
		return fmt.Errorf("set QoS: %w", err)
	}
	return nil
}

func (w *OrderWorker) Start(ctx context.Context) error {
	msgs, err := w.channel.Consume(orderQueueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("start consuming: %w", err)
	}

	go func() {
		for {
			select {
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				w.processMessage(ctx, msg)
			case <-w.done:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	w.log.Info("order worker started")
	return nil
}

func (w *OrderWorker) Stop() { close(w.done) }

func (w *OrderWorker) processMessage(ctx context.Context, msg amqp.Delivery) {
	var event model.OrderEvent
	if err := json.Unmarshal(msg.Body, &event); err != nil {
		w.log.Error("unmarshal order event", "error", err)
		_ = msg.Nack(false, false)
		return
	}

	log := w.log.With("order_id", event.OrderID.Hex(), "user_id", event.UserID.Hex())

	idempotencyKey := "order_mailed:" + event.OrderID.Hex()
	exists, err := w.redisClient.Exists(ctx, idempotencyKey).Result()
	if err != nil {
		log.Error("check idempotency key", "error", err)
		_ = msg.Nack(false, true)
		return
	}
	if exists > 0 {
		log.Info("order confirmation already sent, skipping")
		_ = msg.Ack(false)
		return
	}

	if err := w.sendConfirmation(ctx, event); err != nil {
		log.Error("send order confirmation failed", "error", err)
		_ = msg.Nack(false, false) // to DLQ
		return
	}

	if err := w.redisClient.Set(ctx, idempotencyKey, "1", idempotencyTTL).Err(); err != nil {
		log.Error("set idempotency key", "error", err)
	}

	_ = msg.Ack(false)
	log.Info("order confirmation sent")
}

func (w *OrderWorker) sendConfirmation(ctx context.Context, event model.OrderEvent) error {
	order, err := w.orderRepo.GetByID(ctx, event.OrderID)
	if err != nil {
		return fmt.Errorf("get order: %w", err)
	}
	if order == nil {
		return fmt.Errorf("order not found: %s", event.OrderID.Hex())
	}

	user, err := w.userRepo.GetByID(ctx, event.UserID)
	if err != nil {
		return fmt.Errorf("get user: %w", err)
	}
	if user == nil {
		return fmt.Errorf("user not found: %s", event.UserID.Hex())
	}

	subject := fmt.Sprintf("Order confirmation #%s", order.ID.Hex())
	if err := w.mail.Send(user.Email, subject, mailer.OrderConfirmationHTML(order)); err != nil {
		return fmt.Errorf("send mail: %w", err)
	}
	return nil
}
