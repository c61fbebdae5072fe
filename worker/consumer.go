package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/thamerkt/contract-service/config"
	"github.com/thamerkt/contract-service/model"
	"github.com/thamerkt/contract-service/pkg/logger"
	"github.com/thamerkt/contract-service/service"
)

// Consumer drives the contract generation pipeline: it consumes rental
// events from the broker, aggregates party and equipment data, asks the
// synthesizer for a contract document and persists the draft. A message is
// acknowledged only after the draft is stored.
//
// The consumer owns its connection and channel for its whole lifetime and
// processes one message at a time (prefetch 1). It does not reconnect: on an
// unrecoverable connection error the delivery loop ends and the process
// must be restarted.
type Consumer struct {
	cfg         *config.BrokerConfig
	aggregator  *service.ProfileAggregator
	synthesizer *service.GeminiService
	store       *service.ContractStore

	conn    *amqp.Connection
	channel *amqp.Channel
	done    chan struct{}
	log     *slog.Logger
}

func New(cfg *config.BrokerConfig, aggregator *service.ProfileAggregator, synthesizer *service.GeminiService, store *service.ContractStore) *Consumer {
	return &Consumer{
		cfg:         cfg,
		aggregator:  aggregator,
		synthesizer: synthesizer,
		store:       store,
		done:        make(chan struct{}),
		log:         slog.Default().With("component", "consumer", "queue", cfg.Queue),
	}
}

// Start connects to the broker, declares the queue topology and launches
// the delivery loop.
func (c *Consumer) Start(ctx context.Context) error {
	conn, err := amqp.Dial(c.cfg.URL)
	if err != nil {
		return fmt.Errorf("failed to connect to broker: %w", err)
	}
	c.conn = conn

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return fmt.Errorf("failed to open channel: %w", err)
	}
	c.channel = channel

	if err := c.declareTopology(); err != nil {
		c.Stop()
		return err
	}

	if err := channel.Qos(c.cfg.Prefetch, 0, false); err != nil {
		c.Stop()
		return fmt.Errorf("failed to set qos: %w", err)
	}

	deliveries, err := channel.Consume(c.cfg.Queue, "", false, false, false, false, nil)
	if err != nil {
		c.Stop()
		return fmt.Errorf("failed to start consuming: %w", err)
	}

	c.log.Info("consumer started", "prefetch", c.cfg.Prefetch)
	go c.loop(ctx, deliveries)

	return nil
}

// declareTopology declares the work queue with a dead-letter exchange and
// the durable dead-letter queue behind it. Events that fail twice end up in
// <queue>.dlq instead of redelivering forever.
func (c *Consumer) declareTopology() error {
	dlx := c.cfg.Queue + ".dlx"
	dlq := c.cfg.Queue + ".dlq"

	if err := c.channel.ExchangeDeclare(dlx, "direct", true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare dead-letter exchange: %w", err)
	}
	if _, err := c.channel.QueueDeclare(dlq, true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare dead-letter queue: %w", err)
	}
	if err := c.channel.QueueBind(dlq, c.cfg.Queue, dlx, false, nil); err != nil {
		return fmt.Errorf("failed to bind dead-letter queue: %w", err)
	}

	args := amqp.Table{
		"x-dead-letter-exchange":    dlx,
		"x-dead-letter-routing-key": c.cfg.Queue,
	}
	if _, err := c.channel.QueueDeclare(c.cfg.Queue, true, false, false, false, args); err != nil {
		return fmt.Errorf("failed to declare queue: %w", err)
	}

	return nil
}

func (c *Consumer) loop(ctx context.Context, deliveries <-chan amqp.Delivery) {
	defer close(c.done)

	for {
		select {
		case <-ctx.Done():
			c.log.Info("consumer stopping")
			return
		case d, ok := <-deliveries:
			if !ok {
				// Channel or connection is gone. No reconnect: the
				// process has to be restarted.
				c.log.Error("delivery channel closed, consumer terminated")
				return
			}
			c.handle(ctx, d)
		}
	}
}

// handle acknowledges a delivery only after the whole pipeline succeeded.
// A first failure is requeued; a failure of a redelivered message is
// rejected without requeue and dead-lettered.
func (c *Consumer) handle(ctx context.Context, d amqp.Delivery) {
	ctx = context.WithValue(ctx, logger.DeliveryTagKey, d.DeliveryTag)

	if err := c.process(ctx, d); err != nil {
		requeue := !d.Redelivered
		logger.Error(ctx, "failed to process event",
			"error", err,
			"requeue", requeue,
		)
		if nackErr := d.Nack(false, requeue); nackErr != nil {
			logger.Error(ctx, "failed to nack delivery", "error", nackErr)
		}
		return
	}

	if err := d.Ack(false); err != nil {
		logger.Error(ctx, "failed to ack delivery", "error", err)
	}
}

// process runs one event through the pipeline: decode, idempotency check,
// fan-out fetch, synthesis, draft persistence.
func (c *Consumer) process(ctx context.Context, d amqp.Delivery) error {
	var event model.RentalEvent
	if err := json.Unmarshal(d.Body, &event); err != nil {
		return fmt.Errorf("failed to decode event: %w", err)
	}

	eventID := event.EventID
	if eventID == "" {
		eventID = d.MessageId
	}
	ctx = context.WithValue(ctx, logger.EventIDKey, eventID)

	logger.Info(ctx, "received rental event",
		"owner", event.Rental,
		"client", event.Client,
		"equipment", event.Equipment.IDs,
	)

	if eventID != "" {
		if existing := c.store.FindByEventID(eventID); existing != nil {
			logger.Info(ctx, "event already processed, skipping",
				"contract_id", existing.ID,
			)
			return nil
		}
	}

	data := c.aggregator.Aggregate(event.Rental, event.Client, event.Equipment)

	text, err := c.synthesizer.GenerateContract(event.Terms(), data.Owner, data.Client, data.Equipment)
	if err != nil {
		return err
	}

	contract := c.store.CreateDraft(&model.Contract{
		EventID:      eventID,
		OwnerName:    event.Rental,
		ClientName:   event.Client,
		Equipment:    event.Equipment,
		ContractText: text,
		TotalValue:   event.TotalPrice,
		StartDate:    event.StartDate,
		EndDate:      event.EndDate,
		Details:      event.Status,
	})

	logger.Info(ctx, "contract drafted", "contract_id", contract.ID)
	return nil
}

// Stop closes the channel and connection and waits for the delivery loop
// to drain.
func (c *Consumer) Stop() {
	if c.channel != nil {
		c.channel.Close()
	}
	if c.conn != nil {
		c.conn.Close()
	}
}

// Done is closed when the delivery loop has exited.
func (c *Consumer) Done() <-chan struct{} {
	return c.done
}
