package viewevents

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/IBM/sarama"

	obs "github.com/mohammed-shakir/geomap-sync/internal/core/observability"
)

type ConsumerConfig struct {
	Brokers             []string
	Topic               string
	GroupID             string
	SessionTimeout      time.Duration
	Heartbeat           time.Duration
	RebalanceTimeout    time.Duration
	InitialOffsetOldest bool
}

// HandlerFunc receives each decoded event. An error leaves the message
// uncommitted so it is redelivered.
type HandlerFunc func(ctx context.Context, ev Event) error

type Consumer struct {
	cfg    ConsumerConfig
	logger *slog.Logger
	handle HandlerFunc
}

func NewConsumer(cfg ConsumerConfig, logger *slog.Logger, handle HandlerFunc) *Consumer {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.SessionTimeout <= 0 {
		cfg.SessionTimeout = 30 * time.Second
	}
	if cfg.Heartbeat <= 0 {
		cfg.Heartbeat = 3 * time.Second
	}
	if cfg.RebalanceTimeout <= 0 {
		cfg.RebalanceTimeout = 30 * time.Second
	}
	return &Consumer{cfg: cfg, logger: logger, handle: handle}
}

// Start consumes the topic until ctx is done.
func (c *Consumer) Start(ctx context.Context) error {
	if c.handle == nil {
		return errors.New("viewevents: consumer needs a handler")
	}

	cfg := sarama.NewConfig()
	cfg.Version = sarama.V2_5_0_0
	cfg.Consumer.Group.Session.Timeout = c.cfg.SessionTimeout
	cfg.Consumer.Group.Heartbeat.Interval = c.cfg.Heartbeat
	cfg.Consumer.Group.Rebalance.Timeout = c.cfg.RebalanceTimeout
	if c.cfg.InitialOffsetOldest {
		cfg.Consumer.Offsets.Initial = sarama.OffsetOldest
	} else {
		cfg.Consumer.Offsets.Initial = sarama.OffsetNewest
	}
	cfg.Consumer.Offsets.AutoCommit.Enable = true

	group, err := sarama.NewConsumerGroup(c.cfg.Brokers, c.cfg.GroupID, cfg)
	if err != nil {
		return fmt.Errorf("viewevents: create consumer group: %w", err)
	}
	defer func() { _ = group.Close() }()

	c.logger.Info("view events consumer starting",
		"brokers", c.cfg.Brokers, "topic", c.cfg.Topic, "group", c.cfg.GroupID)

	handler := &groupHandler{process: c.ProcessOne}
	for {
		if err := group.Consume(ctx, []string{c.cfg.Topic}, handler); err != nil {
			c.logger.Error("view events consumer error", "topic", c.cfg.Topic, "err", err)
			select {
			case <-ctx.Done():
			case <-time.After(2 * time.Second):
			}
		}
		if ctx.Err() != nil {
			c.logger.Info("view events consumer shutting down")
			return nil
		}
	}
}

// ProcessOne decodes msg and hands it to the handler. Undecodable messages
// are logged and skipped.
func (c *Consumer) ProcessOne(ctx context.Context, msg *sarama.ConsumerMessage) error {
	var ev Event
	if err := json.Unmarshal(msg.Value, &ev); err != nil {
		obs.IncViewEventConsumed("decode_error")
		c.logger.WarnContext(ctx, "skipping undecodable view event",
			"topic", msg.Topic, "partition", msg.Partition, "offset", msg.Offset, "err", err)
		return nil
	}
	if err := c.handle(ctx, ev); err != nil {
		obs.IncViewEventConsumed("handler_error")
		return fmt.Errorf("handle view event: %w", err)
	}
	obs.IncViewEventConsumed("ok")
	return nil
}

type messageProcessor func(ctx context.Context, msg *sarama.ConsumerMessage) error

type groupHandler struct {
	process messageProcessor
}

func (h *groupHandler) Setup(sarama.ConsumerGroupSession) error   { return nil }
func (h *groupHandler) Cleanup(sarama.ConsumerGroupSession) error { return nil }

// ConsumeClaim marks each message only after it was processed.
func (h *groupHandler) ConsumeClaim(sess sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	ctx := sess.Context()
	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("claim context done: %w", ctx.Err())
		case msg, ok := <-claim.Messages():
			if !ok {
				return nil
			}
			if err := h.process(ctx, msg); err != nil {
				return fmt.Errorf("process failed (topic=%s, part=%d, off=%d): %w",
					msg.Topic, msg.Partition, msg.Offset, err)
			}
			sess.MarkMessage(msg, "")
		}
	}
}
