// Package viewevents publishes viewport changes to Kafka.
package viewevents

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/IBM/sarama"

	"github.com/mohammed-shakir/geomap-sync/internal/core/observability"
)

// Event is one settled viewport of a session. Cell is the H3 cell under the
// centre at resolution Res and doubles as the message key.
type Event struct {
	Session string    `json:"session"`
	Lat     float64   `json:"lat"`
	Lng     float64   `json:"lng"`
	Zoom    int       `json:"zoom"`
	Cell    string    `json:"cell,omitempty"`
	Res     int       `json:"res"`
	Source  string    `json:"source"`
	TS      time.Time `json:"ts"`
}

type Publisher struct {
	topic   string
	events  chan Event
	prod    sarama.AsyncProducer
	logger  *slog.Logger
	stopped chan struct{}

	mu     sync.RWMutex
	closed bool
}

func NewPublisher(brokers []string, topic string, queueSize int, logger *slog.Logger) (*Publisher, error) {
	cfg := sarama.NewConfig()
	cfg.Version = sarama.V2_5_0_0
	cfg.Producer.Return.Errors = true
	cfg.Producer.Return.Successes = false
	cfg.Producer.Partitioner = sarama.NewHashPartitioner

	prod, err := sarama.NewAsyncProducer(brokers, cfg)
	if err != nil {
		return nil, fmt.Errorf("viewevents: create async producer: %w", err)
	}
	return NewPublisherWithProducer(prod, topic, queueSize, logger), nil
}

// NewPublisherWithProducer takes ownership of prod; Close closes it.
func NewPublisherWithProducer(prod sarama.AsyncProducer, topic string, queueSize int, logger *slog.Logger) *Publisher {
	if queueSize <= 0 {
		queueSize = 1024
	}
	if logger == nil {
		logger = slog.Default()
	}
	p := &Publisher{
		topic:   topic,
		events:  make(chan Event, queueSize),
		prod:    prod,
		logger:  logger,
		stopped: make(chan struct{}),
	}

	go func() {
		defer close(p.stopped)
		for ev := range p.events {
			b, err := json.Marshal(ev)
			if err != nil {
				p.logger.Error("viewevents: marshal", "err", err)
				continue
			}
			msg := &sarama.ProducerMessage{
				Topic: p.topic,
				Value: sarama.ByteEncoder(b),
			}
			if ev.Cell != "" {
				msg.Key = sarama.StringEncoder(ev.Cell)
			}
			p.prod.Input() <- msg
		}
	}()

	go func() {
		for err := range p.prod.Errors() {
			if err != nil {
				p.logger.Warn("viewevents: producer error", "err", err)
			}
		}
	}()

	return p
}

// Publish enqueues ev without blocking; when the queue is full or the
// publisher is closed the event is dropped and counted.
func (p *Publisher) Publish(ev Event) {
	if ev.TS.IsZero() {
		ev.TS = time.Now().UTC()
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		observability.IncViewEventDropped()
		return
	}
	select {
	case p.events <- ev:
	default:
		observability.IncViewEventDropped()
	}
}

// Close drains queued events into the producer and closes it.
func (p *Publisher) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	close(p.events)
	p.mu.Unlock()

	<-p.stopped
	if err := p.prod.Close(); err != nil {
		return fmt.Errorf("viewevents: close producer: %w", err)
	}
	return nil
}
