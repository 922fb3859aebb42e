package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"jobscout/internal/config"
	"jobscout/internal/errors"

	"github.com/google/uuid"
	"github.com/streadway/amqp"
)

// Event types
const (
	TypeAnalysisCompleted = "analysis.completed"
	TypeJobsSearched      = "jobs.searched"
)

// Event is the envelope published for every domain event.
type Event struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	OccurredAt time.Time `json:"occurredAt"`
	Payload    any       `json:"payload"`
}

// AnalysisCompleted is published after a resume analysis.
type AnalysisCompleted struct {
	Path        string `json:"path"`
	Provider    string `json:"provider,omitempty"`
	TextLength  int    `json:"textLength"`
	ProviderErr string `json:"providerError,omitempty"`
}

// JobsSearched is published after a job search.
type JobsSearched struct {
	Terms         []string `json:"terms"`
	RowLimit      int      `json:"rowLimit"`
	Returned      int      `json:"returned"`
	FailedSources []string `json:"failedSources,omitempty"`
}

// New wraps payload in an envelope with a fresh id.
func New(eventType string, payload any) Event {
	return Event{
		ID:         uuid.NewString(),
		Type:       eventType,
		OccurredAt: time.Now().UTC(),
		Payload:    payload,
	}
}

// Publisher delivers domain events. Publishing is best effort: callers log
// failures and carry on.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// NewPublisher returns an AMQP publisher when events are enabled, otherwise a no-op.
func NewPublisher(cfg config.EventsConfig, logger *errors.Logger) (Publisher, error) {
	if !cfg.Enabled {
		return Nop{}, nil
	}
	p, err := DialAMQP(cfg, logger)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Nop discards events.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
func (Nop) Close() error                         { return nil }

type amqpChannel interface {
	Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// AMQPPublisher publishes JSON events to a topic exchange. Routing keys are
// "<prefix>.<event type>".
type AMQPPublisher struct {
	mu       sync.Mutex
	conn     *amqp.Connection
	ch       amqpChannel
	exchange string
	prefix   string
	logger   *errors.Logger
}

// DialAMQP connects to the broker and declares the exchange.
func DialAMQP(cfg config.EventsConfig, logger *errors.Logger) (*AMQPPublisher, error) {
	if logger == nil {
		logger = errors.Nop()
	}

	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig, "failed to connect to event broker", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig, "failed to open broker channel", err)
	}
	if err := ch.ExchangeDeclare(cfg.Exchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig,
			fmt.Sprintf("failed to declare exchange %q", cfg.Exchange), err)
	}

	logger.Info("Event publisher connected", "exchange", cfg.Exchange)
	p := newAMQPPublisher(ch, cfg.Exchange, cfg.RoutingKey, logger)
	p.conn = conn
	return p, nil
}

func newAMQPPublisher(ch amqpChannel, exchange, prefix string, logger *errors.Logger) *AMQPPublisher {
	if logger == nil {
		logger = errors.Nop()
	}
	return &AMQPPublisher{ch: ch, exchange: exchange, prefix: prefix, logger: logger}
}

// RoutingKey returns the key an event of eventType is published under.
func (p *AMQPPublisher) RoutingKey(eventType string) string {
	if p.prefix == "" {
		return eventType
	}
	return p.prefix + "." + eventType
}

func (p *AMQPPublisher) Publish(ctx context.Context, event Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	body, err := json.Marshal(event)
	if err != nil {
		return errors.NewInternalError(errors.ErrCodeEventPublish, "failed to encode event", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	err = p.ch.Publish(p.exchange, p.RoutingKey(event.Type), false, false, amqp.Publishing{
		ContentType:  "application/json",
		MessageId:    event.ID,
		Timestamp:    event.OccurredAt,
		Type:         event.Type,
		DeliveryMode: amqp.Persistent,
		Body:         body,
	})
	if err != nil {
		return errors.NewIOError(errors.ErrCodeEventPublish, "failed to publish event", err).
			WithContext("event_type", event.Type)
	}
	p.logger.Debug("Event published", "event_id", event.ID, "event_type", event.Type)
	return nil
}

func (p *AMQPPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var firstErr error
	if p.ch != nil {
		firstErr = p.ch.Close()
	}
	if p.conn != nil {
		if err := p.conn.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
