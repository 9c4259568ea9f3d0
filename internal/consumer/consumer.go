package consumer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/zionnet/newsflow/internal/config"
	"github.com/zionnet/newsflow/internal/domain"
	"github.com/zionnet/newsflow/internal/identity"
)

// Action is the acknowledgement decision for one processed message.
type Action int

const (
	// ActionAck commits the message: processed, or a confirmed duplicate.
	ActionAck Action = iota
	// ActionRequeue returns the message to the queue for redelivery
	// (transient failure such as an unavailable identity store).
	ActionRequeue
	// ActionDrop rejects the message without requeueing. With a dead-letter
	// exchange configured on the queue the broker routes it there; either
	// way a poison message never loops forever.
	ActionDrop
)

// Hooks carries the metric callback injected by main; nil becomes a no-op.
type Hooks struct {
	OnMessage func(outcome string)
}

// Consumer is the long-lived signup ingestion loop. It holds one durable
// queue subscription with prefetch 1, so exactly one message is in flight
// per instance and acknowledgements are strictly ordered.
//
// Multiple instances may consume the same queue; idempotency is keyed on the
// account email and holds across instances.
type Consumer struct {
	url         string
	queue       string
	attempts    int
	backoffBase time.Duration
	backoffMax  time.Duration

	repo   identity.UserRepository
	logger *zap.Logger
	hooks  Hooks

	// subscribe establishes one live broker subscription. Swapped in tests.
	subscribe func() (*subscription, error)
}

// subscription is one live delivery stream plus its teardown.
type subscription struct {
	deliveries <-chan amqp.Delivery
	close      func()
}

func New(cfg *config.Config, repo identity.UserRepository, logger *zap.Logger, hooks Hooks) *Consumer {
	if hooks.OnMessage == nil {
		hooks.OnMessage = func(string) {}
	}
	c := &Consumer{
		url:         cfg.AMQPURL,
		queue:       cfg.SignupQueue,
		attempts:    cfg.ConnectAttempts,
		backoffBase: cfg.ConnectBackoffBase,
		backoffMax:  cfg.ConnectBackoffMax,
		repo:        repo,
		logger:      logger,
		hooks:       hooks,
	}
	c.subscribe = c.amqpSubscribe
	return c
}

// Run blocks until ctx is cancelled or the bounded subscription attempts are
// exhausted. Every step of establishing the subscription counts against the
// budget, so a reachable broker that rejects queue declaration exhausts the
// attempts just like an unreachable one. Exhaustion returns an error so the
// process can terminate and be restarted by external supervision.
func (c *Consumer) Run(ctx context.Context) error {
	for attempt := 0; ; attempt++ {
		if ctx.Err() != nil {
			return nil
		}

		sub, err := c.subscribe()
		if err != nil {
			if attempt+1 >= c.attempts {
				return fmt.Errorf("queue subscription attempts exhausted after %d tries: %w", c.attempts, err)
			}
			delay := backoffDelay(attempt, c.backoffBase, c.backoffMax)
			c.logger.Warn("queue subscription failed, backing off",
				zap.Int("attempt", attempt+1),
				zap.Duration("backoff", delay),
				zap.Error(err),
			)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil
			}
			continue
		}

		// Only a live subscription resets the attempt budget.
		attempt = -1
		c.logger.Info("consuming from queue", zap.String("queue", c.queue))

		err = c.receive(ctx, sub.deliveries)
		sub.close()
		if ctx.Err() != nil {
			c.logger.Info("consumer stopping")
			return nil
		}
		if err != nil {
			c.logger.Warn("delivery stream ended, reconnecting", zap.Error(err))
		}
	}
}

// amqpSubscribe dials the broker and sets up the durable manual-ack
// subscription. Any failure tears the connection down and is reported as one
// failed attempt.
func (c *Consumer) amqpSubscribe() (*subscription, error) {
	conn, err := amqp.Dial(c.url)
	if err != nil {
		return nil, fmt.Errorf("dial broker: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	if _, err := ch.QueueDeclare(c.queue, true, false, false, false, nil); err != nil {
		conn.Close()
		return nil, fmt.Errorf("declare queue %q: %w", c.queue, err)
	}

	// Prefetch 1: one unacknowledged message in flight per instance.
	if err := ch.Qos(1, 0, false); err != nil {
		conn.Close()
		return nil, fmt.Errorf("set qos: %w", err)
	}

	deliveries, err := ch.Consume(c.queue, "", false, false, false, false, nil)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("start consuming: %w", err)
	}

	return &subscription{
		deliveries: deliveries,
		close: func() {
			ch.Close()
			conn.Close()
		},
	}, nil
}

func (c *Consumer) receive(ctx context.Context, deliveries <-chan amqp.Delivery) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-deliveries:
			if !ok {
				return fmt.Errorf("delivery channel closed")
			}
			c.acknowledge(d, c.Process(ctx, d.Body))
		}
	}
}

func (c *Consumer) acknowledge(d amqp.Delivery, action Action) {
	var err error
	switch action {
	case ActionAck:
		err = d.Ack(false)
	case ActionRequeue:
		err = d.Nack(false, true)
	case ActionDrop:
		err = d.Nack(false, false)
	}
	if err != nil {
		c.logger.Error("acknowledgement failed", zap.Error(err))
	}
}

// Process decodes one signup payload and applies it idempotently against the
// identity store, returning the acknowledgement decision.
func (c *Consumer) Process(ctx context.Context, body []byte) Action {
	req, err := domain.DecodeAccountRequest(body)
	if err != nil {
		c.logger.Error("dropping malformed signup message", zap.Error(err))
		c.hooks.OnMessage("dropped")
		return ActionDrop
	}

	log := c.logger.With(
		zap.String("username", req.Username),
		zap.String("email", req.Email),
	)

	// Idempotency: a message redelivered after a crash, or the same signup
	// consumed by another instance, must not insert twice.
	if _, err := c.repo.FindByEmail(ctx, req.Email); err == nil {
		log.Warn("signup with existing email, acknowledging without insert")
		c.hooks.OnMessage("duplicate")
		return ActionAck
	} else if !errors.Is(err, domain.ErrNotFound) {
		log.Error("identity store lookup failed, requeueing", zap.Error(err))
		c.hooks.OnMessage("requeued")
		return ActionRequeue
	}

	hash, err := identity.HashPassword(req.Password)
	if err != nil {
		log.Error("password hashing failed, requeueing", zap.Error(err))
		c.hooks.OnMessage("requeued")
		return ActionRequeue
	}

	user := &domain.User{
		ID:             uuid.New().String(),
		Username:       req.Username,
		HashedPassword: hash,
		Email:          req.Email,
		Preferences:    req.Preferences,
		CreatedAt:      time.Now().UTC(),
	}

	if err := c.repo.Insert(ctx, user); err != nil {
		if errors.Is(err, domain.ErrDuplicateEmail) {
			// Lost the insert race to another consumer instance.
			log.Warn("email already registered, acknowledging without insert")
			c.hooks.OnMessage("duplicate")
			return ActionAck
		}
		log.Error("identity store insert failed, requeueing", zap.Error(err))
		c.hooks.OnMessage("requeued")
		return ActionRequeue
	}

	log.Info("user account created")
	c.hooks.OnMessage("committed")
	return ActionAck
}

// backoffDelay doubles the base delay per failed attempt, clamped at max.
func backoffDelay(attempt int, base, max time.Duration) time.Duration {
	delay := base
	for i := 0; i < attempt; i++ {
		delay *= 2
		if delay >= max {
			return max
		}
	}
	if delay > max {
		return max
	}
	return delay
}
