package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"go.uber.org/zap"
)

// Publisher is what services depend on to emit domain events.
type Publisher interface {
	Publish(ctx context.Context, topic string, payload any) error
}

// HandlerFunc consumes one decoded-on-demand message. Returning an error
// nacks the message and lets the retry middleware redeliver it.
type HandlerFunc func(ctx context.Context, msg *message.Message) error

type Config struct {
	BufferSize           int64
	CloseTimeout         time.Duration
	RetryMaxRetries      int
	RetryInitialInterval time.Duration
	RetryMaxInterval     time.Duration
}

func DefaultConfig() Config {
	return Config{
		BufferSize:           256,
		CloseTimeout:         10 * time.Second,
		RetryMaxRetries:      3,
		RetryInitialInterval: 200 * time.Millisecond,
		RetryMaxInterval:     5 * time.Second,
	}
}

// Bus is an in-process pub/sub with a consumer router on top.
type Bus struct {
	pubsub *gochannel.GoChannel
	router *message.Router
	logger watermill.LoggerAdapter
	log    *zap.SugaredLogger
}

func NewBus(cfg Config, log *zap.SugaredLogger) (*Bus, error) {
	logger := NewLoggerAdapter(log)

	pubsub := gochannel.NewGoChannel(gochannel.Config{
		OutputChannelBuffer: cfg.BufferSize,
	}, logger)

	router, err := message.NewRouter(message.RouterConfig{CloseTimeout: cfg.CloseTimeout}, logger)
	if err != nil {
		return nil, fmt.Errorf("create watermill router: %w", err)
	}

	retry := middleware.Retry{
		MaxRetries:      cfg.RetryMaxRetries,
		InitialInterval: cfg.RetryInitialInterval,
		MaxInterval:     cfg.RetryMaxInterval,
		Multiplier:      2.0,
		Logger:          logger,
	}
	// outermost first: drop after retries, retry, then turn panics into errors
	router.AddMiddleware(dropExhausted(logger), retry.Middleware, middleware.Recoverer)

	return &Bus{pubsub: pubsub, router: router, logger: logger, log: log}, nil
}

// Publish JSON-encodes payload and publishes it on topic.
func (b *Bus) Publish(ctx context.Context, topic string, payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode %s payload: %w", topic, err)
	}
	msg := message.NewMessage(watermill.NewUUID(), raw)
	msg.Metadata.Set("published_at", time.Now().UTC().Format(time.RFC3339Nano))
	msg.SetContext(context.WithoutCancel(ctx))
	if err := b.pubsub.Publish(topic, msg); err != nil {
		return fmt.Errorf("publish %s: %w", topic, err)
	}
	return nil
}

// AddConsumer registers a named handler for topic. Must be called before Run.
func (b *Bus) AddConsumer(name, topic string, h HandlerFunc) {
	b.router.AddConsumerHandler(name, topic, b.pubsub, func(msg *message.Message) error {
		return h(msg.Context(), msg)
	})
}

// Run blocks until ctx is cancelled or the router is closed.
func (b *Bus) Run(ctx context.Context) error {
	return b.router.Run(ctx)
}

// Running is closed once every consumer is subscribed.
func (b *Bus) Running() <-chan struct{} {
	return b.router.Running()
}

func (b *Bus) Close() error {
	if err := b.router.Close(); err != nil {
		b.log.Warnw("close event router", "error", err)
	}
	return b.pubsub.Close()
}

// dropExhausted acks a message whose handler still fails after retries.
// gochannel redelivers nacked messages immediately and forever; anything
// dropped here is picked up again by the reconciler.
func dropExhausted(logger watermill.LoggerAdapter) message.HandlerMiddleware {
	return func(h message.HandlerFunc) message.HandlerFunc {
		return func(msg *message.Message) ([]*message.Message, error) {
			msgs, err := h(msg)
			if err != nil {
				logger.Error("Dropping message after retries", err, watermill.LogFields{
					"message_uuid": msg.UUID,
				})
				return nil, nil
			}
			return msgs, nil
		}
	}
}

// Decode unmarshals a message payload.
func Decode(msg *message.Message, v any) error {
	if err := json.Unmarshal(msg.Payload, v); err != nil {
		return fmt.Errorf("decode message %s: %w", msg.UUID, err)
	}
	return nil
}
