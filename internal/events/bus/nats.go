package bus

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/kandev/kanboard/internal/common/config"
	"github.com/kandev/kanboard/internal/common/logger"
)

// Message headers set on every published event. Consumers that do not
// decode the JSON body can route on them.
const (
	HeaderEventID   = "Kanboard-Event-Id"
	HeaderEventType = "Kanboard-Event-Type"
	HeaderSource    = "Kanboard-Source"
	HeaderRequestID = "X-Request-ID"
)

// NATSEventBus implements EventBus on a NATS connection.
type NATSEventBus struct {
	conn   *nats.Conn
	logger *logger.Logger
}

// NewNATSEventBus connects to cfg.URL. The connection reconnects up to
// cfg.MaxReconnects times.
func NewNATSEventBus(cfg config.NATSConfig, log *logger.Logger) (*NATSEventBus, error) {
	log = log.WithFields(zap.String("component", "nats-bus"))

	conn, err := nats.Connect(cfg.URL, connectOptions(cfg, log)...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	log.Info("Connected to NATS", zap.String("url", conn.ConnectedUrl()))
	return &NATSEventBus{conn: conn, logger: log}, nil
}

func connectOptions(cfg config.NATSConfig, log *logger.Logger) []nats.Option {
	return []nats.Option{
		nats.Name(cfg.ClientID),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			log.Warn("NATS disconnected", zap.Error(err))
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info("NATS reconnected", zap.String("url", nc.ConnectedUrl()))
		}),
		nats.ClosedHandler(func(nc *nats.Conn) {
			log.Info("NATS connection closed", zap.Error(nc.LastError()))
		}),
	}
}

// Publish sends event as JSON with its id, type and source in the message
// headers. The request id of ctx, if any, travels along.
func (b *NATSEventBus) Publish(ctx context.Context, subject string, event *Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := nats.NewMsg(subject)
	msg.Data = data
	msg.Header.Set(HeaderEventID, event.ID)
	msg.Header.Set(HeaderEventType, event.Type)
	msg.Header.Set(HeaderSource, event.Source)
	if requestID, ok := ctx.Value(logger.RequestIDKey).(string); ok && requestID != "" {
		msg.Header.Set(HeaderRequestID, requestID)
	}

	if err := b.conn.PublishMsg(msg); err != nil {
		b.logger.Error("Failed to publish event",
			zap.String("subject", subject),
			zap.String("event_type", event.Type),
			zap.Error(err))
		return fmt.Errorf("failed to publish event: %w", err)
	}

	b.logger.Debug("Published event",
		zap.String("subject", subject),
		zap.String("event_id", event.ID),
		zap.String("event_type", event.Type))
	return nil
}

// Subscribe decodes every message on subject into an Event and passes it to
// handler with the publisher's request id in the context.
func (b *NATSEventBus) Subscribe(subject string, handler EventHandler) (Subscription, error) {
	sub, err := b.conn.Subscribe(subject, func(msg *nats.Msg) {
		var event Event
		if err := json.Unmarshal(msg.Data, &event); err != nil {
			b.logger.Error("Failed to unmarshal event",
				zap.String("subject", msg.Subject),
				zap.Error(err))
			return
		}
		if err := handler(messageContext(msg), &event); err != nil {
			b.logger.Error("Event handler failed",
				zap.String("subject", msg.Subject),
				zap.String("event_id", event.ID),
				zap.String("event_type", event.Type),
				zap.Error(err))
		}
	})
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe to %s: %w", subject, err)
	}

	b.logger.Debug("Subscribed to subject", zap.String("subject", subject))
	return natsSubscription{sub}, nil
}

func messageContext(msg *nats.Msg) context.Context {
	ctx := context.Background()
	if msg.Header == nil {
		return ctx
	}
	if requestID := msg.Header.Get(HeaderRequestID); requestID != "" {
		ctx = context.WithValue(ctx, logger.RequestIDKey, requestID)
	}
	return ctx
}

// Close drains pending messages and closes the connection.
func (b *NATSEventBus) Close() {
	if b.conn == nil {
		return
	}
	if err := b.conn.Drain(); err != nil {
		b.logger.Warn("Error draining NATS connection", zap.Error(err))
		b.conn.Close()
	}
}

// IsConnected returns whether the NATS connection is active
func (b *NATSEventBus) IsConnected() bool {
	return b.conn != nil && b.conn.IsConnected()
}

type natsSubscription struct {
	sub *nats.Subscription
}

func (s natsSubscription) Unsubscribe() error {
	return s.sub.Unsubscribe()
}

func (s natsSubscription) IsValid() bool {
	return s.sub.IsValid()
}
