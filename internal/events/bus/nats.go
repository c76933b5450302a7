package bus

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"go.opentelemetry.io/otel/propagation"
	"go.uber.org/zap"

	"github.com/kandev/dbchat/internal/common/config"
	"github.com/kandev/dbchat/internal/common/logger"
)

// HeaderEventType carries the event type so bridges can filter without
// decoding the body.
const HeaderEventType = "Dbchat-Event-Type"

const natsReconnectWait = 2 * time.Second

// NATSEventBus implements EventBus on a NATS connection. It lets bridges in
// other processes, such as a chat platform bot, feed the chat service and
// receive its replies.
type NATSEventBus struct {
	conn       *nats.Conn
	logger     *logger.Logger
	propagator propagation.TextMapPropagator
}

// NewNATSEventBus connects to cfg.URL, reconnecting up to cfg.MaxReconnects
// times.
func NewNATSEventBus(cfg config.NATSConfig, log *logger.Logger) (*NATSEventBus, error) {
	log = log.Component("nats-bus")

	conn, err := nats.Connect(cfg.URL, connectionOptions(cfg, log)...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS at %s: %w", cfg.URL, err)
	}
	log.Info("Connected to NATS", zap.String("url", conn.ConnectedUrl()))

	return &NATSEventBus{
		conn:       conn,
		logger:     log,
		propagator: propagation.TraceContext{},
	}, nil
}

func connectionOptions(cfg config.NATSConfig, log *logger.Logger) []nats.Option {
	return []nats.Option{
		nats.Name(cfg.ClientID),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(natsReconnectWait),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			log.Warn("NATS disconnected", zap.Error(err))
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info("NATS reconnected", zap.String("url", nc.ConnectedUrl()))
		}),
		nats.ClosedHandler(func(nc *nats.Conn) {
			log.Info("NATS connection closed", zap.NamedError("last_error", nc.LastError()))
		}),
		nats.ErrorHandler(func(_ *nats.Conn, sub *nats.Subscription, err error) {
			fields := []zap.Field{zap.Error(err)}
			if sub != nil {
				fields = append(fields, zap.String("subject", sub.Subject))
			}
			log.Error("NATS async error", fields...)
		}),
	}
}

// Publish sends event on subject with the caller's trace context in the
// message headers.
func (b *NATSEventBus) Publish(ctx context.Context, subject string, event *Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := nats.NewMsg(subject)
	msg.Data = data
	msg.Header.Set(HeaderEventType, event.Type)
	b.propagator.Inject(ctx, propagation.HeaderCarrier(http.Header(msg.Header)))

	if err := b.conn.PublishMsg(msg); err != nil {
		return fmt.Errorf("failed to publish %s on %s: %w", event.Type, subject, err)
	}

	b.logger.Debug("Published event",
		zap.String("subject", subject),
		zap.String("event_id", event.ID),
		zap.String("event_type", event.Type))
	return nil
}

// Subscribe subscribes handler to a subject pattern. NATS delivers one
// subscription's messages sequentially, preserving order.
func (b *NATSEventBus) Subscribe(subject string, handler EventHandler) (Subscription, error) {
	sub, err := b.conn.Subscribe(subject, func(msg *nats.Msg) {
		b.deliver(msg, handler)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe to %s: %w", subject, err)
	}

	b.logger.Debug("Subscribed to subject", zap.String("subject", subject))
	return &natsSubscription{sub: sub}, nil
}

func (b *NATSEventBus) deliver(msg *nats.Msg, handler EventHandler) {
	event, err := decodeEvent(msg)
	if err != nil {
		b.logger.Warn("Dropping undecodable message",
			zap.String("subject", msg.Subject),
			zap.Error(err))
		return
	}

	ctx := context.Background()
	if msg.Header != nil {
		ctx = b.propagator.Extract(ctx, propagation.HeaderCarrier(http.Header(msg.Header)))
	}

	if err := handler(ctx, event); err != nil {
		b.logger.Error("Event handler failed",
			zap.String("subject", msg.Subject),
			zap.String("event_id", event.ID),
			zap.String("event_type", event.Type),
			zap.Error(err))
	}
}

// decodeEvent accepts a full Event envelope or, from lightweight bridges, a
// flat JSON object that becomes the event data. Missing envelope fields are
// filled from the message.
func decodeEvent(msg *nats.Msg) (*Event, error) {
	var event Event
	if err := json.Unmarshal(msg.Data, &event); err != nil {
		return nil, err
	}

	if event.Data == nil {
		var flat map[string]any
		if err := json.Unmarshal(msg.Data, &flat); err != nil {
			return nil, err
		}
		event = Event{Data: flat}
	}
	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if event.Type == "" {
		event.Type = msg.Header.Get(HeaderEventType)
	}
	if event.Type == "" {
		event.Type = msg.Subject
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	return &event, nil
}

// Close drains the connection so queued replies still go out.
func (b *NATSEventBus) Close() {
	if err := b.conn.Drain(); err != nil {
		b.logger.Warn("Failed to drain NATS connection", zap.Error(err))
		b.conn.Close()
	}
}

func (b *NATSEventBus) IsConnected() bool {
	return b.conn.IsConnected()
}

type natsSubscription struct {
	sub *nats.Subscription
}

func (s *natsSubscription) Unsubscribe() error {
	return s.sub.Unsubscribe()
}

func (s *natsSubscription) IsValid() bool {
	return s.sub.IsValid()
}
