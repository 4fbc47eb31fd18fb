package messaging

import (
	"context"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// NATSConfig holds connection settings
type NATSConfig struct {
	URL        string
	QueueGroup string
	ClientName string
}

func connectNATS(cfg NATSConfig, logger *zap.Logger) (*nats.Conn, error) {
	url := cfg.URL
	if url == "" {
		url = nats.DefaultURL
	}

	conn, err := nats.Connect(url,
		nats.Name(cfg.ClientName),
		nats.MaxReconnects(10),
		nats.ReconnectWait(2*time.Second),
		nats.Timeout(5*time.Second),
		nats.PingInterval(20*time.Second),
		nats.MaxPingsOutstanding(3),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("Reconnected to NATS", zap.String("url", nc.ConnectedUrl()))
		}),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("Disconnected from NATS", zap.Error(err))
			}
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	return conn, nil
}

// natsSubject returns the per-key subject for a channel
func natsSubject(channel, key string) string {
	return channel + "." + key
}

// NATSPublisher publishes each message on channel.<key>
type NATSPublisher struct {
	conn   *nats.Conn
	logger *zap.Logger
}

// NewNATSPublisher connects to NATS
func NewNATSPublisher(cfg NATSConfig, logger *zap.Logger) (*NATSPublisher, error) {
	logger = logger.Named("nats")
	conn, err := connectNATS(cfg, logger)
	if err != nil {
		return nil, err
	}
	return &NATSPublisher{conn: conn, logger: logger}, nil
}

// Publish sends msg with its headers
func (p *NATSPublisher) Publish(_ context.Context, msg *Message) error {
	nm := nats.NewMsg(natsSubject(msg.Channel, msg.Key))
	nm.Data = msg.Payload
	for k, v := range msg.Headers {
		nm.Header.Set(k, v)
	}
	if err := p.conn.PublishMsg(nm); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", nm.Subject, err)
	}
	return nil
}

// Close drains the connection
func (p *NATSPublisher) Close() error {
	if err := p.conn.Drain(); err != nil {
		p.logger.Warn("Error draining NATS connection", zap.Error(err))
	}
	return nil
}

// NATSSubscriber consumes channel.> in a queue group so that each message
// reaches one instance of the service. Core NATS has no acknowledgement; a
// failed message is logged and dropped.
type NATSSubscriber struct {
	conn       *nats.Conn
	queueGroup string
	logger     *zap.Logger
}

// NewNATSSubscriber connects to NATS
func NewNATSSubscriber(cfg NATSConfig, logger *zap.Logger) (*NATSSubscriber, error) {
	if cfg.QueueGroup == "" {
		return nil, fmt.Errorf("nats queue group not configured")
	}
	logger = logger.Named("nats")
	conn, err := connectNATS(cfg, logger)
	if err != nil {
		return nil, err
	}
	return &NATSSubscriber{conn: conn, queueGroup: cfg.QueueGroup, logger: logger}, nil
}

// Subscribe registers handler for every key of channel
func (s *NATSSubscriber) Subscribe(ctx context.Context, channel string, handler MessageHandler) error {
	subject := natsSubject(channel, ">")
	sub, err := s.conn.QueueSubscribe(subject, s.queueGroup, func(nm *nats.Msg) {
		msg := &Message{
			Channel: channel,
			Payload: nm.Data,
			Headers: make(map[string]string, len(nm.Header)),
		}
		for k, v := range nm.Header {
			if len(v) > 0 {
				msg.Headers[k] = v[0]
			}
		}
		msg.restoreHeaders()
		deliver(ctx, handler, msg, s.logger)
	})
	if err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", subject, err)
	}
	if err := s.conn.Flush(); err != nil {
		_ = sub.Unsubscribe()
		return fmt.Errorf("failed to register subscription %s: %w", subject, err)
	}

	s.logger.Info("NATS subscription started",
		zap.String("subject", subject),
		zap.String("queue_group", s.queueGroup),
	)
	return nil
}

// Close drains subscriptions, letting in-flight messages finish, then closes
func (s *NATSSubscriber) Close() error {
	if err := s.conn.Drain(); err != nil {
		s.logger.Warn("Error draining NATS connection", zap.Error(err))
	}
	return nil
}

var (
	_ Publisher  = (*NATSPublisher)(nil)
	_ Subscriber = (*NATSSubscriber)(nil)
)
