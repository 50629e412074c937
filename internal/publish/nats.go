package publish

import (
	"context"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"git.home.luguber.info/inful/accctl/internal/foundation/errors"
	"git.home.luguber.info/inful/accctl/internal/poller"
)

// NATSConfig configures a NATS publisher.
type NATSConfig struct {
	URL     string
	Subject string
	// Name is reported to the server as the connection name.
	Name string
}

// NATSPublisher publishes events on core NATS subjects.
type NATSPublisher struct {
	conn   *nats.Conn
	prefix string
	logger *slog.Logger
}

// NewNATSPublisher connects to the server at cfg.URL.
func NewNATSPublisher(cfg NATSConfig, logger *slog.Logger) (*NATSPublisher, error) {
	if cfg.URL == "" {
		return nil, errors.ConfigError("nats url is required").Build()
	}
	if logger == nil {
		logger = slog.Default()
	}
	name := cfg.Name
	if name == "" {
		name = "accctl"
	}

	conn, err := nats.Connect(cfg.URL,
		nats.Name(name),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("NATS disconnected", slog.String("error", err.Error()))
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info("NATS reconnected", slog.String("url", c.ConnectedUrl()))
		}),
	)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryMessaging, "failed to connect to NATS").WithContext("url", cfg.URL).Build()
	}

	logger.Info("NATS publisher initialized", slog.String("url", cfg.URL), slog.String("subject", Subject(cfg.Subject, "*")))

	return &NATSPublisher{conn: conn, prefix: cfg.Subject, logger: logger}, nil
}

func (p *NATSPublisher) PublishSnapshot(ctx context.Context, snap poller.Snapshot) error {
	return p.publish(ctx, KindTelemetry, snap)
}

func (p *NATSPublisher) PublishConfigChange(ctx context.Context, change ConfigChange) error {
	return p.publish(ctx, KindConfig, change)
}

func (p *NATSPublisher) publish(ctx context.Context, kind Kind, v any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := encode(kind, v, time.Now())
	if err != nil {
		return err
	}
	subject := Subject(p.prefix, kind)
	if err := p.conn.Publish(subject, data); err != nil {
		return errors.WrapError(err, errors.CategoryMessaging, "failed to publish event").WithContext("subject", subject).Build()
	}
	p.logger.Debug("Published event", slog.String("subject", subject), slog.Int("bytes", len(data)))
	return nil
}

// Close drains pending messages and closes the connection.
func (p *NATSPublisher) Close() error {
	if p.conn == nil {
		return nil
	}
	if err := p.conn.Drain(); err != nil {
		p.conn.Close()
		return errors.WrapError(err, errors.CategoryMessaging, "failed to drain NATS connection").Build()
	}
	return nil
}
