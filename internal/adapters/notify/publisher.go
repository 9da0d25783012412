package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"eventhub/internal/domain"
)

const streamName = "EVENTS"

// message is the JSON body published for every aggregate change.
type message struct {
	ID        string `json:"id"`
	Timestamp int64  `json:"timestamp"`
	Source    string `json:"source"`
	domain.EventChange
}

type streamPublisher interface {
	Publish(ctx context.Context, subject string, data []byte, opts ...jetstream.PublishOpt) (*jetstream.PubAck, error)
}

// JetStream publishes aggregate changes to the EVENTS stream.
type JetStream struct {
	nc     *nats.Conn
	js     streamPublisher
	source string
	logger *slog.Logger
}

// NewJetStream connects to url and makes sure the EVENTS stream exists.
func NewJetStream(ctx context.Context, url, source string, logger *slog.Logger) (*JetStream, error) {
	nc, err := nats.Connect(url, nats.Name(source))
	if err != nil {
		return nil, fmt.Errorf("connect to nats: %w", err)
	}
	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("create jetstream: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	_, err = js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:      streamName,
		Subjects:  []string{"events.>"},
		Retention: jetstream.LimitsPolicy,
		MaxAge:    7 * 24 * time.Hour,
		Storage:   jetstream.FileStorage,
	})
	if err != nil {
		logger.Warn("failed to create EVENTS stream (may already exist)", "error", err)
	}
	return &JetStream{nc: nc, js: js, source: source, logger: logger}, nil
}

var _ domain.EventPublisher = (*JetStream)(nil)

func (p *JetStream) Close() error {
	if p.nc != nil {
		p.nc.Close()
	}
	return nil
}

func (p *JetStream) Publish(ctx context.Context, change domain.EventChange) error {
	data, err := json.Marshal(message{
		ID:          uuid.NewString(),
		Timestamp:   time.Now().Unix(),
		Source:      p.source,
		EventChange: change,
	})
	if err != nil {
		return fmt.Errorf("marshal event change: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	subject := Subject(change)
	if _, err := p.js.Publish(ctx, subject, data); err != nil {
		return fmt.Errorf("publish %s: %w", subject, err)
	}
	p.logger.Debug("published event change", "subject", subject)
	return nil
}

// Subject is events.event.<id>.<kind>.
func Subject(change domain.EventChange) string {
	return fmt.Sprintf("events.event.%d.%s", change.EventID, change.Kind)
}

// Noop drops every change. Used when NATS_URL is unset.
type Noop struct {
	Logger *slog.Logger
}

func (n Noop) Publish(ctx context.Context, change domain.EventChange) error {
	if n.Logger != nil {
		n.Logger.DebugContext(ctx, "event change dropped (noop)", "subject", Subject(change))
	}
	return nil
}
