// Package events announces marketplace changes to other services.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"villagework/internal/logging"
)

const (
	SubjectJobCreated         = "villagework.jobs.created"
	SubjectJobDeleted         = "villagework.jobs.deleted"
	SubjectApplicationCreated = "villagework.applications.created"
	SubjectApplicationStatus  = "villagework.applications.status"
	SubjectPaymentUpdated     = "villagework.payments.updated"
)

// Publisher sends a JSON-encoded payload on a subject
type Publisher interface {
	Publish(ctx context.Context, subject string, payload interface{}) error
	Close() error
}

// Envelope wraps every published payload
type Envelope struct {
	Subject   string      `json:"subject"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data"`
}

func encode(subject string, payload interface{}) ([]byte, error) {
	data, err := json.Marshal(Envelope{Subject: subject, Timestamp: time.Now().UTC(), Data: payload})
	if err != nil {
		return nil, fmt.Errorf("marshaling event %s: %w", subject, err)
	}
	return data, nil
}

// NATSPublisher publishes to a NATS server
type NATSPublisher struct {
	conn   *nats.Conn
	logger logging.Logger
}

// NewNATSPublisher connects to url, reconnecting forever once connected
func NewNATSPublisher(url string, timeout time.Duration, logger logging.Logger) (*NATSPublisher, error) {
	opts := []nats.Option{
		nats.Name("villagework"),
		nats.Timeout(timeout),
		nats.ReconnectWait(time.Second),
		nats.MaxReconnects(-1),
	}

	conn, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("connecting to NATS: %w", err)
	}

	return &NATSPublisher{conn: conn, logger: logger}, nil
}

func (p *NATSPublisher) Publish(ctx context.Context, subject string, payload interface{}) error {
	data, err := encode(subject, payload)
	if err != nil {
		return err
	}

	if err := p.conn.Publish(subject, data); err != nil {
		p.logger.Error("failed to publish event", map[string]interface{}{
			"subject": subject,
			"error":   err.Error(),
		})
		return fmt.Errorf("publishing to NATS: %w", err)
	}

	p.logger.Debug("published event", map[string]interface{}{
		"subject": subject,
		"size":    len(data),
	})
	return nil
}

// Connected reports whether the connection is currently up
func (p *NATSPublisher) Connected() bool {
	return p.conn != nil && p.conn.IsConnected()
}

func (p *NATSPublisher) Close() error {
	if p.conn != nil {
		if err := p.conn.Drain(); err != nil {
			p.conn.Close()
		}
	}
	return nil
}

// LogPublisher writes events to the logger only. Used when NATS is disabled.
type LogPublisher struct {
	logger logging.Logger
}

func NewLogPublisher(logger logging.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) Publish(ctx context.Context, subject string, payload interface{}) error {
	data, err := encode(subject, payload)
	if err != nil {
		return err
	}
	p.logger.Info("event", map[string]interface{}{
		"subject": subject,
		"payload": string(data),
	})
	return nil
}

func (p *LogPublisher) Close() error { return nil }
