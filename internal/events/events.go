// Package events carries audit events (registrations, logins) to an
// external broker. Delivery is best effort and disabled by default.
package events

import (
	"context"
	"errors"
	"fmt"

	"github.com/netvoya/backend/config"
)

// AuthChannel is the channel all credential-lifecycle events go to.
const AuthChannel = "auth.events"

// Message represents a broker-agnostic payload delivered to subscribers.
type Message struct {
	ID         string
	Data       []byte
	Attributes map[string]string
}

// Handler processes a message. Return an error to signal a retry/nack.
type Handler func(ctx context.Context, msg Message) error

// Backend defines the broker-agnostic operations used by the app.
type Backend interface {
	Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error)
	Subscribe(ctx context.Context, channel string, handler Handler) error
	Close() error
}

// Stream wraps a backend with a stable API.
type Stream struct {
	backend Backend
}

// New constructs a Stream for the backend named in cfg. Backend "none"
// (or empty) yields a stream that drops everything.
func New(ctx context.Context, cfg config.EventsConfig) (*Stream, error) {
	switch cfg.Backend {
	case "", "none":
		return &Stream{backend: noopBackend{}}, nil
	case "rabbitmq":
		backend, err := NewRabbitMQClient(cfg.RabbitMQ)
		if err != nil {
			return nil, err
		}
		return &Stream{backend: backend}, nil
	case "pubsub":
		backend, err := NewPubSubClient(ctx, cfg.PubSub)
		if err != nil {
			return nil, err
		}
		return &Stream{backend: backend}, nil
	default:
		return nil, fmt.Errorf("unknown events backend %q", cfg.Backend)
	}
}

// Publish sends a message to the named channel.
func (s *Stream) Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error) {
	return s.backend.Publish(ctx, channel, data, attrs)
}

// Subscribe consumes messages from the named channel.
func (s *Stream) Subscribe(ctx context.Context, channel string, handler Handler) error {
	return s.backend.Subscribe(ctx, channel, handler)
}

// Close closes the underlying backend.
func (s *Stream) Close() error {
	return s.backend.Close()
}

// noopBackend drops published messages; subscribing is an error.
type noopBackend struct{}

func (noopBackend) Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error) {
	return "", nil
}

func (noopBackend) Subscribe(ctx context.Context, channel string, handler Handler) error {
	return errors.New("events disabled")
}

func (noopBackend) Close() error { return nil }
