// Package publish broadcasts telemetry snapshots and config-change notices.
package publish

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"git.home.luguber.info/inful/accctl/internal/acc"
	"git.home.luguber.info/inful/accctl/internal/poller"
)

// DefaultSubject is the subject prefix used when none is configured.
const DefaultSubject = "accctl"

// Kind identifies the type of a published event. It is appended to the subject prefix.
type Kind string

const (
	KindTelemetry Kind = "telemetry"
	KindConfig    Kind = "config"
)

// ConfigChange is published when the daemon configuration is observed to change.
type ConfigChange struct {
	Source   string     `json:"source"`
	Config   acc.Config `json:"config"`
	Fallback bool       `json:"fallback,omitempty"`
}

// Envelope wraps every published payload.
type Envelope struct {
	Kind      Kind            `json:"kind"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

// Publisher delivers events to subscribers outside the process.
type Publisher interface {
	PublishSnapshot(ctx context.Context, snap poller.Snapshot) error
	PublishConfigChange(ctx context.Context, change ConfigChange) error
	Close() error
}

// Subject builds the full subject for kind under prefix.
func Subject(prefix string, kind Kind) string {
	if prefix == "" {
		prefix = DefaultSubject
	}
	return prefix + "." + string(kind)
}

func encode(kind Kind, v any, now time.Time) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s payload: %w", kind, err)
	}
	out, err := json.Marshal(Envelope{Kind: kind, Timestamp: now.UTC(), Data: data})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s envelope: %w", kind, err)
	}
	return out, nil
}

// Noop discards every event.
type Noop struct{}

func (Noop) PublishSnapshot(context.Context, poller.Snapshot) error  { return nil }
func (Noop) PublishConfigChange(context.Context, ConfigChange) error { return nil }
func (Noop) Close() error                                             { return nil }

// Message is a published event captured by Memory.
type Message struct {
	Subject string
	Payload []byte
}

// Memory keeps published events in memory. It is used by tests and when NATS is disabled
// but the last events still need to be inspected.
type Memory struct {
	prefix string

	mu       sync.Mutex
	messages []Message
}

// NewMemory returns a Memory publisher using prefix for subjects.
func NewMemory(prefix string) *Memory {
	return &Memory{prefix: prefix}
}

func (m *Memory) PublishSnapshot(_ context.Context, snap poller.Snapshot) error {
	return m.add(KindTelemetry, snap)
}

func (m *Memory) PublishConfigChange(_ context.Context, change ConfigChange) error {
	return m.add(KindConfig, change)
}

func (m *Memory) Close() error { return nil }

// Messages returns a copy of everything published so far.
func (m *Memory) Messages() []Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Message(nil), m.messages...)
}

func (m *Memory) add(kind Kind, v any) error {
	payload, err := encode(kind, v, time.Now())
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.messages = append(m.messages, Message{Subject: Subject(m.prefix, kind), Payload: payload})
	m.mu.Unlock()
	return nil
}
