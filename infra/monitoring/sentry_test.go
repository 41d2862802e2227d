package monitoring

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/kilianp07/tripscore/config"
	coremon "github.com/kilianp07/tripscore/core/monitoring"
)

type captureTransport struct {
	events []*sentry.Event
}

func (c *captureTransport) Configure(sentry.ClientOptions)        {}
func (c *captureTransport) SendEvent(e *sentry.Event)             { c.events = append(c.events, e) }
func (c *captureTransport) Flush(time.Duration) bool              { return true }
func (c *captureTransport) FlushWithContext(context.Context) bool { return true }
func (c *captureTransport) Close()                                {}

func TestNewSentryMonitor_EmptyDSN(t *testing.T) {
	m, err := NewSentryMonitor(config.SentryConfig{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := m.(coremon.NopMonitor); !ok {
		t.Fatalf("expected NopMonitor, got %T", m)
	}
}

func TestSentryMonitor_CaptureTags(t *testing.T) {
	tr := &captureTransport{}
	client, err := sentry.NewClient(sentry.ClientOptions{Dsn: "https://key@example.com/1", Transport: tr})
	if err != nil {
		t.Fatalf("client: %v", err)
	}
	m := &sentryMonitor{hub: sentry.NewHub(client, sentry.NewScope())}
	m.CaptureException(nil, nil)
	m.CaptureException(errors.New("predictor down"), map[string]string{"driver_id": "D1"})
	m.Flush(time.Second)

	if len(tr.events) != 1 {
		t.Fatalf("expected one event, got %d", len(tr.events))
	}
	ev := tr.events[0]
	if ev.Tags["driver_id"] != "D1" || ev.Tags["service"] != "tripscore" {
		t.Fatalf("tags not set: %v", ev.Tags)
	}
}

func TestSentryMonitor_CapturePanic(t *testing.T) {
	tr := &captureTransport{}
	client, err := sentry.NewClient(sentry.ClientOptions{Dsn: "https://key@example.com/1", Transport: tr})
	if err != nil {
		t.Fatalf("client: %v", err)
	}
	m := &sentryMonitor{hub: sentry.NewHub(client, sentry.NewScope())}
	m.CapturePanic(nil, nil)
	m.CapturePanic("index out of range", map[string]string{"module": "batch"})
	m.Flush(time.Second)

	if len(tr.events) != 1 {
		t.Fatalf("expected one event, got %d", len(tr.events))
	}
	if tr.events[0].Tags["module"] != "batch" {
		t.Fatalf("tags not set: %v", tr.events[0].Tags)
	}
}
