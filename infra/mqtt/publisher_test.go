package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	coremon "github.com/kilianp07/tripscore/core/monitoring"
	"github.com/kilianp07/tripscore/core/simulation"
	"github.com/kilianp07/tripscore/internal/eventbus"
)

type recordMonitor struct {
	err  error
	tags map[string]string
}

func (r *recordMonitor) CaptureException(err error, tags map[string]string) {
	r.err = err
	r.tags = tags
}
func (r *recordMonitor) CapturePanic(any, map[string]string) {}
func (r *recordMonitor) Flush(time.Duration) {}

func withMock(t *testing.T, mc *mockClient) {
	t.Helper()
	newMQTTClient = func(o *paho.ClientOptions) pahoClient { mc.opts = o; return mc }
	t.Cleanup(func() {
		newMQTTClient = func(opts *paho.ClientOptions) pahoClient { return paho.NewClient(opts) }
	})
}

func completed() simulation.Completed {
	return simulation.Completed{
		Result: simulation.Result{
			RunID:             "run-1",
			DriverID:          "D1",
			Day:               time.Date(2023, 1, 10, 0, 0, 0, 0, time.UTC),
			WindowMins:        15,
			CityID:            1,
			HasCity:           true,
			Candidates:        3,
			SimulatedCount:    2,
			SimulatedEarnings: 37,
			Simulated:         []simulation.TripDetail{{RideID: "c2"}, {RideID: "c3"}},
		},
		Duration: 5 * time.Millisecond,
	}
}

func TestPublish_TopicQoSAndPayload(t *testing.T) {
	mc := &mockClient{}
	withMock(t, mc)
	pub, err := NewPublisher(Config{Broker: "tcp://localhost:1883", QoS: 1})
	if err != nil {
		t.Fatalf("publisher: %v", err)
	}
	if err := pub.Publish(context.Background(), completed()); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if len(mc.published) != 1 {
		t.Fatalf("expected one publish, got %d", len(mc.published))
	}
	got := mc.published[0]
	if got.topic != "tripscore/simulations/D1" || got.qos != 1 {
		t.Fatalf("unexpected topic/qos: %s %d", got.topic, got.qos)
	}
	var msg Message
	if err := json.Unmarshal(got.payload, &msg); err != nil {
		t.Fatalf("payload: %v", err)
	}
	if msg.RunID != "run-1" || msg.Day != "2023-01-10" || msg.CityID == nil || *msg.CityID != 1 {
		t.Fatalf("unexpected message: %+v", msg)
	}
	if len(msg.SimulatedRides) != 2 || msg.SimulatedRides[1] != "c3" {
		t.Fatalf("unexpected rides: %v", msg.SimulatedRides)
	}
}

func TestPublish_NoCityIsNull(t *testing.T) {
	c := completed()
	c.Result.HasCity = false
	if NewMessage(c, time.Now()).CityID != nil {
		t.Fatalf("expected nil city")
	}
}

func TestPublish_RetryLogic(t *testing.T) {
	mc := &mockClient{publishErrs: []error{fmt.Errorf("net fail"), nil}}
	withMock(t, mc)
	pub, err := NewPublisher(Config{Broker: "tcp://localhost:1883", MaxRetries: 1, BackoffMS: 1})
	if err != nil {
		t.Fatalf("publisher: %v", err)
	}
	if err := pub.Publish(context.Background(), completed()); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if len(mc.published) != 2 {
		t.Fatalf("expected retries")
	}
}

func TestPublish_ErrorCaptured(t *testing.T) {
	fail := fmt.Errorf("net fail")
	mc := &mockClient{publishErrs: []error{fail, fail}}
	withMock(t, mc)
	mon := &recordMonitor{}
	coremon.Init(mon)
	defer coremon.Init(coremon.NopMonitor{})

	pub, err := NewPublisher(Config{Broker: "tcp://localhost:1883", MaxRetries: 1, BackoffMS: 1})
	if err != nil {
		t.Fatalf("publisher: %v", err)
	}
	if err := pub.Publish(context.Background(), completed()); err == nil {
		t.Fatalf("expected error")
	}
	if mon.err == nil {
		t.Fatalf("error not captured")
	}
	if mon.tags["driver_id"] != "D1" || mon.tags["module"] != "mqtt" {
		t.Fatalf("tags not set: %v", mon.tags)
	}
}

func TestForward_PublishesBusEvents(t *testing.T) {
	mc := &mockClient{}
	withMock(t, mc)
	pub, err := NewPublisher(Config{Broker: "tcp://localhost:1883"})
	if err != nil {
		t.Fatalf("publisher: %v", err)
	}
	bus := eventbus.NewTyped[simulation.Completed]()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	pub.Forward(ctx, bus)
	bus.Publish(completed())

	deadline := time.Now().Add(time.Second)
	for mc.count() == 0 {
		if time.Now().After(deadline) {
			t.Fatalf("event not forwarded")
		}
		time.Sleep(5 * time.Millisecond)
	}
}
