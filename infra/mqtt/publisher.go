package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	coremon "github.com/kilianp07/tripscore/core/monitoring"
	"github.com/kilianp07/tripscore/core/runlog"
	"github.com/kilianp07/tripscore/core/simulation"
	"github.com/kilianp07/tripscore/infra/logger"
	"github.com/kilianp07/tripscore/internal/eventbus"
)

// Message is the JSON payload published for a completed simulation.
type Message struct {
	RunID             string   `json:"run_id"`
	DriverID          string   `json:"driver_id"`
	Day               string   `json:"day"`
	CityID            *int     `json:"city_id"`
	WindowMins        int      `json:"window_mins"`
	Candidates        int      `json:"candidates"`
	ActualCount       int      `json:"actual_count"`
	ActualEarnings    float64  `json:"actual_earnings"`
	SimulatedCount    int      `json:"simulated_count"`
	SimulatedEarnings float64  `json:"simulated_earnings"`
	SimulatedRides    []string `json:"simulated_rides"`
	DurationMS        int64    `json:"duration_ms"`
	Timestamp         int64    `json:"timestamp"`
}

// NewMessage builds the payload for c.
func NewMessage(c simulation.Completed, now time.Time) Message {
	r := c.Result
	m := Message{
		RunID:             r.RunID,
		DriverID:          r.DriverID,
		Day:               r.Day.Format(runlog.DayLayout),
		WindowMins:        r.WindowMins,
		Candidates:        r.Candidates,
		ActualCount:       r.ActualCount,
		ActualEarnings:    r.ActualEarnings,
		SimulatedCount:    r.SimulatedCount,
		SimulatedEarnings: r.SimulatedEarnings,
		SimulatedRides:    make([]string, len(r.Simulated)),
		DurationMS:        c.Duration.Milliseconds(),
		Timestamp:         now.UnixMilli(),
	}
	if r.HasCity {
		city := r.CityID
		m.CityID = &city
	}
	for i, d := range r.Simulated {
		m.SimulatedRides[i] = d.RideID
	}
	return m
}

// Publisher sends simulation results to per-driver topics.
type Publisher struct {
	cli     pahoClient
	prefix  string
	qos     byte
	retain  bool
	retries int
	backoff time.Duration
	log     logger.Logger
}

// NewPublisher connects to the broker.
func NewPublisher(cfg Config) (*Publisher, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	opts, err := NewClientOptions(cfg)
	if err != nil {
		return nil, err
	}
	log := logger.New("mqtt-publisher")
	opts.OnConnect = func(paho.Client) { log.Infof("MQTT connected to %s", cfg.Broker) }
	opts.OnConnectionLost = func(_ paho.Client, err error) { log.Errorf("connection lost: %v", err) }
	opts.OnReconnecting = func(paho.Client, *paho.ClientOptions) { log.Warnf("reconnecting to MQTT broker") }

	c := newMQTTClient(opts)
	if token := c.Connect(); token.Wait() && token.Error() != nil {
		return nil, token.Error()
	}
	return &Publisher{
		cli:     c,
		prefix:  cfg.TopicPrefix,
		qos:     cfg.QoS,
		retain:  cfg.Retain,
		retries: cfg.MaxRetries,
		backoff: time.Duration(cfg.BackoffMS) * time.Millisecond,
		log:     log,
	}, nil
}

// Topic returns the topic results of driverID are published to.
func (p *Publisher) Topic(driverID string) string {
	return fmt.Sprintf("%s/%s", p.prefix, driverID)
}

// Publish sends c, retrying with exponential backoff. The final failure is
// reported to the error monitor.
func (p *Publisher) Publish(ctx context.Context, c simulation.Completed) error {
	payload, err := json.Marshal(NewMessage(c, time.Now()))
	if err != nil {
		return err
	}
	topic := p.Topic(c.Result.DriverID)
	var publishErr error
	for attempt := 0; attempt <= p.retries; attempt++ {
		token := p.cli.Publish(topic, p.qos, p.retain, payload)
		token.Wait()
		if publishErr = token.Error(); publishErr == nil {
			p.log.Debugf("published run %s to %s", c.Result.RunID, topic)
			return nil
		}
		p.log.Errorf("publish attempt %d failed: %v", attempt+1, publishErr)
		if attempt == p.retries {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(p.backoff * time.Duration(1<<attempt)):
		}
	}
	coremon.CaptureException(publishErr, map[string]string{
		"module":    "mqtt",
		"driver_id": c.Result.DriverID,
		"run_id":    c.Result.RunID,
	})
	return publishErr
}

// Forward publishes every completed simulation seen on bus until ctx is
// done or the bus is closed.
func (p *Publisher) Forward(ctx context.Context, bus *eventbus.TypedBus[simulation.Completed]) {
	sub := bus.Subscribe()
	go func() {
		defer coremon.Recover()
		defer bus.Unsubscribe(sub)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-sub:
				if !ok {
					return
				}
				if err := p.Publish(ctx, ev); err != nil {
					p.log.Errorf("forward run %s: %v", ev.Result.RunID, err)
				}
			}
		}
	}()
}

// Disconnect gracefully closes the MQTT connection.
func (p *Publisher) Disconnect() {
	if p.cli != nil && p.cli.IsConnected() {
		p.cli.Disconnect(250)
	}
}
