package metrics

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/kilianp07/tripscore/core/metrics"
	"github.com/kilianp07/tripscore/core/runlog"
	"github.com/kilianp07/tripscore/infra/logger"
)

// InfluxSink writes simulation activity to an InfluxDB instance using the official client.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

// NewInfluxSink creates a new sink configured for the given InfluxDB endpoint.
func NewInfluxSink(url, token, org, bucket string) *InfluxSink {
	base := strings.TrimSuffix(url, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(org, bucket),
		log:      logger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback tries to ping the InfluxDB instance and
// returns a NopSink if the health check fails.
func NewInfluxSinkWithFallback(url, token, org, bucket string) coremetrics.MetricsSink {
	sink := NewInfluxSink(url, token, org, bucket)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return coremetrics.NopSink{}
	}
	return sink
}

func (s *InfluxSink) write(p *write.Point) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordSimulation writes a simulation_run point.
func (s *InfluxSink) RecordSimulation(ev coremetrics.SimulationEvent) error {
	p := write.NewPointWithMeasurement("simulation_run").
		AddTag("driver_id", ev.DriverID).
		AddTag("city_id", strconv.Itoa(ev.CityID)).
		AddTag("day", ev.Day.Format(runlog.DayLayout)).
		AddTag("run_id", ev.RunID).
		AddField("window_mins", ev.WindowMins).
		AddField("candidates", ev.Candidates).
		AddField("actual_count", ev.ActualCount).
		AddField("actual_earnings", round3(ev.ActualEarnings)).
		AddField("simulated_count", ev.SimulatedCount).
		AddField("simulated_earnings", round3(ev.SimulatedEarnings)).
		AddField("uplift", round3(ev.Uplift())).
		AddField("duration_ms", ev.Duration.Milliseconds()).
		SetTime(ev.Time)
	return s.write(p)
}

// RecordPrediction writes a prediction_call point.
func (s *InfluxSink) RecordPrediction(ev coremetrics.PredictionEvent) error {
	p := write.NewPointWithMeasurement("prediction_call").
		AddTag("failed", strconv.FormatBool(ev.Failed)).
		AddField("rows", ev.Rows).
		AddField("latency_ms", ev.Latency.Milliseconds()).
		SetTime(ev.Time)
	return s.write(p)
}

// RecordBatch writes a batch_run point.
func (s *InfluxSink) RecordBatch(ev coremetrics.BatchEvent) error {
	p := write.NewPointWithMeasurement("batch_run").
		AddField("scheduled", ev.Scheduled).
		AddField("succeeded", ev.Succeeded).
		AddField("failed", ev.Failed).
		AddField("duration_ms", ev.Duration.Milliseconds()).
		SetTime(ev.Time)
	return s.write(p)
}

// RecordLabels writes a label_build point.
func (s *InfluxSink) RecordLabels(ev coremetrics.LabelEvent) error {
	p := write.NewPointWithMeasurement("label_build").
		AddField("trips", ev.Trips).
		AddField("mean_rating", round3(ev.MeanRating)).
		SetTime(ev.Time)
	return s.write(p)
}

// Close releases the underlying client.
func (s *InfluxSink) Close() { s.client.Close() }

func round3(f float64) float64 {
	return math.Round(f*1000) / 1000
}
