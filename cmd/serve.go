package cmd

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/kilianp07/tripscore/api"
	"github.com/kilianp07/tripscore/app"
	"github.com/kilianp07/tripscore/infra/logger"
	"github.com/kilianp07/tripscore/infra/mqtt"
	"github.com/kilianp07/tripscore/jobs/batch"
)

var serveTrips string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve ratings and simulations over HTTP",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveTrips, "trips", "", "trips CSV, overrides data.source")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signalContext()
	defer stop()
	log := logger.New("serve")

	opts := api.Options{
		Token:         cfg.Server.Token,
		TopLimit:      cfg.Server.TopLimit,
		WindowMins:    cfg.Simulation.WindowMins,
		ToleranceMins: cfg.Simulation.ToleranceMins,
		CORSOrigins:   cfg.Server.CORSOrigins,
		Logger:        logger.New("api"),
	}

	// Without a usable model the API still starts and answers 503 on
	// model routes.
	var backend api.Backend
	rt, svc, err := openService(ctx, serveTrips)
	if err != nil {
		log.Errorf("model not loaded: %v", err)
	} else {
		defer func() {
			if err := rt.Close(); err != nil {
				log.Errorf("close runtime: %v", err)
			}
		}()
		backend = svc
		opts.RunLog = rt.RunLog
		if err := startBackground(ctx, rt, svc, log); err != nil {
			return err
		}
	}

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           api.NewRouter(backend, opts),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Errorf("http shutdown: %v", err)
		}
	}()
	log.Infof("listening on %s", cfg.Server.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// startBackground wires the MQTT publisher and the batch schedule. Both stop
// when ctx is done.
func startBackground(ctx context.Context, rt *app.Runtime, svc *app.Service, log logger.Logger) error {
	if cfg.MQTT.Enabled() {
		pub, err := mqtt.NewPublisher(cfg.MQTT)
		if err != nil {
			return err
		}
		pub.Forward(ctx, rt.Bus)
		go func() {
			<-ctx.Done()
			pub.Disconnect()
		}()
	}
	if spec := cfg.Server.BatchSchedule; spec != "" {
		runner := batch.NewRunner(rt.Engine, rt.Sink, logger.New("batch"), batch.Options{
			WindowMins:  cfg.Simulation.WindowMins,
			Concurrency: cfg.Simulation.Concurrency,
			MinRides:    cfg.Simulation.MinRides,
		})
		sched, err := batch.NewScheduler(ctx, spec, runner, svc.Table(), logger.New("scheduler"))
		if err != nil {
			return err
		}
		sched.Start()
		go func() {
			<-ctx.Done()
			sched.Stop()
		}()
		log.Infof("batch scheduled at %q", spec)
	}
	return nil
}
