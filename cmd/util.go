package cmd

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/kilianp07/tripscore/app"
	"github.com/kilianp07/tripscore/core/factory"
	"github.com/kilianp07/tripscore/core/model"
)

func fileExists(path string) bool {
	st, err := os.Stat(path)
	return err == nil && !st.IsDir()
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// loadTrips reads the table from --trips when given, otherwise from the
// configured source.
func loadTrips(ctx context.Context, tripsPath string) (model.Table, error) {
	data := cfg.Data
	if tripsPath != "" {
		data.Source = factory.ModuleConfig{Type: "csv", Conf: map[string]any{"path": tripsPath}}
	}
	return app.LoadTable(ctx, data)
}

// openService opens the runtime on the configured or --trips table and
// builds the serving context.
func openService(ctx context.Context, tripsPath string) (*app.Runtime, *app.Service, error) {
	if tripsPath != "" {
		cfg.Data.Source = factory.ModuleConfig{Type: "csv", Conf: map[string]any{"path": tripsPath}}
	}
	rt, err := app.Open(ctx, cfg, nil)
	if err != nil {
		return nil, nil, err
	}
	svc, err := rt.Service(ctx)
	if err != nil {
		_ = rt.Close()
		return nil, nil, err
	}
	return rt, svc, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
