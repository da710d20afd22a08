package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"onmydesk/config"
	"onmydesk/dataset"
	"onmydesk/logging"
	"onmydesk/metrics"
	"onmydesk/report"
	"onmydesk/storage"
	"onmydesk/store"
	"onmydesk/utils"
	"onmydesk/worker"
)

// app regroupe ce qu'une commande charge au démarrage.
type app struct {
	cfg     *config.Config
	store   *store.Store
	pool    *dataset.Pool
	reports *report.Registry
	storage storage.Backend
	metrics *metrics.Metrics
	logger  *logging.Logger
}

// loadApp reads the config and opens the store, the report databases and the
// storage backend. The logger writes to <log_dir>/<logName>, and to out too
// when out is not nil.
func loadApp(ctx context.Context, logName string, out io.Writer) (*app, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", configFile, err)
	}
	logger, err := logging.NewLogger(utils.ResolvePath(cfg.LogDir), logName)
	if err != nil {
		return nil, fmt.Errorf("open log: %w", err)
	}
	if out != nil {
		logger = logger.Tee(out)
	}
	a := &app{cfg: cfg, logger: logger, metrics: metrics.New(), pool: dataset.NewPool(cfg.Databases)}

	a.store, err = store.Open(ctx, cfg.Store)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("open store: %w", err)
	}
	a.reports = report.NewRegistry()
	if err := report.RegisterConfigured(a.reports, cfg, a.pool); err != nil {
		a.Close()
		return nil, err
	}
	a.storage, err = storage.New(ctx, cfg.Storage)
	if err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *app) runner() *worker.Runner {
	return &worker.Runner{
		Store:     a.store,
		Reports:   a.reports,
		Relocator: a.storage,
		Logger:    a.logger,
		Metrics:   a.metrics,
	}
}

// flushMetrics écrit le fichier textfile pour node_exporter, si configuré.
func (a *app) flushMetrics() {
	if err := a.metrics.WriteTextfile(utils.ResolvePath(a.cfg.Metrics.Textfile)); err != nil {
		a.logger.Writef("metrics textfile: %v", err)
	}
}

func (a *app) Close() {
	if a.pool != nil {
		a.pool.Close()
	}
	if a.store != nil {
		a.store.Close()
	}
	a.logger.Close()
}

// parseParams turns repeated k=v flags into report params.
func parseParams(kvs []string) (report.Params, error) {
	params := report.Params{}
	for _, kv := range kvs {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid param %q, expected key=value", kv)
		}
		params[k] = v
	}
	return params, nil
}

func withReferenceDate(params report.Params) report.Params {
	out := report.Params{report.ReferenceDateParam: "D"}
	for k, v := range params {
		out[k] = v
	}
	return out
}
