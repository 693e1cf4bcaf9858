package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/aatuh/radioclock/bootstrap"
	"github.com/aatuh/radioclock/chi"
	"github.com/aatuh/radioclock/clock"
	"github.com/aatuh/radioclock/config"
	"github.com/aatuh/radioclock/docs"
	"github.com/aatuh/radioclock/health"
	"github.com/aatuh/radioclock/idgen"
	"github.com/aatuh/radioclock/logzap"
	"github.com/aatuh/radioclock/metrics"
	"github.com/aatuh/radioclock/ports"
	"github.com/aatuh/radioclock/timeapi"
	"github.com/aatuh/radioclock/validation"
	"github.com/aatuh/radioclock/widget"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "radioclock:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	log, err := logzap.NewForEnv(cfg.Env, cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	if s, ok := log.(interface{ Sync() error }); ok {
		defer func() { _ = s.Sync() }()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var clk ports.Clock = clock.NewSystemClock()
	validator := validation.New()
	ids := idgen.NewULIDGen(clk)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	clockMetrics := metrics.NewPrometheusClock(reg)

	source, err := timeapi.New(cfg.TimeAPIBaseURL,
		timeapi.WithLogger(log),
		timeapi.WithValidator(validator),
		timeapi.WithTimeout(cfg.TimeAPITimeout),
		timeapi.WithRetry(cfg.TimeAPIRetries, cfg.TimeAPIRetryBase),
	)
	if err != nil {
		return fmt.Errorf("time service client: %w", err)
	}

	hub := widget.NewHub(source,
		widget.WithHubClock(clk),
		widget.WithHubLogger(log),
		widget.WithHubIDGen(ids),
		widget.WithHubMetrics(clockMetrics),
		widget.WithMaxWidgets(cfg.MaxWidgets),
		widget.WithDefaultZone(cfg.DefaultZone),
	)
	defer hub.Close()
	if _, err := hub.MountDefault(ctx, cfg.DefaultZone); err != nil {
		return fmt.Errorf("mount default widget: %w", err)
	}

	hm := health.New(clk)
	hm.RegisterCheckers(
		health.NewBasicChecker(),
		health.NewWidgetsChecker(hub),
		health.NewUpstreamChecker(source, cfg.DefaultZone),
		health.NewMemoryChecker(0),
	)

	router := bootstrap.NewDefaultRouter(log, bootstrap.RouterOptions{
		RequestTimeout: cfg.TimeAPITimeout + cfg.TimeAPITimeout/2,
		Registerer:     reg,
		Clock:          clk,
	})
	bootstrap.MountSystemEndpoints(router, health.NewHandler(hm), docs.NewHandler(docs.New(docs.DefaultConfig())), reg)

	wh, err := widget.NewHandler(hub, validator, chi.NewURLParamExtractor(),
		widget.WithHandlerLogger(log),
		widget.WithHandlerClock(clk),
	)
	if err != nil {
		return err
	}
	wh.Register(router)

	log.Info("radioclock configured",
		"env", cfg.Env,
		"addr", cfg.Addr,
		"timeapi", cfg.TimeAPIBaseURL,
		"default_zone", cfg.DefaultZone,
		"max_widgets", cfg.MaxWidgets,
		"retries", cfg.TimeAPIRetries,
		"overrides", config.Overrides(),
	)
	return bootstrap.StartServer(ctx, cfg.Addr, router, log)
}
