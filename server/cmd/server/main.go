package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"

	"github.com/embermeter/embermeter/server/internal/api"
	"github.com/embermeter/embermeter/server/internal/buffs"
	"github.com/embermeter/embermeter/server/internal/config"
	"github.com/embermeter/embermeter/server/internal/engine"
	"github.com/embermeter/embermeter/server/internal/ingest"
	"github.com/embermeter/embermeter/server/internal/notify"
	"github.com/embermeter/embermeter/server/internal/recount"
	"github.com/embermeter/embermeter/server/internal/store"
	"github.com/embermeter/embermeter/server/internal/ws"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	uiDir := flag.String("ui-dir", "", "serve the overlay static files from this directory (e.g. overlay/dist); leave empty to disable")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	slog.Info("embermeter-server starting", "config", *configPath)

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}

	slog.Info("config loaded",
		"http_port", cfg.Server.HTTPPort,
		"auth_mode", cfg.Server.Auth.Mode,
		"history_ttl", cfg.Server.History.TTL,
		"broadcast_interval", cfg.Server.BroadcastInterval,
		"buff_tick", cfg.Server.BuffTick,
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Encounter store with background TTL eviction.
	st := store.New(cfg.Server.History.TTL)
	go st.Run(ctx)

	tracker := buffs.NewTracker()

	registry, layers, grouper := loadTables(cfg)

	// Settings snapshot — swapped atomically on config reload so handlers
	// and the buff loop never see a half-applied profile.
	var settings atomic.Pointer[api.Settings]
	settings.Store(buildSettings(cfg, grouper))

	// Notification engine — evaluates rules on every live payload.
	var notifier *notify.Engine
	if len(cfg.Server.Notify.Rules) > 0 {
		notifier = notify.New(cfg.Server.Notify)
	}

	metrics := api.NewMetrics()

	// Rows frame builder, shared by the hub ticker and snapshot-on-connect.
	buildRows := func() ([]byte, error) {
		frame := api.StreamRows{
			Metric: string(engine.MetricDamage),
			Rows:   []engine.PlayerRow{},
		}
		if p, ok := st.Live(); ok {
			frame.Header = engine.Header(p)
			frame.Rows = engine.PlayerRows(p, engine.MetricDamage)
			frame.Paused = p.IsPaused
			metrics.RowsDerived.Add(1)
		}
		return ws.Frame("rows", frame)
	}

	hub := ws.New(cfg.Server.BroadcastInterval, buildRows)
	go hub.Run(ctx)

	metrics.WSClients = hub.Count

	// Buff projection loop — recomputes remaining times every tick and
	// pushes the result to all connected overlay clients.
	go tracker.Run(ctx, cfg.Server.BuffTick, func(nowMs int64) {
		proj := tracker.Projection(settings.Load().View(), registry, layers, nowMs)
		if frame, err := ws.Frame("buffs", proj); err == nil {
			hub.Publish(frame)
		}
	})

	// Profile and row-order changes apply without restart. Static tables
	// are loaded once at startup.
	go func() {
		if err := config.Watch(ctx, *configPath, func(next *config.Config) {
			settings.Store(buildSettings(next, grouper))
			slog.Info("settings reapplied from config")
		}); err != nil {
			slog.Error("config watch failed", "err", err)
		}
	}()

	apiHandler := api.New(api.Deps{
		Store:    st,
		Tracker:  tracker,
		Registry: registry,
		Layers:   layers,
		Notifier: notifier,
		Metrics:  metrics,
		Settings: func() api.Settings { return *settings.Load() },
	})

	// Only the collector-facing ingest routes sit behind the API key.
	ingestHandler := ingest.APIKeyMiddleware(
		cfg.Server.Auth.Mode,
		cfg.Server.Auth.EffectiveHeader(),
		cfg.Server.Auth.Key(),
		ingest.New(st, tracker, notifier, metrics),
	)

	httpMux := http.NewServeMux()
	httpMux.Handle("/ingest/", ingestHandler)
	httpMux.Handle("/api/", apiHandler)
	httpMux.Handle("/ws/stream", hub)

	// Optional: serve the pre-built overlay from a local directory.
	// Usage:  ./bin/embermeter-server -config config/server.yaml -ui-dir overlay/dist
	// The "/" catch-all serves index.html for any unknown path (SPA routing).
	if *uiDir != "" {
		fs := http.FileServer(http.Dir(*uiDir))
		httpMux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
			// SPA fallback: if the requested file doesn't exist, serve index.html.
			path := *uiDir + r.URL.Path
			if _, err := os.Stat(path); os.IsNotExist(err) {
				http.ServeFile(w, r, *uiDir+"/index.html")
				return
			}
			fs.ServeHTTP(w, r)
		})
		slog.Info("serving overlay static files", "dir", *uiDir)
	}

	httpSrv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.HTTPPort),
		Handler: httpMux,
	}
	go func() {
		slog.Info("HTTP server listening", "port", cfg.Server.HTTPPort)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server stopped", "err", err)
		}
	}()

	<-ctx.Done()
	slog.Info("embermeter-server shutting down")
	httpSrv.Shutdown(context.Background()) //nolint:errcheck
}

// loadTables loads the static lookup tables named in config. An unset path
// yields an empty table; a set but unreadable one is fatal.
func loadTables(cfg *config.Config) (*buffs.Registry, buffs.LayerSpecs, recount.Grouper) {
	registry := buffs.NewRegistry(nil)
	if path := cfg.Tables.BuffDefinitions; path != "" {
		r, err := buffs.LoadRegistry(path)
		if err != nil {
			slog.Error("failed to load buff definitions", "err", err)
			os.Exit(1)
		}
		registry = r
	}

	layers := buffs.LayerSpecs{}
	if path := cfg.Tables.LayeredBuffs; path != "" {
		l, err := buffs.LoadLayerSpecs(path)
		if err != nil {
			slog.Error("failed to load layered buff specs", "err", err)
			os.Exit(1)
		}
		layers = l
	}

	grouper := recount.NoGroups
	if path := cfg.Tables.RecountGroups; path != "" {
		specs, err := recount.LoadGroupSpecs(path)
		if err != nil {
			slog.Error("failed to load recount groups", "err", err)
			os.Exit(1)
		}
		grouper = recount.NewStaticGrouper(specs)
	}

	slog.Info("tables loaded",
		"buff_definitions", registry.Len(),
		"layered_buffs", len(layers),
	)
	return registry, layers, grouper
}

// buildSettings resolves the active profile and row order into the
// snapshot handlers read per request.
func buildSettings(cfg *config.Config, grouper recount.Grouper) *api.Settings {
	s := &api.Settings{Grouper: grouper}
	s.Profile, s.HasProfile = cfg.ActiveProfile()
	if cfg.Server.RowOrder == "mixed" {
		s.Order = recount.OrderMixed
	}
	return s
}
