package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/godbus/dbus/v5"
	"gopkg.in/yaml.v3"

	"growbridge/internal/backend"
	"growbridge/internal/bridge"
	"growbridge/internal/gatt"
	"growbridge/internal/store"
	"growbridge/internal/web"
)

// version is set at build time via -ldflags "-X main.version=..."
var version = "dev"

type Config struct {
	Backend struct {
		RESTBaseURL string `yaml:"rest_base_url"`
		RPCService  string `yaml:"rpc_service"`
		RPCPath     string `yaml:"rpc_path"`
		Timeout     string `yaml:"timeout"`
	} `yaml:"backend"`
	Bridge struct {
		EnableFan bool   `yaml:"enable_fan"`
		LocalName string `yaml:"local_name"`
	} `yaml:"bridge"`
	Web struct {
		Listen         string   `yaml:"listen"`
		APIKey         string   `yaml:"api_key"`
		AllowedOrigins []string `yaml:"allowed_origins"`
	} `yaml:"web"`
	Store struct {
		Path string `yaml:"path"`
	} `yaml:"store"`
	MQTT struct {
		Enabled     bool   `yaml:"enabled"`
		Broker      string `yaml:"broker"`
		Username    string `yaml:"username"`
		Password    string `yaml:"password"`
		TopicPrefix string `yaml:"topic_prefix"`
	} `yaml:"mqtt"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
}

func (c *Config) validate() error {
	if _, err := time.ParseDuration(c.Backend.Timeout); err != nil {
		return fmt.Errorf("backend.timeout: %w", err)
	}
	if !dbus.ObjectPath(c.Backend.RPCPath).IsValid() {
		return fmt.Errorf("backend.rpc_path %q is not a valid object path", c.Backend.RPCPath)
	}
	if c.MQTT.Enabled && c.MQTT.Broker == "" {
		return fmt.Errorf("mqtt.broker is required when mqtt is enabled")
	}
	return nil
}

func main() {
	// Temporary logger for config loading errors.
	bootLogger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	cfgPath := "config.yaml"
	if len(os.Args) > 1 {
		cfgPath = os.Args[1]
	}

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		bootLogger.Error("load config", "err", err)
		os.Exit(1)
	}

	if err := cfg.validate(); err != nil {
		bootLogger.Error("invalid config", "err", err)
		os.Exit(1)
	}

	logger := newLogger(cfg)
	slog.SetDefault(logger)
	logger.Info("growbridge starting", "version", version)

	timeout, _ := time.ParseDuration(cfg.Backend.Timeout)

	db, err := store.NewBoltStore(cfg.Store.Path)
	if err != nil {
		logger.Error("open store", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	// The protocol stack lives on the system bus; the grow-box controller
	// answers RPC on the session bus.
	systemBus, err := dbus.ConnectSystemBus()
	if err != nil {
		logger.Error("connect system bus", "err", err)
		os.Exit(1)
	}
	defer systemBus.Close()

	sessionBus, err := dbus.ConnectSessionBus()
	if err != nil {
		logger.Error("connect session bus", "err", err)
		os.Exit(1)
	}
	defer sessionBus.Close()

	restClient := backend.NewRESTClient(cfg.Backend.RESTBaseURL, timeout, logger)
	rpcClient := backend.NewDBusClient(sessionBus, cfg.Backend.RPCService, cfg.Backend.RPCPath, timeout, logger)

	events := bridge.NewEventBus(logger)
	svc := bridge.NewService(bridge.Config{EnableFan: cfg.Bridge.EnableFan}, bridge.Deps{
		REST:   restClient,
		RPC:    rpcClient,
		Store:  db,
		Events: events,
		Logger: logger,
	})
	logger.Info("attribute tree built", "attributes", len(svc.Attributes), "fan", cfg.Bridge.EnableFan)

	app := gatt.NewApplication(svc, logger, timeout)
	adv := gatt.NewAdvertisement(cfg.Bridge.LocalName, []string{svc.UUID}, logger)
	agent := gatt.NewAgent(logger)
	boot := gatt.NewBootstrap(systemBus, app, adv, agent, events, logger)

	var webOpts []web.ServerOption
	if cfg.Web.APIKey != "" {
		webOpts = append(webOpts, web.WithAPIKey(cfg.Web.APIKey))
	}
	if len(cfg.Web.AllowedOrigins) > 0 {
		webOpts = append(webOpts, web.WithAllowedOrigins(cfg.Web.AllowedOrigins))
	}
	webOpts = append(webOpts,
		web.WithVersion(version),
		web.WithStateFunc(func() string { return boot.State().String() }),
	)

	webServer := web.NewServer(svc, events, logger, webOpts...)

	httpServer := &http.Server{
		Addr:         cfg.Web.Listen,
		Handler:      webServer,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("web server starting", "addr", cfg.Web.Listen)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", "err", err)
		}
	}()

	// Telemetry is a no-op when built with the no_mqtt tag.
	telemetry := initTelemetry(events, cfg, logger)

	// Bring the peripheral up. Any failure here is fatal: a half-registered
	// peripheral is worse than a dead process a supervisor can restart.
	bootCtx, bootCancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := boot.Run(bootCtx); err != nil {
		bootCancel()
		logger.Error("bootstrap failed", "state", boot.State().String(), "err", err)
		os.Exit(1)
	}
	bootCancel()
	logger.Info("peripheral up", "name", cfg.Bridge.LocalName)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	signal.Stop(sigCh)
	logger.Info("shutting down", "signal", sig)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	telemetry.Stop()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown", "err", err)
	}
	webServer.Stop()

	logger.Info("goodbye")
}

func loadConfig(path string) (*Config, error) {
	var cfg Config
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	case os.IsNotExist(err):
		// Every setting has a default; a missing config file is fine.
	default:
		return nil, fmt.Errorf("read config: %w", err)
	}

	if cfg.Backend.RESTBaseURL == "" {
		cfg.Backend.RESTBaseURL = "http://127.0.0.1:8000"
	}
	if cfg.Backend.RPCService == "" {
		cfg.Backend.RPCService = backend.DefaultRPCService
	}
	if cfg.Backend.RPCPath == "" {
		cfg.Backend.RPCPath = backend.DefaultRPCPath
	}
	if cfg.Backend.Timeout == "" {
		cfg.Backend.Timeout = "5s"
	}
	if cfg.Bridge.LocalName == "" {
		cfg.Bridge.LocalName = "Gr0G"
	}
	if cfg.Web.Listen == "" {
		cfg.Web.Listen = "127.0.0.1:8080"
	}
	if cfg.Store.Path == "" {
		cfg.Store.Path = "growbridge.db"
	}
	if cfg.MQTT.TopicPrefix == "" {
		cfg.MQTT.TopicPrefix = "growbridge"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
	return &cfg, nil
}

func newLogger(cfg *Config) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(cfg.Log.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	switch strings.ToLower(cfg.Log.Format) {
	case "json":
		handler = slog.NewJSONHandler(os.Stdout, opts)
	default:
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	return slog.New(handler)
}
