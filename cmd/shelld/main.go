// shelld serves the role-scoped application shell over HTTP.
//
// Client identity and credentials are read from Redis under the configured
// key prefix, one namespace per browser client. With no --redis-addr (and no
// REDIS_ADDR in the environment) an in-process miniredis is used, which is
// only useful for local development.
//
// --dev-whitelabel additionally serves the branding endpoint from the same
// process, backed by the same Redis, and verifies bearer credentials with an
// HS256 secret.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	goShell "github.com/MrEthical07/goShell"
	"github.com/MrEthical07/goShell/jwt"
	"github.com/MrEthical07/goShell/session"
	"github.com/MrEthical07/goShell/web"
	"github.com/MrEthical07/goShell/whitelabel"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

type options struct {
	configPath    string
	listen        string
	redisAddr     string
	logLevel      string
	logFormat     string
	idleTTL       time.Duration
	sweepInterval time.Duration
	metricsPath   string
	latency       bool
	cookieSecure  bool
	auditLog      string
	devWhitelabel bool
	jwtSecret     string
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var opts options
	flagSet := pflag.NewFlagSet("shelld", pflag.ContinueOnError)
	flagSet.StringVarP(&opts.configPath, "config", "c", "", "YAML config file (defaults apply when empty)")
	flagSet.StringVar(&opts.listen, "listen", ":8080", "HTTP listen address")
	flagSet.StringVar(&opts.redisAddr, "redis-addr", "", "redis address; if empty, REDIS_ADDR env or miniredis is used")
	flagSet.StringVar(&opts.logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	flagSet.StringVar(&opts.logFormat, "log-format", "json", "log format (json or console)")
	flagSet.DurationVar(&opts.idleTTL, "idle-ttl", 30*time.Minute, "close client shells idle for longer than this; 0 keeps them")
	flagSet.DurationVar(&opts.sweepInterval, "sweep-interval", time.Minute, "how often idle shells are swept")
	flagSet.StringVar(&opts.metricsPath, "metrics-path", "/metrics", "Prometheus endpoint; empty disables it")
	flagSet.BoolVar(&opts.latency, "latency-histograms", false, "record the branding fetch latency histogram (overrides the config file)")
	flagSet.BoolVar(&opts.cookieSecure, "cookie-secure", false, "mark the client cookie Secure")
	flagSet.StringVar(&opts.auditLog, "audit-log", "", "audit destination: stdout (JSON lines) or log; empty disables audit")
	flagSet.BoolVar(&opts.devWhitelabel, "dev-whitelabel", false, "serve the branding endpoint from this process")
	flagSet.StringVar(&opts.jwtSecret, "jwt-secret", "", "HS256 secret for --dev-whitelabel (or JWT_SECRET env)")

	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}
	if args := flagSet.Args(); len(args) > 0 {
		return fmt.Errorf("unexpected argument: %s", args[0])
	}

	cfg := goShell.DefaultConfig()
	if opts.configPath != "" {
		loaded, err := goShell.LoadConfig(opts.configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}

	logger, err := newLogger(opts.logLevel, opts.logFormat)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	if opts.devWhitelabel && opts.configPath == "" {
		// Point the branding fetch at this process.
		cfg.Branding.BaseURL = localOrigin(opts.listen)
	}
	var sink goShell.AuditSink
	switch opts.auditLog {
	case "":
	case "stdout":
		sink = goShell.NewJSONWriterSink(os.Stdout)
	case "log":
		sink = goShell.NewZapSink(logger.Named("audit"))
	default:
		return fmt.Errorf("--audit-log must be stdout or log, got %q", opts.auditLog)
	}
	if sink != nil {
		cfg.Audit.Enabled = true
	}
	for _, f := range cfg.Lint() {
		logger.Warn("config lint", zap.String("code", f.Code), zap.String("message", f.Message))
	}

	client, cleanup, err := newRedis(opts.redisAddr, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	store := session.NewRedisStore(client, cfg.Session.KeyPrefix)
	defer func() { _ = store.Close() }()

	builder := goShell.New().
		WithConfig(cfg).
		WithStore(store).
		WithLogger(logger).
		WithAuditSink(sink)
	if opts.metricsPath != "" {
		// A scrape endpoint over disabled counters would only serve zeros.
		builder.WithMetricsEnabled(true)
	}
	if flagSet.Changed("latency-histograms") {
		builder.WithLatencyHistograms(opts.latency)
	}
	engine, err := builder.Build()
	if err != nil {
		return err
	}
	defer engine.Close()

	hub := web.NewHub(engine, opts.idleTTL)
	defer hub.Close()

	srv, err := web.NewServer(engine, hub, web.Options{
		CookieSecure: opts.cookieSecure,
		MetricsPath:  opts.metricsPath,
	})
	if err != nil {
		return err
	}

	if opts.devWhitelabel {
		h, err := newWhitelabel(client, cfg, opts.jwtSecret, logger)
		if err != nil {
			return err
		}
		srv.Mount("/api/whitelabel", h)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go hub.Run(ctx, opts.sweepInterval)

	httpServer := &http.Server{
		Addr:              opts.listen,
		Handler:           srv,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", opts.listen))
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	logger.Info("shutting down")
	return httpServer.Shutdown(shutdownCtx)
}

func newLogger(level, format string) (*zap.Logger, error) {
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	var zc zap.Config
	switch format {
	case "json":
		zc = zap.NewProductionConfig()
	case "console":
		zc = zap.NewDevelopmentConfig()
	default:
		return nil, fmt.Errorf("log format must be json or console, got %q", format)
	}
	zc.Level = lvl
	return zc.Build()
}

func newRedis(addr string, logger *zap.Logger) (redis.UniversalClient, func(), error) {
	if addr == "" {
		addr = os.Getenv("REDIS_ADDR")
	}
	if addr != "" {
		client := redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{addr}})
		logger.Info("using redis", zap.String("addr", addr))
		return client, func() { _ = client.Close() }, nil
	}

	mr, err := miniredis.Run()
	if err != nil {
		return nil, nil, fmt.Errorf("start miniredis: %w", err)
	}
	client := redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{mr.Addr()}})
	logger.Warn("using in-process miniredis", zap.String("addr", mr.Addr()))
	return client, func() {
		_ = client.Close()
		mr.Close()
	}, nil
}

func newWhitelabel(client redis.UniversalClient, cfg goShell.Config, secret string, logger *zap.Logger) (http.Handler, error) {
	if secret == "" {
		secret = os.Getenv("JWT_SECRET")
	}
	manager, err := jwt.NewManager(jwt.Config{
		TTL:           24 * time.Hour,
		SigningMethod: jwt.MethodHS256,
		PrivateKey:    []byte(secret),
	})
	if err != nil {
		return nil, fmt.Errorf("whitelabel: %w", err)
	}
	h := whitelabel.NewHandler(whitelabel.NewStore(client, ""), cfg.Branding.DefaultName, logger)
	if err := h.LimitEdits(client, 30, time.Hour); err != nil {
		return nil, err
	}
	return h.Routes(manager), nil
}

func localOrigin(listen string) string {
	if len(listen) > 0 && listen[0] == ':' {
		return "http://127.0.0.1" + listen
	}
	return "http://" + listen
}
