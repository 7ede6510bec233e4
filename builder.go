package goShell

import (
	"net/http"

	"github.com/MrEthical07/goShell/branding"
	"github.com/MrEthical07/goShell/internal/audit"
	"github.com/MrEthical07/goShell/session"
	"go.uber.org/zap"
)

// Builder assembles an [Engine]. It is single-use.
type Builder struct {
	config  Config
	store   session.Store
	fetcher branding.Fetcher
	logger  *zap.Logger

	auditSink AuditSink

	built bool
}

// New returns a Builder holding [DefaultConfig].
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig replaces the whole configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cfg
	return b
}

// WithStore sets the persisted client store. Required.
func (b *Builder) WithStore(store session.Store) *Builder {
	b.store = store
	return b
}

// WithFetcher overrides the branding fetcher. When unset, Build creates a
// [branding.HTTPClient] from the Branding config section.
func (b *Builder) WithFetcher(f branding.Fetcher) *Builder {
	b.fetcher = f
	return b
}

// WithLogger sets the logger shared by every Shell. Defaults to a no-op logger.
func (b *Builder) WithLogger(logger *zap.Logger) *Builder {
	b.logger = logger
	return b
}

// WithAuditSink sets the audit destination. It has effect only when
// Audit.Enabled is true.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithMetricsEnabled toggles in-process counters. A later WithConfig
// replaces it.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithLatencyHistograms toggles the branding fetch latency histogram. A
// later WithConfig replaces it.
func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration and returns the Engine.
//
// Build returns [ErrBuilderUsed] on a second call, [ErrStoreRequired] when
// no store was set, and an error wrapping [ErrInvalidConfig] for bad
// configuration.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, ErrBuilderUsed
	}
	if b.store == nil {
		return nil, ErrStoreRequired
	}

	cfg := b.config
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := b.logger
	if logger == nil {
		logger = zap.NewNop()
	}

	fetcher := b.fetcher
	if fetcher == nil {
		fetcher = branding.NewHTTPClient(
			cfg.Branding.BaseURL,
			cfg.Branding.Path,
			&http.Client{Timeout: cfg.Branding.Timeout},
		)
	}

	engine := &Engine{
		config:  cfg,
		store:   b.store,
		fetcher: fetcher,
		logger:  logger,
		keys: session.Keys{
			Identity:   cfg.Session.IdentityKey,
			Credential: cfg.Session.CredentialKey,
		},
		metrics: NewMetrics(cfg.Metrics),
	}
	engine.audit = audit.NewDispatcher(audit.Config{
		Enabled:    cfg.Audit.Enabled,
		BufferSize: cfg.Audit.BufferSize,
		DropIfFull: cfg.Audit.DropIfFull,
		OnDrop: func(ev audit.Event) {
			logger.Debug("audit event dropped", zap.String("event_type", ev.EventType))
		},
	}, b.auditSink)

	b.built = true

	return engine, nil
}
