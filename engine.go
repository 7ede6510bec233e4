package goShell

import (
	"github.com/MrEthical07/goShell/branding"
	"github.com/MrEthical07/goShell/internal/audit"
	"github.com/MrEthical07/goShell/session"
	"go.uber.org/zap"
)

// Engine holds the dependencies shared by every client's [Shell]. It is safe
// for concurrent use.
type Engine struct {
	config  Config
	store   session.Store
	fetcher branding.Fetcher
	logger  *zap.Logger
	keys    session.Keys
	audit   *audit.Dispatcher
	metrics *Metrics
}

// Open returns a Shell bound to one client namespace. The Shell starts with
// no route; call [Shell.Navigate] to run the first transition.
func (e *Engine) Open(namespace string) *Shell {
	return newShell(e, namespace)
}

// Config returns a copy of the validated configuration.
func (e *Engine) Config() Config {
	return e.config
}

// Logger returns the engine logger.
func (e *Engine) Logger() *zap.Logger {
	return e.logger
}

// Store returns the persisted client store.
func (e *Engine) Store() session.Store {
	return e.store
}

// Close flushes the audit dispatcher. Shells opened from the engine keep
// working but stop emitting audit events.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.audit != nil {
		e.audit.Close()
	}
}

// AuditDropped reports how many audit events were dropped on a full buffer.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

// MetricsSnapshot returns a point-in-time copy of the counters.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return emptySnapshot()
	}
	return e.metrics.Snapshot()
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}
