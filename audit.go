package goShell

import (
	"context"
	"io"
	"time"

	"github.com/MrEthical07/goShell/internal/audit"
	"github.com/MrEthical07/goShell/session"
	"go.uber.org/zap"
)

// AuditEvent is the record emitted for logouts and degraded branding.
type AuditEvent = audit.Event

// AuditSink receives audit events from the engine's dispatcher.
type AuditSink = audit.Sink

// NoOpSink drops audit events.
type NoOpSink = audit.NoOpSink

// ChannelSink buffers audit events in a channel.
type ChannelSink = audit.ChannelSink

// JSONWriterSink writes one JSON object per line.
type JSONWriterSink = audit.JSONWriterSink

// ZapSink logs audit events through a zap logger.
type ZapSink = audit.ZapSink

const (
	// AuditEventLogout is emitted once per Logout.
	AuditEventLogout = audit.EventLogout
	// AuditEventBrandingDegraded is emitted when a branding fetch fails.
	AuditEventBrandingDegraded = audit.EventBrandingDegraded
)

// NewChannelSink returns a sink backed by a channel of size buffer.
func NewChannelSink(buffer int) *ChannelSink {
	return audit.NewChannelSink(buffer)
}

// NewJSONWriterSink returns a sink writing JSON lines to w.
func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return audit.NewJSONWriterSink(w)
}

// NewZapSink returns a sink logging each event under the message "audit".
func NewZapSink(logger *zap.Logger) *ZapSink {
	return audit.NewZapSink(logger)
}

func (e *Engine) emitAudit(ctx context.Context, eventType, namespace, route string, sess *session.Session, err error, metadata map[string]string) {
	if e == nil || e.audit == nil {
		return
	}
	event := AuditEvent{
		Timestamp: time.Now().UTC(),
		EventType: eventType,
		Namespace: namespace,
		Route:     route,
		Success:   err == nil,
		Metadata:  metadata,
	}
	if sess != nil {
		event.UserID = sess.ID
		event.Role = sess.Role
	}
	if err != nil {
		event.Error = err.Error()
	}
	e.audit.Emit(ctx, event)
}
