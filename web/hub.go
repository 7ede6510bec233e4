package web

import (
	"context"
	"sync"
	"time"

	goShell "github.com/MrEthical07/goShell"
	"github.com/MrEthical07/goShell/session"
	"go.uber.org/zap"
)

// Hub owns one Shell per client namespace.
type Hub struct {
	engine *goShell.Engine
	ttl    time.Duration
	now    func() time.Time

	mu     sync.Mutex
	shells map[string]*hubEntry
	closed bool
}

type hubEntry struct {
	shell    *goShell.Shell
	lastSeen time.Time
}

// NewHub returns a Hub opening shells from engine. Shells unused for longer
// than ttl are closed by [Hub.Sweep]; ttl <= 0 disables sweeping.
func NewHub(engine *goShell.Engine, ttl time.Duration) *Hub {
	return &Hub{
		engine: engine,
		ttl:    ttl,
		now:    time.Now,
		shells: make(map[string]*hubEntry),
	}
}

// Shell returns the shell for namespace, opening it on first use. When the
// engine's store can report changes, the new shell watches it so that
// identity updates made elsewhere refresh the view.
func (h *Hub) Shell(ctx context.Context, namespace string) (*goShell.Shell, error) {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil, goShell.ErrShellClosed
	}
	if e, ok := h.shells[namespace]; ok {
		e.lastSeen = h.now()
		h.mu.Unlock()
		return e.shell, nil
	}
	sh := h.engine.Open(namespace)
	h.shells[namespace] = &hubEntry{shell: sh, lastSeen: h.now()}
	h.mu.Unlock()

	if n, ok := h.engine.Store().(session.Notifier); ok {
		if err := sh.Watch(context.WithoutCancel(ctx), n); err != nil {
			h.engine.Logger().Warn("session watch unavailable",
				zap.String("namespace", namespace),
				zap.Error(err),
			)
		}
	}
	return sh, nil
}

// Lookup returns the shell for namespace without opening one.
func (h *Hub) Lookup(namespace string) (*goShell.Shell, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	e, ok := h.shells[namespace]
	if !ok {
		return nil, false
	}
	e.lastSeen = h.now()
	return e.shell, true
}

// Len reports the number of open shells.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.shells)
}

// Sweep closes shells idle for longer than the TTL and returns how many it
// closed.
func (h *Hub) Sweep() int {
	if h.ttl <= 0 {
		return 0
	}
	cutoff := h.now().Add(-h.ttl)

	h.mu.Lock()
	var idle []*goShell.Shell
	for ns, e := range h.shells {
		if e.lastSeen.Before(cutoff) {
			idle = append(idle, e.shell)
			delete(h.shells, ns)
		}
	}
	h.mu.Unlock()

	for _, sh := range idle {
		sh.Close()
	}
	return len(idle)
}

// Run sweeps every interval until ctx is done.
func (h *Hub) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 || h.ttl <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := h.Sweep(); n > 0 {
				h.engine.Logger().Debug("closed idle shells", zap.Int("count", n))
			}
		}
	}
}

// Close closes every shell. Later calls to [Hub.Shell] fail.
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	shells := h.shells
	h.shells = make(map[string]*hubEntry)
	h.mu.Unlock()

	for _, e := range shells {
		e.shell.Close()
	}
}
