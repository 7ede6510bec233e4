package session

import (
	"context"

	"go.uber.org/zap"
)

// Resolver reads one client namespace. It is cheap to construct and holds no
// cached state: every call reads the store.
type Resolver struct {
	store     Store
	namespace string
	keys      Keys
	logger    *zap.Logger
}

// NewResolver binds a [Resolver] to namespace. A nil logger discards logs.
func NewResolver(store Store, namespace string, keys Keys, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{
		store:     store,
		namespace: namespace,
		keys:      keys,
		logger:    logger,
	}
}

// Namespace returns the bound client namespace.
func (r *Resolver) Namespace() string {
	return r.namespace
}

// CurrentSession returns the persisted session, or ok=false when the record
// is missing, unparsable, incomplete, or the store is unreachable.
func (r *Resolver) CurrentSession(ctx context.Context) (*Session, bool) {
	raw, ok, err := r.store.Get(ctx, r.namespace, r.keys.Identity)
	if err != nil {
		r.logger.Warn("session store read failed",
			zap.String("namespace", r.namespace),
			zap.Error(err),
		)
		return nil, false
	}
	if !ok {
		return nil, false
	}

	s, err := DecodeIdentity(raw)
	if err != nil {
		r.logger.Debug("discarding invalid identity record",
			zap.String("namespace", r.namespace),
			zap.Error(err),
		)
		return nil, false
	}
	return s, true
}

// Credential returns the persisted bearer credential. An empty value counts
// as absent.
func (r *Resolver) Credential(ctx context.Context) (string, bool) {
	token, ok, err := r.store.Get(ctx, r.namespace, r.keys.Credential)
	if err != nil {
		r.logger.Warn("session store read failed",
			zap.String("namespace", r.namespace),
			zap.Error(err),
		)
		return "", false
	}
	if !ok || token == "" {
		return "", false
	}
	return token, true
}

// Teardown deletes the identity record and the credential. It is idempotent.
// The returned error is diagnostic only.
func (r *Resolver) Teardown(ctx context.Context) error {
	return r.store.Delete(ctx, r.namespace, r.keys.Credential, r.keys.Identity)
}
