package whitelabel

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/MrEthical07/goShell/branding"
	"github.com/MrEthical07/goShell/internal/rate"
	"github.com/MrEthical07/goShell/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const maxBodyBytes = 16 << 10

// EditorRoles may change their tenant's branding.
var EditorRoles = []string{"Admin", "Reseller", "Sub-Reseller"}

// Handler serves GET and PUT on the branding resource.
type Handler struct {
	store       *Store
	defaultName string
	logger      *zap.Logger
	edits       *rate.Limiter
}

// NewHandler returns a Handler answering tenants without branding with
// defaultName. A nil logger discards logs.
func NewHandler(store *Store, defaultName string, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if defaultName == "" {
		defaultName = branding.DefaultProductName
	}
	return &Handler{store: store, defaultName: defaultName, logger: logger}
}

// LimitEdits caps PUT and DELETE at max per tenant in each window. Edits
// over the budget answer 429.
func (h *Handler) LimitEdits(client redis.UniversalClient, max int, window time.Duration) error {
	l, err := rate.New(client, rate.Config{Prefix: "wle", Max: max, Window: window})
	if err != nil {
		return err
	}
	h.edits = l
	return nil
}

// Routes mounts the handler under [branding.DefaultPath]'s parent, guarded
// by v. GET is open to every authenticated caller; PUT and DELETE require one
// of [EditorRoles].
func (h *Handler) Routes(v middleware.Verifier) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Bearer(v))
	r.Get("/my-branding", h.get)
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireRole(EditorRoles...))
		r.Use(h.limitEdits)
		r.Put("/my-branding", h.put)
		r.Delete("/my-branding", h.delete)
	})
	return r
}

func (h *Handler) limitEdits(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.edits == nil {
			next.ServeHTTP(w, r)
			return
		}
		claims, _ := middleware.ClaimsFromContext(r.Context())
		switch err := h.edits.Allow(r.Context(), claims.TID); {
		case err == nil:
			next.ServeHTTP(w, r)
		case errors.Is(err, rate.ErrRateLimited):
			http.Error(w, "too many branding edits", http.StatusTooManyRequests)
		default:
			h.logger.Warn("edit limiter unavailable",
				zap.String("tenant", claims.TID),
				zap.Error(err),
			)
			http.Error(w, "branding unavailable", http.StatusServiceUnavailable)
		}
	})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	claims, _ := middleware.ClaimsFromContext(r.Context())

	b, ok, err := h.store.Get(r.Context(), claims.TID)
	if err != nil {
		h.logger.Warn("tenant branding lookup failed",
			zap.String("tenant", claims.TID),
			zap.Error(err),
		)
		http.Error(w, "branding unavailable", http.StatusServiceUnavailable)
		return
	}
	if !ok {
		b = branding.Default(h.defaultName)
	}

	body, err := branding.EncodePayload(b)
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(body)
}

func (h *Handler) put(w http.ResponseWriter, r *http.Request) {
	claims, _ := middleware.ClaimsFromContext(r.Context())

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	b, err := branding.DecodePayload(body)
	if err != nil {
		http.Error(w, "companyName is required", http.StatusBadRequest)
		return
	}

	if err := h.store.Put(r.Context(), claims.TID, b); err != nil {
		h.logger.Warn("tenant branding update failed",
			zap.String("tenant", claims.TID),
			zap.Error(err),
		)
		http.Error(w, "branding unavailable", http.StatusServiceUnavailable)
		return
	}
	h.logger.Info("tenant branding updated",
		zap.String("tenant", claims.TID),
		zap.String("uid", claims.UID),
	)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	claims, _ := middleware.ClaimsFromContext(r.Context())
	if err := h.store.Delete(r.Context(), claims.TID); err != nil {
		http.Error(w, "branding unavailable", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
