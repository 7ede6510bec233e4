package web

import (
	"context"
	"errors"
	"net/http"
	"time"

	goShell "github.com/MrEthical07/goShell"
	"github.com/MrEthical07/goShell/branding"
	"github.com/MrEthical07/goShell/metrics/export/prometheus"
	"github.com/MrEthical07/goShell/view"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"go.uber.org/zap"
	g "maragu.dev/gomponents"
)

// DefaultCookieName is the cookie carrying the client namespace.
const DefaultCookieName = "goshell_client"

// ContentFunc renders an opaque slot for the current view.
type ContentFunc func(r *http.Request, v goShell.View) g.Node

// Options configures a Server.
type Options struct {
	View          view.Options
	Content       ContentFunc
	Notifications ContentFunc
	CookieName    string
	CookieSecure  bool
	// MetricsPath mounts the Prometheus handler when non-empty.
	MetricsPath string
}

// Server is an http.Handler rendering shell pages.
type Server struct {
	engine *goShell.Engine
	hub    *Hub
	opts   Options
	logger *zap.Logger
	router chi.Router
}

// NewServer returns a Server backed by hub. The view options are completed
// from the engine configuration where left empty.
func NewServer(engine *goShell.Engine, hub *Hub, opts Options) (*Server, error) {
	cfg := engine.Config()
	if opts.View.Title == "" {
		opts.View.Title = cfg.Branding.DefaultName
	}
	if opts.View.AssetOrigin == "" {
		opts.View.AssetOrigin = cfg.Branding.AssetOrigin
	}
	opts.View = opts.View.WithDefaults()
	if opts.CookieName == "" {
		opts.CookieName = DefaultCookieName
	}

	s := &Server{
		engine: engine,
		hub:    hub,
		opts:   opts,
		logger: engine.Logger(),
		router: chi.NewRouter(),
	}

	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.Recoverer)
	s.router.Use(requestLogger(s.logger))

	if opts.MetricsPath != "" {
		h, err := prometheus.Handler(engine)
		if err != nil {
			return nil, err
		}
		s.router.Method(http.MethodGet, opts.MetricsPath, h)
	}
	s.router.Get(opts.View.BrandingPath, s.handleBranding)
	s.router.Post(opts.View.LogoErrorPath, s.handleLogoError)
	s.router.Post(opts.View.LogoutPath, s.handleLogout)
	s.router.Get("/favicon.ico", http.NotFound)
	s.router.Get("/*", s.handlePage)

	return s, nil
}

// Mount attaches h under pattern, ahead of the page catch-all.
func (s *Server) Mount(pattern string, h http.Handler) {
	s.router.Mount(pattern, h)
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	ns := s.clientID(w, r)
	sh, err := s.hub.Shell(r.Context(), ns)
	if err == nil {
		err = sh.Navigate(r.Context(), r.URL.Path)
	}
	if err != nil {
		s.unavailable(w, ns, err)
		return
	}

	v := sh.View()
	s.render(w, view.Page(v, s.opts.View, view.Slots{
		Notifications: s.slot(s.opts.Notifications, r, v),
		Content:       s.slot(s.opts.Content, r, v),
	}))
}

func (s *Server) handleBranding(w http.ResponseWriter, r *http.Request) {
	sh, ok := s.lookup(r)
	if !ok {
		s.render(w, view.BrandPanel(s.fallbackView(), s.opts.View))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.engine.Config().Branding.Timeout+time.Second)
	defer cancel()
	v, err := sh.WaitBranding(ctx)
	if errors.Is(err, goShell.ErrShellClosed) {
		s.render(w, view.BrandPanel(s.fallbackView(), s.opts.View))
		return
	}
	if err != nil {
		s.logger.Debug("branding wait ended early",
			zap.String("namespace", sh.Namespace()),
			zap.Error(err),
		)
	}
	s.render(w, view.BrandPanel(v, s.opts.View))
}

func (s *Server) handleLogoError(w http.ResponseWriter, r *http.Request) {
	sh, ok := s.lookup(r)
	if !ok {
		s.render(w, view.BrandPanel(s.fallbackView(), s.opts.View))
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}
	sh.ReportLogoError(r.PostForm.Get("ref"))
	s.render(w, view.BrandPanel(sh.View(), s.opts.View))
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	ns := s.clientID(w, r)
	sh, err := s.hub.Shell(r.Context(), ns)
	if err != nil {
		s.unavailable(w, ns, err)
		return
	}
	target := sh.Logout(r.Context())
	http.Redirect(w, r, target, http.StatusSeeOther)
}

func (s *Server) lookup(r *http.Request) (*goShell.Shell, bool) {
	c, err := r.Cookie(s.opts.CookieName)
	if err != nil || !validClientID(c.Value) {
		return nil, false
	}
	return s.hub.Lookup(c.Value)
}

// clientID returns the request's client namespace, issuing a new one when
// the cookie is missing or malformed.
func (s *Server) clientID(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(s.opts.CookieName); err == nil && validClientID(c.Value) {
		return c.Value
	}
	id := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     s.opts.CookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.opts.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	return id
}

func validClientID(v string) bool {
	_, err := uuid.Parse(v)
	return err == nil
}

func (s *Server) fallbackView() goShell.View {
	return goShell.View{Branding: branding.DegradedState(s.engine.Config().Branding.DefaultName)}
}

func (s *Server) slot(fn ContentFunc, r *http.Request, v goShell.View) g.Node {
	if fn == nil {
		return nil
	}
	return fn(r, v)
}

func (s *Server) render(w http.ResponseWriter, n g.Node) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	if err := n.Render(w); err != nil {
		s.logger.Warn("render failed", zap.Error(err))
	}
}

func (s *Server) unavailable(w http.ResponseWriter, ns string, err error) {
	s.logger.Warn("shell unavailable", zap.String("namespace", ns), zap.Error(err))
	http.Error(w, "shell unavailable", http.StatusServiceUnavailable)
}

func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.Info("request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", middleware.GetReqID(r.Context())),
			)
		})
	}
}
