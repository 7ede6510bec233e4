package goShell

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/MrEthical07/goShell/branding"
	"github.com/MrEthical07/goShell/navigation"
	"github.com/MrEthical07/goShell/session"
	"go.uber.org/zap"
)

// RouteSource is an observable current route. A *signal.Value[string]
// satisfies it.
type RouteSource interface {
	Get() string
	Subscribe(fn func(string)) (cancel func())
}

// View is an immutable snapshot of one client's shell state.
type View struct {
	// Generation identifies the transition the snapshot belongs to. It
	// increases on every transition and on logout.
	Generation uint64
	Route      string
	// Session is nil when no well-formed identity is persisted.
	Session    *session.Session
	Links      []navigation.Link
	Branding   branding.State
	LogoFailed bool
}

// Authenticated reports whether a session is present.
func (v View) Authenticated() bool {
	return v.Session != nil
}

// Panel returns the brand panel render decision.
func (v View) Panel() branding.Panel {
	return v.Branding.Panel(v.LogoFailed)
}

// Shell composes navigation, session and branding for one client namespace.
//
// Every route transition re-derives the session and the permitted links,
// resets branding to loading and starts a new branding resolution. A
// branding result is applied only while its transition is still the latest
// one; results of superseded transitions are discarded.
//
// Subscribers are called synchronously, outside internal locks. Under
// concurrent transitions views may arrive out of order; compare
// Generation to drop older ones.
type Shell struct {
	engine    *Engine
	resolver  *session.Resolver
	namespace string

	// navMu orders the synchronous half of transitions.
	navMu sync.Mutex

	mu          sync.Mutex
	gen         uint64
	route       string
	sess        *session.Session
	links       []navigation.Link
	brand       branding.State
	logoRef     string
	logoFailed  bool
	settled     chan struct{}
	settledDone bool
	subs        map[uint64]func(View)
	nextSub     uint64
	cancels     []func()
	closed      bool
}

type transition struct {
	gen           uint64
	view          View
	subs          []func(View)
	credential    string
	hasCredential bool
}

func newShell(e *Engine, namespace string) *Shell {
	return &Shell{
		engine:    e,
		resolver:  session.NewResolver(e.store, namespace, e.keys, e.logger),
		namespace: namespace,
		links:     []navigation.Link{},
		brand:     branding.LoadingState(e.config.Branding.DefaultName),
		settled:   make(chan struct{}),
		subs:      make(map[uint64]func(View)),
	}
}

// Namespace returns the client namespace the shell is bound to.
func (s *Shell) Namespace() string {
	return s.namespace
}

// Navigate runs a transition to route. It returns once the session and
// links are re-derived; branding resolves in the background. Use
// [Shell.WaitBranding] to wait for it.
func (s *Shell) Navigate(ctx context.Context, route string) error {
	s.navMu.Lock()
	t, err := s.begin(ctx, route)
	s.navMu.Unlock()
	if err != nil {
		return err
	}
	s.run(ctx, t)
	return nil
}

// Refresh re-runs the current route's transition. It is the reaction to a
// "session changed" signal and does nothing before the first Navigate.
func (s *Shell) Refresh(ctx context.Context) error {
	s.navMu.Lock()
	s.mu.Lock()
	started, route, closed := s.gen > 0, s.route, s.closed
	s.mu.Unlock()
	if closed {
		s.navMu.Unlock()
		return ErrShellClosed
	}
	if !started {
		s.navMu.Unlock()
		return nil
	}
	t, err := s.begin(ctx, route)
	s.navMu.Unlock()
	if err != nil {
		return err
	}
	s.run(ctx, t)
	return nil
}

// begin performs the synchronous half of a transition. Callers hold navMu.
func (s *Shell) begin(ctx context.Context, route string) (transition, error) {
	e := s.engine
	sess, ok := s.resolver.CurrentSession(ctx)
	if !ok {
		e.metricInc(MetricSessionAbsent)
	}
	credential, hasCredential := s.resolver.Credential(ctx)
	links := s.permittedLinks(sess, route)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return transition{}, ErrShellClosed
	}

	s.gen++
	s.route = route
	s.sess = sess
	s.links = links
	s.resetBrandLocked()

	e.metricInc(MetricTransition)

	return transition{
		gen:           s.gen,
		view:          s.viewLocked(),
		subs:          s.subscribersLocked(),
		credential:    credential,
		hasCredential: hasCredential,
	}, nil
}

func (s *Shell) run(ctx context.Context, t transition) {
	notify(t.subs, t.view)

	if !t.hasCredential {
		s.engine.metricInc(MetricBrandingNoCredential)
		s.settle(t.gen, branding.DegradedState(s.engine.config.Branding.DefaultName))
		return
	}

	// The fetch outlives the caller: only a newer transition or logout may
	// end its relevance.
	go s.fetch(context.WithoutCancel(ctx), t.gen, t.credential)
}

func (s *Shell) permittedLinks(sess *session.Session, route string) []navigation.Link {
	if sess == nil {
		return []navigation.Link{}
	}
	role, ok := navigation.ParseRole(sess.Role)
	if !ok {
		s.engine.metricInc(MetricRoleUnrecognized)
		s.engine.logger.Debug("session role has no navigation policy",
			zap.String("namespace", s.namespace),
			zap.String("role", sess.Role),
		)
		return []navigation.Link{}
	}
	return navigation.ResolveAll(navigation.EntriesFor(role), sess.ID, route)
}

func (s *Shell) fetch(ctx context.Context, gen uint64, credential string) {
	e := s.engine
	ctx, cancel := context.WithTimeout(ctx, e.config.Branding.Timeout)
	defer cancel()

	start := time.Now()
	b, err := e.fetcher.Fetch(ctx, credential)
	e.metrics.Observe(MetricBrandingLatency, time.Since(start))

	if err != nil {
		e.logger.Warn("branding fetch failed, using default",
			zap.String("namespace", s.namespace),
			zap.Uint64("generation", gen),
			zap.Error(err),
		)
		view, ok := s.settle(gen, branding.DegradedState(e.config.Branding.DefaultName))
		if !ok {
			e.metricInc(MetricBrandingStaleDiscarded)
			return
		}
		e.metricInc(MetricBrandingDegraded)
		e.emitAudit(context.WithoutCancel(ctx), AuditEventBrandingDegraded, s.namespace, view.Route, view.Session, err, nil)
		return
	}

	if _, ok := s.settle(gen, branding.ResolvedState(b)); !ok {
		e.metricInc(MetricBrandingStaleDiscarded)
		e.logger.Debug("discarding stale branding result",
			zap.String("namespace", s.namespace),
			zap.Uint64("generation", gen),
		)
		return
	}
	e.metricInc(MetricBrandingResolved)
}

// settle applies state if gen is still the latest transition.
func (s *Shell) settle(gen uint64, state branding.State) (View, bool) {
	s.mu.Lock()
	if s.closed || gen != s.gen {
		s.mu.Unlock()
		return View{}, false
	}
	s.setBrandLocked(state)
	if !s.settledDone {
		close(s.settled)
		s.settledDone = true
	}
	view := s.viewLocked()
	subs := s.subscribersLocked()
	s.mu.Unlock()

	notify(subs, view)
	return view, true
}

// resetBrandLocked puts branding back to Loading and arms a fresh settled
// channel, waking waiters of the previous one.
func (s *Shell) resetBrandLocked() {
	s.setBrandLocked(branding.LoadingState(s.engine.config.Branding.DefaultName))
	if !s.settledDone {
		close(s.settled)
	}
	s.settled = make(chan struct{})
	s.settledDone = false
}

func (s *Shell) setBrandLocked(state branding.State) {
	s.brand = state
	if ref := state.Branding.LogoRef(); ref != s.logoRef {
		s.logoRef = ref
		s.logoFailed = false
	}
}

// ReportLogoError records that the logo at ref failed to load, which
// downgrades the brand panel to text. It reports whether the state changed;
// reports for any ref other than the applied one are ignored.
func (s *Shell) ReportLogoError(ref string) bool {
	s.mu.Lock()
	if s.closed || ref == "" || ref != s.logoRef || s.logoFailed {
		s.mu.Unlock()
		return false
	}
	s.logoFailed = true
	view := s.viewLocked()
	subs := s.subscribersLocked()
	s.mu.Unlock()

	s.engine.metricInc(MetricLogoFallback)
	notify(subs, view)
	return true
}

// Logout deletes the client's credential and identity, invalidates any
// in-flight branding fetch, and navigates to the logged-out route, which it
// returns. A failing teardown is logged and does not stop the logout.
func (s *Shell) Logout(ctx context.Context) string {
	e := s.engine
	target := e.config.Routes.LoggedOut

	s.mu.Lock()
	s.gen++
	if !s.closed {
		s.resetBrandLocked()
	}
	sess, route := s.sess, s.route
	s.mu.Unlock()

	ctx = context.WithoutCancel(ctx)
	err := s.resolver.Teardown(ctx)
	if err != nil {
		e.metricInc(MetricTeardownFailure)
		e.logger.Error("session teardown failed",
			zap.String("namespace", s.namespace),
			zap.Error(err),
		)
	}
	e.metricInc(MetricLogout)
	e.emitAudit(ctx, AuditEventLogout, s.namespace, route, sess, err, map[string]string{
		"redirect": target,
	})

	if navErr := s.Navigate(ctx, target); navErr != nil {
		e.logger.Debug("logout navigation skipped",
			zap.String("namespace", s.namespace),
			zap.Error(navErr),
		)
	}
	return target
}

// Follow navigates to src's current route and then on every change of src.
// The returned func stops following.
func (s *Shell) Follow(ctx context.Context, src RouteSource) (cancel func()) {
	ctx = context.WithoutCancel(ctx)
	cancel = src.Subscribe(func(route string) {
		_ = s.Navigate(ctx, route)
	})
	s.track(cancel)
	_ = s.Navigate(ctx, src.Get())
	return cancel
}

// Watch refreshes the shell whenever notifier reports a change in the
// shell's namespace.
func (s *Shell) Watch(ctx context.Context, notifier session.Notifier) error {
	refreshCtx := context.WithoutCancel(ctx)
	cancel, err := notifier.Subscribe(ctx, s.namespace, func() {
		_ = s.Refresh(refreshCtx)
	})
	if err != nil {
		return err
	}
	s.track(cancel)
	return nil
}

func (s *Shell) track(cancel func()) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		cancel()
		return
	}
	s.cancels = append(s.cancels, cancel)
	s.mu.Unlock()
}

// Subscribe registers fn for every state change. The returned func removes it.
func (s *Shell) Subscribe(fn func(View)) (cancel func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextSub++
	id := s.nextSub
	s.subs[id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
		})
	}
}

// View returns the current snapshot.
func (s *Shell) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewLocked()
}

// WaitBranding blocks until the latest transition's branding has settled
// and returns the snapshot at that point.
func (s *Shell) WaitBranding(ctx context.Context) (View, error) {
	for {
		s.mu.Lock()
		if s.closed {
			s.mu.Unlock()
			return View{}, ErrShellClosed
		}
		if s.gen > 0 && s.brand.Settled() {
			v := s.viewLocked()
			s.mu.Unlock()
			return v, nil
		}
		ch := s.settled
		s.mu.Unlock()

		select {
		case <-ch:
		case <-ctx.Done():
			return s.View(), ctx.Err()
		}
	}
}

// Close drops subscriptions and invalidates in-flight fetches. Further
// transitions return [ErrShellClosed].
func (s *Shell) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.gen++
	cancels := s.cancels
	s.cancels = nil
	s.subs = make(map[uint64]func(View))
	if !s.settledDone {
		close(s.settled)
		s.settledDone = true
	}
	s.mu.Unlock()

	for _, cancel := range cancels {
		cancel()
	}
}

func (s *Shell) viewLocked() View {
	links := make([]navigation.Link, len(s.links))
	copy(links, s.links)
	return View{
		Generation: s.gen,
		Route:      s.route,
		Session:    s.sess,
		Links:      links,
		Branding:   s.brand,
		LogoFailed: s.logoFailed,
	}
}

func (s *Shell) subscribersLocked() []func(View) {
	if len(s.subs) == 0 {
		return nil
	}
	ids := make([]uint64, 0, len(s.subs))
	for id := range s.subs {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	fns := make([]func(View), 0, len(ids))
	for _, id := range ids {
		fns = append(fns, s.subs[id])
	}
	return fns
}

func notify(subs []func(View), v View) {
	for _, fn := range subs {
		fn(v)
	}
}
