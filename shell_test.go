package goShell

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/MrEthical07/goShell/branding"
	"github.com/MrEthical07/goShell/internal/signal"
	"github.com/MrEthical07/goShell/navigation"
	"github.com/MrEthical07/goShell/session"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type fetchReply struct {
	branding branding.Branding
	err      error
}

type fetchCall struct {
	credential string
	reply      chan fetchReply
}

// scriptedFetcher blocks every Fetch until the test replies to it.
type scriptedFetcher struct {
	calls chan *fetchCall
}

func newScriptedFetcher() *scriptedFetcher {
	return &scriptedFetcher{calls: make(chan *fetchCall, 16)}
}

func (f *scriptedFetcher) Fetch(ctx context.Context, credential string) (branding.Branding, error) {
	c := &fetchCall{credential: credential, reply: make(chan fetchReply, 1)}
	f.calls <- c
	select {
	case r := <-c.reply:
		return r.branding, r.err
	case <-ctx.Done():
		return branding.Branding{}, ctx.Err()
	}
}

func (f *scriptedFetcher) next(t *testing.T) *fetchCall {
	t.Helper()
	select {
	case c := <-f.calls:
		return c
	case <-time.After(2 * time.Second):
		t.Fatal("expected a branding fetch")
		return nil
	}
}

func (f *scriptedFetcher) expectNone(t *testing.T) {
	t.Helper()
	select {
	case c := <-f.calls:
		t.Fatalf("unexpected branding fetch with credential %q", c.credential)
	case <-time.After(50 * time.Millisecond):
	}
}

type failingDeleteStore struct {
	*session.MemoryStore
}

func (s failingDeleteStore) Delete(context.Context, string, ...string) error {
	return session.ErrStoreUnavailable
}

// gatedDeleteStore holds Delete until release is closed.
type gatedDeleteStore struct {
	*session.MemoryStore
	entered chan struct{}
	release chan struct{}
}

func (s gatedDeleteStore) Delete(ctx context.Context, namespace string, keys ...string) error {
	s.entered <- struct{}{}
	<-s.release
	return s.MemoryStore.Delete(ctx, namespace, keys...)
}

func strPtr(s string) *string { return &s }

func acme(logo string) branding.Branding {
	b := branding.Branding{CompanyName: "Acme"}
	if logo != "" {
		b.CompanyLogoRef = strPtr(logo)
	}
	return b
}

func newTestEngine(t *testing.T, store session.Store, fetcher branding.Fetcher, logger *zap.Logger) *Engine {
	t.Helper()
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg := DefaultConfig()
	cfg.Branding.Timeout = 2 * time.Second
	engine, err := New().
		WithConfig(cfg).
		WithStore(store).
		WithFetcher(fetcher).
		WithLogger(logger).
		Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	t.Cleanup(engine.Close)
	return engine
}

func seedSession(t *testing.T, store session.Store, ns string, sess *session.Session, token string) {
	t.Helper()
	raw, err := session.EncodeIdentity(sess)
	if err != nil {
		t.Fatalf("EncodeIdentity: %v", err)
	}
	ctx := context.Background()
	if err := store.Set(ctx, ns, "user", raw); err != nil {
		t.Fatalf("Set identity: %v", err)
	}
	if token != "" {
		if err := store.Set(ctx, ns, "token", token); err != nil {
			t.Fatalf("Set token: %v", err)
		}
	}
}

func waitSettled(t *testing.T, sh *Shell) View {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	v, err := sh.WaitBranding(ctx)
	if err != nil {
		t.Fatalf("WaitBranding: %v", err)
	}
	return v
}

func waitCounter(t *testing.T, engine *Engine, id MetricID, want uint64) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for engine.MetricsSnapshot().Counters[id] != want {
		if time.Now().After(deadline) {
			t.Fatalf("counter %d: expected %d, got %d", id, want, engine.MetricsSnapshot().Counters[id])
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestNavigateAdminUsersEndToEnd(t *testing.T) {
	store := session.NewMemoryStore()
	fetcher := newScriptedFetcher()
	engine := newTestEngine(t, store, fetcher, nil)
	seedSession(t, store, "c1", &session.Session{ID: "u1", Name: "Ann", Role: "Admin"}, "tok-1")

	sh := engine.Open("c1")
	defer sh.Close()

	if err := sh.Navigate(context.Background(), "/users"); err != nil {
		t.Fatalf("Navigate: %v", err)
	}

	v := sh.View()
	if v.Branding.Phase != branding.Loading {
		t.Fatalf("expected loading right after navigate, got %s", v.Branding.Phase)
	}
	if v.Panel().Kind != branding.PanelPlaceholder {
		t.Fatal("expected placeholder panel while loading")
	}
	if !v.Authenticated() || v.Session.ID != "u1" {
		t.Fatalf("unexpected session %+v", v.Session)
	}
	if len(v.Links) != len(navigation.EntriesFor(navigation.RoleAdmin)) {
		t.Fatalf("expected full admin nav, got %d links", len(v.Links))
	}
	active := 0
	for _, l := range v.Links {
		if l.Active {
			active++
			if l.Path != "/users" || l.Label != "Users" {
				t.Fatalf("wrong active link %+v", l)
			}
		}
		if l.Label == "My Profile" && l.Path != "/profile/u1" {
			t.Fatalf("profile path not bound to user: %q", l.Path)
		}
	}
	if active != 1 {
		t.Fatalf("expected exactly one active link, got %d", active)
	}

	call := fetcher.next(t)
	if call.credential != "tok-1" {
		t.Fatalf("expected credential tok-1, got %q", call.credential)
	}
	call.reply <- fetchReply{branding: acme("/uploads/acme.png")}

	v = waitSettled(t, sh)
	if v.Branding.Phase != branding.Resolved || v.Branding.Branding.CompanyName != "Acme" {
		t.Fatalf("unexpected branding %+v", v.Branding)
	}
	p := v.Panel()
	if p.Kind != branding.PanelLogo || p.LogoRef != "/uploads/acme.png" {
		t.Fatalf("expected logo panel, got %+v", p)
	}

	waitCounter(t, engine, MetricBrandingResolved, 1)
	waitCounter(t, engine, MetricTransition, 1)
}

func TestStaleBrandingResponseIsDiscarded(t *testing.T) {
	store := session.NewMemoryStore()
	fetcher := newScriptedFetcher()
	engine := newTestEngine(t, store, fetcher, nil)
	seedSession(t, store, "c1", &session.Session{ID: "u1", Role: "Reseller"}, "tok")

	sh := engine.Open("c1")
	defer sh.Close()

	ctx := context.Background()
	_ = sh.Navigate(ctx, "/users")
	first := fetcher.next(t)
	_ = sh.Navigate(ctx, "/campaigns")
	second := fetcher.next(t)

	// The later transition settles first; the earlier reply arrives last.
	second.reply <- fetchReply{branding: acme("")}
	v := waitSettled(t, sh)
	if v.Branding.Branding.CompanyName != "Acme" {
		t.Fatalf("expected Acme, got %+v", v.Branding)
	}

	first.reply <- fetchReply{branding: branding.Branding{CompanyName: "Old Co"}}
	waitCounter(t, engine, MetricBrandingStaleDiscarded, 1)

	v = sh.View()
	if v.Route != "/campaigns" || v.Branding.Branding.CompanyName != "Acme" {
		t.Fatalf("stale result overwrote state: %+v", v)
	}
}

func TestNoCredentialSkipsFetch(t *testing.T) {
	store := session.NewMemoryStore()
	fetcher := newScriptedFetcher()
	engine := newTestEngine(t, store, fetcher, nil)
	seedSession(t, store, "c1", &session.Session{ID: "u1", Role: "User"}, "")

	sh := engine.Open("c1")
	defer sh.Close()
	_ = sh.Navigate(context.Background(), "/user-dashboard")

	v := sh.View()
	if v.Branding.Phase != branding.Degraded {
		t.Fatalf("expected degraded without credential, got %s", v.Branding.Phase)
	}
	if v.Branding.Branding.CompanyName != branding.DefaultProductName {
		t.Fatalf("expected default product name, got %q", v.Branding.Branding.CompanyName)
	}
	fetcher.expectNone(t)

	if got := engine.MetricsSnapshot().Counters[MetricBrandingNoCredential]; got != 1 {
		t.Fatalf("expected no-credential counter 1, got %d", got)
	}
}

func TestBrandingFailureDegradesAndLogs(t *testing.T) {
	store := session.NewMemoryStore()
	fetcher := newScriptedFetcher()
	core, logs := observer.New(zapcore.WarnLevel)
	engine := newTestEngine(t, store, fetcher, zap.New(core))
	seedSession(t, store, "c1", &session.Session{ID: "u1", Role: "Admin"}, "tok")

	sh := engine.Open("c1")
	defer sh.Close()
	_ = sh.Navigate(context.Background(), "/admin")
	fetcher.next(t).reply <- fetchReply{err: branding.ErrRejected}

	v := waitSettled(t, sh)
	if v.Branding.Phase != branding.Degraded || v.Panel().Kind != branding.PanelText {
		t.Fatalf("expected degraded text panel, got %+v", v.Panel())
	}
	if logs.FilterMessage("branding fetch failed, using default").Len() != 1 {
		t.Fatalf("expected one warning, got %v", logs.All())
	}
	waitCounter(t, engine, MetricBrandingDegraded, 1)
}

func TestSlowBrandingFetchTimesOut(t *testing.T) {
	store := session.NewMemoryStore()
	fetcher := newScriptedFetcher()
	cfg := DefaultConfig()
	cfg.Branding.Timeout = 50 * time.Millisecond
	engine, err := New().WithConfig(cfg).WithStore(store).WithFetcher(fetcher).Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	defer engine.Close()
	seedSession(t, store, "c1", &session.Session{ID: "u1", Role: "Admin"}, "tok")

	sh := engine.Open("c1")
	defer sh.Close()
	_ = sh.Navigate(context.Background(), "/admin")
	fetcher.next(t) // never answered

	v := waitSettled(t, sh)
	if v.Branding.Phase != branding.Degraded {
		t.Fatalf("expected degraded after timeout, got %s", v.Branding.Phase)
	}
	waitCounter(t, engine, MetricBrandingDegraded, 1)
}

func TestSessionAbsentAndUnknownRole(t *testing.T) {
	store := session.NewMemoryStore()
	fetcher := newScriptedFetcher()
	engine := newTestEngine(t, store, fetcher, nil)

	sh := engine.Open("c1")
	defer sh.Close()
	_ = sh.Navigate(context.Background(), "/admin")
	v := sh.View()
	if v.Authenticated() || len(v.Links) != 0 || v.Links == nil {
		t.Fatalf("expected absent session with empty links, got %+v", v)
	}

	_ = store.Set(context.Background(), "c1", "user", `{"id":"u9","role":"Auditor"}`)
	_ = sh.Refresh(context.Background())
	v = sh.View()
	if !v.Authenticated() || v.Session.Role != "Auditor" {
		t.Fatalf("expected present session, got %+v", v.Session)
	}
	if len(v.Links) != 0 {
		t.Fatalf("expected no links for unknown role, got %d", len(v.Links))
	}

	_ = store.Set(context.Background(), "c1", "user", `{not json`)
	_ = sh.Refresh(context.Background())
	if sh.View().Authenticated() {
		t.Fatal("malformed identity must read as absent")
	}

	snap := engine.MetricsSnapshot()
	if snap.Counters[MetricSessionAbsent] != 2 || snap.Counters[MetricRoleUnrecognized] != 1 {
		t.Fatalf("unexpected counters %+v", snap.Counters)
	}
}

func TestLogoutDuringInFlightFetch(t *testing.T) {
	store := session.NewMemoryStore()
	fetcher := newScriptedFetcher()
	sink := NewChannelSink(4)
	cfg := DefaultConfig()
	cfg.Audit.Enabled = true
	engine, err := New().WithConfig(cfg).WithStore(store).WithFetcher(fetcher).WithAuditSink(sink).Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	seedSession(t, store, "c1", &session.Session{ID: "u1", Role: "Admin"}, "tok")

	sh := engine.Open("c1")
	defer sh.Close()
	_ = sh.Navigate(context.Background(), "/admin")
	inflight := fetcher.next(t)

	done := make(chan string, 1)
	go func() { done <- sh.Logout(context.Background()) }()

	var target string
	select {
	case target = <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("logout blocked on in-flight fetch")
	}
	if target != "/login" {
		t.Fatalf("expected /login, got %q", target)
	}

	ctx := context.Background()
	if _, ok, _ := store.Get(ctx, "c1", "token"); ok {
		t.Fatal("credential survived logout")
	}
	if _, ok, _ := store.Get(ctx, "c1", "user"); ok {
		t.Fatal("identity survived logout")
	}

	inflight.reply <- fetchReply{branding: acme("")}
	fetcher.expectNone(t)

	v := sh.View()
	if v.Route != "/login" || v.Authenticated() || v.Branding.Branding.CompanyName == "Acme" {
		t.Fatalf("unexpected post-logout view %+v", v)
	}

	engine.Close()
	select {
	case ev := <-sink.Events():
		if ev.EventType != AuditEventLogout || ev.UserID != "u1" || !ev.Success {
			t.Fatalf("unexpected audit event %+v", ev)
		}
	default:
		t.Fatal("expected a logout audit event")
	}
}

func TestLogoutDropsTenantBrandingBeforeTeardown(t *testing.T) {
	store := gatedDeleteStore{
		MemoryStore: session.NewMemoryStore(),
		entered:     make(chan struct{}, 1),
		release:     make(chan struct{}),
	}
	fetcher := newScriptedFetcher()
	engine := newTestEngine(t, store, fetcher, nil)
	seedSession(t, store.MemoryStore, "c1", &session.Session{ID: "u1", Role: "Admin"}, "tok")

	sh := engine.Open("c1")
	defer sh.Close()
	_ = sh.Navigate(context.Background(), "/admin")
	fetcher.next(t).reply <- fetchReply{branding: acme("/uploads/acme.png")}
	before := waitSettled(t, sh)
	if before.Branding.Phase != branding.Resolved {
		t.Fatalf("expected resolved tenant branding, got %s", before.Branding.Phase)
	}

	done := make(chan string, 1)
	go func() { done <- sh.Logout(context.Background()) }()
	select {
	case <-store.entered:
	case <-time.After(2 * time.Second):
		t.Fatal("teardown never started")
	}

	v := sh.View()
	if v.Generation <= before.Generation || v.Branding.Phase != branding.Loading {
		t.Fatalf("logout must reset branding with its generation, got gen=%d phase=%s", v.Generation, v.Branding.Phase)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	_, err := sh.WaitBranding(ctx)
	cancel()
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("WaitBranding must not return the previous tenant's branding, got %v", err)
	}

	close(store.release)
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("logout did not finish")
	}
	v = waitSettled(t, sh)
	if v.Route != "/login" || v.Branding.Branding.CompanyName == "Acme" {
		t.Fatalf("unexpected post-logout view %+v", v)
	}
}

func TestLogoutTeardownFailureStillRedirects(t *testing.T) {
	store := failingDeleteStore{session.NewMemoryStore()}
	fetcher := newScriptedFetcher()
	core, logs := observer.New(zapcore.ErrorLevel)
	engine := newTestEngine(t, store, fetcher, zap.New(core))

	sh := engine.Open("c1")
	defer sh.Close()
	if got := sh.Logout(context.Background()); got != "/login" {
		t.Fatalf("expected /login, got %q", got)
	}
	if logs.FilterMessage("session teardown failed").Len() != 1 {
		t.Fatal("expected teardown failure log")
	}
	snap := engine.MetricsSnapshot()
	if snap.Counters[MetricTeardownFailure] != 1 || snap.Counters[MetricLogout] != 1 {
		t.Fatalf("unexpected counters %+v", snap.Counters)
	}
}

func TestLogoutTwiceIsIdempotent(t *testing.T) {
	store := session.NewMemoryStore()
	engine := newTestEngine(t, store, newScriptedFetcher(), nil)
	seedSession(t, store, "c1", &session.Session{ID: "u1", Role: "User"}, "")

	sh := engine.Open("c1")
	defer sh.Close()
	ctx := context.Background()
	if sh.Logout(ctx) != "/login" || sh.Logout(ctx) != "/login" {
		t.Fatal("expected both logouts to redirect")
	}
	if engine.MetricsSnapshot().Counters[MetricTeardownFailure] != 0 {
		t.Fatal("second teardown must not fail")
	}
}

func TestLogoFallbackResetsOnRefChange(t *testing.T) {
	store := session.NewMemoryStore()
	fetcher := newScriptedFetcher()
	engine := newTestEngine(t, store, fetcher, nil)
	seedSession(t, store, "c1", &session.Session{ID: "u1", Role: "Admin"}, "tok")

	sh := engine.Open("c1")
	defer sh.Close()
	ctx := context.Background()

	_ = sh.Navigate(ctx, "/admin")
	fetcher.next(t).reply <- fetchReply{branding: acme("/a.png")}
	waitSettled(t, sh)

	if sh.ReportLogoError("/other.png") {
		t.Fatal("report for a different ref must be ignored")
	}
	if !sh.ReportLogoError("/a.png") {
		t.Fatal("expected logo failure to apply")
	}
	if sh.ReportLogoError("/a.png") {
		t.Fatal("repeated report must not change state")
	}
	if p := sh.View().Panel(); p.Kind != branding.PanelText || p.Name != "Acme" {
		t.Fatalf("expected text fallback, got %+v", p)
	}

	_ = sh.Navigate(ctx, "/users")
	fetcher.next(t).reply <- fetchReply{branding: acme("/b.png")}
	v := waitSettled(t, sh)
	if v.LogoFailed || v.Panel().Kind != branding.PanelLogo {
		t.Fatalf("expected logo fallback reset, got %+v", v.Panel())
	}
}

func TestFollowAndWatchSignals(t *testing.T) {
	store := session.NewMemoryStore()
	engine := newTestEngine(t, store, newScriptedFetcher(), nil)

	sh := engine.Open("c1")
	defer sh.Close()

	routes := signal.NewValue("/admin")
	stop := sh.Follow(context.Background(), routes)
	defer stop()
	if err := sh.Watch(context.Background(), store); err != nil {
		t.Fatalf("Watch: %v", err)
	}

	if v := sh.View(); v.Route != "/admin" || v.Generation != 1 {
		t.Fatalf("expected initial follow navigation, got %+v", v)
	}

	routes.Set("/users")
	if v := sh.View(); v.Route != "/users" || v.Generation != 2 {
		t.Fatalf("expected route change transition, got %+v", v)
	}

	seedSession(t, store, "c1", &session.Session{ID: "u2", Role: "User"}, "")
	v := sh.View()
	if !v.Authenticated() || v.Session.ID != "u2" || v.Route != "/users" {
		t.Fatalf("expected session change refresh, got %+v", v)
	}
	if len(v.Links) != len(navigation.EntriesFor(navigation.RoleUser)) {
		t.Fatalf("expected user links, got %d", len(v.Links))
	}
}

func TestSubscribeReceivesEveryPhase(t *testing.T) {
	store := session.NewMemoryStore()
	fetcher := newScriptedFetcher()
	engine := newTestEngine(t, store, fetcher, nil)
	seedSession(t, store, "c1", &session.Session{ID: "u1", Role: "Admin"}, "tok")

	sh := engine.Open("c1")
	defer sh.Close()

	var mu sync.Mutex
	var phases []branding.Phase
	cancel := sh.Subscribe(func(v View) {
		mu.Lock()
		phases = append(phases, v.Branding.Phase)
		mu.Unlock()
	})

	_ = sh.Navigate(context.Background(), "/admin")
	fetcher.next(t).reply <- fetchReply{branding: acme("")}
	waitSettled(t, sh)
	cancel()
	_ = sh.Navigate(context.Background(), "/users")

	mu.Lock()
	defer mu.Unlock()
	if len(phases) != 2 || phases[0] != branding.Loading || phases[1] != branding.Resolved {
		t.Fatalf("unexpected phases %v", phases)
	}
}

func TestClosedShellRejectsTransitions(t *testing.T) {
	store := session.NewMemoryStore()
	engine := newTestEngine(t, store, newScriptedFetcher(), nil)

	sh := engine.Open("c1")
	sh.Close()
	sh.Close()

	if err := sh.Navigate(context.Background(), "/admin"); !errors.Is(err, ErrShellClosed) {
		t.Fatalf("expected ErrShellClosed, got %v", err)
	}
	if _, err := sh.WaitBranding(context.Background()); !errors.Is(err, ErrShellClosed) {
		t.Fatalf("expected ErrShellClosed, got %v", err)
	}
}

func TestWaitBrandingHonorsContext(t *testing.T) {
	store := session.NewMemoryStore()
	fetcher := newScriptedFetcher()
	engine := newTestEngine(t, store, fetcher, nil)
	seedSession(t, store, "c1", &session.Session{ID: "u1", Role: "Admin"}, "tok")

	sh := engine.Open("c1")
	defer sh.Close()
	_ = sh.Navigate(context.Background(), "/admin")
	call := fetcher.next(t)
	defer func() { call.reply <- fetchReply{err: branding.ErrUnavailable} }()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	v, err := sh.WaitBranding(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
	if v.Branding.Phase != branding.Loading {
		t.Fatalf("expected loading snapshot, got %s", v.Branding.Phase)
	}
}
