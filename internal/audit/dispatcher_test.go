package audit

import (
	"bytes"
	"context"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type gateSink struct {
	gate    chan struct{}
	emitted atomic.Int64
}

func (s *gateSink) Emit(context.Context, Event) {
	<-s.gate
	s.emitted.Add(1)
}

func TestNilDispatcherWhenDisabled(t *testing.T) {
	d := NewDispatcher(Config{Enabled: false}, NoOpSink{})
	if d != nil {
		t.Fatal("expected nil dispatcher when disabled")
	}
	d.Emit(context.Background(), Event{EventType: EventLogout})
	d.Close()
	if d.Dropped() != 0 {
		t.Fatal("nil dispatcher must report zero drops")
	}
}

func TestDropIfFullCountsAndCallsHook(t *testing.T) {
	sink := &gateSink{gate: make(chan struct{})}
	var hooked atomic.Int64
	d := NewDispatcher(Config{
		Enabled:    true,
		BufferSize: 1,
		DropIfFull: true,
		OnDrop:     func(Event) { hooked.Add(1) },
	}, sink)

	// One event blocks in the sink, one fills the buffer, the rest drop.
	for i := 0; i < 5; i++ {
		d.Emit(context.Background(), Event{EventType: EventLogout})
		time.Sleep(5 * time.Millisecond)
	}

	if d.Dropped() == 0 {
		t.Fatal("expected drops with a blocked sink")
	}
	if uint64(hooked.Load()) != d.Dropped() {
		t.Fatalf("hook calls %d != dropped %d", hooked.Load(), d.Dropped())
	}

	close(sink.gate)
	d.Close()
	if got := sink.emitted.Load() + int64(d.Dropped()); got != 5 {
		t.Fatalf("expected every event emitted or dropped, got %d", got)
	}
}

func TestJSONWriterSinkWritesLines(t *testing.T) {
	var buf bytes.Buffer
	sink := NewJSONWriterSink(&buf)
	sink.Emit(context.Background(), Event{EventType: EventLogout, Namespace: "c-1", Success: true})
	sink.Emit(context.Background(), Event{EventType: EventBrandingDegraded, Error: "status 401"})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %q", buf.String())
	}
	if !strings.Contains(lines[0], `"event_type":"shell_logout"`) || !strings.Contains(lines[0], `"namespace":"c-1"`) {
		t.Fatalf("unexpected first line %s", lines[0])
	}
}

func TestCloseDeliversBufferedEvents(t *testing.T) {
	sink := NewChannelSink(8)
	d := NewDispatcher(Config{Enabled: true, BufferSize: 8}, sink)
	for i := 0; i < 3; i++ {
		d.Emit(context.Background(), Event{EventType: EventLogout})
	}
	d.Close()

	if got := len(sink.Events()); got != 3 {
		t.Fatalf("expected 3 delivered events, got %d", got)
	}
}

func TestDispatcherStampsAndCountsDeliveries(t *testing.T) {
	sink := NewChannelSink(4)
	d := NewDispatcher(Config{Enabled: true, BufferSize: 4}, sink)
	fixed := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	d.now = func() time.Time { return fixed }

	d.Emit(context.Background(), Event{EventType: EventLogout})
	stamped := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	d.Emit(context.Background(), Event{EventType: EventLogout, Timestamp: stamped})
	d.Close()

	if d.Delivered() != 2 {
		t.Fatalf("expected 2 deliveries, got %d", d.Delivered())
	}
	if ev := <-sink.Events(); !ev.Timestamp.Equal(fixed) {
		t.Fatalf("zero timestamp not stamped: %v", ev.Timestamp)
	}
	if ev := <-sink.Events(); !ev.Timestamp.Equal(stamped) {
		t.Fatalf("caller timestamp overwritten: %v", ev.Timestamp)
	}
}

func TestEmitAfterCloseIsDiscarded(t *testing.T) {
	sink := NewChannelSink(4)
	d := NewDispatcher(Config{Enabled: true, BufferSize: 4}, sink)
	d.Close()
	d.Close()

	d.Emit(context.Background(), Event{EventType: EventLogout})
	if got := len(sink.Events()); got != 0 {
		t.Fatalf("expected no events after close, got %d", got)
	}
	if d.Dropped() != 0 {
		t.Fatal("events after close are not drops")
	}
}

func TestBlockingEmitHonorsContext(t *testing.T) {
	sink := &gateSink{gate: make(chan struct{})}
	d := NewDispatcher(Config{Enabled: true, BufferSize: 1}, sink)

	d.Emit(context.Background(), Event{EventType: EventLogout})
	time.Sleep(5 * time.Millisecond)
	d.Emit(context.Background(), Event{EventType: EventLogout})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	start := time.Now()
	d.Emit(ctx, Event{EventType: EventLogout})
	if time.Since(start) < 15*time.Millisecond {
		t.Fatal("expected Emit to wait for buffer room")
	}

	close(sink.gate)
	d.Close()
	if got := sink.emitted.Load(); got != 2 {
		t.Fatalf("expected 2 emitted, got %d", got)
	}
}

func TestZapSinkLogsFields(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	sink := NewZapSink(zap.New(core))

	sink.Emit(context.Background(), Event{
		EventType: EventLogout,
		Namespace: "c-1",
		UserID:    "u1",
		Role:      "Admin",
		Success:   true,
		Metadata:  map[string]string{"redirect": "/login"},
	})

	entries := logs.FilterMessage("audit").All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["event_type"] != EventLogout || fields["role"] != "Admin" || fields["meta.redirect"] != "/login" {
		t.Fatalf("unexpected fields %v", fields)
	}
	if _, ok := fields["route"]; ok {
		t.Fatal("empty route should be omitted")
	}
}
