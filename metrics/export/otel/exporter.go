package otel

import (
	"context"
	"errors"
	"fmt"

	goShell "github.com/MrEthical07/goShell"
	"github.com/MrEthical07/goShell/metrics/export/internaldefs"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var (
	ErrNilMeter  = errors.New("nil meter")
	ErrNilSource = errors.New("nil metrics source")
)

type metricsSource interface {
	MetricsSnapshot() goShell.MetricsSnapshot
	AuditDropped() uint64
}

// Option adds instruments beyond the engine's own.
type Option func(*Exporter)

// WithGauge publishes read() as an Int64ObservableGauge named name. Hosts use
// it for state the engine does not track, such as the number of open shells.
func WithGauge(name, description string, read func() int64) Option {
	return func(e *Exporter) {
		e.extra = append(e.extra, extraGauge{name: name, description: description, read: read})
	}
}

type extraGauge struct {
	name        string
	description string
	read        func() int64
	instrument  metric.Int64ObservableGauge
}

type counterInstrument struct {
	id         goShell.MetricID
	instrument metric.Int64ObservableCounter
}

// histogramInstrument carries one gauge per histogram; buckets are told
// apart by the le attribute.
type histogramInstrument struct {
	id      goShell.MetricID
	buckets metric.Int64ObservableGauge
	count   metric.Int64ObservableGauge
}

// Exporter publishes engine metrics as observable instruments. Values are
// read from the source on every collection.
type Exporter struct {
	source       metricsSource
	registration metric.Registration
	counters     []counterInstrument
	histograms   []histogramInstrument
	bucketAttrs  []metric.ObserveOption
	auditDropped metric.Int64ObservableCounter
	extra        []extraGauge
}

// NewExporter registers instruments for engine on meter.
func NewExporter(meter metric.Meter, engine *goShell.Engine, opts ...Option) (*Exporter, error) {
	if engine == nil {
		return nil, ErrNilSource
	}
	return NewExporterFromSource(meter, engine, opts...)
}

// NewExporterFromSource registers instruments reading from source.
func NewExporterFromSource(meter metric.Meter, source metricsSource, opts ...Option) (*Exporter, error) {
	if meter == nil {
		return nil, ErrNilMeter
	}
	if source == nil {
		return nil, ErrNilSource
	}

	e := &Exporter{source: source}
	for _, opt := range opts {
		opt(e)
	}
	for _, le := range internaldefs.BucketLabels() {
		e.bucketAttrs = append(e.bucketAttrs, metric.WithAttributeSet(attribute.NewSet(attribute.String("le", le))))
	}

	var observables []metric.Observable
	for _, def := range internaldefs.CounterDefs {
		ins, err := meter.Int64ObservableCounter(def.Name, metric.WithDescription(def.Help))
		if err != nil {
			return nil, fmt.Errorf("counter %s: %w", def.Name, err)
		}
		e.counters = append(e.counters, counterInstrument{id: def.ID, instrument: ins})
		observables = append(observables, ins)
	}

	for _, def := range internaldefs.HistogramDefs {
		buckets, err := meter.Int64ObservableGauge(def.Name+"_bucket",
			metric.WithDescription(def.Help+" Cumulative count per upper bound (le)."))
		if err != nil {
			return nil, fmt.Errorf("histogram %s: %w", def.Name, err)
		}
		count, err := meter.Int64ObservableGauge(def.Name+"_count",
			metric.WithDescription(def.Help+" Total samples."))
		if err != nil {
			return nil, fmt.Errorf("histogram %s: %w", def.Name, err)
		}
		e.histograms = append(e.histograms, histogramInstrument{id: def.ID, buckets: buckets, count: count})
		observables = append(observables, buckets, count)
	}

	dropped, err := meter.Int64ObservableCounter(internaldefs.AuditDropped,
		metric.WithDescription("Audit events dropped on a full dispatcher buffer."))
	if err != nil {
		return nil, fmt.Errorf("counter %s: %w", internaldefs.AuditDropped, err)
	}
	e.auditDropped = dropped
	observables = append(observables, dropped)

	for i := range e.extra {
		g := &e.extra[i]
		if g.read == nil {
			return nil, fmt.Errorf("gauge %s: nil read func", g.name)
		}
		ins, err := meter.Int64ObservableGauge(g.name, metric.WithDescription(g.description))
		if err != nil {
			return nil, fmt.Errorf("gauge %s: %w", g.name, err)
		}
		g.instrument = ins
		observables = append(observables, ins)
	}

	reg, err := meter.RegisterCallback(e.observe, observables...)
	if err != nil {
		return nil, fmt.Errorf("register callback: %w", err)
	}
	e.registration = reg
	return e, nil
}

func (e *Exporter) observe(_ context.Context, o metric.Observer) error {
	snap := e.source.MetricsSnapshot()
	for _, c := range e.counters {
		o.ObserveInt64(c.instrument, int64(snap.Counters[c.id]))
	}
	for _, h := range e.histograms {
		raw, ok := snap.Histograms[h.id]
		if !ok {
			continue
		}
		cumulative := internaldefs.CumulativeBuckets(internaldefs.NormalizeBuckets(raw))
		for i, n := range cumulative {
			o.ObserveInt64(h.buckets, int64(n), e.bucketAttrs[i])
		}
		o.ObserveInt64(h.count, int64(cumulative[len(cumulative)-1]))
	}
	o.ObserveInt64(e.auditDropped, int64(e.source.AuditDropped()))
	for _, g := range e.extra {
		o.ObserveInt64(g.instrument, g.read())
	}
	return nil
}

// Close unregisters the collection callback.
func (e *Exporter) Close() error {
	if e == nil || e.registration == nil {
		return nil
	}
	return e.registration.Unregister()
}
