// Package audit delivers shell lifecycle events to a [Sink] off the hot path.
//
// A [Dispatcher] owns one bounded queue and a single worker. When the queue
// is full it either drops the event and counts it, or blocks the emitter
// until space frees up or its context ends, depending on [Config].
//
// Sinks shipped here: [NoOpSink], [ChannelSink], [JSONWriterSink] (one JSON
// object per line) and [ZapSink]. Which events exist and when they fire is
// decided by the caller; this package never inspects them beyond stamping a
// missing timestamp.
package audit
