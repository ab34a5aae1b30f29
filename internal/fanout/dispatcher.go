// Package fanout delivers freshly persisted announcements to the live
// channel and to every push subscriber. The two sinks are independent:
// neither one's failure touches the other, and no failure is retried
// within the cycle.
package fanout

import (
	"context"
	"fmt"
	"log/slog"

	"pravaha/internal/announce"
	"pravaha/internal/platform/metrics"
	"pravaha/internal/subscriber"
)

// Broadcaster publishes one record to a live channel, best-effort: no
// delivery confirmation, no retry.
type Broadcaster interface {
	Name() string
	Broadcast(ctx context.Context, record *announce.Record) error
}

// Dispatcher fans one record out to all sinks.
type Dispatcher struct {
	broadcasters []Broadcaster
	subscribers  subscriber.Store
	sender       subscriber.Sender
	logger       *slog.Logger
	metrics      *metrics.Metrics
}

// Option configures the Dispatcher.
type Option func(*Dispatcher)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Dispatcher) {
		d.logger = logger
	}
}

// WithMetrics sets the metrics collector.
func WithMetrics(m *metrics.Metrics) Option {
	return func(d *Dispatcher) {
		d.metrics = m
	}
}

// WithBroadcaster adds a live-channel sink. Zero broadcasters is valid.
func WithBroadcaster(b Broadcaster) Option {
	return func(d *Dispatcher) {
		if b != nil {
			d.broadcasters = append(d.broadcasters, b)
		}
	}
}

// New creates a Dispatcher. sender may be nil when push is disabled;
// subscribers are then skipped entirely.
func New(subscribers subscriber.Store, sender subscriber.Sender, opts ...Option) (*Dispatcher, error) {
	if subscribers == nil {
		return nil, fmt.Errorf("subscriber store is required")
	}
	d := &Dispatcher{
		subscribers: subscribers,
		sender:      sender,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// Dispatch delivers one persisted record. Every failure inside is
// contained and logged; a record that persisted must never be reported
// upstream as a pipeline failure.
func (d *Dispatcher) Dispatch(ctx context.Context, record *announce.Record) {
	for _, b := range d.broadcasters {
		if err := b.Broadcast(ctx, record); err != nil {
			d.recordBroadcast(b.Name(), "error")
			d.logger.Warn("live broadcast failed",
				"sink", b.Name(), "source_url", record.SourceURL, "error", err)
			continue
		}
		d.recordBroadcast(b.Name(), "ok")
	}

	d.pushToSubscribers(ctx, record)
}

// pushToSubscribers queries the subscriber list fresh on every dispatch;
// a cached list would keep sending to channels that opted out mid-run.
func (d *Dispatcher) pushToSubscribers(ctx context.Context, record *announce.Record) {
	if d.sender == nil {
		return
	}
	subs, err := d.subscribers.ListAll(ctx)
	if err != nil {
		d.logger.Error("subscriber list unavailable, push skipped",
			"source_url", record.SourceURL, "error", err)
		return
	}

	text := RenderMessage(record)
	for _, sub := range subs {
		if err := d.sender.Send(ctx, sub.ChannelID, text); err != nil {
			d.recordDelivery("error")
			d.logger.Warn("push delivery failed",
				"channel_id", sub.ChannelID, "source_url", record.SourceURL, "error", err)
			continue
		}
		d.recordDelivery("ok")
	}
}

func (d *Dispatcher) recordBroadcast(sink, result string) {
	if d.metrics == nil {
		return
	}
	d.metrics.BroadcastsPublished.WithLabelValues(sink, result).Inc()
}

func (d *Dispatcher) recordDelivery(result string) {
	if d.metrics == nil {
		return
	}
	d.metrics.FanoutDeliveries.WithLabelValues(result).Inc()
}
