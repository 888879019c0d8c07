// Package telemetry records Prometheus metrics and OpenTelemetry spans for
// context assembly. It observes assembled contexts and never alters them.
package telemetry

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	ctxengine "github.com/flemzord/ctxwin/internal/context"
)

const (
	namespace      = "ctxwin"
	instrumentName = "github.com/flemzord/ctxwin/internal/telemetry"
)

// Builder is the part of ctxengine.Assembler that Recorder instruments.
type Builder interface {
	BuildContext(in ctxengine.AssemblyInput) ctxengine.AssembledContext
}

// Recorder holds the assembly instruments. A nil *Recorder is valid and
// records nothing. A Recorder built without a registerer traces but keeps
// no metrics.
type Recorder struct {
	tracer trace.Tracer

	metrics       bool
	assemblies    prometheus.Counter
	exhausted     prometheus.Counter
	duration      prometheus.Histogram
	historyBudget prometheus.Histogram
	historyUsed   prometheus.Histogram
	windowUsage   prometheus.Histogram
	messages      *prometheus.CounterVec
	fixedTokens   *prometheus.HistogramVec
}

// Option configures a Recorder.
type Option func(*Recorder)

// WithTracerProvider replaces the global tracer provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(r *Recorder) { r.tracer = tp.Tracer(instrumentName) }
}

var tokenBuckets = prometheus.ExponentialBuckets(64, 2, 12)

// NewRecorder registers the assembly metrics with reg. With a nil reg only
// spans are recorded.
func NewRecorder(reg prometheus.Registerer, opts ...Option) *Recorder {
	r := &Recorder{tracer: otel.Tracer(instrumentName)}
	if reg != nil {
		r.registerMetrics(reg)
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Recorder) registerMetrics(reg prometheus.Registerer) {
	f := promauto.With(reg)
	r.metrics = true
	r.assemblies = f.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "assemblies_total",
		Help:      "Total number of assembled contexts.",
	})
	r.exhausted = f.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "history_budget_exhausted_total",
		Help:      "Assemblies where the fixed sections left no room for history.",
	})
	r.duration = f.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "assembly_duration_seconds",
		Help:      "Time spent assembling a context.",
		Buckets:   prometheus.ExponentialBuckets(0.0001, 2, 14),
	})
	r.historyBudget = f.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "history_budget_tokens",
		Help:      "Tokens available to history per assembly.",
		Buckets:   tokenBuckets,
	})
	r.historyUsed = f.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "history_tokens_used",
		Help:      "Tokens consumed by history per assembly.",
		Buckets:   tokenBuckets,
	})
	r.windowUsage = f.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "window_usage_ratio",
		Help:      "Fraction of the context window used per assembly.",
		Buckets:   prometheus.LinearBuckets(0.1, 0.1, 10),
	})
	r.messages = f.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "history_messages_total",
		Help:      "History messages by selection outcome.",
	}, []string{"outcome"})
	r.fixedTokens = f.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "section_tokens",
		Help:      "Tokens consumed by each fixed prompt section.",
		Buckets:   tokenBuckets,
	}, []string{"section"})
}

// Build runs b.BuildContext inside a span and records the result.
func (r *Recorder) Build(ctx context.Context, b Builder, in ctxengine.AssemblyInput) ctxengine.AssembledContext {
	if r == nil {
		return b.BuildContext(in)
	}

	ctx, span := r.tracer.Start(ctx, "ctxengine.BuildContext")
	defer span.End()

	start := time.Now()
	out := b.BuildContext(in)
	r.Record(ctx, out, time.Since(start))
	return out
}

// Record observes one assembled context and annotates the span in ctx.
func (r *Recorder) Record(ctx context.Context, c ctxengine.AssembledContext, d time.Duration) {
	if r == nil {
		return
	}
	b := c.Budget
	sel := c.Selection

	trace.SpanFromContext(ctx).SetAttributes(
		attribute.String("ctxwin.strategy", sel.Strategy),
		attribute.Int("ctxwin.window_tokens", b.ContextWindowTokens),
		attribute.Int("ctxwin.history_budget", b.HistoryBudget),
		attribute.Int("ctxwin.history_tokens_used", b.HistoryTokensUsed),
		attribute.Int("ctxwin.messages_included", sel.MessagesIncluded),
		attribute.Int("ctxwin.messages_dropped", sel.MessagesDropped),
		attribute.Int("ctxwin.cross_channel_included", sel.CrossChannelMessagesIncluded),
	)
	if !r.metrics {
		return
	}

	r.assemblies.Inc()
	if b.HistoryBudget == 0 {
		r.exhausted.Inc()
	}
	r.duration.Observe(d.Seconds())
	r.historyBudget.Observe(float64(b.HistoryBudget))
	r.historyUsed.Observe(float64(b.HistoryTokensUsed))
	if b.ContextWindowTokens > 0 {
		r.windowUsage.Observe(float64(b.Used()) / float64(b.ContextWindowTokens))
	}
	r.messages.WithLabelValues("included").Add(float64(sel.MessagesIncluded))
	r.messages.WithLabelValues("dropped").Add(float64(sel.MessagesDropped))
	r.messages.WithLabelValues("cross_channel").Add(float64(sel.CrossChannelMessagesIncluded))
	r.fixedTokens.WithLabelValues("system").Observe(float64(b.SystemPromptTokens))
	r.fixedTokens.WithLabelValues("current").Observe(float64(b.CurrentMessageTokens))
	r.fixedTokens.WithLabelValues("memory").Observe(float64(b.MemoryTokens))
}
