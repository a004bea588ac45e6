package observability

import (
	"context"
	"fmt"
	"strings"

	"quill/internal/config"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"
)

// DBSystem names the database engine on repository spans.
var DBSystem = "postgresql"

// Tracer is the global tracer used for the application.
var Tracer trace.Tracer = otel.Tracer(ServiceName)

// Span attribute keys for Quill entities.
const (
	AttrPostID   = attribute.Key("quill.post.id")
	AttrPostSlug = attribute.Key("quill.post.slug")
	AttrUserID   = attribute.Key("quill.user.id")
	AttrCacheKey = attribute.Key("quill.cache.family")
)

// PostID tags a span with the post it acts on.
func PostID(id uint) attribute.KeyValue {
	return AttrPostID.Int64(int64(id))
}

// UserID tags a span with the acting or viewed user.
func UserID(id uint) attribute.KeyValue {
	return AttrUserID.Int64(int64(id))
}

// Resource identity of the API process.
const (
	ServiceName    = "quill-api"
	ServiceVersion = "1.0.0"
)

// newExporter builds the span exporter named by TRACING_EXPORTER.
func newExporter(ctx context.Context, cfg *config.Config) (sdktrace.SpanExporter, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.TracingExporter)) {
	case "", "stdout":
		return stdouttrace.New(stdouttrace.WithPrettyPrint())
	case "otlp":
		if cfg.OTLPEndpoint == "" {
			return nil, fmt.Errorf("OTLP_ENDPOINT is required for the otlp exporter")
		}
		return otlptracehttp.New(ctx,
			otlptracehttp.WithEndpoint(cfg.OTLPEndpoint),
			otlptracehttp.WithInsecure(),
		)
	}
	return nil, fmt.Errorf("unsupported TRACING_EXPORTER %q", cfg.TracingExporter)
}

// newSampler samples root spans at ratio and follows the parent otherwise.
func newSampler(ratio float64) sdktrace.Sampler {
	if ratio >= 1 {
		return sdktrace.AlwaysSample()
	}
	if ratio <= 0 {
		return sdktrace.ParentBased(sdktrace.NeverSample())
	}
	return sdktrace.ParentBased(sdktrace.TraceIDRatioBased(ratio))
}

// InitTracing installs the global tracer provider described by the TRACING_*
// settings and returns its shutdown function. With TRACING_ENABLED off,
// Tracer stays a no-op and shutdown does nothing.
func InitTracing(ctx context.Context, cfg *config.Config) (func(context.Context) error, error) {
	if !cfg.TracingEnabled {
		Tracer = otel.Tracer(ServiceName)
		return func(context.Context) error { return nil }, nil
	}

	exporter, err := newExporter(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("tracing exporter: %w", err)
	}

	res, err := resource.New(ctx,
		resource.WithTelemetrySDK(),
		resource.WithAttributes(
			semconv.ServiceName(ServiceName),
			semconv.ServiceVersion(ServiceVersion),
			semconv.DeploymentEnvironment(cfg.Env),
			attribute.String("db.system", DBSystem),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("tracing resource: %w", err)
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(newSampler(cfg.TracingSampleRatio)),
	)
	otel.SetTracerProvider(provider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))
	Tracer = provider.Tracer(ServiceName)

	return provider.Shutdown, nil
}

// TraceLayer starts spans for repository and Redis calls.
type TraceLayer struct {
	tracer   trace.Tracer
	dbSystem string
}

// NewTraceLayer returns a new TraceLayer for the given tracer.
func NewTraceLayer(tracer trace.Tracer) *TraceLayer {
	return &TraceLayer{tracer: tracer, dbSystem: DBSystem}
}

// TraceRepositoryMethod starts a span named repository.<method> carrying the
// table and any entity attributes such as PostID or UserID.
func (l *TraceLayer) TraceRepositoryMethod(ctx context.Context, method, table string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	attrs = append([]attribute.KeyValue{
		attribute.String("db.system", l.dbSystem),
		attribute.String("db.operation", method),
		attribute.String("db.sql.table", table),
	}, attrs...)
	return l.tracer.Start(ctx, "repository."+method,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attrs...),
	)
}

// TraceCacheAside starts a span around a cache-aside read of one key family.
func (l *TraceLayer) TraceCacheAside(ctx context.Context, family string) (context.Context, trace.Span) {
	return l.tracer.Start(ctx, "cache.aside "+family,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("db.system", "redis"),
			AttrCacheKey.String(family),
		),
	)
}

// GetTraceLayer returns a TraceLayer using the global Tracer.
func GetTraceLayer() *TraceLayer {
	return NewTraceLayer(Tracer)
}

// RecordErrorInContext marks the span in ctx as failed.
func RecordErrorInContext(ctx context.Context, err error) {
	span := trace.SpanFromContext(ctx)
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
