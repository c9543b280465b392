// Package telemetry wraps OpenTelemetry tracing for the spend agent.
package telemetry

import (
	"context"
	"net/http"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "spendagent"

// StartResolveSpan starts a span for an intent resolver call.
func StartResolveSpan(ctx context.Context) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "resolve")
}

// StartDispatchSpan starts a span for a dispatched operation or action.
func StartDispatchSpan(ctx context.Context, source, name string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "dispatch",
		trace.WithAttributes(
			attribute.String("dispatch.source", source),
			attribute.String("dispatch.name", name),
		),
	)
}

// StartProviderSpan starts a span for a payments provider call.
func StartProviderSpan(ctx context.Context, call string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "payments."+call,
		trace.WithSpanKind(trace.SpanKindClient),
	)
}

// End records err on span, if any, and ends it.
func End(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// HTTPClient returns an http.Client whose transport emits client spans.
func HTTPClient(base *http.Client) *http.Client {
	if base == nil {
		base = &http.Client{}
	}
	transport := base.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}
	c := *base
	c.Transport = otelhttp.NewTransport(transport)
	return &c
}

// Handler wraps an inbound handler with server spans.
func Handler(next http.Handler, operation string) http.Handler {
	return otelhttp.NewHandler(next, operation)
}
