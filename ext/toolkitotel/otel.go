// Package toolkitotel records tool dispatches as OpenTelemetry spans and metrics.
package toolkitotel

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/skosovsky/mcptoolkit"
)

const (
	spanName      = "mcptoolkit.call"
	metricCalls   = "mcptoolkit.tool.calls"
	metricLatency = "mcptoolkit.tool.latency"
	attrToolID    = "tool.id"
	attrCallID    = "tool.call_id"
	attrService   = "tool.service"
	attrOperation = "tool.operation"
	attrSuccess   = "success"
	attrErrorKind = "error.kind"
)

// Observer holds the tracer and instruments used by Middleware.
type Observer struct {
	tracer  trace.Tracer
	calls   metric.Int64Counter
	latency metric.Float64Histogram
}

// NewObserver creates the instruments on meter. tracer may be nil to record metrics only.
func NewObserver(meter metric.Meter, tracer trace.Tracer) (*Observer, error) {
	calls, err := meter.Int64Counter(
		metricCalls,
		metric.WithDescription("Number of tool dispatches"),
	)
	if err != nil {
		return nil, err
	}
	latency, err := meter.Float64Histogram(
		metricLatency,
		metric.WithDescription("Tool dispatch latency in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}
	return &Observer{tracer: tracer, calls: calls, latency: latency}, nil
}

// Middleware wraps every dispatch in a span and records its outcome. A nil Observer is a no-op.
func (o *Observer) Middleware() mcptoolkit.Middleware {
	return func(next mcptoolkit.Invoker) mcptoolkit.Invoker {
		if o == nil {
			return next
		}
		return func(ctx context.Context, call mcptoolkit.Call) (mcptoolkit.Result, error) {
			attrs := []attribute.KeyValue{attribute.String(attrToolID, call.ToolID)}
			if service, op, ok := mcptoolkit.SplitToolID(call.ToolID); ok {
				attrs = append(attrs, attribute.String(attrService, service), attribute.String(attrOperation, op))
			}

			var span trace.Span
			if o.tracer != nil {
				ctx, span = o.tracer.Start(ctx, spanName, trace.WithAttributes(attrs...),
					trace.WithAttributes(attribute.String(attrCallID, call.ID)))
			}
			start := time.Now()
			res, err := next(ctx, call)
			elapsed := time.Since(start)

			attrs = append(attrs, attribute.Bool(attrSuccess, err == nil))
			if err != nil {
				attrs = append(attrs, attribute.String(attrErrorKind, string(mcptoolkit.KindOf(err))))
			}
			opts := metric.WithAttributes(attrs...)
			o.calls.Add(ctx, 1, opts)
			o.latency.Record(ctx, elapsed.Seconds(), opts)

			if span != nil {
				if err != nil {
					span.RecordError(err)
					span.SetStatus(codes.Error, string(mcptoolkit.KindOf(err)))
				} else {
					span.SetStatus(codes.Ok, "")
				}
				span.End()
			}
			return res, err
		}
	}
}
