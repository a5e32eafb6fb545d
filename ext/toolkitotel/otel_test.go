package toolkitotel_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/goleak"

	"github.com/skosovsky/mcptoolkit"
	"github.com/skosovsky/mcptoolkit/ext/toolkitotel"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newTestMeter() (*sdkmetric.ManualReader, *sdkmetric.MeterProvider) {
	reader := sdkmetric.NewManualReader()
	return reader, sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
}

func newTestTracer() (*tracetest.InMemoryExporter, *sdktrace.TracerProvider) {
	exporter := tracetest.NewInMemoryExporter()
	return exporter, sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
}

func findMetric(rm *metricdata.ResourceMetrics, name string) *metricdata.Metrics {
	for _, scope := range rm.ScopeMetrics {
		for i := range scope.Metrics {
			if scope.Metrics[i].Name == name {
				return &scope.Metrics[i]
			}
		}
	}
	return nil
}

func newDispatcher(t *testing.T, o *toolkitotel.Observer) *mcptoolkit.Dispatcher {
	t.Helper()
	reg := mcptoolkit.NewRegistry()
	reg.Register("weather_service__get_weather", mcptoolkit.Sync(func(context.Context, mcptoolkit.Args) (any, error) {
		return map[string]any{"temperature": 22}, nil
	}))
	reg.Register("crypto_service__get_price", mcptoolkit.Sync(func(context.Context, mcptoolkit.Args) (any, error) {
		return nil, errors.New("upstream down")
	}))
	d := mcptoolkit.NewDispatcher(reg)
	d.Use(o.Middleware())
	return d
}

func TestObserver_RecordsSpansAndMetrics(t *testing.T) {
	reader, mp := newTestMeter()
	exporter, tp := newTestTracer()
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	o, err := toolkitotel.NewObserver(mp.Meter("test"), tp.Tracer("test"))
	require.NoError(t, err)
	d := newDispatcher(t, o)

	_, err = d.Call(context.Background(), "weather_service__get_weather", mcptoolkit.Args{"location": "Tokyo"})
	require.NoError(t, err)
	_, err = d.Call(context.Background(), "crypto_service__get_price", nil)
	require.ErrorIs(t, err, mcptoolkit.ErrHandlerFailed)

	spans := exporter.GetSpans()
	require.Len(t, spans, 2)
	assert.Equal(t, "mcptoolkit.call", spans[0].Name)
	assert.Equal(t, codes.Ok, spans[0].Status.Code)
	assert.Contains(t, spans[0].Attributes, attribute.String("tool.service", "weather_service"))
	assert.Equal(t, codes.Error, spans[1].Status.Code)
	assert.Equal(t, string(mcptoolkit.KindHandlerFailed), spans[1].Status.Description)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	calls := findMetric(&rm, "mcptoolkit.tool.calls")
	require.NotNil(t, calls)
	sum, ok := calls.Data.(metricdata.Sum[int64])
	require.True(t, ok, "calls type = %T", calls.Data)
	var total int64
	for _, dp := range sum.DataPoints {
		total += dp.Value
	}
	assert.Equal(t, int64(2), total)

	latency := findMetric(&rm, "mcptoolkit.tool.latency")
	require.NotNil(t, latency)
	_, ok = latency.Data.(metricdata.Histogram[float64])
	assert.True(t, ok, "latency type = %T", latency.Data)
}

func TestObserver_MetricsOnly(t *testing.T) {
	reader, mp := newTestMeter()
	o, err := toolkitotel.NewObserver(mp.Meter("test"), nil)
	require.NoError(t, err)
	d := newDispatcher(t, o)

	_, err = d.Call(context.Background(), "weather_service__get_weather", nil)
	require.NoError(t, err)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	assert.NotNil(t, findMetric(&rm, "mcptoolkit.tool.calls"))
}

func TestObserver_NilIsNoop(t *testing.T) {
	var o *toolkitotel.Observer
	d := newDispatcher(t, o)
	res, err := d.Call(context.Background(), "weather_service__get_weather", nil)
	require.NoError(t, err)
	assert.Equal(t, 22, res["temperature"])
}
