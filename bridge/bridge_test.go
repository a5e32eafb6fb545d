package bridge

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/skosovsky/mcptoolkit"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestAdaptAndRegister(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	reg := mcptoolkit.NewRegistry()
	tools := []ExternalTool{
		NewExternalTool("get_weather", ConventionAsyncInvoke, func(_ context.Context, args map[string]any) (any, error) {
			return map[string]any{"temperature": 18, "location": args["location"]}, nil
		}),
		NewExternalTool("send_fax", ConventionInvoke, func(context.Context, map[string]any) (any, error) {
			return "sent", nil
		}),
	}

	report := AdaptAndRegister(reg, tools, WithLogger(logger))

	t.Run("one tool registered", func(t *testing.T) {
		assert.Equal(t, []string{"weather_service__get_weather"}, report.Registered)
		assert.Equal(t, 1, reg.Status().TotalTools)
	})

	t.Run("unmapped tool skipped", func(t *testing.T) {
		require.Len(t, report.Skipped, 1)
		assert.Equal(t, "send_fax", report.Skipped[0].Name)
		err := report.Err()
		require.ErrorIs(t, err, ErrUnknownExternalTool)
		assert.Equal(t, mcptoolkit.KindUnknownExternalTool, mcptoolkit.KindOf(err))
		assert.Contains(t, buf.String(), "skipping external tool")
		assert.Contains(t, buf.String(), "send_fax")
	})

	t.Run("verify", func(t *testing.T) {
		assert.Equal(t, map[string]bool{
			"get_weather": true,
			"send_fax":    false,
		}, Verify(reg, Names(tools)))
	})

	t.Run("adapted handler is async and dispatches", func(t *testing.T) {
		h, ok := reg.Resolve("weather_service__get_weather")
		require.True(t, ok)
		assert.Equal(t, mcptoolkit.KindAsync, h.Kind())
		assert.Equal(t, "get_weather", h.Name())

		res, err := mcptoolkit.NewDispatcher(reg).Call(context.Background(), "weather_service__get_weather", mcptoolkit.Args{"location": "Tokyo"})
		require.NoError(t, err)
		assert.Equal(t, mcptoolkit.Result{"temperature": 18, "location": "Tokyo"}, res)
	})
}

func TestAdaptAndRegister_Conventions(t *testing.T) {
	reg := mcptoolkit.NewRegistry()
	echo := func(_ context.Context, args map[string]any) (any, error) { return args["q"], nil }
	report := AdaptAndRegister(reg, []ExternalTool{
		NewExternalTool("perform_web_search", ConventionAsyncRun, echo),
		NewExternalTool("read_notes", ConventionInvoke, echo),
		NewExternalTool("add_note_to_file", Convention(0), echo),
		nil,
	})
	require.NoError(t, report.Err())
	require.Len(t, report.Registered, 3)

	h, _ := reg.Resolve("web_service__perform_web_search")
	assert.Equal(t, mcptoolkit.KindAsync, h.Kind())
	h, _ = reg.Resolve("notes_service__read_notes")
	assert.Equal(t, mcptoolkit.KindSync, h.Kind())
	h, _ = reg.Resolve("notes_service__add_note_to_file")
	assert.Equal(t, mcptoolkit.KindSync, h.Kind(), "unknown conventions fall back to sync")

	res, err := mcptoolkit.NewDispatcher(reg).Call(context.Background(), "notes_service__read_notes", mcptoolkit.Args{"q": "x"})
	require.NoError(t, err)
	assert.Equal(t, mcptoolkit.Result{"data": "x", "raw": "x"}, res)
}

func TestAdaptAndRegister_ErrorsPropagate(t *testing.T) {
	boom := errors.New("rate limited")
	reg := mcptoolkit.NewRegistry()
	AdaptAndRegister(reg, []ExternalTool{
		NewExternalTool("get_cryptocurrency_price", ConventionAsyncInvoke, func(context.Context, map[string]any) (any, error) {
			return nil, boom
		}),
	})

	_, err := mcptoolkit.NewDispatcher(reg).Call(context.Background(), "crypto_service__get_cryptocurrency_price", nil)
	require.ErrorIs(t, err, boom)
	assert.ErrorIs(t, err, mcptoolkit.ErrHandlerFailed)
}

func TestMapping(t *testing.T) {
	m := Mapping()
	assert.Len(t, m, 5)
	for name, id := range m {
		_, op, ok := mcptoolkit.SplitToolID(id)
		assert.True(t, ok, id)
		assert.Equal(t, name, op)
	}

	m["get_weather"] = "changed"
	id, ok := CanonicalID("get_weather")
	require.True(t, ok)
	assert.Equal(t, "weather_service__get_weather", id, "Mapping returns a copy")

	_, ok = CanonicalID("send_fax")
	assert.False(t, ok)
}

func TestConvention_String(t *testing.T) {
	assert.Equal(t, "async_invoke", ConventionAsyncInvoke.String())
	assert.Equal(t, "async_run", ConventionAsyncRun.String())
	assert.Equal(t, "invoke", ConventionInvoke.String())
	assert.Equal(t, "Convention(9)", Convention(9).String())
}
