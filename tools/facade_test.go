package tools

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/skosovsky/mcptoolkit"
	"github.com/skosovsky/mcptoolkit/testutil"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestGetWeather_Scenario(t *testing.T) {
	h := &testutil.MockHandler{Result: map[string]any{"temperature": 18, "condition": "Rainy"}}
	d := testutil.NewTestDispatcher(map[string]mcptoolkit.Handler{WeatherToolID: h.Async()})

	resp, err := GetWeather(context.Background(), d, "Tokyo")
	require.NoError(t, err)
	assert.Equal(t, "Tokyo", resp.Location)
	require.NotNil(t, resp.Temperature)
	assert.InDelta(t, 18.0, *resp.Temperature, 0)
	require.NotNil(t, resp.Condition)
	assert.Equal(t, "Rainy", *resp.Condition)
	assert.Nil(t, resp.Humidity)
	assert.Nil(t, resp.WindSpeed)
	assert.Equal(t, mcptoolkit.Result{"temperature": 18, "condition": "Rainy"}, resp.RawData)
	assert.Equal(t, mcptoolkit.Args{"location": "Tokyo"}, h.LastArgs())
}

func TestGetCryptocurrencyPrice_Scenario(t *testing.T) {
	h := &testutil.MockHandler{Result: map[string]any{"price": 45000, "currency": "USD"}}
	d := testutil.NewTestDispatcher(map[string]mcptoolkit.Handler{CryptoToolID: h.Sync()})

	resp, err := GetCryptocurrencyPrice(context.Background(), d, "bitcoin")
	require.NoError(t, err)
	assert.Equal(t, "bitcoin", resp.Crypto)
	require.NotNil(t, resp.Price)
	assert.InDelta(t, 45000.0, *resp.Price, 0)
	assert.Equal(t, "USD", resp.Currency)
}

func TestCrypto_DefaultAndOverrideCurrency(t *testing.T) {
	h := &testutil.MockHandler{Result: map[string]any{"price": "n/a"}}
	d := testutil.NewTestDispatcher(map[string]mcptoolkit.Handler{CryptoToolID: h.Sync()})
	resp, err := GetCryptocurrencyPrice(context.Background(), d, "ethereum")
	require.NoError(t, err)
	assert.Nil(t, resp.Price, "non-numeric price stays only in RawData")
	assert.Equal(t, "n/a", resp.RawData["price"])
	assert.Equal(t, DefaultCurrency, resp.Currency)

	h.Result = map[string]any{"price": json.Number("2500.5"), "currency": "EUR"}
	resp, err = GetCryptocurrencyPrice(context.Background(), d, "ethereum")
	require.NoError(t, err)
	require.NotNil(t, resp.Price)
	assert.InDelta(t, 2500.5, *resp.Price, 1e-9)
	assert.Equal(t, "EUR", resp.Currency)
}

func TestWeather_AllowListAndTypes(t *testing.T) {
	h := &testutil.MockHandler{Result: map[string]any{
		"location":   "ignored",
		"humidity":   65.0,
		"wind_speed": "10 km/h",
		"condition":  42,
		"uv_index":   7,
	}}
	d := testutil.NewTestDispatcher(map[string]mcptoolkit.Handler{WeatherToolID: h.Sync()})
	resp, err := GetWeather(context.Background(), d, "Paris")
	require.NoError(t, err)
	assert.Equal(t, "Paris", resp.Location, "location echoes the input")
	require.NotNil(t, resp.Humidity)
	assert.Equal(t, 65, *resp.Humidity)
	require.NotNil(t, resp.WindSpeed)
	assert.Equal(t, "10 km/h", *resp.WindSpeed)
	assert.Nil(t, resp.Condition, "wrong type is skipped")
	assert.Equal(t, 7, resp.RawData["uv_index"], "unknown keys stay in RawData")

	h.Result = map[string]any{"humidity": 65.5}
	resp, err = GetWeather(context.Background(), d, "Paris")
	require.NoError(t, err)
	assert.Nil(t, resp.Humidity, "non-integral humidity is skipped")
}

func TestWeather_ScalarResult(t *testing.T) {
	h := &testutil.MockHandler{Result: "Sunny, 25°C"}
	d := testutil.NewTestDispatcher(map[string]mcptoolkit.Handler{WeatherToolID: h.Sync()})
	resp, err := GetWeather(context.Background(), d, "Rome")
	require.NoError(t, err)
	assert.Nil(t, resp.Temperature)
	assert.Equal(t, mcptoolkit.Result{"data": "Sunny, 25°C", "raw": "Sunny, 25°C"}, resp.RawData)
}

func TestFacade_RawMapInput(t *testing.T) {
	h := &testutil.MockHandler{Result: map[string]any{"temperature": 3}}
	d := testutil.NewTestDispatcher(map[string]mcptoolkit.Handler{WeatherToolID: h.Sync()})

	resp, err := Weather.Call(context.Background(), d, map[string]any{"location": "Oslo", "extra": true})
	require.NoError(t, err)
	assert.Equal(t, "Oslo", resp.Location)
	assert.Equal(t, mcptoolkit.Args{"location": "Oslo"}, h.LastArgs(), "only declared fields are dispatched")

	in := WeatherInput{Location: "Bergen"}
	_, err = Weather.Call(context.Background(), d, &in)
	require.NoError(t, err)
	assert.Equal(t, mcptoolkit.Args{"location": "Bergen"}, h.LastArgs())
}

func TestFacade_InvalidInputNeverDispatches(t *testing.T) {
	h := &testutil.MockHandler{Result: map[string]any{}}
	d := testutil.NewTestDispatcher(map[string]mcptoolkit.Handler{WeatherToolID: h.Sync()})
	ctx := context.Background()

	tests := []struct {
		name  string
		input any
		field string
	}{
		{"missing required", map[string]any{}, "location"},
		{"nil input", nil, "location"},
		{"wrong type", map[string]any{"location": 12}, ""},
		{"blank value", WeatherInput{Location: "  "}, "location"},
		{"empty string in map", map[string]any{"location": ""}, "location"},
		{"nil pointer", (*WeatherInput)(nil), ""},
		{"unsupported type", 42, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Weather.Call(ctx, d, tt.input)
			require.Error(t, err)
			assert.ErrorIs(t, err, mcptoolkit.ErrInvalidInput)
			assert.Equal(t, mcptoolkit.KindInvalidInput, mcptoolkit.KindOf(err))
			if tt.field != "" {
				var ie *mcptoolkit.InputError
				require.ErrorAs(t, err, &ie)
				assert.Equal(t, tt.field, ie.Field)
			}
		})
	}
	assert.Equal(t, 0, h.Calls())
}

func TestFacade_ToolNotFound(t *testing.T) {
	d := testutil.NewTestDispatcher(nil)
	_, err := GetWeather(context.Background(), d, "Tokyo")
	require.Error(t, err)
	assert.ErrorIs(t, err, mcptoolkit.ErrToolNotFound)
	var nf *mcptoolkit.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, []string{}, nf.Available)
}

func TestFacade_HandlerFailure(t *testing.T) {
	boom := errors.New("search backend down")
	h := &testutil.MockHandler{Err: boom}
	d := testutil.NewTestDispatcher(map[string]mcptoolkit.Handler{WebSearchToolID: h.Async()})
	_, err := PerformWebSearch(context.Background(), d, "golang")
	assert.ErrorIs(t, err, mcptoolkit.ErrHandlerFailed)
	assert.ErrorIs(t, err, boom)
}

func TestNotes(t *testing.T) {
	add := &testutil.MockHandler{Result: "ok"}
	read := &testutil.MockHandler{Result: map[string]any{"content": "- buy milk"}}
	d := testutil.NewTestDispatcher(map[string]mcptoolkit.Handler{
		AddNoteToolID:   add.Sync(),
		ReadNotesToolID: read.Async(),
	})
	ctx := context.Background()

	added, err := AddNoteToFile(ctx, d, "buy milk")
	require.NoError(t, err)
	assert.True(t, added.Success)
	assert.Equal(t, DefaultAddNoteMessage, added.Message)
	assert.Equal(t, mcptoolkit.Result{"data": "ok", "raw": "ok"}, added.RawData)
	assert.Equal(t, mcptoolkit.Args{"content": "buy milk"}, add.LastArgs())

	notes, err := ReadNotes(ctx, d)
	require.NoError(t, err)
	assert.Equal(t, "- buy milk", notes.Content)
	assert.Equal(t, mcptoolkit.Args{}, read.LastArgs())

	notes, err = Notes.Call(ctx, d, ReadNotesInput{})
	require.NoError(t, err)
	assert.Equal(t, "- buy milk", notes.Content)
}

func TestAddNote_ResultOverrides(t *testing.T) {
	add := &testutil.MockHandler{Result: map[string]any{"success": false, "message": "disk full"}}
	d := testutil.NewTestDispatcher(map[string]mcptoolkit.Handler{AddNoteToolID: add.Sync()})
	resp, err := AddNoteToFile(context.Background(), d, "x")
	require.NoError(t, err)
	assert.False(t, resp.Success)
	assert.Equal(t, "disk full", resp.Message)
}

func TestTextFallbacks(t *testing.T) {
	read := &testutil.MockHandler{Result: "line one\nline two"}
	search := &testutil.MockHandler{Result: map[string]any{"hits": 2}}
	d := testutil.NewTestDispatcher(map[string]mcptoolkit.Handler{
		ReadNotesToolID: read.Sync(),
		WebSearchToolID: search.Sync(),
	})
	ctx := context.Background()

	notes, err := ReadNotes(ctx, d)
	require.NoError(t, err)
	assert.Equal(t, "line one\nline two", notes.Content)

	res, err := PerformWebSearch(ctx, d, "golang generics")
	require.NoError(t, err)
	assert.Equal(t, "golang generics", res.Query)
	assert.JSONEq(t, `{"hits": 2}`, res.Results)
}

func TestSyncEntryPoints(t *testing.T) {
	weather := &testutil.MockHandler{Result: map[string]any{"temperature": 20}}
	crypto := &testutil.MockHandler{Result: map[string]any{"price": 1}}
	add := &testutil.MockHandler{Result: map[string]any{}}
	read := &testutil.MockHandler{Result: map[string]any{"content": "c"}}
	search := &testutil.MockHandler{Result: map[string]any{"results": "r"}}
	d := testutil.NewTestDispatcher(map[string]mcptoolkit.Handler{
		WeatherToolID:   weather.Async(),
		CryptoToolID:    crypto.Async(),
		AddNoteToolID:   add.Async(),
		ReadNotesToolID: read.Async(),
		WebSearchToolID: search.Async(),
	})
	ctx := context.Background()
	mode := mcptoolkit.ExecInline

	w, err := GetWeatherSync(ctx, d, mode, "Lima")
	require.NoError(t, err)
	assert.InDelta(t, 20.0, *w.Temperature, 0)
	c, err := GetCryptocurrencyPriceSync(ctx, d, mode, "doge")
	require.NoError(t, err)
	assert.InDelta(t, 1.0, *c.Price, 0)
	a, err := AddNoteToFileSync(ctx, d, mode, "n")
	require.NoError(t, err)
	assert.True(t, a.Success)
	r, err := ReadNotesSync(ctx, d, mode)
	require.NoError(t, err)
	assert.Equal(t, "c", r.Content)
	s, err := PerformWebSearchSync(ctx, d, mode, "q")
	require.NoError(t, err)
	assert.Equal(t, "r", s.Results)
}

func TestSyncEntryPoints_InsideLoop(t *testing.T) {
	weather := &testutil.MockHandler{Result: map[string]any{"temperature": 20}}
	d := testutil.NewTestDispatcher(map[string]mcptoolkit.Handler{WeatherToolID: weather.Async()})
	loop := mcptoolkit.NewLoop(1)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- loop.Run(ctx) }()

	var inlineErr, workerErr error
	var resp WeatherResponse
	require.NoError(t, loop.Do(ctx, func(jobCtx context.Context) error {
		_, inlineErr = GetWeatherSync(jobCtx, d, mcptoolkit.ExecInline, "Lima")
		resp, workerErr = GetWeatherSync(jobCtx, d, mcptoolkit.ExecWorker, "Lima")
		return nil
	}))
	loop.Close()
	require.NoError(t, <-done)

	assert.ErrorIs(t, inlineErr, mcptoolkit.ErrNestedScheduler)
	require.NoError(t, workerErr)
	assert.Equal(t, "Lima", resp.Location)
	assert.Equal(t, 1, weather.Calls())
}

func TestSchemas(t *testing.T) {
	schemas := Schemas()
	require.Len(t, schemas, 5)
	props := schemas[WeatherToolID]["properties"].(map[string]any)
	assert.Contains(t, props, "location")
	assert.Equal(t, []any{"location"}, schemas[WeatherToolID]["required"])
	assert.NotContains(t, schemas[ReadNotesToolID], "required")
	assert.Equal(t, WeatherToolID, Weather.ID())
}

func TestAsFloat(t *testing.T) {
	for _, v := range []any{int8(2), int16(2), int32(2), int64(2), uint(2), uint8(2), uint16(2), uint32(2), uint64(2), float32(2), 2, 2.0, json.Number("2")} {
		f, ok := asFloat(v)
		assert.True(t, ok, "%T", v)
		assert.InDelta(t, 2.0, f, 0)
	}
	_, ok := asFloat("2")
	assert.False(t, ok)
	_, ok = asFloat(json.Number("x"))
	assert.False(t, ok)
}

func TestIntField(t *testing.T) {
	res := mcptoolkit.Result{
		"small":    42.0,
		"negative": -7,
		"fraction": 1.5,
		"huge":     1e300,
		"edge":     math.Exp2(63),
		"nan":      math.NaN(),
		"inf":      math.Inf(-1),
	}
	require.NotNil(t, intField(res, "small"))
	assert.Equal(t, 42, *intField(res, "small"))
	require.NotNil(t, intField(res, "negative"))
	assert.Equal(t, -7, *intField(res, "negative"))
	for _, key := range []string{"fraction", "huge", "edge", "nan", "inf", "missing"} {
		assert.Nil(t, intField(res, key), key)
	}
}

var countedChecks atomic.Int32

type countedInput struct {
	Name string `json:"name"`
}

func (in countedInput) Validate() error {
	countedChecks.Add(1)
	return nil
}

func TestFacade_ValidatesOncePerCall(t *testing.T) {
	h := &testutil.MockHandler{Result: map[string]any{"ok": true}}
	d := testutil.NewTestDispatcher(map[string]mcptoolkit.Handler{"test_service__counted": h.Sync()})
	f := NewFacade("test_service__counted", func(in countedInput, _ mcptoolkit.Result) string { return in.Name })

	for _, input := range []any{
		map[string]any{"name": "raw", "extra": 1},
		countedInput{Name: "typed"},
		&countedInput{Name: "pointer"},
	} {
		countedChecks.Store(0)
		_, err := f.Call(context.Background(), d, input)
		require.NoError(t, err)
		assert.Equal(t, int32(1), countedChecks.Load(), "%T", input)
	}
	assert.Equal(t, mcptoolkit.Args{"name": "pointer"}, h.LastArgs())
}
