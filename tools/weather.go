package tools

import (
	"context"
	"strings"

	"github.com/skosovsky/mcptoolkit"
)

// WeatherInput is the input of the weather tool.
type WeatherInput struct {
	Location string `json:"location" jsonschema:"Location, can be city, country, state, etc."`
}

// Validate rejects a blank location.
func (in WeatherInput) Validate() error {
	if strings.TrimSpace(in.Location) == "" {
		return &mcptoolkit.InputError{Field: "location", Reason: "must not be empty"}
	}
	return nil
}

// WeatherResponse is the typed weather result. Optional fields are nil when the result does not
// carry them with a compatible type.
type WeatherResponse struct {
	Location    string            `json:"location" yaml:"location"`
	Temperature *float64          `json:"temperature,omitempty" yaml:"temperature,omitempty"`
	Condition   *string           `json:"condition,omitempty" yaml:"condition,omitempty"`
	Humidity    *int              `json:"humidity,omitempty" yaml:"humidity,omitempty"`
	WindSpeed   *string           `json:"wind_speed,omitempty" yaml:"wind_speed,omitempty"`
	RawData     mcptoolkit.Result `json:"raw_data" yaml:"raw_data"`
}

// Weather is the facade for WeatherToolID.
var Weather = NewFacade(WeatherToolID, func(in WeatherInput, res mcptoolkit.Result) WeatherResponse {
	return WeatherResponse{
		Location:    in.Location,
		Temperature: floatField(res, "temperature"),
		Condition:   stringField(res, "condition"),
		Humidity:    intField(res, "humidity"),
		WindSpeed:   stringField(res, "wind_speed"),
		RawData:     res,
	}
})

// GetWeather returns the weather for location.
func GetWeather(ctx context.Context, c Caller, location string) (WeatherResponse, error) {
	return Weather.Call(ctx, c, WeatherInput{Location: location})
}

// GetWeatherSync is the synchronous variant of GetWeather.
func GetWeatherSync(ctx context.Context, c Caller, mode mcptoolkit.ExecMode, location string) (WeatherResponse, error) {
	return Weather.CallSync(ctx, c, mode, WeatherInput{Location: location})
}
