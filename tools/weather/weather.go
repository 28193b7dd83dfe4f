// Package weather provides weather tools backed by the Open-Meteo API,
// which requires no API key. City names are resolved with the Open-Meteo
// geocoding service.
package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/agentic/pkg/schema"
	"github.com/effective-security/agentic/tools"
)

const (
	// DefaultGeocodeURL is the Open-Meteo geocoding endpoint.
	DefaultGeocodeURL = "https://geocoding-api.open-meteo.com/v1/search"
	// DefaultForecastURL is the Open-Meteo forecast endpoint.
	DefaultForecastURL = "https://api.open-meteo.com/v1/forecast"

	// DefaultForecastDays is used when the model does not specify a count.
	DefaultForecastDays = 5
	// MaxForecastDays is the Open-Meteo API limit.
	MaxForecastDays = 16
)

// ErrCityNotFound is returned when geocoding yields no results.
var ErrCityNotFound = errors.New("could not find city")

// wmoConditions maps WMO weather interpretation codes to descriptions.
var wmoConditions = map[int]string{
	0:  "Clear sky",
	1:  "Mainly clear",
	2:  "Partly cloudy",
	3:  "Overcast",
	45: "Foggy",
	48: "Depositing rime fog",
	51: "Light drizzle",
	53: "Moderate drizzle",
	55: "Dense drizzle",
	56: "Light freezing drizzle",
	57: "Dense freezing drizzle",
	61: "Slight rain",
	63: "Moderate rain",
	65: "Heavy rain",
	66: "Light freezing rain",
	67: "Heavy freezing rain",
	71: "Slight snow",
	73: "Moderate snow",
	75: "Heavy snow",
	77: "Snow grains",
	80: "Slight rain showers",
	81: "Moderate rain showers",
	82: "Violent rain showers",
	85: "Slight snow showers",
	86: "Heavy snow showers",
	95: "Thunderstorm",
	96: "Thunderstorm with slight hail",
	99: "Thunderstorm with heavy hail",
}

func describeConditions(code int) string {
	if desc, ok := wmoConditions[code]; ok {
		return desc
	}
	return fmt.Sprintf("Unknown conditions (code %d)", code)
}

// Client calls the Open-Meteo geocoding and forecast endpoints.
type Client struct {
	geocodeURL  string
	forecastURL string
	httpClient  *http.Client
}

// Option configures the client.
type Option func(*Client)

// WithGeocodeURL overrides the geocoding endpoint, used in tests.
func WithGeocodeURL(u string) Option {
	return func(c *Client) {
		c.geocodeURL = u
	}
}

// WithForecastURL overrides the forecast endpoint, used in tests.
func WithForecastURL(u string) Option {
	return func(c *Client) {
		c.forecastURL = u
	}
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// NewClient creates an Open-Meteo client.
func NewClient(opts ...Option) *Client {
	c := &Client{
		geocodeURL:  DefaultGeocodeURL,
		forecastURL: DefaultForecastURL,
		httpClient:  http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type geocodeResponse struct {
	Results []struct {
		Name      string  `json:"name"`
		Country   string  `json:"country"`
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
	} `json:"results"`
}

type location struct {
	Name      string
	Country   string
	Latitude  float64
	Longitude float64
}

func (c *Client) geocode(ctx context.Context, city string) (*location, error) {
	q := url.Values{}
	q.Set("name", city)
	q.Set("count", "1")

	var res geocodeResponse
	if err := c.get(ctx, c.geocodeURL, q, &res); err != nil {
		return nil, err
	}
	if len(res.Results) == 0 {
		return nil, errors.WithMessagef(ErrCityNotFound, "%s", city)
	}
	r := res.Results[0]
	return &location{
		Name:      r.Name,
		Country:   r.Country,
		Latitude:  r.Latitude,
		Longitude: r.Longitude,
	}, nil
}

func (c *Client) get(ctx context.Context, endpoint string, q url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return errors.WithStack(err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.WithStack(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.WithStack(err)
	}
	if resp.StatusCode != http.StatusOK {
		return errors.Newf("weather API returned %d: %s", resp.StatusCode, string(body))
	}
	if err := json.Unmarshal(body, out); err != nil {
		return errors.Wrap(err, "failed to decode weather API response")
	}
	return nil
}

// WeatherRequest represents the current-weather tool input.
type WeatherRequest struct {
	City string `json:"city" yaml:"city" jsonschema:"title=city,description=The city to get weather for."`
}

// WeatherResult represents the current-weather tool output.
type WeatherResult struct {
	Location      string  `json:"location" yaml:"location"`
	Country       string  `json:"country" yaml:"country"`
	Temperature   float64 `json:"temperature_c" yaml:"temperature_c"`
	FeelsLike     float64 `json:"feels_like_c" yaml:"feels_like_c"`
	Humidity      float64 `json:"humidity_pct" yaml:"humidity_pct"`
	Conditions    string  `json:"conditions" yaml:"conditions"`
	WindSpeed     float64 `json:"wind_speed_kmh" yaml:"wind_speed_kmh"`
	WindDirection float64 `json:"wind_direction_deg" yaml:"wind_direction_deg"`
}

type currentResponse struct {
	Current struct {
		Temperature   float64 `json:"temperature_2m"`
		Humidity      float64 `json:"relative_humidity_2m"`
		FeelsLike     float64 `json:"apparent_temperature"`
		WeatherCode   int     `json:"weather_code"`
		WindSpeed     float64 `json:"wind_speed_10m"`
		WindDirection float64 `json:"wind_direction_10m"`
	} `json:"current"`
}

// CurrentTool reports current conditions for a city.
type CurrentTool struct {
	client *Client
}

var _ tools.Tool[WeatherRequest, WeatherResult] = (*CurrentTool)(nil)

// NewCurrent creates the current-weather tool.
func NewCurrent(client *Client) *CurrentTool {
	return &CurrentTool{client: client}
}

func (t *CurrentTool) Name() string {
	return "get_weather"
}

func (t *CurrentTool) Description() string {
	return "Returns the current weather conditions for a city: temperature, humidity, wind and sky conditions."
}

func (t *CurrentTool) Schema() *schema.Schema {
	return schema.MustNew(WeatherRequest{})
}

func (t *CurrentTool) Run(ctx context.Context, req *WeatherRequest) (*WeatherResult, error) {
	if req.City == "" {
		return nil, errors.New("city is required")
	}
	loc, err := t.client.geocode(ctx, req.City)
	if err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("latitude", strconv.FormatFloat(loc.Latitude, 'f', -1, 64))
	q.Set("longitude", strconv.FormatFloat(loc.Longitude, 'f', -1, 64))
	q.Set("current", "temperature_2m,relative_humidity_2m,apparent_temperature,weather_code,wind_speed_10m,wind_direction_10m")

	var res currentResponse
	if err := t.client.get(ctx, t.client.forecastURL, q, &res); err != nil {
		return nil, err
	}

	return &WeatherResult{
		Location:      loc.Name,
		Country:       loc.Country,
		Temperature:   res.Current.Temperature,
		FeelsLike:     res.Current.FeelsLike,
		Humidity:      res.Current.Humidity,
		Conditions:    describeConditions(res.Current.WeatherCode),
		WindSpeed:     res.Current.WindSpeed,
		WindDirection: res.Current.WindDirection,
	}, nil
}

func (t *CurrentTool) Call(ctx context.Context, input string) (string, error) {
	return tools.CallTyped(ctx, t, input)
}

// ForecastRequest represents the forecast tool input.
type ForecastRequest struct {
	City string `json:"city" yaml:"city" jsonschema:"title=city,description=The city to get the forecast for."`
	Days int    `json:"days,omitempty" yaml:"days,omitempty" jsonschema:"title=days,description=Number of days to forecast from 1 to 16. Defaults to 5."`
}

// DayForecast is a single day in a forecast.
type DayForecast struct {
	Date          string  `json:"date" yaml:"date"`
	Conditions    string  `json:"conditions" yaml:"conditions"`
	TempMax       float64 `json:"temp_max_c" yaml:"temp_max_c"`
	TempMin       float64 `json:"temp_min_c" yaml:"temp_min_c"`
	PrecipChance  float64 `json:"precipitation_chance_pct" yaml:"precipitation_chance_pct"`
}

// ForecastResult represents the forecast tool output.
type ForecastResult struct {
	Location string        `json:"location" yaml:"location"`
	Country  string        `json:"country" yaml:"country"`
	Days     []DayForecast `json:"days" yaml:"days"`
}

type forecastResponse struct {
	Daily struct {
		Time          []string  `json:"time"`
		TempMax       []float64 `json:"temperature_2m_max"`
		TempMin       []float64 `json:"temperature_2m_min"`
		WeatherCode   []int     `json:"weather_code"`
		PrecipChance  []float64 `json:"precipitation_probability_max"`
	} `json:"daily"`
}

// ForecastTool reports a multi-day forecast for a city.
type ForecastTool struct {
	client *Client
}

var _ tools.Tool[ForecastRequest, ForecastResult] = (*ForecastTool)(nil)

// NewForecast creates the forecast tool.
func NewForecast(client *Client) *ForecastTool {
	return &ForecastTool{client: client}
}

func (t *ForecastTool) Name() string {
	return "get_forecast"
}

func (t *ForecastTool) Description() string {
	return "Returns a daily weather forecast for a city, up to 16 days ahead."
}

func (t *ForecastTool) Schema() *schema.Schema {
	return schema.MustNew(ForecastRequest{})
}

func (t *ForecastTool) Run(ctx context.Context, req *ForecastRequest) (*ForecastResult, error) {
	if req.City == "" {
		return nil, errors.New("city is required")
	}
	days := req.Days
	if days <= 0 {
		days = DefaultForecastDays
	}
	if days > MaxForecastDays {
		days = MaxForecastDays
	}

	loc, err := t.client.geocode(ctx, req.City)
	if err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("latitude", strconv.FormatFloat(loc.Latitude, 'f', -1, 64))
	q.Set("longitude", strconv.FormatFloat(loc.Longitude, 'f', -1, 64))
	q.Set("daily", "temperature_2m_max,temperature_2m_min,weather_code,precipitation_probability_max")
	q.Set("forecast_days", strconv.Itoa(days))

	var res forecastResponse
	if err := t.client.get(ctx, t.client.forecastURL, q, &res); err != nil {
		return nil, err
	}

	result := &ForecastResult{
		Location: loc.Name,
		Country:  loc.Country,
	}
	for i, date := range res.Daily.Time {
		day := DayForecast{
			Date: date,
		}
		if i < len(res.Daily.WeatherCode) {
			day.Conditions = describeConditions(res.Daily.WeatherCode[i])
		}
		if i < len(res.Daily.TempMax) {
			day.TempMax = res.Daily.TempMax[i]
		}
		if i < len(res.Daily.TempMin) {
			day.TempMin = res.Daily.TempMin[i]
		}
		if i < len(res.Daily.PrecipChance) {
			day.PrecipChance = res.Daily.PrecipChance[i]
		}
		result.Days = append(result.Days, day)
	}
	return result, nil
}

func (t *ForecastTool) Call(ctx context.Context, input string) (string, error) {
	return tools.CallTyped(ctx, t, input)
}

// Tools returns the weather tools sharing one client.
func Tools(client *Client) []tools.ITool {
	return []tools.ITool{
		NewCurrent(client),
		NewForecast(client),
	}
}
