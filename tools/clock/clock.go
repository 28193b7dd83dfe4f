// Package clock provides local time utilities: current time in a timezone,
// timezone conversion, and temperature unit conversion. No network access.
package clock

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/agentic/pkg/schema"
	"github.com/effective-security/agentic/tools"
)

// timezoneAliases maps common city names and abbreviations to IANA names.
var timezoneAliases = map[string]string{
	// Americas
	"new york":    "America/New_York",
	"ny":          "America/New_York",
	"nyc":         "America/New_York",
	"los angeles": "America/Los_Angeles",
	"la":          "America/Los_Angeles",
	"chicago":     "America/Chicago",
	"denver":      "America/Denver",
	"toronto":     "America/Toronto",
	"vancouver":   "America/Vancouver",
	"sao paulo":   "America/Sao_Paulo",

	// Europe
	"london":    "Europe/London",
	"paris":     "Europe/Paris",
	"berlin":    "Europe/Berlin",
	"rome":      "Europe/Rome",
	"madrid":    "Europe/Madrid",
	"amsterdam": "Europe/Amsterdam",
	"moscow":    "Europe/Moscow",

	// Asia
	"tokyo":     "Asia/Tokyo",
	"beijing":   "Asia/Shanghai",
	"shanghai":  "Asia/Shanghai",
	"hong kong": "Asia/Hong_Kong",
	"singapore": "Asia/Singapore",
	"mumbai":    "Asia/Kolkata",
	"delhi":     "Asia/Kolkata",
	"dubai":     "Asia/Dubai",
	"seoul":     "Asia/Seoul",
	"bangkok":   "Asia/Bangkok",

	// Oceania
	"sydney":    "Australia/Sydney",
	"melbourne": "Australia/Melbourne",
	"auckland":  "Pacific/Auckland",

	// Common abbreviations
	"utc": "UTC",
	"gmt": "UTC",
	"est": "America/New_York",
	"pst": "America/Los_Angeles",
	"cet": "Europe/Paris",
	"jst": "Asia/Tokyo",
}

// TimeNowFn is replaceable in tests.
var TimeNowFn = time.Now

// resolveTimezone maps a city name, abbreviation or IANA name to a Location.
func resolveTimezone(name string) (*time.Location, string, error) {
	tzName := name
	if alias, ok := timezoneAliases[strings.ToLower(strings.TrimSpace(name))]; ok {
		tzName = alias
	}
	loc, err := time.LoadLocation(tzName)
	if err != nil {
		var suggestions []string
		lower := strings.ToLower(name)
		for k := range timezoneAliases {
			if strings.Contains(k, lower) {
				suggestions = append(suggestions, k)
			}
		}
		if len(suggestions) > 0 {
			sort.Strings(suggestions)
			if len(suggestions) > 5 {
				suggestions = suggestions[:5]
			}
			return nil, "", errors.Newf("unknown timezone %q, did you mean: %s?", name, strings.Join(suggestions, ", "))
		}
		return nil, "", errors.Newf("unknown timezone %q: try city names like 'London', 'Tokyo', 'New York' or IANA format like 'America/New_York'", name)
	}
	return loc, tzName, nil
}

// CurrentTimeRequest represents the current-time tool input.
type CurrentTimeRequest struct {
	Timezone string `json:"timezone,omitempty" yaml:"timezone,omitempty" jsonschema:"title=timezone,description=Timezone as a city name ('Tokyo'), abbreviation ('PST') or IANA name ('America/New_York'). Defaults to UTC."`
}

// CurrentTimeResult represents the current-time tool output.
type CurrentTimeResult struct {
	Timezone  string `json:"timezone" yaml:"timezone"`
	Date      string `json:"date" yaml:"date"`
	Time      string `json:"time" yaml:"time"`
	UTCOffset string `json:"utc_offset" yaml:"utc_offset"`
}

// CurrentTimeTool returns the current time in a timezone.
type CurrentTimeTool struct{}

var _ tools.Tool[CurrentTimeRequest, CurrentTimeResult] = (*CurrentTimeTool)(nil)

func NewCurrentTime() *CurrentTimeTool {
	return &CurrentTimeTool{}
}

func (t *CurrentTimeTool) Name() string {
	return "get_current_time"
}

func (t *CurrentTimeTool) Description() string {
	return "Returns the current date and time, optionally in a specific timezone. Accepts city names, abbreviations, or IANA timezone names."
}

func (t *CurrentTimeTool) Schema() *schema.Schema {
	return schema.MustNew(CurrentTimeRequest{})
}

func (t *CurrentTimeTool) Run(_ context.Context, req *CurrentTimeRequest) (*CurrentTimeResult, error) {
	tzName := "UTC"
	loc := time.UTC
	if req.Timezone != "" {
		var err error
		loc, tzName, err = resolveTimezone(req.Timezone)
		if err != nil {
			return nil, err
		}
	}

	now := TimeNowFn().In(loc)
	return &CurrentTimeResult{
		Timezone:  tzName,
		Date:      now.Format("Monday, January 02, 2006"),
		Time:      now.Format("15:04:05"),
		UTCOffset: now.Format("-0700"),
	}, nil
}

func (t *CurrentTimeTool) Call(ctx context.Context, input string) (string, error) {
	return tools.CallTyped(ctx, t, input)
}

// ConvertTimezoneRequest represents the timezone-conversion tool input.
type ConvertTimezoneRequest struct {
	Time         string `json:"time" yaml:"time" jsonschema:"title=time,description=Time to convert in HH:MM 24-hour format."`
	FromTimezone string `json:"from_timezone" yaml:"from_timezone" jsonschema:"title=from_timezone,description=Source timezone (city name or IANA format)."`
	ToTimezone   string `json:"to_timezone" yaml:"to_timezone" jsonschema:"title=to_timezone,description=Target timezone (city name or IANA format)."`
}

// ConvertTimezoneResult represents the timezone-conversion tool output.
type ConvertTimezoneResult struct {
	SourceTime      string  `json:"source_time" yaml:"source_time"`
	SourceTimezone  string  `json:"source_timezone" yaml:"source_timezone"`
	TargetTime      string  `json:"target_time" yaml:"target_time"`
	TargetTimezone  string  `json:"target_timezone" yaml:"target_timezone"`
	DifferenceHours float64 `json:"difference_hours" yaml:"difference_hours"`
}

// ConvertTimezoneTool converts a wall-clock time between timezones.
type ConvertTimezoneTool struct{}

var _ tools.Tool[ConvertTimezoneRequest, ConvertTimezoneResult] = (*ConvertTimezoneTool)(nil)

func NewConvertTimezone() *ConvertTimezoneTool {
	return &ConvertTimezoneTool{}
}

func (t *ConvertTimezoneTool) Name() string {
	return "convert_timezone"
}

func (t *ConvertTimezoneTool) Description() string {
	return "Converts a time in HH:MM format from one timezone to another and reports the hour difference."
}

func (t *ConvertTimezoneTool) Schema() *schema.Schema {
	return schema.MustNew(ConvertTimezoneRequest{})
}

func (t *ConvertTimezoneTool) Run(_ context.Context, req *ConvertTimezoneRequest) (*ConvertTimezoneResult, error) {
	fromLoc, fromName, err := resolveTimezone(req.FromTimezone)
	if err != nil {
		return nil, err
	}
	toLoc, toName, err := resolveTimezone(req.ToTimezone)
	if err != nil {
		return nil, err
	}

	parsed, err := time.Parse("15:04", req.Time)
	if err != nil {
		return nil, errors.New("invalid time format: use HH:MM (24-hour)")
	}

	now := TimeNowFn()
	source := time.Date(now.Year(), now.Month(), now.Day(),
		parsed.Hour(), parsed.Minute(), 0, 0, fromLoc)
	target := source.In(toLoc)

	_, sourceOffset := source.Zone()
	_, targetOffset := target.Zone()
	diff := float64(targetOffset-sourceOffset) / 3600

	return &ConvertTimezoneResult{
		SourceTime:      source.Format("15:04"),
		SourceTimezone:  fromName,
		TargetTime:      target.Format("15:04"),
		TargetTimezone:  toName,
		DifferenceHours: diff,
	}, nil
}

func (t *ConvertTimezoneTool) Call(ctx context.Context, input string) (string, error) {
	return tools.CallTyped(ctx, t, input)
}

// ConvertTemperatureRequest represents the temperature-conversion tool input.
type ConvertTemperatureRequest struct {
	Value    float64 `json:"value" yaml:"value" jsonschema:"title=value,description=The temperature value to convert."`
	FromUnit string  `json:"from_unit" yaml:"from_unit" jsonschema:"title=from_unit,description=Source unit: celsius fahrenheit or kelvin (or c f k)."`
	ToUnit   string  `json:"to_unit" yaml:"to_unit" jsonschema:"title=to_unit,description=Target unit: celsius fahrenheit or kelvin (or c f k)."`
}

// ConvertTemperatureResult represents the temperature-conversion tool output.
type ConvertTemperatureResult struct {
	Result string  `json:"result" yaml:"result"`
	Value  float64 `json:"value" yaml:"value"`
	Unit   string  `json:"unit" yaml:"unit"`
}

// ConvertTemperatureTool converts between Celsius, Fahrenheit and Kelvin.
type ConvertTemperatureTool struct{}

var _ tools.Tool[ConvertTemperatureRequest, ConvertTemperatureResult] = (*ConvertTemperatureTool)(nil)

func NewConvertTemperature() *ConvertTemperatureTool {
	return &ConvertTemperatureTool{}
}

func (t *ConvertTemperatureTool) Name() string {
	return "convert_temperature"
}

func (t *ConvertTemperatureTool) Description() string {
	return "Converts a temperature between Celsius, Fahrenheit and Kelvin."
}

func (t *ConvertTemperatureTool) Schema() *schema.Schema {
	return schema.MustNew(ConvertTemperatureRequest{})
}

var temperatureUnits = map[string]string{
	"c": "celsius", "celsius": "celsius",
	"f": "fahrenheit", "fahrenheit": "fahrenheit",
	"k": "kelvin", "kelvin": "kelvin",
}

var temperatureSymbols = map[string]string{
	"celsius":    "°C",
	"fahrenheit": "°F",
	"kelvin":     "K",
}

func (t *ConvertTemperatureTool) Run(_ context.Context, req *ConvertTemperatureRequest) (*ConvertTemperatureResult, error) {
	fromUnit := temperatureUnits[strings.ToLower(strings.TrimSpace(req.FromUnit))]
	toUnit := temperatureUnits[strings.ToLower(strings.TrimSpace(req.ToUnit))]
	if fromUnit == "" || toUnit == "" {
		return nil, errors.New("invalid unit: use 'celsius' (c), 'fahrenheit' (f), or 'kelvin' (k)")
	}

	// convert through Celsius
	var celsius float64
	switch fromUnit {
	case "celsius":
		celsius = req.Value
	case "fahrenheit":
		celsius = (req.Value - 32) * 5 / 9
	case "kelvin":
		celsius = req.Value - 273.15
	}

	var result float64
	switch toUnit {
	case "celsius":
		result = celsius
	case "fahrenheit":
		result = celsius*9/5 + 32
	case "kelvin":
		result = celsius + 273.15
	}

	rounded := math.Round(result*100) / 100

	return &ConvertTemperatureResult{
		Result: fmt.Sprintf("%v%s = %v%s", req.Value, temperatureSymbols[fromUnit], rounded, temperatureSymbols[toUnit]),
		Value:  rounded,
		Unit:   toUnit,
	}, nil
}

func (t *ConvertTemperatureTool) Call(ctx context.Context, input string) (string, error) {
	return tools.CallTyped(ctx, t, input)
}

// Tools returns all the clock tools for registration.
func Tools() []tools.ITool {
	return []tools.ITool{
		NewCurrentTime(),
		NewConvertTimezone(),
		NewConvertTemperature(),
	}
}
