package clock_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/effective-security/agentic/tools"
	"github.com/effective-security/agentic/tools/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_CurrentTime(t *testing.T) {
	t.Cleanup(func() { clock.TimeNowFn = time.Now })
	clock.TimeNowFn = func() time.Time {
		return time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	}

	tool := clock.NewCurrentTime()
	ctx := t.Context()

	res, err := tool.Run(ctx, &clock.CurrentTimeRequest{})
	require.NoError(t, err)
	assert.Equal(t, "UTC", res.Timezone)
	assert.Equal(t, "Sunday, June 15, 2025", res.Date)
	assert.Equal(t, "12:00:00", res.Time)
	assert.Equal(t, "+0000", res.UTCOffset)

	res, err = tool.Run(ctx, &clock.CurrentTimeRequest{Timezone: "Tokyo"})
	require.NoError(t, err)
	assert.Equal(t, "Asia/Tokyo", res.Timezone)
	assert.Equal(t, "21:00:00", res.Time)
	assert.Equal(t, "+0900", res.UTCOffset)

	res, err = tool.Run(ctx, &clock.CurrentTimeRequest{Timezone: "America/Chicago"})
	require.NoError(t, err)
	assert.Equal(t, "America/Chicago", res.Timezone)
	assert.Equal(t, "07:00:00", res.Time)

	_, err = tool.Run(ctx, &clock.CurrentTimeRequest{Timezone: "Atlantis"})
	assert.EqualError(t, err, `unknown timezone "Atlantis": try city names like 'London', 'Tokyo', 'New York' or IANA format like 'America/New_York'`)

	_, err = tool.Run(ctx, &clock.CurrentTimeRequest{Timezone: "Yor"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "did you mean")
	assert.Contains(t, err.Error(), "new york")
}

func Test_ConvertTimezone(t *testing.T) {
	t.Cleanup(func() { clock.TimeNowFn = time.Now })
	clock.TimeNowFn = func() time.Time {
		// fixed summer date so DST offsets are deterministic
		return time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	}

	tool := clock.NewConvertTimezone()
	ctx := t.Context()

	res, err := tool.Run(ctx, &clock.ConvertTimezoneRequest{
		Time:         "14:30",
		FromTimezone: "London",
		ToTimezone:   "Tokyo",
	})
	require.NoError(t, err)
	assert.Equal(t, "14:30", res.SourceTime)
	assert.Equal(t, "Europe/London", res.SourceTimezone)
	assert.Equal(t, "22:30", res.TargetTime)
	assert.Equal(t, "Asia/Tokyo", res.TargetTimezone)
	assert.Equal(t, float64(8), res.DifferenceHours)

	res, err = tool.Run(ctx, &clock.ConvertTimezoneRequest{
		Time:         "09:00",
		FromTimezone: "est",
		ToTimezone:   "pst",
	})
	require.NoError(t, err)
	assert.Equal(t, "06:00", res.TargetTime)
	assert.Equal(t, float64(-3), res.DifferenceHours)

	_, err = tool.Run(ctx, &clock.ConvertTimezoneRequest{
		Time:         "25:99",
		FromTimezone: "utc",
		ToTimezone:   "utc",
	})
	assert.EqualError(t, err, "invalid time format: use HH:MM (24-hour)")

	_, err = tool.Run(ctx, &clock.ConvertTimezoneRequest{
		Time:         "10:00",
		FromTimezone: "Narnia",
		ToTimezone:   "utc",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown timezone")
}

func Test_ConvertTemperature(t *testing.T) {
	tool := clock.NewConvertTemperature()
	ctx := t.Context()

	tcases := []struct {
		value    float64
		from, to string
		exp      float64
	}{
		{100, "celsius", "fahrenheit", 212},
		{32, "f", "c", 0},
		{0, "c", "k", 273.15},
		{273.15, "kelvin", "celsius", 0},
		{98.6, "F", "C", 37},
		{20, "c", "c", 20},
		{-40, "c", "f", -40},
	}
	for _, tc := range tcases {
		res, err := tool.Run(ctx, &clock.ConvertTemperatureRequest{
			Value:    tc.value,
			FromUnit: tc.from,
			ToUnit:   tc.to,
		})
		require.NoError(t, err, "%v %s to %s", tc.value, tc.from, tc.to)
		assert.Equal(t, tc.exp, res.Value, "%v %s to %s", tc.value, tc.from, tc.to)
	}

	res, err := tool.Run(ctx, &clock.ConvertTemperatureRequest{Value: 100, FromUnit: "c", ToUnit: "f"})
	require.NoError(t, err)
	assert.Equal(t, "100°C = 212°F", res.Result)
	assert.Equal(t, "fahrenheit", res.Unit)

	_, err = tool.Run(ctx, &clock.ConvertTemperatureRequest{Value: 1, FromUnit: "rankine", ToUnit: "c"})
	assert.EqualError(t, err, "invalid unit: use 'celsius' (c), 'fahrenheit' (f), or 'kelvin' (k)")
}

func Test_Call(t *testing.T) {
	t.Cleanup(func() { clock.TimeNowFn = time.Now })
	clock.TimeNowFn = func() time.Time {
		return time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	}

	ctx := t.Context()

	out, err := clock.NewConvertTemperature().Call(ctx, `{"value": 0, "from_unit": "c", "to_unit": "k"}`)
	require.NoError(t, err)
	var res clock.ConvertTemperatureResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, 273.15, res.Value)

	_, err = clock.NewCurrentTime().Call(ctx, "what time is it")
	assert.Error(t, err)
}

func Test_Tools(t *testing.T) {
	list := clock.Tools()
	require.Len(t, list, 3)

	reg, err := tools.NewRegistry(list...)
	require.NoError(t, err)
	assert.Len(t, reg.Tools(), 3)
}
