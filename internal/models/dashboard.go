package models

import (
	"bytes"
	"math"
	"strconv"
)

// NullableFloat is a float that encodes NaN and ±Inf as JSON null.
// Undefined correlations, absent pivot cells and the casual percentage of an
// empty selection all travel as NaN.
type NullableFloat float64

// Undefined returns the NaN value
func Undefined() NullableFloat {
	return NullableFloat(math.NaN())
}

// Valid reports whether the value is a finite number
func (f NullableFloat) Valid() bool {
	v := float64(f)
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// MarshalJSON implements json.Marshaler
func (f NullableFloat) MarshalJSON() ([]byte, error) {
	if !f.Valid() {
		return []byte("null"), nil
	}
	return strconv.AppendFloat(nil, float64(f), 'g', -1, 64), nil
}

// UnmarshalJSON implements json.Unmarshaler
func (f *NullableFloat) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*f = Undefined()
		return nil
	}
	v, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		return err
	}
	*f = NullableFloat(v)
	return nil
}

// UsageTotals are the summed user counts of one group
type UsageTotals struct {
	Casual     int64 `json:"casual"`
	Registered int64 `json:"registered"`
	Total      int64 `json:"cnt"`
}

// HourUsage is a row of the by-hour view
type HourUsage struct {
	Hour int `json:"hr"`
	UsageTotals
}

// WeekdayUsage is a row of the by-weekday view
type WeekdayUsage struct {
	Weekday Weekday `json:"weekday"`
	DayName string  `json:"day_name"`
	UsageTotals
}

// MonthUsage is a row of the by-month view
type MonthUsage struct {
	Month     Month  `json:"mnth"`
	MonthName string `json:"month_name"`
	UsageTotals
}

// SeasonUsage is a row of the by-season view
type SeasonUsage struct {
	Season string `json:"season_desc"`
	UsageTotals
}

// WeatherUsage is a row of the by-weather view
type WeatherUsage struct {
	Weather string `json:"weather_desc"`
	UsageTotals
	CasualRatio NullableFloat `json:"casual_ratio"`
}

// RatioMatrix is the season × weather pivot of mean casual ratio.
// Values[i][j] belongs to Seasons[i] and Weathers[j]; absent combinations are NaN.
type RatioMatrix struct {
	Seasons  []string          `json:"seasons"`
	Weathers []string          `json:"weathers"`
	Values   [][]NullableFloat `json:"values"`
}

// At returns the cell for a season and weather label
func (m RatioMatrix) At(season, weather string) (NullableFloat, bool) {
	for i, s := range m.Seasons {
		if s != season {
			continue
		}
		for j, w := range m.Weathers {
			if w == weather {
				return m.Values[i][j], true
			}
		}
	}
	return Undefined(), false
}

// CorrelationMatrix is a square Pearson correlation table
type CorrelationMatrix struct {
	Columns []string          `json:"columns"`
	Values  [][]NullableFloat `json:"values"`
}

// SamplePoint is one row of the temperature scatter sample
type SamplePoint struct {
	Temperature float64 `json:"temp_actual"`
	Casual      int64   `json:"casual"`
	Registered  int64   `json:"registered"`
}

// Metrics are the four scalar summaries of a selection
type Metrics struct {
	TotalRentals     int64         `json:"total_rentals"`
	CasualPercentage NullableFloat `json:"casual_percentage"`
	PeakMonth        *Month        `json:"peak_month"`
	PeakHour         *int          `json:"peak_hour"`
}

// KPIs are the metrics rendered for display
type KPIs struct {
	TotalRentals     string `json:"total_rentals"`
	CasualPercentage string `json:"casual_percentage"`
	PeakMonth        string `json:"peak_month"`
	PeakHour         string `json:"peak_hour"`
}

// Dashboard bundles every view computed for one selection
type Dashboard struct {
	Selection          FilterSelection   `json:"selection"`
	HourlyRows         int               `json:"hourly_rows"`
	DailyRows          int               `json:"daily_rows"`
	ByHour             []HourUsage       `json:"by_hour"`
	ByWeekday          []WeekdayUsage    `json:"by_weekday"`
	ByMonth            []MonthUsage      `json:"by_month"`
	BySeason           []SeasonUsage     `json:"by_season"`
	ByWeather          []WeatherUsage    `json:"by_weather"`
	SeasonWeatherRatio RatioMatrix       `json:"season_weather_ratio"`
	Correlation        CorrelationMatrix `json:"correlation"`
	Sample             []SamplePoint     `json:"sample"`
	Metrics            Metrics           `json:"metrics"`
	KPIs               KPIs              `json:"kpis"`
}
