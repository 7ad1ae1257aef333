package models

import (
	"fmt"

	"github.com/go-gota/gota/dataframe"
)

// Column names shared by every record source
const (
	ColYear        = "year"
	ColMonth       = "mnth"
	ColWeekday     = "weekday"
	ColHour        = "hr"
	ColSeason      = "season_desc"
	ColWeather     = "weather_desc"
	ColTemperature = "temp_actual"
	ColHumidity    = "hum_actual"
	ColWindspeed   = "windspeed_actual"
	ColCasual      = "casual"
	ColRegistered  = "registered"
	ColTotal       = "cnt"
	ColCasualRatio = "casual_ratio"
)

// DailyColumns lists the columns every daily table must carry.
// casual_ratio is derived when a source omits it.
var DailyColumns = []string{
	ColYear, ColMonth, ColWeekday, ColSeason, ColWeather,
	ColTemperature, ColHumidity, ColWindspeed,
	ColCasual, ColRegistered, ColTotal,
}

// HourlyColumns lists the columns every hourly table must carry
var HourlyColumns = append([]string{ColHour}, DailyColumns...)

// CorrelationColumns are the numeric columns of the correlation view, in display order
var CorrelationColumns = []string{
	ColTemperature, ColHumidity, ColWindspeed, ColCasual, ColRegistered, ColTotal,
}

// HourlyRecord is one row per (calendar date, hour of day)
type HourlyRecord struct {
	Year        int     `json:"year" db:"year" dataframe:"year"`
	Month       int     `json:"mnth" db:"mnth" dataframe:"mnth"`
	Weekday     int     `json:"weekday" db:"weekday" dataframe:"weekday"`
	Hour        int     `json:"hr" db:"hr" dataframe:"hr"`
	Season      string  `json:"season_desc" db:"season_desc" dataframe:"season_desc"`
	Weather     string  `json:"weather_desc" db:"weather_desc" dataframe:"weather_desc"`
	Temperature float64 `json:"temp_actual" db:"temp_actual" dataframe:"temp_actual"`
	Humidity    float64 `json:"hum_actual" db:"hum_actual" dataframe:"hum_actual"`
	Windspeed   float64 `json:"windspeed_actual" db:"windspeed_actual" dataframe:"windspeed_actual"`
	Casual      int     `json:"casual" db:"casual" dataframe:"casual"`
	Registered  int     `json:"registered" db:"registered" dataframe:"registered"`
	Total       int     `json:"cnt" db:"cnt" dataframe:"cnt"`
	CasualRatio float64 `json:"casual_ratio" db:"casual_ratio" dataframe:"casual_ratio"`
}

// DailyRecord is one row per calendar date
type DailyRecord struct {
	Year        int     `json:"year" db:"year" dataframe:"year"`
	Month       int     `json:"mnth" db:"mnth" dataframe:"mnth"`
	Weekday     int     `json:"weekday" db:"weekday" dataframe:"weekday"`
	Season      string  `json:"season_desc" db:"season_desc" dataframe:"season_desc"`
	Weather     string  `json:"weather_desc" db:"weather_desc" dataframe:"weather_desc"`
	Temperature float64 `json:"temp_actual" db:"temp_actual" dataframe:"temp_actual"`
	Humidity    float64 `json:"hum_actual" db:"hum_actual" dataframe:"hum_actual"`
	Windspeed   float64 `json:"windspeed_actual" db:"windspeed_actual" dataframe:"windspeed_actual"`
	Casual      int     `json:"casual" db:"casual" dataframe:"casual"`
	Registered  int     `json:"registered" db:"registered" dataframe:"registered"`
	Total       int     `json:"cnt" db:"cnt" dataframe:"cnt"`
	CasualRatio float64 `json:"casual_ratio" db:"casual_ratio" dataframe:"casual_ratio"`
}

// CasualRatio returns casual / total, 0 when nothing was rented
func CasualRatio(casual, total int) float64 {
	if total <= 0 {
		return 0
	}
	return float64(casual) / float64(total)
}

// Normalize fills the derived ratio and checks value ranges
func (r *HourlyRecord) Normalize() error {
	if r.Hour < 0 || r.Hour > 23 {
		return &ValidationError{Field: ColHour, Value: fmt.Sprint(r.Hour), Message: "hour must be between 0 and 23"}
	}
	return normalizeCommon(r.Month, r.Weekday, r.Casual, r.Registered, r.Total, &r.CasualRatio)
}

// Normalize fills the derived ratio and checks value ranges
func (r *DailyRecord) Normalize() error {
	return normalizeCommon(r.Month, r.Weekday, r.Casual, r.Registered, r.Total, &r.CasualRatio)
}

func normalizeCommon(month, weekday, casual, registered, total int, ratio *float64) error {
	if !Month(month).Valid() {
		return &ValidationError{Field: ColMonth, Value: fmt.Sprint(month), Message: "month must be between 1 and 12"}
	}
	if !Weekday(weekday).Valid() {
		return &ValidationError{Field: ColWeekday, Value: fmt.Sprint(weekday), Message: "weekday must be between 0 and 6"}
	}
	if casual < 0 || registered < 0 {
		return &ValidationError{Field: ColCasual, Value: fmt.Sprintf("%d/%d", casual, registered), Message: "user counts must not be negative"}
	}
	if casual+registered != total {
		return &ValidationError{
			Field:   ColTotal,
			Value:   fmt.Sprint(total),
			Message: fmt.Sprintf("cnt must equal casual + registered (%d + %d)", casual, registered),
		}
	}
	*ratio = CasualRatio(casual, total)
	return nil
}

// Dataset is the pair of immutable tables every record source yields.
// Tables are gota data frames: a mapping from column name to column values.
type Dataset struct {
	Hourly dataframe.DataFrame
	Daily  dataframe.DataFrame
}

// ValidationError represents a data validation error
type ValidationError struct {
	Field   string
	Value   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// IsTransient returns false as validation errors are permanent
func (e *ValidationError) IsTransient() bool {
	return false
}
