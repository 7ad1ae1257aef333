package analysis

import (
	"math"
	"math/rand"
	"sort"

	"github.com/go-gota/gota/dataframe"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"bikeshare-dashboard/internal/models"
)

// DefaultSampleSize caps the scatter sample
const DefaultSampleSize = 5000

// DefaultSampleSeed makes the scatter sample reproducible
const DefaultSampleSeed int64 = 42

var usageColumns = []string{models.ColCasual, models.ColRegistered, models.ColTotal}

func usageTotals(g dataframe.DataFrame) (models.UsageTotals, error) {
	var sums [3]int64
	for i, name := range usageColumns {
		vals, err := floatColumn(g, name)
		if err != nil {
			return models.UsageTotals{}, err
		}
		sums[i] = int64(math.Round(floats.Sum(vals)))
	}
	return models.UsageTotals{Casual: sums[0], Registered: sums[1], Total: sums[2]}, nil
}

// ByHour sums user counts per hour of day over the hourly table
func ByHour(hourly dataframe.DataFrame) ([]models.HourUsage, error) {
	groups, err := groupFrames(hourly, []string{models.ColHour}, usageColumns...)
	if err != nil {
		return nil, err
	}

	out := make([]models.HourUsage, 0, len(groups))
	for _, g := range groups {
		hour, err := intKey(g, models.ColHour)
		if err != nil {
			return nil, err
		}
		totals, err := usageTotals(g)
		if err != nil {
			return nil, err
		}
		out = append(out, models.HourUsage{Hour: hour, UsageTotals: totals})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Hour < out[j].Hour })
	return out, nil
}

// ByWeekday sums user counts per weekday over the hourly table, Monday first
func ByWeekday(hourly dataframe.DataFrame, loc *models.Locale) ([]models.WeekdayUsage, error) {
	groups, err := groupFrames(hourly, []string{models.ColWeekday}, usageColumns...)
	if err != nil {
		return nil, err
	}

	out := make([]models.WeekdayUsage, 0, len(groups))
	for _, g := range groups {
		code, err := intKey(g, models.ColWeekday)
		if err != nil {
			return nil, err
		}
		totals, err := usageTotals(g)
		if err != nil {
			return nil, err
		}
		day := models.Weekday(code)
		out = append(out, models.WeekdayUsage{Weekday: day, DayName: day.Name(loc), UsageTotals: totals})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Weekday.DisplayIndex() < out[j].Weekday.DisplayIndex() })
	return out, nil
}

// ByMonth sums user counts per month over the daily table, in calendar order
func ByMonth(daily dataframe.DataFrame, loc *models.Locale) ([]models.MonthUsage, error) {
	groups, err := groupFrames(daily, []string{models.ColMonth}, usageColumns...)
	if err != nil {
		return nil, err
	}

	out := make([]models.MonthUsage, 0, len(groups))
	for _, g := range groups {
		code, err := intKey(g, models.ColMonth)
		if err != nil {
			return nil, err
		}
		totals, err := usageTotals(g)
		if err != nil {
			return nil, err
		}
		month := models.Month(code)
		out = append(out, models.MonthUsage{Month: month, MonthName: month.ShortName(loc), UsageTotals: totals})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Month < out[j].Month })
	return out, nil
}

// BySeason sums user counts per season label over the daily table
func BySeason(daily dataframe.DataFrame) ([]models.SeasonUsage, error) {
	groups, err := groupFrames(daily, []string{models.ColSeason}, usageColumns...)
	if err != nil {
		return nil, err
	}

	out := make([]models.SeasonUsage, 0, len(groups))
	for _, g := range groups {
		season, err := stringKey(g, models.ColSeason)
		if err != nil {
			return nil, err
		}
		totals, err := usageTotals(g)
		if err != nil {
			return nil, err
		}
		out = append(out, models.SeasonUsage{Season: season, UsageTotals: totals})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Season < out[j].Season })
	return out, nil
}

// ByWeather sums user counts and averages the casual ratio per weather label
// over the hourly table
func ByWeather(hourly dataframe.DataFrame) ([]models.WeatherUsage, error) {
	groups, err := groupFrames(hourly, []string{models.ColWeather}, append(usageColumns, models.ColCasualRatio)...)
	if err != nil {
		return nil, err
	}

	out := make([]models.WeatherUsage, 0, len(groups))
	for _, g := range groups {
		weather, err := stringKey(g, models.ColWeather)
		if err != nil {
			return nil, err
		}
		totals, err := usageTotals(g)
		if err != nil {
			return nil, err
		}
		ratios, err := floatColumn(g, models.ColCasualRatio)
		if err != nil {
			return nil, err
		}
		out = append(out, models.WeatherUsage{
			Weather:     weather,
			UsageTotals: totals,
			CasualRatio: models.NullableFloat(stat.Mean(ratios, nil)),
		})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Weather < out[j].Weather })
	return out, nil
}

// SeasonWeatherRatio pivots the mean casual ratio into season rows and
// weather columns. Combinations with no rows stay undefined.
//
// The rows are walked directly instead of through GroupBy: gota joins
// multi-column keys with "_", so ("A_B", "C") and ("A", "B_C") would share a
// group.
func SeasonWeatherRatio(hourly dataframe.DataFrame) (models.RatioMatrix, error) {
	if hourly.Err != nil {
		return models.RatioMatrix{}, hourly.Err
	}

	type cell struct{ season, weather string }
	type acc struct {
		sum float64
		n   int
	}
	cells := make(map[cell]*acc)
	seasonSet := make(map[string]struct{})
	weatherSet := make(map[string]struct{})

	if hourly.Nrow() > 0 {
		seasons, err := column(hourly, models.ColSeason)
		if err != nil {
			return models.RatioMatrix{}, err
		}
		weathers, err := column(hourly, models.ColWeather)
		if err != nil {
			return models.RatioMatrix{}, err
		}
		ratios, err := floatColumn(hourly, models.ColCasualRatio)
		if err != nil {
			return models.RatioMatrix{}, err
		}

		seasonLabels := seasons.Records()
		weatherLabels := weathers.Records()
		for i, ratio := range ratios {
			k := cell{seasonLabels[i], weatherLabels[i]}
			a, ok := cells[k]
			if !ok {
				a = &acc{}
				cells[k] = a
			}
			a.sum += ratio
			a.n++
			seasonSet[k.season] = struct{}{}
			weatherSet[k.weather] = struct{}{}
		}
	}

	m := models.RatioMatrix{
		Seasons:  sortedKeys(seasonSet),
		Weathers: sortedKeys(weatherSet),
	}
	m.Values = make([][]models.NullableFloat, len(m.Seasons))
	for i, season := range m.Seasons {
		row := make([]models.NullableFloat, len(m.Weathers))
		for j, weather := range m.Weathers {
			if a, ok := cells[cell{season, weather}]; ok {
				row[j] = models.NullableFloat(a.sum / float64(a.n))
			} else {
				row[j] = models.Undefined()
			}
		}
		m.Values[i] = row
	}
	return m, nil
}

// Correlation computes the Pearson correlation matrix of the weather and
// usage columns. Pairs involving a constant column, or a table with fewer
// than two rows, are undefined.
func Correlation(hourly dataframe.DataFrame) (models.CorrelationMatrix, error) {
	cols := models.CorrelationColumns
	m := models.CorrelationMatrix{
		Columns: append([]string{}, cols...),
		Values:  make([][]models.NullableFloat, len(cols)),
	}
	for i := range m.Values {
		m.Values[i] = make([]models.NullableFloat, len(cols))
		for j := range m.Values[i] {
			m.Values[i][j] = models.Undefined()
		}
	}

	if hourly.Err != nil {
		return m, hourly.Err
	}
	if hourly.Nrow() < 2 {
		return m, nil
	}

	data := make([][]float64, len(cols))
	varies := make([]bool, len(cols))
	for i, name := range cols {
		vals, err := floatColumn(hourly, name)
		if err != nil {
			return m, err
		}
		data[i] = vals
		varies[i] = stat.StdDev(vals, nil) > 0
	}

	for i := range cols {
		if !varies[i] {
			continue
		}
		m.Values[i][i] = 1
		for j := i + 1; j < len(cols); j++ {
			if !varies[j] {
				continue
			}
			r := stat.Correlation(data[i], data[j], nil)
			r = math.Max(-1, math.Min(1, r))
			m.Values[i][j] = models.NullableFloat(r)
			m.Values[j][i] = models.NullableFloat(r)
		}
	}
	return m, nil
}

// Sample draws min(size, rows) distinct rows of the hourly table. The same
// seed on the same table always yields the same rows in the same order.
func Sample(hourly dataframe.DataFrame, size int, seed int64) ([]models.SamplePoint, error) {
	if hourly.Err != nil {
		return nil, hourly.Err
	}
	n := hourly.Nrow()
	k := size
	if n < k {
		k = n
	}
	if k <= 0 {
		return []models.SamplePoint{}, nil
	}

	temps, err := floatColumn(hourly, models.ColTemperature)
	if err != nil {
		return nil, err
	}
	casual, err := intColumn(hourly, models.ColCasual)
	if err != nil {
		return nil, err
	}
	registered, err := intColumn(hourly, models.ColRegistered)
	if err != nil {
		return nil, err
	}

	rng := rand.New(rand.NewSource(seed))
	picks := rng.Perm(n)[:k]

	out := make([]models.SamplePoint, k)
	for i, row := range picks {
		out[i] = models.SamplePoint{
			Temperature: temps[row],
			Casual:      int64(casual[row]),
			Registered:  int64(registered[row]),
		}
	}
	return out, nil
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
