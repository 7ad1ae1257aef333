package models

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHourlyRecord_Normalize(t *testing.T) {
	tests := []struct {
		name        string
		record      HourlyRecord
		wantErr     bool
		wantField   string
		checkValues func(*testing.T, HourlyRecord)
	}{
		{
			name:   "valid record derives ratio",
			record: HourlyRecord{Year: 2011, Month: 1, Weekday: 6, Hour: 0, Casual: 3, Registered: 13, Total: 16},
			checkValues: func(t *testing.T, r HourlyRecord) {
				assert.InDelta(t, 3.0/16.0, r.CasualRatio, 1e-12)
			},
		},
		{
			name:   "zero rentals gives zero ratio",
			record: HourlyRecord{Year: 2011, Month: 1, Weekday: 0, Hour: 4},
			checkValues: func(t *testing.T, r HourlyRecord) {
				assert.Equal(t, 0.0, r.CasualRatio)
			},
		},
		{
			name:      "hour out of range",
			record:    HourlyRecord{Month: 1, Hour: 24},
			wantErr:   true,
			wantField: ColHour,
		},
		{
			name:      "month out of range",
			record:    HourlyRecord{Month: 13},
			wantErr:   true,
			wantField: ColMonth,
		},
		{
			name:      "weekday out of range",
			record:    HourlyRecord{Month: 2, Weekday: 7},
			wantErr:   true,
			wantField: ColWeekday,
		},
		{
			name:      "total mismatch",
			record:    HourlyRecord{Month: 2, Casual: 1, Registered: 1, Total: 3},
			wantErr:   true,
			wantField: ColTotal,
		},
		{
			name:      "negative counts",
			record:    HourlyRecord{Month: 2, Casual: -1, Registered: 1, Total: 0},
			wantErr:   true,
			wantField: ColCasual,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := tt.record
			err := rec.Normalize()

			if tt.wantErr {
				var vErr *ValidationError
				require.ErrorAs(t, err, &vErr)
				assert.Equal(t, tt.wantField, vErr.Field)
				assert.False(t, vErr.IsTransient())
				return
			}
			require.NoError(t, err)
			if tt.checkValues != nil {
				tt.checkValues(t, rec)
			}
		})
	}
}

func TestDailyRecord_Normalize(t *testing.T) {
	rec := DailyRecord{Year: 2012, Month: 12, Weekday: 1, Casual: 100, Registered: 300, Total: 400}
	require.NoError(t, rec.Normalize())
	assert.InDelta(t, 0.25, rec.CasualRatio, 1e-12)

	bad := DailyRecord{Month: 0}
	assert.Error(t, bad.Normalize())
}

func TestWeekday_DisplayOrder(t *testing.T) {
	loc := DefaultLocale()

	names := make([]string, 0, 7)
	for i, d := range WeekdayDisplayOrder {
		assert.Equal(t, i, d.DisplayIndex())
		names = append(names, d.Name(loc))
	}
	assert.Equal(t, []string{"Senin", "Selasa", "Rabu", "Kamis", "Jumat", "Sabtu", "Minggu"}, names)
	assert.Equal(t, "", Weekday(9).Name(loc))
}

func TestMonth_Names(t *testing.T) {
	id := DefaultLocale()
	en, err := LookupLocale("en-US")
	require.NoError(t, err)

	assert.Equal(t, "Agt", August.ShortName(id))
	assert.Equal(t, "Agustus", August.LongName(id))
	assert.Equal(t, "Aug", August.ShortName(en))
	assert.Equal(t, "December", December.LongName(en))
	assert.Equal(t, "", Month(0).ShortName(id))
}

func TestLookupLocale(t *testing.T) {
	loc, err := LookupLocale("id")
	require.NoError(t, err)
	assert.Equal(t, "Jam Puncak", loc.Labels.PeakHour)

	_, err = LookupLocale("fr")
	assert.Error(t, err)

	_, err = LookupLocale("!!")
	assert.Error(t, err)
}

func TestLocale_Formatting(t *testing.T) {
	en, err := LookupLocale("en")
	require.NoError(t, err)

	assert.Equal(t, "3,292,679", en.FormatCount(3292679))
	assert.Equal(t, "18.8%", en.FormatPercent(18.83))
	assert.Equal(t, "-", en.FormatPercent(Undefined()))
}

func TestNullableFloat_JSON(t *testing.T) {
	data, err := json.Marshal([]NullableFloat{1, 0.5, Undefined(), NullableFloat(math.Inf(1))})
	require.NoError(t, err)
	assert.JSONEq(t, `[1, 0.5, null, null]`, string(data))

	var back []NullableFloat
	require.NoError(t, json.Unmarshal([]byte(`[0.25, null]`), &back))
	require.Len(t, back, 2)
	assert.Equal(t, NullableFloat(0.25), back[0])
	assert.False(t, back[1].Valid())
}

func TestNewFilterSelection_Normalizes(t *testing.T) {
	sel := NewFilterSelection([]int{2012, 2011, 2012}, []string{"Winter", "Fall", "Winter"})
	assert.Equal(t, []int{2011, 2012}, sel.Years)
	assert.Equal(t, []string{"Fall", "Winter"}, sel.Seasons)
	assert.False(t, sel.SelectsNothing())

	empty := NewFilterSelection(nil, []string{"Fall"})
	assert.True(t, empty.SelectsNothing())
	assert.NotNil(t, empty.Years)
}

func TestFilterOptions_Validate(t *testing.T) {
	opts := FilterOptions{Years: []int{2011, 2012}, Seasons: []string{"Fall", "Spring"}}

	assert.NoError(t, opts.Validate(opts.Default()))
	assert.NoError(t, opts.Validate(NewFilterSelection(nil, nil)))

	err := opts.Validate(NewFilterSelection([]int{2013}, nil))
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, ColYear, vErr.Field)

	err = opts.Validate(NewFilterSelection(nil, []string{"Monsoon"}))
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, ColSeason, vErr.Field)
}

func TestRatioMatrix_At(t *testing.T) {
	m := RatioMatrix{
		Seasons:  []string{"Fall", "Spring"},
		Weathers: []string{"Clear", "Rain"},
		Values:   [][]NullableFloat{{0.1, Undefined()}, {0.2, 0.3}},
	}

	v, ok := m.At("Spring", "Rain")
	assert.True(t, ok)
	assert.Equal(t, NullableFloat(0.3), v)

	v, ok = m.At("Fall", "Rain")
	assert.True(t, ok)
	assert.False(t, v.Valid())

	_, ok = m.At("Winter", "Clear")
	assert.False(t, ok)
}

func TestParseLists(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    []int
		wantErr bool
	}{
		{name: "two years", raw: "2011,2012", want: []int{2011, 2012}},
		{name: "spaces and blanks", raw: " 2012 ,, 2011", want: []int{2012, 2011}},
		{name: "empty", raw: "", want: nil},
		{name: "not a number", raw: "2011,next", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseYearList(tt.raw)
			if tt.wantErr {
				var vErr *ValidationError
				require.ErrorAs(t, err, &vErr)
				assert.Equal(t, ColYear, vErr.Field)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	assert.Equal(t, []string{"Fall", "Spring"}, ParseSeasonList("Fall, Spring,"))
	assert.Empty(t, ParseSeasonList(""))

	seasonTests := []struct {
		name   string
		values []string
		want   []string
	}{
		{name: "single list", values: []string{"Fall,Spring"}, want: []string{"Fall", "Spring"}},
		{name: "single empty", values: []string{""}, want: nil},
		{name: "repeated values kept whole", values: []string{"Fall, late", "Spring"}, want: []string{"Fall, late", "Spring"}},
		{name: "form with hidden blank", values: []string{"", "Fall, late"}, want: []string{"Fall, late"}},
	}
	for _, tt := range seasonTests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseSeasonValues(tt.values))
		})
	}
}
