package repository

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bikeshare-dashboard/internal/config"
	"bikeshare-dashboard/internal/models"
)

func TestCSVSource_Load(t *testing.T) {
	hourlyPath, dailyPath := writeCSVFixtures(t)
	src := NewCSVSource(hourlyPath, dailyPath)
	assert.Equal(t, config.SourceCSV, src.Kind())

	dataset, err := src.Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, len(hourlyRows), dataset.Hourly.Nrow())
	assert.Equal(t, len(dailyRows), dataset.Daily.Nrow())

	hours, err := dataset.Hourly.Col(models.ColHour).Int()
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 17, 8}, hours)

	assert.Equal(t, []string{"Spring", "Spring", "Fall", "Winter"}, dataset.Hourly.Col(models.ColSeason).Records())

	ratios := dataset.Hourly.Col(models.ColCasualRatio).Float()
	assert.InDelta(t, 3.0/16.0, ratios[0], 1e-12)
	assert.InDelta(t, 0.1, ratios[2], 1e-12)
	assert.Equal(t, 0.0, ratios[3], "zero rentals gives a zero ratio")

	for i, ratio := range dataset.Daily.Col(models.ColCasualRatio).Float() {
		assert.GreaterOrEqual(t, ratio, 0.0, "row %d", i)
		assert.LessOrEqual(t, ratio, 1.0, "row %d", i)
	}
}

func TestCSVSource_RewritesStaleRatio(t *testing.T) {
	dir := t.TempDir()
	header := dailyHeader + "," + models.ColCasualRatio
	dailyPath := writeFixture(t, dir, "daily.csv", header, "2011,1,6,Spring,Mist,14.1,80.5,10.7,25,75,100,0.9")
	hourlyPath := writeFixture(t, dir, "hourly.csv", append([]string{hourlyHeader}, hourlyRows...)...)

	dataset, err := NewCSVSource(hourlyPath, dailyPath).Load(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, 0.25, dataset.Daily.Col(models.ColCasualRatio).Float()[0], 1e-12)
}

func TestCSVSource_Unavailable(t *testing.T) {
	tests := []struct {
		name       string
		hourly     []string
		daily      []string
		missing    string
		wantTable  string
		wantSubstr string
	}{
		{
			name:      "missing hourly file",
			daily:     append([]string{dailyHeader}, dailyRows...),
			missing:   "hourly",
			wantTable: "hourly",
		},
		{
			name:      "missing daily file",
			hourly:    append([]string{hourlyHeader}, hourlyRows...),
			missing:   "daily",
			wantTable: "daily",
		},
		{
			name:       "missing column",
			hourly:     append([]string{hourlyHeader}, hourlyRows...),
			daily:      []string{strings.Replace(dailyHeader, ",cnt", "", 1), "2011,1,6,Spring,Mist,14.1,80.5,10.7,331,654"},
			wantTable:  "daily",
			wantSubstr: "missing column",
		},
		{
			name:       "month out of range",
			hourly:     append([]string{hourlyHeader}, hourlyRows...),
			daily:      []string{dailyHeader, "2011,13,6,Spring,Mist,14.1,80.5,10.7,331,654,985"},
			wantTable:  "daily",
			wantSubstr: "month",
		},
		{
			name:       "hour out of range",
			hourly:     []string{hourlyHeader, "24,2011,1,6,Spring,Clear,9.84,81,0,3,13,16"},
			daily:      append([]string{dailyHeader}, dailyRows...),
			wantTable:  "hourly",
			wantSubstr: "hour",
		},
		{
			name:       "cnt does not add up",
			hourly:     []string{hourlyHeader, "3,2011,1,6,Spring,Clear,9.84,81,0,3,13,17"},
			daily:      append([]string{dailyHeader}, dailyRows...),
			wantTable:  "hourly",
			wantSubstr: "casual + registered",
		},
		{
			name:       "non integer count",
			hourly:     []string{hourlyHeader, "3,2011,1,6,Spring,Clear,9.84,81,0,many,13,16"},
			daily:      append([]string{dailyHeader}, dailyRows...),
			wantTable:  "hourly",
			wantSubstr: "non-integer",
		},
		{
			name:       "NA weather label",
			hourly:     []string{hourlyHeader, "3,2011,1,6,Spring,NA,9.84,81,0,3,13,16"},
			daily:      append([]string{dailyHeader}, dailyRows...),
			wantTable:  "hourly",
			wantSubstr: "missing weather_desc",
		},
		{
			name:       "empty season label",
			hourly:     append([]string{hourlyHeader}, hourlyRows...),
			daily:      []string{dailyHeader, "2011,1,6,,Mist,14.1,80.5,10.7,331,654,985"},
			wantTable:  "daily",
			wantSubstr: "missing season_desc",
		},
		{
			name:       "header only",
			hourly:     []string{hourlyHeader},
			daily:      append([]string{dailyHeader}, dailyRows...),
			wantTable:  "hourly",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			hourlyPath := filepath.Join(dir, "hourly.csv")
			dailyPath := filepath.Join(dir, "daily.csv")
			if tt.missing != "hourly" {
				hourlyPath = writeFixture(t, dir, "hourly.csv", tt.hourly...)
			}
			if tt.missing != "daily" {
				dailyPath = writeFixture(t, dir, "daily.csv", tt.daily...)
			}

			dataset, err := NewCSVSource(hourlyPath, dailyPath).Load(context.Background())
			assert.Nil(t, dataset)
			require.Error(t, err)
			assert.True(t, IsSourceUnavailable(err))

			var srcErr *SourceUnavailableError
			require.ErrorAs(t, err, &srcErr)
			assert.Equal(t, config.SourceCSV, srcErr.Source)
			assert.Equal(t, tt.wantTable, srcErr.Table)
			assert.False(t, srcErr.IsTransient())
			if tt.wantSubstr != "" {
				assert.Contains(t, err.Error(), tt.wantSubstr)
			}
		})
	}
}

func TestCSVSource_CancelledContext(t *testing.T) {
	hourlyPath, dailyPath := writeCSVFixtures(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewCSVSource(hourlyPath, dailyPath).Load(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
