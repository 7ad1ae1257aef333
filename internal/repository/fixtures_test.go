package repository

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"bikeshare-dashboard/internal/models"
)

var hourlyHeader = strings.Join(models.HourlyColumns, ",")

var dailyHeader = strings.Join(models.DailyColumns, ",")

// hr,year,mnth,weekday,season_desc,weather_desc,temp,hum,wind,casual,registered,cnt
var hourlyRows = []string{
	"0,2011,1,6,Spring,Clear,9.84,81,0,3,13,16",
	"1,2011,1,6,Spring,Clear,9.02,80,0,8,32,40",
	"17,2012,7,1,Fall,Mist,30.5,40,12.99,60,540,600",
	"8,2012,10,3,Winter,Light Rain,15.2,88,19.0,0,0,0",
}

// year,mnth,weekday,season_desc,weather_desc,temp,hum,wind,casual,registered,cnt
var dailyRows = []string{
	"2011,1,6,Spring,Mist,14.11,80.58,10.75,331,654,985",
	"2011,1,0,Spring,Mist,14.90,69.61,16.65,131,670,801",
	"2012,7,1,Fall,Clear,33.0,55.0,11.0,1000,5000,6000",
}

func writeFixture(t *testing.T, dir, name string, lines ...string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o644))
	return path
}

func writeCSVFixtures(t *testing.T) (hourlyPath, dailyPath string) {
	t.Helper()
	dir := t.TempDir()
	hourlyPath = writeFixture(t, dir, "hourly.csv", append([]string{hourlyHeader}, hourlyRows...)...)
	dailyPath = writeFixture(t, dir, "daily.csv", append([]string{dailyHeader}, dailyRows...)...)
	return hourlyPath, dailyPath
}
