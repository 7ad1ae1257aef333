// Package analysis turns the loaded rental tables into the derived tables and
// scalar metrics shown on the dashboard. Every function is pure: inputs are
// never mutated and results depend only on the arguments.
package analysis

import (
	"sort"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"bikeshare-dashboard/internal/models"
)

// Filter returns the rows whose year is in sel.Years and whose season is in
// sel.Seasons. An empty set on either side yields a table with no rows.
func Filter(df dataframe.DataFrame, sel models.FilterSelection) dataframe.DataFrame {
	years := sel.YearSet()
	seasons := sel.SeasonSet()

	return df.FilterAggregation(dataframe.And,
		dataframe.F{
			Colname:    models.ColYear,
			Comparator: series.CompFunc,
			Comparando: func(el series.Element) bool {
				year, err := el.Int()
				if err != nil {
					return false
				}
				_, ok := years[year]
				return ok
			},
		},
		dataframe.F{
			Colname:    models.ColSeason,
			Comparator: series.CompFunc,
			Comparando: func(el series.Element) bool {
				_, ok := seasons[el.String()]
				return ok
			},
		},
	)
}

// FilterDataset applies the same selection to both tables independently
func FilterDataset(ds *models.Dataset, sel models.FilterSelection) *models.Dataset {
	return &models.Dataset{
		Hourly: Filter(ds.Hourly, sel),
		Daily:  Filter(ds.Daily, sel),
	}
}

// Options lists the distinct years and season labels present in either table
func Options(ds *models.Dataset) (models.FilterOptions, error) {
	yearSet := make(map[int]struct{})
	seasonSet := make(map[string]struct{})

	for _, df := range []dataframe.DataFrame{ds.Hourly, ds.Daily} {
		if df.Err != nil {
			return models.FilterOptions{}, df.Err
		}
		if df.Nrow() == 0 {
			continue
		}
		years, err := df.Col(models.ColYear).Int()
		if err != nil {
			return models.FilterOptions{}, err
		}
		for _, y := range years {
			yearSet[y] = struct{}{}
		}
		for _, s := range df.Col(models.ColSeason).Records() {
			seasonSet[s] = struct{}{}
		}
	}

	opts := models.FilterOptions{
		Years:   make([]int, 0, len(yearSet)),
		Seasons: make([]string, 0, len(seasonSet)),
	}
	for y := range yearSet {
		opts.Years = append(opts.Years, y)
	}
	for s := range seasonSet {
		opts.Seasons = append(opts.Seasons, s)
	}
	sort.Ints(opts.Years)
	sort.Strings(opts.Seasons)

	return opts, nil
}
