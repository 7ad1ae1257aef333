package models

import (
	"sort"
	"strconv"
	"strings"
)

// FilterSelection is the pair of user-chosen year and season sets.
// An empty set selects nothing.
type FilterSelection struct {
	Years   []int    `json:"years"`
	Seasons []string `json:"seasons"`
}

// NewFilterSelection builds a normalized selection: sorted, without duplicates
func NewFilterSelection(years []int, seasons []string) FilterSelection {
	ys := make([]int, 0, len(years))
	seenYear := make(map[int]struct{}, len(years))
	for _, y := range years {
		if _, ok := seenYear[y]; ok {
			continue
		}
		seenYear[y] = struct{}{}
		ys = append(ys, y)
	}
	sort.Ints(ys)

	ss := make([]string, 0, len(seasons))
	seenSeason := make(map[string]struct{}, len(seasons))
	for _, s := range seasons {
		if _, ok := seenSeason[s]; ok {
			continue
		}
		seenSeason[s] = struct{}{}
		ss = append(ss, s)
	}
	sort.Strings(ss)

	return FilterSelection{Years: ys, Seasons: ss}
}

// YearSet returns the selected years as a lookup set
func (s FilterSelection) YearSet() map[int]struct{} {
	set := make(map[int]struct{}, len(s.Years))
	for _, y := range s.Years {
		set[y] = struct{}{}
	}
	return set
}

// SeasonSet returns the selected season labels as a lookup set
func (s FilterSelection) SeasonSet() map[string]struct{} {
	set := make(map[string]struct{}, len(s.Seasons))
	for _, label := range s.Seasons {
		set[label] = struct{}{}
	}
	return set
}

// SelectsNothing reports whether either set is empty
func (s FilterSelection) SelectsNothing() bool {
	return len(s.Years) == 0 || len(s.Seasons) == 0
}

// FilterOptions are the distinct values a selection may draw from
type FilterOptions struct {
	Years   []int    `json:"years"`
	Seasons []string `json:"seasons"`
}

// Default selects every available value
func (o FilterOptions) Default() FilterSelection {
	return NewFilterSelection(o.Years, o.Seasons)
}

// Validate rejects values that do not occur in the source tables
func (o FilterOptions) Validate(sel FilterSelection) error {
	years := make(map[int]struct{}, len(o.Years))
	for _, y := range o.Years {
		years[y] = struct{}{}
	}
	for _, y := range sel.Years {
		if _, ok := years[y]; !ok {
			return &ValidationError{Field: ColYear, Value: strconv.Itoa(y), Message: "unknown year " + strconv.Itoa(y)}
		}
	}

	seasons := make(map[string]struct{}, len(o.Seasons))
	for _, label := range o.Seasons {
		seasons[label] = struct{}{}
	}
	for _, label := range sel.Seasons {
		if _, ok := seasons[label]; !ok {
			return &ValidationError{Field: ColSeason, Value: label, Message: "unknown season " + label}
		}
	}
	return nil
}

// ParseYearList reads a comma separated list of years. Blank items are
// skipped, so "" is the empty list.
func ParseYearList(raw string) ([]int, error) {
	var years []int
	for _, item := range strings.Split(raw, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		y, err := strconv.Atoi(item)
		if err != nil {
			return nil, &ValidationError{Field: ColYear, Value: item, Message: "invalid year " + strconv.Quote(item)}
		}
		years = append(years, y)
	}
	return years, nil
}

// ParseSeasonList reads a comma separated list of season labels
func ParseSeasonList(raw string) []string {
	var seasons []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			seasons = append(seasons, item)
		}
	}
	return seasons
}

// ParseSeasonValues reads the values of a repeated seasons parameter. A lone
// value is a comma separated list; repeated values are taken whole, so a
// label holding a comma can still be selected.
func ParseSeasonValues(values []string) []string {
	if len(values) == 1 {
		return ParseSeasonList(values[0])
	}
	var seasons []string
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			seasons = append(seasons, v)
		}
	}
	return seasons
}
