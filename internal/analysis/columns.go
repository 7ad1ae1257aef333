package analysis

import (
	"fmt"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
)

// column guards against gota's error series, whose accessors panic
func column(df dataframe.DataFrame, name string) (series.Series, error) {
	if df.Err != nil {
		return series.Series{}, df.Err
	}
	col := df.Col(name)
	if col.Err != nil {
		return series.Series{}, fmt.Errorf("column %s: %w", name, col.Err)
	}
	return col, nil
}

func intColumn(df dataframe.DataFrame, name string) ([]int, error) {
	col, err := column(df, name)
	if err != nil {
		return nil, err
	}
	vals, err := col.Int()
	if err != nil {
		return nil, fmt.Errorf("column %s: %w", name, err)
	}
	return vals, nil
}

func floatColumn(df dataframe.DataFrame, name string) ([]float64, error) {
	col, err := column(df, name)
	if err != nil {
		return nil, err
	}
	return col.Float(), nil
}

// groupFrames projects df onto keys and values and splits it with GroupBy.
// An empty table has no groups.
func groupFrames(df dataframe.DataFrame, keys []string, values ...string) ([]dataframe.DataFrame, error) {
	if df.Err != nil {
		return nil, df.Err
	}
	if df.Nrow() == 0 {
		return nil, nil
	}

	names := append(append([]string{}, keys...), values...)
	projected := df.Select(names)
	if projected.Err != nil {
		return nil, projected.Err
	}

	groups := projected.GroupBy(keys...)
	if groups == nil {
		return nil, fmt.Errorf("group by: no key columns")
	}
	if groups.Err != nil {
		return nil, groups.Err
	}

	frames := make([]dataframe.DataFrame, 0, len(groups.GetGroups()))
	for _, g := range groups.GetGroups() {
		if g.Err != nil {
			return nil, g.Err
		}
		frames = append(frames, g)
	}
	return frames, nil
}

// intKey reads an integer group key from the first row of a group
func intKey(g dataframe.DataFrame, name string) (int, error) {
	col, err := column(g, name)
	if err != nil {
		return 0, err
	}
	return col.Elem(0).Int()
}

// stringKey reads a label group key from the first row of a group
func stringKey(g dataframe.DataFrame, name string) (string, error) {
	col, err := column(g, name)
	if err != nil {
		return "", err
	}
	return col.Elem(0).String(), nil
}
