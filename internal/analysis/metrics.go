package analysis

import (
	"sort"

	"github.com/go-gota/gota/dataframe"

	"bikeshare-dashboard/internal/models"
)

// ComputeMetrics derives the four headline numbers. Totals and the peak
// month come from the daily table, the peak hour from the hourly table.
func ComputeMetrics(daily, hourly dataframe.DataFrame) (models.Metrics, error) {
	metrics := models.Metrics{CasualPercentage: models.Undefined()}

	if daily.Err != nil {
		return metrics, daily.Err
	}
	if hourly.Err != nil {
		return metrics, hourly.Err
	}

	if daily.Nrow() > 0 {
		totals, err := intColumn(daily, models.ColTotal)
		if err != nil {
			return metrics, err
		}
		casual, err := intColumn(daily, models.ColCasual)
		if err != nil {
			return metrics, err
		}

		var total, casualSum int64
		for i := range totals {
			total += int64(totals[i])
			casualSum += int64(casual[i])
		}
		metrics.TotalRentals = total
		metrics.CasualPercentage = CasualPercentage(casualSum, total)

		month, ok, err := peak(daily, models.ColMonth)
		if err != nil {
			return metrics, err
		}
		if ok {
			m := models.Month(month)
			metrics.PeakMonth = &m
		}
	}

	if hourly.Nrow() > 0 {
		hour, ok, err := peak(hourly, models.ColHour)
		if err != nil {
			return metrics, err
		}
		if ok {
			metrics.PeakHour = &hour
		}
	}

	return metrics, nil
}

// CasualPercentage is 100 × casual / total, undefined when total is zero
func CasualPercentage(casual, total int64) models.NullableFloat {
	if total == 0 {
		return models.Undefined()
	}
	return models.NullableFloat(100 * float64(casual) / float64(total))
}

// peak returns the key whose summed cnt is largest. Ties go to the smallest
// key, which is the first one in natural order.
func peak(df dataframe.DataFrame, keyCol string) (int, bool, error) {
	keys, err := intColumn(df, keyCol)
	if err != nil {
		return 0, false, err
	}
	counts, err := intColumn(df, models.ColTotal)
	if err != nil {
		return 0, false, err
	}

	sums := make(map[int]int64)
	for i, k := range keys {
		sums[k] += int64(counts[i])
	}
	if len(sums) == 0 {
		return 0, false, nil
	}

	ordered := make([]int, 0, len(sums))
	for k := range sums {
		ordered = append(ordered, k)
	}
	sort.Ints(ordered)

	best := ordered[0]
	for _, k := range ordered[1:] {
		if sums[k] > sums[best] {
			best = k
		}
	}
	return best, true, nil
}
