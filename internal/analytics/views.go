package analytics

import (
	"slices"

	"github.com/leonalhidayah/e-commerce-dashboard/internal/models"
)

// Presentation views over the derived tables. All of them copy before
// sorting or slicing so the underlying tables stay untouched.

func TopCategories(categories []models.CategorySales, n int) []models.CategorySales {
	if len(categories) <= n {
		return slices.Clone(categories)
	}
	return slices.Clone(categories[:n])
}

// BottomCategories returns the n worst performers, worst last, matching the
// tail of the descending table.
func BottomCategories(categories []models.CategorySales, n int) []models.CategorySales {
	if len(categories) <= n {
		return slices.Clone(categories)
	}
	return slices.Clone(categories[len(categories)-n:])
}

func TopCities(cities []models.CityCustomers, n int) []models.CityCustomers {
	if len(cities) <= n {
		return slices.Clone(cities)
	}
	return slices.Clone(cities[:n])
}

// TopByRecency returns the n customers with the smallest recency.
func TopByRecency(rfm []models.CustomerRFM, n int) []models.CustomerRFM {
	sorted := slices.Clone(rfm)
	slices.SortStableFunc(sorted, func(a, b models.CustomerRFM) int {
		return a.Recency - b.Recency
	})
	return head(sorted, n)
}

// TopByFrequency returns the n customers with the most distinct orders.
func TopByFrequency(rfm []models.CustomerRFM, n int) []models.CustomerRFM {
	sorted := slices.Clone(rfm)
	slices.SortStableFunc(sorted, func(a, b models.CustomerRFM) int {
		return b.Frequency - a.Frequency
	})
	return head(sorted, n)
}

// TopByMonetary returns the n customers with the highest spend.
func TopByMonetary(rfm []models.CustomerRFM, n int) []models.CustomerRFM {
	sorted := slices.Clone(rfm)
	slices.SortStableFunc(sorted, func(a, b models.CustomerRFM) int {
		if a.Monetary > b.Monetary {
			return -1
		}
		if a.Monetary < b.Monetary {
			return 1
		}
		return 0
	})
	return head(sorted, n)
}

func head[T any](s []T, n int) []T {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

// Highlight colors for the category and city bar charts: the single best
// bar in a top subset is dark, the single worst bar in a bottom subset is
// red, everything else is muted.
const (
	ColorBest    = "#1C325B"
	ColorWorst   = "#FF004D"
	ColorNeutral = "#B3C8CF"
)

// HighlightMax marks the first occurrence of the maximum value.
func HighlightMax(values []int) []string {
	return highlight(values, ColorBest, func(v, extremum int) bool { return v > extremum })
}

// HighlightMin marks the first occurrence of the minimum value.
func HighlightMin(values []int) []string {
	return highlight(values, ColorWorst, func(v, extremum int) bool { return v < extremum })
}

func highlight(values []int, color string, better func(v, extremum int) bool) []string {
	if len(values) == 0 {
		return nil
	}

	extremum := values[0]
	pick := 0
	for i, v := range values[1:] {
		if better(v, extremum) {
			extremum = v
			pick = i + 1
		}
	}

	colors := make([]string, len(values))
	for i := range colors {
		colors[i] = ColorNeutral
	}
	colors[pick] = color
	return colors
}
