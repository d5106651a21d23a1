package daily

import (
	"fmt"
	"io"
	"time"

	"github.com/opera-sds/granulewatch/internal/plotpage"
)

// RenderPage writes one bar chart with a series per collection over the
// shared date axis.
func RenderPage(w io.Writer, rows []Row, generatedAt time.Time) error {
	var dates []string

	seen := map[string]bool{}

	for _, row := range rows {
		if !seen[row.Date] {
			seen[row.Date] = true

			dates = append(dates, row.Date)
		}
	}

	countsByCollection := map[string]map[string]float64{}

	var collections []string

	for _, row := range rows {
		counts, ok := countsByCollection[row.Collection]
		if !ok {
			counts = map[string]float64{}
			countsByCollection[row.Collection] = counts

			collections = append(collections, row.Collection)
		}

		counts[row.Date] = float64(row.Count)
	}

	series := make([]plotpage.BarSeries, 0, len(collections))

	for _, collection := range collections {
		data := make([]float64, len(dates))
		for i, date := range dates {
			data[i] = countsByCollection[collection][date]
		}

		series = append(series, plotpage.BarSeries{Name: collection, Data: data})
	}

	var title string
	if len(dates) > 0 {
		title = fmt.Sprintf("Products per day, %s to %s", dates[0], dates[len(dates)-1])
	} else {
		title = "Products per day"
	}

	chart := plotpage.BuildBarChart(
		title,
		"Updated: "+generatedAt.UTC().Format(time.RFC3339),
		"Products",
		dates,
		series,
	)

	return plotpage.RenderPage(w, "Daily Products", chart)
}
