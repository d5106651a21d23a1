package latency

import (
	"fmt"
	"io"
	"math"
	"sort"
	"time"

	"github.com/go-echarts/go-echarts/v2/components"

	"github.com/opera-sds/granulewatch/internal/plotpage"
)

// BinRange returns the unit-bin bounds spanning all series of a product
// type. ok is false when the series holds no measurements.
func BinRange(series *Series) (low, high int, ok bool) {
	all := make([]float64, 0, len(series.OutputInputRevision)*3)
	all = append(all, series.OutputInputRevision...)
	all = append(all, series.OutputInputTemporal...)
	all = append(all, series.InputRevisionTemporal...)

	if len(all) == 0 {
		return 0, 0, false
	}

	low = int(math.Floor(minValue(all)))
	high = int(math.Floor(maxValue(all)))

	return low, high, true
}

// BinLabels returns one label per unit bin in [low, high].
func BinLabels(low, high int) []string {
	labels := make([]string, 0, high-low+1)
	for bin := low; bin <= high; bin++ {
		labels = append(labels, fmt.Sprintf("%dh", bin))
	}

	return labels
}

// Histogram counts values per unit bin, anchored at the shared low bound.
// Out-of-range values are clamped into the edge bins.
func Histogram(values []float64, low, bins int) []float64 {
	counts := make([]float64, bins)
	if bins == 0 {
		return counts
	}

	for _, value := range values {
		bin := int(math.Floor(value)) - low
		if bin < 0 {
			bin = 0
		}

		if bin >= bins {
			bin = bins - 1
		}

		counts[bin]++
	}

	return counts
}

// RenderPage writes one histogram chart per product type.
func RenderPage(w io.Writer, report Report, temporalFrom, revisionFrom, now time.Time) error {
	productTypes := make([]string, 0, len(report))
	for productType := range report {
		productTypes = append(productTypes, productType)
	}

	sort.Strings(productTypes)

	charters := make([]components.Charter, 0, len(productTypes))

	for _, productType := range productTypes {
		series := report[productType]

		low, high, ok := BinRange(series)
		if !ok {
			continue
		}

		labels := BinLabels(low, high)

		subtitle := fmt.Sprintf("sensed since %s, updated since %s, generated %s | means: out-rev %.1fh, out-temporal %.1fh, rev-temporal %.1fh",
			temporalFrom.Format("2006-01-02"),
			revisionFrom.Format("2006-01-02"),
			now.UTC().Format(time.RFC3339),
			mean(series.OutputInputRevision),
			mean(series.OutputInputTemporal),
			mean(series.InputRevisionTemporal),
		)

		chart := plotpage.BuildBarChart(
			productType+" latency",
			subtitle,
			"Products",
			labels,
			[]plotpage.BarSeries{
				{Name: "output rev - input rev", Data: Histogram(series.OutputInputRevision, low, len(labels))},
				{Name: "output rev - input temporal", Data: Histogram(series.OutputInputTemporal, low, len(labels))},
				{Name: "input rev - input temporal", Data: Histogram(series.InputRevisionTemporal, low, len(labels))},
			},
		)

		charters = append(charters, chart)
	}

	return plotpage.RenderPage(w, "Product Latency", charters...)
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}

	var sum float64
	for _, value := range values {
		sum += value
	}

	return sum / float64(len(values))
}

func minValue(values []float64) float64 {
	lowest := math.Inf(1)
	for _, value := range values {
		lowest = math.Min(lowest, value)
	}

	return lowest
}

func maxValue(values []float64) float64 {
	highest := math.Inf(-1)
	for _, value := range values {
		highest = math.Max(highest, value)
	}

	return highest
}
