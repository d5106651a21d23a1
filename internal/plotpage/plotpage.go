// Package plotpage provides go-echarts chart builders and page rendering
// shared by the report commands.
package plotpage

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
)

const (
	chartWidth  = "1100px"
	chartHeight = "480px"
	legendTop   = "30"
)

// BarSeries is one named series of a bar chart.
type BarSeries struct {
	Name string
	Data []float64
}

// BuildBarChart creates a bar chart with shared x labels and one or more
// series.
func BuildBarChart(title, subtitle, yName string, xLabels []string, series []BarSeries) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: chartWidth, Height: chartHeight}),
		charts.WithTitleOpts(opts.Title{Title: title, Subtitle: subtitle}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Top: legendTop}),
		charts.WithYAxisOpts(opts.YAxis{Name: yName}),
	)

	bar.SetXAxis(xLabels)

	for _, s := range series {
		data := make([]opts.BarData, len(s.Data))
		for i, value := range s.Data {
			data[i] = opts.BarData{Value: value}
		}

		bar.AddSeries(s.Name, data)
	}

	return bar
}

// RenderPage writes the charts as a single HTML page.
func RenderPage(w io.Writer, title string, charters ...components.Charter) error {
	page := components.NewPage()
	page.PageTitle = title
	page.SetLayout(components.PageFlexLayout)
	page.AddCharts(charters...)

	err := page.Render(w)
	if err != nil {
		return fmt.Errorf("render %q page: %w", title, err)
	}

	return nil
}
