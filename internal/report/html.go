package report

import (
	"fmt"
	"io"
	"math"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/banshee-data/mocap.rigidity/internal/rigidity"
)

// missing is how ECharts marks an absent data point.
const missing = "-"

func value(v float64) interface{} {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return missing
	}
	return v
}

// cvBar compares every bone's coefficient of variation before and after.
func cvBar(before, after *rigidity.Statistics) *charts.Bar {
	names := before.Names()
	pre := make([]opts.BarData, len(names))
	post := make([]opts.BarData, len(names))
	for i, b := range before.Bones() {
		pre[i] = opts.BarData{Value: value(b.CV() * 100)}
		post[i] = opts.BarData{Value: missing}
		if a, ok := after.Get(b.Name); ok {
			post[i] = opts.BarData{Value: value(a.CV() * 100)}
		}
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "100%", Height: "520px"}),
		charts.WithTitleOpts(opts.Title{Title: "Bone length variation", Subtitle: "coefficient of variation, %"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Right: "10"}),
		charts.WithXAxisOpts(opts.XAxis{AxisLabel: &opts.AxisLabel{Rotate: 60, Interval: "0"}}),
	)
	bar.SetXAxis(names).
		AddSeries("before", pre).
		AddSeries("after", post)
	return bar
}

// medianBar shows each bone's canonical length.
func medianBar(before *rigidity.Statistics) *charts.Bar {
	data := make([]opts.BarData, 0, before.Len())
	for _, b := range before.Bones() {
		data = append(data, opts.BarData{Value: value(b.Median)})
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "100%", Height: "520px"}),
		charts.WithTitleOpts(opts.Title{Title: "Canonical bone lengths", Subtitle: "median, m"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{AxisLabel: &opts.AxisLabel{Rotate: 60, Interval: "0"}}),
	)
	bar.SetXAxis(before.Names()).AddSeries("median", data)
	return bar
}

// lengthLines overlays every bone's per-frame length after enforcement.
func lengthLines(stats *rigidity.Statistics, title string) *charts.Line {
	frames := 0
	for _, b := range stats.Bones() {
		if len(b.Lengths) > frames {
			frames = len(b.Lengths)
		}
	}
	x := make([]int, frames)
	for f := range x {
		x[f] = f
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "100%", Height: "520px"}),
		charts.WithTitleOpts(opts.Title{Title: title}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "slider"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "m"}),
	)
	line.SetXAxis(x)
	for _, b := range stats.Bones() {
		data := make([]opts.LineData, len(b.Lengths))
		for f, l := range b.Lengths {
			data[f] = opts.LineData{Value: value(l)}
		}
		line.AddSeries(b.Name, data)
	}
	return line
}

// dimensionsBar shows the estimated body dimensions.
func dimensionsBar(d *rigidity.BodyDimensions) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "100%", Height: "420px"}),
		charts.WithTitleOpts(opts.Title{
			Title:    "Body dimensions",
			Subtitle: fmt.Sprintf("height %.3f m, wingspan %.3f m", d.TotalHeight, d.TotalWingspan),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)
	bar.SetXAxis([]string{"height", "wingspan", "leg", "foot"}).
		AddSeries("m", []opts.BarData{
			{Value: value(d.TotalHeight)},
			{Value: value(d.TotalWingspan)},
			{Value: value(d.MeanLegLength)},
			{Value: value(d.MeanFootLength)},
		}, charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "top"}))
	return bar
}

// RenderHTML writes a self-contained report page to w. dims may be nil.
func RenderHTML(w io.Writer, before, after *rigidity.Statistics, dims *rigidity.BodyDimensions) error {
	page := components.NewPage()
	page.PageTitle = "Skeleton rigidity report"
	page.AddCharts(cvBar(before, after), medianBar(before))
	page.AddCharts(lengthLines(before, "Bone lengths before enforcement"))
	page.AddCharts(lengthLines(after, "Bone lengths after enforcement"))
	if dims != nil {
		page.AddCharts(dimensionsBar(dims))
	}
	if err := page.Render(w); err != nil {
		return fmt.Errorf("failed to render report: %w", err)
	}
	return nil
}
