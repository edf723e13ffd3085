package render

import (
	"fmt"
	"html/template"
	"io"
	"os"
)

const htmlRenderFailureTemplateConstant = "render html %s: %w"

const chartPageTemplateText = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
  body { font-family: -apple-system, "Segoe UI", Helvetica, Arial, sans-serif; margin: 16px; background: #fff; }
  h1 { font-size: 18px; margin: 0 0 12px 0; }
  svg text { font-size: 11px; fill: #111; }
  .issues { margin-top: 12px; color: #8a6d00; font-size: 12px; }
</style>
</head>
<body>
<h1>{{.Title}}</h1>
<svg width="{{.Width}}" height="{{.Height}}" viewBox="0 0 {{.Width}} {{.Height}}">
  <line x1="{{.AxisLeft}}" y1="{{.AxisTop}}" x2="{{.AxisLeft}}" y2="{{.AxisBottom}}" stroke="#111" stroke-width="1"/>
  <line x1="{{.AxisLeft}}" y1="{{.AxisBottom}}" x2="{{.AxisRight}}" y2="{{.AxisBottom}}" stroke="#111" stroke-width="1"/>
  <text x="{{.AxisLeft}}" y="{{.AxisLabelY}}" text-anchor="start">{{.MinTimeLabel}}</text>
  <text x="{{.AxisRight}}" y="{{.AxisLabelY}}" text-anchor="end">{{.MaxTimeLabel}}</text>
{{- range .Bars}}
  <rect x="{{.X}}" y="{{.Y}}" width="{{.Width}}" height="{{.Height}}" fill="{{.Color}}">
    <title>{{.Tooltip}}</title>
  </rect>
  <text x="{{.LabelX}}" y="{{.LabelY}}" text-anchor="end" dominant-baseline="middle">{{.Label}}</text>
{{- end}}
{{- range .Links}}
  <line x1="{{.X1}}" y1="{{.Y1}}" x2="{{.X2}}" y2="{{.Y2}}" stroke="#111" stroke-width="1" stroke-dasharray="4 4"/>
{{- end}}
</svg>
{{- if .Issues}}
<div class="issues">
{{- range .Issues}}
  <div>{{.}}</div>
{{- end}}
</div>
{{- end}}
</body>
</html>
`

var chartPageTemplate = template.Must(template.New("chart").Parse(chartPageTemplateText))

type chartPageBar struct {
	X       float64
	Y       float64
	Width   float64
	Height  int
	Color   string
	Label   string
	LabelX  float64
	LabelY  float64
	Tooltip string
}

type chartPageLink struct {
	X1 float64
	Y1 float64
	X2 float64
	Y2 float64
}

type chartPageView struct {
	Title        string
	Width        int
	Height       int
	AxisLeft     int
	AxisRight    int
	AxisTop      int
	AxisBottom   int
	AxisLabelY   int
	MinTimeLabel string
	MaxTimeLabel string
	Bars         []chartPageBar
	Links        []chartPageLink
	Issues       []string
}

// WriteHTML renders a chart layout as a standalone HTML page with an inline
// SVG timeline to the provided writer.
func WriteHTML(destination io.Writer, layout Layout, title string) error {
	return chartPageTemplate.Execute(destination, buildChartPageView(layout, title))
}

// RenderHTML writes the HTML chart page at outputPath.
func RenderHTML(layout Layout, title string, outputPath string) error {
	outputFile, createError := os.Create(outputPath)
	if createError != nil {
		return fmt.Errorf(htmlRenderFailureTemplateConstant, outputPath, createError)
	}
	defer outputFile.Close()

	if executeError := WriteHTML(outputFile, layout, title); executeError != nil {
		return fmt.Errorf(htmlRenderFailureTemplateConstant, outputPath, executeError)
	}
	return nil
}

func buildChartPageView(layout Layout, title string) chartPageView {
	geometry := newChartGeometry(layout)
	view := chartPageView{
		Title:        title,
		Width:        geometry.widthPixels,
		Height:       geometry.heightPixels,
		AxisLeft:     chartLeftMarginPixelsConstant,
		AxisRight:    geometry.widthPixels - chartRightMarginPixelsConstant,
		AxisTop:      chartTopMarginPixelsConstant,
		AxisBottom:   geometry.heightPixels - chartBottomMarginPixelsConstant,
		AxisLabelY:   geometry.heightPixels - chartBottomMarginPixelsConstant + 16,
		MinTimeLabel: fmt.Sprintf("%.0f", layout.MinTime),
		MaxTimeLabel: fmt.Sprintf("%.0f", layout.MaxTime),
		Issues:       layout.Issues,
	}

	for _, bar := range layout.Bars {
		view.Bars = append(view.Bars, chartPageBar{
			X:       geometry.timeToX(bar.Start),
			Y:       geometry.laneToY(bar.Lane),
			Width:   geometry.barWidth(bar),
			Height:  barHeightPixelsConstant,
			Color:   geometry.barColor(bar),
			Label:   bar.Label,
			LabelX:  chartLeftMarginPixelsConstant - 8,
			LabelY:  geometry.laneCenterY(bar.Lane),
			Tooltip: fmt.Sprintf("%s: %s -> %s (%s, %s)", bar.Label, bar.Row.StartTime, bar.Row.EndTime, bar.Row.Duration, bar.Row.Status),
		})
	}

	for _, link := range layout.Links {
		view.Links = append(view.Links, chartPageLink{
			X1: geometry.timeToX(link.FromTime),
			Y1: geometry.laneCenterY(link.FromLane),
			X2: geometry.timeToX(link.ToTime),
			Y2: geometry.laneCenterY(link.ToLane),
		})
	}

	return view
}
