package render

import (
	"fmt"
	"image/color"

	"github.com/fogleman/gg"
)

const (
	dependencyDashLengthConstant     = 4.0
	dependencyLineWidthConstant      = 1.0
	axisLineWidthConstant            = 1.0
	pngRenderFailureTemplateConstant = "render png %s: %w"
)

// RenderPNG rasterizes a chart layout into a PNG file at outputPath.
func RenderPNG(layout Layout, title string, outputPath string) error {
	geometry := newChartGeometry(layout)
	drawingContext := gg.NewContext(geometry.widthPixels, geometry.heightPixels)

	drawingContext.SetColor(color.White)
	drawingContext.Clear()

	drawTitle(drawingContext, geometry, title)
	drawAxes(drawingContext, geometry)
	drawBars(drawingContext, geometry)
	drawDependencyLinks(drawingContext, geometry)

	if saveError := drawingContext.SavePNG(outputPath); saveError != nil {
		return fmt.Errorf(pngRenderFailureTemplateConstant, outputPath, saveError)
	}
	return nil
}

func drawTitle(drawingContext *gg.Context, geometry chartGeometry, title string) {
	drawingContext.SetColor(color.Black)
	drawingContext.DrawStringAnchored(title, float64(geometry.widthPixels)/2, float64(chartTopMarginPixelsConstant)/2, 0.5, 0.5)
}

func drawAxes(drawingContext *gg.Context, geometry chartGeometry) {
	plotBottom := float64(geometry.heightPixels - chartBottomMarginPixelsConstant)
	plotRight := float64(geometry.widthPixels - chartRightMarginPixelsConstant)

	drawingContext.SetColor(color.Black)
	drawingContext.SetLineWidth(axisLineWidthConstant)
	drawingContext.DrawLine(chartLeftMarginPixelsConstant, float64(chartTopMarginPixelsConstant), chartLeftMarginPixelsConstant, plotBottom)
	drawingContext.DrawLine(chartLeftMarginPixelsConstant, plotBottom, plotRight, plotBottom)
	drawingContext.Stroke()

	minLabel := fmt.Sprintf("%.0f", geometry.layout.MinTime)
	maxLabel := fmt.Sprintf("%.0f", geometry.layout.MaxTime)
	drawingContext.DrawStringAnchored(minLabel, chartLeftMarginPixelsConstant, plotBottom+14, 0, 0.5)
	drawingContext.DrawStringAnchored(maxLabel, plotRight, plotBottom+14, 1, 0.5)
}

func drawBars(drawingContext *gg.Context, geometry chartGeometry) {
	for _, bar := range geometry.layout.Bars {
		barX := geometry.timeToX(bar.Start)
		barY := geometry.laneToY(bar.Lane)

		drawingContext.SetHexColor(geometry.barColor(bar))
		drawingContext.DrawRectangle(barX, barY, geometry.barWidth(bar), barHeightPixelsConstant)
		drawingContext.Fill()

		drawingContext.SetColor(color.Black)
		drawingContext.DrawStringAnchored(bar.Label, chartLeftMarginPixelsConstant-8, geometry.laneCenterY(bar.Lane), 1, 0.5)
	}
}

func drawDependencyLinks(drawingContext *gg.Context, geometry chartGeometry) {
	if len(geometry.layout.Links) == 0 {
		return
	}

	drawingContext.SetColor(color.Black)
	drawingContext.SetLineWidth(dependencyLineWidthConstant)
	drawingContext.SetDash(dependencyDashLengthConstant, dependencyDashLengthConstant)
	for _, link := range geometry.layout.Links {
		drawingContext.DrawLine(
			geometry.timeToX(link.FromTime), geometry.laneCenterY(link.FromLane),
			geometry.timeToX(link.ToTime), geometry.laneCenterY(link.ToLane),
		)
		drawingContext.Stroke()
	}
	drawingContext.SetDash()
}
