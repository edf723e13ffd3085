package render

const (
	chartWidthPixelsConstant        = 1280
	chartLeftMarginPixelsConstant   = 280
	chartRightMarginPixelsConstant  = 60
	chartTopMarginPixelsConstant    = 64
	chartBottomMarginPixelsConstant = 48
	laneHeightPixelsConstant        = 28
	barHeightPixelsConstant         = 18
	minimumBarWidthPixelsConstant   = 2
)

// chartPalette mirrors the categorical palette the report charts have always
// used; colors cycle by order of first appearance.
var chartPalette = []string{
	"#636efa", "#ef553b", "#00cc96", "#ab63fa", "#ffa15a",
	"#19d3f3", "#ff6692", "#b6e880", "#ff97ff", "#fecb52",
}

type chartGeometry struct {
	layout       Layout
	widthPixels  int
	heightPixels int
	plotWidth    float64
	timeSpan     float64
	colorByLabel map[string]string
}

func newChartGeometry(layout Layout) chartGeometry {
	geometry := chartGeometry{
		layout:       layout,
		widthPixels:  chartWidthPixelsConstant,
		heightPixels: chartTopMarginPixelsConstant + chartBottomMarginPixelsConstant + laneHeightPixelsConstant*len(layout.Bars),
		plotWidth:    float64(chartWidthPixelsConstant - chartLeftMarginPixelsConstant - chartRightMarginPixelsConstant),
		timeSpan:     layout.MaxTime - layout.MinTime,
		colorByLabel: map[string]string{},
	}
	if geometry.heightPixels < chartTopMarginPixelsConstant+chartBottomMarginPixelsConstant+laneHeightPixelsConstant {
		geometry.heightPixels = chartTopMarginPixelsConstant + chartBottomMarginPixelsConstant + laneHeightPixelsConstant
	}
	for _, bar := range layout.Bars {
		if _, assigned := geometry.colorByLabel[bar.Label]; assigned {
			continue
		}
		geometry.colorByLabel[bar.Label] = chartPalette[len(geometry.colorByLabel)%len(chartPalette)]
	}
	return geometry
}

func (geometry chartGeometry) timeToX(timeSeconds float64) float64 {
	if geometry.timeSpan <= 0 {
		return chartLeftMarginPixelsConstant
	}
	return chartLeftMarginPixelsConstant + (timeSeconds-geometry.layout.MinTime)/geometry.timeSpan*geometry.plotWidth
}

func (geometry chartGeometry) laneToY(lane int) float64 {
	return float64(chartTopMarginPixelsConstant + lane*laneHeightPixelsConstant + (laneHeightPixelsConstant-barHeightPixelsConstant)/2)
}

func (geometry chartGeometry) laneCenterY(lane int) float64 {
	return geometry.laneToY(lane) + float64(barHeightPixelsConstant)/2
}

func (geometry chartGeometry) barWidth(bar Bar) float64 {
	width := geometry.timeToX(bar.End) - geometry.timeToX(bar.Start)
	if width < minimumBarWidthPixelsConstant {
		width = minimumBarWidthPixelsConstant
	}
	return width
}

func (geometry chartGeometry) barColor(bar Bar) string {
	return geometry.colorByLabel[bar.Label]
}
