package render

import (
	"path/filepath"

	"go.uber.org/zap"

	"github.com/oicr-gsi/pipeline-timings/internal/model"
	"github.com/oicr-gsi/pipeline-timings/internal/report"
)

const (
	StartTimeChartBaseNameConstant = "wrt_gantt_v1"
	RunOrderChartBaseNameConstant  = "wrt_gantt_v2"

	startTimeChartTitleConstant = "Workflow Runs by Start Time"
	runOrderChartTitleConstant  = "Workflow Runs by Configured Order"

	pngExtensionConstant  = ".png"
	htmlExtensionConstant = ".html"

	chartIssueLogMessageConstant   = "Chart layout issue"
	chartWrittenLogMessageConstant = "Chart written"
	chartIssueLogFieldNameConstant = "issue"
	chartArtifactLogFieldConstant  = "artifact"
)

// Renderer turns report rows into chart artifacts on disk.
type Renderer struct {
	logger *zap.Logger
}

// NewRenderer wires a Renderer; a nil logger falls back to a no-op logger.
func NewRenderer(logger *zap.Logger) *Renderer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Renderer{logger: logger}
}

// RenderCharts writes the start-time chart, and additionally the run-order
// chart when an ordering configuration is supplied. It returns the artifact
// paths written.
func (renderer *Renderer) RenderCharts(rows []report.ReportRow, configuration *model.OrderingConfig, outputDirectory string) ([]string, error) {
	artifacts := make([]string, 0, 4)

	startTimeLayout := BuildStartTimeLayout(rows)
	startTimeArtifacts, startTimeError := renderer.renderLayout(startTimeLayout, startTimeChartTitleConstant, outputDirectory, StartTimeChartBaseNameConstant)
	artifacts = append(artifacts, startTimeArtifacts...)
	if startTimeError != nil {
		return artifacts, startTimeError
	}

	if configuration == nil {
		return artifacts, nil
	}

	runOrderLayout := BuildRunOrderLayout(rows, *configuration)
	runOrderArtifacts, runOrderError := renderer.renderLayout(runOrderLayout, runOrderChartTitleConstant, outputDirectory, RunOrderChartBaseNameConstant)
	artifacts = append(artifacts, runOrderArtifacts...)
	return artifacts, runOrderError
}

func (renderer *Renderer) renderLayout(layout Layout, title string, outputDirectory string, baseName string) ([]string, error) {
	for _, issue := range layout.Issues {
		renderer.logger.Warn(chartIssueLogMessageConstant, zap.String(chartIssueLogFieldNameConstant, issue))
	}

	artifacts := make([]string, 0, 2)

	pngPath := filepath.Join(outputDirectory, baseName+pngExtensionConstant)
	if pngError := RenderPNG(layout, title, pngPath); pngError != nil {
		return artifacts, pngError
	}
	artifacts = append(artifacts, pngPath)
	renderer.logger.Info(chartWrittenLogMessageConstant, zap.String(chartArtifactLogFieldConstant, pngPath))

	htmlPath := filepath.Join(outputDirectory, baseName+htmlExtensionConstant)
	if htmlError := RenderHTML(layout, title, htmlPath); htmlError != nil {
		return artifacts, htmlError
	}
	artifacts = append(artifacts, htmlPath)
	renderer.logger.Info(chartWrittenLogMessageConstant, zap.String(chartArtifactLogFieldConstant, htmlPath))

	return artifacts, nil
}
