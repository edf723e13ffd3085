package extract

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"go.uber.org/zap"
)

const (
	DefaultPerExportTimeoutConstant = 60 * time.Second

	exporterRequiredMessageConstant              = "exporter not configured"
	outputDirectoryCreateFailureTemplateConstant = "create output directory %s: %w"
	exportSucceededLogMessageConstant            = "Workflow metrics exported"
	exportFailedLogMessageConstant               = "Workflow metrics export failed"
	batchSummaryLogMessageConstant               = "Batch export finished"
	identifierLogFieldNameConstant               = "workflow_run_id"
	outputPathLogFieldNameConstant               = "output_path"
	exportedCountLogFieldNameConstant            = "exported"
	failedCountLogFieldNameConstant              = "failed"

	progressExportedLineTemplateConstant = "exported %s -> %s\n"
	progressFailedLineTemplateConstant   = "failed %s: %v\n"
)

// ErrExporterRequired indicates the exporter dependency was missing.
var ErrExporterRequired = errors.New(exporterRequiredMessageConstant)

// Outcome records the result of one identifier's export.
type Outcome struct {
	Identifier string
	OutputPath string
	Err        error
}

// Succeeded reports whether the export completed without error.
func (outcome Outcome) Succeeded() bool {
	return outcome.Err == nil
}

// BatchExtractor runs exports for a list of identifiers, isolating failures
// so one broken identifier does not abort the rest.
type BatchExtractor struct {
	exporter         Exporter
	logger           *zap.Logger
	perExportTimeout time.Duration
	progressOutput   io.Writer
}

// NewBatchExtractor wires a batch extractor; a nil logger falls back to a
// no-op logger and a non-positive timeout falls back to the default.
func NewBatchExtractor(exporter Exporter, logger *zap.Logger, perExportTimeout time.Duration) (*BatchExtractor, error) {
	if exporter == nil {
		return nil, ErrExporterRequired
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if perExportTimeout <= 0 {
		perExportTimeout = DefaultPerExportTimeoutConstant
	}
	return &BatchExtractor{exporter: exporter, logger: logger, perExportTimeout: perExportTimeout}, nil
}

// SetProgressOutput streams one line per finished export to destination.
func (extractor *BatchExtractor) SetProgressOutput(destination io.Writer) {
	extractor.progressOutput = destination
}

// EnsureOutputDirectory creates the export destination when absent without
// touching existing contents.
func EnsureOutputDirectory(directoryPath string) error {
	if mkdirError := os.MkdirAll(directoryPath, 0o755); mkdirError != nil {
		return fmt.Errorf(outputDirectoryCreateFailureTemplateConstant, directoryPath, mkdirError)
	}
	return nil
}

// Run exports every identifier in order and returns one outcome per
// identifier. The returned error is non-nil only when the surrounding context
// is cancelled.
func (extractor *BatchExtractor) Run(executionContext context.Context, identifiers []string) ([]Outcome, error) {
	outcomes := make([]Outcome, 0, len(identifiers))
	exportedCount := 0

	for _, identifier := range identifiers {
		if contextError := executionContext.Err(); contextError != nil {
			return outcomes, contextError
		}

		exportContext, cancelExport := context.WithTimeout(executionContext, extractor.perExportTimeout)
		outputPath, exportError := extractor.exporter.Export(exportContext, identifier)
		cancelExport()

		outcome := Outcome{Identifier: identifier, OutputPath: outputPath, Err: exportError}
		outcomes = append(outcomes, outcome)

		if exportError != nil {
			extractor.logger.Warn(exportFailedLogMessageConstant,
				zap.String(identifierLogFieldNameConstant, identifier),
				zap.Error(exportError),
			)
			extractor.reportProgress(progressFailedLineTemplateConstant, identifier, exportError)
			continue
		}

		exportedCount++
		extractor.logger.Info(exportSucceededLogMessageConstant,
			zap.String(identifierLogFieldNameConstant, identifier),
			zap.String(outputPathLogFieldNameConstant, outputPath),
		)
		extractor.reportProgress(progressExportedLineTemplateConstant, identifier, outputPath)
	}

	extractor.logger.Info(batchSummaryLogMessageConstant,
		zap.Int(exportedCountLogFieldNameConstant, exportedCount),
		zap.Int(failedCountLogFieldNameConstant, len(outcomes)-exportedCount),
	)
	return outcomes, nil
}

func (extractor *BatchExtractor) reportProgress(lineTemplate string, arguments ...any) {
	if extractor.progressOutput == nil {
		return
	}
	fmt.Fprintf(extractor.progressOutput, lineTemplate, arguments...)
}
