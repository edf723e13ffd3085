package report

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/oicr-gsi/pipeline-timings/internal/metrics"
	"github.com/oicr-gsi/pipeline-timings/internal/model"
)

const (
	missingMetricsWarningMessageConstant      = "metrics document unavailable"
	emptyMetricsWarningMessageConstant        = "metrics document carries no workflow stage"
	transientFetchWarningTemplateConstant     = "metrics fetch failed: %v"
	malformedMetricsWarningTemplateConstant   = "metrics document malformed: %v"
	negativeDurationWarningMessageConstant    = "end time precedes start time"
	missingTimestampsWarningMessageConstant   = "start or end timestamp missing or unparseable"
	wallclockFallbackWarningMessageConstant   = "duration taken from wallclock_seconds"
	builderStoreRequiredMessageConstant       = "metrics document store must be provided"
	rowWarningLogMessageConstant              = "report row warning"
	rowWarningWorkflowIdentifierFieldConstant = "workflow_id"
	rowWarningDetailFieldConstant             = "warning"
)

// ErrStoreRequired indicates that BuildReport was called without a metrics store.
var ErrStoreRequired = errors.New(builderStoreRequiredMessageConstant)

// Builder joins the input hierarchy with per-run metrics documents.
type Builder struct {
	store  metrics.DocumentStore
	logger *zap.Logger
}

// NewBuilder wires a report builder over the provided metrics store.
func NewBuilder(store metrics.DocumentStore, logger *zap.Logger) (*Builder, error) {
	if store == nil {
		return nil, ErrStoreRequired
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Builder{store: store, logger: logger}, nil
}

// BuildReport produces exactly one row per workflow record in document
// traversal order. Missing or malformed metrics surface as marker rows with
// warnings, never as dropped rows.
func (builder *Builder) BuildReport(executionContext context.Context, document model.InputDocument) ([]ReportRow, error) {
	rows := make([]ReportRow, 0)

	for donorIndex := range document.Donors {
		donor := document.Donors[donorIndex]
		for sampleIndex := range donor.Samples {
			sample := donor.Samples[sampleIndex]
			for workflowIndex := range sample.Workflows {
				workflowGroup := sample.Workflows[workflowIndex]
				for _, record := range workflowGroup.Records {
					row := builder.buildRow(executionContext, donor.DonorID, sample.SampleID, workflowGroup.WorkflowName, record)
					for _, warningDetail := range row.Warnings {
						builder.logger.Warn(rowWarningLogMessageConstant,
							zap.String(rowWarningWorkflowIdentifierFieldConstant, row.WorkflowID),
							zap.String(rowWarningDetailFieldConstant, warningDetail),
						)
					}
					rows = append(rows, row)
				}
			}
		}
	}

	return rows, nil
}

func (builder *Builder) buildRow(executionContext context.Context, donorIdentifier string, sampleIdentifier string, workflowName string, record model.WorkflowRecord) ReportRow {
	row := ReportRow{
		DonorID:         donorIdentifier,
		SampleID:        sampleIdentifier,
		WorkflowName:    workflowName,
		WorkflowID:      record.WorkflowID,
		WorkflowVersion: record.WorkflowVersion,
	}

	document, fetchError := builder.store.Fetch(executionContext, record.WorkflowID)
	if fetchError != nil {
		markUnavailable(&row)
		switch {
		case errors.Is(fetchError, metrics.ErrNotFound):
			row.Warnings = append(row.Warnings, missingMetricsWarningMessageConstant)
		default:
			row.Warnings = append(row.Warnings, fmt.Sprintf(transientFetchWarningTemplateConstant, fetchError))
		}
		return row
	}

	summary, summaryFound := document.Summarize()
	if !summaryFound {
		markUnavailable(&row)
		row.Warnings = append(row.Warnings, emptyMetricsWarningMessageConstant)
		return row
	}

	row.StartTime = summary.StartTime
	if len(row.StartTime) == 0 {
		row.StartTime = UnavailableMarker
	}
	row.EndTime = summary.EndTime
	if len(row.EndTime) == 0 {
		row.EndTime = UnavailableMarker
	}
	row.Status = summary.Status
	row.MaxProvisionWallclock = FormatSeconds(summary.MaxProvisionWallclockSeconds)
	fillDuration(&row, summary)
	return row
}

func fillDuration(row *ReportRow, summary metrics.Summary) {
	startSeconds, endSeconds, intervalAvailable := row.Interval()
	if intervalAvailable {
		row.Duration = FormatSeconds(endSeconds - startSeconds)
		if endSeconds < startSeconds {
			row.Warnings = append(row.Warnings, negativeDurationWarningMessageConstant)
		}
		return
	}

	if summary.WallclockSeconds > 0 {
		row.Duration = FormatSeconds(summary.WallclockSeconds)
		row.Warnings = append(row.Warnings, wallclockFallbackWarningMessageConstant)
		return
	}

	row.Duration = UnavailableMarker
	row.Warnings = append(row.Warnings, missingTimestampsWarningMessageConstant)
}

func markUnavailable(row *ReportRow) {
	row.StartTime = UnavailableMarker
	row.EndTime = UnavailableMarker
	row.Duration = UnavailableMarker
	row.Status = StatusUnavailable
	row.MaxProvisionWallclock = UnavailableMarker
}
