package report

import (
	"strconv"

	"github.com/oicr-gsi/pipeline-timings/internal/metrics"
)

const (
	// UnavailableMarker fills timing columns when no metrics document exists for a run.
	UnavailableMarker = "NA"
	// StatusUnavailable marks rows whose metrics document could not be found.
	StatusUnavailable = "UNAVAILABLE"
)

// ReportRow is one line of the workflow report: identifiers joined with the
// run's metrics summary. String fields pass through the CSV verbatim.
type ReportRow struct {
	DonorID               string
	SampleID              string
	WorkflowName          string
	WorkflowID            string
	WorkflowVersion       string
	StartTime             string
	EndTime               string
	Duration              string
	Status                string
	MaxProvisionWallclock string
	Warnings              []string
}

// HasMetrics reports whether the row carries real metrics rather than markers.
func (row ReportRow) HasMetrics() bool {
	return row.Status != StatusUnavailable
}

// Interval returns the row's numeric start and end positions when both
// timestamps parse.
func (row ReportRow) Interval() (float64, float64, bool) {
	startSeconds, startParsed := metrics.ParseTimestamp(row.StartTime)
	if !startParsed {
		return 0, 0, false
	}
	endSeconds, endParsed := metrics.ParseTimestamp(row.EndTime)
	if !endParsed {
		return 0, 0, false
	}
	return startSeconds, endSeconds, true
}

// FormatSeconds renders a duration in seconds with the shortest lossless
// decimal representation.
func FormatSeconds(seconds float64) string {
	return strconv.FormatFloat(seconds, 'f', -1, 64)
}
