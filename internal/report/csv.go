package report

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

const (
	// DefaultReportFileName is the CSV artifact written beside the charts.
	DefaultReportFileName = "workflow_report.csv"

	csvHeaderMismatchMessageConstant = "workflow report header does not match expected columns"
	csvColumnCountTemplateConstant   = "workflow report line %d has %d columns, expected %d"
	csvWriteErrorTemplateConstant    = "failed to write workflow report: %w"
	csvReadErrorTemplateConstant     = "failed to read workflow report: %w"
	warningsSeparatorConstant        = "; "
)

// ErrHeaderMismatch indicates a CSV file whose header differs from the report schema.
var ErrHeaderMismatch = errors.New(csvHeaderMismatchMessageConstant)

var csvHeaderColumns = []string{
	"donor_id",
	"sample_id",
	"workflow_name",
	"workflow_id",
	"workflow_version",
	"start_time",
	"end_time",
	"duration",
	"status",
	"max_provision_wallclock_seconds",
	"warnings",
}

// WriteCSV renders the rows in order with a header line.
func WriteCSV(destination io.Writer, rows []ReportRow) error {
	csvWriter := csv.NewWriter(destination)

	if writeError := csvWriter.Write(csvHeaderColumns); writeError != nil {
		return fmt.Errorf(csvWriteErrorTemplateConstant, writeError)
	}

	for _, row := range rows {
		csvRecord := []string{
			row.DonorID,
			row.SampleID,
			row.WorkflowName,
			row.WorkflowID,
			row.WorkflowVersion,
			row.StartTime,
			row.EndTime,
			row.Duration,
			row.Status,
			row.MaxProvisionWallclock,
			strings.Join(row.Warnings, warningsSeparatorConstant),
		}
		if writeError := csvWriter.Write(csvRecord); writeError != nil {
			return fmt.Errorf(csvWriteErrorTemplateConstant, writeError)
		}
	}

	csvWriter.Flush()
	if flushError := csvWriter.Error(); flushError != nil {
		return fmt.Errorf(csvWriteErrorTemplateConstant, flushError)
	}
	return nil
}

// WriteCSVFile writes the rows to filePath, replacing any previous report.
func WriteCSVFile(filePath string, rows []ReportRow) error {
	reportFile, createError := os.Create(filePath)
	if createError != nil {
		return fmt.Errorf(csvWriteErrorTemplateConstant, createError)
	}
	defer reportFile.Close()

	return WriteCSV(reportFile, rows)
}

// ReadCSV parses a previously written workflow report back into rows.
func ReadCSV(source io.Reader) ([]ReportRow, error) {
	csvReader := csv.NewReader(source)
	csvReader.FieldsPerRecord = -1

	records, readError := csvReader.ReadAll()
	if readError != nil {
		return nil, fmt.Errorf(csvReadErrorTemplateConstant, readError)
	}
	if len(records) == 0 {
		return nil, ErrHeaderMismatch
	}

	if !headerMatches(records[0]) {
		return nil, ErrHeaderMismatch
	}

	rows := make([]ReportRow, 0, len(records)-1)
	for recordIndex := 1; recordIndex < len(records); recordIndex++ {
		csvRecord := records[recordIndex]
		if len(csvRecord) != len(csvHeaderColumns) {
			return nil, fmt.Errorf(csvReadErrorTemplateConstant,
				fmt.Errorf(csvColumnCountTemplateConstant, recordIndex+1, len(csvRecord), len(csvHeaderColumns)))
		}

		row := ReportRow{
			DonorID:               csvRecord[0],
			SampleID:              csvRecord[1],
			WorkflowName:          csvRecord[2],
			WorkflowID:            csvRecord[3],
			WorkflowVersion:       csvRecord[4],
			StartTime:             csvRecord[5],
			EndTime:               csvRecord[6],
			Duration:              csvRecord[7],
			Status:                csvRecord[8],
			MaxProvisionWallclock: csvRecord[9],
		}
		if len(csvRecord[10]) > 0 {
			row.Warnings = strings.Split(csvRecord[10], warningsSeparatorConstant)
		}
		rows = append(rows, row)
	}

	return rows, nil
}

// ReadCSVFile parses the report at filePath.
func ReadCSVFile(filePath string) ([]ReportRow, error) {
	reportFile, openError := os.Open(filePath)
	if openError != nil {
		return nil, fmt.Errorf(csvReadErrorTemplateConstant, openError)
	}
	defer reportFile.Close()

	return ReadCSV(reportFile)
}

func headerMatches(headerRecord []string) bool {
	if len(headerRecord) != len(csvHeaderColumns) {
		return false
	}
	for columnIndex := range csvHeaderColumns {
		if headerRecord[columnIndex] != csvHeaderColumns[columnIndex] {
			return false
		}
	}
	return true
}
