package extract

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/oicr-gsi/pipeline-timings/internal/execshell"
)

const (
	DefaultHostConstant       = "localhost:27017"
	DefaultDatabaseConstant   = "vidarr"
	DefaultCollectionConstant = "workflow_metrics"

	exportedFileExtensionConstant = ".json"

	hostFlagConstant       = "--host"
	databaseFlagConstant   = "--db"
	collectionFlagConstant = "--collection"
	queryFlagConstant      = "--query"
	jsonArrayFlagConstant  = "--jsonArray"
	prettyFlagConstant     = "--pretty"
	outFlagConstant        = "--out"

	queryTemplateConstant = `{"workflow_run_id": %q}`

	executorRequiredMessageConstant         = "shell executor not configured"
	exportIdentifierRequiredMessageConstant = "workflow run identifier not provided"
	outputDirectoryRequiredMessageConstant  = "output directory not provided"
)

var (
	// ErrExecutorRequired indicates the shell executor dependency was missing.
	ErrExecutorRequired = errors.New(executorRequiredMessageConstant)
	// ErrExportIdentifierRequired indicates an empty workflow run identifier.
	ErrExportIdentifierRequired = errors.New(exportIdentifierRequiredMessageConstant)
	// ErrOutputDirectoryRequired indicates a missing output directory.
	ErrOutputDirectoryRequired = errors.New(outputDirectoryRequiredMessageConstant)
)

// ExportSettings carries the connection and destination parameters for a
// metrics export.
type ExportSettings struct {
	Host            string
	Database        string
	Collection      string
	OutputDirectory string
}

func (settings ExportSettings) withDefaults() ExportSettings {
	if len(strings.TrimSpace(settings.Host)) == 0 {
		settings.Host = DefaultHostConstant
	}
	if len(strings.TrimSpace(settings.Database)) == 0 {
		settings.Database = DefaultDatabaseConstant
	}
	if len(strings.TrimSpace(settings.Collection)) == 0 {
		settings.Collection = DefaultCollectionConstant
	}
	return settings
}

// Exporter exports the metrics documents for one workflow run identifier.
type Exporter interface {
	Export(executionContext context.Context, identifier string) (string, error)
}

// MongoExportExporter shells out to mongoexport for each identifier.
type MongoExportExporter struct {
	executor *execshell.ShellExecutor
	settings ExportSettings
}

// NewMongoExportExporter wires an exporter around a shell executor.
func NewMongoExportExporter(executor *execshell.ShellExecutor, settings ExportSettings) (*MongoExportExporter, error) {
	if executor == nil {
		return nil, ErrExecutorRequired
	}
	if len(strings.TrimSpace(settings.OutputDirectory)) == 0 {
		return nil, ErrOutputDirectoryRequired
	}
	return &MongoExportExporter{executor: executor, settings: settings.withDefaults()}, nil
}

// Export runs one mongoexport invocation and returns the path of the file it
// wrote. Existing files for the same identifier are overwritten.
func (exporter *MongoExportExporter) Export(executionContext context.Context, identifier string) (string, error) {
	trimmedIdentifier := strings.TrimSpace(identifier)
	if len(trimmedIdentifier) == 0 {
		return "", ErrExportIdentifierRequired
	}

	outputPath := filepath.Join(exporter.settings.OutputDirectory, trimmedIdentifier+exportedFileExtensionConstant)
	commandDetails := execshell.CommandDetails{
		Arguments: []string{
			hostFlagConstant, exporter.settings.Host,
			databaseFlagConstant, exporter.settings.Database,
			collectionFlagConstant, exporter.settings.Collection,
			queryFlagConstant, fmt.Sprintf(queryTemplateConstant, trimmedIdentifier),
			jsonArrayFlagConstant,
			prettyFlagConstant,
			outFlagConstant, outputPath,
		},
	}

	if _, executionError := exporter.executor.ExecuteMongoExport(executionContext, commandDetails); executionError != nil {
		return "", executionError
	}
	return outputPath, nil
}
