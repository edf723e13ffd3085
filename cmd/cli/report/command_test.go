package report

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	reportpkg "github.com/oicr-gsi/pipeline-timings/internal/report"
)

const (
	testHierarchyDocumentConstant = `{
  "D1": {
    "S1": {
      "bamMergePreprocessing": [
        {"workflow_id": "100", "workflow_version": "1.0"}
      ],
      "purple": [
        {"workflow_id": "200", "workflow_version": "3.0"}
      ]
    }
  }
}`
	testOrderingConfigConstant = `{
  "workflow_run_order": ["bamMergePreprocessing", "purple"],
  "dependencies": {"purple": ["bamMergePreprocessing"]}
}`
)

func buildReportCommand(testInstance *testing.T, configuration CommandConfiguration) *cobra.Command {
	builder := CommandBuilder{
		LoggerProvider:        func() *zap.Logger { return zap.NewNop() },
		ConfigurationProvider: func() CommandConfiguration { return configuration },
	}
	command, buildError := builder.Build()
	require.NoError(testInstance, buildError)
	command.SetContext(context.Background())
	return command
}

func writeMetricsDocument(testInstance *testing.T, metricsDirectory string, workflowName string, identifier string, startTime string, endTime string, wallclockSeconds string) {
	documentContent := []byte(
		"[\n" +
			`  {"workflow_name": "` + workflowName + `", "workflow_run_id": "` + identifier + `", "start_time": "` + startTime + `", "end_time": "` + endTime + `", "wallclock_seconds": ` + wallclockSeconds + "},\n" +
			`  {"workflow_name": "provisionFileOut", "workflow_run_id": "` + identifier + `", "start_time": "0", "end_time": "5", "wallclock_seconds": 5}` + "\n]",
	)
	require.NoError(testInstance, os.WriteFile(filepath.Join(metricsDirectory, identifier+".json"), documentContent, 0o600))
}

func TestCommandRequiresInputPath(testInstance *testing.T) {
	command := buildReportCommand(testInstance, CommandConfiguration{})
	require.Error(testInstance, command.RunE(command, nil))
}

func TestCommandWritesReportAndCharts(testInstance *testing.T) {
	tempDirectory := testInstance.TempDir()
	inputPath := filepath.Join(tempDirectory, "input.json")
	metricsDirectory := filepath.Join(tempDirectory, "metrics")
	outputDirectory := filepath.Join(tempDirectory, "out")
	require.NoError(testInstance, os.WriteFile(inputPath, []byte(testHierarchyDocumentConstant), 0o600))
	require.NoError(testInstance, os.MkdirAll(metricsDirectory, 0o755))
	writeMetricsDocument(testInstance, metricsDirectory, "bamMergePreprocessing", "100", "10", "50", "40")
	writeMetricsDocument(testInstance, metricsDirectory, "purple", "200", "50", "80", "30")

	command := buildReportCommand(testInstance, CommandConfiguration{
		InputPath:        inputPath,
		MetricsDirectory: metricsDirectory,
		OutputDirectory:  outputDirectory,
	})
	require.NoError(testInstance, command.RunE(command, nil))

	rows, readError := reportpkg.ReadCSVFile(filepath.Join(outputDirectory, reportpkg.DefaultReportFileName))
	require.NoError(testInstance, readError)
	require.Len(testInstance, rows, 2)
	require.Equal(testInstance, "bamMergePreprocessing", rows[0].WorkflowName)
	require.Equal(testInstance, "40", rows[0].Duration)

	require.FileExists(testInstance, filepath.Join(outputDirectory, "wrt_gantt_v1.png"))
	require.FileExists(testInstance, filepath.Join(outputDirectory, "wrt_gantt_v1.html"))
	require.NoFileExists(testInstance, filepath.Join(outputDirectory, "wrt_gantt_v2.png"))
}

func TestCommandRendersRunOrderChartWithConfiguration(testInstance *testing.T) {
	tempDirectory := testInstance.TempDir()
	inputPath := filepath.Join(tempDirectory, "input.json")
	configPath := filepath.Join(tempDirectory, "workflow_config.json")
	metricsDirectory := filepath.Join(tempDirectory, "metrics")
	outputDirectory := filepath.Join(tempDirectory, "out")
	require.NoError(testInstance, os.WriteFile(inputPath, []byte(testHierarchyDocumentConstant), 0o600))
	require.NoError(testInstance, os.WriteFile(configPath, []byte(testOrderingConfigConstant), 0o600))
	require.NoError(testInstance, os.MkdirAll(metricsDirectory, 0o755))
	writeMetricsDocument(testInstance, metricsDirectory, "bamMergePreprocessing", "100", "10", "50", "40")
	writeMetricsDocument(testInstance, metricsDirectory, "purple", "200", "50", "80", "30")

	command := buildReportCommand(testInstance, CommandConfiguration{
		InputPath:        inputPath,
		ConfigPath:       configPath,
		MetricsDirectory: metricsDirectory,
		OutputDirectory:  outputDirectory,
	})
	require.NoError(testInstance, command.RunE(command, nil))

	require.FileExists(testInstance, filepath.Join(outputDirectory, "wrt_gantt_v2.png"))
	require.FileExists(testInstance, filepath.Join(outputDirectory, "wrt_gantt_v2.html"))
}

func TestCommandFailsOnMalformedSuppliedConfig(testInstance *testing.T) {
	tempDirectory := testInstance.TempDir()
	inputPath := filepath.Join(tempDirectory, "input.json")
	configPath := filepath.Join(tempDirectory, "workflow_config.json")
	require.NoError(testInstance, os.WriteFile(inputPath, []byte(testHierarchyDocumentConstant), 0o600))
	require.NoError(testInstance, os.WriteFile(configPath, []byte("{not json"), 0o600))

	command := buildReportCommand(testInstance, CommandConfiguration{InputPath: inputPath, ConfigPath: configPath})
	require.Error(testInstance, command.RunE(command, nil))
}
