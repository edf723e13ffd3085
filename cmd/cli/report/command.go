package report

import (
	"errors"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/oicr-gsi/pipeline-timings/internal/extract"
	"github.com/oicr-gsi/pipeline-timings/internal/metrics"
	"github.com/oicr-gsi/pipeline-timings/internal/model"
	"github.com/oicr-gsi/pipeline-timings/internal/render"
	reportpkg "github.com/oicr-gsi/pipeline-timings/internal/report"
)

const (
	commandUseConstant              = "report"
	commandShortDescriptionConstant = "Build the workflow run-time report and charts"
	commandLongDescriptionConstant  = "report loads a donor/sample/workflow hierarchy, joins it with exported workflow metrics documents, writes workflow_report.csv, and renders Gantt-style charts of the runs."
	commandExampleConstant          = "pipeline-timings report --input input.json --metrics-dir metrics --output-dir out\n  pipeline-timings report --input input.json --config workflow_config.json"

	inputFlagNameConstant         = "input"
	inputFlagDescriptionConstant  = "Path to the donor/sample/workflow hierarchy JSON document"
	configFlagNameConstant        = "config"
	configFlagDescriptionConstant = "Optional path to the workflow ordering configuration (workflow_run_order and dependencies)"
	metricsDirFlagNameConstant    = "metrics-dir"
	metricsDirFlagDescription     = "Directory holding exported <workflow_run_id>.json metrics documents"
	outputDirFlagNameConstant     = "output-dir"
	outputDirFlagDescription      = "Directory the report and charts are written to"

	defaultMetricsDirectoryConstant = "metrics"
	defaultOutputDirectoryConstant  = "."

	inputPathRequiredMessageConstant = "input document path required; provide --input"

	configIssueLogMessageConstant    = "Ordering configuration issue"
	reportWrittenLogMessageConstant  = "Report written"
	reportSummaryLogMessageConstant  = "Report build finished"
	configIssueLogFieldNameConstant  = "issue"
	reportPathLogFieldNameConstant   = "path"
	rowCountLogFieldNameConstant     = "rows"
	warningCountLogFieldNameConstant = "row_warnings"
	artifactCountLogFieldConstant    = "chart_artifacts"
)

// CommandConfiguration captures persisted defaults for the report command.
type CommandConfiguration struct {
	InputPath        string `mapstructure:"input"`
	ConfigPath       string `mapstructure:"config"`
	MetricsDirectory string `mapstructure:"metrics_dir"`
	OutputDirectory  string `mapstructure:"output_dir"`
}

// LoggerProvider resolves the logger used during command execution.
type LoggerProvider func() *zap.Logger

// CommandBuilder assembles the report command.
type CommandBuilder struct {
	LoggerProvider        LoggerProvider
	ConfigurationProvider func() CommandConfiguration
}

// Build constructs the report command.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:           commandUseConstant,
		Short:         commandShortDescriptionConstant,
		Long:          commandLongDescriptionConstant,
		Example:       commandExampleConstant,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          builder.run,
	}

	command.Flags().String(inputFlagNameConstant, "", inputFlagDescriptionConstant)
	command.Flags().String(configFlagNameConstant, "", configFlagDescriptionConstant)
	command.Flags().String(metricsDirFlagNameConstant, "", metricsDirFlagDescription)
	command.Flags().String(outputDirFlagNameConstant, "", outputDirFlagDescription)

	return command, nil
}

func (builder *CommandBuilder) run(command *cobra.Command, _ []string) error {
	logger := builder.resolveLogger()
	configuration := builder.resolveConfiguration()

	inputPath := resolveStringFlag(command, inputFlagNameConstant, configuration.InputPath)
	if len(inputPath) == 0 {
		return errors.New(inputPathRequiredMessageConstant)
	}
	orderingConfigPath := resolveStringFlag(command, configFlagNameConstant, configuration.ConfigPath)
	metricsDirectory := resolveStringFlag(command, metricsDirFlagNameConstant, configuration.MetricsDirectory)
	if len(metricsDirectory) == 0 {
		metricsDirectory = defaultMetricsDirectoryConstant
	}
	outputDirectory := resolveStringFlag(command, outputDirFlagNameConstant, configuration.OutputDirectory)
	if len(outputDirectory) == 0 {
		outputDirectory = defaultOutputDirectoryConstant
	}

	inputDocument, inputError := model.LoadInputDocument(inputPath)
	if inputError != nil {
		return inputError
	}

	var orderingConfiguration *model.OrderingConfig
	if len(orderingConfigPath) > 0 {
		loadedConfiguration, configError := model.LoadOrderingConfig(orderingConfigPath)
		if configError != nil {
			return configError
		}
		for _, issue := range loadedConfiguration.Validate() {
			logger.Warn(configIssueLogMessageConstant, zap.String(configIssueLogFieldNameConstant, issue.String()))
		}
		orderingConfiguration = &loadedConfiguration
	}

	documentStore, storeError := metrics.NewDirectoryStore(metricsDirectory)
	if storeError != nil {
		return storeError
	}

	reportBuilder, builderError := reportpkg.NewBuilder(documentStore, logger)
	if builderError != nil {
		return builderError
	}

	rows, buildError := reportBuilder.BuildReport(command.Context(), inputDocument)
	if buildError != nil {
		return buildError
	}

	if directoryError := extract.EnsureOutputDirectory(outputDirectory); directoryError != nil {
		return directoryError
	}

	reportPath := filepath.Join(outputDirectory, reportpkg.DefaultReportFileName)
	if writeError := reportpkg.WriteCSVFile(reportPath, rows); writeError != nil {
		return writeError
	}
	logger.Info(reportWrittenLogMessageConstant, zap.String(reportPathLogFieldNameConstant, reportPath))

	renderer := render.NewRenderer(logger)
	artifacts, renderError := renderer.RenderCharts(rows, orderingConfiguration, outputDirectory)
	if renderError != nil {
		return renderError
	}

	logger.Info(reportSummaryLogMessageConstant,
		zap.Int(rowCountLogFieldNameConstant, len(rows)),
		zap.Int(warningCountLogFieldNameConstant, countRowWarnings(rows)),
		zap.Int(artifactCountLogFieldConstant, len(artifacts)),
	)
	return nil
}

func (builder *CommandBuilder) resolveLogger() *zap.Logger {
	if builder.LoggerProvider != nil {
		if logger := builder.LoggerProvider(); logger != nil {
			return logger
		}
	}
	return zap.NewNop()
}

func (builder *CommandBuilder) resolveConfiguration() CommandConfiguration {
	if builder.ConfigurationProvider != nil {
		return builder.ConfigurationProvider()
	}
	return CommandConfiguration{}
}

func countRowWarnings(rows []reportpkg.ReportRow) int {
	warningCount := 0
	for _, row := range rows {
		warningCount += len(row.Warnings)
	}
	return warningCount
}

func resolveStringFlag(command *cobra.Command, flagName string, configuredValue string) string {
	resolvedValue := strings.TrimSpace(configuredValue)
	if command != nil && command.Flags().Changed(flagName) {
		if flagValue, flagError := command.Flags().GetString(flagName); flagError == nil {
			resolvedValue = strings.TrimSpace(flagValue)
		}
	}
	return resolvedValue
}
