package extract

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/oicr-gsi/pipeline-timings/internal/execshell"
	extractpkg "github.com/oicr-gsi/pipeline-timings/internal/extract"
	"github.com/oicr-gsi/pipeline-timings/internal/utils"
)

const (
	commandUseConstant              = "extract"
	commandShortDescriptionConstant = "Export workflow metrics documents with mongoexport"
	commandLongDescriptionConstant  = "extract reads a newline-delimited workflow run identifier file and runs one mongoexport invocation per identifier, writing <workflow_run_id>.json into the output directory. Failed identifiers are reported and skipped."
	commandExampleConstant          = "pipeline-timings extract --ids workflow_ids.txt --output-dir metrics\n  pipeline-timings extract --ids workflow_ids.txt --output-dir metrics --host db01:27017 --timeout 120"

	identifiersFlagNameConstant        = "ids"
	identifiersFlagDescriptionConstant = "Path to the newline-delimited workflow run identifier file"
	outputDirFlagNameConstant          = "output-dir"
	outputDirFlagDescriptionConstant   = "Directory the exported metrics documents are written to"
	hostFlagNameConstant               = "host"
	hostFlagDescriptionConstant        = "Database host and port passed to mongoexport"
	databaseFlagNameConstant           = "database"
	databaseFlagDescriptionConstant    = "Database name passed to mongoexport"
	collectionFlagNameConstant         = "collection"
	collectionFlagDescriptionConstant  = "Collection name passed to mongoexport"
	timeoutFlagNameConstant            = "timeout"
	timeoutFlagDescriptionConstant     = "Per-identifier export timeout in seconds"

	defaultOutputDirectoryConstant     = "metrics"
	defaultTimeoutSecondsConstant      = 60
	identifiersRequiredMessageConstant = "identifier file path required; provide --ids"
)

// CommandConfiguration captures persisted defaults for the extract command.
type CommandConfiguration struct {
	IdentifiersPath string `mapstructure:"ids"`
	OutputDirectory string `mapstructure:"output_dir"`
	Host            string `mapstructure:"host"`
	Database        string `mapstructure:"database"`
	Collection      string `mapstructure:"collection"`
	TimeoutSeconds  int    `mapstructure:"timeout_seconds"`
}

// LoggerProvider resolves the logger used during command execution.
type LoggerProvider func() *zap.Logger

// CommandBuilder assembles the extract command.
type CommandBuilder struct {
	LoggerProvider               LoggerProvider
	HumanReadableLoggingProvider func() bool
	ConfigurationProvider        func() CommandConfiguration
	CommandRunner                execshell.CommandRunner
}

// Build constructs the extract command.
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

	command.Flags().String(identifiersFlagNameConstant, "", identifiersFlagDescriptionConstant)
	command.Flags().String(outputDirFlagNameConstant, "", outputDirFlagDescriptionConstant)
	command.Flags().String(hostFlagNameConstant, "", hostFlagDescriptionConstant)
	command.Flags().String(databaseFlagNameConstant, "", databaseFlagDescriptionConstant)
	command.Flags().String(collectionFlagNameConstant, "", collectionFlagDescriptionConstant)
	command.Flags().Int(timeoutFlagNameConstant, 0, timeoutFlagDescriptionConstant)

	return command, nil
}

func (builder *CommandBuilder) run(command *cobra.Command, _ []string) error {
	logger := builder.resolveLogger()
	configuration := builder.resolveConfiguration()

	identifiersPath := resolveStringFlag(command, identifiersFlagNameConstant, configuration.IdentifiersPath)
	if len(identifiersPath) == 0 {
		return errors.New(identifiersRequiredMessageConstant)
	}
	outputDirectory := resolveStringFlag(command, outputDirFlagNameConstant, configuration.OutputDirectory)
	if len(outputDirectory) == 0 {
		outputDirectory = defaultOutputDirectoryConstant
	}

	timeoutSeconds := configuration.TimeoutSeconds
	if command.Flags().Changed(timeoutFlagNameConstant) {
		if flagValue, flagError := command.Flags().GetInt(timeoutFlagNameConstant); flagError == nil {
			timeoutSeconds = flagValue
		}
	}
	if timeoutSeconds <= 0 {
		timeoutSeconds = defaultTimeoutSecondsConstant
	}

	identifiers, readError := extractpkg.ReadIdentifiers(identifiersPath)
	if readError != nil {
		return readError
	}

	if directoryError := extractpkg.EnsureOutputDirectory(outputDirectory); directoryError != nil {
		return directoryError
	}

	shellExecutor, executorError := execshell.NewShellExecutor(logger, builder.resolveCommandRunner(), builder.humanReadableLoggingEnabled())
	if executorError != nil {
		return executorError
	}

	exporter, exporterError := extractpkg.NewMongoExportExporter(shellExecutor, extractpkg.ExportSettings{
		Host:            resolveStringFlag(command, hostFlagNameConstant, configuration.Host),
		Database:        resolveStringFlag(command, databaseFlagNameConstant, configuration.Database),
		Collection:      resolveStringFlag(command, collectionFlagNameConstant, configuration.Collection),
		OutputDirectory: outputDirectory,
	})
	if exporterError != nil {
		return exporterError
	}

	batchExtractor, extractorError := extractpkg.NewBatchExtractor(exporter, logger, time.Duration(timeoutSeconds)*time.Second)
	if extractorError != nil {
		return extractorError
	}
	batchExtractor.SetProgressOutput(utils.NewFlushingWriter(command.OutOrStdout()))

	_, runError := batchExtractor.Run(command.Context(), identifiers)
	return runError
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

func (builder *CommandBuilder) resolveCommandRunner() execshell.CommandRunner {
	if builder.CommandRunner != nil {
		return builder.CommandRunner
	}
	return execshell.NewOSCommandRunner()
}

func (builder *CommandBuilder) humanReadableLoggingEnabled() bool {
	return builder.HumanReadableLoggingProvider != nil && builder.HumanReadableLoggingProvider()
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
