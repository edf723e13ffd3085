package ids

import (
	"errors"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	extractpkg "github.com/oicr-gsi/pipeline-timings/internal/extract"
	"github.com/oicr-gsi/pipeline-timings/internal/model"
)

const (
	commandUseConstant              = "ids"
	commandShortDescriptionConstant = "Harvest workflow run identifiers from an input document"
	commandLongDescriptionConstant  = "ids walks the donor/sample/workflow hierarchy and appends every workflow_id to a newline-delimited identifier file, writing the header line only when the file is new."
	commandExampleConstant          = "pipeline-timings ids --input input.json\n  pipeline-timings ids --input input.json --output workflow_ids.txt"

	inputFlagNameConstant         = "input"
	inputFlagDescriptionConstant  = "Path to the donor/sample/workflow hierarchy JSON document"
	outputFlagNameConstant        = "output"
	outputFlagDescriptionConstant = "Identifier file the workflow ids are appended to"

	defaultOutputFileNameConstant = "workflow_ids.txt"

	inputPathRequiredMessageConstant = "input document path required; provide --input"

	identifiersAppendedLogMessageConstant = "Workflow identifiers appended"
	identifierCountLogFieldNameConstant   = "identifiers"
	outputPathLogFieldNameConstant        = "path"
)

// CommandConfiguration captures persisted defaults for the ids command.
type CommandConfiguration struct {
	InputPath  string `mapstructure:"input"`
	OutputPath string `mapstructure:"output"`
}

// LoggerProvider resolves the logger used during command execution.
type LoggerProvider func() *zap.Logger

// CommandBuilder assembles the ids command.
type CommandBuilder struct {
	LoggerProvider        LoggerProvider
	ConfigurationProvider func() CommandConfiguration
}

// Build constructs the ids command.
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
	command.Flags().String(outputFlagNameConstant, "", outputFlagDescriptionConstant)

	return command, nil
}

func (builder *CommandBuilder) run(command *cobra.Command, _ []string) error {
	logger := builder.resolveLogger()
	configuration := builder.resolveConfiguration()

	inputPath := resolveStringFlag(command, inputFlagNameConstant, configuration.InputPath)
	if len(inputPath) == 0 {
		return errors.New(inputPathRequiredMessageConstant)
	}
	outputPath := resolveStringFlag(command, outputFlagNameConstant, configuration.OutputPath)
	if len(outputPath) == 0 {
		outputPath = defaultOutputFileNameConstant
	}

	inputDocument, inputError := model.LoadInputDocument(inputPath)
	if inputError != nil {
		return inputError
	}

	identifiers := inputDocument.WorkflowIdentifiers()
	if appendError := extractpkg.AppendIdentifiers(outputPath, identifiers); appendError != nil {
		return appendError
	}

	logger.Info(identifiersAppendedLogMessageConstant,
		zap.Int(identifierCountLogFieldNameConstant, len(identifiers)),
		zap.String(outputPathLogFieldNameConstant, outputPath),
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

func resolveStringFlag(command *cobra.Command, flagName string, configuredValue string) string {
	resolvedValue := strings.TrimSpace(configuredValue)
	if command != nil && command.Flags().Changed(flagName) {
		if flagValue, flagError := command.Flags().GetString(flagName); flagError == nil {
			resolvedValue = strings.TrimSpace(flagValue)
		}
	}
	return resolvedValue
}
