package cli

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	extractcmd "github.com/oicr-gsi/pipeline-timings/cmd/cli/extract"
	idscmd "github.com/oicr-gsi/pipeline-timings/cmd/cli/ids"
	reportcmd "github.com/oicr-gsi/pipeline-timings/cmd/cli/report"
	servecmd "github.com/oicr-gsi/pipeline-timings/cmd/cli/serve"
	"github.com/oicr-gsi/pipeline-timings/internal/utils"
	"github.com/oicr-gsi/pipeline-timings/internal/version"
)

const (
	applicationNameConstant             = "pipeline-timings"
	applicationShortDescriptionConstant = "Workflow run-time reporting toolchain"
	applicationLongDescriptionConstant  = "pipeline-timings exports workflow metrics documents, builds a per-run CSV report from a donor/sample/workflow hierarchy, and renders Gantt-style charts of the runs."

	configFileFlagNameConstant  = "config-file"
	configFileFlagUsageConstant = "Optional path to a configuration file (YAML or JSON)."
	logLevelFlagNameConstant    = "log-level"
	logLevelFlagUsageConstant   = "Override the configured log level."
	logFormatFlagNameConstant   = "log-format"
	logFormatFlagUsageConstant  = "Override the configured log format (structured or console)."

	versionFlagNameConstant                = "version"
	versionFlagUsageConstant               = "Print the application version and exit"
	versionOutputTemplateConstant          = "pipeline-timings version: %s\n"
	versionCommandUseNameConstant          = "version"
	versionCommandShortDescriptionConstant = "Print the pipeline-timings version"
	versionCommandLongDescriptionConstant  = "version prints the current pipeline-timings release identifier."

	environmentPrefixConstant              = "PIPELINE_TIMINGS"
	configurationNameConstant              = "config"
	configurationTypeConstant              = "yaml"
	defaultConfigurationSearchPathConstant = "."

	commonLogLevelConfigKeyConstant  = "common.log_level"
	commonLogFormatConfigKeyConstant = "common.log_format"

	configurationLoadErrorTemplateConstant = "unable to load configuration: %w"
	loggerCreationErrorTemplateConstant    = "unable to create logger: %w"
	loggerSyncErrorTemplateConstant        = "unable to flush logger: %w"

	configurationInitializedMessageConstant = "configuration initialized"
	configurationLogLevelFieldConstant      = "log_level"
	configurationLogFormatFieldConstant     = "log_format"
	configurationFileFieldConstant          = "config_file"
)

//go:embed default_config.yaml
var embeddedDefaultConfiguration []byte

// EmbeddedDefaultConfiguration exposes the built-in configuration document.
func EmbeddedDefaultConfiguration() ([]byte, string) {
	return embeddedDefaultConfiguration, configurationTypeConstant
}

// ApplicationConfiguration describes the persisted configuration for the CLI entrypoint.
type ApplicationConfiguration struct {
	Common  ApplicationCommonConfiguration  `mapstructure:"common"`
	Report  reportcmd.CommandConfiguration  `mapstructure:"report"`
	Extract extractcmd.CommandConfiguration `mapstructure:"extract"`
	Ids     idscmd.CommandConfiguration     `mapstructure:"ids"`
	Serve   servecmd.CommandConfiguration   `mapstructure:"serve"`
}

// ApplicationCommonConfiguration stores logging defaults shared across commands.
type ApplicationCommonConfiguration struct {
	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`
}

type loggerOutputsFactory interface {
	CreateLoggerOutputs(utils.LogLevel, utils.LogFormat) (utils.LoggerOutputs, error)
}

// Application wires the Cobra root command, configuration loader, and structured logger.
type Application struct {
	rootCommand           *cobra.Command
	configurationLoader   *utils.ConfigurationLoader
	loggerFactory         loggerOutputsFactory
	logger                *zap.Logger
	consoleLogger         *zap.Logger
	configuration         ApplicationConfiguration
	configurationMetadata utils.LoadedConfiguration
	configurationFilePath string
	logLevelFlagValue     string
	logFormatFlagValue    string
	versionFlag           bool
	versionResolver       func() string
	exitFunction          func(int)
}

// NewApplication assembles a fully wired CLI application instance.
func NewApplication() *Application {
	application := &Application{
		loggerFactory: utils.NewLoggerFactory(),
		logger:        zap.NewNop(),
		consoleLogger: zap.NewNop(),
	}
	application.versionResolver = resolveVersion
	application.exitFunction = os.Exit

	application.configurationLoader = utils.NewConfigurationLoader(
		configurationNameConstant,
		configurationTypeConstant,
		environmentPrefixConstant,
		[]string{defaultConfigurationSearchPathConstant},
	)
	embeddedConfigurationData, embeddedConfigurationType := EmbeddedDefaultConfiguration()
	application.configurationLoader.SetEmbeddedConfiguration(embeddedConfigurationData, embeddedConfigurationType)

	rootCommand := &cobra.Command{
		Use:           applicationNameConstant,
		Short:         applicationShortDescriptionConstant,
		Long:          applicationLongDescriptionConstant,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(command *cobra.Command, arguments []string) error {
			if initializationError := application.initializeConfiguration(command); initializationError != nil {
				return initializationError
			}
			if application.versionFlag {
				application.printVersion(command)
				application.exitFunction(0)
			}
			return nil
		},
		RunE: func(command *cobra.Command, arguments []string) error {
			return command.Help()
		},
	}
	rootCommand.SetContext(context.Background())

	rootCommand.PersistentFlags().StringVar(&application.configurationFilePath, configFileFlagNameConstant, "", configFileFlagUsageConstant)
	rootCommand.PersistentFlags().StringVar(&application.logLevelFlagValue, logLevelFlagNameConstant, "", logLevelFlagUsageConstant)
	rootCommand.PersistentFlags().StringVar(&application.logFormatFlagValue, logFormatFlagNameConstant, "", logFormatFlagUsageConstant)
	rootCommand.PersistentFlags().BoolVar(&application.versionFlag, versionFlagNameConstant, false, versionFlagUsageConstant)

	versionCommand := &cobra.Command{
		Use:           versionCommandUseNameConstant,
		Short:         versionCommandShortDescriptionConstant,
		Long:          versionCommandLongDescriptionConstant,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(command *cobra.Command, arguments []string) error {
			application.printVersion(command)
			return nil
		},
	}
	rootCommand.AddCommand(versionCommand)

	reportBuilder := reportcmd.CommandBuilder{
		LoggerProvider:        application.loggerProvider,
		ConfigurationProvider: func() reportcmd.CommandConfiguration { return application.configuration.Report },
	}
	if reportCommand, reportBuildError := reportBuilder.Build(); reportBuildError == nil {
		rootCommand.AddCommand(reportCommand)
	}

	extractBuilder := extractcmd.CommandBuilder{
		LoggerProvider:               application.loggerProvider,
		HumanReadableLoggingProvider: application.humanReadableLoggingEnabled,
		ConfigurationProvider:        func() extractcmd.CommandConfiguration { return application.configuration.Extract },
	}
	if extractCommand, extractBuildError := extractBuilder.Build(); extractBuildError == nil {
		rootCommand.AddCommand(extractCommand)
	}

	idsBuilder := idscmd.CommandBuilder{
		LoggerProvider:        application.loggerProvider,
		ConfigurationProvider: func() idscmd.CommandConfiguration { return application.configuration.Ids },
	}
	if idsCommand, idsBuildError := idsBuilder.Build(); idsBuildError == nil {
		rootCommand.AddCommand(idsCommand)
	}

	serveBuilder := servecmd.CommandBuilder{
		LoggerProvider:        application.loggerProvider,
		ConfigurationProvider: func() servecmd.CommandConfiguration { return application.configuration.Serve },
	}
	if serveCommand, serveBuildError := serveBuilder.Build(); serveBuildError == nil {
		rootCommand.AddCommand(serveCommand)
	}

	application.rootCommand = rootCommand
	return application
}

// Execute runs the configured Cobra command hierarchy and ensures logger flushing.
func (application *Application) Execute() error {
	executionError := application.rootCommand.Execute()
	if syncError := application.flushLogger(); syncError != nil {
		return fmt.Errorf(loggerSyncErrorTemplateConstant, syncError)
	}
	return executionError
}

// Execute builds a fresh application instance and executes the root command hierarchy.
func Execute() error {
	return NewApplication().Execute()
}

func (application *Application) initializeConfiguration(command *cobra.Command) error {
	defaultValues := map[string]any{
		commonLogLevelConfigKeyConstant:  string(utils.LogLevelInfo),
		commonLogFormatConfigKeyConstant: string(utils.LogFormatConsole),
	}

	loadedConfiguration, loadError := application.configurationLoader.LoadConfiguration(application.configurationFilePath, defaultValues, &application.configuration)
	if loadError != nil {
		return fmt.Errorf(configurationLoadErrorTemplateConstant, loadError)
	}
	application.configurationMetadata = loadedConfiguration

	if application.persistentFlagChanged(command, logLevelFlagNameConstant) {
		application.configuration.Common.LogLevel = application.logLevelFlagValue
	}
	if application.persistentFlagChanged(command, logFormatFlagNameConstant) {
		application.configuration.Common.LogFormat = application.logFormatFlagValue
	}

	loggerOutputs, loggerCreationError := application.loggerFactory.CreateLoggerOutputs(
		utils.LogLevel(application.configuration.Common.LogLevel),
		utils.LogFormat(application.configuration.Common.LogFormat),
	)
	if loggerCreationError != nil {
		return fmt.Errorf(loggerCreationErrorTemplateConstant, loggerCreationError)
	}

	application.logger = loggerOutputs.DiagnosticLogger
	if application.logger == nil {
		application.logger = zap.NewNop()
	}
	application.consoleLogger = loggerOutputs.ConsoleLogger
	if application.consoleLogger == nil {
		application.consoleLogger = zap.NewNop()
	}

	application.logger.Debug(configurationInitializedMessageConstant,
		zap.String(configurationLogLevelFieldConstant, application.configuration.Common.LogLevel),
		zap.String(configurationLogFormatFieldConstant, application.configuration.Common.LogFormat),
		zap.String(configurationFileFieldConstant, application.configurationMetadata.ConfigFileUsed),
	)
	return nil
}

func (application *Application) persistentFlagChanged(command *cobra.Command, flagName string) bool {
	if command == nil {
		return false
	}
	flag := command.Flags().Lookup(flagName)
	if flag == nil {
		flag = command.InheritedFlags().Lookup(flagName)
	}
	return flag != nil && flag.Changed
}

func (application *Application) loggerProvider() *zap.Logger {
	return application.logger
}

func (application *Application) humanReadableLoggingEnabled() bool {
	return strings.EqualFold(application.configuration.Common.LogFormat, string(utils.LogFormatConsole))
}

func (application *Application) printVersion(command *cobra.Command) {
	fmt.Fprintf(command.OutOrStdout(), versionOutputTemplateConstant, application.versionResolver())
}

func (application *Application) flushLogger() error {
	if application.logger == nil {
		return nil
	}
	if syncError := application.logger.Sync(); syncError != nil && !isIgnorableSyncError(syncError) {
		return syncError
	}
	return nil
}

func isIgnorableSyncError(syncError error) bool {
	message := syncError.Error()
	return strings.Contains(message, "invalid argument") || strings.Contains(message, "inappropriate ioctl")
}

func resolveVersion() string {
	return version.Detect(version.Dependencies{})
}
