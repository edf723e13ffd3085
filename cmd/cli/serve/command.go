package serve

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/oicr-gsi/pipeline-timings/internal/metrics"
	"github.com/oicr-gsi/pipeline-timings/internal/model"
	"github.com/oicr-gsi/pipeline-timings/internal/render"
	reportpkg "github.com/oicr-gsi/pipeline-timings/internal/report"
	"github.com/oicr-gsi/pipeline-timings/internal/web"
)

const (
	commandUseConstant              = "serve"
	commandShortDescriptionConstant = "Serve the workflow report and charts over HTTP"
	commandLongDescriptionConstant  = "serve builds the report in memory and exposes the CSV and the interactive HTML charts on a local HTTP port."
	commandExampleConstant          = "pipeline-timings serve --input input.json --metrics-dir metrics --port 8080"

	inputFlagNameConstant         = "input"
	inputFlagDescriptionConstant  = "Path to the donor/sample/workflow hierarchy JSON document"
	configFlagNameConstant        = "config"
	configFlagDescriptionConstant = "Optional path to the workflow ordering configuration"
	metricsDirFlagNameConstant    = "metrics-dir"
	metricsDirFlagDescription     = "Directory holding exported <workflow_run_id>.json metrics documents"
	portFlagNameConstant          = "port"
	portFlagDescriptionConstant   = "TCP port the HTTP server listens on"

	defaultMetricsDirectoryConstant = "metrics"
	defaultPortConstant             = 8080
	listenAddressTemplateConstant   = ":%d"
	shutdownGracePeriodConstant     = 5 * time.Second

	inputPathRequiredMessageConstant = "input document path required; provide --input"

	startTimeChartTitleConstant = "Workflow Runs by Start Time"
	runOrderChartTitleConstant  = "Workflow Runs by Configured Order"

	serverStartingLogMessageConstant = "Report server listening"
	listenAddressLogFieldConstant    = "address"
)

// CommandConfiguration captures persisted defaults for the serve command.
type CommandConfiguration struct {
	InputPath        string `mapstructure:"input"`
	ConfigPath       string `mapstructure:"config"`
	MetricsDirectory string `mapstructure:"metrics_dir"`
	Port             int    `mapstructure:"port"`
}

// LoggerProvider resolves the logger used during command execution.
type LoggerProvider func() *zap.Logger

// CommandBuilder assembles the serve command.
type CommandBuilder struct {
	LoggerProvider        LoggerProvider
	ConfigurationProvider func() CommandConfiguration
}

// Build constructs the serve command.
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
	command.Flags().Int(portFlagNameConstant, 0, portFlagDescriptionConstant)

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

	listenPort := configuration.Port
	if command.Flags().Changed(portFlagNameConstant) {
		if flagValue, flagError := command.Flags().GetInt(portFlagNameConstant); flagError == nil {
			listenPort = flagValue
		}
	}
	if listenPort <= 0 {
		listenPort = defaultPortConstant
	}

	portalContent, contentError := builder.buildPortalContent(command.Context(), logger, inputPath, orderingConfigPath, metricsDirectory)
	if contentError != nil {
		return contentError
	}

	router := web.NewRouter(portalContent, logger)
	listenAddress := fmt.Sprintf(listenAddressTemplateConstant, listenPort)
	server := &http.Server{Addr: listenAddress, Handler: router}

	serverContext := command.Context()
	go func() {
		<-serverContext.Done()
		shutdownContext, cancelShutdown := context.WithTimeout(context.Background(), shutdownGracePeriodConstant)
		defer cancelShutdown()
		_ = server.Shutdown(shutdownContext)
	}()

	logger.Info(serverStartingLogMessageConstant, zap.String(listenAddressLogFieldConstant, listenAddress))
	listenError := server.ListenAndServe()
	if errors.Is(listenError, http.ErrServerClosed) {
		return nil
	}
	return listenError
}

func (builder *CommandBuilder) buildPortalContent(executionContext context.Context, logger *zap.Logger, inputPath string, orderingConfigPath string, metricsDirectory string) (web.PortalContent, error) {
	inputDocument, inputError := model.LoadInputDocument(inputPath)
	if inputError != nil {
		return web.PortalContent{}, inputError
	}

	var orderingConfiguration *model.OrderingConfig
	if len(orderingConfigPath) > 0 {
		loadedConfiguration, configError := model.LoadOrderingConfig(orderingConfigPath)
		if configError != nil {
			return web.PortalContent{}, configError
		}
		orderingConfiguration = &loadedConfiguration
	}

	documentStore, storeError := metrics.NewDirectoryStore(metricsDirectory)
	if storeError != nil {
		return web.PortalContent{}, storeError
	}

	reportBuilder, builderError := reportpkg.NewBuilder(documentStore, logger)
	if builderError != nil {
		return web.PortalContent{}, builderError
	}

	rows, buildError := reportBuilder.BuildReport(executionContext, inputDocument)
	if buildError != nil {
		return web.PortalContent{}, buildError
	}

	var csvBuffer bytes.Buffer
	if writeError := reportpkg.WriteCSV(&csvBuffer, rows); writeError != nil {
		return web.PortalContent{}, writeError
	}

	var startTimeChartBuffer bytes.Buffer
	if renderError := render.WriteHTML(&startTimeChartBuffer, render.BuildStartTimeLayout(rows), startTimeChartTitleConstant); renderError != nil {
		return web.PortalContent{}, renderError
	}

	portalContent := web.PortalContent{
		ReportCSV:          csvBuffer.Bytes(),
		StartTimeChartHTML: startTimeChartBuffer.Bytes(),
	}

	if orderingConfiguration != nil {
		var runOrderChartBuffer bytes.Buffer
		if renderError := render.WriteHTML(&runOrderChartBuffer, render.BuildRunOrderLayout(rows, *orderingConfiguration), runOrderChartTitleConstant); renderError != nil {
			return web.PortalContent{}, renderError
		}
		portalContent.RunOrderChartHTML = runOrderChartBuffer.Bytes()
	}

	return portalContent, nil
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
