package utils

import (
	"bytes"
	"errors"
	"strings"

	"github.com/spf13/viper"
)

const (
	configurationTargetMissingMessageConstant = "configuration target must not be nil"
	environmentKeyReplacerOldConstant         = "."
	environmentKeyReplacerNewConstant         = "_"
)

// ErrConfigurationTargetMissing indicates that no destination struct was provided for decoding.
var ErrConfigurationTargetMissing = errors.New(configurationTargetMissingMessageConstant)

// LoadedConfiguration reports metadata about a completed configuration load.
type LoadedConfiguration struct {
	ConfigFileUsed string
}

// ConfigurationLoader resolves configuration values from embedded defaults, files, and environment variables.
type ConfigurationLoader struct {
	configurationName         string
	configurationType         string
	environmentPrefix         string
	searchPaths               []string
	embeddedConfiguration     []byte
	embeddedConfigurationType string
}

// NewConfigurationLoader builds a loader for the provided configuration name, type, environment prefix, and search paths.
func NewConfigurationLoader(configurationName string, configurationType string, environmentPrefix string, searchPaths []string) *ConfigurationLoader {
	return &ConfigurationLoader{
		configurationName: configurationName,
		configurationType: configurationType,
		environmentPrefix: environmentPrefix,
		searchPaths:       searchPaths,
	}
}

// SetEmbeddedConfiguration registers embedded default configuration content merged beneath files and environment values.
func (loader *ConfigurationLoader) SetEmbeddedConfiguration(configurationContent []byte, configurationType string) {
	loader.embeddedConfiguration = configurationContent
	loader.embeddedConfigurationType = configurationType
}

// LoadConfiguration merges defaults, embedded content, an optional explicit file, discovered files, and environment variables into target.
func (loader *ConfigurationLoader) LoadConfiguration(explicitFilePath string, defaultValues map[string]any, target any) (LoadedConfiguration, error) {
	if target == nil {
		return LoadedConfiguration{}, ErrConfigurationTargetMissing
	}

	viperInstance := viper.New()
	viperInstance.SetConfigName(loader.configurationName)
	viperInstance.SetConfigType(loader.configurationType)

	for defaultKey, defaultValue := range defaultValues {
		viperInstance.SetDefault(defaultKey, defaultValue)
	}

	if len(loader.embeddedConfiguration) > 0 {
		embeddedViper := viper.New()
		embeddedType := loader.embeddedConfigurationType
		if len(strings.TrimSpace(embeddedType)) == 0 {
			embeddedType = loader.configurationType
		}
		embeddedViper.SetConfigType(embeddedType)
		if readError := embeddedViper.ReadConfig(bytes.NewReader(loader.embeddedConfiguration)); readError != nil {
			return LoadedConfiguration{}, readError
		}
		for _, embeddedKey := range embeddedViper.AllKeys() {
			viperInstance.SetDefault(embeddedKey, embeddedViper.Get(embeddedKey))
		}
	}

	viperInstance.SetEnvPrefix(loader.environmentPrefix)
	viperInstance.SetEnvKeyReplacer(strings.NewReplacer(environmentKeyReplacerOldConstant, environmentKeyReplacerNewConstant))
	viperInstance.AutomaticEnv()

	trimmedExplicitPath := strings.TrimSpace(explicitFilePath)
	if len(trimmedExplicitPath) > 0 {
		viperInstance.SetConfigFile(trimmedExplicitPath)
		if readError := viperInstance.ReadInConfig(); readError != nil {
			return LoadedConfiguration{}, readError
		}
	} else {
		for _, searchPath := range loader.searchPaths {
			viperInstance.AddConfigPath(searchPath)
		}
		if readError := viperInstance.ReadInConfig(); readError != nil {
			var configFileNotFound viper.ConfigFileNotFoundError
			if !errors.As(readError, &configFileNotFound) {
				return LoadedConfiguration{}, readError
			}
		}
	}

	if unmarshalError := viperInstance.Unmarshal(target); unmarshalError != nil {
		return LoadedConfiguration{}, unmarshalError
	}

	return LoadedConfiguration{ConfigFileUsed: viperInstance.ConfigFileUsed()}, nil
}
