package utils

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	unsupportedLogLevelTemplateConstant  = "unsupported log level %q"
	unsupportedLogFormatTemplateConstant = "unsupported log format %q"
	standardErrorOutputPathConstant      = "stderr"
)

// LogLevel names a supported logging verbosity.
type LogLevel string

// Supported log levels.
const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// LogFormat names a supported log encoding.
type LogFormat string

// Supported log formats.
const (
	LogFormatStructured LogFormat = "structured"
	LogFormatConsole    LogFormat = "console"
)

// LoggerOutputs bundles the diagnostic logger with a console logger for human-facing events.
type LoggerOutputs struct {
	DiagnosticLogger *zap.Logger
	ConsoleLogger    *zap.Logger
}

// LoggerFactory creates zap loggers for the requested level and format.
type LoggerFactory struct{}

// NewLoggerFactory returns a ready logger factory.
func NewLoggerFactory() *LoggerFactory {
	return &LoggerFactory{}
}

// CreateLoggerOutputs builds diagnostic and console loggers honoring the requested level and format.
func (factory *LoggerFactory) CreateLoggerOutputs(requestedLogLevel LogLevel, requestedLogFormat LogFormat) (LoggerOutputs, error) {
	zapLevel, levelError := resolveZapLevel(requestedLogLevel)
	if levelError != nil {
		return LoggerOutputs{}, levelError
	}

	var encoderConfiguration zapcore.EncoderConfig
	var encoding string
	switch requestedLogFormat {
	case LogFormatStructured:
		encoderConfiguration = zap.NewProductionEncoderConfig()
		encoding = "json"
	case LogFormatConsole:
		encoderConfiguration = zap.NewDevelopmentEncoderConfig()
		encoding = "console"
	default:
		return LoggerOutputs{}, fmt.Errorf(unsupportedLogFormatTemplateConstant, string(requestedLogFormat))
	}

	diagnosticConfiguration := zap.Config{
		Level:            zap.NewAtomicLevelAt(zapLevel),
		Encoding:         encoding,
		EncoderConfig:    encoderConfiguration,
		OutputPaths:      []string{standardErrorOutputPathConstant},
		ErrorOutputPaths: []string{standardErrorOutputPathConstant},
	}

	diagnosticLogger, diagnosticError := diagnosticConfiguration.Build()
	if diagnosticError != nil {
		return LoggerOutputs{}, diagnosticError
	}

	consoleLogger := zap.NewNop()
	if requestedLogFormat == LogFormatConsole {
		consoleEncoderConfiguration := zap.NewDevelopmentEncoderConfig()
		consoleEncoderConfiguration.TimeKey = ""
		consoleEncoderConfiguration.LevelKey = ""
		consoleEncoderConfiguration.CallerKey = ""
		consoleConfiguration := zap.Config{
			Level:            zap.NewAtomicLevelAt(zapLevel),
			Encoding:         encoding,
			EncoderConfig:    consoleEncoderConfiguration,
			OutputPaths:      []string{standardErrorOutputPathConstant},
			ErrorOutputPaths: []string{standardErrorOutputPathConstant},
		}
		builtConsoleLogger, consoleError := consoleConfiguration.Build()
		if consoleError != nil {
			return LoggerOutputs{}, consoleError
		}
		consoleLogger = builtConsoleLogger
	}

	return LoggerOutputs{DiagnosticLogger: diagnosticLogger, ConsoleLogger: consoleLogger}, nil
}

func resolveZapLevel(requestedLogLevel LogLevel) (zapcore.Level, error) {
	switch requestedLogLevel {
	case LogLevelDebug:
		return zapcore.DebugLevel, nil
	case LogLevelInfo:
		return zapcore.InfoLevel, nil
	case LogLevelWarn:
		return zapcore.WarnLevel, nil
	case LogLevelError:
		return zapcore.ErrorLevel, nil
	default:
		return zapcore.InvalidLevel, fmt.Errorf(unsupportedLogLevelTemplateConstant, string(requestedLogLevel))
	}
}
