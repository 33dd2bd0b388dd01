package logger

import (
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds the console logger. Logs go to stderr so they never mix with
// menu output, or to logPath (truncated) when set. The returned func flushes
// and closes the log file.
func New(verbose bool, logPath string) (*zap.Logger, func(), error) {
	encoderConfig := zap.NewDevelopmentEncoderConfig()
	encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	encoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
	encoderConfig.EncodeCaller = nil

	var (
		writer  zapcore.WriteSyncer
		closers []io.Closer
	)
	if logPath != "" {
		// O_TRUNC ensures we rewrite the file, not append
		f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create log file: %w", err)
		}
		// No color codes in files
		encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
		writer = zapcore.AddSync(f)
		closers = append(closers, f)
	} else {
		writer = zapcore.Lock(os.Stderr)
	}

	logger := NewWithWriter(encoderConfig, writer, level(verbose))

	return logger, func() {
		_ = logger.Sync()
		for _, c := range closers {
			_ = c.Close()
		}
	}, nil
}

// NewWithWriter builds a console-encoded logger on an arbitrary writer.
func NewWithWriter(encoderConfig zapcore.EncoderConfig, writer zapcore.WriteSyncer, lvl zapcore.Level) *zap.Logger {
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderConfig),
		writer,
		lvl,
	)
	return zap.New(core)
}

func level(verbose bool) zapcore.Level {
	if verbose {
		return zap.DebugLevel
	}
	return zap.InfoLevel
}
