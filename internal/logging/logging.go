// Package logging builds the zap logger used by the born tool.
package logging

import (
	"fmt"
	"io"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/born-ml/mixprec/internal/config"
)

// Logger couples a logger with the level that gates it, so verbosity can be
// changed after construction (e.g. by a --verbose flag).
type Logger struct {
	*zap.Logger
	Level zap.AtomicLevel
}

// New builds a logger writing to out as configured by cfg.
func New(cfg config.LoggingConfig, out io.Writer) (*Logger, error) {
	level, err := zap.ParseAtomicLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	encCfg := zap.NewProductionEncoderConfig()
	if cfg.Development {
		encCfg = zap.NewDevelopmentEncoderConfig()
	}
	encCfg.TimeKey = "ts"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	var enc zapcore.Encoder
	switch cfg.Encoding {
	case "json":
		enc = zapcore.NewJSONEncoder(encCfg)
	case "console", "":
		enc = zapcore.NewConsoleEncoder(encCfg)
	default:
		return nil, fmt.Errorf("failed to initialize logger: unknown encoding %q", cfg.Encoding)
	}

	core := zapcore.NewCore(enc, zapcore.AddSync(out), level)
	opts := []zap.Option{zap.ErrorOutput(zapcore.AddSync(out))}
	if cfg.Development {
		opts = append(opts, zap.Development(), zap.AddStacktrace(zapcore.WarnLevel))
	}

	return &Logger{Logger: zap.New(core, opts...).Named("born"), Level: level}, nil
}

// Nop returns a logger that discards everything.
func Nop() *Logger {
	return &Logger{Logger: zap.NewNop(), Level: zap.NewAtomicLevelAt(zapcore.FatalLevel)}
}

// SetVerbose lowers the level to debug.
func (l *Logger) SetVerbose() {
	l.Level.SetLevel(zapcore.DebugLevel)
}
