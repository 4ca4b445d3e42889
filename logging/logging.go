// Package logging builds the zap logger used by the frost command.
package logging

import (
	"fmt"
	"io"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	lumberjack "gopkg.in/natefinch/lumberjack.v2"
)

// Config selects the level, mode and optional log file.
type Config struct {
	Level       string `mapstructure:"level" yaml:"level"`
	Development bool   `mapstructure:"development" yaml:"development"`
	File        string `mapstructure:"file" yaml:"file"`
}

// New returns a console logger writing to console and, when cfg.File is
// set, to a size-rotated file as well.
func New(cfg Config, console io.Writer) (*zap.Logger, error) {
	var zcfg zap.Config
	if cfg.Development {
		zcfg = zap.NewDevelopmentConfig()
	} else {
		zcfg = zap.NewProductionConfig()
		zcfg.DisableCaller = true
	}
	if cfg.Level != "" {
		if err := zcfg.Level.UnmarshalText([]byte(cfg.Level)); err != nil {
			return nil, fmt.Errorf("logging: invalid level %q: %w", cfg.Level, err)
		}
	}
	zcfg.Encoding = "console"
	zcfg.EncoderConfig.TimeKey = "timestamp"
	zcfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	ws := zapcore.AddSync(console)
	if cfg.File != "" {
		ws = zapcore.NewMultiWriteSyncer(ws, fileWriter(cfg.File))
	}
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(zcfg.EncoderConfig), ws, zcfg.Level)

	var opts []zap.Option
	if !zcfg.DisableCaller {
		opts = append(opts, zap.AddCaller())
	}
	if cfg.Development {
		opts = append(opts, zap.Development(), zap.AddStacktrace(zapcore.WarnLevel))
	}
	return zap.New(core, opts...), nil
}

func fileWriter(name string) zapcore.WriteSyncer {
	return zapcore.AddSync(&lumberjack.Logger{
		Filename:   name,
		MaxSize:    100, // MB
		MaxBackups: 5,
		MaxAge:     28, // days
	})
}
