// Package logging 构建服务端与客户端工具共用的 zap 文件日志
package logging

import (
	"flag"
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options 日志文件、滚动与输出格式
type Options struct {
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
	Level      string // debug | info | warn | error
	JSON       bool
}

// DefaultOptions 10MB 滚动、保留 3 份、7 天，debug 级别控制台格式
func DefaultOptions(file string) Options {
	return Options{
		File:       file,
		MaxSizeMB:  10,
		MaxBackups: 3,
		MaxAgeDays: 7,
		Level:      "debug",
	}
}

// RegisterFlags 把日志选项绑定到命令行参数，默认值取自 o
func (o *Options) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&o.File, "log", o.File, "log file path")
	fs.IntVar(&o.MaxSizeMB, "log-max-size", o.MaxSizeMB, "rotate the log file after this many MB")
	fs.IntVar(&o.MaxBackups, "log-max-backups", o.MaxBackups, "rotated log files to keep")
	fs.IntVar(&o.MaxAgeDays, "log-max-age", o.MaxAgeDays, "days to keep rotated log files")
	fs.BoolVar(&o.Compress, "log-compress", o.Compress, "gzip rotated log files")
	fs.StringVar(&o.Level, "log-level", o.Level, "minimum log level")
	fs.BoolVar(&o.JSON, "log-json", o.JSON, "write JSON lines instead of console format")
}

// New 按 o 构建写入滚动文件的 zap.Logger
func New(o Options) (*zap.Logger, error) {
	if o.File == "" {
		return nil, fmt.Errorf("logging: empty file path")
	}
	level, err := zapcore.ParseLevel(o.Level)
	if err != nil {
		return nil, fmt.Errorf("logging: %w", err)
	}

	sink := zapcore.AddSync(&lumberjack.Logger{
		Filename:   o.File,
		MaxSize:    o.MaxSizeMB,
		MaxBackups: o.MaxBackups,
		MaxAge:     o.MaxAgeDays,
		Compress:   o.Compress,
	})

	enc := zap.NewProductionEncoderConfig()
	enc.TimeKey = "ts"
	enc.EncodeTime = zapcore.ISO8601TimeEncoder
	enc.EncodeCaller = zapcore.ShortCallerEncoder
	var encoder zapcore.Encoder
	if o.JSON {
		encoder = zapcore.NewJSONEncoder(enc)
	} else {
		enc.EncodeLevel = zapcore.CapitalLevelEncoder
		encoder = zapcore.NewConsoleEncoder(enc)
	}

	return zap.New(zapcore.NewCore(encoder, sink, level), zap.AddCaller()), nil
}
