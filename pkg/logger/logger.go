// Package logger 进程级 zap 日志。api 与 worker 各自 Init，每条日志带 service 字段。
package logger

import (
	"fmt"
	"os"

	"clubvid/internal/config"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger 未 Init 前为 Nop，测试中可以直接调用各级别函数
var Logger = zap.NewNop()

// Init 按配置替换全局 Logger。无法识别的 level 按 info 处理。
func Init(cfg *config.LogConfig, service string) error {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}

	sink, err := openSink(cfg.Output, cfg.FilePath)
	if err != nil {
		return err
	}

	core := zapcore.NewCore(newEncoder(cfg.Format), sink, level)
	Logger = zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1)).
		With(zap.String("service", service))
	return nil
}

func newEncoder(format string) zapcore.Encoder {
	if format == "json" {
		encCfg := zap.NewProductionEncoderConfig()
		encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
		return zapcore.NewJSONEncoder(encCfg)
	}
	encCfg := zap.NewDevelopmentEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
	return zapcore.NewConsoleEncoder(encCfg)
}

func openSink(output, path string) (zapcore.WriteSyncer, error) {
	if output != "file" {
		return zapcore.Lock(os.Stdout), nil
	}
	if path == "" {
		return nil, fmt.Errorf("log output is file but log.file_path is empty")
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file %s: %w", path, err)
	}
	return zapcore.Lock(f), nil
}

func Sync() {
	_ = Logger.Sync()
}

func Debug(msg string, fields ...zap.Field) { Logger.Debug(msg, fields...) }
func Info(msg string, fields ...zap.Field)  { Logger.Info(msg, fields...) }
func Warn(msg string, fields ...zap.Field)  { Logger.Warn(msg, fields...) }
func Error(msg string, fields ...zap.Field) { Logger.Error(msg, fields...) }

// Fatal 记录后退出进程，只在 main 的启动阶段使用
func Fatal(msg string, fields ...zap.Field) { Logger.Fatal(msg, fields...) }
