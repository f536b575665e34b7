package logging

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// No-op until InitLogger runs, so library code can log unconditionally.
var (
	AppLogger   = zap.NewNop()
	TimerLogger = zap.NewNop()
	ErrorLogger = zap.NewNop()
)

func logsDir() string {
	dir := os.Getenv("LOG_DIR")
	if dir == "" {
		dir = "./logs"
	}
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		panic("Failed to create logs directory: " + err.Error())
	}
	return dir
}

func newRotatingCore(enc zapcore.Encoder, path string, maxSizeMB, maxAgeDays int, level zapcore.Level) zapcore.Core {
	return zapcore.NewCore(enc,
		zapcore.AddSync(&lumberjack.Logger{
			Filename: path, MaxSize: maxSizeMB, MaxAge: maxAgeDays, Compress: true,
		}),
		level,
	)
}

func InitLogger() {
	dir := logsDir()
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "timestamp"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoder := zapcore.NewJSONEncoder(encoderConfig)

	AppLogger = zap.New(newRotatingCore(encoder, filepath.Join(dir, "app.log"), 100, 28, zap.InfoLevel))
	TimerLogger = zap.New(newRotatingCore(encoder, filepath.Join(dir, "timer.log"), 50, 7, zap.InfoLevel))
	ErrorLogger = zap.New(newRotatingCore(encoder, filepath.Join(dir, "error.log"), 100, 30, zap.ErrorLevel))
}

// LogDuration lets you do: defer logging.LogDuration(ctx, "FuncName")()
func LogDuration(ctx context.Context, name string) func() {
	start := time.Now()
	traceID, _ := ctx.Value("trace_id").(string)

	return func() {
		fields := []zap.Field{
			zap.String("func", name),
			zap.Int64("duration_ms", time.Since(start).Milliseconds()),
		}
		if traceID != "" {
			fields = append(fields, zap.String("trace_id", traceID))
		}
		TimerLogger.Info("Function timed", fields...)
	}
}
