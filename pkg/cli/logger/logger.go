// Package logger builds the CLI's zap logger. Output goes to a file under
// tmp/ so log lines never land on the terminal the TUI draws on.
package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Dir is where log files are created.
var Dir = "tmp"

// New returns a logger writing JSON lines to tmp/cli-<timestamp>.log and a
// func that flushes and closes the file. If the file cannot be created the
// logger falls back to stderr at warn level.
func New(debug bool) (*zap.Logger, func()) {
	level := zapcore.InfoLevel
	if debug {
		level = zapcore.DebugLevel
	}

	if err := os.MkdirAll(Dir, 0755); err != nil {
		return stderrLogger(), func() {}
	}

	path := filepath.Join(Dir, fmt.Sprintf("cli-%s.log", time.Now().Format("20060102-150405")))
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return stderrLogger(), func() {}
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	core := zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), zapcore.AddSync(f), level)
	log := zap.New(core, zap.AddCaller()).Named("cli")

	return log, func() {
		_ = log.Sync()
		f.Close()
	}
}

func stderrLogger() *zap.Logger {
	encCfg := zap.NewDevelopmentEncoderConfig()
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.Lock(os.Stderr), zapcore.WarnLevel)
	return zap.New(core).Named("cli")
}
