package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

/*
Process-wide structured logger for the engine.

Until Init is called every component logs into a no-op logger, so embedding the
engine in another program costs nothing. The REPL and cmd tools call Init with
the level/format they were started with.
*/

var (
	loggerMu sync.RWMutex
	logger   = zap.NewNop()
	logFile  *os.File
	isInited bool
)

type Level string

const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

type Config struct {
	Level      Level  `json:"level"`
	Format     string `json:"format"`      // "json" or "console"
	OutputPath string `json:"output_path"` // empty for stderr
}

func (l Level) zapLevel() (zapcore.Level, error) {
	switch Level(strings.ToLower(string(l))) {
	case LevelDebug:
		return zapcore.DebugLevel, nil
	case LevelInfo, "":
		return zapcore.InfoLevel, nil
	case LevelWarn:
		return zapcore.WarnLevel, nil
	case LevelError:
		return zapcore.ErrorLevel, nil
	}
	return zapcore.InfoLevel, fmt.Errorf("unknown log level %q", string(l))
}

// Init replaces the global logger. Calling it twice without Close is an error.
func Init(cfg Config) error {
	loggerMu.Lock()
	defer loggerMu.Unlock()

	if isInited {
		return fmt.Errorf("logger already initialized; call Close() first to reinitialize")
	}

	level, err := cfg.Level.zapLevel()
	if err != nil {
		return err
	}

	var sink zapcore.WriteSyncer
	if cfg.OutputPath == "" {
		sink = zapcore.Lock(os.Stderr)
	} else {
		if err := os.MkdirAll(filepath.Dir(cfg.OutputPath), 0o750); err != nil {
			return err
		}
		f, err := os.OpenFile(cfg.OutputPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return err
		}
		logFile = f
		sink = zapcore.AddSync(f)
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	var enc zapcore.Encoder
	if cfg.Format == "json" {
		enc = zapcore.NewJSONEncoder(encCfg)
	} else {
		encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
		enc = zapcore.NewConsoleEncoder(encCfg)
	}

	logger = zap.New(zapcore.NewCore(enc, sink, level), zap.AddCaller())
	isInited = true
	return nil
}

// Close flushes and detaches the logger. Safe to call more than once.
func Close() error {
	loggerMu.Lock()
	defer loggerMu.Unlock()

	if !isInited {
		return nil
	}
	_ = logger.Sync()

	var err error
	if logFile != nil {
		err = logFile.Close()
		logFile = nil
	}
	logger = zap.NewNop()
	isInited = false
	return err
}

// L returns the current global logger.
func L() *zap.Logger {
	loggerMu.RLock()
	defer loggerMu.RUnlock()
	return logger
}

func Sync() error {
	return L().Sync()
}
