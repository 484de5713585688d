// Package logger provides module-scoped, context-aware zap loggers.
//
// Design philosophy:
// - One Manager per process, handing out per-module CtxZapLogger instances
// - Module name bound at creation time, callers only pass ctx
// - File output rotated via lumberjack, optional stdout tee
package logger

import (
	"context"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger context-aware logging interface
// Satisfied by CtxZapLogger and the in-memory TestLogger
type Logger interface {
	DebugCtx(ctx context.Context, msg string, fields ...zap.Field)
	InfoCtx(ctx context.Context, msg string, fields ...zap.Field)
	WarnCtx(ctx context.Context, msg string, fields ...zap.Field)
	ErrorCtx(ctx context.Context, msg string, fields ...zap.Field)
}

// Manager logger manager (manages multiple module loggers)
type Manager struct {
	config  Config
	loggers map[string]*CtxZapLogger
	writers []*lumberjack.Logger
	mu      sync.RWMutex
}

// NewManager creates a logger manager
// Zero-value fields in cfg are filled with defaults
func NewManager(cfg Config) *Manager {
	cfg.ApplyDefaults()
	return &Manager{
		config:  cfg,
		loggers: make(map[string]*CtxZapLogger),
	}
}

// GetLogger returns the logger for a module (created on first use)
func (m *Manager) GetLogger(module string) *CtxZapLogger {
	m.mu.RLock()
	if l, ok := m.loggers[module]; ok {
		m.mu.RUnlock()
		return l
	}
	m.mu.RUnlock()

	m.mu.Lock()
	defer m.mu.Unlock()
	if l, ok := m.loggers[module]; ok {
		return l
	}

	base := m.buildZapLogger(module)
	l := &CtxZapLogger{base: base, module: module, appName: m.config.AppName}
	m.loggers[module] = l
	return l
}

// Close flushes and closes all file writers
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, l := range m.loggers {
		_ = l.base.Sync()
	}
	for _, w := range m.writers {
		_ = w.Close()
	}
	m.writers = nil
	return nil
}

// buildZapLogger assembles the zap core for a module
func (m *Manager) buildZapLogger(module string) *zap.Logger {
	level := parseLevel(m.config.Level)

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "ts"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	var encoder zapcore.Encoder
	if m.config.Format == "console" {
		encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
		encoder = zapcore.NewConsoleEncoder(encCfg)
	} else {
		encoder = zapcore.NewJSONEncoder(encCfg)
	}

	var syncers []zapcore.WriteSyncer
	if m.config.OutputDir != "" {
		w := &lumberjack.Logger{
			Filename:   filepath.Join(m.config.OutputDir, module+".log"),
			MaxSize:    m.config.MaxSizeMB,
			MaxBackups: m.config.MaxBackups,
			MaxAge:     m.config.MaxAgeDays,
			Compress:   m.config.Compress,
		}
		m.writers = append(m.writers, w)
		syncers = append(syncers, zapcore.AddSync(w))
	}
	if m.config.Stdout || len(syncers) == 0 {
		syncers = append(syncers, zapcore.AddSync(os.Stdout))
	}

	core := zapcore.NewCore(encoder, zapcore.NewMultiWriteSyncer(syncers...), level)
	return zap.New(core).With(zap.String("module", module))
}

func parseLevel(s string) zapcore.Level {
	switch s {
	case "debug":
		return zapcore.DebugLevel
	case "warn":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// CtxZapLogger context-aware zap logger wrapper bound to one module
type CtxZapLogger struct {
	base    *zap.Logger
	module  string
	appName string
}

// NewNop returns a logger that discards everything (for tests and defaults)
func NewNop() *CtxZapLogger {
	return &CtxZapLogger{base: zap.NewNop()}
}

// DebugCtx logs at Debug level
func (l *CtxZapLogger) DebugCtx(ctx context.Context, msg string, fields ...zap.Field) {
	l.base.Debug(msg, l.enrich(fields)...)
}

// InfoCtx logs at Info level
func (l *CtxZapLogger) InfoCtx(ctx context.Context, msg string, fields ...zap.Field) {
	l.base.Info(msg, l.enrich(fields)...)
}

// WarnCtx logs at Warn level
func (l *CtxZapLogger) WarnCtx(ctx context.Context, msg string, fields ...zap.Field) {
	l.base.Warn(msg, l.enrich(fields)...)
}

// ErrorCtx logs at Error level
func (l *CtxZapLogger) ErrorCtx(ctx context.Context, msg string, fields ...zap.Field) {
	l.base.Error(msg, l.enrich(fields)...)
}

// Debug convenience method without context
func (l *CtxZapLogger) Debug(msg string, fields ...zap.Field) {
	l.DebugCtx(context.Background(), msg, fields...)
}

// Info convenience method without context
func (l *CtxZapLogger) Info(msg string, fields ...zap.Field) {
	l.InfoCtx(context.Background(), msg, fields...)
}

// Warn convenience method without context
func (l *CtxZapLogger) Warn(msg string, fields ...zap.Field) {
	l.WarnCtx(context.Background(), msg, fields...)
}

// Error convenience method without context
func (l *CtxZapLogger) Error(msg string, fields ...zap.Field) {
	l.ErrorCtx(context.Background(), msg, fields...)
}

// With returns a child logger with preset fields
func (l *CtxZapLogger) With(fields ...zap.Field) *CtxZapLogger {
	return &CtxZapLogger{
		base:    l.base.With(fields...),
		module:  l.module,
		appName: l.appName,
	}
}

// GetZapLogger exposes the underlying *zap.Logger for third-party integration
func (l *CtxZapLogger) GetZapLogger() *zap.Logger {
	return l.base
}

func (l *CtxZapLogger) enrich(fields []zap.Field) []zap.Field {
	if l.appName == "" {
		return fields
	}
	enriched := make([]zap.Field, 0, len(fields)+1)
	enriched = append(enriched, zap.String("app_name", l.appName))
	return append(enriched, fields...)
}
