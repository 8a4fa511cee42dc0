// Package zaplog adapts a zap logger to membership.Logger.
package zaplog

import (
	"github.com/goliatone/go-membership"
	"go.uber.org/zap"
)

// Logger writes membership logs through zap
type Logger struct {
	sugar *zap.SugaredLogger
}

var _ membership.Logger = (*Logger)(nil)

// New wraps logger. A nil logger is replaced with zap.NewNop.
func New(logger *zap.Logger) *Logger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Logger{sugar: logger.Named("membership").Sugar()}
}

// NewProduction builds a JSON production logger
func NewProduction() (*Logger, error) {
	logger, err := zap.NewProduction()
	if err != nil {
		return nil, err
	}
	return New(logger), nil
}

func (l *Logger) Debug(msg string, args ...any) {
	l.sugar.Debugw(msg, args...)
}

func (l *Logger) Info(msg string, args ...any) {
	l.sugar.Infow(msg, args...)
}

func (l *Logger) Warn(msg string, args ...any) {
	l.sugar.Warnw(msg, args...)
}

func (l *Logger) Error(msg string, args ...any) {
	l.sugar.Errorw(msg, args...)
}

// Sync flushes buffered entries
func (l *Logger) Sync() error {
	return l.sugar.Sync()
}
