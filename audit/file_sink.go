package audit

import (
	"context"
	"encoding/json"
	"io"
	"sync"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-membership"
	"gopkg.in/natefinch/lumberjack.v2"
)

// FileConfig controls the rotating audit file
type FileConfig struct {
	Filename   string `json:"filename" yaml:"filename"`
	MaxSizeMB  int    `json:"max_size_mb" yaml:"max_size_mb"`
	MaxBackups int    `json:"max_backups" yaml:"max_backups"`
	MaxAgeDays int    `json:"max_age_days" yaml:"max_age_days"`
	Compress   bool   `json:"compress" yaml:"compress"`
}

// FileSink appends one JSON document per audit entry
type FileSink struct {
	mu  sync.Mutex
	out io.Writer
}

var _ membership.AuditSink = (*FileSink)(nil)

// NewFileSink writes entries to a size rotated file
func NewFileSink(cfg FileConfig) (*FileSink, error) {
	if cfg.Filename == "" {
		return nil, errors.New("audit filename is required", errors.CategoryValidation).
			WithCode(errors.CodeBadRequest)
	}

	if cfg.MaxSizeMB <= 0 {
		cfg.MaxSizeMB = 50
	}

	return NewWriterSink(&lumberjack.Logger{
		Filename:   cfg.Filename,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
		Compress:   cfg.Compress,
	}), nil
}

// NewWriterSink writes entries to w
func NewWriterSink(w io.Writer) *FileSink {
	return &FileSink{out: w}
}

func (s *FileSink) WriteLog(ctx context.Context, entry membership.AuditEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "failed to marshal audit entry")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.out.Write(append(data, '\n')); err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "failed to write audit entry")
	}
	return nil
}

// Close closes the underlying writer when it is closable
func (s *FileSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c, ok := s.out.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
