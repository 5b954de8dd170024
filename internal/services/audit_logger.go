package services

import (
	"context"
	"log/slog"

	"github.com/you/taskconsole/domain"
)

// SlogAuditLogger writes audit events as structured log records
type SlogAuditLogger struct {
	logger *slog.Logger
}

// NewSlogAuditLogger creates an audit logger on top of logger (slog.Default when nil)
func NewSlogAuditLogger(logger *slog.Logger) *SlogAuditLogger {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogAuditLogger{logger: logger.With("module", "audit")}
}

// LogEvent implements domain.AuditLogger
func (l *SlogAuditLogger) LogEvent(ctx context.Context, event *domain.AuditEvent) {
	if event == nil {
		return
	}
	attrs := []any{
		"event_type", string(event.EventType),
		"success", event.Success,
		"timestamp", event.Timestamp,
	}
	if event.UserID != "" {
		attrs = append(attrs, "user_id", event.UserID)
	}
	if event.Email != "" {
		attrs = append(attrs, "email", event.Email)
	}
	if event.SlotID != "" {
		attrs = append(attrs, "slot_id", event.SlotID)
	}
	if event.ErrorMsg != "" {
		attrs = append(attrs, "error", event.ErrorMsg)
	}
	if len(event.Metadata) > 0 {
		attrs = append(attrs, "metadata", event.Metadata)
	}

	level := slog.LevelInfo
	if !event.Success {
		level = slog.LevelWarn
	}
	l.logger.Log(ctx, level, "audit", attrs...)
}
