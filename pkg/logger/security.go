package logger

import (
	"context"
	"log/slog"
	"time"
)

// SecurityEvent is one security-relevant action taken or observed by the
// anomaly engine.
type SecurityEvent struct {
	EventType string // e.g. "anomaly_detected", "account_locked", "ip_blocked"
	IPAddress string
	Identity  string
	Reason    string
	Metadata  map[string]string
}

// SecurityLogger emits structured security events on a channel separate from
// operational logging, so lock/block actions and partial failures are
// auditable independently of the detection results returned to callers.
type SecurityLogger struct {
	logger *slog.Logger
}

// NewSecurityLogger creates a new security logger.
func NewSecurityLogger(logger *slog.Logger) *SecurityLogger {
	return &SecurityLogger{logger: logger}
}

// LogEvent records a security event at warn level; anomalies and lockouts are
// always notable.
func (sl *SecurityLogger) LogEvent(event SecurityEvent) {
	attrs := []slog.Attr{
		slog.String("audit_type", "security"),
		slog.String("event_type", event.EventType),
		slog.String("timestamp", time.Now().UTC().Format(time.RFC3339)),
	}

	if event.IPAddress != "" {
		attrs = append(attrs, slog.String("ip_address", event.IPAddress))
	}
	if event.Identity != "" {
		attrs = append(attrs, slog.String("identity", event.Identity))
	}
	if event.Reason != "" {
		attrs = append(attrs, slog.String("reason", event.Reason))
	}
	for key, val := range event.Metadata {
		attrs = append(attrs, slog.String(key, val))
	}

	sl.logger.LogAttrs(context.Background(), slog.LevelWarn, "security event", attrs...)
}

// LogPartialFailure records a detection that succeeded while the follow-up
// action (lock persistence) failed.
func (sl *SecurityLogger) LogPartialFailure(event SecurityEvent, err error) {
	attrs := []slog.Attr{
		slog.String("audit_type", "security"),
		slog.String("event_type", event.EventType),
		slog.String("timestamp", time.Now().UTC().Format(time.RFC3339)),
		slog.Any("error", err),
	}

	if event.IPAddress != "" {
		attrs = append(attrs, slog.String("ip_address", event.IPAddress))
	}
	if event.Identity != "" {
		attrs = append(attrs, slog.String("identity", event.Identity))
	}

	sl.logger.LogAttrs(context.Background(), slog.LevelError, "security action failed", attrs...)
}
