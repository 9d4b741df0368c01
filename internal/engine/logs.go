package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/Veraticus/sift/internal/common"
	"github.com/Veraticus/sift/internal/model"
)

// LogRecorder collects AI categorization observations and mirrors each one
// to slog at the matching level.
type LogRecorder struct {
	logger  *slog.Logger
	now     func() time.Time
	entries []model.AICategorizationLog
}

// NewLogRecorder creates an empty recorder.
func NewLogRecorder(logger *slog.Logger) *LogRecorder {
	return &LogRecorder{logger: common.LoggerOrDefault(logger), now: time.Now}
}

// Record appends an entry.
func (r *LogRecorder) Record(ctx context.Context, typ model.AILogType, message string, details map[string]any) {
	r.entries = append(r.entries, model.AICategorizationLog{
		Timestamp: r.now(),
		Type:      typ,
		Message:   message,
		Details:   details,
	})

	level := slog.LevelInfo
	switch typ {
	case model.AILogError:
		level = slog.LevelWarn
	case model.AILogDebug:
		level = slog.LevelDebug
	}

	attrs := make([]slog.Attr, 0, len(details))
	for k, v := range details {
		attrs = append(attrs, slog.Any(k, v))
	}
	r.logger.LogAttrs(ctx, level, message, attrs...)
}

// Entries returns the recorded entries in order.
func (r *LogRecorder) Entries() []model.AICategorizationLog {
	return r.entries
}
