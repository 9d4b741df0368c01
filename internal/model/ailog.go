package model

import "time"

// AILogType classifies an AI categorization observation.
type AILogType string

// AI log types.
const (
	AILogInfo    AILogType = "info"
	AILogSuccess AILogType = "success"
	AILogError   AILogType = "error"
	AILogDebug   AILogType = "debug"
)

// AICategorizationLog is a debugging observation recorded while the AI
// categorizer runs. It never influences categorization results.
type AICategorizationLog struct {
	Timestamp time.Time      `json:"timestamp"`
	Details   map[string]any `json:"details,omitempty"`
	Type      AILogType      `json:"type"`
	Message   string         `json:"message"`
}
