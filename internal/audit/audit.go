// Package audit records one entry per recipe generation attempt for operators.
// Entries carry outcome metadata and, for failures, the offending model output.
// Generated recipes themselves are never stored.
package audit

import (
	"context"
	"time"
)

// OutcomeOK marks a generation that produced a valid recipe.
const OutcomeOK = "ok"

// Entry is a single generation attempt
type Entry struct {
	ID          string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	RequestID   string    `gorm:"size:128;index" json:"request_id"`
	Provider    string    `gorm:"size:32" json:"provider"`
	Model       string    `gorm:"size:128" json:"model"`
	Goal        string    `gorm:"type:text" json:"goal"`
	Ingredients string    `gorm:"type:text" json:"ingredients"`
	Outcome     string    `gorm:"size:32;index" json:"outcome"`
	Error       string    `gorm:"type:text" json:"error,omitempty"`
	Fields      string    `gorm:"size:255" json:"fields,omitempty"`
	DurationMS  int64     `json:"duration_ms"`
	RawResponse string    `gorm:"type:text" json:"raw_response,omitempty"`
	CreatedAt   time.Time `gorm:"index" json:"created_at"`
}

// TableName pins the table name independent of the struct name
func (Entry) TableName() string {
	return "generation_audits"
}

// Failed reports whether the attempt ended in an error
func (e *Entry) Failed() bool {
	return e.Outcome != OutcomeOK
}

// Sink stores audit entries. Implementations must be safe for concurrent use.
type Sink interface {
	Append(ctx context.Context, entry *Entry) error
}
