package model

import (
	"fmt"
	"time"
)

// SessionStatus is the closed set of verification session states.
// Completed and Failed are terminal; no transition leaves them.
type SessionStatus string

const (
	SessionQueued    SessionStatus = "queued"
	SessionRunning   SessionStatus = "running"
	SessionCompleted SessionStatus = "completed"
	SessionFailed    SessionStatus = "failed"
)

// IsTerminal reports whether the status absorbs all further transitions.
func (s SessionStatus) IsTerminal() bool {
	return s == SessionCompleted || s == SessionFailed
}

// SessionSummary carries the classifier's terminal outcome, or the error
// that ended the session. Error is set only on failed sessions.
type SessionSummary struct {
	AcceptCount  int     `json:"accept_count"`
	ReviewCount  int     `json:"review_count"`
	RejectCount  int     `json:"reject_count"`
	AverageScore float64 `json:"average_score"`
	Error        string  `json:"error,omitempty"`
}

// StatusLine renders the human-readable one-line result shown in the UI.
func (s SessionSummary) StatusLine() string {
	return fmt.Sprintf("%d ACCEPT, %d REVIEW, %d REJECT, avg score %.2f",
		s.AcceptCount, s.ReviewCount, s.RejectCount, s.AverageScore)
}

// CleaningSession is the durable record of one avatar-verification batch
// run. Sessions are created by the orchestrator, mutated only by it, and
// never deleted by the engine.
type CleaningSession struct {
	ID          string          `json:"id"`
	OwnerID     string          `json:"owner_id"`
	ListID      string          `json:"list_id"`
	Avatar      AvatarSpec      `json:"avatar"`
	AvatarID    string          `json:"avatar_id"`
	BatchID     string          `json:"batch_id"`
	BatchSize   int             `json:"batch_size"`
	LeadCount   int             `json:"lead_count"`
	Status      SessionStatus   `json:"status"`
	StartedAt   *time.Time      `json:"started_at,omitempty"`
	CompletedAt *time.Time      `json:"completed_at,omitempty"`
	Summary     *SessionSummary `json:"summary,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}
