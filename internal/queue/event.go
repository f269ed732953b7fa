// Package queue defines message payloads exchanged over the message broker.
package queue

// AnalysisCompletedEvent is published after every dispatch to an external
// diagnostic service, successful or not.  It carries enough for downstream
// consumers to build an audit trail or usage analytics without querying the
// primary database.
type AnalysisCompletedEvent struct {
	RequestID   string `json:"request_id"`
	Target      string `json:"target"`
	UserID      string `json:"user_id,omitempty"`
	Status      string `json:"status"` // "ok" or the failure kind
	HTTPStatus  int    `json:"http_status,omitempty"`
	DurationMS  int64  `json:"duration_ms"`
	CompletedAt string `json:"completed_at"`
}
