package entities

import (
	"time"

	"github.com/google/uuid"
	"transcription-service/constant"
)

// Media is the status record for one transcription job. The record is
// mutated only by the orchestrator after creation; readers get snapshots.
type Media struct {
	ID          uuid.UUID          `json:"id"`
	Status      constant.JobStatus `json:"status"`
	Name        string             `json:"name,omitempty"`
	CreatedAt   time.Time          `json:"created_at"`
	CompletedAt *time.Time         `json:"completed_at"`
	Error       string             `json:"error,omitempty"`
}

func NewMedia(id uuid.UUID, name string) Media {
	return Media{
		ID:        id,
		Status:    constant.JobStatusProcessing,
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}
}

// MarkCompleted moves the record to its completed terminal state. Once a
// record is terminal the call is a no-op, so transitions stay monotonic.
func (m *Media) MarkCompleted(now time.Time) {
	if m.Status.Terminal() {
		return
	}
	m.Status = constant.JobStatusCompleted
	m.CompletedAt = &now
}

// MarkFailed moves the record to its failed terminal state with a
// human-readable failure detail. No-op once terminal.
func (m *Media) MarkFailed(now time.Time, detail string) {
	if m.Status.Terminal() {
		return
	}
	m.Status = constant.JobStatusFailed
	m.Error = detail
	m.CompletedAt = &now
}
