package entities

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"transcription-service/constant"
)

func TestNewMediaStartsProcessing(t *testing.T) {
	id := uuid.New()
	media := NewMedia(id, "interview")

	assert.Equal(t, id, media.ID)
	assert.Equal(t, constant.JobStatusProcessing, media.Status)
	assert.Equal(t, "interview", media.Name)
	assert.False(t, media.CreatedAt.IsZero())
	assert.Nil(t, media.CompletedAt)
	assert.Empty(t, media.Error)
}

func TestMarkCompletedSetsTerminalFields(t *testing.T) {
	media := NewMedia(uuid.New(), "")
	now := time.Now().UTC()

	media.MarkCompleted(now)

	assert.Equal(t, constant.JobStatusCompleted, media.Status)
	assert.NotNil(t, media.CompletedAt)
	assert.Equal(t, now, *media.CompletedAt)
	assert.Empty(t, media.Error)
}

func TestMarkFailedSetsErrorDetail(t *testing.T) {
	media := NewMedia(uuid.New(), "")
	now := time.Now().UTC()

	media.MarkFailed(now, "download failed: HTTP 404")

	assert.Equal(t, constant.JobStatusFailed, media.Status)
	assert.Equal(t, "download failed: HTTP 404", media.Error)
	assert.NotNil(t, media.CompletedAt)
}

func TestTerminalStateNeverReverts(t *testing.T) {
	media := NewMedia(uuid.New(), "")
	failedAt := time.Now().UTC()
	media.MarkFailed(failedAt, "boom")

	media.MarkCompleted(time.Now().UTC().Add(time.Minute))

	assert.Equal(t, constant.JobStatusFailed, media.Status)
	assert.Equal(t, "boom", media.Error)
	assert.Equal(t, failedAt, *media.CompletedAt)
}
