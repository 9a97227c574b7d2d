package dto

import (
	"time"

	"transcription-service/constant"
)

type SubmitRequest struct {
	FileURL  string `json:"file_url" binding:"required,url"`
	Language string `json:"language"`
	Name     string `json:"name"`
}

type TranscriptResponse struct {
	ID          string             `json:"id"`
	Status      constant.JobStatus `json:"status"`
	Transcript  string             `json:"transcript"`
	CreatedAt   time.Time          `json:"created_at"`
	CompletedAt *time.Time         `json:"completed_at"`
}
