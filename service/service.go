package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"transcription-service/constant"
	"transcription-service/dto"
	"transcription-service/entities"
	"transcription-service/pkg/worker"
	"transcription-service/repository"
)

// ErrTranscriptPending is returned when the transcript of a job that is
// still processing is requested.
var ErrTranscriptPending = errors.New("transcription still in progress")

// ErrTranscriptMissing is returned for a completed job whose transcript
// artifact is gone. Should not occur in normal operation.
var ErrTranscriptMissing = errors.New("transcript file not found")

// TranscriptionError surfaces the stored failure of a failed job.
type TranscriptionError struct {
	Detail string
}

func (e *TranscriptionError) Error() string {
	return fmt.Sprintf("transcription failed: %s", e.Detail)
}

// Fetcher downloads a remote media file into destDir and returns the
// local path.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL, destDir string) (string, error)
}

// Pipeline transcribes a local media file.
type Pipeline interface {
	Run(ctx context.Context, mediaPath, language string) (string, error)
}

// Scheduler accepts background units of work.
type Scheduler interface {
	Submit(task worker.Task) error
}

// Service owns the job state machine: submit moves a record through
// processing into completed or failed, retrieval reads never mutate.
// Only the service writes a record after creation.
type Service interface {
	Submit(ctx context.Context, req dto.SubmitRequest) (*entities.Media, error)
	GetStatus(ctx context.Context, id uuid.UUID) (*entities.Media, error)
	GetTranscript(ctx context.Context, id uuid.UUID) (string, error)
	GetTranscriptJSON(ctx context.Context, id uuid.UUID) (*dto.TranscriptResponse, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type service struct {
	repo     repository.MediaRepository
	fetcher  Fetcher
	pipeline Pipeline
	pool     Scheduler
}

func NewService(repo repository.MediaRepository, fetcher Fetcher, pipeline Pipeline, pool Scheduler) Service {
	return &service{
		repo:     repo,
		fetcher:  fetcher,
		pipeline: pipeline,
		pool:     pool,
	}
}

// Submit creates the job record, downloads the media synchronously and
// schedules background transcription. A failed download leaves the
// record behind in failed state; the error still goes to the caller.
func (s *service) Submit(ctx context.Context, req dto.SubmitRequest) (*entities.Media, error) {
	id := uuid.New()
	media := entities.NewMedia(id, req.Name)

	if err := s.repo.Create(ctx, &media); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Str("media_id", id.String()).Msg("failed to create media record")
		return nil, err
	}

	zerolog.Ctx(ctx).Info().Str("media_id", id.String()).Str("url", req.FileURL).Msg("downloading media")
	mediaPath, err := s.fetcher.Fetch(ctx, req.FileURL, s.repo.MediaDir(id))
	if err != nil {
		s.failJob(ctx, id, fmt.Sprintf("download failed: %v", err))
		return nil, err
	}

	language := req.Language
	if language == "" {
		language = "en"
	}

	if err := s.pool.Submit(func(taskCtx context.Context) {
		s.transcribe(taskCtx, id, mediaPath, language)
	}); err != nil {
		s.failJob(ctx, id, fmt.Sprintf("schedule transcription: %v", err))
		return nil, err
	}

	return &media, nil
}

// transcribe is the background unit of work. Failures never reach an
// in-flight request; they are recorded on the job and observed by
// polling.
func (s *service) transcribe(ctx context.Context, id uuid.UUID, mediaPath, language string) {
	media, err := s.repo.Find(ctx, id)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Str("media_id", id.String()).Msg("failed to load media record")
		return
	}
	if media.Status != constant.JobStatusProcessing {
		zerolog.Ctx(ctx).Info().Str("media_id", id.String()).Str("status", string(media.Status)).Msg("media is not processing, skipping")
		return
	}

	zerolog.Ctx(ctx).Info().Str("media_id", id.String()).Msg("transcribing media")
	transcript, err := s.pipeline.Run(ctx, mediaPath, language)
	if err != nil {
		// The record is the only telemetry channel, keep full detail.
		s.failJob(ctx, id, fmt.Sprintf("%+v", err))
		return
	}

	if err := s.repo.WriteTranscript(ctx, id, transcript); err != nil {
		s.failJob(ctx, id, fmt.Sprintf("persist transcript: %v", err))
		return
	}

	if _, err := s.repo.Update(ctx, id, func(m *entities.Media) {
		m.MarkCompleted(time.Now().UTC())
	}); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Str("media_id", id.String()).Msg("failed to mark media completed")
		return
	}

	zerolog.Ctx(ctx).Info().Str("media_id", id.String()).Msg("transcription completed")
}

func (s *service) failJob(ctx context.Context, id uuid.UUID, detail string) {
	if _, err := s.repo.Update(ctx, id, func(m *entities.Media) {
		m.MarkFailed(time.Now().UTC(), detail)
	}); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Str("media_id", id.String()).Msg("failed to mark media failed")
	}
}

func (s *service) GetStatus(ctx context.Context, id uuid.UUID) (*entities.Media, error) {
	return s.repo.Find(ctx, id)
}

func (s *service) GetTranscript(ctx context.Context, id uuid.UUID) (string, error) {
	media, err := s.repo.Find(ctx, id)
	if err != nil {
		return "", err
	}

	switch media.Status {
	case constant.JobStatusProcessing:
		return "", ErrTranscriptPending
	case constant.JobStatusFailed:
		return "", &TranscriptionError{Detail: media.Error}
	}

	text, err := s.repo.ReadTranscript(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", ErrTranscriptMissing
		}
		return "", err
	}
	return text, nil
}

func (s *service) GetTranscriptJSON(ctx context.Context, id uuid.UUID) (*dto.TranscriptResponse, error) {
	media, err := s.repo.Find(ctx, id)
	if err != nil {
		return nil, err
	}

	switch media.Status {
	case constant.JobStatusProcessing:
		return nil, ErrTranscriptPending
	case constant.JobStatusFailed:
		return nil, &TranscriptionError{Detail: media.Error}
	}

	text, err := s.repo.ReadTranscript(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrTranscriptMissing
		}
		return nil, err
	}

	return &dto.TranscriptResponse{
		ID:          media.ID.String(),
		Status:      media.Status,
		Transcript:  text,
		CreatedAt:   media.CreatedAt,
		CompletedAt: media.CompletedAt,
	}, nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}
