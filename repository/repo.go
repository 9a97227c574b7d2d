package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"transcription-service/entities"
)

// ErrNotFound is returned when no record exists for a job id.
var ErrNotFound = errors.New("media not found")

const (
	statusFileName     = "status.json"
	transcriptFileName = "transcript.txt"
)

// MediaRepository is the file-backed status store: one directory per job
// id holding the status record and the job's artifacts. Update is the
// only mutation primitive after Create; it serializes read-modify-write
// per job id.
type MediaRepository interface {
	Create(ctx context.Context, media *entities.Media) error
	Find(ctx context.Context, id uuid.UUID) (*entities.Media, error)
	Update(ctx context.Context, id uuid.UUID, mutate func(*entities.Media)) (*entities.Media, error)
	Delete(ctx context.Context, id uuid.UUID) error
	MediaDir(id uuid.UUID) string
	WriteTranscript(ctx context.Context, id uuid.UUID, text string) error
	ReadTranscript(ctx context.Context, id uuid.UUID) (string, error)
}

// lockStripes bounds lock memory regardless of how many jobs exist.
const lockStripes = 64

type repo struct {
	root  string
	locks [lockStripes]sync.Mutex
}

func NewRepo(root string) (MediaRepository, error) {
	if err := os.MkdirAll(root, os.ModePerm); err != nil {
		return nil, fmt.Errorf("create storage root: %w", err)
	}
	return &repo{root: root}, nil
}

func (r *repo) MediaDir(id uuid.UUID) string {
	return filepath.Join(r.root, id.String())
}

func (r *repo) statusPath(id uuid.UUID) string {
	return filepath.Join(r.MediaDir(id), statusFileName)
}

func (r *repo) transcriptPath(id uuid.UUID) string {
	return filepath.Join(r.MediaDir(id), transcriptFileName)
}

// lockFor maps a job id onto its lock stripe. Ids are uniformly random,
// so any byte picks a stripe evenly.
func (r *repo) lockFor(id uuid.UUID) *sync.Mutex {
	return &r.locks[int(id[0])%lockStripes]
}

func (r *repo) Create(ctx context.Context, media *entities.Media) error {
	if err := os.MkdirAll(r.MediaDir(media.ID), os.ModePerm); err != nil {
		return fmt.Errorf("create media directory: %w", err)
	}
	return r.writeStatus(media)
}

func (r *repo) Find(ctx context.Context, id uuid.UUID) (*entities.Media, error) {
	return r.readStatus(id)
}

func (r *repo) Update(ctx context.Context, id uuid.UUID, mutate func(*entities.Media)) (*entities.Media, error) {
	lock := r.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	media, err := r.readStatus(id)
	if err != nil {
		return nil, err
	}
	mutate(media)
	if err := r.writeStatus(media); err != nil {
		return nil, err
	}
	return media, nil
}

func (r *repo) Delete(ctx context.Context, id uuid.UUID) error {
	lock := r.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	dir := r.MediaDir(id)
	if _, err := os.Stat(dir); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return ErrNotFound
		}
		return fmt.Errorf("stat media directory: %w", err)
	}

	// The whole directory goes at once: record, input media and
	// transcript are never observable half-deleted.
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("remove media directory: %w", err)
	}
	return nil
}

func (r *repo) WriteTranscript(ctx context.Context, id uuid.UUID, text string) error {
	if err := os.WriteFile(r.transcriptPath(id), []byte(text), 0o644); err != nil {
		return fmt.Errorf("write transcript: %w", err)
	}
	return nil
}

func (r *repo) ReadTranscript(ctx context.Context, id uuid.UUID) (string, error) {
	data, err := os.ReadFile(r.transcriptPath(id))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("read transcript: %w", err)
	}
	return string(data), nil
}

func (r *repo) readStatus(id uuid.UUID) (*entities.Media, error) {
	data, err := os.ReadFile(r.statusPath(id))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("read status: %w", err)
	}

	media := &entities.Media{}
	if err := json.Unmarshal(data, media); err != nil {
		return nil, fmt.Errorf("decode status: %w", err)
	}
	return media, nil
}

func (r *repo) writeStatus(media *entities.Media) error {
	data, err := json.MarshalIndent(media, "", "  ")
	if err != nil {
		return fmt.Errorf("encode status: %w", err)
	}
	if err := os.WriteFile(r.statusPath(media.ID), data, 0o644); err != nil {
		return fmt.Errorf("write status: %w", err)
	}
	return nil
}
