package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// UnintelligiblePlaceholder replaces the text of a chunk the recognizer
// could not make out. A single bad chunk never aborts the run.
const UnintelligiblePlaceholder = "[unintelligible]"

// ErrUnintelligible is returned by a Recognizer when the audio carried no
// recognizable speech.
var ErrUnintelligible = errors.New("unintelligible audio")

// Splitter decomposes a media file into ordered audio chunks inside the
// given scratch directory.
type Splitter interface {
	Split(ctx context.Context, mediaPath, scratchDir string) ([]string, error)
}

// Recognizer converts one audio chunk to text.
type Recognizer interface {
	Recognize(ctx context.Context, chunkPath, language string) (string, error)
}

// Pipeline turns a local media file into a transcript: split into
// fixed-duration chunks, recognize chunks in parallel across a bounded
// worker set, join the results in original chunk order.
type Pipeline struct {
	splitter   Splitter
	recognizer Recognizer
	numWorkers int
}

func New(splitter Splitter, recognizer Recognizer, numWorkers int) *Pipeline {
	if numWorkers < 1 {
		numWorkers = 1
	}
	return &Pipeline{
		splitter:   splitter,
		recognizer: recognizer,
		numWorkers: numWorkers,
	}
}

// Run transcribes mediaPath. Scratch files live in a fresh temporary
// directory per invocation and are removed on every exit path, so
// concurrent runs never touch each other's intermediates.
func (p *Pipeline) Run(ctx context.Context, mediaPath, language string) (string, error) {
	scratchDir, err := os.MkdirTemp("", "transcribe-*")
	if err != nil {
		return "", fmt.Errorf("create scratch workspace: %w", err)
	}
	defer os.RemoveAll(scratchDir)

	chunks, err := p.splitter.Split(ctx, mediaPath, scratchDir)
	if err != nil {
		return "", fmt.Errorf("split audio: %w", err)
	}

	zerolog.Ctx(ctx).Info().Int("chunks", len(chunks)).Msg("recognizing audio chunks")

	type chunkTask struct {
		index int
		path  string
	}

	results := make([]string, len(chunks))
	tasks := make(chan chunkTask)
	var wg sync.WaitGroup
	for i := 0; i < p.numWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for task := range tasks {
				results[task.index] = p.recognizeChunk(ctx, task.path, language)
			}
		}()
	}

	for i, chunk := range chunks {
		tasks <- chunkTask{index: i, path: chunk}
	}
	close(tasks)
	wg.Wait()

	return strings.TrimSpace(strings.Join(results, " ")), nil
}

func (p *Pipeline) recognizeChunk(ctx context.Context, chunkPath, language string) string {
	text, err := p.recognizer.Recognize(ctx, chunkPath, language)
	switch {
	case errors.Is(err, ErrUnintelligible):
		return UnintelligiblePlaceholder
	case err != nil:
		zerolog.Ctx(ctx).Error().Err(err).Str("chunk", chunkPath).Msg("chunk recognition failed")
		return fmt.Sprintf("recognition error: %v", err)
	default:
		return text
	}
}
