package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSplitter struct {
	numChunks  int
	err        error
	scratchDir string
}

func (s *fakeSplitter) Split(ctx context.Context, mediaPath, scratchDir string) ([]string, error) {
	s.scratchDir = scratchDir
	if s.err != nil {
		return nil, s.err
	}
	chunks := make([]string, 0, s.numChunks)
	for i := 0; i < s.numChunks; i++ {
		chunks = append(chunks, filepath.Join(scratchDir, fmt.Sprintf("chunk_%03d.wav", i)))
	}
	return chunks, nil
}

type fakeRecognizer struct {
	texts  map[string]string
	errs   map[string]error
	delays map[string]time.Duration
}

func (r *fakeRecognizer) Recognize(ctx context.Context, chunkPath, language string) (string, error) {
	name := filepath.Base(chunkPath)
	if d, ok := r.delays[name]; ok {
		time.Sleep(d)
	}
	if err, ok := r.errs[name]; ok {
		return "", err
	}
	return r.texts[name], nil
}

func TestRunJoinsChunksInTemporalOrder(t *testing.T) {
	splitter := &fakeSplitter{numChunks: 3}
	recognizer := &fakeRecognizer{
		texts: map[string]string{
			"chunk_000.wav": "first part",
			"chunk_001.wav": "second part",
			"chunk_002.wav": "third",
		},
		// First chunk finishes last; output order must not change.
		delays: map[string]time.Duration{
			"chunk_000.wav": 30 * time.Millisecond,
		},
	}

	got, err := New(splitter, recognizer, 3).Run(context.Background(), "in.mp4", "en")
	require.NoError(t, err)
	assert.Equal(t, "first part second part third", got)
}

func TestRunUnintelligibleChunkUsesPlaceholder(t *testing.T) {
	splitter := &fakeSplitter{numChunks: 3}
	recognizer := &fakeRecognizer{
		texts: map[string]string{
			"chunk_000.wav": "hello",
			"chunk_002.wav": "goodbye",
		},
		errs: map[string]error{
			"chunk_001.wav": ErrUnintelligible,
		},
	}

	got, err := New(splitter, recognizer, 2).Run(context.Background(), "in.mp4", "en")
	require.NoError(t, err)
	assert.Equal(t, "hello [unintelligible] goodbye", got)
}

func TestRunRecognizerErrorEmbeddedInline(t *testing.T) {
	splitter := &fakeSplitter{numChunks: 2}
	recognizer := &fakeRecognizer{
		texts: map[string]string{
			"chunk_001.wav": "still here",
		},
		errs: map[string]error{
			"chunk_000.wav": errors.New("service unavailable"),
		},
	}

	got, err := New(splitter, recognizer, 2).Run(context.Background(), "in.mp4", "en")
	require.NoError(t, err)
	assert.Equal(t, "recognition error: service unavailable still here", got)
}

func TestRunTrimsOuterWhitespace(t *testing.T) {
	splitter := &fakeSplitter{numChunks: 2}
	recognizer := &fakeRecognizer{
		texts: map[string]string{
			"chunk_000.wav": "",
			"chunk_001.wav": "only the tail spoke",
		},
	}

	got, err := New(splitter, recognizer, 1).Run(context.Background(), "in.mp4", "en")
	require.NoError(t, err)
	assert.Equal(t, "only the tail spoke", got)
}

func TestRunEmptyChunkListYieldsEmptyTranscript(t *testing.T) {
	splitter := &fakeSplitter{numChunks: 0}

	got, err := New(splitter, &fakeRecognizer{}, 2).Run(context.Background(), "in.mp4", "en")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestRunSplitterFailureAborts(t *testing.T) {
	splitter := &fakeSplitter{err: errors.New("no audio track")}

	_, err := New(splitter, &fakeRecognizer{}, 2).Run(context.Background(), "in.mp4", "en")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no audio track")
}

func TestRunCleansScratchOnSuccess(t *testing.T) {
	splitter := &fakeSplitter{numChunks: 1}
	recognizer := &fakeRecognizer{texts: map[string]string{"chunk_000.wav": "hi"}}

	_, err := New(splitter, recognizer, 1).Run(context.Background(), "in.mp4", "en")
	require.NoError(t, err)

	require.NotEmpty(t, splitter.scratchDir)
	_, err = os.Stat(splitter.scratchDir)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestRunCleansScratchOnFailure(t *testing.T) {
	splitter := &fakeSplitter{err: errors.New("boom")}

	_, err := New(splitter, &fakeRecognizer{}, 1).Run(context.Background(), "in.mp4", "en")
	require.Error(t, err)

	require.NotEmpty(t, splitter.scratchDir)
	_, err = os.Stat(splitter.scratchDir)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestRunScratchDirsAreDistinctPerInvocation(t *testing.T) {
	first := &fakeSplitter{numChunks: 0}
	second := &fakeSplitter{numChunks: 0}
	recognizer := &fakeRecognizer{}

	_, err := New(first, recognizer, 1).Run(context.Background(), "a.mp4", "en")
	require.NoError(t, err)
	_, err = New(second, recognizer, 1).Run(context.Background(), "b.mp4", "en")
	require.NoError(t, err)

	assert.NotEqual(t, first.scratchDir, second.scratchDir)
}

func TestCollectChunksOrdersByIndexPastThreeDigits(t *testing.T) {
	scratchDir := t.TempDir()
	names := []string{"chunk_1000.wav", "chunk_000.wav", "chunk_999.wav", "chunk_1001.wav", "chunk_001.wav"}
	for _, name := range names {
		require.NoError(t, os.WriteFile(filepath.Join(scratchDir, name), nil, 0o644))
	}
	// Unrelated files in the workspace are skipped.
	require.NoError(t, os.WriteFile(filepath.Join(scratchDir, "audio.log"), nil, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(scratchDir, "chunk_x.wav"), nil, 0o644))

	got, err := collectChunks(scratchDir)
	require.NoError(t, err)

	want := []string{
		filepath.Join(scratchDir, "chunk_000.wav"),
		filepath.Join(scratchDir, "chunk_001.wav"),
		filepath.Join(scratchDir, "chunk_999.wav"),
		filepath.Join(scratchDir, "chunk_1000.wav"),
		filepath.Join(scratchDir, "chunk_1001.wav"),
	}
	assert.Equal(t, want, got)
}

func TestBuildSegmentArgs(t *testing.T) {
	args := buildSegmentArgs("/data/input_media.mp4", "/tmp/scratch", 30)

	assert.Contains(t, args, "-vn")
	assert.Contains(t, args, "segment")
	assert.Contains(t, args, "30")
	assert.Equal(t, filepath.Join("/tmp/scratch", "chunk_%03d.wav"), args[len(args)-1])
}

func TestBuildWhisperArgs(t *testing.T) {
	args := buildWhisperArgs("/models/base.bin", "/scratch/chunk_000.wav", "/scratch/chunk_000", "en")
	assert.Equal(t, []string{"-m", "/models/base.bin", "-f", "/scratch/chunk_000.wav", "-of", "/scratch/chunk_000", "-otxt", "-l", "en"}, args)

	args = buildWhisperArgs("/models/base.bin", "c.wav", "c", "auto")
	assert.NotContains(t, args, "-l")
}
