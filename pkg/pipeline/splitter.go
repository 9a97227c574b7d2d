package pipeline

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// FFmpegSplitter extracts the audio track as mono 16 kHz PCM and slices
// it into fixed-duration wav chunks with ffmpeg's segment muxer. The last
// chunk may be shorter.
type FFmpegSplitter struct {
	ffmpegPath   string
	chunkSeconds int
}

func NewFFmpegSplitter(ffmpegPath string, chunkSeconds int) *FFmpegSplitter {
	if chunkSeconds < 1 {
		chunkSeconds = 30
	}
	return &FFmpegSplitter{
		ffmpegPath:   ffmpegPath,
		chunkSeconds: chunkSeconds,
	}
}

func (s *FFmpegSplitter) Split(ctx context.Context, mediaPath, scratchDir string) ([]string, error) {
	args := buildSegmentArgs(mediaPath, scratchDir, s.chunkSeconds)

	cmd := exec.CommandContext(ctx, s.ffmpegPath, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return nil, fmt.Errorf("ffmpeg execution failed: %w: %s", err, string(output))
	}

	return collectChunks(scratchDir)
}

// collectChunks gathers the segment files back in temporal order. The
// %03d pattern widens past 999, so names are ordered by parsed index,
// not lexicographically.
func collectChunks(scratchDir string) ([]string, error) {
	entries, err := os.ReadDir(scratchDir)
	if err != nil {
		return nil, fmt.Errorf("read scratch directory: %w", err)
	}

	type chunkFile struct {
		index int
		path  string
	}
	var chunks []chunkFile
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		index, ok := chunkIndex(entry.Name())
		if !ok {
			continue
		}
		chunks = append(chunks, chunkFile{index: index, path: filepath.Join(scratchDir, entry.Name())})
	}

	sort.Slice(chunks, func(i, j int) bool {
		return chunks[i].index < chunks[j].index
	})

	paths := make([]string, 0, len(chunks))
	for _, chunk := range chunks {
		paths = append(paths, chunk.path)
	}
	return paths, nil
}

func chunkIndex(name string) (int, bool) {
	if !strings.HasPrefix(name, "chunk_") || !strings.HasSuffix(name, ".wav") {
		return 0, false
	}
	index, err := strconv.Atoi(strings.TrimSuffix(strings.TrimPrefix(name, "chunk_"), ".wav"))
	if err != nil {
		return 0, false
	}
	return index, true
}

func buildSegmentArgs(mediaPath, scratchDir string, chunkSeconds int) []string {
	return []string{
		"-hide_banner",
		"-nostdin",
		"-y",
		"-i", mediaPath,
		"-vn",
		"-ac", "1",
		"-ar", "16000",
		"-c:a", "pcm_s16le",
		"-f", "segment",
		"-segment_time", strconv.Itoa(chunkSeconds),
		filepath.Join(scratchDir, "chunk_%03d.wav"),
	}
}
