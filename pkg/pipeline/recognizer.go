package pipeline

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// WhisperRecognizer runs whisper.cpp against a single audio chunk and
// reads back the exported txt transcript. An empty transcript maps to
// ErrUnintelligible.
type WhisperRecognizer struct {
	binPath   string
	modelPath string
}

func NewWhisperRecognizer(binPath, modelPath string) *WhisperRecognizer {
	return &WhisperRecognizer{
		binPath:   binPath,
		modelPath: modelPath,
	}
}

func (r *WhisperRecognizer) Recognize(ctx context.Context, chunkPath, language string) (string, error) {
	textBase := strings.TrimSuffix(chunkPath, ".wav")
	args := buildWhisperArgs(r.modelPath, chunkPath, textBase, language)

	cmd := exec.CommandContext(ctx, r.binPath, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("whisper execution failed: %w: %s", err, string(output))
	}

	content, err := os.ReadFile(textBase + ".txt")
	if err != nil {
		return "", fmt.Errorf("read chunk transcript: %w", err)
	}

	text := strings.TrimSpace(string(content))
	if text == "" {
		return "", ErrUnintelligible
	}
	return text, nil
}

func buildWhisperArgs(modelPath, audioPath, textBase, language string) []string {
	args := []string{
		"-m", modelPath,
		"-f", audioPath,
		"-of", textBase,
		"-otxt",
	}
	if lang := normalizeLanguage(language); lang != "" {
		args = append(args, "-l", lang)
	}
	return args
}

// normalizeLanguage maps "auto" and empty language to no CLI override.
func normalizeLanguage(raw string) string {
	lang := strings.TrimSpace(raw)
	if lang == "" || strings.EqualFold(lang, "auto") {
		return ""
	}
	return lang
}
