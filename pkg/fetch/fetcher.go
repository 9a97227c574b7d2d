package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
)

// Error reports a failed download. Status is the HTTP status code when
// the remote answered with a non-success response, zero on transport
// failures.
type Error struct {
	Status int
	Err    error
}

func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("failed to download: HTTP %d", e.Status)
	}
	return fmt.Sprintf("failed to download: %v", e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// knownExtensions are media suffixes accepted straight from the URL path.
var knownExtensions = []string{".mp4", ".mov", ".avi", ".mkv", ".wav", ".mp3"}

const mediaFileBase = "input_media"

// Fetcher streams remote media files to local storage.
type Fetcher struct {
	client *http.Client
}

func NewFetcher() *Fetcher {
	return &Fetcher{client: &http.Client{}}
}

// Fetch downloads rawURL into destDir and returns the local path. The
// destination filename embeds the resolved extension, so the path is only
// known once the response headers have been read.
func (f *Fetcher) Fetch(ctx context.Context, rawURL, destDir string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", &Error{Err: err}
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return "", &Error{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", &Error{Status: resp.StatusCode}
	}

	ext := resolveExtension(rawURL, resp.Header.Get("Content-Type"))
	destination := filepath.Join(destDir, mediaFileBase+ext)

	out, err := os.Create(destination)
	if err != nil {
		return "", &Error{Err: err}
	}
	defer out.Close()

	written, err := io.Copy(out, resp.Body)
	if err != nil {
		return "", &Error{Err: err}
	}

	zerolog.Ctx(ctx).Debug().
		Str("url", rawURL).
		Str("destination", destination).
		Int64("bytes", written).
		Msg("media downloaded")

	return destination, nil
}

// resolveExtension picks the media extension, in order of precedence:
// known suffix on the URL path, content-type mapping, default mp4.
func resolveExtension(rawURL, contentType string) string {
	if u, err := url.Parse(rawURL); err == nil {
		urlPath := strings.ToLower(u.Path)
		for _, ext := range knownExtensions {
			if strings.HasSuffix(urlPath, ext) {
				return ext
			}
		}
	}

	switch {
	case strings.Contains(contentType, "video/mp4"):
		return ".mp4"
	case strings.HasPrefix(contentType, "video/"):
		return ".mp4"
	case strings.HasPrefix(contentType, "audio/"):
		return ".wav"
	default:
		return ".mp4"
	}
}
