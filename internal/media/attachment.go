// package media uploads audio attachments for catalog songs.
package media

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/tunebox/internal/services"
	"github.com/desertthunder/tunebox/internal/shared"
)

// Uploader stores audio files in blob storage and hands back the public
// reference string the song record carries. The reference is opaque to the
// rest of the system: the song store saves and displays it, never parses it.
type Uploader struct {
	blobs  services.BlobStore
	logger *log.Logger
	now    func() time.Time
}

// NewUploader creates an uploader backed by the given blob store.
func NewUploader(blobs services.BlobStore, logger *log.Logger) *Uploader {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Uploader{blobs: blobs, logger: logger, now: time.Now}
}

// UploadAudio validates the declared media type, uploads the file under a
// collision-resistant timestamped path and returns its public URL.
//
// A failed upload returns no reference: callers must treat that as a hard
// stop and never save a song pointing at a missing asset.
func (u *Uploader) UploadAudio(ctx context.Context, filename, contentType string, body io.Reader) (string, error) {
	if !strings.HasPrefix(contentType, "audio/") {
		return "", fmt.Errorf("%w: %q is not an audio type", shared.ErrUnsupportedMedia, contentType)
	}

	path := fmt.Sprintf("audio/%d_%s", u.now().UnixMilli(), shared.SanitizeFilename(filename))

	if err := u.blobs.Upload(ctx, path, contentType, body); err != nil {
		u.logger.Error("audio upload failed", "path", path, "error", err)
		return "", fmt.Errorf("upload audio: %w", err)
	}

	url := u.blobs.PublicURL(path)
	u.logger.Info("audio uploaded", "path", path)
	return url, nil
}
