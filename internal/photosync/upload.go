package photosync

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync/atomic"

	"go.uber.org/zap"

	"photodeck/internal/api"
)

// ErrUploadInFlight is returned when an upload overlaps a pending one.
// Uploads are serialized, never queued.
var ErrUploadInFlight = errors.New("an upload is already in progress")

// Uploader submits photos to the backend and refreshes the collection on
// success.
type Uploader struct {
	client     *api.Client
	collection *Collection
	logger     *zap.Logger
	uploading  atomic.Bool
}

// NewUploader creates an Uploader bound to the given collection.
func NewUploader(client *api.Client, collection *Collection, logger *zap.Logger) *Uploader {
	return &Uploader{client: client, collection: collection, logger: logger}
}

// Uploading reports whether an upload is pending. Consumers should disable
// submission while it is true.
func (u *Uploader) Uploading() bool {
	return u.uploading.Load()
}

// Upload submits the file at path. An empty path means no file was selected
// and is a silent no-op.
func (u *Uploader) Upload(ctx context.Context, path string) error {
	if path == "" {
		return nil
	}
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open photo: %w", err)
	}
	defer f.Close()
	return u.UploadReader(ctx, filepath.Base(path), f)
}

// UploadReader submits photo data under the given filename. A nil reader or
// empty filename is a silent no-op. On success the photo collection and stats
// are refreshed exactly once each; on failure neither is touched.
func (u *Uploader) UploadReader(ctx context.Context, filename string, r io.Reader) error {
	if r == nil || filename == "" {
		return nil
	}
	if !u.uploading.CompareAndSwap(false, true) {
		return ErrUploadInFlight
	}
	defer u.uploading.Store(false)

	photo, err := u.client.UploadPhoto(ctx, filename, r)
	if err != nil {
		u.logger.Warn("Upload failed", zap.String("filename", filename), zap.Error(err))
		if errors.Is(err, api.ErrUnauthorized) {
			u.collection.auth.Invalidate()
		}
		return err
	}

	u.logger.Info("Photo uploaded",
		zap.String("filename", photo.Filename),
		zap.Int64("id", photo.ID))

	u.collection.RefreshPhotos(ctx)
	u.collection.RefreshStats(ctx)
	return nil
}
