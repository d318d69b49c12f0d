// internal/workers/cleanup_processor.go
package workers

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hibiken/asynq"

	"github.com/ngiletta/taller-be/internal/adapters/storage"
	"github.com/ngiletta/taller-be/internal/pkg/config"
)

// CleanupProcessor removes leftovers from the import pipeline: stale local
// temp files and incoming documents whose import never completed.
type CleanupProcessor struct {
	store  storage.FileStore
	config *config.Config
	logger *slog.Logger
}

// NewCleanupProcessor creates a new cleanup processor
func NewCleanupProcessor(store storage.FileStore, cfg *config.Config, logger *slog.Logger) *CleanupProcessor {
	return &CleanupProcessor{
		store:  store,
		config: cfg,
		logger: logger.With(slog.String("processor", "cleanup")),
	}
}

// CleanupTempFiles removes old temporary upload files
func (p *CleanupProcessor) CleanupTempFiles(ctx context.Context, t *asynq.Task) error {
	p.logger.InfoContext(ctx, "cleaning up temp files")

	tempDir := p.config.FileProcessing.TempDir
	maxAge := 24 * time.Hour

	var deletedCount int
	err := filepath.Walk(tempDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if !info.IsDir() && time.Since(info.ModTime()) > maxAge {
			if err := os.Remove(path); err != nil {
				p.logger.WarnContext(ctx, "failed to delete temp file",
					slog.String("file", path),
					slog.String("error", err.Error()))
			} else {
				deletedCount++
			}
		}

		return nil
	})

	if err != nil {
		return fmt.Errorf("failed to walk temp directory: %w", err)
	}

	p.logger.InfoContext(ctx, "temp files cleaned up",
		slog.Int("files_deleted", deletedCount))

	return nil
}

// CleanupIncoming quarantines incoming documents whose import never
// completed. Anything older than a week is stuck; moving it keeps the
// document inspectable without blocking the incoming prefix.
func (p *CleanupProcessor) CleanupIncoming(ctx context.Context, t *asynq.Task) error {
	objects, err := p.store.List(ctx, storage.PrefixIncoming+"/")
	if err != nil {
		return fmt.Errorf("failed to list incoming documents: %w", err)
	}

	cutoff := time.Now().Add(-7 * 24 * time.Hour)

	var moved int
	for _, obj := range objects {
		if !strings.HasPrefix(obj.Key, storage.PrefixIncoming) || obj.LastModified.After(cutoff) {
			continue
		}
		if err := p.store.Move(ctx, obj.Key, storage.QuarantineKey(obj.Key)); err != nil {
			p.logger.WarnContext(ctx, "failed to quarantine stale upload",
				slog.String("key", obj.Key),
				slog.String("error", err.Error()))
			continue
		}
		moved++
	}

	p.logger.InfoContext(ctx, "stale uploads quarantined", slog.Int("moved", moved))
	return nil
}
