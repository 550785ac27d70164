package workers

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/campushire/campushire/internal/models"
)

// HandleUploadsSweep removes uploads that no account references
func HandleUploadsSweep(ctx context.Context, _ *asynq.Task, db *gorm.DB, uploadDir string, grace time.Duration, logger zerolog.Logger) error {
	removed, err := SweepUploads(ctx, db, uploadDir, time.Now().Add(-grace), logger)
	if err != nil {
		return err
	}

	logger.Info().Int("removed", removed).Str("upload_dir", uploadDir).Msg("Upload sweep complete")
	return nil
}

// SweepUploads deletes regular files in uploadDir that are not any user's ID
// card and were last modified before cutoff. Newer files are left alone since
// a registration may still be writing its row.
func SweepUploads(ctx context.Context, db *gorm.DB, uploadDir string, cutoff time.Time, logger zerolog.Logger) (int, error) {
	var paths []string
	if err := db.WithContext(ctx).
		Model(&models.User{}).
		Where("id_card_path <> ''").
		Pluck("id_card_path", &paths).Error; err != nil {
		return 0, fmt.Errorf("failed to load referenced uploads: %w", err)
	}

	referenced := make(map[string]struct{}, len(paths))
	for _, p := range paths {
		referenced[filepath.Clean(p)] = struct{}{}
	}

	entries, err := os.ReadDir(uploadDir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to read upload directory: %w", err)
	}

	removed := 0
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}

		path := filepath.Join(uploadDir, entry.Name())
		if _, ok := referenced[filepath.Clean(path)]; ok {
			continue
		}

		info, err := entry.Info()
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}

		if err := os.Remove(path); err != nil {
			logger.Warn().Err(err).Str("path", path).Msg("Failed to remove orphaned upload")
			continue
		}
		logger.Debug().Str("path", path).Msg("Removed orphaned upload")
		removed++
	}

	return removed, nil
}
