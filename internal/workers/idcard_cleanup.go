package workers

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/campushire/campushire/internal/tasks"
)

// HandleIDCardCleanup deletes the ID card upload of a deleted account
func HandleIDCardCleanup(ctx context.Context, t *asynq.Task, uploadDir string, logger zerolog.Logger) error {
	payload, err := tasks.ParseTaskPayload(t)
	if err != nil {
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}

	if !insideDir(uploadDir, payload.Path) {
		logger.Error().
			Str("user_id", payload.UserID).
			Str("path", payload.Path).
			Msg("Refusing to delete file outside the upload directory")
		return fmt.Errorf("%w: path outside upload directory", asynq.SkipRetry)
	}

	if err := os.Remove(payload.Path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove ID card: %w", err)
	}

	logger.Info().
		Str("user_id", payload.UserID).
		Str("path", payload.Path).
		Msg("ID card removed")

	return nil
}

// insideDir reports whether path is a file strictly below dir
func insideDir(dir, path string) bool {
	if path == "" {
		return false
	}
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return false
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	rel, err := filepath.Rel(absDir, absPath)
	if err != nil {
		return false
	}
	return rel != "." && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
