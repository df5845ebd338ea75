package activity

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"
)

const (
	defaultListLimit = 50
	maxListLimit     = 500
)

// Service handles activity log operations.
type Service struct {
	repo   Repository
	logger *slog.Logger
}

// NewService creates a new activity service.
func NewService(repo Repository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Service{repo: repo, logger: logger}
}

// LogActivity logs an activity entry with the current timestamp if missing.
func (s *Service) LogActivity(ctx context.Context, workspaceID string, entry *ActivityEntry) error {
	if entry == nil || workspaceID == "" || entry.ActivityType == "" {
		return ErrInvalidInput
	}
	entry.WorkspaceID = workspaceID
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	if err := s.repo.Log(ctx, workspaceID, entry); err != nil {
		return fmt.Errorf("logging activity: %w", err)
	}
	s.logger.Debug("activity logged", "workspace_id", workspaceID, "type", entry.ActivityType)
	return nil
}

// GetRecentActivity lists activity entries newest first.
func (s *Service) GetRecentActivity(ctx context.Context, workspaceID string, opts ListActivityOptions) ([]ActivityEntry, error) {
	if workspaceID == "" {
		return nil, ErrInvalidInput
	}
	if opts.Limit <= 0 {
		opts.Limit = defaultListLimit
	}
	if opts.Limit > maxListLimit {
		opts.Limit = maxListLimit
	}
	if opts.Offset < 0 {
		opts.Offset = 0
	}
	entries, err := s.repo.List(ctx, workspaceID, opts)
	if err != nil {
		return nil, fmt.Errorf("listing activity: %w", err)
	}
	return entries, nil
}
