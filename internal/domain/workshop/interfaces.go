package workshop

import (
	"context"

	"github.com/rpggio/easybi/internal/domain/activity"
	"github.com/rpggio/easybi/internal/domain/dataset"
)

// WorkspaceRepository provides persistence for workspaces.
type WorkspaceRepository interface {
	Create(ctx context.Context, ws *Workspace) error
	Get(ctx context.Context, id string) (*Workspace, error)
	Update(ctx context.Context, ws *Workspace) error
}

// DatasetRepository provides access to the imported dataset of a workspace.
type DatasetRepository interface {
	Get(ctx context.Context, workspaceID string) (*dataset.Dataset, error)
	Put(ctx context.Context, workspaceID string, ds *dataset.Dataset) error
}

// ActivityLogger records workshop events.
type ActivityLogger interface {
	LogActivity(ctx context.Context, workspaceID string, entry *activity.ActivityEntry) error
}
