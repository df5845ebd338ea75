package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/rpggio/easybi/internal/domain/activity"
	"github.com/rpggio/easybi/internal/domain/dataset"
	"github.com/rpggio/easybi/internal/domain/workshop"
)

// WorkspaceRepository is a mock for repository.WorkspaceRepository.
type WorkspaceRepository struct {
	mock.Mock
}

func (m *WorkspaceRepository) Create(ctx context.Context, ws *workshop.Workspace) error {
	args := m.Called(ctx, ws)
	return args.Error(0)
}

func (m *WorkspaceRepository) Get(ctx context.Context, id string) (*workshop.Workspace, error) {
	args := m.Called(ctx, id)
	if ws, ok := args.Get(0).(*workshop.Workspace); ok {
		return ws, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *WorkspaceRepository) Update(ctx context.Context, ws *workshop.Workspace) error {
	args := m.Called(ctx, ws)
	return args.Error(0)
}

// DatasetRepository is a mock for repository.DatasetRepository.
type DatasetRepository struct {
	mock.Mock
}

func (m *DatasetRepository) Get(ctx context.Context, workspaceID string) (*dataset.Dataset, error) {
	args := m.Called(ctx, workspaceID)
	if ds, ok := args.Get(0).(*dataset.Dataset); ok {
		return ds, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *DatasetRepository) Put(ctx context.Context, workspaceID string, ds *dataset.Dataset) error {
	args := m.Called(ctx, workspaceID, ds)
	return args.Error(0)
}

// ActivityRepository is a mock for repository.ActivityRepository.
type ActivityRepository struct {
	mock.Mock
}

func (m *ActivityRepository) Log(ctx context.Context, workspaceID string, entry *activity.ActivityEntry) error {
	args := m.Called(ctx, workspaceID, entry)
	return args.Error(0)
}

func (m *ActivityRepository) List(ctx context.Context, workspaceID string, opts activity.ListActivityOptions) ([]activity.ActivityEntry, error) {
	args := m.Called(ctx, workspaceID, opts)
	if list, ok := args.Get(0).([]activity.ActivityEntry); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

// ActivityLogger is a mock for the activity logging dependency of services.
type ActivityLogger struct {
	mock.Mock
}

func (m *ActivityLogger) LogActivity(ctx context.Context, workspaceID string, entry *activity.ActivityEntry) error {
	args := m.Called(ctx, workspaceID, entry)
	return args.Error(0)
}
