package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/rpggio/easybi/internal/domain/activity"
)

func TestActivityRepository_LogList(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()

	repo := NewActivityRepository(db)
	entry1 := &activity.ActivityEntry{
		ActivityType: activity.TypeSheetAdded,
		Summary:      "added sheet2",
		Details:      `{"id":"tab-1"}`,
	}
	entry2 := &activity.ActivityEntry{
		ActivityType: activity.TypeDataImported,
		Summary:      "imported 3 rows",
	}

	require.NoError(t, repo.Log(ctx, "w1", entry1))
	time.Sleep(10 * time.Millisecond)
	require.NoError(t, repo.Log(ctx, "w1", entry2))
	require.NotZero(t, entry1.ID)
	require.Equal(t, "w1", entry1.WorkspaceID)

	entries, err := repo.List(ctx, "w1", activity.ListActivityOptions{})
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, entry2.ActivityType, entries[0].ActivityType)
	require.Equal(t, entry1.ActivityType, entries[1].ActivityType)
	require.Equal(t, `{"id":"tab-1"}`, entries[1].Details)

	entries, err = repo.List(ctx, "w1", activity.ListActivityOptions{Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, entry1.ActivityType, entries[0].ActivityType)
}

func TestActivityRepository_FiltersAndWorkspaceIsolation(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()

	repo := NewActivityRepository(db)
	sheetID := "tab-abc"
	entry := &activity.ActivityEntry{
		SheetID:      &sheetID,
		ActivityType: activity.TypeChartConfigured,
		Summary:      "sheet2 shows pie of continent",
		Details:      "{}",
	}
	require.NoError(t, repo.Log(ctx, "w1", entry))
	require.NoError(t, repo.Log(ctx, "w1", &activity.ActivityEntry{ActivityType: activity.TypeImportFailed, Summary: "bad file"}))

	activityType := activity.TypeChartConfigured
	opts := activity.ListActivityOptions{
		SheetID:      &sheetID,
		ActivityType: &activityType,
	}
	entries, err := repo.List(ctx, "w1", opts)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, sheetID, *entries[0].SheetID)

	entries, err = repo.List(ctx, "w2", activity.ListActivityOptions{})
	require.NoError(t, err)
	require.Len(t, entries, 0)
}
