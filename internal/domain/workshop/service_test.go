package workshop_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"golang.org/x/sync/errgroup"

	"github.com/rpggio/easybi/internal/domain/activity"
	"github.com/rpggio/easybi/internal/domain/chart"
	"github.com/rpggio/easybi/internal/domain/dataset"
	"github.com/rpggio/easybi/internal/domain/workshop"
	"github.com/rpggio/easybi/internal/repository"
	"github.com/rpggio/easybi/internal/repository/mocks"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type memWorkspaces struct {
	mu   sync.Mutex
	data map[string]*workshop.Workspace
}

func (m *memWorkspaces) Create(_ context.Context, ws *workshop.Workspace) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.data == nil {
		m.data = map[string]*workshop.Workspace{}
	}
	m.data[ws.ID] = ws.Clone()
	return nil
}

func (m *memWorkspaces) Get(_ context.Context, id string) (*workshop.Workspace, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ws, ok := m.data[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return ws.Clone(), nil
}

func (m *memWorkspaces) Update(_ context.Context, ws *workshop.Workspace) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.data[ws.ID]; !ok {
		return repository.ErrNotFound
	}
	m.data[ws.ID] = ws.Clone()
	return nil
}

type memDatasets struct {
	data map[string]*dataset.Dataset
}

func (m *memDatasets) Get(_ context.Context, id string) (*dataset.Dataset, error) {
	ds, ok := m.data[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return ds, nil
}

func (m *memDatasets) Put(_ context.Context, id string, ds *dataset.Dataset) error {
	if m.data == nil {
		m.data = map[string]*dataset.Dataset{}
	}
	m.data[id] = ds
	return nil
}

type recordedActivity struct {
	mu      sync.Mutex
	entries []activity.ActivityEntry
}

func (r *recordedActivity) LogActivity(_ context.Context, _ string, entry *activity.ActivityEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, *entry)
	return nil
}

func (r *recordedActivity) types() []activity.ActivityType {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []activity.ActivityType
	for _, e := range r.entries {
		out = append(out, e.ActivityType)
	}
	return out
}

func newService(t *testing.T) (*workshop.Service, *memDatasets, *recordedActivity) {
	t.Helper()
	datasets := &memDatasets{}
	log := &recordedActivity{}
	svc := workshop.NewService(&memWorkspaces{}, datasets, log, nil,
		workshop.WithIDGenerator(sequence()),
		workshop.WithClock(func() time.Time { return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC) }),
	)
	return svc, datasets, log
}

func lifeExp() *dataset.Dataset {
	return dataset.FromRows(
		[]string{"continent", "lifeExp"},
		[][]string{{"Asia", "60"}, {"Europe", "75"}, {"Asia", "70"}},
	)
}

func TestService_WorkspaceCreatedOnFirstUse(t *testing.T) {
	ctx := context.Background()
	svc, _, log := newService(t)

	ws, err := svc.Workspace(ctx, "sess")
	require.NoError(t, err)
	require.Equal(t, workshop.FirstSheetID, ws.ActiveTab)
	require.Equal(t, []activity.ActivityType{activity.TypeWorkspaceCreated}, log.types())

	_, err = svc.Workspace(ctx, "")
	require.ErrorIs(t, err, workshop.ErrInvalidInput)
}

func TestService_AddAndCloseSheet(t *testing.T) {
	ctx := context.Background()
	svc, _, log := newService(t)

	_, sh, err := svc.AddSheet(ctx, "sess")
	require.NoError(t, err)
	require.Equal(t, "sheet2", sh.Label)

	ws, closed, err := svc.CloseSheet(ctx, "sess", workshop.FirstSheetID)
	require.NoError(t, err)
	require.False(t, closed)
	require.Len(t, ws.Sheets, 2)

	ws, closed, err = svc.CloseSheet(ctx, "sess", sh.ID)
	require.NoError(t, err)
	require.True(t, closed)
	require.Equal(t, workshop.FirstSheetID, ws.ActiveTab)

	require.Equal(t, []activity.ActivityType{
		activity.TypeWorkspaceCreated,
		activity.TypeSheetAdded,
		activity.TypeSheetClosed,
	}, log.types())
}

func TestService_ActivateAddEntryCreatesSheet(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newService(t)

	ws, added, err := svc.ActivateTab(ctx, "sess", workshop.AddTabID)
	require.NoError(t, err)
	require.NotNil(t, added)
	require.Equal(t, added.ID, ws.ActiveTab)

	_, _, err = svc.ActivateTab(ctx, "sess", "tab-unknown")
	require.ErrorIs(t, err, workshop.ErrTabNotFound)
}

func TestService_ConfigureChartStoresOnlyWhenChanged(t *testing.T) {
	ctx := context.Background()
	svc, datasets, _ := newService(t)
	require.NoError(t, datasets.Put(ctx, "sess", lifeExp()))

	res, err := svc.ConfigureChart(ctx, "sess", workshop.ConfigureRequest{GraphType: "scatter", XAxis: "continent", YAxis: "gdp"})
	require.NoError(t, err)
	require.False(t, res.Result.Changed)
	ws, err := svc.Workspace(ctx, "sess")
	require.NoError(t, err)
	require.Empty(t, ws.Settings)

	res, err = svc.ConfigureChart(ctx, "sess", workshop.ConfigureRequest{GraphType: "histogram", XAxis: "continent", YAxis: "lifeExp"})
	require.NoError(t, err)
	require.True(t, res.Result.Changed)
	require.Equal(t, workshop.FirstSheetID, res.SheetID)
	require.Equal(t, []chart.Bar{{Label: "Asia", Value: 65, Count: 2}, {Label: "Europe", Value: 75, Count: 1}}, res.Result.Figure.Bars)

	ws, err = svc.Workspace(ctx, "sess")
	require.NoError(t, err)
	require.Equal(t, chart.Settings{GraphType: chart.Histogram, XAxis: "continent", YAxis: "lifeExp"}, ws.Settings[workshop.FirstSheetID])
}

func TestService_ConfigureChartRejectsNonSheets(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newService(t)

	_, err := svc.ConfigureChart(ctx, "sess", workshop.ConfigureRequest{SheetID: workshop.DataSourceTabID, XAxis: "a"})
	require.ErrorIs(t, err, workshop.ErrNotASheet)

	_, err = svc.ConfigureChart(ctx, "sess", workshop.ConfigureRequest{SheetID: "tab-gone", XAxis: "a"})
	require.ErrorIs(t, err, workshop.ErrTabNotFound)

	_, err = svc.ConfigureChart(ctx, "sess", workshop.ConfigureRequest{GraphType: "radar"})
	require.ErrorIs(t, err, chart.ErrInvalidGraphType)
}

func TestService_SheetViewResolvesDefaultsAndFallbacks(t *testing.T) {
	ctx := context.Background()
	svc, datasets, _ := newService(t)

	view, err := svc.SheetView(ctx, "sess", "")
	require.NoError(t, err)
	require.False(t, view.HasData)

	require.NoError(t, datasets.Put(ctx, "sess", lifeExp()))
	_, err = svc.UpdateAxes(ctx, "sess", workshop.FirstSheetID, "country", "lifeExp")
	require.NoError(t, err)

	view, err = svc.SheetView(ctx, "sess", workshop.FirstSheetID)
	require.NoError(t, err)
	require.True(t, view.HasData)
	require.True(t, view.Configured)
	require.Equal(t, "continent", view.Settings.XAxis)
	require.Equal(t, "lifeExp", view.Settings.YAxis)
	require.Equal(t, chart.Histogram, view.Settings.GraphType)
	require.Equal(t, []string{"continent", "lifeExp"}, view.Columns)
}

func TestService_FigureAndDataset(t *testing.T) {
	ctx := context.Background()
	svc, _, log := newService(t)

	_, err := svc.Figure(ctx, "sess", "")
	require.ErrorIs(t, err, workshop.ErrNoData)
	_, err = svc.Dataset(ctx, "sess")
	require.ErrorIs(t, err, workshop.ErrNoData)

	require.NoError(t, svc.ReplaceDataset(ctx, "sess", lifeExp()))
	fig, err := svc.Figure(ctx, "sess", "")
	require.NoError(t, err)
	require.Equal(t, chart.Histogram, fig.Type)
	require.Len(t, fig.Bars, 2)

	ds, err := svc.Dataset(ctx, "sess")
	require.NoError(t, err)
	require.Equal(t, 3, ds.Len())
	require.Contains(t, log.types(), activity.TypeDataImported)
}

func TestService_ConcurrentAddSheetsAreSerialised(t *testing.T) {
	ctx := context.Background()
	svc := workshop.NewService(&memWorkspaces{}, &memDatasets{}, nil, nil)
	_, err := svc.Workspace(ctx, "sess")
	require.NoError(t, err)

	var g errgroup.Group
	for i := 0; i < 20; i++ {
		g.Go(func() error {
			_, _, err := svc.AddSheet(ctx, "sess")
			return err
		})
	}
	require.NoError(t, g.Wait())

	ws, err := svc.Workspace(ctx, "sess")
	require.NoError(t, err)
	require.Len(t, ws.Sheets, 21)
	require.Equal(t, "sheet21", ws.Sheets[20].Label)
}

func TestService_RepositoryErrorsAreWrapped(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("disk full")
	workspaces := &mocks.WorkspaceRepository{}
	workspaces.On("Get", ctx, "sess").Return(nil, boom)

	svc := workshop.NewService(workspaces, &mocks.DatasetRepository{}, nil, nil)
	_, _, err := svc.AddSheet(ctx, "sess")
	require.ErrorIs(t, err, boom)
	require.Contains(t, err.Error(), "loading workspace")
	workspaces.AssertExpectations(t)
}

func TestService_DatasetErrorsAreWrapped(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("corrupt")
	datasets := &mocks.DatasetRepository{}
	datasets.On("Get", ctx, "sess").Return(nil, boom)
	workspaces := &mocks.WorkspaceRepository{}
	workspaces.On("Get", ctx, "sess").Return(workshop.New("sess", time.Now()), nil)
	workspaces.On("Update", ctx, mock.Anything).Return(nil).Maybe()

	svc := workshop.NewService(workspaces, datasets, nil, nil)
	_, err := svc.Figure(ctx, "sess", "")
	require.ErrorIs(t, err, boom)
}

func TestService_UpdateAxesStoresWithoutBuilding(t *testing.T) {
	ctx := context.Background()
	svc, datasets, log := newService(t)
	require.NoError(t, datasets.Put(ctx, "sess", lifeExp()))

	ws, err := svc.UpdateAxes(ctx, "sess", "", "lifeExp", "continent")
	require.NoError(t, err)
	require.Equal(t, chart.Settings{XAxis: "lifeExp", YAxis: "continent"}, ws.Settings[workshop.FirstSheetID])
	require.Contains(t, log.types(), activity.TypeAxesUpdated)
	require.NotContains(t, log.types(), activity.TypeChartConfigured)

	view, err := svc.SheetView(ctx, "sess", workshop.FirstSheetID)
	require.NoError(t, err)
	require.True(t, view.Configured)
	require.Equal(t, chart.Settings{GraphType: chart.Histogram, XAxis: "lifeExp", YAxis: "continent"}, view.Settings)

	_, err = svc.UpdateAxes(ctx, "sess", workshop.AddTabID, "a", "b")
	require.ErrorIs(t, err, workshop.ErrNotASheet)
}
