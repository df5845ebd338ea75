package workshop

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rpggio/easybi/internal/domain/activity"
	"github.com/rpggio/easybi/internal/domain/chart"
	"github.com/rpggio/easybi/internal/domain/dataset"
	"github.com/rpggio/easybi/internal/repository"
)

// Service handles the sheet lifecycle and chart configuration of workspaces.
type Service struct {
	workspaces WorkspaceRepository
	datasets   DatasetRepository
	activity   ActivityLogger
	charts     *chart.Configurator
	logger     *slog.Logger

	mu    sync.Mutex
	newID func() string
	now   func() time.Time
}

// Option customises a Service.
type Option func(*Service)

// WithIDGenerator replaces the random token source used for sheet ids.
func WithIDGenerator(fn func() string) Option {
	return func(s *Service) { s.newID = fn }
}

// WithClock replaces the time source.
func WithClock(fn func() time.Time) Option {
	return func(s *Service) { s.now = fn }
}

// NewService creates a new workshop service. activityLog may be nil.
func NewService(
	workspaces WorkspaceRepository,
	datasets DatasetRepository,
	activityLog ActivityLogger,
	logger *slog.Logger,
	opts ...Option,
) *Service {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	s := &Service{
		workspaces: workspaces,
		datasets:   datasets,
		activity:   activityLog,
		charts:     chart.NewConfigurator(logger),
		logger:     logger,
		newID:      uuid.NewString,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Workspace returns the workspace for a session, creating it on first use.
func (s *Service) Workspace(ctx context.Context, workspaceID string) (*Workspace, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ensure(ctx, workspaceID)
}

// Overview returns the workspace with its tab bar and a dataset summary.
func (s *Service) Overview(ctx context.Context, workspaceID string) (*Overview, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ws, err := s.ensure(ctx, workspaceID)
	if err != nil {
		return nil, err
	}
	ds, err := s.loadDataset(ctx, workspaceID)
	if err != nil {
		return nil, err
	}
	overview := &Overview{Workspace: ws, Tabs: ws.Tabs()}
	if ds != nil {
		summary := ds.Summary()
		overview.Data = &summary
	}
	return overview, nil
}

// AddSheet appends a sheet and makes it active.
func (s *Service) AddSheet(ctx context.Context, workspaceID string) (*Workspace, Sheet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ws, err := s.ensure(ctx, workspaceID)
	if err != nil {
		return nil, Sheet{}, err
	}
	sh := ws.AddSheet(s.newID)
	if err := s.save(ctx, ws); err != nil {
		return nil, Sheet{}, err
	}
	s.record(ctx, workspaceID, &sh.ID, activity.TypeSheetAdded, fmt.Sprintf("added %s", sh.Label), nil)
	return ws, sh, nil
}

// CloseSheet removes a sheet. It reports false without error when the sheet
// is protected or unknown.
func (s *Service) CloseSheet(ctx context.Context, workspaceID, sheetID string) (*Workspace, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ws, err := s.ensure(ctx, workspaceID)
	if err != nil {
		return nil, false, err
	}
	sh, _ := ws.Sheet(sheetID)
	if !ws.CloseSheet(sheetID) {
		return ws, false, nil
	}
	if err := s.save(ctx, ws); err != nil {
		return nil, false, err
	}
	s.record(ctx, workspaceID, &sheetID, activity.TypeSheetClosed, fmt.Sprintf("closed %s", sh.Label), nil)
	return ws, true, nil
}

// ActivateTab moves the active pointer. Activating the add entry creates a
// sheet, which is returned.
func (s *Service) ActivateTab(ctx context.Context, workspaceID, tabID string) (*Workspace, *Sheet, error) {
	if tabID == "" {
		return nil, nil, ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ws, err := s.ensure(ctx, workspaceID)
	if err != nil {
		return nil, nil, err
	}
	added, err := ws.Activate(tabID, s.newID)
	if err != nil {
		return nil, nil, err
	}
	if err := s.save(ctx, ws); err != nil {
		return nil, nil, err
	}
	if added != nil {
		s.record(ctx, workspaceID, &added.ID, activity.TypeSheetAdded, fmt.Sprintf("added %s", added.Label), nil)
	} else {
		s.record(ctx, workspaceID, &tabID, activity.TypeTabActivated, fmt.Sprintf("activated %s", tabID), nil)
	}
	return ws, added, nil
}

// SheetView returns the effective settings and column options of a sheet.
// An empty sheetID targets the active sheet.
func (s *Service) SheetView(ctx context.Context, workspaceID, sheetID string) (*SheetView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ws, sh, err := s.sheet(ctx, workspaceID, sheetID)
	if err != nil {
		return nil, err
	}
	ds, err := s.loadDataset(ctx, workspaceID)
	if err != nil {
		return nil, err
	}

	stored, configured := ws.Settings[sh.ID]
	view := &SheetView{
		Sheet:      sh,
		GraphTypes: chart.GraphTypes,
		Configured: configured,
		Columns:    []string{},
	}
	if ds.Empty() {
		if configured {
			view.Settings = stored
		}
		return view, nil
	}

	view.HasData = true
	view.Columns = append(view.Columns, ds.Columns...)
	view.DateFilter = ds.HasColumn(dataset.DateColumn)
	if configured {
		view.Settings = chart.Resolve(&stored, ds)
	} else {
		view.Settings = chart.Resolve(nil, ds)
	}
	return view, nil
}

// UpdateAxes stores the axis choice of a sheet without building a chart.
func (s *Service) UpdateAxes(ctx context.Context, workspaceID, sheetID, xAxis, yAxis string) (*Workspace, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ws, sh, err := s.sheet(ctx, workspaceID, sheetID)
	if err != nil {
		return nil, err
	}
	settings := ws.Settings[sh.ID]
	settings.XAxis = xAxis
	settings.YAxis = yAxis
	ws.Settings[sh.ID] = settings

	if err := s.save(ctx, ws); err != nil {
		return nil, err
	}
	s.record(ctx, workspaceID, &sh.ID, activity.TypeAxesUpdated,
		fmt.Sprintf("%s axes set to %s/%s", sh.Label, xAxis, yAxis), nil)
	return ws, nil
}

// ConfigureChart applies a chart configuration to a sheet. Settings are only
// stored when the chart could be built; otherwise the result reports
// Changed=false and the workspace is untouched.
func (s *Service) ConfigureChart(ctx context.Context, workspaceID string, req ConfigureRequest) (*ConfigureResult, error) {
	graphType, err := chart.ParseGraphType(req.GraphType)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ws, sh, err := s.sheet(ctx, workspaceID, req.SheetID)
	if err != nil {
		return nil, err
	}
	ds, err := s.loadDataset(ctx, workspaceID)
	if err != nil {
		return nil, err
	}

	settings := chart.Settings{GraphType: graphType, XAxis: req.XAxis, YAxis: req.YAxis}
	if req.StartDate != "" || req.EndDate != "" {
		settings.Filter = &chart.DateFilter{StartDate: req.StartDate, EndDate: req.EndDate}
	}

	result, err := s.charts.Configure(ds, settings)
	if err != nil {
		return nil, fmt.Errorf("configuring chart: %w", err)
	}

	if !result.Changed {
		s.logger.Debug("chart configuration declined",
			"workspace_id", workspaceID, "sheet_id", sh.ID, "reason", result.Reason)
		s.record(ctx, workspaceID, &sh.ID, activity.TypeChartDeclined,
			fmt.Sprintf("%s chart unchanged: %s", sh.Label, result.Reason), settings)
		return &ConfigureResult{SheetID: sh.ID, Result: result}, nil
	}

	ws.Settings[sh.ID] = result.Settings
	if err := s.save(ctx, ws); err != nil {
		return nil, err
	}
	s.record(ctx, workspaceID, &sh.ID, activity.TypeChartConfigured,
		fmt.Sprintf("%s shows %s of %s", sh.Label, result.Settings.GraphType, result.Settings.XAxis), result.Settings)
	return &ConfigureResult{SheetID: sh.ID, Result: result}, nil
}

// Figure builds the chart of a sheet from its effective settings.
func (s *Service) Figure(ctx context.Context, workspaceID, sheetID string) (*chart.Figure, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ws, sh, err := s.sheet(ctx, workspaceID, sheetID)
	if err != nil {
		return nil, err
	}
	ds, err := s.loadDataset(ctx, workspaceID)
	if err != nil {
		return nil, err
	}
	if ds.Empty() {
		return nil, ErrNoData
	}

	var stored *chart.Settings
	if settings, ok := ws.Settings[sh.ID]; ok {
		stored = &settings
	}
	result, err := s.charts.Configure(ds, chart.Resolve(stored, ds))
	if err != nil {
		return nil, fmt.Errorf("building chart: %w", err)
	}
	if !result.Changed {
		return nil, ErrNoChart
	}
	return result.Figure, nil
}

// Dataset returns the imported dataset of a workspace.
func (s *Service) Dataset(ctx context.Context, workspaceID string) (*dataset.Dataset, error) {
	if workspaceID == "" {
		return nil, ErrInvalidInput
	}
	ds, err := s.loadDataset(ctx, workspaceID)
	if err != nil {
		return nil, err
	}
	if ds == nil {
		return nil, ErrNoData
	}
	return ds, nil
}

// ReplaceDataset stores a freshly imported dataset, replacing any previous one.
func (s *Service) ReplaceDataset(ctx context.Context, workspaceID string, ds *dataset.Dataset) error {
	if ds == nil {
		return ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.ensure(ctx, workspaceID); err != nil {
		return err
	}
	if err := s.datasets.Put(ctx, workspaceID, ds); err != nil {
		return fmt.Errorf("storing dataset: %w", err)
	}
	s.record(ctx, workspaceID, nil, activity.TypeDataImported,
		fmt.Sprintf("imported %d rows from %s", ds.Len(), ds.Source.Name), ds.Summary())
	return nil
}

func (s *Service) ensure(ctx context.Context, workspaceID string) (*Workspace, error) {
	if workspaceID == "" {
		return nil, ErrInvalidInput
	}
	ws, err := s.workspaces.Get(ctx, workspaceID)
	if err == nil {
		if ws.Settings == nil {
			ws.Settings = make(map[string]chart.Settings)
		}
		return ws, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("loading workspace: %w", err)
	}

	ws = New(workspaceID, s.now().UTC())
	if err := s.workspaces.Create(ctx, ws); err != nil {
		return nil, fmt.Errorf("creating workspace: %w", err)
	}
	s.logger.Info("workspace created", "workspace_id", workspaceID)
	s.record(ctx, workspaceID, nil, activity.TypeWorkspaceCreated, "workspace created", nil)
	return ws, nil
}

// sheet loads the workspace and resolves sheetID, defaulting to the active tab.
func (s *Service) sheet(ctx context.Context, workspaceID, sheetID string) (*Workspace, Sheet, error) {
	ws, err := s.ensure(ctx, workspaceID)
	if err != nil {
		return nil, Sheet{}, err
	}
	if sheetID == "" {
		sheetID = ws.ActiveTab
	}
	sh, ok := ws.Sheet(sheetID)
	if ok {
		return ws, sh, nil
	}
	if ws.HasTab(sheetID) {
		return nil, Sheet{}, ErrNotASheet
	}
	return nil, Sheet{}, ErrTabNotFound
}

func (s *Service) loadDataset(ctx context.Context, workspaceID string) (*dataset.Dataset, error) {
	ds, err := s.datasets.Get(ctx, workspaceID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("loading dataset: %w", err)
	}
	return ds, nil
}

func (s *Service) save(ctx context.Context, ws *Workspace) error {
	ws.UpdatedAt = s.now().UTC()
	if err := s.workspaces.Update(ctx, ws); err != nil {
		return fmt.Errorf("updating workspace: %w", err)
	}
	return nil
}

// record writes an activity entry. Failures are logged and otherwise ignored.
func (s *Service) record(ctx context.Context, workspaceID string, sheetID *string, typ activity.ActivityType, summary string, details any) {
	if s.activity == nil {
		return
	}
	entry := &activity.ActivityEntry{
		SheetID:      sheetID,
		ActivityType: typ,
		Summary:      summary,
	}
	if details != nil {
		if raw, err := json.Marshal(details); err == nil {
			entry.Details = string(raw)
		}
	}
	if err := s.activity.LogActivity(ctx, workspaceID, entry); err != nil {
		s.logger.Warn("failed to log activity", "workspace_id", workspaceID, "type", typ, "error", err)
	}
}
