package transport

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/rpggio/easybi/internal/domain/activity"
	"github.com/rpggio/easybi/internal/domain/chart"
	"github.com/rpggio/easybi/internal/domain/dataset"
	"github.com/rpggio/easybi/internal/domain/workshop"
	"github.com/rpggio/easybi/internal/ingest"
	"github.com/rpggio/easybi/internal/render"
)

const defaultPageSize = 10

// WorkshopService is the sheet and chart surface used by the API.
type WorkshopService interface {
	Overview(ctx context.Context, workspaceID string) (*workshop.Overview, error)
	AddSheet(ctx context.Context, workspaceID string) (*workshop.Workspace, workshop.Sheet, error)
	CloseSheet(ctx context.Context, workspaceID, sheetID string) (*workshop.Workspace, bool, error)
	ActivateTab(ctx context.Context, workspaceID, tabID string) (*workshop.Workspace, *workshop.Sheet, error)
	SheetView(ctx context.Context, workspaceID, sheetID string) (*workshop.SheetView, error)
	UpdateAxes(ctx context.Context, workspaceID, sheetID, xAxis, yAxis string) (*workshop.Workspace, error)
	ConfigureChart(ctx context.Context, workspaceID string, req workshop.ConfigureRequest) (*workshop.ConfigureResult, error)
	Figure(ctx context.Context, workspaceID, sheetID string) (*chart.Figure, error)
	Dataset(ctx context.Context, workspaceID string) (*dataset.Dataset, error)
}

// ImportService runs the import adapters.
type ImportService interface {
	ImportFile(ctx context.Context, workspaceID string, upload ingest.FileUpload) (*dataset.Summary, error)
	ImportDatabase(ctx context.Context, workspaceID string, params ingest.DBParams) (*dataset.Summary, error)
	ImportURL(ctx context.Context, workspaceID, rawURL string) (*dataset.Summary, error)
}

// ActivityService lists workshop events.
type ActivityService interface {
	GetRecentActivity(ctx context.Context, workspaceID string, opts activity.ListActivityOptions) ([]activity.ActivityEntry, error)
}

// ChartRenderer draws figures as images.
type ChartRenderer interface {
	Render(w io.Writer, fig *chart.Figure, format render.Format) error
}

// Services groups the API dependencies.
type Services struct {
	Workshop WorkshopService
	Imports  ImportService
	Activity ActivityService
	Renderer ChartRenderer
}

// Config wires the HTTP router.
type Config struct {
	Services       Services
	AuthMiddleware func(http.Handler) http.Handler
	// MCPHandler, when set, is mounted at /mcp.
	MCPHandler http.Handler
	// MaxBodyBytes bounds request bodies; import uploads dominate.
	MaxBodyBytes int64
	Logger       *slog.Logger
}

// Server holds the HTTP handlers.
type Server struct {
	svc     Services
	maxBody int64
	logger  *slog.Logger
}

// NewServer creates an HTTP server router with middleware.
func NewServer(cfg Config) *chi.Mux {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	maxBody := cfg.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = 64 << 20
	}
	srv := &Server{svc: cfg.Services, maxBody: maxBody, logger: logger}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(logger))

	r.Get("/health", srv.handleHealth)

	r.Group(func(r chi.Router) {
		if cfg.AuthMiddleware != nil {
			r.Use(cfg.AuthMiddleware)
		}

		if cfg.MCPHandler != nil {
			r.Handle("/mcp", cfg.MCPHandler)
			r.Handle("/mcp/*", cfg.MCPHandler)
		}

		r.Route("/api", func(r chi.Router) {
			r.Use(SessionMiddleware)
			r.Use(srv.limitBody)

			r.Get("/workspace", srv.handleWorkspace)
			r.Put("/active-tab", srv.handleActivate)

			r.Post("/sheets", srv.handleAddSheet)
			r.Get("/sheets/{id}", srv.handleSheet)
			r.Delete("/sheets/{id}", srv.handleCloseSheet)
			r.Put("/sheets/{id}/axes", srv.handleAxes)
			r.Put("/sheets/{id}/chart", srv.handleConfigure)
			r.Get("/sheets/{id}/chart.{format}", srv.handleChartImage)

			r.Get("/data", srv.handleData)
			r.Post("/import/file", srv.handleImportFile)
			r.Post("/import/database", srv.handleImportDatabase)
			r.Post("/import/url", srv.handleImportURL)

			r.Get("/activity", srv.handleActivity)
		})
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// TabsResponse describes the tab bar after a registry change.
type TabsResponse struct {
	ActiveTab string          `json:"active_tab"`
	Tabs      []workshop.Tab  `json:"tabs"`
	Sheet     *workshop.Sheet `json:"sheet,omitempty"`
	Closed    *bool           `json:"closed,omitempty"`
}

func tabsResponse(ws *workshop.Workspace) TabsResponse {
	return TabsResponse{ActiveTab: ws.ActiveTab, Tabs: ws.Tabs()}
}

func (s *Server) handleWorkspace(w http.ResponseWriter, r *http.Request) {
	overview, err := s.svc.Workshop.Overview(r.Context(), session(r))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, overview)
}

func (s *Server) handleAddSheet(w http.ResponseWriter, r *http.Request) {
	ws, sh, err := s.svc.Workshop.AddSheet(r.Context(), session(r))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	resp := tabsResponse(ws)
	resp.Sheet = &sh
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleCloseSheet(w http.ResponseWriter, r *http.Request) {
	ws, closed, err := s.svc.Workshop.CloseSheet(r.Context(), session(r), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	resp := tabsResponse(ws)
	resp.Closed = &closed
	writeJSON(w, http.StatusOK, resp)
}

// ActivateRequest selects a tab.
type ActivateRequest struct {
	TabID string `json:"tab_id"`
}

func (s *Server) handleActivate(w http.ResponseWriter, r *http.Request) {
	var req ActivateRequest
	if err := decodeJSON(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	ws, added, err := s.svc.Workshop.ActivateTab(r.Context(), session(r), req.TabID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	resp := tabsResponse(ws)
	resp.Sheet = added
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSheet(w http.ResponseWriter, r *http.Request) {
	view, err := s.svc.Workshop.SheetView(r.Context(), session(r), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// AxesRequest stores an axis selection.
type AxesRequest struct {
	XAxis string `json:"x_axis"`
	YAxis string `json:"y_axis"`
}

func (s *Server) handleAxes(w http.ResponseWriter, r *http.Request) {
	var req AxesRequest
	if err := decodeJSON(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	sheetID := chi.URLParam(r, "id")
	ws, err := s.svc.Workshop.UpdateAxes(r.Context(), session(r), sheetID, req.XAxis, req.YAxis)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"sheet_id": sheetID,
		"settings": ws.Settings[sheetID],
	})
}

// ChartRequest is a chart configuration change.
type ChartRequest struct {
	GraphType string `json:"graph_type"`
	XAxis     string `json:"x_axis"`
	YAxis     string `json:"y_axis"`
	StartDate string `json:"start_date,omitempty"`
	EndDate   string `json:"end_date,omitempty"`
}

func (s *Server) handleConfigure(w http.ResponseWriter, r *http.Request) {
	var req ChartRequest
	if err := decodeJSON(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	result, err := s.svc.Workshop.ConfigureChart(r.Context(), session(r), workshop.ConfigureRequest{
		SheetID:   chi.URLParam(r, "id"),
		GraphType: req.GraphType,
		XAxis:     req.XAxis,
		YAxis:     req.YAxis,
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleChartImage(w http.ResponseWriter, r *http.Request) {
	format, err := render.ParseFormat(chi.URLParam(r, "format"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	fig, err := s.svc.Workshop.Figure(r.Context(), session(r), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := s.svc.Renderer.Render(&buf, fig, format); err != nil {
		s.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

// DataPage is one page of the dataset preview.
type DataPage struct {
	Columns   []string         `json:"columns"`
	Rows      []dataset.Record `json:"rows"`
	Page      int              `json:"page"`
	PageSize  int              `json:"page_size"`
	TotalRows int              `json:"total_rows"`
	Source    dataset.Source   `json:"source"`
}

func (s *Server) handleData(w http.ResponseWriter, r *http.Request) {
	page, err := queryInt(r, "page", 1)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	size, err := queryInt(r, "page_size", defaultPageSize)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = defaultPageSize
	}

	ds, err := s.svc.Workshop.Dataset(r.Context(), session(r))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, DataPage{
		Columns:   ds.Columns,
		Rows:      ds.Page(page, size),
		Page:      page,
		PageSize:  size,
		TotalRows: ds.Len(),
		Source:    ds.Source,
	})
}

func (s *Server) handleImportFile(w http.ResponseWriter, r *http.Request) {
	var req ingest.FileUpload
	if err := decodeJSON(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	summary, err := s.svc.Imports.ImportFile(r.Context(), session(r), req)
	s.importResult(w, r, summary, err)
}

func (s *Server) handleImportDatabase(w http.ResponseWriter, r *http.Request) {
	var req ingest.DBParams
	if err := decodeJSON(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	summary, err := s.svc.Imports.ImportDatabase(r.Context(), session(r), req)
	s.importResult(w, r, summary, err)
}

// URLImportRequest names a remote CSV file.
type URLImportRequest struct {
	URL string `json:"url"`
}

func (s *Server) handleImportURL(w http.ResponseWriter, r *http.Request) {
	var req URLImportRequest
	if err := decodeJSON(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	summary, err := s.svc.Imports.ImportURL(r.Context(), session(r), req.URL)
	s.importResult(w, r, summary, err)
}

// importResult reports a failed import as unprocessable; the stored data is unchanged.
func (s *Server) importResult(w http.ResponseWriter, r *http.Request, summary *dataset.Summary, err error) {
	if err != nil {
		status := statusFor(err)
		if status == http.StatusInternalServerError && !errors.Is(err, context.Canceled) {
			status = http.StatusUnprocessableEntity
		}
		writeError(w, status, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, summary)
}

func (s *Server) handleActivity(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", 0)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	offset, err := queryInt(r, "offset", 0)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	opts := activity.ListActivityOptions{Limit: limit, Offset: offset}
	if typ := r.URL.Query().Get("type"); typ != "" {
		t := activity.ActivityType(typ)
		opts.ActivityType = &t
	}
	if sheet := r.URL.Query().Get("sheet_id"); sheet != "" {
		opts.SheetID = &sheet
	}

	entries, err := s.svc.Activity.GetRecentActivity(r.Context(), session(r), opts)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", middleware.GetReqID(r.Context()),
			"error", err,
		)
		writeError(w, status, "internal error")
		return
	}
	writeError(w, status, err.Error())
}

func (s *Server) limitBody(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, s.maxBody)
		next.ServeHTTP(w, r)
	})
}

func session(r *http.Request) string {
	id, _ := SessionIDFromContext(r.Context())
	return id
}

func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.Debug("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"request_id", middleware.GetReqID(r.Context()),
			)
		})
	}
}
