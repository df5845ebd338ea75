package mcp

import (
	"context"
	"log/slog"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/rpggio/easybi/internal/domain/activity"
	"github.com/rpggio/easybi/internal/domain/dataset"
	"github.com/rpggio/easybi/internal/domain/workshop"
	"github.com/rpggio/easybi/internal/ingest"
)

// WorkshopService defines the sheet and chart operations needed by MCP.
type WorkshopService interface {
	Overview(ctx context.Context, workspaceID string) (*workshop.Overview, error)
	AddSheet(ctx context.Context, workspaceID string) (*workshop.Workspace, workshop.Sheet, error)
	CloseSheet(ctx context.Context, workspaceID, sheetID string) (*workshop.Workspace, bool, error)
	ActivateTab(ctx context.Context, workspaceID, tabID string) (*workshop.Workspace, *workshop.Sheet, error)
	ConfigureChart(ctx context.Context, workspaceID string, req workshop.ConfigureRequest) (*workshop.ConfigureResult, error)
	Dataset(ctx context.Context, workspaceID string) (*dataset.Dataset, error)
}

// ImportService defines the import operations needed by MCP.
type ImportService interface {
	ImportDatabase(ctx context.Context, workspaceID string, params ingest.DBParams) (*dataset.Summary, error)
	ImportURL(ctx context.Context, workspaceID, rawURL string) (*dataset.Summary, error)
}

// ActivityService defines activity operations needed by MCP.
type ActivityService interface {
	GetRecentActivity(ctx context.Context, workspaceID string, opts activity.ListActivityOptions) ([]activity.ActivityEntry, error)
}

// Services contains all domain services needed by MCP.
type Services struct {
	Workshop WorkshopService
	Imports  ImportService
	Activity ActivityService
}

// Config contains server configuration.
type Config struct {
	Services Services
	// DefaultSession is the workspace used when a call names none.
	DefaultSession string
	Version        string
	Logger         *slog.Logger
}

// NewServer creates and configures an MCP server with all tools and middleware.
func NewServer(cfg Config) *sdkmcp.Server {
	if cfg.DefaultSession == "" {
		cfg.DefaultSession = DefaultSession
	}
	if cfg.Version == "" {
		cfg.Version = "0.1.0"
	}

	server := sdkmcp.NewServer(&sdkmcp.Implementation{
		Name:    "easybi",
		Version: cfg.Version,
	}, &sdkmcp.ServerOptions{
		Instructions: serverInstructions,
		Logger:       cfg.Logger,
	})

	registerDocResources(server)

	server.AddReceivingMiddleware(sessionMiddleware(cfg.DefaultSession))
	server.AddReceivingMiddleware(trafficLoggingMiddleware(cfg.Logger, "inbound"))
	server.AddSendingMiddleware(trafficLoggingMiddleware(cfg.Logger, "outbound"))

	registerTools(server, cfg.Services)

	return server
}
