package ingest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/rpggio/easybi/internal/domain/activity"
	"github.com/rpggio/easybi/internal/domain/dataset"
)

// Store receives successfully imported datasets.
type Store interface {
	ReplaceDataset(ctx context.Context, workspaceID string, ds *dataset.Dataset) error
}

// ActivityLogger records failed imports.
type ActivityLogger interface {
	LogActivity(ctx context.Context, workspaceID string, entry *activity.ActivityEntry) error
}

// Options bound the size and reach of imports.
type Options struct {
	MaxRows           int
	MaxBytes          int64
	URLTimeout        time.Duration
	AllowPrivateHosts bool

	// SQLiteDir is the only directory sqlite imports may read from.
	// Empty disables sqlite imports.
	SQLiteDir string
	// DenyPaths are files never served by a sqlite import, such as the
	// service's own database.
	DenyPaths []string
}

// DefaultOptions returns the import limits used when none are configured.
func DefaultOptions() Options {
	return Options{
		MaxRows:    100000,
		MaxBytes:   50 << 20,
		URLTimeout: 30 * time.Second,
	}
}

// FileUpload is an uploaded file as delivered by the browser: base64 contents plus a name.
type FileUpload struct {
	Filename string `json:"filename"`
	Contents string `json:"contents"`
}

// Importer runs the import adapters. Imports are serialised; a failed import
// leaves the stored dataset unchanged.
type Importer struct {
	store    Store
	activity ActivityLogger
	fetcher  *Fetcher
	open     OpenFunc
	opts     Options
	logger   *slog.Logger
	now      func() time.Time

	mu sync.Mutex
}

// NewImporter creates an importer. activityLog may be nil.
func NewImporter(store Store, activityLog ActivityLogger, opts Options, logger *slog.Logger) *Importer {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	defaults := DefaultOptions()
	if opts.MaxRows <= 0 {
		opts.MaxRows = defaults.MaxRows
	}
	if opts.MaxBytes <= 0 {
		opts.MaxBytes = defaults.MaxBytes
	}
	if opts.URLTimeout <= 0 {
		opts.URLTimeout = defaults.URLTimeout
	}
	return &Importer{
		store:    store,
		activity: activityLog,
		fetcher:  NewFetcher(opts.URLTimeout, opts.MaxBytes, opts.AllowPrivateHosts),
		opts:     opts,
		logger:   logger,
		now:      time.Now,
	}
}

// WithOpenFunc replaces the database opener.
func (i *Importer) WithOpenFunc(open OpenFunc) *Importer {
	i.open = open
	return i
}

// ImportFile decodes and parses an uploaded CSV or Excel file.
func (i *Importer) ImportFile(ctx context.Context, workspaceID string, upload FileUpload) (*dataset.Summary, error) {
	return i.run(ctx, workspaceID, dataset.SourceFile, upload.Filename, func(ctx context.Context) (*dataset.Dataset, error) {
		if upload.Filename == "" {
			return nil, fmt.Errorf("%w: filename is required", ErrInvalidInput)
		}
		format, err := DetectFormat(upload.Filename)
		if err != nil {
			return nil, err
		}
		if int64(len(upload.Contents)) > i.opts.MaxBytes*4/3+4 {
			return nil, fmt.Errorf("%w: exceeds %d bytes", ErrTooLarge, i.opts.MaxBytes)
		}
		raw, err := DecodeUpload(upload.Contents)
		if err != nil {
			return nil, err
		}
		switch format {
		case FormatExcel:
			return ParseExcel(bytes.NewReader(raw), i.opts.MaxRows)
		default:
			return ParseCSV(bytes.NewReader(raw), i.opts.MaxRows)
		}
	})
}

// ImportDatabase reads a whole table from a database.
func (i *Importer) ImportDatabase(ctx context.Context, workspaceID string, params DBParams) (*dataset.Summary, error) {
	return i.run(ctx, workspaceID, dataset.SourceDatabase, params.Table, func(ctx context.Context) (*dataset.Dataset, error) {
		if err := params.Validate(); err != nil {
			return nil, err
		}
		if params.Driver == DriverSQLite {
			path, err := ResolveSQLitePath(i.opts.SQLiteDir, params.Database, i.opts.DenyPaths)
			if err != nil {
				return nil, err
			}
			params.Database = path
		}
		return QueryTable(ctx, i.open, params, i.opts.MaxRows)
	})
}

// ImportURL fetches a remote CSV file.
func (i *Importer) ImportURL(ctx context.Context, workspaceID, rawURL string) (*dataset.Summary, error) {
	return i.run(ctx, workspaceID, dataset.SourceURL, rawURL, func(ctx context.Context) (*dataset.Dataset, error) {
		if rawURL == "" {
			return nil, fmt.Errorf("%w: url is required", ErrInvalidInput)
		}
		body, err := i.fetcher.Fetch(ctx, rawURL)
		if err != nil {
			return nil, err
		}
		return ParseCSV(bytes.NewReader(body), i.opts.MaxRows)
	})
}

func (i *Importer) run(
	ctx context.Context,
	workspaceID string,
	kind dataset.SourceKind,
	name string,
	load func(context.Context) (*dataset.Dataset, error),
) (*dataset.Summary, error) {
	if workspaceID == "" {
		return nil, ErrInvalidInput
	}

	i.mu.Lock()
	defer i.mu.Unlock()

	start := i.now()
	ds, err := load(ctx)
	if err == nil && len(ds.Columns) == 0 {
		err = ErrEmptyData
	}
	if err == nil {
		ds.Source = dataset.Source{Kind: kind, Name: name, ImportedAt: start.UTC()}
		err = i.store.ReplaceDataset(ctx, workspaceID, ds)
	}
	if err != nil {
		i.logger.Error("import failed", "workspace_id", workspaceID, "source", kind, "name", name, "error", err)
		i.recordFailure(ctx, workspaceID, kind, name, err)
		return nil, fmt.Errorf("importing %s: %w", kind, err)
	}

	i.logger.Info("data imported",
		"workspace_id", workspaceID,
		"source", kind,
		"rows", ds.Len(),
		"columns", len(ds.Columns),
		"duration", time.Since(start),
	)
	summary := ds.Summary()
	return &summary, nil
}

func (i *Importer) recordFailure(ctx context.Context, workspaceID string, kind dataset.SourceKind, name string, cause error) {
	if i.activity == nil {
		return
	}
	details, _ := json.Marshal(map[string]string{"source": string(kind), "name": name, "error": cause.Error()})
	entry := &activity.ActivityEntry{
		ActivityType: activity.TypeImportFailed,
		Summary:      fmt.Sprintf("%s import failed", kind),
		Details:      string(details),
	}
	if err := i.activity.LogActivity(ctx, workspaceID, entry); err != nil {
		i.logger.Warn("failed to log activity", "workspace_id", workspaceID, "error", err)
	}
}
