package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rpggio/easybi/internal/domain/chart"
	"github.com/rpggio/easybi/internal/domain/workshop"
	"github.com/rpggio/easybi/internal/repository"
)

var _ workshop.WorkspaceRepository = (*WorkspaceRepository)(nil)

// WorkspaceRepository implements workshop.WorkspaceRepository for SQLite
type WorkspaceRepository struct {
	db *DB
}

// NewWorkspaceRepository creates a new WorkspaceRepository
func NewWorkspaceRepository(db *DB) *WorkspaceRepository {
	return &WorkspaceRepository{db: db}
}

// Create inserts a new workspace with its sheets and settings
func (r *WorkspaceRepository) Create(ctx context.Context, ws *workshop.Workspace) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO workspaces (id, active_tab, created_at, updated_at) VALUES (?, ?, ?, ?)`,
		ws.ID, ws.ActiveTab, ws.CreatedAt, ws.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return repository.ErrConflict
		}
		return fmt.Errorf("failed to create workspace: %w", err)
	}

	if err := writeSheets(ctx, tx, ws); err != nil {
		return err
	}

	return tx.Commit()
}

// Get retrieves a workspace by ID
func (r *WorkspaceRepository) Get(ctx context.Context, id string) (*workshop.Workspace, error) {
	ws := workshop.Workspace{Settings: make(map[string]chart.Settings)}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, active_tab, created_at, updated_at FROM workspaces WHERE id = ?`, id,
	).Scan(&ws.ID, &ws.ActiveTab, &ws.CreatedAt, &ws.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get workspace: %w", err)
	}

	sheets, err := r.listSheets(ctx, id)
	if err != nil {
		return nil, err
	}
	ws.Sheets = sheets

	if err := r.loadSettings(ctx, &ws); err != nil {
		return nil, err
	}

	return &ws, nil
}

// Update replaces the workspace pointer, sheets and settings
func (r *WorkspaceRepository) Update(ctx context.Context, ws *workshop.Workspace) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		`UPDATE workspaces SET active_tab = ?, updated_at = ? WHERE id = ?`,
		ws.ActiveTab, ws.UpdatedAt, ws.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update workspace: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return repository.ErrNotFound
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM chart_settings WHERE workspace_id = ?`, ws.ID); err != nil {
		return fmt.Errorf("failed to clear chart settings: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM sheets WHERE workspace_id = ?`, ws.ID); err != nil {
		return fmt.Errorf("failed to clear sheets: %w", err)
	}
	if err := writeSheets(ctx, tx, ws); err != nil {
		return err
	}

	return tx.Commit()
}

func writeSheets(ctx context.Context, tx *sql.Tx, ws *workshop.Workspace) error {
	for i, sh := range ws.Sheets {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO sheets (workspace_id, id, label, position) VALUES (?, ?, ?, ?)`,
			ws.ID, sh.ID, sh.Label, i,
		)
		if err != nil {
			if isUniqueViolation(err) {
				return repository.ErrConflict
			}
			return fmt.Errorf("failed to insert sheet: %w", err)
		}
	}

	for _, sh := range ws.Sheets {
		settings, ok := ws.Settings[sh.ID]
		if !ok {
			continue
		}
		var start, end sql.NullString
		if settings.Filter != nil {
			start = nullString(settings.Filter.StartDate)
			end = nullString(settings.Filter.EndDate)
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO chart_settings (workspace_id, sheet_id, graph_type, x_axis, y_axis, start_date, end_date)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			ws.ID, sh.ID, settings.GraphType, settings.XAxis, settings.YAxis, start, end,
		)
		if err != nil {
			return fmt.Errorf("failed to insert chart settings: %w", err)
		}
	}
	return nil
}

func (r *WorkspaceRepository) listSheets(ctx context.Context, workspaceID string) ([]workshop.Sheet, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, label FROM sheets WHERE workspace_id = ? ORDER BY position`, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("failed to list sheets: %w", err)
	}
	defer rows.Close()

	sheets := []workshop.Sheet{}
	for rows.Next() {
		var sh workshop.Sheet
		if err := rows.Scan(&sh.ID, &sh.Label); err != nil {
			return nil, fmt.Errorf("failed to scan sheet: %w", err)
		}
		sheets = append(sheets, sh)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sheets: %w", err)
	}
	return sheets, nil
}

func (r *WorkspaceRepository) loadSettings(ctx context.Context, ws *workshop.Workspace) error {
	rows, err := r.db.QueryContext(ctx, `
		SELECT sheet_id, graph_type, x_axis, y_axis, start_date, end_date
		FROM chart_settings WHERE workspace_id = ?`, ws.ID)
	if err != nil {
		return fmt.Errorf("failed to load chart settings: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var sheetID string
		var settings chart.Settings
		var start, end sql.NullString
		if err := rows.Scan(&sheetID, &settings.GraphType, &settings.XAxis, &settings.YAxis, &start, &end); err != nil {
			return fmt.Errorf("failed to scan chart settings: %w", err)
		}
		if start.Valid || end.Valid {
			settings.Filter = &chart.DateFilter{StartDate: start.String, EndDate: end.String}
		}
		ws.Settings[sheetID] = settings
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating chart settings: %w", err)
	}
	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
