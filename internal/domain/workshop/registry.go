package workshop

import (
	"strconv"
	"strings"
	"time"

	"github.com/rpggio/easybi/internal/domain/chart"
)

// New returns the initial workspace: one sheet, active, with no settings.
func New(id string, now time.Time) *Workspace {
	return &Workspace{
		ID:        id,
		Sheets:    []Sheet{{ID: FirstSheetID, Label: FirstSheetLabel}},
		ActiveTab: FirstSheetID,
		Settings:  make(map[string]chart.Settings),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// IsProtected reports whether the tab can never be closed.
func IsProtected(id string) bool {
	return id == DataSourceTabID || id == FirstSheetID
}

// Sheet returns the sheet with the given id.
func (w *Workspace) Sheet(id string) (Sheet, bool) {
	for _, sh := range w.Sheets {
		if sh.ID == id {
			return sh, true
		}
	}
	return Sheet{}, false
}

// HasTab reports whether id names a sheet or one of the fixed entries.
func (w *Workspace) HasTab(id string) bool {
	if id == DataSourceTabID || id == AddTabID {
		return true
	}
	_, ok := w.Sheet(id)
	return ok
}

// NextLabel returns the label for a new sheet: sheetN where N is one more
// than the number of sheets labelled with the sheet prefix.
func (w *Workspace) NextLabel() string {
	n := 0
	for _, sh := range w.Sheets {
		if strings.HasPrefix(sh.Label, sheetLabelPrefix) {
			n++
		}
	}
	return sheetLabelPrefix + strconv.Itoa(n+1)
}

// AddSheet appends a sheet and makes it active. newID must return a fresh
// random token; it is called again while the derived id collides.
func (w *Workspace) AddSheet(newID func() string) Sheet {
	id := sheetIDPrefix + shortID(newID())
	for w.HasTab(id) {
		id = sheetIDPrefix + shortID(newID())
	}
	sh := Sheet{ID: id, Label: w.NextLabel()}
	w.Sheets = append(w.Sheets, sh)
	w.ActiveTab = sh.ID
	return sh
}

// CloseSheet removes a sheet. Protected and unknown ids are ignored and
// report false. Closing the active sheet activates the first remaining sheet,
// or the add entry when none remain.
func (w *Workspace) CloseSheet(id string) bool {
	if IsProtected(id) {
		return false
	}
	idx := -1
	for i, sh := range w.Sheets {
		if sh.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return false
	}

	w.Sheets = append(w.Sheets[:idx:idx], w.Sheets[idx+1:]...)
	delete(w.Settings, id)

	if w.ActiveTab == id {
		if len(w.Sheets) > 0 {
			w.ActiveTab = w.Sheets[0].ID
		} else {
			w.ActiveTab = AddTabID
		}
	}
	return true
}

// Activate moves the active pointer. Activating the add entry creates a sheet,
// which is returned.
func (w *Workspace) Activate(id string, newID func() string) (*Sheet, error) {
	switch {
	case id == AddTabID:
		sh := w.AddSheet(newID)
		return &sh, nil
	case w.HasTab(id):
		w.ActiveTab = id
		return nil, nil
	default:
		return nil, ErrTabNotFound
	}
}

// Tabs returns the tab bar in display order: data source, sheets, add entry.
func (w *Workspace) Tabs() []Tab {
	tabs := make([]Tab, 0, len(w.Sheets)+2)
	tabs = append(tabs, Tab{
		ID:     DataSourceTabID,
		Label:  DataSourceLabel,
		Kind:   TabDataSource,
		Active: w.ActiveTab == DataSourceTabID,
	})
	for _, sh := range w.Sheets {
		tabs = append(tabs, Tab{
			ID:       sh.ID,
			Label:    sh.Label,
			Kind:     TabSheet,
			Closable: !IsProtected(sh.ID),
			Active:   w.ActiveTab == sh.ID,
		})
	}
	tabs = append(tabs, Tab{
		ID:     AddTabID,
		Label:  AddTabLabel,
		Kind:   TabAdd,
		Active: w.ActiveTab == AddTabID,
	})
	return tabs
}

// Clone returns a deep copy of the workspace.
func (w *Workspace) Clone() *Workspace {
	c := *w
	c.Sheets = append([]Sheet(nil), w.Sheets...)
	c.Settings = make(map[string]chart.Settings, len(w.Settings))
	for k, v := range w.Settings {
		if v.Filter != nil {
			f := *v.Filter
			v.Filter = &f
		}
		c.Settings[k] = v
	}
	return &c
}

func shortID(token string) string {
	token = strings.ReplaceAll(token, "-", "")
	if len(token) > 8 {
		return token[:8]
	}
	return token
}
