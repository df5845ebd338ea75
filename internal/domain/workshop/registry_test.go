package workshop_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/rpggio/easybi/internal/domain/chart"
	"github.com/rpggio/easybi/internal/domain/workshop"
)

func sequence(tokens ...string) func() string {
	i := 0
	return func() string {
		if i < len(tokens) {
			i++
			return tokens[i-1]
		}
		i++
		return fmt.Sprintf("%08d", i)
	}
}

func TestNew_InitialState(t *testing.T) {
	ws := workshop.New("s1", time.Unix(0, 0))

	require.Equal(t, []workshop.Sheet{{ID: "sheet-1", Label: "sheet1"}}, ws.Sheets)
	require.Equal(t, workshop.FirstSheetID, ws.ActiveTab)
	require.Empty(t, ws.Settings)
}

func TestAddSheet_LabelsAndActivates(t *testing.T) {
	ws := workshop.New("s1", time.Now())

	sh := ws.AddSheet(sequence("abcdef12-3456"))
	require.Equal(t, workshop.Sheet{ID: "tab-abcdef12", Label: "sheet2"}, sh)
	require.Equal(t, sh.ID, ws.ActiveTab)
	require.Len(t, ws.Sheets, 2)

	sh = ws.AddSheet(sequence("0badc0de"))
	require.Equal(t, "sheet3", sh.Label)
}

func TestAddSheet_RegeneratesOnCollision(t *testing.T) {
	ws := workshop.New("s1", time.Now())
	first := ws.AddSheet(sequence("aaaaaaaa"))

	second := ws.AddSheet(sequence("aaaaaaaa", "aaaaaaaa", "bbbbbbbb"))
	require.NotEqual(t, first.ID, second.ID)
	require.Equal(t, "tab-bbbbbbbb", second.ID)
}

func TestAddSheet_AlwaysGrowsWithUniqueIDs(t *testing.T) {
	ws := workshop.New("s1", time.Now())
	gen := sequence()
	seen := map[string]bool{workshop.FirstSheetID: true}

	for i := 0; i < 25; i++ {
		before := len(ws.Sheets)
		sh := ws.AddSheet(gen)
		require.Greater(t, len(ws.Sheets), before)
		require.False(t, seen[sh.ID], "duplicate id %s", sh.ID)
		seen[sh.ID] = true
	}
}

func TestCloseSheet_ProtectedIsNoop(t *testing.T) {
	ws := workshop.New("s1", time.Now())
	ws.AddSheet(sequence("11111111"))
	before := ws.Clone()

	require.False(t, ws.CloseSheet(workshop.FirstSheetID))
	require.False(t, ws.CloseSheet(workshop.DataSourceTabID))
	require.False(t, ws.CloseSheet("tab-missing"))

	if diff := cmp.Diff(before, ws); diff != "" {
		t.Fatalf("workspace changed (-before +after):\n%s", diff)
	}
}

func TestCloseSheet_ActiveFallsBackToFirstSheet(t *testing.T) {
	ws := workshop.New("s1", time.Now())
	a := ws.AddSheet(sequence("aaaaaaaa"))
	b := ws.AddSheet(sequence("bbbbbbbb"))
	ws.Settings[b.ID] = chart.Settings{GraphType: chart.Pie, XAxis: "x"}

	require.True(t, ws.CloseSheet(b.ID))
	require.Equal(t, workshop.FirstSheetID, ws.ActiveTab)
	require.NotContains(t, ws.Settings, b.ID)

	ws.ActiveTab = workshop.DataSourceTabID
	require.True(t, ws.CloseSheet(a.ID))
	require.Equal(t, workshop.DataSourceTabID, ws.ActiveTab)
}

func TestCloseSheet_LastSheetActivatesAddEntry(t *testing.T) {
	ws := &workshop.Workspace{
		Sheets:    []workshop.Sheet{{ID: "tab-only", Label: "sheet2"}},
		ActiveTab: "tab-only",
		Settings:  map[string]chart.Settings{},
	}

	require.True(t, ws.CloseSheet("tab-only"))
	require.Empty(t, ws.Sheets)
	require.Equal(t, workshop.AddTabID, ws.ActiveTab)
}

func TestActivate(t *testing.T) {
	ws := workshop.New("s1", time.Now())

	added, err := ws.Activate(workshop.DataSourceTabID, sequence())
	require.NoError(t, err)
	require.Nil(t, added)
	require.Equal(t, workshop.DataSourceTabID, ws.ActiveTab)

	added, err = ws.Activate(workshop.AddTabID, sequence("cafebabe"))
	require.NoError(t, err)
	require.NotNil(t, added)
	require.Equal(t, "tab-cafebabe", ws.ActiveTab)

	_, err = ws.Activate("tab-nope", sequence())
	require.ErrorIs(t, err, workshop.ErrTabNotFound)
	require.Equal(t, "tab-cafebabe", ws.ActiveTab)
}

func TestTabs_DisplayOrder(t *testing.T) {
	ws := workshop.New("s1", time.Now())
	sh := ws.AddSheet(sequence("deadbeef"))

	tabs := ws.Tabs()
	want := []workshop.Tab{
		{ID: workshop.DataSourceTabID, Label: "Data Source", Kind: workshop.TabDataSource},
		{ID: workshop.FirstSheetID, Label: "sheet1", Kind: workshop.TabSheet},
		{ID: sh.ID, Label: "sheet2", Kind: workshop.TabSheet, Closable: true, Active: true},
		{ID: workshop.AddTabID, Label: "+", Kind: workshop.TabAdd},
	}
	if diff := cmp.Diff(want, tabs); diff != "" {
		t.Fatalf("tabs mismatch (-want +got):\n%s", diff)
	}
}
