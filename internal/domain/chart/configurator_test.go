package chart_test

import (
	"strconv"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/rpggio/easybi/internal/domain/chart"
	"github.com/rpggio/easybi/internal/domain/dataset"
)

func gapminder() *dataset.Dataset {
	return dataset.FromRows(
		[]string{"continent", "lifeExp", "date"},
		[][]string{
			{"Asia", "60", "2020-01-01"},
			{"Europe", "75", "2020-02-01"},
			{"Asia", "70", "2020-03-01"},
			{"Europe", "79", "2020-04-01"},
			{"Africa", "n/a", "2020-05-01"},
		},
	)
}

func TestDefaults(t *testing.T) {
	require.Equal(t, chart.Settings{GraphType: chart.Histogram, XAxis: "a", YAxis: "b"}, chart.Defaults([]string{"a", "b", "c"}))
	require.Equal(t, chart.Settings{GraphType: chart.Histogram, XAxis: "a"}, chart.Defaults([]string{"a"}))
}

func TestResolve_FallsBackForMissingColumns(t *testing.T) {
	ds := gapminder()

	resolved := chart.Resolve(&chart.Settings{GraphType: chart.Line, XAxis: "gone", YAxis: "lifeExp"}, ds)
	require.Equal(t, chart.Line, resolved.GraphType)
	require.Equal(t, "continent", resolved.XAxis)
	require.Equal(t, "lifeExp", resolved.YAxis)

	require.Equal(t, chart.Defaults(ds.Columns), chart.Resolve(nil, ds))
}

func TestConfigure_HistogramAveragesPerCategory(t *testing.T) {
	c := chart.NewConfigurator(nil)

	result, err := c.Configure(gapminder(), chart.Settings{GraphType: chart.Histogram, XAxis: "continent", YAxis: "lifeExp"})
	require.NoError(t, err)
	require.True(t, result.Changed)

	want := []chart.Bar{
		{Label: "Asia", Value: 65, Count: 2},
		{Label: "Europe", Value: 77, Count: 2},
	}
	if diff := cmp.Diff(want, result.Figure.Bars); diff != "" {
		t.Fatalf("bars mismatch (-want +got):\n%s", diff)
	}
	require.Equal(t, "Histogram of continent", result.Figure.Title)
}

func TestConfigure_UnknownColumnDeclines(t *testing.T) {
	c := chart.NewConfigurator(nil)

	result, err := c.Configure(gapminder(), chart.Settings{GraphType: chart.Scatter, XAxis: "continent", YAxis: "gdp"})
	require.NoError(t, err)
	require.False(t, result.Changed)
	require.Equal(t, chart.ReasonUnknownColumn, result.Reason)
	require.Nil(t, result.Figure)

	result, err = c.Configure(gapminder(), chart.Settings{GraphType: chart.Pie, XAxis: "country"})
	require.NoError(t, err)
	require.False(t, result.Changed)
}

func TestConfigure_NoData(t *testing.T) {
	c := chart.NewConfigurator(nil)

	result, err := c.Configure(nil, chart.Settings{XAxis: "a", YAxis: "b"})
	require.NoError(t, err)
	require.False(t, result.Changed)
	require.Equal(t, chart.ReasonNoData, result.Reason)
}

func TestConfigure_InvalidGraphType(t *testing.T) {
	c := chart.NewConfigurator(nil)

	_, err := c.Configure(gapminder(), chart.Settings{GraphType: "radar", XAxis: "continent"})
	require.ErrorIs(t, err, chart.ErrInvalidGraphType)
}

func TestConfigure_PieWithoutYCounts(t *testing.T) {
	c := chart.NewConfigurator(nil)

	result, err := c.Configure(gapminder(), chart.Settings{GraphType: chart.Pie, XAxis: "continent"})
	require.NoError(t, err)
	require.True(t, result.Changed)
	require.Equal(t, []chart.Slice{
		{Label: "Asia", Value: 2},
		{Label: "Europe", Value: 2},
		{Label: "Africa", Value: 1},
	}, result.Figure.Slices)
}

func TestConfigure_DateFilterAppliedBeforeBuild(t *testing.T) {
	c := chart.NewConfigurator(nil)

	result, err := c.Configure(gapminder(), chart.Settings{
		GraphType: chart.Histogram,
		XAxis:     "continent",
		YAxis:     "lifeExp",
		Filter:    &chart.DateFilter{StartDate: "2020-01-01", EndDate: "2020-02-01"},
	})
	require.NoError(t, err)
	require.True(t, result.Changed)
	require.Equal(t, []chart.Bar{
		{Label: "Asia", Value: 60, Count: 1},
		{Label: "Europe", Value: 75, Count: 1},
	}, result.Figure.Bars)
}

func TestConfigure_DateFilterWithoutDateColumnWarns(t *testing.T) {
	c := chart.NewConfigurator(nil)
	ds := dataset.FromRows([]string{"x", "y"}, [][]string{{"1", "2"}, {"2", "4"}})

	result, err := c.Configure(ds, chart.Settings{
		GraphType: chart.Line,
		XAxis:     "x",
		YAxis:     "y",
		Filter:    &chart.DateFilter{StartDate: "2020-01-01", EndDate: "2020-02-01"},
	})
	require.NoError(t, err)
	require.True(t, result.Changed)
	require.Len(t, result.Warnings, 1)
	require.Len(t, result.Figure.Points, 2)
}

func TestConfigure_SkipsNonFiniteValues(t *testing.T) {
	c := chart.NewConfigurator(nil)
	ds := dataset.FromRows([]string{"continent", "lifeExp"}, [][]string{
		{"Asia", "NaN"},
		{"Europe", "80"},
		{"Africa", "Inf"},
	})

	result, err := c.Configure(ds, chart.Settings{GraphType: chart.Histogram, XAxis: "continent", YAxis: "lifeExp"})
	require.NoError(t, err)
	require.Equal(t, []chart.Bar{{Label: "Europe", Value: 80, Count: 1}}, result.Figure.Bars)

	result, err = c.Configure(ds, chart.Settings{GraphType: chart.Scatter, XAxis: "continent", YAxis: "lifeExp"})
	require.NoError(t, err)
	require.Len(t, result.Figure.Points, 1)
	require.Equal(t, 80.0, result.Figure.Points[0].Y)
}

func TestConfigure_LineOrdersByX(t *testing.T) {
	c := chart.NewConfigurator(nil)
	ds := dataset.FromRows([]string{"x", "y"}, [][]string{{"3", "30"}, {"1", "10"}, {"2", "20"}})

	result, err := c.Configure(ds, chart.Settings{GraphType: chart.Line, XAxis: "x", YAxis: "y"})
	require.NoError(t, err)
	require.Equal(t, chart.XNumeric, result.Figure.XKind)
	require.Equal(t, []chart.Point{{X: 1, Y: 10}, {X: 2, Y: 20}, {X: 3, Y: 30}}, result.Figure.Points)
}

func TestConfigure_ScatterOverDates(t *testing.T) {
	c := chart.NewConfigurator(nil)

	result, err := c.Configure(gapminder(), chart.Settings{GraphType: chart.Scatter, XAxis: "date", YAxis: "lifeExp"})
	require.NoError(t, err)
	require.Equal(t, chart.XTime, result.Figure.XKind)
	require.Len(t, result.Figure.Points, 4)
	require.Equal(t, "2020-01-01", result.Figure.Points[0].Label)
}

func TestConfigure_WideNumericXIsBinned(t *testing.T) {
	c := chart.NewConfigurator(nil)
	rows := make([][]string, 0, 100)
	for i := 0; i < 100; i++ {
		rows = append(rows, []string{strconv.Itoa(i), "1"})
	}
	ds := dataset.FromRows([]string{"x", "y"}, rows)

	result, err := c.Configure(ds, chart.Settings{GraphType: chart.Histogram, XAxis: "x", YAxis: "y"})
	require.NoError(t, err)
	require.Len(t, result.Figure.Bars, 10)
	total := 0
	for _, bar := range result.Figure.Bars {
		total += bar.Count
	}
	require.Equal(t, 100, total)
}

func TestParseGraphType(t *testing.T) {
	g, err := chart.ParseGraphType(" Pie ")
	require.NoError(t, err)
	require.Equal(t, chart.Pie, g)

	g, err = chart.ParseGraphType("")
	require.NoError(t, err)
	require.Equal(t, chart.Histogram, g)

	_, err = chart.ParseGraphType("bubble")
	require.ErrorIs(t, err, chart.ErrInvalidGraphType)
}
