package ingest_test

import (
	"context"
	"database/sql"
	"encoding/base64"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	_ "modernc.org/sqlite"

	"github.com/rpggio/easybi/internal/domain/activity"
	"github.com/rpggio/easybi/internal/domain/dataset"
	"github.com/rpggio/easybi/internal/ingest"
	"github.com/rpggio/easybi/internal/repository/mocks"
)

type memStore struct {
	mu   sync.Mutex
	data map[string]*dataset.Dataset
	err  error
}

func (m *memStore) ReplaceDataset(_ context.Context, workspaceID string, ds *dataset.Dataset) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	if m.data == nil {
		m.data = map[string]*dataset.Dataset{}
	}
	m.data[workspaceID] = ds
	return nil
}

func (m *memStore) get(id string) *dataset.Dataset {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data[id]
}

const gapminderCSV = "\ufeffcountry,continent,lifeExp,date\nJapan,Asia,83.1,2020-01-01\nFrance,Europe,82.5,2020-02-01\nKenya,Africa,66.7,2020-03-01\n"

func dataURL(mime string, raw []byte) string {
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(raw)
}

func TestDetectFormat(t *testing.T) {
	f, err := ingest.DetectFormat("Sales.CSV")
	require.NoError(t, err)
	require.Equal(t, ingest.FormatCSV, f)

	f, err = ingest.DetectFormat("report.xlsx")
	require.NoError(t, err)
	require.Equal(t, ingest.FormatExcel, f)

	_, err = ingest.DetectFormat("notes.txt")
	require.ErrorIs(t, err, ingest.ErrUnsupportedFormat)
}

func TestDecodeUpload(t *testing.T) {
	raw, err := ingest.DecodeUpload(dataURL("text/csv", []byte("a,b\n1,2\n")))
	require.NoError(t, err)
	require.Equal(t, "a,b\n1,2\n", string(raw))

	raw, err = ingest.DecodeUpload(base64.StdEncoding.EncodeToString([]byte("x")))
	require.NoError(t, err)
	require.Equal(t, "x", string(raw))

	_, err = ingest.DecodeUpload("data:text/csv;base64,%%%")
	require.ErrorIs(t, err, ingest.ErrInvalidPayload)
	_, err = ingest.DecodeUpload("")
	require.ErrorIs(t, err, ingest.ErrInvalidPayload)
}

func TestParseCSV(t *testing.T) {
	ds, err := ingest.ParseCSV(strings.NewReader(gapminderCSV), 0)
	require.NoError(t, err)
	require.Equal(t, []string{"country", "continent", "lifeExp", "date"}, ds.Columns)
	require.Equal(t, 3, ds.Len())
	require.Equal(t, 83.1, ds.Rows[0]["lifeExp"])

	ds, err = ingest.ParseCSV(strings.NewReader(gapminderCSV), 3)
	require.NoError(t, err)
	require.Equal(t, 3, ds.Len())

	_, err = ingest.ParseCSV(strings.NewReader(gapminderCSV), 2)
	require.ErrorIs(t, err, ingest.ErrTooLarge)

	_, err = ingest.ParseCSV(strings.NewReader(""), 0)
	require.ErrorIs(t, err, ingest.ErrEmptyData)
}

func TestImportFile_CSVReadBack(t *testing.T) {
	store := &memStore{}
	imp := ingest.NewImporter(store, nil, ingest.Options{}, nil)

	summary, err := imp.ImportFile(context.Background(), "w1", ingest.FileUpload{
		Filename: "gapminder.csv",
		Contents: dataURL("text/csv", []byte(gapminderCSV)),
	})
	require.NoError(t, err)
	require.Equal(t, 3, summary.RowCount)
	require.Equal(t, dataset.SourceFile, summary.Source.Kind)

	stored := store.get("w1")
	require.NotNil(t, stored)
	require.Equal(t, summary.Columns, stored.Columns)
	require.Equal(t, "gapminder.csv", stored.Source.Name)
}

func TestImportFile_Excel(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]any{"continent", "lifeExp"}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]any{"Asia", 60}))
	require.NoError(t, f.SetSheetRow(sheet, "A3", &[]any{"Europe", 75.5}))
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	require.NoError(t, f.Close())

	store := &memStore{}
	imp := ingest.NewImporter(store, nil, ingest.Options{}, nil)
	summary, err := imp.ImportFile(context.Background(), "w1", ingest.FileUpload{
		Filename: "life.xlsx",
		Contents: dataURL("application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes()),
	})
	require.NoError(t, err)
	require.Equal(t, []string{"continent", "lifeExp"}, summary.Columns)
	require.Equal(t, 2, summary.RowCount)

	stored := store.get("w1")
	require.Equal(t, int64(60), stored.Rows[0]["lifeExp"])
	require.Equal(t, 75.5, stored.Rows[1]["lifeExp"])
}

func TestImportFile_OverRowLimit(t *testing.T) {
	store := &memStore{}
	imp := ingest.NewImporter(store, nil, ingest.Options{MaxRows: 3}, nil)

	csv := "n\n1\n2\n3\n4\n5\n"
	_, err := imp.ImportFile(context.Background(), "w1", ingest.FileUpload{
		Filename: "five.csv",
		Contents: dataURL("text/csv", []byte(csv)),
	})
	require.ErrorIs(t, err, ingest.ErrTooLarge)
	require.Nil(t, store.get("w1"))

	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]any{"n"}))
	for i := 1; i <= 5; i++ {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetCellValue(sheet, cell, i))
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	require.NoError(t, f.Close())

	_, err = imp.ImportFile(context.Background(), "w1", ingest.FileUpload{
		Filename: "five.xlsx",
		Contents: dataURL("application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes()),
	})
	require.ErrorIs(t, err, ingest.ErrTooLarge)
	require.Nil(t, store.get("w1"))
}

func TestImportFile_FailureLeavesStoreAndLogsActivity(t *testing.T) {
	ctx := context.Background()
	store := &memStore{}
	logger := &mocks.ActivityLogger{}
	logger.On("LogActivity", ctx, "w1", mock.MatchedBy(func(e *activity.ActivityEntry) bool {
		return e.ActivityType == activity.TypeImportFailed
	})).Return(nil).Once()

	imp := ingest.NewImporter(store, logger, ingest.Options{}, nil)
	_, err := imp.ImportFile(ctx, "w1", ingest.FileUpload{Filename: "notes.txt", Contents: "aGVsbG8="})
	require.ErrorIs(t, err, ingest.ErrUnsupportedFormat)
	require.Nil(t, store.get("w1"))
	logger.AssertExpectations(t)
}

func TestImportFile_StoreErrorPropagates(t *testing.T) {
	boom := errors.New("disk full")
	imp := ingest.NewImporter(&memStore{err: boom}, nil, ingest.Options{}, nil)

	_, err := imp.ImportFile(context.Background(), "w1", ingest.FileUpload{
		Filename: "a.csv",
		Contents: dataURL("text/csv", []byte("a\n1\n")),
	})
	require.ErrorIs(t, err, boom)
}

func TestImportURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/gapminder.csv" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/csv")
		_, _ = w.Write([]byte(gapminderCSV))
	}))
	defer srv.Close()

	store := &memStore{}
	imp := ingest.NewImporter(store, nil, ingest.Options{AllowPrivateHosts: true}, nil)

	summary, err := imp.ImportURL(context.Background(), "w1", srv.URL+"/gapminder.csv")
	require.NoError(t, err)
	require.Equal(t, 3, summary.RowCount)
	require.Equal(t, dataset.SourceURL, store.get("w1").Source.Kind)

	_, err = imp.ImportURL(context.Background(), "w1", srv.URL+"/missing.csv")
	require.ErrorIs(t, err, ingest.ErrFetchFailed)
	require.Equal(t, 3, store.get("w1").Len())
}

func TestImportURL_Guarded(t *testing.T) {
	imp := ingest.NewImporter(&memStore{}, nil, ingest.Options{}, nil)

	_, err := imp.ImportURL(context.Background(), "w1", "http://127.0.0.1:8080/data.csv")
	require.ErrorIs(t, err, ingest.ErrBlockedURL)

	_, err = imp.ImportURL(context.Background(), "w1", "file:///etc/passwd")
	require.ErrorIs(t, err, ingest.ErrBlockedURL)
}

func TestImportURL_SizeLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(strings.Repeat("a,b\n", 100)))
	}))
	defer srv.Close()

	imp := ingest.NewImporter(&memStore{}, nil, ingest.Options{AllowPrivateHosts: true, MaxBytes: 64}, nil)
	_, err := imp.ImportURL(context.Background(), "w1", srv.URL)
	require.ErrorIs(t, err, ingest.ErrTooLarge)
}

func TestDBParams(t *testing.T) {
	mysqlParams := ingest.DBParams{Driver: "mysql", Host: "db", User: "bi", Password: "pw", Database: "shop", Table: "orders"}
	require.NoError(t, mysqlParams.Validate())
	require.Equal(t, "bi:pw@tcp(db:3306)/shop", mysqlParams.DSN())
	require.Equal(t, "SELECT * FROM `orders` LIMIT 10", mysqlParams.SelectQuery(10))
	require.NotContains(t, mysqlParams.Redacted(), "pw")

	pg := ingest.DBParams{Driver: "postgres", Host: "db", Port: 6543, User: "bi", Password: "p@ss", Database: "shop", Table: "public.orders"}
	require.Equal(t, "postgres://bi:p%40ss@db:6543/shop", pg.DSN())
	require.Equal(t, "pgx", pg.DriverName())
	require.Equal(t, `SELECT * FROM "public"."orders"`, pg.SelectQuery(0))

	lite := ingest.DBParams{Driver: "sqlite", Database: "/data/shop.db", Table: "orders"}
	require.Equal(t, "file:/data/shop.db?mode=ro", lite.DSN())

	bad := ingest.DBParams{Driver: "mysql", Database: "shop", Table: "orders; DROP TABLE x"}
	require.ErrorIs(t, bad.Validate(), ingest.ErrInvalidTable)
	require.ErrorIs(t, ingest.DBParams{Driver: "oracle", Database: "x", Table: "t"}.Validate(), ingest.ErrUnsupportedDriver)
}

func writeShopDB(t *testing.T, path string) {
	t.Helper()
	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	_, err = db.Exec(`CREATE TABLE orders (region TEXT, amount REAL, units INTEGER)`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO orders VALUES ('north', 10.5, 3), ('south', 4.25, 1), ('north', 2.5, NULL)`)
	require.NoError(t, err)
	require.NoError(t, db.Close())
}

func TestImportDatabase_SQLite(t *testing.T) {
	dir := t.TempDir()
	writeShopDB(t, filepath.Join(dir, "shop.db"))

	store := &memStore{}
	imp := ingest.NewImporter(store, nil, ingest.Options{MaxRows: 3, SQLiteDir: dir}, nil)
	summary, err := imp.ImportDatabase(context.Background(), "w1", ingest.DBParams{Driver: "sqlite", Database: "shop.db", Table: "orders"})
	require.NoError(t, err)
	require.Equal(t, []string{"region", "amount", "units"}, summary.Columns)
	require.Equal(t, 3, summary.RowCount)

	stored := store.get("w1")
	require.Equal(t, "north", stored.Rows[0]["region"])
	require.Equal(t, 10.5, stored.Rows[0]["amount"])
	require.Equal(t, int64(3), stored.Rows[0]["units"])
	require.Nil(t, stored.Rows[2]["units"])
	require.Equal(t, dataset.SourceDatabase, stored.Source.Kind)
}

func TestImportDatabase_OverRowLimit(t *testing.T) {
	dir := t.TempDir()
	writeShopDB(t, filepath.Join(dir, "shop.db"))

	store := &memStore{}
	imp := ingest.NewImporter(store, nil, ingest.Options{MaxRows: 2, SQLiteDir: dir}, nil)
	_, err := imp.ImportDatabase(context.Background(), "w1", ingest.DBParams{Driver: "sqlite", Database: "shop.db", Table: "orders"})
	require.ErrorIs(t, err, ingest.ErrTooLarge)
	require.Nil(t, store.get("w1"))
}

func TestImportDatabase_SQLitePathRestrictions(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	dir := filepath.Join(root, "imports")
	require.NoError(t, os.Mkdir(dir, 0o755))
	writeShopDB(t, filepath.Join(dir, "shop.db"))
	writeShopDB(t, filepath.Join(dir, "easybi.db"))
	writeShopDB(t, filepath.Join(root, "outside.db"))

	opts := ingest.Options{SQLiteDir: dir, DenyPaths: []string{filepath.Join(dir, "easybi.db")}}

	tests := []struct {
		name     string
		opts     ingest.Options
		database string
	}{
		{name: "service database", opts: opts, database: "easybi.db"},
		{name: "service database via absolute path", opts: opts, database: filepath.Join(dir, "easybi.db")},
		{name: "parent escape", opts: opts, database: "../outside.db"},
		{name: "absolute path outside dir", opts: opts, database: filepath.Join(root, "outside.db")},
		{name: "missing file", opts: opts, database: "nope.db"},
		{name: "directory", opts: opts, database: "."},
		{name: "uri parameters", opts: opts, database: "shop.db?mode=rwc"},
		{name: "disabled without dir", opts: ingest.Options{}, database: filepath.Join(dir, "shop.db")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &memStore{}
			imp := ingest.NewImporter(store, nil, tt.opts, nil)
			_, err := imp.ImportDatabase(ctx, "w1", ingest.DBParams{Driver: "sqlite", Database: tt.database, Table: "orders"})
			require.ErrorIs(t, err, ingest.ErrPathNotAllowed)
			require.Nil(t, store.get("w1"))
		})
	}

	_, err := os.Stat(filepath.Join(dir, "nope.db"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestImportDatabase_SQLiteReadOnly(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "shop.db")
	writeShopDB(t, path)

	var dsn string
	imp := ingest.NewImporter(&memStore{}, nil, ingest.Options{SQLiteDir: dir}, nil).
		WithOpenFunc(func(driver, d string) (*sql.DB, error) {
			dsn = d
			return sql.Open(driver, d)
		})
	_, err := imp.ImportDatabase(context.Background(), "w1", ingest.DBParams{Driver: "sqlite", Database: "/shop.db", Table: "orders"})
	require.NoError(t, err)

	resolved, err := filepath.EvalSymlinks(path)
	require.NoError(t, err)
	require.Equal(t, "file:"+resolved+"?mode=ro", dsn)
}

func TestImportDatabase_OpenFailure(t *testing.T) {
	boom := errors.New("refused")
	imp := ingest.NewImporter(&memStore{}, nil, ingest.Options{}, nil).
		WithOpenFunc(func(string, string) (*sql.DB, error) { return nil, boom })

	_, err := imp.ImportDatabase(context.Background(), "w1", ingest.DBParams{Driver: "mysql", Database: "d", Table: "t"})
	require.ErrorIs(t, err, boom)
}
