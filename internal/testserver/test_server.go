// Package testserver starts the full HTTP stack on an in-memory database for tests.
package testserver

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rpggio/easybi/internal/domain/activity"
	"github.com/rpggio/easybi/internal/domain/workshop"
	"github.com/rpggio/easybi/internal/ingest"
	"github.com/rpggio/easybi/internal/mcp"
	"github.com/rpggio/easybi/internal/render"
	"github.com/rpggio/easybi/internal/sqlite"
	"github.com/rpggio/easybi/internal/transport"
)

type TestServer struct {
	Server *httptest.Server
	DB     *sqlite.DB
	// Token is the bearer token required by the server; empty disables auth.
	Token string
}

// New starts a server. Remote imports may reach loopback addresses so tests
// can serve CSV files from httptest servers.
func New(t *testing.T, token string) *TestServer {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := sqlite.New(dsn)
	require.NoError(t, err)
	require.NoError(t, db.RunMigrations())

	activitySvc := activity.NewService(sqlite.NewActivityRepository(db), nil)
	workshopSvc := workshop.NewService(
		sqlite.NewWorkspaceRepository(db),
		sqlite.NewDatasetRepository(db),
		activitySvc,
		nil,
	)
	importer := ingest.NewImporter(workshopSvc, activitySvc, ingest.Options{AllowPrivateHosts: true}, nil)

	mcpServer := mcp.NewServer(mcp.Config{Services: mcp.Services{
		Workshop: workshopSvc,
		Imports:  importer,
		Activity: activitySvc,
	}})

	cfg := transport.Config{
		Services: transport.Services{
			Workshop: workshopSvc,
			Imports:  importer,
			Activity: activitySvc,
			Renderer: render.New(),
		},
		MCPHandler: mcp.NewHTTPHandler(mcpServer),
	}
	if token != "" {
		cfg.AuthMiddleware = transport.AuthMiddleware(transport.NewStaticToken(token))
	}
	server := httptest.NewServer(transport.NewServer(cfg))

	ts := &TestServer{
		Server: server,
		DB:     db,
		Token:  token,
	}

	t.Cleanup(func() {
		server.Close()
		_ = db.Close()
	})

	return ts
}

// Do sends a request in the given session. body is encoded as JSON unless nil.
func (ts *TestServer) Do(t *testing.T, sessionID, method, path string, body any) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, ts.Server.URL+path, reader)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if sessionID != "" {
		req.Header.Set(transport.SessionHeader, sessionID)
	}
	if ts.Token != "" {
		req.Header.Set("Authorization", "Bearer "+ts.Token)
	}

	resp, err := ts.Server.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

// DoJSON sends a request, checks the status and decodes the response into out.
func (ts *TestServer) DoJSON(t *testing.T, sessionID, method, path string, body any, wantStatus int, out any) {
	t.Helper()

	resp := ts.Do(t, sessionID, method, path, body)
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Equal(t, wantStatus, resp.StatusCode, string(data))
	if out != nil {
		require.NoError(t, json.Unmarshal(data, out))
	}
}
