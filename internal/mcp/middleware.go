package mcp

import (
	"context"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// DefaultSession is the workspace used by MCP clients that do not pick one.
const DefaultSession = "mcp"

type contextKey int

const workspaceIDKey contextKey = iota

// getWorkspaceID extracts the workspace chosen by the middleware.
func getWorkspaceID(ctx context.Context) string {
	v, _ := ctx.Value(workspaceIDKey).(string)
	return v
}

// workspaceFor prefers an explicit tool argument over the request default.
func workspaceFor(ctx context.Context, explicit string) string {
	if explicit != "" {
		return explicit
	}
	if id := getWorkspaceID(ctx); id != "" {
		return id
	}
	return DefaultSession
}

// sessionMiddleware resolves the workspace from _meta.session_id, falling back to defaultSession.
func sessionMiddleware(defaultSession string) sdkmcp.Middleware {
	return func(next sdkmcp.MethodHandler) sdkmcp.MethodHandler {
		return func(ctx context.Context, method string, req sdkmcp.Request) (sdkmcp.Result, error) {
			workspaceID := defaultSession

			// Some notifications carry nil params behind a non-nil interface.
			if params := safeParams(req); params != nil {
				func() {
					defer func() { recover() }()
					if p, ok := params.(sdkmcp.Params); ok {
						if meta := p.GetMeta(); meta != nil {
							if sid, ok := meta["session_id"].(string); ok && sid != "" {
								workspaceID = sid
							}
						}
					}
				}()
			}

			ctx = context.WithValue(ctx, workspaceIDKey, workspaceID)
			return next(ctx, method, req)
		}
	}
}
