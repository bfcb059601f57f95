package mcp

import (
	"context"
	"database/sql"
	"sort"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/hpungsan/pantry/internal/config"
)

// toolEntry pairs a tool definition with a handler factory.
type toolEntry struct {
	def     mcp.Tool
	handler func(*Handlers) server.ToolHandlerFunc
}

// toolRegistry maps tool names to their definitions and handler factories.
var toolRegistry = map[string]toolEntry{
	"ingredients_validate": {
		def:     validateToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleValidate },
	},
	"inventory_propose": {
		def:     proposeToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandlePropose },
	},
	"inventory_confirm": {
		def:     confirmToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleConfirm },
	},
	"inventory_list": {
		def:     inventoryListToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleInventoryList },
	},
	"inventory_set": {
		def:     inventorySetToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleInventorySet },
	},
	"inventory_delete": {
		def:     inventoryDeleteToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleInventoryDelete },
	},
	"unrecognized_resolve": {
		def:     resolveToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleResolve },
	},
	"recipes_apply": {
		def:     recipesApplyToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleRecipesApply },
	},
	"recipes_session_apply": {
		def:     sessionApplyToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleSessionApply },
	},
	"recipes_list": {
		def:     recipesListToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleRecipesList },
	},
	"recipes_get": {
		def:     recipesGetToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleRecipesGet },
	},
}

// AllToolNames returns every valid tool name, sorted.
func AllToolNames() []string {
	names := make([]string, 0, len(toolRegistry))
	for name := range toolRegistry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ValidateDisabledTools returns a list of unknown tool names from the given list.
func ValidateDisabledTools(names []string) []string {
	unknown := make([]string, 0)
	for _, name := range names {
		if _, ok := toolRegistry[name]; !ok {
			unknown = append(unknown, name)
		}
	}
	return unknown
}

// NewServer creates a new MCP server with the pantry tools registered.
// Tools listed in cfg.DisabledTools are excluded from registration.
func NewServer(db *sql.DB, cfg *config.Config, logger *zap.Logger, version string) *server.MCPServer {
	s := server.NewMCPServer(
		"pantry",
		version,
		server.WithToolCapabilities(true),
	)

	h := NewHandlers(db, cfg, logger)

	disabled := make(map[string]bool, len(cfg.DisabledTools))
	for _, name := range cfg.DisabledTools {
		disabled[name] = true
	}

	for name, entry := range toolRegistry {
		if disabled[name] {
			continue
		}
		s.AddTool(entry.def, h.logged(name, entry.handler(h)))
	}

	return s
}

// Run starts the MCP server using stdio transport.
func Run(db *sql.DB, cfg *config.Config, logger *zap.Logger, version string) error {
	s := NewServer(db, cfg, logger, version)
	return server.ServeStdio(s)
}

// logged wraps a handler with one structured log line per call.
func (h *Handlers) logged(name string, next server.ToolHandlerFunc) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()
		result, err := next(ctx, req)

		fields := []zap.Field{
			zap.String("tool", name),
			zap.String("user_id", req.GetString("user_id", "")),
			zap.Duration("elapsed", time.Since(start)),
		}
		switch {
		case err != nil:
			h.log.Error("tool call failed", append(fields, zap.Error(err))...)
		case result != nil && result.IsError:
			h.log.Warn("tool call rejected", fields...)
		default:
			h.log.Info("tool call", fields...)
		}
		return result, err
	}
}
