package mcpapi

import (
	"context"

	"github.com/hylla/planboard/internal/adapters/server/common"
	"github.com/hylla/planboard/internal/domain"
	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
)

var levelNames = []string{"goal", "step", "task", "initiative"}

// registerItemTools registers insert, edit, toggle, delete, and move.
func registerItemTools(srv *mcpserver.MCPServer, board common.BoardService) {
	srv.AddTool(
		mcp.NewTool(
			toolPrefix+"insert_item",
			mcp.WithDescription("Add a goal, step, task, or initiative. Non-goal levels need a parent path or at_selection."),
			mcp.WithString("level", mcp.Required(), mcp.Description("Entity level"), mcp.Enum(levelNames...)),
			mcp.WithString("title", mcp.Description("Title; blank becomes \"New <level>\"")),
			mcp.WithObject("parent", mcp.Description("Ancestor ids: goalId, stepId, taskId")),
			mcp.WithBoolean("at_selection", mcp.Description("Insert under the current selection instead of parent")),
			mcp.WithObject("fields", mcp.Description("Level-specific fields such as startDate, status, progress, assignee, priorityLevel")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			var args common.InsertItemRequest
			if err := req.BindArguments(&args); err != nil {
				return invalidRequestToolResult(err), nil
			}
			if args.Level == "" {
				return mcp.NewToolResultError(`invalid_request: required argument "level" not found`), nil
			}
			out, err := board.InsertItem(ctx, args)
			return jsonResult("insert_item", out, err)
		},
	)

	srv.AddTool(
		mcp.NewTool(
			toolPrefix+"edit_item",
			mcp.WithDescription("Replace an entity's title and patch the supplied fields."),
			mcp.WithString("id", mcp.Required(), mcp.Description("Entity id")),
			mcp.WithString("title", mcp.Description("New title; blank keeps the current one")),
			mcp.WithObject("fields", mcp.Description("Fields to change")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			var args common.EditItemRequest
			if err := req.BindArguments(&args); err != nil {
				return invalidRequestToolResult(err), nil
			}
			if args.ID == "" {
				return mcp.NewToolResultError(`invalid_request: required argument "id" not found`), nil
			}
			out, err := board.EditItem(ctx, args)
			return jsonResult("edit_item", out, err)
		},
	)

	srv.AddTool(
		mcp.NewTool(
			toolPrefix+"toggle_item",
			mcp.WithDescription("Flip completion on an entity; goals, steps, and tasks cascade to their descendants."),
			mcp.WithString("id", mcp.Required(), mcp.Description("Entity id")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			id, err := req.RequireString("id")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			out, err := board.ToggleItem(ctx, id)
			return jsonResult("toggle_item", out, err)
		},
	)

	srv.AddTool(
		mcp.NewTool(
			toolPrefix+"delete_item",
			mcp.WithDescription("Delete an entity and everything under it."),
			mcp.WithString("id", mcp.Required(), mcp.Description("Entity id")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			id, err := req.RequireString("id")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			err = board.DeleteItem(ctx, id)
			return jsonResult("delete_item", map[string]any{"deleted": id}, err)
		},
	)

	srv.AddTool(
		mcp.NewTool(
			toolPrefix+"move_item",
			mcp.WithDescription("Move an entity onto a sibling's position under the same parent."),
			mcp.WithString("source_id", mcp.Required(), mcp.Description("Entity to move")),
			mcp.WithString("target_id", mcp.Required(), mcp.Description("Sibling whose position it takes")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			source, err := req.RequireString("source_id")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			target, err := req.RequireString("target_id")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			if err := board.MoveItem(ctx, common.MoveItemRequest{SourceID: source, TargetID: target}); err != nil {
				return toolResultFromError(err), nil
			}
			out, err := board.Board(ctx)
			return jsonResult("move_item", out, err)
		},
	)
}

// registerSessionTools registers selection, search, filter, and visibility tools.
func registerSessionTools(srv *mcpserver.MCPServer, board common.BoardService) {
	srv.AddTool(
		mcp.NewTool(
			toolPrefix+"select_item",
			mcp.WithDescription("Drill into an entity; in search or filter mode this expands the result."),
			mcp.WithString("id", mcp.Required(), mcp.Description("Entity id")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			id, err := req.RequireString("id")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			out, err := board.SelectItem(ctx, id)
			return jsonResult("select_item", out, err)
		},
	)

	srv.AddTool(
		mcp.NewTool(
			toolPrefix+"clear_selection",
			mcp.WithDescription("Drop the current selection."),
		),
		func(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			out, err := board.ClearSelection(ctx)
			return jsonResult("clear_selection", out, err)
		},
	)

	srv.AddTool(
		mcp.NewTool(
			toolPrefix+"search",
			mcp.WithDescription("Case-insensitive substring search across every level; a blank query leaves search."),
			mcp.WithString("query", mcp.Description("Search text")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			out, err := board.Search(ctx, req.GetString("query", ""))
			return jsonResult("search", out, err)
		},
	)

	srv.AddTool(
		mcp.NewTool(
			toolPrefix+"apply_filter",
			mcp.WithDescription("Apply a named filter; \"all\" returns to the normal view."),
			mcp.WithString("key", mcp.Required(), mcp.Description("Filter key from list_filters")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			key, err := req.RequireString("key")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			out, err := board.ApplyFilter(ctx, key)
			return jsonResult("apply_filter", out, err)
		},
	)

	srv.AddTool(
		mcp.NewTool(
			toolPrefix+"return_to_results",
			mcp.WithDescription("Collapse an expanded search or filter result back to the flat list."),
		),
		func(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			out, err := board.ReturnToResults(ctx)
			return jsonResult("return_to_results", out, err)
		},
	)

	srv.AddTool(
		mcp.NewTool(
			toolPrefix+"set_visibility",
			mcp.WithDescription("Show all rows, only active rows, or only completed rows."),
			mcp.WithString("visibility", mcp.Required(), mcp.Enum("all", "active", "completed")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			v, err := req.RequireString("visibility")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			out, err := board.SetVisibility(ctx, v)
			return jsonResult("set_visibility", out, err)
		},
	)
}

// registerDocumentTools registers header, export, and import tools.
func registerDocumentTools(srv *mcpserver.MCPServer, board common.BoardService) {
	srv.AddTool(
		mcp.NewTool(
			toolPrefix+"set_headers",
			mcp.WithDescription("Rename column headers; omitted headers keep their label."),
			mcp.WithString("goals"),
			mcp.WithString("steps"),
			mcp.WithString("tasks"),
			mcp.WithString("initiatives"),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			out, err := board.SetHeaders(ctx, domain.ColumnHeaders{
				Goals:       req.GetString("goals", ""),
				Steps:       req.GetString("steps", ""),
				Tasks:       req.GetString("tasks", ""),
				Initiatives: req.GetString("initiatives", ""),
			})
			return jsonResult("set_headers", out, err)
		},
	)

	srv.AddTool(
		mcp.NewTool(
			toolPrefix+"export",
			mcp.WithDescription("Encode the whole document with its suggested file name."),
			mcp.WithString("format", mcp.Enum("json", "yaml")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			out, err := board.Export(ctx, req.GetString("format", "json"))
			return jsonResult("export", out, err)
		},
	)

	srv.AddTool(
		mcp.NewTool(
			toolPrefix+"import",
			mcp.WithDescription("Replace the whole document; invalid content leaves the board unchanged."),
			mcp.WithString("content", mcp.Required(), mcp.Description("Encoded document")),
			mcp.WithString("format", mcp.Enum("json", "yaml")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			content, err := req.RequireString("content")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			counts, err := board.Import(ctx, common.ImportRequest{
				Format:  req.GetString("format", "json"),
				Content: content,
			})
			return jsonResult("import", map[string]any{"counts": counts}, err)
		},
	)
}
