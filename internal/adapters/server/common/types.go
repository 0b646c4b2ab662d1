// Package common provides transport-agnostic board contracts used by the HTTP and MCP adapters.
package common

import (
	"context"
	"errors"

	"github.com/hylla/planboard/internal/domain"
	"github.com/hylla/planboard/internal/view"
)

// ErrInvalidRequest reports malformed transport input.
var ErrInvalidRequest = errors.New("invalid request")

// ErrNotFound reports ids that are not on the board.
var ErrNotFound = errors.New("not found")

// ErrRejected reports well-formed operations the board refused to apply.
var ErrRejected = errors.New("operation rejected")

// OutlineText and OutlineMarkdown name the outline renderings.
const (
	OutlineText     = "text"
	OutlineMarkdown = "markdown"
)

// Board is one rendered board snapshot: the four derived columns plus totals.
type Board struct {
	Columns view.Columns  `json:"columns"`
	Counts  domain.Counts `json:"counts"`
}

// ItemRef identifies one entity after a mutation.
type ItemRef struct {
	ID        string       `json:"id"`
	Level     domain.Level `json:"level"`
	Ancestors domain.Path  `json:"ancestors"`
}

// FilterInfo describes one named filter.
type FilterInfo struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Level string `json:"level,omitempty"`
}

// InsertItemRequest adds one entity. With AtSelection the parent comes from the
// session selection and Parent is ignored.
type InsertItemRequest struct {
	Level       string        `json:"level"`
	Parent      domain.Path   `json:"parent"`
	AtSelection bool          `json:"at_selection,omitempty"`
	Title       string        `json:"title"`
	Fields      domain.Fields `json:"fields"`
}

// EditItemRequest replaces the title and patches the supplied fields of one entity.
type EditItemRequest struct {
	ID     string        `json:"id"`
	Title  string        `json:"title"`
	Fields domain.Fields `json:"fields"`
}

// MoveItemRequest moves one entity onto a sibling's position.
type MoveItemRequest struct {
	SourceID string `json:"source_id"`
	TargetID string `json:"target_id"`
}

// ExportPayload is one encoded document ready to be written to a file.
type ExportPayload struct {
	Format   string `json:"format"`
	FileName string `json:"file_name"`
	Content  string `json:"content"`
}

// ImportRequest replaces the board with an encoded document.
type ImportRequest struct {
	Format  string `json:"format"`
	Content string `json:"content"`
}

// BoardService is the board surface shared by every transport.
type BoardService interface {
	Board(context.Context) (Board, error)
	Document(context.Context) (domain.Document, error)
	Filters(context.Context) []FilterInfo
	InsertItem(context.Context, InsertItemRequest) (ItemRef, error)
	EditItem(context.Context, EditItemRequest) (ItemRef, error)
	ToggleItem(context.Context, string) (ItemRef, error)
	DeleteItem(context.Context, string) error
	MoveItem(context.Context, MoveItemRequest) error
	SelectItem(context.Context, string) (Board, error)
	ClearSelection(context.Context) (Board, error)
	Search(context.Context, string) (Board, error)
	ApplyFilter(context.Context, string) (Board, error)
	ReturnToResults(context.Context) (Board, error)
	SetVisibility(context.Context, string) (Board, error)
	SetHeaders(context.Context, domain.ColumnHeaders) (domain.ColumnHeaders, error)
	Outline(context.Context, string) (string, error)
	Export(context.Context, string) (ExportPayload, error)
	Import(context.Context, ImportRequest) (domain.Counts, error)
}
