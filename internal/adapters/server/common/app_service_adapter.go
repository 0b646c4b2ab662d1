package common

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/hylla/planboard/internal/app"
	"github.com/hylla/planboard/internal/domain"
	"github.com/hylla/planboard/internal/rules"
	"github.com/hylla/planboard/internal/view"
)

// AppServiceAdapter maps transport contracts onto app.Service.
type AppServiceAdapter struct {
	service *app.Service
}

// NewAppServiceAdapter builds one common adapter over an app.Service instance.
func NewAppServiceAdapter(service *app.Service) *AppServiceAdapter {
	return &AppServiceAdapter{service: service}
}

var _ BoardService = (*AppServiceAdapter)(nil)

// Board derives the current columns and totals.
func (a *AppServiceAdapter) Board(context.Context) (Board, error) {
	if err := a.ready(); err != nil {
		return Board{}, err
	}
	return a.board("board")
}

// Document returns the whole current document.
func (a *AppServiceAdapter) Document(context.Context) (domain.Document, error) {
	if err := a.ready(); err != nil {
		return domain.Document{}, err
	}
	return a.service.Document(), nil
}

// Filters lists the named filter catalog.
func (a *AppServiceAdapter) Filters(context.Context) []FilterInfo {
	catalog := rules.Catalog()
	out := make([]FilterInfo, 0, len(catalog))
	for _, f := range catalog {
		info := FilterInfo{Key: f.Key, Label: f.Label}
		if f.Level.Valid() {
			info.Level = f.Level.String()
		}
		out = append(out, info)
	}
	return out
}

// InsertItem adds one entity and returns where it landed.
func (a *AppServiceAdapter) InsertItem(ctx context.Context, in InsertItemRequest) (ItemRef, error) {
	if err := a.ready(); err != nil {
		return ItemRef{}, err
	}
	level, err := domain.ParseLevel(in.Level)
	if err != nil {
		return ItemRef{}, fmt.Errorf("insert item: %w", errors.Join(ErrInvalidRequest, err))
	}

	var id string
	if in.AtSelection {
		id, err = a.service.InsertAtSelection(ctx, level, in.Title, in.Fields)
	} else {
		id, err = a.service.Insert(ctx, app.InsertInput{
			Level:  level,
			Parent: in.Parent,
			Title:  in.Title,
			Fields: in.Fields,
		})
	}
	if err != nil {
		return ItemRef{}, mapAppError("insert item", err)
	}
	return a.ref("insert item", id)
}

// EditItem updates one entity by id.
func (a *AppServiceAdapter) EditItem(ctx context.Context, in EditItemRequest) (ItemRef, error) {
	ref, err := a.lookup("edit item", in.ID)
	if err != nil {
		return ItemRef{}, err
	}
	if err := a.service.EditFields(ctx, ref.ID, ref.Level, in.Title, in.Fields); err != nil {
		return ItemRef{}, mapAppError("edit item", err)
	}
	return toItemRef(ref), nil
}

// ToggleItem flips completion on one entity and its descendants.
func (a *AppServiceAdapter) ToggleItem(ctx context.Context, id string) (ItemRef, error) {
	ref, err := a.lookup("toggle item", id)
	if err != nil {
		return ItemRef{}, err
	}
	if err := a.service.ToggleCompletion(ctx, ref.ID, ref.Level); err != nil {
		return ItemRef{}, mapAppError("toggle item", err)
	}
	return toItemRef(ref), nil
}

// DeleteItem removes one entity and its descendants.
func (a *AppServiceAdapter) DeleteItem(ctx context.Context, id string) error {
	ref, err := a.lookup("delete item", id)
	if err != nil {
		return err
	}
	return mapAppError("delete item", a.service.Delete(ctx, ref.ID, ref.Level))
}

// MoveItem reorders one entity among its siblings.
func (a *AppServiceAdapter) MoveItem(ctx context.Context, in MoveItemRequest) error {
	if err := a.ready(); err != nil {
		return err
	}
	source := strings.TrimSpace(in.SourceID)
	target := strings.TrimSpace(in.TargetID)
	if source == "" || target == "" {
		return fmt.Errorf("move item: source_id and target_id are required: %w", ErrInvalidRequest)
	}
	return mapAppError("move item", a.service.Move(ctx, source, target))
}

// SelectItem drills into one entity.
func (a *AppServiceAdapter) SelectItem(_ context.Context, id string) (Board, error) {
	if err := a.ready(); err != nil {
		return Board{}, err
	}
	if strings.TrimSpace(id) == "" {
		return Board{}, fmt.Errorf("select item: id is required: %w", ErrInvalidRequest)
	}
	if err := a.service.Select(id); err != nil {
		return Board{}, mapAppError("select item", err)
	}
	return a.board("select item")
}

// ClearSelection drops the drilled-into path.
func (a *AppServiceAdapter) ClearSelection(context.Context) (Board, error) {
	if err := a.ready(); err != nil {
		return Board{}, err
	}
	a.service.ClearSelection()
	return a.board("clear selection")
}

// Search enters search mode, or leaves it for a blank query.
func (a *AppServiceAdapter) Search(_ context.Context, query string) (Board, error) {
	if err := a.ready(); err != nil {
		return Board{}, err
	}
	a.service.SetSearchQuery(query)
	return a.board("search")
}

// ApplyFilter switches to one named filter.
func (a *AppServiceAdapter) ApplyFilter(_ context.Context, key string) (Board, error) {
	if err := a.ready(); err != nil {
		return Board{}, err
	}
	if err := a.service.SetFilter(key); err != nil {
		return Board{}, mapAppError("apply filter", err)
	}
	return a.board("apply filter")
}

// ReturnToResults collapses an expanded search or filter result.
func (a *AppServiceAdapter) ReturnToResults(context.Context) (Board, error) {
	if err := a.ready(); err != nil {
		return Board{}, err
	}
	a.service.ReturnToResults()
	return a.board("return to results")
}

// SetVisibility switches between all, active, and completed rows.
func (a *AppServiceAdapter) SetVisibility(_ context.Context, raw string) (Board, error) {
	if err := a.ready(); err != nil {
		return Board{}, err
	}
	v, err := view.ParseVisibility(raw)
	if err != nil {
		return Board{}, mapAppError("set visibility", err)
	}
	a.service.SetVisibility(v)
	return a.board("set visibility")
}

// SetHeaders updates the column labels. Blank labels keep their current value.
func (a *AppServiceAdapter) SetHeaders(ctx context.Context, in domain.ColumnHeaders) (domain.ColumnHeaders, error) {
	if err := a.ready(); err != nil {
		return domain.ColumnHeaders{}, err
	}
	current := a.service.Document().ColumnHeaders
	next := domain.ColumnHeaders{
		Goals:       pick(in.Goals, current.Goals),
		Steps:       pick(in.Steps, current.Steps),
		Tasks:       pick(in.Tasks, current.Tasks),
		Initiatives: pick(in.Initiatives, current.Initiatives),
	}
	a.service.SetColumnHeaders(ctx, next)
	return a.service.Document().ColumnHeaders, nil
}

// Outline renders the board as an indented list or markdown.
func (a *AppServiceAdapter) Outline(_ context.Context, format string) (string, error) {
	if err := a.ready(); err != nil {
		return "", err
	}
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", OutlineText:
		return a.service.Outline(), nil
	case OutlineMarkdown, "md":
		return a.service.OutlineMarkdown(), nil
	default:
		return "", fmt.Errorf("outline: unsupported format %q: %w", format, ErrInvalidRequest)
	}
}

// Export encodes the document and names the file it would be saved to.
func (a *AppServiceAdapter) Export(_ context.Context, rawFormat string) (ExportPayload, error) {
	if err := a.ready(); err != nil {
		return ExportPayload{}, err
	}
	format, err := app.ParseFormat(rawFormat)
	if err != nil {
		return ExportPayload{}, mapAppError("export", err)
	}
	content, err := a.service.Export(format)
	if err != nil {
		return ExportPayload{}, mapAppError("export", err)
	}
	return ExportPayload{
		Format:   string(format),
		FileName: a.service.ExportFileName("", format),
		Content:  string(content),
	}, nil
}

// Import replaces the document. A rejected payload leaves the board unchanged.
func (a *AppServiceAdapter) Import(ctx context.Context, in ImportRequest) (domain.Counts, error) {
	if err := a.ready(); err != nil {
		return domain.Counts{}, err
	}
	format, err := app.ParseFormat(in.Format)
	if err != nil {
		return domain.Counts{}, mapAppError("import", err)
	}
	counts, err := a.service.Import(ctx, format, []byte(in.Content))
	if err != nil {
		return domain.Counts{}, mapAppError("import", err)
	}
	return counts, nil
}

func (a *AppServiceAdapter) ready() error {
	if a == nil || a.service == nil {
		return fmt.Errorf("app service adapter is not configured: %w", ErrInvalidRequest)
	}
	return nil
}

func (a *AppServiceAdapter) board(operation string) (Board, error) {
	cols, err := a.service.Columns()
	if err != nil {
		return Board{}, mapAppError(operation, err)
	}
	return Board{Columns: cols, Counts: a.service.Counts()}, nil
}

func (a *AppServiceAdapter) lookup(operation, id string) (domain.Ref, error) {
	if err := a.ready(); err != nil {
		return domain.Ref{}, err
	}
	if strings.TrimSpace(id) == "" {
		return domain.Ref{}, fmt.Errorf("%s: id is required: %w", operation, ErrInvalidRequest)
	}
	ref, err := a.service.Lookup(id)
	if err != nil {
		return domain.Ref{}, mapAppError(operation, err)
	}
	return ref, nil
}

func (a *AppServiceAdapter) ref(operation, id string) (ItemRef, error) {
	ref, err := a.lookup(operation, id)
	if err != nil {
		return ItemRef{}, err
	}
	return toItemRef(ref), nil
}

func toItemRef(ref domain.Ref) ItemRef {
	return ItemRef{ID: ref.ID, Level: ref.Level, Ancestors: ref.Ancestors}
}

func pick(v, fallback string) string {
	if strings.TrimSpace(v) == "" {
		return fallback
	}
	return strings.TrimSpace(v)
}

// mapAppError maps app and domain errors onto transport error classes.
func mapAppError(operation string, err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, domain.ErrNotFound):
		return fmt.Errorf("%s: %w", operation, errors.Join(ErrNotFound, err))
	case errors.Is(err, domain.ErrParentNotSelected),
		errors.Is(err, domain.ErrNotSiblings):
		return fmt.Errorf("%s: %w", operation, errors.Join(ErrRejected, err))
	case errors.Is(err, domain.ErrInvalidID),
		errors.Is(err, domain.ErrInvalidTitle),
		errors.Is(err, domain.ErrInvalidLevel),
		errors.Is(err, domain.ErrInvalidDate),
		errors.Is(err, domain.ErrInvalidDocument),
		errors.Is(err, app.ErrUnsupportedFormat),
		errors.Is(err, app.ErrEmptyPayload),
		errors.Is(err, rules.ErrUnknownFilter),
		errors.Is(err, view.ErrUnknownVisibility):
		return fmt.Errorf("%s: %w", operation, errors.Join(ErrInvalidRequest, err))
	default:
		return fmt.Errorf("%s: %w", operation, err)
	}
}
