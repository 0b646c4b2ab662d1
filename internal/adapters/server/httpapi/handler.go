// Package httpapi provides the REST HTTP adapter for the board.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/hylla/planboard/internal/adapters/server/common"
	"github.com/hylla/planboard/internal/domain"
)

// maxRequestBodyBytes limits decoded payload size.
const maxRequestBodyBytes int64 = 4 << 20

// Handler serves the versioned API subrouter mounted under `/api/v1`.
type Handler struct {
	board common.BoardService
}

// APIError represents one structured API failure response.
type APIError struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Hint    string         `json:"hint,omitempty"`
	Context map[string]any `json:"context,omitempty"`
}

// ErrorEnvelope wraps one structured API error.
type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

// NewHandler constructs one HTTP API adapter over the board service.
func NewHandler(board common.BoardService) *Handler {
	return &Handler{board: board}
}

type selectRequest struct {
	ID string `json:"id"`
}

type searchRequest struct {
	Query string `json:"query"`
}

type filterRequest struct {
	Key string `json:"key"`
}

type visibilityRequest struct {
	Visibility string `json:"visibility"`
}

type editRequest struct {
	Title  string        `json:"title"`
	Fields domain.Fields `json:"fields"`
}

type moveRequest struct {
	TargetID string `json:"target_id"`
}

// ServeHTTP routes one versioned API request to the matching handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.board == nil {
		writeJSONError(w, http.StatusServiceUnavailable, APIError{
			Code:    "service_unavailable",
			Message: "board service is not configured",
		})
		return
	}

	path := normalizePath(r.URL.Path)
	switch path {
	case "board":
		h.route(w, r, map[string]http.HandlerFunc{http.MethodGet: h.handleBoard})
	case "document":
		h.route(w, r, map[string]http.HandlerFunc{
			http.MethodGet: h.handleDocument,
			http.MethodPut: h.handleImport,
		})
	case "document/export":
		h.route(w, r, map[string]http.HandlerFunc{http.MethodGet: h.handleExport})
	case "outline":
		h.route(w, r, map[string]http.HandlerFunc{http.MethodGet: h.handleOutline})
	case "filters":
		h.route(w, r, map[string]http.HandlerFunc{http.MethodGet: h.handleFilters})
	case "items":
		h.route(w, r, map[string]http.HandlerFunc{http.MethodPost: h.handleInsert})
	case "selection":
		h.route(w, r, map[string]http.HandlerFunc{
			http.MethodPost:   h.handleSelect,
			http.MethodDelete: h.handleClearSelection,
		})
	case "search":
		h.route(w, r, map[string]http.HandlerFunc{http.MethodPost: h.handleSearch})
	case "filter":
		h.route(w, r, map[string]http.HandlerFunc{http.MethodPost: h.handleFilter})
	case "return":
		h.route(w, r, map[string]http.HandlerFunc{http.MethodPost: h.handleReturn})
	case "visibility":
		h.route(w, r, map[string]http.HandlerFunc{http.MethodPut: h.handleVisibility})
	case "headers":
		h.route(w, r, map[string]http.HandlerFunc{http.MethodPut: h.handleHeaders})
	default:
		id, action, ok := resolveItemRoute(path)
		if !ok {
			writeJSONError(w, http.StatusNotFound, APIError{
				Code:    "not_found",
				Message: "endpoint not found",
			})
			return
		}
		switch action {
		case "":
			h.route(w, r, map[string]http.HandlerFunc{
				http.MethodPatch:  func(w http.ResponseWriter, r *http.Request) { h.handleEdit(w, r, id) },
				http.MethodDelete: func(w http.ResponseWriter, r *http.Request) { h.handleDelete(w, r, id) },
			})
		case "toggle":
			h.route(w, r, map[string]http.HandlerFunc{
				http.MethodPost: func(w http.ResponseWriter, r *http.Request) { h.handleToggle(w, r, id) },
			})
		case "move":
			h.route(w, r, map[string]http.HandlerFunc{
				http.MethodPost: func(w http.ResponseWriter, r *http.Request) { h.handleMove(w, r, id) },
			})
		}
	}
}

// route dispatches on method and answers 405 with an Allow header otherwise.
func (h *Handler) route(w http.ResponseWriter, r *http.Request, methods map[string]http.HandlerFunc) {
	if fn, ok := methods[r.Method]; ok {
		fn(w, r)
		return
	}
	allowed := make([]string, 0, len(methods))
	for _, m := range []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete} {
		if _, ok := methods[m]; ok {
			allowed = append(allowed, m)
		}
	}
	writeMethodNotAllowed(w, allowed...)
}

// handleBoard serves GET `/board`.
func (h *Handler) handleBoard(w http.ResponseWriter, r *http.Request) {
	board, err := h.board.Board(r.Context())
	writeResult(w, http.StatusOK, board, err)
}

// handleDocument serves GET `/document`.
func (h *Handler) handleDocument(w http.ResponseWriter, r *http.Request) {
	doc, err := h.board.Document(r.Context())
	writeResult(w, http.StatusOK, doc, err)
}

// handleImport serves PUT `/document?format=json|yaml` with the raw document as body.
func (h *Handler) handleImport(w http.ResponseWriter, r *http.Request) {
	reader := http.MaxBytesReader(w, r.Body, maxRequestBodyBytes)
	defer reader.Close()
	raw, err := io.ReadAll(reader)
	if err != nil {
		writeErrorFrom(w, fmt.Errorf("read request body: %w", errors.Join(common.ErrInvalidRequest, err)))
		return
	}
	counts, err := h.board.Import(r.Context(), common.ImportRequest{
		Format:  r.URL.Query().Get("format"),
		Content: string(raw),
	})
	writeResult(w, http.StatusOK, map[string]any{"counts": counts}, err)
}

// handleExport serves GET `/document/export?format=json|yaml` as a file download.
func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	payload, err := h.board.Export(r.Context(), r.URL.Query().Get("format"))
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	contentType := "application/json"
	if payload.Format != "json" {
		contentType = "application/yaml"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", payload.FileName))
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, payload.Content)
}

// handleOutline serves GET `/outline?format=text|markdown`.
func (h *Handler) handleOutline(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	outline, err := h.board.Outline(r.Context(), format)
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	contentType := "text/plain; charset=utf-8"
	if strings.HasPrefix(strings.ToLower(strings.TrimSpace(format)), "m") {
		contentType = "text/markdown; charset=utf-8"
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, outline)
}

// handleFilters serves GET `/filters`.
func (h *Handler) handleFilters(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"filters": h.board.Filters(r.Context())})
}

// handleInsert serves POST `/items`.
func (h *Handler) handleInsert(w http.ResponseWriter, r *http.Request) {
	var req common.InsertItemRequest
	if err := decodeJSONBody(r.Context(), w, r, &req); err != nil {
		writeErrorFrom(w, err)
		return
	}
	ref, err := h.board.InsertItem(r.Context(), req)
	writeResult(w, http.StatusCreated, ref, err)
}

// handleEdit serves PATCH `/items/{id}`.
func (h *Handler) handleEdit(w http.ResponseWriter, r *http.Request, id string) {
	var req editRequest
	if err := decodeJSONBody(r.Context(), w, r, &req); err != nil {
		writeErrorFrom(w, err)
		return
	}
	ref, err := h.board.EditItem(r.Context(), common.EditItemRequest{ID: id, Title: req.Title, Fields: req.Fields})
	writeResult(w, http.StatusOK, ref, err)
}

// handleDelete serves DELETE `/items/{id}`.
func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request, id string) {
	if err := h.board.DeleteItem(r.Context(), id); err != nil {
		writeErrorFrom(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleToggle serves POST `/items/{id}/toggle`.
func (h *Handler) handleToggle(w http.ResponseWriter, r *http.Request, id string) {
	ref, err := h.board.ToggleItem(r.Context(), id)
	writeResult(w, http.StatusOK, ref, err)
}

// handleMove serves POST `/items/{id}/move`.
func (h *Handler) handleMove(w http.ResponseWriter, r *http.Request, id string) {
	var req moveRequest
	if err := decodeJSONBody(r.Context(), w, r, &req); err != nil {
		writeErrorFrom(w, err)
		return
	}
	if err := h.board.MoveItem(r.Context(), common.MoveItemRequest{SourceID: id, TargetID: req.TargetID}); err != nil {
		writeErrorFrom(w, err)
		return
	}
	board, err := h.board.Board(r.Context())
	writeResult(w, http.StatusOK, board, err)
}

// handleSelect serves POST `/selection`.
func (h *Handler) handleSelect(w http.ResponseWriter, r *http.Request) {
	var req selectRequest
	if err := decodeJSONBody(r.Context(), w, r, &req); err != nil {
		writeErrorFrom(w, err)
		return
	}
	board, err := h.board.SelectItem(r.Context(), req.ID)
	writeResult(w, http.StatusOK, board, err)
}

// handleClearSelection serves DELETE `/selection`.
func (h *Handler) handleClearSelection(w http.ResponseWriter, r *http.Request) {
	board, err := h.board.ClearSelection(r.Context())
	writeResult(w, http.StatusOK, board, err)
}

// handleSearch serves POST `/search`. A blank query leaves search mode.
func (h *Handler) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := decodeOptionalJSONBody(r.Context(), w, r, &req); err != nil {
		writeErrorFrom(w, err)
		return
	}
	board, err := h.board.Search(r.Context(), req.Query)
	writeResult(w, http.StatusOK, board, err)
}

// handleFilter serves POST `/filter`.
func (h *Handler) handleFilter(w http.ResponseWriter, r *http.Request) {
	var req filterRequest
	if err := decodeOptionalJSONBody(r.Context(), w, r, &req); err != nil {
		writeErrorFrom(w, err)
		return
	}
	board, err := h.board.ApplyFilter(r.Context(), req.Key)
	writeResult(w, http.StatusOK, board, err)
}

// handleReturn serves POST `/return`.
func (h *Handler) handleReturn(w http.ResponseWriter, r *http.Request) {
	board, err := h.board.ReturnToResults(r.Context())
	writeResult(w, http.StatusOK, board, err)
}

// handleVisibility serves PUT `/visibility`.
func (h *Handler) handleVisibility(w http.ResponseWriter, r *http.Request) {
	var req visibilityRequest
	if err := decodeJSONBody(r.Context(), w, r, &req); err != nil {
		writeErrorFrom(w, err)
		return
	}
	board, err := h.board.SetVisibility(r.Context(), req.Visibility)
	writeResult(w, http.StatusOK, board, err)
}

// handleHeaders serves PUT `/headers`.
func (h *Handler) handleHeaders(w http.ResponseWriter, r *http.Request) {
	var req domain.ColumnHeaders
	if err := decodeJSONBody(r.Context(), w, r, &req); err != nil {
		writeErrorFrom(w, err)
		return
	}
	headers, err := h.board.SetHeaders(r.Context(), req)
	writeResult(w, http.StatusOK, headers, err)
}

// resolveItemRoute parses `items/{id}` and `items/{id}/{action}`.
func resolveItemRoute(path string) (string, string, bool) {
	const prefix = "items/"
	if !strings.HasPrefix(path, prefix) {
		return "", "", false
	}
	parts := strings.Split(strings.TrimPrefix(path, prefix), "/")
	id := strings.TrimSpace(parts[0])
	if id == "" {
		return "", "", false
	}
	switch len(parts) {
	case 1:
		return id, "", true
	case 2:
		if parts[1] == "toggle" || parts[1] == "move" {
			return id, parts[1], true
		}
	}
	return "", "", false
}

// normalizePath canonicalizes one request path for route matching.
func normalizePath(path string) string {
	path = strings.TrimSpace(path)
	path = strings.Trim(path, "/")
	return path
}

func writeResult(w http.ResponseWriter, statusCode int, payload any, err error) {
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	writeJSON(w, statusCode, payload)
}

// writeErrorFrom maps adapter errors into structured HTTP responses.
func writeErrorFrom(w http.ResponseWriter, err error) {
	switch {
	case err == nil:
		writeJSONError(w, http.StatusInternalServerError, APIError{
			Code:    "internal_error",
			Message: "unknown error",
		})
	case errors.Is(err, common.ErrNotFound):
		writeJSONError(w, http.StatusNotFound, APIError{
			Code:    "not_found",
			Message: err.Error(),
		})
	case errors.Is(err, common.ErrRejected):
		writeJSONError(w, http.StatusConflict, APIError{
			Code:    "rejected",
			Message: err.Error(),
			Hint:    "Select the parent first, and move items only among siblings.",
		})
	case errors.Is(err, common.ErrInvalidRequest):
		writeJSONError(w, http.StatusBadRequest, APIError{
			Code:    "invalid_request",
			Message: err.Error(),
		})
	default:
		writeJSONError(w, http.StatusInternalServerError, APIError{
			Code:    "internal_error",
			Message: err.Error(),
		})
	}
}

// writeMethodNotAllowed writes a structured 405 response with `Allow` headers.
func writeMethodNotAllowed(w http.ResponseWriter, methods ...string) {
	if len(methods) > 0 {
		w.Header().Set("Allow", strings.Join(methods, ", "))
	}
	writeJSONError(w, http.StatusMethodNotAllowed, APIError{
		Code:    "method_not_allowed",
		Message: "method not allowed",
	})
}

// writeJSONError writes one structured error envelope.
func writeJSONError(w http.ResponseWriter, statusCode int, apiErr APIError) {
	writeJSON(w, statusCode, ErrorEnvelope{Error: apiErr})
}

// writeJSON writes one JSON response envelope.
func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, fmt.Sprintf(`{"error":{"code":"encode_error","message":"%s"}}`, err.Error()), http.StatusInternalServerError)
	}
}

// decodeJSONBody decodes one required JSON request body with strict shape checks.
func decodeJSONBody(ctx context.Context, w http.ResponseWriter, r *http.Request, out any) error {
	reader := http.MaxBytesReader(w, r.Body, maxRequestBodyBytes)
	defer reader.Close()

	decoder := json.NewDecoder(reader)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(out); err != nil {
		return fmt.Errorf("decode request body: %w", errors.Join(common.ErrInvalidRequest, err))
	}
	if err := decoder.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return fmt.Errorf("decode request body: trailing content: %w", common.ErrInvalidRequest)
	}
	select {
	case <-ctx.Done():
		return fmt.Errorf("request canceled: %w", ctx.Err())
	default:
		return nil
	}
}

// decodeOptionalJSONBody decodes one optional JSON body and ignores empty payloads.
func decodeOptionalJSONBody(ctx context.Context, w http.ResponseWriter, r *http.Request, out any) error {
	reader := http.MaxBytesReader(w, r.Body, maxRequestBodyBytes)
	defer reader.Close()

	decoder := json.NewDecoder(reader)
	decoder.DisallowUnknownFields()
	err := decoder.Decode(out)
	if err == nil {
		select {
		case <-ctx.Done():
			return fmt.Errorf("request canceled: %w", ctx.Err())
		default:
			return nil
		}
	}
	if errors.Is(err, io.EOF) {
		return nil
	}
	return fmt.Errorf("decode request body: %w", errors.Join(common.ErrInvalidRequest, err))
}
