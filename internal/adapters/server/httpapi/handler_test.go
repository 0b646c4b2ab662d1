package httpapi

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/hylla/planboard/internal/adapters/server/common"
	"github.com/hylla/planboard/internal/app"
	"github.com/hylla/planboard/internal/domain"
)

func newTestHandler(t *testing.T) *Handler {
	t.Helper()
	n := 0
	idGen := func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
	now := func() time.Time { return time.Date(2026, 2, 21, 9, 0, 0, 0, time.UTC) }
	svc := app.NewService(nil, idGen, now, nil, app.ServiceConfig{})
	return NewHandler(common.NewAppServiceAdapter(svc))
}

// do sends one request and returns the recorded response.
func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

// decodeBody decodes one JSON response body into the requested type.
func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.NewDecoder(rec.Body).Decode(&out); err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	return out
}

func TestHandlerInsertAndBoard(t *testing.T) {
	h := newTestHandler(t)

	rec := do(t, h, http.MethodPost, "/items", `{"level":"goal","title":"Open a shelter"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	goal := decodeBody[common.ItemRef](t, rec)
	if goal.ID != "id-1" || goal.Level != domain.LevelGoal {
		t.Fatalf("unexpected ref %#v", goal)
	}

	rec = do(t, h, http.MethodPost, "/items", `{"level":"step","parent":{"goalId":"id-1"},"title":"Find a site","fields":{"status":"at risk"}}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = do(t, h, http.MethodPost, "/selection", `{"id":"id-1"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	board := decodeBody[common.Board](t, rec)
	if len(board.Columns.Steps) != 1 || board.Columns.Steps[0].Status != domain.StatusAtRisk {
		t.Fatalf("unexpected steps %#v", board.Columns.Steps)
	}
	if board.Counts.All != 2 {
		t.Fatalf("unexpected counts %#v", board.Counts)
	}
}

func TestHandlerEditToggleDelete(t *testing.T) {
	h := newTestHandler(t)
	do(t, h, http.MethodPost, "/items", `{"level":"goal","title":"g"}`)

	rec := do(t, h, http.MethodPatch, "/items/id-1", `{"title":"renamed","fields":{"amount":"$5,000"}}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	rec = do(t, h, http.MethodPost, "/items/id-1/toggle", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	doc := decodeBody[domain.Document](t, do(t, h, http.MethodGet, "/document", ""))
	if doc.Goals[0].Title != "renamed" || doc.Goals[0].Amount != "$5,000" || !doc.Goals[0].Completed {
		t.Fatalf("unexpected goal %#v", doc.Goals[0])
	}

	rec = do(t, h, http.MethodDelete, "/items/id-1", "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	rec = do(t, h, http.MethodDelete, "/items/id-1", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestHandlerMoveRejectsNonSiblings(t *testing.T) {
	h := newTestHandler(t)
	do(t, h, http.MethodPost, "/items", `{"level":"goal","title":"a"}`)
	do(t, h, http.MethodPost, "/items", `{"level":"goal","title":"b"}`)
	do(t, h, http.MethodPost, "/items", `{"level":"step","parent":{"goalId":"id-1"},"title":"s"}`)

	rec := do(t, h, http.MethodPost, "/items/id-2/move", `{"target_id":"id-1"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	board := decodeBody[common.Board](t, rec)
	if board.Columns.Goals[0].ID != "id-2" {
		t.Fatalf("expected b first, got %#v", board.Columns.Goals)
	}

	rec = do(t, h, http.MethodPost, "/items/id-3/move", `{"target_id":"id-2"}`)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d: %s", rec.Code, rec.Body.String())
	}
	env := decodeBody[ErrorEnvelope](t, rec)
	if env.Error.Code != "rejected" {
		t.Fatalf("unexpected error %#v", env.Error)
	}
}

func TestHandlerSearchFilterVisibility(t *testing.T) {
	h := newTestHandler(t)
	do(t, h, http.MethodPost, "/items", `{"level":"goal","title":"Housing first"}`)

	board := decodeBody[common.Board](t, do(t, h, http.MethodPost, "/search", `{"query":"HOUSING"}`))
	if board.Columns.Query != "HOUSING" || len(board.Columns.Goals) != 1 {
		t.Fatalf("unexpected search board %#v", board.Columns)
	}
	board = decodeBody[common.Board](t, do(t, h, http.MethodPost, "/search", ""))
	if board.Columns.Query != "" {
		t.Fatalf("expected search cleared, got %q", board.Columns.Query)
	}

	rec := do(t, h, http.MethodPost, "/filter", `{"key":"bogus"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	rec = do(t, h, http.MethodPut, "/visibility", `{"visibility":"active"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	filters := decodeBody[map[string][]common.FilterInfo](t, do(t, h, http.MethodGet, "/filters", ""))
	if len(filters["filters"]) == 0 {
		t.Fatal("expected filter catalog")
	}
}

func TestHandlerExportImport(t *testing.T) {
	h := newTestHandler(t)
	do(t, h, http.MethodPost, "/items", `{"level":"goal","title":"g"}`)

	rec := do(t, h, http.MethodGet, "/document/export", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got := rec.Header().Get("Content-Disposition"); !strings.Contains(got, "planning-board-21-Feb-2026.json") {
		t.Fatalf("unexpected content disposition %q", got)
	}
	exported := rec.Body.String()

	other := newTestHandler(t)
	rec = do(t, other, http.MethodPut, "/document", exported)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	rec = do(t, other, http.MethodPut, "/document", `{"goals":"nope"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed document, got %d", rec.Code)
	}
	doc := decodeBody[domain.Document](t, do(t, other, http.MethodGet, "/document", ""))
	if len(doc.Goals) != 1 {
		t.Fatalf("expected imported document to survive bad import, got %#v", doc.Goals)
	}

	rec = do(t, other, http.MethodGet, "/outline?format=markdown", "")
	if !strings.Contains(rec.Body.String(), "## g") {
		t.Fatalf("unexpected outline %q", rec.Body.String())
	}
}

func TestHandlerRoutingErrors(t *testing.T) {
	h := newTestHandler(t)
	if rec := do(t, h, http.MethodGet, "/nope", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	rec := do(t, h, http.MethodDelete, "/board", "")
	if rec.Code != http.StatusMethodNotAllowed || rec.Header().Get("Allow") != http.MethodGet {
		t.Fatalf("expected 405 with Allow, got %d %q", rec.Code, rec.Header().Get("Allow"))
	}
	if rec := do(t, h, http.MethodPost, "/items", `{"level":"goal","bogus":1}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown field, got %d", rec.Code)
	}
	if rec := do(t, h, http.MethodPost, "/items", `{"level":"task","title":"t"}`); rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 without parent, got %d", rec.Code)
	}
}
