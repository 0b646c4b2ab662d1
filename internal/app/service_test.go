package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/hylla/planboard/internal/domain"
	"github.com/hylla/planboard/internal/view"
)

type fakeStore struct {
	data   map[string][]byte
	setErr error
	sets   int
}

func newFakeStore() *fakeStore {
	return &fakeStore{data: map[string][]byte{}}
}

func (f *fakeStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	raw, ok := f.data[key]
	return raw, ok, nil
}

func (f *fakeStore) Set(_ context.Context, key string, value []byte) error {
	f.sets++
	if f.setErr != nil {
		return f.setErr
	}
	f.data[key] = append([]byte(nil), value...)
	return nil
}

func (f *fakeStore) Clear(_ context.Context, key string) error {
	delete(f.data, key)
	return nil
}

type recordingLogger struct {
	debug []string
	warn  []string
}

func (l *recordingLogger) Debug(msg any, _ ...any) { l.debug = append(l.debug, fmt.Sprint(msg)) }
func (l *recordingLogger) Warn(msg any, _ ...any)  { l.warn = append(l.warn, fmt.Sprint(msg)) }

var testNow = time.Date(2026, 2, 21, 12, 0, 0, 0, time.UTC)

func newTestService(store KeyValueStore, logger Logger) *Service {
	n := 0
	ids := func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
	return NewService(store, ids, func() time.Time { return testNow }, logger, ServiceConfig{})
}

// buildBoard inserts one goal with two steps, a task, and two initiatives.
func buildBoard(t *testing.T, svc *Service) {
	t.Helper()
	ctx := context.Background()
	steps := []struct {
		level domain.Level
		title string
	}{
		{domain.LevelGoal, "Housing"},
		{domain.LevelStep, "Intake"},
		{domain.LevelTask, "Night count"},
		{domain.LevelInitiative, "Recruit"},
		{domain.LevelInitiative, "Maps"},
	}
	for _, st := range steps {
		if _, err := svc.InsertAtSelection(ctx, st.level, st.title, domain.Fields{}); err != nil {
			t.Fatalf("InsertAtSelection(%s) error = %v", st.level, err)
		}
	}
	if err := svc.Select("id-1"); err != nil {
		t.Fatalf("Select() error = %v", err)
	}
	if _, err := svc.InsertAtSelection(ctx, domain.LevelStep, "Outreach", domain.Fields{}); err != nil {
		t.Fatalf("InsertAtSelection(step) error = %v", err)
	}
}

func TestInsertPersistsAndFocuses(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, nil)
	buildBoard(t, svc)

	if _, ok := store.data[DefaultStorageKey]; !ok {
		t.Fatal("expected document persisted under default key")
	}
	sel := svc.State().Selection()
	if sel != (domain.Path{GoalID: "id-1", StepID: "id-6"}) {
		t.Fatalf("expected focus on new step, got %#v", sel)
	}
	if got := svc.Counts(); got.All != 6 || got.Active != 6 {
		t.Fatalf("unexpected counts %#v", got)
	}
}

func TestLoadRestoresPersistedDocument(t *testing.T) {
	store := newFakeStore()
	buildBoard(t, newTestService(store, nil))

	reloaded := newTestService(store, nil)
	if err := reloaded.Load(context.Background()); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if reloaded.Counts().All != 6 {
		t.Fatalf("expected 6 entities after reload, got %d", reloaded.Counts().All)
	}
	if !reloaded.State().Selection().IsZero() {
		t.Fatal("expected fresh selection after load")
	}
}

func TestLoadUnreadableBlobStartsEmpty(t *testing.T) {
	store := newFakeStore()
	store.data[DefaultStorageKey] = []byte("{not json")
	log := &recordingLogger{}
	svc := newTestService(store, log)
	if err := svc.Load(context.Background()); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if svc.Counts().All != 0 || len(log.warn) != 1 {
		t.Fatalf("expected empty board and one warning, got %d / %#v", svc.Counts().All, log.warn)
	}
	if svc.Document().ColumnHeaders.Goals != domain.DefaultGoalsHeader {
		t.Fatal("expected default headers")
	}
}

func TestPersistFailureKeepsMemoryState(t *testing.T) {
	store := newFakeStore()
	store.setErr = errors.New("quota exceeded")
	log := &recordingLogger{}
	svc := newTestService(store, log)
	id, err := svc.Insert(context.Background(), InsertInput{Level: domain.LevelGoal, Title: "Goal"})
	if err != nil {
		t.Fatalf("Insert() error = %v", err)
	}
	if !svc.Tree().Index().Contains(id) {
		t.Fatal("expected in-memory insert despite persist failure")
	}
	if len(log.warn) != 1 || !strings.Contains(log.warn[0], "persist") {
		t.Fatalf("expected persist warning, got %#v", log.warn)
	}
}

func TestInsertWithoutParentIsNoop(t *testing.T) {
	store := newFakeStore()
	log := &recordingLogger{}
	svc := newTestService(store, log)
	_, err := svc.InsertAtSelection(context.Background(), domain.LevelTask, "orphan", domain.Fields{})
	if !errors.Is(err, domain.ErrParentNotSelected) {
		t.Fatalf("expected ErrParentNotSelected, got %v", err)
	}
	if store.sets != 0 || svc.Counts().All != 0 {
		t.Fatal("expected nothing persisted")
	}
	if len(log.debug) != 1 {
		t.Fatalf("expected one debug diagnostic, got %#v", log.debug)
	}
}

func TestDeleteClearsSelectionIntoSubtree(t *testing.T) {
	svc := newTestService(newFakeStore(), nil)
	buildBoard(t, svc)
	if err := svc.Select("id-3"); err != nil {
		t.Fatalf("Select() error = %v", err)
	}
	if err := svc.Delete(context.Background(), "id-2", domain.LevelStep); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if sel := svc.State().Selection(); sel != (domain.Path{GoalID: "id-1"}) {
		t.Fatalf("expected selection pruned to goal, got %#v", sel)
	}
	steps := svc.Document().Goals[0].Steps
	if len(steps) != 1 || steps[0].ID != "id-6" || steps[0].OrderIndex != 1 {
		t.Fatalf("unexpected remaining steps %#v", steps)
	}
	if svc.Counts().All != 2 {
		t.Fatalf("expected subtree removed, got %d entities", svc.Counts().All)
	}
}

func TestToggleAndColumns(t *testing.T) {
	svc := newTestService(newFakeStore(), nil)
	buildBoard(t, svc)
	ctx := context.Background()
	if err := svc.ToggleCompletion(ctx, "id-2", domain.LevelStep); err != nil {
		t.Fatalf("ToggleCompletion() error = %v", err)
	}
	if got := svc.Counts(); got.Completed != 4 {
		t.Fatalf("expected step subtree completed, got %#v", got)
	}
	svc.SetVisibility(view.VisibilityActive)
	if err := svc.Select("id-1"); err != nil {
		t.Fatalf("Select() error = %v", err)
	}
	cols, err := svc.Columns()
	if err != nil {
		t.Fatalf("Columns() error = %v", err)
	}
	if len(cols.Steps) != 1 || cols.Steps[0].ID != "id-6" {
		t.Fatalf("expected only the open step, got %#v", cols.Steps)
	}
}

func TestMoveUsesSourceParent(t *testing.T) {
	svc := newTestService(newFakeStore(), nil)
	buildBoard(t, svc)
	if err := svc.Move(context.Background(), "id-5", "id-4"); err != nil {
		t.Fatalf("Move() error = %v", err)
	}
	ins := svc.Document().Goals[0].Steps[0].Tasks[0].Initiatives
	if ins[0].ID != "id-5" || ins[0].OrderIndex != 1 || ins[1].OrderIndex != 2 {
		t.Fatalf("unexpected initiatives %#v", ins)
	}
	if err := svc.Move(context.Background(), "id-5", "id-6"); !errors.Is(err, domain.ErrNotSiblings) {
		t.Fatalf("expected ErrNotSiblings, got %v", err)
	}
}

func TestSearchFilterSession(t *testing.T) {
	svc := newTestService(newFakeStore(), nil)
	buildBoard(t, svc)
	svc.SetSearchQuery("maps")
	cols, err := svc.Columns()
	if err != nil {
		t.Fatalf("Columns() error = %v", err)
	}
	if cols.Mode != view.ModeSearchFlat || len(cols.Initiatives) != 1 {
		t.Fatalf("unexpected search columns %#v", cols)
	}
	if err := svc.Select(cols.Initiatives[0].ID); err != nil {
		t.Fatalf("Select() error = %v", err)
	}
	if svc.State().Mode() != view.ModeSearchHierarchy {
		t.Fatalf("expected hierarchy, got %v", svc.State().Mode())
	}
	svc.ReturnToResults()
	if err := svc.SetFilter("still-building"); err != nil {
		t.Fatalf("SetFilter() error = %v", err)
	}
	cols, err = svc.Columns()
	if err != nil {
		t.Fatalf("Columns() error = %v", err)
	}
	if cols.Mode != view.ModeFilterFlat || len(cols.Goals) != 1 {
		t.Fatalf("expected the goal to still be building, got %#v", cols.Goals)
	}
	if err := svc.SetFilter("nope"); err == nil {
		t.Fatal("expected unknown filter error")
	}
}

func TestResetClearsStore(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, nil)
	buildBoard(t, svc)
	if err := svc.Reset(context.Background()); err != nil {
		t.Fatalf("Reset() error = %v", err)
	}
	if _, ok := store.data[DefaultStorageKey]; ok {
		t.Fatal("expected stored key cleared")
	}
	if svc.Counts().All != 0 {
		t.Fatal("expected empty board")
	}
}

func TestSetColumnHeadersPersists(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, nil)
	svc.SetColumnHeaders(context.Background(), domain.ColumnHeaders{Goals: "Promises"})
	if got := svc.Document().ColumnHeaders; got.Goals != "Promises" || got.Tasks != domain.DefaultTasksHeader {
		t.Fatalf("unexpected headers %#v", got)
	}
	if !strings.Contains(string(store.data[DefaultStorageKey]), "Promises") {
		t.Fatal("expected headers persisted")
	}
}
