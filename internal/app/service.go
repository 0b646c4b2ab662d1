package app

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/hylla/planboard/internal/domain"
	"github.com/hylla/planboard/internal/mutate"
	"github.com/hylla/planboard/internal/rules"
	"github.com/hylla/planboard/internal/view"
)

// DefaultStorageKey is the key the document blob is stored under.
const DefaultStorageKey = "library-data"

// DefaultExportName is the file-name stem used when none is configured.
const DefaultExportName = "planning-board"

// ServiceConfig holds configuration for service.
type ServiceConfig struct {
	StorageKey string
	Headers    domain.ColumnHeaders
	Visibility view.Visibility
	Defaults   mutate.Defaults
	Thresholds rules.Thresholds
	ExportName string
}

// Service owns the board document, persists it, and tracks the session's view state.
// Every exported method runs under one mutex, so events are applied one at a time.
type Service struct {
	mu     sync.Mutex
	store  KeyValueStore
	log    Logger
	clock  Clock
	engine *mutate.Engine
	eval   *rules.Evaluator
	cfg    ServiceConfig

	tree  domain.Tree
	state view.State
}

// NewService constructs a Service holding an empty document. Call Load to read the persisted one.
// A nil store keeps the document in memory only.
func NewService(store KeyValueStore, idGen IDGenerator, clock Clock, logger Logger, cfg ServiceConfig) *Service {
	if clock == nil {
		clock = time.Now
	}
	if logger == nil {
		logger = nopLogger{}
	}
	if strings.TrimSpace(cfg.StorageKey) == "" {
		cfg.StorageKey = DefaultStorageKey
	}
	if strings.TrimSpace(cfg.ExportName) == "" {
		cfg.ExportName = DefaultExportName
	}
	if cfg.Defaults == (mutate.Defaults{}) {
		cfg.Defaults = mutate.DefaultDefaults()
	}
	if cfg.Thresholds == (rules.Thresholds{}) {
		cfg.Thresholds = rules.DefaultThresholds()
	}
	cfg.Headers = cfg.Headers.WithDefaults()

	return &Service{
		store:  store,
		log:    logger,
		clock:  clock,
		engine: mutate.NewEngine(mutate.IDGenerator(idGen), mutate.Clock(clock), cfg.Defaults),
		eval:   rules.NewEvaluator(clock, logger, cfg.Thresholds),
		cfg:    cfg,
		tree:   domain.NewTree(domain.NewDocument(cfg.Headers)),
		state:  view.NewState(cfg.Visibility),
	}
}

// Load reads the persisted document. A missing or unreadable blob leaves an empty board.
func (s *Service) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tree = domain.NewTree(domain.NewDocument(s.cfg.Headers))
	s.state = view.NewState(s.cfg.Visibility)
	if s.store == nil {
		return nil
	}
	raw, ok, err := s.store.Get(ctx, s.cfg.StorageKey)
	if err != nil {
		s.log.Warn("document load failed", "key", s.cfg.StorageKey, "err", err)
		return nil
	}
	if !ok {
		return nil
	}
	doc, err := decodeDocument(raw)
	if err != nil {
		s.log.Warn("stored document is unreadable", "key", s.cfg.StorageKey, "err", err)
		return nil
	}
	s.tree = domain.NewTree(doc)
	return nil
}

// Document returns the current document. Callers must not modify it.
func (s *Service) Document() domain.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tree.Document()
}

// Tree returns the current document with its id index.
func (s *Service) Tree() domain.Tree {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tree
}

// ReplaceDocument swaps in doc wholesale and persists it.
func (s *Service) ReplaceDocument(ctx context.Context, doc domain.Document) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.replace(ctx, domain.NewTree(doc))
}

// replace installs tree, reconciles the selection, and persists best effort.
// Persistence failures are logged and never roll back the in-memory document.
func (s *Service) replace(ctx context.Context, tree domain.Tree) {
	s.tree = tree
	s.state = s.state.Reconcile(tree.Index())
	if s.store == nil {
		return
	}
	raw, err := json.Marshal(tree.Document())
	if err != nil {
		s.log.Warn("document encode failed", "key", s.cfg.StorageKey, "err", err)
		return
	}
	if err := s.store.Set(ctx, s.cfg.StorageKey, raw); err != nil {
		s.log.Warn("document persist failed", "key", s.cfg.StorageKey, "err", err)
	}
}

// Reset clears the persisted document and starts over with an empty board.
func (s *Service) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.store != nil {
		if err := s.store.Clear(ctx, s.cfg.StorageKey); err != nil {
			return fmt.Errorf("clear %q: %w", s.cfg.StorageKey, err)
		}
	}
	s.tree = domain.NewTree(domain.NewDocument(s.cfg.Headers))
	s.state = view.NewState(s.cfg.Visibility)
	return nil
}

// State returns the current view state.
func (s *Service) State() view.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Columns derives the four visible lists.
func (s *Service) Columns() (view.Columns, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return view.Derive(s.tree, s.state, s.eval)
}

// Select drills into the entity with id.
func (s *Service) Select(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ref, ok := s.tree.Index().Ref(strings.TrimSpace(id))
	if !ok {
		return fmt.Errorf("select %q: %w", id, domain.ErrNotFound)
	}
	s.state = s.state.Select(ref)
	return nil
}

// ClearSelection drops the drilled-into path in Normal mode.
func (s *Service) ClearSelection() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Mode() == view.ModeNormal {
		s.state = view.NewState(s.state.Visibility())
	}
}

// SetSearchQuery enters or leaves search mode.
func (s *Service) SetSearchQuery(query string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = s.state.SetSearchQuery(query)
}

// SetFilter applies a named filter after resetting every other piece of view state.
func (s *Service) SetFilter(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	next, err := s.state.SetFilter(key)
	if err != nil {
		return err
	}
	s.state = next
	return nil
}

// ReturnToResults collapses an expanded search or filter result.
func (s *Service) ReturnToResults() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = s.state.ReturnToResults()
}

// SetVisibility changes the completion visibility.
func (s *Service) SetVisibility(v view.Visibility) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = s.state.SetVisibility(v)
}

// Filters lists the available named filters.
func (s *Service) Filters() []rules.Filter {
	return rules.Catalog()
}

// Counts tallies every entity by completion.
func (s *Service) Counts() domain.Counts {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tree.Document().Count()
}

// InsertInput holds input values for insert operations.
type InsertInput struct {
	Level  domain.Level
	Parent domain.Path
	Title  string
	Fields domain.Fields
}

// Insert appends a new entity under in.Parent and selects it. It returns the new id.
func (s *Service) Insert(ctx context.Context, in InsertInput) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.insert(ctx, in)
}

// InsertAtSelection appends a new entity under the currently selected parent.
func (s *Service) InsertAtSelection(ctx context.Context, level domain.Level, title string, fields domain.Fields) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.insert(ctx, InsertInput{
		Level:  level,
		Parent: s.state.Selection(),
		Title:  title,
		Fields: fields,
	})
}

func (s *Service) insert(ctx context.Context, in InsertInput) (string, error) {
	tree, id, err := s.engine.Insert(s.tree, in.Level, in.Parent, in.Title, in.Fields)
	if err != nil {
		s.log.Debug("mutation skipped", "op", "insert", "level", in.Level, "reason", err)
		return "", err
	}
	s.replace(ctx, tree)
	if ref, ok := tree.Index().Ref(id); ok {
		s.state = s.state.Focus(ref)
	}
	return id, nil
}

// EditFields updates the title and supplied fields of one entity.
func (s *Service) EditFields(ctx context.Context, id string, level domain.Level, title string, fields domain.Fields) error {
	return s.apply(ctx, "edit", func(tree domain.Tree) (domain.Tree, error) {
		return s.engine.EditFields(tree, id, level, title, fields)
	})
}

// ToggleCompletion flips completion on one entity and its subtree.
func (s *Service) ToggleCompletion(ctx context.Context, id string, level domain.Level) error {
	return s.apply(ctx, "toggle", func(tree domain.Tree) (domain.Tree, error) {
		return s.engine.ToggleCompletion(tree, id, level)
	})
}

// Delete removes one entity and its subtree. Selections pointing into it are cleared.
func (s *Service) Delete(ctx context.Context, id string, level domain.Level) error {
	return s.apply(ctx, "delete", func(tree domain.Tree) (domain.Tree, error) {
		return s.engine.Delete(tree, id, level)
	})
}

// Reorder moves sourceID to targetID's position among the children of parent.
func (s *Service) Reorder(ctx context.Context, level domain.Level, parent domain.Path, sourceID, targetID string) error {
	return s.apply(ctx, "reorder", func(tree domain.Tree) (domain.Tree, error) {
		return s.engine.Reorder(tree, level, parent, sourceID, targetID)
	})
}

// Move reorders two siblings, taking the level and parent from the source entity.
func (s *Service) Move(ctx context.Context, sourceID, targetID string) error {
	return s.apply(ctx, "move", func(tree domain.Tree) (domain.Tree, error) {
		ref, ok := tree.Index().Ref(sourceID)
		if !ok {
			return tree, fmt.Errorf("move %q: %w", sourceID, domain.ErrNotFound)
		}
		return s.engine.Reorder(tree, ref.Level, ref.Ancestors, sourceID, targetID)
	})
}

// SetColumnHeaders replaces the level labels.
func (s *Service) SetColumnHeaders(ctx context.Context, headers domain.ColumnHeaders) {
	_ = s.apply(ctx, "headers", func(tree domain.Tree) (domain.Tree, error) {
		return s.engine.SetColumnHeaders(tree, headers), nil
	})
}

// Lookup returns the reference for an id anywhere in the document.
func (s *Service) Lookup(id string) (domain.Ref, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ref, ok := s.tree.Index().Ref(strings.TrimSpace(id))
	if !ok {
		return domain.Ref{}, fmt.Errorf("lookup %q: %w", id, domain.ErrNotFound)
	}
	return ref, nil
}

func (s *Service) apply(ctx context.Context, op string, fn func(domain.Tree) (domain.Tree, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	tree, err := fn(s.tree)
	if err != nil {
		s.log.Debug("mutation skipped", "op", op, "reason", err)
		return err
	}
	s.replace(ctx, tree)
	return nil
}
