// Package canvas wires the graph store, render sync and interaction machine
// into one session and runs every operation on a single loop goroutine.
package canvas

import (
	"context"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"canvas-backend/application/interaction"
	"canvas-backend/application/ports"
	"canvas-backend/application/render"
	"canvas-backend/application/services"
	"canvas-backend/domain/config"
	"canvas-backend/domain/core/aggregates"
	"canvas-backend/domain/core/entities"
	"canvas-backend/domain/core/valueobjects"
	"canvas-backend/domain/geometry"
	domainservices "canvas-backend/domain/services"
	apperrors "canvas-backend/pkg/errors"
)

// EntityView is an entity plus its derived tags.
type EntityView struct {
	entities.EntityRecord
	Tags []string `json:"tags"`
}

// Options configures a Session. Zero values fall back to defaults.
type Options struct {
	Config     *config.DomainConfig
	Logger     *zap.Logger
	Metrics    ports.MetricsRecorder
	Clock      func() time.Time
	LoopBuffer int
}

// Session is one open canvas. Its methods are safe for concurrent use: each
// call is executed on the session loop.
type Session struct {
	loop    *Loop
	store   *services.GraphStore
	sync    *render.Sync
	machine *interaction.Machine
	tags    domainservices.TagExtractor

	cfg      *config.DomainConfig
	viewport Viewport
	logger   *zap.Logger
}

// NewSession loads and repairs the stored graph, renders it and starts the loop.
func NewSession(ctx context.Context, storage *services.Storage, opts Options) *Session {
	if opts.Config == nil {
		opts.Config = config.DefaultDomainConfig()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Metrics == nil {
		opts.Metrics = ports.NopMetrics{}
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}

	cfg := opts.Config
	tags := domainservices.NewDefaultTagExtractor(cfg.MaxTagsPerEntity)
	store := services.NewGraphStore(ctx, storage, cfg, opts.Logger, opts.Metrics, opts.Clock)
	scene := render.NewSync(store, tags, cfg, opts.Logger)
	scene.RenderAll()

	s := &Session{
		loop:     NewLoop(opts.LoopBuffer, opts.Logger),
		store:    store,
		sync:     scene,
		machine:  interaction.NewMachine(store, scene, cfg, opts.Logger, opts.Metrics),
		tags:     tags,
		cfg:      cfg,
		viewport: Viewport{CanvasWidth: cfg.CanvasWidth},
		logger:   opts.Logger,
	}
	s.logger.Info("Canvas session started",
		zap.Int("entities", len(store.Entities())),
		zap.Int("connections", len(store.Connections())),
	)
	return s
}

// mutate runs fn on the loop with a context that keeps ctx's values but not
// its cancellation. A mutation that has started always reaches storage.
func (s *Session) mutate(ctx context.Context, fn func(ctx context.Context)) error {
	return s.loop.Do(ctx, func() { fn(context.WithoutCancel(ctx)) })
}

// Close stops the loop. Pending deferred work is dropped.
func (s *Session) Close() {
	s.loop.Stop()
}

// CreateEntity places a new block. A nil page point uses the viewport's
// visual center, centering the block on it; an explicit point is the block's
// top-left corner. Focus moves to the new block once FocusDelay has passed.
func (s *Session) CreateEntity(ctx context.Context, dashed bool, page *geometry.Point) (EntityView, error) {
	var (
		view EntityView
		err  error
	)
	runErr := s.mutate(ctx, func(ctx context.Context) {
		var at geometry.Point
		if page != nil {
			at = s.viewport.ToCanvas(*page)
		} else {
			at = s.viewport.ToCanvas(s.viewport.VisualCenter())
			at = at.Sub(geometry.Point{X: s.cfg.DefaultEntityWidth / 2, Y: s.cfg.DefaultEntityHeight / 2})
		}

		pos, perr := valueobjects.PositionFromPoint(at)
		if perr != nil {
			err = perr
			return
		}
		e, cerr := s.store.CreateEntity(ctx, pos, dashed)
		if cerr != nil {
			err = cerr
			return
		}
		s.sync.RenderEntity(e.ID())
		s.scheduleFocus(e.ID())
		view = s.viewOf(e)
	})
	if runErr != nil {
		return EntityView{}, runErr
	}
	return view, err
}

func (s *Session) scheduleFocus(id valueobjects.EntityID) {
	s.loop.After(s.cfg.FocusDelay, func() {
		if !s.sync.HasEntity(id) {
			return
		}
		s.sync.Focus(id)
	})
}

// UpdateContent replaces a block's content and refreshes its tag badges.
func (s *Session) UpdateContent(ctx context.Context, id valueobjects.EntityID, content string) (bool, error) {
	var (
		ok  bool
		err error
	)
	runErr := s.mutate(ctx, func(ctx context.Context) {
		if limit := s.cfg.MaxContentLength; limit > 0 && utf8.RuneCountInString(content) > limit {
			err = apperrors.NewValidationError("content exceeds maximum length").
				WithCode("CONTENT_TOO_LONG").
				WithDetails(map[string]interface{}{"max": limit})
			return
		}
		if ok = s.store.UpdateEntityContent(ctx, id, content); ok {
			s.sync.UpdateContent(id)
		}
	})
	if runErr != nil {
		return false, runErr
	}
	return ok, err
}

// MoveEntity sets a block's position directly, outside any drag.
func (s *Session) MoveEntity(ctx context.Context, id valueobjects.EntityID, position valueobjects.Position) (bool, error) {
	var ok bool
	err := s.mutate(ctx, func(ctx context.Context) {
		if ok = s.store.UpdateEntityPosition(ctx, id, position); ok {
			s.sync.RenderEntity(id)
			s.sync.RedrawConnectionsFor(id)
		}
	})
	return ok, err
}

// DeleteEntity removes a block and its connections, then re-renders the scene.
func (s *Session) DeleteEntity(ctx context.Context, id valueobjects.EntityID) (bool, error) {
	var ok bool
	err := s.mutate(ctx, func(ctx context.Context) {
		ok = s.deleteEntity(ctx, id)
	})
	return ok, err
}

func (s *Session) deleteEntity(ctx context.Context, id valueobjects.EntityID) bool {
	s.machine.EntityRemoved(id)
	removed, ok := s.store.DeleteEntity(ctx, id)
	if !ok {
		return false
	}
	s.sync.RenderAll()
	s.machine.Redraw()
	s.logger.Debug("Entity deleted",
		zap.String("entityID", id.String()),
		zap.Int("connectionsRemoved", len(removed)),
	)
	return true
}

// CreateConnection links two blocks. It reports false for self loops,
// duplicate pairs and unknown endpoints.
func (s *Session) CreateConnection(ctx context.Context, source, target valueobjects.EntityID) (entities.ConnectionRecord, bool, error) {
	var (
		rec entities.ConnectionRecord
		ok  bool
	)
	err := s.mutate(ctx, func(ctx context.Context) {
		c, created := s.store.CreateConnection(ctx, source, target)
		if !created {
			return
		}
		s.sync.RenderConnection(c.ID())
		rec, ok = c.Record(), true
	})
	return rec, ok, err
}

// DeleteConnection removes a connection by id.
func (s *Session) DeleteConnection(ctx context.Context, id valueobjects.ConnectionID) (bool, error) {
	var ok bool
	err := s.mutate(ctx, func(ctx context.Context) {
		ok = s.deleteConnection(ctx, id)
	})
	return ok, err
}

func (s *Session) deleteConnection(ctx context.Context, id valueobjects.ConnectionID) bool {
	if !s.store.DeleteConnection(ctx, id) {
		return false
	}
	s.sync.RemoveConnection(id)
	return true
}

// Pointer feeds a pointer event given in page coordinates. Clicks on a delete
// control or a connection's delete affordance are handled here; everything
// else goes to the interaction machine.
func (s *Session) Pointer(ctx context.Context, kind interaction.EventKind, page geometry.Point, target *render.Target) (interaction.Result, error) {
	var res interaction.Result
	err := s.mutate(ctx, func(ctx context.Context) {
		p := s.viewport.ToCanvas(page)
		if kind == interaction.PointerDown && s.machine.State().Phase() == interaction.PhaseIdle {
			hit := s.resolve(p, target)
			if r, done := s.dispatchDelete(ctx, hit); done {
				res = r
				return
			}
		}
		res = s.machine.Handle(ctx, interaction.Event{Kind: kind, Point: p, Target: target})
	})
	return res, err
}

func (s *Session) resolve(p geometry.Point, target *render.Target) render.Target {
	if target != nil {
		return *target
	}
	return s.sync.HitTest(p)
}

func (s *Session) dispatchDelete(ctx context.Context, hit render.Target) (interaction.Result, bool) {
	res := interaction.Result{Phase: interaction.PhaseIdle, Target: hit, Handled: true}
	switch hit.Part {
	case render.PartDeleteControl:
		id, err := valueobjects.EntityIDFromString(hit.EntityID)
		if err == nil {
			res.Committed = s.deleteEntity(ctx, id)
		}
		return res, true
	case render.PartConnectionDelete:
		id, err := valueobjects.ConnectionIDFromString(hit.ConnectionID)
		if err == nil {
			res.Committed = s.deleteConnection(ctx, id)
		}
		return res, true
	default:
		return interaction.Result{}, false
	}
}

// Cancel aborts any drag in progress.
func (s *Session) Cancel(ctx context.Context) error {
	return s.loop.Do(ctx, s.machine.Cancel)
}

// SetViewport records the host's canvas placement.
func (s *Session) SetViewport(ctx context.Context, v Viewport) error {
	return s.loop.Do(ctx, func() {
		s.viewport = v
		if v.CanvasWidth > 0 {
			s.machine.SetCanvasWidth(v.CanvasWidth)
		}
	})
}

// Viewport returns the current viewport.
func (s *Session) Viewport(ctx context.Context) (Viewport, error) {
	var v Viewport
	err := s.loop.Do(ctx, func() { v = s.viewport })
	return v, err
}

// SetEntitySize applies a host-measured block size.
func (s *Session) SetEntitySize(ctx context.Context, id valueobjects.EntityID, size render.Size) (bool, error) {
	var ok bool
	err := s.loop.Do(ctx, func() { ok = s.sync.SetEntitySize(id, size) })
	return ok, err
}

// Focus moves content focus to a block.
func (s *Session) Focus(ctx context.Context, id valueobjects.EntityID) (bool, error) {
	var ok bool
	err := s.loop.Do(ctx, func() { ok = s.sync.Focus(id) })
	return ok, err
}

// Scene returns a copy of the current scene.
func (s *Session) Scene(ctx context.Context) (render.Snapshot, error) {
	var snap render.Snapshot
	err := s.loop.Do(ctx, func() { snap = s.sync.Snapshot() })
	return snap, err
}

// Entity returns one block with its tags.
func (s *Session) Entity(ctx context.Context, id valueobjects.EntityID) (EntityView, bool, error) {
	var (
		view EntityView
		ok   bool
	)
	err := s.loop.Do(ctx, func() {
		var e entities.Entity
		if e, ok = s.store.Entity(id); ok {
			view = s.viewOf(e)
		}
	})
	return view, ok, err
}

// Entities returns every block with its tags, in creation order.
func (s *Session) Entities(ctx context.Context) ([]EntityView, error) {
	var views []EntityView
	err := s.loop.Do(ctx, func() {
		all := s.store.Entities()
		views = make([]EntityView, 0, len(all))
		for _, e := range all {
			views = append(views, s.viewOf(e))
		}
	})
	return views, err
}

// Connections returns every connection in creation order.
func (s *Session) Connections(ctx context.Context) ([]entities.ConnectionRecord, error) {
	var recs []entities.ConnectionRecord
	err := s.loop.Do(ctx, func() {
		all := s.store.Connections()
		recs = make([]entities.ConnectionRecord, 0, len(all))
		for _, c := range all {
			recs = append(recs, c.Record())
		}
	})
	return recs, err
}

// Phase returns the interaction phase.
func (s *Session) Phase(ctx context.Context) (interaction.Phase, error) {
	var p interaction.Phase
	err := s.loop.Do(ctx, func() { p = s.machine.State().Phase() })
	return p, err
}

// Repair reloads the stored graph, repairs it and re-renders. Any drag is aborted.
func (s *Session) Repair(ctx context.Context) (aggregates.RepairReport, error) {
	var report aggregates.RepairReport
	err := s.mutate(ctx, func(ctx context.Context) {
		s.machine.Cancel()
		report = s.store.LoadAndRepair(ctx)
		s.sync.RenderAll()
	})
	return report, err
}

// Validate checks the graph invariants.
func (s *Session) Validate(ctx context.Context) error {
	var verr error
	if err := s.loop.Do(ctx, func() { verr = s.store.Validate() }); err != nil {
		return err
	}
	return verr
}

// ApplyConfig swaps the layout and interaction tunables. Identity prefixes
// and limits used by the graph are fixed for the session's lifetime.
func (s *Session) ApplyConfig(ctx context.Context, cfg *config.DomainConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	return s.loop.Do(ctx, func() {
		s.cfg = cfg
		s.machine.Cancel()
		s.sync.SetConfig(cfg)
		s.machine.SetConfig(cfg)
		s.logger.Info("Canvas configuration applied")
	})
}

func (s *Session) viewOf(e entities.Entity) EntityView {
	return EntityView{
		EntityRecord: e.Record(),
		Tags:         s.tags.ExtractTags(e.Content()),
	}
}
