package walk

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/Bera0422/WalkWays/internal/shared/geo"
)

// Config carries the tracking tuning knobs. GPS noise characteristics vary
// by device and region, so none of these are hardcoded at call sites.
type Config struct {
	RecordMinMoveM  float64
	TrackProximityM float64
	StepLengthM     float64
	BatchSize       int
	Reconciler      ReconcilePolicy
}

// Route is the pre-defined route a tracking session follows.
type Route struct {
	ID        string
	Waypoints []geo.Point
}

// Result is handed off when a session ends: a finalized draft for the
// route-authoring flow (recording) or the route reference for the feedback
// flow (tracking).
type Result struct {
	Mode    Mode        `json:"mode"`
	RouteID string      `json:"route_id,omitempty"`
	Stats   Stats       `json:"stats"`
	Draft   *RouteDraft `json:"draft,omitempty"`
}

// Controller orchestrates one device's tracking or recording session. It
// exclusively owns the Session: provider callbacks funnel through it, and
// each position update runs filter, accumulator, trail and matcher to
// completion before the next one is processed.
type Controller struct {
	mu  sync.Mutex
	cfg Config
	key string

	location   LocationProvider
	steps      StepCounter
	directions DirectionsProvider
	store      SnapshotStore

	now        func() time.Time
	onAccepted func(Waypoint, Stats)

	session *Session
	filter  *SampleFilter
	acc     *Accumulator
	matcher *ProgressMatcher
	locSub  Subscription
	stepSub Subscription
}

func NewController(cfg Config, key string, loc LocationProvider, steps StepCounter, dir DirectionsProvider, store SnapshotStore) *Controller {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	return &Controller{
		cfg:        cfg,
		key:        key,
		location:   loc,
		steps:      steps,
		directions: dir,
		store:      store,
		now:        time.Now,
	}
}

// OnAccepted registers a hook invoked for every waypoint that passes the
// sample filter, e.g. to broadcast live positions to watchers.
func (c *Controller) OnAccepted(fn func(Waypoint, Stats)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onAccepted = fn
}

// Start begins a fresh session. route is required in tracking mode and
// ignored in recording mode.
func (c *Controller) Start(ctx context.Context, mode Mode, route *Route) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.startLocked(ctx, mode, route)
}

func (c *Controller) startLocked(ctx context.Context, mode Mode, route *Route) error {
	if c.session != nil && c.session.Active {
		return ErrSessionActive
	}

	routeID := ""
	if route != nil {
		routeID = route.ID
	}

	c.session = &Session{
		Mode:      mode,
		RouteID:   routeID,
		StartedAt: c.now(),
		Trail:     NewTrail(),
		Active:    true,
	}
	c.filter = NewSampleFilter(c.minMove(mode))
	c.acc = NewAccumulator(c.cfg.StepLengthM, c.cfg.Reconciler)
	c.matcher = NewProgressMatcher(c.routeInstructions(ctx, mode, route), c.cfg.TrackProximityM)

	if err := c.subscribeLocked(); err != nil {
		c.session.Active = false
		return err
	}

	if err := c.store.Save(ctx, c.key, c.snapshotLocked()); err != nil {
		log.Printf("walk: initial snapshot save failed: %v", err)
	}
	return nil
}

// Resume restores a persisted session for the same route, or discards a
// stale snapshot and starts fresh. A snapshot for a different route is
// never merged into the requested one. Reports whether a session was
// restored.
func (c *Controller) Resume(ctx context.Context, mode Mode, route *Route) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session != nil && c.session.Active {
		return false, ErrSessionActive
	}

	routeID := ""
	if route != nil {
		routeID = route.ID
	}

	snap, found, err := c.store.Load(ctx, c.key)
	if err != nil {
		// Storage trouble must never block a walk; treat as no snapshot.
		log.Printf("walk: snapshot load failed, starting fresh: %v", err)
		found = false
	}

	if !found || !snap.Active || snap.Mode != mode || snap.RouteID != routeID {
		if found {
			if err := c.store.Clear(ctx, c.key); err != nil {
				log.Printf("walk: stale snapshot clear failed: %v", err)
			}
		}
		return false, c.startLocked(ctx, mode, route)
	}

	c.session = &Session{
		Mode:      mode,
		RouteID:   routeID,
		StartedAt: snap.StartedAt,
		DistanceM: snap.DistanceM,
		Steps:     snap.Steps,
		Trail:     NewTrail(),
		Active:    true,
	}
	c.filter = NewSampleFilter(c.minMove(mode))
	c.acc = NewAccumulator(c.cfg.StepLengthM, c.cfg.Reconciler)
	c.acc.Restore(snap.DistanceM, snap.Steps)
	c.matcher = NewProgressMatcher(c.routeInstructions(ctx, mode, route), c.cfg.TrackProximityM)

	if err := c.subscribeLocked(); err != nil {
		c.session.Active = false
		return false, err
	}
	return true, nil
}

// End tears the session down: both provider streams are unsubscribed
// before any state changes, so a late callback cannot mutate the final
// totals. The persisted snapshot is cleared and the handoff assembled.
func (c *Controller) End(ctx context.Context) (Result, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session == nil || !c.session.Active {
		return Result{}, ErrNoSession
	}

	c.unsubscribeLocked()
	c.session.Active = false

	if err := c.store.Clear(ctx, c.key); err != nil {
		log.Printf("walk: snapshot clear failed: %v", err)
	}

	stats := c.statsLocked()
	result := Result{
		Mode:    c.session.Mode,
		RouteID: c.session.RouteID,
		Stats:   stats,
	}
	if c.session.Mode == ModeRecording {
		draft := Finalize(c.session, stats.ElapsedSec)
		result.Draft = &draft
	}
	return result, nil
}

// OnBackground checkpoints the session so it can outlive the process.
// Side effect only; in-memory state is untouched.
func (c *Controller) OnBackground(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session == nil || !c.session.Active {
		return
	}
	if err := c.store.Save(ctx, c.key, c.snapshotLocked()); err != nil {
		log.Printf("walk: background snapshot save failed: %v", err)
	}
}

// OnForeground returns stats with elapsed time recomputed from the start
// timestamp, correcting for however long the process was suspended.
func (c *Controller) OnForeground() Stats {
	return c.Stats()
}

// Stats returns the current session view. Inactive controllers report a
// zero view with Active false.
func (c *Controller) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return Stats{}
	}
	return c.statsLocked()
}

// Batches exposes the trail's contiguous waypoint windows at the
// configured cap.
func (c *Controller) Batches() [][]Waypoint {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return nil
	}
	return c.session.Trail.Batches(c.cfg.BatchSize)
}

func (c *Controller) Active() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session != nil && c.session.Active
}

func (c *Controller) handlePosition(p geo.Point) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session == nil || !c.session.Active {
		return
	}

	accepted, ok := c.filter.Accept(p)
	if !ok {
		return
	}

	c.acc.OnAccepted(accepted)
	wp := c.session.Trail.Append(accepted)
	if c.session.Mode == ModeTracking {
		c.matcher.OnPosition(accepted)
	}
	c.session.DistanceM = c.acc.TotalM()

	if c.onAccepted != nil {
		c.onAccepted(wp, c.statsLocked())
	}
}

func (c *Controller) handleSteps(cumulative uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session == nil || !c.session.Active {
		return
	}
	c.acc.OnSteps(cumulative)
	c.session.Steps = c.acc.Steps()
	c.session.DistanceM = c.acc.TotalM()
}

func (c *Controller) subscribeLocked() error {
	locSub, err := c.location.WatchPosition(c.minMove(c.session.Mode), c.handlePosition)
	if err != nil {
		return err
	}
	c.locSub = locSub

	stepSub, err := c.steps.WatchSteps(c.handleSteps)
	if err != nil {
		locSub.Unsubscribe()
		c.locSub = nil
		return err
	}
	c.stepSub = stepSub
	return nil
}

func (c *Controller) unsubscribeLocked() {
	if c.locSub != nil {
		c.locSub.Unsubscribe()
		c.locSub = nil
	}
	if c.stepSub != nil {
		c.stepSub.Unsubscribe()
		c.stepSub = nil
	}
}

func (c *Controller) routeInstructions(ctx context.Context, mode Mode, route *Route) []Instruction {
	if mode != ModeTracking || route == nil || len(route.Waypoints) < 2 || c.directions == nil {
		return nil
	}

	origin := route.Waypoints[0]
	dest := route.Waypoints[len(route.Waypoints)-1]
	via := route.Waypoints[1 : len(route.Waypoints)-1]

	instructions, err := c.directions.Instructions(ctx, origin, dest, via)
	if err != nil {
		// Degraded mode: distance and trail keep working without
		// turn-by-turn text.
		log.Printf("walk: directions unavailable for route %s: %v", route.ID, err)
		return nil
	}
	return instructions
}

func (c *Controller) minMove(mode Mode) float64 {
	if mode == ModeTracking {
		return c.cfg.TrackProximityM
	}
	return c.cfg.RecordMinMoveM
}

func (c *Controller) statsLocked() Stats {
	elapsed := int64(c.now().Sub(c.session.StartedAt).Seconds())
	return Stats{
		Mode:            c.session.Mode,
		RouteID:         c.session.RouteID,
		ElapsedSec:      elapsed,
		DistanceM:       c.session.DistanceM,
		Steps:           c.session.Steps,
		TrailLen:        c.session.Trail.Len(),
		InstructionText: c.matcher.CurrentText(),
		Active:          c.session.Active,
	}
}

func (c *Controller) snapshotLocked() Snapshot {
	return Snapshot{
		Mode:       c.session.Mode,
		RouteID:    c.session.RouteID,
		StartedAt:  c.session.StartedAt,
		ElapsedSec: int64(c.now().Sub(c.session.StartedAt).Seconds()),
		DistanceM:  c.session.DistanceM,
		Steps:      c.session.Steps,
		Active:     c.session.Active,
	}
}
