package tracking

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"sync"

	"github.com/Bera0422/WalkWays/internal/feedback"
	"github.com/Bera0422/WalkWays/internal/shared/geo"
	"github.com/Bera0422/WalkWays/internal/walk"
)

var ErrUnknownDevice = errors.New("tracking: no session for device")

// RouteSource resolves a route's geometry for tracking sessions.
type RouteSource interface {
	Waypoints(ctx context.Context, id string) ([]geo.Point, error)
}

// HistoryRecorder persists a completed tracked walk.
type HistoryRecorder interface {
	RecordWalk(ctx context.Context, rec feedback.WalkRecord) (feedback.WalkRecord, error)
}

// Broadcaster fans accepted waypoints out to live watchers.
type Broadcaster interface {
	Broadcast(walkID string, payload []byte)
}

// Manager owns one walk engine per device. The engine itself is transport
// agnostic; the manager is the server-side adapter that feeds it from HTTP
// and hands its results to the route and feedback services.
type Manager struct {
	cfg        walk.Config
	directions walk.DirectionsProvider
	store      walk.SnapshotStore
	routes     RouteSource
	history    HistoryRecorder
	hub        Broadcaster

	mu       sync.Mutex
	sessions map[string]*deviceSession
}

type deviceSession struct {
	ctrl   *walk.Controller
	feed   *Feed
	userID string
}

func NewManager(cfg walk.Config, dir walk.DirectionsProvider, store walk.SnapshotStore, routes RouteSource, history HistoryRecorder, hub Broadcaster) *Manager {
	return &Manager{
		cfg:        cfg,
		directions: dir,
		store:      store,
		routes:     routes,
		history:    history,
		hub:        hub,
		sessions:   make(map[string]*deviceSession),
	}
}

type liveUpdate struct {
	DeviceID string        `json:"device_id"`
	Waypoint walk.Waypoint `json:"waypoint"`
	Stats    walk.Stats    `json:"stats"`
}

// Start begins a session for the device, resuming from a persisted
// snapshot when resume is set. Tracking mode requires a route.
func (m *Manager) Start(ctx context.Context, deviceID, userID string, mode walk.Mode, routeID string, resume bool) (bool, error) {
	route, err := m.resolveRoute(ctx, mode, routeID)
	if err != nil {
		return false, err
	}

	m.mu.Lock()
	sess, ok := m.sessions[deviceID]
	if ok && sess.ctrl.Active() {
		m.mu.Unlock()
		return false, walk.ErrSessionActive
	}

	feed := NewFeed()
	ctrl := walk.NewController(m.cfg, deviceID, feed, feed, m.directions, m.store)
	sess = &deviceSession{ctrl: ctrl, feed: feed, userID: userID}
	m.sessions[deviceID] = sess
	m.mu.Unlock()

	if m.hub != nil {
		ctrl.OnAccepted(func(wp walk.Waypoint, stats walk.Stats) {
			payload, err := json.Marshal(liveUpdate{DeviceID: deviceID, Waypoint: wp, Stats: stats})
			if err != nil {
				log.Printf("tracking: live update marshal failed: %v", err)
				return
			}
			m.hub.Broadcast(deviceID, payload)
		})
	}

	if resume {
		return ctrl.Resume(ctx, mode, route)
	}
	return false, ctrl.Start(ctx, mode, route)
}

// Position feeds one GPS fix into the device's engine.
func (m *Manager) Position(deviceID string, p geo.Point) error {
	sess, err := m.session(deviceID)
	if err != nil {
		return err
	}
	sess.feed.PushPosition(p)
	return nil
}

// Steps feeds a cumulative pedometer reading into the device's engine.
func (m *Manager) Steps(deviceID string, cumulative uint64) error {
	sess, err := m.session(deviceID)
	if err != nil {
		return err
	}
	sess.feed.PushSteps(cumulative)
	return nil
}

// Background checkpoints the device's session.
func (m *Manager) Background(ctx context.Context, deviceID string) error {
	sess, err := m.session(deviceID)
	if err != nil {
		return err
	}
	sess.ctrl.OnBackground(ctx)
	return nil
}

// Foreground reports the session view after the client app returns from
// the background, with elapsed time recomputed from the start timestamp to
// cover however long the process was suspended.
func (m *Manager) Foreground(deviceID string) (walk.Stats, error) {
	sess, err := m.session(deviceID)
	if err != nil {
		return walk.Stats{}, err
	}
	return sess.ctrl.OnForeground(), nil
}

// Stats returns the device's current session view.
func (m *Manager) Stats(deviceID string) (walk.Stats, error) {
	sess, err := m.session(deviceID)
	if err != nil {
		return walk.Stats{}, err
	}
	return sess.ctrl.Stats(), nil
}

// Batches returns the device's trail in upload-sized waypoint windows.
func (m *Manager) Batches(deviceID string) ([][]walk.Waypoint, error) {
	sess, err := m.session(deviceID)
	if err != nil {
		return nil, err
	}
	return sess.ctrl.Batches(), nil
}

// End tears down the device's session. A finished tracked walk is written
// to the user's history; a finished recording carries the route draft for
// the authoring flow.
func (m *Manager) End(ctx context.Context, deviceID string) (walk.Result, error) {
	sess, err := m.session(deviceID)
	if err != nil {
		return walk.Result{}, err
	}

	result, err := sess.ctrl.End(ctx)
	if err != nil {
		return walk.Result{}, err
	}

	m.mu.Lock()
	delete(m.sessions, deviceID)
	m.mu.Unlock()

	if result.Mode == walk.ModeTracking && m.history != nil && sess.userID != "" {
		_, err := m.history.RecordWalk(ctx, feedback.WalkRecord{
			UserID:      sess.userID,
			RouteID:     result.RouteID,
			DistanceM:   result.Stats.DistanceM,
			DurationSec: result.Stats.ElapsedSec,
			Steps:       result.Stats.Steps,
		})
		if err != nil {
			// The walk itself is done; history is best effort.
			log.Printf("tracking: walk history record failed: %v", err)
		}
	}
	return result, nil
}

func (m *Manager) session(deviceID string) (*deviceSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.sessions[deviceID]
	if !ok {
		return nil, ErrUnknownDevice
	}
	return sess, nil
}

func (m *Manager) resolveRoute(ctx context.Context, mode walk.Mode, routeID string) (*walk.Route, error) {
	if mode != walk.ModeTracking {
		return nil, nil
	}
	if routeID == "" {
		return nil, errors.New("tracking: route_id required in tracking mode")
	}
	points, err := m.routes.Waypoints(ctx, routeID)
	if err != nil {
		return nil, err
	}
	return &walk.Route{ID: routeID, Waypoints: points}, nil
}
