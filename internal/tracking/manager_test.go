package tracking

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/Bera0422/WalkWays/internal/feedback"
	"github.com/Bera0422/WalkWays/internal/shared/geo"
	"github.com/Bera0422/WalkWays/internal/walk"
)

func testConfig() walk.Config {
	return walk.Config{
		RecordMinMoveM:  15,
		TrackProximityM: 10,
		StepLengthM:     0.762,
		BatchSize:       25,
		Reconciler:      walk.ReconcileMax,
	}
}

// moveNorth returns p shifted north by roughly meters.
func moveNorth(p geo.Point, meters float64) geo.Point {
	return geo.Point{Lat: p.Lat + meters/111194.9, Lng: p.Lng}
}

type memStore struct {
	mu    sync.Mutex
	snaps map[string]walk.Snapshot
}

func newMemStore() *memStore {
	return &memStore{snaps: map[string]walk.Snapshot{}}
}

func (s *memStore) Save(_ context.Context, key string, snap walk.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snaps[key] = snap
	return nil
}

func (s *memStore) Load(_ context.Context, key string) (walk.Snapshot, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap, ok := s.snaps[key]
	return snap, ok, nil
}

func (s *memStore) Clear(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.snaps, key)
	return nil
}

type fakeRoutes struct {
	waypoints map[string][]geo.Point
	err       error
}

func (f *fakeRoutes) Waypoints(_ context.Context, id string) ([]geo.Point, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.waypoints[id], nil
}

type fakeHistory struct {
	mu      sync.Mutex
	records []feedback.WalkRecord
	err     error
}

func (f *fakeHistory) RecordWalk(_ context.Context, rec feedback.WalkRecord) (feedback.WalkRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return feedback.WalkRecord{}, f.err
	}
	f.records = append(f.records, rec)
	return rec, nil
}

type fakeHub struct {
	mu       sync.Mutex
	payloads []string
}

func (f *fakeHub) Broadcast(_ string, payload []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.payloads = append(f.payloads, string(payload))
}

func TestManagerRecordingFlow(t *testing.T) {
	mgr := NewManager(testConfig(), nil, newMemStore(), &fakeRoutes{}, &fakeHistory{}, &fakeHub{})

	resumed, err := mgr.Start(context.Background(), "device-1", "user-1", walk.ModeRecording, "", false)
	if err != nil || resumed {
		t.Fatalf("start: %v resumed=%v", err, resumed)
	}

	origin := geo.Point{Lat: 48.8566, Lng: 2.3522}
	if err := mgr.Position("device-1", origin); err != nil {
		t.Fatalf("position: %v", err)
	}
	if err := mgr.Position("device-1", moveNorth(origin, 20)); err != nil {
		t.Fatalf("position: %v", err)
	}
	if err := mgr.Steps("device-1", 50); err != nil {
		t.Fatalf("steps: %v", err)
	}

	stats, err := mgr.Stats("device-1")
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.TrailLen != 2 || stats.Steps != 50 {
		t.Fatalf("unexpected stats: %+v", stats)
	}

	result, err := mgr.End(context.Background(), "device-1")
	if err != nil {
		t.Fatalf("end: %v", err)
	}
	if result.Draft == nil || len(result.Draft.Waypoints) != 2 {
		t.Fatalf("expected draft with 2 waypoints: %+v", result.Draft)
	}

	if _, err := mgr.Stats("device-1"); !errors.Is(err, ErrUnknownDevice) {
		t.Fatalf("session should be gone after end, got %v", err)
	}
}

func TestManagerTrackingWritesHistory(t *testing.T) {
	origin := geo.Point{Lat: 48.8566, Lng: 2.3522}
	routes := &fakeRoutes{waypoints: map[string][]geo.Point{
		"route-1": {origin, moveNorth(origin, 500)},
	}}
	history := &fakeHistory{}
	mgr := NewManager(testConfig(), nil, newMemStore(), routes, history, &fakeHub{})

	if _, err := mgr.Start(context.Background(), "device-1", "user-1", walk.ModeTracking, "route-1", false); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := mgr.Position("device-1", origin); err != nil {
		t.Fatalf("position: %v", err)
	}
	if err := mgr.Position("device-1", moveNorth(origin, 30)); err != nil {
		t.Fatalf("position: %v", err)
	}

	result, err := mgr.End(context.Background(), "device-1")
	if err != nil {
		t.Fatalf("end: %v", err)
	}
	if result.RouteID != "route-1" || result.Draft != nil {
		t.Fatalf("tracking end should carry route, no draft: %+v", result)
	}

	if len(history.records) != 1 {
		t.Fatalf("expected one history record, got %d", len(history.records))
	}
	rec := history.records[0]
	if rec.UserID != "user-1" || rec.RouteID != "route-1" || rec.DistanceM <= 0 {
		t.Fatalf("unexpected record: %+v", rec)
	}
}

func TestManagerTrackingRequiresRoute(t *testing.T) {
	mgr := NewManager(testConfig(), nil, newMemStore(), &fakeRoutes{}, &fakeHistory{}, nil)
	if _, err := mgr.Start(context.Background(), "device-1", "user-1", walk.ModeTracking, "", false); err == nil {
		t.Fatalf("expected route_id error")
	}
}

func TestManagerRouteLookupError(t *testing.T) {
	mgr := NewManager(testConfig(), nil, newMemStore(), &fakeRoutes{err: errors.New("boom")}, &fakeHistory{}, nil)
	if _, err := mgr.Start(context.Background(), "device-1", "user-1", walk.ModeTracking, "route-1", false); err == nil {
		t.Fatalf("expected lookup error")
	}
}

func TestManagerDoubleStart(t *testing.T) {
	mgr := NewManager(testConfig(), nil, newMemStore(), &fakeRoutes{}, &fakeHistory{}, nil)
	if _, err := mgr.Start(context.Background(), "device-1", "user-1", walk.ModeRecording, "", false); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := mgr.Start(context.Background(), "device-1", "user-1", walk.ModeRecording, "", false); !errors.Is(err, walk.ErrSessionActive) {
		t.Fatalf("expected active session error, got %v", err)
	}
}

func TestManagerUnknownDevice(t *testing.T) {
	mgr := NewManager(testConfig(), nil, newMemStore(), &fakeRoutes{}, &fakeHistory{}, nil)

	if err := mgr.Position("ghost", geo.Point{}); !errors.Is(err, ErrUnknownDevice) {
		t.Fatalf("expected unknown device, got %v", err)
	}
	if err := mgr.Steps("ghost", 1); !errors.Is(err, ErrUnknownDevice) {
		t.Fatalf("expected unknown device, got %v", err)
	}
	if err := mgr.Background(context.Background(), "ghost"); !errors.Is(err, ErrUnknownDevice) {
		t.Fatalf("expected unknown device, got %v", err)
	}
	if _, err := mgr.Foreground("ghost"); !errors.Is(err, ErrUnknownDevice) {
		t.Fatalf("expected unknown device, got %v", err)
	}
	if _, err := mgr.End(context.Background(), "ghost"); !errors.Is(err, ErrUnknownDevice) {
		t.Fatalf("expected unknown device, got %v", err)
	}
}

func TestManagerBroadcastsAcceptedWaypoints(t *testing.T) {
	hub := &fakeHub{}
	mgr := NewManager(testConfig(), nil, newMemStore(), &fakeRoutes{}, &fakeHistory{}, hub)

	if _, err := mgr.Start(context.Background(), "device-1", "user-1", walk.ModeRecording, "", false); err != nil {
		t.Fatalf("start: %v", err)
	}

	origin := geo.Point{Lat: 48.8566, Lng: 2.3522}
	mgr.Position("device-1", origin)
	mgr.Position("device-1", moveNorth(origin, 5)) // under the 15m gate, filtered
	mgr.Position("device-1", moveNorth(origin, 20))

	if len(hub.payloads) != 2 {
		t.Fatalf("expected 2 broadcasts, got %d", len(hub.payloads))
	}
	if !strings.Contains(hub.payloads[0], `"device_id":"device-1"`) {
		t.Fatalf("payload missing device id: %s", hub.payloads[0])
	}
}

func TestManagerResumeRestoresSnapshot(t *testing.T) {
	store := newMemStore()
	mgr := NewManager(testConfig(), nil, store, &fakeRoutes{}, &fakeHistory{}, nil)

	if _, err := mgr.Start(context.Background(), "device-1", "user-1", walk.ModeRecording, "", false); err != nil {
		t.Fatalf("start: %v", err)
	}
	origin := geo.Point{Lat: 48.8566, Lng: 2.3522}
	mgr.Position("device-1", origin)
	mgr.Position("device-1", moveNorth(origin, 40))
	if err := mgr.Background(context.Background(), "device-1"); err != nil {
		t.Fatalf("background: %v", err)
	}

	// simulate process loss: a fresh manager over the same store
	mgr2 := NewManager(testConfig(), nil, store, &fakeRoutes{}, &fakeHistory{}, nil)
	resumed, err := mgr2.Start(context.Background(), "device-1", "user-1", walk.ModeRecording, "", true)
	if err != nil {
		t.Fatalf("resume: %v", err)
	}
	if !resumed {
		t.Fatalf("expected snapshot resume")
	}

	stats, err := mgr2.Stats("device-1")
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.DistanceM < 35 {
		t.Fatalf("resumed distance lost: %+v", stats)
	}
}

func TestManagerForegroundReportsLiveStats(t *testing.T) {
	mgr := NewManager(testConfig(), nil, newMemStore(), &fakeRoutes{}, &fakeHistory{}, nil)

	if _, err := mgr.Start(context.Background(), "device-1", "user-1", walk.ModeRecording, "", false); err != nil {
		t.Fatalf("start: %v", err)
	}

	origin := geo.Point{Lat: 48.8566, Lng: 2.3522}
	mgr.Position("device-1", origin)
	mgr.Position("device-1", moveNorth(origin, 25))
	mgr.Steps("device-1", 80)
	if err := mgr.Background(context.Background(), "device-1"); err != nil {
		t.Fatalf("background: %v", err)
	}

	stats, err := mgr.Foreground("device-1")
	if err != nil {
		t.Fatalf("foreground: %v", err)
	}
	if !stats.Active || stats.TrailLen != 2 || stats.Steps != 80 {
		t.Fatalf("unexpected stats after foreground: %+v", stats)
	}
	if stats.ElapsedSec < 0 {
		t.Fatalf("elapsed went backwards: %+v", stats)
	}
}

func TestManagerBatches(t *testing.T) {
	cfg := testConfig()
	cfg.BatchSize = 2
	mgr := NewManager(cfg, nil, newMemStore(), &fakeRoutes{}, &fakeHistory{}, nil)

	if _, err := mgr.Start(context.Background(), "device-1", "user-1", walk.ModeRecording, "", false); err != nil {
		t.Fatalf("start: %v", err)
	}

	p := geo.Point{Lat: 48.8566, Lng: 2.3522}
	for i := 0; i < 5; i++ {
		mgr.Position("device-1", p)
		p = moveNorth(p, 20)
	}

	batches, err := mgr.Batches("device-1")
	if err != nil {
		t.Fatalf("batches: %v", err)
	}
	if len(batches) != 3 || len(batches[0]) != 2 || len(batches[2]) != 1 {
		t.Fatalf("unexpected batching: %d", len(batches))
	}
}
