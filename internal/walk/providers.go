package walk

import (
	"context"
	"errors"

	"github.com/Bera0422/WalkWays/internal/shared/geo"
)

var (
	// ErrSessionActive is returned by Start when a session is already live.
	ErrSessionActive = errors.New("walk: session already active")
	// ErrNoSession is returned by operations that need an active session.
	ErrNoSession = errors.New("walk: no active session")
)

// Subscription is a scoped handle on a provider stream. Unsubscribe must be
// safe to call exactly once and must stop callbacks synchronously.
type Subscription interface {
	Unsubscribe()
}

// LocationProvider delivers position fixes. minDistanceM is a hint to the
// device provider; the sample filter still applies its own gate.
type LocationProvider interface {
	WatchPosition(minDistanceM float64, fn func(geo.Point)) (Subscription, error)
}

// StepCounter delivers cumulative step-count readings.
type StepCounter interface {
	WatchSteps(fn func(cumulative uint64)) (Subscription, error)
}

// DirectionsProvider fetches turn-by-turn instructions for a route. It may
// fail or return an empty list; callers degrade rather than abort.
type DirectionsProvider interface {
	Instructions(ctx context.Context, origin, dest geo.Point, via []geo.Point) ([]Instruction, error)
}

// SnapshotStore persists session snapshots across app backgrounding and
// process death. Load reports absence via the bool, not an error; all
// errors are recoverable and callers treat them as "no snapshot".
type SnapshotStore interface {
	Save(ctx context.Context, key string, snap Snapshot) error
	Load(ctx context.Context, key string) (Snapshot, bool, error)
	Clear(ctx context.Context, key string) error
}
