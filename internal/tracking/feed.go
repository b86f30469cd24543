package tracking

import (
	"sync"

	"github.com/Bera0422/WalkWays/internal/shared/geo"
	"github.com/Bera0422/WalkWays/internal/walk"
)

// Feed bridges the HTTP surface to the walk engine's provider interfaces.
// The client POSTs position fixes and step readings; the feed pushes them
// into whatever callbacks the engine has subscribed.
type Feed struct {
	mu     sync.Mutex
	posFn  func(geo.Point)
	stepFn func(cumulative uint64)
}

func NewFeed() *Feed {
	return &Feed{}
}

func (f *Feed) WatchPosition(_ float64, fn func(geo.Point)) (walk.Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.posFn = fn
	return &feedSub{cancel: func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.posFn = nil
	}}, nil
}

func (f *Feed) WatchSteps(fn func(cumulative uint64)) (walk.Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stepFn = fn
	return &feedSub{cancel: func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.stepFn = nil
	}}, nil
}

// PushPosition delivers a fix to the current subscriber, if any. The
// callback is invoked outside the feed lock so the engine can unsubscribe
// from within its own critical section without deadlocking.
func (f *Feed) PushPosition(p geo.Point) {
	f.mu.Lock()
	fn := f.posFn
	f.mu.Unlock()
	if fn != nil {
		fn(p)
	}
}

// PushSteps delivers a cumulative step reading to the current subscriber.
func (f *Feed) PushSteps(cumulative uint64) {
	f.mu.Lock()
	fn := f.stepFn
	f.mu.Unlock()
	if fn != nil {
		fn(cumulative)
	}
}

type feedSub struct {
	once   sync.Once
	cancel func()
}

func (s *feedSub) Unsubscribe() {
	s.once.Do(s.cancel)
}
