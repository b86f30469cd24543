package walk

import "github.com/Bera0422/WalkWays/internal/shared/geo"

// ReconcilePolicy decides how the GPS-accumulated distance and the
// step-derived estimate combine into the distance reported to the user.
type ReconcilePolicy string

const (
	// ReconcileMax takes the larger of the two estimates: GPS underestimates
	// on poor signal, steps overestimate on stationary arm movement. A
	// heuristic carried over from field behavior, not a law of physics.
	ReconcileMax ReconcilePolicy = "max"
	// ReconcileGPS trusts the GPS accumulation alone.
	ReconcileGPS ReconcilePolicy = "gps"
)

// DefaultStepLengthM is the average walking step length used for the
// step-based distance estimate.
const DefaultStepLengthM = 0.762

// Accumulator tracks cumulative walked distance from two independent
// sources: consecutive accepted GPS fixes and a cumulative step count.
// Totals never decrease within a session.
type Accumulator struct {
	stepLengthM float64
	policy      ReconcilePolicy

	gpsM   float64
	stepsM float64
	steps  uint64
	last   geo.Point
	seeded bool
}

func NewAccumulator(stepLengthM float64, policy ReconcilePolicy) *Accumulator {
	if stepLengthM <= 0 {
		stepLengthM = DefaultStepLengthM
	}
	if policy == "" {
		policy = ReconcileMax
	}
	return &Accumulator{stepLengthM: stepLengthM, policy: policy}
}

// OnAccepted adds the great-circle delta from the previous accepted point
// and returns the new GPS cumulative total. Deltas are added as computed;
// implausible jumps are the sample filter's problem, not ours.
func (a *Accumulator) OnAccepted(p geo.Point) float64 {
	if a.seeded {
		a.gpsM += geo.DistanceMeters(a.last, p)
	}
	a.seeded = true
	a.last = p
	return a.gpsM
}

// OnSteps records a cumulative step-counter reading. Regressions from the
// counter are ignored so the step total stays monotonic.
func (a *Accumulator) OnSteps(cumulative uint64) {
	if cumulative < a.steps {
		return
	}
	a.steps = cumulative
	if est := float64(cumulative) * a.stepLengthM; est > a.stepsM {
		a.stepsM = est
	}
}

// Steps returns the latest cumulative step count.
func (a *Accumulator) Steps() uint64 {
	return a.steps
}

// TotalM returns the reconciled session distance under the configured
// policy.
func (a *Accumulator) TotalM() float64 {
	if a.policy == ReconcileMax && a.stepsM > a.gpsM {
		return a.stepsM
	}
	return a.gpsM
}

// Restore seeds the accumulator from a persisted snapshot. The restored
// distance becomes the GPS baseline so the total keeps growing from where
// the previous process left off.
func (a *Accumulator) Restore(distanceM float64, steps uint64) {
	a.gpsM = distanceM
	a.steps = steps
	a.stepsM = float64(steps) * a.stepLengthM
}
