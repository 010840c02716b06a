package simulation

import "math"

// StepController adapts the per-tick time step to boundary activity:
// fast-closing boundaries shrink the step so collisions resolve in
// detail, quiet intervals grow it toward the maximum.
type StepController struct {
	MinStepMa       float64
	MaxStepMa       float64
	CurrentStepMa   float64
	StressThreshold float64
	LastMaxStress   float64
}

// NewStepController creates a controller starting at the conservative end
func NewStepController(minStep, maxStep, stressThreshold float64) *StepController {
	return &StepController{
		MinStepMa:       minStep,
		MaxStepMa:       maxStep,
		CurrentStepMa:   minStep,
		StressThreshold: stressThreshold,
	}
}

// NextStep determines the next time step in Ma from the current
// boundary set and the requested step
func (sc *StepController) NextStep(boundaries []Boundary, requestedMa float64) float64 {
	maxStress := sc.maxBoundaryStress(boundaries)
	sc.LastMaxStress = maxStress

	switch {
	case maxStress > sc.StressThreshold:
		// High stress - use smaller steps
		sc.CurrentStepMa = math.Max(sc.MinStepMa, requestedMa*0.1)
	case maxStress < sc.StressThreshold*0.5:
		// Low stress - can use larger steps
		sc.CurrentStepMa = math.Min(sc.MaxStepMa, requestedMa*2.0)
	default:
		sc.CurrentStepMa = requestedMa
	}

	// Clamp to limits
	sc.CurrentStepMa = math.Max(sc.MinStepMa, math.Min(sc.MaxStepMa, sc.CurrentStepMa))

	return sc.CurrentStepMa
}

// maxBoundaryStress finds the fastest relative motion across any boundary
func (sc *StepController) maxBoundaryStress(boundaries []Boundary) float64 {
	maxStress := 0.0
	for _, b := range boundaries {
		stress := b.Velocity
		// Convergent contacts build stress fastest
		if b.Type == BoundaryConvergent {
			stress *= 2.0
		}
		if stress > maxStress {
			maxStress = stress
		}
	}
	return maxStress
}

// StepInfo describes the current stepping regime for display
func (sc *StepController) StepInfo() string {
	switch {
	case sc.CurrentStepMa <= sc.MinStepMa:
		return "High Detail"
	case sc.CurrentStepMa >= sc.MaxStepMa*0.5:
		return "Fast Forward"
	default:
		return "Normal"
	}
}
