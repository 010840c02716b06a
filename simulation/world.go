package simulation

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/Calor7/TectoLite-sub001/core"
)

// World owns the authoritative plate collection and the simulation
// clock. Every tick is one atomic transition: materialize each plate at
// the new time, then recompute all boundaries. Reconstruction itself is
// pure, so scrubbing backward is just another query; nothing
// accumulates between ticks.
//
// A single RWMutex serializes mutation (advance, scrub, surgery,
// motion edits) against snapshot reads.
type World struct {
	mu sync.RWMutex

	plates map[string]*TectonicPlate
	order  []string

	materialized []*TectonicPlate
	boundaries   []Boundary

	time    float64 // Ma
	playing bool
	speed   float64 // Ma per wall-clock second

	ids      IDSource
	clip     Clipper
	step     *StepController
	hotspots []*Hotspot
}

// NewWorld creates an empty world with the given capabilities
func NewWorld(ids IDSource, clip Clipper, step *StepController) *World {
	return &World{
		plates: make(map[string]*TectonicPlate),
		ids:    ids,
		clip:   clip,
		step:   step,
		speed:  1.0,
	}
}

// AddPlate registers a plate. Plates with no id are assigned one.
func (w *World) AddPlate(p *TectonicPlate) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if p.ID == "" {
		p.ID = w.ids.NewID()
	}
	if _, exists := w.plates[p.ID]; !exists {
		w.order = append(w.order, p.ID)
	}
	w.plates[p.ID] = p
	w.recompute()
}

// AddHotspot registers a fixed mantle hotspot
func (w *World) AddHotspot(h *Hotspot) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if h.ID == "" {
		h.ID = w.ids.NewID()
	}
	w.hotspots = append(w.hotspots, h)
}

// Plate returns the authoritative record for an id
func (w *World) Plate(id string) (*TectonicPlate, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	p, ok := w.plates[id]
	return p, ok
}

// Time returns the current simulation time in Ma
func (w *World) Time() float64 {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.time
}

// Playing reports whether the clock advances on ticks
func (w *World) Playing() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.playing
}

// SetPlaying starts or stops the clock
func (w *World) SetPlaying(playing bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.playing = playing
}

// Speed returns the playback speed in Ma per second
func (w *World) Speed() float64 {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.speed
}

// SetSpeed changes the playback speed in Ma per second
func (w *World) SetSpeed(speed float64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if speed < 0 {
		speed = 0
	}
	w.speed = speed
}

// Advance moves the clock forward by an adaptive step derived from the
// requested delta and the current boundary stress, then recomputes the
// snapshot. Forward play is also when flowline trails are recorded and
// hotspots deposit volcanoes.
func (w *World) Advance(requestedMa float64) float64 {
	w.mu.Lock()
	defer w.mu.Unlock()

	dt := requestedMa
	if w.step != nil {
		dt = w.step.NextStep(w.boundaries, requestedMa)
	}
	w.time += dt
	w.recompute()

	w.recordTrails()

	deposited := false
	for _, h := range w.hotspots {
		if f := h.Deposit(w.time, w.materialized, w.plates, w.ids); f != nil {
			deposited = true
			slog.Debug("hotspot deposit",
				slog.String("hotspot", h.ID),
				slog.String("feature", f.ID),
				slog.Float64("time", w.time))
		}
	}
	if deposited {
		w.recompute()
	}

	return dt
}

// Scrub jumps the clock to an absolute time, in either direction. A
// pure re-evaluation: no trails are recorded and no hotspots fire, so
// revisiting a time reproduces exactly what was computed there before.
func (w *World) Scrub(t float64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.time = t
	w.recompute()
}

// recompute materializes every plate at the current time and rebuilds
// the boundary set from the plates alive right now. Dead plates clamp
// to their death time so history stays visible. Callers hold the lock.
func (w *World) recompute() {
	w.materialized = make([]*TectonicPlate, 0, len(w.order))
	var active []*TectonicPlate
	for _, id := range w.order {
		p := w.plates[id]
		m := PlateAtTime(p, w.time, w.plates)
		w.materialized = append(w.materialized, m)
		if p.Alive(w.time) && p.DeathTime == nil {
			active = append(active, m)
		}
	}
	w.boundaries = DetectBoundaries(active, w.time, w.clip)
}

// recordTrails appends the current position of every flowline feature,
// owned or inherited, to its trail, keyed by time: samples at or beyond
// the current time are dropped first so revisiting a time overwrites
// instead of duplicating.
func (w *World) recordTrails() {
	for _, m := range w.materialized {
		auth, ok := w.plates[m.ID]
		if !ok {
			continue
		}
		for i := range auth.Features {
			w.recordTrail(m, &auth.Features[i])
		}
		for i := range auth.InheritedFeatures {
			w.recordTrail(m, &auth.InheritedFeatures[i])
		}
	}
}

func (w *World) recordTrail(m *TectonicPlate, f *Feature) {
	if f.Kind != FeatureFlowline {
		return
	}
	current, ok := materializedPosition(m, f.ID)
	if !ok {
		return
	}
	trimmed := f.Trail[:0]
	for _, tp := range f.Trail {
		if tp.Time < w.time {
			trimmed = append(trimmed, tp)
		}
	}
	f.Trail = append(trimmed, TrailPoint{Time: w.time, Position: current})
}

func materializedPosition(m *TectonicPlate, featureID string) (core.Coordinate, bool) {
	for _, f := range m.Features {
		if f.ID == featureID {
			return f.Position, true
		}
	}
	for _, f := range m.InheritedFeatures {
		if f.ID == featureID {
			return f.Position, true
		}
	}
	return core.Coordinate{}, false
}

// Split cuts a plate along the polyline at the current time. The whole
// collection is replaced on success; on failure nothing changes and the
// error reports why.
func (w *World) Split(plateID string, cut core.Polygon) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	next, err := SplitPlate(w.plates, plateID, cut, w.time, w.ids)
	if err != nil {
		return err
	}
	w.commit(next)
	return nil
}

// Fuse merges two plates into one successor at the current time
func (w *World) Fuse(idA, idB string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	next, err := FusePlates(w.plates, idA, idB, w.time, w.ids, w.clip)
	if err != nil {
		return err
	}
	w.commit(next)
	return nil
}

// commit swaps in a transformed plate collection wholesale, keeping the
// existing order and appending newcomers in sorted id order for
// determinism. Callers hold the lock.
func (w *World) commit(next map[string]*TectonicPlate) {
	var order []string
	for _, id := range w.order {
		if _, ok := next[id]; ok {
			order = append(order, id)
		}
	}
	known := make(map[string]bool, len(order))
	for _, id := range order {
		known[id] = true
	}
	var added []string
	for id := range next {
		if !known[id] {
			added = append(added, id)
		}
	}
	sort.Strings(added)
	w.order = append(order, added...)
	w.plates = next
	w.recompute()
}

// SetMotion changes a plate's Euler pole. With no keyframe time, a new
// keyframe is recorded at the current simulation time with the plate's
// geometry baked in, so past reconstruction is unaffected. With a
// keyframe time, the matching historical keyframe's pole is edited and
// the whole snapshot history is rebaked.
func (w *World) SetMotion(plateID string, pole EulerPole, keyframeTime *float64) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	p, ok := w.plates[plateID]
	if !ok {
		return fmt.Errorf("unknown plate %s", plateID)
	}

	if keyframeTime != nil {
		edited := false
		for i := range p.Keyframes {
			if p.Keyframes[i].Time == *keyframeTime {
				p.Keyframes[i].Pole = pole
				edited = true
				break
			}
		}
		if !edited {
			return fmt.Errorf("plate %s has no keyframe at %.2f", plateID, *keyframeTime)
		}
		if err := RecalculateMotionHistory(p); err != nil {
			return err
		}
		w.recompute()
		return nil
	}

	// Replace an existing keyframe at the current instant rather than
	// stacking two at the same time
	for i := range p.Keyframes {
		if p.Keyframes[i].Time == w.time {
			p.Keyframes[i].Pole = pole
			w.recompute()
			return nil
		}
	}

	baked := BakePlate(p, w.time, w.plates)

	// A legacy plate's constant pole becomes a birth keyframe first, so
	// its motion before this edit still reconstructs
	if len(p.Keyframes) == 0 && w.time > p.BirthTime && p.Motion.RateDegPerMa != 0 {
		p.Keyframes = append(p.Keyframes, MotionKeyframe{
			Time:             p.BirthTime,
			Pole:             p.Motion,
			SnapshotPolygons: core.ClonePolygons(p.InitialPolygons),
			SnapshotFeatures: CloneFeatures(p.InitialFeatures),
		})
	}

	p.Keyframes = append(p.Keyframes, MotionKeyframe{
		Time:             w.time,
		Pole:             pole,
		SnapshotPolygons: baked.Polygons,
		SnapshotFeatures: baked.Features,
	})
	sort.SliceStable(p.Keyframes, func(i, j int) bool {
		return p.Keyframes[i].Time < p.Keyframes[j].Time
	})

	w.recompute()
	return nil
}

// Snapshot returns the last computed plate and boundary state along with
// the clock. The materialized plates are already copies; callers must
// not mutate them, only read.
func (w *World) Snapshot() ([]*TectonicPlate, []Boundary, float64, float64, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.materialized, w.boundaries, w.time, w.speed, w.playing
}
