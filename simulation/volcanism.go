package simulation

import (
	"fmt"

	"github.com/Calor7/TectoLite-sub001/core"
)

// Hotspot is a fixed mantle plume location. Plates drift over it; the
// hotspot itself never moves. At a configured interval it deposits a
// volcano feature on whichever plate currently covers it, producing the
// classic island-chain record of plate motion. Marker creation only;
// elevation change is external.
type Hotspot struct {
	ID         string          `json:"id"`
	Position   core.Coordinate `json:"position"`
	IntervalMa float64         `json:"intervalMa"`
	Intensity  float64         `json:"intensity"`

	lastDeposit float64
	deposits    int
}

// Deposit drops a volcano feature on the covering plate when the
// interval has elapsed. Plates must be materialized at time t; the
// feature is attached to the authoritative plate record, not the
// materialized copy.
func (h *Hotspot) Deposit(t float64, materialized []*TectonicPlate, authoritative map[string]*TectonicPlate, ids IDSource) *Feature {
	if h.IntervalMa <= 0 || t < h.lastDeposit+h.IntervalMa {
		return nil
	}

	for _, m := range materialized {
		if m.Kind != KindCrust || !anyRingContains(m.Polygons, h.Position) {
			continue
		}
		target, ok := authoritative[m.ID]
		if !ok || !target.Alive(t) {
			continue
		}

		h.lastDeposit = t
		h.deposits++
		f := Feature{
			ID:               fmt.Sprintf("%s-v%d-%s", h.ID, h.deposits, ids.NewID()),
			Kind:             FeatureVolcano,
			Position:         h.Position,
			OriginalPosition: h.Position,
			GeneratedAt:      t,
		}
		target.Features = append(target.Features, f)
		return &f
	}

	return nil
}
