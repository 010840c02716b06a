package simulation

import (
	"github.com/Calor7/TectoLite-sub001/core"
)

// PlateKind distinguishes crust plates from rift-axis pseudo-plates
type PlateKind string

const (
	KindCrust PlateKind = "crust"
	KindRift  PlateKind = "rift"
)

// CrustType drives downstream collision physics, not the motion model
type CrustType string

const (
	CrustContinental CrustType = "continental"
	CrustOceanic     CrustType = "oceanic"
)

// FeatureKind identifies what a point feature represents
type FeatureKind string

const (
	FeatureMountain   FeatureKind = "mountain"
	FeatureVolcano    FeatureKind = "volcano"
	FeatureHotspot    FeatureKind = "hotspot"
	FeatureRiftMarker FeatureKind = "riftMarker"
	FeatureFlowline   FeatureKind = "flowline"
	FeaturePaint      FeatureKind = "paint"
)

// TrailPoint is one historical sample of a flowline's position
type TrailPoint struct {
	Time     float64         `json:"time"`
	Position core.Coordinate `json:"position"`
}

// Feature is a point anchored to a plate. Position is the last computed
// (possibly rotated) location; OriginalPosition is the location at the
// feature's own creation time and is the rotation source for dynamic
// features, so repeated queries never compound error.
type Feature struct {
	ID               string          `json:"id"`
	Kind             FeatureKind     `json:"kind"`
	Position         core.Coordinate `json:"position"`
	OriginalPosition core.Coordinate `json:"originalPosition"`
	GeneratedAt      float64         `json:"generatedAt"`
	Trail            []TrailPoint    `json:"trail,omitempty"`
}

// Clone returns a deep copy of the feature
func (f Feature) Clone() Feature {
	out := f
	if f.Trail != nil {
		out.Trail = make([]TrailPoint, len(f.Trail))
		copy(out.Trail, f.Trail)
	}
	return out
}

// CloneFeatures deep-copies a feature slice
func CloneFeatures(features []Feature) []Feature {
	if features == nil {
		return nil
	}
	out := make([]Feature, len(features))
	for i, f := range features {
		out[i] = f.Clone()
	}
	return out
}

// EulerPole is the fixed axis a rigid plate rotates about, paired with an
// angular rate in degrees per million years
type EulerPole struct {
	Position     core.Coordinate `json:"position"`
	RateDegPerMa float64         `json:"rate"`
}

// MotionKeyframe records a motion change for a plate: a new pole/rate
// taking effect at Time, with the plate's exact geometry at Time frozen
// in before the keyframe's own rotation has been applied. Keyframes are
// kept sorted ascending by Time; the active keyframe for a query time t
// is the latest one with Time <= t.
type MotionKeyframe struct {
	Time             float64        `json:"time"`
	Pole             EulerPole      `json:"eulerPole"`
	SnapshotPolygons []core.Polygon `json:"snapshotPolygons"`
	SnapshotFeatures []Feature      `json:"snapshotFeatures"`
}

// Clone returns a deep copy of the keyframe
func (k MotionKeyframe) Clone() MotionKeyframe {
	return MotionKeyframe{
		Time:             k.Time,
		Pole:             k.Pole,
		SnapshotPolygons: core.ClonePolygons(k.SnapshotPolygons),
		SnapshotFeatures: CloneFeatures(k.SnapshotFeatures),
	}
}

// TectonicPlate is the aggregate simulation unit. InitialPolygons and
// InitialFeatures are the immutable ground truth at birth; Polygons and
// Features hold the last computed state and are never an input to
// reconstruction. Linkage fields tie a plate to a kinematic parent
// (LinkedToPlateID, valid over [LinkTime, UnlinkTime)), to its lineage
// for feature inheritance (ParentPlateIDs), and to adjacent rift-axis
// plates (ConnectedRiftIDs).
type TectonicPlate struct {
	ID    string    `json:"id"`
	Name  string    `json:"name"`
	Color string    `json:"color"`
	Kind  PlateKind `json:"kind"`
	Crust CrustType `json:"crustType"`

	Motion    EulerPole        `json:"motion"`
	Keyframes []MotionKeyframe `json:"keyframes,omitempty"`

	BirthTime float64  `json:"birthTime"`
	DeathTime *float64 `json:"deathTime"`

	InitialPolygons []core.Polygon `json:"initialPolygons"`
	InitialFeatures []Feature      `json:"initialFeatures"`

	Polygons          []core.Polygon  `json:"polygons"`
	Features          []Feature       `json:"features"`
	InheritedFeatures []Feature       `json:"inheritedFeatures,omitempty"`
	Center            core.Coordinate `json:"center"`

	LinkedToPlateID  string   `json:"linkedToPlateId,omitempty"`
	LinkTime         float64  `json:"linkTime,omitempty"`
	UnlinkTime       *float64 `json:"unlinkTime,omitempty"`
	ParentPlateIDs   []string `json:"parentPlateIds,omitempty"`
	ConnectedRiftIDs []string `json:"connectedRiftIds,omitempty"`
}

// Alive reports whether the plate exists at time t
func (p *TectonicPlate) Alive(t float64) bool {
	if t < p.BirthTime {
		return false
	}
	if p.DeathTime != nil && t >= *p.DeathTime {
		return false
	}
	return true
}

// Dead reports whether the plate has a recorded death
func (p *TectonicPlate) Dead() bool {
	return p.DeathTime != nil
}

// ActivePole returns the pole in effect at time t: the active keyframe's
// pole when keyframes exist, otherwise the plate's single legacy pole
func (p *TectonicPlate) ActivePole(t float64) EulerPole {
	if kf := p.ActiveKeyframe(t); kf != nil {
		return kf.Pole
	}
	return p.Motion
}

// ActiveKeyframe returns the latest keyframe with Time <= t, or nil
func (p *TectonicPlate) ActiveKeyframe(t float64) *MotionKeyframe {
	var active *MotionKeyframe
	for i := range p.Keyframes {
		if p.Keyframes[i].Time <= t {
			active = &p.Keyframes[i]
		}
	}
	return active
}

// Clone returns a deep copy of the plate
func (p *TectonicPlate) Clone() *TectonicPlate {
	out := *p
	if p.DeathTime != nil {
		d := *p.DeathTime
		out.DeathTime = &d
	}
	if p.UnlinkTime != nil {
		u := *p.UnlinkTime
		out.UnlinkTime = &u
	}
	if p.Keyframes != nil {
		out.Keyframes = make([]MotionKeyframe, len(p.Keyframes))
		for i, k := range p.Keyframes {
			out.Keyframes[i] = k.Clone()
		}
	}
	out.InitialPolygons = core.ClonePolygons(p.InitialPolygons)
	out.InitialFeatures = CloneFeatures(p.InitialFeatures)
	out.Polygons = core.ClonePolygons(p.Polygons)
	out.Features = CloneFeatures(p.Features)
	out.InheritedFeatures = CloneFeatures(p.InheritedFeatures)
	if p.ParentPlateIDs != nil {
		out.ParentPlateIDs = append([]string(nil), p.ParentPlateIDs...)
	}
	if p.ConnectedRiftIDs != nil {
		out.ConnectedRiftIDs = append([]string(nil), p.ConnectedRiftIDs...)
	}
	return &out
}

// BoundaryType classifies the relative motion at a plate contact
type BoundaryType string

const (
	BoundaryConvergent BoundaryType = "convergent"
	BoundaryDivergent  BoundaryType = "divergent"
	BoundaryTransform  BoundaryType = "transform"
)

// Boundary is a derived overlap region between two plates. It is
// recomputed every tick and never persisted as authoritative state.
type Boundary struct {
	ID       string              `json:"id"`
	Type     BoundaryType        `json:"type"`
	PlateIDs [2]string           `json:"plateIds"`
	Points   [][]core.Coordinate `json:"points"`
	Velocity float64             `json:"velocity"`
}
