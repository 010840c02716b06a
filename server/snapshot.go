package server

import (
	"github.com/Calor7/TectoLite-sub001/core"
	"github.com/Calor7/TectoLite-sub001/simulation"
)

// Wire types for the per-tick snapshot feed. The same payload drives
// both the rendering client and the elevation physics consumer.

type PlateData struct {
	ID               string                `json:"id"`
	Name             string                `json:"name"`
	Color            string                `json:"color"`
	Kind             simulation.PlateKind  `json:"kind"`
	CrustType        simulation.CrustType  `json:"crustType"`
	Polygons         []core.Polygon        `json:"polygons"`
	Features         []simulation.Feature  `json:"features"`
	Center           core.Coordinate       `json:"center"`
	BirthTime        float64               `json:"birthTime"`
	DeathTime        *float64              `json:"deathTime"`
	LinkedToPlateID  string                `json:"linkedToPlateId,omitempty"`
	ConnectedRiftIDs []string              `json:"connectedRiftIds,omitempty"`
}

type BoundaryData struct {
	ID       string                  `json:"id"`
	Type     simulation.BoundaryType `json:"type"`
	PlateIDs [2]string               `json:"plateIds"`
	Points   [][]core.Coordinate     `json:"points"`
	Velocity float64                 `json:"velocity"`
}

type WorldSnapshot struct {
	Type       string         `json:"type"`
	Plates     []PlateData    `json:"plates"`
	Boundaries []BoundaryData `json:"boundaries"`
	Time       float64        `json:"time"`
	TimeSpeed  float64        `json:"timeSpeed"`
	Playing    bool           `json:"playing"`
}

// buildSnapshot converts the world's materialized state to wire form.
// Own and inherited features merge into one list; the lineage split is
// a reconstruction detail clients do not need.
func buildSnapshot(world *simulation.World) WorldSnapshot {
	plates, boundaries, t, speed, playing := world.Snapshot()

	snap := WorldSnapshot{
		Type:       "snapshot",
		Plates:     make([]PlateData, 0, len(plates)),
		Boundaries: make([]BoundaryData, 0, len(boundaries)),
		Time:       t,
		TimeSpeed:  speed,
		Playing:    playing,
	}

	for _, p := range plates {
		features := make([]simulation.Feature, 0, len(p.Features)+len(p.InheritedFeatures))
		features = append(features, p.Features...)
		features = append(features, p.InheritedFeatures...)

		snap.Plates = append(snap.Plates, PlateData{
			ID:               p.ID,
			Name:             p.Name,
			Color:            p.Color,
			Kind:             p.Kind,
			CrustType:        p.Crust,
			Polygons:         p.Polygons,
			Features:         features,
			Center:           p.Center,
			BirthTime:        p.BirthTime,
			DeathTime:        p.DeathTime,
			LinkedToPlateID:  p.LinkedToPlateID,
			ConnectedRiftIDs: p.ConnectedRiftIDs,
		})
	}

	for _, b := range boundaries {
		snap.Boundaries = append(snap.Boundaries, BoundaryData{
			ID:       b.ID,
			Type:     b.Type,
			PlateIDs: b.PlateIDs,
			Points:   b.Points,
			Velocity: b.Velocity,
		})
	}

	return snap
}
