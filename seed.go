package main

import (
	"log/slog"

	"github.com/Calor7/TectoLite-sub001/core"
	"github.com/Calor7/TectoLite-sub001/simulation"
)

// seedDemoWorld builds a small plate set for exploring the editor
// without authoring from scratch: two drifting continents, an oceanic
// strip riding on the western one, a rift axis between the continents,
// and one mantle hotspot under the eastern plate.
func seedDemoWorld(w *simulation.World, hotspotIntervalMa float64) {
	west := &simulation.TectonicPlate{
		ID:    "laurentia",
		Name:  "Laurentia",
		Color: "#8a6642",
		Kind:  simulation.KindCrust,
		Crust: simulation.CrustContinental,
		Motion: simulation.EulerPole{
			Position:     core.Coordinate{Lon: 0, Lat: 90},
			RateDegPerMa: 0.8,
		},
		InitialPolygons: []core.Polygon{{
			Closed: true,
			Points: []core.Coordinate{
				{Lon: -60, Lat: -25}, {Lon: -15, Lat: -25},
				{Lon: -15, Lat: 30}, {Lon: -60, Lat: 30},
			},
		}},
		InitialFeatures: []simulation.Feature{{
			ID:               "laurentia-flow-1",
			Kind:             simulation.FeatureFlowline,
			Position:         core.Coordinate{Lon: -40, Lat: 0},
			OriginalPosition: core.Coordinate{Lon: -40, Lat: 0},
		}},
		ConnectedRiftIDs: []string{"mid-rift"},
	}
	west.Features = append(west.Features, west.InitialFeatures...)

	east := &simulation.TectonicPlate{
		ID:    "baltica",
		Name:  "Baltica",
		Color: "#5b7a4a",
		Kind:  simulation.KindCrust,
		Crust: simulation.CrustContinental,
		Motion: simulation.EulerPole{
			Position:     core.Coordinate{Lon: 90, Lat: 45},
			RateDegPerMa: -0.5,
		},
		InitialPolygons: []core.Polygon{{
			Closed: true,
			Points: []core.Coordinate{
				{Lon: -18, Lat: -20}, {Lon: 35, Lat: -20},
				{Lon: 35, Lat: 28}, {Lon: -18, Lat: 28},
			},
		}},
		ConnectedRiftIDs: []string{"mid-rift"},
	}

	// The rift axis sits in the slight overlap between the continents
	rift := &simulation.TectonicPlate{
		ID:    "mid-rift",
		Name:  "Mid Rift",
		Color: "#b44",
		Kind:  simulation.KindRift,
		Crust: simulation.CrustOceanic,
		InitialPolygons: []core.Polygon{{
			Points: []core.Coordinate{
				{Lon: -16, Lat: -22}, {Lon: -17, Lat: 0}, {Lon: -16, Lat: 29},
			},
			RiftEdges: []int{0, 1},
		}},
	}

	// Oceanic strip kinematically riding on the western continent
	strip := &simulation.TectonicPlate{
		ID:    "laurentia-shelf",
		Name:  "Laurentia Shelf",
		Color: "#3a5f8a",
		Kind:  simulation.KindCrust,
		Crust: simulation.CrustOceanic,
		InitialPolygons: []core.Polygon{{
			Closed: true,
			Points: []core.Coordinate{
				{Lon: -70, Lat: -20}, {Lon: -60, Lat: -20},
				{Lon: -60, Lat: 25}, {Lon: -70, Lat: 25},
			},
		}},
		LinkedToPlateID: "laurentia",
	}

	for _, p := range []*simulation.TectonicPlate{west, east, rift, strip} {
		w.AddPlate(p)
	}

	w.AddHotspot(&simulation.Hotspot{
		ID:         "iceland-plume",
		Position:   core.Coordinate{Lon: 10, Lat: 5},
		IntervalMa: hotspotIntervalMa,
		Intensity:  1.0,
	})

	slog.Info("demo world seeded", slog.Int("plates", 4), slog.Int("hotspots", 1))
}
