package main

import (
	"fmt"

	"github.com/Calor7/TectoLite-sub001/core"
	"github.com/Calor7/TectoLite-sub001/simulation"
)

// Prints reconstructed geometry for a small plate set at several query
// times, for eyeballing the motion model against hand calculations.
func main() {
	fmt.Println("=== Plate Motion Reconstruction Check ===")

	parent := &simulation.TectonicPlate{
		ID:    "parent",
		Name:  "Parent",
		Kind:  simulation.KindCrust,
		Crust: simulation.CrustContinental,
		Keyframes: []simulation.MotionKeyframe{{
			Time: 0,
			Pole: simulation.EulerPole{
				Position:     core.Coordinate{Lon: 0, Lat: 90},
				RateDegPerMa: 10,
			},
			SnapshotPolygons: []core.Polygon{{
				Closed: true,
				Points: []core.Coordinate{
					{Lon: -10, Lat: -10}, {Lon: 10, Lat: -10},
					{Lon: 10, Lat: 10}, {Lon: -10, Lat: 10},
				},
			}},
		}},
		InitialPolygons: []core.Polygon{{
			Closed: true,
			Points: []core.Coordinate{
				{Lon: -10, Lat: -10}, {Lon: 10, Lat: -10},
				{Lon: 10, Lat: 10}, {Lon: -10, Lat: 10},
			},
		}},
	}

	child := &simulation.TectonicPlate{
		ID:    "child",
		Name:  "Child",
		Kind:  simulation.KindCrust,
		Crust: simulation.CrustOceanic,
		Motion: simulation.EulerPole{
			Position:     core.Coordinate{Lon: 90, Lat: 0},
			RateDegPerMa: 2,
		},
		InitialPolygons: []core.Polygon{{
			Closed: true,
			Points: []core.Coordinate{
				{Lon: 20, Lat: -5}, {Lon: 30, Lat: -5},
				{Lon: 30, Lat: 5}, {Lon: 20, Lat: 5},
			},
		}},
		LinkedToPlateID: "parent",
		LinkTime:        2,
	}

	all := map[string]*simulation.TectonicPlate{
		"parent": parent,
		"child":  child,
	}

	for _, t := range []float64{0, 2, 5, 10} {
		fmt.Printf("\n--- t = %.0f Ma ---\n", t)
		for _, p := range []*simulation.TectonicPlate{parent, child} {
			m := simulation.PlateAtTime(p, t, all)
			fmt.Printf("%s: center (%.3f, %.3f)\n", m.Name, m.Center.Lon, m.Center.Lat)
			for _, pt := range m.Polygons[0].Points {
				fmt.Printf("  (%.3f, %.3f)\n", pt.Lon, pt.Lat)
			}
		}
	}

	// The parent rotates about the north pole at 10 deg/Ma, so at t=5
	// every vertex should sit exactly 50 degrees east of its start
	fmt.Println("\n--- direct Rodrigues cross-check at t = 5 ---")
	axis := core.ToVector(core.Coordinate{Lon: 0, Lat: 90})
	m := simulation.PlateAtTime(parent, 5, all)
	for i, pt := range parent.InitialPolygons[0].Points {
		want := core.RotateCoord(pt, axis, core.DegreesToRadians(50))
		got := m.Polygons[0].Points[i]
		fmt.Printf("  want (%.6f, %.6f)  got (%.6f, %.6f)\n", want.Lon, want.Lat, got.Lon, got.Lat)
	}
}
