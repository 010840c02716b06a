package main

import (
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/Calor7/TectoLite-sub001/config"
	"github.com/Calor7/TectoLite-sub001/server"
	"github.com/Calor7/TectoLite-sub001/simulation"
)

func main() {
	var (
		configPath = flag.String("config", "settings.json", "Path to settings file")
		port       = flag.Int("port", 0, "Server port (overrides settings)")
		demo       = flag.Bool("demo", true, "Seed the world with the demo plate set")
	)
	flag.Parse()

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	settings, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load settings", slog.Any("error", err))
		os.Exit(1)
	}
	if *port != 0 {
		settings.Server.Port = *port
	}

	step := simulation.NewStepController(
		settings.Simulation.MinStepMa,
		settings.Simulation.MaxStepMa,
		settings.Simulation.StressThreshold,
	)
	world := simulation.NewWorld(simulation.UUIDSource{}, simulation.PlanarClipper{}, step)
	world.SetSpeed(settings.Simulation.DefaultSpeedMaPerSec)

	if *demo {
		seedDemoWorld(world, settings.Simulation.HotspotIntervalMa)
	}

	stats := server.NewStats()
	hub := server.NewHub(world, stats, time.Duration(settings.Server.UpdateIntervalMs)*time.Millisecond)

	done := make(chan struct{})
	defer close(done)
	go hub.Run(done)

	addr := fmt.Sprintf(":%d", settings.Server.Port)
	slog.Info("server starting", slog.String("addr", addr))
	if err := http.ListenAndServe(addr, hub.SetupMux()); err != nil {
		slog.Error("server stopped", slog.Any("error", err))
		os.Exit(1)
	}
}
