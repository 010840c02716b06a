package config

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
)

type Settings struct {
	Simulation SimulationSettings `json:"simulation"`
	Server     ServerSettings     `json:"server"`
}

type SimulationSettings struct {
	DefaultSpeedMaPerSec float64 `json:"defaultSpeedMaPerSec"`
	MinStepMa            float64 `json:"minStepMa"`
	MaxStepMa            float64 `json:"maxStepMa"`
	StressThreshold      float64 `json:"stressThreshold"`
	HotspotIntervalMa    float64 `json:"hotspotIntervalMa"`
}

type ServerSettings struct {
	Port             int `json:"port"`
	UpdateIntervalMs int `json:"updateIntervalMs"`
}

// Defaults returns the built-in settings used when no file is present
func Defaults() Settings {
	return Settings{
		Simulation: SimulationSettings{
			DefaultSpeedMaPerSec: 1.0,
			MinStepMa:            0.01,
			MaxStepMa:            1.0,
			StressThreshold:      0.2,
			HotspotIntervalMa:    5.0,
		},
		Server: ServerSettings{
			Port:             8080,
			UpdateIntervalMs: 100,
		},
	}
}

// Load reads settings from the given JSON file, falling back to the
// defaults when the file does not exist. A present but malformed file is
// an error; running on defaults the user did not ask for would hide the
// mistake.
func Load(path string) (Settings, error) {
	settings := Defaults()

	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			slog.Info("no settings file found, using defaults", slog.String("path", path))
			return settings, nil
		}
		return settings, err
	}
	defer file.Close()

	decoder := json.NewDecoder(file)
	if err := decoder.Decode(&settings); err != nil {
		return Defaults(), fmt.Errorf("error parsing %s: %w", path, err)
	}

	slog.Info("loaded settings",
		slog.String("path", path),
		slog.Int("port", settings.Server.Port),
		slog.Float64("speedMaPerSec", settings.Simulation.DefaultSpeedMaPerSec))

	return settings, nil
}
