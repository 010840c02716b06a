package server

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Calor7/TectoLite-sub001/core"
	"github.com/Calor7/TectoLite-sub001/simulation"
)

func testHub(t *testing.T) *Hub {
	t.Helper()
	world := simulation.NewWorld(&simulation.SequenceSource{Prefix: "p"}, simulation.PlanarClipper{}, nil)
	world.AddPlate(&simulation.TectonicPlate{
		ID:    "alpha",
		Name:  "Alpha",
		Kind:  simulation.KindCrust,
		Crust: simulation.CrustContinental,
		Motion: simulation.EulerPole{
			Position:     core.Coordinate{Lon: 0, Lat: 90},
			RateDegPerMa: 1,
		},
		InitialPolygons: []core.Polygon{{
			Closed: true,
			Points: []core.Coordinate{
				{Lon: -20, Lat: -20},
				{Lon: 20, Lat: -20},
				{Lon: 20, Lat: 20},
				{Lon: -20, Lat: 20},
			},
		}},
	})
	return NewHub(world, NewStats(), 10*time.Millisecond)
}

func TestStateHandler(t *testing.T) {
	h := testHub(t)
	srv := httptest.NewServer(h.SetupMux())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/state")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status: got %d, want 200", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("content type: got %s", ct)
	}

	var snap WorldSnapshot
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		t.Fatal(err)
	}
	if snap.Type != "snapshot" {
		t.Errorf("type: got %s, want snapshot", snap.Type)
	}
	if len(snap.Plates) != 1 || snap.Plates[0].ID != "alpha" {
		t.Errorf("plates: %+v", snap.Plates)
	}
	if len(snap.Plates[0].Polygons) != 1 {
		t.Error("plate carries no geometry")
	}
}

func TestHealthAndVersionHandlers(t *testing.T) {
	h := testHub(t)
	srv := httptest.NewServer(h.SetupMux())
	defer srv.Close()

	for _, path := range []string{"/healthz", "/api/version"} {
		resp, err := http.Get(srv.URL + path)
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Errorf("%s: got %d, want 200", path, resp.StatusCode)
		}
	}
}

func TestMetricsHandler(t *testing.T) {
	h := testHub(t)
	h.stats.Splits.Inc()

	srv := httptest.NewServer(h.SetupMux())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(body), "tectolite_splits_total 1") {
		t.Error("split counter missing from metrics output")
	}
}

func TestHandleCommand(t *testing.T) {
	h := testHub(t)

	if err := h.handleCommand(json.RawMessage(`{"timeSpeed": 2.5, "playing": true}`)); err != nil {
		t.Fatal(err)
	}
	if h.world.Speed() != 2.5 {
		t.Errorf("speed: got %f, want 2.5", h.world.Speed())
	}
	if !h.world.Playing() {
		t.Error("world not playing after the command")
	}

	if err := h.handleCommand(json.RawMessage(`{"scrub": 7}`)); err != nil {
		t.Fatal(err)
	}
	if h.world.Time() != 7 {
		t.Errorf("time: got %f, want 7", h.world.Time())
	}

	split := `{"split": {"plateId": "alpha", "points": [
		{"lon": 7, "lat": -40}, {"lon": 7, "lat": 40}]}}`
	if err := h.handleCommand(json.RawMessage(split)); err != nil {
		t.Fatal(err)
	}
	snap := buildSnapshot(h.world)
	if len(snap.Plates) != 3 {
		t.Errorf("plates after split: got %d, want 3", len(snap.Plates))
	}

	// A split that misses is rejected and reported
	miss := `{"split": {"plateId": "alpha", "points": [
		{"lon": 170, "lat": -40}, {"lon": 170, "lat": 40}]}}`
	if err := h.handleCommand(json.RawMessage(miss)); err == nil {
		t.Error("expected an error for a cut that misses the plate")
	}
}

func TestWebsocketFeed(t *testing.T) {
	h := testHub(t)
	srv := httptest.NewServer(h.SetupMux())
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	// The first snapshot arrives without waiting for a tick
	var snap WorldSnapshot
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if err := conn.ReadJSON(&snap); err != nil {
		t.Fatal(err)
	}
	if snap.Type != "snapshot" || len(snap.Plates) != 1 {
		t.Errorf("welcome snapshot: %+v", snap)
	}

	// Commands over the socket take effect
	if err := conn.WriteJSON(map[string]float64{"scrub": 3}); err != nil {
		t.Fatal(err)
	}
	deadline := time.Now().Add(2 * time.Second)
	for h.world.Time() != 3 {
		if time.Now().After(deadline) {
			t.Fatal("scrub command never applied")
		}
		time.Sleep(5 * time.Millisecond)
	}
}
