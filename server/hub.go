package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Calor7/TectoLite-sub001/core"
	"github.com/Calor7/TectoLite-sub001/simulation"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // editor clients connect from arbitrary origins
	},
}

// Hub drives the tick loop and fans the per-tick snapshot out to every
// connected websocket client. Each connection carries its own write
// mutex; gorilla websockets do not allow concurrent writers.
type Hub struct {
	world *simulation.World
	stats *Stats

	tickInterval time.Duration

	clients      map[*websocket.Conn]*sync.Mutex
	clientsMutex sync.RWMutex
}

// NewHub wires the world to a broadcast loop ticking at the given interval
func NewHub(world *simulation.World, stats *Stats, tickInterval time.Duration) *Hub {
	return &Hub{
		world:        world,
		stats:        stats,
		tickInterval: tickInterval,
		clients:      make(map[*websocket.Conn]*sync.Mutex),
	}
}

// Run is the simulation loop: advance when playing, recompute, publish.
// Blocks until the done channel closes.
func (h *Hub) Run(done <-chan struct{}) {
	ticker := time.NewTicker(h.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			start := time.Now()

			if h.world.Playing() {
				requested := h.world.Speed() * h.tickInterval.Seconds()
				h.world.Advance(requested)
			}

			snap := buildSnapshot(h.world)
			h.observe(snap)
			h.broadcast(snap)

			h.stats.TickDuration.Observe(time.Since(start).Seconds())
		}
	}
}

func (h *Hub) observe(snap WorldSnapshot) {
	active := 0
	for _, p := range snap.Plates {
		if p.DeathTime == nil {
			active++
		}
	}
	h.stats.ActivePlates.Set(float64(active))

	counts := map[simulation.BoundaryType]int{}
	for _, b := range snap.Boundaries {
		counts[b.Type]++
	}
	for _, bt := range []simulation.BoundaryType{
		simulation.BoundaryConvergent,
		simulation.BoundaryDivergent,
		simulation.BoundaryTransform,
	} {
		h.stats.Boundaries.WithLabelValues(string(bt)).Set(float64(counts[bt]))
	}
}

// broadcast sends the snapshot to every client, dropping clients whose
// connection has gone away
func (h *Hub) broadcast(snap WorldSnapshot) {
	h.clientsMutex.RLock()
	conns := make(map[*websocket.Conn]*sync.Mutex, len(h.clients))
	for conn, mu := range h.clients {
		conns[conn] = mu
	}
	h.clientsMutex.RUnlock()

	for conn, mu := range conns {
		mu.Lock()
		err := conn.WriteJSON(snap)
		mu.Unlock()
		if err != nil {
			slog.Debug("dropping websocket client", slog.Any("error", err))
			h.removeClient(conn)
			conn.Close()
		}
	}
}

func (h *Hub) addClient(conn *websocket.Conn) *sync.Mutex {
	mu := &sync.Mutex{}
	h.clientsMutex.Lock()
	h.clients[conn] = mu
	h.clientsMutex.Unlock()
	h.stats.Clients.Inc()
	return mu
}

func (h *Hub) removeClient(conn *websocket.Conn) {
	h.clientsMutex.Lock()
	if _, ok := h.clients[conn]; ok {
		delete(h.clients, conn)
		h.stats.Clients.Dec()
	}
	h.clientsMutex.Unlock()
}

// WebsocketHandler upgrades the connection, sends one immediate
// snapshot, then reads editor commands until the client goes away
func (h *Hub) WebsocketHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("websocket upgrade failed", slog.Any("error", err))
		return
	}
	defer conn.Close()

	mu := h.addClient(conn)
	defer h.removeClient(conn)

	mu.Lock()
	err = conn.WriteJSON(buildSnapshot(h.world))
	mu.Unlock()
	if err != nil {
		return
	}

	for {
		var msg json.RawMessage
		if err := conn.ReadJSON(&msg); err != nil {
			return
		}
		if err := h.handleCommand(msg); err != nil {
			slog.Warn("command rejected", slog.Any("error", err))
			mu.Lock()
			conn.WriteJSON(map[string]string{"type": "error", "error": err.Error()})
			mu.Unlock()
		}
	}
}

// command is the inbound editor message envelope; fields are sparse and
// the populated ones select the action
type command struct {
	TimeSpeed *float64 `json:"timeSpeed,omitempty"`
	Playing   *bool    `json:"playing,omitempty"`
	Scrub     *float64 `json:"scrub,omitempty"`

	Split *struct {
		PlateID string            `json:"plateId"`
		Points  []core.Coordinate `json:"points"`
	} `json:"split,omitempty"`

	SetMotion *struct {
		PlateID      string               `json:"plateId"`
		Pole         simulation.EulerPole `json:"pole"`
		KeyframeTime *float64             `json:"keyframeTime,omitempty"`
	} `json:"setMotion,omitempty"`

	Fuse *struct {
		PlateIDs [2]string `json:"plateIds"`
	} `json:"fuse,omitempty"`
}

func (h *Hub) handleCommand(raw json.RawMessage) error {
	var cmd command
	if err := json.Unmarshal(raw, &cmd); err != nil {
		return err
	}

	if cmd.TimeSpeed != nil {
		slog.Info("speed change", slog.Float64("maPerSec", *cmd.TimeSpeed))
		h.world.SetSpeed(*cmd.TimeSpeed)
	}
	if cmd.Playing != nil {
		h.world.SetPlaying(*cmd.Playing)
	}
	if cmd.Scrub != nil {
		h.world.Scrub(*cmd.Scrub)
	}

	if cmd.Split != nil {
		cut := core.Polygon{Points: cmd.Split.Points}
		if err := h.world.Split(cmd.Split.PlateID, cut); err != nil {
			return err
		}
		h.stats.Splits.Inc()
	}

	if cmd.SetMotion != nil {
		if err := h.world.SetMotion(cmd.SetMotion.PlateID, cmd.SetMotion.Pole, cmd.SetMotion.KeyframeTime); err != nil {
			return err
		}
	}

	if cmd.Fuse != nil {
		if err := h.world.Fuse(cmd.Fuse.PlateIDs[0], cmd.Fuse.PlateIDs[1]); err != nil {
			return err
		}
		h.stats.Fuses.Inc()
	}

	return nil
}
