package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/zeusync/kartsim/internal/core/events/bus"
	"github.com/zeusync/kartsim/internal/core/kart/vehicle"
	"github.com/zeusync/kartsim/internal/core/observability/log"
)

// allVehicles is the room of clients that did not filter by vehicle.
const allVehicles = "*"

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin:     func(*http.Request) bool { return true },
}

type Config struct {
	// ClientBuffer is how many snapshots may queue per client before new
	// ones are dropped for that client.
	ClientBuffer int
	WriteTimeout time.Duration
}

func DefaultConfig() Config {
	return Config{
		ClientBuffer: 64,
		WriteTimeout: 5 * time.Second,
	}
}

type client struct {
	conn    *websocket.Conn
	vehicle string
	send    chan []byte
	once    sync.Once
}

func (c *client) close() {
	c.once.Do(func() {
		close(c.send)
	})
}

// Room groups the clients watching one vehicle.
type Room struct {
	clients map[*client]struct{}
}

// TelemetryHub streams vehicle snapshots as JSON text frames to websocket
// clients. Clients connect to /ws and may pass ?vehicle=<id> to receive a
// single vehicle. Slow clients lose snapshots instead of blocking the
// simulation.
type TelemetryHub struct {
	cfg    Config
	logger log.Log

	mu    sync.RWMutex
	rooms map[string]*Room

	mux     *http.ServeMux
	server  *http.Server
	addr    string
	running atomic.Bool
	dropped atomic.Uint64
	sent    atomic.Uint64
}

func NewTelemetryHub(cfg Config, logger log.Log) *TelemetryHub {
	if cfg.ClientBuffer <= 0 {
		cfg.ClientBuffer = DefaultConfig().ClientBuffer
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = DefaultConfig().WriteTimeout
	}
	if logger == nil {
		logger = log.NewNop()
	}
	h := &TelemetryHub{
		cfg:    cfg,
		logger: logger.With(log.String("component", "telemetry_hub")),
		rooms:  make(map[string]*Room),
		mux:    http.NewServeMux(),
	}
	h.mux.HandleFunc("/ws", h.handleWebSocket)
	h.mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = fmt.Fprintf(w, "ok clients=%d\n", h.ClientCount())
	})
	return h
}

func (h *TelemetryHub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

// Attach subscribes the hub to vehicle telemetry events on b.
func (h *TelemetryHub) Attach(b bus.EventBus) (bus.Subscription, error) {
	return b.Subscribe(bus.TypeVehicleTelemetry, func(e bus.Event) error {
		snap, ok := e.Data().(vehicle.Snapshot)
		if !ok {
			return fmt.Errorf("%w: %T", ErrInvalidMessage, e.Data())
		}
		return h.Broadcast(snap)
	})
}

// Broadcast queues snap for every client watching its vehicle.
func (h *TelemetryHub) Broadcast(snap vehicle.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, key := range [...]string{snap.VehicleID, allVehicles} {
		room, ok := h.rooms[key]
		if !ok {
			continue
		}
		for c := range room.clients {
			select {
			case c.send <- data:
				h.sent.Add(1)
			default:
				h.dropped.Add(1)
			}
		}
	}
	return nil
}

func (h *TelemetryHub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for _, room := range h.rooms {
		n += len(room.clients)
	}
	return n
}

// Dropped is the number of snapshots discarded for slow clients.
func (h *TelemetryHub) Dropped() uint64 { return h.dropped.Load() }

func (h *TelemetryHub) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	vehicleID := r.URL.Query().Get("vehicle")
	if vehicleID == "" {
		vehicleID = allVehicles
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", log.Error(err))
		return
	}

	c := &client{
		conn:    conn,
		vehicle: vehicleID,
		send:    make(chan []byte, h.cfg.ClientBuffer),
	}
	h.register(c)
	h.logger.Debug("client connected",
		log.String("remote", conn.RemoteAddr().String()),
		log.String("vehicle", vehicleID),
	)

	go h.writePump(c)
	h.readPump(c)
}

// readPump discards client frames and unregisters the client once the
// connection fails or closes.
func (h *TelemetryHub) readPump(c *client) {
	defer h.unregister(c)
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *TelemetryHub) writePump(c *client) {
	defer c.conn.Close()
	for msg := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(h.cfg.WriteTimeout))
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			h.logger.Debug("write failed", log.Error(err))
			h.unregister(c)
			return
		}
	}
	_ = c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
}

func (h *TelemetryHub) getOrCreateRoomLocked(vehicleID string) *Room {
	if room, exists := h.rooms[vehicleID]; exists {
		return room
	}
	room := &Room{clients: make(map[*client]struct{})}
	h.rooms[vehicleID] = room
	return room
}

func (h *TelemetryHub) register(c *client) {
	h.mu.Lock()
	h.getOrCreateRoomLocked(c.vehicle).clients[c] = struct{}{}
	h.mu.Unlock()
}

func (h *TelemetryHub) unregister(c *client) {
	h.mu.Lock()
	if room, ok := h.rooms[c.vehicle]; ok {
		delete(room.clients, c)
		if len(room.clients) == 0 {
			delete(h.rooms, c.vehicle)
		}
	}
	h.mu.Unlock()
	c.close()
}

func (h *TelemetryHub) closeAll() {
	h.mu.Lock()
	var all []*client
	for _, room := range h.rooms {
		for c := range room.clients {
			all = append(all, c)
		}
	}
	h.rooms = make(map[string]*Room)
	h.mu.Unlock()

	for _, c := range all {
		c.close()
	}
}
