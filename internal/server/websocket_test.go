package server

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/kartsim/internal/core/events/bus"
	"github.com/zeusync/kartsim/internal/core/kart/vehicle"
)

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readSnapshot(t *testing.T, conn *websocket.Conn) vehicle.Snapshot {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var snap vehicle.Snapshot
	require.NoError(t, conn.ReadJSON(&snap))
	return snap
}

func TestTelemetryHubFiltersByVehicle(t *testing.T) {
	hub := NewTelemetryHub(DefaultConfig(), nil)
	s := httptest.NewServer(hub)
	defer s.Close()

	u := "ws" + strings.TrimPrefix(s.URL, "http") + "/ws"
	only := dial(t, u+"?vehicle=kart-1")
	all := dial(t, u)
	require.Eventually(t, func() bool { return hub.ClientCount() == 2 }, 2*time.Second, 5*time.Millisecond)

	require.NoError(t, hub.Broadcast(vehicle.Snapshot{VehicleID: "kart-2", Tick: 1}))
	require.NoError(t, hub.Broadcast(vehicle.Snapshot{VehicleID: "kart-1", Tick: 2, RPM: 4200}))

	got := readSnapshot(t, only)
	assert.Equal(t, "kart-1", got.VehicleID)
	assert.Equal(t, uint64(2), got.Tick)
	assert.Equal(t, 4200.0, got.RPM)

	assert.Equal(t, "kart-2", readSnapshot(t, all).VehicleID)
	assert.Equal(t, "kart-1", readSnapshot(t, all).VehicleID)
}

func TestTelemetryHubAttachesToBus(t *testing.T) {
	hub := NewTelemetryHub(DefaultConfig(), nil)
	s := httptest.NewServer(hub)
	defer s.Close()

	b := bus.New()
	sub, err := hub.Attach(b)
	require.NoError(t, err)
	defer sub.Cancel()

	conn := dial(t, "ws"+strings.TrimPrefix(s.URL, "http")+"/ws?vehicle=kart-9")
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, 2*time.Second, 5*time.Millisecond)

	snap := vehicle.Snapshot{VehicleID: "kart-9", Tick: 7}
	snap.Wheels[vehicle.RearLeft].Fx = 12.5
	require.NoError(t, b.Publish(bus.NewEvent(bus.TypeVehicleTelemetry, "kart-9", snap)))

	got := readSnapshot(t, conn)
	assert.Equal(t, uint64(7), got.Tick)
	assert.Equal(t, 12.5, got.Wheel(vehicle.RearLeft).Fx)

	err = b.Publish(bus.NewEvent(bus.TypeVehicleTelemetry, "bad", "not a snapshot"))
	assert.ErrorIs(t, err, ErrInvalidMessage)
}

func TestTelemetryHubDropsForSlowClients(t *testing.T) {
	hub := NewTelemetryHub(Config{ClientBuffer: 1}, nil)
	c := &client{vehicle: "kart", send: make(chan []byte, 1)}
	hub.register(c)

	for i := 0; i < 5; i++ {
		require.NoError(t, hub.Broadcast(vehicle.Snapshot{VehicleID: "kart"}))
	}
	assert.Equal(t, uint64(4), hub.Dropped())

	hub.unregister(c)
	assert.Equal(t, 0, hub.ClientCount())
	_, open := <-c.send
	assert.True(t, open, "queued snapshot is still readable")
	_, open = <-c.send
	assert.False(t, open)
}

func TestTelemetryHubStartStop(t *testing.T) {
	hub := NewTelemetryHub(DefaultConfig(), nil)
	ctx := context.Background()

	assert.ErrorIs(t, hub.Stop(ctx), ErrServerNotRunning)
	require.NoError(t, hub.Start(ctx, "127.0.0.1:0"))
	assert.ErrorIs(t, hub.Start(ctx, "127.0.0.1:0"), ErrServerAlreadyRunning)

	addr := hub.Addr()
	require.NotEmpty(t, addr)

	resp, err := http.Get(fmt.Sprintf("http://%s/healthz", addr))
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	conn := dial(t, fmt.Sprintf("ws://%s/ws", addr))
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, 2*time.Second, 5*time.Millisecond)

	require.NoError(t, hub.Stop(ctx))
	assert.Equal(t, 0, hub.ClientCount())
	assert.Empty(t, hub.Addr())

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err = conn.ReadMessage()
	assert.Error(t, err)
}
