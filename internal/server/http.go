package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/zeusync/kartsim/internal/core/observability/log"
)

// Start listens on addr and serves the hub in the background.
func (h *TelemetryHub) Start(_ context.Context, addr string) error {
	if !h.running.CompareAndSwap(false, true) {
		return ErrServerAlreadyRunning
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		h.running.Store(false)
		return fmt.Errorf("%w: %w", ErrListenerFailed, err)
	}

	h.mu.Lock()
	h.addr = ln.Addr().String()
	h.mu.Unlock()

	h.server = &http.Server{
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := h.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			h.logger.Error("telemetry server stopped", log.Error(err))
		}
	}()

	h.logger.Info("telemetry server listening", log.String("addr", ln.Addr().String()))
	return nil
}

// Addr is the bound listen address, or "" when the hub is not running.
func (h *TelemetryHub) Addr() string {
	if !h.running.Load() {
		return ""
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.addr
}

// Stop shuts the HTTP server down and closes every websocket client.
func (h *TelemetryHub) Stop(ctx context.Context) error {
	if !h.running.CompareAndSwap(true, false) {
		return ErrServerNotRunning
	}
	err := h.server.Shutdown(ctx)
	h.closeAll()
	h.logger.Info("telemetry server stopped",
		log.Uint64("sent", h.sent.Load()),
		log.Uint64("dropped", h.dropped.Load()),
	)
	return err
}
