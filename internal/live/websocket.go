// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package live

import (
	"net/http"
	"time"

	"github.com/ManuGH/motioncam/internal/log"
	"github.com/ManuGH/motioncam/internal/metrics"
	"github.com/ManuGH/motioncam/internal/vision"
	"github.com/gorilla/websocket"
)

const (
	writeWait  = 5 * time.Second
	pongWait   = 30 * time.Second
	pingPeriod = pongWait * 9 / 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 64 * 1024,
}

// ServeSnapshot writes the newest frame of camera as JPEG.
func (h *Hub) ServeSnapshot(w http.ResponseWriter, _ *http.Request, camera string) {
	f, ok := h.Latest(camera)
	if !ok {
		http.Error(w, "no frame yet", http.StatusNotFound)
		return
	}
	buf, err := vision.EncodeJPEG(f.Image, vision.DefaultJPEGQuality)
	if err != nil {
		http.Error(w, "encode failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(buf)
}

// ServeWebsocket streams JPEG frames of camera as binary messages until the
// client disconnects.
func (h *Hub) ServeWebsocket(w http.ResponseWriter, r *http.Request, camera string) {
	logger := log.FromContext(r.Context()).With().Str(log.FieldCamera, camera).Logger()

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Debug().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer func() { _ = conn.Close() }()

	frames, cancel := h.Subscribe(camera)
	defer cancel()
	metrics.LiveClients(camera, 1)
	defer metrics.LiveClients(camera, -1)

	logger.Info().Str(log.FieldEvent, "live.viewer_connected").Str("remote", r.RemoteAddr).Msg("live viewer connected")

	// the read loop only consumes control frames and notices the close
	closed := make(chan struct{})
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	if f, ok := h.Latest(camera); ok {
		if err := writeFrame(conn, f); err != nil {
			return
		}
	}

	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()
	for {
		select {
		case <-closed:
			logger.Info().Str(log.FieldEvent, "live.viewer_disconnected").Msg("live viewer disconnected")
			return
		case <-r.Context().Done():
			return
		case f := <-frames:
			if err := writeFrame(conn, f); err != nil {
				return
			}
		case <-ping.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func writeFrame(conn *websocket.Conn, f *vision.Frame) error {
	buf, err := vision.EncodeJPEG(f.Image, vision.DefaultJPEGQuality)
	if err != nil {
		return err
	}
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteMessage(websocket.BinaryMessage, buf)
}
