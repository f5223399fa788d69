// SPDX-License-Identifier: MIT

package api

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/streamkit/playctl/internal/log"
)

const (
	writeWait  = 10 * time.Second
	pingPeriod = 30 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// The firehose is a local debug surface; same-origin enforcement is
	// left to the embedding deployment.
	CheckOrigin: func(*http.Request) bool { return true },
}

// event is the envelope pushed to websocket observers.
type event struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// handleEvents streams transitions, snapshots, alerts and cleanup results to
// a websocket observer. A slow observer drops messages rather than blocking
// the producing components.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn().Err(err).Str(log.FieldEvent, "api.ws_upgrade_failed").Msg("websocket upgrade failed")
		return
	}
	defer func() { _ = conn.Close() }()

	transitions := s.machine.Subscribe()
	defer transitions.Close()
	snapshots := s.perf.SubscribeSnapshots()
	defer snapshots.Close()
	alerts := s.perf.SubscribeAlerts()
	defer alerts.Close()
	configs := s.bufferMgr.Subscribe()
	defer configs.Close()
	results := s.coordinator.Subscribe()
	defer results.Close()

	// Reader goroutine: drain control frames and unblock on client close.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	write := func(ev event) bool {
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteJSON(ev); err != nil {
			return false
		}
		return true
	}

	for {
		select {
		case tr, ok := <-transitions.C():
			if !ok || !write(event{Type: "transition", Data: tr}) {
				return
			}
		case snap, ok := <-snapshots.C():
			if !ok || !write(event{Type: "snapshot", Data: snap}) {
				return
			}
		case alert, ok := <-alerts.C():
			if !ok || !write(event{Type: "alert", Data: alert}) {
				return
			}
		case cfg, ok := <-configs.C():
			if !ok || !write(event{Type: "buffer_config", Data: cfg}) {
				return
			}
		case res, ok := <-results.C():
			if !ok || !write(event{Type: "cleanup_result", Data: res}) {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-closed:
			return
		case <-r.Context().Done():
			return
		}
	}
}
