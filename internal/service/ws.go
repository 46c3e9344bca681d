package service

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// TelemetryStream pushes get_telemetry snapshots over a websocket at a
// fixed rate, the streaming analogue of Telemetry.Get. The read loop
// below exists only to notice the client disconnecting; it never
// expects an incoming message.
type TelemetryStream struct {
	Telemetry *Telemetry
	Rate      time.Duration
}

func (s *TelemetryStream) Handler(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Println("telemetry ws upgrade:", err)
		return
	}
	defer conn.Close()

	frameID := r.URL.Query().Get("frame_id")

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(s.Rate)
	defer ticker.Stop()

	for {
		select {
		case <-closed:
			return
		case <-ticker.C:
			snap := s.Telemetry.Get(frameID)
			payload, err := json.Marshal(snap)
			if err != nil {
				log.Println("telemetry ws marshal:", err)
				continue
			}
			if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		}
	}
}
