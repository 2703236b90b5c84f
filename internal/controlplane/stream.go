package controlplane

import (
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/fentz26/tempo/internal/host"
	"github.com/gorilla/websocket"
)

const (
	streamPingInterval = 30 * time.Second
	streamWriteTimeout = 10 * time.Second
)

var upgrader = websocket.Upgrader{
	CheckOrigin: localOrigin,
}

// localOrigin admits non-browser clients and pages served from this machine.
func localOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	hostname := u.Hostname()
	if hostname == "localhost" {
		return true
	}
	ip := net.ParseIP(hostname)
	return ip != nil && ip.IsLoopback()
}

// handleStream upgrades to a websocket and pushes a host.Event for the current
// run followed by one per change. Client messages are ignored.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("stream upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	events, cancel := s.service.Subscribe()
	defer cancel()

	if snap, err := s.service.CurrentRun(); err == nil {
		if err := writeEvent(conn, host.Event{Type: host.EventSnapshot, Snapshot: snap}); err != nil {
			return
		}
	}

	// The read loop only notices the client going away.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					s.log.Debug("stream read error", "error", err)
				}
				return
			}
		}
	}()

	ping := time.NewTicker(streamPingInterval)
	defer ping.Stop()

	for {
		select {
		case <-closed:
			return
		case e, ok := <-events:
			if !ok {
				conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"),
					time.Now().Add(streamWriteTimeout))
				return
			}
			if err := writeEvent(conn, e); err != nil {
				s.log.Debug("stream write failed", "error", err)
				return
			}
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(streamWriteTimeout)); err != nil {
				return
			}
		}
	}
}

func writeEvent(conn *websocket.Conn, e host.Event) error {
	conn.SetWriteDeadline(time.Now().Add(streamWriteTimeout))
	defer conn.SetWriteDeadline(time.Time{})
	return conn.WriteJSON(e)
}
