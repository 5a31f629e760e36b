package handlers

import (
	"net/http"

	"github.com/Sean4E/PMHub2/logging"
	"github.com/Sean4E/PMHub2/realtime"

	"github.com/gorilla/websocket"
)

// WSHandler upgrades authenticated handshakes into registered realtime
// connections.
type WSHandler struct {
	gate       *realtime.AuthGate
	registry   *realtime.Registry
	rooms      *realtime.RoomRouter
	dispatcher *realtime.Dispatcher
	upgrader   websocket.Upgrader
}

func NewWSHandler(gate *realtime.AuthGate, registry *realtime.Registry, rooms *realtime.RoomRouter, dispatcher *realtime.Dispatcher) *WSHandler {
	return &WSHandler{
		gate:       gate,
		registry:   registry,
		rooms:      rooms,
		dispatcher: dispatcher,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// HandleConnection authenticates, upgrades and registers a connection, then
// pumps frames until disconnect. On disconnect the connection's room
// memberships are cleared before it leaves the registry.
func (h *WSHandler) HandleConnection(w http.ResponseWriter, r *http.Request) {
	identity, err := h.gate.Authenticate(r)
	if err != nil {
		logging.Logger.Warnf("Event ID: WS_AUTH_REJECTED, Description: Handshake rejected: %v", err)
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	}

	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Logger.Errorf("Event ID: WS_UPGRADE_FAILED, Description: Upgrade failed for user %s: %v", identity.Name, err)
		return
	}

	conn := realtime.NewConnection(*identity, ws)
	h.registry.Register(conn)

	go conn.WritePump()
	conn.ReadPump(h.dispatcher, func() {
		h.rooms.RemoveConnection(conn)
		h.registry.Unregister(conn)
	})
}
