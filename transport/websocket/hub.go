package websocket

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/partyrooms/server/lobby/registry"
	"github.com/partyrooms/server/lobby/service"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Allow all origins in development
		// TODO: Configure this for production
		return true
	},
}

// Hub maintains the set of active clients and delivers room events to
// them. It implements service.Notifier: the room service calls back into
// the hub to acknowledge requests and fan snapshots out to room members.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client

	// Room membership by connection, shared with the room service.
	registry *registry.Registry
}

// NewHub creates a new WebSocket hub. The registry must be the same
// instance the room service uses, so the hub can resolve a room code to
// its member connections.
func NewHub(reg *registry.Registry) *Hub {
	return &Hub{
		clients:  make(map[string]*Client),
		registry: reg,
	}
}

// ServeWS upgrades an HTTP request and starts the client's pumps. Each
// connection gets a fresh identity; rooms are keyed by it.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, svc service.RoomService) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}

	client := &Client{
		id:   uuid.NewString(),
		hub:  h,
		conn: conn,
		send: make(chan []byte, 256),
		svc:  svc,
	}

	h.addClient(client)

	go client.writePump()
	go client.readPump()

	client.enqueue(&Message{
		Event: EventServerMessage,
		Data:  ServerNotice{Msg: "connected"},
	})
}

// RoomJoined acknowledges a successful create or join to the requester.
func (h *Hub) RoomJoined(connID string, snap *service.RoomSnapshot) {
	h.sendTo(connID, &Message{Event: EventRoomJoined, Data: snap})
}

// RoomUpdated fans the snapshot out to every member of the room.
func (h *Hub) RoomUpdated(snap *service.RoomSnapshot) {
	msg := &Message{Event: EventRoomUpdate, Data: snap}
	for _, connID := range h.registry.Members(snap.Code) {
		h.sendTo(connID, msg)
	}
}

// RoomDeleted tells the listed connections their room is gone. Members
// are already unbound by the time this runs, so recipients come from the
// service, not the registry.
func (h *Hub) RoomDeleted(code string, recipients []string) {
	msg := &Message{Event: EventRoomDeleted, Data: RoomDeletedNotice{Code: code}}
	for _, connID := range recipients {
		h.sendTo(connID, msg)
	}
}

// ClientCount returns the number of open connections.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// sendTo marshals and queues a message for one connection.
func (h *Hub) sendTo(connID string, msg *Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("Failed to marshal WebSocket message: %v", err)
		return
	}

	h.mu.RLock()
	client, ok := h.clients[connID]
	h.mu.RUnlock()
	if !ok {
		return
	}
	h.deliver(client, data)
}

// deliver queues raw bytes for a client. The read lock excludes
// removeClient, so the send channel cannot be closed mid-send. A client
// that cannot keep up is dropped.
func (h *Hub) deliver(client *Client, data []byte) {
	h.mu.RLock()
	if _, ok := h.clients[client.id]; !ok {
		h.mu.RUnlock()
		return
	}

	select {
	case client.send <- data:
		h.mu.RUnlock()
	default:
		h.mu.RUnlock()
		// Client's send channel is full, drop it
		h.removeClient(client)
	}
}

// addClient registers a connection with the hub.
func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	h.clients[client.id] = client
	total := len(h.clients)
	h.mu.Unlock()

	log.Printf("Client %s connected (total clients: %d)", client.id, total)
}

// removeClient drops a connection from the hub and closes its send
// channel. Safe to call twice; only the first call wins.
func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	_, ok := h.clients[client.id]
	if ok {
		delete(h.clients, client.id)
	}
	remaining := len(h.clients)
	h.mu.Unlock()

	if !ok {
		return
	}
	close(client.send)

	log.Printf("Client %s disconnected (remaining clients: %d)", client.id, remaining)
}
