package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/gorilla/websocket"

	"github.com/partyrooms/server/lobby/service"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 512
)

// Client represents one WebSocket connection. Its id is the connection
// identity the room service keys memberships by.
type Client struct {
	id   string
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
	svc  service.RoomService
}

// enqueue marshals and queues a message for this connection.
func (c *Client) enqueue(msg *Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("Failed to marshal WebSocket message: %v", err)
		return
	}
	c.hub.deliver(c, data)
}

// sendError reports a failed request back to the client.
func (c *Client) sendError(msg string) {
	c.enqueue(&Message{Event: EventErrorMessage, Data: ErrorNotice{Msg: msg}})
}

// readPump pumps messages from the WebSocket connection to the room
// service. Disconnection, clean or not, forces the connection out of its
// room.
func (c *Client) readPump() {
	defer func() {
		c.hub.removeClient(c)
		c.svc.Disconnect(context.Background(), c.id)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			break
		}

		var env Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			c.sendError("invalid message")
			continue
		}
		c.dispatch(&env)
	}
}

// dispatch routes one inbound event to the room service.
func (c *Client) dispatch(env *Envelope) {
	ctx := context.Background()

	switch env.Event {
	case EventCreateRoom:
		var req CreateRoomRequest
		if env.Data != nil {
			if err := json.Unmarshal(env.Data, &req); err != nil {
				c.sendError("invalid create_room payload")
				return
			}
		}
		if _, err := c.svc.CreateRoom(ctx, c.id, req.Username); err != nil {
			c.sendError(describeError(err))
		}

	case EventJoinRoom:
		var req JoinRoomRequest
		if err := json.Unmarshal(env.Data, &req); err != nil {
			c.sendError("invalid join_room_code payload")
			return
		}
		if _, err := c.svc.JoinRoom(ctx, c.id, req.Username, req.Code); err != nil {
			c.sendError(describeError(err))
		}

	case EventLeaveRoom:
		var req LeaveRoomRequest
		if err := json.Unmarshal(env.Data, &req); err != nil {
			c.sendError("invalid leave_room_code payload")
			return
		}
		if err := c.svc.LeaveRoom(ctx, c.id, req.Code); err != nil {
			c.sendError(describeError(err))
		}

	case EventPing:
		var req PingRequest
		if env.Data != nil {
			if err := json.Unmarshal(env.Data, &req); err != nil {
				c.sendError("invalid ping payload")
				return
			}
		}
		c.enqueue(&Message{
			Event: EventPong,
			Data:  PongResponse{ClientTime: req.When},
		})

	default:
		c.sendError("unknown event: " + env.Event)
	}
}

// describeError turns a service error into a client-facing message.
func describeError(err error) string {
	switch {
	case errors.Is(err, service.ErrRoomNotFound):
		return "room not found"
	case errors.Is(err, service.ErrRoomFull):
		return "room is full"
	case errors.Is(err, service.ErrAlreadyInRoom):
		return "already in a room"
	case errors.Is(err, service.ErrNotInRoom):
		return "not in that room"
	default:
		return "internal error"
	}
}

// writePump pumps messages from the hub to the WebSocket connection
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			// Add queued messages to the current WebSocket message
			n := len(c.send)
			for i := 0; i < n; i++ {
				w.Write([]byte{'\n'})
				w.Write(<-c.send)
			}

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
