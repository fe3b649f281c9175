// Command roomload drives synthetic room churn against a running server.
//
// Each worker repeatedly creates a room over WebSocket, joins it from a
// second connection, exchanges a ping, and leaves. It is meant for
// smoke-testing capacity handling and room reclamation under concurrent
// load, and prints a summary of operations and errors at the end.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/partyrooms/server/lobby/service"
	wsproto "github.com/partyrooms/server/transport/websocket"
)

var (
	serverURL = flag.String("server", "ws://localhost:8080", "Server URL")
	workers   = flag.Int("workers", 8, "Concurrent worker pairs")
	duration  = flag.Duration("duration", 30*time.Second, "How long to run")
)

type counters struct {
	created int64
	joined  int64
	left    int64
	pings   int64
	errors  int64
}

func main() {
	flag.Parse()

	url := normalizeURL(*serverURL)
	log.Printf("Running %d workers against %s for %s", *workers, url, *duration)

	var stats counters
	deadline := time.Now().Add(*duration)

	var wg sync.WaitGroup
	for i := 0; i < *workers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for time.Now().Before(deadline) {
				if err := runCycle(url, id, &stats); err != nil {
					atomic.AddInt64(&stats.errors, 1)
					log.Printf("worker %d: %v", id, err)
					time.Sleep(250 * time.Millisecond)
				}
			}
		}(i)
	}
	wg.Wait()

	fmt.Printf("\nDone:\n")
	fmt.Printf("  rooms created: %d\n", atomic.LoadInt64(&stats.created))
	fmt.Printf("  joins:         %d\n", atomic.LoadInt64(&stats.joined))
	fmt.Printf("  leaves:        %d\n", atomic.LoadInt64(&stats.left))
	fmt.Printf("  pings:         %d\n", atomic.LoadInt64(&stats.pings))
	fmt.Printf("  errors:        %d\n", atomic.LoadInt64(&stats.errors))
}

func normalizeURL(raw string) string {
	url := strings.TrimSuffix(raw, "/")
	url = strings.Replace(url, "http://", "ws://", 1)
	url = strings.Replace(url, "https://", "wss://", 1)
	if !strings.HasSuffix(url, "/ws") {
		url += "/ws"
	}
	return url
}

// runCycle performs one create/join/ping/leave round trip with a pair of
// connections.
func runCycle(url string, id int, stats *counters) error {
	creator, err := newConn(url)
	if err != nil {
		return err
	}
	defer creator.close()

	name := fmt.Sprintf("load-%d", id)
	if err := creator.send(wsproto.EventCreateRoom, wsproto.CreateRoomRequest{Username: name}); err != nil {
		return fmt.Errorf("create: %w", err)
	}
	snap, err := creator.awaitSnapshot(wsproto.EventRoomJoined)
	if err != nil {
		return fmt.Errorf("create ack: %w", err)
	}
	atomic.AddInt64(&stats.created, 1)

	joiner, err := newConn(url)
	if err != nil {
		return err
	}
	defer joiner.close()

	if err := joiner.send(wsproto.EventJoinRoom, wsproto.JoinRoomRequest{Username: name + "-peer", Code: snap.Code}); err != nil {
		return fmt.Errorf("join: %w", err)
	}
	if _, err := joiner.awaitSnapshot(wsproto.EventRoomJoined); err != nil {
		return fmt.Errorf("join ack: %w", err)
	}
	atomic.AddInt64(&stats.joined, 1)

	when, _ := json.Marshal(time.Now().UnixMilli())
	if err := joiner.send(wsproto.EventPing, wsproto.PingRequest{When: when}); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	if _, err := joiner.await(wsproto.EventPong); err != nil {
		return fmt.Errorf("pong: %w", err)
	}
	atomic.AddInt64(&stats.pings, 1)

	// Creator leaves cleanly; the joiner just drops so the server's
	// disconnect path gets exercised too.
	if err := creator.send(wsproto.EventLeaveRoom, wsproto.LeaveRoomRequest{Code: snap.Code}); err != nil {
		return fmt.Errorf("leave: %w", err)
	}
	atomic.AddInt64(&stats.left, 1)
	return nil
}

// conn is a minimal protocol connection with newline-coalesced frame
// splitting.
type conn struct {
	ws      *websocket.Conn
	pending [][]byte
}

func newConn(url string) (*conn, error) {
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}
	return &conn{ws: ws}, nil
}

func (c *conn) close() {
	c.ws.Close()
}

func (c *conn) send(event string, data interface{}) error {
	return c.ws.WriteJSON(&wsproto.Message{Event: event, Data: data})
}

func (c *conn) await(event string) (json.RawMessage, error) {
	for {
		for len(c.pending) == 0 {
			c.ws.SetReadDeadline(time.Now().Add(5 * time.Second))
			_, data, err := c.ws.ReadMessage()
			if err != nil {
				return nil, err
			}
			for _, part := range bytes.Split(data, []byte{'\n'}) {
				if len(part) > 0 {
					c.pending = append(c.pending, part)
				}
			}
		}

		raw := c.pending[0]
		c.pending = c.pending[1:]

		var env wsproto.Envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			return nil, fmt.Errorf("bad frame %q: %w", raw, err)
		}

		switch env.Event {
		case event:
			return env.Data, nil
		case wsproto.EventErrorMessage:
			var notice wsproto.ErrorNotice
			json.Unmarshal(env.Data, &notice)
			return nil, fmt.Errorf("server: %s", notice.Msg)
		}
	}
}

func (c *conn) awaitSnapshot(event string) (*service.RoomSnapshot, error) {
	data, err := c.await(event)
	if err != nil {
		return nil, err
	}
	var snap service.RoomSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("bad snapshot: %w", err)
	}
	return &snap, nil
}
