// Command roomctl is a terminal client for the room server.
//
// It speaks the same WebSocket protocol as the web clients: create and
// join rooms, watch membership changes, and measure server latency.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	"github.com/urfave/cli/v3"

	"github.com/partyrooms/server/lobby/service"
	wsproto "github.com/partyrooms/server/transport/websocket"
)

func main() {
	cmd := &cli.Command{
		Name:    "roomctl",
		Usage:   "Terminal client for the room server",
		Version: "1.0.0",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "server",
				Value:   "ws://localhost:8080",
				Usage:   "Server URL",
				Sources: cli.EnvVars("ROOMCTL_SERVER"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "create",
				Usage: "Create a room and print its code",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "name", Value: "", Usage: "Display name"},
					&cli.BoolFlag{Name: "stay", Usage: "Stay connected and stream room events"},
				},
				Action: runCreate,
			},
			{
				Name:      "join",
				Usage:     "Join a room by code",
				ArgsUsage: "CODE",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "name", Value: "", Usage: "Display name"},
					&cli.BoolFlag{Name: "stay", Usage: "Stay connected and stream room events"},
				},
				Action: runJoin,
			},
			{
				Name:   "ping",
				Usage:  "Measure round-trip time to the server",
				Action: runPing,
			},
			{
				Name:      "watch",
				Usage:     "Join a room and stream its events until interrupted",
				ArgsUsage: "CODE",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "name", Value: "observer", Usage: "Display name"},
				},
				Action: runWatch,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

// session wraps one protocol connection. Frames can arrive coalesced
// with newline separators, so reads go through a pending queue.
type session struct {
	conn    *websocket.Conn
	pending [][]byte
}

func dialServer(serverURL string) (*session, error) {
	url := strings.TrimSuffix(serverURL, "/")
	url = strings.Replace(url, "http://", "ws://", 1)
	url = strings.Replace(url, "https://", "wss://", 1)
	if !strings.HasSuffix(url, "/ws") {
		url += "/ws"
	}

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", url, err)
	}
	return &session{conn: conn}, nil
}

func (s *session) close() {
	s.conn.Close()
}

func (s *session) send(event string, data interface{}) error {
	return s.conn.WriteJSON(&wsproto.Message{Event: event, Data: data})
}

// next returns the next envelope, waiting up to timeout. A zero timeout
// waits forever.
func (s *session) next(timeout time.Duration) (*wsproto.Envelope, error) {
	for len(s.pending) == 0 {
		if timeout > 0 {
			s.conn.SetReadDeadline(time.Now().Add(timeout))
		} else {
			s.conn.SetReadDeadline(time.Time{})
		}
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			return nil, err
		}
		for _, part := range bytes.Split(data, []byte{'\n'}) {
			if len(part) > 0 {
				s.pending = append(s.pending, part)
			}
		}
	}

	raw := s.pending[0]
	s.pending = s.pending[1:]

	var env wsproto.Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("bad frame %q: %w", raw, err)
	}
	return &env, nil
}

// await reads envelopes until one matches event, printing everything
// else it sees. An error_message frame aborts the wait.
func (s *session) await(event string) (json.RawMessage, error) {
	for {
		env, err := s.next(10 * time.Second)
		if err != nil {
			return nil, err
		}
		switch env.Event {
		case event:
			return env.Data, nil
		case wsproto.EventErrorMessage:
			var notice wsproto.ErrorNotice
			json.Unmarshal(env.Data, &notice)
			return nil, fmt.Errorf("server: %s", notice.Msg)
		default:
			// Out-of-band frame (welcome, stale update); skip it.
		}
	}
}

func runCreate(ctx context.Context, cmd *cli.Command) error {
	s, err := dialServer(cmd.String("server"))
	if err != nil {
		return err
	}
	defer s.close()

	if err := s.send(wsproto.EventCreateRoom, wsproto.CreateRoomRequest{Username: cmd.String("name")}); err != nil {
		return err
	}

	data, err := s.await(wsproto.EventRoomJoined)
	if err != nil {
		return err
	}

	snap, err := decodeSnapshot(data)
	if err != nil {
		return err
	}
	fmt.Printf("Created room %s\n", snap.Code)
	printSnapshot(snap)

	if cmd.Bool("stay") {
		return streamEvents(ctx, s, snap.Code)
	}
	return nil
}

func runJoin(ctx context.Context, cmd *cli.Command) error {
	code := cmd.Args().First()
	if code == "" {
		return fmt.Errorf("usage: roomctl join CODE")
	}

	s, err := dialServer(cmd.String("server"))
	if err != nil {
		return err
	}
	defer s.close()

	req := wsproto.JoinRoomRequest{Username: cmd.String("name"), Code: code}
	if err := s.send(wsproto.EventJoinRoom, req); err != nil {
		return err
	}

	data, err := s.await(wsproto.EventRoomJoined)
	if err != nil {
		return err
	}

	snap, err := decodeSnapshot(data)
	if err != nil {
		return err
	}
	fmt.Printf("Joined room %s\n", snap.Code)
	printSnapshot(snap)

	if cmd.Bool("stay") {
		return streamEvents(ctx, s, snap.Code)
	}
	return nil
}

func runWatch(ctx context.Context, cmd *cli.Command) error {
	code := cmd.Args().First()
	if code == "" {
		return fmt.Errorf("usage: roomctl watch CODE")
	}

	s, err := dialServer(cmd.String("server"))
	if err != nil {
		return err
	}
	defer s.close()

	req := wsproto.JoinRoomRequest{Username: cmd.String("name"), Code: code}
	if err := s.send(wsproto.EventJoinRoom, req); err != nil {
		return err
	}

	data, err := s.await(wsproto.EventRoomJoined)
	if err != nil {
		return err
	}
	snap, err := decodeSnapshot(data)
	if err != nil {
		return err
	}
	printSnapshot(snap)

	return streamEvents(ctx, s, snap.Code)
}

func runPing(ctx context.Context, cmd *cli.Command) error {
	s, err := dialServer(cmd.String("server"))
	if err != nil {
		return err
	}
	defer s.close()

	start := time.Now()
	when, _ := json.Marshal(start.UnixMilli())
	if err := s.send(wsproto.EventPing, wsproto.PingRequest{When: when}); err != nil {
		return err
	}

	data, err := s.await(wsproto.EventPong)
	if err != nil {
		return err
	}

	var pong wsproto.PongResponse
	if err := json.Unmarshal(data, &pong); err != nil {
		return err
	}
	if !bytes.Equal(pong.ClientTime, when) {
		return fmt.Errorf("echo mismatch: sent %s, got %s", when, pong.ClientTime)
	}

	fmt.Printf("pong: rtt=%s\n", time.Since(start).Round(time.Microsecond))
	return nil
}

// streamEvents prints room events until the room dies or the user
// interrupts; on interrupt it leaves the room cleanly first.
func streamEvents(ctx context.Context, s *session, code string) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Println("Watching room events (Ctrl-C to leave)...")

	frames := make(chan *wsproto.Envelope)
	errs := make(chan error, 1)
	go func() {
		for {
			env, err := s.next(0)
			if err != nil {
				errs <- err
				return
			}
			frames <- env
		}
	}()

	for {
		select {
		case <-ctx.Done():
			s.send(wsproto.EventLeaveRoom, wsproto.LeaveRoomRequest{Code: code})
			fmt.Println("\nLeft room")
			return nil

		case err := <-errs:
			return fmt.Errorf("connection lost: %w", err)

		case env := <-frames:
			switch env.Event {
			case wsproto.EventRoomUpdate:
				snap, err := decodeSnapshot(env.Data)
				if err != nil {
					return err
				}
				printSnapshot(snap)

			case wsproto.EventRoomDeleted:
				var notice wsproto.RoomDeletedNotice
				json.Unmarshal(env.Data, &notice)
				fmt.Printf("Room %s was deleted\n", notice.Code)
				return nil

			case wsproto.EventErrorMessage:
				var notice wsproto.ErrorNotice
				json.Unmarshal(env.Data, &notice)
				fmt.Printf("server error: %s\n", notice.Msg)

			case wsproto.EventServerMessage:
				var notice wsproto.ServerNotice
				json.Unmarshal(env.Data, &notice)
				fmt.Printf("server: %s\n", notice.Msg)
			}
		}
	}
}

func decodeSnapshot(data json.RawMessage) (*service.RoomSnapshot, error) {
	var snap service.RoomSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("bad snapshot: %w", err)
	}
	return &snap, nil
}

func printSnapshot(snap *service.RoomSnapshot) {
	status := ""
	if snap.IsFull {
		status = " (full)"
	}
	fmt.Printf("Players %d/%d%s:\n", len(snap.Players), snap.MaxPlayers, status)
	for i, name := range snap.Players {
		fmt.Printf("  %d. %s\n", i+1, name)
	}
}
