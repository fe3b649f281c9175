package service

import (
	"context"
	"sync"
	"testing"

	"github.com/partyrooms/server/lobby/code"
	"github.com/partyrooms/server/lobby/registry"
	"github.com/partyrooms/server/lobby/store"
)

// recordingNotifier captures outbound delivery for assertions.
type recordingNotifier struct {
	mu      sync.Mutex
	joined  []string        // connIDs acknowledged
	updates []*RoomSnapshot // broadcast snapshots in order
	deleted map[string][]string
}

func newRecordingNotifier() *recordingNotifier {
	return &recordingNotifier{deleted: make(map[string][]string)}
}

func (n *recordingNotifier) RoomJoined(connID string, snap *RoomSnapshot) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.joined = append(n.joined, connID)
}

func (n *recordingNotifier) RoomUpdated(snap *RoomSnapshot) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.updates = append(n.updates, snap)
}

func (n *recordingNotifier) RoomDeleted(code string, recipients []string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.deleted[code] = recipients
}

func (n *recordingNotifier) lastUpdate() *RoomSnapshot {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.updates) == 0 {
		return nil
	}
	return n.updates[len(n.updates)-1]
}

func newTestService(maxPlayers int) (RoomService, *recordingNotifier, *store.Store, *registry.Registry) {
	st := store.NewStore(code.NewGenerator(6, 0))
	reg := registry.New()
	notifier := newRecordingNotifier()
	svc := NewRoomService(st, reg, notifier, maxPlayers)
	return svc, notifier, st, reg
}

func TestRoomService_CreateRoom(t *testing.T) {
	svc, notifier, _, reg := newTestService(4)
	ctx := context.Background()

	snap, err := svc.CreateRoom(ctx, "conn-a", "Alice")
	if err != nil {
		t.Fatalf("Failed to create room: %v", err)
	}

	if len(snap.Code) != 6 {
		t.Errorf("Expected 6-character code, got %q", snap.Code)
	}
	if len(snap.Players) != 1 || snap.Players[0] != "Alice" {
		t.Errorf("Expected players [Alice], got %v", snap.Players)
	}
	if snap.IsFull {
		t.Error("Expected room not full with 1/4 players")
	}
	if c, ok := reg.Lookup("conn-a"); !ok || c != snap.Code {
		t.Errorf("Expected connection bound to %s, got %q", snap.Code, c)
	}
	if len(notifier.joined) != 1 || notifier.joined[0] != "conn-a" {
		t.Errorf("Expected room_joined ack for conn-a, got %v", notifier.joined)
	}
	if last := notifier.lastUpdate(); last == nil || last.Code != snap.Code {
		t.Error("Expected snapshot broadcast after create")
	}

	t.Run("create while already in a room", func(t *testing.T) {
		_, err := svc.CreateRoom(ctx, "conn-a", "Alice")
		if err != ErrAlreadyInRoom {
			t.Errorf("Expected ErrAlreadyInRoom, got %v", err)
		}
	})

	t.Run("empty username defaults", func(t *testing.T) {
		snap, err := svc.CreateRoom(ctx, "conn-b", "   ")
		if err != nil {
			t.Fatalf("Failed to create room: %v", err)
		}
		if snap.Players[0] != AnonymousName {
			t.Errorf("Expected %q for empty username, got %q", AnonymousName, snap.Players[0])
		}
	})
}

func TestRoomService_JoinRoom(t *testing.T) {
	svc, _, _, _ := newTestService(2)
	ctx := context.Background()

	created, _ := svc.CreateRoom(ctx, "conn-a", "Alice")

	t.Run("join with lowercase code", func(t *testing.T) {
		snap, err := svc.JoinRoom(ctx, "conn-b", "Bob", lower(created.Code))
		if err != nil {
			t.Fatalf("Failed to join: %v", err)
		}
		if len(snap.Players) != 2 || snap.Players[0] != "Alice" || snap.Players[1] != "Bob" {
			t.Errorf("Expected [Alice Bob], got %v", snap.Players)
		}
		if !snap.IsFull {
			t.Error("Expected room full at 2/2")
		}
	})

	t.Run("join unknown code", func(t *testing.T) {
		_, err := svc.JoinRoom(ctx, "conn-c", "Carol", "NOSUCH")
		if err != ErrRoomNotFound {
			t.Errorf("Expected ErrRoomNotFound, got %v", err)
		}
	})

	t.Run("join full room", func(t *testing.T) {
		_, err := svc.JoinRoom(ctx, "conn-c", "Carol", created.Code)
		if err != ErrRoomFull {
			t.Errorf("Expected ErrRoomFull, got %v", err)
		}
	})

	t.Run("join while already in a room", func(t *testing.T) {
		other, _ := svc.CreateRoom(ctx, "conn-d", "Dave")
		_, err := svc.JoinRoom(ctx, "conn-a", "Alice", other.Code)
		if err != ErrAlreadyInRoom {
			t.Errorf("Expected ErrAlreadyInRoom, got %v", err)
		}
	})

	t.Run("failed join leaves no binding", func(t *testing.T) {
		svc2, _, _, reg2 := newTestService(1)
		r, _ := svc2.CreateRoom(ctx, "x1", "Solo")
		if _, err := svc2.JoinRoom(ctx, "x2", "Late", r.Code); err != ErrRoomFull {
			t.Fatalf("Expected ErrRoomFull, got %v", err)
		}
		if _, ok := reg2.Lookup("x2"); ok {
			t.Error("Expected no binding after rejected join")
		}
	})
}

func TestRoomService_LeaveRoom(t *testing.T) {
	svc, notifier, st, reg := newTestService(4)
	ctx := context.Background()

	created, _ := svc.CreateRoom(ctx, "conn-a", "Alice")
	svc.JoinRoom(ctx, "conn-b", "Bob", created.Code)

	t.Run("leave without membership", func(t *testing.T) {
		if err := svc.LeaveRoom(ctx, "stranger", created.Code); err != ErrNotInRoom {
			t.Errorf("Expected ErrNotInRoom, got %v", err)
		}
	})

	t.Run("leave with mismatched code", func(t *testing.T) {
		if err := svc.LeaveRoom(ctx, "conn-a", "WRONG1"); err != ErrNotInRoom {
			t.Errorf("Expected ErrNotInRoom for stale code, got %v", err)
		}
		// The real membership must be untouched.
		if snap, _ := svc.GetRoom(ctx, created.Code); len(snap.Players) != 2 {
			t.Error("Membership should survive a rejected leave")
		}
	})

	t.Run("leave broadcasts to remaining members", func(t *testing.T) {
		if err := svc.LeaveRoom(ctx, "conn-a", created.Code); err != nil {
			t.Fatalf("Failed to leave: %v", err)
		}
		last := notifier.lastUpdate()
		if last == nil || len(last.Players) != 1 || last.Players[0] != "Bob" {
			t.Errorf("Expected broadcast with [Bob], got %+v", last)
		}
		if _, ok := reg.Lookup("conn-a"); ok {
			t.Error("Expected conn-a unbound after leave")
		}
	})

	t.Run("last leave deletes the room", func(t *testing.T) {
		if err := svc.LeaveRoom(ctx, "conn-b", created.Code); err != nil {
			t.Fatalf("Failed to leave: %v", err)
		}
		if st.Count() != 0 {
			t.Errorf("Expected room reclaimed, store has %d rooms", st.Count())
		}
		if _, err := svc.JoinRoom(ctx, "conn-c", "Carol", created.Code); err != ErrRoomNotFound {
			t.Errorf("Expected ErrRoomNotFound after deletion, got %v", err)
		}
		recipients, ok := notifier.deleted[created.Code]
		if !ok {
			t.Fatal("Expected deletion notice")
		}
		if len(recipients) != 1 || recipients[0] != "conn-b" {
			t.Errorf("Expected departing member notified, got %v", recipients)
		}
	})
}

func TestRoomService_Disconnect(t *testing.T) {
	svc, notifier, st, _ := newTestService(4)
	ctx := context.Background()

	created, _ := svc.CreateRoom(ctx, "conn-a", "Alice")
	svc.JoinRoom(ctx, "conn-b", "Bob", created.Code)

	t.Run("disconnect removes the member", func(t *testing.T) {
		svc.Disconnect(ctx, "conn-a")
		snap, err := svc.GetRoom(ctx, created.Code)
		if err != nil {
			t.Fatalf("Room should survive with one member: %v", err)
		}
		if len(snap.Players) != 1 || snap.Players[0] != "Bob" {
			t.Errorf("Expected [Bob] after disconnect, got %v", snap.Players)
		}
	})

	t.Run("disconnect of unaffiliated connection is a no-op", func(t *testing.T) {
		svc.Disconnect(ctx, "conn-a") // already gone
		svc.Disconnect(ctx, "never-joined")
		if snap, _ := svc.GetRoom(ctx, created.Code); len(snap.Players) != 1 {
			t.Error("Membership must be unaffected by spurious disconnects")
		}
	})

	t.Run("last disconnect reclaims silently", func(t *testing.T) {
		svc.Disconnect(ctx, "conn-b")
		if st.Count() != 0 {
			t.Errorf("Expected room reclaimed, store has %d rooms", st.Count())
		}
		if recipients := notifier.deleted[created.Code]; len(recipients) != 0 {
			t.Errorf("Expected no recipients for disconnect cleanup, got %v", recipients)
		}
	})
}

func TestRoomService_DisconnectAfterLeave(t *testing.T) {
	svc, _, _, _ := newTestService(4)
	ctx := context.Background()

	created, _ := svc.CreateRoom(ctx, "conn-a", "Alice")
	svc.JoinRoom(ctx, "conn-b", "Bob", created.Code)

	if err := svc.LeaveRoom(ctx, "conn-a", created.Code); err != nil {
		t.Fatalf("Failed to leave: %v", err)
	}
	svc.Disconnect(ctx, "conn-a") // must not double-remove

	snap, err := svc.GetRoom(ctx, created.Code)
	if err != nil {
		t.Fatalf("Room should still exist: %v", err)
	}
	if len(snap.Players) != 1 || snap.Players[0] != "Bob" {
		t.Errorf("Expected [Bob] untouched, got %v", snap.Players)
	}
}

func TestRoomService_ConcurrentJoinsLastSlot(t *testing.T) {
	svc, _, _, _ := newTestService(2)
	ctx := context.Background()

	created, _ := svc.CreateRoom(ctx, "conn-a", "Alice")

	var wg sync.WaitGroup
	results := make(chan error, 2)
	for _, id := range []string{"conn-b", "conn-c"} {
		wg.Add(1)
		go func(connID string) {
			defer wg.Done()
			_, err := svc.JoinRoom(ctx, connID, "racer", created.Code)
			results <- err
		}(id)
	}
	wg.Wait()
	close(results)

	var wins, fulls int
	for err := range results {
		switch err {
		case nil:
			wins++
		case ErrRoomFull:
			fulls++
		default:
			t.Errorf("Unexpected error: %v", err)
		}
	}
	if wins != 1 || fulls != 1 {
		t.Errorf("Expected exactly one winner and one ErrRoomFull, got %d/%d", wins, fulls)
	}

	snap, _ := svc.GetRoom(ctx, created.Code)
	if len(snap.Players) != 2 {
		t.Errorf("Player count %d violates capacity 2", len(snap.Players))
	}
}

func TestRoomService_ConcurrentChurn(t *testing.T) {
	svc, _, st, reg := newTestService(8)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			connID := connName(n)
			snap, err := svc.CreateRoom(ctx, connID, "player")
			if err != nil {
				t.Errorf("Unexpected create error: %v", err)
				return
			}
			if n%2 == 0 {
				svc.LeaveRoom(ctx, connID, snap.Code)
			} else {
				svc.Disconnect(ctx, connID)
			}
		}(i)
	}
	wg.Wait()

	if st.Count() != 0 {
		t.Errorf("Expected all rooms reclaimed, got %d", st.Count())
	}
	if reg.Count() != 0 {
		t.Errorf("Expected all connections unbound, got %d", reg.Count())
	}
}

func TestRoomService_CloseRoom(t *testing.T) {
	svc, notifier, st, reg := newTestService(4)
	ctx := context.Background()

	created, _ := svc.CreateRoom(ctx, "conn-a", "Alice")
	svc.JoinRoom(ctx, "conn-b", "Bob", created.Code)

	if err := svc.CloseRoom(ctx, created.Code); err != nil {
		t.Fatalf("Failed to close room: %v", err)
	}

	if st.Count() != 0 {
		t.Error("Expected room removed")
	}
	for _, id := range []string{"conn-a", "conn-b"} {
		if _, ok := reg.Lookup(id); ok {
			t.Errorf("Expected %s unbound after close", id)
		}
	}
	recipients := notifier.deleted[created.Code]
	if len(recipients) != 2 {
		t.Errorf("Expected both members notified of deletion, got %v", recipients)
	}

	if err := svc.CloseRoom(ctx, created.Code); err != ErrRoomNotFound {
		t.Errorf("Expected ErrRoomNotFound for second close, got %v", err)
	}
}

// TestRoomService_Scenario walks the end-to-end sequence: Alice creates,
// Bob joins, Alice leaves, Bob leaves, the room vanishes.
func TestRoomService_Scenario(t *testing.T) {
	svc, notifier, _, _ := newTestService(4)
	ctx := context.Background()

	created, err := svc.CreateRoom(ctx, "conn-alice", "Alice")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if got := created.Players; len(got) != 1 || got[0] != "Alice" || created.IsFull {
		t.Fatalf("after create: players=%v is_full=%v", got, created.IsFull)
	}

	joined, err := svc.JoinRoom(ctx, "conn-bob", "Bob", created.Code)
	if err != nil {
		t.Fatalf("join: %v", err)
	}
	if got := joined.Players; len(got) != 2 || got[0] != "Alice" || got[1] != "Bob" {
		t.Fatalf("after join: players=%v", got)
	}

	if err := svc.LeaveRoom(ctx, "conn-alice", created.Code); err != nil {
		t.Fatalf("leave alice: %v", err)
	}
	update := notifier.lastUpdate()
	if update == nil || len(update.Players) != 1 || update.Players[0] != "Bob" {
		t.Fatalf("after alice leaves: broadcast=%+v", update)
	}

	if err := svc.LeaveRoom(ctx, "conn-bob", created.Code); err != nil {
		t.Fatalf("leave bob: %v", err)
	}
	if _, err := svc.JoinRoom(ctx, "conn-carol", "Carol", created.Code); err != ErrRoomNotFound {
		t.Fatalf("expected ErrRoomNotFound after room deleted, got %v", err)
	}
}

func TestRoomService_Stats(t *testing.T) {
	svc, _, _, _ := newTestService(4)
	ctx := context.Background()

	a, _ := svc.CreateRoom(ctx, "c1", "Alice")
	svc.JoinRoom(ctx, "c2", "Bob", a.Code)
	svc.CreateRoom(ctx, "c3", "Carol")

	stats, err := svc.Stats(ctx)
	if err != nil {
		t.Fatalf("Failed to get stats: %v", err)
	}
	if stats.Rooms != 2 {
		t.Errorf("Expected 2 rooms, got %d", stats.Rooms)
	}
	if stats.Players != 3 {
		t.Errorf("Expected 3 players, got %d", stats.Players)
	}
	if stats.Connections != 3 {
		t.Errorf("Expected 3 bound connections, got %d", stats.Connections)
	}
}

func lower(s string) string {
	out := []rune(s)
	for i, r := range out {
		if r >= 'A' && r <= 'Z' {
			out[i] = r + ('a' - 'A')
		}
	}
	return string(out)
}

func connName(n int) string {
	return "conn-" + string(rune('A'+n%26)) + string(rune('0'+n/26))
}
