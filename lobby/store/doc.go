// Package store provides in-memory storage for party rooms.
//
// The store package implements:
//   - The Room entity: join code, capacity, ordered member list
//   - Thread-safe room storage keyed by join code
//   - Collision-checked code allocation on creation
//   - Idempotent room removal
//
// Core Types:
//
// Store is the process-scoped collection of live rooms. Room is one room
// with its own mutex; all membership mutations go through Room.Join and
// Room.Leave, which return an atomic Snapshot of the state they produced.
//
// Concurrency:
//
// The store's map lock and each room's lock are independent: operations on
// different rooms never block each other, and code lookups only take the
// map read lock. A room removed from the store is marked closed under its
// own lock, so a join racing with the removal fails instead of reviving a
// reclaimed room.
//
// Lifecycle:
//
// Rooms are created with their first member already enrolled and are
// removed the moment the last member leaves. An empty room is never
// observable through the store.
package store
