package app

import (
	"errors"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/ralphvalcin/decentralize-video-app-sub000/internal/core"
	"github.com/ralphvalcin/decentralize-video-app-sub000/internal/domain"
	"github.com/ralphvalcin/decentralize-video-app-sub000/internal/metrics"
	"github.com/ralphvalcin/decentralize-video-app-sub000/internal/protocol"
)

// joinAttempts bounds the create/join race against a room that is
// terminating at the same moment.
const joinAttempts = 4

// RoomManager owns the id-to-room map and the room goroutines.
type RoomManager struct {
	mu    sync.RWMutex
	rooms map[domain.RoomID]*core.Room

	limits           core.Limits
	clock            core.Clock
	policy           core.Policy
	metrics          *metrics.Metrics
	unknownPeerError bool
	maxRooms         int
}

func NewRoomManager(limits core.Limits, clock core.Clock, policy core.Policy, m *metrics.Metrics, unknownPeerError bool, maxRooms int) *RoomManager {
	return &RoomManager{
		rooms:            make(map[domain.RoomID]*core.Room),
		limits:           limits,
		clock:            clock,
		policy:           policy,
		metrics:          m,
		unknownPeerError: unknownPeerError,
		maxRooms:         maxRooms,
	}
}

func (f *RoomManager) getOrCreate(id domain.RoomID) *core.Room {
	f.mu.RLock()
	room, ok := f.rooms[id]
	f.mu.RUnlock()
	if ok && !room.Closed() {
		return room
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if room, ok := f.rooms[id]; ok && !room.Closed() {
		return room
	}
	if len(f.rooms) >= f.maxRooms {
		// Soft limit: the room is still created so nobody gets locked
		// out, but the operator should hear about it.
		log.Warn().Str("module", "app.rooms").Int("rooms", len(f.rooms)).Msg("room count above configured limit")
	}
	room := core.NewRoom(id, core.RoomOptions{
		Limits:           f.limits,
		Clock:            f.clock,
		Policy:           f.policy,
		Metrics:          f.metrics,
		UnknownPeerError: f.unknownPeerError,
		OnExit:           f.onRoomExit,
	})
	f.rooms[id] = room
	go room.Run()
	return room
}

// onRoomExit runs on the room goroutine. The pointer comparison keeps
// a replacement room with the same id from being dropped.
func (f *RoomManager) onRoomExit(id domain.RoomID, r *core.Room) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.rooms[id] == r {
		delete(f.rooms, id)
	}
}

// Join admits the seed into the room, creating it on first use. A room
// that terminates mid-join is replaced and the join retried.
func (f *RoomManager) Join(id domain.RoomID, seed core.MemberSeed, conn core.SignalConnection) error {
	var err error
	for i := 0; i < joinAttempts; i++ {
		err = f.getOrCreate(id).Join(seed, conn)
		if !errors.Is(err, core.ErrRoomClosed) {
			return err
		}
	}
	return err
}

func (f *RoomManager) lookup(id domain.RoomID) (*core.Room, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	room, ok := f.rooms[id]
	return room, ok
}

// Route delivers a decoded frame to the session's room.
func (f *RoomManager) Route(id domain.RoomID, sid domain.SessionID, msg protocol.Inbound) bool {
	room, ok := f.lookup(id)
	if !ok {
		return false
	}
	return room.Deliver(sid, msg)
}

func (f *RoomManager) Leave(id domain.RoomID, sid domain.SessionID, reason string) {
	if room, ok := f.lookup(id); ok {
		room.Leave(sid, reason)
	}
}

func (f *RoomManager) Inspect(id domain.RoomID) (core.RoomSnapshot, bool) {
	room, ok := f.lookup(id)
	if !ok {
		return core.RoomSnapshot{}, false
	}
	return room.Snapshot()
}

func (f *RoomManager) List() []core.RoomInfo {
	f.mu.RLock()
	rooms := make([]*core.Room, 0, len(f.rooms))
	for _, r := range f.rooms {
		rooms = append(rooms, r)
	}
	f.mu.RUnlock()

	out := make([]core.RoomInfo, 0, len(rooms))
	for _, r := range rooms {
		snap, ok := r.Snapshot()
		if !ok {
			continue
		}
		out = append(out, core.RoomInfo{ID: snap.ID, HostID: snap.HostID, MemberCount: len(snap.Members)})
	}
	return out
}

// Evict force-closes a room, disconnecting every member.
func (f *RoomManager) Evict(id domain.RoomID) bool {
	room, ok := f.lookup(id)
	if !ok {
		return false
	}
	room.Stop(core.ReasonEvicted)
	return true
}

func (f *RoomManager) StopAll(reason string) {
	f.mu.RLock()
	rooms := make([]*core.Room, 0, len(f.rooms))
	for _, r := range f.rooms {
		rooms = append(rooms, r)
	}
	f.mu.RUnlock()
	for _, r := range rooms {
		r.Stop(reason)
	}
}

func (f *RoomManager) Count() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.rooms)
}
