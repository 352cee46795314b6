// Package metrics keeps the service counters. Everything is lock-free;
// per-kind maps are fixed at construction so reads never race.
package metrics

import "sync/atomic"

type kindCounters struct {
	counters map[string]*atomic.Int64
}

func newKindCounters(kinds []string) kindCounters {
	m := make(map[string]*atomic.Int64, len(kinds))
	for _, k := range kinds {
		m[k] = new(atomic.Int64)
	}
	return kindCounters{counters: m}
}

func (k kindCounters) inc(kind string) {
	if c, ok := k.counters[kind]; ok {
		c.Add(1)
	}
}

func (k kindCounters) snapshot() map[string]int64 {
	out := make(map[string]int64, len(k.counters))
	for kind, c := range k.counters {
		out[kind] = c.Load()
	}
	return out
}

type Metrics struct {
	activeSessions atomic.Int64
	activeRooms    atomic.Int64

	in      kindCounters
	out     kindCounters
	dropped kindCounters

	validationFailures      atomic.Int64
	rateLimited             atomic.Int64
	slowConsumerDisconnects atomic.Int64
	relaysForwarded         atomic.Int64
	relaysUnknownPeer       atomic.Int64
	protocolWarnings        atomic.Int64
	malformedFrames         atomic.Int64
	roomsPoisoned           atomic.Int64
}

// New registers counters for the given inbound and outbound kinds.
func New(inKinds, outKinds []string) *Metrics {
	return &Metrics{
		in:      newKindCounters(inKinds),
		out:     newKindCounters(outKinds),
		dropped: newKindCounters(outKinds),
	}
}

func (m *Metrics) SessionUp()   { m.activeSessions.Add(1) }
func (m *Metrics) SessionDown() { m.activeSessions.Add(-1) }
func (m *Metrics) RoomUp()      { m.activeRooms.Add(1) }
func (m *Metrics) RoomDown()    { m.activeRooms.Add(-1) }

func (m *Metrics) MsgIn(kind string)    { m.in.inc(kind) }
func (m *Metrics) MsgOut(kind string)   { m.out.inc(kind) }
func (m *Metrics) Dropped(kind string)  { m.dropped.inc(kind) }
func (m *Metrics) ValidationFailure()   { m.validationFailures.Add(1) }
func (m *Metrics) RateLimited()         { m.rateLimited.Add(1) }
func (m *Metrics) SlowConsumer()        { m.slowConsumerDisconnects.Add(1) }
func (m *Metrics) RelayForwarded()      { m.relaysForwarded.Add(1) }
func (m *Metrics) RelayUnknownPeer()    { m.relaysUnknownPeer.Add(1) }
func (m *Metrics) ProtocolWarning()     { m.protocolWarnings.Add(1) }
func (m *Metrics) MalformedFrame()      { m.malformedFrames.Add(1) }
func (m *Metrics) RoomPoisoned()        { m.roomsPoisoned.Add(1) }

func (m *Metrics) ActiveSessions() int64 { return m.activeSessions.Load() }
func (m *Metrics) ActiveRooms() int64    { return m.activeRooms.Load() }

// Snapshot is a point-in-time copy of every counter.
type Snapshot struct {
	ActiveSessions          int64            `json:"activeSessions"`
	ActiveRooms             int64            `json:"activeRooms"`
	MessagesIn              map[string]int64 `json:"messagesIn"`
	MessagesOut             map[string]int64 `json:"messagesOut"`
	DroppedFrames           map[string]int64 `json:"droppedFrames"`
	ValidationFailures      int64            `json:"validationFailures"`
	RateLimited             int64            `json:"rateLimited"`
	SlowConsumerDisconnects int64            `json:"slowConsumerDisconnects"`
	RelaysForwarded         int64            `json:"relaysForwarded"`
	RelaysUnknownPeer       int64            `json:"relaysUnknownPeer"`
	ProtocolWarnings        int64            `json:"protocolWarnings"`
	MalformedFrames         int64            `json:"malformedFrames"`
	RoomsPoisoned           int64            `json:"roomsPoisoned"`
}

func (m *Metrics) Snapshot() Snapshot {
	return Snapshot{
		ActiveSessions:          m.activeSessions.Load(),
		ActiveRooms:             m.activeRooms.Load(),
		MessagesIn:              m.in.snapshot(),
		MessagesOut:             m.out.snapshot(),
		DroppedFrames:           m.dropped.snapshot(),
		ValidationFailures:      m.validationFailures.Load(),
		RateLimited:             m.rateLimited.Load(),
		SlowConsumerDisconnects: m.slowConsumerDisconnects.Load(),
		RelaysForwarded:         m.relaysForwarded.Load(),
		RelaysUnknownPeer:       m.relaysUnknownPeer.Load(),
		ProtocolWarnings:        m.protocolWarnings.Load(),
		MalformedFrames:         m.malformedFrames.Load(),
		RoomsPoisoned:           m.roomsPoisoned.Load(),
	}
}
