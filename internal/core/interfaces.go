package core

import (
	"errors"

	"github.com/ralphvalcin/decentralize-video-app-sub000/internal/domain"
)

// Frame is one encoded signaling message, ready for the wire.
type Frame []byte

// Disconnect reasons carried to the transport close frame.
const (
	ReasonSlowConsumer   = "slow-consumer"
	ReasonInternalError  = "InternalError"
	ReasonFrameOversize  = "frame-oversize"
	ReasonBadFrame       = "bad-frame"
	ReasonHeartbeat      = "heartbeat-timeout"
	ReasonLeaving        = "leaving"
	ReasonEvicted        = "room-evicted"
	ReasonShutdown       = "server-shutdown"
	ReasonServerFull     = "server-full"
	ReasonConnectionLost = "connection-lost"
)

var (
	ErrRoomFull      = errors.New("room is full")
	ErrRoomClosed    = errors.New("room is closed")
	ErrAlreadyMember = errors.New("session already in room")
)

// SignalConnection abstracts the messaging transport of one session.
// Owned by the adapter; TrySend must never block, Close must be safe
// to call more than once and Buffered reports bytes accepted but not
// yet written to the wire.
type SignalConnection interface {
	TrySend(Frame) error
	Close(reason string)
	Buffered() int
}

// BackpressureAction is what a room does with a frame that does not fit
// into a member's egress queue.
type BackpressureAction int

const (
	// KickMember disconnects the slow consumer.
	KickMember BackpressureAction = iota
	// DropFrame discards the frame and keeps the member.
	DropFrame
)

// Policy picks the backpressure action for an outbound kind.
type Policy interface {
	OnBackpressure(kind string) BackpressureAction
}

// Limits bounds the state a single room may accumulate.
type Limits struct {
	ChatHistory  int
	Polls        int
	Questions    int
	ReactionRing int
	MaxMembers   int
}

// MemberSeed is the identity a session brings into a room.
type MemberSeed struct {
	ID   domain.SessionID
	Name string
	Role string
}

// MemberView is a read-only member projection for inspection APIs.
type MemberView struct {
	ID       domain.SessionID `json:"id"`
	Name     string           `json:"name"`
	Role     string           `json:"role"`
	Host     bool             `json:"host"`
	JoinedAt int64            `json:"joinedAt"`
}

// RoomSnapshot is the serialized room state for inspection APIs.
type RoomSnapshot struct {
	ID          domain.RoomID    `json:"id"`
	HostID      domain.SessionID `json:"hostId"`
	Members     []MemberView     `json:"members"`
	ChatLen     int              `json:"chatMessages"`
	Polls       int              `json:"polls"`
	Questions   int              `json:"questions"`
	RaisedHands int              `json:"raisedHands"`
	Reactions   int              `json:"reactions"`
}

// RoomInfo is the list-view projection of a room.
type RoomInfo struct {
	ID          domain.RoomID    `json:"id"`
	HostID      domain.SessionID `json:"hostId"`
	MemberCount int              `json:"memberCount"`
}
