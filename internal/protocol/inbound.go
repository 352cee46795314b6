package protocol

import (
	"encoding/json"
	"fmt"

	"github.com/ralphvalcin/decentralize-video-app-sub000/internal/domain"
)

// Inbound message kinds (client to server).
const (
	KindJoinRoom        = "join-room"
	KindSendingSignal   = "sending-signal"
	KindReturningSignal = "returning-signal"
	KindSendMessage     = "send-message"
	KindCreatePoll      = "create-poll"
	KindVotePoll        = "vote-poll"
	KindSubmitQuestion  = "submit-question"
	KindVoteQuestion    = "vote-question"
	KindAnswerQuestion  = "answer-question"
	KindRaiseHand       = "raise-hand"
	KindLowerHand       = "lower-hand"
	KindSendReaction    = "send-reaction"
	KindUserLeaving     = "user-leaving"
	KindPing            = "ping"
)

// InboundKinds enumerates every kind DecodeInbound accepts, for metrics
// registration.
var InboundKinds = []string{
	KindJoinRoom, KindSendingSignal, KindReturningSignal, KindSendMessage,
	KindCreatePoll, KindVotePoll, KindSubmitQuestion, KindVoteQuestion,
	KindAnswerQuestion, KindRaiseHand, KindLowerHand, KindSendReaction,
	KindUserLeaving, KindPing,
}

// Inbound is one decoded client frame. The implementations below are the
// closed set of kinds; dispatch is an exhaustive type switch.
type Inbound interface {
	Kind() string
}

type JoinRoom struct {
	Name   string `json:"name"`
	Role   string `json:"role"`
	RoomID string `json:"roomId"`
	Token  string `json:"token,omitempty"`
}

type SendingSignal struct {
	UserToSignal domain.SessionID `json:"userToSignal"`
	CallerID     domain.SessionID `json:"callerID"`
	Signal       json.RawMessage  `json:"signal"`
}

type ReturningSignal struct {
	CallerID domain.SessionID `json:"callerID"`
	Signal   json.RawMessage  `json:"signal"`
}

type SendMessage struct {
	Text string `json:"text"`
}

// PollRequest is the client-proposed poll inside create-poll.
type PollRequest struct {
	Question      string   `json:"question"`
	Kind          string   `json:"kind"`
	Options       []string `json:"options"`
	AllowMultiple bool     `json:"allowMultiple"`
	Anonymous     bool     `json:"anonymous"`
}

type CreatePoll struct {
	Poll PollRequest `json:"poll"`
}

// VotePoll carries a single index for single-choice polls or a set of
// indices when the poll allows multiple.
type VotePoll struct {
	PollID  string `json:"pollId"`
	Option  *int   `json:"option"`
	Options []int  `json:"options"`
}

type SubmitQuestion struct {
	Q string `json:"q"`
}

type VoteQuestion struct {
	QID string `json:"qid"`
}

type AnswerQuestion struct {
	QID    string `json:"qid"`
	Answer string `json:"answer"`
}

type RaiseHand struct{}

type LowerHand struct {
	UserID domain.SessionID `json:"userId"`
}

type SendReaction struct {
	Emoji string `json:"emoji"`
}

type UserLeaving struct{}

type Ping struct{}

func (JoinRoom) Kind() string        { return KindJoinRoom }
func (SendingSignal) Kind() string   { return KindSendingSignal }
func (ReturningSignal) Kind() string { return KindReturningSignal }
func (SendMessage) Kind() string     { return KindSendMessage }
func (CreatePoll) Kind() string      { return KindCreatePoll }
func (VotePoll) Kind() string        { return KindVotePoll }
func (SubmitQuestion) Kind() string  { return KindSubmitQuestion }
func (VoteQuestion) Kind() string    { return KindVoteQuestion }
func (AnswerQuestion) Kind() string  { return KindAnswerQuestion }
func (RaiseHand) Kind() string       { return KindRaiseHand }
func (LowerHand) Kind() string       { return KindLowerHand }
func (SendReaction) Kind() string    { return KindSendReaction }
func (UserLeaving) Kind() string     { return KindUserLeaving }
func (Ping) Kind() string            { return KindPing }

// DecodeInbound turns a raw frame into its typed kind. It returns
// ErrMalformed for non-JSON input, ErrUnknownKind for kinds outside the
// closed set and an ErrShape-wrapped error when the fields do not decode.
func DecodeInbound(data []byte) (Inbound, error) {
	kind, err := peekType(data)
	if err != nil {
		return nil, err
	}
	switch kind {
	case KindJoinRoom:
		return decodeAs[JoinRoom](data, kind)
	case KindSendingSignal:
		return decodeAs[SendingSignal](data, kind)
	case KindReturningSignal:
		return decodeAs[ReturningSignal](data, kind)
	case KindSendMessage:
		return decodeAs[SendMessage](data, kind)
	case KindCreatePoll:
		return decodeAs[CreatePoll](data, kind)
	case KindVotePoll:
		return decodeAs[VotePoll](data, kind)
	case KindSubmitQuestion:
		return decodeAs[SubmitQuestion](data, kind)
	case KindVoteQuestion:
		return decodeAs[VoteQuestion](data, kind)
	case KindAnswerQuestion:
		return decodeAs[AnswerQuestion](data, kind)
	case KindRaiseHand:
		return RaiseHand{}, nil
	case KindLowerHand:
		return decodeAs[LowerHand](data, kind)
	case KindSendReaction:
		return decodeAs[SendReaction](data, kind)
	case KindUserLeaving:
		return UserLeaving{}, nil
	case KindPing:
		return Ping{}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
}

func decodeAs[T Inbound](data []byte, kind string) (Inbound, error) {
	var msg T
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrShape, kind, err)
	}
	return msg, nil
}
