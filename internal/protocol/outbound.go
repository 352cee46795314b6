package protocol

import (
	"bytes"
	"encoding/json"
	"slices"

	"github.com/ralphvalcin/decentralize-video-app-sub000/internal/domain"
)

// Outbound message kinds (server to client). The "user-joined" kind has
// two shapes: the roster broadcast and the signal-carrying forward used
// during the pairwise handshake.
const (
	KindAllUsers                = "all-users"
	KindUserJoined              = "user-joined"
	KindReceivingReturnedSignal = "receiving-returned-signal"
	KindUserLeft                = "user-left"
	KindHostChanged             = "host-changed"
	KindChatHistory             = "chat-history"
	KindNewMessage              = "new-message"
	KindPollsHistory            = "polls-history"
	KindNewPoll                 = "new-poll"
	KindPollUpdated             = "poll-updated"
	KindQuestionsHistory        = "questions-history"
	KindNewQuestion             = "new-question"
	KindQuestionUpdated         = "question-updated"
	KindRaisedHandsHistory      = "raised-hands-history"
	KindHandRaised              = "hand-raised"
	KindHandLowered             = "hand-lowered"
	KindNewReaction             = "new-reaction"
	KindError                   = "error"
	KindServerShutdown          = "server-shutdown"
	KindPong                    = "pong"
)

// OutboundKinds enumerates every kind the server emits, for metrics
// registration.
var OutboundKinds = []string{
	KindAllUsers, KindUserJoined, KindReceivingReturnedSignal, KindUserLeft,
	KindHostChanged, KindChatHistory, KindNewMessage, KindPollsHistory,
	KindNewPoll, KindPollUpdated, KindQuestionsHistory, KindNewQuestion,
	KindQuestionUpdated, KindRaisedHandsHistory, KindHandRaised,
	KindHandLowered, KindNewReaction, KindError, KindServerShutdown, KindPong,
}

// Error frame kinds.
const (
	ErrKindInvalidShape    = "InvalidShape"
	ErrKindRoomFull        = "RoomFull"
	ErrKindAlreadyJoined   = "AlreadyJoined"
	ErrKindNotHost         = "NotHost"
	ErrKindUnknownPeer     = "UnknownPeer"
	ErrKindRateLimited     = "RateLimited"
	ErrKindPayloadTooLarge = "PayloadTooLarge"
	ErrKindRoomNotFound    = "RoomNotFound"
)

// RosterUser is one roster entry in all-users and user-joined frames.
type RosterUser struct {
	ID   domain.SessionID `json:"id"`
	Name string           `json:"name"`
	Role string           `json:"role"`
}

type AllUsers struct {
	Type   string        `json:"type"`
	RoomID domain.RoomID `json:"roomId"`
	Users  []RosterUser  `json:"users"`
}

type UserJoined struct {
	Type string           `json:"type"`
	ID   domain.SessionID `json:"id"`
	Name string           `json:"name"`
	Role string           `json:"role"`
}

// UserJoinedSignal is the handshake forward: same type tag as UserJoined
// but addressed to a single target and carrying the caller's opaque blob.
type UserJoinedSignal struct {
	Type     string           `json:"type"`
	Signal   json.RawMessage  `json:"signal"`
	CallerID domain.SessionID `json:"callerID"`
	Name     string           `json:"name"`
	Role     string           `json:"role"`
}

type ReceivingReturnedSignal struct {
	Type   string           `json:"type"`
	ID     domain.SessionID `json:"id"`
	Signal json.RawMessage  `json:"signal"`
}

type UserLeft struct {
	Type string           `json:"type"`
	ID   domain.SessionID `json:"id"`
	Name string           `json:"name"`
}

type HostChanged struct {
	Type      string           `json:"type"`
	NewHostID domain.SessionID `json:"newHostId"`
}

type ChatHistory struct {
	Type     string               `json:"type"`
	Messages []domain.ChatMessage `json:"messages"`
}

type NewMessage struct {
	Type    string             `json:"type"`
	Message domain.ChatMessage `json:"message"`
}

// PollView is the wire shape of a poll. Voter identities are exposed only
// for non-anonymous polls; counts are always present.
type PollView struct {
	ID            string                     `json:"id"`
	Question      string                     `json:"question"`
	Kind          string                     `json:"kind"`
	Options       []domain.PollOption        `json:"options"`
	AllowMultiple bool                       `json:"allowMultiple"`
	Anonymous     bool                       `json:"anonymous"`
	Active        bool                       `json:"active"`
	CreatedBy     domain.SessionID           `json:"createdBy"`
	CreatedAt     int64                      `json:"createdAt"`
	TotalVotes    int                        `json:"totalVotes"`
	Votes         map[domain.SessionID][]int `json:"votes,omitempty"`
}

// PollViewOf copies the poll into its wire shape.
func PollViewOf(p *domain.Poll) PollView {
	v := PollView{
		ID:            p.ID,
		Question:      p.Question,
		Kind:          p.Kind,
		Options:       append([]domain.PollOption(nil), p.Options...),
		AllowMultiple: p.AllowMultiple,
		Anonymous:     p.Anonymous,
		Active:        p.Active,
		CreatedBy:     p.CreatorID,
		CreatedAt:     p.CreatedAt,
		TotalVotes:    p.TotalVotes(),
	}
	if !p.Anonymous {
		v.Votes = make(map[domain.SessionID][]int, len(p.Votes))
		for sid, indices := range p.Votes {
			v.Votes[sid] = append([]int(nil), indices...)
		}
	}
	return v
}

type PollsHistory struct {
	Type  string     `json:"type"`
	Polls []PollView `json:"polls"`
}

type NewPoll struct {
	Type string   `json:"type"`
	Poll PollView `json:"poll"`
}

type PollUpdated struct {
	Type string   `json:"type"`
	Poll PollView `json:"poll"`
}

// QuestionView is the wire shape of a question. Votes list the voting
// session ids in stable order.
type QuestionView struct {
	ID         string             `json:"id"`
	AuthorID   domain.SessionID   `json:"authorId"`
	AuthorName string             `json:"authorName"`
	Text       string             `json:"text"`
	CreatedAt  int64              `json:"createdAt"`
	Votes      []domain.SessionID `json:"votes"`
	Answered   bool               `json:"answered"`
	Answer     string             `json:"answer,omitempty"`
	AnsweredBy domain.SessionID   `json:"answeredBy,omitempty"`
	AnsweredAt int64              `json:"answeredAt,omitempty"`
}

// QuestionViewOf copies the question into its wire shape.
func QuestionViewOf(q *domain.Question) QuestionView {
	votes := make([]domain.SessionID, 0, len(q.Voters))
	for sid := range q.Voters {
		votes = append(votes, sid)
	}
	slices.Sort(votes)
	return QuestionView{
		ID:         q.ID,
		AuthorID:   q.AuthorID,
		AuthorName: q.AuthorName,
		Text:       q.Text,
		CreatedAt:  q.CreatedAt,
		Votes:      votes,
		Answered:   q.Answered,
		Answer:     q.Answer,
		AnsweredBy: q.AnsweredBy,
		AnsweredAt: q.AnsweredAt,
	}
}

type QuestionsHistory struct {
	Type      string         `json:"type"`
	Questions []QuestionView `json:"questions"`
}

type NewQuestion struct {
	Type     string       `json:"type"`
	Question QuestionView `json:"question"`
}

type QuestionUpdated struct {
	Type     string       `json:"type"`
	Question QuestionView `json:"question"`
}

type RaisedHandsHistory struct {
	Type  string              `json:"type"`
	Hands []domain.RaisedHand `json:"hands"`
}

type HandRaised struct {
	Type     string           `json:"type"`
	ID       domain.SessionID `json:"id"`
	Name     string           `json:"name"`
	RaisedAt int64            `json:"raisedAt"`
}

type HandLowered struct {
	Type string           `json:"type"`
	ID   domain.SessionID `json:"id"`
}

type NewReaction struct {
	Type     string          `json:"type"`
	Reaction domain.Reaction `json:"reaction"`
}

type ErrorFrame struct {
	Type   string `json:"type"`
	Kind   string `json:"kind"`
	Detail string `json:"detail"`
}

type ServerShutdown struct {
	Type string `json:"type"`
}

type Pong struct {
	Type string `json:"type"`
}

// Encode marshals an outbound frame. Relay frames carrying a signal
// blob must go through the New*SignalFrame builders instead: the json
// encoder re-encodes RawMessage fields, compacting whitespace and
// escaping <, > and &.
func Encode(v any) ([]byte, error) {
	return json.Marshal(v)
}

// jsonString appends the JSON encoding of s. Strings cannot fail to
// marshal.
func jsonString(b *bytes.Buffer, s string) {
	enc, _ := json.Marshal(s)
	b.Write(enc)
}

// rawOrNull appends the blob untouched; an absent blob encodes as null,
// matching encoding/json.
func rawOrNull(b *bytes.Buffer, raw json.RawMessage) {
	if len(raw) == 0 {
		b.WriteString("null")
		return
	}
	b.Write(raw)
}

// NewUserJoinedSignalFrame assembles the handshake forward by hand so
// the signal field lands on the wire exactly as the caller framed it.
func NewUserJoinedSignalFrame(signal json.RawMessage, callerID domain.SessionID, name, role string) []byte {
	var b bytes.Buffer
	b.WriteString(`{"type":"` + KindUserJoined + `","signal":`)
	rawOrNull(&b, signal)
	b.WriteString(`,"callerID":`)
	jsonString(&b, string(callerID))
	b.WriteString(`,"name":`)
	jsonString(&b, name)
	b.WriteString(`,"role":`)
	jsonString(&b, role)
	b.WriteByte('}')
	return b.Bytes()
}

// NewReceivingReturnedSignalFrame assembles the answer leg, splicing
// the signal bytes in verbatim.
func NewReceivingReturnedSignalFrame(id domain.SessionID, signal json.RawMessage) []byte {
	var b bytes.Buffer
	b.WriteString(`{"type":"` + KindReceivingReturnedSignal + `","id":`)
	jsonString(&b, string(id))
	b.WriteString(`,"signal":`)
	rawOrNull(&b, signal)
	b.WriteByte('}')
	return b.Bytes()
}

// NewErrorFrame builds an encoded error frame. The shape cannot fail to
// marshal.
func NewErrorFrame(kind, detail string) []byte {
	b, _ := json.Marshal(ErrorFrame{Type: KindError, Kind: kind, Detail: detail})
	return b
}
