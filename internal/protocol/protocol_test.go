package protocol

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ralphvalcin/decentralize-video-app-sub000/internal/domain"
)

func TestDecodeInboundJoinRoom(t *testing.T) {
	msg, err := DecodeInbound([]byte(`{"type":"join-room","name":"Ada","role":"Host","roomId":"room-1","token":"tok"}`))
	require.NoError(t, err)
	join, ok := msg.(JoinRoom)
	require.True(t, ok)
	assert.Equal(t, "Ada", join.Name)
	assert.Equal(t, "Host", join.Role)
	assert.Equal(t, "room-1", join.RoomID)
	assert.Equal(t, "tok", join.Token)
}

func TestDecodeInboundSignalKeepsRawBytes(t *testing.T) {
	raw := `{"type":"sending-signal","userToSignal":"bbb","callerID":"aaa","signal":{"sdp":"v=0","candidates":[1,2,3]}}`
	msg, err := DecodeInbound([]byte(raw))
	require.NoError(t, err)
	sig, ok := msg.(SendingSignal)
	require.True(t, ok)
	assert.Equal(t, domain.SessionID("bbb"), sig.UserToSignal)
	assert.Equal(t, domain.SessionID("aaa"), sig.CallerID)
	assert.Equal(t, `{"sdp":"v=0","candidates":[1,2,3]}`, string(sig.Signal))
}

func TestDecodeInboundVotePollShapes(t *testing.T) {
	msg, err := DecodeInbound([]byte(`{"type":"vote-poll","pollId":"p1","option":2}`))
	require.NoError(t, err)
	vote := msg.(VotePoll)
	require.NotNil(t, vote.Option)
	assert.Equal(t, 2, *vote.Option)

	msg, err = DecodeInbound([]byte(`{"type":"vote-poll","pollId":"p1","options":[0,2]}`))
	require.NoError(t, err)
	vote = msg.(VotePoll)
	assert.Nil(t, vote.Option)
	assert.Equal(t, []int{0, 2}, vote.Options)
}

func TestDecodeInboundBareKinds(t *testing.T) {
	for _, raw := range []string{
		`{"type":"raise-hand"}`,
		`{"type":"user-leaving"}`,
		`{"type":"ping"}`,
	} {
		msg, err := DecodeInbound([]byte(raw))
		require.NoError(t, err, raw)
		require.NotNil(t, msg)
	}
}

func TestDecodeInboundMalformed(t *testing.T) {
	_, err := DecodeInbound([]byte(`{oops`))
	assert.ErrorIs(t, err, ErrMalformed)

	_, err = DecodeInbound([]byte(`[1,2,3]`))
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestDecodeInboundUnknownKind(t *testing.T) {
	_, err := DecodeInbound([]byte(`{"type":"teleport"}`))
	assert.ErrorIs(t, err, ErrUnknownKind)
}

func TestDecodeInboundBadShape(t *testing.T) {
	_, err := DecodeInbound([]byte(`{"type":"vote-poll","pollId":5}`))
	assert.ErrorIs(t, err, ErrShape)
}

func TestNewErrorFrame(t *testing.T) {
	var frame ErrorFrame
	require.NoError(t, json.Unmarshal(NewErrorFrame(ErrKindRoomFull, "room is at capacity"), &frame))
	assert.Equal(t, KindError, frame.Type)
	assert.Equal(t, ErrKindRoomFull, frame.Kind)
	assert.Equal(t, "room is at capacity", frame.Detail)
}

func TestPollViewHidesAnonymousVoters(t *testing.T) {
	p, err := domain.NewPoll("p1", "h", "Q?", domain.PollYesNo, nil, false, true, 0)
	require.NoError(t, err)
	require.NoError(t, p.Vote("s1", []int{0}))

	view := PollViewOf(p)
	assert.Nil(t, view.Votes)
	assert.Equal(t, 1, view.TotalVotes)
	assert.Equal(t, 1, view.Options[0].Votes)

	open, err := domain.NewPoll("p2", "h", "Q?", domain.PollYesNo, nil, false, false, 0)
	require.NoError(t, err)
	require.NoError(t, open.Vote("s1", []int{1}))
	assert.Equal(t, map[domain.SessionID][]int{"s1": {1}}, PollViewOf(open).Votes)
}

func TestPollViewCopiesOptions(t *testing.T) {
	p, err := domain.NewPoll("p1", "h", "Q?", domain.PollYesNo, nil, false, false, 0)
	require.NoError(t, err)
	view := PollViewOf(p)
	view.Options[0].Votes = 99
	assert.Equal(t, 0, p.Options[0].Votes)
}

func TestQuestionViewSortsVoters(t *testing.T) {
	q := domain.NewQuestion("q1", "author", "Ada", "Why?", 0)
	for _, sid := range []domain.SessionID{"ccc", "aaa", "bbb"} {
		require.NoError(t, q.ToggleVote(sid))
	}
	view := QuestionViewOf(q)
	assert.Equal(t, []domain.SessionID{"aaa", "bbb", "ccc"}, view.Votes)
}

func TestSignalForwardFrameKeepsBytes(t *testing.T) {
	// Whitespace and <, > and & would not survive a json.Marshal of the
	// envelope; the builder must splice the blob in verbatim.
	payload := `{"sdp": "a=label:x < y & z",  "n": 1}`
	b := NewUserJoinedSignalFrame(json.RawMessage(payload), "aaa", "Ada", "Host")

	assert.Equal(t,
		`{"type":"user-joined","signal":`+payload+`,"callerID":"aaa","name":"Ada","role":"Host"}`,
		string(b))

	var decoded UserJoinedSignal
	require.NoError(t, json.Unmarshal(b, &decoded))
	assert.Equal(t, KindUserJoined, decoded.Type)
	assert.Equal(t, domain.SessionID("aaa"), decoded.CallerID)
	assert.Equal(t, payload, string(decoded.Signal))
}

func TestSignalReturnFrameKeepsBytes(t *testing.T) {
	payload := `{"sdp": "answer <&>"}`
	b := NewReceivingReturnedSignalFrame("bbb", json.RawMessage(payload))

	assert.Equal(t,
		`{"type":"receiving-returned-signal","id":"bbb","signal":`+payload+`}`,
		string(b))

	var decoded ReceivingReturnedSignal
	require.NoError(t, json.Unmarshal(b, &decoded))
	assert.Equal(t, domain.SessionID("bbb"), decoded.ID)
	assert.Equal(t, payload, string(decoded.Signal))
}

func TestSignalFrameEscapesEnvelopeFields(t *testing.T) {
	b := NewUserJoinedSignalFrame(nil, "aaa", `Ada "Countess" L`, "Host")

	var decoded UserJoinedSignal
	require.NoError(t, json.Unmarshal(b, &decoded))
	assert.Equal(t, `Ada "Countess" L`, decoded.Name)
	// An absent blob encodes as null, keeping the frame valid JSON.
	assert.Equal(t, "null", string(decoded.Signal))
}

func TestKindListsMatchConstants(t *testing.T) {
	assert.Len(t, InboundKinds, 14)
	assert.Len(t, OutboundKinds, 20)
	assert.Contains(t, InboundKinds, KindJoinRoom)
	assert.Contains(t, OutboundKinds, KindServerShutdown)
}
