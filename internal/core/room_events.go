package core

import (
	"slices"

	"github.com/ralphvalcin/decentralize-video-app-sub000/internal/domain"
	"github.com/ralphvalcin/decentralize-video-app-sub000/internal/protocol"
)

// handleFrame routes one decoded inbound frame. Text payloads arrive
// already sanitized; the room still owns every structural and
// authorization rule.
func (r *Room) handleFrame(sender domain.SessionID, msg protocol.Inbound) {
	m, ok := r.byID[sender]
	if !ok {
		r.log.Debug().Str("sid", string(sender)).Str("kind", msg.Kind()).Msg("frame from non-member")
		return
	}
	switch t := msg.(type) {
	case protocol.SendingSignal:
		r.relaySignal(m, t)
	case protocol.ReturningSignal:
		r.relayReturn(m, t)
	case protocol.SendMessage:
		r.appendChat(m, t)
	case protocol.CreatePoll:
		r.createPoll(m, t)
	case protocol.VotePoll:
		r.votePoll(m, t)
	case protocol.SubmitQuestion:
		r.submitQuestion(m, t)
	case protocol.VoteQuestion:
		r.voteQuestion(m, t)
	case protocol.AnswerQuestion:
		r.answerQuestion(m, t)
	case protocol.RaiseHand:
		r.raiseHand(m)
	case protocol.LowerHand:
		r.lowerHand(m, t)
	case protocol.SendReaction:
		r.appendReaction(m, t)
	default:
		r.log.Warn().Str("kind", msg.Kind()).Msg("kind not routable to a room")
	}
}

func (r *Room) isHost(m *member) bool { return m.id == r.hostID }

func (r *Room) appendChat(m *member, t protocol.SendMessage) {
	msg := domain.ChatMessage{
		ID:         domain.NewEventID(),
		AuthorID:   m.id,
		AuthorName: m.name,
		Text:       t.Text,
		SentAt:     r.opts.Clock.NowMillis(),
	}
	r.chat.Push(msg)
	r.broadcast(r.encode(protocol.NewMessage{Type: protocol.KindNewMessage, Message: msg}), protocol.KindNewMessage)
}

func (r *Room) createPoll(m *member, t protocol.CreatePoll) {
	if !r.isHost(m) {
		r.sendError(m, protocol.ErrKindNotHost, "only the host can create polls")
		return
	}
	poll, err := domain.NewPoll(domain.NewEventID(), m.id, t.Poll.Question, t.Poll.Kind, t.Poll.Options,
		t.Poll.AllowMultiple, t.Poll.Anonymous, r.opts.Clock.NowMillis())
	if err != nil {
		r.sendError(m, protocol.ErrKindInvalidShape, err.Error())
		return
	}
	r.polls.Push(poll)
	r.broadcast(r.encode(protocol.NewPoll{Type: protocol.KindNewPoll, Poll: protocol.PollViewOf(poll)}), protocol.KindNewPoll)
}

func (r *Room) votePoll(m *member, t protocol.VotePoll) {
	poll := r.findPoll(t.PollID)
	if poll == nil {
		r.sendError(m, protocol.ErrKindInvalidShape, "unknown poll")
		return
	}
	indices := t.Options
	if t.Option != nil {
		indices = []int{*t.Option}
	}
	if err := poll.Vote(m.id, indices); err != nil {
		r.sendError(m, protocol.ErrKindInvalidShape, err.Error())
		return
	}
	r.broadcast(r.encode(protocol.PollUpdated{Type: protocol.KindPollUpdated, Poll: protocol.PollViewOf(poll)}), protocol.KindPollUpdated)
}

func (r *Room) submitQuestion(m *member, t protocol.SubmitQuestion) {
	q := domain.NewQuestion(domain.NewEventID(), m.id, m.name, t.Q, r.opts.Clock.NowMillis())
	r.questions.Push(q)
	r.broadcast(r.encode(protocol.NewQuestion{Type: protocol.KindNewQuestion, Question: protocol.QuestionViewOf(q)}), protocol.KindNewQuestion)
}

func (r *Room) voteQuestion(m *member, t protocol.VoteQuestion) {
	q := r.findQuestion(t.QID)
	if q == nil {
		r.sendError(m, protocol.ErrKindInvalidShape, "unknown question")
		return
	}
	if err := q.ToggleVote(m.id); err != nil {
		r.sendError(m, protocol.ErrKindInvalidShape, err.Error())
		return
	}
	r.broadcast(r.encode(protocol.QuestionUpdated{Type: protocol.KindQuestionUpdated, Question: protocol.QuestionViewOf(q)}), protocol.KindQuestionUpdated)
}

func (r *Room) answerQuestion(m *member, t protocol.AnswerQuestion) {
	if !r.isHost(m) {
		r.sendError(m, protocol.ErrKindNotHost, "only the host can answer questions")
		return
	}
	q := r.findQuestion(t.QID)
	if q == nil {
		r.sendError(m, protocol.ErrKindInvalidShape, "unknown question")
		return
	}
	q.SetAnswer(t.Answer, m.id, r.opts.Clock.NowMillis())
	r.broadcast(r.encode(protocol.QuestionUpdated{Type: protocol.KindQuestionUpdated, Question: protocol.QuestionViewOf(q)}), protocol.KindQuestionUpdated)
}

func (r *Room) raiseHand(m *member) {
	for _, h := range r.hands {
		if h.SessionID == m.id {
			return
		}
	}
	hand := domain.RaisedHand{SessionID: m.id, Name: m.name, RaisedAt: r.opts.Clock.NowMillis()}
	r.hands = append(r.hands, hand)
	r.broadcast(r.encode(protocol.HandRaised{
		Type:     protocol.KindHandRaised,
		ID:       hand.SessionID,
		Name:     hand.Name,
		RaisedAt: hand.RaisedAt,
	}), protocol.KindHandRaised)
}

// lowerHand lowers the sender's own hand, or anyone's when the sender
// is the host.
func (r *Room) lowerHand(m *member, t protocol.LowerHand) {
	target := t.UserID
	if target == "" {
		target = m.id
	}
	if target != m.id && !r.isHost(m) {
		r.sendError(m, protocol.ErrKindNotHost, "only the host can lower another hand")
		return
	}
	r.dropHand(target, true)
}

func (r *Room) dropHand(sid domain.SessionID, announce bool) {
	before := len(r.hands)
	r.hands = slices.DeleteFunc(r.hands, func(h domain.RaisedHand) bool { return h.SessionID == sid })
	if len(r.hands) == before {
		return
	}
	if announce {
		r.broadcast(r.encode(protocol.HandLowered{Type: protocol.KindHandLowered, ID: sid}), protocol.KindHandLowered)
	}
}

func (r *Room) appendReaction(m *member, t protocol.SendReaction) {
	reaction := domain.Reaction{
		ID:         domain.NewEventID(),
		Emoji:      t.Emoji,
		SenderID:   m.id,
		SenderName: m.name,
		SentAt:     r.opts.Clock.NowMillis(),
	}
	r.reactions.Push(reaction)
	r.broadcast(r.encode(protocol.NewReaction{Type: protocol.KindNewReaction, Reaction: reaction}), protocol.KindNewReaction)
}

func (r *Room) findPoll(id string) *domain.Poll {
	for _, p := range r.polls.Items() {
		if p.ID == id {
			return p
		}
	}
	return nil
}

func (r *Room) findQuestion(id string) *domain.Question {
	for _, q := range r.questions.Items() {
		if q.ID == id {
			return q
		}
	}
	return nil
}
