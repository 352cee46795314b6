package domain

import "errors"

const (
	MaxQuestionChars = 500
	MaxAnswerChars   = 1000
)

var ErrOwnQuestion = errors.New("cannot vote own question")

type Question struct {
	ID         string
	AuthorID   SessionID
	AuthorName string
	Text       string
	CreatedAt  int64
	Voters     map[SessionID]struct{}
	Answered   bool
	Answer     string
	AnsweredBy SessionID
	AnsweredAt int64
}

func NewQuestion(id string, author SessionID, authorName, text string, now int64) *Question {
	return &Question{
		ID:         id,
		AuthorID:   author,
		AuthorName: authorName,
		Text:       text,
		CreatedAt:  now,
		Voters:     make(map[SessionID]struct{}),
	}
}

// ToggleVote flips the member's vote. Voting twice is the same as not
// voting at all; authors cannot vote their own question.
func (q *Question) ToggleVote(sid SessionID) error {
	if sid == q.AuthorID {
		return ErrOwnQuestion
	}
	if _, ok := q.Voters[sid]; ok {
		delete(q.Voters, sid)
	} else {
		q.Voters[sid] = struct{}{}
	}
	return nil
}

// SetAnswer records the host's answer.
func (q *Question) SetAnswer(text string, by SessionID, now int64) {
	q.Answered = true
	q.Answer = text
	q.AnsweredBy = by
	q.AnsweredAt = now
}

// ClearVote removes a departed member's vote.
func (q *Question) ClearVote(sid SessionID) {
	delete(q.Voters, sid)
}
