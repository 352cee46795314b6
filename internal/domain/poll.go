package domain

import (
	"errors"
	"slices"
	"strconv"
)

const (
	PollMultipleChoice = "multiple-choice"
	PollYesNo          = "yes-no"
	PollRating         = "rating"

	MaxPollQuestionChars = 200
	MaxPollOptionChars   = 100
	MinPollOptions       = 2
	MaxPollOptions       = 6
	RatingScale          = 5
)

var (
	ErrPollKind    = errors.New("unknown poll kind")
	ErrPollOptions = errors.New("bad poll options")
	ErrPollVote    = errors.New("bad poll vote")
	ErrPollClosed  = errors.New("poll not active")
)

type PollOption struct {
	Text  string `json:"text"`
	Votes int    `json:"votes"`
}

type Poll struct {
	ID            string
	CreatorID     SessionID
	Question      string
	Kind          string
	Options       []PollOption
	AllowMultiple bool
	Anonymous     bool
	Active        bool
	CreatedAt     int64
	Votes         map[SessionID][]int
}

// NewPoll validates the requested shape and materializes options for the
// fixed-option kinds. Option texts must already be sanitized.
func NewPoll(id string, creator SessionID, question, kind string, options []string, allowMultiple, anonymous bool, now int64) (*Poll, error) {
	p := &Poll{
		ID:            id,
		CreatorID:     creator,
		Question:      question,
		Kind:          kind,
		AllowMultiple: allowMultiple,
		Anonymous:     anonymous,
		Active:        true,
		CreatedAt:     now,
		Votes:         make(map[SessionID][]int),
	}
	switch kind {
	case PollMultipleChoice:
		if len(options) < MinPollOptions || len(options) > MaxPollOptions {
			return nil, ErrPollOptions
		}
		for _, o := range options {
			p.Options = append(p.Options, PollOption{Text: o})
		}
	case PollYesNo:
		p.Options = []PollOption{{Text: "Yes"}, {Text: "No"}}
	case PollRating:
		for i := 1; i <= RatingScale; i++ {
			p.Options = append(p.Options, PollOption{Text: strconv.Itoa(i)})
		}
	default:
		return nil, ErrPollKind
	}
	return p, nil
}

// Vote applies a member's choice. Without allow-multiple the previous
// entry is replaced; with it the new indices are merged in.
func (p *Poll) Vote(sid SessionID, indices []int) error {
	if !p.Active {
		return ErrPollClosed
	}
	if len(indices) == 0 {
		return ErrPollVote
	}
	if !p.AllowMultiple && len(indices) > 1 {
		return ErrPollVote
	}
	for _, i := range indices {
		if i < 0 || i >= len(p.Options) {
			return ErrPollVote
		}
	}
	if p.AllowMultiple {
		merged := append([]int(nil), p.Votes[sid]...)
		for _, i := range indices {
			if !slices.Contains(merged, i) {
				merged = append(merged, i)
			}
		}
		p.Votes[sid] = merged
	} else {
		p.Votes[sid] = []int{indices[0]}
	}
	p.recount()
	return nil
}

// ClearVote removes a departed member's entry; counts decrement.
func (p *Poll) ClearVote(sid SessionID) {
	if _, ok := p.Votes[sid]; !ok {
		return
	}
	delete(p.Votes, sid)
	p.recount()
}

// TotalVotes is the number of members who voted.
func (p *Poll) TotalVotes() int { return len(p.Votes) }

func (p *Poll) recount() {
	for i := range p.Options {
		p.Options[i].Votes = 0
	}
	for _, indices := range p.Votes {
		for _, i := range indices {
			p.Options[i].Votes++
		}
	}
}
