package domain

import "errors"

var ErrEmoji = errors.New("emoji not allowed")

// Reactions come from a closed emoji set; anything else is rejected
// before reaching a room.
var allowedEmojis = map[string]struct{}{
	"👍": {}, "👎": {}, "👏": {}, "❤️": {},
	"😂": {}, "😮": {}, "🎉": {}, "🤔": {},
}

func ValidEmoji(e string) bool {
	_, ok := allowedEmojis[e]
	return ok
}

type Reaction struct {
	ID         string    `json:"id"`
	Emoji      string    `json:"emoji"`
	SenderID   SessionID `json:"senderId"`
	SenderName string    `json:"senderName"`
	SentAt     int64     `json:"sentAt"`
}
