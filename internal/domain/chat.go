package domain

const MaxChatChars = 1000

// ChatMessage is immutable once created.
type ChatMessage struct {
	ID         string    `json:"id"`
	AuthorID   SessionID `json:"authorId"`
	AuthorName string    `json:"authorName"`
	Text       string    `json:"text"`
	SentAt     int64     `json:"sentAt"`
}
