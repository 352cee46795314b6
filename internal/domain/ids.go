package domain

import (
	"crypto/rand"
	"encoding/hex"

	"github.com/google/uuid"
	"github.com/pion/randutil"
)

const roomIDRunes = "abcdefghijklmnopqrstuvwxyz234567"

// NewSessionID returns a 128-bit random identifier, hex encoded.
func NewSessionID() SessionID {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		panic(err)
	}
	return SessionID(hex.EncodeToString(b))
}

// NewEventID identifies messages, polls, questions and reactions.
func NewEventID() string {
	return uuid.NewString()
}

// NewRoomID mints a readable short id for server-generated rooms.
func NewRoomID() RoomID {
	s, err := randutil.GenerateCryptoRandomString(16, roomIDRunes)
	if err != nil {
		panic(err)
	}
	return RoomID(s)
}
