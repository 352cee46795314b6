package domain

import "errors"

const (
	MinRoomIDLen = 6
	MaxRoomIDLen = 64
)

var ErrRoomID = errors.New("invalid room id")

type RoomID string

// ValidateRoomID checks the id against the allowed character class
// [A-Za-z0-9_-] and the length bounds.
func ValidateRoomID(raw string) error {
	if len(raw) < MinRoomIDLen || len(raw) > MaxRoomIDLen {
		return ErrRoomID
	}
	for _, r := range raw {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
		case r == '_' || r == '-':
		default:
			return ErrRoomID
		}
	}
	return nil
}
