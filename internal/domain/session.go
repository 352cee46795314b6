// Package domain contains entities without transport logic, just meta-data.
package domain

import (
	"errors"
	"strings"
	"unicode"
	"unicode/utf8"
)

const MaxDisplayNameChars = 32

// Role labels declared by clients at join. The label is echoed in roster
// frames; host privileges are decided by the room, not by this field.
const (
	RoleHost        = "Host"
	RoleParticipant = "Participant"
)

var (
	ErrNameEmpty   = errors.New("display name empty")
	ErrNameTooLong = errors.New("display name too long")
	ErrRole        = errors.New("unknown role")
)

type SessionID string

// Session is a single connected client. The id is stable for the lifetime
// of the connection and never reused within the process.
type Session struct {
	ID          SessionID
	Name        string
	Role        string
	RoomID      RoomID
	ConnectedAt int64
}

// CleanDisplayName strips control characters and enforces the 1..32
// codepoint budget.
func CleanDisplayName(raw string) (string, error) {
	name := strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, raw)
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrNameEmpty
	}
	if utf8.RuneCountInString(name) > MaxDisplayNameChars {
		return "", ErrNameTooLong
	}
	return name, nil
}

// NormalizeRole maps the declared role to the closed label set. An empty
// declaration defaults to participant.
func NormalizeRole(raw string) (string, error) {
	switch raw {
	case "":
		return RoleParticipant, nil
	case RoleHost, RoleParticipant:
		return raw, nil
	}
	return "", ErrRole
}
