// Package protocol defines the JSON frames exchanged with clients. Every
// frame is a single JSON object carrying a `type` discriminator.
package protocol

import (
	"encoding/json"
	"errors"
)

var (
	// ErrMalformed marks a frame that is not a JSON object at all.
	ErrMalformed = errors.New("malformed frame")
	// ErrUnknownKind marks a well-formed frame of a kind the server
	// does not accept.
	ErrUnknownKind = errors.New("unknown message kind")
	// ErrShape marks a known kind whose fields do not decode.
	ErrShape = errors.New("invalid shape")
)

type envelope struct {
	Type string `json:"type"`
}

func peekType(data []byte) (string, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return "", ErrMalformed
	}
	return env.Type, nil
}
