package app

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"github.com/ralphvalcin/decentralize-video-app-sub000/internal/domain"
)

var ErrJoinRejected = errors.New("join rejected")

// JoinGate authorizes a join attempt before any room state changes.
type JoinGate interface {
	Authorize(roomID domain.RoomID, token string) error
}

// OpenGate admits everyone. The default: rooms are public and the
// join token is ignored.
type OpenGate struct{}

func (OpenGate) Authorize(domain.RoomID, string) error { return nil }

// JWTGate validates HS256 tokens minted by the site backend. A "room"
// claim, when present, pins the token to a single room.
type JWTGate struct {
	secret []byte
}

func NewJWTGate(secret string) *JWTGate {
	return &JWTGate{secret: []byte(secret)}
}

func (g *JWTGate) Authorize(roomID domain.RoomID, token string) error {
	if token == "" {
		return ErrJoinRejected
	}
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return g.secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil || !parsed.Valid {
		return ErrJoinRejected
	}
	if claims, ok := parsed.Claims.(jwt.MapClaims); ok {
		if room, _ := claims["room"].(string); room != "" && room != string(roomID) {
			return ErrJoinRejected
		}
	}
	return nil
}
