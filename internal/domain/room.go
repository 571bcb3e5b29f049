// Package domain contains call entities without logic, just meta-data
package domain

import (
	"errors"
	"strings"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

const (
	RoomTokenLen    = 16
	MaxRoomTokenLen = 64
)

var (
	ErrRoomTokenEmpty   = errors.New("room token empty")
	ErrRoomTokenTooLong = errors.New("room token too long")
)

// RoomToken identifies a rendezvous. It travels in the share link and is not a secret.
type RoomToken string

// NewRoomToken mints a fresh token for an initiator.
func NewRoomToken() (RoomToken, error) {
	id, err := gonanoid.New(RoomTokenLen)
	if err != nil {
		return "", err
	}
	return RoomToken(id), nil
}

// ParseRoomToken validates a token read from user input or a link.
func ParseRoomToken(raw string) (RoomToken, error) {
	raw = strings.TrimSpace(raw)
	if len(raw) == 0 {
		return "", ErrRoomTokenEmpty
	}
	if len(raw) > MaxRoomTokenLen {
		return "", ErrRoomTokenTooLong
	}
	return RoomToken(raw), nil
}

func (t RoomToken) String() string { return string(t) }
