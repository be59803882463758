package models

import (
	"errors"
	"fmt"
)

// Validation errors.
var (
	ErrMissingID        = errors.New("id is required")
	ErrInvalidRoomType  = errors.New("invalid room type")
	ErrNoParticipants   = errors.New("participants are required")
	ErrParticipantCount = errors.New("one-to-one rooms need exactly two participants")
	ErrMissingUserName  = errors.New("user name is required")
)

// ValidateRoom checks a room for structural validity.
func ValidateRoom(r *Room) error {
	if r == nil {
		return errors.New("room is nil")
	}
	if r.ID == "" {
		return fmt.Errorf("room: %w", ErrMissingID)
	}
	switch r.Type {
	case RoomTypeOneToOne, RoomTypeGroup, RoomTypePublic:
	default:
		return fmt.Errorf("room %s: %w: %q", r.ID, ErrInvalidRoomType, r.Type)
	}
	if r.Type == RoomTypeOneToOne || r.Type == RoomTypeGroup {
		if len(r.Participants) == 0 {
			return fmt.Errorf("room %s: %w", r.ID, ErrNoParticipants)
		}
	}
	if r.Type == RoomTypeOneToOne && len(r.Participants) != 2 {
		return fmt.Errorf("room %s: %w", r.ID, ErrParticipantCount)
	}
	return nil
}

// ValidateUser checks a user for structural validity.
func ValidateUser(u *User) error {
	if u == nil {
		return errors.New("user is nil")
	}
	if u.ID == "" {
		return fmt.Errorf("user: %w", ErrMissingID)
	}
	if u.Name == "" {
		return fmt.Errorf("user %s: %w", u.ID, ErrMissingUserName)
	}
	return nil
}
