// Package models defines the domain types shared across chatdock.
package models

import (
	"time"
)

// RoomType categorizes conversations.
type RoomType string

const (
	// RoomTypeOneToOne is a private conversation between exactly two users.
	RoomTypeOneToOne RoomType = "one_to_one"

	// RoomTypeGroup is a private conversation between two or more users.
	RoomTypeGroup RoomType = "group"

	// RoomTypePublic is a public room anyone may join.
	RoomTypePublic RoomType = "public"
)

// NoSlot marks a room that does not currently occupy a display slot.
const NoSlot = -1

// Geometry describes the display region of a room while it occupies a slot.
type Geometry struct {
	// Offset is the horizontal offset from the widget origin.
	Offset int `json:"offset"`

	// Width is the box width.
	Width int `json:"width"`

	// Height is the box height.
	Height int `json:"height"`
}

// Room represents a conversation.
//
// Slot, Geometry and Active are meaningful only while the room occupies a
// visible slot; Slot is NoSlot otherwise. Rooms are never destroyed during a
// session; logout clears all in-memory room state at once.
type Room struct {
	// ID is the unique, stable identifier for the room.
	ID string `json:"id"`

	// Name is the display name.
	Name string `json:"name"`

	// Description is an optional longer description.
	Description string `json:"description,omitempty"`

	// Type categorizes the room.
	Type RoomType `json:"type"`

	// Participants holds the user IDs in the room. Non-empty for
	// one-to-one and group rooms.
	Participants []string `json:"participants,omitempty"`

	// Badge is the unread-message count. Zero means no badge.
	Badge int `json:"badge,omitempty"`

	// OnlineUserCount is the number of participants currently online.
	OnlineUserCount int `json:"online_user_count,omitempty"`

	// InvitesEnabled allows participants to invite others.
	InvitesEnabled bool `json:"invites_enabled,omitempty"`

	// Private excludes the room from public listings.
	Private bool `json:"private,omitempty"`

	// Slot is the index of the display slot the room occupies, or NoSlot.
	Slot int `json:"slot"`

	// Geometry is the display region while the room occupies a slot.
	Geometry Geometry `json:"geometry"`

	// Active reports whether the room occupies a visible display slot.
	Active bool `json:"active"`

	// Minimized reports whether the room box is minimized.
	Minimized bool `json:"minimized"`

	// LastActivity is the timestamp of the most recent message or update.
	LastActivity time.Time `json:"last_activity"`

	// Messages is the bounded retained message history.
	Messages []Message `json:"messages,omitempty"`
}

// NewRoom creates a room with no slot assignment.
func NewRoom(id, name string, roomType RoomType) *Room {
	return &Room{
		ID:   id,
		Name: name,
		Type: roomType,
		Slot: NoSlot,
	}
}

// HasParticipants reports whether the room's participant set equals the
// given set, ignoring order and duplicates.
func (r *Room) HasParticipants(ids []string) bool {
	if len(ids) == 0 {
		return false
	}
	want := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		want[id] = struct{}{}
	}
	have := make(map[string]struct{}, len(r.Participants))
	for _, id := range r.Participants {
		have[id] = struct{}{}
	}
	if len(want) != len(have) {
		return false
	}
	for id := range want {
		if _, ok := have[id]; !ok {
			return false
		}
	}
	return true
}

// InSlot reports whether the room currently occupies a display slot.
func (r *Room) InSlot() bool {
	return r.Slot != NoSlot
}

// ClearSlot removes the room from its slot and resets slot-bound state.
func (r *Room) ClearSlot() {
	r.Slot = NoSlot
	r.Geometry = Geometry{}
	r.Active = false
}

// TrimMessages bounds the retained history to at most max messages,
// dropping the oldest first. A non-positive max leaves the history alone.
func (r *Room) TrimMessages(max int) {
	if max <= 0 || len(r.Messages) <= max {
		return
	}
	trimmed := make([]Message, max)
	copy(trimmed, r.Messages[len(r.Messages)-max:])
	r.Messages = trimmed
}

// Message is a single chat message within a room.
type Message struct {
	// ID is the unique identifier for the message.
	ID string `json:"id"`

	// SenderID is the user ID of the author.
	SenderID string `json:"sender_id"`

	// SenderName is the author's display name at send time.
	SenderName string `json:"sender_name,omitempty"`

	// Body is the message text.
	Body string `json:"body"`

	// Time is when the message was sent.
	Time time.Time `json:"time"`
}
