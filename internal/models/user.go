package models

// User represents a user visible to the widget.
type User struct {
	// ID is the unique identifier for the user.
	ID string `json:"id"`

	// Name is the display name.
	Name string `json:"name"`

	// Online reports whether the user is currently online.
	Online bool `json:"online"`

	// Blocked reports whether the current user has blocked this user.
	Blocked bool `json:"blocked,omitempty"`
}
