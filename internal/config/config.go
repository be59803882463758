// Package config handles chatdock configuration loading and validation.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Config is the root configuration structure for chatdock.
type Config struct {
	// Global settings
	Global GlobalConfig `yaml:"global" mapstructure:"global"`

	// Database settings
	Database DatabaseConfig `yaml:"database" mapstructure:"database"`

	// Logging settings
	Logging LoggingConfig `yaml:"logging" mapstructure:"logging"`

	// Widget behaviour settings
	Widget WidgetConfig `yaml:"widget" mapstructure:"widget"`

	// Dimensions of the widget boxes
	Dimensions DimensionsConfig `yaml:"dimensions" mapstructure:"dimensions"`
}

// GlobalConfig contains global chatdock settings.
type GlobalConfig struct {
	// DataDir is where chatdock stores its data (default: ~/.local/share/chatdock).
	DataDir string `yaml:"data_dir" mapstructure:"data_dir"`

	// ConfigDir is where config files are stored (default: ~/.config/chatdock).
	ConfigDir string `yaml:"config_dir" mapstructure:"config_dir"`
}

// DatabaseConfig contains database settings.
type DatabaseConfig struct {
	// Path is the SQLite database file path.
	Path string `yaml:"path" mapstructure:"path"`

	// BusyTimeout is how long to wait for a locked database (milliseconds).
	BusyTimeoutMs int `yaml:"busy_timeout_ms" mapstructure:"busy_timeout_ms"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	// Level is the minimum log level (debug, info, warn, error).
	Level string `yaml:"level" mapstructure:"level"`

	// Format is the output format (json, console).
	Format string `yaml:"format" mapstructure:"format"`
}

// FriendConfig seeds the friends roster at login.
type FriendConfig struct {
	ID   string `yaml:"id" mapstructure:"id"`
	Name string `yaml:"name" mapstructure:"name"`
}

// WidgetConfig contains widget behaviour settings.
type WidgetConfig struct {
	// FriendsEnabled shows the friends tab.
	FriendsEnabled bool `yaml:"friends_enabled" mapstructure:"friends_enabled"`

	// PublicRoomsEnabled shows the public rooms tab.
	PublicRoomsEnabled bool `yaml:"public_rooms_enabled" mapstructure:"public_rooms_enabled"`

	// OnlineUsersEnabled shows the online users tab.
	OnlineUsersEnabled bool `yaml:"online_users_enabled" mapstructure:"online_users_enabled"`

	// MessageHistoryLimit bounds the retained message history per room.
	MessageHistoryLimit int `yaml:"message_history_limit" mapstructure:"message_history_limit"`

	// ClickToChatTimeout is how long after the last visit the click-to-chat
	// box is shown instead of logging in immediately. Zero disables it.
	ClickToChatTimeout time.Duration `yaml:"click_to_chat_timeout" mapstructure:"click_to_chat_timeout"`

	// Friends seeds the roster on login.
	Friends []FriendConfig `yaml:"friends" mapstructure:"friends"`
}

// DimensionsConfig contains the fixed box dimensions. Slot capacity is
// derived from these and the screen width.
type DimensionsConfig struct {
	MainBoxWidth      int `yaml:"main_box_width" mapstructure:"main_box_width"`
	MainBoxHeight     int `yaml:"main_box_height" mapstructure:"main_box_height"`
	ChatRoomWidth     int `yaml:"chat_room_width" mapstructure:"chat_room_width"`
	ChatRoomHeight    int `yaml:"chat_room_height" mapstructure:"chat_room_height"`
	ChatRoomSpacing   int `yaml:"chat_room_spacing" mapstructure:"chat_room_spacing"`
	RoomListBoxWidth  int `yaml:"room_list_box_width" mapstructure:"room_list_box_width"`
	RoomListBoxHeight int `yaml:"room_list_box_height" mapstructure:"room_list_box_height"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	home, _ := os.UserHomeDir()
	dataDir := filepath.Join(home, ".local", "share", "chatdock")

	return &Config{
		Global: GlobalConfig{
			DataDir:   dataDir,
			ConfigDir: filepath.Join(home, ".config", "chatdock"),
		},
		Database: DatabaseConfig{
			Path:          filepath.Join(dataDir, "chatdock.db"),
			BusyTimeoutMs: 5000,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Widget: WidgetConfig{
			FriendsEnabled:      true,
			PublicRoomsEnabled:  true,
			OnlineUsersEnabled:  true,
			MessageHistoryLimit: 200,
			ClickToChatTimeout:  time.Hour,
		},
		Dimensions: DimensionsConfig{
			MainBoxWidth:      250,
			MainBoxHeight:     300,
			ChatRoomWidth:     230,
			ChatRoomHeight:    300,
			ChatRoomSpacing:   15,
			RoomListBoxWidth:  230,
			RoomListBoxHeight: 300,
		},
	}
}

// Validate checks the configuration for consistency.
func (c *Config) Validate() error {
	switch c.Logging.Level {
	case "trace", "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("invalid logging level %q", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("invalid logging format %q", c.Logging.Format)
	}
	if c.Widget.MessageHistoryLimit < 0 {
		return fmt.Errorf("message_history_limit must not be negative")
	}
	if c.Widget.ClickToChatTimeout < 0 {
		return fmt.Errorf("click_to_chat_timeout must not be negative")
	}
	d := c.Dimensions
	if d.MainBoxWidth <= 0 || d.MainBoxHeight <= 0 ||
		d.ChatRoomWidth <= 0 || d.ChatRoomHeight <= 0 ||
		d.RoomListBoxWidth <= 0 || d.RoomListBoxHeight <= 0 {
		return fmt.Errorf("box dimensions must be positive")
	}
	if d.ChatRoomSpacing < 0 {
		return fmt.Errorf("chat_room_spacing must not be negative")
	}
	if c.Database.BusyTimeoutMs < 0 {
		return fmt.Errorf("busy_timeout_ms must not be negative")
	}
	return nil
}

// TabCount returns the number of enabled main-box tabs. The inbox tab is
// always present.
func (c *Config) TabCount() int {
	tabs := 1
	if c.Widget.OnlineUsersEnabled {
		tabs++
	}
	if c.Widget.PublicRoomsEnabled {
		tabs++
	}
	if c.Widget.FriendsEnabled {
		tabs++
	}
	return tabs
}
