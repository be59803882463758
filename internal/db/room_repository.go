package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"chatdock/internal/models"
)

// Room repository errors.
var (
	ErrRoomNotFound = errors.New("room not found")
	ErrInvalidRoom  = errors.New("invalid room")
)

// RoomRepository persists private rooms between sessions. It is the
// directory's storage backend; display-only state (slot, geometry,
// activation) is deliberately not stored.
type RoomRepository struct {
	db *DB
}

// NewRoomRepository creates a new RoomRepository.
func NewRoomRepository(db *DB) *RoomRepository {
	return &RoomRepository{db: db}
}

// Create inserts a new room record.
func (r *RoomRepository) Create(ctx context.Context, room *models.Room) error {
	if err := models.ValidateRoom(room); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRoom, err)
	}
	if room.ID == "" {
		room.ID = uuid.New().String()
	}
	if room.LastActivity.IsZero() {
		room.LastActivity = time.Now().UTC()
	}

	participants, err := json.Marshal(room.Participants)
	if err != nil {
		return fmt.Errorf("failed to marshal participants: %w", err)
	}

	return r.db.WriteTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO rooms (
				id, name, description, type, participants_json,
				invites_enabled, is_private, badge, last_activity, created_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`,
			room.ID,
			room.Name,
			room.Description,
			string(room.Type),
			string(participants),
			boolToInt(room.InvitesEnabled),
			boolToInt(room.Private),
			room.Badge,
			room.LastActivity.UTC().Format(time.RFC3339Nano),
			time.Now().UTC().Format(time.RFC3339Nano),
		)
		if err != nil {
			return fmt.Errorf("failed to insert room: %w", err)
		}
		return nil
	})
}

// Get retrieves a room by ID.
func (r *RoomRepository) Get(ctx context.Context, id string) (*models.Room, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, name, description, type, participants_json,
		       invites_enabled, is_private, badge, last_activity
		FROM rooms WHERE id = ?
	`, id)
	return scanRoom(row)
}

// ListPrivate returns all persisted one-to-one and group rooms, most
// recently active first.
func (r *RoomRepository) ListPrivate(ctx context.Context) ([]*models.Room, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, description, type, participants_json,
		       invites_enabled, is_private, badge, last_activity
		FROM rooms
		WHERE type IN (?, ?)
		ORDER BY last_activity DESC, id ASC
	`, string(models.RoomTypeOneToOne), string(models.RoomTypeGroup))
	if err != nil {
		return nil, fmt.Errorf("failed to query private rooms: %w", err)
	}
	defer rows.Close()

	return collectRooms(rows)
}

// ListWithParticipants returns the private rooms whose participant set
// equals exactly the given user IDs.
func (r *RoomRepository) ListWithParticipants(ctx context.Context, userIDs ...string) ([]*models.Room, error) {
	rooms, err := r.ListPrivate(ctx)
	if err != nil {
		return nil, err
	}

	var matched []*models.Room
	for _, room := range rooms {
		if room.HasParticipants(userIDs) {
			matched = append(matched, room)
		}
	}
	return matched, nil
}

// MarkUpdated bumps a room's last-activity timestamp.
func (r *RoomRepository) MarkUpdated(ctx context.Context, id string, at time.Time) error {
	if at.IsZero() {
		at = time.Now().UTC()
	}
	return r.db.WriteTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE rooms SET last_activity = ? WHERE id = ?
		`, at.UTC().Format(time.RFC3339Nano), id)
		if err != nil {
			return fmt.Errorf("failed to update room: %w", err)
		}
		return checkAffected(res, "update")
	})
}

// SetBadge stores a room's unread badge count.
func (r *RoomRepository) SetBadge(ctx context.Context, id string, badge int) error {
	return r.db.WriteTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE rooms SET badge = ? WHERE id = ?
		`, badge, id)
		if err != nil {
			return fmt.Errorf("failed to update badge: %w", err)
		}
		return checkAffected(res, "update")
	})
}

// Delete removes a room record.
func (r *RoomRepository) Delete(ctx context.Context, id string) error {
	return r.db.WriteTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM rooms WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("failed to delete room: %w", err)
		}
		return checkAffected(res, "delete")
	})
}

// checkAffected maps a zero-row write to ErrRoomNotFound.
func checkAffected(res sql.Result, op string) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check %s: %w", op, err)
	}
	if affected == 0 {
		return ErrRoomNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRoom(row rowScanner) (*models.Room, error) {
	var (
		room             models.Room
		roomType         string
		participantsJSON string
		invitesEnabled   int
		isPrivate        int
		lastActivity     string
	)

	err := row.Scan(
		&room.ID,
		&room.Name,
		&room.Description,
		&roomType,
		&participantsJSON,
		&invitesEnabled,
		&isPrivate,
		&room.Badge,
		&lastActivity,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRoomNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan room: %w", err)
	}

	room.Type = models.RoomType(roomType)
	room.InvitesEnabled = invitesEnabled != 0
	room.Private = isPrivate != 0
	room.Slot = models.NoSlot

	if err := json.Unmarshal([]byte(participantsJSON), &room.Participants); err != nil {
		return nil, fmt.Errorf("failed to unmarshal participants: %w", err)
	}
	if room.LastActivity, err = time.Parse(time.RFC3339Nano, lastActivity); err != nil {
		return nil, fmt.Errorf("failed to parse last activity: %w", err)
	}

	return &room, nil
}

func collectRooms(rows *sql.Rows) ([]*models.Room, error) {
	var rooms []*models.Room
	for rows.Next() {
		room, err := scanRoom(rows)
		if err != nil {
			return nil, err
		}
		rooms = append(rooms, room)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate rooms: %w", err)
	}
	return rooms, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
