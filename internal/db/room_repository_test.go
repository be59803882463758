package db

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"chatdock/internal/models"
)

func setupTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "test.db"), 0)
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	return db
}

func TestRoomRepository_CreateAndGet(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := NewRoomRepository(db)
	ctx := context.Background()

	room := &models.Room{
		ID:           "r1",
		Name:         "alice & bob",
		Type:         models.RoomTypeOneToOne,
		Participants: []string{"alice", "bob"},
		Private:      true,
		Badge:        2,
	}
	if err := repo.Create(ctx, room); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	got, err := repo.Get(ctx, "r1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Name != "alice & bob" {
		t.Fatalf("unexpected name: %s", got.Name)
	}
	if got.Type != models.RoomTypeOneToOne {
		t.Fatalf("unexpected type: %s", got.Type)
	}
	if !got.HasParticipants([]string{"bob", "alice"}) {
		t.Fatalf("unexpected participants: %v", got.Participants)
	}
	if got.Badge != 2 {
		t.Fatalf("unexpected badge: %d", got.Badge)
	}
	if got.Slot != models.NoSlot {
		t.Fatalf("loaded rooms must not occupy a slot, got %d", got.Slot)
	}
}

func TestRoomRepository_GetMissing(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	_, err := NewRoomRepository(db).Get(context.Background(), "nope")
	if !errors.Is(err, ErrRoomNotFound) {
		t.Fatalf("expected ErrRoomNotFound, got %v", err)
	}
}

func TestRoomRepository_CreateRejectsInvalid(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	err := NewRoomRepository(db).Create(context.Background(), &models.Room{
		ID:   "bad",
		Type: models.RoomTypeOneToOne,
	})
	if !errors.Is(err, ErrInvalidRoom) {
		t.Fatalf("expected ErrInvalidRoom, got %v", err)
	}
}

func TestRoomRepository_ListPrivateOrdersByActivity(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := NewRoomRepository(db)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	rooms := []*models.Room{
		{ID: "old", Name: "old", Type: models.RoomTypeGroup, Participants: []string{"a", "b", "c"}, LastActivity: base},
		{ID: "new", Name: "new", Type: models.RoomTypeOneToOne, Participants: []string{"a", "b"}, LastActivity: base.Add(time.Hour)},
		{ID: "pub", Name: "lobby", Type: models.RoomTypePublic, LastActivity: base.Add(2 * time.Hour)},
	}
	for _, room := range rooms {
		if err := repo.Create(ctx, room); err != nil {
			t.Fatalf("Create %s failed: %v", room.ID, err)
		}
	}

	private, err := repo.ListPrivate(ctx)
	if err != nil {
		t.Fatalf("ListPrivate failed: %v", err)
	}
	if len(private) != 2 {
		t.Fatalf("expected 2 private rooms, got %d", len(private))
	}
	if private[0].ID != "new" || private[1].ID != "old" {
		t.Fatalf("unexpected order: %s, %s", private[0].ID, private[1].ID)
	}
}

func TestRoomRepository_ListWithParticipants(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := NewRoomRepository(db)
	ctx := context.Background()

	pair := &models.Room{ID: "pair", Name: "pair", Type: models.RoomTypeOneToOne, Participants: []string{"alice", "bob"}}
	trio := &models.Room{ID: "trio", Name: "trio", Type: models.RoomTypeGroup, Participants: []string{"alice", "bob", "carol"}}
	if err := repo.Create(ctx, pair); err != nil {
		t.Fatalf("Create pair failed: %v", err)
	}
	if err := repo.Create(ctx, trio); err != nil {
		t.Fatalf("Create trio failed: %v", err)
	}

	got, err := repo.ListWithParticipants(ctx, "bob", "alice")
	if err != nil {
		t.Fatalf("ListWithParticipants failed: %v", err)
	}
	if len(got) != 1 || got[0].ID != "pair" {
		t.Fatalf("expected exactly the pair room, got %v", got)
	}

	none, err := repo.ListWithParticipants(ctx, "alice", "dave")
	if err != nil {
		t.Fatalf("ListWithParticipants failed: %v", err)
	}
	if len(none) != 0 {
		t.Fatalf("expected no rooms, got %d", len(none))
	}
}

func TestRoomRepository_MarkUpdatedAndDelete(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := NewRoomRepository(db)
	ctx := context.Background()

	room := &models.Room{ID: "r1", Name: "general", Type: models.RoomTypePublic}
	if err := repo.Create(ctx, room); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	at := time.Date(2026, 4, 1, 8, 0, 0, 0, time.UTC)
	if err := repo.MarkUpdated(ctx, "r1", at); err != nil {
		t.Fatalf("MarkUpdated failed: %v", err)
	}
	got, err := repo.Get(ctx, "r1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !got.LastActivity.Equal(at) {
		t.Fatalf("unexpected last activity: %v", got.LastActivity)
	}

	if err := repo.MarkUpdated(ctx, "missing", at); !errors.Is(err, ErrRoomNotFound) {
		t.Fatalf("expected ErrRoomNotFound, got %v", err)
	}

	if err := repo.Delete(ctx, "r1"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if err := repo.Delete(ctx, "r1"); !errors.Is(err, ErrRoomNotFound) {
		t.Fatalf("expected ErrRoomNotFound, got %v", err)
	}
}
