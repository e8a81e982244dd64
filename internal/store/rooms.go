package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"coedit/server/internal/domain"
)

const (
	fkViolation     = "23503"
	uniqueViolation = "23505"
)

type RoomStore struct {
	db *sql.DB
}

func NewRoomStore(db *sql.DB) *RoomStore {
	return &RoomStore{db: db}
}

func (s *RoomStore) DB() *sql.DB {
	return s.db
}

func (s *RoomStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *RoomStore) FindByID(ctx context.Context, roomID domain.RoomID) (*domain.Room, error) {
	room := &domain.Room{ID: roomID}
	err := s.db.QueryRowContext(ctx,
		`SELECT code, last_modified FROM rooms WHERE room_id = $1`, roomID,
	).Scan(&room.Code, &room.LastModified)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrRoomNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find room: %w", err)
	}

	room.Members, err = s.members(ctx, roomID)
	if err != nil {
		return nil, err
	}
	return room, nil
}

func (s *RoomStore) members(ctx context.Context, roomID domain.RoomID) ([]domain.Member, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT username, email, photo_url, joined_at
		FROM room_members
		WHERE room_id = $1
		ORDER BY position
	`, roomID)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	defer rows.Close()

	var members []domain.Member
	for rows.Next() {
		var m domain.Member
		if err := rows.Scan(&m.Username, &m.Email, &m.PhotoURL, &m.JoinedAt); err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate members: %w", err)
	}
	return members, nil
}

func (s *RoomStore) FindByMemberEmail(ctx context.Context, email string) ([]*domain.Room, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT room_id FROM room_members WHERE email = $1 ORDER BY joined_at
	`, email)
	if err != nil {
		return nil, fmt.Errorf("rooms by email: %w", err)
	}
	defer rows.Close()

	var ids []domain.RoomID
	for rows.Next() {
		var id domain.RoomID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan room id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate room ids: %w", err)
	}

	rooms := make([]*domain.Room, 0, len(ids))
	for _, id := range ids {
		room, err := s.FindByID(ctx, id)
		if errors.Is(err, domain.ErrRoomNotFound) {
			// Deleted between the two queries; skip.
			continue
		}
		if err != nil {
			return nil, err
		}
		rooms = append(rooms, room)
	}
	return rooms, nil
}

// Insert creates a room together with its initial member list in one
// transaction. Empty rooms are never persisted.
func (s *RoomStore) Insert(ctx context.Context, room *domain.Room) error {
	if len(room.Members) == 0 {
		return fmt.Errorf("insert room %s: no members", room.ID)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin insert room: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO rooms (room_id, code, last_modified) VALUES ($1, $2, $3)
	`, room.ID, room.Code, room.LastModified); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return domain.ErrRoomExists
		}
		return fmt.Errorf("insert room: %w", err)
	}

	for _, m := range room.Members {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO room_members (room_id, email, username, photo_url, joined_at)
			VALUES ($1, $2, $3, $4, $5)
		`, room.ID, m.Email, m.Username, m.PhotoURL, m.JoinedAt); err != nil {
			return fmt.Errorf("insert member: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit insert room: %w", err)
	}
	return nil
}

// UpsertMember inserts the identity into the room's member list, or
// refreshes the existing member's joined_at when the email is already
// present. A single conditional statement, so two concurrent joins cannot
// overwrite each other's insertion. Returns whether a new member row was
// created.
func (s *RoomStore) UpsertMember(ctx context.Context, roomID domain.RoomID, ident domain.Identity, now time.Time) (bool, error) {
	var inserted bool
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO room_members (room_id, email, username, photo_url, joined_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (room_id, email) DO UPDATE SET joined_at = EXCLUDED.joined_at
		RETURNING (xmax = 0)
	`, roomID, ident.Email, ident.Username, ident.PhotoURL, now).Scan(&inserted)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == fkViolation {
			return false, domain.ErrRoomNotFound
		}
		return false, fmt.Errorf("upsert member: %w", err)
	}
	return inserted, nil
}

// UpdateCode overwrites the room's document. Last write wins; there is no
// version check. Zero rows affected means the room does not exist, so a
// missing room can never be created by an edit.
func (s *RoomStore) UpdateCode(ctx context.Context, roomID domain.RoomID, code string, now time.Time) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE rooms SET code = $2, last_modified = $3 WHERE room_id = $1
	`, roomID, code, now)
	if err != nil {
		return fmt.Errorf("update code: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update code rows: %w", err)
	}
	if n == 0 {
		return domain.ErrRoomNotFound
	}
	return nil
}

// RemoveMember deletes the member; when the member list empties, the room
// is deleted too. This is the only path that removes durable membership.
func (s *RoomStore) RemoveMember(ctx context.Context, roomID domain.RoomID, email string) (domain.RemovalOutcome, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin remove member: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		DELETE FROM room_members WHERE room_id = $1 AND email = $2
	`, roomID, email)
	if err != nil {
		return 0, fmt.Errorf("delete member: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete member rows: %w", err)
	}
	if n == 0 {
		var exists bool
		if err := tx.QueryRowContext(ctx,
			`SELECT EXISTS (SELECT 1 FROM rooms WHERE room_id = $1)`, roomID,
		).Scan(&exists); err != nil {
			return 0, fmt.Errorf("check room: %w", err)
		}
		if !exists {
			return 0, domain.ErrRoomNotFound
		}
		return 0, domain.ErrMemberNotFound
	}

	var remaining int
	if err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM room_members WHERE room_id = $1`, roomID,
	).Scan(&remaining); err != nil {
		return 0, fmt.Errorf("count members: %w", err)
	}

	outcome := domain.MemberRemoved
	if remaining == 0 {
		if _, err := tx.ExecContext(ctx, `DELETE FROM rooms WHERE room_id = $1`, roomID); err != nil {
			return 0, fmt.Errorf("delete empty room: %w", err)
		}
		outcome = domain.RoomDeleted
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit remove member: %w", err)
	}
	return outcome, nil
}

func (s *RoomStore) Delete(ctx context.Context, roomID domain.RoomID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM rooms WHERE room_id = $1`, roomID)
	if err != nil {
		return fmt.Errorf("delete room: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete room rows: %w", err)
	}
	if n == 0 {
		return domain.ErrRoomNotFound
	}
	return nil
}
