package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"staybook/internal/domain"
	apperrors "staybook/internal/errors"
)

const roomColumns = `id, title, description, nightlyPrice, capacity, available, createdAt, updatedAt`

type roomRepository struct {
	q querier
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRoom(row rowScanner) (*domain.Room, error) {
	var room domain.Room
	err := row.Scan(
		&room.ID, &room.Title, &room.Description, &room.NightlyPrice,
		&room.Capacity, &room.Available, &room.CreatedAt, &room.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &room, nil
}

func (r *roomRepository) findOne(ctx context.Context, query string, id int64) (*domain.Room, error) {
	room, err := scanRoom(r.q.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("room with id %d not found", id))
	}
	if err != nil {
		return nil, fmt.Errorf("querying room by id: %w", err)
	}
	return room, nil
}

func (r *roomRepository) FindByID(ctx context.Context, id int64) (*domain.Room, error) {
	return r.findOne(ctx, `SELECT `+roomColumns+` FROM Rooms WHERE id = ?`, id)
}

func (r *roomRepository) FindByIDForUpdate(ctx context.Context, id int64) (*domain.Room, error) {
	return r.findOne(ctx, `SELECT `+roomColumns+` FROM Rooms WHERE id = ? FOR UPDATE`, id)
}

func (r *roomRepository) List(ctx context.Context, onlyAvailable bool) ([]domain.Room, error) {
	query := `SELECT ` + roomColumns + ` FROM Rooms`
	if onlyAvailable {
		query += ` WHERE available = 1`
	}
	query += ` ORDER BY id`

	rows, err := r.q.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing rooms: %w", err)
	}
	defer rows.Close()

	rooms := []domain.Room{}
	for rows.Next() {
		room, err := scanRoom(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning room: %w", err)
		}
		rooms = append(rooms, *room)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating rooms: %w", err)
	}
	return rooms, nil
}

func (r *roomRepository) Insert(ctx context.Context, room *domain.Room) error {
	stamp(&room.CreatedAt, &room.UpdatedAt)

	result, err := r.q.ExecContext(ctx, `
		INSERT INTO Rooms (title, description, nightlyPrice, capacity, available, createdAt, updatedAt)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		room.Title, room.Description, room.NightlyPrice, room.Capacity, room.Available,
		room.CreatedAt, room.UpdatedAt,
	)
	if err != nil {
		return translateWriteError("inserting room", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("getting last insert id: %w", err)
	}
	room.ID = id
	return nil
}

func (r *roomRepository) Update(ctx context.Context, room *domain.Room) error {
	result, err := r.q.ExecContext(ctx, `
		UPDATE Rooms
		SET title = ?, description = ?, nightlyPrice = ?, capacity = ?, available = ?, updatedAt = ?
		WHERE id = ?`,
		room.Title, room.Description, room.NightlyPrice, room.Capacity, room.Available, room.UpdatedAt,
		room.ID,
	)
	if err != nil {
		return translateWriteError("updating room", err)
	}
	return requireAffected(result, fmt.Sprintf("room with id %d not found", room.ID))
}

func (r *roomRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.q.ExecContext(ctx, `DELETE FROM Rooms WHERE id = ?`, id)
	if err != nil {
		return translateWriteError("deleting room", err)
	}
	return requireAffected(result, fmt.Sprintf("room with id %d not found", id))
}
