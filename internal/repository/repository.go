package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Dan9191/user-service/internal/models"
	"github.com/Dan9191/user-service/internal/storage"
)

// ErrNotFound is returned when no user has the requested id
var ErrNotFound = errors.New("user not found")

// Repository provides database operations
type Repository struct {
	store *storage.Store
}

// NewRepository initializes a new repository
func NewRepository(store *storage.Store) *Repository {
	return &Repository{store: store}
}

// Id parameters are cast so postgres compares them as bigint instead of
// inferring the int4 type of the SERIAL column and rejecting larger values.
const (
	sqlListUsers = `
		SELECT id, name, email
		FROM users`

	sqlInsertUser = `
		INSERT INTO users (name, email)
		VALUES ($1, $2)
		RETURNING id, name, email`

	sqlUserExists = `
		SELECT id
		FROM users
		WHERE id = CAST($1 AS BIGINT)`

	sqlUpdateUser = `
		UPDATE users
		SET name = $1, email = $2
		WHERE id = CAST($3 AS BIGINT)
		RETURNING id, name, email`

	sqlDeleteUser = `
		DELETE FROM users
		WHERE id = CAST($1 AS BIGINT)`
)

// ListAll returns every user. Row order is not defined.
func (r *Repository) ListAll(ctx context.Context) ([]models.UserRecord, error) {
	rows, err := r.store.QueryContext(ctx, sqlListUsers)
	if err != nil {
		return nil, r.store.Wrap("list users", err)
	}
	defer rows.Close()

	users := make([]models.UserRecord, 0)
	for rows.Next() {
		var u models.UserRecord
		if err := rows.Scan(&u.ID, &u.Name, &u.Email); err != nil {
			return nil, r.store.Wrap("list users", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, r.store.Wrap("list users", err)
	}
	return users, nil
}

// Create inserts a user and returns it with its generated id
func (r *Repository) Create(ctx context.Context, user models.User) (*models.UserRecord, error) {
	rec := &models.UserRecord{}
	err := r.store.WithTx(ctx, "create user", func(tx *storage.Tx) error {
		err := tx.ScanRow(ctx, sqlInsertUser, []any{user.Name, user.Email},
			&rec.ID, &rec.Name, &rec.Email)
		return r.store.Wrap("create user", err)
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// Update overwrites the name and email of an existing user. The existence
// check and the write are separate statements, so a concurrent delete can
// still turn a found user into ErrNotFound.
func (r *Repository) Update(ctx context.Context, id int64, user models.User) (*models.UserRecord, error) {
	rec := &models.UserRecord{}
	err := r.store.WithTx(ctx, "update user", func(tx *storage.Tx) error {
		if err := r.exists(ctx, tx, "update user", id); err != nil {
			return err
		}
		err := tx.ScanRow(ctx, sqlUpdateUser, []any{user.Name, user.Email, id},
			&rec.ID, &rec.Name, &rec.Email)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return r.store.Wrap("update user", err)
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// Delete removes a user by id
func (r *Repository) Delete(ctx context.Context, id int64) error {
	return r.store.WithTx(ctx, "delete user", func(tx *storage.Tx) error {
		if err := r.exists(ctx, tx, "delete user", id); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, sqlDeleteUser, id); err != nil {
			return r.store.Wrap("delete user", err)
		}
		return nil
	})
}

func (r *Repository) exists(ctx context.Context, tx *storage.Tx, op string, id int64) error {
	var found int64
	err := tx.ScanRow(ctx, sqlUserExists, []any{id}, &found)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return r.store.Wrap(op, err)
}
