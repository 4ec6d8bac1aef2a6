package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/bus-seat-reservation/internal/model"
)

// UserRepo provides data access to the users table.
type UserRepo struct {
	db *sql.DB
}

// NewUserRepo returns a new UserRepo bound to the provided database.
func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{db: db} }

// Create inserts a new user. On success the user's ID is populated.
// When the email is already registered it returns ErrEmailTaken; the
// uniqueness check is done up front rather than by parsing driver
// errors, matching how signup reports the conflict to the client.
func (r *UserRepo) Create(ctx context.Context, u *model.User) error {
	var exists uint64
	err := r.db.QueryRowContext(ctx,
		`SELECT id FROM users WHERE email = ?`, u.Email,
	).Scan(&exists)
	switch {
	case err == nil:
		return ErrEmailTaken
	case !errors.Is(err, sql.ErrNoRows):
		return err
	}
	const q = `INSERT INTO users (username, email, password, is_admin) VALUES (?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, u.Username, u.Email, u.Password, u.IsAdmin)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	u.ID = uint64(id)
	return nil
}

// GetByEmail retrieves a user by email address for login.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	const q = `SELECT id, username, email, password, gender, age, phone_number, is_admin
	           FROM users WHERE email = ?`
	var u model.User
	err := r.db.QueryRowContext(ctx, q, email).
		Scan(&u.ID, &u.Username, &u.Email, &u.Password, &u.Gender, &u.Age, &u.PhoneNumber, &u.IsAdmin)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}

// GetByID retrieves a user by primary key.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (*model.User, error) {
	const q = `SELECT id, username, email, password, gender, age, phone_number, is_admin
	           FROM users WHERE id = ?`
	var u model.User
	err := r.db.QueryRowContext(ctx, q, id).
		Scan(&u.ID, &u.Username, &u.Email, &u.Password, &u.Gender, &u.Age, &u.PhoneNumber, &u.IsAdmin)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}

// UpdateContactTx stores the passenger details collected at booking time
// on the user row, within the booking transaction so a rolled-back
// booking does not leave half-updated contact data.
func (r *UserRepo) UpdateContactTx(ctx context.Context, tx *sql.Tx, userID uint64, gender string, age uint32, phone string) error {
	const q = `UPDATE users SET gender = ?, age = ?, phone_number = ? WHERE id = ?`
	_, err := tx.ExecContext(ctx, q, gender, age, phone, userID)
	return err
}
