package repositories

import (
	"database/sql"
	"fmt"

	"daybook/internal/models"
)

type UserRepository interface {
	Create(user *models.User) error
	GetByID(id int) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
	GetByGoogleID(googleID string) (*models.User, error)
	AttachGoogleID(userID int, googleID string) error
	MarkVerified(userID int) error
}

type userRepository struct {
	DB *sql.DB
}

func NewUserRepository(db *sql.DB) UserRepository {
	return &userRepository{DB: db}
}

func (r *userRepository) Create(user *models.User) error {
	const q = `
		INSERT INTO users (email, password_hash, google_id, is_verified)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`
	err := r.DB.QueryRow(q,
		user.Email,
		user.PasswordHash,
		user.GoogleID,
		user.IsVerified,
	).Scan(&user.ID, &user.CreatedAt)
	if err != nil {
		return fmt.Errorf("user create: %w", err)
	}
	return nil
}

func (r *userRepository) GetByID(id int) (*models.User, error) {
	return r.getOne(`WHERE id = $1`, id)
}

func (r *userRepository) GetByEmail(email string) (*models.User, error) {
	return r.getOne(`WHERE email = $1`, email)
}

func (r *userRepository) GetByGoogleID(googleID string) (*models.User, error) {
	return r.getOne(`WHERE google_id = $1`, googleID)
}

// getOne returns (nil, nil) when no user matches; callers treat absence as
// a business condition, not an error.
func (r *userRepository) getOne(where string, arg interface{}) (*models.User, error) {
	q := `
		SELECT id, email, password_hash, google_id, is_verified, created_at
		FROM users
	` + where

	u := &models.User{}
	var (
		passwordHash sql.NullString
		googleID     sql.NullString
	)
	err := r.DB.QueryRow(q, arg).Scan(
		&u.ID, &u.Email, &passwordHash, &googleID, &u.IsVerified, &u.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("user lookup: %w", err)
	}
	if passwordHash.Valid {
		s := passwordHash.String
		u.PasswordHash = &s
	}
	if googleID.Valid {
		s := googleID.String
		u.GoogleID = &s
	}
	return u, nil
}

func (r *userRepository) AttachGoogleID(userID int, googleID string) error {
	const q = `
		UPDATE users
		SET google_id=$1, is_verified=TRUE
		WHERE id=$2
	`
	if _, err := r.DB.Exec(q, googleID, userID); err != nil {
		return fmt.Errorf("user attach google id: %w", err)
	}
	return nil
}

func (r *userRepository) MarkVerified(userID int) error {
	if _, err := r.DB.Exec(`UPDATE users SET is_verified=TRUE WHERE id=$1`, userID); err != nil {
		return fmt.Errorf("user mark verified: %w", err)
	}
	return nil
}
