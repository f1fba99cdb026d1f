package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"daybook/internal/models"
)

type OTPRepository interface {
	Create(email, codeHash string, expiresAt time.Time) (int64, error)
	DeleteByEmail(email string) error
	GetLatestByEmail(email string) (*models.OTPCode, error)
	Consume(id int64) (bool, error)
}

type otpRepository struct {
	DB *sql.DB
}

func NewOTPRepository(db *sql.DB) OTPRepository {
	return &otpRepository{DB: db}
}

func (r *otpRepository) Create(email, codeHash string, expiresAt time.Time) (int64, error) {
	const q = `
		INSERT INTO otp_codes (email, code_hash, expires_at, consumed)
		VALUES ($1, $2, $3, FALSE)
		RETURNING id
	`
	var id int64
	if err := r.DB.QueryRow(q, email, codeHash, expiresAt).Scan(&id); err != nil {
		return 0, fmt.Errorf("otp create: %w", err)
	}
	return id, nil
}

// DeleteByEmail drops every outstanding code for the email, expired or not.
// Called before issuing a new one so at most one live code exists per email.
func (r *otpRepository) DeleteByEmail(email string) error {
	if _, err := r.DB.Exec(`DELETE FROM otp_codes WHERE email=$1`, email); err != nil {
		return fmt.Errorf("otp delete by email: %w", err)
	}
	return nil
}

func (r *otpRepository) GetLatestByEmail(email string) (*models.OTPCode, error) {
	const q = `
		SELECT id, email, code_hash, expires_at, consumed, created_at
		FROM otp_codes
		WHERE email = $1
		ORDER BY created_at DESC
		LIMIT 1
	`
	var c models.OTPCode
	err := r.DB.QueryRow(q, email).Scan(
		&c.ID, &c.Email, &c.CodeHash, &c.ExpiresAt, &c.Consumed, &c.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("otp latest: %w", err)
	}
	return &c, nil
}

// Consume flips the consumed flag only if it is still unset. The WHERE
// condition is the serialization point: of two concurrent verifications of
// the same code exactly one sees rows=1.
func (r *otpRepository) Consume(id int64) (bool, error) {
	res, err := r.DB.Exec(`UPDATE otp_codes SET consumed=TRUE WHERE id=$1 AND consumed=FALSE`, id)
	if err != nil {
		return false, fmt.Errorf("otp consume: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("otp consume rows: %w", err)
	}
	return n == 1, nil
}
