package models

import "time"

// OTPCode is one row per issued code. Only the bcrypt hash of the code is
// stored; a new request for the same email supersedes (deletes) older rows,
// so at most one live code per email exists. Consumed rows stay in place so
// a code can never validate twice.
type OTPCode struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	CodeHash  string    `json:"-"`
	ExpiresAt time.Time `json:"expires_at"`
	Consumed  bool      `json:"consumed"`
	CreatedAt time.Time `json:"created_at"`
}

func (o *OTPCode) Expired(now time.Time) bool {
	return now.After(o.ExpiresAt)
}
