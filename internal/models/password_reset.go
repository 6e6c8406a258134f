package models

import "time"

// OTPTTL is how long a password reset code stays valid after issuance.
const OTPTTL = 10 * time.Minute

// PasswordResetOTP is a one-time code authorizing a password reset.
type PasswordResetOTP struct {
	ID        int64     `db:"id"`
	AccountID string    `db:"account_id"`
	Code      string    `db:"code"`
	Used      bool      `db:"used"`
	CreatedAt time.Time `db:"created_at"`
}

// Expired reports whether the code has reached its TTL at now.
// A code exactly OTPTTL old is expired.
func (o *PasswordResetOTP) Expired(now time.Time) bool {
	return now.Sub(o.CreatedAt) >= OTPTTL
}
