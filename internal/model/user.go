package model

import "time"

// User is the persisted identity record. RefreshToken and RefreshTokenExpiry
// are either both set (an outstanding session) or both nil.
type User struct {
	ID                 int64
	LoginID            string
	PasswordHash       string
	Name               string
	Email              string
	Phone              string
	Role               string
	RefreshToken       *string
	RefreshTokenExpiry *time.Time
	CreatedAt          time.Time
	UpdatedAt          time.Time
}
