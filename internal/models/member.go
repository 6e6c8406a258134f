package models

import "time"

const (
	GenderMale   = "Male"
	GenderFemale = "Female"
)

// Member is a person listed in the directory. Members are soft-deleted via
// IsDeleted and are invisible to every read once the flag is set.
type Member struct {
	MemberID        string    `db:"member_id" json:"member_id"`
	ProfilePhotoURL *string   `db:"profile_photo_url" json:"profile_photo_url"`
	FullName        string    `db:"full_name" json:"full_name" binding:"required,max=100"`
	Region          string    `db:"region" json:"region" binding:"required,max=100"`
	Nation          string    `db:"nation" json:"nation" binding:"required,max=100"`
	Nationality     string    `db:"nationality" json:"nationality" binding:"required,max=100"`
	Birthday        *Date     `db:"birthday" json:"birthday"`
	Gender          string    `db:"gender" json:"gender" binding:"required,oneof=Male Female"`
	Department      *string   `db:"department" json:"department" binding:"omitempty,max=100"`
	Organization    *string   `db:"organization" json:"organization" binding:"omitempty,max=255"`
	CurrentPost     *string   `db:"current_post" json:"current_post" binding:"omitempty,max=100"`
	Position        *string   `db:"position" json:"position" binding:"omitempty,max=100"`
	Blessing        string    `db:"blessing" json:"blessing" binding:"required,max=100"`
	DateOfJoining   *Date     `db:"date_of_joining" json:"date_of_joining" binding:"required"`
	Email           string    `db:"email" json:"email" binding:"required,email,max=100"`
	PhoneNo         string    `db:"phone_no" json:"phone_no" binding:"required,max=20"`
	Address         string    `db:"address" json:"address" binding:"required"`
	IsDeleted       bool      `db:"is_deleted" json:"-"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}

// MemberFilter narrows member listings.
type MemberFilter struct {
	Search string
	Page   int
	Limit  int
}

// Offset returns the row offset for the filter's page.
func (f MemberFilter) Offset() int {
	if f.Page <= 1 {
		return 0
	}
	return (f.Page - 1) * f.Limit
}
