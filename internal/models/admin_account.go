package models

import "time"

// AdminAccount represents an operator of the member directory.
type AdminAccount struct {
	AccountID    string    `db:"account_id" json:"account_id"`
	Email        string    `db:"email" json:"email"`
	Name         string    `db:"name" json:"name"`
	PasswordHash string    `db:"password_hash" json:"-"`
	ImgPath      *string   `db:"img_path" json:"img_path"`
	Role         Role      `db:"role" json:"role"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// AccountSummary is the public view of an AdminAccount.
type AccountSummary struct {
	AccountID string  `json:"account_id"`
	Email     string  `json:"email"`
	Name      string  `json:"name"`
	ImgPath   *string `json:"img_path"`
	Role      Role    `json:"role"`
}

// Summary strips credentials and bookkeeping fields.
func (a *AdminAccount) Summary() AccountSummary {
	return AccountSummary{
		AccountID: a.AccountID,
		Email:     a.Email,
		Name:      a.Name,
		ImgPath:   a.ImgPath,
		Role:      a.Role,
	}
}
