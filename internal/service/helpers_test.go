package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/memberdir/admin_api/internal/models"
	"github.com/memberdir/admin_api/internal/testutil"
)

const testSecret = "test-secret"

var epoch = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func seedAccount(t *testing.T, db *testutil.DB, id, email, password string, role models.Role) *models.AdminAccount {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	account := &models.AdminAccount{
		AccountID:    id,
		Email:        email,
		Name:         "Operator " + id,
		PasswordHash: string(hash),
		Role:         role,
		CreatedAt:    epoch,
		UpdatedAt:    epoch,
	}
	db.SeedAccount(account)
	return account
}

func passwordMatches(account *models.AdminAccount, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)) == nil
}

func seedMember(db *testutil.DB, id, name string) *models.Member {
	joined := models.NewDate(2020, time.January, 15)
	m := &models.Member{
		MemberID:      id,
		FullName:      name,
		Region:        "North",
		Nation:        "Korea",
		Nationality:   "Korean",
		Gender:        models.GenderFemale,
		Blessing:      "1982",
		DateOfJoining: &joined,
		Email:         id + "@example.org",
		PhoneNo:       "010-0000-0000",
		Address:       "1 Main St",
		CreatedAt:     epoch,
		UpdatedAt:     epoch,
	}
	db.SeedMember(m)
	return m
}
