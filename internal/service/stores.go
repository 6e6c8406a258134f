package service

import (
	"context"
	"io"
	"time"

	"github.com/memberdir/admin_api/internal/models"
)

// AccountStore is the credential store backing accounts and tokens.
type AccountStore interface {
	GetByEmail(ctx context.Context, email string) (*models.AdminAccount, error)
	GetByID(ctx context.Context, accountID string) (*models.AdminAccount, error)
	List(ctx context.Context) ([]*models.AdminAccount, error)
	Count(ctx context.Context) (int, error)
	Create(ctx context.Context, account *models.AdminAccount) error
	UpdateProfile(ctx context.Context, account *models.AdminAccount) error
}

// ResetStore persists password reset codes. Issue, Revoke and Consume are
// atomic per account.
type ResetStore interface {
	Issue(ctx context.Context, otp *models.PasswordResetOTP, deliver func(context.Context) error) error
	Revoke(ctx context.Context, accountID string) error
	FindUnused(ctx context.Context, accountID, code string) (*models.PasswordResetOTP, error)
	Consume(ctx context.Context, accountID, code, passwordHash string, check func(*models.PasswordResetOTP) error) error
}

// MemberStore is the directory store for members.
type MemberStore interface {
	List(ctx context.Context, filter models.MemberFilter) ([]*models.Member, int, error)
	GetByID(ctx context.Context, memberID string) (*models.Member, error)
	Exists(ctx context.Context, memberID string) (bool, error)
	CountActive(ctx context.Context) (int, error)
	Create(ctx context.Context, m *models.Member) error
	Update(ctx context.Context, m *models.Member) error
	SetPhoto(ctx context.Context, memberID, url string) error
	SoftDelete(ctx context.Context, memberID string) error
}

// SubRecordStore is the directory store for one per-member record kind.
type SubRecordStore[T any] interface {
	List(ctx context.Context, memberID string) ([]T, error)
	Get(ctx context.Context, memberID, recordID string) (*T, error)
	Create(ctx context.Context, rec *T) error
	Update(ctx context.Context, rec *T) error
	Delete(ctx context.Context, memberID, recordID string) error
}

// Notifier delivers password reset codes.
type Notifier interface {
	SendResetCode(ctx context.Context, email, code string) error
}

// ResetThrottle rate limits reset emails per address. Release ends the
// cooldown started by a successful Allow.
type ResetThrottle interface {
	Allow(ctx context.Context, email string) (bool, error)
	Release(ctx context.Context, email string) error
}

// PhotoStore saves member photos and returns their public URL.
type PhotoStore interface {
	PutMemberPhoto(ctx context.Context, memberID, contentType string, body io.Reader, size int64) (string, error)
}

// Clock returns the current time.
type Clock func() time.Time
