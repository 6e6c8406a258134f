// Package testutil provides in-memory stand-ins for the Postgres repositories
// and external services. A single mutex plays the role of the database's
// transactions and row locks.
package testutil

import (
	"context"
	"database/sql"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/memberdir/admin_api/internal/models"
	"github.com/memberdir/admin_api/internal/repository"
)

// DB is the shared in-memory state behind the fake stores.
type DB struct {
	mu        sync.Mutex
	accounts  map[string]*models.AdminAccount
	otps      []*models.PasswordResetOTP
	nextOTPID int64
	members   map[string]*models.Member

	// LookupErr, when set, is returned by every account lookup.
	LookupErr error
	// Now stamps created_at and updated_at.
	Now func() time.Time
}

// NewDB returns an empty DB.
func NewDB() *DB {
	return &DB{
		accounts: map[string]*models.AdminAccount{},
		members:  map[string]*models.Member{},
		Now:      time.Now,
	}
}

// SeedAccount stores a copy of account.
func (d *DB) SeedAccount(account *models.AdminAccount) {
	d.mu.Lock()
	defer d.mu.Unlock()
	cp := *account
	d.accounts[cp.AccountID] = &cp
}

// SeedMember stores a copy of m.
func (d *DB) SeedMember(m *models.Member) {
	d.mu.Lock()
	defer d.mu.Unlock()
	cp := *m
	d.members[cp.MemberID] = &cp
}

// Account returns a copy of the stored account, or nil.
func (d *DB) Account(accountID string) *models.AdminAccount {
	d.mu.Lock()
	defer d.mu.Unlock()
	a, ok := d.accounts[accountID]
	if !ok {
		return nil
	}
	cp := *a
	return &cp
}

// OTPs returns copies of every reset code of accountID in insertion order.
func (d *DB) OTPs(accountID string) []models.PasswordResetOTP {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []models.PasswordResetOTP
	for _, o := range d.otps {
		if o.AccountID == accountID {
			out = append(out, *o)
		}
	}
	return out
}

// Member returns a copy of the stored member including soft-deleted ones, or nil.
func (d *DB) Member(memberID string) *models.Member {
	d.mu.Lock()
	defer d.mu.Unlock()
	m, ok := d.members[memberID]
	if !ok {
		return nil
	}
	cp := *m
	return &cp
}

// Accounts returns an AccountStore over d.
func (d *DB) Accounts() *AccountStore { return &AccountStore{db: d} }

// Resets returns a ResetStore over d.
func (d *DB) Resets() *ResetStore { return &ResetStore{db: d} }

// Members returns a MemberStore over d.
func (d *DB) Members() *MemberStore { return &MemberStore{db: d} }

// AccountStore is an in-memory AdminAccountRepository.
type AccountStore struct{ db *DB }

func (s *AccountStore) GetByEmail(_ context.Context, email string) (*models.AdminAccount, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if s.db.LookupErr != nil {
		return nil, s.db.LookupErr
	}
	for _, a := range s.db.accounts {
		if strings.EqualFold(a.Email, email) {
			cp := *a
			return &cp, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *AccountStore) GetByID(_ context.Context, accountID string) (*models.AdminAccount, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if s.db.LookupErr != nil {
		return nil, s.db.LookupErr
	}
	a, ok := s.db.accounts[accountID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *a
	return &cp, nil
}

func (s *AccountStore) List(_ context.Context) ([]*models.AdminAccount, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	out := make([]*models.AdminAccount, 0, len(s.db.accounts))
	for _, a := range s.db.accounts {
		cp := *a
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	return out, nil
}

func (s *AccountStore) Count(_ context.Context) (int, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	return len(s.db.accounts), nil
}

func (s *AccountStore) Create(_ context.Context, account *models.AdminAccount) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for _, a := range s.db.accounts {
		if strings.EqualFold(a.Email, account.Email) {
			return repository.ErrDuplicate
		}
	}
	now := s.db.Now()
	account.CreatedAt, account.UpdatedAt = now, now
	cp := *account
	s.db.accounts[cp.AccountID] = &cp
	return nil
}

func (s *AccountStore) UpdateProfile(_ context.Context, account *models.AdminAccount) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	a, ok := s.db.accounts[account.AccountID]
	if !ok {
		return sql.ErrNoRows
	}
	a.Name, a.ImgPath = account.Name, account.ImgPath
	a.UpdatedAt = s.db.Now()
	account.UpdatedAt = a.UpdatedAt
	return nil
}

// ResetStore is an in-memory PasswordResetRepository.
type ResetStore struct{ db *DB }

func (s *ResetStore) Issue(ctx context.Context, otp *models.PasswordResetOTP, deliver func(context.Context) error) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if _, ok := s.db.accounts[otp.AccountID]; !ok {
		return sql.ErrNoRows
	}

	before := s.db.otps
	kept := make([]*models.PasswordResetOTP, 0, len(before)+1)
	for _, o := range before {
		if o.AccountID == otp.AccountID && !o.Used {
			continue
		}
		kept = append(kept, o)
	}
	s.db.nextOTPID++
	otp.ID = s.db.nextOTPID
	cp := *otp
	s.db.otps = append(kept, &cp)

	if err := deliver(ctx); err != nil {
		s.db.otps = before
		return err
	}
	return nil
}

func (s *ResetStore) Revoke(_ context.Context, accountID string) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if _, ok := s.db.accounts[accountID]; !ok {
		return sql.ErrNoRows
	}
	kept := s.db.otps[:0:0]
	for _, o := range s.db.otps {
		if o.AccountID == accountID && !o.Used {
			continue
		}
		kept = append(kept, o)
	}
	s.db.otps = kept
	return nil
}

func (s *ResetStore) FindUnused(_ context.Context, accountID, code string) (*models.PasswordResetOTP, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	o := s.db.findUnused(accountID, code)
	if o == nil {
		return nil, sql.ErrNoRows
	}
	cp := *o
	return &cp, nil
}

func (s *ResetStore) Consume(_ context.Context, accountID, code, passwordHash string, check func(*models.PasswordResetOTP) error) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	account, ok := s.db.accounts[accountID]
	if !ok {
		return sql.ErrNoRows
	}
	o := s.db.findUnused(accountID, code)
	if o == nil {
		return sql.ErrNoRows
	}
	cp := *o
	if err := check(&cp); err != nil {
		return err
	}

	account.PasswordHash = passwordHash
	account.UpdatedAt = s.db.Now()
	o.Used = true

	kept := s.db.otps[:0:0]
	for _, x := range s.db.otps {
		if x.AccountID != accountID {
			kept = append(kept, x)
		}
	}
	s.db.otps = kept
	return nil
}

// findUnused returns the newest unused code. Callers hold mu.
func (d *DB) findUnused(accountID, code string) *models.PasswordResetOTP {
	var found *models.PasswordResetOTP
	for _, o := range d.otps {
		if o.AccountID == accountID && o.Code == code && !o.Used {
			if found == nil || !o.CreatedAt.Before(found.CreatedAt) {
				found = o
			}
		}
	}
	return found
}

// MemberStore is an in-memory MemberRepository.
type MemberStore struct{ db *DB }

func (s *MemberStore) List(_ context.Context, filter models.MemberFilter) ([]*models.Member, int, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	var matched []*models.Member
	for _, m := range s.db.members {
		if m.IsDeleted {
			continue
		}
		if filter.Search != "" && !strings.Contains(strings.ToLower(m.FullName), strings.ToLower(filter.Search)) {
			continue
		}
		cp := *m
		matched = append(matched, &cp)
	}
	sort.Slice(matched, func(i, j int) bool {
		if matched[i].FullName != matched[j].FullName {
			return matched[i].FullName < matched[j].FullName
		}
		return matched[i].MemberID < matched[j].MemberID
	})

	total := len(matched)
	start := filter.Offset()
	if start > total {
		start = total
	}
	end := start + filter.Limit
	if end > total {
		end = total
	}
	return append([]*models.Member{}, matched[start:end]...), total, nil
}

func (s *MemberStore) GetByID(_ context.Context, memberID string) (*models.Member, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	m := s.db.activeMember(memberID)
	if m == nil {
		return nil, sql.ErrNoRows
	}
	cp := *m
	return &cp, nil
}

func (s *MemberStore) Exists(_ context.Context, memberID string) (bool, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	return s.db.activeMember(memberID) != nil, nil
}

func (s *MemberStore) CountActive(_ context.Context) (int, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	n := 0
	for _, m := range s.db.members {
		if !m.IsDeleted {
			n++
		}
	}
	return n, nil
}

func (s *MemberStore) Create(_ context.Context, m *models.Member) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	now := s.db.Now()
	m.CreatedAt, m.UpdatedAt = now, now
	cp := *m
	s.db.members[cp.MemberID] = &cp
	return nil
}

func (s *MemberStore) Update(_ context.Context, m *models.Member) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	existing := s.db.activeMember(m.MemberID)
	if existing == nil {
		return sql.ErrNoRows
	}
	m.CreatedAt = existing.CreatedAt
	m.UpdatedAt = s.db.Now()
	m.IsDeleted = false
	cp := *m
	s.db.members[cp.MemberID] = &cp
	return nil
}

func (s *MemberStore) SetPhoto(_ context.Context, memberID, url string) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	m := s.db.activeMember(memberID)
	if m == nil {
		return sql.ErrNoRows
	}
	m.ProfilePhotoURL = &url
	return nil
}

func (s *MemberStore) SoftDelete(_ context.Context, memberID string) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	m := s.db.activeMember(memberID)
	if m == nil {
		return sql.ErrNoRows
	}
	m.IsDeleted = true
	return nil
}

// activeMember returns the stored member unless it is missing or soft-deleted.
// Callers hold mu.
func (d *DB) activeMember(memberID string) *models.Member {
	m, ok := d.members[memberID]
	if !ok || m.IsDeleted {
		return nil
	}
	return m
}
