package service

import (
	"context"
	"fmt"

	"github.com/memberdir/admin_api/internal/models"
)

// Dashboard summarizes the directory for the signed-in account.
type Dashboard struct {
	Greeting      string `json:"greeting"`
	ActiveMembers int    `json:"active_members"`
	AdminAccounts int    `json:"admin_accounts"`
}

// DashboardService builds the dashboard.
type DashboardService struct {
	accounts AccountStore
	members  MemberStore
}

// NewDashboardService creates a DashboardService.
func NewDashboardService(accounts AccountStore, members MemberStore) *DashboardService {
	return &DashboardService{accounts: accounts, members: members}
}

// Summary returns the dashboard for account.
func (s *DashboardService) Summary(ctx context.Context, account *models.AdminAccount) (*Dashboard, error) {
	members, err := s.members.CountActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("count members: %w", err)
	}
	accounts, err := s.accounts.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count accounts: %w", err)
	}
	return &Dashboard{
		Greeting:      fmt.Sprintf("Hello, %s", account.Name),
		ActiveMembers: members,
		AdminAccounts: accounts,
	}, nil
}
