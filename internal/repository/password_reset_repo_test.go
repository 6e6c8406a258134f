package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/memberdir/admin_api/internal/models"
)

var (
	lockAccountSQL    = regexp.QuoteMeta(`SELECT account_id FROM admin_accounts WHERE account_id = $1 FOR UPDATE`)
	deleteUnusedSQL   = regexp.QuoteMeta(`DELETE FROM password_reset_otps WHERE account_id = $1 AND used = FALSE`)
	insertCodeSQL     = regexp.QuoteMeta(`INSERT INTO password_reset_otps (account_id, code, used, created_at)`)
	selectUnusedSQL   = regexp.QuoteMeta(`FROM password_reset_otps WHERE account_id = $1 AND code = $2 AND used = FALSE`)
	updatePasswordSQL = regexp.QuoteMeta(`UPDATE admin_accounts SET password_hash = $1, updated_at = NOW() WHERE account_id = $2`)
	markUsedSQL       = regexp.QuoteMeta(`UPDATE password_reset_otps SET used = TRUE WHERE id = $1`)
	deleteAllSQL      = regexp.QuoteMeta(`DELETE FROM password_reset_otps WHERE account_id = $1`) + `\s*$`
)

func newResetRepo(t *testing.T) (*PasswordResetRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewPasswordResetRepository(sqlx.NewDb(db, "postgres")), mock
}

func expectLock(mock sqlmock.Sqlmock, accountID string) {
	mock.ExpectBegin()
	mock.ExpectQuery(lockAccountSQL).WithArgs(accountID).
		WillReturnRows(sqlmock.NewRows([]string{"account_id"}).AddRow(accountID))
}

func TestIssueStatementOrder(t *testing.T) {
	repo, mock := newResetRepo(t)
	created := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	expectLock(mock, "a-1")
	mock.ExpectExec(deleteUnusedSQL).WithArgs("a-1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(insertCodeSQL).WithArgs("a-1", "123456", created).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(7)))
	mock.ExpectCommit()

	otp := &models.PasswordResetOTP{AccountID: "a-1", Code: "123456", CreatedAt: created}
	var deliveredID int64
	err := repo.Issue(context.Background(), otp, func(context.Context) error {
		deliveredID = otp.ID
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, int64(7), deliveredID, "delivery runs after the insert, inside the transaction")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIssueRollsBackWhenDeliveryFails(t *testing.T) {
	repo, mock := newResetRepo(t)
	sendErr := errors.New("smtp down")

	expectLock(mock, "a-1")
	mock.ExpectExec(deleteUnusedSQL).WithArgs("a-1").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(insertCodeSQL).WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(8)))
	mock.ExpectRollback()

	otp := &models.PasswordResetOTP{AccountID: "a-1", Code: "654321", CreatedAt: time.Now()}
	err := repo.Issue(context.Background(), otp, func(context.Context) error { return sendErr })
	assert.ErrorIs(t, err, sendErr)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIssueUnknownAccount(t *testing.T) {
	repo, mock := newResetRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery(lockAccountSQL).WithArgs("ghost").WillReturnRows(sqlmock.NewRows([]string{"account_id"}))
	mock.ExpectRollback()

	otp := &models.PasswordResetOTP{AccountID: "ghost", Code: "123456", CreatedAt: time.Now()}
	err := repo.Issue(context.Background(), otp, func(context.Context) error {
		t.Fatal("nothing is delivered for a missing account")
		return nil
	})
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRevokeStatementOrder(t *testing.T) {
	repo, mock := newResetRepo(t)

	expectLock(mock, "a-1")
	mock.ExpectExec(deleteUnusedSQL).WithArgs("a-1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.Revoke(context.Background(), "a-1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func codeRow(id int64, created time.Time) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "account_id", "code", "used", "created_at"}).
		AddRow(id, "a-1", "123456", false, created)
}

func TestConsumeStatementOrder(t *testing.T) {
	repo, mock := newResetRepo(t)
	created := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	expectLock(mock, "a-1")
	mock.ExpectQuery(selectUnusedSQL).WithArgs("a-1", "123456").WillReturnRows(codeRow(7, created))
	mock.ExpectExec(updatePasswordSQL).WithArgs("new-hash", "a-1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(markUsedSQL).WithArgs(int64(7)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(deleteAllSQL).WithArgs("a-1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	var checked *models.PasswordResetOTP
	err := repo.Consume(context.Background(), "a-1", "123456", "new-hash", func(otp *models.PasswordResetOTP) error {
		checked = otp
		return nil
	})
	require.NoError(t, err)
	require.NotNil(t, checked)
	assert.Equal(t, int64(7), checked.ID)
	assert.True(t, created.Equal(checked.CreatedAt))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConsumeCheckFailureWritesNothing(t *testing.T) {
	repo, mock := newResetRepo(t)
	expired := errors.New("expired")

	expectLock(mock, "a-1")
	mock.ExpectQuery(selectUnusedSQL).WithArgs("a-1", "123456").WillReturnRows(codeRow(7, time.Now()))
	mock.ExpectRollback()

	err := repo.Consume(context.Background(), "a-1", "123456", "new-hash", func(*models.PasswordResetOTP) error {
		return expired
	})
	assert.ErrorIs(t, err, expired)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConsumeMissingCode(t *testing.T) {
	repo, mock := newResetRepo(t)

	expectLock(mock, "a-1")
	mock.ExpectQuery(selectUnusedSQL).WithArgs("a-1", "999999").
		WillReturnRows(sqlmock.NewRows([]string{"id", "account_id", "code", "used", "created_at"}))
	mock.ExpectRollback()

	err := repo.Consume(context.Background(), "a-1", "999999", "new-hash", func(*models.PasswordResetOTP) error {
		t.Fatal("check runs only for a stored code")
		return nil
	})
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}
