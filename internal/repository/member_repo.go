package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/memberdir/admin_api/internal/models"
)

const memberColumns = `member_id, profile_photo_url, full_name, region, nation, nationality, birthday,
	gender, department, organization, current_post, position, blessing, date_of_joining,
	email, phone_no, address, is_deleted, created_at, updated_at`

// MemberRepository provides data access methods for the members table.
// Every query ignores soft-deleted rows.
type MemberRepository struct {
	db *sqlx.DB
}

// NewMemberRepository creates a new MemberRepository.
func NewMemberRepository(db *sqlx.DB) *MemberRepository {
	return &MemberRepository{db: db}
}

// List returns one page of active members plus the total number of matches.
func (r *MemberRepository) List(ctx context.Context, filter models.MemberFilter) ([]*models.Member, int, error) {
	where := `WHERE is_deleted = FALSE AND full_name ILIKE $1 ESCAPE '\'`
	pattern := containsPattern(filter.Search)

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM members `+where, pattern); err != nil {
		return nil, 0, err
	}

	members := []*models.Member{}
	err := r.db.SelectContext(ctx, &members, `
		SELECT `+memberColumns+`
		FROM members `+where+`
		ORDER BY full_name ASC, member_id ASC
		LIMIT $2 OFFSET $3
	`, pattern, filter.Limit, filter.Offset())
	if err != nil {
		return nil, 0, err
	}
	return members, total, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern turns search into an ILIKE pattern matching it literally
// anywhere in the column. An empty search matches everything.
func containsPattern(search string) string {
	return "%" + likeEscaper.Replace(search) + "%"
}

// GetByID returns an active member.
func (r *MemberRepository) GetByID(ctx context.Context, memberID string) (*models.Member, error) {
	var m models.Member
	err := r.db.GetContext(ctx, &m, `
		SELECT `+memberColumns+`
		FROM members
		WHERE member_id = $1 AND is_deleted = FALSE
	`, memberID)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// Exists reports whether an active member with memberID exists.
func (r *MemberRepository) Exists(ctx context.Context, memberID string) (bool, error) {
	var ok bool
	err := r.db.GetContext(ctx, &ok, `
		SELECT EXISTS (SELECT 1 FROM members WHERE member_id = $1 AND is_deleted = FALSE)
	`, memberID)
	return ok, err
}

// CountActive returns the number of members that are not soft-deleted.
func (r *MemberRepository) CountActive(ctx context.Context) (int, error) {
	var n int
	err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM members WHERE is_deleted = FALSE`)
	return n, err
}

// Create inserts m.
func (r *MemberRepository) Create(ctx context.Context, m *models.Member) error {
	query := `
		INSERT INTO members (member_id, profile_photo_url, full_name, region, nation, nationality,
			birthday, gender, department, organization, current_post, position, blessing,
			date_of_joining, email, phone_no, address)
		VALUES (:member_id, :profile_photo_url, :full_name, :region, :nation, :nationality,
			:birthday, :gender, :department, :organization, :current_post, :position, :blessing,
			:date_of_joining, :email, :phone_no, :address)
		RETURNING created_at, updated_at
	`
	return namedReturning(ctx, r.db, query, m, &m.CreatedAt, &m.UpdatedAt)
}

// Update saves every mutable column of an active member.
func (r *MemberRepository) Update(ctx context.Context, m *models.Member) error {
	query := `
		UPDATE members SET
			profile_photo_url = :profile_photo_url, full_name = :full_name, region = :region,
			nation = :nation, nationality = :nationality, birthday = :birthday, gender = :gender,
			department = :department, organization = :organization, current_post = :current_post,
			position = :position, blessing = :blessing, date_of_joining = :date_of_joining,
			email = :email, phone_no = :phone_no, address = :address, updated_at = NOW()
		WHERE member_id = :member_id AND is_deleted = FALSE
		RETURNING updated_at
	`
	return namedReturning(ctx, r.db, query, m, &m.UpdatedAt)
}

// SetPhoto records the profile photo URL of an active member.
func (r *MemberRepository) SetPhoto(ctx context.Context, memberID, url string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE members SET profile_photo_url = $1, updated_at = NOW()
		WHERE member_id = $2 AND is_deleted = FALSE
	`, url, memberID)
	return expectAffected(res, err)
}

// SoftDelete flags an active member as deleted. Sub-records are kept.
func (r *MemberRepository) SoftDelete(ctx context.Context, memberID string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE members SET is_deleted = TRUE, updated_at = NOW()
		WHERE member_id = $1 AND is_deleted = FALSE
	`, memberID)
	return expectAffected(res, err)
}

// namedReturning runs a named query expected to return exactly one row and
// scans it into dest. It returns sql.ErrNoRows when nothing matched.
func namedReturning(ctx context.Context, db *sqlx.DB, query string, arg any, dest ...any) error {
	rows, err := db.NamedQueryContext(ctx, query, arg)
	if err != nil {
		return err
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return err
		}
		return sql.ErrNoRows
	}
	return rows.Scan(dest...)
}

// expectAffected converts a zero-row exec into sql.ErrNoRows.
func expectAffected(res sql.Result, err error) error {
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
