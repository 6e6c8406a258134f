package repository

import (
	"context"
	"fmt"
	"reflect"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/memberdir/admin_api/internal/models"
)

// SubRecordTable describes the table backing one per-member record kind.
// Columns lists the mutable columns; the id, member_id and timestamps are implied.
type SubRecordTable struct {
	Name     string
	IDColumn string
	Columns  []string
}

var (
	AcademicBackgrounds = SubRecordTable{
		Name: "academic_backgrounds", IDColumn: "academic_record_id",
		Columns: []string{"period", "school", "degree", "graduation"},
	}
	FamilyDetails = SubRecordTable{
		Name: "family_details", IDColumn: "family_member_id",
		Columns: []string{"relation", "name", "birthday", "blessing"},
	}
	PublicMissionPosts = SubRecordTable{
		Name: "public_mission_posts", IDColumn: "mission_id",
		Columns: []string{"period", "organization", "final_position", "department", "description"},
	}
	WorkExperiences = SubRecordTable{
		Name: "work_experiences", IDColumn: "experience_id",
		Columns: []string{"period", "organization_name", "final_position", "department", "job_description"},
	}
	TrainingCourses = SubRecordTable{
		Name: "training_courses", IDColumn: "training_id",
		Columns: []string{"type", "name_of_course", "period", "organization", "status"},
	}
	Qualifications = SubRecordTable{
		Name: "qualifications", IDColumn: "qualification_id",
		Columns: []string{"date_acquisition", "name_qualification", "remarks"},
	}
	AwardsRecognitions = SubRecordTable{
		Name: "awards_recognitions", IDColumn: "award_id",
		Columns: []string{"date", "type", "description", "organization"},
	}
	DisciplinaryActions = SubRecordTable{
		Name: "disciplinary_actions", IDColumn: "penalty_id",
		Columns: []string{"date", "reason"},
	}
	SpecialNotes = SubRecordTable{
		Name: "special_notes", IDColumn: "note_id",
		Columns: []string{"date_written", "details"},
	}
)

// SubRecordRepository provides data access for one record kind owned by a
// member. Reads and writes only match rows whose member is not soft-deleted.
type SubRecordRepository[T any, P interface {
	*T
	models.SubRecord
}] struct {
	db    *sqlx.DB
	table SubRecordTable

	selectSQL string
	insertSQL string
	updateSQL string
	deleteSQL string
}

// NewSubRecordRepository builds the repository and pre-renders its statements.
func NewSubRecordRepository[T any, P interface {
	*T
	models.SubRecord
}](db *sqlx.DB, table SubRecordTable) *SubRecordRepository[T, P] {
	r := &SubRecordRepository[T, P]{db: db, table: table}

	all := append([]string{table.IDColumn, "member_id"}, table.Columns...)
	selectCols := make([]string, 0, len(all)+2)
	for _, col := range append(all, "created_at", "updated_at") {
		selectCols = append(selectCols, "t."+quoteIdent(col))
	}
	insertCols := make([]string, len(all))
	insertVals := make([]string, len(all))
	for i, col := range all {
		insertCols[i] = quoteIdent(col)
		insertVals[i] = ":" + col
	}
	sets := make([]string, 0, len(table.Columns)+1)
	for _, col := range table.Columns {
		sets = append(sets, fmt.Sprintf("%s = :%s", quoteIdent(col), col))
	}
	sets = append(sets, "updated_at = NOW()")

	active := `EXISTS (SELECT 1 FROM members m WHERE m.member_id = t.member_id AND m.is_deleted = FALSE)`

	r.selectSQL = fmt.Sprintf(`SELECT %s FROM %s t WHERE t.member_id = $1 AND %s`,
		strings.Join(selectCols, ", "), table.Name, active)
	r.insertSQL = fmt.Sprintf(`INSERT INTO %s (%s) VALUES (%s) RETURNING created_at, updated_at`,
		table.Name, strings.Join(insertCols, ", "), strings.Join(insertVals, ", "))
	r.updateSQL = fmt.Sprintf(`UPDATE %s t SET %s WHERE t.%s = :%s AND t.member_id = :member_id AND %s RETURNING t.updated_at`,
		table.Name, strings.Join(sets, ", "), table.IDColumn, table.IDColumn, active)
	r.deleteSQL = fmt.Sprintf(`DELETE FROM %s t WHERE t.%s = $1 AND t.member_id = $2 AND %s`,
		table.Name, table.IDColumn, active)
	return r
}

// Table returns the table description.
func (r *SubRecordRepository[T, P]) Table() SubRecordTable {
	return r.table
}

// List returns every record of memberID, oldest first.
func (r *SubRecordRepository[T, P]) List(ctx context.Context, memberID string) ([]T, error) {
	records := []T{}
	err := r.db.SelectContext(ctx, &records, r.selectSQL+` ORDER BY t.created_at ASC`, memberID)
	return records, err
}

// Get returns the record recordID owned by memberID.
func (r *SubRecordRepository[T, P]) Get(ctx context.Context, memberID, recordID string) (*T, error) {
	var rec T
	err := r.db.GetContext(ctx, &rec, r.selectSQL+fmt.Sprintf(` AND t.%s = $2`, r.table.IDColumn), memberID, recordID)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// Create inserts rec; its identifiers must already be assigned.
func (r *SubRecordRepository[T, P]) Create(ctx context.Context, rec *T) error {
	p := P(rec)
	if p.RecordID() == "" {
		return fmt.Errorf("%s: record id not assigned", r.table.Name)
	}
	created, updated := r.timestamps(rec)
	return namedReturning(ctx, r.db, r.insertSQL, rec, created, updated)
}

// Update saves the mutable columns of rec. It returns sql.ErrNoRows when the
// record does not belong to an active member.
func (r *SubRecordRepository[T, P]) Update(ctx context.Context, rec *T) error {
	_, updated := r.timestamps(rec)
	return namedReturning(ctx, r.db, r.updateSQL, rec, updated)
}

// Delete removes the record recordID owned by memberID.
func (r *SubRecordRepository[T, P]) Delete(ctx context.Context, memberID, recordID string) error {
	res, err := r.db.ExecContext(ctx, r.deleteSQL, recordID, memberID)
	return expectAffected(res, err)
}

// timestamps returns scan targets for the record's created_at and updated_at
// fields, resolved through the db tag mapper.
func (r *SubRecordRepository[T, P]) timestamps(rec *T) (any, any) {
	v := reflect.ValueOf(rec).Elem()
	created := r.db.Mapper.FieldByName(v, "created_at")
	updated := r.db.Mapper.FieldByName(v, "updated_at")
	return created.Addr().Interface(), updated.Addr().Interface()
}

// quoteIdent quotes column names such as "type" and "date" that collide with
// SQL keywords.
func quoteIdent(col string) string {
	return `"` + col + `"`
}
