package models

import "time"

// SubRecord is implemented by every per-member record kind. Assign stamps the
// server-owned identifiers, overriding anything decoded from a request body.
type SubRecord interface {
	RecordID() string
	OwnerID() string
	Assign(recordID, memberID string)
}

// AcademicBackground is one school attended by a member.
type AcademicBackground struct {
	AcademicRecordID string    `db:"academic_record_id" json:"academic_record_id"`
	MemberID         string    `db:"member_id" json:"member_id"`
	Period           string    `db:"period" json:"period" binding:"required,max=100"`
	School           string    `db:"school" json:"school" binding:"required,max=255"`
	Degree           string    `db:"degree" json:"degree" binding:"required,max=255"`
	Graduation       string    `db:"graduation" json:"graduation" binding:"required,max=50"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time `db:"updated_at" json:"updated_at"`
}

func (r *AcademicBackground) RecordID() string { return r.AcademicRecordID }
func (r *AcademicBackground) OwnerID() string { return r.MemberID }
func (r *AcademicBackground) Assign(recordID, memberID string) {
	r.AcademicRecordID, r.MemberID = recordID, memberID
}

// FamilyDetail is a relative of a member.
type FamilyDetail struct {
	FamilyMemberID string    `db:"family_member_id" json:"family_member_id"`
	MemberID       string    `db:"member_id" json:"member_id"`
	Relation       *string   `db:"relation" json:"relation" binding:"omitempty,max=100"`
	Name           string    `db:"name" json:"name" binding:"required,max=100"`
	Birthday       *Date     `db:"birthday" json:"birthday"`
	Blessing       string    `db:"blessing" json:"blessing" binding:"required,max=100"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

func (r *FamilyDetail) RecordID() string { return r.FamilyMemberID }
func (r *FamilyDetail) OwnerID() string { return r.MemberID }
func (r *FamilyDetail) Assign(recordID, memberID string) {
	r.FamilyMemberID, r.MemberID = recordID, memberID
}

// PublicMissionPost is a public office held by a member.
type PublicMissionPost struct {
	MissionID     string    `db:"mission_id" json:"mission_id"`
	MemberID      string    `db:"member_id" json:"member_id"`
	Period        *string   `db:"period" json:"period" binding:"omitempty,max=100"`
	Organization  *string   `db:"organization" json:"organization" binding:"omitempty,max=255"`
	FinalPosition *string   `db:"final_position" json:"final_position" binding:"omitempty,max=100"`
	Department    *string   `db:"department" json:"department" binding:"omitempty,max=100"`
	Description   *string   `db:"description" json:"description"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

func (r *PublicMissionPost) RecordID() string { return r.MissionID }
func (r *PublicMissionPost) OwnerID() string { return r.MemberID }
func (r *PublicMissionPost) Assign(recordID, memberID string) {
	r.MissionID, r.MemberID = recordID, memberID
}

// WorkExperience is a previous employment of a member.
type WorkExperience struct {
	ExperienceID     string    `db:"experience_id" json:"experience_id"`
	MemberID         string    `db:"member_id" json:"member_id"`
	Period           *string   `db:"period" json:"period" binding:"omitempty,max=100"`
	OrganizationName *string   `db:"organization_name" json:"organization_name" binding:"omitempty,max=255"`
	FinalPosition    *string   `db:"final_position" json:"final_position" binding:"omitempty,max=100"`
	Department       *string   `db:"department" json:"department" binding:"omitempty,max=100"`
	JobDescription   *string   `db:"job_description" json:"job_description"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time `db:"updated_at" json:"updated_at"`
}

func (r *WorkExperience) RecordID() string { return r.ExperienceID }
func (r *WorkExperience) OwnerID() string { return r.MemberID }
func (r *WorkExperience) Assign(recordID, memberID string) {
	r.ExperienceID, r.MemberID = recordID, memberID
}

// TrainingCourse is a course a member attended.
type TrainingCourse struct {
	TrainingID   string    `db:"training_id" json:"training_id"`
	MemberID     string    `db:"member_id" json:"member_id"`
	Type         *string   `db:"type" json:"type" binding:"omitempty,max=100"`
	NameOfCourse *string   `db:"name_of_course" json:"name_of_course" binding:"omitempty,max=255"`
	Period       *string   `db:"period" json:"period" binding:"omitempty,max=100"`
	Organization *string   `db:"organization" json:"organization" binding:"omitempty,max=255"`
	Status       *string   `db:"status" json:"status" binding:"omitempty,max=50"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

func (r *TrainingCourse) RecordID() string { return r.TrainingID }
func (r *TrainingCourse) OwnerID() string { return r.MemberID }
func (r *TrainingCourse) Assign(recordID, memberID string) {
	r.TrainingID, r.MemberID = recordID, memberID
}

// Qualification is a certificate or licence held by a member.
type Qualification struct {
	QualificationID   string    `db:"qualification_id" json:"qualification_id"`
	MemberID          string    `db:"member_id" json:"member_id"`
	DateAcquisition   *Date     `db:"date_acquisition" json:"date_acquisition"`
	NameQualification *string   `db:"name_qualification" json:"name_qualification" binding:"omitempty,max=255"`
	Remarks           *string   `db:"remarks" json:"remarks"`
	CreatedAt         time.Time `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time `db:"updated_at" json:"updated_at"`
}

func (r *Qualification) RecordID() string { return r.QualificationID }
func (r *Qualification) OwnerID() string { return r.MemberID }
func (r *Qualification) Assign(recordID, memberID string) {
	r.QualificationID, r.MemberID = recordID, memberID
}

// AwardsRecognition is an award granted to a member.
type AwardsRecognition struct {
	AwardID      string    `db:"award_id" json:"award_id"`
	MemberID     string    `db:"member_id" json:"member_id"`
	Date         *Date     `db:"date" json:"date"`
	Type         *string   `db:"type" json:"type" binding:"omitempty,max=100"`
	Description  *string   `db:"description" json:"description"`
	Organization *string   `db:"organization" json:"organization" binding:"omitempty,max=255"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

func (r *AwardsRecognition) RecordID() string { return r.AwardID }
func (r *AwardsRecognition) OwnerID() string { return r.MemberID }
func (r *AwardsRecognition) Assign(recordID, memberID string) {
	r.AwardID, r.MemberID = recordID, memberID
}

// DisciplinaryAction is a penalty imposed on a member.
type DisciplinaryAction struct {
	PenaltyID string    `db:"penalty_id" json:"penalty_id"`
	MemberID  string    `db:"member_id" json:"member_id"`
	Date      *Date     `db:"date" json:"date"`
	Reason    string    `db:"reason" json:"reason" binding:"required"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

func (r *DisciplinaryAction) RecordID() string { return r.PenaltyID }
func (r *DisciplinaryAction) OwnerID() string { return r.MemberID }
func (r *DisciplinaryAction) Assign(recordID, memberID string) {
	r.PenaltyID, r.MemberID = recordID, memberID
}

// SpecialNote is a free-form remark about a member.
type SpecialNote struct {
	NoteID      string    `db:"note_id" json:"note_id"`
	MemberID    string    `db:"member_id" json:"member_id"`
	DateWritten *Date     `db:"date_written" json:"date_written"`
	Details     *string   `db:"details" json:"details"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

func (r *SpecialNote) RecordID() string { return r.NoteID }
func (r *SpecialNote) OwnerID() string { return r.MemberID }
func (r *SpecialNote) Assign(recordID, memberID string) {
	r.NoteID, r.MemberID = recordID, memberID
}
