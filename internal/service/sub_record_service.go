package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/memberdir/admin_api/internal/models"
	"github.com/memberdir/admin_api/internal/utils"
)

// SubRecordService manages one kind of per-member record. Every operation
// fails with ErrMemberNotFound when the owning member is absent or
// soft-deleted.
type SubRecordService[T any, P interface {
	*T
	models.SubRecord
}] struct {
	members MemberStore
	records SubRecordStore[T]
}

// NewSubRecordService creates a SubRecordService.
func NewSubRecordService[T any, P interface {
	*T
	models.SubRecord
}](members MemberStore, records SubRecordStore[T]) *SubRecordService[T, P] {
	return &SubRecordService[T, P]{members: members, records: records}
}

// List returns every record of member memberID.
func (s *SubRecordService[T, P]) List(ctx context.Context, memberID string) ([]T, error) {
	if err := ensureMember(ctx, s.members, memberID); err != nil {
		return nil, err
	}
	return s.records.List(ctx, memberID)
}

// Get returns record recordID of member memberID.
func (s *SubRecordService[T, P]) Get(ctx context.Context, memberID, recordID string) (*T, error) {
	if err := ensureMember(ctx, s.members, memberID); err != nil {
		return nil, err
	}
	rec, err := s.records.Get(ctx, memberID, recordID)
	if err != nil {
		return nil, notFound(err, utils.ErrRecordNotFound)
	}
	return rec, nil
}

// Create stores rec under member memberID with a new identifier.
func (s *SubRecordService[T, P]) Create(ctx context.Context, memberID string, rec *T) error {
	if err := ensureMember(ctx, s.members, memberID); err != nil {
		return err
	}
	P(rec).Assign(uuid.NewString(), memberID)
	if err := s.records.Create(ctx, rec); err != nil {
		return notFound(err, utils.ErrMemberNotFound)
	}
	return nil
}

// Update saves rec as the new state of record recordID of member memberID.
func (s *SubRecordService[T, P]) Update(ctx context.Context, memberID, recordID string, rec *T) error {
	if err := ensureMember(ctx, s.members, memberID); err != nil {
		return err
	}
	P(rec).Assign(recordID, memberID)
	if err := s.records.Update(ctx, rec); err != nil {
		return notFound(err, utils.ErrRecordNotFound)
	}
	return nil
}

// Delete removes record recordID of member memberID.
func (s *SubRecordService[T, P]) Delete(ctx context.Context, memberID, recordID string) error {
	if err := ensureMember(ctx, s.members, memberID); err != nil {
		return err
	}
	if err := s.records.Delete(ctx, memberID, recordID); err != nil {
		return notFound(err, utils.ErrRecordNotFound)
	}
	return nil
}
