package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/memberdir/admin_api/internal/models"
	"github.com/memberdir/admin_api/internal/utils"
)

const (
	defaultMemberPageSize = 20
	maxMemberPageSize     = 100
	maxMemberPage         = 10000
	// MaxPhotoSize bounds member photo uploads.
	MaxPhotoSize = 5 << 20
)

var photoContentTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
}

// MemberService manages directory members. Soft-deleted members behave as if
// they do not exist.
type MemberService struct {
	members MemberStore
	photos  PhotoStore
}

// NewMemberService creates a MemberService. photos may be nil when object
// storage is not configured.
func NewMemberService(members MemberStore, photos PhotoStore) *MemberService {
	return &MemberService{members: members, photos: photos}
}

// List returns one page of members and the total match count. The filter's
// page and limit are normalized in place.
func (s *MemberService) List(ctx context.Context, filter *models.MemberFilter) ([]*models.Member, int, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Page > maxMemberPage {
		filter.Page = maxMemberPage
	}
	if filter.Limit < 1 {
		filter.Limit = defaultMemberPageSize
	}
	if filter.Limit > maxMemberPageSize {
		filter.Limit = maxMemberPageSize
	}
	filter.Search = strings.TrimSpace(filter.Search)

	return s.members.List(ctx, *filter)
}

// Get returns the member memberID.
func (s *MemberService) Get(ctx context.Context, memberID string) (*models.Member, error) {
	m, err := s.members.GetByID(ctx, memberID)
	if err != nil {
		return nil, notFound(err, utils.ErrMemberNotFound)
	}
	return m, nil
}

// Create adds m to the directory under a new identifier.
func (s *MemberService) Create(ctx context.Context, m *models.Member) error {
	m.MemberID = uuid.NewString()
	m.IsDeleted = false
	if err := s.members.Create(ctx, m); err != nil {
		return fmt.Errorf("create member: %w", err)
	}
	log.Info().Str("member_id", m.MemberID).Msg("Member created")
	return nil
}

// Update saves m as the new state of member memberID.
func (s *MemberService) Update(ctx context.Context, memberID string, m *models.Member) error {
	m.MemberID = memberID
	if err := s.members.Update(ctx, m); err != nil {
		return notFound(err, utils.ErrMemberNotFound)
	}
	return nil
}

// Delete soft-deletes member memberID.
func (s *MemberService) Delete(ctx context.Context, memberID string) error {
	if err := s.members.SoftDelete(ctx, memberID); err != nil {
		return notFound(err, utils.ErrMemberNotFound)
	}
	log.Info().Str("member_id", memberID).Msg("Member soft-deleted")
	return nil
}

// UploadPhoto stores a profile photo for member memberID and returns its URL.
func (s *MemberService) UploadPhoto(ctx context.Context, memberID, contentType string, body io.Reader, size int64) (string, error) {
	if !photoContentTypes[contentType] {
		return "", utils.ErrUnsupportedFileType
	}
	if err := ensureMember(ctx, s.members, memberID); err != nil {
		return "", err
	}
	if s.photos == nil {
		return "", utils.ErrStorageUnavailable
	}

	url, err := s.photos.PutMemberPhoto(ctx, memberID, contentType, body, size)
	if err != nil {
		log.Error().Err(err).Str("member_id", memberID).Msg("Photo upload failed")
		return "", utils.ErrStorageUnavailable
	}

	if err := s.members.SetPhoto(ctx, memberID, url); err != nil {
		return "", notFound(err, utils.ErrMemberNotFound)
	}
	return url, nil
}

func ensureMember(ctx context.Context, members MemberStore, memberID string) error {
	ok, err := members.Exists(ctx, memberID)
	if err != nil {
		return fmt.Errorf("check member: %w", err)
	}
	if !ok {
		return utils.ErrMemberNotFound
	}
	return nil
}

// notFound replaces sql.ErrNoRows with sentinel and passes other errors through.
func notFound(err, sentinel error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return sentinel
	}
	return err
}
