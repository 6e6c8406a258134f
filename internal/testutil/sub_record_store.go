package testutil

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/memberdir/admin_api/internal/models"
)

// SubRecordStore is an in-memory SubRecordRepository. Like the real one it
// hides records whose member is soft-deleted without removing them.
type SubRecordStore[T any, P interface {
	*T
	models.SubRecord
}] struct {
	db      *DB
	order   []string
	records map[string]T
}

// NewSubRecordStore returns an empty SubRecordStore sharing d's members.
func NewSubRecordStore[T any, P interface {
	*T
	models.SubRecord
}](d *DB) *SubRecordStore[T, P] {
	return &SubRecordStore[T, P]{db: d, records: map[string]T{}}
}

// Stored reports whether recordID is kept, regardless of its member's state.
func (s *SubRecordStore[T, P]) Stored(recordID string) bool {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	_, ok := s.records[recordID]
	return ok
}

func (s *SubRecordStore[T, P]) List(_ context.Context, memberID string) ([]T, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	out := []T{}
	if s.db.activeMember(memberID) == nil {
		return out, nil
	}
	for _, id := range s.order {
		rec, ok := s.records[id]
		if ok && P(&rec).OwnerID() == memberID {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (s *SubRecordStore[T, P]) Get(_ context.Context, memberID, recordID string) (*T, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	rec, ok := s.lookup(memberID, recordID)
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &rec, nil
}

func (s *SubRecordStore[T, P]) Create(_ context.Context, rec *T) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	p := P(rec)
	if p.RecordID() == "" {
		return fmt.Errorf("record id not assigned")
	}
	if _, ok := s.db.members[p.OwnerID()]; !ok {
		return fmt.Errorf("foreign key violation: member %s", p.OwnerID())
	}
	s.records[p.RecordID()] = *rec
	s.order = append(s.order, p.RecordID())
	return nil
}

func (s *SubRecordStore[T, P]) Update(_ context.Context, rec *T) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	p := P(rec)
	if _, ok := s.lookup(p.OwnerID(), p.RecordID()); !ok {
		return sql.ErrNoRows
	}
	s.records[p.RecordID()] = *rec
	return nil
}

func (s *SubRecordStore[T, P]) Delete(_ context.Context, memberID, recordID string) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if _, ok := s.lookup(memberID, recordID); !ok {
		return sql.ErrNoRows
	}
	delete(s.records, recordID)
	return nil
}

// lookup finds recordID owned by an active memberID. Callers hold mu.
func (s *SubRecordStore[T, P]) lookup(memberID, recordID string) (T, bool) {
	rec, ok := s.records[recordID]
	if !ok || P(&rec).OwnerID() != memberID || s.db.activeMember(memberID) == nil {
		var zero T
		return zero, false
	}
	return rec, true
}
