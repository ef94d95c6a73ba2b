package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"librarium/api/internal/ids"
	"librarium/api/internal/models"
)

// ProfileSnapshot is the slice of profile data frozen into a session record
// at close time.
type ProfileSnapshot struct {
	SubjectID  string
	DisplayID  string
	Name       string
	Department string
}

// SnapshotOf extracts the ledger snapshot from a resolved identity.
func SnapshotOf(resolved ResolvedIdentity) ProfileSnapshot {
	switch resolved.Class {
	case models.ClassMember:
		if m := resolved.Member; m != nil {
			return ProfileSnapshot{
				SubjectID:  m.SubjectID,
				DisplayID:  stringOrEmpty(m.DisplayID),
				Name:       m.Name,
				Department: stringOrEmpty(m.Department),
			}
		}
	case models.ClassOperator:
		if o := resolved.Operator; o != nil {
			return ProfileSnapshot{SubjectID: o.SubjectID, Name: o.Name}
		}
	}
	return ProfileSnapshot{}
}

// SessionService writes the session ledger. There is no server-side open:
// the login timestamp is held by the client and supplied at close, so a crash
// between login and logout fabricates no record.
type SessionService struct {
	sessions SessionStore
	log      zerolog.Logger
	now      func() time.Time
}

func NewSessionService(sessions SessionStore, log zerolog.Logger) *SessionService {
	return &SessionService{
		sessions: sessions,
		log:      log,
		now:      time.Now,
	}
}

// Close computes the elapsed duration, rounded down to whole seconds, and
// persists exactly one record. A failed write is returned to the caller, not
// retried or dropped: a lost session record is a data-integrity issue.
func (s *SessionService) Close(ctx context.Context, snapshot ProfileSnapshot, loginTime time.Time) (models.SessionRecord, error) {
	logoutTime := s.now()
	if loginTime.IsZero() || loginTime.After(logoutTime) {
		return models.SessionRecord{}, fmt.Errorf("%w: login time must precede logout", ErrValidation)
	}

	record := models.SessionRecord{
		ID:              ids.New(),
		SubjectID:       snapshot.SubjectID,
		DisplayID:       snapshot.DisplayID,
		Name:            snapshot.Name,
		Department:      snapshot.Department,
		LoginTime:       loginTime,
		LogoutTime:      logoutTime,
		DurationSeconds: int64(logoutTime.Sub(loginTime) / time.Second),
		Date:            logoutTime.UTC().Format("2006-01-02"),
	}

	if err := s.sessions.Create(ctx, record); err != nil {
		return models.SessionRecord{}, fmt.Errorf("%w: write session record: %v", ErrStoreUnavailable, err)
	}

	s.log.Info().
		Str("subject_id", record.SubjectID).
		Int64("duration_seconds", record.DurationSeconds).
		Msg("session closed")

	return record, nil
}

func (s *SessionService) ListByDate(ctx context.Context, date string, limit, offset int) ([]models.SessionRecord, error) {
	records, err := s.sessions.ListByDate(ctx, date, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%w: list sessions: %v", ErrStoreUnavailable, err)
	}
	return records, nil
}

func stringOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
