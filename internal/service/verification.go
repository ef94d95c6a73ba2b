package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"librarium/api/internal/identity"
	"librarium/api/internal/models"
)

// VerificationService drives the member lifecycle flags. Transitions are
// compare-and-set at the store, so a member upload racing an operator
// decision loses cleanly instead of overwriting it.
type VerificationService struct {
	members  MemberStore
	provider identity.Provider
	log      zerolog.Logger
}

func NewVerificationService(members MemberStore, provider identity.Provider, log zerolog.Logger) *VerificationService {
	return &VerificationService{
		members:  members,
		provider: provider,
		log:      log,
	}
}

// RecordUpload moves not_uploaded or rejected to pending. Re-upload is the
// only exit from rejected.
func (s *VerificationService) RecordUpload(ctx context.Context, subjectID, proofURL string) (models.MemberProfile, error) {
	if err := s.members.SetProofPending(ctx, subjectID, proofURL); err != nil {
		return models.MemberProfile{}, err
	}

	s.log.Info().Str("subject_id", subjectID).Msg("id proof uploaded, pending review")
	return s.members.GetBySubjectID(ctx, subjectID)
}

// Review applies an operator decision on a pending document. Rejection
// requires a non-empty reason; approval clears any stored reason.
func (s *VerificationService) Review(ctx context.Context, subjectID string, approved bool, reason string) (models.MemberProfile, error) {
	if approved {
		if err := s.members.ApproveProof(ctx, subjectID); err != nil {
			return models.MemberProfile{}, err
		}
	} else {
		reason = strings.TrimSpace(reason)
		if reason == "" {
			return models.MemberProfile{}, fmt.Errorf("%w: rejection reason is required", ErrValidation)
		}
		if err := s.members.RejectProof(ctx, subjectID, reason); err != nil {
			return models.MemberProfile{}, err
		}
	}

	s.log.Info().
		Str("subject_id", subjectID).
		Bool("approved", approved).
		Msg("id proof reviewed")

	return s.members.GetBySubjectID(ctx, subjectID)
}

// SetSuspended toggles suspension in either direction, independent of the
// verification state. Suspending also invalidates the subject's provider
// tokens so active sessions terminate.
func (s *VerificationService) SetSuspended(ctx context.Context, subjectID string, suspended bool) (models.MemberProfile, error) {
	if err := s.members.SetSuspended(ctx, subjectID, suspended); err != nil {
		return models.MemberProfile{}, err
	}

	if suspended {
		if err := s.provider.Invalidate(ctx, subjectID); err != nil {
			s.log.Error().Err(err).Str("subject_id", subjectID).Msg("invalidate tokens after suspension failed")
		}
	}

	s.log.Info().
		Str("subject_id", subjectID).
		Bool("suspended", suspended).
		Msg("suspension toggled")

	return s.members.GetBySubjectID(ctx, subjectID)
}
