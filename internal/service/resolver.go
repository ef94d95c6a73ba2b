package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"librarium/api/internal/identity"
	"librarium/api/internal/models"
	"librarium/api/internal/repository"
)

// ResolvedIdentity is a tagged union: exactly one of Member and Operator is
// set, selected by Class. The two profile stores have disjoint key spaces.
type ResolvedIdentity struct {
	Class    models.IdentityClass
	Member   *models.MemberProfile
	Operator *models.OperatorProfile
}

// ResolverService determines which identity class a verified subject belongs
// to. Resolve may create: a member-portal login for a never-seen subject
// synchronizes a member profile from the token data.
type ResolverService struct {
	members   MemberStore
	operators OperatorStore
	log       zerolog.Logger
}

func NewResolverService(members MemberStore, operators OperatorStore, log zerolog.Logger) *ResolverService {
	return &ResolverService{
		members:   members,
		operators: operators,
		log:       log,
	}
}

// Resolve maps a verified identity to its profile. requested selects the
// portal; empty means role discovery, which probes member first because most
// traffic is member traffic.
func (s *ResolverService) Resolve(ctx context.Context, ident identity.Identity, requested models.IdentityClass) (ResolvedIdentity, error) {
	switch requested {
	case models.ClassOperator:
		return s.resolveOperator(ctx, ident)
	case models.ClassMember:
		return s.resolveMember(ctx, ident)
	default:
		resolved, err := s.resolveMemberNoSync(ctx, ident)
		if err == nil || !errors.Is(err, repository.ErrMemberNotFound) {
			return resolved, err
		}
		if resolved, err := s.resolveOperator(ctx, ident); err == nil {
			return resolved, nil
		} else if !errors.Is(err, ErrNotAuthorized) {
			return ResolvedIdentity{}, err
		}
		// Absent from both stores: default to member and synchronize.
		return s.resolveMember(ctx, ident)
	}
}

// Operator login must not fall back to member.
func (s *ResolverService) resolveOperator(ctx context.Context, ident identity.Identity) (ResolvedIdentity, error) {
	operator, err := s.operators.GetBySubjectID(ctx, ident.SubjectID)
	if err != nil {
		if errors.Is(err, repository.ErrOperatorNotFound) {
			return ResolvedIdentity{}, ErrNotAuthorized
		}
		return ResolvedIdentity{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	if err := s.operators.TouchLogin(ctx, operator.SubjectID); err != nil {
		s.log.Warn().Err(err).Str("subject_id", operator.SubjectID).Msg("touch operator login failed")
	}

	return ResolvedIdentity{Class: models.ClassOperator, Operator: &operator}, nil
}

func (s *ResolverService) resolveMember(ctx context.Context, ident identity.Identity) (ResolvedIdentity, error) {
	resolved, err := s.resolveMemberNoSync(ctx, ident)
	if err == nil || !errors.Is(err, repository.ErrMemberNotFound) {
		return resolved, err
	}

	// The member lookup has failed, so checking the operator store here does
	// not leak operator existence on the happy path.
	if _, opErr := s.operators.GetBySubjectID(ctx, ident.SubjectID); opErr == nil {
		return ResolvedIdentity{}, ErrWrongPortal
	} else if !errors.Is(opErr, repository.ErrOperatorNotFound) {
		return ResolvedIdentity{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, opErr)
	}

	if err := s.syncMember(ctx, ident); err != nil {
		return ResolvedIdentity{}, err
	}

	// Retry the lookup exactly once after sync.
	resolved, err = s.resolveMemberNoSync(ctx, ident)
	if errors.Is(err, repository.ErrMemberNotFound) {
		return ResolvedIdentity{}, fmt.Errorf("%w: synchronized profile not readable", ErrStoreUnavailable)
	}
	return resolved, err
}

func (s *ResolverService) resolveMemberNoSync(ctx context.Context, ident identity.Identity) (ResolvedIdentity, error) {
	member, err := s.members.GetBySubjectID(ctx, ident.SubjectID)
	if err != nil {
		if errors.Is(err, repository.ErrMemberNotFound) {
			return ResolvedIdentity{}, err
		}
		return ResolvedIdentity{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	if member.Suspended {
		return ResolvedIdentity{}, ErrAccountSuspended
	}

	return ResolvedIdentity{Class: models.ClassMember, Member: &member}, nil
}

// syncMember creates the first-login profile. A duplicate insert means a
// concurrent login won the race; that is success, not an error.
func (s *ResolverService) syncMember(ctx context.Context, ident identity.Identity) error {
	name := ident.DisplayName
	if name == "" {
		name = "Unknown"
	}

	member := models.MemberProfile{
		SubjectID:     ident.SubjectID,
		Name:          name,
		Email:         ident.Email,
		Role:          models.MemberRoleDefault,
		IDProofStatus: models.VerificationNotUploaded,
	}

	if err := s.members.Create(ctx, member); err != nil {
		if errors.Is(err, repository.ErrMemberExists) {
			return nil
		}
		return fmt.Errorf("%w: sync member: %v", ErrStoreUnavailable, err)
	}

	s.log.Info().Str("subject_id", ident.SubjectID).Msg("member profile synchronized on first login")
	return nil
}
