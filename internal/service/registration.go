package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"librarium/api/internal/config"
	"librarium/api/internal/identity"
	"librarium/api/internal/models"
	"librarium/api/internal/repository"
	"librarium/api/internal/security"
)

// RegistrationService covers explicit member registration, profile
// completion with display-id assignment, and the secret-gated operator
// registration path.
type RegistrationService struct {
	members   MemberStore
	operators OperatorStore
	cfg       *config.AppConfig
	log       zerolog.Logger
}

func NewRegistrationService(members MemberStore, operators OperatorStore, cfg *config.AppConfig, log zerolog.Logger) *RegistrationService {
	return &RegistrationService{
		members:   members,
		operators: operators,
		cfg:       cfg,
		log:       log,
	}
}

type MemberRegistration struct {
	Name       string
	Mobile     string
	Department string
	Semester   *int
}

func (s *RegistrationService) RegisterMember(ctx context.Context, ident identity.Identity, input MemberRegistration) (models.MemberProfile, error) {
	if input.Name == "" || input.Mobile == "" || input.Department == "" {
		return models.MemberProfile{}, fmt.Errorf("%w: name, mobile and department are required", ErrValidation)
	}

	member := models.MemberProfile{
		SubjectID:     ident.SubjectID,
		Name:          input.Name,
		Email:         ident.Email,
		Mobile:        &input.Mobile,
		Department:    &input.Department,
		Semester:      input.Semester,
		Role:          models.MemberRoleDefault,
		IDProofStatus: models.VerificationNotUploaded,
	}

	if err := s.members.Create(ctx, member); err != nil {
		if errors.Is(err, repository.ErrMemberExists) {
			return models.MemberProfile{}, fmt.Errorf("%w: already registered", ErrValidation)
		}
		return models.MemberProfile{}, fmt.Errorf("%w: register member: %v", ErrStoreUnavailable, err)
	}

	// Profile stays incomplete until the display id is assigned along with
	// the contact details.
	return s.CompleteProfile(ctx, ident.SubjectID, input.Mobile, input.Department, input.Semester)
}

// CompleteProfile assigns the department-based display id (e.g. CSE001) and
// marks the profile complete.
func (s *RegistrationService) CompleteProfile(ctx context.Context, subjectID, mobile, department string, semester *int) (models.MemberProfile, error) {
	if mobile == "" || department == "" {
		return models.MemberProfile{}, fmt.Errorf("%w: mobile and department are required", ErrValidation)
	}

	member, err := s.members.GetBySubjectID(ctx, subjectID)
	if err != nil {
		return models.MemberProfile{}, err
	}

	displayID := stringOrEmpty(member.DisplayID)
	if displayID == "" {
		displayID, err = s.nextDisplayID(ctx, department)
		if err != nil {
			return models.MemberProfile{}, err
		}
	}

	if err := s.members.CompleteProfile(ctx, subjectID, displayID, mobile, department, semester); err != nil {
		return models.MemberProfile{}, fmt.Errorf("%w: complete profile: %v", ErrStoreUnavailable, err)
	}

	return s.members.GetBySubjectID(ctx, subjectID)
}

func (s *RegistrationService) nextDisplayID(ctx context.Context, department string) (string, error) {
	count, err := s.members.CountByDepartment(ctx, department)
	if err != nil {
		return "", fmt.Errorf("%w: count department members: %v", ErrStoreUnavailable, err)
	}
	return fmt.Sprintf("%s%03d", strings.ToUpper(department), count+1), nil
}

// RegisterOperator is gated by the shared registration secret. The secret
// itself is not stored; a fingerprint is kept for audit.
func (s *RegistrationService) RegisterOperator(ctx context.Context, ident identity.Identity, name, secretKey string) (models.OperatorProfile, error) {
	if !security.SecretMatches(secretKey, s.cfg.Auth.OperatorSecret) {
		return models.OperatorProfile{}, ErrNotAuthorized
	}
	if name == "" {
		return models.OperatorProfile{}, fmt.Errorf("%w: name is required", ErrValidation)
	}

	fingerprint := security.SecretFingerprint(secretKey)
	operator := models.OperatorProfile{
		SubjectID:            ident.SubjectID,
		Name:                 name,
		Email:                ident.Email,
		SecretKeyFingerprint: &fingerprint,
	}

	if err := s.operators.Create(ctx, operator); err != nil {
		if errors.Is(err, repository.ErrOperatorExists) {
			return models.OperatorProfile{}, fmt.Errorf("%w: operator already registered", ErrValidation)
		}
		return models.OperatorProfile{}, fmt.Errorf("%w: register operator: %v", ErrStoreUnavailable, err)
	}

	s.log.Info().Str("subject_id", ident.SubjectID).Msg("operator registered")
	return s.operators.GetBySubjectID(ctx, ident.SubjectID)
}
