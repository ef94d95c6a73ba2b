package service

import (
	"context"

	"librarium/api/internal/models"
	"librarium/api/internal/repository"
)

// Store interfaces are satisfied by the concrete repositories; services
// accept them so the policy and lifecycle logic is testable without Postgres.

type MemberStore interface {
	Create(ctx context.Context, member models.MemberProfile) error
	GetBySubjectID(ctx context.Context, subjectID string) (models.MemberProfile, error)
	List(ctx context.Context, filter repository.MemberFilter) ([]models.MemberProfile, error)
	CountByDepartment(ctx context.Context, department string) (int, error)
	CompleteProfile(ctx context.Context, subjectID, displayID, mobile, department string, semester *int) error
	SetProofPending(ctx context.Context, subjectID, proofURL string) error
	ApproveProof(ctx context.Context, subjectID string) error
	RejectProof(ctx context.Context, subjectID, reason string) error
	SetSuspended(ctx context.Context, subjectID string, suspended bool) error
}

type OperatorStore interface {
	Create(ctx context.Context, operator models.OperatorProfile) error
	GetBySubjectID(ctx context.Context, subjectID string) (models.OperatorProfile, error)
	TouchLogin(ctx context.Context, subjectID string) error
}

type SessionStore interface {
	Create(ctx context.Context, record models.SessionRecord) error
	ListByDate(ctx context.Context, date string, limit, offset int) ([]models.SessionRecord, error)
}

type PurchaseStore interface {
	Create(ctx context.Context, purchase models.Purchase) error
	Exists(ctx context.Context, subjectID, bookID string) (bool, error)
	ListBySubject(ctx context.Context, subjectID string) ([]models.Purchase, error)
}
