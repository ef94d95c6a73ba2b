package service

import (
	"context"
	"fmt"

	"librarium/api/internal/models"
)

// Reason codes are machine-readable: the caller branches on them to pick a
// remediation screen (document upload vs. checkout).
const (
	ReasonSuspended      = "suspended"
	ReasonFreeTier       = "free_tier"
	ReasonMissingIDProof = "missing_id_proof"
	ReasonPurchased      = "purchased"
	ReasonPremiumLocked  = "premium_locked"
)

// Decision is a value, never an error: a denial is a normal outcome.
type Decision struct {
	Allow  bool   `json:"allow"`
	Reason string `json:"reason"`
}

type AccessService struct {
	purchases PurchaseStore
}

func NewAccessService(purchases PurchaseStore) *AccessService {
	return &AccessService{purchases: purchases}
}

// Authorize evaluates the gating policy in strict order; the first matching
// rule decides. A completed purchase overrides a missing verification:
// rule 3 requires "no prior successful purchase", so a purchased resource is
// always governed by the purchase rule.
func (s *AccessService) Authorize(ctx context.Context, member models.MemberProfile, book models.Book) (Decision, error) {
	if member.Suspended {
		return Decision{Allow: false, Reason: ReasonSuspended}, nil
	}

	if book.Tier == models.TierFree {
		return Decision{Allow: true, Reason: ReasonFreeTier}, nil
	}

	purchased, err := s.purchases.Exists(ctx, member.SubjectID, book.ID)
	if err != nil {
		// Infrastructure failure is never an implicit deny-with-fallback-allow;
		// it surfaces so the caller can retry.
		return Decision{}, fmt.Errorf("%w: purchase lookup: %v", ErrStoreUnavailable, err)
	}

	if !member.Verified() && !purchased {
		return Decision{Allow: false, Reason: ReasonMissingIDProof}, nil
	}

	if purchased {
		return Decision{Allow: true, Reason: ReasonPurchased}, nil
	}

	return Decision{Allow: false, Reason: ReasonPremiumLocked}, nil
}
