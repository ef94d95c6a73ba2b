package service

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"librarium/api/internal/identity"
	"librarium/api/internal/models"
	"librarium/api/internal/repository"
)

type fakeProvider struct {
	invalidated   []string
	invalidateErr error
}

func (f *fakeProvider) SignUp(context.Context, string, string, string) (identity.Identity, error) {
	return identity.Identity{}, nil
}

func (f *fakeProvider) SignIn(context.Context, string, string) (string, identity.Identity, error) {
	return "", identity.Identity{}, nil
}

func (f *fakeProvider) Verify(context.Context, string) (identity.Identity, error) {
	return identity.Identity{}, nil
}

func (f *fakeProvider) Invalidate(_ context.Context, subjectID string) error {
	f.invalidated = append(f.invalidated, subjectID)
	return f.invalidateErr
}

func newVerification(members *fakeMemberStore, provider *fakeProvider) *VerificationService {
	return NewVerificationService(members, provider, zerolog.Nop())
}

func TestVerificationRecordUpload(t *testing.T) {
	t.Parallel()

	members := newFakeMemberStore(models.MemberProfile{
		SubjectID:     "sub-1",
		IDProofStatus: models.VerificationNotUploaded,
	})
	svc := newVerification(members, &fakeProvider{})

	updated, err := svc.RecordUpload(context.Background(), "sub-1", "https://store/id-proofs/sub-1.jpg")
	if err != nil {
		t.Fatalf("RecordUpload: %v", err)
	}
	if updated.IDProofStatus != models.VerificationPending {
		t.Errorf("IDProofStatus = %q, want pending", updated.IDProofStatus)
	}
	if updated.IDProofURL == nil || *updated.IDProofURL == "" {
		t.Error("IDProofURL not recorded")
	}
}

func TestVerificationRecordUploadWhilePending(t *testing.T) {
	t.Parallel()

	members := newFakeMemberStore(models.MemberProfile{
		SubjectID:     "sub-1",
		IDProofStatus: models.VerificationPending,
	})
	svc := newVerification(members, &fakeProvider{})

	_, err := svc.RecordUpload(context.Background(), "sub-1", "https://store/x.jpg")
	if !errors.Is(err, repository.ErrInvalidTransition) {
		t.Fatalf("err = %v, want ErrInvalidTransition", err)
	}
}

// Re-upload is the only way out of rejected; it also clears the old reason.
func TestVerificationReuploadAfterRejection(t *testing.T) {
	t.Parallel()

	members := newFakeMemberStore(models.MemberProfile{
		SubjectID:       "sub-1",
		IDProofStatus:   models.VerificationRejected,
		RejectionReason: strptr("document blurry"),
	})
	svc := newVerification(members, &fakeProvider{})

	updated, err := svc.RecordUpload(context.Background(), "sub-1", "https://store/retake.jpg")
	if err != nil {
		t.Fatalf("RecordUpload: %v", err)
	}
	if updated.IDProofStatus != models.VerificationPending {
		t.Errorf("IDProofStatus = %q, want pending", updated.IDProofStatus)
	}
	if updated.RejectionReason != nil {
		t.Errorf("RejectionReason = %q, want cleared", *updated.RejectionReason)
	}
}

func TestVerificationReview(t *testing.T) {
	t.Parallel()

	t.Run("approve", func(t *testing.T) {
		t.Parallel()
		members := newFakeMemberStore(models.MemberProfile{
			SubjectID:     "sub-1",
			IDProofStatus: models.VerificationPending,
		})
		svc := newVerification(members, &fakeProvider{})

		updated, err := svc.Review(context.Background(), "sub-1", true, "")
		if err != nil {
			t.Fatalf("Review: %v", err)
		}
		if !updated.Verified() {
			t.Errorf("IDProofStatus = %q, want verified", updated.IDProofStatus)
		}
	})

	t.Run("reject with reason", func(t *testing.T) {
		t.Parallel()
		members := newFakeMemberStore(models.MemberProfile{
			SubjectID:     "sub-1",
			IDProofStatus: models.VerificationPending,
		})
		svc := newVerification(members, &fakeProvider{})

		updated, err := svc.Review(context.Background(), "sub-1", false, "name does not match")
		if err != nil {
			t.Fatalf("Review: %v", err)
		}
		if updated.IDProofStatus != models.VerificationRejected {
			t.Errorf("IDProofStatus = %q, want rejected", updated.IDProofStatus)
		}
		if updated.RejectionReason == nil || *updated.RejectionReason != "name does not match" {
			t.Errorf("RejectionReason = %v", updated.RejectionReason)
		}
	})

	t.Run("reject without reason", func(t *testing.T) {
		t.Parallel()
		members := newFakeMemberStore(models.MemberProfile{
			SubjectID:     "sub-1",
			IDProofStatus: models.VerificationPending,
		})
		svc := newVerification(members, &fakeProvider{})

		_, err := svc.Review(context.Background(), "sub-1", false, "   ")
		if !errors.Is(err, ErrValidation) {
			t.Fatalf("err = %v, want ErrValidation", err)
		}
		// The document must still be reviewable.
		current, _ := members.GetBySubjectID(context.Background(), "sub-1")
		if current.IDProofStatus != models.VerificationPending {
			t.Errorf("IDProofStatus = %q, want pending", current.IDProofStatus)
		}
	})

	t.Run("review without pending document", func(t *testing.T) {
		t.Parallel()
		members := newFakeMemberStore(models.MemberProfile{
			SubjectID:     "sub-1",
			IDProofStatus: models.VerificationVerified,
		})
		svc := newVerification(members, &fakeProvider{})

		_, err := svc.Review(context.Background(), "sub-1", true, "")
		if !errors.Is(err, repository.ErrInvalidTransition) {
			t.Fatalf("err = %v, want ErrInvalidTransition", err)
		}
	})
}

func TestVerificationSetSuspended(t *testing.T) {
	t.Parallel()

	t.Run("suspend invalidates tokens", func(t *testing.T) {
		t.Parallel()
		members := newFakeMemberStore(models.MemberProfile{SubjectID: "sub-1"})
		provider := &fakeProvider{}
		svc := newVerification(members, provider)

		updated, err := svc.SetSuspended(context.Background(), "sub-1", true)
		if err != nil {
			t.Fatalf("SetSuspended: %v", err)
		}
		if !updated.Suspended {
			t.Error("member not suspended")
		}
		if len(provider.invalidated) != 1 || provider.invalidated[0] != "sub-1" {
			t.Errorf("invalidated = %v", provider.invalidated)
		}
	})

	t.Run("reinstate leaves tokens alone", func(t *testing.T) {
		t.Parallel()
		members := newFakeMemberStore(models.MemberProfile{SubjectID: "sub-1", Suspended: true})
		provider := &fakeProvider{}
		svc := newVerification(members, provider)

		updated, err := svc.SetSuspended(context.Background(), "sub-1", false)
		if err != nil {
			t.Fatalf("SetSuspended: %v", err)
		}
		if updated.Suspended {
			t.Error("member still suspended")
		}
		if len(provider.invalidated) != 0 {
			t.Errorf("invalidated = %v", provider.invalidated)
		}
	})

	t.Run("invalidate failure does not fail the suspension", func(t *testing.T) {
		t.Parallel()
		members := newFakeMemberStore(models.MemberProfile{SubjectID: "sub-1"})
		provider := &fakeProvider{invalidateErr: errStoreDown}
		svc := newVerification(members, provider)

		updated, err := svc.SetSuspended(context.Background(), "sub-1", true)
		if err != nil {
			t.Fatalf("SetSuspended: %v", err)
		}
		if !updated.Suspended {
			t.Error("member not suspended")
		}
	})

	t.Run("unknown member", func(t *testing.T) {
		t.Parallel()
		svc := newVerification(newFakeMemberStore(), &fakeProvider{})

		_, err := svc.SetSuspended(context.Background(), "ghost", true)
		if !errors.Is(err, repository.ErrMemberNotFound) {
			t.Fatalf("err = %v, want ErrMemberNotFound", err)
		}
	})
}
