package service

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"librarium/api/internal/identity"
	"librarium/api/internal/models"
)

func testIdentity() identity.Identity {
	return identity.Identity{
		SubjectID:   "sub-1",
		Email:       "dana@example.edu",
		DisplayName: "Dana",
	}
}

func newResolver(members *fakeMemberStore, operators *fakeOperatorStore) *ResolverService {
	return NewResolverService(members, operators, zerolog.Nop())
}

func TestResolveMemberFirstLoginSynchronizes(t *testing.T) {
	t.Parallel()

	members := newFakeMemberStore()
	resolver := newResolver(members, newFakeOperatorStore())

	resolved, err := resolver.Resolve(context.Background(), testIdentity(), models.ClassMember)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if resolved.Class != models.ClassMember || resolved.Member == nil {
		t.Fatalf("resolved = %+v, want member class", resolved)
	}
	if resolved.Member.Name != "Dana" || resolved.Member.Email != "dana@example.edu" {
		t.Errorf("synchronized profile = %+v", resolved.Member)
	}
	if resolved.Member.IDProofStatus != models.VerificationNotUploaded {
		t.Errorf("IDProofStatus = %q, want not_uploaded", resolved.Member.IDProofStatus)
	}
	if members.createCalls != 1 {
		t.Errorf("createCalls = %d, want 1", members.createCalls)
	}
}

func TestResolveMemberMissingNameDefaults(t *testing.T) {
	t.Parallel()

	ident := testIdentity()
	ident.DisplayName = ""

	resolver := newResolver(newFakeMemberStore(), newFakeOperatorStore())
	resolved, err := resolver.Resolve(context.Background(), ident, models.ClassMember)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if resolved.Member.Name != "Unknown" {
		t.Errorf("Name = %q, want Unknown", resolved.Member.Name)
	}
}

func TestResolveMemberSecondLoginDoesNotCreate(t *testing.T) {
	t.Parallel()

	members := newFakeMemberStore(models.MemberProfile{SubjectID: "sub-1", Name: "Dana"})
	resolver := newResolver(members, newFakeOperatorStore())

	resolved, err := resolver.Resolve(context.Background(), testIdentity(), models.ClassMember)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if resolved.Member.Name != "Dana" {
		t.Errorf("Name = %q", resolved.Member.Name)
	}
	if members.createCalls != 0 {
		t.Errorf("createCalls = %d, want 0", members.createCalls)
	}
}

// A concurrent first login may insert the profile between our lookup and our
// create. The duplicate insert must read the winner's row, not fail.
func TestResolveMemberLosingInsertRaceSucceeds(t *testing.T) {
	t.Parallel()

	members := newFakeMemberStore(models.MemberProfile{SubjectID: "sub-1", Name: "Dana"})
	members.getMisses = 1 // the racing insert has not landed at first lookup
	resolver := newResolver(members, newFakeOperatorStore())

	resolved, err := resolver.Resolve(context.Background(), testIdentity(), models.ClassMember)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if resolved.Class != models.ClassMember || resolved.Member.Name != "Dana" {
		t.Errorf("resolved = %+v", resolved)
	}
}

func TestResolveMemberSuspended(t *testing.T) {
	t.Parallel()

	members := newFakeMemberStore(models.MemberProfile{SubjectID: "sub-1", Suspended: true})
	resolver := newResolver(members, newFakeOperatorStore())

	_, err := resolver.Resolve(context.Background(), testIdentity(), models.ClassMember)
	if !errors.Is(err, ErrAccountSuspended) {
		t.Fatalf("err = %v, want ErrAccountSuspended", err)
	}
}

func TestResolveOperatorOnMemberPortal(t *testing.T) {
	t.Parallel()

	members := newFakeMemberStore()
	operators := newFakeOperatorStore(models.OperatorProfile{SubjectID: "sub-1", Name: "Dana"})
	resolver := newResolver(members, operators)

	_, err := resolver.Resolve(context.Background(), testIdentity(), models.ClassMember)
	if !errors.Is(err, ErrWrongPortal) {
		t.Fatalf("err = %v, want ErrWrongPortal", err)
	}
	// The operator subject must not leave a member row behind.
	if members.createCalls != 0 || len(members.members) != 0 {
		t.Errorf("member store polluted: %d creates, %d rows", members.createCalls, len(members.members))
	}
}

func TestResolveOperatorStrict(t *testing.T) {
	t.Parallel()

	members := newFakeMemberStore(models.MemberProfile{SubjectID: "sub-1", Name: "Dana"})
	resolver := newResolver(members, newFakeOperatorStore())

	// A plain member on the operator portal is refused, never silently
	// downgraded.
	_, err := resolver.Resolve(context.Background(), testIdentity(), models.ClassOperator)
	if !errors.Is(err, ErrNotAuthorized) {
		t.Fatalf("err = %v, want ErrNotAuthorized", err)
	}
	if members.createCalls != 0 {
		t.Errorf("createCalls = %d, want 0", members.createCalls)
	}
}

func TestResolveOperatorTouchesLastLogin(t *testing.T) {
	t.Parallel()

	operators := newFakeOperatorStore(models.OperatorProfile{SubjectID: "sub-1", Name: "Dana"})
	resolver := newResolver(newFakeMemberStore(), operators)

	resolved, err := resolver.Resolve(context.Background(), testIdentity(), models.ClassOperator)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if resolved.Class != models.ClassOperator || resolved.Operator == nil {
		t.Fatalf("resolved = %+v, want operator class", resolved)
	}
	if len(operators.touched) != 1 || operators.touched[0] != "sub-1" {
		t.Errorf("touched = %v", operators.touched)
	}
}

func TestResolveDiscovery(t *testing.T) {
	t.Parallel()

	t.Run("existing member wins", func(t *testing.T) {
		t.Parallel()
		members := newFakeMemberStore(models.MemberProfile{SubjectID: "sub-1", Name: "Dana"})
		resolver := newResolver(members, newFakeOperatorStore(models.OperatorProfile{SubjectID: "sub-1"}))

		resolved, err := resolver.Resolve(context.Background(), testIdentity(), "")
		if err != nil {
			t.Fatalf("Resolve: %v", err)
		}
		if resolved.Class != models.ClassMember {
			t.Errorf("Class = %q, want member", resolved.Class)
		}
	})

	t.Run("operator only", func(t *testing.T) {
		t.Parallel()
		members := newFakeMemberStore()
		resolver := newResolver(members, newFakeOperatorStore(models.OperatorProfile{SubjectID: "sub-1"}))

		resolved, err := resolver.Resolve(context.Background(), testIdentity(), "")
		if err != nil {
			t.Fatalf("Resolve: %v", err)
		}
		if resolved.Class != models.ClassOperator {
			t.Errorf("Class = %q, want operator", resolved.Class)
		}
		if members.createCalls != 0 {
			t.Errorf("createCalls = %d, want 0", members.createCalls)
		}
	})

	t.Run("unknown subject becomes member", func(t *testing.T) {
		t.Parallel()
		members := newFakeMemberStore()
		resolver := newResolver(members, newFakeOperatorStore())

		resolved, err := resolver.Resolve(context.Background(), testIdentity(), "")
		if err != nil {
			t.Fatalf("Resolve: %v", err)
		}
		if resolved.Class != models.ClassMember {
			t.Errorf("Class = %q, want member", resolved.Class)
		}
		if members.createCalls != 1 {
			t.Errorf("createCalls = %d, want 1", members.createCalls)
		}
	})
}

func TestResolveMemberStoreFailure(t *testing.T) {
	t.Parallel()

	members := newFakeMemberStore()
	members.getErr = errStoreDown
	resolver := newResolver(members, newFakeOperatorStore())

	_, err := resolver.Resolve(context.Background(), testIdentity(), models.ClassMember)
	if !errors.Is(err, ErrStoreUnavailable) {
		t.Fatalf("err = %v, want ErrStoreUnavailable", err)
	}
}

func TestResolveMemberSyncedRowUnreadable(t *testing.T) {
	t.Parallel()

	members := newFakeMemberStore()
	members.dropWrites = true
	resolver := newResolver(members, newFakeOperatorStore())

	_, err := resolver.Resolve(context.Background(), testIdentity(), models.ClassMember)
	if !errors.Is(err, ErrStoreUnavailable) {
		t.Fatalf("err = %v, want ErrStoreUnavailable", err)
	}
}
