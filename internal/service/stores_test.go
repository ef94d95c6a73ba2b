package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"librarium/api/internal/models"
	"librarium/api/internal/repository"
)

// In-memory store fakes mirroring the repository transition semantics, so
// the services can be exercised without Postgres.

type fakeMemberStore struct {
	members map[string]models.MemberProfile

	createErr error
	getErr    error
	countErr  error

	// getMisses forces the next N lookups to report not-found even when the
	// row exists, emulating a concurrent writer that has not landed yet.
	getMisses int

	// dropWrites makes Create succeed without persisting anything.
	dropWrites bool

	createCalls int
}

func newFakeMemberStore(members ...models.MemberProfile) *fakeMemberStore {
	f := &fakeMemberStore{members: make(map[string]models.MemberProfile)}
	for _, m := range members {
		f.members[m.SubjectID] = m
	}
	return f
}

func (f *fakeMemberStore) Create(_ context.Context, member models.MemberProfile) error {
	f.createCalls++
	if f.createErr != nil {
		return f.createErr
	}
	if _, ok := f.members[member.SubjectID]; ok {
		return repository.ErrMemberExists
	}
	if !f.dropWrites {
		f.members[member.SubjectID] = member
	}
	return nil
}

func (f *fakeMemberStore) GetBySubjectID(_ context.Context, subjectID string) (models.MemberProfile, error) {
	if f.getErr != nil {
		return models.MemberProfile{}, f.getErr
	}
	if f.getMisses > 0 {
		f.getMisses--
		return models.MemberProfile{}, repository.ErrMemberNotFound
	}
	member, ok := f.members[subjectID]
	if !ok {
		return models.MemberProfile{}, repository.ErrMemberNotFound
	}
	return member, nil
}

func (f *fakeMemberStore) List(_ context.Context, _ repository.MemberFilter) ([]models.MemberProfile, error) {
	out := make([]models.MemberProfile, 0, len(f.members))
	for _, m := range f.members {
		out = append(out, m)
	}
	return out, nil
}

func (f *fakeMemberStore) CountByDepartment(_ context.Context, department string) (int, error) {
	if f.countErr != nil {
		return 0, f.countErr
	}
	count := 0
	for _, m := range f.members {
		if m.Department != nil && *m.Department == department && m.DisplayID != nil {
			count++
		}
	}
	return count, nil
}

func (f *fakeMemberStore) CompleteProfile(_ context.Context, subjectID, displayID, mobile, department string, semester *int) error {
	member, ok := f.members[subjectID]
	if !ok {
		return repository.ErrMemberNotFound
	}
	member.DisplayID = &displayID
	member.Mobile = &mobile
	member.Department = &department
	member.Semester = semester
	member.ProfileCompleted = true
	f.members[subjectID] = member
	return nil
}

func (f *fakeMemberStore) SetProofPending(_ context.Context, subjectID, proofURL string) error {
	member, ok := f.members[subjectID]
	if !ok {
		return repository.ErrMemberNotFound
	}
	if member.IDProofStatus != models.VerificationNotUploaded && member.IDProofStatus != models.VerificationRejected {
		return repository.ErrInvalidTransition
	}
	member.IDProofURL = &proofURL
	member.IDProofStatus = models.VerificationPending
	member.RejectionReason = nil
	f.members[subjectID] = member
	return nil
}

func (f *fakeMemberStore) ApproveProof(_ context.Context, subjectID string) error {
	return f.decide(subjectID, models.VerificationVerified, nil)
}

func (f *fakeMemberStore) RejectProof(_ context.Context, subjectID, reason string) error {
	return f.decide(subjectID, models.VerificationRejected, &reason)
}

func (f *fakeMemberStore) decide(subjectID string, status models.VerificationStatus, reason *string) error {
	member, ok := f.members[subjectID]
	if !ok {
		return repository.ErrMemberNotFound
	}
	if member.IDProofStatus != models.VerificationPending {
		return repository.ErrInvalidTransition
	}
	member.IDProofStatus = status
	member.RejectionReason = reason
	f.members[subjectID] = member
	return nil
}

func (f *fakeMemberStore) SetSuspended(_ context.Context, subjectID string, suspended bool) error {
	member, ok := f.members[subjectID]
	if !ok {
		return repository.ErrMemberNotFound
	}
	member.Suspended = suspended
	f.members[subjectID] = member
	return nil
}

type fakeOperatorStore struct {
	operators map[string]models.OperatorProfile

	getErr error

	touched []string
}

func newFakeOperatorStore(operators ...models.OperatorProfile) *fakeOperatorStore {
	f := &fakeOperatorStore{operators: make(map[string]models.OperatorProfile)}
	for _, o := range operators {
		f.operators[o.SubjectID] = o
	}
	return f
}

func (f *fakeOperatorStore) Create(_ context.Context, operator models.OperatorProfile) error {
	if _, ok := f.operators[operator.SubjectID]; ok {
		return repository.ErrOperatorExists
	}
	f.operators[operator.SubjectID] = operator
	return nil
}

func (f *fakeOperatorStore) GetBySubjectID(_ context.Context, subjectID string) (models.OperatorProfile, error) {
	if f.getErr != nil {
		return models.OperatorProfile{}, f.getErr
	}
	operator, ok := f.operators[subjectID]
	if !ok {
		return models.OperatorProfile{}, repository.ErrOperatorNotFound
	}
	return operator, nil
}

func (f *fakeOperatorStore) TouchLogin(_ context.Context, subjectID string) error {
	f.touched = append(f.touched, subjectID)
	return nil
}

type fakeSessionStore struct {
	records   []models.SessionRecord
	createErr error
}

func (f *fakeSessionStore) Create(_ context.Context, record models.SessionRecord) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.records = append(f.records, record)
	return nil
}

func (f *fakeSessionStore) ListByDate(_ context.Context, date string, _, _ int) ([]models.SessionRecord, error) {
	var out []models.SessionRecord
	for _, r := range f.records {
		if r.Date == date {
			out = append(out, r)
		}
	}
	return out, nil
}

type fakePurchaseStore struct {
	purchases map[string]bool
	existsErr error

	existsCalls int
}

func newFakePurchaseStore(keys ...string) *fakePurchaseStore {
	f := &fakePurchaseStore{purchases: make(map[string]bool)}
	for _, k := range keys {
		f.purchases[k] = true
	}
	return f
}

func purchaseKey(subjectID, bookID string) string {
	return fmt.Sprintf("%s/%s", subjectID, bookID)
}

func (f *fakePurchaseStore) Create(_ context.Context, purchase models.Purchase) error {
	key := purchaseKey(purchase.SubjectID, purchase.BookID)
	if f.purchases[key] {
		return repository.ErrPurchaseExists
	}
	f.purchases[key] = true
	return nil
}

func (f *fakePurchaseStore) Exists(_ context.Context, subjectID, bookID string) (bool, error) {
	f.existsCalls++
	if f.existsErr != nil {
		return false, f.existsErr
	}
	return f.purchases[purchaseKey(subjectID, bookID)], nil
}

func (f *fakePurchaseStore) ListBySubject(_ context.Context, subjectID string) ([]models.Purchase, error) {
	var out []models.Purchase
	for key := range f.purchases {
		parts := strings.SplitN(key, "/", 2)
		if len(parts) == 2 && parts[0] == subjectID {
			out = append(out, models.Purchase{SubjectID: parts[0], BookID: parts[1]})
		}
	}
	return out, nil
}

func strptr(s string) *string { return &s }

var errStoreDown = errors.New("connection refused")
