package models

import "time"

type IdentityClass string

const (
	ClassMember   IdentityClass = "member"
	ClassOperator IdentityClass = "operator"
)

// VerificationStatus is the document-verification lifecycle of a member.
// Transitions: not_uploaded|rejected -> pending -> verified|rejected.
type VerificationStatus string

const (
	VerificationNotUploaded VerificationStatus = "not_uploaded"
	VerificationPending     VerificationStatus = "pending"
	VerificationVerified    VerificationStatus = "verified"
	VerificationRejected    VerificationStatus = "rejected"
)

type MemberRole string

const MemberRoleDefault MemberRole = "member"

type MemberProfile struct {
	SubjectID        string
	DisplayID        *string
	Name             string
	Email            string
	Mobile           *string
	Department       *string
	Semester         *int
	Role             MemberRole
	Suspended        bool
	ProfileCompleted bool
	IDProofURL       *string
	IDProofStatus    VerificationStatus
	RejectionReason  *string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Verified reports whether the member's identity document has been approved.
func (m MemberProfile) Verified() bool {
	return m.IDProofStatus == VerificationVerified
}

type Purchase struct {
	ID            string
	SubjectID     string
	BookID        string
	Amount        float64
	TransactionID *string
	PurchasedAt   time.Time
}
