package models

import "time"

// OperatorProfile rows live in a key space disjoint from members: a subject_id
// exists in at most one of the two stores.
type OperatorProfile struct {
	SubjectID            string
	Name                 string
	Email                string
	SecretKeyFingerprint *string
	CreatedAt            time.Time
	LastLoginAt          time.Time
}
