package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"librarium/api/internal/models"
)

var (
	ErrMemberNotFound = errors.New("member not found")
	ErrMemberExists   = errors.New("member already exists")

	// ErrInvalidTransition means a verification or suspension update matched
	// no row in the expected state. The store is the arbiter: transitions are
	// conditional updates, so a concurrent change loses cleanly instead of
	// clobbering.
	ErrInvalidTransition = errors.New("invalid state transition")
)

const uniqueViolation = "23505"

const memberColumns = `
	subject_id, display_id, name, email, mobile, department, semester, role,
	suspended, profile_completed, id_proof_url, id_proof_status,
	id_proof_rejection_reason, created_at, updated_at`

type MemberRepository struct {
	pool *pgxpool.Pool
}

func NewMemberRepository(pool *pgxpool.Pool) *MemberRepository {
	return &MemberRepository{pool: pool}
}

// Create inserts a new member row. A duplicate subject_id returns
// ErrMemberExists so first-login sync races resolve to "retry the lookup".
func (r *MemberRepository) Create(ctx context.Context, member models.MemberProfile) error {
	const query = `
		INSERT INTO members (
			subject_id, display_id, name, email, mobile, department, semester, role,
			suspended, profile_completed, id_proof_url, id_proof_status,
			id_proof_rejection_reason, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, NOW(), NOW()
		)
	`

	_, err := r.pool.Exec(ctx, query,
		member.SubjectID,
		member.DisplayID,
		member.Name,
		member.Email,
		member.Mobile,
		member.Department,
		member.Semester,
		member.Role,
		member.Suspended,
		member.ProfileCompleted,
		member.IDProofURL,
		member.IDProofStatus,
		member.RejectionReason,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ErrMemberExists
		}
		return err
	}
	return nil
}

func (r *MemberRepository) GetBySubjectID(ctx context.Context, subjectID string) (models.MemberProfile, error) {
	const query = `SELECT` + memberColumns + ` FROM members WHERE subject_id = $1`

	return r.scanOne(r.pool.QueryRow(ctx, query, subjectID))
}

func (r *MemberRepository) GetByDisplayID(ctx context.Context, displayID string) (models.MemberProfile, error) {
	const query = `SELECT` + memberColumns + ` FROM members WHERE display_id = $1`

	return r.scanOne(r.pool.QueryRow(ctx, query, displayID))
}

type MemberFilter struct {
	Department  string
	Semester    *int
	ProofStatus string
	Search      string
	Limit       int
	Offset      int
}

func (r *MemberRepository) List(ctx context.Context, filter MemberFilter) ([]models.MemberProfile, error) {
	const query = `
		SELECT` + memberColumns + `
		FROM members
		WHERE ($1 = '' OR department = $1)
		  AND ($2::int IS NULL OR semester = $2)
		  AND ($3 = '' OR id_proof_status = $3)
		  AND ($4 = '' OR name ILIKE '%' || $4 || '%' OR email ILIKE '%' || $4 || '%' OR display_id ILIKE '%' || $4 || '%')
		ORDER BY created_at DESC
		LIMIT $5 OFFSET $6
	`

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}

	rows, err := r.pool.Query(ctx, query,
		filter.Department, filter.Semester, filter.ProofStatus, filter.Search, limit, filter.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var members []models.MemberProfile
	for rows.Next() {
		member, err := r.scanOne(rows)
		if err != nil {
			return nil, err
		}
		members = append(members, member)
	}
	return members, rows.Err()
}

func (r *MemberRepository) CountByDepartment(ctx context.Context, department string) (int, error) {
	// Counts only members already holding a display id, so the caller can
	// derive the next sequence number regardless of when the row was created.
	const query = `SELECT COUNT(*) FROM members WHERE department = $1 AND display_id IS NOT NULL`

	var count int
	if err := r.pool.QueryRow(ctx, query, department).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

// CompleteProfile fills in the contact fields, assigns the generated display
// id and marks the profile complete.
func (r *MemberRepository) CompleteProfile(ctx context.Context, subjectID, displayID, mobile, department string, semester *int) error {
	const query = `
		UPDATE members
		SET display_id = $2, mobile = $3, department = $4, semester = $5,
		    profile_completed = TRUE, updated_at = NOW()
		WHERE subject_id = $1
	`

	cmd, err := r.pool.Exec(ctx, query, subjectID, displayID, mobile, department, semester)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrMemberNotFound
	}
	return nil
}

// SetProofPending records a document upload. Only not_uploaded and rejected
// move to pending; anything else is an invalid transition.
func (r *MemberRepository) SetProofPending(ctx context.Context, subjectID, proofURL string) error {
	const query = `
		UPDATE members
		SET id_proof_url = $2, id_proof_status = 'pending',
		    id_proof_rejection_reason = NULL, updated_at = NOW()
		WHERE subject_id = $1
		  AND id_proof_status IN ('not_uploaded', 'rejected')
	`

	return r.transition(ctx, subjectID, query, proofURL)
}

func (r *MemberRepository) ApproveProof(ctx context.Context, subjectID string) error {
	const query = `
		UPDATE members
		SET id_proof_status = 'verified', id_proof_rejection_reason = NULL,
		    updated_at = NOW()
		WHERE subject_id = $1 AND id_proof_status = 'pending'
	`

	return r.transition(ctx, subjectID, query)
}

func (r *MemberRepository) RejectProof(ctx context.Context, subjectID, reason string) error {
	const query = `
		UPDATE members
		SET id_proof_status = 'rejected', id_proof_rejection_reason = $2,
		    updated_at = NOW()
		WHERE subject_id = $1 AND id_proof_status = 'pending'
	`

	return r.transition(ctx, subjectID, query, reason)
}

// SetSuspended toggles suspension in either direction, independent of the
// verification state.
func (r *MemberRepository) SetSuspended(ctx context.Context, subjectID string, suspended bool) error {
	const query = `
		UPDATE members SET suspended = $2, updated_at = NOW() WHERE subject_id = $1
	`

	cmd, err := r.pool.Exec(ctx, query, subjectID, suspended)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrMemberNotFound
	}
	return nil
}

func (r *MemberRepository) transition(ctx context.Context, subjectID, query string, args ...any) error {
	queryArgs := append([]any{subjectID}, args...)
	cmd, err := r.pool.Exec(ctx, query, queryArgs...)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		if _, err := r.GetBySubjectID(ctx, subjectID); errors.Is(err, ErrMemberNotFound) {
			return ErrMemberNotFound
		}
		return ErrInvalidTransition
	}
	return nil
}

func (r *MemberRepository) scanOne(row pgx.Row) (models.MemberProfile, error) {
	var member models.MemberProfile
	if err := row.Scan(
		&member.SubjectID,
		&member.DisplayID,
		&member.Name,
		&member.Email,
		&member.Mobile,
		&member.Department,
		&member.Semester,
		&member.Role,
		&member.Suspended,
		&member.ProfileCompleted,
		&member.IDProofURL,
		&member.IDProofStatus,
		&member.RejectionReason,
		&member.CreatedAt,
		&member.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.MemberProfile{}, ErrMemberNotFound
		}
		return models.MemberProfile{}, err
	}
	return member, nil
}
