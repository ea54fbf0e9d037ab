package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/alem-hub/mentorship-hub/internal/domain/collaboration"
	"github.com/alem-hub/mentorship-hub/internal/domain/mentorship"
)

// ══════════════════════════════════════════════════════════════════════════════
// COLLABORATION REQUEST REPOSITORY
// ══════════════════════════════════════════════════════════════════════════════

// RequestRepository implements collaboration.RequestRepository.
type RequestRepository struct {
	conn *Connection
}

// NewRequestRepository creates a new RequestRepository.
func NewRequestRepository(conn *Connection) *RequestRepository {
	return &RequestRepository{conn: conn}
}

const requestColumns = `
	id::text, card_id, tier, status,
	seeking_mentorship_id::text, seeking_mentor_id::text, seeking_mentor_name,
	seeking_se_id::text, seeking_se_name,
	suggested_mentorship_id::text, suggested_mentor_id::text, suggested_mentor_name,
	suggested_se_id::text, suggested_se_name,
	created_at, updated_at`

// Create inserts a Pending request. card_id is generated by the database from
// the two SE ids, so it always equals the canonical value.
func (r *RequestRepository) Create(ctx context.Context, req *collaboration.Request) error {
	query := `
		INSERT INTO mentorship_collaboration_requests (
			id, tier, status,
			seeking_mentorship_id, seeking_mentor_id, seeking_mentor_name, seeking_se_id, seeking_se_name,
			suggested_mentorship_id, suggested_mentor_id, suggested_mentor_name, suggested_se_id, suggested_se_name,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING card_id
	`

	err := r.conn.querier(ctx).QueryRow(ctx, query,
		req.ID,
		int(req.Tier),
		string(req.Status),
		req.Seeking.MentorshipID,
		req.Seeking.MentorID,
		req.Seeking.MentorName,
		req.Seeking.SEID,
		req.Seeking.SEName,
		req.Suggested.MentorshipID,
		req.Suggested.MentorID,
		req.Suggested.MentorName,
		req.Suggested.SEID,
		req.Suggested.SEName,
		req.CreatedAt,
		req.UpdatedAt,
	).Scan(&req.CardID)
	if err != nil {
		if IsUniqueViolation(err, constraintPendingCard) {
			return collaboration.ErrDuplicateCard.WithErr(err)
		}
		if IsForeignKeyViolation(err) {
			return mentorship.ErrMentorshipNotFound.WithOp("Propose")
		}
		return classify("CreateRequest", fmt.Errorf("failed to create collaboration request: %w", err))
	}

	return nil
}

// GetByID returns a request by id without locking it.
func (r *RequestRepository) GetByID(ctx context.Context, id string) (*collaboration.Request, error) {
	query := `SELECT ` + requestColumns + ` FROM mentorship_collaboration_requests WHERE id = $1`
	return r.scanRequest("GetRequest", r.conn.querier(ctx).QueryRow(ctx, query, id))
}

// FindPendingByCard returns the Pending request for a card.
func (r *RequestRepository) FindPendingByCard(ctx context.Context, cardID string) (*collaboration.Request, error) {
	query := `
		SELECT ` + requestColumns + `
		FROM mentorship_collaboration_requests
		WHERE card_id = $1 AND status = 'Pending'
	`
	return r.scanRequest("FindPendingByCard", r.conn.querier(ctx).QueryRow(ctx, query, cardID))
}

// LockByID locks the request row for the rest of the transaction.
func (r *RequestRepository) LockByID(ctx context.Context, id string) (*collaboration.Request, error) {
	query := `
		SELECT ` + requestColumns + `
		FROM mentorship_collaboration_requests
		WHERE id = $1
		FOR UPDATE
	`
	return r.scanRequest("LockByID", r.conn.querier(ctx).QueryRow(ctx, query, id))
}

// LockByCard locks the Pending request for a card, or the most recent one
// when none is pending, so terminal states stay observable.
func (r *RequestRepository) LockByCard(ctx context.Context, cardID string) (*collaboration.Request, error) {
	query := `
		SELECT ` + requestColumns + `
		FROM mentorship_collaboration_requests
		WHERE card_id = $1
		ORDER BY (status = 'Pending') DESC, created_at DESC
		LIMIT 1
		FOR UPDATE
	`
	return r.scanRequest("LockByCard", r.conn.querier(ctx).QueryRow(ctx, query, cardID))
}

// UpdateStatusIfPending flips a Pending request to a terminal status.
func (r *RequestRepository) UpdateStatusIfPending(ctx context.Context, id string, to collaboration.Status) (bool, error) {
	query := `
		UPDATE mentorship_collaboration_requests
		SET status = $2, updated_at = NOW()
		WHERE id = $1 AND status = 'Pending'
	`

	result, err := r.conn.querier(ctx).Exec(ctx, query, id, string(to))
	if err != nil {
		return false, classify("UpdateStatus", fmt.Errorf("failed to update request status: %w", err))
	}

	return result.RowsAffected() == 1, nil
}

// ListPendingInvolvingSE returns Pending requests with the SE on either side.
func (r *RequestRepository) ListPendingInvolvingSE(ctx context.Context, seID string) ([]*collaboration.Request, error) {
	query := `
		SELECT ` + requestColumns + `
		FROM mentorship_collaboration_requests
		WHERE status = 'Pending' AND (seeking_se_id = $1 OR suggested_se_id = $1)
		ORDER BY created_at
	`

	rows, err := r.conn.querier(ctx).Query(ctx, query, seID)
	if err != nil {
		return nil, classify("ListPending", fmt.Errorf("failed to list pending requests: %w", err))
	}
	defer rows.Close()

	out := make([]*collaboration.Request, 0)
	for rows.Next() {
		req, err := r.scanRequest("ListPending", rows)
		if err != nil {
			return nil, err
		}
		out = append(out, req)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("ListPending", fmt.Errorf("rows iteration error: %w", err))
	}

	return out, nil
}

func (r *RequestRepository) scanRequest(op string, row pgx.Row) (*collaboration.Request, error) {
	var req collaboration.Request
	var tier int
	var status string

	err := row.Scan(
		&req.ID,
		&req.CardID,
		&tier,
		&status,
		&req.Seeking.MentorshipID,
		&req.Seeking.MentorID,
		&req.Seeking.MentorName,
		&req.Seeking.SEID,
		&req.Seeking.SEName,
		&req.Suggested.MentorshipID,
		&req.Suggested.MentorID,
		&req.Suggested.MentorName,
		&req.Suggested.SEID,
		&req.Suggested.SEName,
		&req.CreatedAt,
		&req.UpdatedAt,
	)
	if IsNoRows(err) {
		return nil, collaboration.ErrRequestNotFound.WithOp(op)
	}
	if err != nil {
		return nil, classify(op, fmt.Errorf("failed to scan collaboration request: %w", err))
	}

	req.Tier = collaboration.Tier(tier)
	req.Status = collaboration.Status(status)

	return &req, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// COLLABORATION REPOSITORY
// ══════════════════════════════════════════════════════════════════════════════

// CollaborationRepository implements collaboration.CollaborationRepository.
type CollaborationRepository struct {
	conn *Connection
}

// NewCollaborationRepository creates a new CollaborationRepository.
func NewCollaborationRepository(conn *Connection) *CollaborationRepository {
	return &CollaborationRepository{conn: conn}
}

const collaborationColumns = `
	id::text, collaboration_request_id::text,
	seeking_collaboration_mentorship_id::text, suggested_collaborator_mentorship_id::text,
	tier, status, created_at`

// Create inserts a collaboration.
func (r *CollaborationRepository) Create(ctx context.Context, c *collaboration.Collaboration) error {
	query := `
		INSERT INTO mentorship_collaborations (
			id, collaboration_request_id,
			seeking_collaboration_mentorship_id, suggested_collaborator_mentorship_id,
			tier, status, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.conn.querier(ctx).Exec(ctx, query,
		c.ID,
		c.RequestID,
		c.SeekingMentorshipID,
		c.SuggestedMentorshipID,
		int(c.Tier),
		c.Status,
		c.CreatedAt,
	)
	if err != nil {
		if IsUniqueViolation(err, constraintCollabRequestUniq) || IsUniqueViolation(err, constraintCollabPairUniq) {
			return collaboration.ErrCollaborationExists.WithOp("Accept").WithErr(err)
		}
		return classify("CreateCollaboration", fmt.Errorf("failed to create collaboration: %w", err))
	}

	return nil
}

// GetByRequestID returns the collaboration materialized from a request.
func (r *CollaborationRepository) GetByRequestID(ctx context.Context, requestID string) (*collaboration.Collaboration, error) {
	query := `SELECT ` + collaborationColumns + ` FROM mentorship_collaborations WHERE collaboration_request_id = $1`
	return r.scanCollaboration(r.conn.querier(ctx).QueryRow(ctx, query, requestID))
}

// ListActiveByMentorship returns active collaborations on either side.
func (r *CollaborationRepository) ListActiveByMentorship(ctx context.Context, mentorshipID string) ([]*collaboration.Collaboration, error) {
	query := `
		SELECT ` + collaborationColumns + `
		FROM mentorship_collaborations
		WHERE status
		  AND (seeking_collaboration_mentorship_id = $1 OR suggested_collaborator_mentorship_id = $1)
		ORDER BY created_at
	`

	rows, err := r.conn.querier(ctx).Query(ctx, query, mentorshipID)
	if err != nil {
		return nil, classify("ListCollaborations", fmt.Errorf("failed to list collaborations: %w", err))
	}
	defer rows.Close()

	out := make([]*collaboration.Collaboration, 0)
	for rows.Next() {
		c, err := r.scanCollaboration(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("ListCollaborations", fmt.Errorf("rows iteration error: %w", err))
	}

	return out, nil
}

// ExistsActiveBetween checks both directions.
func (r *CollaborationRepository) ExistsActiveBetween(ctx context.Context, a, b string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM mentorship_collaborations
			WHERE status AND (
				(seeking_collaboration_mentorship_id = $1 AND suggested_collaborator_mentorship_id = $2) OR
				(seeking_collaboration_mentorship_id = $2 AND suggested_collaborator_mentorship_id = $1)
			)
		)
	`

	var exists bool
	if err := r.conn.querier(ctx).QueryRow(ctx, query, a, b).Scan(&exists); err != nil {
		return false, classify("ExistsCollaboration", fmt.Errorf("failed to check collaboration: %w", err))
	}
	return exists, nil
}

func (r *CollaborationRepository) scanCollaboration(row pgx.Row) (*collaboration.Collaboration, error) {
	var c collaboration.Collaboration
	var tier int

	err := row.Scan(
		&c.ID,
		&c.RequestID,
		&c.SeekingMentorshipID,
		&c.SuggestedMentorshipID,
		&tier,
		&c.Status,
		&c.CreatedAt,
	)
	if IsNoRows(err) {
		return nil, collaboration.ErrCollaborationNotFound
	}
	if err != nil {
		return nil, classify("ScanCollaboration", fmt.Errorf("failed to scan collaboration: %w", err))
	}

	c.Tier = collaboration.Tier(tier)
	return &c, nil
}
