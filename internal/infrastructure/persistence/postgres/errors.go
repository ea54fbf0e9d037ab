package postgres

import (
	"context"
	"errors"
	"net"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/alem-hub/mentorship-hub/internal/domain/collaboration"
	"github.com/alem-hub/mentorship-hub/internal/domain/shared"
)

// PostgreSQL error codes the repositories react to.
const (
	codeUniqueViolation      = "23505"
	codeForeignKeyViolation  = "23503"
	codeLockNotAvailable     = "55P03"
	codeDeadlockDetected     = "40P01"
	codeSerializationFailure = "40001"
	codeAdminShutdown        = "57P01"
	codeCannotConnectNow     = "57P03"
)

// Constraint names referenced by error mapping.
const (
	constraintPendingCard       = "mentorship_collaboration_requests_pending_card_key"
	constraintCollabRequestUniq = "mentorship_collaborations_request_id_key"
	constraintCollabPairUniq    = "mentorship_collaborations_active_pair_key"
)

// classify maps driver failures onto the domain taxonomy. Lock timeouts,
// deadlocks, serialization failures and lost connections become transient;
// everything else is returned unchanged.
func classify(op string, err error) error {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case codeLockNotAvailable:
			return collaboration.ErrLockTimeout.WithOp(op).WithErr(err)
		case codeDeadlockDetected, codeSerializationFailure, codeAdminShutdown, codeCannotConnectNow:
			return shared.Transient(op, "database contention", err)
		}
		return err
	}

	var connectErr *pgconn.ConnectError
	var netErr net.Error
	if errors.As(err, &connectErr) || errors.As(err, &netErr) || pgconn.SafeToRetry(err) {
		return shared.Transient(op, "database unavailable", err)
	}

	return err
}

// classifyCommit maps a failed Commit. A server-side rejection means the
// transaction rolled back, so the usual mapping applies. Anything else, a
// dropped connection included, may have committed and must not be re-run.
func classifyCommit(err error) error {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return classify("Commit", err)
	}
	return shared.WrapError("storage", "Commit", ErrCommitOutcomeUnknown, "commit outcome unknown", err)
}

// IsUniqueViolation checks if the error is a unique constraint violation.
// With a non-empty constraint it also checks the constraint name.
func IsUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == codeUniqueViolation && (constraint == "" || pgErr.ConstraintName == constraint)
	}
	return false
}

// IsForeignKeyViolation checks if the error is a foreign key violation.
func IsForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == codeForeignKeyViolation
	}
	return false
}

// IsNoRows checks if the error is a "no rows" error.
func IsNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
