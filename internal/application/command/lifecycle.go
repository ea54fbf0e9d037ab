// Package command contains write operations (CQRS - Commands).
package command

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/alem-hub/mentorship-hub/internal/domain/collaboration"
	"github.com/alem-hub/mentorship-hub/internal/domain/mentorship"
	"github.com/alem-hub/mentorship-hub/internal/domain/shared"
	"github.com/alem-hub/mentorship-hub/internal/infrastructure/metrics"
	"github.com/alem-hub/mentorship-hub/pkg/logger"
	"github.com/alem-hub/mentorship-hub/pkg/retry"
)

// ══════════════════════════════════════════════════════════════════════════════
// REQUEST LIFECYCLE
// Propose, Accept and Decline share one way of running: validate before any
// I/O, run the unit of work in a single transaction, retry the whole
// transaction on transient failures only, publish events after commit.
// ══════════════════════════════════════════════════════════════════════════════

// DefaultTxAttempts is the number of times a lifecycle transaction is tried.
const DefaultTxAttempts = 3

// LifecycleDeps are the collaborators shared by the lifecycle handlers.
type LifecycleDeps struct {
	Tx             collaboration.TxManager
	Requests       collaboration.RequestRepository
	Collaborations collaboration.CollaborationRepository
	Mentorships    mentorship.Directory
	Notifier       collaboration.Notifier
	Events         shared.EventPublisher
	Logger         *logger.Logger

	// TxAttempts bounds transient retries. Zero means DefaultTxAttempts.
	TxAttempts int

	// NewID generates request and collaboration ids. Defaults to uuid.NewString.
	NewID func() string
}

func (d LifecycleDeps) withDefaults() LifecycleDeps {
	if d.Events == nil {
		d.Events = shared.NopPublisher{}
	}
	if d.Logger == nil {
		d.Logger = logger.Default()
	}
	if d.TxAttempts <= 0 {
		d.TxAttempts = DefaultTxAttempts
	}
	if d.NewID == nil {
		d.NewID = uuid.NewString
	}
	return d
}

// runner executes one lifecycle operation.
type runner struct {
	op   string
	deps LifecycleDeps
}

func newRunner(op string, deps LifecycleDeps) runner {
	return runner{op: op, deps: deps}
}

// run executes fn in a transaction, retrying transient failures. fn must be
// safe to re-run from scratch: it is handed a fresh transaction each time.
func (r runner) run(ctx context.Context, fn func(ctx context.Context) error) error {
	start := time.Now()
	attempts := 1

	retrier := retry.TransactionRetrier(r.deps.TxAttempts, shared.IsRetryable,
		retry.WithOnRetry(func(attempt int, err error, delay time.Duration) {
			attempts = attempt + 1
			metrics.RecordTxRetry(r.op)
			r.logFor(ctx).Debug("retrying collaboration transaction",
				logger.Operation(r.op),
				logger.Int("attempt", attempt),
				logger.Duration("delay", delay),
				logger.Err(err),
			)
		}),
	)
	err := retrier.Do(ctx, func(ctx context.Context) error {
		return r.deps.Tx.WithinTx(ctx, fn)
	})

	metrics.RecordLifecycle(r.op, outcomeCode(err), time.Since(start))
	if err != nil {
		r.logOutcome(ctx, err, attempts)
	}
	return err
}

func (r runner) logOutcome(ctx context.Context, err error, attempts int) {
	log := r.logFor(ctx).With(
		logger.Operation(r.op),
		logger.Code(outcomeCode(err)),
		logger.Int("attempts", attempts),
	)
	switch {
	case shared.IsValidation(err), shared.IsNotFound(err), shared.IsConflict(err):
		log.Warn("collaboration request rejected", logger.Err(err))
	case shared.IsRetryable(err):
		log.Warn("collaboration request gave up after transient failures", logger.Err(err))
	case errors.Is(err, context.Canceled):
		log.Info("collaboration request canceled")
	default:
		log.Error("collaboration request failed", logger.Err(err))
	}
}

// logFor prefers the request-scoped logger and falls back to the one the
// handler was built with.
func (r runner) logFor(ctx context.Context) *logger.Logger {
	return logger.FromContextOr(ctx, r.deps.Logger)
}

func (r runner) publish(ctx context.Context, event shared.Event) {
	if err := r.deps.Events.Publish(ctx, event); err != nil {
		r.logFor(ctx).Warn("failed to publish event",
			logger.String("event_type", string(event.EventType())),
			logger.Err(err),
		)
	}
}

func outcomeCode(err error) string {
	if err == nil {
		return metrics.CodeOK
	}
	if code := shared.CodeOf(err); code != "" {
		return code
	}
	return shared.CodeInternal
}

// ══════════════════════════════════════════════════════════════════════════════
// INPUT VALIDATION
// ══════════════════════════════════════════════════════════════════════════════

func invalid(op, message string) error {
	return shared.NewCodedError("collaboration", op, shared.ErrInvalidID, shared.CodeValidation, message)
}

func checkUUID(op, field, value string) error {
	if _, err := uuid.Parse(value); err != nil {
		return invalid(op, field+" must be a UUID")
	}
	return nil
}

// resolveActive loads a mentorship and requires it to be active.
func resolveActive(ctx context.Context, dir mentorship.Directory, op, id string) (*mentorship.Mentorship, error) {
	m, err := dir.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !m.IsActive() {
		return nil, mentorship.ErrMentorshipInactive.WithOp(op)
	}
	return m, nil
}
