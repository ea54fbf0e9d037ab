package collaboration

import (
	"context"
)

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORY INTERFACES
// Implementations live in infrastructure/persistence. Every method reads and
// writes through the transaction carried by ctx when one is present, so the
// lifecycle commands can compose several repositories in one unit of work.
// ══════════════════════════════════════════════════════════════════════════════

// TxManager runs a unit of work inside a single transaction.
type TxManager interface {
	// WithinTx runs fn with a ctx that carries the transaction. A nil return
	// commits; any error (or panic) rolls everything back.
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// RequestRepository owns CollaborationRequest rows.
type RequestRepository interface {
	// Create inserts a Pending request.
	// Returns ErrDuplicateCard if a Pending request already uses the card id.
	Create(ctx context.Context, req *Request) error

	// GetByID returns ErrRequestNotFound if the request does not exist.
	GetByID(ctx context.Context, id string) (*Request, error)

	// FindPendingByCard returns the Pending request for a card, or
	// ErrRequestNotFound.
	FindPendingByCard(ctx context.Context, cardID string) (*Request, error)

	// LockByID locks the row for the rest of the transaction.
	// Returns ErrRequestNotFound, or ErrLockTimeout when the wait budget runs out.
	LockByID(ctx context.Context, id string) (*Request, error)

	// LockByCard locks the request for a card: the Pending one if present,
	// otherwise the most recent.
	LockByCard(ctx context.Context, cardID string) (*Request, error)

	// UpdateStatusIfPending performs the guarded Pending -> to transition and
	// reports whether a row changed.
	UpdateStatusIfPending(ctx context.Context, id string, to Status) (bool, error)

	// ListPendingInvolvingSE returns Pending requests where the SE is on
	// either side.
	ListPendingInvolvingSE(ctx context.Context, seID string) ([]*Request, error)
}

// CollaborationRepository owns Collaboration rows.
type CollaborationRepository interface {
	// Create inserts a collaboration. A second collaboration for the same
	// request is rejected with ErrCollaborationExists.
	Create(ctx context.Context, c *Collaboration) error

	// GetByRequestID returns ErrCollaborationNotFound if nothing was materialized.
	GetByRequestID(ctx context.Context, requestID string) (*Collaboration, error)

	// ListActiveByMentorship returns active collaborations on either side.
	ListActiveByMentorship(ctx context.Context, mentorshipID string) ([]*Collaboration, error)

	// ExistsActiveBetween checks both directions.
	ExistsActiveBetween(ctx context.Context, a, b string) (bool, error)
}

// Notification is an in-app message for one mentor.
type Notification struct {
	ReceiverMentorID string
	Title            string
	Message          string
	TargetRoute      string
}

// Notifier delivers notifications using the transaction carried by ctx, so a
// notification never outlives a rolled back state change.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}
