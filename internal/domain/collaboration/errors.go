package collaboration

import (
	"github.com/alem-hub/mentorship-hub/internal/domain/shared"
)

// Wire codes returned to clients.
const (
	CodeDuplicateCard           = "DUPLICATE_CARD"
	CodeRequestNotFound         = "REQUEST_NOT_FOUND"
	CodeRequestAlreadyAccepted  = "REQUEST_ALREADY_ACCEPTED"
	CodeRequestAlreadyDeclined  = "REQUEST_ALREADY_DECLINED"
	CodeCardIDMismatch          = "CARD_ID_MISMATCH"
	CodeSuggestedMentorMismatch = "SUGGESTED_MENTOR_MISMATCH"
	CodeRequestStateChanged     = "REQUEST_STATE_CHANGED"
	CodeCollaborationExists     = "COLLABORATION_EXISTS"
	CodeSameMentor              = "SAME_MENTOR"
	CodeInvalidTier             = "INVALID_TIER"
	CodeInvalidCardID           = "INVALID_CARD_ID"
	CodeLockTimeout             = "LOCK_TIMEOUT"
)

const domain = "collaboration"

var (
	ErrDuplicateCard = shared.NewCodedError(domain, "Propose", shared.ErrConflict,
		CodeDuplicateCard, "a pending request already exists for this card")
	ErrRequestNotFound = shared.NewCodedError(domain, "Find", shared.ErrNotFound,
		CodeRequestNotFound, "collaboration request not found")
	ErrRequestAlreadyAccepted = shared.NewCodedError(domain, "Transition", shared.ErrStateTransition,
		CodeRequestAlreadyAccepted, "collaboration request was already accepted")
	ErrRequestAlreadyDeclined = shared.NewCodedError(domain, "Transition", shared.ErrStateTransition,
		CodeRequestAlreadyDeclined, "collaboration request was already declined")
	ErrCardIDMismatch = shared.NewCodedError(domain, "Verify", shared.ErrConflict,
		CodeCardIDMismatch, "card id does not match the collaboration request")
	ErrSuggestedMentorMismatch = shared.NewCodedError(domain, "Verify", shared.ErrConflict,
		CodeSuggestedMentorMismatch, "suggested mentor changed since the request was made")
	ErrRequestStateChanged = shared.NewCodedError(domain, "Transition", shared.ErrStateTransition,
		CodeRequestStateChanged, "collaboration request changed state concurrently")
	ErrCollaborationExists = shared.NewCodedError(domain, "Propose", shared.ErrConflict,
		CodeCollaborationExists, "an active collaboration already links these mentorships")
	ErrSameMentor = shared.NewCodedError(domain, "Propose", shared.ErrInvalidInput,
		CodeSameMentor, "both mentorships belong to the same mentor")
	ErrInvalidTier = shared.NewCodedError(domain, "Validate", shared.ErrValueOutOfRange,
		CodeInvalidTier, "tier must be between 1 and 4")
	ErrInvalidCardID = shared.NewCodedError(domain, "Validate", shared.ErrInvalidFormat,
		CodeInvalidCardID, "card id must be two UUIDs joined by '_'")
	ErrLockTimeout = shared.NewCodedError(domain, "Lock", shared.ErrTransient,
		CodeLockTimeout, "timed out waiting for the collaboration request lock")
)

// ErrAlreadyTerminal returns the REQUEST_ALREADY_<STATUS> error for a
// terminal status, or nil for Pending.
func ErrAlreadyTerminal(s Status) error {
	switch s {
	case StatusAccepted:
		return ErrRequestAlreadyAccepted
	case StatusDeclined:
		return ErrRequestAlreadyDeclined
	default:
		return nil
	}
}

// CodeCollaborationNotFound is returned when no collaboration matches a lookup.
const CodeCollaborationNotFound = "COLLABORATION_NOT_FOUND"

var ErrCollaborationNotFound = shared.NewCodedError(domain, "Find", shared.ErrNotFound,
	CodeCollaborationNotFound, "collaboration not found")
