package command

import (
	"context"
	"fmt"

	"github.com/alem-hub/mentorship-hub/internal/domain/collaboration"
	"github.com/alem-hub/mentorship-hub/internal/domain/shared"
	"github.com/alem-hub/mentorship-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// ACCEPT / DECLINE COLLABORATION COMMANDS
// Both lock the request row first; every later check runs against the locked
// row. The request is the single serialization point per pairing, so of any
// number of concurrent Accept/Decline calls at most one succeeds.
// ══════════════════════════════════════════════════════════════════════════════

// RespondCommand identifies the request to act on. At least one identifier
// is required; when both are given the request is located by id and the
// card id must match it.
type RespondCommand struct {
	RequestID string
	CardID    string
}

// Validate checks identifier formats without touching storage.
func (c RespondCommand) Validate(op string) error {
	if c.RequestID == "" && c.CardID == "" {
		return invalid(op, "mentorship_collaboration_request_id or collaboration_card_id is required")
	}
	if c.RequestID != "" {
		if err := checkUUID(op, "mentorship_collaboration_request_id", c.RequestID); err != nil {
			return err
		}
	}
	if c.CardID != "" {
		if _, _, err := collaboration.ParseCardID(c.CardID); err != nil {
			return err
		}
	}
	return nil
}

// lockTarget locks the request and runs the checks shared by Accept and
// Decline: still Pending, and card id consistent with the caller's view.
func lockTarget(ctx context.Context, repo collaboration.RequestRepository, op string, cmd RespondCommand) (*collaboration.Request, error) {
	var (
		req *collaboration.Request
		err error
	)
	if cmd.RequestID != "" {
		req, err = repo.LockByID(ctx, cmd.RequestID)
	} else {
		card, _ := collaboration.CanonicalCardID(cmd.CardID)
		req, err = repo.LockByCard(ctx, card)
	}
	if err != nil {
		return nil, err
	}

	if err := req.CheckPending(); err != nil {
		return nil, err
	}

	if cmd.CardID != "" {
		supplied, _ := collaboration.CanonicalCardID(cmd.CardID)
		if supplied != req.CardID {
			return nil, collaboration.ErrCardIDMismatch.WithOp(op)
		}
	}
	return req, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// ACCEPT
// ══════════════════════════════════════════════════════════════════════════════

// AcceptCollaborationCommand accepts a pending request.
type AcceptCollaborationCommand = RespondCommand

// AcceptCollaborationResult contains the accepted request and the
// collaboration materialized from it.
type AcceptCollaborationResult struct {
	Request       *collaboration.Request
	Collaboration *collaboration.Collaboration
}

// AcceptCollaborationHandler handles the AcceptCollaborationCommand.
type AcceptCollaborationHandler struct {
	deps LifecycleDeps
	run  runner
}

// NewAcceptCollaborationHandler creates a new AcceptCollaborationHandler.
func NewAcceptCollaborationHandler(deps LifecycleDeps) *AcceptCollaborationHandler {
	deps = deps.withDefaults()
	return &AcceptCollaborationHandler{deps: deps, run: newRunner("accept", deps)}
}

// Handle executes the accept command.
func (h *AcceptCollaborationHandler) Handle(ctx context.Context, cmd AcceptCollaborationCommand) (*AcceptCollaborationResult, error) {
	if err := cmd.Validate("Accept"); err != nil {
		return nil, err
	}

	var result *AcceptCollaborationResult
	err := h.run.run(ctx, func(ctx context.Context) error {
		result = nil

		req, err := lockTarget(ctx, h.deps.Requests, "Accept", cmd)
		if err != nil {
			return err
		}

		// Either mentorship may have ended, or been handed to another
		// mentor, since the suggestion was shown.
		if _, err := resolveActive(ctx, h.deps.Mentorships, "Accept", req.Seeking.MentorshipID); err != nil {
			return err
		}
		suggested, err := resolveActive(ctx, h.deps.Mentorships, "Accept", req.Suggested.MentorshipID)
		if err != nil {
			return err
		}
		if suggested.MentorID != req.Suggested.MentorID {
			return collaboration.ErrSuggestedMentorMismatch.WithOp("Accept")
		}

		collab := collaboration.NewCollaboration(h.deps.NewID(), req)
		if err := h.deps.Collaborations.Create(ctx, collab); err != nil {
			return err
		}

		flipped, err := h.deps.Requests.UpdateStatusIfPending(ctx, req.ID, collaboration.StatusAccepted)
		if err != nil {
			return err
		}
		if !flipped {
			return collaboration.ErrRequestStateChanged.WithOp("Accept")
		}
		if err := req.Accept(); err != nil {
			return err
		}

		if err := h.deps.Notifier.Notify(ctx, acceptedNotification(req)); err != nil {
			return fmt.Errorf("notify seeking mentor: %w", err)
		}

		result = &AcceptCollaborationResult{Request: req, Collaboration: collab}
		return nil
	})
	if err != nil {
		return nil, err
	}

	ev := shared.NewCollaborationEvent(
		shared.EventCollaborationAccepted,
		result.Request.ID, result.Request.CardID, int(result.Request.Tier),
		result.Request.Seeking.MentorshipID, result.Request.Suggested.MentorshipID,
	)
	ev.CollaborationID = result.Collaboration.ID
	h.run.publish(ctx, ev)

	h.run.logFor(ctx).Info("collaboration accepted",
		logger.CollabRequestID(result.Request.ID),
		logger.CardID(result.Request.CardID),
		logger.Tier(int(result.Collaboration.Tier)),
		logger.String("collaboration_id", result.Collaboration.ID),
	)

	return result, nil
}

func acceptedNotification(req *collaboration.Request) collaboration.Notification {
	return collaboration.Notification{
		ReceiverMentorID: req.Seeking.MentorID,
		Title:            "Collaboration request accepted",
		Message: fmt.Sprintf("%s (%s) accepted your collaboration request.",
			req.Suggested.MentorName, req.Suggested.SEName),
		TargetRoute: "/collaborations",
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// DECLINE
// ══════════════════════════════════════════════════════════════════════════════

// DeclineCollaborationCommand declines a pending request.
type DeclineCollaborationCommand = RespondCommand

// DeclineCollaborationResult contains the declined request.
type DeclineCollaborationResult struct {
	Request *collaboration.Request
}

// DeclineCollaborationHandler handles the DeclineCollaborationCommand.
type DeclineCollaborationHandler struct {
	deps LifecycleDeps
	run  runner
}

// NewDeclineCollaborationHandler creates a new DeclineCollaborationHandler.
func NewDeclineCollaborationHandler(deps LifecycleDeps) *DeclineCollaborationHandler {
	deps = deps.withDefaults()
	return &DeclineCollaborationHandler{deps: deps, run: newRunner("decline", deps)}
}

// Handle executes the decline command. Declined requests are kept, so a
// later call on the same request reports REQUEST_ALREADY_DECLINED.
func (h *DeclineCollaborationHandler) Handle(ctx context.Context, cmd DeclineCollaborationCommand) (*DeclineCollaborationResult, error) {
	if err := cmd.Validate("Decline"); err != nil {
		return nil, err
	}

	var declined *collaboration.Request
	err := h.run.run(ctx, func(ctx context.Context) error {
		declined = nil

		req, err := lockTarget(ctx, h.deps.Requests, "Decline", cmd)
		if err != nil {
			return err
		}

		flipped, err := h.deps.Requests.UpdateStatusIfPending(ctx, req.ID, collaboration.StatusDeclined)
		if err != nil {
			return err
		}
		if !flipped {
			return collaboration.ErrRequestStateChanged.WithOp("Decline")
		}
		if err := req.Decline(); err != nil {
			return err
		}

		if err := h.deps.Notifier.Notify(ctx, declinedNotification(req)); err != nil {
			return fmt.Errorf("notify seeking mentor: %w", err)
		}

		declined = req
		return nil
	})
	if err != nil {
		return nil, err
	}

	h.run.publish(ctx, shared.NewCollaborationEvent(
		shared.EventCollaborationDeclined,
		declined.ID, declined.CardID, int(declined.Tier),
		declined.Seeking.MentorshipID, declined.Suggested.MentorshipID,
	))

	h.run.logFor(ctx).Info("collaboration declined",
		logger.CollabRequestID(declined.ID),
		logger.CardID(declined.CardID),
		logger.MentorID(declined.Suggested.MentorID),
	)

	return &DeclineCollaborationResult{Request: declined}, nil
}

func declinedNotification(req *collaboration.Request) collaboration.Notification {
	return collaboration.Notification{
		ReceiverMentorID: req.Seeking.MentorID,
		Title:            "Collaboration request declined",
		Message: fmt.Sprintf("%s (%s) declined your collaboration request.",
			req.Suggested.MentorName, req.Suggested.SEName),
		TargetRoute: "/collaborations/suggestions/" + req.Seeking.MentorshipID,
	}
}
