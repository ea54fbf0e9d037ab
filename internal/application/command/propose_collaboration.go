package command

import (
	"context"
	"fmt"

	"github.com/alem-hub/mentorship-hub/internal/domain/collaboration"
	"github.com/alem-hub/mentorship-hub/internal/domain/shared"
	"github.com/alem-hub/mentorship-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// PROPOSE COLLABORATION COMMAND
// A seeking mentorship asks a suggested mentorship to collaborate. The
// request is stored Pending under the canonical card id, and the suggested
// mentor is notified in the same transaction.
// ══════════════════════════════════════════════════════════════════════════════

// ProposeCollaborationCommand contains the data to propose a collaboration.
type ProposeCollaborationCommand struct {
	SeekingMentorshipID   string
	SuggestedMentorshipID string

	// Tier is the tier the suggestion was shown under (1-4).
	Tier int

	// CardID is optional. When set it must equal the canonical card id of
	// the two mentorships' enterprises.
	CardID string
}

// Validate validates the command without touching storage.
func (c ProposeCollaborationCommand) Validate() error {
	if err := checkUUID("Propose", "seeking_mentorship_id", c.SeekingMentorshipID); err != nil {
		return err
	}
	if err := checkUUID("Propose", "suggested_mentorship_id", c.SuggestedMentorshipID); err != nil {
		return err
	}
	if c.SeekingMentorshipID == c.SuggestedMentorshipID {
		return invalid("Propose", "a mentorship cannot collaborate with itself")
	}
	if _, err := collaboration.ParseTier(c.Tier); err != nil {
		return err
	}
	if c.CardID != "" {
		if _, _, err := collaboration.ParseCardID(c.CardID); err != nil {
			return err
		}
	}
	return nil
}

// ProposeCollaborationResult contains the created request.
type ProposeCollaborationResult struct {
	Request *collaboration.Request
}

// ProposeCollaborationHandler handles the ProposeCollaborationCommand.
type ProposeCollaborationHandler struct {
	deps LifecycleDeps
	run  runner
}

// NewProposeCollaborationHandler creates a new ProposeCollaborationHandler.
func NewProposeCollaborationHandler(deps LifecycleDeps) *ProposeCollaborationHandler {
	deps = deps.withDefaults()
	return &ProposeCollaborationHandler{deps: deps, run: newRunner("propose", deps)}
}

// Handle executes the propose command.
func (h *ProposeCollaborationHandler) Handle(ctx context.Context, cmd ProposeCollaborationCommand) (*ProposeCollaborationResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}
	tier := collaboration.Tier(cmd.Tier)

	var created *collaboration.Request
	err := h.run.run(ctx, func(ctx context.Context) error {
		created = nil

		seeking, err := resolveActive(ctx, h.deps.Mentorships, "Propose", cmd.SeekingMentorshipID)
		if err != nil {
			return err
		}
		suggested, err := resolveActive(ctx, h.deps.Mentorships, "Propose", cmd.SuggestedMentorshipID)
		if err != nil {
			return err
		}
		if seeking.SEID == suggested.SEID {
			return invalid("Propose", "both mentorships serve the same social enterprise")
		}

		req, err := collaboration.NewRequest(collaboration.NewRequestParams{
			ID:        h.deps.NewID(),
			Tier:      tier,
			Seeking:   seeking,
			Suggested: suggested,
		})
		if err != nil {
			return err
		}

		if cmd.CardID != "" {
			supplied, _ := collaboration.CanonicalCardID(cmd.CardID)
			if supplied != req.CardID {
				return collaboration.ErrCardIDMismatch.WithOp("Propose")
			}
		}

		linked, err := h.deps.Collaborations.ExistsActiveBetween(ctx, seeking.ID, suggested.ID)
		if err != nil {
			return err
		}
		if linked {
			return collaboration.ErrCollaborationExists
		}

		_, err = h.deps.Requests.FindPendingByCard(ctx, req.CardID)
		switch {
		case err == nil:
			return collaboration.ErrDuplicateCard
		case !shared.IsNotFound(err):
			return err
		}

		if err := h.deps.Requests.Create(ctx, req); err != nil {
			return err
		}

		if err := h.deps.Notifier.Notify(ctx, proposedNotification(req)); err != nil {
			return fmt.Errorf("notify suggested mentor: %w", err)
		}

		created = req
		return nil
	})
	if err != nil {
		return nil, err
	}

	h.run.publish(ctx, shared.NewCollaborationEvent(
		shared.EventCollaborationProposed,
		created.ID, created.CardID, int(created.Tier),
		created.Seeking.MentorshipID, created.Suggested.MentorshipID,
	))

	h.run.logFor(ctx).Info("collaboration proposed",
		logger.CollabRequestID(created.ID),
		logger.CardID(created.CardID),
		logger.Tier(int(created.Tier)),
		logger.MentorshipID(created.Seeking.MentorshipID),
	)

	return &ProposeCollaborationResult{Request: created}, nil
}

func proposedNotification(req *collaboration.Request) collaboration.Notification {
	return collaboration.Notification{
		ReceiverMentorID: req.Suggested.MentorID,
		Title:            "New collaboration request",
		Message: fmt.Sprintf("%s (%s) would like to collaborate with %s.",
			req.Seeking.MentorName, req.Seeking.SEName, req.Suggested.SEName),
		TargetRoute: "/collaborations/requests/" + req.ID,
	}
}
