package query

import (
	"context"

	"github.com/google/uuid"

	"github.com/alem-hub/mentorship-hub/internal/domain/mentorship"
	"github.com/alem-hub/mentorship-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET TRAITS QUERY
// Classifier output for one mentorship, recomputed from the latest ratings.
// ══════════════════════════════════════════════════════════════════════════════

// GetTraitsQuery contains the parameters of the query.
type GetTraitsQuery struct {
	MentorshipID string
}

// TraitsResult lists the classified categories of one mentorship.
type TraitsResult struct {
	MentorshipID string             `json:"mentorship_id"`
	Cutoff       float64            `json:"strength_cutoff"`
	Traits       []mentorship.Trait `json:"traits"`
	Strengths    []string           `json:"strengths"`
	Weaknesses   []string           `json:"weaknesses"`

	// NoData is set when the mentorship has no evaluations yet; such a
	// mentorship only ever receives fallback suggestions.
	NoData bool `json:"no_data"`
}

// GetTraitsHandler handles the GetTraitsQuery.
type GetTraitsHandler struct {
	mentorships mentorship.Directory
	ratings     mentorship.RatingReader
	classifier  mentorship.Classifier
}

// NewGetTraitsHandler creates a new GetTraitsHandler.
func NewGetTraitsHandler(mentorships mentorship.Directory, ratings mentorship.RatingReader, classifier mentorship.Classifier) *GetTraitsHandler {
	return &GetTraitsHandler{mentorships: mentorships, ratings: ratings, classifier: classifier}
}

// Handle executes the query.
func (h *GetTraitsHandler) Handle(ctx context.Context, q GetTraitsQuery) (*TraitsResult, error) {
	if _, err := uuid.Parse(q.MentorshipID); err != nil {
		return nil, shared.NewCodedError("query", "GetTraits", shared.ErrInvalidID,
			shared.CodeValidation, "mentorship_id must be a UUID")
	}

	if _, err := h.mentorships.GetByID(ctx, q.MentorshipID); err != nil {
		return nil, err
	}

	avgs, err := h.ratings.CategoryAverages(ctx, q.MentorshipID)
	if err != nil {
		return nil, err
	}
	set := h.classifier.ClassifyOne(q.MentorshipID, avgs)

	return &TraitsResult{
		MentorshipID: q.MentorshipID,
		Cutoff:       h.classifier.Cutoff(),
		Traits:       set.Traits,
		Strengths:    set.Strengths(),
		Weaknesses:   set.Weaknesses(),
		NoData:       set.IsEmpty(),
	}, nil
}
