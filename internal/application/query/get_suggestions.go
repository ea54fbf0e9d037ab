// Package query contains read operations (CQRS - Queries).
package query

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/alem-hub/mentorship-hub/internal/domain/collaboration"
	"github.com/alem-hub/mentorship-hub/internal/domain/mentorship"
	"github.com/alem-hub/mentorship-hub/internal/domain/shared"
	"github.com/alem-hub/mentorship-hub/internal/infrastructure/metrics"
	"github.com/alem-hub/mentorship-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET SUGGESTIONS QUERY
// Builds the tiered suggestion list for one seeking mentorship. Reads are
// lock-free; a list may lag an in-flight accept or decline by one refresh.
// ══════════════════════════════════════════════════════════════════════════════

// GetSuggestionsQuery contains the parameters of the query.
type GetSuggestionsQuery struct {
	// MentorshipID is the seeking mentorship.
	MentorshipID string

	// MentorID optionally names the seeking mentor. When set it must own
	// the mentorship.
	MentorID string

	// SkipCache forces a fresh computation and replaces the cached list
	// with it. Cached lists are dropped on every lifecycle event, but new
	// evaluation ratings and mentorship status changes do not bump the
	// generation: until a refresh they stay unseen for up to the cache TTL.
	SkipCache bool
}

// Validate checks the query parameters.
func (q GetSuggestionsQuery) Validate() error {
	if _, err := uuid.Parse(q.MentorshipID); err != nil {
		return shared.NewCodedError("query", "GetSuggestions", shared.ErrInvalidID,
			shared.CodeValidation, "mentorship_id must be a UUID")
	}
	if q.MentorID != "" {
		if _, err := uuid.Parse(q.MentorID); err != nil {
			return shared.NewCodedError("query", "GetSuggestions", shared.ErrInvalidID,
				shared.CodeValidation, "mentor_id must be a UUID")
		}
	}
	return nil
}

// SuggestionDTO is one suggested collaborator.
type SuggestionDTO struct {
	Tier     int    `json:"tier"`
	TierName string `json:"tier_name"`
	CardID   string `json:"card_id"`

	Candidate collaboration.Party `json:"candidate"`

	MatchedCategories []string `json:"matched_categories"`
	MatchCount        int      `json:"match_count"`

	// Basis is the overlap a fallback suggestion was ranked on; "none"
	// when the two sides share no classified category.
	Basis string `json:"basis"`

	SeekerStrengths     []string `json:"seeker_strengths"`
	SeekerWeaknesses    []string `json:"seeker_weaknesses"`
	CandidateStrengths  []string `json:"candidate_strengths"`
	CandidateWeaknesses []string `json:"candidate_weaknesses"`
}

// GetSuggestionsResult is the query result; it is also the cached value.
type GetSuggestionsResult struct {
	MentorshipID string          `json:"mentorship_id"`
	Suggestions  []SuggestionDTO `json:"suggestions"`
	Threshold    int             `json:"threshold"`
	GeneratedAt  time.Time       `json:"generated_at"`
	Cached       bool            `json:"cached"`
}

// SuggestionCache stores results per seeking mentorship. Load returns the
// cache generation the lookup ran against; Store files the value under it.
type SuggestionCache interface {
	Load(ctx context.Context, mentorshipID string, dest interface{}) (generation int64, hit bool, err error)
	Store(ctx context.Context, generation int64, mentorshipID string, value interface{}) error
}

// GetSuggestionsHandler handles the GetSuggestionsQuery.
type GetSuggestionsHandler struct {
	mentorships    mentorship.Directory
	ratings        mentorship.RatingReader
	requests       collaboration.RequestRepository
	collaborations collaboration.CollaborationRepository
	classifier     mentorship.Classifier
	matcher        collaboration.Matcher
	cache          SuggestionCache
	log            *logger.Logger
}

// NewGetSuggestionsHandler creates a new GetSuggestionsHandler. cache may be nil.
func NewGetSuggestionsHandler(
	mentorships mentorship.Directory,
	ratings mentorship.RatingReader,
	requests collaboration.RequestRepository,
	collaborations collaboration.CollaborationRepository,
	classifier mentorship.Classifier,
	matcher collaboration.Matcher,
	cache SuggestionCache,
	log *logger.Logger,
) *GetSuggestionsHandler {
	if log == nil {
		log = logger.Default()
	}
	return &GetSuggestionsHandler{
		mentorships:    mentorships,
		ratings:        ratings,
		requests:       requests,
		collaborations: collaborations,
		classifier:     classifier,
		matcher:        matcher,
		cache:          cache,
		log:            log.Named("suggestions"),
	}
}

// Handle executes the query.
func (h *GetSuggestionsHandler) Handle(ctx context.Context, q GetSuggestionsQuery) (*GetSuggestionsResult, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	seeker, err := h.mentorships.GetByID(ctx, q.MentorshipID)
	if err != nil {
		return nil, err
	}
	if q.MentorID != "" && seeker.MentorID != q.MentorID {
		return nil, shared.NewCodedError("query", "GetSuggestions", shared.ErrInvalidInput,
			shared.CodeValidation, "mentor does not own this mentorship")
	}
	if !seeker.IsActive() {
		return nil, mentorship.ErrMentorshipInactive.WithOp("GetSuggestions")
	}

	// A refresh still reads the generation so the fresh list can overwrite
	// the stale one.
	var generation int64
	useCache := h.cache != nil
	if useCache {
		var cached GetSuggestionsResult
		gen, hit, err := h.cache.Load(ctx, seeker.ID, &cached)
		switch {
		case err != nil:
			h.log.Warn("suggestion cache read failed", logger.MentorshipID(seeker.ID), logger.Err(err))
			useCache = false
		case hit && !q.SkipCache:
			metrics.RecordCacheLookup(true)
			cached.Cached = true
			return &cached, nil
		default:
			if !q.SkipCache {
				metrics.RecordCacheLookup(false)
			}
			generation = gen
		}
	}

	result, err := h.compute(ctx, seeker)
	if err != nil {
		return nil, err
	}

	for _, s := range result.Suggestions {
		metrics.RecordSuggestion(s.TierName)
	}

	if useCache {
		if err := h.cache.Store(ctx, generation, seeker.ID, result); err != nil {
			h.log.Warn("suggestion cache write failed", logger.MentorshipID(seeker.ID), logger.Err(err))
		}
	}

	return result, nil
}

func (h *GetSuggestionsHandler) compute(ctx context.Context, seeker *mentorship.Mentorship) (*GetSuggestionsResult, error) {
	active, err := h.mentorships.ListActive(ctx)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(active)+1)
	ids = append(ids, seeker.ID)
	for _, m := range active {
		if m.ID != seeker.ID {
			ids = append(ids, m.ID)
		}
	}

	avgs, err := h.ratings.CategoryAverages(ctx, ids...)
	if err != nil {
		return nil, err
	}
	traits := h.classifier.Classify(avgs)

	profileOf := func(m *mentorship.Mentorship) collaboration.Profile {
		set, ok := traits[m.ID]
		if !ok {
			set = mentorship.TraitSet{MentorshipID: m.ID, Traits: []mentorship.Trait{}}
		}
		return collaboration.Profile{Mentorship: m, Traits: set}
	}

	candidates := make([]collaboration.Profile, 0, len(active))
	for _, m := range active {
		candidates = append(candidates, profileOf(m))
	}

	collabs, err := h.collaborations.ListActiveByMentorship(ctx, seeker.ID)
	if err != nil {
		return nil, err
	}
	pending, err := h.requests.ListPendingInvolvingSE(ctx, seeker.SEID)
	if err != nil {
		return nil, err
	}

	suggestions := h.matcher.Suggest(collaboration.MatchInput{
		Seeker:               profileOf(seeker),
		Candidates:           candidates,
		ActiveCollaborations: collabs,
		PendingRequests:      pending,
	})

	out := make([]SuggestionDTO, 0, len(suggestions))
	for _, s := range suggestions {
		out = append(out, toSuggestionDTO(s))
	}

	return &GetSuggestionsResult{
		MentorshipID: seeker.ID,
		Suggestions:  out,
		Threshold:    h.matcher.Threshold(),
		GeneratedAt:  time.Now().UTC(),
	}, nil
}

func toSuggestionDTO(s collaboration.Suggestion) SuggestionDTO {
	return SuggestionDTO{
		Tier:                int(s.Tier),
		TierName:            s.Tier.String(),
		CardID:              s.CardID,
		Candidate:           s.Candidate,
		MatchedCategories:   s.MatchedCategories,
		MatchCount:          s.MatchCount(),
		Basis:               s.Basis.String(),
		SeekerStrengths:     s.SeekerStrengths,
		SeekerWeaknesses:    s.SeekerWeaknesses,
		CandidateStrengths:  s.CandidateStrengths,
		CandidateWeaknesses: s.CandidateWeaknesses,
	}
}
