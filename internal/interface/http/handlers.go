package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/alem-hub/mentorship-hub/internal/application/command"
	"github.com/alem-hub/mentorship-hub/internal/application/query"
	"github.com/alem-hub/mentorship-hub/internal/domain/collaboration"
	"github.com/alem-hub/mentorship-hub/internal/domain/shared"
	"github.com/alem-hub/mentorship-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// HEALTH & STATUS HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleHealth is the liveness probe; it never touches dependencies.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]interface{}{
		"status":  "healthy",
		"uptime":  s.Uptime().Round(time.Second).String(),
		"version": s.config.Version,
	}, nil)
}

// handleReady runs every registered dependency check.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	status := s.deps.HealthChecker.Check(r.Context())
	if !status.Ready {
		writeJSONErrorWithDetails(w, r, http.StatusServiceUnavailable, "NOT_READY", status.Message, "")
		return
	}
	writeJSON(w, r, http.StatusOK, status, nil)
}

// ══════════════════════════════════════════════════════════════════════════════
// REQUEST / RESPONSE BODIES
// ══════════════════════════════════════════════════════════════════════════════

// proposeBody is the body of POST /collaboration/request.
type proposeBody struct {
	SeekingMentorshipID   string `json:"seeking_mentorship_id" validate:"required,uuid"`
	SuggestedMentorshipID string `json:"suggested_mentorship_id" validate:"required,uuid,nefield=SeekingMentorshipID"`
	Tier                  int    `json:"tier" validate:"required,min=1,max=4"`
	CardID                string `json:"collaboration_card_id" validate:"omitempty,cardid"`
}

// respondBody is the body of POST /collaboration/accept and /decline.
// At least one identifier is required; the command enforces that.
type respondBody struct {
	CardID    string `json:"collaboration_card_id" validate:"omitempty,cardid"`
	RequestID string `json:"mentorship_collaboration_request_id" validate:"omitempty,uuid"`
}

// requestView is the wire form of a collaboration request.
type requestView struct {
	ID        string              `json:"mentorship_collaboration_request_id"`
	CardID    string              `json:"collaboration_card_id"`
	Tier      int                 `json:"tier"`
	TierName  string              `json:"tier_name"`
	Status    string              `json:"status"`
	Seeking   collaboration.Party `json:"seeking"`
	Suggested collaboration.Party `json:"suggested"`
	CreatedAt time.Time           `json:"created_at"`
	UpdatedAt time.Time           `json:"updated_at"`
}

func toRequestView(req *collaboration.Request) requestView {
	return requestView{
		ID:        req.ID,
		CardID:    req.CardID,
		Tier:      int(req.Tier),
		TierName:  req.Tier.String(),
		Status:    string(req.Status),
		Seeking:   req.Seeking,
		Suggested: req.Suggested,
		CreatedAt: req.CreatedAt,
		UpdatedAt: req.UpdatedAt,
	}
}

// collaborationView is the wire form of a collaboration.
type collaborationView struct {
	ID                    string    `json:"mentorship_collaboration_id"`
	RequestID             string    `json:"mentorship_collaboration_request_id"`
	SeekingMentorshipID   string    `json:"seeking_mentorship_id"`
	SuggestedMentorshipID string    `json:"suggested_mentorship_id"`
	Tier                  int       `json:"tier"`
	Active                bool      `json:"status"`
	CreatedAt             time.Time `json:"created_at"`
}

func toCollaborationView(c *collaboration.Collaboration) collaborationView {
	return collaborationView{
		ID:                    c.ID,
		RequestID:             c.RequestID,
		SeekingMentorshipID:   c.SeekingMentorshipID,
		SuggestedMentorshipID: c.SuggestedMentorshipID,
		Tier:                  int(c.Tier),
		Active:                c.Status,
		CreatedAt:             c.CreatedAt,
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// COLLABORATION LIFECYCLE HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handlePropose handles POST /collaboration/request.
func (s *Server) handlePropose(w http.ResponseWriter, r *http.Request) {
	var body proposeBody
	if !s.bind(w, r, &body) {
		return
	}

	res, err := s.deps.ProposeHandler.Handle(r.Context(), command.ProposeCollaborationCommand{
		SeekingMentorshipID:   body.SeekingMentorshipID,
		SuggestedMentorshipID: body.SuggestedMentorshipID,
		Tier:                  body.Tier,
		CardID:                body.CardID,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusCreated, toRequestView(res.Request), nil)
}

// handleAccept handles POST /collaboration/accept.
func (s *Server) handleAccept(w http.ResponseWriter, r *http.Request) {
	var body respondBody
	if !s.bind(w, r, &body) {
		return
	}

	res, err := s.deps.AcceptHandler.Handle(r.Context(), command.AcceptCollaborationCommand{
		RequestID: body.RequestID,
		CardID:    body.CardID,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, map[string]interface{}{
		"request":       toRequestView(res.Request),
		"collaboration": toCollaborationView(res.Collaboration),
	}, nil)
}

// handleDecline handles POST /collaboration/decline.
func (s *Server) handleDecline(w http.ResponseWriter, r *http.Request) {
	var body respondBody
	if !s.bind(w, r, &body) {
		return
	}

	res, err := s.deps.DeclineHandler.Handle(r.Context(), command.DeclineCollaborationCommand{
		RequestID: body.RequestID,
		CardID:    body.CardID,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, map[string]interface{}{
		"request": toRequestView(res.Request),
	}, nil)
}

// ══════════════════════════════════════════════════════════════════════════════
// QUERY HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleGetSuggestions handles GET /collaboration/suggestions/{mentorship_id}.
// Optional query parameters: mentor_id (ownership check) and refresh, which
// recomputes the list and overwrites the cached copy.
func (s *Server) handleGetSuggestions(w http.ResponseWriter, r *http.Request) {
	res, err := s.deps.GetSuggestionsHandler.Handle(r.Context(), query.GetSuggestionsQuery{
		MentorshipID: chi.URLParam(r, "mentorship_id"),
		MentorID:     r.URL.Query().Get("mentor_id"),
		SkipCache:    getQueryParamBool(r, "refresh"),
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, res, &ResponseMeta{TotalCount: len(res.Suggestions)})
}

// handleGetTraits handles GET /mentorships/{mentorship_id}/traits.
func (s *Server) handleGetTraits(w http.ResponseWriter, r *http.Request) {
	res, err := s.deps.GetTraitsHandler.Handle(r.Context(), query.GetTraitsQuery{
		MentorshipID: chi.URLParam(r, "mentorship_id"),
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, res, &ResponseMeta{TotalCount: len(res.Traits)})
}

// ══════════════════════════════════════════════════════════════════════════════
// ERROR MAPPING
// ══════════════════════════════════════════════════════════════════════════════

// bind decodes and validates the body, writing a 400 on failure.
func (s *Server) bind(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	err := decodeAndValidate(w, r, s.config.MaxBodyBytes, dst)
	if err == nil {
		return true
	}
	if errors.Is(err, errBadBody) {
		writeJSONErrorWithDetails(w, r, http.StatusBadRequest, shared.CodeValidation, "request body is not valid JSON", err.Error())
		return false
	}
	writeJSONErrorWithDetails(w, r, http.StatusBadRequest, shared.CodeValidation, "request failed validation", describeValidation(err))
	return false
}

// fallbackCodes name errors that carry no wire code of their own.
var fallbackCodes = map[int]string{
	http.StatusBadRequest: shared.CodeValidation,
	http.StatusNotFound:   shared.CodeNotFound,
	http.StatusConflict:   "CONFLICT",
}

// statusFor maps the domain error taxonomy onto HTTP statuses.
func statusFor(err error) int {
	switch {
	case shared.IsValidation(err):
		return http.StatusBadRequest
	case shared.IsNotFound(err):
		return http.StatusNotFound
	case shared.IsRetryable(err), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	case shared.IsConflict(err):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// writeError writes the error envelope for a handler failure. Internal
// errors are logged here and never echoed to the client.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	code := shared.CodeOf(err)
	message := shared.MessageOf(err)

	switch status {
	case http.StatusServiceUnavailable:
		w.Header().Set("Retry-After", "1")
		if code == "" {
			code = shared.CodeTransient
		}
	case http.StatusInternalServerError:
		logger.FromContext(r.Context()).Error("request failed",
			logger.String("path", r.URL.Path),
			logger.Err(err),
		)
		code = shared.CodeInternal
		message = "An unexpected error occurred"
	}
	if code == "" {
		code = fallbackCodes[status]
	}

	writeJSONError(w, r, status, code, message)
}
