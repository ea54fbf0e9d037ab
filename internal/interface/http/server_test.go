package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alem-hub/mentorship-hub/internal/application/command"
	"github.com/alem-hub/mentorship-hub/internal/application/query"
	"github.com/alem-hub/mentorship-hub/internal/domain/collaboration"
	"github.com/alem-hub/mentorship-hub/internal/domain/mentorship"
	"github.com/alem-hub/mentorship-hub/internal/domain/shared"
	"github.com/alem-hub/mentorship-hub/internal/infrastructure/persistence/memory"
	"github.com/alem-hub/mentorship-hub/internal/interface/http/handlers"
	"github.com/alem-hub/mentorship-hub/pkg/logger"
)

type testEnv struct {
	store   *memory.Store
	handler http.Handler
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store := memory.NewStore(memory.WithLockTimeout(time.Second))
	log := logger.Nop()

	deps := command.LifecycleDeps{
		Tx:             store,
		Requests:       store.Requests(),
		Collaborations: store.Collaborations(),
		Mentorships:    store.Mentorships(),
		Notifier:       store.Notifier(),
		Events:         shared.NopPublisher{},
		Logger:         log,
	}
	classifier := mentorship.NewClassifier(mentorship.DefaultStrengthCutoff)

	health := handlers.NewCompositeHealthChecker("test")
	health.AddCheck("store", func(context.Context) error { return nil })

	srv := NewServer(DefaultConfig(), Dependencies{
		ProposeHandler: command.NewProposeCollaborationHandler(deps),
		AcceptHandler:  command.NewAcceptCollaborationHandler(deps),
		DeclineHandler: command.NewDeclineCollaborationHandler(deps),
		GetSuggestionsHandler: query.NewGetSuggestionsHandler(
			store.Mentorships(), store.Mentorships(), store.Requests(), store.Collaborations(),
			classifier, collaboration.NewMatcher(collaboration.DefaultMatchThreshold), nil, log,
		),
		GetTraitsHandler: query.NewGetTraitsHandler(store.Mentorships(), store.Mentorships(), classifier),
		Logger:           log,
		HealthChecker:    health,
	})
	return &testEnv{store: store, handler: srv.Handler()}
}

func (e *testEnv) mentorship(t *testing.T, name string, rating int) *mentorship.Mentorship {
	t.Helper()
	ctx := context.Background()
	m := &mentorship.Mentorship{
		ID:         uuid.NewString(),
		MentorID:   uuid.NewString(),
		MentorName: name,
		SEID:       uuid.NewString(),
		SEName:     name + " Enterprise",
		Status:     mentorship.StatusActive,
	}
	require.NoError(t, e.store.Mentorships().Save(ctx, m))
	if rating > 0 {
		for _, c := range []string{"Finance", "Legal", "Marketing"} {
			require.NoError(t, e.store.Mentorships().AddRatings(ctx, mentorship.EvaluationCategoryRating{
				EvaluationID: uuid.NewString(), MentorshipID: m.ID, Category: c, Rating: rating,
			}))
		}
	}
	return m
}

type envelope struct {
	Success   bool            `json:"success"`
	Data      json.RawMessage `json:"data"`
	Error     *APIError       `json:"error"`
	RequestID string          `json:"request_id"`
}

func (e *testEnv) do(t *testing.T, method, path string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		require.NoError(t, json.NewEncoder(&buf).Encode(b))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)

	var env envelope
	if rec.Header().Get("Content-Type") == "application/json; charset=utf-8" {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	}
	return rec, env
}

func (e *testEnv) propose(t *testing.T, seeking, suggested *mentorship.Mentorship) requestView {
	t.Helper()
	rec, env := e.do(t, http.MethodPost, "/collaboration/request", map[string]interface{}{
		"seeking_mentorship_id":   seeking.ID,
		"suggested_mentorship_id": suggested.ID,
		"tier":                    1,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var view requestView
	require.NoError(t, json.Unmarshal(env.Data, &view))
	return view
}

// ──────────────────────────────────────────────────────────────────────────────
// Lifecycle endpoints
// ──────────────────────────────────────────────────────────────────────────────

func TestPropose_CreatedThenDuplicate(t *testing.T) {
	e := newTestEnv(t)
	s1 := e.mentorship(t, "S1", 2)
	c1 := e.mentorship(t, "C1", 5)

	view := e.propose(t, s1, c1)
	assert.Equal(t, "Pending", view.Status)
	assert.Equal(t, c1.SEID+"_"+s1.SEID, view.CardID)
	assert.Equal(t, "complementary", view.TierName)

	rec, env := e.do(t, http.MethodPost, "/collaboration/request", map[string]interface{}{
		"seeking_mentorship_id":   s1.ID,
		"suggested_mentorship_id": c1.ID,
		"tier":                    2,
	})
	assert.Equal(t, http.StatusConflict, rec.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, collaboration.CodeDuplicateCard, env.Error.Code)
	assert.False(t, env.Success)
}

func TestAccept_ThenTerminalConflicts(t *testing.T) {
	e := newTestEnv(t)
	s1 := e.mentorship(t, "S1", 2)
	c1 := e.mentorship(t, "C1", 5)
	view := e.propose(t, s1, c1)

	body := map[string]string{
		"mentorship_collaboration_request_id": view.ID,
		"collaboration_card_id":               view.CardID,
	}
	rec, env := e.do(t, http.MethodPost, "/collaboration/accept", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var data struct {
		Request       requestView       `json:"request"`
		Collaboration collaborationView `json:"collaboration"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Equal(t, "Accepted", data.Request.Status)
	assert.Equal(t, view.ID, data.Collaboration.RequestID)
	assert.True(t, data.Collaboration.Active)
	assert.Equal(t, 1, data.Collaboration.Tier)

	rec, env = e.do(t, http.MethodPost, "/collaboration/accept", body)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, collaboration.CodeRequestAlreadyAccepted, env.Error.Code)

	rec, env = e.do(t, http.MethodPost, "/collaboration/decline", map[string]string{
		"mentorship_collaboration_request_id": view.ID,
	})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, collaboration.CodeRequestAlreadyAccepted, env.Error.Code)

	assert.Equal(t, 1, e.store.Collaborations().Count())
}

func TestDecline_ByCardID(t *testing.T) {
	e := newTestEnv(t)
	s1 := e.mentorship(t, "S1", 2)
	c1 := e.mentorship(t, "C1", 5)
	view := e.propose(t, s1, c1)

	rec, env := e.do(t, http.MethodPost, "/collaboration/decline", map[string]string{
		"collaboration_card_id": view.CardID,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var data struct {
		Request requestView `json:"request"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Equal(t, "Declined", data.Request.Status)

	rec, env = e.do(t, http.MethodPost, "/collaboration/accept", map[string]string{
		"mentorship_collaboration_request_id": view.ID,
	})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, collaboration.CodeRequestAlreadyDeclined, env.Error.Code)
}

func TestLifecycle_BadRequests(t *testing.T) {
	e := newTestEnv(t)
	s1 := e.mentorship(t, "S1", 0)

	tests := []struct {
		name string
		path string
		body interface{}
	}{
		{"invalid json", "/collaboration/accept", "{not json"},
		{"empty body", "/collaboration/decline", ""},
		{"malformed card id", "/collaboration/accept", map[string]string{"collaboration_card_id": "abc_def"}},
		{"malformed request id", "/collaboration/accept", map[string]string{"mentorship_collaboration_request_id": "123"}},
		{"no identifiers", "/collaboration/decline", map[string]string{}},
		{"tier out of range", "/collaboration/request", map[string]interface{}{
			"seeking_mentorship_id": s1.ID, "suggested_mentorship_id": uuid.NewString(), "tier": 7,
		}},
		{"self collaboration", "/collaboration/request", map[string]interface{}{
			"seeking_mentorship_id": s1.ID, "suggested_mentorship_id": s1.ID, "tier": 1,
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, env := e.do(t, http.MethodPost, tt.path, tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
			require.NotNil(t, env.Error)
			assert.Equal(t, shared.CodeValidation, env.Error.Code)
		})
	}
	assert.Empty(t, e.store.Notifier().Sent())
}

func TestAccept_NotFound(t *testing.T) {
	e := newTestEnv(t)
	rec, env := e.do(t, http.MethodPost, "/collaboration/accept", map[string]string{
		"mentorship_collaboration_request_id": uuid.NewString(),
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, collaboration.CodeRequestNotFound, env.Error.Code)
}

func TestAccept_CardMismatch(t *testing.T) {
	e := newTestEnv(t)
	s1 := e.mentorship(t, "S1", 2)
	c1 := e.mentorship(t, "C1", 5)
	view := e.propose(t, s1, c1)

	rec, env := e.do(t, http.MethodPost, "/collaboration/accept", map[string]string{
		"mentorship_collaboration_request_id": view.ID,
		"collaboration_card_id":               s1.SEID + "_" + c1.SEID,
	})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, collaboration.CodeCardIDMismatch, env.Error.Code)
}

// ──────────────────────────────────────────────────────────────────────────────
// Query endpoints
// ──────────────────────────────────────────────────────────────────────────────

func TestGetSuggestions(t *testing.T) {
	e := newTestEnv(t)
	s1 := e.mentorship(t, "S1", 2)
	c1 := e.mentorship(t, "C1", 5)

	rec, env := e.do(t, http.MethodGet, "/collaboration/suggestions/"+s1.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var res query.GetSuggestionsResult
	require.NoError(t, json.Unmarshal(env.Data, &res))
	require.NotEmpty(t, res.Suggestions)
	assert.Equal(t, 1, res.Suggestions[0].Tier)
	assert.Equal(t, c1.ID, res.Suggestions[0].Candidate.MentorshipID)

	rec, _ = e.do(t, http.MethodGet, "/collaboration/suggestions/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, env = e.do(t, http.MethodGet, "/collaboration/suggestions/"+uuid.NewString(), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, mentorship.CodeMentorshipNotFound, env.Error.Code)
}

func TestGetTraits(t *testing.T) {
	e := newTestEnv(t)
	m := e.mentorship(t, "Aida", 4)

	rec, env := e.do(t, http.MethodGet, "/mentorships/"+m.ID+"/traits", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var res query.TraitsResult
	require.NoError(t, json.Unmarshal(env.Data, &res))
	assert.Equal(t, []string{"Finance", "Legal", "Marketing"}, res.Strengths)
	assert.Empty(t, res.Weaknesses)
}

// ──────────────────────────────────────────────────────────────────────────────
// Infrastructure endpoints and mapping
// ──────────────────────────────────────────────────────────────────────────────

func TestHealthReadyAndMetrics(t *testing.T) {
	e := newTestEnv(t)

	rec, env := e.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, env.Success)

	rec, _ = e.do(t, http.MethodGet, "/ready", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, _ = e.do(t, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "mentorship_hub_http_requests_total")
}

func TestRequestIDIsEchoed(t *testing.T) {
	e := newTestEnv(t)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "req-42")
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)

	assert.Equal(t, "req-42", rec.Header().Get("X-Request-ID"))
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.Equal(t, "req-42", env.RequestID)
}

func TestUnknownRoute(t *testing.T) {
	e := newTestEnv(t)
	rec, env := e.do(t, http.MethodGet, "/nope", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "ROUTE_NOT_FOUND", env.Error.Code)
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{collaboration.ErrInvalidCardID, http.StatusBadRequest},
		{collaboration.ErrSameMentor, http.StatusBadRequest},
		{collaboration.ErrRequestNotFound, http.StatusNotFound},
		{collaboration.ErrDuplicateCard, http.StatusConflict},
		{collaboration.ErrRequestAlreadyDeclined, http.StatusConflict},
		{collaboration.ErrRequestStateChanged, http.StatusConflict},
		{collaboration.ErrSuggestedMentorMismatch, http.StatusConflict},
		{mentorship.ErrMentorshipInactive, http.StatusConflict},
		{collaboration.ErrLockTimeout, http.StatusServiceUnavailable},
		{shared.Transient("Query", "connection reset", errors.New("eof")), http.StatusServiceUnavailable},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, statusFor(tt.err), "%v", tt.err)
	}
}

func TestWriteError_TransientSetsRetryAfter(t *testing.T) {
	s := &Server{logger: logger.Nop()}
	req := httptest.NewRequest(http.MethodPost, "/collaboration/accept", nil)
	rec := httptest.NewRecorder()

	s.writeError(rec, req, collaboration.ErrLockTimeout)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.Equal(t, collaboration.CodeLockTimeout, env.Error.Code)
}

func TestWriteError_InternalIsMasked(t *testing.T) {
	s := &Server{logger: logger.Nop()}
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()

	s.writeError(rec, req, errors.New("pq: password authentication failed"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "password")
}
