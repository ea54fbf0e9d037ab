package collaboration

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alem-hub/mentorship-hub/internal/domain/mentorship"
	"github.com/alem-hub/mentorship-hub/internal/domain/shared"
)

func newMentorship(name string) *mentorship.Mentorship {
	return &mentorship.Mentorship{
		ID:         uuid.NewString(),
		MentorID:   uuid.NewString(),
		MentorName: name,
		SEID:       uuid.NewString(),
		SEName:     name + " Enterprise",
		Status:     mentorship.StatusActive,
	}
}

func TestNewRequest(t *testing.T) {
	seeking, suggested := newMentorship("Seeker"), newMentorship("Suggested")

	req, err := NewRequest(NewRequestParams{ID: uuid.NewString(), Tier: TierComplementary, Seeking: seeking, Suggested: suggested})
	require.NoError(t, err)

	assert.Equal(t, StatusPending, req.Status)
	assert.Equal(t, suggested.SEID+"_"+seeking.SEID, req.CardID)
	assert.Equal(t, seeking.MentorID, req.Seeking.MentorID)
	assert.Equal(t, suggested.MentorName, req.Suggested.MentorName)
}

func TestNewRequest_Validation(t *testing.T) {
	seeking, suggested := newMentorship("Seeker"), newMentorship("Suggested")

	_, err := NewRequest(NewRequestParams{ID: uuid.NewString(), Tier: 5, Seeking: seeking, Suggested: suggested})
	assert.ErrorIs(t, err, ErrInvalidTier)
	assert.True(t, shared.IsValidation(err))

	same := *suggested
	same.MentorID = seeking.MentorID
	_, err = NewRequest(NewRequestParams{ID: uuid.NewString(), Tier: TierFallback, Seeking: seeking, Suggested: &same})
	assert.ErrorIs(t, err, ErrSameMentor)

	broken := *suggested
	broken.SEID = "not-a-uuid"
	_, err = NewRequest(NewRequestParams{ID: uuid.NewString(), Tier: TierFallback, Seeking: seeking, Suggested: &broken})
	assert.ErrorIs(t, err, ErrInvalidCardID)
}

func TestRequest_TerminalTransitions(t *testing.T) {
	req, err := NewRequest(NewRequestParams{ID: uuid.NewString(), Tier: TierSharedStrength,
		Seeking: newMentorship("A"), Suggested: newMentorship("B")})
	require.NoError(t, err)

	require.NoError(t, req.Accept())
	assert.Equal(t, StatusAccepted, req.Status)

	assert.ErrorIs(t, req.Accept(), ErrRequestAlreadyAccepted)
	assert.ErrorIs(t, req.Decline(), ErrRequestAlreadyAccepted)
	assert.Equal(t, CodeRequestAlreadyAccepted, shared.CodeOf(req.Decline()))

	other, err := NewRequest(NewRequestParams{ID: uuid.NewString(), Tier: TierSharedStrength,
		Seeking: newMentorship("A"), Suggested: newMentorship("B")})
	require.NoError(t, err)
	require.NoError(t, other.Decline())
	assert.ErrorIs(t, other.Accept(), ErrRequestAlreadyDeclined)
	assert.True(t, shared.IsConflict(other.Accept()))
}

func TestNewCollaboration_UsesStoredTier(t *testing.T) {
	req, err := NewRequest(NewRequestParams{ID: uuid.NewString(), Tier: TierSharedWeakness,
		Seeking: newMentorship("A"), Suggested: newMentorship("B")})
	require.NoError(t, err)

	c := NewCollaboration(uuid.NewString(), req)

	assert.Equal(t, TierSharedWeakness, c.Tier)
	assert.True(t, c.Status)
	assert.Equal(t, req.ID, c.RequestID)
	assert.True(t, c.Links(req.Suggested.MentorshipID, req.Seeking.MentorshipID))
	assert.False(t, c.Links(req.Seeking.MentorshipID, "other"))
}

func TestParseTier(t *testing.T) {
	for _, v := range []int{1, 2, 3, 4} {
		tier, err := ParseTier(v)
		require.NoError(t, err)
		assert.Equal(t, Tier(v), tier)
	}
	for _, v := range []int{0, -1, 5} {
		_, err := ParseTier(v)
		assert.ErrorIs(t, err, ErrInvalidTier)
	}
}

func TestDomainError_MatchesByCode(t *testing.T) {
	wrapped := ErrRequestStateChanged.WithOp("Accept")

	assert.ErrorIs(t, wrapped, ErrRequestStateChanged)
	assert.NotErrorIs(t, wrapped, ErrRequestAlreadyAccepted)
	assert.ErrorIs(t, wrapped, shared.ErrStateTransition)
	assert.True(t, shared.IsRetryable(ErrLockTimeout))
	assert.False(t, shared.IsRetryable(ErrCardIDMismatch))
}
