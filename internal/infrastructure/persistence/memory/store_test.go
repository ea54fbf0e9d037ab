package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alem-hub/mentorship-hub/internal/domain/collaboration"
	"github.com/alem-hub/mentorship-hub/internal/domain/mentorship"
	"github.com/alem-hub/mentorship-hub/internal/domain/shared"
)

func seedPair(t *testing.T, s *Store) (*mentorship.Mentorship, *mentorship.Mentorship) {
	t.Helper()
	ctx := context.Background()

	a := &mentorship.Mentorship{
		ID: uuid.NewString(), MentorID: uuid.NewString(), MentorName: "Aida",
		SEID: uuid.NewString(), SEName: "Solar Co",
	}
	b := &mentorship.Mentorship{
		ID: uuid.NewString(), MentorID: uuid.NewString(), MentorName: "Bolat",
		SEID: uuid.NewString(), SEName: "Water Co",
	}
	require.NoError(t, s.Mentorships().Save(ctx, a))
	require.NoError(t, s.Mentorships().Save(ctx, b))
	return a, b
}

func newPending(t *testing.T, seeking, suggested *mentorship.Mentorship) *collaboration.Request {
	t.Helper()
	req, err := collaboration.NewRequest(collaboration.NewRequestParams{
		ID:        uuid.NewString(),
		Tier:      collaboration.TierComplementary,
		Seeking:   seeking,
		Suggested: suggested,
	})
	require.NoError(t, err)
	return req
}

func TestStore_CreateRejectsDuplicatePendingCard(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	a, b := seedPair(t, s)

	require.NoError(t, s.Requests().Create(ctx, newPending(t, a, b)))

	err := s.Requests().Create(ctx, newPending(t, a, b))
	assert.ErrorIs(t, err, collaboration.ErrDuplicateCard)
}

func TestStore_CardFreedAfterTerminalTransition(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	a, b := seedPair(t, s)

	first := newPending(t, a, b)
	require.NoError(t, s.Requests().Create(ctx, first))

	ok, err := s.Requests().UpdateStatusIfPending(ctx, first.ID, collaboration.StatusDeclined)
	require.NoError(t, err)
	require.True(t, ok)

	second := newPending(t, a, b)
	require.NoError(t, s.Requests().Create(ctx, second))

	got, err := s.Requests().LockByCard(ctx, first.CardID)
	require.NoError(t, err)
	assert.Equal(t, second.ID, got.ID, "pending row wins over declined one")
}

func TestStore_GuardedUpdateOnlyOnce(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	a, b := seedPair(t, s)

	req := newPending(t, a, b)
	require.NoError(t, s.Requests().Create(ctx, req))

	ok, err := s.Requests().UpdateStatusIfPending(ctx, req.ID, collaboration.StatusAccepted)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.Requests().UpdateStatusIfPending(ctx, req.ID, collaboration.StatusDeclined)
	require.NoError(t, err)
	assert.False(t, ok)

	got, err := s.Requests().GetByID(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, collaboration.StatusAccepted, got.Status)
}

func TestStore_RollbackUndoesEveryWrite(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	a, b := seedPair(t, s)

	req := newPending(t, a, b)
	require.NoError(t, s.Requests().Create(ctx, req))

	boom := errors.New("boom")
	err := s.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := s.Requests().LockByID(ctx, req.ID); err != nil {
			return err
		}
		if err := s.Collaborations().Create(ctx, collaboration.NewCollaboration(uuid.NewString(), req)); err != nil {
			return err
		}
		if _, err := s.Requests().UpdateStatusIfPending(ctx, req.ID, collaboration.StatusAccepted); err != nil {
			return err
		}
		if err := s.Notifier().Notify(ctx, collaboration.Notification{ReceiverMentorID: a.MentorID}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	got, err := s.Requests().GetByID(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, collaboration.StatusPending, got.Status)
	assert.Zero(t, s.Collaborations().Count())
	assert.Empty(t, s.Notifier().Sent())
}

func TestStore_CommitKeepsWrites(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	a, b := seedPair(t, s)

	req := newPending(t, a, b)
	err := s.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.Requests().Create(ctx, req); err != nil {
			return err
		}
		return s.Notifier().Notify(ctx, collaboration.Notification{ReceiverMentorID: b.MentorID})
	})
	require.NoError(t, err)

	_, err = s.Requests().FindPendingByCard(ctx, req.CardID)
	assert.NoError(t, err)
	assert.Len(t, s.Notifier().Sent(), 1)
}

func TestStore_LockTimeout(t *testing.T) {
	s := NewStore(WithLockTimeout(50 * time.Millisecond))
	ctx := context.Background()
	a, b := seedPair(t, s)

	req := newPending(t, a, b)
	require.NoError(t, s.Requests().Create(ctx, req))

	held := make(chan struct{})
	release := make(chan struct{})
	done := make(chan error, 1)

	go func() {
		done <- s.WithinTx(ctx, func(ctx context.Context) error {
			if _, err := s.Requests().LockByID(ctx, req.ID); err != nil {
				return err
			}
			close(held)
			<-release
			return nil
		})
	}()
	<-held

	err := s.WithinTx(ctx, func(ctx context.Context) error {
		_, err := s.Requests().LockByID(ctx, req.ID)
		return err
	})
	assert.ErrorIs(t, err, collaboration.ErrLockTimeout)
	assert.True(t, shared.IsRetryable(err))

	close(release)
	require.NoError(t, <-done)

	// The lock is free again once the holder commits.
	err = s.WithinTx(ctx, func(ctx context.Context) error {
		_, err := s.Requests().LockByID(ctx, req.ID)
		return err
	})
	assert.NoError(t, err)
}

func TestStore_LockByIDNotFound(t *testing.T) {
	s := NewStore()
	err := s.WithinTx(context.Background(), func(ctx context.Context) error {
		_, err := s.Requests().LockByID(ctx, uuid.NewString())
		return err
	})
	assert.ErrorIs(t, err, collaboration.ErrRequestNotFound)
}

func TestStore_CollaborationUniqueness(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	a, b := seedPair(t, s)

	req := newPending(t, a, b)
	require.NoError(t, s.Collaborations().Create(ctx, collaboration.NewCollaboration(uuid.NewString(), req)))

	err := s.Collaborations().Create(ctx, collaboration.NewCollaboration(uuid.NewString(), req))
	assert.ErrorIs(t, err, collaboration.ErrCollaborationExists)

	linked, err := s.Collaborations().ExistsActiveBetween(ctx, b.ID, a.ID)
	require.NoError(t, err)
	assert.True(t, linked)
}

func TestStore_CategoryAveragesFilters(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	a, b := seedPair(t, s)

	require.NoError(t, s.Mentorships().AddRatings(ctx,
		mentorship.EvaluationCategoryRating{EvaluationID: "e1", MentorshipID: a.ID, Category: "Finance", Rating: 4},
		mentorship.EvaluationCategoryRating{EvaluationID: "e2", MentorshipID: a.ID, Category: "Finance", Rating: 3},
		mentorship.EvaluationCategoryRating{EvaluationID: "e3", MentorshipID: b.ID, Category: "Finance", Rating: 1},
	))

	avgs, err := s.Mentorships().CategoryAverages(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, avgs, 1)
	assert.InDelta(t, 3.5, avgs[0].Average, 1e-9)
	assert.Equal(t, 2, avgs[0].Ratings)

	all, err := s.Mentorships().CategoryAverages(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	err = s.Mentorships().AddRatings(ctx, mentorship.EvaluationCategoryRating{MentorshipID: a.ID, Category: "Finance", Rating: 6})
	assert.Error(t, err)
}
