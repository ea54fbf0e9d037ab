// Package memory implements the collaboration engine's persistence ports in
// process memory. It is the test double for the Postgres store: row locks are
// per-request channels acquired with the same wait budget, and a transaction
// keeps an undo log that is replayed on rollback.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/alem-hub/mentorship-hub/internal/domain/collaboration"
	"github.com/alem-hub/mentorship-hub/internal/domain/mentorship"
)

// DefaultLockTimeout matches the Postgres lock_timeout default.
const DefaultLockTimeout = 3 * time.Second

// Store holds every table in maps guarded by one mutex.
type Store struct {
	mu sync.Mutex

	mentorships    map[string]*mentorship.Mentorship
	ratings        []mentorship.EvaluationCategoryRating
	requests       map[string]*collaboration.Request
	collaborations map[string]*collaboration.Collaboration
	notifications  []notification
	seq            int64

	locks       map[string]chan struct{}
	lockTimeout time.Duration
}

// Option configures a Store.
type Option func(*Store)

// WithLockTimeout sets the per-lock wait budget.
func WithLockTimeout(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.lockTimeout = d
		}
	}
}

// NewStore creates an empty Store.
func NewStore(opts ...Option) *Store {
	s := &Store{
		mentorships:    make(map[string]*mentorship.Mentorship),
		requests:       make(map[string]*collaboration.Request),
		collaborations: make(map[string]*collaboration.Collaboration),
		locks:          make(map[string]chan struct{}),
		lockTimeout:    DefaultLockTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Requests returns the collaboration.RequestRepository view.
func (s *Store) Requests() *RequestRepository { return &RequestRepository{s: s} }

// Collaborations returns the collaboration.CollaborationRepository view.
func (s *Store) Collaborations() *CollaborationRepository { return &CollaborationRepository{s: s} }

// Mentorships returns the mentorship.Directory / RatingReader view.
func (s *Store) Mentorships() *MentorshipRepository { return &MentorshipRepository{s: s} }

// Notifier returns the collaboration.Notifier view.
func (s *Store) Notifier() *Notifier { return &Notifier{s: s} }

// ══════════════════════════════════════════════════════════════════════════════
// TRANSACTIONS
// ══════════════════════════════════════════════════════════════════════════════

type tx struct {
	undo []func()
	held map[string]chan struct{}
}

type txKey struct{}

func txFrom(ctx context.Context) *tx {
	t, _ := ctx.Value(txKey{}).(*tx)
	return t
}

// WithinTx implements collaboration.TxManager. Writes are applied
// immediately and undone on failure; locks are released at the end.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if txFrom(ctx) != nil {
		return fn(ctx)
	}

	t := &tx{held: make(map[string]chan struct{})}
	committed := false

	defer func() {
		if p := recover(); p != nil {
			s.finish(t, false)
			panic(p)
		}
		s.finish(t, committed)
	}()

	if err = fn(context.WithValue(ctx, txKey{}, t)); err != nil {
		return err
	}
	committed = true
	return nil
}

func (s *Store) finish(t *tx, commit bool) {
	if !commit {
		s.mu.Lock()
		for i := len(t.undo) - 1; i >= 0; i-- {
			t.undo[i]()
		}
		s.mu.Unlock()
	}
	for _, ch := range t.held {
		<-ch
	}
	t.held = nil
}

// record registers an undo step. Must be called with s.mu held.
func record(ctx context.Context, undo func()) {
	if t := txFrom(ctx); t != nil {
		t.undo = append(t.undo, undo)
	}
}

// lock acquires the row lock for key inside the caller's transaction.
// Outside a transaction there is nothing to hold the lock for, so it is a no-op.
func (s *Store) lock(ctx context.Context, key string) error {
	t := txFrom(ctx)
	if t == nil {
		return nil
	}
	if _, ok := t.held[key]; ok {
		return nil
	}

	s.mu.Lock()
	ch, ok := s.locks[key]
	if !ok {
		ch = make(chan struct{}, 1)
		s.locks[key] = ch
	}
	s.mu.Unlock()

	timer := time.NewTimer(s.lockTimeout)
	defer timer.Stop()

	select {
	case ch <- struct{}{}:
		t.held[key] = ch
		return nil
	case <-timer.C:
		return collaboration.ErrLockTimeout
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// MENTORSHIPS
// ══════════════════════════════════════════════════════════════════════════════

// MentorshipRepository is the mentorship view of the Store.
type MentorshipRepository struct{ s *Store }

// Save upserts a mentorship.
func (r *MentorshipRepository) Save(_ context.Context, m *mentorship.Mentorship) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	c := *m
	if !c.Status.IsValid() {
		c.Status = mentorship.StatusActive
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	r.s.mentorships[c.ID] = &c
	return nil
}

// AddRatings appends evaluation ratings after validating them.
func (r *MentorshipRepository) AddRatings(_ context.Context, ratings ...mentorship.EvaluationCategoryRating) error {
	for _, rt := range ratings {
		if err := rt.Validate(); err != nil {
			return err
		}
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.ratings = append(r.s.ratings, ratings...)
	return nil
}

// GetByID implements mentorship.Directory.
func (r *MentorshipRepository) GetByID(_ context.Context, id string) (*mentorship.Mentorship, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	m, ok := r.s.mentorships[id]
	if !ok {
		return nil, mentorship.ErrMentorshipNotFound
	}
	c := *m
	return &c, nil
}

// ListActive implements mentorship.Directory.
func (r *MentorshipRepository) ListActive(_ context.Context) ([]*mentorship.Mentorship, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	out := make([]*mentorship.Mentorship, 0, len(r.s.mentorships))
	for _, m := range r.s.mentorships {
		if m.IsActive() {
			c := *m
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SortKey() < out[j].SortKey() })
	return out, nil
}

// CategoryAverages implements mentorship.RatingReader.
func (r *MentorshipRepository) CategoryAverages(_ context.Context, mentorshipIDs ...string) ([]mentorship.CategoryAverage, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if len(mentorshipIDs) == 0 {
		return mentorship.Aggregate(r.s.ratings), nil
	}

	want := make(map[string]bool, len(mentorshipIDs))
	for _, id := range mentorshipIDs {
		want[id] = true
	}
	filtered := make([]mentorship.EvaluationCategoryRating, 0)
	for _, rt := range r.s.ratings {
		if want[rt.MentorshipID] {
			filtered = append(filtered, rt)
		}
	}
	return mentorship.Aggregate(filtered), nil
}

// ══════════════════════════════════════════════════════════════════════════════
// REQUESTS
// ══════════════════════════════════════════════════════════════════════════════

// RequestRepository is the collaboration request view of the Store.
type RequestRepository struct{ s *Store }

func copyRequest(r *collaboration.Request) *collaboration.Request {
	c := *r
	return &c
}

// Create implements collaboration.RequestRepository.
func (r *RequestRepository) Create(ctx context.Context, req *collaboration.Request) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.mentorships[req.Seeking.MentorshipID]; !ok {
		return mentorship.ErrMentorshipNotFound.WithOp("Propose")
	}
	if _, ok := r.s.mentorships[req.Suggested.MentorshipID]; !ok {
		return mentorship.ErrMentorshipNotFound.WithOp("Propose")
	}
	for _, existing := range r.s.requests {
		if existing.CardID == req.CardID && existing.IsPending() {
			return collaboration.ErrDuplicateCard
		}
	}

	id := req.ID
	r.s.requests[id] = copyRequest(req)
	record(ctx, func() { delete(r.s.requests, id) })
	return nil
}

// GetByID implements collaboration.RequestRepository.
func (r *RequestRepository) GetByID(_ context.Context, id string) (*collaboration.Request, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	req, ok := r.s.requests[id]
	if !ok {
		return nil, collaboration.ErrRequestNotFound
	}
	return copyRequest(req), nil
}

// FindPendingByCard implements collaboration.RequestRepository.
func (r *RequestRepository) FindPendingByCard(_ context.Context, cardID string) (*collaboration.Request, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, req := range r.s.requests {
		if req.CardID == cardID && req.IsPending() {
			return copyRequest(req), nil
		}
	}
	return nil, collaboration.ErrRequestNotFound
}

// LockByID implements collaboration.RequestRepository.
func (r *RequestRepository) LockByID(ctx context.Context, id string) (*collaboration.Request, error) {
	r.s.mu.Lock()
	_, ok := r.s.requests[id]
	r.s.mu.Unlock()
	if !ok {
		return nil, collaboration.ErrRequestNotFound.WithOp("LockByID")
	}

	if err := r.s.lock(ctx, id); err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

// LockByCard implements collaboration.RequestRepository. The target row is
// re-resolved after the lock is granted, mirroring FOR UPDATE re-checks.
func (r *RequestRepository) LockByCard(ctx context.Context, cardID string) (*collaboration.Request, error) {
	for {
		id, ok := r.pickByCard(cardID)
		if !ok {
			return nil, collaboration.ErrRequestNotFound.WithOp("LockByCard")
		}
		if err := r.s.lock(ctx, id); err != nil {
			return nil, err
		}
		if again, _ := r.pickByCard(cardID); again == id {
			return r.GetByID(ctx, id)
		}
		// A newer Pending row appeared while waiting; retry against it.
		// The lock already taken stays held until the transaction ends.
	}
}

func (r *RequestRepository) pickByCard(cardID string) (string, bool) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var best *collaboration.Request
	for _, req := range r.s.requests {
		if req.CardID != cardID {
			continue
		}
		switch {
		case best == nil:
			best = req
		case req.IsPending() != best.IsPending():
			if req.IsPending() {
				best = req
			}
		case req.CreatedAt.After(best.CreatedAt):
			best = req
		}
	}
	if best == nil {
		return "", false
	}
	return best.ID, true
}

// UpdateStatusIfPending implements collaboration.RequestRepository.
func (r *RequestRepository) UpdateStatusIfPending(ctx context.Context, id string, to collaboration.Status) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	req, ok := r.s.requests[id]
	if !ok || !req.IsPending() {
		return false, nil
	}

	prev := copyRequest(req)
	updated := copyRequest(req)
	updated.Status = to
	updated.UpdatedAt = time.Now().UTC()
	r.s.requests[id] = updated
	record(ctx, func() { r.s.requests[id] = prev })
	return true, nil
}

// ListPendingInvolvingSE implements collaboration.RequestRepository.
func (r *RequestRepository) ListPendingInvolvingSE(_ context.Context, seID string) ([]*collaboration.Request, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	out := make([]*collaboration.Request, 0)
	for _, req := range r.s.requests {
		if req.IsPending() && (req.Seeking.SEID == seID || req.Suggested.SEID == seID) {
			out = append(out, copyRequest(req))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// COLLABORATIONS
// ══════════════════════════════════════════════════════════════════════════════

// CollaborationRepository is the collaboration view of the Store.
type CollaborationRepository struct{ s *Store }

// Create implements collaboration.CollaborationRepository.
func (r *CollaborationRepository) Create(ctx context.Context, c *collaboration.Collaboration) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, existing := range r.s.collaborations {
		if existing.RequestID == c.RequestID ||
			(existing.Status && c.Status && existing.Links(c.SeekingMentorshipID, c.SuggestedMentorshipID)) {
			return collaboration.ErrCollaborationExists.WithOp("Accept")
		}
	}

	cp := *c
	id := c.ID
	r.s.collaborations[id] = &cp
	record(ctx, func() { delete(r.s.collaborations, id) })
	return nil
}

// GetByRequestID implements collaboration.CollaborationRepository.
func (r *CollaborationRepository) GetByRequestID(_ context.Context, requestID string) (*collaboration.Collaboration, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, c := range r.s.collaborations {
		if c.RequestID == requestID {
			cp := *c
			return &cp, nil
		}
	}
	return nil, collaboration.ErrCollaborationNotFound
}

// ListActiveByMentorship implements collaboration.CollaborationRepository.
func (r *CollaborationRepository) ListActiveByMentorship(_ context.Context, mentorshipID string) ([]*collaboration.Collaboration, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	out := make([]*collaboration.Collaboration, 0)
	for _, c := range r.s.collaborations {
		if c.Status && (c.SeekingMentorshipID == mentorshipID || c.SuggestedMentorshipID == mentorshipID) {
			cp := *c
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// ExistsActiveBetween implements collaboration.CollaborationRepository.
func (r *CollaborationRepository) ExistsActiveBetween(_ context.Context, a, b string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, c := range r.s.collaborations {
		if c.Status && c.Links(a, b) {
			return true, nil
		}
	}
	return false, nil
}

// Count returns the number of stored collaborations.
func (r *CollaborationRepository) Count() int {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return len(r.s.collaborations)
}

// ══════════════════════════════════════════════════════════════════════════════
// NOTIFICATIONS
// ══════════════════════════════════════════════════════════════════════════════

type notification struct {
	seq int64
	collaboration.Notification
}

// Notifier records notifications transactionally.
type Notifier struct{ s *Store }

// Notify implements collaboration.Notifier.
func (n *Notifier) Notify(ctx context.Context, msg collaboration.Notification) error {
	n.s.mu.Lock()
	defer n.s.mu.Unlock()

	n.s.seq++
	seq := n.s.seq
	n.s.notifications = append(n.s.notifications, notification{seq: seq, Notification: msg})
	record(ctx, func() {
		kept := n.s.notifications[:0]
		for _, it := range n.s.notifications {
			if it.seq != seq {
				kept = append(kept, it)
			}
		}
		n.s.notifications = kept
	})
	return nil
}

// Sent returns every stored notification in insertion order.
func (n *Notifier) Sent() []collaboration.Notification {
	n.s.mu.Lock()
	defer n.s.mu.Unlock()

	out := make([]collaboration.Notification, 0, len(n.s.notifications))
	for _, it := range n.s.notifications {
		out = append(out, it.Notification)
	}
	return out
}
