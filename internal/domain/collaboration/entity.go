// Package collaboration contains the collaboration request lifecycle, the
// durable Collaboration record and the tiered match generator.
package collaboration

import (
	"errors"
	"time"

	"github.com/alem-hub/mentorship-hub/internal/domain/mentorship"
	"github.com/alem-hub/mentorship-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// ENUMS
// ══════════════════════════════════════════════════════════════════════════════

// Status is the state of a collaboration request.
type Status string

const (
	StatusPending  Status = "Pending"
	StatusAccepted Status = "Accepted"
	StatusDeclined Status = "Declined"
)

// IsValid reports whether the status is known.
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusAccepted, StatusDeclined:
		return true
	}
	return false
}

// IsTerminal reports whether no further transition is allowed.
func (s Status) IsTerminal() bool {
	return s == StatusAccepted || s == StatusDeclined
}

// Tier is the priority class of a suggestion.
type Tier int

const (
	TierComplementary  Tier = 1
	TierSharedStrength Tier = 2
	TierSharedWeakness Tier = 3
	TierFallback       Tier = 4
	tierNone           Tier = 0
)

// Tiers lists all tiers in priority order.
var Tiers = []Tier{TierComplementary, TierSharedStrength, TierSharedWeakness, TierFallback}

// IsValid reports whether t is one of the four tiers.
func (t Tier) IsValid() bool {
	return t >= TierComplementary && t <= TierFallback
}

// String returns the tier name.
func (t Tier) String() string {
	switch t {
	case TierComplementary:
		return "complementary"
	case TierSharedStrength:
		return "shared_strength"
	case TierSharedWeakness:
		return "shared_weakness"
	case TierFallback:
		return "fallback"
	default:
		return "none"
	}
}

// ParseTier validates an integer tier.
func ParseTier(v int) (Tier, error) {
	t := Tier(v)
	if !t.IsValid() {
		return 0, ErrInvalidTier
	}
	return t, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// COLLABORATION REQUEST
// ══════════════════════════════════════════════════════════════════════════════

// Party is the denormalized view of one side of a request. Names are kept
// for notification text only.
type Party struct {
	MentorshipID string `json:"mentorship_id"`
	MentorID     string `json:"mentor_id"`
	MentorName   string `json:"mentor_name"`
	SEID         string `json:"se_id"`
	SEName       string `json:"se_name"`
}

// PartyOf builds a Party from a mentorship.
func PartyOf(m *mentorship.Mentorship) Party {
	return Party{
		MentorshipID: m.ID,
		MentorID:     m.MentorID,
		MentorName:   m.MentorName,
		SEID:         m.SEID,
		SEName:       m.SEName,
	}
}

// Request is a proposed collaboration. At most one Pending request may exist
// per CardID; the status changes exactly once.
type Request struct {
	ID        string
	CardID    string
	Tier      Tier
	Status    Status
	Seeking   Party
	Suggested Party
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewRequestParams holds the inputs for NewRequest.
type NewRequestParams struct {
	ID        string
	Tier      Tier
	Seeking   *mentorship.Mentorship
	Suggested *mentorship.Mentorship
}

// NewRequest creates a Pending request with the canonical card id.
func NewRequest(p NewRequestParams) (*Request, error) {
	if p.ID == "" {
		return nil, errors.New("collaboration request id is required")
	}
	if p.Seeking == nil || p.Suggested == nil {
		return nil, shared.NewDomainError(domain, "Propose", shared.ErrInvalidInput, "both mentorships are required")
	}
	if !p.Tier.IsValid() {
		return nil, ErrInvalidTier
	}
	if p.Seeking.MentorID == p.Suggested.MentorID {
		return nil, ErrSameMentor
	}
	card, err := BuildCardIDFromStrings(p.Suggested.SEID, p.Seeking.SEID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	return &Request{
		ID:        p.ID,
		CardID:    card,
		Tier:      p.Tier,
		Status:    StatusPending,
		Seeking:   PartyOf(p.Seeking),
		Suggested: PartyOf(p.Suggested),
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// IsPending reports whether the request still awaits a decision.
func (r *Request) IsPending() bool {
	return r.Status == StatusPending
}

// CheckPending returns REQUEST_ALREADY_<STATUS> for a terminal request.
func (r *Request) CheckPending() error {
	return ErrAlreadyTerminal(r.Status)
}

// Accept moves a pending request to Accepted.
func (r *Request) Accept() error {
	return r.transition(StatusAccepted)
}

// Decline moves a pending request to Declined.
func (r *Request) Decline() error {
	return r.transition(StatusDeclined)
}

func (r *Request) transition(to Status) error {
	if err := r.CheckPending(); err != nil {
		return err
	}
	r.Status = to
	r.UpdatedAt = time.Now().UTC()
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// COLLABORATION
// ══════════════════════════════════════════════════════════════════════════════

// Collaboration is the durable link created when a request is accepted.
type Collaboration struct {
	ID                    string
	RequestID             string
	SeekingMentorshipID   string
	SuggestedMentorshipID string
	Tier                  Tier
	Status                bool
	CreatedAt             time.Time
}

// NewCollaboration materializes an accepted request. The tier always comes
// from the stored request.
func NewCollaboration(id string, req *Request) *Collaboration {
	return &Collaboration{
		ID:                    id,
		RequestID:             req.ID,
		SeekingMentorshipID:   req.Seeking.MentorshipID,
		SuggestedMentorshipID: req.Suggested.MentorshipID,
		Tier:                  req.Tier,
		Status:                true,
		CreatedAt:             time.Now().UTC(),
	}
}

// Links reports whether the collaboration connects a and b in either direction.
func (c *Collaboration) Links(a, b string) bool {
	return (c.SeekingMentorshipID == a && c.SuggestedMentorshipID == b) ||
		(c.SeekingMentorshipID == b && c.SuggestedMentorshipID == a)
}
