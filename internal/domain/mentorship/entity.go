// Package mentorship contains the mentor/social-enterprise pairing model and the
// trait classifier that labels evaluation categories as strengths or weaknesses.
package mentorship

import (
	"strings"
	"time"

	"github.com/alem-hub/mentorship-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// ERRORS
// ══════════════════════════════════════════════════════════════════════════════

const (
	CodeMentorshipNotFound = "MENTORSHIP_NOT_FOUND"
	CodeMentorshipInactive = "MENTORSHIP_INACTIVE"
	CodeInvalidRating      = "INVALID_RATING"
)

var (
	ErrMentorshipNotFound = shared.NewCodedError("mentorship", "Find", shared.ErrNotFound,
		CodeMentorshipNotFound, "mentorship not found")
	ErrMentorshipInactive = shared.NewCodedError("mentorship", "CheckStatus", shared.ErrConflict,
		CodeMentorshipInactive, "mentorship is not active")
	ErrInvalidRating = shared.NewCodedError("mentorship", "Validate", shared.ErrValueOutOfRange,
		CodeInvalidRating, "rating must be between 1 and 5")
)

// ══════════════════════════════════════════════════════════════════════════════
// MENTORSHIP
// ══════════════════════════════════════════════════════════════════════════════

// Status is the lifecycle state of a mentorship.
type Status string

const (
	StatusActive   Status = "Active"
	StatusInactive Status = "Inactive"
)

// IsValid reports whether the status is known.
func (s Status) IsValid() bool {
	return s == StatusActive || s == StatusInactive
}

// Mentorship pairs one mentor with one social enterprise. Identity is
// immutable; only Status changes over time.
type Mentorship struct {
	ID         string
	MentorID   string
	MentorName string
	SEID       string
	SEName     string
	Status     Status
	CreatedAt  time.Time
}

// IsActive reports whether the mentorship can take part in collaborations.
func (m *Mentorship) IsActive() bool {
	return m.Status == StatusActive
}

// SortKey orders mentorships by mentor name, then id.
func (m *Mentorship) SortKey() string {
	return strings.ToLower(m.MentorName) + "\x00" + m.ID
}

// ══════════════════════════════════════════════════════════════════════════════
// EVALUATION RATINGS
// ══════════════════════════════════════════════════════════════════════════════

const (
	MinRating = 1
	MaxRating = 5
)

// EvaluationCategoryRating is one rating for one category within one
// evaluation. Rows are append-only.
type EvaluationCategoryRating struct {
	EvaluationID string
	MentorshipID string
	Category     string
	Rating       int
}

// Validate checks the rating bounds and required fields.
func (r EvaluationCategoryRating) Validate() error {
	if r.MentorshipID == "" || strings.TrimSpace(r.Category) == "" {
		return shared.NewDomainError("mentorship", "Validate", shared.ErrInvalidInput,
			"mentorship and category are required")
	}
	if r.Rating < MinRating || r.Rating > MaxRating {
		return ErrInvalidRating
	}
	return nil
}
