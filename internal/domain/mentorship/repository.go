package mentorship

import "context"

// Directory resolves mentorships. Implementations read through the
// transaction carried by ctx when there is one.
type Directory interface {
	// GetByID returns ErrMentorshipNotFound when the mentorship does not exist.
	GetByID(ctx context.Context, id string) (*Mentorship, error)

	// ListActive returns every active mentorship.
	ListActive(ctx context.Context) ([]*Mentorship, error)
}

// RatingReader exposes the evaluation ratings as per-category averages.
type RatingReader interface {
	// CategoryAverages returns averages for the given mentorships, or for all
	// mentorships when no id is given.
	CategoryAverages(ctx context.Context, mentorshipIDs ...string) ([]CategoryAverage, error)
}
