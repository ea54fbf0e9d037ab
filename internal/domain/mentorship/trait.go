package mentorship

import (
	"sort"
)

// Classification labels a category for one mentorship.
type Classification string

const (
	Strength Classification = "strength"
	Weakness Classification = "weakness"
)

// DefaultStrengthCutoff is the average a category must exceed to count as a
// strength. An average exactly equal to the cutoff is a weakness.
const DefaultStrengthCutoff = 3.0

// CategoryAverage is the mean rating of one category for one mentorship.
type CategoryAverage struct {
	MentorshipID string
	Category     string
	Average      float64
	Ratings      int
}

// Trait is a derived, never persisted, classification of one category.
type Trait struct {
	Category       string         `json:"category_name"`
	AvgRating      float64        `json:"avg_rating"`
	Classification Classification `json:"classification"`
}

// TraitSet holds every classified category of one mentorship, sorted by
// category name. An empty set means the mentorship has no evaluations yet.
type TraitSet struct {
	MentorshipID string
	Traits       []Trait
}

// IsEmpty reports whether there is no evaluation data.
func (s TraitSet) IsEmpty() bool {
	return len(s.Traits) == 0
}

// Strengths returns the strength categories in name order.
func (s TraitSet) Strengths() []string {
	return s.filter(Strength)
}

// Weaknesses returns the weakness categories in name order.
func (s TraitSet) Weaknesses() []string {
	return s.filter(Weakness)
}

func (s TraitSet) filter(c Classification) []string {
	out := make([]string, 0, len(s.Traits))
	for _, t := range s.Traits {
		if t.Classification == c {
			out = append(out, t.Category)
		}
	}
	return out
}

// Classifier turns category averages into strengths and weaknesses.
type Classifier struct {
	cutoff float64
}

// NewClassifier creates a classifier. A non-positive cutoff falls back to
// DefaultStrengthCutoff.
func NewClassifier(cutoff float64) Classifier {
	if cutoff <= 0 {
		cutoff = DefaultStrengthCutoff
	}
	return Classifier{cutoff: cutoff}
}

// Cutoff returns the strength threshold in use.
func (c Classifier) Cutoff() float64 {
	return c.cutoff
}

// Label classifies a single average.
func (c Classifier) Label(avg float64) Classification {
	if avg > c.cutoff {
		return Strength
	}
	return Weakness
}

// Classify groups averages by mentorship. Mentorships without any average
// are absent from the result; use ClassifyOne to get an explicit empty set.
func (c Classifier) Classify(avgs []CategoryAverage) map[string]TraitSet {
	out := make(map[string]TraitSet)
	for _, a := range avgs {
		set := out[a.MentorshipID]
		set.MentorshipID = a.MentorshipID
		set.Traits = append(set.Traits, Trait{
			Category:       a.Category,
			AvgRating:      a.Average,
			Classification: c.Label(a.Average),
		})
		out[a.MentorshipID] = set
	}
	for id, set := range out {
		sort.Slice(set.Traits, func(i, j int) bool {
			return set.Traits[i].Category < set.Traits[j].Category
		})
		out[id] = set
	}
	return out
}

// ClassifyOne classifies the averages belonging to a single mentorship.
func (c Classifier) ClassifyOne(mentorshipID string, avgs []CategoryAverage) TraitSet {
	own := make([]CategoryAverage, 0, len(avgs))
	for _, a := range avgs {
		if a.MentorshipID == mentorshipID {
			own = append(own, a)
		}
	}
	set, ok := c.Classify(own)[mentorshipID]
	if !ok {
		return TraitSet{MentorshipID: mentorshipID, Traits: []Trait{}}
	}
	return set
}

type avgKey struct {
	mentorshipID string
	category     string
}

// Aggregate computes the arithmetic mean per (mentorship, category). The
// result is ordered by mentorship id, then category.
func Aggregate(ratings []EvaluationCategoryRating) []CategoryAverage {
	sums := make(map[avgKey]int)
	counts := make(map[avgKey]int)
	for _, r := range ratings {
		k := avgKey{r.MentorshipID, r.Category}
		sums[k] += r.Rating
		counts[k]++
	}

	out := make([]CategoryAverage, 0, len(sums))
	for k, sum := range sums {
		out = append(out, CategoryAverage{
			MentorshipID: k.mentorshipID,
			Category:     k.category,
			Average:      float64(sum) / float64(counts[k]),
			Ratings:      counts[k],
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].MentorshipID != out[j].MentorshipID {
			return out[i].MentorshipID < out[j].MentorshipID
		}
		return out[i].Category < out[j].Category
	})
	return out
}
