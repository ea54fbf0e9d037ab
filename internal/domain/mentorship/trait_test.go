package mentorship

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rating(mentorshipID, category string, r int) EvaluationCategoryRating {
	return EvaluationCategoryRating{EvaluationID: "ev", MentorshipID: mentorshipID, Category: category, Rating: r}
}

func TestAggregate_MeanPerCategory(t *testing.T) {
	avgs := Aggregate([]EvaluationCategoryRating{
		rating("m1", "Finance", 4),
		rating("m1", "Finance", 5),
		rating("m1", "Marketing", 2),
		rating("m2", "Finance", 1),
	})

	require.Len(t, avgs, 3)
	assert.Equal(t, CategoryAverage{MentorshipID: "m1", Category: "Finance", Average: 4.5, Ratings: 2}, avgs[0])
	assert.Equal(t, CategoryAverage{MentorshipID: "m1", Category: "Marketing", Average: 2, Ratings: 1}, avgs[1])
	assert.Equal(t, CategoryAverage{MentorshipID: "m2", Category: "Finance", Average: 1, Ratings: 1}, avgs[2])
}

func TestClassifier_BoundaryIsWeakness(t *testing.T) {
	c := NewClassifier(DefaultStrengthCutoff)

	assert.Equal(t, Weakness, c.Label(3.0))
	assert.Equal(t, Strength, c.Label(3.01))
	assert.Equal(t, Weakness, c.Label(1))
	assert.Equal(t, Strength, c.Label(5))
}

func TestClassifier_ZeroCutoffFallsBackToDefault(t *testing.T) {
	assert.Equal(t, DefaultStrengthCutoff, NewClassifier(0).Cutoff())
	assert.Equal(t, 3.5, NewClassifier(3.5).Cutoff())
}

func TestClassifier_Classify(t *testing.T) {
	c := NewClassifier(DefaultStrengthCutoff)
	avgs := Aggregate([]EvaluationCategoryRating{
		rating("m1", "Marketing", 3),
		rating("m1", "Finance", 4),
		rating("m1", "Logistics", 2),
		rating("m1", "Logistics", 4),
		rating("m2", "Finance", 5),
	})

	sets := c.Classify(avgs)
	require.Len(t, sets, 2)

	m1 := sets["m1"]
	assert.Equal(t, []string{"Finance"}, m1.Strengths())
	assert.Equal(t, []string{"Logistics", "Marketing"}, m1.Weaknesses())
	assert.Equal(t, "Finance", m1.Traits[0].Category)
	assert.InDelta(t, 3.0, m1.Traits[1].AvgRating, 0.0001)

	assert.Equal(t, []string{"Finance"}, sets["m2"].Strengths())
	assert.Empty(t, sets["m2"].Weaknesses())
}

func TestClassifier_ClassifyOne_NoEvaluations(t *testing.T) {
	c := NewClassifier(DefaultStrengthCutoff)

	set := c.ClassifyOne("m3", Aggregate([]EvaluationCategoryRating{rating("m1", "Finance", 4)}))

	assert.Equal(t, "m3", set.MentorshipID)
	assert.True(t, set.IsEmpty())
	assert.NotNil(t, set.Traits)
}

func TestEvaluationCategoryRating_Validate(t *testing.T) {
	assert.NoError(t, rating("m1", "Finance", 1).Validate())
	assert.NoError(t, rating("m1", "Finance", 5).Validate())
	assert.ErrorIs(t, rating("m1", "Finance", 0).Validate(), ErrInvalidRating)
	assert.ErrorIs(t, rating("m1", "Finance", 6).Validate(), ErrInvalidRating)
	assert.Error(t, rating("m1", " ", 3).Validate())
}
