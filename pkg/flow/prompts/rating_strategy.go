package prompts

import (
	"fmt"
	"strconv"
	"strings"

	"fieldsurvey/pkg/survey"
)

// Ratings are whole numbers on a fixed 1-5 scale.
const (
	RatingMin = 1
	RatingMax = 5
)

type ratingStrategy struct{}

// NewRatingStrategy returns a Strategy for rating questions.
func NewRatingStrategy() Strategy {
	return &ratingStrategy{}
}

func (s *ratingStrategy) Name() string {
	return TypeRating
}

func (s *ratingStrategy) Render(q survey.Question) string {
	return fmt.Sprintf("%s [%d-%d]", q.Text, RatingMin, RatingMax)
}

func (s *ratingStrategy) Parse(q survey.Question, input string) (survey.Value, error) {
	value, err := strconv.Atoi(strings.TrimSpace(input))
	if err != nil {
		return nil, &ParseError{Feedback: fmt.Sprintf("Please enter a whole number between %d and %d.", RatingMin, RatingMax)}
	}
	if value < RatingMin || value > RatingMax {
		return nil, &ParseError{Feedback: fmt.Sprintf("Rating must be between %d and %d.", RatingMin, RatingMax)}
	}
	return survey.RatingValue(value), nil
}
