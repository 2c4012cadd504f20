package prompts

import (
	"fieldsurvey/pkg/survey"
)

// Strategy defines the lifecycle hooks for rendering a question prompt and
// parsing raw user input into an answer value.
type Strategy interface {
	Name() string
	// Render produces the prompt text for the question, including any option
	// listing.
	Render(q survey.Question) string
	// Parse converts one input line into the question's value type. A
	// ParseError carries user-facing feedback and means "ask again".
	Parse(q survey.Question, input string) (survey.Value, error)
}

// ParseError is feedback for a malformed answer; the flow re-asks the same
// question with the message.
type ParseError struct {
	Feedback string
}

func (e *ParseError) Error() string { return e.Feedback }

// KindName maps a question's payload type to its registered strategy name.
func KindName(q survey.Question) string {
	switch q.Kind.(type) {
	case survey.Rating:
		return TypeRating
	case survey.FreeText:
		return TypeText
	case survey.SingleChoice:
		return TypeSingleChoice
	case survey.MultiChoice:
		return TypeMultiChoice
	default:
		return ""
	}
}

const (
	TypeRating       = "rating"
	TypeText         = "text"
	TypeSingleChoice = "single_choice"
	TypeMultiChoice  = "multi_choice"
)
