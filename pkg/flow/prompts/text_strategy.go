package prompts

import (
	"fmt"
	"strings"

	"fieldsurvey/pkg/survey"
)

type textStrategy struct{}

// NewTextStrategy returns a Strategy for free-text questions.
func NewTextStrategy() Strategy {
	return &textStrategy{}
}

func (s *textStrategy) Name() string {
	return TypeText
}

func (s *textStrategy) Render(q survey.Question) string {
	if ft, ok := q.Kind.(survey.FreeText); ok && ft.Placeholder != "" {
		return fmt.Sprintf("%s (%s)", q.Text, ft.Placeholder)
	}
	return q.Text
}

// Parse accepts any text, including empty input. Required-question gating is
// the completion check's job, not the parser's.
func (s *textStrategy) Parse(q survey.Question, input string) (survey.Value, error) {
	return survey.TextValue(strings.TrimSpace(input)), nil
}
