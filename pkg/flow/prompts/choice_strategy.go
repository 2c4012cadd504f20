package prompts

import (
	"fmt"
	"strconv"
	"strings"

	"fieldsurvey/pkg/survey"
)

type singleChoiceStrategy struct{}

// NewSingleChoiceStrategy returns a Strategy for pick-one questions. The
// parsed value carries the selected option key, not its title.
func NewSingleChoiceStrategy() Strategy {
	return &singleChoiceStrategy{}
}

func (s *singleChoiceStrategy) Name() string {
	return TypeSingleChoice
}

func (s *singleChoiceStrategy) Render(q survey.Question) string {
	sc, ok := q.Kind.(survey.SingleChoice)
	if !ok {
		return q.Text
	}
	return q.Text + renderOptions(sc.Options) + "\nPick one number"
}

func (s *singleChoiceStrategy) Parse(q survey.Question, input string) (survey.Value, error) {
	sc, ok := q.Kind.(survey.SingleChoice)
	if !ok {
		return nil, &ParseError{Feedback: "This question takes no choice answer."}
	}
	// No options means no valid input exists; re-asking cannot help.
	if len(sc.Options) == 0 {
		return nil, fmt.Errorf("question %d has no options", q.Key)
	}
	index, err := parseIndex(input, len(sc.Options))
	if err != nil {
		return nil, err
	}
	return survey.ChoiceValue(sc.Options[index].Key), nil
}

type multiChoiceStrategy struct{}

// NewMultiChoiceStrategy returns a Strategy for pick-any questions. The
// parsed value carries the selected option keys.
func NewMultiChoiceStrategy() Strategy {
	return &multiChoiceStrategy{}
}

func (s *multiChoiceStrategy) Name() string {
	return TypeMultiChoice
}

func (s *multiChoiceStrategy) Render(q survey.Question) string {
	mc, ok := q.Kind.(survey.MultiChoice)
	if !ok {
		return q.Text
	}
	return q.Text + renderOptions(mc.Options) + "\nPick numbers separated by commas"
}

func (s *multiChoiceStrategy) Parse(q survey.Question, input string) (survey.Value, error) {
	mc, ok := q.Kind.(survey.MultiChoice)
	if !ok {
		return nil, &ParseError{Feedback: "This question takes no choice answer."}
	}
	if len(mc.Options) == 0 {
		return nil, fmt.Errorf("question %d has no options", q.Key)
	}

	var keys []int
	seen := make(map[int]bool)
	for _, part := range strings.Split(input, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		index, err := parseIndex(part, len(mc.Options))
		if err != nil {
			return nil, err
		}
		key := mc.Options[index].Key
		if !seen[key] {
			seen[key] = true
			keys = append(keys, key)
		}
	}
	return survey.MultiChoiceValue(keys), nil
}

func renderOptions(options []survey.ChoiceOption) string {
	var b strings.Builder
	for i, option := range options {
		b.WriteString(fmt.Sprintf("\n  %d) %s", i+1, option.Title))
	}
	return b.String()
}

// parseIndex turns a 1-based selection into a 0-based option index.
func parseIndex(input string, count int) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(input))
	if err != nil {
		return 0, &ParseError{Feedback: "Please answer with the number of an option."}
	}
	if n < 1 || n > count {
		return 0, &ParseError{Feedback: fmt.Sprintf("Please pick a number between 1 and %d.", count)}
	}
	return n - 1, nil
}
