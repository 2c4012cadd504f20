package survey

import (
	"context"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"fieldsurvey/pkg/ports/surveyport"
)

// Controller owns the session-scoped survey state: the location reference
// data, the compiled question list, the current selection and answer set, and
// the derived completion flag. It lives for the whole authenticated session
// and is reset per respondent with ClearSession.
type Controller struct {
	gateway surveyport.Gateway
	log     *logrus.Entry

	mu sync.Mutex

	// Session-lifetime reference data, loaded once after login.
	group  BranchGroup
	survey []Question

	// Per-respondent state, wiped by ClearSession.
	selectedBranch     string
	selectedWarehouses []string
	answers            []Answer
	finished           bool
}

// NewController builds a Controller over the given gateway. State starts
// empty; call LoadLocations and LoadSurvey once a session token is available.
func NewController(gateway surveyport.Gateway, log *logrus.Entry) *Controller {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Controller{gateway: gateway, log: log}
}

// LoadLocations fetches the warehouse list and compiles the branch grouping.
// The call is not memoized: calling again re-fetches and overwrites.
func (c *Controller) LoadLocations(ctx context.Context, token string) error {
	c.log.Debug("loading warehouse list")
	warehouses, err := c.gateway.Warehouses(ctx, token)
	if err != nil {
		return fmt.Errorf("load locations: %w", err)
	}

	group := GroupWarehouses(warehouses)
	c.log.WithField("branches", len(group.Branches)).Debug("warehouse list compiled")

	c.mu.Lock()
	c.group = group
	c.mu.Unlock()
	return nil
}

// LoadSurvey fetches the question rows and the department list and compiles
// the survey. Both calls must succeed; on either failing no partial survey is
// kept.
func (c *Controller) LoadSurvey(ctx context.Context, token string) error {
	c.log.Debug("loading survey questions")
	rows, err := c.gateway.Questions(ctx, token)
	if err != nil {
		return fmt.Errorf("load survey: %w", err)
	}

	departments, err := c.gateway.Departments(ctx, token)
	if err != nil {
		return fmt.Errorf("load survey: %w", err)
	}

	compiled := CompileQuestions(rows, departments)
	c.log.WithField("questions", len(compiled)).Debug("survey compiled")

	c.mu.Lock()
	c.survey = compiled
	c.mu.Unlock()
	return nil
}

// Branches returns the branch names in order of first appearance.
func (c *Controller) Branches() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.group.Branches...)
}

// WarehousesFor returns the warehouses grouped under the given branch.
func (c *Controller) WarehousesFor(branch string) []surveyport.Warehouse {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]surveyport.Warehouse(nil), c.group.Warehouses[branch]...)
}

// Survey returns the compiled question list.
func (c *Controller) Survey() []Question {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Question(nil), c.survey...)
}

// SelectBranch records the chosen branch. Changing the branch clears any
// previously selected warehouses.
func (c *Controller) SelectBranch(branch string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.selectedBranch != branch {
		c.selectedWarehouses = nil
	}
	c.selectedBranch = branch
}

// SelectWarehouses records the chosen warehouse ids for the current branch.
func (c *Controller) SelectWarehouses(ids []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.selectedWarehouses = append([]string(nil), ids...)
}

// SelectedBranch returns the currently selected branch name.
func (c *Controller) SelectedBranch() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selectedBranch
}

// SelectedWarehouses returns the currently selected warehouse ids in
// selection order.
func (c *Controller) SelectedWarehouses() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.selectedWarehouses...)
}

// RecordAnswer upserts an answer by question key: replaces in place when the
// question was already answered, appends otherwise. The value is not checked
// against the question kind; the answer-type-specific caller owns that. The
// completion flag is re-derived synchronously in the same update.
func (c *Controller) RecordAnswer(question Question, value Value) {
	c.mu.Lock()
	defer c.mu.Unlock()

	replaced := false
	for i := range c.answers {
		if c.answers[i].Question.Key == question.Key {
			c.answers[i] = Answer{Question: question, Value: value}
			replaced = true
			break
		}
	}
	if !replaced {
		c.answers = append(c.answers, Answer{Question: question, Value: value})
	}

	c.finished = isComplete(c.survey, c.answers)
}

// AnswerFor returns the current value for the given question key, or nil when
// the question has not been answered.
func (c *Controller) AnswerFor(key QuestionKey) Value {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, answer := range c.answers {
		if answer.Question.Key == key {
			return answer.Value
		}
	}
	return nil
}

// Answers returns a copy of the current answer list in insertion order.
func (c *Controller) Answers() []Answer {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Answer(nil), c.answers...)
}

// Finished reports whether every required question has a real answer. It is
// re-derived on every answer mutation, never cached across them.
func (c *Controller) Finished() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.finished
}

func isComplete(questions []Question, answers []Answer) bool {
	for _, question := range questions {
		if !question.Required {
			continue
		}
		answered := false
		for _, answer := range answers {
			if answer.Question.Key == question.Key {
				answered = answer.Value != nil && answer.Value.Answered()
				break
			}
		}
		if !answered {
			return false
		}
	}
	return true
}

// ClearSession resets the per-respondent state (branch, warehouse selection,
// answers, completion) so the next respondent can reuse the session. The
// warehouse grouping and the compiled survey are session-lifetime reference
// data and stay loaded.
func (c *Controller) ClearSession() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.selectedBranch = ""
	c.selectedWarehouses = nil
	c.answers = nil
	c.finished = false
}
