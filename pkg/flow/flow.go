package flow

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/looplab/fsm"
	"github.com/sirupsen/logrus"

	"fieldsurvey/pkg/auth"
	"fieldsurvey/pkg/debounce"
	"fieldsurvey/pkg/flow/prompts"
	"fieldsurvey/pkg/ports/surveyport"
	"fieldsurvey/pkg/ports/termport"
	"fieldsurvey/pkg/survey"
)

// TextCommitDelay is the idle delay before a free-text answer is committed to
// the controller.
const TextCommitDelay = 300 * time.Millisecond

// NewScreenFSM builds the screen navigation machine:
// login -> location -> survey -> success -> location, with logout returning
// to login from anywhere past it.
func NewScreenFSM(initialState string) *fsm.FSM {
	events := fsm.Events{
		{Name: EventLoginSuccess, Src: []string{StateLogin}, Dst: StateLocation},
		{Name: EventStartSurvey, Src: []string{StateLocation}, Dst: StateSurvey},
		{Name: EventSubmitSuccess, Src: []string{StateSurvey}, Dst: StateSuccess},
		{Name: EventNextRespondent, Src: []string{StateSuccess}, Dst: StateLocation},
		{Name: EventLogout, Src: []string{StateLocation, StateSurvey, StateSuccess}, Dst: StateLogin},
	}
	return fsm.NewFSM(initialState, events, fsm.Callbacks{})
}

// Runner drives one representative through the screen sequence, connecting
// the terminal to the auth and survey controllers.
type Runner struct {
	auth     *auth.Controller
	surveys  *survey.Controller
	terminal termport.Terminal
	screens  *fsm.FSM
	log      *logrus.Entry

	loaded bool
}

// NewRunner wires a Runner. Prompt strategies must be registered before Run
// (normally via prompts.RegisterBuiltins in main).
func NewRunner(authCtrl *auth.Controller, surveyCtrl *survey.Controller, terminal termport.Terminal, log *logrus.Entry) *Runner {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Runner{
		auth:     authCtrl,
		surveys:  surveyCtrl,
		terminal: terminal,
		screens:  NewScreenFSM(StateLogin),
		log:      log,
	}
}

// Run executes the screen loop until the representative quits or the context
// ends. A restored session skips the login screen.
func (r *Runner) Run(ctx context.Context) error {
	if r.auth.Status() == auth.StatusUnknown {
		if err := r.auth.Restore(); err != nil {
			r.log.WithError(err).Warn("session restore failed")
		}
	}
	if r.auth.Status() == auth.StatusAuthenticated {
		if err := r.screens.Event(ctx, EventLoginSuccess); err != nil {
			return fmt.Errorf("flow: %w", err)
		}
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		var err error
		var quit bool
		switch r.screens.Current() {
		case StateLogin:
			err = r.loginScreen(ctx)
		case StateLocation:
			err = r.locationScreen(ctx)
		case StateSurvey:
			err = r.surveyScreen(ctx)
		case StateSuccess:
			quit, err = r.successScreen(ctx)
		default:
			return fmt.Errorf("flow: unknown screen %q", r.screens.Current())
		}
		if err != nil {
			return err
		}
		if quit {
			return nil
		}
	}
}

func (r *Runner) loginScreen(ctx context.Context) error {
	r.terminal.Say("== Sign in ==")
	username, err := r.terminal.Ask(ctx, "Username:")
	if err != nil {
		return err
	}
	password, err := r.terminal.AskSecret(ctx, "Password:")
	if err != nil {
		return err
	}

	if err := r.auth.Login(ctx, username, password); err != nil {
		var authErr *auth.AuthError
		if errors.As(err, &authErr) {
			// Invalid credentials stay on the login screen; no automatic retry.
			r.terminal.Say("Sign in failed: " + authErr.Message)
			return nil
		}
		return err
	}

	return r.screens.Event(ctx, EventLoginSuccess)
}

// loadReferenceData fetches warehouses and the compiled survey once per
// session, with a manual try-again loop on fetch failure.
func (r *Runner) loadReferenceData(ctx context.Context) error {
	for !r.loaded {
		token := r.auth.Token()
		err := r.surveys.LoadLocations(ctx, token)
		if err == nil {
			err = r.surveys.LoadSurvey(ctx, token)
		}
		if err == nil {
			r.loaded = true
			return nil
		}

		r.log.WithError(err).Error("could not load survey data")
		r.terminal.Say("Could not reach the server.")
		retry, askErr := r.terminal.Ask(ctx, "Try again? [y/n]")
		if askErr != nil {
			return askErr
		}
		if !strings.EqualFold(retry, "y") {
			return err
		}
	}
	return nil
}

func (r *Runner) locationScreen(ctx context.Context) error {
	if err := r.loadReferenceData(ctx); err != nil {
		return err
	}

	branches := r.surveys.Branches()
	if len(branches) == 0 {
		return fmt.Errorf("flow: server returned no locations")
	}
	r.terminal.Say("== Select location ==")
	for i, branch := range branches {
		r.terminal.Say(fmt.Sprintf("  %d) %s", i+1, branch))
	}

	var branch string
	for {
		input, err := r.terminal.Ask(ctx, "Branch number (or logout):")
		if err != nil {
			return err
		}
		if strings.EqualFold(input, "logout") {
			return r.logout(ctx)
		}
		n, err := strconv.Atoi(input)
		if err != nil || n < 1 || n > len(branches) {
			r.terminal.Say(fmt.Sprintf("Please pick a number between 1 and %d.", len(branches)))
			continue
		}
		branch = branches[n-1]
		break
	}
	r.surveys.SelectBranch(branch)

	warehouses := r.surveys.WarehousesFor(branch)
	for {
		r.terminal.Say(fmt.Sprintf("Warehouses in %s (prefix with / to search):", branch))
		for i, warehouse := range warehouses {
			r.terminal.Say(fmt.Sprintf("  %d) %s (%s)", i+1, warehouse.WhseDescription, strings.TrimSpace(warehouse.WhseID)))
		}

		input, err := r.terminal.Ask(ctx, "Warehouse numbers (comma separated):")
		if err != nil {
			return err
		}
		if strings.HasPrefix(input, "/") {
			keyword := strings.TrimPrefix(input, "/")
			filtered := survey.FilterWarehouses(r.surveys.WarehousesFor(branch), keyword)
			if len(filtered) == 0 {
				r.terminal.Say("No data found for " + keyword)
				warehouses = r.surveys.WarehousesFor(branch)
				continue
			}
			warehouses = filtered
			continue
		}

		ids, err := parseWarehouseSelection(input, warehouses)
		if err != nil {
			r.terminal.Say(err.Error())
			continue
		}
		r.surveys.SelectWarehouses(ids)
		break
	}

	return r.screens.Event(ctx, EventStartSurvey)
}

func (r *Runner) surveyScreen(ctx context.Context) error {
	questions := r.surveys.Survey()
	r.terminal.Say("== Survey ==")

	textCommit := debounce.New(TextCommitDelay)

	for !r.surveys.Finished() {
		for _, question := range questions {
			if answer := r.surveys.AnswerFor(question.Key); answer != nil && answer.Answered() {
				continue
			}
			if err := r.askQuestion(ctx, question, textCommit); err != nil {
				return err
			}
		}
		// Text answers may still be sitting in the debouncer.
		textCommit.Flush()

		if !r.surveys.Finished() {
			r.terminal.Say("Some required questions are still unanswered.")
		}
	}

	for {
		err := r.surveys.Submit(ctx, r.auth.Token())
		if err == nil {
			break
		}

		r.log.WithError(err).Error("submission failed")
		r.terminal.Say("Submitting the survey failed. Re-submitting repeats the whole upload.")
		retry, askErr := r.terminal.Ask(ctx, "Re-submit? [y/n]")
		if askErr != nil {
			return askErr
		}
		if !strings.EqualFold(retry, "y") {
			return err
		}
	}

	// The upload succeeded; per-respondent state is done.
	r.surveys.ClearSession()
	return r.screens.Event(ctx, EventSubmitSuccess)
}

func (r *Runner) askQuestion(ctx context.Context, question survey.Question, textCommit *debounce.Debouncer) error {
	strategy := prompts.Get(prompts.KindName(question))
	if strategy == nil {
		return fmt.Errorf("no prompt strategy for question %d", question.Key)
	}

	for {
		r.terminal.Say(strategy.Render(question))
		input, err := r.terminal.Ask(ctx, ">")
		if err != nil {
			return err
		}

		value, err := strategy.Parse(question, input)
		if err != nil {
			var parseErr *prompts.ParseError
			if errors.As(err, &parseErr) {
				r.terminal.Say(parseErr.Feedback)
				continue
			}
			return err
		}

		if _, ok := question.Kind.(survey.FreeText); ok {
			// Same commit path as every other kind, just deferred. Any
			// earlier pending text commit lands first.
			textCommit.Flush()
			q, v := question, value
			textCommit.Do(func() { r.surveys.RecordAnswer(q, v) })
		} else {
			r.surveys.RecordAnswer(question, value)
		}
		return nil
	}
}

func (r *Runner) successScreen(ctx context.Context) (bool, error) {
	r.terminal.Say("Survey submitted. Thank you!")
	input, err := r.terminal.Ask(ctx, "Press Enter for the next respondent, q to quit, logout to sign out:")
	if err != nil {
		return false, err
	}
	if strings.EqualFold(input, "q") {
		return true, nil
	}
	if strings.EqualFold(input, "logout") {
		return false, r.logout(ctx)
	}
	return false, r.screens.Event(ctx, EventNextRespondent)
}

// logout drops the persisted session and returns to the login screen. The
// next sign-in starts a fresh session, so reference data is refetched.
func (r *Runner) logout(ctx context.Context) error {
	if err := r.auth.Logout(); err != nil {
		return err
	}
	r.surveys.ClearSession()
	r.loaded = false
	r.terminal.Say("Signed out.")
	return r.screens.Event(ctx, EventLogout)
}

func parseWarehouseSelection(input string, warehouses []surveyport.Warehouse) ([]string, error) {
	var ids []string
	seen := make(map[string]bool)
	for _, part := range strings.Split(input, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil || n < 1 || n > len(warehouses) {
			return nil, fmt.Errorf("please pick numbers between 1 and %d", len(warehouses))
		}
		id := strings.TrimSpace(warehouses[n-1].WhseID)
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("select at least one warehouse")
	}
	return ids, nil
}
