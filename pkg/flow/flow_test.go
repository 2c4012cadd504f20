package flow

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"fieldsurvey/pkg/api/fakegateway"
	"fieldsurvey/pkg/auth"
	"fieldsurvey/pkg/flow/prompts"
	"fieldsurvey/pkg/ports/surveyport"
	"fieldsurvey/pkg/storage/memstore"
	"fieldsurvey/pkg/survey"
	"fieldsurvey/pkg/term/faketerm"
)

func init() {
	prompts.RegisterBuiltins()
}

func testGateway() *fakegateway.FakeGateway {
	return &fakegateway.FakeGateway{
		LoginResult: surveyport.LoginResult{
			UserToken:   "tok-rep",
			BranchKey:   1,
			LoginStatus: true,
		},
		WarehouseRows: []surveyport.Warehouse{
			{ID: 1, WhseID: "WH-N1", BranchWhseID: "North", WhseDescription: "North Central"},
			{ID: 2, WhseID: "WH-N2", BranchWhseID: "North", WhseDescription: "North Annex"},
			{ID: 3, WhseID: "WH-S1", BranchWhseID: "South", WhseDescription: "South Main"},
		},
		QuestionRows: []surveyport.QuestionRow{
			{QuestionKey: 101, QuestionDesc: "How was the service", Status: 1},
			{QuestionKey: 102, QuestionDesc: "Was the warehouse clean", Status: 1},
			{QuestionKey: 103, QuestionDesc: "Were goods in stock", Status: 1},
		},
		DepartmentRows: []surveyport.Department{
			{DeptKey: 11, DeptDesc: "Sales", Status: 1},
			{DeptKey: 12, DeptDesc: "Logistics", Status: 1},
		},
		HeaderKeys: []string{"H1", "H2"},
	}
}

func newRunner(gw *fakegateway.FakeGateway, store auth.CredentialStore, term *faketerm.FakeTerm) (*Runner, *survey.Controller) {
	authCtrl := auth.NewController(gw, store, nil)
	surveyCtrl := survey.NewController(gw, nil)
	return NewRunner(authCtrl, surveyCtrl, term, nil), surveyCtrl
}

func TestRunFullSession(t *testing.T) {
	gw := testGateway()
	term := faketerm.New(
		"rep", "rep", // sign in
		"1",           // branch: North
		"1,2",         // both northern warehouses
		"Ann Brown",   // name
		"1",           // department: Sales
		"5", "4", "3", // ratings
		"all good", // comment
		"q",        // quit after success
	)
	runner, surveyCtrl := newRunner(gw, memstore.New(), term)

	if err := runner.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	headers := gw.CallsFor(surveyport.OpSaveHeader)
	if len(headers) != 2 {
		t.Fatalf("expected 2 header calls, got %d", len(headers))
	}
	if headers[0].Header.WhseID != "WH-N1" || headers[1].Header.WhseID != "WH-N2" {
		t.Fatalf("unexpected header warehouses: %+v", headers)
	}
	for _, call := range headers {
		if call.Header.ClientName != "Ann Brown" || call.Header.DeptKey != 11 || call.Header.Comment != "all good" {
			t.Fatalf("unexpected header payload: %+v", call.Header)
		}
		if call.Token != "tok-rep" {
			t.Fatalf("header call with wrong token: %+v", call)
		}
	}

	details := gw.CallsFor(surveyport.OpSaveDetail)
	if len(details) != 6 {
		t.Fatalf("expected 6 detail calls, got %d", len(details))
	}

	// Per-respondent state is reset for the next respondent.
	if len(surveyCtrl.Answers()) != 0 || surveyCtrl.SelectedBranch() != "" {
		t.Fatal("session state must be cleared after a successful upload")
	}
	if len(surveyCtrl.Branches()) == 0 {
		t.Fatal("reference data must survive the reset")
	}

	if !term.SaidContaining("Survey submitted") {
		t.Fatalf("missing success message, output: %v", term.Output)
	}
}

func TestRunSkipsLoginForRestoredSession(t *testing.T) {
	store := memstore.New()
	if err := store.Save(auth.Credentials{Authenticated: true, Username: "rep", Token: "tok-rep"}); err != nil {
		t.Fatalf("seed store: %v", err)
	}

	gw := testGateway()
	term := faketerm.New(
		"2",         // branch: South
		"1",         // the one southern warehouse
		"Ann",       // name
		"2",         // department: Logistics
		"5", "5", "5",
		"",  // no comment text; survey stays incomplete, so it is asked again
	)
	runner, _ := newRunner(gw, store, term)

	err := runner.Run(context.Background())
	if !errors.Is(err, io.EOF) {
		t.Fatalf("expected the script to run out, got %v", err)
	}

	if len(term.Prompts) == 0 || term.Prompts[0] != "Branch number (or logout):" {
		t.Fatalf("restored session must start at the location screen, prompts: %v", term.Prompts)
	}
	for _, prompt := range term.Prompts {
		if prompt == "Username:" {
			t.Fatal("login screen must be skipped for a restored session")
		}
	}
}

func TestLoginFailureStaysOnLoginScreen(t *testing.T) {
	gw := testGateway()
	gw.Fail(surveyport.OpRequestToken, fakegateway.NetworkFailure(surveyport.OpRequestToken))
	term := faketerm.New(
		"rep", "rep", // first attempt, fails
		"rep", "rep", // second attempt, succeeds
		"1", "1",
		"Ann", "1", "5", "4", "3", "done",
		"q",
	)
	runner, _ := newRunner(gw, memstore.New(), term)

	if err := runner.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !term.SaidContaining("Sign in failed") {
		t.Fatalf("missing login failure message, output: %v", term.Output)
	}
	if got := len(gw.CallsFor(surveyport.OpRequestToken)); got != 1 {
		// The failed call never reaches the recorder; only the retry does.
		t.Fatalf("expected 1 recorded login call, got %d", got)
	}
}

func TestReferenceDataRetryLoop(t *testing.T) {
	gw := testGateway()
	gw.Fail(surveyport.OpGetWarehouses, fakegateway.NetworkFailure(surveyport.OpGetWarehouses))
	term := faketerm.New(
		"rep", "rep",
		"y", // try again after the fetch failure
		"1", "1,2",
		"Ann", "1", "5", "4", "3", "done",
		"q",
	)
	runner, _ := newRunner(gw, memstore.New(), term)

	if err := runner.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !term.SaidContaining("Could not reach the server") {
		t.Fatalf("missing fetch failure message, output: %v", term.Output)
	}
}

func TestReferenceDataGiveUpPropagatesError(t *testing.T) {
	gw := testGateway()
	gw.Fail(surveyport.OpGetWarehouses, fakegateway.NetworkFailure(surveyport.OpGetWarehouses))
	term := faketerm.New(
		"rep", "rep",
		"n", // decline the retry
	)
	runner, _ := newRunner(gw, memstore.New(), term)

	err := runner.Run(context.Background())
	if !surveyport.IsCode(err, surveyport.CodeNetwork) {
		t.Fatalf("expected the fetch error to propagate, got %v", err)
	}
}

func TestWarehouseKeywordSearch(t *testing.T) {
	gw := testGateway()
	term := faketerm.New(
		"rep", "rep",
		"1",       // branch: North
		"/annex",  // narrow the list down to WH-N2
		"1",       // first (and only) filtered entry
		"Ann", "1", "5", "4", "3", "done",
		"q",
	)
	runner, _ := newRunner(gw, memstore.New(), term)

	if err := runner.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	headers := gw.CallsFor(surveyport.OpSaveHeader)
	if len(headers) != 1 || headers[0].Header.WhseID != "WH-N2" {
		t.Fatalf("search result selection broken: %+v", headers)
	}
}

func TestWarehouseSearchNoMatchesRestoresList(t *testing.T) {
	gw := testGateway()
	term := faketerm.New(
		"rep", "rep",
		"1",
		"/nowhere", // no matches
		"1,2",      // full list is back
		"Ann", "1", "5", "4", "3", "done",
		"q",
	)
	runner, _ := newRunner(gw, memstore.New(), term)

	if err := runner.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !term.SaidContaining("No data found for nowhere") {
		t.Fatalf("missing no-match message, output: %v", term.Output)
	}
	if got := gw.CallsFor(surveyport.OpSaveHeader); len(got) != 2 {
		t.Fatalf("expected both warehouses submitted, got %d headers", len(got))
	}
}

func TestBadAnswerIsReAsked(t *testing.T) {
	gw := testGateway()
	term := faketerm.New(
		"rep", "rep",
		"1", "1",
		"Ann", "1",
		"9", "5", // out-of-range rating, then a valid one
		"4", "3", "done",
		"q",
	)
	runner, _ := newRunner(gw, memstore.New(), term)

	if err := runner.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !term.SaidContaining("Rating must be between 1 and 5") {
		t.Fatalf("missing parse feedback, output: %v", term.Output)
	}
	details := gw.CallsFor(surveyport.OpSaveDetail)
	if len(details) != 3 {
		t.Fatalf("expected 3 detail calls, got %d", len(details))
	}
	if details[0].Detail.Answer != "5" {
		t.Fatalf("re-asked answer lost: %+v", details[0].Detail)
	}
}

func TestResubmitAfterHeaderRejection(t *testing.T) {
	gw := testGateway()
	gw.Fail(surveyport.OpSaveHeader, fakegateway.NetworkFailure(surveyport.OpSaveHeader))
	term := faketerm.New(
		"rep", "rep",
		"1", "1",
		"Ann", "1", "5", "4", "3", "done",
		"y", // re-submit after the failed upload
		"q",
	)
	runner, _ := newRunner(gw, memstore.New(), term)

	if err := runner.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !term.SaidContaining("Submitting the survey failed") {
		t.Fatalf("missing submit failure message, output: %v", term.Output)
	}
	if got := gw.CallsFor(surveyport.OpSaveDetail); len(got) != 3 {
		t.Fatalf("retry should complete the upload, got %d details", len(got))
	}
}

func TestDecliningResubmitReturnsError(t *testing.T) {
	gw := testGateway()
	gw.HeaderKeys = nil // server never assigns a key
	term := faketerm.New(
		"rep", "rep",
		"1", "1",
		"Ann", "1", "5", "4", "3", "done",
		"n", // give up
	)
	runner, _ := newRunner(gw, memstore.New(), term)

	err := runner.Run(context.Background())
	var se *survey.SubmissionError
	if !errors.As(err, &se) {
		t.Fatalf("expected SubmissionError, got %T: %v", err, err)
	}
}

func TestNextRespondentLoopsBackToLocation(t *testing.T) {
	gw := testGateway()
	term := faketerm.New(
		"rep", "rep",
		"1", "1",
		"Ann", "1", "5", "4", "3", "done",
		"", // next respondent
		"2", "1",
		"Ben", "2", "1", "2", "3", "fine",
		"q",
	)
	runner, _ := newRunner(gw, memstore.New(), term)

	if err := runner.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	headers := gw.CallsFor(surveyport.OpSaveHeader)
	if len(headers) != 2 {
		t.Fatalf("expected 2 headers across respondents, got %d", len(headers))
	}
	if headers[0].Header.ClientName != "Ann" || headers[1].Header.ClientName != "Ben" {
		t.Fatalf("respondent answers mixed up: %+v", headers)
	}
	if headers[1].Header.WhseID != "WH-S1" {
		t.Fatalf("second respondent warehouse: %+v", headers[1].Header)
	}

	// Reference data is fetched once per session, not per respondent.
	if got := len(gw.CallsFor(surveyport.OpGetWarehouses)); got != 1 {
		t.Fatalf("expected 1 warehouse fetch, got %d", got)
	}
}

func TestLogoutReturnsToLogin(t *testing.T) {
	gw := testGateway()
	store := memstore.New()
	term := faketerm.New(
		"rep", "rep",
		"logout",     // sign out from the location screen
		"rep", "rep", // sign in again
		"1", "1",
		"Ann", "1", "5", "4", "3", "done",
		"q",
	)
	runner, _ := newRunner(gw, store, term)

	if err := runner.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !term.SaidContaining("Signed out.") {
		t.Fatalf("missing sign-out message, output: %v", term.Output)
	}

	logins := 0
	for _, prompt := range term.Prompts {
		if prompt == "Username:" {
			logins++
		}
	}
	if logins != 2 {
		t.Fatalf("expected the login screen twice, prompts: %v", term.Prompts)
	}

	// Logging out ends the session; the next sign-in refetches reference data.
	if got := len(gw.CallsFor(surveyport.OpGetWarehouses)); got != 2 {
		t.Fatalf("expected 2 warehouse fetches across sessions, got %d", got)
	}
}

func TestLogoutFromSuccessScreen(t *testing.T) {
	gw := testGateway()
	store := memstore.New()
	term := faketerm.New(
		"rep", "rep",
		"1", "1",
		"Ann", "1", "5", "4", "3", "done",
		"logout", // sign out instead of starting the next respondent
	)
	runner, _ := newRunner(gw, store, term)

	err := runner.Run(context.Background())
	if !errors.Is(err, io.EOF) {
		t.Fatalf("expected the script to end at the login screen, got %v", err)
	}
	if !term.SaidContaining("Signed out.") {
		t.Fatalf("missing sign-out message, output: %v", term.Output)
	}
	if _, ok, _ := store.Load(); ok {
		t.Fatal("stored session must be deleted on logout")
	}
}

func TestLocationScreenWithoutBranches(t *testing.T) {
	gw := testGateway()
	gw.WarehouseRows = nil
	term := faketerm.New("rep", "rep")
	runner, _ := newRunner(gw, memstore.New(), term)

	err := runner.Run(context.Background())
	if err == nil || !strings.Contains(err.Error(), "no locations") {
		t.Fatalf("expected a no-locations error, got %v", err)
	}
	// The screen must fail fast, not prompt for an impossible pick.
	for _, prompt := range term.Prompts {
		if strings.HasPrefix(prompt, "Branch number") {
			t.Fatalf("branch prompt shown with no branches, prompts: %v", term.Prompts)
		}
	}
}

func TestSurveyAbortsWhenDepartmentsMissing(t *testing.T) {
	gw := testGateway()
	gw.DepartmentRows = nil
	term := faketerm.New(
		"rep", "rep",
		"1", "1",
		"Ann",
		"1", // any department input; there is nothing to pick
	)
	runner, _ := newRunner(gw, memstore.New(), term)

	err := runner.Run(context.Background())
	if err == nil || !strings.Contains(err.Error(), "has no options") {
		t.Fatalf("expected a hard error for the empty option list, got %v", err)
	}
}

func TestScreenFSMTransitions(t *testing.T) {
	ctx := context.Background()
	machine := NewScreenFSM(StateLogin)

	steps := []struct {
		event string
		want  string
	}{
		{EventLoginSuccess, StateLocation},
		{EventStartSurvey, StateSurvey},
		{EventSubmitSuccess, StateSuccess},
		{EventNextRespondent, StateLocation},
		{EventStartSurvey, StateSurvey},
		{EventLogout, StateLogin},
	}
	for _, step := range steps {
		if err := machine.Event(ctx, step.event); err != nil {
			t.Fatalf("event %s: %v", step.event, err)
		}
		if got := machine.Current(); got != step.want {
			t.Fatalf("after %s: got %s want %s", step.event, got, step.want)
		}
	}

	// Submitting from the login screen is not a legal transition.
	if err := machine.Event(ctx, EventSubmitSuccess); err == nil {
		t.Fatal("expected invalid transition error")
	}
}

func TestParseWarehouseSelection(t *testing.T) {
	warehouses := []surveyport.Warehouse{
		{WhseID: "WH-N1 "},
		{WhseID: "WH-N2"},
	}

	ids, err := parseWarehouseSelection("1, 2, 1", warehouses)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(ids) != 2 || ids[0] != "WH-N1" || ids[1] != "WH-N2" {
		t.Fatalf("got %v", ids)
	}

	if _, err := parseWarehouseSelection("3", warehouses); err == nil {
		t.Fatal("out-of-range index must fail")
	}
	if _, err := parseWarehouseSelection("two", warehouses); err == nil {
		t.Fatal("non-numeric input must fail")
	}
	if _, err := parseWarehouseSelection(" , ", warehouses); err == nil {
		t.Fatal("empty selection must fail")
	}
}

func TestRunCancelledContext(t *testing.T) {
	gw := testGateway()
	runner, _ := newRunner(gw, memstore.New(), faketerm.New())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := runner.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
