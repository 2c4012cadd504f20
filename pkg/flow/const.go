package flow

const (
	StateLogin    = "login"
	StateLocation = "location"
	StateSurvey   = "survey"
	StateSuccess  = "success"
)

const (
	EventLoginSuccess   = "login_success"
	EventStartSurvey    = "start_survey"
	EventSubmitSuccess  = "submit_success"
	EventNextRespondent = "next_respondent"
	EventLogout         = "logout"
)
