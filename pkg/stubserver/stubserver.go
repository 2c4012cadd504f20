package stubserver

import (
	"fmt"
	"net/http"
	"strconv"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/sirupsen/logrus"

	"fieldsurvey/pkg/ports/surveyport"
)

// Dataset is the fixture data the stub serves.
type Dataset struct {
	// Accounts maps usernames to passwords accepted by RequestToken.
	Accounts    map[string]string
	BranchKey   int
	Warehouses  []surveyport.Warehouse
	Questions   []surveyport.QuestionRow
	Departments []surveyport.Department
}

// Server is a development stand-in for the remote survey API: one POST
// endpoint, multipart form bodies, operation chosen by the "endpointname"
// field, JSON responses. Submitted headers and details are kept in memory for
// inspection.
type Server struct {
	data Dataset
	log  *logrus.Entry

	mu         sync.Mutex
	nextHeader int
	headers    []HeaderRow
	details    []DetailRow

	// RejectHeaders makes Save_SurveyHeader answer without a header key,
	// which clients must treat as a failed submission.
	RejectHeaders bool
}

// HeaderRow is one recorded header submission.
type HeaderRow struct {
	HeaderKey  string
	WhseID     string
	ClientName string
	DeptKey    string
	Comment    string
}

// DetailRow is one recorded detail submission.
type DetailRow struct {
	HeaderKey   string
	QuestionKey string
	Answer      string
}

// New builds a Server over the given fixture data.
func New(data Dataset, log *logrus.Entry) *Server {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Server{data: data, log: log}
}

// Handler returns the HTTP handler: every operation POSTs to the same path.
func (s *Server) Handler() http.Handler {
	router := chi.NewRouter()
	router.Use(middleware.Recoverer)
	router.Post("/*", s.dispatch)
	return router
}

// Headers returns the recorded header submissions.
func (s *Server) Headers() []HeaderRow {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]HeaderRow(nil), s.headers...)
}

// Details returns the recorded detail submissions.
func (s *Server) Details() []DetailRow {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]DetailRow(nil), s.details...)
}

func (s *Server) dispatch(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(1 << 20); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}

	op := r.FormValue("endpointname")
	s.log.WithField("op", op).Debug("stub request")

	switch op {
	case surveyport.OpRequestToken:
		s.login(w, r)
	case surveyport.OpGetWarehouses:
		s.withToken(w, r, func() { render.JSON(w, r, s.data.Warehouses) })
	case surveyport.OpGetQuestions:
		s.withToken(w, r, func() { render.JSON(w, r, s.data.Questions) })
	case surveyport.OpGetDepartments:
		s.withToken(w, r, func() { render.JSON(w, r, s.data.Departments) })
	case surveyport.OpSaveHeader:
		s.withToken(w, r, func() { s.saveHeader(w, r) })
	case surveyport.OpSaveDetail:
		s.withToken(w, r, func() { s.saveDetail(w, r) })
	default:
		http.Error(w, "unknown endpointname", http.StatusBadRequest)
	}
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	username := r.FormValue("UserName")
	password := r.FormValue("Password")

	stored, ok := s.data.Accounts[username]
	if !ok || stored != password {
		render.JSON(w, r, surveyport.LoginResult{
			ResponseCode:    1,
			ResponseMessage: "Invalid username or password",
			LoginStatus:     false,
		})
		return
	}

	render.JSON(w, r, surveyport.LoginResult{
		ResponseCode:    0,
		ResponseMessage: "OK",
		UserToken:       "tok-" + username,
		ExpiryDate:      "2099-12-31",
		BranchKey:       s.data.BranchKey,
		LoginStatus:     true,
	})
}

func (s *Server) withToken(w http.ResponseWriter, r *http.Request, next func()) {
	if r.FormValue("usertoken") == "" {
		http.Error(w, "missing usertoken", http.StatusUnauthorized)
		return
	}
	next()
}

func (s *Server) saveHeader(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.RejectHeaders {
		render.JSON(w, r, map[string]string{"HeaderKey": ""})
		return
	}

	s.nextHeader++
	key := fmt.Sprintf("H%d", s.nextHeader)
	s.headers = append(s.headers, HeaderRow{
		HeaderKey:  key,
		WhseID:     r.FormValue("WhseID"),
		ClientName: r.FormValue("ClientName"),
		DeptKey:    r.FormValue("DeptKey"),
		Comment:    r.FormValue("Comment"),
	})
	render.JSON(w, r, map[string]string{"HeaderKey": key})
}

func (s *Server) saveDetail(w http.ResponseWriter, r *http.Request) {
	headerKey := r.FormValue("HeaderKey")

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.headerExists(headerKey) {
		http.Error(w, "unknown header key", http.StatusBadRequest)
		return
	}
	s.details = append(s.details, DetailRow{
		HeaderKey:   headerKey,
		QuestionKey: r.FormValue("QuestionKey"),
		Answer:      r.FormValue("Answer"),
	})
	render.JSON(w, r, map[string]bool{"status": true})
}

func (s *Server) headerExists(key string) bool {
	for _, header := range s.headers {
		if header.HeaderKey == key {
			return true
		}
	}
	return false
}

// SampleDataset returns a small plausible fixture for local runs.
func SampleDataset() Dataset {
	questions := []surveyport.QuestionRow{
		{QuestionKey: 101, QuestionDesc: "How would you rate the overall timeliness of our deliveries", BranchID: 1, IsAll: 1, Status: 1},
		{QuestionKey: 102, QuestionDesc: "Rate the reliability of our delivery tracking system", BranchID: 1, IsAll: 1, Status: 1},
		{QuestionKey: 103, QuestionDesc: "How responsive is our customer support team to your inquiries", BranchID: 1, IsAll: 1, Status: 1},
	}
	warehouses := make([]surveyport.Warehouse, 0, 4)
	for i, row := range []struct {
		branch string
		id     string
		desc   string
	}{
		{"North", "WH-N1", "North Central"},
		{"North", "WH-N2", "North Annex"},
		{"South", "WH-S1", "South Main"},
		{"South", "WH-S2", "South Depot"},
	} {
		warehouses = append(warehouses, surveyport.Warehouse{
			ID:              i + 1,
			WhseKey:         strconv.Itoa(i + 1),
			WhseID:          row.id,
			BranchWhseKey:   row.branch,
			BranchWhseID:    row.branch,
			WhseDescription: row.desc,
		})
	}
	return Dataset{
		Accounts:  map[string]string{"rep": "rep"},
		BranchKey: 1,
		Questions: questions,
		Departments: []surveyport.Department{
			{DeptKey: 1, DeptDesc: "Nursing", Status: 1},
			{DeptKey: 2, DeptDesc: "Pharmacy", Status: 1},
			{DeptKey: 3, DeptDesc: "Administration", Status: 1},
		},
		Warehouses: warehouses,
	}
}
