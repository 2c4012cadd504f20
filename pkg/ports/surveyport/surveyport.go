package surveyport

import (
	"context"
	"errors"
	"fmt"
)

// Package surveyport provides the outbound interface between the controllers
// and the remote survey API adapters (live HTTP, fake).

// Operation names recognized by the remote endpoint. The API is a single URL;
// the operation is selected by the "endpointname" form field.
const (
	OpRequestToken   = "RequestToken"
	OpGetWarehouses  = "Get_Warehouses"
	OpGetQuestions   = "Get_SurveyQuestions"
	OpGetDepartments = "Get_SurveyDepartments"
	OpSaveHeader     = "Save_SurveyHeader"
	OpSaveDetail     = "Save_SurveyDetail"
)

// Normalized error codes produced by gateway adapters.
const (
	CodeNetwork = "network"
	CodeDecode  = "decode"
	CodeStatus  = "status"
	CodeContext = "context_error"
)

// Warehouse is a location record as returned by the warehouses operation.
type Warehouse struct {
	ID              int    `json:"id"`
	WhseKey         string `json:"WhseKey"`
	WhseID          string `json:"WhseID"`
	BranchWhseKey   string `json:"BranchWhseKey"`
	BranchWhseID    string `json:"BranchWhseID"`
	WhseDescription string `json:"WhseDescription"`
	LastModified    string `json:"LastModified"`
}

// QuestionRow is one raw survey question row from the questions operation.
type QuestionRow struct {
	BranchID     int    `json:"BranchID"`
	IsAll        int    `json:"IsAll"`
	QuestionDesc string `json:"QuestionDesc"`
	QuestionKey  int    `json:"QuestionKey"`
	Status       int    `json:"Status"`
}

// Department is one selectable department/position record.
type Department struct {
	DeptKey  int    `json:"DeptKey"`
	DeptDesc string `json:"DeptDesc"`
	Status   int    `json:"Status"`
}

// LoginResult is the payload of the RequestToken operation.
type LoginResult struct {
	ResponseCode    int    `json:"ResponseCode"`
	ResponseMessage string `json:"ResponseMessage"`
	UserToken       string `json:"UserToken"`
	ExpiryDate      string `json:"ExpiryDate"`
	BranchKey       int    `json:"BranchKey"`
	LoginStatus     bool   `json:"LoginStatus"`
}

// HeaderRecord carries the per-warehouse fields of a header-creation request.
// Name, department and comment are embedded here and never re-sent as details.
type HeaderRecord struct {
	WhseID     string
	ClientName string
	DeptKey    int
	Comment    string
}

// DetailRecord carries one answer row linked to a previously created header.
type DetailRecord struct {
	HeaderKey   string
	QuestionKey int
	Answer      string
}

// APIError wraps gateway failures with a normalized operation and code.
type APIError struct {
	Op      string
	Code    string
	Wrapped error
}

func (e *APIError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Wrapped != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Code, e.Wrapped)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Code)
}

// Unwrap exposes the underlying adapter error for errors.Is/As.
func (e *APIError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Wrapped
}

// NewAPIError builds an APIError with the provided operation/code, preserving
// the wrapped error.
func NewAPIError(op, code string, err error) *APIError {
	return &APIError{Op: op, Code: code, Wrapped: err}
}

// IsCode determines whether err represents an APIError with the provided code.
func IsCode(err error, code string) bool {
	if err == nil {
		return false
	}
	var ae *APIError
	if errors.As(err, &ae) {
		return ae != nil && ae.Code == code
	}
	return false
}

// Gateway abstracts the remote survey API. SaveHeader returns the header key
// assigned by the server; callers must treat an empty key as a failed
// submission. All session-scoped calls carry the token obtained at login.
type Gateway interface {
	Login(ctx context.Context, username, password string) (LoginResult, error)
	Warehouses(ctx context.Context, token string) ([]Warehouse, error)
	Questions(ctx context.Context, token string) ([]QuestionRow, error)
	Departments(ctx context.Context, token string) ([]Department, error)
	SaveHeader(ctx context.Context, token string, header HeaderRecord) (string, error)
	SaveDetail(ctx context.Context, token string, detail DetailRecord) error
}
