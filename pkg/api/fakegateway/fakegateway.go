package fakegateway

import (
	"context"
	"fmt"
	"sync"

	"fieldsurvey/pkg/ports/surveyport"
)

// FakeGateway implements surveyport.Gateway for headless tests. Responses are
// scripted through the exported fields; every invocation is recorded.
type FakeGateway struct {
	mu       sync.Mutex
	Calls    []Call
	FailNext map[string]error

	LoginResult     surveyport.LoginResult
	WarehouseRows   []surveyport.Warehouse
	QuestionRows    []surveyport.QuestionRow
	DepartmentRows  []surveyport.Department
	HeaderKeys      []string
	nextHeaderIndex int
}

// Call captures one gateway operation invocation.
type Call struct {
	Op     string
	Token  string
	Header surveyport.HeaderRecord
	Detail surveyport.DetailRecord
}

var _ surveyport.Gateway = (*FakeGateway)(nil)

// Login returns the scripted login result.
func (f *FakeGateway) Login(ctx context.Context, username, password string) (surveyport.LoginResult, error) {
	if err := f.pre(ctx, surveyport.OpRequestToken); err != nil {
		return surveyport.LoginResult{}, err
	}
	f.record(Call{Op: surveyport.OpRequestToken, Token: username})
	return f.LoginResult, nil
}

// Warehouses returns the scripted warehouse rows.
func (f *FakeGateway) Warehouses(ctx context.Context, token string) ([]surveyport.Warehouse, error) {
	if err := f.pre(ctx, surveyport.OpGetWarehouses); err != nil {
		return nil, err
	}
	f.record(Call{Op: surveyport.OpGetWarehouses, Token: token})
	return f.WarehouseRows, nil
}

// Questions returns the scripted question rows.
func (f *FakeGateway) Questions(ctx context.Context, token string) ([]surveyport.QuestionRow, error) {
	if err := f.pre(ctx, surveyport.OpGetQuestions); err != nil {
		return nil, err
	}
	f.record(Call{Op: surveyport.OpGetQuestions, Token: token})
	return f.QuestionRows, nil
}

// Departments returns the scripted department rows.
func (f *FakeGateway) Departments(ctx context.Context, token string) ([]surveyport.Department, error) {
	if err := f.pre(ctx, surveyport.OpGetDepartments); err != nil {
		return nil, err
	}
	f.record(Call{Op: surveyport.OpGetDepartments, Token: token})
	return f.DepartmentRows, nil
}

// SaveHeader records the header and hands out the next scripted header key.
// Once the scripted keys run out it returns empty keys.
func (f *FakeGateway) SaveHeader(ctx context.Context, token string, header surveyport.HeaderRecord) (string, error) {
	if err := f.pre(ctx, surveyport.OpSaveHeader); err != nil {
		return "", err
	}
	f.record(Call{Op: surveyport.OpSaveHeader, Token: token, Header: header})

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.nextHeaderIndex >= len(f.HeaderKeys) {
		return "", nil
	}
	key := f.HeaderKeys[f.nextHeaderIndex]
	f.nextHeaderIndex++
	return key, nil
}

// SaveDetail records the detail row.
func (f *FakeGateway) SaveDetail(ctx context.Context, token string, detail surveyport.DetailRecord) error {
	if err := f.pre(ctx, surveyport.OpSaveDetail); err != nil {
		return err
	}
	f.record(Call{Op: surveyport.OpSaveDetail, Token: token, Detail: detail})
	return nil
}

// Fail configures the next call for op to return err (wrapped as APIError if
// needed).
func (f *FakeGateway) Fail(op string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.FailNext == nil {
		f.FailNext = make(map[string]error)
	}
	f.FailNext[op] = err
}

// CallsFor returns all recorded calls for the given op, in invocation order.
func (f *FakeGateway) CallsFor(op string) []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	var calls []Call
	for _, call := range f.Calls {
		if call.Op == op {
			calls = append(calls, call)
		}
	}
	return calls
}

// LastCall returns the most recent call for the given op.
func (f *FakeGateway) LastCall(op string) *Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.Calls) - 1; i >= 0; i-- {
		if f.Calls[i].Op == op {
			call := f.Calls[i]
			return &call
		}
	}
	return nil
}

func (f *FakeGateway) pre(ctx context.Context, op string) error {
	if err := ctx.Err(); err != nil {
		return surveyport.NewAPIError(op, surveyport.CodeContext, err)
	}
	return f.maybeFail(op)
}

func (f *FakeGateway) record(call Call) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls = append(f.Calls, call)
}

func (f *FakeGateway) maybeFail(op string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.FailNext == nil {
		return nil
	}
	err, ok := f.FailNext[op]
	if !ok {
		return nil
	}
	delete(f.FailNext, op)
	if _, ok := err.(*surveyport.APIError); ok {
		return err
	}
	return surveyport.NewAPIError(op, "fake_error", err)
}

// NetworkFailure scripts a transport-level APIError for tests.
func NetworkFailure(op string) *surveyport.APIError {
	return surveyport.NewAPIError(op, surveyport.CodeNetwork, fmt.Errorf("connection refused"))
}
