package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"

	"fieldsurvey/pkg/ports/surveyport"
)

// DefaultTimeout bounds every request. The upstream endpoint specifies no
// timeout of its own, so requests would otherwise block indefinitely.
const DefaultTimeout = 30 * time.Second

// Client is the live surveyport.Gateway adapter. All operations POST a
// multipart form to one fixed URL; the operation is named by the
// "endpointname" field and responses are JSON.
type Client struct {
	baseURL string
	http    *http.Client
}

var _ surveyport.Gateway = (*Client)(nil)

// NewClient builds a Client for the given endpoint URL. A non-positive
// timeout falls back to DefaultTimeout.
func NewClient(baseURL string, timeout time.Duration) (*Client, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("api base URL cannot be empty")
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}, nil
}

// Login requests a session token for the given credentials.
func (c *Client) Login(ctx context.Context, username, password string) (surveyport.LoginResult, error) {
	var result surveyport.LoginResult
	fields := map[string]string{
		"UserName": username,
		"Password": password,
	}
	if err := c.post(ctx, surveyport.OpRequestToken, fields, &result); err != nil {
		return surveyport.LoginResult{}, err
	}
	return result, nil
}

// Warehouses fetches the full warehouse list.
func (c *Client) Warehouses(ctx context.Context, token string) ([]surveyport.Warehouse, error) {
	var warehouses []surveyport.Warehouse
	if err := c.post(ctx, surveyport.OpGetWarehouses, sessionFields(token, nil), &warehouses); err != nil {
		return nil, err
	}
	return warehouses, nil
}

// Questions fetches the raw survey question rows.
func (c *Client) Questions(ctx context.Context, token string) ([]surveyport.QuestionRow, error) {
	var rows []surveyport.QuestionRow
	if err := c.post(ctx, surveyport.OpGetQuestions, sessionFields(token, nil), &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// Departments fetches the selectable department list.
func (c *Client) Departments(ctx context.Context, token string) ([]surveyport.Department, error) {
	var departments []surveyport.Department
	if err := c.post(ctx, surveyport.OpGetDepartments, sessionFields(token, nil), &departments); err != nil {
		return nil, err
	}
	return departments, nil
}

// SaveHeader creates one survey response header and returns the key assigned
// by the server. An empty key means the server rejected the header.
func (c *Client) SaveHeader(ctx context.Context, token string, header surveyport.HeaderRecord) (string, error) {
	fields := sessionFields(token, map[string]string{
		"WhseID":     header.WhseID,
		"ClientName": header.ClientName,
		"DeptKey":    strconv.Itoa(header.DeptKey),
		"Comment":    header.Comment,
	})

	var result struct {
		HeaderKey string `json:"HeaderKey"`
	}
	if err := c.post(ctx, surveyport.OpSaveHeader, fields, &result); err != nil {
		return "", err
	}
	return result.HeaderKey, nil
}

// SaveDetail creates one answer row under a previously created header.
func (c *Client) SaveDetail(ctx context.Context, token string, detail surveyport.DetailRecord) error {
	fields := sessionFields(token, map[string]string{
		"HeaderKey":   detail.HeaderKey,
		"QuestionKey": strconv.Itoa(detail.QuestionKey),
		"Answer":      detail.Answer,
	})
	return c.post(ctx, surveyport.OpSaveDetail, fields, nil)
}

func sessionFields(token string, extra map[string]string) map[string]string {
	fields := map[string]string{"usertoken": token}
	for name, value := range extra {
		fields[name] = value
	}
	return fields
}

// post sends one multipart form request and decodes the JSON response into
// out (when out is non-nil). Failures come back as *surveyport.APIError.
func (c *Client) post(ctx context.Context, op string, fields map[string]string, out interface{}) error {
	body := &bytes.Buffer{}
	form := multipart.NewWriter(body)
	if err := form.WriteField("endpointname", op); err != nil {
		return surveyport.NewAPIError(op, surveyport.CodeNetwork, err)
	}
	for name, value := range fields {
		if err := form.WriteField(name, value); err != nil {
			return surveyport.NewAPIError(op, surveyport.CodeNetwork, err)
		}
	}
	if err := form.Close(); err != nil {
		return surveyport.NewAPIError(op, surveyport.CodeNetwork, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, body)
	if err != nil {
		return surveyport.NewAPIError(op, surveyport.CodeNetwork, err)
	}
	req.Header.Set("Content-Type", form.FormDataContentType())

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return surveyport.NewAPIError(op, surveyport.CodeContext, ctx.Err())
		}
		return surveyport.NewAPIError(op, surveyport.CodeNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return surveyport.NewAPIError(op, surveyport.CodeStatus,
			fmt.Errorf("unexpected status %d", resp.StatusCode))
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return surveyport.NewAPIError(op, surveyport.CodeDecode, err)
	}
	return nil
}
