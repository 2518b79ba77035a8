// Package client talks to the Student Marks REST API and keeps the state a
// student-management screen needs: the form being edited, the current page
// of students and the pagination position.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/aanand-mishra/student-marks-api/internal/types"
)

// APIError is a non-2xx answer from the API. Message is the server's
// envelope message, empty when the body was not an envelope.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("students api: status %d", e.StatusCode)
	}
	return fmt.Sprintf("students api: status %d: %s", e.StatusCode, e.Message)
}

// ListResult is one page of the student list.
type ListResult struct {
	Students []types.StudentWithMarks
	Total    int64
	Page     int
	Limit    int
}

// envelope mirrors response.Response / response.ListResponse on the wire.
type envelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Total   int64           `json:"total"`
	Page    int             `json:"page"`
	Limit   int             `json:"limit"`
	Data    json.RawMessage `json:"data"`
}

// API is an HTTP client for /api/students.
type API struct {
	baseURL    string
	httpClient *http.Client
}

func NewAPI(baseURL string, timeout time.Duration) *API {
	return &API{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

func (a *API) List(ctx context.Context, page, limit int) (ListResult, error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("limit", strconv.Itoa(limit))

	env, err := a.do(ctx, http.MethodGet, "/api/students?"+q.Encode(), nil)
	if err != nil {
		return ListResult{}, err
	}

	res := ListResult{Total: env.Total, Page: env.Page, Limit: env.Limit}
	if err := json.Unmarshal(env.Data, &res.Students); err != nil {
		return ListResult{}, fmt.Errorf("decode students: %w", err)
	}
	return res, nil
}

func (a *API) Get(ctx context.Context, id int64) (types.StudentWithMark, error) {
	env, err := a.do(ctx, http.MethodGet, studentPath(id), nil)
	if err != nil {
		return types.StudentWithMark{}, err
	}

	var st types.StudentWithMark
	if err := json.Unmarshal(env.Data, &st); err != nil {
		return types.StudentWithMark{}, fmt.Errorf("decode student: %w", err)
	}
	return st, nil
}

// Create posts the form and returns the server's message.
func (a *API) Create(ctx context.Context, form Form) (string, error) {
	env, err := a.do(ctx, http.MethodPost, "/api/students", form)
	if err != nil {
		return "", err
	}
	return env.Message, nil
}

// Update puts the form to the student with id and returns the server's
// message.
func (a *API) Update(ctx context.Context, id int64, form Form) (string, error) {
	env, err := a.do(ctx, http.MethodPut, studentPath(id), form)
	if err != nil {
		return "", err
	}
	return env.Message, nil
}

func (a *API) Delete(ctx context.Context, id int64) (string, error) {
	env, err := a.do(ctx, http.MethodDelete, studentPath(id), nil)
	if err != nil {
		return "", err
	}
	return env.Message, nil
}

func studentPath(id int64) string {
	return "/api/students/" + strconv.FormatInt(id, 10)
}

func (a *API) do(ctx context.Context, method, path string, body any) (envelope, error) {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return envelope{}, fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, a.baseURL+path, reader)
	if err != nil {
		return envelope{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return envelope{}, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	var env envelope
	decodeErr := json.NewDecoder(resp.Body).Decode(&env)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		if decodeErr == nil {
			apiErr.Message = env.Message
		}
		return envelope{}, apiErr
	}
	if decodeErr != nil {
		return envelope{}, fmt.Errorf("decode response: %w", decodeErr)
	}
	return env, nil
}

// Message returns what a user should be told about err: the server's
// message when there is one, otherwise fallback.
func Message(err error, fallback string) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}
