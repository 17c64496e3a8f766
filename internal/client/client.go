package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"learncode/internal/domain/model"
)

// APIError is a non-2xx reply from the server.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server returned %d %s", e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("server returned %d: %s", e.StatusCode, e.Message)
}

// Client talks to the learncode API. The bearer token is read through
// tokenProvider on every request.
type Client struct {
	mu            sync.RWMutex
	baseURL       string
	http          *http.Client
	tokenProvider func() string
}

func New(baseURL string, timeout time.Duration, tokenProvider func() string) *Client {
	return &Client{
		baseURL:       strings.TrimRight(baseURL, "/"),
		http:          &http.Client{Timeout: timeout},
		tokenProvider: tokenProvider,
	}
}

func (c *Client) BaseURL() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.baseURL
}

func (c *Client) SetBaseURL(baseURL string) {
	c.mu.Lock()
	c.baseURL = strings.TrimRight(baseURL, "/")
	c.mu.Unlock()
}

func (c *Client) SetTokenProvider(fn func() string) {
	c.mu.Lock()
	c.tokenProvider = fn
	c.mu.Unlock()
}

func (c *Client) token() string {
	c.mu.RLock()
	fn := c.tokenProvider
	c.mu.RUnlock()
	if fn == nil {
		return ""
	}
	return fn()
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, in, out interface{}) error {
	return c.doWithToken(ctx, c.token(), method, path, query, in, out)
}

func (c *Client) doWithToken(ctx context.Context, token, method, path string, query url.Values, in, out interface{}) error {
	target := c.BaseURL() + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return fmt.Errorf("build request failed: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response body failed: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var e struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(data, &e) == nil {
			apiErr.Message = e.Error
		}
		return apiErr
	}
	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode %s %s response: %w", method, path, err)
	}
	return nil
}

// VerifyToken checks token with the server and returns its principal.
func (c *Client) VerifyToken(ctx context.Context, token string) (*model.User, error) {
	var user model.User
	if err := c.doWithToken(ctx, token, http.MethodGet, "/auth/verify", nil, nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

type AuthResult struct {
	User  *model.User `json:"user"`
	Token string      `json:"token"`
}

type credentials struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

func (c *Client) Login(ctx context.Context, login, password string) (*AuthResult, error) {
	var res AuthResult
	if err := c.doWithToken(ctx, "", http.MethodPost, "/auth/login", nil, credentials{login, password}, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) Signup(ctx context.Context, login, password string) (*AuthResult, error) {
	var res AuthResult
	if err := c.doWithToken(ctx, "", http.MethodPost, "/auth/signup", nil, credentials{login, password}, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// GithubLoginURL is the page that starts the OAuth flow; the token is
// delivered to redirect once the user approves.
func (c *Client) GithubLoginURL(redirect string) string {
	u := c.BaseURL() + "/auth/github"
	if redirect != "" {
		u += "?" + url.Values{"redirect_uri": {redirect}}.Encode()
	}
	return u
}

func (c *Client) ListProblems(ctx context.Context, difficulty string) ([]model.Problem, error) {
	var q url.Values
	if difficulty != "" {
		q = url.Values{"difficulty": {difficulty}}
	}
	var problems []model.Problem
	if err := c.do(ctx, http.MethodGet, "/problems", q, nil, &problems); err != nil {
		return nil, err
	}
	return problems, nil
}

func (c *Client) GetProblem(ctx context.Context, id string) (*model.Problem, error) {
	var p model.Problem
	if err := c.do(ctx, http.MethodGet, "/problems/"+url.PathEscape(id), nil, nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

type SubmitRequest struct {
	ProblemID string               `json:"problem_id"`
	Language  string               `json:"language"`
	Code      string               `json:"code"`
	Type      model.SubmissionKind `json:"type"`
}

type SubmitResponse struct {
	SubmissionID string                 `json:"submission_id"`
	Status       model.SubmissionStatus `json:"status"`
	Type         model.SubmissionKind   `json:"type"`
}

func (c *Client) Submit(ctx context.Context, req SubmitRequest) (*SubmitResponse, error) {
	var res SubmitResponse
	if err := c.do(ctx, http.MethodPost, "/submit", nil, req, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) GetSubmission(ctx context.Context, id string) (*model.Submission, error) {
	var sub model.Submission
	if err := c.do(ctx, http.MethodGet, "/submissions/"+url.PathEscape(id), nil, nil, &sub); err != nil {
		return nil, err
	}
	return &sub, nil
}

// GetRunSubmission polls one RUN submission.
func (c *Client) GetRunSubmission(ctx context.Context, problemID, submissionID string) (*model.Submission, error) {
	q := url.Values{
		"problem_id":    {problemID},
		"submission_id": {submissionID},
		"type":          {string(model.KindRun)},
	}
	var sub model.Submission
	if err := c.do(ctx, http.MethodGet, "/submissions", q, nil, &sub); err != nil {
		return nil, err
	}
	return &sub, nil
}

// ListSubmissions returns the caller's SUBMIT history for a problem.
func (c *Client) ListSubmissions(ctx context.Context, problemID string) ([]model.Submission, error) {
	q := url.Values{"problem_id": {problemID}, "type": {string(model.KindSubmit)}}
	var subs []model.Submission
	if err := c.do(ctx, http.MethodGet, "/submissions", q, nil, &subs); err != nil {
		return nil, err
	}
	return subs, nil
}

type ProblemInput struct {
	Title         string                  `json:"title"`
	Description   string                  `json:"description"`
	Difficulty    model.ProblemDifficulty `json:"difficulty"`
	Input         string                  `json:"input"`
	Output        string                  `json:"output"`
	ExampleInput  string                  `json:"example_input"`
	ExampleOutput string                  `json:"example_output"`
}

func (c *Client) CreateProblem(ctx context.Context, in ProblemInput) (*model.Problem, error) {
	var res struct {
		Message string         `json:"message"`
		Problem *model.Problem `json:"problem"`
	}
	if err := c.do(ctx, http.MethodPost, "/admin/add", nil, in, &res); err != nil {
		return nil, err
	}
	if res.Problem == nil {
		return nil, fmt.Errorf("create problem: response carried no problem")
	}
	return res.Problem, nil
}

func (c *Client) DeleteProblem(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/admin/problems/"+url.PathEscape(id), nil, nil, nil)
}

func (c *Client) AdminListProblems(ctx context.Context) ([]model.Problem, error) {
	var problems []model.Problem
	if err := c.do(ctx, http.MethodGet, "/admin/problems", nil, nil, &problems); err != nil {
		return nil, err
	}
	return problems, nil
}
