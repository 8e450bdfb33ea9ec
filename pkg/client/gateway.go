package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"taskboard-api/pkg/comment"
	"taskboard-api/pkg/model"
)

// Gateway is the remote data surface the board consumes: table queries,
// status moves, comment writes, and the distinct-value lookups. The HTTP
// implementation talks to the taskboard API; tests swap in fakes.
type Gateway interface {
	ListTasks(ctx context.Context, status model.Status, filters model.Filters, offset int) ([]model.Task, error)
	CountTasks(ctx context.Context, status model.Status, filters model.Filters) (int, error)
	GetTask(ctx context.Context, taskID string) (*model.Task, error)
	UpdateTaskStatus(ctx context.Context, taskID string, status model.Status) error
	ListCommentThread(ctx context.Context, taskID string) ([]*comment.Node, error)
	AddComment(ctx context.Context, taskID string, parentID *string, content string) (*model.Comment, error)
	EditComment(ctx context.Context, commentID, content string) (*model.Comment, error)
	DeleteComment(ctx context.Context, commentID string) error
	DistinctCountries(ctx context.Context) ([]string, error)
	CategoryOptions(ctx context.Context) (*model.CategoryOptions, error)
}

// HTTPGateway implements Gateway against the board API.
type HTTPGateway struct {
	baseURL string
	token   string
	http    *http.Client
}

func NewHTTPGateway(baseURL string) *HTTPGateway {
	return &HTTPGateway{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 15 * time.Second},
	}
}

// Login exchanges an email for a bearer token used on comment and status
// writes.
func (g *HTTPGateway) Login(ctx context.Context, email string) error {
	var body struct {
		Token string `json:"token"`
	}
	err := g.do(ctx, http.MethodPost, "/api/v1/auth/login", nil, map[string]string{"email": email}, &body)
	if err != nil {
		return err
	}
	g.token = body.Token
	return nil
}

func (g *HTTPGateway) ListTasks(ctx context.Context, status model.Status, filters model.Filters, offset int) ([]model.Task, error) {
	query := encodeFilters(filters)
	query.Set("status", string(status))
	query.Set("offset", strconv.Itoa(offset))

	var tasks []model.Task
	if err := g.do(ctx, http.MethodGet, "/api/v1/tasks/", query, nil, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

func (g *HTTPGateway) CountTasks(ctx context.Context, status model.Status, filters model.Filters) (int, error) {
	query := encodeFilters(filters)
	query.Set("status", string(status))

	var body struct {
		Count int `json:"count"`
	}
	if err := g.do(ctx, http.MethodGet, "/api/v1/tasks/count", query, nil, &body); err != nil {
		return 0, err
	}
	return body.Count, nil
}

func (g *HTTPGateway) GetTask(ctx context.Context, taskID string) (*model.Task, error) {
	var found model.Task
	if err := g.do(ctx, http.MethodGet, "/api/v1/tasks/"+url.PathEscape(taskID), nil, nil, &found); err != nil {
		return nil, err
	}
	return &found, nil
}

func (g *HTTPGateway) UpdateTaskStatus(ctx context.Context, taskID string, status model.Status) error {
	path := "/api/v1/tasks/" + url.PathEscape(taskID) + "/status"
	return g.do(ctx, http.MethodPut, path, nil, map[string]string{"status": string(status)}, nil)
}

func (g *HTTPGateway) ListCommentThread(ctx context.Context, taskID string) ([]*comment.Node, error) {
	var thread []*comment.Node
	path := "/api/v1/tasks/" + url.PathEscape(taskID) + "/comments"
	if err := g.do(ctx, http.MethodGet, path, nil, nil, &thread); err != nil {
		return nil, err
	}
	return thread, nil
}

func (g *HTTPGateway) AddComment(ctx context.Context, taskID string, parentID *string, content string) (*model.Comment, error) {
	payload := map[string]interface{}{"content": content}
	if parentID != nil {
		payload["parentId"] = *parentID
	}

	var created model.Comment
	path := "/api/v1/tasks/" + url.PathEscape(taskID) + "/comments"
	if err := g.do(ctx, http.MethodPost, path, nil, payload, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

func (g *HTTPGateway) EditComment(ctx context.Context, commentID, content string) (*model.Comment, error) {
	var updated model.Comment
	path := "/api/v1/comments/" + url.PathEscape(commentID)
	if err := g.do(ctx, http.MethodPut, path, nil, map[string]string{"content": content}, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

func (g *HTTPGateway) DeleteComment(ctx context.Context, commentID string) error {
	return g.do(ctx, http.MethodDelete, "/api/v1/comments/"+url.PathEscape(commentID), nil, nil, nil)
}

func (g *HTTPGateway) DistinctCountries(ctx context.Context) ([]string, error) {
	var countries []string
	if err := g.do(ctx, http.MethodGet, "/api/v1/tasks/countries", nil, nil, &countries); err != nil {
		return nil, err
	}
	return countries, nil
}

func (g *HTTPGateway) CategoryOptions(ctx context.Context) (*model.CategoryOptions, error) {
	var options model.CategoryOptions
	if err := g.do(ctx, http.MethodGet, "/api/v1/tasks/categories", nil, nil, &options); err != nil {
		return nil, err
	}
	return &options, nil
}

type apiEnvelope struct {
	Success bool            `json:"success"`
	Body    json.RawMessage `json:"body"`
	Error   interface{}     `json:"error"`
}

func (g *HTTPGateway) do(ctx context.Context, method, path string, query url.Values, payload, out interface{}) error {
	endpoint := g.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var bodyReader *bytes.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		bodyReader = bytes.NewReader(encoded)
	} else {
		bodyReader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, bodyReader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if g.token != "" {
		req.Header.Set("Authorization", "Bearer "+g.token)
	}

	resp, err := g.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	var envelope apiEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if !envelope.Success {
		return fmt.Errorf("%s %s: %v (http %d)", method, path, envelope.Error, resp.StatusCode)
	}
	if out != nil {
		if err := json.Unmarshal(envelope.Body, out); err != nil {
			return fmt.Errorf("decode response body: %w", err)
		}
	}
	return nil
}

func encodeFilters(f model.Filters) url.Values {
	query := url.Values{}
	if f.Category != "" {
		query.Set("category", f.Category)
	}
	if f.Subcategory != "" {
		query.Set("subcategory", f.Subcategory)
	}
	if f.Search != "" {
		query.Set("search", f.Search)
	}
	if f.HourlyBudgetType != "" {
		query.Set("hourly_budget_type", f.HourlyBudgetType)
	}
	for _, country := range f.Countries {
		query.Add("countries", country)
	}
	if f.DateFrom != nil {
		query.Set("date_from", f.DateFrom.Format(time.RFC3339))
	}
	if f.DateTo != nil {
		query.Set("date_to", f.DateTo.Format(time.RFC3339))
	}
	if f.PriceFrom != nil {
		query.Set("price_from", f.PriceFrom.String())
	}
	if f.PriceTo != nil {
		query.Set("price_to", f.PriceTo.String())
	}
	if f.Limit > 0 {
		query.Set("limit", strconv.Itoa(f.Limit))
	}
	return query
}
