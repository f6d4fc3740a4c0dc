// Package jira runs the due-date searches against a JIRA server.
package jira

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	jira "github.com/andygrunwald/go-jira"
	"github.com/danielolaszy/duebot/internal/config"
	"github.com/danielolaszy/duebot/internal/logging"
	"github.com/danielolaszy/duebot/pkg/models"
	"golang.org/x/oauth2"
)

// pageSize is the number of issues requested per search call.
const pageSize = 100

var searchFields = []string{
	"summary", "created", "updated", "duedate",
	"priority", "status", "components", "assignee",
}

// Client handles interactions with the JIRA API
type Client struct {
	client *jira.Client
}

// NewClient creates a new JIRA client from the JIRA section of the configuration.
func NewClient(cfg config.JiraConfig) (*Client, error) {
	if err := config.ValidateJiraConfig(&config.Config{Jira: cfg}); err != nil {
		return nil, err
	}

	var httpClient *http.Client
	switch cfg.Auth {
	case config.AuthBearer:
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Token})
		httpClient = oauth2.NewClient(context.Background(), ts)
	default:
		tp := jira.BasicAuthTransport{
			Username: cfg.Username,
			Password: cfg.Token,
		}
		httpClient = tp.Client()
	}

	logging.Debug("jira configuration",
		"url", cfg.URL,
		"auth", cfg.Auth,
		"username", cfg.Username,
		"token", logging.MaskSensitive(cfg.Token))

	client, err := jira.NewClient(httpClient, cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to create jira client: %w", err)
	}

	return &Client{client: client}, nil
}

// BuildJQL renders the search for one project and urgency bucket, ordered by
// due date and then component.
func BuildJQL(q models.IssueQuery) string {
	var due string
	switch q.Bucket {
	case models.SoonDue:
		horizon := q.HorizonDays
		if horizon <= 0 {
			horizon = config.DefaultHorizonDays
		}
		due = fmt.Sprintf(`due > "0" AND due <= %dd`, horizon)
	default:
		due = `due <= "0"`
	}

	statuses := q.Statuses
	if len(statuses) == 0 {
		statuses = config.DefaultStatuses
	}
	quoted := make([]string, len(statuses))
	for i, status := range statuses {
		quoted[i] = quoteValue(status)
	}

	return fmt.Sprintf("project = %s AND status in (%s) AND %s ORDER BY due ASC, component ASC",
		quoteValue(q.Project), strings.Join(quoted, ", "), due)
}

// quoteValue wraps JQL values that contain anything other than letters, digits, '-' or '_'.
func quoteValue(value string) string {
	plain := value != ""
	for _, r := range value {
		if !(r == '-' || r == '_' || r >= '0' && r <= '9' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z') {
			plain = false
			break
		}
	}
	if plain {
		return value
	}
	return `"` + strings.ReplaceAll(value, `"`, `\"`) + `"`
}

type searchRequest struct {
	JQL        string   `json:"jql"`
	StartAt    int      `json:"startAt"`
	MaxResults int      `json:"maxResults"`
	Fields     []string `json:"fields"`
}

type searchResponse struct {
	StartAt    int           `json:"startAt"`
	MaxResults int           `json:"maxResults"`
	Total      int           `json:"total"`
	Issues     []searchIssue `json:"issues"`
}

type named struct {
	Name string `json:"name"`
}

type searchIssue struct {
	Key    string `json:"key"`
	Fields struct {
		Summary    *string `json:"summary"`
		Created    string  `json:"created"`
		Updated    string  `json:"updated"`
		DueDate    string  `json:"duedate"`
		Priority   *named  `json:"priority"`
		Status     *named  `json:"status"`
		Components []named `json:"components"`
		Assignee   *struct {
			DisplayName string `json:"displayName"`
		} `json:"assignee"`
	} `json:"fields"`
}

// SearchIssues runs the query and returns every matching record in server order.
func (c *Client) SearchIssues(ctx context.Context, q models.IssueQuery) ([]models.RawIssue, error) {
	if c.client == nil {
		return nil, fmt.Errorf("JIRA client not initialized")
	}

	jql := BuildJQL(q)
	logging.Debug("searching jira",
		"project", q.Project,
		"bucket", q.Bucket.String(),
		"jql", jql)

	var issues []models.RawIssue
	startAt := 0
	for {
		page, err := c.searchPage(ctx, jql, startAt)
		if err != nil {
			return nil, err
		}
		for _, issue := range page.Issues {
			issues = append(issues, c.toRaw(issue))
		}

		startAt += len(page.Issues)
		if len(page.Issues) == 0 || startAt >= page.Total {
			break
		}
	}

	logging.Debug("jira search complete",
		"project", q.Project,
		"bucket", q.Bucket.String(),
		"count", len(issues))

	return issues, nil
}

func (c *Client) searchPage(ctx context.Context, jql string, startAt int) (*searchResponse, error) {
	body := searchRequest{
		JQL:        jql,
		StartAt:    startAt,
		MaxResults: pageSize,
		Fields:     searchFields,
	}

	req, err := c.client.NewRequestWithContext(ctx, http.MethodPost, "rest/api/2/search", body)
	if err != nil {
		return nil, fmt.Errorf("failed to build jira search request: %w", err)
	}

	var page searchResponse
	resp, err := c.client.Do(req, &page)
	if err != nil {
		status := 0
		if resp != nil {
			status = resp.StatusCode
		}
		return nil, fmt.Errorf("failed to search JIRA issues: %w (status: %d)", err, status)
	}

	return &page, nil
}

// toRaw maps the wire record, keeping absent fields absent.
func (c *Client) toRaw(issue searchIssue) models.RawIssue {
	raw := models.RawIssue{
		Key:     issue.Key,
		URL:     c.permalink(issue.Key),
		Summary: issue.Fields.Summary,
		Created: issue.Fields.Created,
		Updated: issue.Fields.Updated,
		DueDate: issue.Fields.DueDate,
	}
	if issue.Fields.Priority != nil {
		raw.Priority = issue.Fields.Priority.Name
	}
	if issue.Fields.Status != nil {
		raw.Status = issue.Fields.Status.Name
	}
	for _, component := range issue.Fields.Components {
		raw.Components = append(raw.Components, component.Name)
	}
	if issue.Fields.Assignee != nil {
		name := issue.Fields.Assignee.DisplayName
		raw.Assignee = &name
	}
	return raw
}

func (c *Client) permalink(key string) string {
	if key == "" {
		return ""
	}
	base := c.client.GetBaseURL()
	return strings.TrimSuffix(base.String(), "/") + "/browse/" + key
}
