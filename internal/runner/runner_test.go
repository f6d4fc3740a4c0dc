package runner

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/danielolaszy/duebot/internal/config"
	"github.com/danielolaszy/duebot/internal/digest"
	"github.com/danielolaszy/duebot/internal/notify"
	"github.com/danielolaszy/duebot/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSearcher struct {
	results map[string][]models.RawIssue
	fail    map[string]error
	queries []models.IssueQuery
}

func searchKey(project string, bucket models.Bucket) string {
	return project + "/" + bucket.String()
}

func (f *fakeSearcher) SearchIssues(_ context.Context, q models.IssueQuery) ([]models.RawIssue, error) {
	f.queries = append(f.queries, q)
	key := searchKey(q.Project, q.Bucket)
	if err := f.fail[key]; err != nil {
		return nil, err
	}
	return f.results[key], nil
}

type fakeMembers struct {
	members []models.Member
	err     error
}

func (f *fakeMembers) ListMembers(context.Context) ([]models.Member, error) {
	return f.members, f.err
}

type post struct {
	channel string
	title   string
	body    string
}

// fakePoster records posts and fails for the listed channels.
type fakePoster struct {
	posts []post
	fail  map[string]bool
}

func (f *fakePoster) PostMessage(_ context.Context, channel, title, body string) (string, error) {
	f.posts = append(f.posts, post{channel: channel, title: title, body: body})
	if f.fail[channel] {
		return "", errors.New("channel_not_found")
	}
	return "1700000000.000100", nil
}

type fixedPicker struct{}

func (fixedPicker) Intn(int) int { return 0 }

func strPtr(s string) *string { return &s }

func raw(key string, assignee string, components ...string) models.RawIssue {
	r := models.RawIssue{
		Key:        key,
		URL:        "https://tracker.example.com/browse/" + key,
		Summary:    strPtr("task " + key),
		DueDate:    "2023-05-10",
		Status:     "Open",
		Components: components,
	}
	if assignee != "" {
		r.Assignee = strPtr(assignee)
	}
	return r
}

func table(projects ...models.ProjectConfig) *config.ProjectTable {
	return &config.ProjectTable{
		HorizonDays: 7,
		Statuses:    config.DefaultStatuses,
		Projects:    projects,
	}
}

func designInfraProject(id string) models.ProjectConfig {
	return models.ProjectConfig{
		ID:          id,
		MainChannel: "#main",
		Routes: []models.ComponentRoute{
			{Spec: models.SingleComponent("Design"), Channel: "#design"},
			{Spec: models.SingleComponent("Infra"), Channel: "#infra"},
		},
	}
}

func newRunner(tbl *config.ProjectTable, searcher *fakeSearcher, members *fakeMembers, poster *fakePoster, debug bool) *Runner {
	return New(tbl, searcher, members, notify.NewDispatcher(poster, debug), digest.NewComposer(fixedPicker{}))
}

func digestLines(body string) []string {
	var lines []string
	for _, line := range strings.Split(body, "\n") {
		if strings.HasPrefix(line, "- ") {
			lines = append(lines, line)
		}
	}
	return lines
}

func TestRunRoutesByComponent(t *testing.T) {
	searcher := &fakeSearcher{results: map[string][]models.RawIssue{
		searchKey("USA", models.Expired): {
			raw("USA-1", "Jane Doe", "Design"),
			raw("USA-2", "", "Design"),
			raw("USA-3", "John Roe", "Infra"),
		},
	}}
	members := &fakeMembers{members: []models.Member{{DisplayName: "Jane Doe", Handle: "jdoe"}}}
	poster := &fakePoster{}

	report, err := newRunner(table(designInfraProject("USA")), searcher, members, poster, false).Run(context.Background())
	require.NoError(t, err)

	require.Len(t, poster.posts, 3)

	design := poster.posts[0]
	assert.Equal(t, "#design", design.channel)
	assert.Equal(t, "*USA/Design* expired issues", design.title)
	lines := digestLines(design.body)
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "USA-1")
	assert.True(t, strings.HasSuffix(lines[0], "(@jdoe)"))
	assert.True(t, strings.HasSuffix(lines[1], digest.UnassignedMarker))

	infra := poster.posts[1]
	assert.Equal(t, "#infra", infra.channel)
	lines = digestLines(infra.body)
	require.Len(t, lines, 1)
	assert.True(t, strings.HasSuffix(lines[0], "(John Roe)"))

	summary := poster.posts[2]
	assert.Equal(t, "#main", summary.channel)
	assert.Equal(t, digest.SummaryTitle, summary.title)
	assert.Equal(t, "*USA* issue status\n"+
		":sunny: *Design* (#design) expired *2* due soon *0*\n"+
		":sunny: *Infra* (#infra) expired *1* due soon *0*\n", summary.body)

	assert.Equal(t, Report{
		Projects:          1,
		DigestsSent:       2,
		DigestsSuppressed: 2,
		SummariesSent:     1,
	}, report)

	require.Len(t, searcher.queries, 2)
	assert.Equal(t, models.Expired, searcher.queries[0].Bucket)
	assert.Equal(t, models.SoonDue, searcher.queries[1].Bucket)
	assert.Equal(t, 7, searcher.queries[1].HorizonDays)
}

func TestRunOverlappingRoutes(t *testing.T) {
	searcher := &fakeSearcher{results: map[string][]models.RawIssue{
		searchKey("USA", models.SoonDue): {raw("USA-1", "", "Design", "Infra")},
	}}
	poster := &fakePoster{}

	report, err := newRunner(table(designInfraProject("USA")), searcher, &fakeMembers{}, poster, false).Run(context.Background())
	require.NoError(t, err)

	require.Len(t, poster.posts, 3)
	assert.Equal(t, "#design", poster.posts[0].channel)
	assert.Equal(t, "*USA/Design* issues due soon", poster.posts[0].title)
	assert.Len(t, digestLines(poster.posts[0].body), 1)
	assert.Equal(t, "#infra", poster.posts[1].channel)
	assert.Len(t, digestLines(poster.posts[1].body), 1)
	assert.Contains(t, poster.posts[2].body, "*Design* (#design) expired *0* due soon *1*")
	assert.Contains(t, poster.posts[2].body, "*Infra* (#infra) expired *0* due soon *1*")
	assert.Equal(t, 2, report.DigestsSent)
}

func TestRunSuppressesEmptyDigests(t *testing.T) {
	searcher := &fakeSearcher{results: map[string][]models.RawIssue{
		searchKey("USA", models.Expired): {raw("USA-1", "", "Venue"), raw("USA-2", "")},
	}}
	poster := &fakePoster{}

	report, err := newRunner(table(designInfraProject("USA")), searcher, &fakeMembers{}, poster, false).Run(context.Background())
	require.NoError(t, err)

	require.Len(t, poster.posts, 1, "only the project summary is posted")
	assert.Equal(t, "#main", poster.posts[0].channel)
	assert.Contains(t, poster.posts[0].body, "*Design* (#design) expired *0* due soon *0*")
	assert.Equal(t, 4, report.DigestsSuppressed)
	assert.Equal(t, 0, report.DigestsSent)
}

func TestRunNotifyEmpty(t *testing.T) {
	tbl := table(designInfraProject("USA"))
	tbl.NotifyEmpty = true
	poster := &fakePoster{}

	report, err := newRunner(tbl, &fakeSearcher{}, &fakeMembers{}, poster, false).Run(context.Background())
	require.NoError(t, err)

	require.Len(t, poster.posts, 5)
	assert.Contains(t, poster.posts[0].body, "*0 issues*")
	assert.Empty(t, digestLines(poster.posts[0].body))
	assert.Equal(t, 4, report.DigestsSent)
}

func TestRunContinuesAfterDispatchFailure(t *testing.T) {
	searcher := &fakeSearcher{results: map[string][]models.RawIssue{
		searchKey("USA", models.Expired): {raw("USA-1", "", "Design"), raw("USA-2", "", "Infra")},
	}}
	poster := &fakePoster{fail: map[string]bool{"#design": true}}

	report, err := newRunner(table(designInfraProject("USA")), searcher, &fakeMembers{}, poster, false).Run(context.Background())
	require.NoError(t, err)

	channels := make([]string, 0, len(poster.posts))
	for _, p := range poster.posts {
		channels = append(channels, p.channel)
	}
	assert.Equal(t, []string{"#design", "#infra", "#main"}, channels, "summary is posted after every digest attempt")
	assert.Equal(t, 1, report.DispatchFailures)
	assert.Equal(t, 1, report.DigestsSent)
	assert.Equal(t, 1, report.SummariesSent)
}

func TestRunSummaryFailureDoesNotStopNextProject(t *testing.T) {
	poster := &fakePoster{fail: map[string]bool{"#main": true}}
	other := designInfraProject("ISSHA")
	other.MainChannel = "#committee"

	report, err := newRunner(table(designInfraProject("USA"), other), &fakeSearcher{}, &fakeMembers{}, poster, false).Run(context.Background())
	require.NoError(t, err)

	require.Len(t, poster.posts, 2)
	assert.Equal(t, "#committee", poster.posts[1].channel)
	assert.Equal(t, 1, report.DispatchFailures)
	assert.Equal(t, 1, report.SummariesSent)
	assert.Equal(t, 0, report.SkippedProjects)
}

func TestRunDebugRedirectsEverything(t *testing.T) {
	searcher := &fakeSearcher{results: map[string][]models.RawIssue{
		searchKey("USA", models.Expired): {raw("USA-1", "", "Design")},
	}}
	poster := &fakePoster{}

	_, err := newRunner(table(designInfraProject("USA")), searcher, &fakeMembers{}, poster, true).Run(context.Background())
	require.NoError(t, err)

	require.Len(t, poster.posts, 2)
	for _, p := range poster.posts {
		assert.Equal(t, notify.TestChannel, p.channel)
	}
	assert.Contains(t, poster.posts[1].body, "(#design)", "summary still names the configured channel")
}

func TestRunWithoutDirectory(t *testing.T) {
	searcher := &fakeSearcher{results: map[string][]models.RawIssue{
		searchKey("USA", models.Expired): {raw("USA-1", "Jane Doe", "Design")},
	}}
	members := &fakeMembers{err: errors.New("invalid_auth")}
	poster := &fakePoster{}

	report, err := newRunner(table(designInfraProject("USA")), searcher, members, poster, false).Run(context.Background())
	require.NoError(t, err)

	assert.True(t, report.DirectoryMissing)
	lines := digestLines(poster.posts[0].body)
	require.Len(t, lines, 1)
	assert.True(t, strings.HasSuffix(lines[0], "(Jane Doe)"))
	assert.NotContains(t, lines[0], "@")
}

func TestRunSkipsProjectOnSearchFailure(t *testing.T) {
	other := designInfraProject("ISSHA")
	searcher := &fakeSearcher{
		fail: map[string]error{searchKey("USA", models.SoonDue): errors.New("status: 503")},
		results: map[string][]models.RawIssue{
			searchKey("ISSHA", models.Expired): {raw("ISSHA-1", "", "Infra")},
		},
	}
	poster := &fakePoster{}

	report, err := newRunner(table(designInfraProject("USA"), other), searcher, &fakeMembers{}, poster, false).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, report.Projects)
	assert.Equal(t, 1, report.SkippedProjects)
	require.Len(t, poster.posts, 2)
	assert.Equal(t, "*ISSHA/Infra* expired issues", poster.posts[0].title)
	assert.Contains(t, poster.posts[1].body, "*ISSHA* issue status")
}

func TestRunSkipsMalformedIssues(t *testing.T) {
	broken := raw("USA-2", "", "Design")
	broken.Summary = nil
	searcher := &fakeSearcher{results: map[string][]models.RawIssue{
		searchKey("USA", models.Expired): {raw("USA-1", "", "Design"), broken},
	}}
	poster := &fakePoster{}

	report, err := newRunner(table(designInfraProject("USA")), searcher, &fakeMembers{}, poster, false).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, report.MalformedIssues)
	assert.Len(t, digestLines(poster.posts[0].body), 1)
	assert.Contains(t, poster.posts[1].body, "expired *1*")
}

func TestRunSeverityInSummary(t *testing.T) {
	var expired []models.RawIssue
	for i := 0; i < 10; i++ {
		expired = append(expired, raw("USA-D", "", "Design"))
	}
	for i := 0; i < 5; i++ {
		expired = append(expired, raw("USA-I", "", "Infra"))
	}
	searcher := &fakeSearcher{results: map[string][]models.RawIssue{searchKey("USA", models.Expired): expired}}
	poster := &fakePoster{}

	_, err := newRunner(table(designInfraProject("USA")), searcher, &fakeMembers{}, poster, false).Run(context.Background())
	require.NoError(t, err)

	summary := poster.posts[len(poster.posts)-1].body
	assert.Contains(t, summary, ":umbrella: *Design* (#design) expired *10*")
	assert.Contains(t, summary, ":cloud: *Infra* (#infra) expired *5*")
}

func TestRunAnyOfRouteLabel(t *testing.T) {
	project := models.ProjectConfig{
		ID:          "ISSHA",
		MainChannel: "#committee",
		Routes: []models.ComponentRoute{
			{Spec: models.AnyOfComponents("Python Boot Camp", "Pycamp Caravan"), Channel: "#pycamp"},
		},
	}
	searcher := &fakeSearcher{results: map[string][]models.RawIssue{
		searchKey("ISSHA", models.Expired): {raw("ISSHA-1", "", "Pycamp Caravan"), raw("ISSHA-2", "", "Python Boot Camp")},
	}}
	poster := &fakePoster{}

	_, err := newRunner(table(project), searcher, &fakeMembers{}, poster, false).Run(context.Background())
	require.NoError(t, err)

	require.Len(t, poster.posts, 2)
	assert.Equal(t, "*ISSHA/Python Boot Camp, Pycamp Caravan* expired issues", poster.posts[0].title)
	assert.Len(t, digestLines(poster.posts[0].body), 2)
	assert.Contains(t, poster.posts[1].body, "*Python Boot Camp, Pycamp Caravan* (#pycamp) expired *2*")
}

func TestRunEmptyTable(t *testing.T) {
	searcher := &fakeSearcher{}
	poster := &fakePoster{}

	_, err := newRunner(table(), searcher, &fakeMembers{}, poster, false).Run(context.Background())
	require.Error(t, err)
	assert.Empty(t, searcher.queries)
	assert.Empty(t, poster.posts)
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	searcher := &fakeSearcher{}

	_, err := newRunner(table(designInfraProject("USA")), searcher, &fakeMembers{}, &fakePoster{}, false).Run(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, searcher.queries)
}
