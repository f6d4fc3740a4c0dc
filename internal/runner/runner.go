// Package runner drives one triage pass over every configured project.
package runner

import (
	"context"
	"errors"
	"fmt"

	"github.com/danielolaszy/duebot/internal/config"
	"github.com/danielolaszy/duebot/internal/digest"
	"github.com/danielolaszy/duebot/internal/logging"
	"github.com/danielolaszy/duebot/internal/notify"
	"github.com/danielolaszy/duebot/internal/triage"
	"github.com/danielolaszy/duebot/pkg/models"
)

// IssueSearcher executes tracker queries.
type IssueSearcher interface {
	SearchIssues(ctx context.Context, q models.IssueQuery) ([]models.RawIssue, error)
}

// MemberLister fetches the chat member directory.
type MemberLister interface {
	ListMembers(ctx context.Context) ([]models.Member, error)
}

// Notifier sends a rendered message to a channel.
type Notifier interface {
	Dispatch(ctx context.Context, title, body, channel string) (notify.Result, error)
}

// Report counts what happened during a run.
type Report struct {
	Projects          int
	SkippedProjects   int
	DigestsSent       int
	DigestsSuppressed int
	SummariesSent     int
	DispatchFailures  int
	MalformedIssues   int
	DirectoryMissing  bool
}

// Runner holds the collaborators and routing table for triage runs.
type Runner struct {
	table    *config.ProjectTable
	searcher IssueSearcher
	members  MemberLister
	notifier Notifier
	composer *digest.Composer
}

// New creates a Runner. A nil composer uses the default glyph source.
func New(table *config.ProjectTable, searcher IssueSearcher, members MemberLister, notifier Notifier, composer *digest.Composer) *Runner {
	if composer == nil {
		composer = digest.NewComposer(nil)
	}
	return &Runner{
		table:    table,
		searcher: searcher,
		members:  members,
		notifier: notifier,
		composer: composer,
	}
}

// Run processes every project in table order. Per-issue, per-dispatch and
// per-project failures are logged and counted; only an unusable table or a
// cancelled context ends the run early with an error.
func (r *Runner) Run(ctx context.Context) (Report, error) {
	var report Report

	if err := config.ValidateProjectTable(r.table); err != nil {
		return report, err
	}

	dir := r.directory(ctx, &report)

	for _, project := range r.table.Projects {
		if err := ctx.Err(); err != nil {
			return report, fmt.Errorf("run interrupted before project %s: %w", project.ID, err)
		}

		report.Projects++
		if err := r.runProject(ctx, project, dir, &report); err != nil {
			report.SkippedProjects++
			logging.Error("error processing project",
				"project", project.ID,
				"error", err)
			continue
		}
	}

	logging.Info("triage run complete",
		"projects", report.Projects,
		"skipped_projects", report.SkippedProjects,
		"digests_sent", report.DigestsSent,
		"digests_suppressed", report.DigestsSuppressed,
		"summaries_sent", report.SummariesSent,
		"dispatch_failures", report.DispatchFailures,
		"malformed_issues", report.MalformedIssues)

	return report, nil
}

// directory fetches the member snapshot. On failure the run continues without handles.
func (r *Runner) directory(ctx context.Context, report *Report) triage.Directory {
	members, err := r.members.ListMembers(ctx)
	if err != nil {
		report.DirectoryMissing = true
		logging.Warn("continuing without chat handles",
			"error", &triage.DirectoryUnavailableError{Err: err})
		return triage.Directory{}
	}
	dir := triage.BuildDirectory(members)
	logging.Debug("built member directory", "entries", len(dir))
	return dir
}

func (r *Runner) runProject(ctx context.Context, project models.ProjectConfig, dir triage.Directory, report *Report) error {
	expiredRaw, err := r.search(ctx, project.ID, models.Expired)
	if err != nil {
		return err
	}
	soonRaw, err := r.search(ctx, project.ID, models.SoonDue)
	if err != nil {
		return err
	}

	expired, soon, err := triage.Classify(expiredRaw, soonRaw, dir)
	if err != nil {
		for _, malformed := range triage.MalformedErrors(err) {
			report.MalformedIssues++
			logging.Warn("skipping malformed issue",
				"project", project.ID,
				"issue", malformed.Key,
				"missing", malformed.Missing)
		}
	}

	logging.Info("processing project",
		"project", project.ID,
		"expired_count", len(expired),
		"soon_count", len(soon),
		"routes", len(project.Routes))

	summaries := make([]models.ComponentSummary, 0, len(project.Routes))
	for _, route := range project.Routes {
		label := route.DisplayLabel()
		routedExpired := triage.Route(expired, route.Spec)
		routedSoon := triage.Route(soon, route.Spec)

		r.sendDigest(ctx, digest.ExpiredTitle(project.ID, label), routedExpired, route.Channel, report)
		r.sendDigest(ctx, digest.SoonTitle(project.ID, label), routedSoon, route.Channel, report)

		summaries = append(summaries, models.ComponentSummary{
			Label:   label,
			Channel: route.Channel,
			Expired: len(routedExpired),
			Soon:    len(routedSoon),
		})
	}

	body := digest.RenderSummary(project.ID, digest.Aggregate(summaries))
	if _, err := r.notifier.Dispatch(ctx, digest.SummaryTitle, body, project.MainChannel); err != nil {
		report.DispatchFailures++
		logging.Error("failed to post project summary",
			"project", project.ID,
			"channel", project.MainChannel,
			"error", err)
		return nil
	}
	report.SummariesSent++

	return nil
}

func (r *Runner) search(ctx context.Context, project string, bucket models.Bucket) ([]models.RawIssue, error) {
	raws, err := r.searcher.SearchIssues(ctx, models.IssueQuery{
		Project:     project,
		Bucket:      bucket,
		HorizonDays: r.table.HorizonDays,
		Statuses:    r.table.Statuses,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s issues: %w", bucket, err)
	}
	return raws, nil
}

// sendDigest posts one bucket's digest. Empty digests are suppressed unless
// the table asks for them.
func (r *Runner) sendDigest(ctx context.Context, title string, issues []models.Issue, channel string, report *Report) {
	if len(issues) == 0 && !r.table.NotifyEmpty {
		report.DigestsSuppressed++
		logging.Debug("no issues, digest suppressed", "title", title, "channel", channel)
		return
	}

	body := r.composer.Compose(title, issues)
	result, err := r.notifier.Dispatch(ctx, title, body, channel)
	if err != nil {
		report.DispatchFailures++
		var failed *notify.DispatchFailedError
		if errors.As(err, &failed) {
			channel = failed.Channel
		}
		logging.Error("failed to post digest",
			"title", title,
			"channel", channel,
			"error", err)
		return
	}

	report.DigestsSent++
	logging.Info("digest posted",
		"title", title,
		"channel", result.Channel,
		"issue_count", len(issues))
}
