package cmd

import (
	"fmt"

	"github.com/danielolaszy/duebot/internal/config"
	"github.com/danielolaszy/duebot/internal/digest"
	"github.com/danielolaszy/duebot/internal/jira"
	"github.com/danielolaszy/duebot/internal/logging"
	"github.com/danielolaszy/duebot/internal/notify"
	"github.com/danielolaszy/duebot/internal/runner"
	"github.com/danielolaszy/duebot/internal/slack"
	"github.com/spf13/cobra"
)

// notifyCmd runs one triage pass and exits.
var notifyCmd = &cobra.Command{
	Use:   "notify",
	Short: "Post due-date digests once",
	Long: `Run a single triage pass over every configured project:

1. Fetch the Slack member list so assignees can be mentioned
2. Search each project for expired issues and issues due soon
3. Post one digest per component and bucket to the component's channel
4. Post a status summary to the project's main channel

Empty digests are not posted unless notify_empty is set in the project table.
With --debug every message goes to the test channel.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(settings)
		if err != nil {
			return err
		}

		r, err := buildRunner(cfg)
		if err != nil {
			return err
		}

		report, err := r.Run(cmd.Context())
		if err != nil {
			return err
		}

		if report.DispatchFailures > 0 || report.SkippedProjects > 0 {
			logging.Warn("run finished with failures",
				"dispatch_failures", report.DispatchFailures,
				"skipped_projects", report.SkippedProjects)
		}
		return nil
	},
}

// buildRunner wires the JIRA and Slack clients into a runner.
func buildRunner(cfg *config.Config) (*runner.Runner, error) {
	jiraClient, err := jira.NewClient(cfg.Jira)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize jira client: %w", err)
	}

	slackClient, err := slack.NewClient(slack.Options{
		Token:     cfg.Slack.Token,
		APIURL:    cfg.Slack.APIURL,
		Username:  cfg.Table.BotName,
		IconEmoji: cfg.Table.BotIcon,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize slack client: %w", err)
	}

	if cfg.Debug {
		logging.Info("debug mode: all messages go to the test channel", "channel", notify.TestChannel)
	}

	dispatcher := notify.NewDispatcher(slackClient, cfg.Debug)
	return runner.New(cfg.Table, jiraClient, slackClient, dispatcher, digest.NewComposer(nil)), nil
}
