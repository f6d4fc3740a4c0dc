// Package cmd provides the command-line interface for duebot.
package cmd

import (
	"github.com/danielolaszy/duebot/internal/config"
	"github.com/spf13/cobra"
)

// settings collects environment variables and flags for every command.
var settings = config.New()

var rootCmd = &cobra.Command{
	Use:   "duebot",
	Short: "Duebot posts overdue and due-soon JIRA issues to Slack channels",
	Long: `Duebot searches JIRA projects for open issues that are past their due date
or due within the next few days, groups them by component and posts one digest
per component to the Slack channel configured for it. After the digests, each
project's main channel receives a status summary with a weather icon per component.

Credentials are read from JIRA_URL, JIRA_USERNAME, JIRA_TOKEN and SLACK_TOKEN.
The project and routing table is read from a YAML file (see --projects).`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringP("projects", "p", "", "Path to the project routing table (env DUEBOT_PROJECTS, default projects.yaml)")
	rootCmd.PersistentFlags().Bool("debug", false, "Post every message to the test channel instead of the configured ones (env DUEBOT_DEBUG)")

	settings.BindPFlag("projects", rootCmd.PersistentFlags().Lookup("projects"))
	settings.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))

	rootCmd.AddCommand(notifyCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(validateCmd)
}
