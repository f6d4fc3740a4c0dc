// Package config provides centralized configuration management for the application.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

const (
	// DefaultProjectsFile is read when DUEBOT_PROJECTS is not set.
	DefaultProjectsFile = "projects.yaml"
	// DefaultSchedule runs the triage every morning.
	DefaultSchedule = "0 9 * * *"
	// DefaultTimezone is used to interpret the schedule.
	DefaultTimezone = "UTC"

	// AuthBasic authenticates to JIRA with username and API token.
	AuthBasic = "basic"
	// AuthBearer authenticates to JIRA with a personal access token.
	AuthBearer = "bearer"
)

// Config holds all configuration parameters for the application.
type Config struct {
	Jira  JiraConfig
	Slack SlackConfig

	// Debug redirects every message to the test channel
	Debug bool

	ProjectsFile string
	Schedule     string
	Timezone     string

	Table *ProjectTable
}

// JiraConfig holds JIRA specific configuration.
type JiraConfig struct {
	URL      string
	Username string
	Token    string
	Auth     string
}

// SlackConfig holds Slack specific configuration.
type SlackConfig struct {
	Token string

	// APIURL overrides the Slack Web API endpoint, mostly for tests
	APIURL string
}

// New returns a viper instance with the application's environment variables bound.
// Callers may bind command-line flags to the same keys before calling Load.
func New() *viper.Viper {
	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.BindEnv("jira.url", "JIRA_URL")
	v.BindEnv("jira.username", "JIRA_USERNAME")
	v.BindEnv("jira.token", "JIRA_TOKEN")
	v.BindEnv("jira.auth", "JIRA_AUTH")
	v.BindEnv("slack.token", "SLACK_TOKEN")
	v.BindEnv("slack.api_url", "SLACK_API_URL")
	v.BindEnv("debug", "DUEBOT_DEBUG")
	v.BindEnv("projects", "DUEBOT_PROJECTS")
	v.BindEnv("schedule", "DUEBOT_SCHEDULE")
	v.BindEnv("timezone", "DUEBOT_TIMEZONE")

	v.SetDefault("jira.auth", AuthBasic)
	v.SetDefault("projects", DefaultProjectsFile)
	v.SetDefault("schedule", DefaultSchedule)
	v.SetDefault("timezone", DefaultTimezone)

	return v
}

// Load reads credentials and settings from v, then the project table it points at.
// Every returned error is a configuration error: nothing has touched the network yet.
func Load(v *viper.Viper) (*Config, error) {
	config := &Config{
		Jira: JiraConfig{
			URL:      v.GetString("jira.url"),
			Username: v.GetString("jira.username"),
			Token:    v.GetString("jira.token"),
			Auth:     strings.ToLower(v.GetString("jira.auth")),
		},
		Slack: SlackConfig{
			Token:  v.GetString("slack.token"),
			APIURL: v.GetString("slack.api_url"),
		},
		Debug:        v.GetBool("debug"),
		ProjectsFile: v.GetString("projects"),
		Schedule:     v.GetString("schedule"),
		Timezone:     v.GetString("timezone"),
	}

	if err := ValidateJiraConfig(config); err != nil {
		return nil, err
	}
	if err := ValidateSlackConfig(config); err != nil {
		return nil, err
	}

	table, err := LoadProjects(config.ProjectsFile)
	if err != nil {
		return nil, err
	}
	config.Table = table

	return config, nil
}

// ValidateJiraConfig validates JIRA-specific configuration.
func ValidateJiraConfig(config *Config) error {
	var missingVars []string

	if config.Jira.URL == "" {
		missingVars = append(missingVars, "JIRA_URL")
	}
	if config.Jira.Token == "" {
		missingVars = append(missingVars, "JIRA_TOKEN")
	}

	switch config.Jira.Auth {
	case AuthBasic, "":
		if config.Jira.Username == "" {
			missingVars = append(missingVars, "JIRA_USERNAME")
		}
	case AuthBearer:
	default:
		return fmt.Errorf("unsupported JIRA_AUTH %q: expected %q or %q", config.Jira.Auth, AuthBasic, AuthBearer)
	}

	if len(missingVars) > 0 {
		return fmt.Errorf("missing required environment variables: %v", missingVars)
	}

	return nil
}

// ValidateSlackConfig validates Slack-specific configuration.
func ValidateSlackConfig(config *Config) error {
	if config.Slack.Token == "" {
		return fmt.Errorf("missing required environment variables: [SLACK_TOKEN]")
	}
	return nil
}
