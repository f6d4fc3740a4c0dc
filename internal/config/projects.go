package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/danielolaszy/duebot/pkg/models"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultHorizonDays bounds the "due soon" query.
	DefaultHorizonDays = 7
	// DefaultBotName is the username messages are posted under.
	DefaultBotName = "JIRA bot"
	// DefaultBotIcon is the emoji used as the bot avatar.
	DefaultBotIcon = ":jirabot:"
)

// DefaultStatuses are the workflow states considered open.
var DefaultStatuses = []string{"Open", "In Progress", "Reopened"}

// ProjectTable is the routing table: which projects to scan and where their messages go.
type ProjectTable struct {
	HorizonDays int
	Statuses    []string

	// NotifyEmpty posts digests even when a bucket has no issues
	NotifyEmpty bool

	BotName string
	BotIcon string

	Projects []models.ProjectConfig
}

type projectFile struct {
	HorizonDays int            `yaml:"horizon_days"`
	Statuses    []string       `yaml:"statuses"`
	NotifyEmpty bool           `yaml:"notify_empty"`
	BotName     string         `yaml:"bot_name"`
	BotIcon     string         `yaml:"bot_icon"`
	Projects    []projectEntry `yaml:"projects"`
}

type projectEntry struct {
	ID          string       `yaml:"id"`
	MainChannel string       `yaml:"main_channel"`
	Routes      []routeEntry `yaml:"routes"`
}

type routeEntry struct {
	Component componentField `yaml:"component"`
	Label     string         `yaml:"label"`
	Channel   string         `yaml:"channel"`
}

// componentField accepts either a single name or a list of aliases.
type componentField struct {
	names []string
	many  bool
}

func (c *componentField) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		var name string
		if err := node.Decode(&name); err != nil {
			return err
		}
		c.names = []string{name}
		c.many = false
	case yaml.SequenceNode:
		var names []string
		if err := node.Decode(&names); err != nil {
			return err
		}
		c.names = names
		c.many = true
	default:
		return fmt.Errorf("line %d: component must be a name or a list of names", node.Line)
	}
	return nil
}

func (c componentField) spec() models.ComponentSpec {
	if c.many {
		return models.AnyOfComponents(c.names...)
	}
	if len(c.names) == 0 {
		return models.AnyOfComponents()
	}
	return models.SingleComponent(c.names[0])
}

// LoadProjects reads and validates the project table at path.
func LoadProjects(path string) (*ProjectTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read project table: %w", err)
	}
	table, err := ParseProjects(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return table, nil
}

// ParseProjects decodes a YAML project table, applies defaults and validates it.
func ParseProjects(data []byte) (*ProjectTable, error) {
	var file projectFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse project table: %w", err)
	}

	table := &ProjectTable{
		HorizonDays: file.HorizonDays,
		Statuses:    file.Statuses,
		NotifyEmpty: file.NotifyEmpty,
		BotName:     file.BotName,
		BotIcon:     file.BotIcon,
	}
	applyDefaults(table)

	for _, entry := range file.Projects {
		project := models.ProjectConfig{
			ID:          strings.TrimSpace(entry.ID),
			MainChannel: strings.TrimSpace(entry.MainChannel),
		}
		for _, route := range entry.Routes {
			project.Routes = append(project.Routes, models.ComponentRoute{
				Spec:    route.Component.spec(),
				Channel: strings.TrimSpace(route.Channel),
				Label:   route.Label,
			})
		}
		table.Projects = append(table.Projects, project)
	}

	if err := ValidateProjectTable(table); err != nil {
		return nil, err
	}

	return table, nil
}

func applyDefaults(table *ProjectTable) {
	if table.HorizonDays == 0 {
		table.HorizonDays = DefaultHorizonDays
	}
	if len(table.Statuses) == 0 {
		table.Statuses = append([]string(nil), DefaultStatuses...)
	}
	if table.BotName == "" {
		table.BotName = DefaultBotName
	}
	if table.BotIcon == "" {
		table.BotIcon = DefaultBotIcon
	}
}

// ValidateProjectTable reports every structural problem of the table at once.
func ValidateProjectTable(table *ProjectTable) error {
	if table == nil || len(table.Projects) == 0 {
		return fmt.Errorf("project table has no projects")
	}

	var problems []string
	if table.HorizonDays < 0 {
		problems = append(problems, fmt.Sprintf("horizon_days must be positive, got %d", table.HorizonDays))
	}

	seen := make(map[string]bool)
	for i, project := range table.Projects {
		name := project.ID
		if name == "" {
			name = fmt.Sprintf("#%d", i+1)
			problems = append(problems, fmt.Sprintf("project %s has no id", name))
		} else if seen[name] {
			problems = append(problems, fmt.Sprintf("project %s is declared twice", name))
		}
		seen[project.ID] = true

		if project.MainChannel == "" {
			problems = append(problems, fmt.Sprintf("project %s has no main_channel", name))
		}
		if len(project.Routes) == 0 {
			problems = append(problems, fmt.Sprintf("project %s has no routes", name))
		}
		for j, route := range project.Routes {
			if route.Spec.IsEmpty() || hasBlankName(route.Spec.Names()) {
				problems = append(problems, fmt.Sprintf("project %s route %d has no component", name, j+1))
			}
			if route.Channel == "" {
				problems = append(problems, fmt.Sprintf("project %s route %d has no channel", name, j+1))
			}
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid project table: %s", strings.Join(problems, "; "))
	}
	return nil
}

func hasBlankName(names []string) bool {
	for _, name := range names {
		if strings.TrimSpace(name) == "" {
			return true
		}
	}
	return false
}
