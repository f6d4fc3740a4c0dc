package cmd

import (
	"fmt"
	"strings"

	"github.com/danielolaszy/duebot/internal/config"
	"github.com/danielolaszy/duebot/internal/notify"
	"github.com/danielolaszy/duebot/pkg/models"
	"github.com/spf13/cobra"
)

// validateCmd checks the configuration without touching the network.
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check credentials and the project table",
	Long: `Load the environment and the project routing table, report any problem,
and print where each component's digests would be posted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(settings)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Project table: %s\n", cfg.ProjectsFile)
		fmt.Fprintf(out, "Horizon: %d days, statuses: %s\n", cfg.Table.HorizonDays, strings.Join(cfg.Table.Statuses, ", "))
		for _, project := range cfg.Table.Projects {
			fmt.Fprintf(out, "\n%s (summary -> %s)\n", project.ID, notify.TargetChannel(project.MainChannel, cfg.Debug))
			for _, route := range project.Routes {
				fmt.Fprintf(out, "- %s [%s] -> %s\n",
					route.DisplayLabel(), describeSpec(route.Spec), notify.TargetChannel(route.Channel, cfg.Debug))
			}
		}
		return nil
	},
}

func describeSpec(spec models.ComponentSpec) string {
	if spec.Kind() == models.AnyOf {
		return "any of: " + strings.Join(spec.Names(), " | ")
	}
	return "component: " + spec.Label()
}
