package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/danielolaszy/duebot/internal/config"
	"github.com/danielolaszy/duebot/internal/logging"
	"github.com/danielolaszy/duebot/internal/scheduler"
	"github.com/spf13/cobra"
)

// serveCmd keeps running and triggers a triage pass on a cron schedule.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Post due-date digests on a schedule",
	Long: `Run the same pass as 'notify' on a cron schedule until interrupted.

The schedule is a standard five-field cron expression evaluated in --timezone.

Example:
  duebot serve --schedule "0 9 * * 1-5" --timezone Asia/Tokyo`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(settings)
		if err != nil {
			return err
		}

		r, err := buildRunner(cfg)
		if err != nil {
			return err
		}

		sched, err := scheduler.New(cfg.Timezone)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		err = sched.Schedule(cfg.Schedule, func() {
			if _, err := r.Run(ctx); err != nil {
				logging.Error("scheduled run failed", "error", err)
			}
		})
		if err != nil {
			return err
		}

		sched.Start()
		logging.Info("scheduler started",
			"schedule", cfg.Schedule,
			"timezone", cfg.Timezone,
			"next_run", sched.Next())

		<-ctx.Done()
		logging.Info("shutting down, waiting for running job")
		<-sched.Stop().Done()
		return nil
	},
}

func init() {
	serveCmd.Flags().String("schedule", "", "Cron schedule (env DUEBOT_SCHEDULE, default \""+config.DefaultSchedule+"\")")
	serveCmd.Flags().String("timezone", "", "Timezone of the schedule (env DUEBOT_TIMEZONE, default "+config.DefaultTimezone+")")

	settings.BindPFlag("schedule", serveCmd.Flags().Lookup("schedule"))
	settings.BindPFlag("timezone", serveCmd.Flags().Lookup("timezone"))
}

