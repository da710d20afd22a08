package main

import (
	"fmt"
	"os"

	"onmydesk/scheduler"
	"onmydesk/worker"

	"github.com/spf13/cobra"
)

var (
	submitParams  []string
	submitOwner   string
	submitProcess bool
)

var submitCmd = &cobra.Command{
	Use:   "submit <report-key>",
	Short: "Create a pending report",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp(cmd.Context(), "processor.log", nil)
		if err != nil {
			return err
		}
		defer a.Close()

		params, err := parseParams(submitParams)
		if err != nil {
			return err
		}
		t, err := a.reports.Get(args[0])
		if err != nil {
			return err
		}
		if err := t.Validate(params); err != nil {
			return err
		}
		job := worker.NewJob(t.Key, params, submitOwner)
		if err := a.store.SaveJob(cmd.Context(), job); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Report #%d created\n", job.ID)
		if !submitProcess {
			return nil
		}
		err = a.runner().Run(cmd.Context(), job)
		a.flushMetrics()
		if err != nil {
			return fmt.Errorf("report #%d: %w", job.ID, err)
		}
		for _, p := range job.ResultsList() {
			fmt.Fprintln(cmd.OutOrStdout(), p)
		}
		return nil
	},
}

var (
	scheduleParams []string
	scheduleOwner  string
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Manage recurring reports",
}

var scheduleAddCmd = &cobra.Command{
	Use:   "add <report-key> <periodicity>",
	Short: "Add a recurring report",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp(cmd.Context(), "scheduler.log", nil)
		if err != nil {
			return err
		}
		defer a.Close()

		p, err := scheduler.ParsePeriodicity(args[1])
		if err != nil {
			return err
		}
		params, err := parseParams(scheduleParams)
		if err != nil {
			return err
		}
		t, err := a.reports.Get(args[0])
		if err != nil {
			return err
		}
		// reference_date est fourni à chaque exécution
		if err := t.Validate(withReferenceDate(params)); err != nil {
			return err
		}
		sc := &scheduler.Schedule{Report: t.Key, Params: params, Periodicity: p, CreatedBy: scheduleOwner}
		if err := a.store.SaveSchedule(cmd.Context(), sc); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Scheduler #%d created (%s)\n", sc.ID, sc.Periodicity)
		return nil
	},
}

var scheduleListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recurring reports",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp(cmd.Context(), "scheduler.log", nil)
		if err != nil {
			return err
		}
		defer a.Close()

		items, err := a.store.ListSchedules(cmd.Context())
		if err != nil {
			return err
		}
		for _, sc := range items {
			fmt.Fprintf(cmd.OutOrStdout(), "#%d\t%s\t%s\t%s\n", sc.ID, sc.Report, sc.Periodicity, sc.CreatedBy)
		}
		return nil
	},
}

func init() {
	owner := os.Getenv("USER")
	submitCmd.Flags().StringArrayVar(&submitParams, "param", nil, "report param key=value (repeatable)")
	submitCmd.Flags().StringVar(&submitOwner, "owner", owner, "user recorded as creator")
	submitCmd.Flags().BoolVar(&submitProcess, "process", false, "process the report right away")

	scheduleAddCmd.Flags().StringArrayVar(&scheduleParams, "param", nil, "report param key=value (repeatable)")
	scheduleAddCmd.Flags().StringVar(&scheduleOwner, "owner", owner, "user recorded as creator")
	scheduleCmd.AddCommand(scheduleAddCmd)
	scheduleCmd.AddCommand(scheduleListCmd)
}
