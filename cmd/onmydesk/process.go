package main

import (
	"errors"
	"time"

	"onmydesk/lock"
	"onmydesk/report"
	"onmydesk/scheduler"
	"onmydesk/worker"

	"github.com/spf13/cobra"
)

var processIDs []int64

var processCmd = &cobra.Command{
	Use:   "process",
	Short: "Process pending reports",
	Long:  `Process the pending reports, at most batch_size of them, or exactly the pending ones among --ids.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp(cmd.Context(), "processor.log", cmd.OutOrStdout())
		if err != nil {
			return err
		}
		defer a.Close()

		batch := &worker.BatchProcessor{
			Jobs:        a.store,
			Runner:      a.runner(),
			LockPath:    a.cfg.Lock.Processor,
			LockTimeout: a.cfg.Lock.Timeout(),
			BatchSize:   a.cfg.BatchSize,
			Logger:      a.logger,
			Metrics:     a.metrics,
		}
		_, err = batch.RunPending(cmd.Context(), processIDs)
		if errors.Is(err, lock.ErrTimeout) {
			a.logger.Write("Could not obtain lock to process reports")
			err = nil
		}
		a.flushMetrics()
		return err
	},
}

var schedulerDate string

var schedulerProcessCmd = &cobra.Command{
	Use:   "scheduler-process",
	Short: "Create and run the reports of the schedules due today",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp(cmd.Context(), "scheduler.log", cmd.OutOrStdout())
		if err != nil {
			return err
		}
		defer a.Close()

		ref, err := report.ResolveDate(schedulerDate, time.Now())
		if err != nil {
			return err
		}
		s := &scheduler.Scheduler{
			Store:       a.store,
			Runner:      a.runner(),
			LockPath:    a.cfg.Lock.Scheduler,
			LockTimeout: a.cfg.Lock.Timeout(),
			Logger:      a.logger,
			Metrics:     a.metrics,
		}
		_, err = s.Run(cmd.Context(), ref)
		if errors.Is(err, lock.ErrTimeout) {
			a.logger.Write("Could not obtain lock to process scheduler")
			err = nil
		}
		a.flushMetrics()
		return err
	},
}

func init() {
	processCmd.Flags().Int64SliceVar(&processIDs, "ids", nil, "process only these pending report ids")
	schedulerProcessCmd.Flags().StringVar(&schedulerDate, "date", "D", "reference date (YYYY-MM-DD, D, D-1...)")
}
