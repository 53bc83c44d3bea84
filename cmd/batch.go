package main

import (
	"encoding/json"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/lead-qualifier/internal/batch"
)

var batchConcurrency int

var batchCmd = &cobra.Command{
	Use:   "batch <leads.csv>",
	Short: "Qualify a CSV of leads and print the summary",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		f, err := os.Open(args[0])
		if err != nil {
			return eris.Wrap(err, "open csv")
		}
		leads, err := batch.ParseCSV(f)
		_ = f.Close()
		if err != nil {
			return err
		}

		env, err := initQualifier(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		concurrency := batchConcurrency
		if concurrency == 0 {
			concurrency = cfg.Batch.Concurrency
		}

		job := batch.NewJob(len(leads), concurrency)
		env.Jobs.Put(job)

		go func() {
			for ev := range batch.Subscribe(ctx, job, 2*time.Second) {
				if ev.Done {
					continue
				}
				zap.L().Info("batch progress",
					zap.Int("processed", ev.Processed),
					zap.Int("total", ev.Total),
					zap.Float64("progress", ev.Progress),
					zap.Int("failed", ev.Failed),
				)
			}
		}()

		env.Orchestrator.Run(ctx, job, leads)

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(batch.Summarize(job))
	},
}

func init() {
	batchCmd.Flags().IntVar(&batchConcurrency, "concurrency", 0, "concurrent leads (default from config)")
	rootCmd.AddCommand(batchCmd)
}
